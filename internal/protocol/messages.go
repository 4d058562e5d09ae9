package protocol

// HELLO (client -> host)
type HelloMsg struct {
	Type              string   `json:"type"`
	ProtocolVersion   string   `json:"protocol_version"`
	SupportedVersions []string `json:"supported_versions,omitempty"`
	ClientName        string   `json:"client_name"`
	SessionID         string   `json:"session_id,omitempty"`
	CatalogDigest     string   `json:"catalog_digest,omitempty"`
}

// WELCOME (host -> client)
type WelcomeMsg struct {
	Type            string   `json:"type"`
	ProtocolVersion string   `json:"protocol_version"`
	SelectedVersion string   `json:"selected_version,omitempty"`
	HostName        string   `json:"host_name"`
	Capabilities    []string `json:"capabilities"`
}

// STATE (host -> client): a full snapshot of the observable world, sent on
// every change. The last STATE replaces the previous one wholesale.
type StateMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Seq             uint64 `json:"seq"`

	Mode     string         `json:"mode"`
	Enemy    *EncounterInfo `json:"enemy,omitempty"`
	Catching bool           `json:"catching,omitempty"`

	Balances  map[string]int64  `json:"balances,omitempty"`
	Gates     map[string]bool   `json:"gates,omitempty"`
	Inventory map[string]int64  `json:"inventory,omitempty"`
	// Ledger maps species id (decimal string) to "caught" or "shiny".
	Ledger    map[string]string `json:"ledger,omitempty"`

	Location    Location  `json:"location"`
	Unreachable []string  `json:"unreachable,omitempty"`
	Runs        []RunInfo `json:"runs,omitempty"`

	Economy *EconomyInfo          `json:"economy,omitempty"`
	Runners map[string]RunnerInfo `json:"runners,omitempty"`
}

type EncounterInfo struct {
	SpeciesID int    `json:"species_id"`
	Name      string `json:"name"`
	Shiny     bool   `json:"shiny"`
}

type Location struct {
	Route string `json:"route,omitempty"` // "region:number"
	Town  string `json:"town,omitempty"`
}

type RunInfo struct {
	Name     string `json:"name"`
	Unlocked bool   `json:"unlocked"`
	Complete bool   `json:"complete"`
	// Error is set when the host could not answer the completion query.
	Error    string `json:"error,omitempty"`
}

type EconomyInfo struct {
	Multipliers         map[string]float64 `json:"multipliers,omitempty"`
	Throughput          map[string]float64 `json:"throughput,omitempty"` // by region
	AuxCatchBonus       float64            `json:"aux_catch_bonus,omitempty"`
	BestExperienceRoute string             `json:"best_experience_route,omitempty"`
}

type RunnerInfo struct {
	Running bool `json:"running"`
}

// CMD (client -> host)
type CmdMsg struct {
	Type            string      `json:"type"`
	ProtocolVersion string      `json:"protocol_version"`
	Seq             uint64      `json:"seq"`
	Cmd             string      `json:"cmd"`
	Route           string      `json:"route,omitempty"`
	Town            string      `json:"town,omitempty"`
	Tool            string      `json:"tool,omitempty"`
	Runner          string      `json:"runner,omitempty"`
	Mode            *RunnerMode `json:"mode,omitempty"`
}

type RunnerMode struct {
	ForceFight          bool `json:"force_fight"`
	StopOnShinyComplete bool `json:"stop_on_shiny_complete"`
}

// ERROR (host -> client): a rejected HELLO or CMD.
type ErrorMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Code            string `json:"code"`
	Message         string `json:"message,omitempty"`
	Seq             uint64 `json:"seq,omitempty"`
}
