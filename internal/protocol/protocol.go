// Package protocol defines the JSON messages exchanged with the host bridge
// over a websocket.
package protocol

import "encoding/json"

const Version = "1.0"

// SupportedVersions lists every protocol version this client can speak,
// newest first.
var SupportedVersions = []string{Version}

// Message types.
const (
	TypeHello   = "HELLO"
	TypeWelcome = "WELCOME"
	TypeState   = "STATE"
	TypeCmd     = "CMD"
	TypeError   = "ERROR"
)

// BaseMessage lets us route unknown JSON messages by type.
type BaseMessage struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version,omitempty"`
}

func DecodeBase(b []byte) (BaseMessage, error) {
	var m BaseMessage
	err := json.Unmarshal(b, &m)
	return m, err
}

// Capability names announced in WELCOME.
const (
	CapEncounters    = "encounters"
	CapWallet        = "wallet"
	CapUnlocks       = "unlocks"
	CapMovement      = "movement"
	CapInventory     = "inventory"
	CapFilter        = "filter"
	CapLedger        = "ledger"
	CapRuns          = "runs"
	CapEconomy       = "economy"
	CapDungeonRunner = "dungeon_runner"
	CapSafariRunner  = "safari_runner"
)

// Command names carried by CMD.
const (
	CmdMoveRoute       = "MOVE_ROUTE"
	CmdMoveTown        = "MOVE_TOWN"
	CmdFilterShiny     = "FILTER_SHINY"
	CmdFilterAll       = "FILTER_ALL"
	CmdFilterOff       = "FILTER_OFF"
	CmdRunnerEnable    = "RUNNER_ENABLE"
	CmdRunnerDisable   = "RUNNER_DISABLE"
	CmdRunnerMode      = "RUNNER_MODE"
	CmdRunnerStopAfter = "RUNNER_STOP_AFTER"
)

// Runner names used by the runner commands and STATE.
const (
	RunnerDungeon = "dungeon"
	RunnerSafari  = "safari"
)
