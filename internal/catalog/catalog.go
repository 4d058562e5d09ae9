package catalog

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Currencies and unlock gates the controller reads from the host.
const (
	CurrencyDungeonToken = "dungeonToken"
	CurrencySafariTicket = "safariTicket"

	GateDungeonTicket = "dungeonTicket"
	GateSafariPass    = "safariPass"
)

// Capture tool ids.
const (
	ToolMasterball = "Masterball"
	ToolUltraball  = "Ultraball"
	ToolGreatball  = "Greatball"
	ToolPokeball   = "Pokeball"
)

type RouteRef struct {
	Region int
	Number int
}

func (r RouteRef) String() string { return fmt.Sprintf("%d:%d", r.Region, r.Number) }

func (r RouteRef) Less(o RouteRef) bool {
	if r.Region != o.Region {
		return r.Region < o.Region
	}
	return r.Number < o.Number
}

// ParseRouteRef parses the "region:number" form.
func ParseRouteRef(s string) (RouteRef, error) {
	region, number, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return RouteRef{}, fmt.Errorf("route %q: want region:number", s)
	}
	r, err := strconv.Atoi(strings.TrimSpace(region))
	if err != nil {
		return RouteRef{}, fmt.Errorf("route %q: bad region: %w", s, err)
	}
	n, err := strconv.Atoi(strings.TrimSpace(number))
	if err != nil {
		return RouteRef{}, fmt.Errorf("route %q: bad number: %w", s, err)
	}
	return RouteRef{Region: r, Number: n}, nil
}

type Route struct {
	Region      int      `yaml:"region" json:"region"`
	Number      int      `yaml:"number" json:"number"`
	SubRegion   int      `yaml:"sub_region" json:"sub_region"`
	Name        string   `yaml:"name" json:"name,omitempty"`
	Species     []string `yaml:"species" json:"species"`
	AvgHP       float64  `yaml:"avg_hp" json:"avg_hp"`
	TokenYield  float64  `yaml:"token_yield" json:"token_yield"`
	TicketYield float64  `yaml:"ticket_yield" json:"ticket_yield"`
}

func (r Route) Ref() RouteRef { return RouteRef{Region: r.Region, Number: r.Number} }

type Species struct {
	ID        int    `yaml:"id" json:"id"`
	Name      string `yaml:"name" json:"name"`
	CatchRate int    `yaml:"catch_rate" json:"catch_rate"`
}

// Run is a ticket-gated dungeon town.
type Run struct {
	Name      string `yaml:"name" json:"name"`
	Region    int    `yaml:"region" json:"region"`
	SubRegion int    `yaml:"sub_region" json:"sub_region"`
	TokenCost int64  `yaml:"token_cost" json:"token_cost"`
}

type SafariZone struct {
	Name      string `yaml:"name" json:"name"`
	Region    int    `yaml:"region" json:"region"`
	SubRegion int    `yaml:"sub_region" json:"sub_region"`
	EntryCost int64  `yaml:"entry_cost" json:"entry_cost"`
}

// Tool is a capture tool. Tier 0 is the premium tool.
type Tool struct {
	ID             string  `yaml:"id" json:"id"`
	Tier           int     `yaml:"tier" json:"tier"`
	CatchBonus     float64 `yaml:"catch_bonus" json:"catch_bonus"`
	CatchTimeTicks float64 `yaml:"catch_time_ticks" json:"catch_time_ticks"`
}

type SubRegionRef struct {
	Region    int `yaml:"region" json:"region"`
	SubRegion int `yaml:"sub_region" json:"sub_region"`
}

// Def is the on-disk shape of catalog.yaml.
type Def struct {
	Routes             []Route        `yaml:"routes"`
	Species            []Species      `yaml:"species"`
	Dungeons           []Run          `yaml:"dungeons"`
	Safari             *SafariZone    `yaml:"safari,omitempty"`
	Tools              []Tool         `yaml:"tools,omitempty"`
	ExcludedSubRegions []SubRegionRef `yaml:"excluded_sub_regions,omitempty"`
}

type Catalog struct {
	Routes   []Route
	Runs     []Run
	Safari   *SafariZone
	Tools    []Tool
	Excluded []SubRegionRef
	Digest   string

	species  map[string]Species
	routeIdx map[RouteRef]int
	runIdx   map[string]int
	toolIdx  map[string]int
}

func DefaultTools() []Tool {
	return []Tool{
		{ID: ToolMasterball, Tier: 0, CatchBonus: 100, CatchTimeTicks: 0.5},
		{ID: ToolUltraball, Tier: 1, CatchBonus: 10, CatchTimeTicks: 0.75},
		{ID: ToolGreatball, Tier: 2, CatchBonus: 5, CatchTimeTicks: 1},
		{ID: ToolPokeball, Tier: 3, CatchBonus: 0, CatchTimeTicks: 1.25},
	}
}

func Load(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(raw)
}

func Parse(raw []byte) (*Catalog, error) {
	var def Def
	if err := yaml.Unmarshal(raw, &def); err != nil {
		return nil, fmt.Errorf("catalog.yaml: %w", err)
	}
	c, err := New(def)
	if err != nil {
		return nil, fmt.Errorf("catalog.yaml: %w", err)
	}
	c.Digest = sha256Hex(raw)
	return c, nil
}

// New normalizes and validates def. Route species that are missing from the
// species table are allowed; such routes simply never count as complete.
func New(def Def) (*Catalog, error) {
	c := &Catalog{
		Routes:   append([]Route(nil), def.Routes...),
		Runs:     append([]Run(nil), def.Dungeons...),
		Safari:   def.Safari,
		Tools:    append([]Tool(nil), def.Tools...),
		Excluded: append([]SubRegionRef(nil), def.ExcludedSubRegions...),
		species:  make(map[string]Species, len(def.Species)),
		routeIdx: make(map[RouteRef]int, len(def.Routes)),
		runIdx:   make(map[string]int, len(def.Dungeons)),
		toolIdx:  map[string]int{},
	}
	if len(c.Tools) == 0 {
		c.Tools = DefaultTools()
	}

	sort.SliceStable(c.Routes, func(i, j int) bool { return c.Routes[i].Ref().Less(c.Routes[j].Ref()) })
	sort.SliceStable(c.Runs, func(i, j int) bool { return RunLess(c.Runs[i], c.Runs[j]) })
	sort.SliceStable(c.Tools, func(i, j int) bool { return c.Tools[i].Tier < c.Tools[j].Tier })

	for i, r := range c.Routes {
		if _, dup := c.routeIdx[r.Ref()]; dup {
			return nil, fmt.Errorf("duplicate route %s", r.Ref())
		}
		if r.AvgHP < 0 || r.TokenYield < 0 || r.TicketYield < 0 {
			return nil, fmt.Errorf("route %s: negative stats", r.Ref())
		}
		c.routeIdx[r.Ref()] = i
	}
	for _, s := range def.Species {
		name := strings.TrimSpace(s.Name)
		if name == "" {
			return nil, fmt.Errorf("species %d: empty name", s.ID)
		}
		if _, dup := c.species[name]; dup {
			return nil, fmt.Errorf("duplicate species %q", name)
		}
		c.species[name] = s
	}
	for i, r := range c.Runs {
		if strings.TrimSpace(r.Name) == "" {
			return nil, fmt.Errorf("dungeon %d: empty name", i)
		}
		if _, dup := c.runIdx[r.Name]; dup {
			return nil, fmt.Errorf("duplicate dungeon %q", r.Name)
		}
		if r.TokenCost < 0 {
			return nil, fmt.Errorf("dungeon %q: negative token_cost", r.Name)
		}
		c.runIdx[r.Name] = i
	}
	if c.Safari != nil && strings.TrimSpace(c.Safari.Name) == "" {
		return nil, fmt.Errorf("safari: empty name")
	}
	for i, t := range c.Tools {
		if t.ID == "" {
			return nil, fmt.Errorf("tool %d: empty id", i)
		}
		if _, dup := c.toolIdx[t.ID]; dup {
			return nil, fmt.Errorf("duplicate tool %q", t.ID)
		}
		c.toolIdx[t.ID] = i
	}
	return c, nil
}

// RunLess orders runs by (region, sub-region, name).
func RunLess(a, b Run) bool {
	if a.Region != b.Region {
		return a.Region < b.Region
	}
	if a.SubRegion != b.SubRegion {
		return a.SubRegion < b.SubRegion
	}
	return a.Name < b.Name
}

func (c *Catalog) Route(ref RouteRef) (Route, bool) {
	i, ok := c.routeIdx[ref]
	if !ok {
		return Route{}, false
	}
	return c.Routes[i], true
}

// RouteIndex returns the position of ref in catalog order.
func (c *Catalog) RouteIndex(ref RouteRef) (int, bool) {
	i, ok := c.routeIdx[ref]
	return i, ok
}

func (c *Catalog) Species(name string) (Species, bool) {
	s, ok := c.species[strings.TrimSpace(name)]
	return s, ok
}

func (c *Catalog) Run(name string) (Run, bool) {
	i, ok := c.runIdx[name]
	if !ok {
		return Run{}, false
	}
	return c.Runs[i], true
}

func (c *Catalog) Tool(id string) (Tool, bool) {
	i, ok := c.toolIdx[id]
	if !ok {
		return Tool{}, false
	}
	return c.Tools[i], true
}

// PremiumTool is the lowest-tier tool in the table.
func (c *Catalog) PremiumTool() Tool {
	if len(c.Tools) == 0 {
		return DefaultTools()[0]
	}
	return c.Tools[0]
}

// IsExcluded reports whether route sits in a sub-region the hunt never visits.
func (c *Catalog) IsExcluded(r Route) bool {
	for _, ex := range c.Excluded {
		if ex.Region == r.Region && ex.SubRegion == r.SubRegion {
			return true
		}
	}
	return false
}

func (c *Catalog) RouteNames() []string {
	out := make([]string, 0, len(c.Routes))
	for _, r := range c.Routes {
		out = append(out, r.Ref().String())
	}
	return out
}

func (c *Catalog) ToolIDs() []string {
	out := make([]string, 0, len(c.Tools))
	for _, t := range c.Tools {
		out = append(out, t.ID)
	}
	return out
}

func (c *Catalog) RunNames() []string {
	out := make([]string, 0, len(c.Runs))
	for _, r := range c.Runs {
		out = append(out, r.Name)
	}
	return out
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
