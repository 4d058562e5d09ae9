// Package hosttest provides an in-memory host for driving the hunt packages in
// tests. Every capability is backed by plain maps and records the side effects
// it receives, so tests can assert on movement, filter and runner calls.
package hosttest

import (
	"time"

	"shinyhunt.ai/internal/catalog"
	"shinyhunt.ai/internal/host"
)

type Fake struct {
	ModeValue   host.Mode
	Enemies     map[host.Mode]host.Encounter
	CatchingNow bool

	Balances map[string]int64
	Gates    map[string]bool
	Stock    map[string]int64
	Statuses map[int]host.CaughtStatus

	Unreachable map[catalog.RouteRef]bool
	At          *catalog.RouteRef
	Town        string

	RunsUnlocked map[string]bool
	RunsComplete map[string]bool
	RunErrors    map[string]error

	Multipliers map[string]float64
	Throughputs map[int]float64
	AuxBonus    float64
	ExpRoute    *catalog.RouteRef

	// Recorded side effects.
	RouteMoves   []catalog.RouteRef
	TownMoves    []string
	FilterLog    []string
	ActiveFilter string

	Dungeon *FakeRunner
	Safari  *FakeRunner

	Time time.Time
}

func New() *Fake {
	return &Fake{
		Enemies:      map[host.Mode]host.Encounter{},
		Balances:     map[string]int64{},
		Gates:        map[string]bool{},
		Stock:        map[string]int64{},
		Statuses:     map[int]host.CaughtStatus{},
		Unreachable:  map[catalog.RouteRef]bool{},
		RunsUnlocked: map[string]bool{},
		RunsComplete: map[string]bool{},
		RunErrors:    map[string]error{},
		Multipliers:  map[string]float64{},
		Throughputs:  map[int]float64{},
		Dungeon:      &FakeRunner{},
		Safari:       &FakeRunner{},
		Time:         time.Unix(1_700_000_000, 0),
	}
}

// Host exposes every capability of f.
func (f *Fake) Host() host.Host {
	return host.Host{
		Encounters:    f,
		Wallet:        f,
		Unlocks:       f,
		Movement:      f,
		Inventory:     f,
		Filter:        f,
		Ledger:        f,
		Runs:          f,
		Economy:       f,
		DungeonRunner: f.Dungeon,
		SafariRunner:  f.Safari,
		Clock:         f,
	}
}

func (f *Fake) Advance(d time.Duration) { f.Time = f.Time.Add(d) }
func (f *Fake) Now() time.Time          { return f.Time }

func (f *Fake) Mode() host.Mode { return f.ModeValue }

func (f *Fake) Enemy(mode host.Mode) (host.Encounter, bool) {
	e, ok := f.Enemies[mode]
	return e, ok
}

func (f *Fake) Catching() bool { return f.CatchingNow }

func (f *Fake) Balance(currency string) int64 { return f.Balances[currency] }

func (f *Fake) Unlocked(gate string) bool { return f.Gates[gate] }

func (f *Fake) CanReach(r catalog.Route) bool { return !f.Unreachable[r.Ref()] }

func (f *Fake) MoveToRoute(r catalog.Route) {
	ref := r.Ref()
	f.RouteMoves = append(f.RouteMoves, ref)
	f.At = &ref
	f.Town = ""
}

func (f *Fake) MoveToTown(name string) {
	f.TownMoves = append(f.TownMoves, name)
	f.Town = name
	f.At = nil
}

func (f *Fake) IsAtTown(name string) bool { return f.Town == name }

func (f *Fake) CurrentRoute() (catalog.RouteRef, bool) {
	if f.At == nil {
		return catalog.RouteRef{}, false
	}
	return *f.At, true
}

func (f *Fake) Quantity(tool string) int64 { return f.Stock[tool] }

func (f *Fake) CatchOnlyShinyWith(tool string) bool {
	f.FilterLog = append(f.FilterLog, "shiny:"+tool)
	f.ActiveFilter = "shiny:" + tool
	return true
}

func (f *Fake) CatchAllWith(tool string) bool {
	f.FilterLog = append(f.FilterLog, "all:"+tool)
	f.ActiveFilter = "all:" + tool
	return true
}

func (f *Fake) Disable() {
	f.FilterLog = append(f.FilterLog, "off")
	f.ActiveFilter = ""
}

func (f *Fake) Status(id int) host.CaughtStatus { return f.Statuses[id] }

func (f *Fake) RunUnlocked(name string) bool { return f.RunsUnlocked[name] }

func (f *Fake) RunComplete(name string) (bool, error) {
	if err := f.RunErrors[name]; err != nil {
		return false, err
	}
	return f.RunsComplete[name], nil
}

func (f *Fake) Multiplier(currency string) float64 {
	if m, ok := f.Multipliers[currency]; ok {
		return m
	}
	return 1
}

func (f *Fake) Throughput(region int) float64 {
	if t, ok := f.Throughputs[region]; ok {
		return t
	}
	return 1
}

func (f *Fake) AuxCatchBonus() float64 { return f.AuxBonus }

func (f *Fake) BestExperienceRoute() (catalog.RouteRef, bool) {
	if f.ExpRoute == nil {
		return catalog.RouteRef{}, false
	}
	return *f.ExpRoute, true
}

// ShinyAll marks the named species of c as caught shiny.
func (f *Fake) ShinyAll(c *catalog.Catalog, names ...string) {
	for _, n := range names {
		if s, ok := c.Species(n); ok {
			f.Statuses[s.ID] = host.CaughtShiny
		}
	}
}

type FakeRunner struct {
	On        bool
	Mode      host.RunnerMode
	Enables   int
	Disables  int
	StopAfter int
}

func (r *FakeRunner) Enable() {
	r.On = true
	r.Enables++
}

func (r *FakeRunner) Disable() {
	r.On = false
	r.Disables++
}

func (r *FakeRunner) Running() bool             { return r.On }
func (r *FakeRunner) SetMode(m host.RunnerMode) { r.Mode = m }
func (r *FakeRunner) StopAfterCurrentRun()      { r.StopAfter++ }
