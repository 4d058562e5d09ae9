package host

import (
	"time"

	"shinyhunt.ai/internal/catalog"
)

type NoEncounters struct{}

func (NoEncounters) Mode() Mode                   { return ModeIdle }
func (NoEncounters) Enemy(Mode) (Encounter, bool) { return Encounter{}, false }
func (NoEncounters) Catching() bool               { return false }

type EmptyWallet struct{}

func (EmptyWallet) Balance(string) int64 { return 0 }

type Locked struct{}

func (Locked) Unlocked(string) bool { return false }

// Stationary cannot move anywhere.
type Stationary struct{}

func (Stationary) CanReach(catalog.Route) bool            { return false }
func (Stationary) MoveToRoute(catalog.Route)              {}
func (Stationary) MoveToTown(string)                      {}
func (Stationary) IsAtTown(string) bool                   { return false }
func (Stationary) CurrentRoute() (catalog.RouteRef, bool) { return catalog.RouteRef{}, false }

type EmptyInventory struct{}

func (EmptyInventory) Quantity(string) int64 { return 0 }

type NoFilter struct{}

func (NoFilter) CatchOnlyShinyWith(string) bool { return false }
func (NoFilter) CatchAllWith(string) bool       { return false }
func (NoFilter) Disable()                       {}

type EmptyLedger struct{}

func (EmptyLedger) Status(int) CaughtStatus { return NotCaught }

type NoRuns struct{}

func (NoRuns) RunUnlocked(string) bool          { return false }
func (NoRuns) RunComplete(string) (bool, error) { return false, ErrUnavailable }

// FlatEconomy applies no multipliers and assumes one point of damage per tick.
type FlatEconomy struct{}

func (FlatEconomy) Multiplier(string) float64                     { return 1 }
func (FlatEconomy) Throughput(int) float64                        { return 1 }
func (FlatEconomy) AuxCatchBonus() float64                        { return 0 }
func (FlatEconomy) BestExperienceRoute() (catalog.RouteRef, bool) { return catalog.RouteRef{}, false }

type NoRunner struct{}

func (NoRunner) Enable()              {}
func (NoRunner) Disable()             {}
func (NoRunner) Running() bool        { return false }
func (NoRunner) SetMode(RunnerMode)   {}
func (NoRunner) StopAfterCurrentRun() {}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }
