// Package host declares the capabilities the hunt controller consumes from the
// game it drives. Every capability has a neutral implementation that is used
// when the running host does not provide it.
package host

import (
	"errors"
	"time"

	"shinyhunt.ai/internal/catalog"
)

// ErrUnavailable is returned by queries whose backing capability is absent.
var ErrUnavailable = errors.New("host capability unavailable")

type Mode int

const (
	ModeIdle Mode = iota
	ModeFighting
	ModeDungeon
	ModeSafari
	ModeTemporaryBattle
	ModeTown
)

func (m Mode) String() string {
	switch m {
	case ModeIdle:
		return "idle"
	case ModeFighting:
		return "fighting"
	case ModeDungeon:
		return "dungeon"
	case ModeSafari:
		return "safari"
	case ModeTemporaryBattle:
		return "temporaryBattle"
	case ModeTown:
		return "town"
	default:
		return "unknown"
	}
}

// InInstance reports modes that take the player off the open-world map.
func (m Mode) InInstance() bool {
	return m == ModeDungeon || m == ModeSafari || m == ModeTemporaryBattle
}

type CaughtStatus int

const (
	NotCaught CaughtStatus = iota
	Caught
	CaughtShiny
)

type Encounter struct {
	SpeciesID int
	Name      string
	Shiny     bool
}

type Encounters interface {
	Mode() Mode
	// Enemy returns the active opponent of the battle backing mode.
	Enemy(mode Mode) (Encounter, bool)
	Catching() bool
}

type Wallet interface {
	Balance(currency string) int64
}

type Unlocks interface {
	Unlocked(gate string) bool
}

type Movement interface {
	CanReach(r catalog.Route) bool
	MoveToRoute(r catalog.Route)
	MoveToTown(name string)
	IsAtTown(name string) bool
	CurrentRoute() (catalog.RouteRef, bool)
}

type Inventory interface {
	Quantity(tool string) int64
}

type Filter interface {
	CatchOnlyShinyWith(tool string) bool
	CatchAllWith(tool string) bool
	Disable()
}

type Ledger interface {
	Status(speciesID int) CaughtStatus
}

// Runs answers unlock and completion queries for dungeons and the safari zone.
type Runs interface {
	RunUnlocked(name string) bool
	RunComplete(name string) (bool, error)
}

type Economy interface {
	Multiplier(currency string) float64
	Throughput(region int) float64
	AuxCatchBonus() float64
	BestExperienceRoute() (catalog.RouteRef, bool)
}

type RunnerMode struct {
	ForceFight          bool
	StopOnShinyComplete bool
}

type Runner interface {
	Enable()
	Disable()
	Running() bool
	SetMode(m RunnerMode)
	StopAfterCurrentRun()
}

type Clock interface {
	Now() time.Time
}

// Host bundles the resolved capabilities. Use Resolve to fill gaps.
type Host struct {
	Encounters    Encounters
	Wallet        Wallet
	Unlocks       Unlocks
	Movement      Movement
	Inventory     Inventory
	Filter        Filter
	Ledger        Ledger
	Runs          Runs
	Economy       Economy
	DungeonRunner Runner
	SafariRunner  Runner
	Clock         Clock
}

// Resolve returns a copy of h where every nil capability is replaced by its
// neutral implementation.
func Resolve(h Host) Host {
	if h.Encounters == nil {
		h.Encounters = NoEncounters{}
	}
	if h.Wallet == nil {
		h.Wallet = EmptyWallet{}
	}
	if h.Unlocks == nil {
		h.Unlocks = Locked{}
	}
	if h.Movement == nil {
		h.Movement = Stationary{}
	}
	if h.Inventory == nil {
		h.Inventory = EmptyInventory{}
	}
	if h.Filter == nil {
		h.Filter = NoFilter{}
	}
	if h.Ledger == nil {
		h.Ledger = EmptyLedger{}
	}
	if h.Runs == nil {
		h.Runs = NoRuns{}
	}
	if h.Economy == nil {
		h.Economy = FlatEconomy{}
	}
	if h.DungeonRunner == nil {
		h.DungeonRunner = NoRunner{}
	}
	if h.SafariRunner == nil {
		h.SafariRunner = NoRunner{}
	}
	if h.Clock == nil {
		h.Clock = SystemClock{}
	}
	return h
}
