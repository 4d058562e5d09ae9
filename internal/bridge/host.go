package bridge

import (
	"fmt"

	"shinyhunt.ai/internal/catalog"
	"shinyhunt.ai/internal/host"
	"shinyhunt.ai/internal/protocol"
)

// Host exposes the capabilities the host announced. Capabilities it did not
// announce are left to their neutral implementations. Reads made while
// disconnected answer as if the capability were absent.
func (c *Client) Host() host.Host {
	c.mu.RLock()
	caps := c.caps
	c.mu.RUnlock()

	var h host.Host
	if caps[protocol.CapEncounters] {
		h.Encounters = encounters{c}
	}
	if caps[protocol.CapWallet] {
		h.Wallet = wallet{c}
	}
	if caps[protocol.CapUnlocks] {
		h.Unlocks = unlocks{c}
	}
	if caps[protocol.CapMovement] {
		h.Movement = movement{c}
	}
	if caps[protocol.CapInventory] {
		h.Inventory = inventory{c}
	}
	if caps[protocol.CapFilter] {
		h.Filter = filter{c}
	}
	if caps[protocol.CapLedger] {
		h.Ledger = ledger{c}
	}
	if caps[protocol.CapRuns] {
		h.Runs = runs{c}
	}
	if caps[protocol.CapEconomy] {
		h.Economy = economy{c}
	}
	if caps[protocol.CapDungeonRunner] {
		h.DungeonRunner = runner{c, protocol.RunnerDungeon}
	}
	if caps[protocol.CapSafariRunner] {
		h.SafariRunner = runner{c, protocol.RunnerSafari}
	}
	return host.Resolve(h)
}

type encounters struct{ c *Client }

func (e encounters) Mode() host.Mode {
	v, _ := e.c.snapshot()
	return v.mode
}

func (e encounters) Enemy(mode host.Mode) (host.Encounter, bool) {
	v, ok := e.c.snapshot()
	if !ok || v.enemy == nil || v.mode != mode {
		return host.Encounter{}, false
	}
	return *v.enemy, true
}

func (e encounters) Catching() bool {
	v, _ := e.c.snapshot()
	return v.catching
}

type wallet struct{ c *Client }

func (w wallet) Balance(currency string) int64 {
	v, _ := w.c.snapshot()
	return v.balances[currency]
}

type unlocks struct{ c *Client }

func (u unlocks) Unlocked(gate string) bool {
	v, _ := u.c.snapshot()
	return v.gates[gate]
}

type movement struct{ c *Client }

func (m movement) CanReach(r catalog.Route) bool {
	v, ok := m.c.snapshot()
	return ok && !v.unreachable[r.Ref()]
}

func (m movement) MoveToRoute(r catalog.Route) {
	m.c.sendLogged(protocol.CmdMsg{Cmd: protocol.CmdMoveRoute, Route: r.Ref().String()})
}

func (m movement) MoveToTown(name string) {
	m.c.sendLogged(protocol.CmdMsg{Cmd: protocol.CmdMoveTown, Town: name})
}

func (m movement) IsAtTown(name string) bool {
	v, ok := m.c.snapshot()
	return ok && v.town != "" && v.town == name
}

func (m movement) CurrentRoute() (catalog.RouteRef, bool) {
	v, ok := m.c.snapshot()
	if !ok || v.route == nil {
		return catalog.RouteRef{}, false
	}
	return *v.route, true
}

type inventory struct{ c *Client }

func (i inventory) Quantity(tool string) int64 {
	v, _ := i.c.snapshot()
	return v.inventory[tool]
}

type filter struct{ c *Client }

func (f filter) CatchOnlyShinyWith(tool string) bool {
	return f.c.sendLogged(protocol.CmdMsg{Cmd: protocol.CmdFilterShiny, Tool: tool})
}

func (f filter) CatchAllWith(tool string) bool {
	return f.c.sendLogged(protocol.CmdMsg{Cmd: protocol.CmdFilterAll, Tool: tool})
}

func (f filter) Disable() {
	f.c.sendLogged(protocol.CmdMsg{Cmd: protocol.CmdFilterOff})
}

type ledger struct{ c *Client }

func (l ledger) Status(id int) host.CaughtStatus {
	v, _ := l.c.snapshot()
	return v.ledger[id]
}

type runs struct{ c *Client }

func (r runs) RunUnlocked(name string) bool {
	v, _ := r.c.snapshot()
	return v.runs[name].Unlocked
}

func (r runs) RunComplete(name string) (bool, error) {
	v, ok := r.c.snapshot()
	if !ok {
		return false, ErrNotConnected
	}
	info, ok := v.runs[name]
	if !ok {
		return false, fmt.Errorf("run %q: %w", name, host.ErrUnavailable)
	}
	if info.Error != "" {
		return false, fmt.Errorf("run %q: %s", name, info.Error)
	}
	return info.Complete, nil
}

type economy struct{ c *Client }

func (e economy) Multiplier(currency string) float64 {
	v, _ := e.c.snapshot()
	if m, ok := v.multipliers[currency]; ok {
		return m
	}
	return 1
}

func (e economy) Throughput(region int) float64 {
	v, _ := e.c.snapshot()
	if t, ok := v.throughput[region]; ok {
		return t
	}
	return 1
}

func (e economy) AuxCatchBonus() float64 {
	v, _ := e.c.snapshot()
	return v.auxBonus
}

func (e economy) BestExperienceRoute() (catalog.RouteRef, bool) {
	v, _ := e.c.snapshot()
	if v.bestExp == nil {
		return catalog.RouteRef{}, false
	}
	return *v.bestExp, true
}

type runner struct {
	c    *Client
	name string
}

func (r runner) Enable() {
	r.c.sendLogged(protocol.CmdMsg{Cmd: protocol.CmdRunnerEnable, Runner: r.name})
}

func (r runner) Disable() {
	r.c.sendLogged(protocol.CmdMsg{Cmd: protocol.CmdRunnerDisable, Runner: r.name})
}

func (r runner) Running() bool {
	v, _ := r.c.snapshot()
	return v.runners[r.name]
}

func (r runner) SetMode(m host.RunnerMode) {
	r.c.sendLogged(protocol.CmdMsg{
		Cmd:    protocol.CmdRunnerMode,
		Runner: r.name,
		Mode:   &protocol.RunnerMode{ForceFight: m.ForceFight, StopOnShinyComplete: m.StopOnShinyComplete},
	})
}

func (r runner) StopAfterCurrentRun() {
	r.c.sendLogged(protocol.CmdMsg{Cmd: protocol.CmdRunnerStopAfter, Runner: r.name})
}
