// Package hunt decides, once per tick, which collection activity to pursue
// and drives the host toward it.
package hunt

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"shinyhunt.ai/internal/catalog"
	"shinyhunt.ai/internal/host"
	"shinyhunt.ai/internal/hunt/completion"
	"shinyhunt.ai/internal/hunt/encounter"
	"shinyhunt.ai/internal/hunt/gate"
	"shinyhunt.ai/internal/hunt/ranking"
	"shinyhunt.ai/internal/hunt/telemetry"
	"shinyhunt.ai/internal/settings"
)

const (
	DefaultDwell        = 3 * time.Second
	DefaultAdvanceEvery = 2 * time.Second
)

// ConfigSource supplies the settings read at the start of every tick.
// *settings.Manager satisfies it.
type ConfigSource interface {
	Current() settings.Config
}

// StaticConfig is a ConfigSource that never changes.
type StaticConfig settings.Config

func (s StaticConfig) Current() settings.Config { return settings.Config(s) }

type Options struct {
	Dwell        time.Duration
	AdvanceEvery time.Duration
	Scheduler    Scheduler
	Recorder     *telemetry.Recorder
}

type Controller struct {
	cat *catalog.Catalog
	h   host.Host
	src ConfigSource
	log *zap.Logger

	sched        Scheduler
	tracker      *completion.Tracker
	ranker       *ranking.Ranker
	filter       *encounter.Controller
	rec          *telemetry.Recorder
	dwell        time.Duration
	advanceEvery time.Duration

	// life serializes Enable and Disable; mu guards everything below.
	life sync.Mutex
	mu   sync.Mutex

	enabled bool
	cfg     settings.Config
	state   State
	since   time.Time
	reason  string

	targetRun    string
	targetSafari bool
	farmRoute    *catalog.RouteRef
	routeTarget  *catalog.RouteRef

	dungeonStarted bool
	safariStarted  bool

	// Set by the hunting handlers when the target cannot be paid for.
	tokenNeed  int64
	safariNeed int64

	lastAdvance time.Time
	lastFault   map[string]time.Time
}

func New(cat *catalog.Catalog, h host.Host, src ConfigSource, log *zap.Logger, opts Options) *Controller {
	if log == nil {
		log = zap.NewNop()
	}
	if src == nil {
		src = StaticConfig(settings.DefaultConfig())
	}
	if opts.Dwell <= 0 {
		opts.Dwell = DefaultDwell
	}
	if opts.AdvanceEvery <= 0 {
		opts.AdvanceEvery = DefaultAdvanceEvery
	}
	if opts.Scheduler == nil {
		opts.Scheduler = NewTickerScheduler(DefaultTickInterval)
	}
	if opts.Recorder == nil {
		opts.Recorder = telemetry.NewRecorder(log, nil, telemetry.DefaultInterval)
	}
	h = host.Resolve(h)
	tracker := completion.New(cat, h)
	c := &Controller{
		cat:          cat,
		h:            h,
		src:          src,
		log:          log,
		sched:        opts.Scheduler,
		tracker:      tracker,
		ranker:       ranking.New(cat, tracker, h.Economy),
		filter:       encounter.New(h, cat.PremiumTool().ID),
		rec:          opts.Recorder,
		dwell:        opts.Dwell,
		advanceEvery: opts.AdvanceEvery,
		lastFault:    map[string]time.Time{},
	}
	tracker.OnFault(c.onFault)
	return c
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) Enabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.enabled
}

// Enable computes the state immediately, bypassing the dwell time, and starts
// the scheduler. In HuntRoute it also heads to the first incomplete route.
func (c *Controller) Enable() {
	c.life.Lock()
	defer c.life.Unlock()

	c.mu.Lock()
	if c.enabled {
		c.mu.Unlock()
		return
	}
	c.enabled = true
	now := c.h.Clock.Now()
	c.cfg = c.src.Current()
	st, reason := c.desired()
	c.commit(now, st, reason)
	if st == StateHuntRoute {
		c.moveToFirstIncomplete()
	}
	c.rec.Reset()
	c.mu.Unlock()

	c.log.Info("shiny hunt enabled", zap.Stringer("state", st))
	c.sched.Start(c.Tick)
}

// Disable stops the scheduler and resets the controller. It returns only after
// any in-flight tick has finished.
func (c *Controller) Disable() {
	c.life.Lock()
	defer c.life.Unlock()

	c.sched.Stop()

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.enabled {
		return
	}
	c.stopRunners()
	c.filter.Clear()
	prev := c.state
	c.enabled = false
	c.state = StateNone
	c.since = time.Time{}
	c.reason = ""
	c.clearTargets()
	c.tokenNeed, c.safariNeed = 0, 0
	c.lastAdvance = time.Time{}
	c.lastFault = map[string]time.Time{}
	c.log.Info("shiny hunt disabled", zap.Stringer("from", prev))
}

// Tick runs one decision cycle.
func (c *Controller) Tick() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.enabled {
		return
	}
	now := c.h.Clock.Now()
	c.cfg = c.src.Current()

	if st, reason := c.desired(); st != c.state && now.Sub(c.since) >= c.dwell {
		c.commit(now, st, reason)
	}

	routed := false
	switch c.state {
	case StateHuntDungeon:
		c.huntDungeon()
	case StateHuntSafari:
		c.huntSafari()
	case StateFarmDungeonTokens:
		routed = c.farm(ranking.PurposeDungeonTokens, c.cfg.TokenFarmRoute)
	case StateFarmSafariCurrency:
		routed = c.farm(ranking.PurposeSafariCurrency, c.cfg.SafariFarmRoute)
	case StateHuntRoute:
		c.huntRoute()
	}

	c.filter.Step(c.cfg.UseMasterball)

	if c.state == StateHuntRoute || (c.state.Farming() && !routed) {
		c.autoAdvance(now)
	}
	if c.cfg.DebugTelemetry {
		c.rec.Snapshot(now, c.snapshot())
	}
}

// desired applies the priority rule: dungeon branch, then safari branch,
// then route hunting.
func (c *Controller) desired() (State, string) {
	cfg := c.cfg
	if cfg.DungeonHunt && c.h.Unlocks.Unlocked(catalog.GateDungeonTicket) {
		if run, ok := c.tracker.NextIncompleteRun(cfg.PreferredDungeon); ok {
			th := cfg.Tokens
			if c.tokenNeed > 0 {
				th = th.AtLeast(c.tokenNeed)
			}
			farming := c.state == StateFarmDungeonTokens || c.tokenNeed > 0
			bal := c.h.Wallet.Balance(catalog.CurrencyDungeonToken)
			if gate.Farming(bal, farming, th) {
				return StateFarmDungeonTokens, fmt.Sprintf("tokens %d short of %d", bal, threshold(farming, th))
			}
			return StateHuntDungeon, fmt.Sprintf("dungeon %s incomplete, tokens %d", run.Name, bal)
		}
	}
	if cfg.SafariHunt && c.h.Unlocks.Unlocked(catalog.GateSafariPass) && !c.tracker.IsSafariComplete() {
		th := cfg.Safari
		if c.safariNeed > 0 {
			th = th.AtLeast(c.safariNeed)
		}
		farming := c.state == StateFarmSafariCurrency || c.safariNeed > 0
		bal := c.h.Wallet.Balance(catalog.CurrencySafariTicket)
		if gate.Farming(bal, farming, th) {
			return StateFarmSafariCurrency, fmt.Sprintf("safari currency %d short of %d", bal, threshold(farming, th))
		}
		return StateHuntSafari, fmt.Sprintf("safari incomplete, currency %d", bal)
	}
	return StateHuntRoute, "no gated target"
}

func threshold(farming bool, th gate.Thresholds) int64 {
	th = th.Effective()
	if farming {
		return th.Resume
	}
	return th.Enter
}

func (c *Controller) commit(now time.Time, st State, reason string) {
	prev := c.state
	c.state = st
	c.since = now
	c.reason = reason
	if st != StateFarmDungeonTokens {
		c.tokenNeed = 0
	}
	if st != StateFarmSafariCurrency {
		c.safariNeed = 0
	}
	if st != StateHuntDungeon {
		c.targetRun = ""
	}
	if st != StateHuntSafari {
		c.targetSafari = false
	}
	if !st.Farming() {
		c.farmRoute = nil
	}
	c.rec.Transition(now, prev.String(), st.String(), reason, c.snapshot())
}

func (c *Controller) clearTargets() {
	c.targetRun = ""
	c.targetSafari = false
	c.farmRoute = nil
	c.routeTarget = nil
}

// onFault is called by the tracker with c.mu held.
func (c *Controller) onFault(target string, err error) {
	if !c.cfg.DebugTelemetry {
		return
	}
	now := c.h.Clock.Now()
	if last, ok := c.lastFault[target]; ok && now.Sub(last) < telemetry.DefaultInterval {
		return
	}
	c.lastFault[target] = now
	c.rec.Fault(now, target, err)
}

// Snapshot reports the runtime state for telemetry and the CLI.
func (c *Controller) Snapshot() telemetry.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot()
}

func (c *Controller) snapshot() telemetry.Snapshot {
	s := telemetry.Snapshot{
		State:          c.state.String(),
		StateSince:     c.since,
		HostMode:       c.h.Encounters.Mode().String(),
		Filter:         c.filter.Mode().String(),
		FarmTool:       c.filter.FarmTool(),
		Tokens:         c.h.Wallet.Balance(catalog.CurrencyDungeonToken),
		SafariCurrency: c.h.Wallet.Balance(catalog.CurrencySafariTicket),
		Catching:       c.h.Encounters.Catching(),
		TargetRun:      c.targetRun,
	}
	if e, ok := c.filter.Current(); ok {
		s.Encounter = e.Name
		s.Shiny = e.Shiny
	}
	if ref, ok := c.h.Movement.CurrentRoute(); ok {
		s.Route = ref.String()
	}
	if c.targetSafari && c.cat.Safari != nil {
		s.TargetRun = c.cat.Safari.Name
	}
	if s.TargetRun != "" && c.h.Movement.IsAtTown(s.TargetRun) {
		s.Town = s.TargetRun
	}
	if c.farmRoute != nil {
		s.FarmRoute = c.farmRoute.String()
	}
	if c.routeTarget != nil {
		s.TargetRoute = c.routeTarget.String()
	}
	return s
}
