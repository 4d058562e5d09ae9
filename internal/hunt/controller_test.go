package hunt

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"

	"shinyhunt.ai/internal/catalog"
	"shinyhunt.ai/internal/host"
	"shinyhunt.ai/internal/host/hosttest"
	"shinyhunt.ai/internal/hunt/gate"
	"shinyhunt.ai/internal/hunt/telemetry"
	"shinyhunt.ai/internal/settings"
)

const tick = DefaultTickInterval

type mutableConfig struct {
	mu  sync.Mutex
	cfg settings.Config
}

func (m *mutableConfig) Current() settings.Config {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cfg
}

func (m *mutableConfig) update(fn func(*settings.Config)) {
	m.mu.Lock()
	fn(&m.cfg)
	m.mu.Unlock()
}

type memSink struct{ events []telemetry.Event }

func (s *memSink) Write(ev telemetry.Event) error {
	s.events = append(s.events, ev)
	return nil
}

func (s *memSink) Close() error { return nil }

func (s *memSink) kinds(k telemetry.Kind) []telemetry.Event {
	var out []telemetry.Event
	for _, ev := range s.events {
		if ev.Kind == k {
			out = append(out, ev)
		}
	}
	return out
}

type rig struct {
	t     *testing.T
	cat   *catalog.Catalog
	fake  *hosttest.Fake
	cfg   *mutableConfig
	sched *ManualScheduler
	sink  *memSink
	ctrl  *Controller
}

func newRig(t *testing.T, edit func(*settings.Config)) *rig {
	t.Helper()
	cat, err := catalog.New(catalog.Def{
		Species: []catalog.Species{
			{ID: 1, Name: "A", CatchRate: 255},
			{ID: 2, Name: "B", CatchRate: 190},
			{ID: 3, Name: "C", CatchRate: 45},
		},
		Routes: []catalog.Route{
			{Region: 1, Number: 1, Species: []string{"A"}, AvgHP: 10, TokenYield: 1, TicketYield: 1},
			{Region: 1, Number: 2, Species: []string{"B"}, AvgHP: 10, TokenYield: 5, TicketYield: 1},
			{Region: 2, Number: 1, Species: []string{"C"}, AvgHP: 10, TokenYield: 2, TicketYield: 9},
		},
		Dungeons: []catalog.Run{{Name: "Mt. Moon", Region: 0, TokenCost: 130}},
		Safari:   &catalog.SafariZone{Name: "Safari Zone", Region: 0, EntryCost: 50},
	})
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	cfg := settings.DefaultConfig()
	if edit != nil {
		edit(&cfg)
	}
	r := &rig{
		t:     t,
		cat:   cat,
		fake:  hosttest.New(),
		cfg:   &mutableConfig{cfg: cfg},
		sched: &ManualScheduler{},
		sink:  &memSink{},
	}
	rec := telemetry.NewRecorder(zap.NewNop(), r.sink, telemetry.DefaultInterval)
	r.ctrl = New(cat, r.fake.Host(), r.cfg, zap.NewNop(), Options{Scheduler: r.sched, Recorder: rec})
	return r
}

// step advances host time by d and runs one tick.
func (r *rig) step(d time.Duration) State {
	r.fake.Advance(d)
	r.sched.Advance(1)
	return r.ctrl.State()
}

func (r *rig) expect(want State) {
	r.t.Helper()
	if got := r.ctrl.State(); got != want {
		r.t.Fatalf("state: got %s want %s", got, want)
	}
}

func (r *rig) dungeonReady() {
	r.fake.Gates[catalog.GateDungeonTicket] = true
	r.fake.RunsUnlocked["Mt. Moon"] = true
}

func ref(region, number int) catalog.RouteRef {
	return catalog.RouteRef{Region: region, Number: number}
}

func TestScenario_TokenHysteresisHonoursDwell(t *testing.T) {
	r := newRig(t, func(c *settings.Config) {
		c.DungeonHunt = true
		c.Tokens = gate.Thresholds{Enter: 5000, Resume: 7000}
	})
	r.dungeonReady()
	r.fake.Balances[catalog.CurrencyDungeonToken] = 4000

	r.ctrl.Enable()
	r.expect(StateFarmDungeonTokens)

	r.fake.Balances[catalog.CurrencyDungeonToken] = 6000
	for i := 0; i < 8; i++ {
		if st := r.step(tick); st != StateFarmDungeonTokens {
			t.Fatalf("tick %d: left farming at 6000 tokens (%s)", i, st)
		}
	}

	r.ctrl.Disable()
	r.fake.Balances[catalog.CurrencyDungeonToken] = 4000
	r.ctrl.Enable()
	r.expect(StateFarmDungeonTokens)

	r.fake.Balances[catalog.CurrencyDungeonToken] = 7000
	for elapsed := tick; elapsed < DefaultDwell; elapsed += tick {
		if st := r.step(tick); st != StateFarmDungeonTokens {
			t.Fatalf("transition after %s, before dwell", elapsed)
		}
	}
	if st := r.step(tick); st != StateHuntDungeon {
		t.Fatalf("after dwell: got %s want HuntDungeon", st)
	}
	if got := len(r.sink.kinds(telemetry.KindTransition)); got != 3 {
		t.Fatalf("transitions recorded: got %d want 3", got)
	}
}

func TestNoTwoTransitionsWithinDwell(t *testing.T) {
	r := newRig(t, func(c *settings.Config) {
		c.DungeonHunt = true
		c.Tokens = gate.Thresholds{Enter: 100, Resume: 200}
	})
	r.dungeonReady()
	r.ctrl.Enable()

	last := r.fake.Now()
	prev := r.ctrl.State()
	transitions := 0
	for i := 0; i < 200; i++ {
		// Flap the balance across both thresholds every tick.
		if i%2 == 0 {
			r.fake.Balances[catalog.CurrencyDungeonToken] = 0
		} else {
			r.fake.Balances[catalog.CurrencyDungeonToken] = 1000
		}
		st := r.step(tick)
		if st == prev {
			continue
		}
		now := r.fake.Now()
		if now.Sub(last) < DefaultDwell {
			t.Fatalf("transition %s -> %s only %s after the previous one", prev, st, now.Sub(last))
		}
		last, prev = now, st
		transitions++
	}
	if transitions < 2 {
		t.Fatalf("expected the flapping balance to cause transitions, got %d", transitions)
	}
}

func TestEnable_MovesToFirstIncompleteRoute(t *testing.T) {
	r := newRig(t, nil)
	r.fake.ShinyAll(r.cat, "A")
	at := ref(1, 1)
	r.fake.At = &at

	r.ctrl.Enable()
	r.expect(StateHuntRoute)
	if diff := cmp.Diff([]catalog.RouteRef{ref(1, 2)}, r.fake.RouteMoves); diff != "" {
		t.Fatalf("moves (-want +got):\n%s", diff)
	}
	if !r.sched.Running() {
		t.Fatalf("scheduler not started")
	}
}

func TestEnable_StaysOnIncompleteRoute(t *testing.T) {
	r := newRig(t, nil)
	at := ref(2, 1)
	r.fake.At = &at
	r.ctrl.Enable()
	if len(r.fake.RouteMoves) != 0 {
		t.Fatalf("unexpected moves %v", r.fake.RouteMoves)
	}
	r.ctrl.Enable()
	if got := r.ctrl.Snapshot().TargetRoute; got != "2:1" {
		t.Fatalf("target route: got %q", got)
	}
}

func TestAutoAdvance(t *testing.T) {
	r := newRig(t, nil)
	at := ref(1, 1)
	r.fake.At = &at
	r.ctrl.Enable()

	r.fake.ShinyAll(r.cat, "A")
	r.fake.CatchingNow = true
	r.step(tick)
	if len(r.fake.RouteMoves) != 0 {
		t.Fatalf("moved during a catch: %v", r.fake.RouteMoves)
	}

	r.fake.CatchingNow = false
	r.fake.ModeValue = host.ModeDungeon
	r.step(tick)
	if len(r.fake.RouteMoves) != 0 {
		t.Fatalf("moved inside an instance: %v", r.fake.RouteMoves)
	}

	r.fake.ModeValue = host.ModeFighting
	r.step(tick)
	if diff := cmp.Diff([]catalog.RouteRef{ref(1, 2)}, r.fake.RouteMoves); diff != "" {
		t.Fatalf("moves (-want +got):\n%s", diff)
	}

	// Rate limited to one check per two seconds.
	r.fake.At = &at
	r.step(tick)
	if len(r.fake.RouteMoves) != 1 {
		t.Fatalf("advanced twice within the rate limit: %v", r.fake.RouteMoves)
	}
	r.step(2 * time.Second)
	if len(r.fake.RouteMoves) != 2 {
		t.Fatalf("expected a second advance, got %v", r.fake.RouteMoves)
	}

	r.cfg.update(func(c *settings.Config) { c.AutoAdvanceRoutes = false })
	r.fake.At = &at
	r.step(3 * time.Second)
	if len(r.fake.RouteMoves) != 2 {
		t.Fatalf("advanced with auto-advance off: %v", r.fake.RouteMoves)
	}
}

func TestAutoAdvance_MovesAsSoonAsRouteCompletes(t *testing.T) {
	r := newRig(t, nil)
	at := ref(1, 1)
	r.fake.At = &at
	r.ctrl.Enable()

	// Checks that find the route incomplete do not count against the rate limit.
	r.step(tick)
	if len(r.fake.RouteMoves) != 0 {
		t.Fatalf("left an incomplete route: %v", r.fake.RouteMoves)
	}
	r.fake.ShinyAll(r.cat, "A")
	r.step(tick)
	if diff := cmp.Diff([]catalog.RouteRef{ref(1, 2)}, r.fake.RouteMoves); diff != "" {
		t.Fatalf("moves (-want +got):\n%s", diff)
	}
}

func TestHuntDungeon_TravelsThenStartsRunner(t *testing.T) {
	r := newRig(t, func(c *settings.Config) { c.DungeonHunt = true })
	r.dungeonReady()
	r.fake.Balances[catalog.CurrencyDungeonToken] = 9000

	r.ctrl.Enable()
	r.expect(StateHuntDungeon)
	r.step(tick)
	if diff := cmp.Diff([]string{"Mt. Moon"}, r.fake.TownMoves); diff != "" {
		t.Fatalf("town moves (-want +got):\n%s", diff)
	}
	if r.fake.Dungeon.On {
		t.Fatalf("runner started before arriving")
	}

	r.step(tick)
	if !r.fake.Dungeon.On || r.fake.Dungeon.Mode != huntRunnerMode {
		t.Fatalf("runner: on=%v mode=%+v", r.fake.Dungeon.On, r.fake.Dungeon.Mode)
	}

	r.step(tick)
	if r.fake.Dungeon.Enables != 1 {
		t.Fatalf("runner enabled %d times", r.fake.Dungeon.Enables)
	}

	r.fake.RunsComplete["Mt. Moon"] = true
	r.step(tick)
	if r.fake.Dungeon.StopAfter != 1 {
		t.Fatalf("expected stop-after-current-run, got %d", r.fake.Dungeon.StopAfter)
	}
	r.step(DefaultDwell)
	r.expect(StateHuntRoute)
	if r.fake.Dungeon.On {
		t.Fatalf("runner still on after leaving the dungeon branch")
	}
}

func TestHuntDungeon_UnaffordableForcesFarming(t *testing.T) {
	r := newRig(t, func(c *settings.Config) {
		c.DungeonHunt = true
		c.Tokens = gate.Thresholds{Enter: 50, Resume: 60}
	})
	r.dungeonReady()
	r.fake.Balances[catalog.CurrencyDungeonToken] = 100

	r.ctrl.Enable()
	r.expect(StateHuntDungeon)
	r.step(DefaultDwell)
	r.expect(StateHuntDungeon)
	r.step(tick)
	r.expect(StateFarmDungeonTokens)

	r.fake.Balances[catalog.CurrencyDungeonToken] = 125
	r.step(DefaultDwell)
	r.expect(StateFarmDungeonTokens)

	r.fake.Balances[catalog.CurrencyDungeonToken] = 130
	r.step(tick)
	r.expect(StateHuntDungeon)
}

func TestHuntSafari_TravelsThenStartsRunner(t *testing.T) {
	r := newRig(t, func(c *settings.Config) { c.SafariHunt = true })
	r.fake.Gates[catalog.GateSafariPass] = true
	r.fake.Balances[catalog.CurrencySafariTicket] = 500

	r.ctrl.Enable()
	r.expect(StateHuntSafari)
	r.step(tick)
	if diff := cmp.Diff([]string{"Safari Zone"}, r.fake.TownMoves); diff != "" {
		t.Fatalf("town moves (-want +got):\n%s", diff)
	}
	if r.fake.Safari.On {
		t.Fatalf("runner started before arriving")
	}

	r.step(tick)
	if !r.fake.Safari.On || r.fake.Safari.Mode != huntRunnerMode || r.fake.Safari.Enables != 1 {
		t.Fatalf("runner: on=%v mode=%+v enables=%d", r.fake.Safari.On, r.fake.Safari.Mode, r.fake.Safari.Enables)
	}

	r.fake.RunsComplete["Safari Zone"] = true
	r.step(tick)
	if r.fake.Safari.StopAfter != 1 {
		t.Fatalf("expected stop-after-current-run, got %d", r.fake.Safari.StopAfter)
	}
	r.step(tick)
	if r.fake.Safari.StopAfter != 1 {
		t.Fatalf("stop-after repeated: %d", r.fake.Safari.StopAfter)
	}

	// The last run ends while the dwell still holds the safari state.
	r.fake.Safari.On = false
	r.step(tick)
	r.expect(StateHuntSafari)
	if r.fake.Safari.Enables != 1 {
		t.Fatalf("runner re-enabled on a complete zone: %d enables", r.fake.Safari.Enables)
	}

	r.step(DefaultDwell)
	r.expect(StateHuntRoute)
	if r.fake.Safari.On {
		t.Fatalf("runner still on after leaving the safari branch")
	}
}

func TestHuntSafari_UnaffordableForcesFarming(t *testing.T) {
	r := newRig(t, func(c *settings.Config) {
		c.SafariHunt = true
		c.Safari = gate.Thresholds{Enter: 10, Resume: 20}
	})
	r.fake.Gates[catalog.GateSafariPass] = true
	r.fake.Balances[catalog.CurrencySafariTicket] = 30

	r.ctrl.Enable()
	r.expect(StateHuntSafari)
	r.step(DefaultDwell)
	r.expect(StateHuntSafari)
	if len(r.fake.TownMoves) != 0 || r.fake.Safari.Enables != 0 {
		t.Fatalf("travelled without the entry cost: towns=%v enables=%d", r.fake.TownMoves, r.fake.Safari.Enables)
	}
	r.step(tick)
	r.expect(StateFarmSafariCurrency)

	r.fake.Balances[catalog.CurrencySafariTicket] = 49
	r.step(DefaultDwell)
	r.expect(StateFarmSafariCurrency)

	r.fake.Balances[catalog.CurrencySafariTicket] = 50
	r.step(tick)
	r.expect(StateHuntSafari)
}

func TestFarm_FilterAndRoute(t *testing.T) {
	r := newRig(t, func(c *settings.Config) {
		c.DungeonHunt = true
		pref := ref(2, 1)
		c.TokenFarmRoute = &pref
	})
	r.dungeonReady()
	r.fake.Stock[catalog.ToolGreatball] = 10

	r.ctrl.Enable()
	r.expect(StateFarmDungeonTokens)
	r.step(tick)
	if r.fake.ActiveFilter != "all:"+catalog.ToolGreatball {
		t.Fatalf("filter: got %q", r.fake.ActiveFilter)
	}
	if diff := cmp.Diff([]catalog.RouteRef{ref(2, 1)}, r.fake.RouteMoves); diff != "" {
		t.Fatalf("moves (-want +got):\n%s", diff)
	}

	r.step(tick)
	if len(r.fake.RouteMoves) != 1 {
		t.Fatalf("moved again while on the farm route: %v", r.fake.RouteMoves)
	}

	// Preferred route no longer eligible: the ranker picks the best token route.
	r.fake.Unreachable[ref(2, 1)] = true
	r.step(tick)
	if got := r.fake.RouteMoves[len(r.fake.RouteMoves)-1]; got != ref(1, 2) {
		t.Fatalf("ranked farm route: got %s want 1:2", got)
	}
	if got := r.ctrl.Snapshot().FarmRoute; got != "1:2" {
		t.Fatalf("snapshot farm route: %q", got)
	}
}

func TestFarm_NoAutoRouteFallsBackToAutoAdvance(t *testing.T) {
	r := newRig(t, func(c *settings.Config) {
		c.DungeonHunt = true
		c.AllowAutoBestRoute = false
	})
	r.dungeonReady()
	r.fake.ShinyAll(r.cat, "A")
	at := ref(1, 1)
	r.fake.At = &at

	r.ctrl.Enable()
	r.expect(StateFarmDungeonTokens)
	r.step(tick)
	if diff := cmp.Diff([]catalog.RouteRef{ref(1, 2)}, r.fake.RouteMoves); diff != "" {
		t.Fatalf("moves (-want +got):\n%s", diff)
	}
}

func TestDisable_WhileFarmingClearsFilterAndRunners(t *testing.T) {
	r := newRig(t, func(c *settings.Config) { c.DungeonHunt = true })
	r.dungeonReady()
	r.fake.Balances[catalog.CurrencyDungeonToken] = 9000
	r.fake.Town = "Mt. Moon"
	r.fake.Stock[catalog.ToolUltraball] = 5

	r.ctrl.Enable()
	r.step(tick)
	if !r.fake.Dungeon.On {
		t.Fatalf("runner not started")
	}

	r.fake.Balances[catalog.CurrencyDungeonToken] = 0
	r.step(DefaultDwell)
	r.expect(StateFarmDungeonTokens)
	if r.fake.Dungeon.On {
		t.Fatalf("farming must stop the dungeon runner")
	}
	if r.fake.ActiveFilter == "" {
		t.Fatalf("farm filter not engaged")
	}

	r.ctrl.Disable()
	r.expect(StateNone)
	if r.fake.ActiveFilter != "" {
		t.Fatalf("filter still active after disable: %q", r.fake.ActiveFilter)
	}
	if r.sched.Running() {
		t.Fatalf("scheduler still running")
	}
	moves := len(r.fake.RouteMoves)
	r.step(tick)
	if len(r.fake.RouteMoves) != moves || r.ctrl.Enabled() {
		t.Fatalf("controller acted after disable")
	}
}

func TestDisable_StopsRunnerStartedInHuntState(t *testing.T) {
	r := newRig(t, func(c *settings.Config) { c.SafariHunt = true })
	r.fake.Gates[catalog.GateSafariPass] = true
	r.fake.Balances[catalog.CurrencySafariTicket] = 500
	r.fake.Town = "Safari Zone"

	r.ctrl.Enable()
	r.expect(StateHuntSafari)
	r.step(tick)
	if !r.fake.Safari.On {
		t.Fatalf("safari runner not started")
	}
	r.ctrl.Disable()
	if r.fake.Safari.On || r.fake.Safari.Disables != 1 {
		t.Fatalf("safari runner: on=%v disables=%d", r.fake.Safari.On, r.fake.Safari.Disables)
	}
}

func TestSafari_SkippedWhenComplete(t *testing.T) {
	r := newRig(t, func(c *settings.Config) { c.SafariHunt = true })
	r.fake.Gates[catalog.GateSafariPass] = true
	r.fake.RunsComplete["Safari Zone"] = true
	r.ctrl.Enable()
	r.expect(StateHuntRoute)
}

func TestSafari_FarmsBelowEnter(t *testing.T) {
	r := newRig(t, func(c *settings.Config) { c.SafariHunt = true })
	r.fake.Gates[catalog.GateSafariPass] = true
	r.fake.Balances[catalog.CurrencySafariTicket] = 99

	r.ctrl.Enable()
	r.expect(StateFarmSafariCurrency)
	r.step(tick)
	if got := r.fake.RouteMoves; len(got) != 1 || got[0] != ref(2, 1) {
		t.Fatalf("safari farm route: %v", got)
	}
}

func TestDungeonPriorityOverSafari(t *testing.T) {
	r := newRig(t, func(c *settings.Config) {
		c.DungeonHunt = true
		c.SafariHunt = true
	})
	r.dungeonReady()
	r.fake.Gates[catalog.GateSafariPass] = true
	r.fake.Balances[catalog.CurrencyDungeonToken] = 9000
	r.fake.Balances[catalog.CurrencySafariTicket] = 9000

	r.ctrl.Enable()
	r.expect(StateHuntDungeon)

	r.fake.Gates[catalog.GateDungeonTicket] = false
	r.step(DefaultDwell)
	r.expect(StateHuntSafari)
}

func TestShinyDuringHuntEngagesPremium(t *testing.T) {
	r := newRig(t, nil)
	r.fake.Stock[catalog.ToolMasterball] = 1
	r.fake.ModeValue = host.ModeFighting
	r.fake.Enemies[host.ModeFighting] = host.Encounter{SpeciesID: 3, Name: "C", Shiny: true}

	r.ctrl.Enable()
	r.step(tick)
	if r.fake.ActiveFilter != "shiny:"+catalog.ToolMasterball {
		t.Fatalf("filter: got %q", r.fake.ActiveFilter)
	}

	r.fake.Stock[catalog.ToolMasterball] = 0
	r.fake.Enemies[host.ModeFighting] = host.Encounter{SpeciesID: 3, Name: "C"}
	r.step(tick)
	if r.fake.ActiveFilter != "" {
		t.Fatalf("shiny filter not released: %q", r.fake.ActiveFilter)
	}
}

func TestShinyWithoutPremiumStock(t *testing.T) {
	r := newRig(t, func(c *settings.Config) { c.DebugTelemetry = true })
	r.fake.ModeValue = host.ModeFighting
	r.fake.Enemies[host.ModeFighting] = host.Encounter{SpeciesID: 3, Name: "C", Shiny: true}

	r.ctrl.Enable()
	r.step(tick)
	if len(r.fake.FilterLog) != 0 {
		t.Fatalf("filter engaged without stock: %v", r.fake.FilterLog)
	}
	if faults := r.sink.kinds(telemetry.KindFault); len(faults) != 0 {
		t.Fatalf("unexpected faults %+v", faults)
	}
}

func TestRunQueryFaultIsReportedWhenTelemetryOn(t *testing.T) {
	r := newRig(t, func(c *settings.Config) {
		c.DungeonHunt = true
		c.DebugTelemetry = true
	})
	r.dungeonReady()
	r.fake.Balances[catalog.CurrencyDungeonToken] = 9000
	r.fake.RunErrors["Mt. Moon"] = errors.New("ledger unavailable")

	r.ctrl.Enable()
	r.expect(StateHuntDungeon)
	for i := 0; i < 4; i++ {
		r.step(tick)
	}
	faults := r.sink.kinds(telemetry.KindFault)
	if len(faults) != 1 || faults[0].Target != "Mt. Moon" {
		t.Fatalf("faults: %+v", faults)
	}
	if snaps := r.sink.kinds(telemetry.KindSnapshot); len(snaps) != 1 {
		t.Fatalf("snapshots within 10s: got %d want 1", len(snaps))
	}
}

func TestAbsentCapabilities(t *testing.T) {
	cat, err := catalog.New(catalog.Def{
		Routes: []catalog.Route{{Region: 1, Number: 1}},
	})
	if err != nil {
		t.Fatal(err)
	}
	sched := &ManualScheduler{}
	ctrl := New(cat, host.Host{}, nil, nil, Options{Scheduler: sched})
	ctrl.Enable()
	sched.Advance(3)
	if ctrl.State() != StateHuntRoute {
		t.Fatalf("state: got %s", ctrl.State())
	}
	ctrl.Disable()
	ctrl.Disable()
	if ctrl.State() != StateNone {
		t.Fatalf("state after disable: %s", ctrl.State())
	}
}
