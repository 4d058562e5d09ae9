package hunt

import (
	"time"

	"go.uber.org/zap"

	"shinyhunt.ai/internal/catalog"
	"shinyhunt.ai/internal/host"
	"shinyhunt.ai/internal/hunt/balls"
	"shinyhunt.ai/internal/hunt/ranking"
)

var huntRunnerMode = host.RunnerMode{ForceFight: true, StopOnShinyComplete: true}

func (c *Controller) huntDungeon() {
	c.stopSafari()
	c.filter.ReleaseFarm()

	if c.targetRun != "" && c.tracker.IsRunComplete(c.targetRun) {
		c.log.Info("dungeon complete, stopping after current run", zap.String("dungeon", c.targetRun))
		c.h.DungeonRunner.StopAfterCurrentRun()
		c.targetRun = ""
	}
	if c.targetRun == "" {
		run, ok := c.tracker.NextIncompleteRun(c.cfg.PreferredDungeon)
		if !ok {
			return
		}
		c.targetRun = run.Name
	}
	run, ok := c.cat.Run(c.targetRun)
	if !ok {
		c.targetRun = ""
		return
	}
	if c.h.DungeonRunner.Running() {
		return
	}
	if c.h.Wallet.Balance(catalog.CurrencyDungeonToken) < run.TokenCost {
		c.tokenNeed = run.TokenCost
		return
	}
	if !c.h.Movement.IsAtTown(run.Name) {
		c.h.Movement.MoveToTown(run.Name)
		return
	}
	c.h.DungeonRunner.SetMode(huntRunnerMode)
	c.h.DungeonRunner.Enable()
	c.dungeonStarted = true
}

func (c *Controller) huntSafari() {
	c.stopDungeon()
	c.filter.ReleaseFarm()

	zone := c.cat.Safari
	if zone == nil {
		return
	}
	if c.tracker.IsSafariComplete() {
		if c.targetSafari {
			c.log.Info("safari complete, stopping after current run", zap.String("zone", zone.Name))
			c.h.SafariRunner.StopAfterCurrentRun()
			c.targetSafari = false
		}
		return
	}
	c.targetSafari = true
	if c.h.SafariRunner.Running() {
		return
	}
	if c.h.Wallet.Balance(catalog.CurrencySafariTicket) < zone.EntryCost {
		c.safariNeed = zone.EntryCost
		return
	}
	if !c.h.Movement.IsAtTown(zone.Name) {
		c.h.Movement.MoveToTown(zone.Name)
		return
	}
	c.h.SafariRunner.SetMode(huntRunnerMode)
	c.h.SafariRunner.Enable()
	c.safariStarted = true
}

// farm engages the catch-everything filter and heads to the farm route. It
// reports whether a route target was found this tick.
func (c *Controller) farm(p ranking.Purpose, preferred *catalog.RouteRef) bool {
	c.stopRunners()

	tool, ok := balls.Select(c.cat, c.h.Inventory, balls.Options{
		PreferPremium: c.cfg.MasterballForFarming,
		Priority:      c.cfg.FallbackBallPriority,
	})
	if ok {
		c.filter.EngageFarm(tool.ID)
	} else {
		c.filter.ReleaseFarm()
		tool = c.cat.Tools[len(c.cat.Tools)-1]
	}

	target, ok := c.farmTarget(p, preferred, tool)
	if !ok {
		c.farmRoute = nil
		return false
	}
	ref := target.Ref()
	c.farmRoute = &ref
	if cur, on := c.h.Movement.CurrentRoute(); !on || cur != ref {
		c.h.Movement.MoveToRoute(target)
	}
	return true
}

func (c *Controller) farmTarget(p ranking.Purpose, preferred *catalog.RouteRef, tool catalog.Tool) (catalog.Route, bool) {
	if preferred != nil {
		if r, ok := c.cat.Route(*preferred); ok && c.tracker.Eligible(r) {
			return r, true
		}
	}
	if !c.cfg.AllowAutoBestRoute {
		return catalog.Route{}, false
	}
	return c.ranker.Best(p, tool)
}

func (c *Controller) huntRoute() {
	c.stopRunners()
	c.filter.ReleaseFarm()
}

// autoAdvance moves on once the current route is complete. It never moves
// during a catch or inside an instance, and at most once per advanceEvery.
func (c *Controller) autoAdvance(now time.Time) {
	if !c.cfg.AutoAdvanceRoutes {
		return
	}
	if !c.lastAdvance.IsZero() && now.Sub(c.lastAdvance) < c.advanceEvery {
		return
	}
	if c.h.Encounters.Catching() || c.h.Encounters.Mode().InInstance() {
		return
	}
	cur, ok := c.h.Movement.CurrentRoute()
	if !ok {
		return
	}
	r, ok := c.cat.Route(cur)
	if !ok || !c.tracker.IsRouteComplete(r) {
		return
	}
	next, ok := c.tracker.NextIncompleteRoute(cur)
	if !ok || next.Ref() == cur {
		return
	}
	c.lastAdvance = now
	c.moveTo(next)
}

// moveToFirstIncomplete scans from the current route, wrapping, and stays put
// when the current route is itself still incomplete.
func (c *Controller) moveToFirstIncomplete() {
	var (
		next catalog.Route
		ok   bool
	)
	if cur, on := c.h.Movement.CurrentRoute(); on {
		if r, known := c.cat.Route(cur); known && c.tracker.Eligible(r) && !c.tracker.IsRouteComplete(r) {
			ref := r.Ref()
			c.routeTarget = &ref
			return
		}
		next, ok = c.tracker.NextIncompleteRoute(cur)
	} else {
		next, ok = c.tracker.FirstIncompleteRoute()
	}
	if ok {
		c.moveTo(next)
	}
}

func (c *Controller) moveTo(r catalog.Route) {
	ref := r.Ref()
	c.routeTarget = &ref
	c.log.Debug("moving to route", zap.Stringer("route", ref))
	c.h.Movement.MoveToRoute(r)
}

func (c *Controller) stopRunners() {
	c.stopDungeon()
	c.stopSafari()
}

func (c *Controller) stopDungeon() {
	if !c.dungeonStarted {
		return
	}
	c.h.DungeonRunner.Disable()
	c.dungeonStarted = false
}

func (c *Controller) stopSafari() {
	if !c.safariStarted {
		return
	}
	c.h.SafariRunner.Disable()
	c.safariStarted = false
}
