// Package completion answers "is there anything left to collect here" for
// routes, dungeons and the safari zone.
package completion

import (
	"shinyhunt.ai/internal/catalog"
	"shinyhunt.ai/internal/host"
)

// FaultFn receives completion queries that failed. The query itself is
// answered as incomplete.
type FaultFn func(target string, err error)

type Tracker struct {
	cat      *catalog.Catalog
	movement host.Movement
	ledger   host.Ledger
	runs     host.Runs
	onFault  FaultFn
}

func New(cat *catalog.Catalog, h host.Host) *Tracker {
	h = host.Resolve(h)
	return &Tracker{
		cat:      cat,
		movement: h.Movement,
		ledger:   h.Ledger,
		runs:     h.Runs,
	}
}

func (t *Tracker) OnFault(fn FaultFn) { t.onFault = fn }

// IsRouteComplete is true when every species available on r is caught shiny.
// A species name missing from the catalog keeps the route incomplete.
func (t *Tracker) IsRouteComplete(r catalog.Route) bool {
	for _, name := range r.Species {
		s, ok := t.cat.Species(name)
		if !ok {
			return false
		}
		if t.ledger.Status(s.ID) != host.CaughtShiny {
			return false
		}
	}
	return true
}

// MissingShinies counts the species of r without a shiny catch. Unknown
// species count as missing.
func (t *Tracker) MissingShinies(r catalog.Route) (missing, total int) {
	for _, name := range r.Species {
		total++
		s, ok := t.cat.Species(name)
		if !ok || t.ledger.Status(s.ID) != host.CaughtShiny {
			missing++
		}
	}
	return missing, total
}

// Eligible reports whether r can be visited at all right now.
func (t *Tracker) Eligible(r catalog.Route) bool {
	if t.cat.IsExcluded(r) {
		return false
	}
	return t.movement.CanReach(r)
}

func (t *Tracker) IsRunComplete(name string) bool {
	done, err := t.runs.RunComplete(name)
	if err != nil {
		t.fault(name, err)
		return false
	}
	return done
}

func (t *Tracker) IsSafariComplete() bool {
	if t.cat.Safari == nil {
		return true
	}
	return t.IsRunComplete(t.cat.Safari.Name)
}

// NextIncompleteRoute scans the routes ordered after current, then wraps to
// the start of the catalog. current itself is the last candidate.
func (t *Tracker) NextIncompleteRoute(current catalog.RouteRef) (catalog.Route, bool) {
	routes := t.cat.Routes
	start := len(routes)
	for i, r := range routes {
		if current.Less(r.Ref()) {
			start = i
			break
		}
	}
	if r, ok := t.scan(routes[start:]); ok {
		return r, true
	}
	return t.scan(routes[:start])
}

func (t *Tracker) FirstIncompleteRoute() (catalog.Route, bool) {
	return t.scan(t.cat.Routes)
}

func (t *Tracker) scan(routes []catalog.Route) (catalog.Route, bool) {
	for _, r := range routes {
		if !t.Eligible(r) {
			continue
		}
		if !t.IsRouteComplete(r) {
			return r, true
		}
	}
	return catalog.Route{}, false
}

// NextIncompleteRun prefers override when it is unlocked and incomplete, then
// falls back to the first unlocked incomplete dungeon in catalog order.
func (t *Tracker) NextIncompleteRun(override string) (catalog.Run, bool) {
	if override != "" {
		if r, ok := t.cat.Run(override); ok && t.runs.RunUnlocked(r.Name) && !t.IsRunComplete(r.Name) {
			return r, true
		}
	}
	for _, r := range t.cat.Runs {
		if r.Name == override {
			continue
		}
		if !t.runs.RunUnlocked(r.Name) {
			continue
		}
		if !t.IsRunComplete(r.Name) {
			return r, true
		}
	}
	return catalog.Run{}, false
}

func (t *Tracker) fault(target string, err error) {
	if t.onFault != nil {
		t.onFault(target, err)
	}
}
