package bridge

import (
	"errors"
	"fmt"
	"strconv"

	"shinyhunt.ai/internal/catalog"
	"shinyhunt.ai/internal/host"
	"shinyhunt.ai/internal/protocol"
)

// view is the decoded form of one STATE message.
type view struct {
	seq      uint64
	mode     host.Mode
	enemy    *host.Encounter
	catching bool

	balances  map[string]int64
	gates     map[string]bool
	inventory map[string]int64
	ledger    map[int]host.CaughtStatus

	route       *catalog.RouteRef
	town        string
	unreachable map[catalog.RouteRef]bool
	runs        map[string]protocol.RunInfo

	economy     bool
	multipliers map[string]float64
	throughput  map[int]float64
	auxBonus    float64
	bestExp     *catalog.RouteRef

	runners map[string]bool
}

var modes = map[string]host.Mode{
	"idle":            host.ModeIdle,
	"fighting":        host.ModeFighting,
	"dungeon":         host.ModeDungeon,
	"safari":          host.ModeSafari,
	"temporaryBattle": host.ModeTemporaryBattle,
	"town":            host.ModeTown,
}

func newView(st protocol.StateMsg) (view, error) {
	mode, ok := modes[st.Mode]
	if !ok {
		return view{}, fmt.Errorf("unknown mode %q", st.Mode)
	}
	v := view{
		seq:         st.Seq,
		mode:        mode,
		catching:    st.Catching,
		balances:    st.Balances,
		gates:       st.Gates,
		inventory:   st.Inventory,
		ledger:      make(map[int]host.CaughtStatus, len(st.Ledger)),
		town:        st.Location.Town,
		unreachable: make(map[catalog.RouteRef]bool, len(st.Unreachable)),
		runs:        make(map[string]protocol.RunInfo, len(st.Runs)),
		runners:     make(map[string]bool, len(st.Runners)),
	}
	if st.Enemy != nil {
		v.enemy = &host.Encounter{SpeciesID: st.Enemy.SpeciesID, Name: st.Enemy.Name, Shiny: st.Enemy.Shiny}
	}

	var errs []error
	for id, status := range st.Ledger {
		n, err := strconv.Atoi(id)
		if err != nil {
			errs = append(errs, fmt.Errorf("ledger id %q: %w", id, err))
			continue
		}
		switch status {
		case "shiny":
			v.ledger[n] = host.CaughtShiny
		case "caught":
			v.ledger[n] = host.Caught
		}
	}
	if st.Location.Route != "" {
		ref, err := catalog.ParseRouteRef(st.Location.Route)
		if err != nil {
			errs = append(errs, err)
		} else {
			v.route = &ref
		}
	}
	for _, s := range st.Unreachable {
		ref, err := catalog.ParseRouteRef(s)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		v.unreachable[ref] = true
	}
	for _, r := range st.Runs {
		v.runs[r.Name] = r
	}
	for name, r := range st.Runners {
		v.runners[name] = r.Running
	}
	if e := st.Economy; e != nil {
		v.economy = true
		v.multipliers = e.Multipliers
		v.auxBonus = e.AuxCatchBonus
		v.throughput = make(map[int]float64, len(e.Throughput))
		for region, t := range e.Throughput {
			n, err := strconv.Atoi(region)
			if err != nil {
				errs = append(errs, fmt.Errorf("throughput region %q: %w", region, err))
				continue
			}
			v.throughput[n] = t
		}
		if e.BestExperienceRoute != "" {
			ref, err := catalog.ParseRouteRef(e.BestExperienceRoute)
			if err != nil {
				errs = append(errs, err)
			} else {
				v.bestExp = &ref
			}
		}
	}
	if err := errors.Join(errs...); err != nil {
		return view{}, err
	}
	return v, nil
}
