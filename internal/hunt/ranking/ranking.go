// Package ranking scores open-world routes for a hunting or farming purpose.
package ranking

import (
	"fmt"
	"math"
	"strings"

	"shinyhunt.ai/internal/catalog"
	"shinyhunt.ai/internal/host"
	"shinyhunt.ai/internal/hunt/completion"
)

type Purpose int

const (
	PurposeShiny Purpose = iota
	PurposeDungeonTokens
	PurposeSafariCurrency
)

func (p Purpose) String() string {
	switch p {
	case PurposeShiny:
		return "shiny"
	case PurposeDungeonTokens:
		return "tokens"
	case PurposeSafariCurrency:
		return "safari"
	default:
		return "unknown"
	}
}

func ParsePurpose(s string) (Purpose, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "shiny":
		return PurposeShiny, nil
	case "tokens", "dungeon":
		return PurposeDungeonTokens, nil
	case "safari", "currency":
		return PurposeSafariCurrency, nil
	}
	return 0, fmt.Errorf("unknown purpose %q (want shiny, tokens or safari)", s)
}

func (p Purpose) currency() string {
	switch p {
	case PurposeDungeonTokens:
		return catalog.CurrencyDungeonToken
	case PurposeSafariCurrency:
		return catalog.CurrencySafariTicket
	}
	return ""
}

type Scored struct {
	Route catalog.Route
	Score float64
}

type Ranker struct {
	cat     *catalog.Catalog
	tracker *completion.Tracker
	economy host.Economy
}

func New(cat *catalog.Catalog, tracker *completion.Tracker, economy host.Economy) *Ranker {
	if economy == nil {
		economy = host.FlatEconomy{}
	}
	return &Ranker{cat: cat, tracker: tracker, economy: economy}
}

// Best returns the highest scoring eligible route. Candidates are compared
// with >= on rounded scores, so the last of several equal routes in catalog
// order wins. With no positive score it falls back to the host's best
// experience route.
func (rk *Ranker) Best(p Purpose, tool catalog.Tool) (catalog.Route, bool) {
	var (
		best      catalog.Route
		bestScore float64
		found     bool
	)
	for _, r := range rk.cat.Routes {
		if !rk.tracker.Eligible(r) {
			continue
		}
		s := rk.Score(r, p, tool)
		if s <= 0 {
			continue
		}
		if s >= bestScore {
			best, bestScore, found = r, s, true
		}
	}
	if found {
		return best, true
	}
	return rk.bestExperience()
}

// Rank lists every eligible route with its score, in catalog order.
func (rk *Ranker) Rank(p Purpose, tool catalog.Tool) []Scored {
	out := make([]Scored, 0, len(rk.cat.Routes))
	for _, r := range rk.cat.Routes {
		if !rk.tracker.Eligible(r) {
			continue
		}
		out = append(out, Scored{Route: r, Score: rk.Score(r, p, tool)})
	}
	return out
}

// Score is (yield * multiplier * capture probability) / (ticks to defeat +
// capture time), rounded to two decimals.
func (rk *Ranker) Score(r catalog.Route, p Purpose, tool catalog.Tool) float64 {
	yield := rk.yield(r, p)
	if yield <= 0 {
		return 0
	}
	mult := 1.0
	if cur := p.currency(); cur != "" {
		mult = rk.economy.Multiplier(cur)
	}
	prob := rk.captureProbability(r, tool)
	if prob <= 0 || mult <= 0 {
		return 0
	}
	throughput := rk.economy.Throughput(r.Region)
	if throughput <= 0 {
		return 0
	}
	ticks := math.Ceil(r.AvgHP/throughput) + tool.CatchTimeTicks
	if ticks <= 0 {
		return 0
	}
	return round2(yield * mult * prob / ticks)
}

func (rk *Ranker) yield(r catalog.Route, p Purpose) float64 {
	switch p {
	case PurposeDungeonTokens:
		return r.TokenYield
	case PurposeSafariCurrency:
		return r.TicketYield
	case PurposeShiny:
		missing, total := rk.tracker.MissingShinies(r)
		if total == 0 {
			return 0
		}
		return float64(missing) / float64(total)
	}
	return 0
}

func (rk *Ranker) captureProbability(r catalog.Route, tool catalog.Tool) float64 {
	if len(r.Species) == 0 {
		return 0
	}
	aux := rk.economy.AuxCatchBonus()
	var sum float64
	for _, name := range r.Species {
		rate := 0
		if s, ok := rk.cat.Species(name); ok {
			rate = s.CatchRate
		}
		sum += CatchChance(rate, tool.CatchBonus, aux)
	}
	return sum / float64(len(r.Species)) / 100
}

// CatchChance is the percent chance to catch a species with the given base
// catch rate, clamped to [0, 100].
func CatchChance(catchRate int, toolBonus, auxBonus float64) float64 {
	base := 0.0
	if catchRate > 0 {
		base = math.Floor(math.Pow(float64(catchRate), 0.75))
	}
	return math.Max(0, math.Min(100, base+toolBonus+auxBonus))
}

func (rk *Ranker) bestExperience() (catalog.Route, bool) {
	ref, ok := rk.economy.BestExperienceRoute()
	if !ok {
		return catalog.Route{}, false
	}
	r, ok := rk.cat.Route(ref)
	if !ok || !rk.tracker.Eligible(r) {
		return catalog.Route{}, false
	}
	return r, true
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
