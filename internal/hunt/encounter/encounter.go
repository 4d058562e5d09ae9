// Package encounter owns the single host capture filter. It reacts to shiny
// encounters and lends the filter to the farming states.
package encounter

import (
	"shinyhunt.ai/internal/host"
)

type FilterMode int

const (
	FilterNone FilterMode = iota
	FilterShiny
	FilterFarm
)

func (m FilterMode) String() string {
	switch m {
	case FilterNone:
		return "none"
	case FilterShiny:
		return "shiny"
	case FilterFarm:
		return "farm"
	default:
		return "unknown"
	}
}

type Controller struct {
	encounters host.Encounters
	inventory  host.Inventory
	filter     host.Filter
	premium    string

	mode     FilterMode
	farmTool string
}

func New(h host.Host, premiumTool string) *Controller {
	h = host.Resolve(h)
	return &Controller{
		encounters: h.Encounters,
		inventory:  h.Inventory,
		filter:     h.Filter,
		premium:    premiumTool,
	}
}

func (c *Controller) Mode() FilterMode { return c.mode }
func (c *Controller) FarmTool() string { return c.farmTool }

// Current returns the opponent of whichever battle the host is in.
func (c *Controller) Current() (host.Encounter, bool) {
	switch mode := c.encounters.Mode(); mode {
	case host.ModeFighting, host.ModeDungeon, host.ModeSafari, host.ModeTemporaryBattle:
		return c.encounters.Enemy(mode)
	}
	return host.Encounter{}, false
}

// Step reacts to the current encounter. A non-shiny opponent releases a
// shiny-only filter; a shiny opponent engages the premium filter when allowed,
// in stock and no other filter is engaged.
func (c *Controller) Step(usePremium bool) {
	enemy, ok := c.Current()
	if !ok || !enemy.Shiny {
		if c.mode == FilterShiny {
			c.filter.Disable()
			c.mode = FilterNone
		}
		return
	}
	if !usePremium || c.mode != FilterNone {
		return
	}
	if c.inventory.Quantity(c.premium) <= 0 {
		return
	}
	if c.filter.CatchOnlyShinyWith(c.premium) {
		c.mode = FilterShiny
	}
}

// EngageFarm points the filter at catching everything with tool. A shiny
// filter in progress is left alone until its encounter ends.
func (c *Controller) EngageFarm(tool string) bool {
	switch c.mode {
	case FilterShiny:
		return false
	case FilterFarm:
		if c.farmTool == tool {
			return true
		}
	}
	if !c.filter.CatchAllWith(tool) {
		return false
	}
	c.mode = FilterFarm
	c.farmTool = tool
	return true
}

// ReleaseFarm disables the filter if a farming state engaged it.
func (c *Controller) ReleaseFarm() {
	if c.mode != FilterFarm {
		return
	}
	c.filter.Disable()
	c.mode = FilterNone
	c.farmTool = ""
}

// Clear disables any engaged filter.
func (c *Controller) Clear() {
	if c.mode == FilterNone {
		return
	}
	c.filter.Disable()
	c.mode = FilterNone
	c.farmTool = ""
}
