// Package balls picks the capture tool used by the farming filter.
package balls

import (
	"shinyhunt.ai/internal/catalog"
	"shinyhunt.ai/internal/host"
)

// FinalChain is walked after the configured priority list.
var FinalChain = []string{catalog.ToolUltraball, catalog.ToolGreatball, catalog.ToolPokeball}

type Options struct {
	PreferPremium bool
	Priority      []string
}

// Select returns the first in-stock tool by priority: the premium tool when
// preferred, then opts.Priority, then FinalChain. ok is false when nothing is
// in stock.
func Select(cat *catalog.Catalog, inv host.Inventory, opts Options) (catalog.Tool, bool) {
	if inv == nil {
		inv = host.EmptyInventory{}
	}
	if opts.PreferPremium {
		premium := cat.PremiumTool()
		if inv.Quantity(premium.ID) > 0 {
			return premium, true
		}
	}
	for _, chain := range [][]string{opts.Priority, FinalChain} {
		for _, id := range chain {
			tool, ok := cat.Tool(id)
			if !ok {
				continue
			}
			if inv.Quantity(tool.ID) > 0 {
				return tool, true
			}
		}
	}
	return catalog.Tool{}, false
}
