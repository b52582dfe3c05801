// internal/manager/plan.go
package manager

import (
	"github.com/distribution/reference"

	"dockermirror/internal/config"
	"dockermirror/internal/types"
)

// Plan calcule les destinations sans rien transférer.
// Les destinations qui ne sont pas des références valides sont signalées.
func Plan(target config.Target, entries []types.ImageEntry) []types.PlanItem {
	collisions := DetectCollisions(entries)

	items := make([]types.PlanItem, 0, len(entries))
	for _, entry := range entries {
		item := types.PlanItem{
			Entry:       entry,
			Destination: Destination(target, entry, collisions),
			Collision:   collisions.Has(entry.BaseName),
		}
		if _, err := reference.ParseNormalizedNamed(item.Destination); err != nil {
			item.Invalid = err.Error()
		}
		items = append(items, item)
	}

	return items
}
