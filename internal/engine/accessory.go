package engine

import (
	"github.com/samber/lo"

	"github.com/sells-group/door-pricing/internal/model"
)

// Pools holds the candidate records for one resolution call: door variants
// and one pool per accessory slot.
type Pools struct {
	Doors        []model.CatalogRecord
	HardwareKits []model.CatalogRecord
	Handles      []model.CatalogRecord
	Limiters     []model.CatalogRecord
	Options      []model.CatalogRecord
}

// Accessories are the resolved accessory records. A nil slot was either not
// requested or did not resolve; the latter is listed in Warnings.
type Accessories struct {
	HardwareKit *model.CatalogRecord
	Handle      *model.CatalogRecord
	Limiter     *model.CatalogRecord
	Options     []model.CatalogRecord
	Warnings    []model.Warning
}

// ResolveAccessories looks up every referenced accessory in its own pool by
// ID. Slots resolve independently: a missing kit never affects the handle.
func ResolveAccessories(p Pools, sel model.Selection) Accessories {
	var acc Accessories

	acc.HardwareKit = acc.lookup(p.HardwareKits, model.SlotHardwareKit, sel.HardwareKitID)
	acc.Handle = acc.lookup(p.Handles, model.SlotHandle, sel.HandleID)
	acc.Limiter = acc.lookup(p.Limiters, model.SlotLimiter, sel.LimiterID)

	for _, id := range lo.Uniq(sel.OptionIDs) {
		if rec := acc.lookup(p.Options, model.SlotOption, id); rec != nil {
			acc.Options = append(acc.Options, *rec)
		}
	}

	return acc
}

func (a *Accessories) lookup(pool []model.CatalogRecord, slot, id string) *model.CatalogRecord {
	id = trim(id)
	if id == "" {
		return nil
	}
	rec, ok := lo.Find(pool, func(r model.CatalogRecord) bool {
		return r.ID == id
	})
	if !ok {
		a.Warnings = append(a.Warnings, model.Warning{Slot: slot, ID: id})
		return nil
	}
	return &rec
}
