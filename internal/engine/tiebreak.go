package engine

import (
	"github.com/shopspring/decimal"

	"github.com/sells-group/door-pricing/internal/model"
)

// SelectionPolicy names the tie-break rule applied when several records
// survive filtering. It is part of every quote so callers can see why a
// particular variant was priced.
const SelectionPolicy = "max_price"

// PickMaxPrice returns the candidate with the highest declared price.
// Records without a price rank below any priced record. Equal maxima keep
// the earliest candidate, so the result depends only on input order.
func PickMaxPrice(candidates []model.CatalogRecord) (model.CatalogRecord, bool) {
	if len(candidates) == 0 {
		return model.CatalogRecord{}, false
	}

	best := 0
	bestPrice, bestPriced := candidates[0].Price()
	for i := 1; i < len(candidates); i++ {
		p, ok := candidates[i].Price()
		if !ok {
			continue
		}
		if !bestPriced || p.GreaterThan(bestPrice) {
			best, bestPrice, bestPriced = i, p, true
		}
	}
	return candidates[best], true
}

func priceOrZero(r model.CatalogRecord) decimal.Decimal {
	p, ok := r.Price()
	if !ok {
		return decimal.Zero
	}
	return p
}
