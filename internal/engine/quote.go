package engine

import (
	"github.com/shopspring/decimal"

	"github.com/sells-group/door-pricing/internal/model"
)

// Quote resolves sel against the door pool and prices the match. An invalid
// selection fails before any filtering. A selection that matches nothing is
// returned as a not-found quote carrying the per-stage diagnosis.
func Quote(p Pools, sel model.Selection) (*model.Quote, error) {
	if err := sel.Validate(); err != nil {
		return nil, err
	}

	match := Match(p.Doors, sel)
	if !match.Found() {
		return &model.Quote{
			Policy:          SelectionPolicy,
			Breakdown:       model.NewPriceBreakdown(decimal.Zero, nil),
			MatchingRecords: []model.CatalogRecord{},
			Steps:           Diagnose(p.Doors, sel),
		}, nil
	}

	acc := ResolveAccessories(p, sel)
	return &model.Quote{
		Found:           true,
		Policy:          SelectionPolicy,
		Breakdown:       Compose(*match.Record, acc, sel),
		MatchedRecordID: match.Record.ID,
		MatchingRecords: match.Candidates,
		Warnings:        acc.Warnings,
	}, nil
}
