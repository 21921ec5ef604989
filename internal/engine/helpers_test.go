package engine

import (
	"github.com/shopspring/decimal"

	"github.com/sells-group/door-pricing/internal/attr"
	"github.com/sells-group/door-pricing/internal/model"
)

func rec(id string, attrs map[string]any) model.CatalogRecord {
	return model.CatalogRecord{ID: id, Attributes: attr.FromMap(attrs)}
}

func dec(v int64) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.NewFromInt(v))
}

func ids(records []model.CatalogRecord) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.ID
	}
	return out
}

// scenarioDoors are the two identical-attribute variants from the pricing
// examples, differing only in price.
func scenarioDoors() []model.CatalogRecord {
	return []model.CatalogRecord{
		rec("d1", map[string]any{"model": "M1", "finish": "paint", "color": "white", "width": 800, "height": 2000, "price": 5000}),
		rec("d2", map[string]any{"model": "M1", "finish": "paint", "color": "white", "width": 800, "height": 2000, "price": 5200}),
	}
}

func scenarioSelection() model.Selection {
	return model.Selection{
		ModelCode: "M1",
		Finish:    "paint",
		Color:     "white",
		Width:     dec(800),
		Height:    dec(2000),
	}
}

// catalog is a broader fixture used by pipeline, option and diagnose tests.
func catalog() []model.CatalogRecord {
	return []model.CatalogRecord{
		rec("a1", map[string]any{"model": "M1", "style": "classic", "finish": "paint", "color": "white", "width": 700, "height": 2000, "filling": "solid", "supplier": "North", "price": 4000}),
		rec("a2", map[string]any{"model": "M1", "style": "classic", "finish": "paint", "color": "black", "width": 800, "height": 2000, "filling": "solid", "supplier": "North", "price": 4200, "mirror_available": "yes"}),
		rec("a3", map[string]any{"model": "M1", "style": "modern", "finish": "veneer", "color": "oak", "width": "800", "height": "2100", "filling": "glass", "supplier": "South", "price": 6100, "reversible_available": true}),
		rec("a4", map[string]any{"model": "M1", "style": "modern", "finish": "paint", "color": "white", "width": 900, "height": 2000, "filling": "glass", "supplier": "South", "price": 4700, "threshold_available": "1"}),
		rec("b1", map[string]any{"model": "M2", "style": "classic", "finish": "paint", "color": "white", "width": 800, "height": 2000, "filling": "solid", "supplier": "North", "price": 3900}),
		rec("b2", map[string]any{"model": " M2 ", "finish": "paint", "color": "White", "width": 800, "price": 3950}),
		rec("x1", map[string]any{"style": "classic", "color": "white", "price": 100}),
	}
}
