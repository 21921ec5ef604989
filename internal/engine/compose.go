package engine

import (
	"github.com/shopspring/decimal"

	"github.com/sells-group/door-pricing/internal/model"
)

// Price-line labels emitted by Compose.
const (
	LineHardwareKit = model.SlotHardwareKit
	LineHandle      = model.SlotHandle
	LineBackplate   = "backplate"
	LineLimiter     = model.SlotLimiter
	LineOption      = model.SlotOption
	LineReversible  = "reversible"
	LineThreshold   = "threshold"
	LineMirror      = "mirror"
	LineEdge        = "edge"
)

// Compose prices the resolved base record with its accessories and
// modifiers. Rules apply in a fixed order and each adds at most one line;
// a modifier the base record does not offer, or whose price it does not
// declare, is left out rather than rejected.
func Compose(base model.CatalogRecord, acc Accessories, sel model.Selection) model.PriceBreakdown {
	attrs := base.Attributes
	var lines []model.PriceLine

	add := func(label string, amount decimal.Decimal, ok bool) {
		if ok {
			lines = append(lines, model.PriceLine{Label: label, Amount: amount})
		}
	}
	addRecord := func(label string, rec *model.CatalogRecord) {
		if rec == nil {
			return
		}
		p, ok := rec.Price()
		add(label, p, ok)
	}

	addRecord(LineHardwareKit, acc.HardwareKit)

	addRecord(LineHandle, acc.Handle)
	if acc.Handle != nil && sel.Backplate {
		p, ok := acc.Handle.Attributes.Number(model.AttrBackplatePrice)
		add(LineBackplate, p, ok)
	}

	addRecord(LineLimiter, acc.Limiter)

	for i := range acc.Options {
		opt := acc.Options[i]
		addRecord(LineOption+":"+opt.Label(), &opt)
	}

	if sel.Reversible && attrs.Bool(model.AttrReversibleAvailable) {
		p, ok := attrs.Number(model.AttrReversalPrice)
		add(LineReversible, p, ok)
	}

	if sel.Threshold && attrs.Bool(model.AttrThresholdAvailable) {
		p, ok := attrs.Number(model.AttrThresholdPrice)
		add(LineThreshold, p, ok)
	}

	if attrs.Bool(model.AttrMirrorAvailable) {
		switch sel.MirrorState() {
		case model.MirrorOneSide:
			p, ok := attrs.Number(model.AttrMirrorOneSidePrice)
			add(LineMirror, p, ok)
		case model.MirrorBothSides:
			p, ok := attrs.Number(model.AttrMirrorTwoSidesPrice)
			add(LineMirror, p, ok)
		}
	}

	// An edge included in the base price suppresses any edge surcharge.
	if sel.EdgeID != "" && !attrs.Bool(model.AttrEdgeIncluded) {
		p, ok := base.EdgePrice(sel.EdgeID)
		add(LineEdge, p, ok)
	}

	return model.NewPriceBreakdown(priceOrZero(base), lines)
}
