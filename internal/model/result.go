package model

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// MatchResult is the outcome of the filter pipeline and tie-break.
type MatchResult struct {
	Record     *CatalogRecord  `json:"record"`
	Candidates []CatalogRecord `json:"candidates"`
}

// Found reports whether a base record was resolved.
func (m MatchResult) Found() bool {
	return m.Record != nil
}

// PriceLine is one itemised surcharge.
type PriceLine struct {
	Label  string          `json:"label"`
	Amount decimal.Decimal `json:"amount"`
}

// MarshalJSON renders the amount as a JSON number.
func (l PriceLine) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Label  string      `json:"label"`
		Amount json.Number `json:"amount"`
	}{l.Label, json.Number(l.Amount.String())})
}

// PriceBreakdown is the base amount, itemised lines and their total.
type PriceBreakdown struct {
	Base  decimal.Decimal `json:"base"`
	Lines []PriceLine     `json:"lines"`
	Total decimal.Decimal `json:"total"`
}

// NewPriceBreakdown builds a breakdown whose Total is Base plus the sum of
// every line amount.
func NewPriceBreakdown(base decimal.Decimal, lines []PriceLine) PriceBreakdown {
	total := base
	for _, l := range lines {
		total = total.Add(l.Amount)
	}
	if lines == nil {
		lines = []PriceLine{}
	}
	return PriceBreakdown{Base: base, Lines: lines, Total: total}
}

// FilterStep records how many candidates one pipeline stage kept.
type FilterStep struct {
	Stage  string `json:"stage"`
	Before int    `json:"before"`
	After  int    `json:"after"`
	Active bool   `json:"active"`
}

// Dropped reports whether the stage removed candidates.
func (s FilterStep) Dropped() bool {
	return s.After < s.Before
}

// Accessory slot names used in warnings and price-line labels.
const (
	SlotHardwareKit = "hardware_kit"
	SlotHandle      = "handle"
	SlotLimiter     = "limiter"
	SlotOption      = "option"
)

// Warning reports an accessory reference that did not resolve.
type Warning struct {
	Slot string `json:"slot"`
	ID   string `json:"id"`
}

// Quote is the resolve-and-price result. A selection that matches nothing is
// a Quote with Found false and a zero breakdown, not an error.
type Quote struct {
	Found           bool            `json:"found"`
	Policy          string          `json:"policy"`
	Breakdown       PriceBreakdown  `json:"-"`
	MatchedRecordID string          `json:"matched_record_id"`
	MatchingRecords []CatalogRecord `json:"matching_records"`
	Warnings        []Warning       `json:"warnings,omitempty"`
	Steps           []FilterStep    `json:"steps,omitempty"`
}

// MarshalJSON flattens the breakdown and renders amounts as JSON numbers.
func (q Quote) MarshalJSON() ([]byte, error) {
	var matched *string
	if q.Found {
		matched = &q.MatchedRecordID
	}
	records := q.MatchingRecords
	if records == nil {
		records = []CatalogRecord{}
	}
	lines := q.Breakdown.Lines
	if lines == nil {
		lines = []PriceLine{}
	}
	return json.Marshal(struct {
		Found           bool            `json:"found"`
		Policy          string          `json:"policy"`
		Base            json.Number     `json:"base"`
		Breakdown       []PriceLine     `json:"breakdown"`
		Total           json.Number     `json:"total"`
		MatchedRecordID *string         `json:"matched_record_id"`
		MatchingRecords []CatalogRecord `json:"matching_records"`
		Warnings        []Warning       `json:"warnings,omitempty"`
		Steps           []FilterStep    `json:"steps,omitempty"`
	}{
		Found:           q.Found,
		Policy:          q.Policy,
		Base:            json.Number(q.Breakdown.Base.String()),
		Breakdown:       lines,
		Total:           json.Number(q.Breakdown.Total.String()),
		MatchedRecordID: matched,
		MatchingRecords: records,
		Warnings:        q.Warnings,
		Steps:           q.Steps,
	})
}

// DimensionOptions lists the values still reachable for one dimension.
type DimensionOptions struct {
	Dimension string   `json:"dimension"`
	Selected  string   `json:"selected,omitempty"`
	Values    []string `json:"values"`
}

// OptionSet is the cascading-filter answer for a partial selection.
type OptionSet struct {
	Dimensions []DimensionOptions `json:"dimensions"`
	Total      int                `json:"total"`
	Reversible bool               `json:"reversible"`
	Mirror     bool               `json:"mirror"`
	Threshold  bool               `json:"threshold"`
}

// Values returns the option list for a dimension, or nil.
func (o OptionSet) Values(dimension string) []string {
	for _, d := range o.Dimensions {
		if d.Dimension == dimension {
			return d.Values
		}
	}
	return nil
}

// OrderLine is one line of an order or export batch to be matched.
type OrderLine struct {
	Ref       string         `json:"ref" yaml:"ref"`
	Category  string         `json:"category,omitempty" yaml:"category,omitempty"`
	Selection SelectionInput `json:"selection" yaml:"selection"`
}

// LineResult pairs an order line with its quote or the reason it failed.
type LineResult struct {
	Line  OrderLine `json:"line"`
	Quote *Quote    `json:"quote,omitempty"`
	Error string    `json:"error,omitempty"`
}
