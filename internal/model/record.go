package model

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/sells-group/door-pricing/internal/attr"
)

// Attribute names read from catalog record bags.
const (
	AttrModel    = "model"
	AttrStyle    = "style"
	AttrFinish   = "finish"
	AttrColor    = "color"
	AttrWidth    = "width"
	AttrHeight   = "height"
	AttrFilling  = "filling"
	AttrSupplier = "supplier"

	AttrPrice = "price"
	AttrName  = "name"

	AttrReversibleAvailable = "reversible_available"
	AttrReversalPrice       = "reversal_price"
	AttrThresholdAvailable  = "threshold_available"
	AttrThresholdPrice      = "threshold_price"
	AttrMirrorAvailable     = "mirror_available"
	AttrMirrorOneSidePrice  = "mirror_one_side_price"
	AttrMirrorTwoSidesPrice = "mirror_two_sides_price"
	AttrEdgeIncluded        = "edge_included"
	AttrEdgePricePrefix     = "edge_price_"
	AttrBackplatePrice      = "backplate_price"
)

// CatalogRecord is one priced catalog item: a door variant or an accessory.
type CatalogRecord struct {
	ID         string   `json:"id"`
	Code       string   `json:"code,omitempty"`
	Attributes attr.Bag `json:"attributes"`
}

// Price returns the record's declared price.
func (r CatalogRecord) Price() (decimal.Decimal, bool) {
	return r.Attributes.Number(AttrPrice)
}

// Label returns the display name of the record, falling back to its code and
// then its ID.
func (r CatalogRecord) Label() string {
	if name, ok := r.Attributes.String(AttrName); ok {
		return name
	}
	if r.Code != "" {
		return r.Code
	}
	return r.ID
}

// EdgePrice returns the surcharge the record declares for the given edge.
func (r CatalogRecord) EdgePrice(edgeID string) (decimal.Decimal, bool) {
	if edgeID == "" {
		return decimal.Zero, false
	}
	return r.Attributes.Number(AttrEdgePricePrefix + edgeID)
}

// Category groups catalog records loaded together, e.g. "doors" or "handles".
type Category struct {
	Name    string `json:"name"`
	Records int    `json:"records"`
}

// QuoteLog is a persisted record of one price quote.
type QuoteLog struct {
	ID        string          `json:"id"`
	Category  string          `json:"category"`
	Selection SelectionInput  `json:"selection"`
	Found     bool            `json:"found"`
	MatchedID string          `json:"matched_id,omitempty"`
	Total     decimal.Decimal `json:"total"`
	CreatedAt time.Time       `json:"created_at"`
}
