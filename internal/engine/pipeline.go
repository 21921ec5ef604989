// Package engine resolves a door selection against catalog records and
// prices the result. Every function is pure: inputs are never mutated and no
// state survives a call, so callers may share one record slice across
// goroutines.
package engine

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/sells-group/door-pricing/internal/model"
)

// Stage names, in pipeline order.
const (
	StageModel    = "model"
	StageStyle    = "style"
	StageFinish   = "finish"
	StageColor    = "color"
	StageWidth    = "width"
	StageHeight   = "height"
	StageFilling  = "filling"
	StageSupplier = "supplier"
)

// Stage is one narrowing step of the candidate filter pipeline. A stage whose
// selection field is unset is skipped, except the model stage which always
// runs: a record never matches an empty model code.
type Stage struct {
	Name    string
	Attr    string
	Numeric bool

	text   func(model.Selection) string
	number func(model.Selection) decimal.NullDecimal
}

var pipeline = []Stage{
	{
		Name: StageModel,
		Attr: model.AttrModel,
		text: func(s model.Selection) string { return s.ModelCode },
	},
	{
		Name: StageStyle,
		Attr: model.AttrStyle,
		text: func(s model.Selection) string { return s.Style },
	},
	{
		Name: StageFinish,
		Attr: model.AttrFinish,
		text: func(s model.Selection) string { return s.Finish },
	},
	{
		Name: StageColor,
		Attr: model.AttrColor,
		text: func(s model.Selection) string { return s.Color },
	},
	{
		Name:    StageWidth,
		Attr:    model.AttrWidth,
		Numeric: true,
		number:  func(s model.Selection) decimal.NullDecimal { return s.Width },
	},
	{
		Name:    StageHeight,
		Attr:    model.AttrHeight,
		Numeric: true,
		number:  func(s model.Selection) decimal.NullDecimal { return s.Height },
	},
	{
		Name: StageFilling,
		Attr: model.AttrFilling,
		text: func(s model.Selection) string { return s.Filling },
	},
	{
		Name: StageSupplier,
		Attr: model.AttrSupplier,
		text: func(s model.Selection) string { return s.Supplier },
	},
}

// Stages returns the pipeline stages in execution order.
func Stages() []Stage {
	out := make([]Stage, len(pipeline))
	copy(out, pipeline)
	return out
}

// Active reports whether the stage narrows candidates for sel.
func (st Stage) Active(sel model.Selection) bool {
	if st.Name == StageModel {
		return true
	}
	if st.Numeric {
		return st.number(sel).Valid
	}
	return trim(st.text(sel)) != ""
}

// Match reports whether rec satisfies the stage for sel. Inactive stages
// match everything.
func (st Stage) Match(rec model.CatalogRecord, sel model.Selection) bool {
	if !st.Active(sel) {
		return true
	}
	if st.Numeric {
		got, ok := rec.Attributes.Number(st.Attr)
		return ok && got.Equal(st.number(sel).Decimal)
	}
	want := trim(st.text(sel))
	if want == "" {
		return false
	}
	got, ok := rec.Attributes.String(st.Attr)
	return ok && got == want
}

// Value returns the record's value for the stage dimension in canonical text
// form, as offered by the option aggregator.
func (st Stage) Value(rec model.CatalogRecord) (string, bool) {
	if st.Numeric {
		d, ok := rec.Attributes.Number(st.Attr)
		if !ok {
			return "", false
		}
		return d.String(), true
	}
	return rec.Attributes.String(st.Attr)
}

// Selected returns the selection's value for the stage dimension as text.
func (st Stage) Selected(sel model.Selection) string {
	if st.Numeric {
		n := st.number(sel)
		if !n.Valid {
			return ""
		}
		return n.Decimal.String()
	}
	return trim(st.text(sel))
}

func (st Stage) apply(records []model.CatalogRecord, sel model.Selection) []model.CatalogRecord {
	out := make([]model.CatalogRecord, 0, len(records))
	for _, rec := range records {
		if st.Match(rec, sel) {
			out = append(out, rec)
		}
	}
	return out
}

// Filter runs every stage in order and returns the surviving records. The
// result is a new slice preserving input order; records is not modified.
func Filter(records []model.CatalogRecord, sel model.Selection) []model.CatalogRecord {
	return filterSkipping(records, sel, "")
}

// FilterExcept runs the pipeline with the named stage relaxed.
func FilterExcept(records []model.CatalogRecord, sel model.Selection, stage string) []model.CatalogRecord {
	return filterSkipping(records, sel, stage)
}

func filterSkipping(records []model.CatalogRecord, sel model.Selection, skip string) []model.CatalogRecord {
	cands := records
	for _, st := range pipeline {
		if st.Name == skip {
			continue
		}
		cands = st.apply(cands, sel)
		if len(cands) == 0 {
			break
		}
	}
	if cands == nil {
		cands = []model.CatalogRecord{}
	}
	return cands
}

// Match filters records and applies the max-price tie-break.
func Match(records []model.CatalogRecord, sel model.Selection) model.MatchResult {
	cands := Filter(records, sel)
	res := model.MatchResult{Candidates: cands}
	if best, ok := PickMaxPrice(cands); ok {
		res.Record = &best
	}
	return res
}

func trim(s string) string {
	return strings.TrimSpace(s)
}
