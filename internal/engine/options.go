package engine

import (
	"sort"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/sells-group/door-pricing/internal/model"
)

// Options computes the cascading filter answer for a partial selection. For
// each dimension after the model, the listed values are those present among
// records matching every other fixed field, so picking any of them keeps the
// candidate set non-empty. The selection itself is not changed.
func Options(records []model.CatalogRecord, sel model.Selection) (model.OptionSet, error) {
	if err := sel.Validate(); err != nil {
		return model.OptionSet{}, err
	}

	full := Filter(records, sel)
	set := model.OptionSet{Total: len(full)}
	set.Reversible = anyFlag(full, model.AttrReversibleAvailable)
	set.Mirror = anyFlag(full, model.AttrMirrorAvailable)
	set.Threshold = anyFlag(full, model.AttrThresholdAvailable)

	for _, st := range pipeline {
		if st.Name == StageModel {
			continue
		}
		relaxed := FilterExcept(records, sel, st.Name)
		set.Dimensions = append(set.Dimensions, model.DimensionOptions{
			Dimension: st.Name,
			Selected:  st.Selected(sel),
			Values:    distinctValues(st, relaxed),
		})
	}

	return set, nil
}

func anyFlag(records []model.CatalogRecord, name string) bool {
	return lo.SomeBy(records, func(r model.CatalogRecord) bool {
		return r.Attributes.Bool(name)
	})
}

func distinctValues(st Stage, records []model.CatalogRecord) []string {
	values := lo.Uniq(lo.FilterMap(records, func(r model.CatalogRecord, _ int) (string, bool) {
		return st.Value(r)
	}))

	if st.Numeric {
		sort.SliceStable(values, func(i, j int) bool {
			return decimal.RequireFromString(values[i]).LessThan(decimal.RequireFromString(values[j]))
		})
	} else {
		sort.Strings(values)
	}
	if values == nil {
		values = []string{}
	}
	return values
}
