package engine

import "github.com/sells-group/door-pricing/internal/model"

// Diagnose re-runs the pipeline and records the candidate count before and
// after every stage, inactive ones included. It is meant for operators
// investigating an empty match: the first step with After == 0 names the
// dimension that emptied the pool.
func Diagnose(records []model.CatalogRecord, sel model.Selection) []model.FilterStep {
	steps := make([]model.FilterStep, 0, len(pipeline))
	cands := records
	for _, st := range pipeline {
		before := len(cands)
		active := st.Active(sel)
		if active {
			cands = st.apply(cands, sel)
		}
		steps = append(steps, model.FilterStep{
			Stage:  st.Name,
			Before: before,
			After:  len(cands),
			Active: active,
		})
	}
	return steps
}

// CollapsedAt returns the first stage that left no candidates.
func CollapsedAt(steps []model.FilterStep) (model.FilterStep, bool) {
	for _, s := range steps {
		if s.After == 0 && s.Before > 0 {
			return s, true
		}
	}
	return model.FilterStep{}, false
}
