package quote

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"

	"github.com/sells-group/door-pricing/internal/model"
	"github.com/sells-group/door-pricing/internal/store"
)

const statsLimit = 10000

// Stats is a point-in-time summary of recorded quotes.
type Stats struct {
	Total    int             `json:"total"`
	Found    int             `json:"found"`
	Missed   int             `json:"missed"`
	HitRate  float64         `json:"hit_rate"`
	AvgTotal decimal.Decimal `json:"avg_total"`
	MaxTotal decimal.Decimal `json:"max_total"`

	// MissedModels counts unmatched quotes per model code, most frequent first.
	MissedModels []ModelCount `json:"missed_models"`

	Lookback    time.Duration `json:"-"`
	CollectedAt time.Time     `json:"collected_at"`
}

// ModelCount is the number of quotes seen for one model code.
type ModelCount struct {
	ModelCode string `json:"model_code"`
	Count     int    `json:"count"`
}

// MarshalJSON renders amounts as numbers and the lookback in hours.
func (s Stats) MarshalJSON() ([]byte, error) {
	type alias Stats
	return json.Marshal(struct {
		alias
		AvgTotal      json.Number `json:"avg_total"`
		MaxTotal      json.Number `json:"max_total"`
		LookbackHours float64     `json:"lookback_hours"`
	}{
		alias:         alias(s),
		AvgTotal:      json.Number(s.AvgTotal.StringFixed(2)),
		MaxTotal:      json.Number(s.MaxTotal.StringFixed(2)),
		LookbackHours: s.Lookback.Hours(),
	})
}

// Stats summarises the quotes recorded within lookback of now, optionally for
// one category. Averages cover found quotes only.
func (s *Service) Stats(ctx context.Context, category string, lookback time.Duration) (*Stats, error) {
	now := s.now().UTC()
	snap := &Stats{
		Lookback:     lookback,
		CollectedAt:  now,
		MissedModels: []ModelCount{},
	}

	quotes, err := s.store.ListQuotes(ctx, store.QuoteFilter{
		Category:     category,
		CreatedAfter: now.Add(-lookback),
		Limit:        statsLimit,
	})
	if err != nil {
		return nil, eris.Wrap(err, "quote: list stats")
	}

	sum := decimal.Zero
	missed := make(map[string]int)
	for _, q := range quotes {
		snap.Total++
		if !q.Found {
			snap.Missed++
			missed[q.Selection.ModelCode]++
			continue
		}
		snap.Found++
		sum = sum.Add(q.Total)
		if q.Total.GreaterThan(snap.MaxTotal) {
			snap.MaxTotal = q.Total
		}
	}

	if snap.Total > 0 {
		snap.HitRate = float64(snap.Found) / float64(snap.Total)
	}
	if snap.Found > 0 {
		snap.AvgTotal = sum.Div(decimal.NewFromInt(int64(snap.Found))).Round(2)
	}

	for code, n := range missed {
		snap.MissedModels = append(snap.MissedModels, ModelCount{ModelCode: code, Count: n})
	}
	sort.Slice(snap.MissedModels, func(i, j int) bool {
		a, b := snap.MissedModels[i], snap.MissedModels[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.ModelCode < b.ModelCode
	})

	return snap, nil
}
