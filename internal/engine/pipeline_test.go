package engine

import (
	"fmt"
	"math"
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/door-pricing/internal/model"
)

func TestStages_Order(t *testing.T) {
	t.Parallel()

	var names []string
	for _, st := range Stages() {
		names = append(names, st.Name)
	}
	assert.Equal(t, []string{"model", "style", "finish", "color", "width", "height", "filling", "supplier"}, names)
}

func TestFilter(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		sel  model.Selection
		want []string
	}{
		{
			name: "model only keeps every variant of the model",
			sel:  model.Selection{ModelCode: "M1"},
			want: []string{"a1", "a2", "a3", "a4"},
		},
		{
			name: "model code is trimmed on both sides",
			sel:  model.Selection{ModelCode: " M2"},
			want: []string{"b1", "b2"},
		},
		{
			name: "string comparison is case sensitive",
			sel:  model.Selection{ModelCode: "M2", Color: "white"},
			want: []string{"b1"},
		},
		{
			name: "finish and color",
			sel:  model.Selection{ModelCode: "M1", Finish: "paint", Color: "white"},
			want: []string{"a1", "a4"},
		},
		{
			name: "numeric width matches text and number encodings",
			sel:  model.Selection{ModelCode: "M1", Width: dec(800)},
			want: []string{"a2", "a3"},
		},
		{
			name: "numeric equality is exact",
			sel:  model.Selection{ModelCode: "M1", Width: decimal.NewNullDecimal(decimal.RequireFromString("800.0"))},
			want: []string{"a2", "a3"},
		},
		{
			name: "height",
			sel:  model.Selection{ModelCode: "M1", Height: dec(2100)},
			want: []string{"a3"},
		},
		{
			name: "filling and supplier",
			sel:  model.Selection{ModelCode: "M1", Filling: "glass", Supplier: "South"},
			want: []string{"a3", "a4"},
		},
		{
			name: "record missing the attribute is excluded",
			sel:  model.Selection{ModelCode: "M2", Style: "classic"},
			want: []string{"b1"},
		},
		{
			name: "unknown value empties the set",
			sel:  model.Selection{ModelCode: "M1", Color: "green"},
			want: []string{},
		},
		{
			name: "missing model code never matches",
			sel:  model.Selection{Color: "white"},
			want: []string{},
		},
		{
			name: "unknown model does not fall back",
			sel:  model.Selection{ModelCode: "M9"},
			want: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := Filter(catalog(), tt.sel)
			require.NotNil(t, got)
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func TestFilter_DoesNotMutateInput(t *testing.T) {
	t.Parallel()

	records := catalog()
	before := ids(records)

	got := Filter(records, model.Selection{ModelCode: "M1", Color: "white"})
	require.Len(t, got, 2)
	got[0] = rec("changed", nil)

	assert.Equal(t, before, ids(records))
}

func TestFilter_SubsetPreservesOrder(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(42))
	models := []string{"M1", "M2"}
	colors := []string{"white", "black", "oak"}
	widths := []int64{700, 800, 900}

	for round := 0; round < 50; round++ {
		var records []model.CatalogRecord
		for i := 0; i < 30; i++ {
			records = append(records, rec(fmt.Sprintf("r%d", i), map[string]any{
				"model": models[rng.Intn(len(models))],
				"color": colors[rng.Intn(len(colors))],
				"width": widths[rng.Intn(len(widths))],
				"price": rng.Intn(10000),
			}))
		}
		sel := model.Selection{ModelCode: models[rng.Intn(len(models))]}
		if rng.Intn(2) == 0 {
			sel.Color = colors[rng.Intn(len(colors))]
		}
		if rng.Intn(2) == 0 {
			sel.Width = dec(widths[rng.Intn(len(widths))])
		}

		got := Filter(records, sel)

		pos := make(map[string]int, len(records))
		for i, r := range records {
			pos[r.ID] = i
		}
		last := -1
		for _, r := range got {
			i, ok := pos[r.ID]
			require.True(t, ok, "filtered record %s not in input", r.ID)
			require.Greater(t, i, last, "order not preserved")
			last = i
		}
	}
}

func TestFilterExcept(t *testing.T) {
	t.Parallel()

	sel := model.Selection{ModelCode: "M1", Finish: "paint", Color: "black"}
	assert.Equal(t, []string{"a2"}, ids(Filter(catalog(), sel)))
	assert.Equal(t, []string{"a1", "a2", "a4"}, ids(FilterExcept(catalog(), sel, StageColor)))
}

func TestMatch(t *testing.T) {
	t.Parallel()

	res := Match(scenarioDoors(), scenarioSelection())
	require.True(t, res.Found())
	assert.Equal(t, "d2", res.Record.ID)
	assert.Equal(t, []string{"d1", "d2"}, ids(res.Candidates))

	none := Match(scenarioDoors(), model.Selection{ModelCode: "M1", Color: "black"})
	assert.False(t, none.Found())
	assert.Empty(t, none.Candidates)
}

func TestStage_ValueAndSelected(t *testing.T) {
	t.Parallel()

	var width Stage
	for _, st := range Stages() {
		if st.Name == StageWidth {
			width = st
		}
	}
	v, ok := width.Value(rec("r", map[string]any{"width": "800.0"}))
	require.True(t, ok)
	assert.Equal(t, "800", v)

	_, ok = width.Value(rec("r", map[string]any{"width": "wide"}))
	assert.False(t, ok)

	assert.Equal(t, "900", width.Selected(model.Selection{Width: dec(900)}))
	assert.Equal(t, "", width.Selected(model.Selection{}))
}

func TestFilter_NonFiniteDimensionIsAbsent(t *testing.T) {
	records := []model.CatalogRecord{
		rec("nan", map[string]any{"model": "M1", "width": math.NaN(), "price": math.Inf(1)}),
		rec("ok", map[string]any{"model": "M1", "width": 800, "price": 100}),
	}

	var got []model.CatalogRecord
	require.NotPanics(t, func() {
		got = Filter(records, model.Selection{ModelCode: "M1", Width: dec(800)})
	})
	assert.Equal(t, []string{"ok"}, ids(got))

	best, ok := PickMaxPrice(records)
	require.True(t, ok)
	assert.Equal(t, "ok", best.ID)
}
