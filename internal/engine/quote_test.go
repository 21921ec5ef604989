package engine

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/door-pricing/internal/model"
)

func TestQuote_ScenarioA_MaxPriceTieBreak(t *testing.T) {
	t.Parallel()

	q, err := Quote(Pools{Doors: scenarioDoors()}, scenarioSelection())
	require.NoError(t, err)

	assert.True(t, q.Found)
	assert.Equal(t, "max_price", q.Policy)
	assert.Equal(t, "d2", q.MatchedRecordID)
	assert.Equal(t, []string{"d1", "d2"}, ids(q.MatchingRecords))
	assert.True(t, decimal.NewFromInt(5200).Equal(q.Breakdown.Base))
	assert.True(t, decimal.NewFromInt(5200).Equal(q.Breakdown.Total))
	assert.Empty(t, q.Breakdown.Lines)
	assert.Empty(t, q.Steps)
}

func TestQuote_ScenarioB_NotFound(t *testing.T) {
	t.Parallel()

	sel := scenarioSelection()
	sel.Color = "black"

	q, err := Quote(Pools{Doors: scenarioDoors()}, sel)
	require.NoError(t, err)

	assert.False(t, q.Found)
	assert.Empty(t, q.MatchedRecordID)
	assert.NotNil(t, q.MatchingRecords)
	assert.Empty(t, q.MatchingRecords)
	assert.True(t, q.Breakdown.Base.IsZero())
	assert.True(t, q.Breakdown.Total.IsZero())

	at, ok := CollapsedAt(q.Steps)
	require.True(t, ok)
	assert.Equal(t, model.FilterStep{Stage: "color", Before: 2, After: 0, Active: true}, at)
}

func TestQuote_ScenarioC_MirrorOneSide(t *testing.T) {
	t.Parallel()

	door := rec("m", map[string]any{
		"model": "M1", "price": 8000,
		"mirror_available": "yes", "mirror_one_side_price": 1500, "mirror_two_sides_price": 2600,
	})
	q, err := Quote(Pools{Doors: []model.CatalogRecord{door}}, model.Selection{ModelCode: "M1", Mirror: model.MirrorOneSide})
	require.NoError(t, err)
	require.True(t, q.Found)

	require.Len(t, q.Breakdown.Lines, 1)
	assert.Equal(t, "mirror", q.Breakdown.Lines[0].Label)
	assert.True(t, decimal.NewFromInt(1500).Equal(q.Breakdown.Lines[0].Amount))
	assert.True(t, decimal.NewFromInt(9500).Equal(q.Breakdown.Total))
}

func TestQuote_ScenarioD_NoHardwareKit(t *testing.T) {
	t.Parallel()

	pools := accessoryPools()
	pools.Doors = scenarioDoors()

	q, err := Quote(pools, scenarioSelection())
	require.NoError(t, err)
	for _, l := range q.Breakdown.Lines {
		assert.NotEqual(t, LineHardwareKit, l.Label)
	}
	assert.True(t, decimal.NewFromInt(5200).Equal(q.Breakdown.Total))
	assert.Empty(t, q.Warnings)
}

func TestQuote_InvalidSelection(t *testing.T) {
	t.Parallel()

	q, err := Quote(Pools{Doors: scenarioDoors()}, model.Selection{Color: "white"})
	require.Error(t, err)
	assert.Nil(t, q)
	assert.True(t, eris.Is(err, model.ErrInvalidSelection))
}

func TestQuote_UnavailableAccessoryIsWarning(t *testing.T) {
	t.Parallel()

	pools := accessoryPools()
	pools.Doors = scenarioDoors()
	sel := scenarioSelection()
	sel.HandleID = "h1"
	sel.HardwareKitID = "gone"

	q, err := Quote(pools, sel)
	require.NoError(t, err)
	require.True(t, q.Found)
	assert.Equal(t, []model.Warning{{Slot: model.SlotHardwareKit, ID: "gone"}}, q.Warnings)
	require.Len(t, q.Breakdown.Lines, 1)
	assert.Equal(t, "handle", q.Breakdown.Lines[0].Label)
	assert.True(t, decimal.NewFromInt(5900).Equal(q.Breakdown.Total))
}

func TestQuote_Idempotent(t *testing.T) {
	t.Parallel()

	pools := accessoryPools()
	pools.Doors = append(scenarioDoors(), catalog()...)
	sel := scenarioSelection()
	sel.HandleID = "h1"
	sel.Backplate = true
	sel.OptionIDs = []string{"o1", "missing"}

	first, err := Quote(pools, sel)
	require.NoError(t, err)
	a, err := json.Marshal(first)
	require.NoError(t, err)

	for i := 0; i < 20; i++ {
		again, err := Quote(pools, sel)
		require.NoError(t, err)
		b, err := json.Marshal(again)
		require.NoError(t, err)
		require.Equal(t, string(a), string(b))
	}
}

func TestQuote_ConcurrentCallersShareRecords(t *testing.T) {
	t.Parallel()

	pools := accessoryPools()
	pools.Doors = append(scenarioDoors(), catalog()...)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(3)
		go func() {
			defer wg.Done()
			q, err := Quote(pools, scenarioSelection())
			assert.NoError(t, err)
			assert.Equal(t, "d2", q.MatchedRecordID)
		}()
		go func() {
			defer wg.Done()
			sel := scenarioSelection()
			sel.Color = "green"
			steps := Diagnose(pools.Doors, sel)
			assert.Equal(t, 0, steps[len(steps)-1].After)
		}()
		go func() {
			defer wg.Done()
			set, err := Options(pools.Doors, model.Selection{ModelCode: "M1"})
			assert.NoError(t, err)
			assert.Equal(t, 6, set.Total)
		}()
	}
	wg.Wait()
}
