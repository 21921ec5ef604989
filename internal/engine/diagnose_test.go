package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/door-pricing/internal/model"
)

func TestDiagnose_ColorCollapse(t *testing.T) {
	t.Parallel()

	sel := scenarioSelection()
	sel.Color = "black"

	steps := Diagnose(scenarioDoors(), sel)
	require.Len(t, steps, len(Stages()))

	assert.Equal(t, model.FilterStep{Stage: "model", Before: 2, After: 2, Active: true}, steps[0])
	assert.Equal(t, model.FilterStep{Stage: "style", Before: 2, After: 2, Active: false}, steps[1])
	assert.Equal(t, model.FilterStep{Stage: "finish", Before: 2, After: 2, Active: true}, steps[2])
	assert.Equal(t, model.FilterStep{Stage: "color", Before: 2, After: 0, Active: true}, steps[3])
	for _, s := range steps[4:] {
		assert.Equal(t, 0, s.Before, s.Stage)
		assert.Equal(t, 0, s.After, s.Stage)
	}

	at, ok := CollapsedAt(steps)
	require.True(t, ok)
	assert.Equal(t, "color", at.Stage)
	assert.True(t, at.Dropped())
}

func TestDiagnose_UnknownModelStillRunsEveryStage(t *testing.T) {
	t.Parallel()

	steps := Diagnose(catalog(), model.Selection{ModelCode: "M9", Color: "white"})
	require.Len(t, steps, len(Stages()))
	assert.Equal(t, "model", steps[0].Stage)
	assert.Equal(t, len(catalog()), steps[0].Before)
	assert.Equal(t, 0, steps[0].After)

	at, ok := CollapsedAt(steps)
	require.True(t, ok)
	assert.Equal(t, "model", at.Stage)
}

func TestDiagnose_AgreesWithFilter(t *testing.T) {
	t.Parallel()

	sels := []model.Selection{
		{ModelCode: "M1"},
		{ModelCode: "M1", Finish: "paint", Width: dec(900)},
		{ModelCode: "M2", Color: "white", Style: "classic"},
		{ModelCode: "M1", Supplier: "Nowhere"},
	}
	for _, sel := range sels {
		steps := Diagnose(catalog(), sel)
		assert.Equal(t, len(Filter(catalog(), sel)), steps[len(steps)-1].After)
	}
}

func TestCollapsedAt_NoCollapse(t *testing.T) {
	t.Parallel()

	_, ok := CollapsedAt(Diagnose(scenarioDoors(), scenarioSelection()))
	assert.False(t, ok)
}
