package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/door-pricing/internal/attr"
	"github.com/sells-group/door-pricing/internal/model"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func door(id, code string, attrs map[string]any) model.CatalogRecord {
	return model.CatalogRecord{ID: id, Code: code, Attributes: attr.FromMap(attrs)}
}

// --- Catalog records ---

func TestSQLite_UpsertAndListRecords(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	n, err := st.UpsertRecords(ctx, "doors", []model.CatalogRecord{
		door("d2", "D-2", map[string]any{"model": "M1", "price": 5200}),
		door("d1", "D-1", map[string]any{"model": "M1", "price": "5000", "color": "white"}),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	records, err := st.ListRecords(ctx, "doors")
	require.NoError(t, err)
	require.Len(t, records, 2)

	// Import order is preserved, not id order.
	assert.Equal(t, "d2", records[0].ID)
	assert.Equal(t, "d1", records[1].ID)
	assert.Equal(t, "D-1", records[1].Code)

	p, ok := records[0].Price()
	require.True(t, ok)
	assert.True(t, decimal.NewFromInt(5200).Equal(p))

	color, ok := records[1].Attributes.String("color")
	require.True(t, ok)
	assert.Equal(t, "white", color)
}

func TestSQLite_UpsertRecords_Replaces(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	_, err := st.UpsertRecords(ctx, "handles", []model.CatalogRecord{
		door("h1", "H-1", map[string]any{"price": 700}),
	})
	require.NoError(t, err)

	_, err = st.UpsertRecords(ctx, "handles", []model.CatalogRecord{
		door("h1", "H-1b", map[string]any{"price": 750}),
	})
	require.NoError(t, err)

	records, err := st.ListRecords(ctx, "handles")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "H-1b", records[0].Code)
	p, _ := records[0].Price()
	assert.True(t, decimal.NewFromInt(750).Equal(p))
}

func TestSQLite_UpsertRecords_DropsStaleRecords(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	_, err := st.UpsertRecords(ctx, "doors", []model.CatalogRecord{
		door("a", "", map[string]any{"price": 100}),
		door("b", "", map[string]any{"price": 100}),
		door("c", "", map[string]any{"price": 100}),
	})
	require.NoError(t, err)
	_, err = st.UpsertRecords(ctx, "handles", []model.CatalogRecord{door("h1", "", nil)})
	require.NoError(t, err)

	// A smaller re-import: "b" is gone and "z" now comes first.
	_, err = st.UpsertRecords(ctx, "doors", []model.CatalogRecord{
		door("z", "", map[string]any{"price": 100}),
		door("a", "", map[string]any{"price": 100}),
	})
	require.NoError(t, err)

	records, err := st.ListRecords(ctx, "doors")
	require.NoError(t, err)
	ids := make([]string, len(records))
	for i, r := range records {
		ids[i] = r.ID
	}
	assert.Equal(t, []string{"z", "a"}, ids)

	handles, err := st.ListRecords(ctx, "handles")
	require.NoError(t, err)
	assert.Len(t, handles, 1, "other categories are untouched")
}

func TestSQLite_UpsertRecords_SameIDDifferentCategory(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	_, err := st.UpsertRecords(ctx, "handles", []model.CatalogRecord{door("x1", "", nil)})
	require.NoError(t, err)
	_, err = st.UpsertRecords(ctx, "limiters", []model.CatalogRecord{door("x1", "", nil)})
	require.NoError(t, err)

	cats, err := st.ListCategories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []model.Category{
		{Name: "handles", Records: 1},
		{Name: "limiters", Records: 1},
	}, cats)
}

func TestSQLite_UpsertRecords_Invalid(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	_, err := st.UpsertRecords(ctx, "doors", []model.CatalogRecord{{Code: "no-id"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "has no id")

	_, err = st.UpsertRecords(ctx, "", []model.CatalogRecord{door("d1", "", nil)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "category is required")

	n, err := st.UpsertRecords(ctx, "doors", nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSQLite_ListRecords_UnknownCategory(t *testing.T) {
	st := newTestSQLiteStore(t)

	records, err := st.ListRecords(context.Background(), "nope")
	require.NoError(t, err)
	assert.NotNil(t, records)
	assert.Empty(t, records)
}

func TestSQLite_ListCategories_Empty(t *testing.T) {
	st := newTestSQLiteStore(t)

	cats, err := st.ListCategories(context.Background())
	require.NoError(t, err)
	assert.Empty(t, cats)
}

// --- Quote log ---

func TestSQLite_SaveAndListQuotes(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	q1 := &model.QuoteLog{
		Category:  "doors",
		Selection: model.SelectionInput{ModelCode: "M1", Width: "800"},
		Found:     true,
		MatchedID: "d2",
		Total:     decimal.RequireFromString("6700.50"),
		CreatedAt: base,
	}
	q2 := &model.QuoteLog{
		Category:  "doors",
		Selection: model.SelectionInput{ModelCode: "M9"},
		CreatedAt: base.Add(time.Minute),
	}
	q3 := &model.QuoteLog{
		Category:  "entry_doors",
		Selection: model.SelectionInput{ModelCode: "E1"},
		CreatedAt: base.Add(2 * time.Minute),
	}
	for _, q := range []*model.QuoteLog{q1, q2, q3} {
		require.NoError(t, st.SaveQuote(ctx, q))
		assert.NotEmpty(t, q.ID)
	}

	all, err := st.ListQuotes(ctx, QuoteFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, q3.ID, all[0].ID)
	assert.Equal(t, q1.ID, all[2].ID)
	assert.Equal(t, "d2", all[2].MatchedID)
	assert.True(t, decimal.RequireFromString("6700.5").Equal(all[2].Total))
	assert.Equal(t, model.Dimension("800"), all[2].Selection.Width)
	assert.True(t, all[2].Found)

	doors, err := st.ListQuotes(ctx, QuoteFilter{Category: "doors"})
	require.NoError(t, err)
	assert.Len(t, doors, 2)

	found := true
	hits, err := st.ListQuotes(ctx, QuoteFilter{Found: &found})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, q1.ID, hits[0].ID)

	page, err := st.ListQuotes(ctx, QuoteFilter{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, q2.ID, page[0].ID)

	recent, err := st.ListQuotes(ctx, QuoteFilter{CreatedAfter: base.Add(30 * time.Second)})
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, q3.ID, recent[0].ID)
	assert.Equal(t, q2.ID, recent[1].ID)
}

func TestSQLite_SaveQuote_SetsDefaults(t *testing.T) {
	st := newTestSQLiteStore(t)

	q := &model.QuoteLog{Category: "doors", Selection: model.SelectionInput{ModelCode: "M1"}}
	require.NoError(t, st.SaveQuote(context.Background(), q))
	assert.NotEmpty(t, q.ID)
	assert.False(t, q.CreatedAt.IsZero())
}

func TestSQLite_Ping(t *testing.T) {
	st := newTestSQLiteStore(t)
	assert.NoError(t, st.Ping(context.Background()))
}
