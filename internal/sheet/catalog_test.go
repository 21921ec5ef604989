package sheet

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/door-pricing/internal/engine"
	"github.com/sells-group/door-pricing/internal/model"
)

type testSheet struct {
	name string
	rows [][]string
}

func createTestXLSX(t *testing.T, sheets ...testSheet) string {
	t.Helper()
	f := xlsx.NewFile()
	for _, s := range sheets {
		sheet, err := f.AddSheet(s.name)
		require.NoError(t, err)
		for _, rowData := range s.rows {
			row := sheet.AddRow()
			for _, cellData := range rowData {
				cell := row.AddCell()
				cell.SetString(cellData)
			}
		}
	}
	path := filepath.Join(t.TempDir(), "catalog.xlsx")
	require.NoError(t, f.Save(path))
	return path
}

func TestReadCatalog_Basic(t *testing.T) {
	path := createTestXLSX(t,
		testSheet{"doors", [][]string{
			{"id", "code", "Model", "Color", "Width", "Price", "Mirror Available"},
			{"d1", "D-1", "M1", "white", "800", "5000", "true"},
			{"d2", "D-2", "M1", "", "800", "5200.50", ""},
		}},
		testSheet{"handles", [][]string{
			{"code", "name", "price"},
			{"H-01", "Brass lever", "700"},
		}},
	)

	cats, err := ReadCatalog(path)
	require.NoError(t, err)
	require.Len(t, cats, 2)

	doors := cats[0]
	assert.Equal(t, "doors", doors.Category)
	require.Len(t, doors.Records, 2)

	d1 := doors.Records[0]
	assert.Equal(t, "d1", d1.ID)
	assert.Equal(t, "D-1", d1.Code)
	model, ok := d1.Attributes.String("model")
	require.True(t, ok)
	assert.Equal(t, "M1", model)
	assert.True(t, d1.Attributes.Bool("mirror_available"))

	w, ok := d1.Attributes.Number("width")
	require.True(t, ok)
	assert.True(t, decimal.NewFromInt(800).Equal(w))

	d2 := doors.Records[1]
	assert.False(t, d2.Attributes.Has("color"), "blank cells stay absent")
	p, ok := d2.Price()
	require.True(t, ok)
	assert.True(t, decimal.RequireFromString("5200.5").Equal(p))

	handles := cats[1]
	assert.Equal(t, "handles", handles.Category)
	require.Len(t, handles.Records, 1)
	assert.Equal(t, "H-01", handles.Records[0].ID, "id falls back to code")
	assert.Equal(t, "Brass lever", handles.Records[0].Label())
}

func TestReadCatalog_NumbersAndText(t *testing.T) {
	path := createTestXLSX(t, testSheet{"options", [][]string{
		{"id", "price", "article", "ratio"},
		{"o1", "1600", "0800", "0.5"},
	}})

	cats, err := ReadCatalog(path)
	require.NoError(t, err)
	rec := cats[0].Records[0]

	price, ok := rec.Price()
	require.True(t, ok)
	assert.True(t, decimal.NewFromInt(1600).Equal(price))

	raw, _ := rec.Attributes.Get("price")
	assert.IsType(t, json.Number(""), raw)

	article, ok := rec.Attributes.String("article")
	require.True(t, ok)
	assert.Equal(t, "0800", article, "leading zeros keep the value as text")

	ratio, ok := rec.Attributes.Number("ratio")
	require.True(t, ok)
	assert.True(t, decimal.RequireFromString("0.5").Equal(ratio))
}

func TestReadCatalog_TextDimensionsKeepTheirLiteral(t *testing.T) {
	path := createTestXLSX(t, testSheet{"doors", [][]string{
		{"id", "model", "color", "width", "price", "mirror_one_side_price"},
		{"d1", "2.10", "1E2", "800.50", "5000.00", "1,5"},
	}})

	cats, err := ReadCatalog(path)
	require.NoError(t, err)
	rec := cats[0].Records[0]

	modelCode, _ := rec.Attributes.String("model")
	assert.Equal(t, "2.10", modelCode)
	color, _ := rec.Attributes.String("color")
	assert.Equal(t, "1E2", color)

	raw, _ := rec.Attributes.Get("width")
	assert.Equal(t, json.Number("800.50"), raw)
	raw, _ = rec.Attributes.Get("mirror_one_side_price")
	assert.Equal(t, "1,5", raw, "not a JSON number literal")
	surcharge, ok := rec.Attributes.Number("mirror_one_side_price")
	require.True(t, ok)
	assert.True(t, decimal.RequireFromString("1.5").Equal(surcharge))

	matched := engine.Filter(cats[0].Records, model.Selection{ModelCode: "2.10", Color: "1E2"})
	require.Len(t, matched, 1)
	assert.Equal(t, "d1", matched[0].ID)
}

func TestReadCatalog_GeneratesIDs(t *testing.T) {
	path := createTestXLSX(t, testSheet{"limiters", [][]string{
		{"code", "price"},
		{"", "80"},
	}})

	cats, err := ReadCatalog(path)
	require.NoError(t, err)
	require.Len(t, cats[0].Records, 1)
	assert.Len(t, cats[0].Records[0].ID, 36)
}

func TestReadCatalog_SkipsBlankRowsAndEmptySheets(t *testing.T) {
	path := createTestXLSX(t,
		testSheet{"Doors", [][]string{
			{"id", "model"},
			{"", ""},
			{"d1", "M1"},
		}},
		testSheet{"notes", nil},
	)

	cats, err := ReadCatalog(path)
	require.NoError(t, err)
	require.Len(t, cats, 1)
	assert.Equal(t, "doors", cats[0].Category)
	assert.Len(t, cats[0].Records, 1)
}

func TestReadCatalog_DuplicateID(t *testing.T) {
	path := createTestXLSX(t, testSheet{"doors", [][]string{
		{"id", "model"},
		{"d1", "M1"},
		{"d1", "M2"},
	}})

	_, err := ReadCatalog(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `id "d1" already used on row 2`)
}

func TestReadCatalog_MissingKeyColumn(t *testing.T) {
	path := createTestXLSX(t, testSheet{"doors", [][]string{
		{"model", "price"},
		{"M1", "5000"},
	}})

	_, err := ReadCatalog(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "neither an id nor a code column")
}

func TestReadCatalog_BadFile(t *testing.T) {
	_, err := ReadCatalog("/nonexistent/path/file.xlsx")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "xlsx: open file")

	path := filepath.Join(t.TempDir(), "bad.xlsx")
	require.NoError(t, os.WriteFile(path, []byte("this is not an xlsx file"), 0o644))
	_, err = ReadCatalog(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "xlsx: open file")
}

func TestNormalizeHeader(t *testing.T) {
	assert.Equal(t, "mirror_one_side_price", normalizeHeader("  Mirror One  Side Price "))
	assert.Equal(t, "id", normalizeHeader("ID"))
}
