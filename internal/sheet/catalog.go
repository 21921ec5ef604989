// Package sheet reads and writes the files exchanged with catalog
// maintainers. Catalogs are imported from XLSX workbooks or CSV files, and
// exports read YAML order lines and write quote workbooks.
package sheet

import (
	"encoding/json"
	"strings"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/door-pricing/internal/attr"
	"github.com/sells-group/door-pricing/internal/model"
)

// Reserved header columns. Every other column is a record attribute.
const (
	ColumnID   = "id"
	ColumnCode = "code"
)

// Catalog is the records of one workbook sheet. The sheet name is the
// category.
type Catalog struct {
	Category string
	Records  []model.CatalogRecord
}

// ReadCatalog reads every sheet of an XLSX workbook as one catalog category.
// The first row of a sheet is its header; blank rows are skipped and blank
// cells leave the attribute absent. A record without an id takes its code,
// and one with neither gets a generated id.
func ReadCatalog(path string) ([]Catalog, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "xlsx: open file")
	}

	var out []Catalog
	for _, sh := range f.Sheets {
		cat, err := readCatalogSheet(sh)
		if err != nil {
			return nil, err
		}
		if len(cat.Records) == 0 {
			continue
		}
		out = append(out, cat)
	}
	return out, nil
}

func readCatalogSheet(sh *xlsx.Sheet) (Catalog, error) {
	cat := Catalog{Category: normalizeHeader(sh.Name)}
	if len(sh.Rows) == 0 {
		return cat, nil
	}

	header := headerColumns(sh.Rows[0])
	if !hasKeyColumn(header) {
		if isBlank(rowToStrings(sh.Rows[0])) {
			return cat, nil
		}
		return Catalog{}, eris.Errorf("xlsx: sheet %q has neither an id nor a code column", sh.Name)
	}

	seen := make(map[string]int)
	for i, row := range sh.Rows[1:] {
		cells := rowToStrings(row)
		if isBlank(cells) {
			continue
		}
		rec := recordFromRow(header, cells)
		rowNum := i + 2
		if prev, dup := seen[rec.ID]; dup {
			return Catalog{}, eris.Errorf("xlsx: sheet %q row %d: id %q already used on row %d", sh.Name, rowNum, rec.ID, prev)
		}
		seen[rec.ID] = rowNum
		cat.Records = append(cat.Records, rec)
	}
	return cat, nil
}

func hasKeyColumn(header []string) bool {
	return lo.Contains(header, ColumnID) || lo.Contains(header, ColumnCode)
}

func recordFromRow(header, cells []string) model.CatalogRecord {
	var rec model.CatalogRecord
	attrs := make(map[string]any)
	for j, col := range header {
		if col == "" || j >= len(cells) {
			continue
		}
		v := strings.TrimSpace(cells[j])
		if v == "" {
			continue
		}
		switch col {
		case ColumnID:
			rec.ID = v
		case ColumnCode:
			rec.Code = v
		default:
			attrs[col] = cellValue(col, v)
		}
	}
	if rec.ID == "" {
		rec.ID = rec.Code
	}
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	rec.Attributes = attr.FromMap(attrs)
	return rec
}

// cellValue keeps the cell text as written. Columns the engine reads as
// numbers (width, height, price and *_price) are stored as JSON numbers when
// they parse; the literal is kept so "2000.50" is not rewritten.
func cellValue(col, v string) any {
	if isNumericColumn(col) {
		if _, err := decimal.NewFromString(v); err == nil && json.Valid([]byte(v)) {
			return json.Number(v)
		}
	}
	return v
}

func isNumericColumn(col string) bool {
	switch col {
	case model.AttrWidth, model.AttrHeight, model.AttrPrice:
		return true
	}
	return strings.HasSuffix(col, "_price")
}

func headerColumns(row *xlsx.Row) []string {
	cells := rowToStrings(row)
	cols := make([]string, len(cells))
	for i, c := range cells {
		cols[i] = normalizeHeader(c)
	}
	return cols
}

func normalizeHeader(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.Join(strings.Fields(s), "_")
}

func isBlank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func rowToStrings(row *xlsx.Row) []string {
	cells := make([]string, len(row.Cells))
	for j, cell := range row.Cells {
		cells[j] = cell.String()
	}
	return cells
}
