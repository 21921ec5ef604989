package sheet

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
)

// CSVOptions configures ReadCatalogCSV.
type CSVOptions struct {
	Category  string // default: file name without extension
	Delimiter rune   // default ','
	Comment   rune   // comment character (0 = none)
}

// ReadCatalogCSV reads a CSV file as a single catalog category. The header
// and cell rules match ReadCatalog.
func ReadCatalogCSV(ctx context.Context, path string, opts CSVOptions) (Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return Catalog{}, eris.Wrap(err, "csv: open file")
	}
	defer f.Close() //nolint:errcheck

	category := opts.Category
	if category == "" {
		category = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return readCatalogCSV(ctx, f, normalizeHeader(category), opts)
}

func readCatalogCSV(ctx context.Context, r io.Reader, category string, opts CSVOptions) (Catalog, error) {
	reader := csv.NewReader(r)
	if opts.Delimiter != 0 {
		reader.Comma = opts.Delimiter
	}
	if opts.Comment != 0 {
		reader.Comment = opts.Comment
	}
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	cat := Catalog{Category: category}
	var header []string
	seen := make(map[string]int)
	for {
		if ctx.Err() != nil {
			return Catalog{}, eris.Wrap(ctx.Err(), "csv: context cancelled")
		}

		cells, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Catalog{}, eris.Wrap(err, "csv: read row")
		}

		if header == nil {
			header = make([]string, len(cells))
			for i, c := range cells {
				header[i] = normalizeHeader(strings.TrimPrefix(c, "\ufeff"))
			}
			if !hasKeyColumn(header) {
				return Catalog{}, eris.Errorf("csv: %s has neither an id nor a code column", category)
			}
			continue
		}
		if isBlank(cells) {
			continue
		}

		rec := recordFromRow(header, cells)
		rowNum, _ := reader.FieldPos(0)
		if prev, dup := seen[rec.ID]; dup {
			return Catalog{}, eris.Errorf("csv: %s row %d: id %q already used on row %d", category, rowNum, rec.ID, prev)
		}
		seen[rec.ID] = rowNum
		cat.Records = append(cat.Records, rec)
	}
	return cat, nil
}
