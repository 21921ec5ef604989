package sheet

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/door-pricing/internal/model"
)

// QuotesSheet is the name of the sheet written by WriteQuotes.
const QuotesSheet = "quotes"

var quoteColumns = []string{
	"ref", "category", "model_code", "found", "matched_id",
	"base", "total", "lines", "warnings", "error",
}

// WriteQuotes writes one row per order line result to a new workbook at path.
func WriteQuotes(path string, results []model.LineResult) error {
	f := xlsx.NewFile()
	sh, err := f.AddSheet(QuotesSheet)
	if err != nil {
		return eris.Wrap(err, "xlsx: add sheet")
	}

	header := sh.AddRow()
	for _, c := range quoteColumns {
		header.AddCell().SetString(c)
	}

	for _, r := range results {
		row := sh.AddRow()
		row.AddCell().SetString(r.Line.Ref)
		row.AddCell().SetString(r.Line.Category)
		row.AddCell().SetString(strings.TrimSpace(r.Line.Selection.ModelCode))

		q := r.Quote
		if q == nil {
			row.AddCell().SetBool(false)
			row.AddCell().SetString("")
			row.AddCell().SetString("")
			row.AddCell().SetString("")
			row.AddCell().SetString("")
			row.AddCell().SetString("")
			row.AddCell().SetString(r.Error)
			continue
		}

		row.AddCell().SetBool(q.Found)
		row.AddCell().SetString(q.MatchedRecordID)
		setAmount(row.AddCell(), q.Breakdown.Base)
		setAmount(row.AddCell(), q.Breakdown.Total)
		row.AddCell().SetString(lineSummary(q.Breakdown.Lines))
		row.AddCell().SetString(warningSummary(q.Warnings))
		row.AddCell().SetString(r.Error)
	}

	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "xlsx: save %s", path)
	}
	return nil
}

func setAmount(c *xlsx.Cell, d decimal.Decimal) {
	c.SetFloatWithFormat(d.InexactFloat64(), "0.00")
}

func lineSummary(lines []model.PriceLine) string {
	parts := make([]string, len(lines))
	for i, l := range lines {
		parts[i] = fmt.Sprintf("%s=%s", l.Label, l.Amount.StringFixed(2))
	}
	return strings.Join(parts, "; ")
}

func warningSummary(ws []model.Warning) string {
	parts := make([]string, len(ws))
	for i, w := range ws {
		parts[i] = w.Slot + ":" + w.ID
	}
	return strings.Join(parts, "; ")
}
