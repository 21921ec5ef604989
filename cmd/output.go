package main

import (
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"strings"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/sells-group/door-pricing/internal/model"
)

var printer = message.NewPrinter(language.English)

// formatAmount renders d rounded to cents with English digit grouping. The
// digits come from the decimal itself, never from a float.
func formatAmount(d decimal.Decimal) string {
	fixed := d.Abs().StringFixed(2)
	intPart, frac, _ := strings.Cut(fixed, ".")

	var grouped string
	if n, ok := new(big.Int).SetString(intPart, 10); ok && n.IsInt64() {
		grouped = printer.Sprintf("%d", n.Int64())
	} else {
		grouped = groupThousands(intPart)
	}

	sign := ""
	if d.Round(2).IsNegative() {
		sign = "-"
	}
	return sign + grouped + "." + frac
}

func groupThousands(digits string) string {
	var b strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return b.String()
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}

func printQuote(w io.Writer, q *model.Quote) error {
	if !q.Found {
		fmt.Fprintln(w, "no catalog record matches the selection")
		if len(q.Steps) > 0 {
			fmt.Fprintln(w)
			return printSteps(w, q.Steps)
		}
		return nil
	}

	tw := newTable(w)
	fmt.Fprintf(tw, "matched\t%s\t(%d candidates, %s)\n", q.MatchedRecordID, len(q.MatchingRecords), q.Policy)
	fmt.Fprintf(tw, "base\t%s\n", formatAmount(q.Breakdown.Base))
	for _, l := range q.Breakdown.Lines {
		fmt.Fprintf(tw, "%s\t%s\n", l.Label, formatAmount(l.Amount))
	}
	fmt.Fprintf(tw, "total\t%s\n", formatAmount(q.Breakdown.Total))
	for _, warn := range q.Warnings {
		fmt.Fprintf(tw, "warning\t%s %q not found\n", warn.Slot, warn.ID)
	}
	return tw.Flush()
}

func printSteps(w io.Writer, steps []model.FilterStep) error {
	tw := newTable(w)
	fmt.Fprintln(tw, "STAGE\tACTIVE\tBEFORE\tAFTER")
	for _, s := range steps {
		fmt.Fprintf(tw, "%s\t%t\t%d\t%d\n", s.Stage, s.Active, s.Before, s.After)
	}
	return tw.Flush()
}

func printOptions(w io.Writer, o model.OptionSet) error {
	tw := newTable(w)
	fmt.Fprintf(tw, "candidates\t%d\n", o.Total)
	for _, d := range o.Dimensions {
		values := strings.Join(d.Values, ", ")
		if d.Selected != "" {
			values = fmt.Sprintf("%s (selected %s)", values, d.Selected)
		}
		fmt.Fprintf(tw, "%s\t%s\n", d.Dimension, values)
	}
	fmt.Fprintf(tw, "reversible\t%t\n", o.Reversible)
	fmt.Fprintf(tw, "mirror\t%t\n", o.Mirror)
	fmt.Fprintf(tw, "threshold\t%t\n", o.Threshold)
	return tw.Flush()
}

func printHistory(w io.Writer, quotes []model.QuoteLog) error {
	tw := newTable(w)
	fmt.Fprintln(tw, "CREATED\tCATEGORY\tMODEL\tFOUND\tMATCHED\tTOTAL")
	for _, q := range quotes {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%t\t%s\t%s\n",
			q.CreatedAt.Format("2006-01-02 15:04:05"),
			q.Category,
			q.Selection.ModelCode,
			q.Found,
			q.MatchedID,
			formatAmount(q.Total),
		)
	}
	return tw.Flush()
}
