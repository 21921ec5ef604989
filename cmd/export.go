package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/door-pricing/internal/sheet"
)

var (
	exportOrders string
	exportOut    string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Quote every line of an order file and write the results to XLSX",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		lines, err := sheet.ReadOrderLines(exportOrders)
		if err != nil {
			return err
		}

		env, err := initEnv(ctx, "export")
		if err != nil {
			return err
		}
		defer env.Close()

		results, err := env.Service.MatchLines(ctx, lines)
		if err != nil {
			return err
		}

		if err := sheet.WriteQuotes(exportOut, results); err != nil {
			return eris.Wrap(err, "write quotes")
		}

		zap.L().Info("export complete",
			zap.Int("lines", len(results)),
			zap.String("out", exportOut),
		)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportOrders, "orders", "", "path to YAML order-line file (required)")
	exportCmd.Flags().StringVar(&exportOut, "out", "quotes.xlsx", "path of the XLSX workbook to write")
	_ = exportCmd.MarkFlagRequired("orders")
	rootCmd.AddCommand(exportCmd)
}
