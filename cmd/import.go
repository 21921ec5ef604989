package main

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/door-pricing/internal/sheet"
)

var (
	importFile       string
	importCategories []string
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import catalog records from an XLSX workbook or CSV file",
	Long: "Each sheet of a workbook is imported as one catalog category named after the sheet. " +
		"A CSV file is one category, named by --category or the file name. Each imported category replaces its previous records.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		catalogs, err := readCatalogs(ctx)
		if err != nil {
			return eris.Wrap(err, "read catalog")
		}

		env, err := initEnv(ctx, "import")
		if err != nil {
			return err
		}
		defer env.Close()

		wanted := make(map[string]bool, len(importCategories))
		for _, c := range importCategories {
			wanted[strings.Join(strings.Fields(strings.ToLower(c)), "_")] = true
		}

		var total int
		for _, c := range catalogs {
			if len(wanted) > 0 && !wanted[c.Category] {
				continue
			}
			n, err := env.Store.UpsertRecords(ctx, c.Category, c.Records)
			if err != nil {
				return eris.Wrapf(err, "import %s", c.Category)
			}
			total += n
			zap.L().Info("imported category",
				zap.String("category", c.Category),
				zap.Int("records", n),
			)
		}

		zap.L().Info("import complete",
			zap.Int("records", total),
			zap.String("file", importFile),
		)
		return nil
	},
}

func readCatalogs(ctx context.Context) ([]sheet.Catalog, error) {
	if !strings.EqualFold(filepath.Ext(importFile), ".csv") {
		return sheet.ReadCatalog(importFile)
	}

	opts := sheet.CSVOptions{}
	if len(importCategories) > 0 {
		opts.Category = importCategories[0]
	}
	cat, err := sheet.ReadCatalogCSV(ctx, importFile, opts)
	if err != nil {
		return nil, err
	}
	return []sheet.Catalog{cat}, nil
}

func init() {
	importCmd.Flags().StringVar(&importFile, "file", "", "path to XLSX workbook or CSV file (required)")
	importCmd.Flags().StringSliceVar(&importCategories, "category", nil, "only import these sheets; names the category of a CSV file")
	_ = importCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(importCmd)
}
