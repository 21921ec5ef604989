package main

import (
	"github.com/spf13/cobra"

	"github.com/sells-group/door-pricing/internal/store"
)

var (
	historyCategory string
	historyLimit    int
	historyFound    bool
	historyMissed   bool
	historyJSON     bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded quotes, newest first",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx, "history")
		if err != nil {
			return err
		}
		defer env.Close()

		filter := store.QuoteFilter{Category: historyCategory, Limit: historyLimit}
		switch {
		case historyFound && !historyMissed:
			found := true
			filter.Found = &found
		case historyMissed && !historyFound:
			found := false
			filter.Found = &found
		}

		quotes, err := env.Service.History(ctx, filter)
		if err != nil {
			return err
		}

		if historyJSON {
			return writeJSON(cmd.OutOrStdout(), quotes)
		}
		return printHistory(cmd.OutOrStdout(), quotes)
	},
}

func init() {
	historyCmd.Flags().StringVar(&historyCategory, "category", "", "only quotes for this category")
	historyCmd.Flags().IntVar(&historyLimit, "limit", 50, "max number of quotes to list")
	historyCmd.Flags().BoolVar(&historyFound, "found", false, "only quotes that matched a record")
	historyCmd.Flags().BoolVar(&historyMissed, "missed", false, "only quotes that matched nothing")
	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "print JSON instead of a table")
	rootCmd.AddCommand(historyCmd)
}
