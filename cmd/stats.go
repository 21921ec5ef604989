package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var (
	statsCategory string
	statsHours    int
	statsJSON     bool
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarise recorded quotes over a lookback window",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx, "history")
		if err != nil {
			return err
		}
		defer env.Close()

		snap, err := env.Service.Stats(ctx, statsCategory, time.Duration(statsHours)*time.Hour)
		if err != nil {
			return err
		}

		if statsJSON {
			return writeJSON(cmd.OutOrStdout(), snap)
		}

		tw := newTable(cmd.OutOrStdout())
		fmt.Fprintf(tw, "quotes\t%d\n", snap.Total)
		fmt.Fprintf(tw, "found\t%d\n", snap.Found)
		fmt.Fprintf(tw, "missed\t%d\n", snap.Missed)
		fmt.Fprintf(tw, "hit rate\t%.1f%%\n", snap.HitRate*100)
		fmt.Fprintf(tw, "avg total\t%s\n", formatAmount(snap.AvgTotal))
		fmt.Fprintf(tw, "max total\t%s\n", formatAmount(snap.MaxTotal))
		for _, m := range snap.MissedModels {
			fmt.Fprintf(tw, "missed model\t%s (%d)\n", m.ModelCode, m.Count)
		}
		return tw.Flush()
	},
}

func init() {
	statsCmd.Flags().StringVar(&statsCategory, "category", "", "only quotes for this category")
	statsCmd.Flags().IntVar(&statsHours, "hours", 24, "lookback window in hours")
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "print JSON instead of a table")
	rootCmd.AddCommand(statsCmd)
}
