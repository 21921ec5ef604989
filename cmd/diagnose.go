package main

import (
	"github.com/spf13/cobra"
)

var diagnoseFlags selectionFlags

var diagnoseCmd = &cobra.Command{
	Use:   "diagnose",
	Short: "Show how many catalog records survive each filter stage",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx, "quote")
		if err != nil {
			return err
		}
		defer env.Close()

		steps, err := env.Service.Diagnose(ctx, diagnoseFlags.category, diagnoseFlags.input())
		if err != nil {
			return err
		}

		if diagnoseFlags.asJSON {
			return writeJSON(cmd.OutOrStdout(), map[string]any{"steps": steps})
		}
		return printSteps(cmd.OutOrStdout(), steps)
	},
}

func init() {
	diagnoseFlags.bind(diagnoseCmd)
	rootCmd.AddCommand(diagnoseCmd)
}
