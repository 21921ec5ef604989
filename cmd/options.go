package main

import (
	"github.com/spf13/cobra"
)

var optionsFlags selectionFlags

var optionsCmd = &cobra.Command{
	Use:   "options",
	Short: "List the values still available for each door dimension",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx, "quote")
		if err != nil {
			return err
		}
		defer env.Close()

		opts, err := env.Service.Options(ctx, optionsFlags.category, optionsFlags.input())
		if err != nil {
			return err
		}

		if optionsFlags.asJSON {
			return writeJSON(cmd.OutOrStdout(), opts)
		}
		return printOptions(cmd.OutOrStdout(), opts)
	},
}

func init() {
	optionsFlags.bind(optionsCmd)
	rootCmd.AddCommand(optionsCmd)
}
