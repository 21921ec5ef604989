package main

import (
	"github.com/spf13/cobra"
)

var quoteFlags selectionFlags

var quoteCmd = &cobra.Command{
	Use:   "quote",
	Short: "Resolve a door selection and print its price breakdown",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx, "quote")
		if err != nil {
			return err
		}
		defer env.Close()

		q, err := env.Service.Quote(ctx, quoteFlags.category, quoteFlags.input())
		if err != nil {
			return err
		}

		if quoteFlags.asJSON {
			return writeJSON(cmd.OutOrStdout(), q)
		}
		return printQuote(cmd.OutOrStdout(), q)
	},
}

func init() {
	quoteFlags.bind(quoteCmd)
	rootCmd.AddCommand(quoteCmd)
}
