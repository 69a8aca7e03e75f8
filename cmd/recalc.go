package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newRecalcTotalsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "recalc-totals",
		Short: "Recompute total value and payout of every order",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := bootstrap(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer rt.close()

			updated, err := rt.services.OrderService.RecalculateAllTotals(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "recalculated totals for %d orders\n", updated)
			return nil
		},
	}
}
