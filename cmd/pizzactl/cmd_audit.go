package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sakif/cheesy-delights/internal/worker"
)

func newAuditCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "audit",
		Short: "Run one failed-order audit pass now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := worker.NewAuditor(a.store, a.logger, 0, nil).RunOnce(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "scanned %d orders, skipped %d, %d failed\n",
				result.Scanned, result.Skipped, len(result.Failed))
			for _, f := range result.Failed {
				fmt.Fprintf(out, "  %s  %s  payment=%s receipt=%s  $%.2f\n",
					f.Order.ID, f.Order.Email, f.Order.Payment, f.Order.Receipt, f.Order.Total)
			}
			return nil
		},
	}
}
