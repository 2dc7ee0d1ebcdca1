package main

import (
	"errors"
	"fmt"
	"log/slog"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/sakif/cheesy-delights/internal/apperror"
	"github.com/sakif/cheesy-delights/internal/model"
	"github.com/sakif/cheesy-delights/internal/repository"
)

func newOrdersCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "orders",
		Short: "Show placed orders",
	}

	var recent, failedOnly bool
	list := &cobra.Command{
		Use:   "list",
		Short: "List orders",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := a.store.List(cmd.Context(), repository.Orders)
			if err != nil {
				return err
			}

			since := time.Now().Add(-recentWindow)
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tEMAIL\tTOTAL\tPAYMENT\tRECEIPT\tPLACED")
			for _, id := range ids {
				var o model.Order
				if err := a.store.Read(cmd.Context(), repository.Orders, id, &o); err != nil {
					a.logger.Debug("skipping unreadable order", slog.String("order_id", id), slog.String("error", err.Error()))
					continue
				}
				if recent && o.CreatedAt.Before(since) {
					continue
				}
				if failedOnly && !o.Failed() {
					continue
				}
				fmt.Fprintf(w, "%s\t%s\t$%.2f\t%s\t%s\t%s\n",
					o.ID, o.Email, o.Total, o.Payment, o.Receipt, o.CreatedAt.Format(time.RFC3339))
			}
			return w.Flush()
		},
	}
	list.Flags().BoolVar(&recent, "recent", false, "only orders placed in the last 24 hours")
	list.Flags().BoolVar(&failedOnly, "failed", false, "only orders whose payment or receipt failed")
	cmd.AddCommand(list)

	cmd.AddCommand(&cobra.Command{
		Use:   "show <id>",
		Short: "Show one order and its cart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var o model.Order
			if err := a.store.Read(cmd.Context(), repository.Orders, args[0], &o); err != nil {
				if errors.Is(err, apperror.ErrNotFound) {
					return fmt.Errorf("no order with id %s", args[0])
				}
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "order %s for %s\n", o.ID, o.Email)
			fmt.Fprintf(out, "  total:    $%.2f\n", o.Total)
			fmt.Fprintf(out, "  payment:  %s %s\n", o.Payment, o.ChargeID)
			fmt.Fprintf(out, "  receipt:  %s %s\n", o.Receipt, o.DeliveryID)
			fmt.Fprintf(out, "  placed:   %s\n", o.CreatedAt.Format(time.RFC3339))

			var cart model.Cart
			if err := a.store.Read(cmd.Context(), repository.Carts, o.CartID, &cart); err != nil {
				fmt.Fprintf(out, "  cart %s: unavailable\n", o.CartID)
				return nil
			}
			fmt.Fprintf(out, "  cart %s:\n", cart.ID)
			for _, item := range cart.Items {
				fmt.Fprintf(out, "    %dx %s %s @ $%.2f\n", item.Quantity, item.Name, item.Size, item.Price)
			}
			return nil
		},
	})

	return cmd
}
