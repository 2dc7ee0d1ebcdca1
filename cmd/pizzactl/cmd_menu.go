package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sakif/cheesy-delights/internal/service"
)

func newMenuCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "menu",
		Short: "Show the catalog",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List every menu item",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := service.NewMenuService(a.store, a.logger).List(cmd.Context())
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tPRICES\tVEGETARIAN")
			for _, item := range items {
				prices := make([]string, len(item.Prices))
				for i, p := range item.Prices {
					prices[i] = fmt.Sprintf("%s $%.2f", p.Size, p.Price)
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%t\n", item.ID, item.Name, strings.Join(prices, ", "), item.Vegetarian)
			}
			return w.Flush()
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show <id>",
		Short: "Show one menu item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			item, err := service.NewMenuService(a.store, a.logger).Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s  %s\n", item.ID, item.Name)
			fmt.Fprintf(out, "  %s\n", item.Description)
			for _, p := range item.Prices {
				fmt.Fprintf(out, "  %-8s $%.2f\n", p.Size, p.Price)
			}
			fmt.Fprintf(out, "  vegetarian: %t\n", item.Vegetarian)
			return nil
		},
	})

	return cmd
}
