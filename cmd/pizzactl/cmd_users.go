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

// recentWindow is what --recent means for list commands.
const recentWindow = 24 * time.Hour

func newUsersCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Show registered users",
	}

	var recent bool
	list := &cobra.Command{
		Use:   "list",
		Short: "List users",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			emails, err := a.store.List(cmd.Context(), repository.Users)
			if err != nil {
				return err
			}

			since := time.Now().Add(-recentWindow)
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "EMAIL\tNAME\tORDERS\tSIGNED UP")
			for _, email := range emails {
				var u model.User
				if err := a.store.Read(cmd.Context(), repository.Users, email, &u); err != nil {
					a.logger.Debug("skipping unreadable user", slog.String("email", email), slog.String("error", err.Error()))
					continue
				}
				if recent && u.CreatedAt.Before(since) {
					continue
				}
				fmt.Fprintf(w, "%s\t%s %s\t%d\t%s\n", u.Email, u.FirstName, u.LastName, len(u.Orders), u.CreatedAt.Format(time.RFC3339))
			}
			return w.Flush()
		},
	}
	list.Flags().BoolVar(&recent, "recent", false, "only users who signed up in the last 24 hours")
	cmd.AddCommand(list)

	cmd.AddCommand(&cobra.Command{
		Use:   "show <email>",
		Short: "Show one user's profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var u model.User
			if err := a.store.Read(cmd.Context(), repository.Users, args[0], &u); err != nil {
				if errors.Is(err, apperror.ErrNotFound) {
					return fmt.Errorf("no user with email %s", args[0])
				}
				return err
			}

			// Only the public view is printed; the hash stays in the store.
			p := u.Public()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s %s <%s>\n", p.FirstName, p.LastName, p.Email)
			fmt.Fprintf(out, "  address:  %s, %s, %s %s\n", p.Address, p.City, p.State, p.PostalCode)
			fmt.Fprintf(out, "  cart:     %s\n", orNone(p.CartID))
			fmt.Fprintf(out, "  orders:   %d\n", len(p.Orders))
			for _, id := range p.Orders {
				fmt.Fprintf(out, "    %s\n", id)
			}
			fmt.Fprintf(out, "  created:  %s\n", p.CreatedAt.Format(time.RFC3339))
			return nil
		},
	})

	return cmd
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}
