package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/wonny/quotecatalog/internal/app"
	"github.com/wonny/quotecatalog/internal/domain/catalog"
)

func (c *cli) tickerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ticker",
		Short: "Manage tickers",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List all tickers ordered by name",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd, func(ctx context.Context, a *app.App) error {
				tickers, err := a.Tickers.List(ctx)
				if err != nil {
					return err
				}
				return c.writeTickers(cmd.OutOrStdout(), tickers)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "get NAME",
		Short: "Show one ticker",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := catalog.ValidateName(args[0]); err != nil {
				return err
			}
			return c.withApp(cmd, func(ctx context.Context, a *app.App) error {
				t, err := a.Tickers.Get(ctx, args[0])
				if err != nil {
					return err
				}
				return c.writeTicker(cmd.OutOrStdout(), t)
			})
		},
	})

	cmd.AddCommand(c.tickerWriteCmd("add NAME", "Register a new ticker", func(ctx context.Context, a *app.App, t catalog.Ticker) (*catalog.Ticker, error) {
		added, err := a.Tickers.Add(ctx, t)
		return added, duplicate(err, msgTickerDuplicate)
	}))
	cmd.AddCommand(c.tickerWriteCmd("edit NAME", "Replace the full name and description of a ticker", func(ctx context.Context, a *app.App, t catalog.Ticker) (*catalog.Ticker, error) {
		return a.Tickers.Edit(ctx, t)
	}))

	cmd.AddCommand(&cobra.Command{
		Use:   "delete NAME",
		Short: "Delete a ticker that no quote references",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := catalog.ValidateName(args[0]); err != nil {
				return err
			}
			return c.withApp(cmd, func(ctx context.Context, a *app.App) error {
				t, err := a.Tickers.Delete(ctx, args[0])
				if err != nil {
					return err
				}
				return c.writeTicker(cmd.OutOrStdout(), t)
			})
		},
	})

	return cmd
}

// tickerWriteCmd builds add and edit, which take the same flags
func (c *cli) tickerWriteCmd(use, short string, op func(context.Context, *app.App, catalog.Ticker) (*catalog.Ticker, error)) *cobra.Command {
	var fullName, description string

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t := catalog.Ticker{Name: args[0], FullName: fullName, Description: description}
			if err := t.Validate(); err != nil {
				return err
			}
			return c.withApp(cmd, func(ctx context.Context, a *app.App) error {
				out, err := op(ctx, a, t)
				if err != nil {
					return err
				}
				return c.writeTicker(cmd.OutOrStdout(), out)
			})
		},
	}

	cmd.Flags().StringVar(&fullName, "full-name", "", "full name (1-50 characters)")
	cmd.Flags().StringVar(&description, "description", "", "description (1-200 characters)")
	_ = cmd.MarkFlagRequired("full-name")
	_ = cmd.MarkFlagRequired("description")
	return cmd
}
