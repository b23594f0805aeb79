package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/wonny/quotecatalog/internal/app"
	"github.com/wonny/quotecatalog/internal/domain/catalog"
)

func (c *cli) quoteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quote",
		Short: "Manage quotes",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List all quotes ordered by name and timestamp",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd, func(ctx context.Context, a *app.App) error {
				quotes, err := a.Quotes.List(ctx)
				if err != nil {
					return err
				}
				return c.writeQuotes(cmd.OutOrStdout(), quotes)
			})
		},
	})

	cmd.AddCommand(c.quoteKeyCmd("get NAME TIMESTAMP", "Show one quote", func(ctx context.Context, a *app.App, key catalog.QuoteKey) (*catalog.Quote, error) {
		return a.Quotes.Get(ctx, key)
	}))
	cmd.AddCommand(c.quoteKeyCmd("delete NAME TIMESTAMP", "Delete a quote", func(ctx context.Context, a *app.App, key catalog.QuoteKey) (*catalog.Quote, error) {
		return a.Quotes.Delete(ctx, key)
	}))

	cmd.AddCommand(c.quoteWriteCmd("add NAME TIMESTAMP PRICE", "Add a quote, registering an unknown ticker as a placeholder", func(ctx context.Context, a *app.App, q catalog.Quote) (*catalog.Quote, error) {
		added, err := a.Quotes.Add(ctx, q)
		return added, duplicate(err, msgQuoteDuplicate)
	}))
	cmd.AddCommand(c.quoteWriteCmd("edit NAME TIMESTAMP PRICE", "Replace the price of a quote", func(ctx context.Context, a *app.App, q catalog.Quote) (*catalog.Quote, error) {
		return a.Quotes.Edit(ctx, q)
	}))

	return cmd
}

func (c *cli) quoteKeyCmd(use, short string, op func(context.Context, *app.App, catalog.QuoteKey) (*catalog.Quote, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := c.parseKey(args[0], args[1])
			if err != nil {
				return err
			}
			return c.withApp(cmd, func(ctx context.Context, a *app.App) error {
				q, err := op(ctx, a, key)
				if err != nil {
					return err
				}
				return c.writeQuote(cmd.OutOrStdout(), q)
			})
		},
	}
}

func (c *cli) quoteWriteCmd(use, short string, op func(context.Context, *app.App, catalog.Quote) (*catalog.Quote, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := c.parseKey(args[0], args[1])
			if err != nil {
				return err
			}
			price, err := decimal.NewFromString(args[2])
			if err != nil {
				return fmt.Errorf("%w: %q is not a number", catalog.ErrInvalidPrice, args[2])
			}
			q := catalog.Quote{Name: key.Name, Timestamp: key.Timestamp, Price: price}
			if err := catalog.ValidatePrice(q.Price); err != nil {
				return err
			}
			return c.withApp(cmd, func(ctx context.Context, a *app.App) error {
				out, err := op(ctx, a, q)
				if err != nil {
					return err
				}
				return c.writeQuote(cmd.OutOrStdout(), out)
			})
		},
	}
}

func (c *cli) parseKey(name, timestamp string) (catalog.QuoteKey, error) {
	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return catalog.QuoteKey{}, fmt.Errorf("%w: %q is not an integer", catalog.ErrInvalidTimestamp, timestamp)
	}
	key := catalog.QuoteKey{Name: name, Timestamp: ts}
	if err := key.Validate(c.opts.Clock.Now()); err != nil {
		return catalog.QuoteKey{}, err
	}
	return key, nil
}
