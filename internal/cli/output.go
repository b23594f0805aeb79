package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/wonny/quotecatalog/internal/api/handlers"
	"github.com/wonny/quotecatalog/internal/domain/catalog"
)

// Messages shown for domain outcomes; they match the REST API
const (
	msgNotFound        = "Value not found."
	msgTickerDuplicate = "The ticker with the given name already exists."
	msgQuoteDuplicate  = "The quote with the given name and timestamp already exists."
	msgTickerInUse     = "The ticker is already used by some quotes. Try to delete quotes at first."
	msgRetryLimit      = "Database request limit reached"
)

// userError carries a readable message while keeping the cause for errors.Is
type userError struct {
	msg string
	err error
}

func (e *userError) Error() string { return e.msg }
func (e *userError) Unwrap() error { return e.err }

func explain(err error) error {
	var msg string
	switch {
	case err == nil:
		return nil
	case errors.Is(err, catalog.ErrNotFound):
		msg = msgNotFound
	case errors.Is(err, catalog.ErrInUse):
		msg = msgTickerInUse
	case errors.Is(err, catalog.ErrRetryLimitExceeded):
		msg = msgRetryLimit
	default:
		return err
	}
	return &userError{msg: msg, err: err}
}

// duplicate rewrites ErrAlreadyExists with the message for the entity
func duplicate(err error, msg string) error {
	if errors.Is(err, catalog.ErrAlreadyExists) {
		return &userError{msg: msg, err: err}
	}
	return err
}

func (c *cli) writeTickers(w io.Writer, tickers []catalog.Ticker) error {
	if c.output == outputJSON {
		return writeJSON(w, tickers)
	}

	tw := tabwriter.NewWriter(w, 0, 1, 1, ' ', 0)
	fmt.Fprintln(tw, "NAME\tFULL NAME\tDESCRIPTION")
	for _, t := range tickers {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", t.Name, t.FullName, t.Description)
	}
	return tw.Flush()
}

func (c *cli) writeTicker(w io.Writer, t *catalog.Ticker) error {
	if c.output == outputJSON {
		return writeJSON(w, t)
	}
	return c.writeTickers(w, []catalog.Ticker{*t})
}

func (c *cli) writeQuotes(w io.Writer, quotes []catalog.Quote) error {
	views := make([]handlers.QuoteView, 0, len(quotes))
	for _, q := range quotes {
		views = append(views, handlers.NewQuoteView(q))
	}
	if c.output == outputJSON {
		return writeJSON(w, views)
	}

	tw := tabwriter.NewWriter(w, 0, 1, 1, ' ', 0)
	fmt.Fprintln(tw, "NAME\tTIMESTAMP\tPRICE")
	for _, v := range views {
		fmt.Fprintf(tw, "%s\t%d\t%s\n", v.Name, v.Timestamp, v.Price)
	}
	return tw.Flush()
}

func (c *cli) writeQuote(w io.Writer, q *catalog.Quote) error {
	if c.output == outputJSON {
		return writeJSON(w, handlers.NewQuoteView(*q))
	}
	return c.writeQuotes(w, []catalog.Quote{*q})
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
