package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/juju/clock"
	"github.com/shopspring/decimal"

	"github.com/wonny/quotecatalog/internal/api/response"
	"github.com/wonny/quotecatalog/internal/domain/catalog"
)

const quoteDuplicateMsg = "The quote with the given name and timestamp already exists."

// QuoteService is the set of quote operations the handler serves
type QuoteService interface {
	Get(ctx context.Context, key catalog.QuoteKey) (*catalog.Quote, error)
	List(ctx context.Context) ([]catalog.Quote, error)
	Add(ctx context.Context, q catalog.Quote) (*catalog.Quote, error)
	Delete(ctx context.Context, key catalog.QuoteKey) (*catalog.Quote, error)
	Edit(ctx context.Context, q catalog.Quote) (*catalog.Quote, error)
}

// QuoteHandler handles quote endpoints
type QuoteHandler struct {
	svc     QuoteService
	clock   clock.Clock
	timeout time.Duration
}

// NewQuoteHandler creates a new QuoteHandler. clk supplies "now" for timestamp validation.
func NewQuoteHandler(svc QuoteService, clk clock.Clock, timeout time.Duration) *QuoteHandler {
	return &QuoteHandler{svc: svc, clock: clk, timeout: timeout}
}

// QuoteView is the JSON form of a quote; price always carries two decimals
type QuoteView struct {
	Name      string `json:"name"`
	Timestamp int64  `json:"timestamp"`
	Price     string `json:"price"`
}

// NewQuoteView converts a quote for output
func NewQuoteView(q catalog.Quote) QuoteView {
	return QuoteView{Name: q.Name, Timestamp: q.Timestamp, Price: q.Price.StringFixed(catalog.PriceScale)}
}

type addQuoteRequest struct {
	Name      string           `json:"name" binding:"required,max=20"`
	Timestamp *int64           `json:"timestamp" binding:"required,min=0"`
	Price     *decimal.Decimal `json:"price" binding:"required"`
}

type editQuoteRequest struct {
	Price *decimal.Decimal `json:"price" binding:"required"`
}

// List handles GET /api/v1/quotes
func (h *QuoteHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	quotes, err := h.svc.List(ctx)
	if err != nil {
		response.Outcome(w, r, err, quoteDuplicateMsg, "")
		return
	}

	views := make([]QuoteView, 0, len(quotes))
	for _, q := range quotes {
		views = append(views, NewQuoteView(q))
	}
	response.SuccessList(w, r, views, len(views))
}

// Get handles GET /api/v1/quotes/{name}/{timestamp}
func (h *QuoteHandler) Get(w http.ResponseWriter, r *http.Request) {
	key, ok := h.pathKey(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	q, err := h.svc.Get(ctx, key)
	if err != nil {
		response.Outcome(w, r, err, quoteDuplicateMsg, "")
		return
	}
	response.Success(w, r, NewQuoteView(*q))
}

// Add handles POST /api/v1/quotes.
// An unknown name gets a placeholder ticker in the same transaction.
func (h *QuoteHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req addQuoteRequest
	if !bindJSON(w, r, &req) {
		return
	}

	q := catalog.Quote{Name: req.Name, Timestamp: *req.Timestamp, Price: *req.Price}
	if err := q.Validate(h.clock.Now()); err != nil {
		domainInvalid(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	added, err := h.svc.Add(ctx, q)
	if err != nil {
		response.Outcome(w, r, err, quoteDuplicateMsg, "")
		return
	}
	response.Created(w, r, NewQuoteView(*added), "Quote added")
}

// Edit handles PUT /api/v1/quotes/{name}/{timestamp}
func (h *QuoteHandler) Edit(w http.ResponseWriter, r *http.Request) {
	key, ok := h.pathKey(w, r)
	if !ok {
		return
	}

	var req editQuoteRequest
	if !bindJSON(w, r, &req) {
		return
	}
	if err := catalog.ValidatePrice(*req.Price); err != nil {
		domainInvalid(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	edited, err := h.svc.Edit(ctx, catalog.Quote{Name: key.Name, Timestamp: key.Timestamp, Price: *req.Price})
	if err != nil {
		response.Outcome(w, r, err, quoteDuplicateMsg, "")
		return
	}
	response.SuccessWithMessage(w, r, NewQuoteView(*edited), "Quote updated")
}

// Delete handles DELETE /api/v1/quotes/{name}/{timestamp}
func (h *QuoteHandler) Delete(w http.ResponseWriter, r *http.Request) {
	key, ok := h.pathKey(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	deleted, err := h.svc.Delete(ctx, key)
	if err != nil {
		response.Outcome(w, r, err, quoteDuplicateMsg, "")
		return
	}
	response.SuccessWithMessage(w, r, NewQuoteView(*deleted), "Quote deleted")
}

func (h *QuoteHandler) pathKey(w http.ResponseWriter, r *http.Request) (catalog.QuoteKey, bool) {
	vars := mux.Vars(r)

	ts, err := strconv.ParseInt(vars["timestamp"], 10, 64)
	if err != nil {
		response.ValidationError(w, r, []response.FieldError{{Field: "timestamp", Message: "must be an integer"}})
		return catalog.QuoteKey{}, false
	}

	key := catalog.QuoteKey{Name: vars["name"], Timestamp: ts}
	if err := key.Validate(h.clock.Now()); err != nil {
		domainInvalid(w, r, err)
		return catalog.QuoteKey{}, false
	}
	return key, true
}
