package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/quotecatalog/internal/api/response"
	"github.com/wonny/quotecatalog/internal/domain/catalog"
)

const (
	tickerDuplicateMsg = "The ticker with the given name already exists."
	tickerInUseMsg     = "The ticker is already used by some quotes. Try to delete quotes at first."
)

// TickerService is the set of ticker operations the handler serves
type TickerService interface {
	Get(ctx context.Context, name string) (*catalog.Ticker, error)
	List(ctx context.Context) ([]catalog.Ticker, error)
	Add(ctx context.Context, t catalog.Ticker) (*catalog.Ticker, error)
	Delete(ctx context.Context, name string) (*catalog.Ticker, error)
	Edit(ctx context.Context, t catalog.Ticker) (*catalog.Ticker, error)
}

// TickerHandler handles ticker endpoints
type TickerHandler struct {
	svc     TickerService
	timeout time.Duration
}

// NewTickerHandler creates a new TickerHandler
func NewTickerHandler(svc TickerService, timeout time.Duration) *TickerHandler {
	return &TickerHandler{svc: svc, timeout: timeout}
}

type addTickerRequest struct {
	Name        string `json:"name" binding:"required,max=20"`
	FullName    string `json:"full_name" binding:"required,max=50"`
	Description string `json:"description" binding:"required,max=200"`
}

type editTickerRequest struct {
	FullName    string `json:"full_name" binding:"required,max=50"`
	Description string `json:"description" binding:"required,max=200"`
}

// List handles GET /api/v1/tickers
func (h *TickerHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	tickers, err := h.svc.List(ctx)
	if err != nil {
		response.Outcome(w, r, err, tickerDuplicateMsg, tickerInUseMsg)
		return
	}
	response.SuccessList(w, r, tickers, len(tickers))
}

// Get handles GET /api/v1/tickers/{name}
func (h *TickerHandler) Get(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	if err := catalog.ValidateName(name); err != nil {
		domainInvalid(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	t, err := h.svc.Get(ctx, name)
	if err != nil {
		response.Outcome(w, r, err, tickerDuplicateMsg, tickerInUseMsg)
		return
	}
	response.Success(w, r, t)
}

// Add handles POST /api/v1/tickers
func (h *TickerHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req addTickerRequest
	if !bindJSON(w, r, &req) {
		return
	}

	t := catalog.Ticker{Name: req.Name, FullName: req.FullName, Description: req.Description}
	if err := t.Validate(); err != nil {
		domainInvalid(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	added, err := h.svc.Add(ctx, t)
	if err != nil {
		response.Outcome(w, r, err, tickerDuplicateMsg, tickerInUseMsg)
		return
	}
	response.Created(w, r, added, "Ticker added")
}

// Edit handles PUT /api/v1/tickers/{name}
func (h *TickerHandler) Edit(w http.ResponseWriter, r *http.Request) {
	var req editTickerRequest
	if !bindJSON(w, r, &req) {
		return
	}

	t := catalog.Ticker{Name: mux.Vars(r)["name"], FullName: req.FullName, Description: req.Description}
	if err := t.Validate(); err != nil {
		domainInvalid(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	edited, err := h.svc.Edit(ctx, t)
	if err != nil {
		response.Outcome(w, r, err, tickerDuplicateMsg, tickerInUseMsg)
		return
	}
	response.SuccessWithMessage(w, r, edited, "Ticker updated")
}

// Delete handles DELETE /api/v1/tickers/{name}
func (h *TickerHandler) Delete(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	if err := catalog.ValidateName(name); err != nil {
		domainInvalid(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	deleted, err := h.svc.Delete(ctx, name)
	if err != nil {
		response.Outcome(w, r, err, tickerDuplicateMsg, tickerInUseMsg)
		return
	}
	response.SuccessWithMessage(w, r, deleted, "Ticker deleted")
}
