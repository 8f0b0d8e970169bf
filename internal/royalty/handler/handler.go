// Package handler wires royalty schedule endpoints to the royalty service.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/holiman/uint256"

	id "mintledger/pkg/domain"
	dErrors "mintledger/pkg/domain-errors"
	"mintledger/pkg/platform/httputil"
	"mintledger/pkg/requestcontext"
)

// Service defines the interface for royalty schedule operations.
type Service interface {
	SetDefault(ctx context.Context, caller id.Principal, receiver id.Principal, feeBps uint16) error
	RoyaltyInfo(ctx context.Context, salePrice *uint256.Int) (id.Principal, *uint256.Int, error)
}

// Handler wires royalty endpoints to the royalty service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a royalty handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Register mounts royalty endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Put("/admin/royalty", h.HandleSetDefault)
	r.Get("/royalty", h.HandleRoyaltyInfo)
}

// SetDefaultRequest is the HTTP request body for PUT /admin/royalty.
type SetDefaultRequest struct {
	Receiver string `json:"receiver"`
	FeeBps   uint16 `json:"fee_bps"`

	parsedReceiver id.Principal
}

// Validate validates and parses the request.
func (r *SetDefaultRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	receiver, err := id.ParsePrincipal(r.Receiver)
	if err != nil {
		return err
	}
	r.parsedReceiver = receiver
	return nil
}

// RoyaltyInfoResponse is the HTTP response for GET /royalty.
type RoyaltyInfoResponse struct {
	Receiver string `json:"receiver"`
	Fee      string `json:"fee"`
}

// HandleSetDefault handles PUT /admin/royalty requests.
func (h *Handler) HandleSetDefault(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	caller := requestcontext.Principal(ctx)

	req, ok := httputil.DecodeAndPrepare[SetDefaultRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	if err := h.service.SetDefault(ctx, caller, req.parsedReceiver, req.FeeBps); err != nil {
		h.logger.WarnContext(ctx, "royalty update failed",
			"request_id", requestID,
			"caller", caller,
			"fee_bps", req.FeeBps,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// HandleRoyaltyInfo handles GET /royalty requests. Open read: given a sale
// price in the query string, returns the receiver and computed fee.
func (h *Handler) HandleRoyaltyInfo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	raw := r.URL.Query().Get("sale_price")
	if raw == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "sale_price query parameter is required"))
		return
	}
	salePrice, err := uint256.FromDecimal(raw)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "sale_price is not a valid decimal amount"))
		return
	}

	receiver, fee, err := h.service.RoyaltyInfo(ctx, salePrice)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, RoyaltyInfoResponse{
		Receiver: receiver.String(),
		Fee:      fee.Dec(),
	})
}
