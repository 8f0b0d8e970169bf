// Package handler exposes the balance read endpoint.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/holiman/uint256"

	id "mintledger/pkg/domain"
	"mintledger/pkg/platform/httputil"
	"mintledger/pkg/requestcontext"
)

// Service defines the balance lookup the endpoint needs.
type Service interface {
	BalanceOf(ctx context.Context, owner id.Principal, tokenID id.TokenID) (*uint256.Int, error)
}

// Handler wires the balance endpoint to the ledger.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a balance handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Register mounts the balance endpoint on the router. Open read.
func (h *Handler) Register(r chi.Router) {
	r.Get("/balances/{principal}/{token_id}", h.HandleBalanceOf)
}

// BalanceResponse is the HTTP response for GET /balances/{principal}/{token_id}.
type BalanceResponse struct {
	Principal string `json:"principal"`
	TokenID   string `json:"token_id"`
	Balance   string `json:"balance"`
}

// HandleBalanceOf handles GET /balances/{principal}/{token_id} requests.
func (h *Handler) HandleBalanceOf(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	owner, err := id.ParsePrincipal(chi.URLParam(r, "principal"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	tokenID, err := id.ParseTokenID(chi.URLParam(r, "token_id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	balance, err := h.service.BalanceOf(ctx, owner, tokenID)
	if err != nil {
		h.logger.ErrorContext(ctx, "balance read failed",
			"request_id", requestcontext.RequestID(ctx),
			"principal", owner,
			"token_id", tokenID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, BalanceResponse{
		Principal: owner.String(),
		TokenID:   tokenID.String(),
		Balance:   balance.Dec(),
	})
}
