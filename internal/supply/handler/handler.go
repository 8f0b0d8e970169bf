// Package handler wires the supply ledger endpoints to the supply service.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/holiman/uint256"

	id "mintledger/pkg/domain"
	"mintledger/pkg/platform/httputil"
	"mintledger/pkg/requestcontext"
)

// Service defines the interface for supply ledger operations.
type Service interface {
	SetMaxSupply(ctx context.Context, caller id.Principal, tokenID id.TokenID, newMax *uint256.Int) error
	SetMaxSupplyBatch(ctx context.Context, caller id.Principal, tokenIDs []id.TokenID, newMaxes []*uint256.Int) error
	Mint(ctx context.Context, caller, to id.Principal, tokenID id.TokenID, amount *uint256.Int) error
	MintBatch(ctx context.Context, caller, to id.Principal, tokenIDs []id.TokenID, amounts []*uint256.Int) error
	MintMax(ctx context.Context, caller, to id.Principal, tokenIDs []id.TokenID, data []byte) error
	RemainingMintable(ctx context.Context, tokenID id.TokenID) (*uint256.Int, error)
	RemainingMintableBatch(ctx context.Context, tokenIDs []id.TokenID) ([]*uint256.Int, error)
}

// Handler wires supply endpoints to the supply service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a supply handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Register mounts supply endpoints on the router. Reads are open; mutations
// carry the caller principal from the auth middleware and are authorized in
// the service.
func (h *Handler) Register(r chi.Router) {
	r.Put("/admin/supply/max", h.HandleSetMaxSupply)
	r.Put("/admin/supply/max/batch", h.HandleSetMaxSupplyBatch)
	r.Post("/supply/mint", h.HandleMint)
	r.Post("/supply/mint/batch", h.HandleMintBatch)
	r.Post("/supply/mint/max", h.HandleMintMax)
	r.Get("/supply/{token_id}/remaining", h.HandleRemaining)
	r.Post("/supply/remaining", h.HandleRemainingBatch)
}

// HandleSetMaxSupply handles PUT /admin/supply/max requests.
func (h *Handler) HandleSetMaxSupply(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	caller := requestcontext.Principal(ctx)

	req, ok := httputil.DecodeAndPrepare[SetMaxSupplyRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	if err := h.service.SetMaxSupply(ctx, caller, req.parsedTokenID, req.parsedMax); err != nil {
		h.logger.WarnContext(ctx, "set max supply failed",
			"request_id", requestID,
			"caller", caller,
			"token_id", req.TokenID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, statusOK)
}

// HandleSetMaxSupplyBatch handles PUT /admin/supply/max/batch requests.
func (h *Handler) HandleSetMaxSupplyBatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	caller := requestcontext.Principal(ctx)

	req, ok := httputil.DecodeAndPrepare[SetMaxSupplyBatchRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	if err := h.service.SetMaxSupplyBatch(ctx, caller, req.parsedTokenIDs, req.parsedMaxes); err != nil {
		h.logger.WarnContext(ctx, "batch set max supply failed",
			"request_id", requestID,
			"caller", caller,
			"count", len(req.TokenIDs),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, statusOK)
}

// HandleMint handles POST /supply/mint requests.
func (h *Handler) HandleMint(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	caller := requestcontext.Principal(ctx)
	start := time.Now()

	req, ok := httputil.DecodeAndPrepare[MintRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	if err := h.service.Mint(ctx, caller, req.parsedTo, req.parsedTokenID, req.parsedAmount); err != nil {
		h.logger.WarnContext(ctx, "mint failed",
			"request_id", requestID,
			"caller", caller,
			"token_id", req.TokenID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "mint handled",
		"request_id", requestID,
		"caller", caller,
		"token_id", req.TokenID,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, statusOK)
}

// HandleMintBatch handles POST /supply/mint/batch requests.
func (h *Handler) HandleMintBatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	caller := requestcontext.Principal(ctx)
	start := time.Now()

	req, ok := httputil.DecodeAndPrepare[MintBatchRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	if err := h.service.MintBatch(ctx, caller, req.parsedTo, req.parsedTokenIDs, req.parsedAmounts); err != nil {
		h.logger.WarnContext(ctx, "batch mint failed",
			"request_id", requestID,
			"caller", caller,
			"count", len(req.TokenIDs),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "batch mint handled",
		"request_id", requestID,
		"caller", caller,
		"count", len(req.TokenIDs),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, statusOK)
}

// HandleMintMax handles POST /supply/mint/max requests.
func (h *Handler) HandleMintMax(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	caller := requestcontext.Principal(ctx)

	req, ok := httputil.DecodeAndPrepare[MintMaxRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	if err := h.service.MintMax(ctx, caller, req.parsedTo, req.parsedTokenIDs, req.Data); err != nil {
		h.logger.WarnContext(ctx, "mint max failed",
			"request_id", requestID,
			"caller", caller,
			"count", len(req.TokenIDs),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, statusOK)
}

// HandleRemaining handles GET /supply/{token_id}/remaining requests.
// No authentication: remaining supply is an open read.
func (h *Handler) HandleRemaining(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	tokenID, err := id.ParseTokenID(chi.URLParam(r, "token_id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	remaining, err := h.service.RemainingMintable(ctx, tokenID)
	if err != nil {
		h.logger.ErrorContext(ctx, "remaining supply read failed",
			"request_id", requestcontext.RequestID(ctx),
			"token_id", tokenID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FromRemaining(tokenID, remaining))
}

// HandleRemainingBatch handles POST /supply/remaining requests.
func (h *Handler) HandleRemainingBatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[RemainingBatchRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	remaining, err := h.service.RemainingMintableBatch(ctx, req.parsedTokenIDs)
	if err != nil {
		h.logger.ErrorContext(ctx, "batch remaining supply read failed",
			"request_id", requestID,
			"count", len(req.TokenIDs),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FromRemainingBatch(req.parsedTokenIDs, remaining))
}
