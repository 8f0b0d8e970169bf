// Package handler wires role management endpoints to the access registry.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"mintledger/internal/access"
	id "mintledger/pkg/domain"
	dErrors "mintledger/pkg/domain-errors"
	"mintledger/pkg/platform/httputil"
	"mintledger/pkg/requestcontext"
)

// Service defines the interface for role management operations.
type Service interface {
	Grant(ctx context.Context, admin, target id.Principal, role access.Role) error
	Revoke(ctx context.Context, admin, target id.Principal, role access.Role) error
	Roles(ctx context.Context, principal id.Principal) ([]access.Role, error)
}

// Handler wires role endpoints to the access registry.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs an access handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Register mounts role endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/admin/roles/grant", h.HandleGrant)
	r.Post("/admin/roles/revoke", h.HandleRevoke)
	r.Get("/roles/{principal}", h.HandleRoles)
}

// RoleRequest is the HTTP request body for grant and revoke.
type RoleRequest struct {
	Principal string `json:"principal"`
	Role      string `json:"role"`

	parsedPrincipal id.Principal
	parsedRole      access.Role
}

// Validate validates and parses the request.
func (r *RoleRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}

	principal, err := id.ParsePrincipal(r.Principal)
	if err != nil {
		return err
	}
	role, err := access.ParseRole(r.Role)
	if err != nil {
		return err
	}
	r.parsedPrincipal = principal
	r.parsedRole = role
	return nil
}

// RolesResponse is the HTTP response for GET /roles/{principal}.
type RolesResponse struct {
	Principal string   `json:"principal"`
	Roles     []string `json:"roles"`
}

// HandleGrant handles POST /admin/roles/grant requests.
func (h *Handler) HandleGrant(w http.ResponseWriter, r *http.Request) {
	h.handleRoleChange(w, r, "role grant failed", h.service.Grant)
}

// HandleRevoke handles POST /admin/roles/revoke requests.
func (h *Handler) HandleRevoke(w http.ResponseWriter, r *http.Request) {
	h.handleRoleChange(w, r, "role revoke failed", h.service.Revoke)
}

func (h *Handler) handleRoleChange(
	w http.ResponseWriter,
	r *http.Request,
	failureMsg string,
	op func(ctx context.Context, admin, target id.Principal, role access.Role) error,
) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	caller := requestcontext.Principal(ctx)

	req, ok := httputil.DecodeAndPrepare[RoleRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	if err := op(ctx, caller, req.parsedPrincipal, req.parsedRole); err != nil {
		h.logger.WarnContext(ctx, failureMsg,
			"request_id", requestID,
			"caller", caller,
			"target", req.Principal,
			"role", req.Role,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// HandleRoles handles GET /roles/{principal} requests. Open read.
func (h *Handler) HandleRoles(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	principal, err := id.ParsePrincipal(chi.URLParam(r, "principal"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	roles, err := h.service.Roles(ctx, principal)
	if err != nil {
		h.logger.ErrorContext(ctx, "role listing failed",
			"request_id", requestcontext.RequestID(ctx),
			"principal", principal,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	out := make([]string, len(roles))
	for i, role := range roles {
		out[i] = role.String()
	}
	httputil.WriteJSON(w, http.StatusOK, RolesResponse{
		Principal: principal.String(),
		Roles:     out,
	})
}
