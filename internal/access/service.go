package access

import (
	"context"
	"fmt"
	"log/slog"

	"mintledger/internal/audit"
	id "mintledger/pkg/domain"
	dErrors "mintledger/pkg/domain-errors"
	"mintledger/pkg/requestcontext"
)

// AuditPublisher emits audit events for security-relevant operations.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service enforces who may manage role grants. Construction seeds exactly one
// initial admin, which also receives the minter role; administrators may
// delegate or revoke afterward.
type Service struct {
	store          RoleStore
	logger         *slog.Logger
	auditPublisher AuditPublisher
}

// Option configures a Service.
type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

// New constructs the registry and seeds the bootstrap admin.
func New(ctx context.Context, store RoleStore, seedAdmin id.Principal, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("role store is required")
	}
	if seedAdmin.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidPrincipal, "seed admin cannot be the null identity")
	}

	svc := &Service{store: store}
	for _, opt := range opts {
		opt(svc)
	}
	if svc.logger == nil {
		svc.logger = slog.Default()
	}

	// Bootstrap path: the seed admin is granted both roles without an
	// authorizing admin.
	if err := store.Grant(ctx, seedAdmin, RoleAdmin); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to seed admin role")
	}
	if err := store.Grant(ctx, seedAdmin, RoleMinter); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to seed minter role")
	}

	return svc, nil
}

// Grant gives target the role. Only admins may grant; granting an already
// held role succeeds without effect.
func (s *Service) Grant(ctx context.Context, admin, target id.Principal, role Role) error {
	if err := s.authorizeAdmin(ctx, admin, "grant "+role.String()); err != nil {
		return err
	}
	if target.IsNil() {
		return dErrors.New(dErrors.CodeInvalidPrincipal, "target principal cannot be the null identity")
	}
	if !role.IsValid() {
		return dErrors.New(dErrors.CodeInvalidInput, "invalid role")
	}

	if err := s.store.Grant(ctx, target, role); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to grant role")
	}

	s.emitAudit(ctx, audit.Event{
		Principal: admin,
		Target:    target,
		Action:    string(audit.EventRoleGranted),
		Reason:    role.String(),
	})
	s.logger.InfoContext(ctx, "role granted",
		"request_id", requestcontext.RequestID(ctx),
		"admin", admin,
		"target", target,
		"role", role,
	)
	return nil
}

// Revoke removes the role from target. Revoking a role that is not held
// succeeds without effect.
func (s *Service) Revoke(ctx context.Context, admin, target id.Principal, role Role) error {
	if err := s.authorizeAdmin(ctx, admin, "revoke "+role.String()); err != nil {
		return err
	}
	if target.IsNil() {
		return dErrors.New(dErrors.CodeInvalidPrincipal, "target principal cannot be the null identity")
	}
	if !role.IsValid() {
		return dErrors.New(dErrors.CodeInvalidInput, "invalid role")
	}

	if err := s.store.Revoke(ctx, target, role); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to revoke role")
	}

	s.emitAudit(ctx, audit.Event{
		Principal: admin,
		Target:    target,
		Action:    string(audit.EventRoleRevoked),
		Reason:    role.String(),
	})
	s.logger.InfoContext(ctx, "role revoked",
		"request_id", requestcontext.RequestID(ctx),
		"admin", admin,
		"target", target,
		"role", role,
	)
	return nil
}

// HasRole answers whether principal holds role. Pure lookup, no side effects.
func (s *Service) HasRole(ctx context.Context, principal id.Principal, role Role) (bool, error) {
	held, err := s.store.HasRole(ctx, principal, role)
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check role")
	}
	return held, nil
}

// Roles lists the roles held by principal.
func (s *Service) Roles(ctx context.Context, principal id.Principal) ([]Role, error) {
	roles, err := s.store.Roles(ctx, principal)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list roles")
	}
	return roles, nil
}

func (s *Service) authorizeAdmin(ctx context.Context, admin id.Principal, attempted string) error {
	if admin.IsNil() {
		return dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	held, err := s.store.HasRole(ctx, admin, RoleAdmin)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check admin role")
	}
	if !held {
		s.emitAudit(ctx, audit.Event{
			Principal: admin,
			Action:    string(audit.EventMutationRejected),
			Reason:    "missing admin role for " + attempted,
		})
		return dErrors.New(dErrors.CodeUnauthorized, "caller does not hold the admin role")
	}
	return nil
}

func (s *Service) emitAudit(ctx context.Context, event audit.Event) {
	if s.auditPublisher == nil {
		return
	}
	event.RequestID = requestcontext.RequestID(ctx)
	if err := s.auditPublisher.Emit(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "audit emit failed", "action", event.Action, "error", err)
	}
}
