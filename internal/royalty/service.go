// Package royalty holds the default royalty schedule: a (receiver, feeBps)
// pair consulted for metadata only. The supply core never reads it.
package royalty

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/holiman/uint256"

	"mintledger/internal/access"
	"mintledger/internal/audit"
	id "mintledger/pkg/domain"
	dErrors "mintledger/pkg/domain-errors"
	"mintledger/pkg/requestcontext"
)

// feeDenominator is the basis-point scale: 10000 bps = 100%.
const feeDenominator = 10000

// Schedule is the default royalty configuration.
type Schedule struct {
	Receiver id.Principal
	FeeBps   uint16
}

// RoleChecker answers role-membership questions for authorization.
type RoleChecker interface {
	HasRole(ctx context.Context, principal id.Principal, role access.Role) (bool, error)
}

// AuditPublisher emits audit events for schedule changes.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service guards the default schedule behind the admin role.
type Service struct {
	mu       sync.RWMutex
	schedule Schedule

	roles          RoleChecker
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

func New(roles RoleChecker, opts ...Option) (*Service, error) {
	if roles == nil {
		return nil, fmt.Errorf("role checker is required")
	}
	svc := &Service{roles: roles}
	for _, opt := range opts {
		opt(svc)
	}
	if svc.logger == nil {
		svc.logger = slog.Default()
	}
	return svc, nil
}

// Default returns the current default schedule.
func (s *Service) Default(_ context.Context) (Schedule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.schedule, nil
}

// SetDefault replaces the default schedule. Admin only.
func (s *Service) SetDefault(ctx context.Context, caller id.Principal, receiver id.Principal, feeBps uint16) error {
	if caller.IsNil() {
		return dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	held, err := s.roles.HasRole(ctx, caller, access.RoleAdmin)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check caller role")
	}
	if !held {
		return dErrors.New(dErrors.CodeUnauthorized, "caller does not hold the admin role")
	}
	if receiver.IsNil() {
		return dErrors.New(dErrors.CodeInvalidPrincipal, "royalty receiver cannot be the null identity")
	}
	if feeBps > feeDenominator {
		return dErrors.Newf(dErrors.CodeInvalidInput, "fee must be at most %d basis points", feeDenominator)
	}

	s.mu.Lock()
	s.schedule = Schedule{Receiver: receiver, FeeBps: feeBps}
	s.mu.Unlock()

	if s.auditPublisher != nil {
		event := audit.Event{
			Principal: caller,
			Target:    receiver,
			Action:    string(audit.EventRoyaltyUpdated),
			Reason:    fmt.Sprintf("fee_bps=%d", feeBps),
			RequestID: requestcontext.RequestID(ctx),
		}
		if err := s.auditPublisher.Emit(ctx, event); err != nil {
			s.logger.ErrorContext(ctx, "audit emit failed", "action", event.Action, "error", err)
		}
	}
	return nil
}

// RoyaltyInfo computes the royalty owed on a sale price under the default
// schedule: salePrice * feeBps / 10000.
func (s *Service) RoyaltyInfo(_ context.Context, salePrice *uint256.Int) (id.Principal, *uint256.Int, error) {
	s.mu.RLock()
	schedule := s.schedule
	s.mu.RUnlock()

	if schedule.Receiver.IsNil() || schedule.FeeBps == 0 {
		return id.NilPrincipal, uint256.NewInt(0), nil
	}

	product, overflow := new(uint256.Int).MulOverflow(salePrice, uint256.NewInt(uint64(schedule.FeeBps)))
	if overflow {
		return id.NilPrincipal, nil, dErrors.New(dErrors.CodeArithmeticOverflow,
			"royalty computation exceeds 256 bits")
	}
	fee := product.Div(product, uint256.NewInt(feeDenominator))
	return schedule.Receiver, fee, nil
}
