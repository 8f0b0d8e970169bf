// Package service implements the supply cap ledger: cap management, issuance
// and remaining-mintable queries, with role-gated mutations and all-or-nothing
// batch semantics.
//
// Every mutation follows the same shape: authorize against the access
// registry, then run one atomic validate-then-commit unit in the supply
// store, and only after the local commit is visible invoke the balance
// ledger credit. A credit failure triggers a compensating rollback of the
// just-committed minted delta so no partial mint effect stays visible.
package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/holiman/uint256"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"mintledger/internal/access"
	"mintledger/internal/audit"
	"mintledger/internal/supply/metrics"
	"mintledger/internal/supply/models"
	"mintledger/internal/supply/ports"
	id "mintledger/pkg/domain"
	dErrors "mintledger/pkg/domain-errors"
	"mintledger/pkg/requestcontext"
)

// AuditPublisher emits audit events for ledger mutations.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

type Service struct {
	store          ports.SupplyStore
	roles          ports.RoleChecker
	balances       ports.BalanceLedger
	notifier       ports.Notifier
	metrics        *metrics.Metrics
	auditPublisher AuditPublisher
	logger         *slog.Logger
	tracer         trace.Tracer
}

// Option configures a Service.
type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithNotifier(notifier ports.Notifier) Option {
	return func(s *Service) {
		s.notifier = notifier
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func New(store ports.SupplyStore, roles ports.RoleChecker, balances ports.BalanceLedger, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("supply store is required")
	}
	if roles == nil {
		return nil, fmt.Errorf("role checker is required")
	}
	if balances == nil {
		return nil, fmt.Errorf("balance ledger is required")
	}

	svc := &Service{
		store:    store,
		roles:    roles,
		balances: balances,
		tracer:   otel.Tracer("mintledger/supply"),
	}
	for _, opt := range opts {
		opt(svc)
	}
	if svc.logger == nil {
		svc.logger = slog.Default()
	}
	return svc, nil
}

// -----------------------------------------------------------------------------
// Cap management
// -----------------------------------------------------------------------------

// SetMaxSupply configures or adjusts the cap for one id. Caps may move in
// either direction but never below the minted total.
func (s *Service) SetMaxSupply(ctx context.Context, caller id.Principal, tokenID id.TokenID, newMax *uint256.Int) error {
	ctx, span := s.tracer.Start(ctx, "supply.SetMaxSupply")
	defer span.End()

	if err := s.authorize(ctx, caller, access.RoleAdmin, "set max supply"); err != nil {
		return err
	}

	err := s.store.Update(ctx, []id.TokenID{tokenID}, func(recs map[id.TokenID]*models.SupplyRecord) error {
		return recs[tokenID].SetMaxSupply(newMax)
	})
	if err != nil {
		s.countRejection(err)
		return err
	}

	if s.metrics != nil {
		s.metrics.IncrementCapSets()
	}
	s.emitAudit(ctx, audit.Event{
		Principal: caller,
		Action:    string(audit.EventCapSet),
		TokenIDs:  []string{tokenID.String()},
		Amounts:   []string{newMax.Dec()},
	})
	s.notifyCapSet(ctx, []id.TokenID{tokenID}, []*uint256.Int{newMax}, false)

	s.logger.InfoContext(ctx, "max supply set",
		"request_id", requestcontext.RequestID(ctx),
		"caller", caller,
		"token_id", tokenID,
		"new_max", newMax.Dec(),
	)
	return nil
}

// SetMaxSupplyBatch applies cap changes for several ids as one atomic unit:
// every pair is validated against the below-minted rule before any record
// changes, and a single batch notification carries the full lists.
func (s *Service) SetMaxSupplyBatch(ctx context.Context, caller id.Principal, tokenIDs []id.TokenID, newMaxes []*uint256.Int) error {
	ctx, span := s.tracer.Start(ctx, "supply.SetMaxSupplyBatch")
	defer span.End()

	if len(tokenIDs) != len(newMaxes) {
		return dErrors.Newf(dErrors.CodeLengthMismatch,
			"got %d token ids but %d cap values", len(tokenIDs), len(newMaxes))
	}
	if err := s.authorize(ctx, caller, access.RoleAdmin, "set max supply batch"); err != nil {
		return err
	}

	err := s.store.Update(ctx, tokenIDs, func(recs map[id.TokenID]*models.SupplyRecord) error {
		for i, tokenID := range tokenIDs {
			if err := recs[tokenID].SetMaxSupply(newMaxes[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.countRejection(err)
		return err
	}

	if s.metrics != nil {
		s.metrics.IncrementCapSets()
		s.metrics.ObserveBatchSize(len(tokenIDs))
	}
	s.emitAudit(ctx, audit.Event{
		Principal: caller,
		Action:    string(audit.EventCapSetBatch),
		TokenIDs:  tokenIDStrings(tokenIDs),
		Amounts:   decimalStrings(newMaxes),
	})
	s.notifyCapSet(ctx, tokenIDs, newMaxes, true)

	s.logger.InfoContext(ctx, "max supply batch set",
		"request_id", requestcontext.RequestID(ctx),
		"caller", caller,
		"count", len(tokenIDs),
	)
	return nil
}

// -----------------------------------------------------------------------------
// Issuance
// -----------------------------------------------------------------------------

// Mint issues amount of tokenID to the recipient. The minted total commits
// strictly before the balance ledger credit.
func (s *Service) Mint(ctx context.Context, caller, to id.Principal, tokenID id.TokenID, amount *uint256.Int) error {
	ctx, span := s.tracer.Start(ctx, "supply.Mint")
	defer span.End()

	if err := s.authorize(ctx, caller, access.RoleMinter, "mint"); err != nil {
		return err
	}
	if to.IsNil() {
		return dErrors.New(dErrors.CodeInvalidPrincipal, "recipient cannot be the null identity")
	}

	err := s.store.Update(ctx, []id.TokenID{tokenID}, func(recs map[id.TokenID]*models.SupplyRecord) error {
		return recs[tokenID].ApplyMint(amount)
	})
	if err != nil {
		s.countRejection(err)
		return err
	}

	if err := s.balances.Credit(ctx, to, tokenID, amount); err != nil {
		s.compensate(ctx, []id.TokenID{tokenID}, []*uint256.Int{amount})
		return dErrors.Wrap(err, dErrors.CodeInternal, "balance credit failed, mint rolled back")
	}

	if s.metrics != nil {
		s.metrics.IncrementMints()
	}
	s.emitAudit(ctx, audit.Event{
		Principal: caller,
		Target:    to,
		Action:    string(audit.EventTokensMinted),
		TokenIDs:  []string{tokenID.String()},
		Amounts:   []string{amount.Dec()},
	})

	s.logger.InfoContext(ctx, "tokens minted",
		"request_id", requestcontext.RequestID(ctx),
		"caller", caller,
		"to", to,
		"token_id", tokenID,
		"amount", amount.Dec(),
	)
	return nil
}

// MintBatch issues several (id, amount) pairs with no partial commit.
// Validation is sequential over the list, so a duplicate id sees the effect
// of its earlier occurrences within the same call.
func (s *Service) MintBatch(ctx context.Context, caller, to id.Principal, tokenIDs []id.TokenID, amounts []*uint256.Int) error {
	ctx, span := s.tracer.Start(ctx, "supply.MintBatch")
	defer span.End()

	if len(tokenIDs) != len(amounts) {
		return dErrors.Newf(dErrors.CodeLengthMismatch,
			"got %d token ids but %d amounts", len(tokenIDs), len(amounts))
	}
	if err := s.authorize(ctx, caller, access.RoleMinter, "mint batch"); err != nil {
		return err
	}
	if to.IsNil() {
		return dErrors.New(dErrors.CodeInvalidPrincipal, "recipient cannot be the null identity")
	}

	err := s.store.Update(ctx, tokenIDs, func(recs map[id.TokenID]*models.SupplyRecord) error {
		for i, tokenID := range tokenIDs {
			if err := recs[tokenID].ApplyMint(amounts[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.countRejection(err)
		return err
	}

	if err := s.balances.CreditBatch(ctx, to, tokenIDs, amounts); err != nil {
		s.compensate(ctx, tokenIDs, amounts)
		return dErrors.Wrap(err, dErrors.CodeInternal, "balance credit failed, batch mint rolled back")
	}

	if s.metrics != nil {
		s.metrics.IncrementMints()
		s.metrics.ObserveBatchSize(len(tokenIDs))
	}
	s.emitAudit(ctx, audit.Event{
		Principal: caller,
		Target:    to,
		Action:    string(audit.EventTokensMintBatch),
		TokenIDs:  tokenIDStrings(tokenIDs),
		Amounts:   decimalStrings(amounts),
	})

	s.logger.InfoContext(ctx, "token batch minted",
		"request_id", requestcontext.RequestID(ctx),
		"caller", caller,
		"to", to,
		"count", len(tokenIDs),
	)
	return nil
}

// MintMax issues everything left under each id's cap. An id with nothing
// left fails the whole batch: callers asked for a top-up, and a silent
// zero-amount credit would mask an exhausted cap. A duplicate id therefore
// also fails, since its second occurrence has zero remaining. data is an
// opaque caller payload recorded on the audit event.
func (s *Service) MintMax(ctx context.Context, caller, to id.Principal, tokenIDs []id.TokenID, data []byte) error {
	ctx, span := s.tracer.Start(ctx, "supply.MintMax")
	defer span.End()

	if err := s.authorize(ctx, caller, access.RoleMinter, "mint max"); err != nil {
		return err
	}
	if to.IsNil() {
		return dErrors.New(dErrors.CodeInvalidPrincipal, "recipient cannot be the null identity")
	}
	if len(tokenIDs) == 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "at least one token id is required")
	}

	amounts := make([]*uint256.Int, len(tokenIDs))
	err := s.store.Update(ctx, tokenIDs, func(recs map[id.TokenID]*models.SupplyRecord) error {
		for i, tokenID := range tokenIDs {
			amount, err := recs[tokenID].ApplyMintMax()
			if err != nil {
				return err
			}
			amounts[i] = amount
		}
		return nil
	})
	if err != nil {
		s.countRejection(err)
		return err
	}

	if err := s.balances.CreditBatch(ctx, to, tokenIDs, amounts); err != nil {
		s.compensate(ctx, tokenIDs, amounts)
		return dErrors.Wrap(err, dErrors.CodeInternal, "balance credit failed, mint max rolled back")
	}

	if s.metrics != nil {
		s.metrics.IncrementMints()
		s.metrics.ObserveBatchSize(len(tokenIDs))
	}
	s.emitAudit(ctx, audit.Event{
		Principal: caller,
		Target:    to,
		Action:    string(audit.EventTokensMintMax),
		TokenIDs:  tokenIDStrings(tokenIDs),
		Amounts:   decimalStrings(amounts),
		Data:      data,
	})

	s.logger.InfoContext(ctx, "remaining supply minted",
		"request_id", requestcontext.RequestID(ctx),
		"caller", caller,
		"to", to,
		"count", len(tokenIDs),
	)
	return nil
}

// -----------------------------------------------------------------------------
// Queries
// -----------------------------------------------------------------------------

// RemainingMintable reports how much of tokenID may still be issued. An
// unconfigured cap reads as zero remaining, not an error.
func (s *Service) RemainingMintable(ctx context.Context, tokenID id.TokenID) (*uint256.Int, error) {
	rec, err := s.store.Get(ctx, tokenID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read supply record")
	}
	return rec.Remaining(), nil
}

// RemainingMintableBatch is the element-wise form, same length and order as
// the input. Pure reads, no partial failure.
func (s *Service) RemainingMintableBatch(ctx context.Context, tokenIDs []id.TokenID) ([]*uint256.Int, error) {
	recs, err := s.store.GetBatch(ctx, tokenIDs)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read supply records")
	}
	out := make([]*uint256.Int, len(recs))
	for i, rec := range recs {
		out[i] = rec.Remaining()
	}
	return out, nil
}

// -----------------------------------------------------------------------------
// Internal plumbing
// -----------------------------------------------------------------------------

func (s *Service) authorize(ctx context.Context, caller id.Principal, role access.Role, attempted string) error {
	if caller.IsNil() {
		return dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	held, err := s.roles.HasRole(ctx, caller, role)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check caller role")
	}
	if !held {
		s.countRejection(dErrors.New(dErrors.CodeUnauthorized, ""))
		s.emitAudit(ctx, audit.Event{
			Principal: caller,
			Action:    string(audit.EventMutationRejected),
			Reason:    fmt.Sprintf("missing %s role for %s", role, attempted),
		})
		return dErrors.Newf(dErrors.CodeUnauthorized, "caller does not hold the %s role", role)
	}
	return nil
}

// compensate reverses committed minted deltas after a failed credit call.
// Sub never underflows here: the deltas were added by this call and no
// operation ever decreases minted concurrently.
func (s *Service) compensate(ctx context.Context, tokenIDs []id.TokenID, amounts []*uint256.Int) {
	err := s.store.Update(ctx, tokenIDs, func(recs map[id.TokenID]*models.SupplyRecord) error {
		for i, tokenID := range tokenIDs {
			rec := recs[tokenID]
			rec.Minted = new(uint256.Int).Sub(rec.Minted, amounts[i])
		}
		return nil
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "compensating rollback failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
	}
}

func (s *Service) notifyCapSet(ctx context.Context, tokenIDs []id.TokenID, newMaxes []*uint256.Int, batch bool) {
	if s.notifier == nil {
		return
	}
	var err error
	if batch {
		err = s.notifier.CapSetBatch(ctx, tokenIDs, newMaxes)
	} else {
		err = s.notifier.CapSet(ctx, tokenIDs[0], newMaxes[0])
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "cap-set notification failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
	}
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

func (s *Service) countRejection(err error) {
	if s.metrics == nil {
		return
	}
	s.metrics.IncrementRejections(string(dErrors.CodeOf(err)))
}

func tokenIDStrings(tokenIDs []id.TokenID) []string {
	out := make([]string, len(tokenIDs))
	for i, tokenID := range tokenIDs {
		out[i] = tokenID.String()
	}
	return out
}

func decimalStrings(values []*uint256.Int) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = v.Dec()
	}
	return out
}
