// Package ports defines the interfaces the supply ledger consumes. They are
// placed here so every store backend and collaborator stub implements one
// shared contract.
package ports

import (
	"context"

	"github.com/holiman/uint256"

	"mintledger/internal/access"
	"mintledger/internal/supply/models"
	id "mintledger/pkg/domain"
)

// SupplyStore persists supply records and provides the atomic unit every
// mutation runs in.
type SupplyStore interface {
	// Get returns the record for one id, or the implicit zero record if the
	// id has never been configured.
	Get(ctx context.Context, tokenID id.TokenID) (*models.SupplyRecord, error)

	// GetBatch returns records for the given ids in input order.
	GetBatch(ctx context.Context, tokenIDs []id.TokenID) ([]*models.SupplyRecord, error)

	// Update runs fn inside one atomic read-check-write unit covering the
	// given ids. fn receives the current records (zero-valued for ids never
	// configured) and mutates them in place; the store commits every touched
	// record on a nil return and commits nothing otherwise. Concurrent
	// Updates over overlapping ids are linearized by the store.
	Update(ctx context.Context, tokenIDs []id.TokenID, fn func(recs map[id.TokenID]*models.SupplyRecord) error) error
}

// BalanceLedger is the external collaborator holding per-owner balances. The
// ledger core only ever credits it, and only after committing its own state.
type BalanceLedger interface {
	Credit(ctx context.Context, to id.Principal, tokenID id.TokenID, amount *uint256.Int) error
	CreditBatch(ctx context.Context, to id.Principal, tokenIDs []id.TokenID, amounts []*uint256.Int) error
}

// RoleChecker answers role-membership questions for authorization. The
// access registry's service satisfies it directly.
type RoleChecker interface {
	HasRole(ctx context.Context, principal id.Principal, role access.Role) (bool, error)
}

// Notifier publishes cap-change notifications. Observability only: a notifier
// failure never fails the committed operation.
type Notifier interface {
	CapSet(ctx context.Context, tokenID id.TokenID, newMax *uint256.Int) error
	CapSetBatch(ctx context.Context, tokenIDs []id.TokenID, newMaxes []*uint256.Int) error
}
