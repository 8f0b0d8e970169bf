// Package balance implements the multi-token balance ledger the supply core
// credits into. The core treats it as an external collaborator: the only
// coupling is the one-way credit call, issued strictly after the supply
// state commits.
package balance

import (
	"context"
	"sync"

	"github.com/holiman/uint256"

	id "mintledger/pkg/domain"
	dErrors "mintledger/pkg/domain-errors"
)

type key struct {
	owner   id.Principal
	tokenID id.TokenID
}

// Ledger keeps per-owner, per-id balances in memory. Credits are atomic per
// call: a batch either applies fully or not at all.
type Ledger struct {
	mu       sync.RWMutex
	balances map[key]*uint256.Int
}

func NewLedger() *Ledger {
	return &Ledger{
		balances: make(map[key]*uint256.Int),
	}
}

// Credit adds amount of tokenID to the owner's balance.
func (l *Ledger) Credit(_ context.Context, to id.Principal, tokenID id.TokenID, amount *uint256.Int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.credit(to, tokenID, amount)
}

// CreditBatch applies every (id, amount) pair or none: pairs are validated
// for overflow before any balance changes.
func (l *Ledger) CreditBatch(_ context.Context, to id.Principal, tokenIDs []id.TokenID, amounts []*uint256.Int) error {
	if len(tokenIDs) != len(amounts) {
		return dErrors.Newf(dErrors.CodeLengthMismatch,
			"got %d token ids but %d amounts", len(tokenIDs), len(amounts))
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	// Validate forward through the batch before committing anything;
	// duplicates accumulate during validation exactly as they will on commit.
	projected := make(map[key]*uint256.Int, len(tokenIDs))
	for i, tokenID := range tokenIDs {
		k := key{owner: to, tokenID: tokenID}
		current, staged := projected[k]
		if !staged {
			current = l.balanceLocked(k)
		}
		next, overflow := new(uint256.Int).AddOverflow(current, amounts[i])
		if overflow {
			return dErrors.Newf(dErrors.CodeArithmeticOverflow,
				"balance of token %s for %s would exceed 256 bits", tokenID, to)
		}
		projected[k] = next
	}

	for k, v := range projected {
		l.balances[k] = v
	}
	return nil
}

// BalanceOf reports the owner's balance for one token id.
func (l *Ledger) BalanceOf(_ context.Context, owner id.Principal, tokenID id.TokenID) (*uint256.Int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.balanceLocked(key{owner: owner, tokenID: tokenID}).Clone(), nil
}

func (l *Ledger) credit(to id.Principal, tokenID id.TokenID, amount *uint256.Int) error {
	k := key{owner: to, tokenID: tokenID}
	next, overflow := new(uint256.Int).AddOverflow(l.balanceLocked(k), amount)
	if overflow {
		return dErrors.Newf(dErrors.CodeArithmeticOverflow,
			"balance of token %s for %s would exceed 256 bits", tokenID, to)
	}
	l.balances[k] = next
	return nil
}

// balanceLocked must be called with at least the read lock held.
func (l *Ledger) balanceLocked(k key) *uint256.Int {
	if v, exists := l.balances[k]; exists {
		return v
	}
	return uint256.NewInt(0)
}
