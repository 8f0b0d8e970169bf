// Package models defines the supply ledger's record type and the pure
// validation rules applied to it. Keeping the arithmetic here lets the
// service and every store backend share one source of truth for the
// cap invariants.
package models

import (
	"github.com/holiman/uint256"

	id "mintledger/pkg/domain"
	dErrors "mintledger/pkg/domain-errors"
)

// SupplyRecord tracks one token id's configured cap and cumulative issuance.
// Invariant: Minted <= MaxSupply whenever MaxSupply is nonzero. A zero
// MaxSupply means the cap is not configured and minting is disallowed.
// Records are never deleted; a cap left at zero permanently disables minting
// while preserving the issuance history for audit.
type SupplyRecord struct {
	ID        id.TokenID
	MaxSupply *uint256.Int
	Minted    *uint256.Int
}

// NewSupplyRecord returns the implicit zero record for an id that has never
// had its cap configured.
func NewSupplyRecord(tokenID id.TokenID) *SupplyRecord {
	return &SupplyRecord{
		ID:        tokenID,
		MaxSupply: uint256.NewInt(0),
		Minted:    uint256.NewInt(0),
	}
}

// Clone deep-copies the record so staged mutations never alias live state.
func (r *SupplyRecord) Clone() *SupplyRecord {
	return &SupplyRecord{
		ID:        r.ID,
		MaxSupply: r.MaxSupply.Clone(),
		Minted:    r.Minted.Clone(),
	}
}

// Configured reports whether a cap has been set for this id.
func (r *SupplyRecord) Configured() bool {
	return !r.MaxSupply.IsZero()
}

// Remaining returns MaxSupply - Minted, or zero when the cap is not
// configured. Non-negative by invariant.
func (r *SupplyRecord) Remaining() *uint256.Int {
	if !r.Configured() {
		return uint256.NewInt(0)
	}
	return new(uint256.Int).Sub(r.MaxSupply, r.Minted)
}

// SetMaxSupply applies a cap change. Caps may move freely, including back
// down toward the minted total, but never below it.
func (r *SupplyRecord) SetMaxSupply(newMax *uint256.Int) error {
	if newMax.Lt(r.Minted) {
		return dErrors.Newf(dErrors.CodeCapBelowMinted,
			"cap %s is below minted total %s for token %s", newMax.Dec(), r.Minted.Dec(), r.ID)
	}
	r.MaxSupply = newMax.Clone()
	return nil
}

// ApplyMint validates amount against the cap and advances Minted. The
// overflow check runs before the cap comparison so a wrapped sum can never
// slip past validation.
func (r *SupplyRecord) ApplyMint(amount *uint256.Int) error {
	if !r.Configured() {
		return dErrors.Newf(dErrors.CodeCapNotConfigured,
			"no cap configured for token %s", r.ID)
	}
	projected, overflow := new(uint256.Int).AddOverflow(r.Minted, amount)
	if overflow {
		return dErrors.Newf(dErrors.CodeArithmeticOverflow,
			"minted total for token %s would exceed 256 bits", r.ID)
	}
	if projected.Gt(r.MaxSupply) {
		return dErrors.Newf(dErrors.CodeCapExceeded,
			"minting %s of token %s would exceed cap %s (minted %s)",
			amount.Dec(), r.ID, r.MaxSupply.Dec(), r.Minted.Dec())
	}
	r.Minted = projected
	return nil
}

// ApplyMintMax issues everything left under the cap and returns the amount.
// Zero remaining is a hard failure, not a silent no-op: callers asked for a
// full top-up and must never receive a zero-amount credit.
func (r *SupplyRecord) ApplyMintMax() (*uint256.Int, error) {
	if !r.Configured() {
		return nil, dErrors.Newf(dErrors.CodeCapNotConfigured,
			"no cap configured for token %s", r.ID)
	}
	remaining := r.Remaining()
	if remaining.IsZero() {
		return nil, dErrors.Newf(dErrors.CodeCapExceeded,
			"nothing left to mint for token %s (cap %s fully issued)", r.ID, r.MaxSupply.Dec())
	}
	r.Minted = r.MaxSupply.Clone()
	return remaining, nil
}
