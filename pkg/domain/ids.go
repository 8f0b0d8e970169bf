// Package domain defines the typed identifiers shared across verticals.
//
// IDs are distinct Go types so the compiler rejects cross-type assignment.
// Parsing enforces the trust-boundary invariants (non-empty, well-formed,
// non-nil) once, at API entry points.
package domain

import (
	"github.com/google/uuid"
	"github.com/holiman/uint256"

	dErrors "mintledger/pkg/domain-errors"
)

// Principal is an authenticated caller identity.
type Principal uuid.UUID

// NilPrincipal is the null identity; it never holds roles and is rejected
// wherever a real principal is required.
var NilPrincipal = Principal(uuid.Nil)

// ParsePrincipal parses and validates a principal identifier.
// Rejects empty strings, malformed UUIDs and the nil UUID.
func ParsePrincipal(s string) (Principal, error) {
	if s == "" {
		return NilPrincipal, dErrors.New(dErrors.CodeInvalidPrincipal, "principal cannot be empty")
	}
	parsed, err := uuid.Parse(s)
	if err != nil {
		return NilPrincipal, dErrors.New(dErrors.CodeInvalidPrincipal, "principal must be a valid UUID")
	}
	if parsed == uuid.Nil {
		return NilPrincipal, dErrors.New(dErrors.CodeInvalidPrincipal, "principal cannot be the nil UUID")
	}
	return Principal(parsed), nil
}

// IsNil reports whether p is the null identity.
func (p Principal) IsNil() bool {
	return uuid.UUID(p) == uuid.Nil
}

func (p Principal) String() string {
	return uuid.UUID(p).String()
}

// TokenID identifies one token class in the supply ledger. The canonical form
// is the decimal rendering of a 256-bit unsigned integer, which keeps the type
// equality-comparable, map-key friendly and stable across store backends.
type TokenID string

// ParseTokenID canonicalizes a token identifier through a 256-bit decimal
// round-trip, rejecting empty, non-decimal and oversized input.
func ParseTokenID(s string) (TokenID, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "token id cannot be empty")
	}
	n, err := uint256.FromDecimal(s)
	if err != nil {
		return "", dErrors.New(dErrors.CodeInvalidInput, "token id must be an unsigned decimal integer")
	}
	return TokenID(n.Dec()), nil
}

func (t TokenID) String() string {
	return string(t)
}
