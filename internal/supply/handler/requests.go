package handler

import (
	"github.com/holiman/uint256"

	id "mintledger/pkg/domain"
	dErrors "mintledger/pkg/domain-errors"
)

// Amounts travel on the wire as decimal strings: 256-bit values do not fit
// JSON numbers, and decimal matches how the stores persist them.

// SetMaxSupplyRequest is the HTTP request body for PUT /admin/supply/max.
type SetMaxSupplyRequest struct {
	TokenID   string `json:"token_id"`
	MaxSupply string `json:"max_supply"`

	parsedTokenID id.TokenID
	parsedMax     *uint256.Int
}

// Validate validates and parses the request.
// Implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *SetMaxSupplyRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}

	tokenID, err := id.ParseTokenID(r.TokenID)
	if err != nil {
		return err
	}
	r.parsedTokenID = tokenID

	max, err := parseAmount(r.MaxSupply, "max_supply")
	if err != nil {
		return err
	}
	r.parsedMax = max
	return nil
}

// SetMaxSupplyBatchRequest is the HTTP request body for
// PUT /admin/supply/max/batch.
type SetMaxSupplyBatchRequest struct {
	TokenIDs   []string `json:"token_ids"`
	MaxSupplies []string `json:"max_supplies"`

	parsedTokenIDs []id.TokenID
	parsedMaxes    []*uint256.Int
}

// Validate validates and parses the request. A length mismatch between the
// two lists is reported here so it fails before touching the service; the
// service re-checks for non-HTTP callers.
func (r *SetMaxSupplyBatchRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if len(r.TokenIDs) != len(r.MaxSupplies) {
		return dErrors.Newf(dErrors.CodeLengthMismatch,
			"got %d token ids but %d max supplies", len(r.TokenIDs), len(r.MaxSupplies))
	}

	tokenIDs, err := parseTokenIDs(r.TokenIDs)
	if err != nil {
		return err
	}
	maxes, err := parseAmounts(r.MaxSupplies, "max_supplies")
	if err != nil {
		return err
	}
	r.parsedTokenIDs = tokenIDs
	r.parsedMaxes = maxes
	return nil
}

// MintRequest is the HTTP request body for POST /supply/mint.
type MintRequest struct {
	To      string `json:"to"`
	TokenID string `json:"token_id"`
	Amount  string `json:"amount"`

	parsedTo      id.Principal
	parsedTokenID id.TokenID
	parsedAmount  *uint256.Int
}

// Validate validates and parses the request.
func (r *MintRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}

	to, err := id.ParsePrincipal(r.To)
	if err != nil {
		return err
	}
	r.parsedTo = to

	tokenID, err := id.ParseTokenID(r.TokenID)
	if err != nil {
		return err
	}
	r.parsedTokenID = tokenID

	amount, err := parseAmount(r.Amount, "amount")
	if err != nil {
		return err
	}
	r.parsedAmount = amount
	return nil
}

// MintBatchRequest is the HTTP request body for POST /supply/mint/batch.
type MintBatchRequest struct {
	To       string   `json:"to"`
	TokenIDs []string `json:"token_ids"`
	Amounts  []string `json:"amounts"`

	parsedTo       id.Principal
	parsedTokenIDs []id.TokenID
	parsedAmounts  []*uint256.Int
}

// Validate validates and parses the request.
func (r *MintBatchRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if len(r.TokenIDs) != len(r.Amounts) {
		return dErrors.Newf(dErrors.CodeLengthMismatch,
			"got %d token ids but %d amounts", len(r.TokenIDs), len(r.Amounts))
	}

	to, err := id.ParsePrincipal(r.To)
	if err != nil {
		return err
	}
	tokenIDs, err := parseTokenIDs(r.TokenIDs)
	if err != nil {
		return err
	}
	amounts, err := parseAmounts(r.Amounts, "amounts")
	if err != nil {
		return err
	}
	r.parsedTo = to
	r.parsedTokenIDs = tokenIDs
	r.parsedAmounts = amounts
	return nil
}

// MintMaxRequest is the HTTP request body for POST /supply/mint/max.
type MintMaxRequest struct {
	To       string   `json:"to"`
	TokenIDs []string `json:"token_ids"`
	Data     []byte   `json:"data,omitempty"`

	parsedTo       id.Principal
	parsedTokenIDs []id.TokenID
}

// Validate validates and parses the request.
func (r *MintMaxRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if len(r.TokenIDs) == 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "token_ids is required")
	}

	to, err := id.ParsePrincipal(r.To)
	if err != nil {
		return err
	}
	tokenIDs, err := parseTokenIDs(r.TokenIDs)
	if err != nil {
		return err
	}
	r.parsedTo = to
	r.parsedTokenIDs = tokenIDs
	return nil
}

// RemainingBatchRequest is the HTTP request body for POST /supply/remaining.
type RemainingBatchRequest struct {
	TokenIDs []string `json:"token_ids"`

	parsedTokenIDs []id.TokenID
}

// Validate validates and parses the request.
func (r *RemainingBatchRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	tokenIDs, err := parseTokenIDs(r.TokenIDs)
	if err != nil {
		return err
	}
	r.parsedTokenIDs = tokenIDs
	return nil
}

func parseAmount(raw, field string) (*uint256.Int, error) {
	if raw == "" {
		return nil, dErrors.Newf(dErrors.CodeInvalidInput, "%s is required", field)
	}
	v, err := uint256.FromDecimal(raw)
	if err != nil {
		return nil, dErrors.Newf(dErrors.CodeInvalidInput, "%s is not a valid decimal amount", field)
	}
	return v, nil
}

func parseAmounts(raw []string, field string) ([]*uint256.Int, error) {
	out := make([]*uint256.Int, len(raw))
	for i, s := range raw {
		v, err := parseAmount(s, field)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func parseTokenIDs(raw []string) ([]id.TokenID, error) {
	out := make([]id.TokenID, len(raw))
	for i, s := range raw {
		tokenID, err := id.ParseTokenID(s)
		if err != nil {
			return nil, err
		}
		out[i] = tokenID
	}
	return out, nil
}
