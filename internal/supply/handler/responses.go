package handler

import (
	"github.com/holiman/uint256"

	id "mintledger/pkg/domain"
)

// StatusResponse acknowledges a committed mutation.
type StatusResponse struct {
	Status string `json:"status"`
}

var statusOK = StatusResponse{Status: "ok"}

// RemainingResponse is the HTTP response for GET /supply/{token_id}/remaining.
type RemainingResponse struct {
	TokenID   string `json:"token_id"`
	Remaining string `json:"remaining"`
}

// RemainingBatchResponse is the HTTP response for POST /supply/remaining. The
// entries line up with the requested token ids.
type RemainingBatchResponse struct {
	Remaining []RemainingResponse `json:"remaining"`
}

// FromRemaining converts one remaining-supply read to its HTTP response.
func FromRemaining(tokenID id.TokenID, remaining *uint256.Int) RemainingResponse {
	return RemainingResponse{
		TokenID:   tokenID.String(),
		Remaining: remaining.Dec(),
	}
}

// FromRemainingBatch converts a batch read to its HTTP response, preserving
// input order.
func FromRemainingBatch(tokenIDs []id.TokenID, remaining []*uint256.Int) RemainingBatchResponse {
	out := make([]RemainingResponse, len(tokenIDs))
	for i := range tokenIDs {
		out[i] = FromRemaining(tokenIDs[i], remaining[i])
	}
	return RemainingBatchResponse{Remaining: out}
}
