// Package notify publishes cap-change notifications. Notifications are
// observability, not control flow: the ledger logs a failed publish and
// moves on, because the cap change has already committed.
package notify

import (
	"time"

	"github.com/holiman/uint256"

	id "mintledger/pkg/domain"
)

// CapEvent is the wire payload for cap-change notifications. Amounts travel
// as decimal strings.
type CapEvent struct {
	Type      string    `json:"type"`
	TokenIDs  []string  `json:"token_ids"`
	NewMaxes  []string  `json:"new_maxes"`
	Timestamp time.Time `json:"timestamp"`
}

const (
	TypeCapSet      = "cap_set"
	TypeCapSetBatch = "cap_set_batch"
)

func newCapEvent(eventType string, tokenIDs []id.TokenID, newMaxes []*uint256.Int) CapEvent {
	ids := make([]string, len(tokenIDs))
	maxes := make([]string, len(newMaxes))
	for i := range tokenIDs {
		ids[i] = tokenIDs[i].String()
		maxes[i] = newMaxes[i].Dec()
	}
	return CapEvent{
		Type:      eventType,
		TokenIDs:  ids,
		NewMaxes:  maxes,
		Timestamp: time.Now(),
	}
}
