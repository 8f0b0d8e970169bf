package notify

import (
	"context"
	"sync"

	"github.com/holiman/uint256"

	id "mintledger/pkg/domain"
)

// MemoryNotifier records cap events in memory. Used in tests and when no
// broker is configured.
type MemoryNotifier struct {
	mu     sync.RWMutex
	events []CapEvent
}

func NewMemoryNotifier() *MemoryNotifier {
	return &MemoryNotifier{}
}

func (n *MemoryNotifier) CapSet(_ context.Context, tokenID id.TokenID, newMax *uint256.Int) error {
	n.record(newCapEvent(TypeCapSet, []id.TokenID{tokenID}, []*uint256.Int{newMax}))
	return nil
}

func (n *MemoryNotifier) CapSetBatch(_ context.Context, tokenIDs []id.TokenID, newMaxes []*uint256.Int) error {
	n.record(newCapEvent(TypeCapSetBatch, tokenIDs, newMaxes))
	return nil
}

func (n *MemoryNotifier) record(event CapEvent) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
}

// Events returns every recorded event in publish order.
func (n *MemoryNotifier) Events() []CapEvent {
	n.mu.RLock()
	defer n.mu.RUnlock()
	out := make([]CapEvent, len(n.events))
	copy(out, n.events)
	return out
}
