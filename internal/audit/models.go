package audit

import (
	"context"
	"time"

	id "mintledger/pkg/domain"
)

// Event is emitted from domain logic to capture key ledger actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Timestamp time.Time
	Principal id.Principal
	Action    string
	// TokenIDs and Amounts carry the affected ids and decimal amounts for
	// supply operations; role events leave them empty.
	TokenIDs []string
	Amounts  []string
	// Target is the secondary principal for role grants and credits.
	Target id.Principal
	// Reason records why a rejected operation failed.
	Reason string
	// RequestID is the correlation ID from the HTTP request context.
	RequestID string
	// Data is the opaque caller-supplied payload from mint-max calls.
	Data []byte
}

// AuditAction names the ledger actions recorded in the audit trail.
type AuditAction string

const (
	EventRoleGranted      AuditAction = "role_granted"
	EventRoleRevoked      AuditAction = "role_revoked"
	EventCapSet           AuditAction = "cap_set"
	EventCapSetBatch      AuditAction = "cap_set_batch"
	EventTokensMinted     AuditAction = "tokens_minted"
	EventTokensMintBatch  AuditAction = "tokens_minted_batch"
	EventTokensMintMax    AuditAction = "tokens_minted_max"
	EventRoyaltyUpdated   AuditAction = "royalty_updated"
	EventMutationRejected AuditAction = "mutation_rejected"
)

// Store persists audit events append-only.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByPrincipal(ctx context.Context, principal id.Principal) ([]Event, error)
}
