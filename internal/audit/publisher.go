package audit

import (
	"context"
	"sync"

	id "mintledger/pkg/domain"
	"mintledger/pkg/requestcontext"
)

// Publisher captures structured audit events. It defaults to synchronous
// appends; WithAsyncBuffer switches to a buffered channel drained by a
// background Worker, with Close flushing outstanding events. Emit after
// Close falls back to a synchronous append so late events are never lost.
type Publisher struct {
	store Store

	inbox chan Event
	wg    sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

// Option configures a Publisher.
type Option func(*Publisher)

// WithAsyncBuffer enables asynchronous emission with the given buffer size.
func WithAsyncBuffer(size int) Option {
	return func(p *Publisher) {
		p.inbox = make(chan Event, size)
	}
}

func NewPublisher(store Store, opts ...Option) *Publisher {
	p := &Publisher{store: store}
	for _, opt := range opts {
		opt(p)
	}
	if p.inbox != nil {
		worker := NewWorker(store, p.inbox)
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			// Background persistence uses its own context; the emitting
			// request may already be finished.
			_ = worker.Run(context.Background())
		}()
	}
	return p
}

// Emit records an audit event, stamping the request-scoped time if unset.
func (p *Publisher) Emit(ctx context.Context, event Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = requestcontext.Now(ctx)
	}
	if p.inbox == nil {
		return p.store.Append(ctx, event)
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return p.store.Append(ctx, event)
	}
	p.inbox <- event
	return nil
}

// List returns the audit trail for one principal.
func (p *Publisher) List(ctx context.Context, principal id.Principal) ([]Event, error) {
	return p.store.ListByPrincipal(ctx, principal)
}

// Close stops async processing after draining buffered events. Idempotent.
func (p *Publisher) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.mu.Unlock()

	if p.inbox != nil {
		close(p.inbox)
		p.wg.Wait()
	}
}
