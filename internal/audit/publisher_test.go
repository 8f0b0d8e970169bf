package audit

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "mintledger/pkg/domain"
	"mintledger/pkg/requestcontext"
)

func TestPublisher_SyncMode(t *testing.T) {
	store := NewInMemoryStore()
	pub := NewPublisher(store)
	defer pub.Close()

	principal := id.Principal(uuid.New())
	event := Event{
		Principal: principal,
		Action:    string(EventCapSet),
		TokenIDs:  []string{"7"},
		Amounts:   []string{"100"},
	}

	err := pub.Emit(context.Background(), event)
	require.NoError(t, err)

	events, err := pub.List(context.Background(), principal)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, string(EventCapSet), events[0].Action)
	assert.False(t, events[0].Timestamp.IsZero())
}

func TestPublisher_AsyncDrainsOnClose(t *testing.T) {
	store := NewInMemoryStore()
	pub := NewPublisher(store, WithAsyncBuffer(100))

	principal := id.Principal(uuid.New())
	for range 10 {
		err := pub.Emit(context.Background(), Event{
			Principal: principal,
			Action:    string(EventTokensMinted),
		})
		require.NoError(t, err)
	}

	pub.Close()

	events, err := pub.List(context.Background(), principal)
	require.NoError(t, err)
	assert.Len(t, events, 10)
}

func TestPublisher_StampsRequestScopedTime(t *testing.T) {
	store := NewInMemoryStore()
	pub := NewPublisher(store)
	defer pub.Close()

	principal := id.Principal(uuid.New())
	requestTime := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	ctx := requestcontext.WithTime(context.Background(), requestTime)

	err := pub.Emit(ctx, Event{Principal: principal, Action: string(EventCapSet)})
	require.NoError(t, err)

	events, err := pub.List(context.Background(), principal)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.True(t, events[0].Timestamp.Equal(requestTime))
}

func TestPublisher_EmitAfterCloseAppendsSynchronously(t *testing.T) {
	store := NewInMemoryStore()
	pub := NewPublisher(store, WithAsyncBuffer(10))
	pub.Close()
	pub.Close()

	principal := id.Principal(uuid.New())
	err := pub.Emit(context.Background(), Event{
		Principal: principal,
		Action:    string(EventTokensMinted),
	})
	require.NoError(t, err)

	events, err := pub.List(context.Background(), principal)
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestWorker_PersistsFromInbox(t *testing.T) {
	store := NewInMemoryStore()
	inbox := make(chan Event, 1)
	worker := NewWorker(store, inbox)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- worker.Run(ctx) }()

	principal := id.Principal(uuid.New())
	inbox <- Event{Principal: principal, Action: string(EventRoleGranted), Timestamp: time.Now()}

	require.Eventually(t, func() bool {
		events, err := store.ListByPrincipal(context.Background(), principal)
		return err == nil && len(events) == 1
	}, time.Second, 10*time.Millisecond)

	cancel()
	require.ErrorIs(t, <-done, context.Canceled)
}

func TestWorker_DrainsThenStopsOnClosedInbox(t *testing.T) {
	store := NewInMemoryStore()
	inbox := make(chan Event, 2)
	worker := NewWorker(store, inbox)

	principal := id.Principal(uuid.New())
	inbox <- Event{Principal: principal, Action: string(EventCapSet), Timestamp: time.Now()}
	inbox <- Event{Principal: principal, Action: string(EventCapSetBatch), Timestamp: time.Now()}
	close(inbox)

	require.NoError(t, worker.Run(context.Background()))

	events, err := store.ListByPrincipal(context.Background(), principal)
	require.NoError(t, err)
	assert.Len(t, events, 2)
}
