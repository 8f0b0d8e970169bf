//go:build integration

package notify_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	"mintledger/internal/notify"
	id "mintledger/pkg/domain"
	"mintledger/pkg/testutil/containers"
)

func TestKafkaNotifierPublishesCapEvents(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	broker := containers.NewRedpandaContainer(t)
	const topic = "mintledger.cap-events"

	notifier, err := notify.NewKafkaNotifier([]string{broker.Broker}, topic)
	require.NoError(t, err)
	defer notifier.Close()

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(broker.Broker),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	require.NoError(t, err)
	defer consumer.Close()

	ctx := context.Background()
	require.NoError(t, notifier.CapSet(ctx, id.TokenID("7"), uint256.NewInt(100)))
	require.NoError(t, notifier.CapSetBatch(ctx,
		[]id.TokenID{"1", "2"},
		[]*uint256.Int{uint256.NewInt(10), uint256.NewInt(20)},
	))

	var events []notify.CapEvent
	deadline := time.Now().Add(30 * time.Second)
	for len(events) < 2 && time.Now().Before(deadline) {
		fetchCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		fetches := consumer.PollFetches(fetchCtx)
		cancel()
		fetches.EachRecord(func(record *kgo.Record) {
			var event notify.CapEvent
			require.NoError(t, json.Unmarshal(record.Value, &event))
			events = append(events, event)
		})
	}
	require.Len(t, events, 2)

	require.Equal(t, notify.TypeCapSet, events[0].Type)
	require.Equal(t, []string{"7"}, events[0].TokenIDs)
	require.Equal(t, []string{"100"}, events[0].NewMaxes)

	require.Equal(t, notify.TypeCapSetBatch, events[1].Type)
	require.Equal(t, []string{"1", "2"}, events[1].TokenIDs)
	require.Equal(t, []string{"10", "20"}, events[1].NewMaxes)
}
