package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/holiman/uint256"
	"github.com/twmb/franz-go/pkg/kgo"

	id "mintledger/pkg/domain"
)

// KafkaNotifier publishes cap events to a Kafka topic. Records are keyed by
// the first token id so per-id ordering holds within a partition.
type KafkaNotifier struct {
	client *kgo.Client
	topic  string
}

// NewKafkaNotifier connects a producer to the given brokers.
func NewKafkaNotifier(brokers []string, topic string) (*KafkaNotifier, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	return &KafkaNotifier{client: client, topic: topic}, nil
}

func (n *KafkaNotifier) CapSet(ctx context.Context, tokenID id.TokenID, newMax *uint256.Int) error {
	return n.publish(ctx, newCapEvent(TypeCapSet, []id.TokenID{tokenID}, []*uint256.Int{newMax}))
}

func (n *KafkaNotifier) CapSetBatch(ctx context.Context, tokenIDs []id.TokenID, newMaxes []*uint256.Int) error {
	return n.publish(ctx, newCapEvent(TypeCapSetBatch, tokenIDs, newMaxes))
}

func (n *KafkaNotifier) publish(ctx context.Context, event CapEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal cap event: %w", err)
	}

	record := &kgo.Record{
		Topic: n.topic,
		Value: payload,
	}
	if len(event.TokenIDs) > 0 {
		record.Key = []byte(event.TokenIDs[0])
	}

	if err := n.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce cap event: %w", err)
	}
	return nil
}

// Close flushes and tears down the producer.
func (n *KafkaNotifier) Close() {
	n.client.Close()
}
