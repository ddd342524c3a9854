package events

import (
	"context"       // Write cancellation
	"encoding/json" // JSON encoding/decoding
	"strconv"       // Message keys
	"time"          // Batch timeout

	"github.com/segmentio/kafka-go" // Kafka writer
)

// KafkaPublisher writes TradeExecuted events as JSON to a Kafka topic.
// Messages are keyed by user id so that a user's trades stay ordered.
type KafkaPublisher struct {
	writer *kafka.Writer
}

// NewKafkaPublisher returns a publisher writing to topic on brokers
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...), // Broker addresses
			Topic:                  topic,                 // Trade events topic
			Balancer:               &kafka.Hash{},         // Same user, same partition
			AllowAutoTopicCreation: true,                  // Create the topic on first write
			RequiredAcks:           kafka.RequireOne,      // Leader acknowledgement is enough
			BatchTimeout:           50 * time.Millisecond, // Keep trade latency low
		},
	}
}

// Publish writes event synchronously, keyed by its user id
func (p *KafkaPublisher) Publish(ctx context.Context, event TradeExecuted) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(strconv.FormatUint(uint64(event.UserID), 10)),
		Value: data,
		Time:  event.OccurredAt,
	})
}

// Close flushes pending messages and closes the writer
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
