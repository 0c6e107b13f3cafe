package backend

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/openhire/openhire/core"
	"github.com/openhire/openhire/core/logger"
)

// KafkaNotifier publishes resource mutation notifications to a kafka
// topic. Delivery is fire-and-forget: the request that triggered the
// mutation never waits for the broker, failures are only logged.
type KafkaNotifier struct {
	writer *kafka.Writer
}

// NewKafkaNotifier creates a notifier writing to the given brokers and topic
func NewKafkaNotifier(brokers []string, topic string) *KafkaNotifier {
	return &KafkaNotifier{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.LeastBytes{},
			BatchTimeout: 50 * time.Millisecond,
		},
	}
}

// Notify implements core.Notifier
func (n *KafkaNotifier) Notify(resource string, operation core.Operation, payload []byte) {
	eventID := uuid.New()
	createdAt := time.Now().UTC()
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err := n.writer.WriteMessages(ctx, kafka.Message{
			Key:   []byte(string(operation) + " " + resource),
			Value: payload,
			Headers: []kafka.Header{
				{Key: "event-id", Value: []byte(eventID.String())},
				{Key: "created-at", Value: []byte(createdAt.Format(time.RFC3339))},
			},
		})
		if err != nil {
			logger.Default().WithError(err).Errorln("cannot publish notification for", resource)
		}
	}()
}

// Close flushes and closes the underlying writer
func (n *KafkaNotifier) Close() error {
	return n.writer.Close()
}
