package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
)

// DefaultTopic receives order events when no topic is configured
const DefaultTopic = "storefront.orders"

// MessageWriter is the subset of *kafka.Writer the listener needs
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// ParseBrokers splits a comma separated broker list, dropping blanks
func ParseBrokers(csv string) []string {
	brokers := []string{}
	for _, b := range strings.Split(csv, ",") {
		b = strings.TrimSpace(b)
		if b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

// NewKafkaWriter builds a writer that partitions by message key
func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	if topic == "" {
		topic = DefaultTopic
	}
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
	}
}

// Envelope is the JSON document written to the broker
type Envelope struct {
	EventID   string       `json:"event_id"`
	Type      string       `json:"type"`
	CreatedAt time.Time    `json:"created_at"`
	Payload   OrderPayload `json:"payload"`
}

// OrderPayload describes the placed order
type OrderPayload struct {
	OrderID int64         `json:"order_id"`
	UserID  int64         `json:"user_id"`
	Total   string        `json:"total"`
	Status  string        `json:"status"`
	Items   []ItemPayload `json:"items"`
}

// ItemPayload describes one line of the order
type ItemPayload struct {
	ProductID int64  `json:"product_id"`
	Quantity  int    `json:"quantity"`
	Price     string `json:"price"`
}

// NewEnvelope converts an event into its wire form
func NewEnvelope(event OrderPlaced) Envelope {
	items := make([]ItemPayload, 0, len(event.Order.Items))
	for _, item := range event.Order.Items {
		items = append(items, ItemPayload{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     item.Price.StringFixed(2),
		})
	}
	return Envelope{
		EventID:   event.ID,
		Type:      TypeOrderPlaced,
		CreatedAt: event.OccurredAt,
		Payload: OrderPayload{
			OrderID: event.Order.ID,
			UserID:  event.Order.UserID,
			Total:   event.Order.Total.StringFixed(2),
			Status:  string(event.Order.Status),
			Items:   items,
		},
	}
}

// KafkaListener publishes placed orders to a broker topic
type KafkaListener struct {
	writer MessageWriter
	retry  RetryConfig
}

// NewKafkaListener wraps writer. The listener owns the writer and closes it on Close.
func NewKafkaListener(writer MessageWriter, retry RetryConfig) *KafkaListener {
	return &KafkaListener{writer: writer, retry: retry}
}

// Name implements Listener
func (k *KafkaListener) Name() string { return "kafka" }

// HandleOrderPlaced implements Listener
func (k *KafkaListener) HandleOrderPlaced(ctx context.Context, event OrderPlaced) error {
	data, err := json.Marshal(NewEnvelope(event))
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(strconv.FormatInt(event.Order.ID, 10)),
		Value: data,
		Time:  event.OccurredAt,
	}

	err = retryWithBackoff(ctx, k.retry, func(ctx context.Context) error {
		return k.writer.WriteMessages(ctx, msg)
	})
	if err != nil {
		return fmt.Errorf("failed to publish event %s: %w", event.ID, err)
	}
	return nil
}

// Close releases the underlying writer
func (k *KafkaListener) Close() error {
	return k.writer.Close()
}
