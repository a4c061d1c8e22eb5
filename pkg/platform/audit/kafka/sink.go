// Package kafka publishes ledger events to a Kafka topic. Kafka is the
// durable audit trail in deployments; the in-memory store serves tests and
// single-process runs.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/twmb/franz-go/pkg/kgo"

	audit "rightsledger/pkg/platform/audit"
)

// Sink is a write-only audit.Store backed by a Kafka producer. Events are
// produced synchronously so a ledger operation's event is on the wire before
// the operation returns.
type Sink struct {
	client *kgo.Client
	topic  string
}

// NewSink connects a producer to the given brokers.
func NewSink(brokers []string, topic string) (*Sink, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	return &Sink{client: client, topic: topic}, nil
}

// payload is the JSON structure published to Kafka. Field names match
// audit.Event for symmetric deserialization by consumers.
type payload struct {
	ID          string   `json:"ID"`
	Category    string   `json:"Category"`
	Timestamp   string   `json:"Timestamp"`
	Action      string   `json:"Action"`
	Actor       string   `json:"Actor,omitempty"`
	TokenID     uint64   `json:"TokenID,omitempty"`
	ReceiptID   uint64   `json:"ReceiptID,omitempty"`
	From        string   `json:"From,omitempty"`
	To          string   `json:"To,omitempty"`
	Customer    string   `json:"Customer,omitempty"`
	Amount      uint64   `json:"Amount,omitempty"`
	Recipients  []string `json:"Recipients,omitempty"`
	Shares      []uint32 `json:"Shares,omitempty"`
	DocumentRef string   `json:"DocumentRef,omitempty"`
	RequestID   string   `json:"RequestID,omitempty"`
}

// Append produces the event to the audit topic, keyed by token ID so all
// events for one token land in the same partition, in order.
func (s *Sink) Append(ctx context.Context, event audit.Event) error {
	// Category is always derived from the action; eventCategories is the
	// source of truth.
	category := audit.LedgerEvent(event.Action).Category()

	p := payload{
		ID:          uuid.NewString(),
		Category:    string(category),
		Timestamp:   event.Timestamp.Format(time.RFC3339Nano),
		Action:      event.Action,
		Actor:       event.Actor.String(),
		TokenID:     uint64(event.TokenID),
		ReceiptID:   uint64(event.ReceiptID),
		From:        event.From.String(),
		To:          event.To.String(),
		Customer:    event.Customer.String(),
		Amount:      event.Amount,
		DocumentRef: event.DocumentRef,
		RequestID:   event.RequestID,
	}
	for _, r := range event.Recipients {
		p.Recipients = append(p.Recipients, r.String())
	}
	p.Shares = append(p.Shares, event.Shares...)

	value, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal audit payload: %w", err)
	}

	record := &kgo.Record{
		Topic: s.topic,
		Key:   []byte(event.TokenID.String()),
		Value: value,
	}
	if err := s.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce audit event: %w", err)
	}
	return nil
}

// Close flushes and releases the producer.
func (s *Sink) Close() {
	s.client.Close()
}
