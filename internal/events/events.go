// Package events publie les événements de commande (Kafka en production).
package events

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	TypeOrderCreated       = "OrderCreated"
	TypeOrderStatusChanged = "OrderStatusChanged"
	TypePaymentSucceeded   = "PaymentSucceeded"
	TypePaymentFailed      = "PaymentFailed"
)

// Producer identifie l'émetteur dans l'enveloppe.
const Producer = "verdure-api"

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	CorrelationID string          `json:"correlation_id,omitempty"` // order_id
	Payload       json.RawMessage `json:"payload"`
}

type OrderCreatedPayload struct {
	OrderID       string `json:"order_id"`
	CustomerEmail string `json:"customer_email"`
	Total         string `json:"total"`
	ItemCount     int    `json:"item_count"`
}

type StatusChangedPayload struct {
	OrderID string `json:"order_id"`
	Status  string `json:"status"`
}

type PaymentPayload struct {
	OrderID         string `json:"order_id"`
	PaymentIntentID string `json:"payment_intent_id"`
}

// Publisher est implémenté par Kafka, Nop et Recorder.
type Publisher interface {
	Publish(ctx context.Context, eventType, orderID string, payload any) error
}

// NewEnvelope construit l'enveloppe versionnée d'un événement.
func NewEnvelope(eventType, orderID string, payload any) (Envelope, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      Producer,
		CorrelationID: orderID,
		Payload:       raw,
	}, nil
}

// Nop ignore les événements (KAFKA_BROKERS vide).
type Nop struct{}

func (Nop) Publish(context.Context, string, string, any) error { return nil }

// Recorder garde les enveloppes en mémoire, pour les tests et le dev.
type Recorder struct {
	mu     sync.Mutex
	events []Envelope
}

func (r *Recorder) Publish(_ context.Context, eventType, orderID string, payload any) error {
	env, err := NewEnvelope(eventType, orderID, payload)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, env)
	return nil
}

func (r *Recorder) Events() []Envelope {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Envelope, len(r.events))
	copy(out, r.events)
	return out
}

// Types retourne les types d'événements dans l'ordre de publication.
func (r *Recorder) Types() []string {
	var out []string
	for _, e := range r.Events() {
		out = append(out, e.EventType)
	}
	return out
}
