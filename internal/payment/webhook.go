package payment

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/stripe/stripe-go/v83"
	"github.com/stripe/stripe-go/v83/webhook"
)

const (
	EventSucceeded = "payment_intent.succeeded"
	EventFailed    = "payment_intent.payment_failed"
)

var ErrInvalidSignature = errors.New("signature Stripe invalide")

// Event est la partie d'un événement Stripe utile au pipeline de commandes.
type Event struct {
	Type     string
	IntentID string
	OrderID  string
	Amount   int64
}

// ParseEvent vérifie la signature si un secret est configuré. Sans secret
// (mode test), le corps est décodé tel quel.
func ParseEvent(payload []byte, signature, secret string) (*Event, error) {
	var event stripe.Event

	if secret == "" {
		log.Println("⚠️ Pas de STRIPE_WEBHOOK_SECRET, mode test")
		if err := json.Unmarshal(payload, &event); err != nil {
			return nil, fmt.Errorf("JSON invalide: %w", err)
		}
	} else {
		var err error
		event, err = webhook.ConstructEventWithOptions(payload, signature, secret, webhook.ConstructEventOptions{
			IgnoreAPIVersionMismatch: true,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
		}
	}

	out := &Event{Type: string(event.Type)}
	if event.Data == nil || len(event.Data.Raw) == 0 {
		return out, nil
	}

	var pi stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		return nil, fmt.Errorf("décodage PaymentIntent: %w", err)
	}
	out.IntentID = pi.ID
	out.Amount = pi.Amount
	out.OrderID = pi.Metadata["order_id"]
	return out, nil
}
