package events

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
)

var ErrProducerClosed = errors.New("producteur kafka fermé")

// Kafka écrit les enveloppes sur un topic, clé = order_id pour garder l'ordre
// des événements d'une même commande. L'écriture passe par une boîte de
// réception bufferisée vidée par une goroutine.
type Kafka struct {
	w       *kafka.Writer
	inbox   chan kafka.Message
	closeCh chan struct{}

	mu     sync.RWMutex
	closed bool
}

func NewKafka(brokers []string, topic string, buf int) *Kafka {
	return &Kafka{
		w: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			BatchTimeout: 50 * time.Millisecond,
		},
		inbox:   make(chan kafka.Message, buf),
		closeCh: make(chan struct{}),
	}
}

// Start lance la boucle d'écriture. Elle se termine quand Close est appelé.
func (k *Kafka) Start() {
	go func() {
		defer close(k.closeCh)
		for m := range k.inbox {
			if err := k.w.WriteMessages(context.Background(), m); err != nil {
				log.Printf("❌ Kafka: échec écriture %s: %v", m.Key, err)
			}
		}
		if err := k.w.Close(); err != nil {
			log.Printf("⚠️ Kafka: fermeture writer: %v", err)
		}
		log.Println("🔌 Producteur Kafka arrêté")
	}()
}

func (k *Kafka) Publish(ctx context.Context, eventType, orderID string, payload any) error {
	env, err := NewEnvelope(eventType, orderID, payload)
	if err != nil {
		return err
	}
	value, err := json.Marshal(env)
	if err != nil {
		return err
	}

	k.mu.RLock()
	defer k.mu.RUnlock()
	if k.closed {
		return ErrProducerClosed
	}

	msg := kafka.Message{
		Key:   []byte(orderID),
		Value: value,
		Time:  env.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(eventType)},
		},
	}
	select {
	case k.inbox <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close ferme la boîte de réception ; la goroutine vide le reste puis s'arrête.
func (k *Kafka) Close() {
	k.mu.Lock()
	defer k.mu.Unlock()
	if !k.closed {
		k.closed = true
		close(k.inbox)
	}
}

// WaitClosed bloque jusqu'à la fin du flush, ou jusqu'à l'expiration de ctx.
func (k *Kafka) WaitClosed(ctx context.Context) error {
	select {
	case <-k.closeCh:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
