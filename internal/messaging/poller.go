package messaging

import (
	"context"
	"log"
	"time"

	"verdure_back_end/internal/models"
)

// DefaultPollInterval est la période de rafraîchissement du chat côté client.
const DefaultPollInterval = 10 * time.Second

// FetchFunc récupère les messages datés de since ou après.
type FetchFunc func(ctx context.Context, since time.Time) ([]models.ChatMessage, error)

// Poller rafraîchit le chat à intervalle fixe jusqu'à l'annulation du contexte.
// Pas d'accusé de réception : un message est livré quand un rafraîchissement le voit.
type Poller struct {
	Interval time.Duration
	Fetch    FetchFunc
	Deliver  func([]models.ChatMessage)

	last time.Time
	// IDs déjà livrés portant exactement l'horodatage last.
	atLast map[string]struct{}
}

// Run rafraîchit immédiatement puis à chaque tick. Une erreur de récupération
// est journalisée et le tick suivant réessaie.
func (p *Poller) Run(ctx context.Context) error {
	interval := p.Interval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		p.poll(ctx)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (p *Poller) poll(ctx context.Context) {
	msgs, err := p.Fetch(ctx, p.last)
	if err != nil {
		if ctx.Err() == nil {
			log.Printf("⚠️ Rafraîchissement du chat échoué: %v", err)
		}
		return
	}
	fresh := make([]models.ChatMessage, 0, len(msgs))
	for _, m := range msgs {
		if m.CreatedAt.Before(p.last) {
			continue
		}
		if m.CreatedAt.Equal(p.last) {
			if _, dup := p.atLast[m.ID]; dup {
				continue
			}
		}
		fresh = append(fresh, m)
	}
	if len(fresh) == 0 {
		return
	}
	for _, m := range fresh {
		switch {
		case m.CreatedAt.After(p.last):
			p.last = m.CreatedAt
			p.atLast = map[string]struct{}{m.ID: {}}
		case m.CreatedAt.Equal(p.last):
			if p.atLast == nil {
				p.atLast = make(map[string]struct{})
			}
			p.atLast[m.ID] = struct{}{}
		}
	}
	if p.Deliver != nil {
		p.Deliver(fresh)
	}
}
