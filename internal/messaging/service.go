// Package messaging regroupe les canaux annexes : chat, contact, avis et
// témoignages modérés, newsletter, slides d'accueil.
package messaging

import (
	"verdure_back_end/internal/store"
	"verdure_back_end/internal/utils"
)

type Service struct {
	messages   store.MessagingRepository
	moderation store.ModerationRepository
	hub        *Hub
	mailer     utils.Mailer
	shopEmail  string
}

func NewService(messages store.MessagingRepository, moderation store.ModerationRepository, hub *Hub, mailer utils.Mailer, shopEmail string) *Service {
	if hub == nil {
		hub = NewHub()
	}
	return &Service{
		messages:   messages,
		moderation: moderation,
		hub:        hub,
		mailer:     mailer,
		shopEmail:  shopEmail,
	}
}

func (s *Service) Hub() *Hub { return s.hub }
