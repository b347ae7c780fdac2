package messaging

import (
	"context"
	"log"
	"strings"

	"verdure_back_end/internal/models"
	"verdure_back_end/internal/utils"
)

// SubmitContact enregistre le message et prévient la boutique par e-mail.
func (s *Service) SubmitContact(ctx context.Context, c *models.Contact) error {
	c.Email = strings.TrimSpace(c.Email)
	c.IsRead = false
	if err := s.messages.AddContact(ctx, c); err != nil {
		return err
	}
	log.Printf("✉️ Nouveau message de contact de %s", c.Email)

	subject, body, err := utils.ContactNotificationEmail(*c)
	if err != nil {
		log.Printf("⚠️ Erreur rendu email contact: %v", err)
		return nil
	}
	utils.SendAsync(s.mailer, s.shopEmail, subject, body)
	return nil
}

func (s *Service) ListContacts(ctx context.Context) ([]models.Contact, error) {
	return s.messages.ListContacts(ctx)
}

func (s *Service) MarkContactRead(ctx context.Context, id string) error {
	return s.messages.MarkContactRead(ctx, id)
}
