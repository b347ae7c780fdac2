package messaging

import (
	"context"
	"errors"
	"strings"

	"verdure_back_end/internal/models"
	"verdure_back_end/internal/store"
)

// Subscribe est idempotent : une adresse déjà inscrite retourne false sans erreur.
func (s *Service) Subscribe(ctx context.Context, email string) (bool, error) {
	sub := &models.NewsletterSubscriber{Email: strings.ToLower(strings.TrimSpace(email))}
	err := s.messages.AddSubscriber(ctx, sub)
	if errors.Is(err, store.ErrAlreadyExists) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
