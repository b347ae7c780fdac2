package messaging

import (
	"context"
	"strings"
	"time"

	"verdure_back_end/internal/models"
)

const (
	SenderVisitor = "visitor"
	SenderAdmin   = "admin"
)

// PostMessage ajoute le message au journal et le pousse aux abonnés websocket.
func (s *Service) PostMessage(ctx context.Context, msg *models.ChatMessage) error {
	msg.Content = strings.TrimSpace(msg.Content)
	msg.IsRead = false
	if err := s.messages.AddChatMessage(ctx, msg); err != nil {
		return err
	}
	s.hub.Broadcast(*msg)
	return nil
}

// ListMessages retourne les messages d'une session dans l'ordre d'insertion,
// à partir de since inclus quand il est non nul. Le stockage arrondit à la
// milliseconde : l'appelant écarte les doublons par ID.
func (s *Service) ListMessages(ctx context.Context, sessionID string, since time.Time) ([]models.ChatMessage, error) {
	all, err := s.messages.ListChatMessages(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if since.IsZero() {
		return all, nil
	}
	out := []models.ChatMessage{}
	for _, m := range all {
		if !m.CreatedAt.Before(since) {
			out = append(out, m)
		}
	}
	return out, nil
}
