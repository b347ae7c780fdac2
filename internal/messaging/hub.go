package messaging

import (
	"log"
	"sync"

	"verdure_back_end/internal/models"
)

// Hub diffuse les messages de chat aux connexions websocket. Un abonné à la
// session "" (l'admin) reçoit tous les messages.
type Hub struct {
	mu   sync.RWMutex
	subs map[string]map[chan models.ChatMessage]struct{}
}

func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[chan models.ChatMessage]struct{})}
}

// Subscribe retourne un canal de messages et la fonction de désabonnement.
func (h *Hub) Subscribe(sessionID string) (<-chan models.ChatMessage, func()) {
	ch := make(chan models.ChatMessage, 16)

	h.mu.Lock()
	if h.subs[sessionID] == nil {
		h.subs[sessionID] = make(map[chan models.ChatMessage]struct{})
	}
	h.subs[sessionID][ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs[sessionID], ch)
			if len(h.subs[sessionID]) == 0 {
				delete(h.subs, sessionID)
			}
			h.mu.Unlock()
			close(ch)
		})
	}
}

// Broadcast n'attend jamais un abonné lent : le message est abandonné pour lui.
func (h *Hub) Broadcast(msg models.ChatMessage) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	send := func(ch chan models.ChatMessage) {
		select {
		case ch <- msg:
		default:
			log.Printf("⚠️ Abonné chat saturé, message %s abandonné", msg.ID)
		}
	}
	for ch := range h.subs[msg.SessionID] {
		send(ch)
	}
	if msg.SessionID != "" {
		for ch := range h.subs[""] {
			send(ch)
		}
	}
}

func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, set := range h.subs {
		n += len(set)
	}
	return n
}
