package handlers

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"verdure_back_end/internal/messaging"
)

const wsPingInterval = 30 * time.Second

// ChatSocket pousse les messages de chat en temps réel ; le polling reste le
// mécanisme de repli côté client.
type ChatSocket struct {
	hub      *messaging.Hub
	upgrader websocket.Upgrader
}

func NewChatSocket(hub *messaging.Hub, origins []string) *ChatSocket {
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[o] = true
	}
	return &ChatSocket{
		hub: hub,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || allowed[origin]
			},
		},
	}
}

// GET /api/chat/ws?session_id=...
func (s *ChatSocket) Visitor(c *gin.Context) {
	sessionID := c.Query("session_id")
	if sessionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "session_id requis"})
		return
	}
	s.serve(c, sessionID)
}

// GET /api/admin/chat/ws : reçoit les messages de toutes les sessions.
func (s *ChatSocket) Admin(c *gin.Context) {
	s.serve(c, "")
}

func (s *ChatSocket) serve(c *gin.Context, sessionID string) {
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("❌ Erreur upgrade WebSocket: %v", err)
		return
	}
	defer conn.Close()

	msgs, unsubscribe := s.hub.Subscribe(sessionID)
	defer unsubscribe()

	// Lecture en tâche de fond : seule la fermeture côté client nous intéresse.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	conn.WriteJSON(gin.H{"type": "connected", "session_id": sessionID})

	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-msgs:
			if !ok {
				return
			}
			if err := conn.WriteJSON(gin.H{"type": "message", "message": msg}); err != nil {
				log.Printf("❌ Erreur envoi WebSocket: %v", err)
				return
			}
		case <-ticker.C:
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-closed:
			return
		}
	}
}
