package models

import "time"

type ChatMessage struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id" binding:"required"`
	Sender    string    `json:"sender" binding:"omitempty,oneof=visitor admin"`
	Content   string    `json:"content" binding:"required,max=2000"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}
