package models

import "time"

type Testimonial struct {
	ID         string    `json:"id"`
	AuthorName string    `json:"author_name" binding:"required"`
	Location   string    `json:"location,omitempty"`
	Content    string    `json:"content" binding:"required,max=1000"`
	Rating     int       `json:"rating" binding:"omitempty,min=1,max=5"`
	IsApproved bool      `json:"is_approved"`
	CreatedAt  time.Time `json:"created_at"`
}
