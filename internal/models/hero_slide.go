package models

import "time"

type HeroSlide struct {
	ID        string    `json:"id"`
	Title     string    `json:"title" binding:"required"`
	Subtitle  string    `json:"subtitle,omitempty"`
	ImageURL  string    `json:"image_url" binding:"required"`
	LinkURL   string    `json:"link_url,omitempty"`
	SortOrder int       `json:"sort_order"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}
