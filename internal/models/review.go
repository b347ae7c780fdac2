package models

import "time"

type Review struct {
	ID         string    `json:"id"`
	ProductID  string    `json:"product_id" binding:"required"`
	AuthorName string    `json:"author_name" binding:"required"`
	Rating     int       `json:"rating" binding:"required,min=1,max=5"`
	Comment    string    `json:"comment" binding:"required,max=1000"`
	IsApproved bool      `json:"is_approved"`
	CreatedAt  time.Time `json:"created_at"`
}
