package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"name" binding:"required"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	ImageURLs   []string        `json:"image_urls"`
	CategoryID  string          `json:"category_id"`
	Stock       int             `json:"stock" binding:"gte=0"`
	IsActive    bool            `json:"is_active"`
	IsFeatured  bool            `json:"is_featured"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// ProductFilter regroupe les critères de GET /api/products.
type ProductFilter struct {
	Category string `form:"category"`
	Search   string `form:"search"`
	Featured bool   `form:"featured"`
}
