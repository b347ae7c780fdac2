package models

import "github.com/shopspring/decimal"

// CartItem est une ligne du panier, avec un instantané du produit au moment de l'ajout.
type CartItem struct {
	ProductID   string          `json:"product_id" binding:"required"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity" binding:"min=1"`
	Images      []string        `json:"images,omitempty"`
	Description string          `json:"description,omitempty"`
}

// LineTotal retourne prix × quantité.
func (i CartItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
