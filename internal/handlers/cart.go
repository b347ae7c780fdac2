package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"verdure_back_end/internal/cart"
	"verdure_back_end/internal/catalog"
	"verdure_back_end/internal/models"
)

const CartSessionHeader = "X-Cart-Session"

// CartHandler expose le panier côté serveur, identifié par l'en-tête X-Cart-Session.
type CartHandler struct {
	persister cart.Persister
	catalog   *catalog.Service
}

func NewCartHandler(persister cart.Persister, catalog *catalog.Service) *CartHandler {
	return &CartHandler{persister: persister, catalog: catalog}
}

type cartView struct {
	Items []models.CartItem `json:"items"`
	Total decimal.Decimal   `json:"total"`
	Count int               `json:"count"`
}

func view(s *cart.Store) cartView {
	return cartView{Items: s.Items(), Total: s.Total(), Count: s.ItemCount()}
}

func (h *CartHandler) session(c *gin.Context) (string, bool) {
	session := c.GetHeader(CartSessionHeader)
	if session == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "En-tête " + CartSessionHeader + " manquant"})
		return "", false
	}
	return session, true
}

func (h *CartHandler) load(c *gin.Context) (*cart.Store, bool) {
	session, ok := h.session(c)
	if !ok {
		return nil, false
	}
	s, err := cart.Restore(c.Request.Context(), h.persister, session)
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	return s, true
}

// mutate applique op au panier de la session, sérialisé avec les autres requêtes de cette session.
func (h *CartHandler) mutate(c *gin.Context, op func(ctx context.Context, s *cart.Store) error) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	s, err := cart.Apply(c.Request.Context(), h.persister, session, op)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view(s))
}

// 🛒 GET /api/cart
func (h *CartHandler) GetCart(c *gin.Context) {
	s, ok := h.load(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, view(s))
}

// POST /api/cart/items : ajoute une unité ; nom, prix et images viennent du catalogue.
func (h *CartHandler) AddItem(c *gin.Context) {
	var req struct {
		ProductID string `json:"product_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if _, ok := h.session(c); !ok {
		return
	}

	p, err := h.catalog.GetProduct(c.Request.Context(), req.ProductID)
	if err != nil {
		respondError(c, err)
		return
	}

	item := models.CartItem{
		ProductID:   p.ID,
		Name:        p.Name,
		Price:       p.Price,
		Images:      p.ImageURLs,
		Description: p.Description,
	}
	h.mutate(c, func(ctx context.Context, s *cart.Store) error {
		return s.AddItem(ctx, item)
	})
}

// PUT /api/cart/items/:productId {quantity} ; quantity <= 0 retire la ligne.
func (h *CartHandler) UpdateQuantity(c *gin.Context) {
	var req struct {
		Quantity *int `json:"quantity" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	productID, qty := c.Param("productId"), *req.Quantity
	h.mutate(c, func(ctx context.Context, s *cart.Store) error {
		return s.UpdateQuantity(ctx, productID, qty)
	})
}

func (h *CartHandler) RemoveItem(c *gin.Context) {
	productID := c.Param("productId")
	h.mutate(c, func(ctx context.Context, s *cart.Store) error {
		return s.RemoveItem(ctx, productID)
	})
}

func (h *CartHandler) Clear(c *gin.Context) {
	h.mutate(c, func(ctx context.Context, s *cart.Store) error {
		return s.Clear(ctx)
	})
}
