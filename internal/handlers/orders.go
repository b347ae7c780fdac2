package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"verdure_back_end/internal/models"
	"verdure_back_end/internal/orders"
	"verdure_back_end/internal/payment"
	"verdure_back_end/internal/store"
	"verdure_back_end/internal/utils"
)

// MaxWebhookBytes borne le corps accepté sur le webhook Stripe.
const MaxWebhookBytes = int64(65536)

type OrderHandler struct {
	svc           *orders.Service
	webhookSecret string
	publicBaseURL string
}

func NewOrderHandler(svc *orders.Service, webhookSecret, publicBaseURL string) *OrderHandler {
	return &OrderHandler{svc: svc, webhookSecret: webhookSecret, publicBaseURL: publicBaseURL}
}

// 💳 POST /api/create-payment-intent
// En-tête optionnel Idempotency-Key : une même clé retourne la même commande.
func (h *OrderHandler) CreatePaymentIntent(c *gin.Context) {
	var req orders.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	res, err := h.svc.Checkout(c.Request.Context(), req, c.GetHeader("Idempotency-Key"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// POST /api/orders : crée la commande sans intention de paiement.
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req orders.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	order, err := h.svc.CreateOrder(c.Request.Context(), req.Customer, req.Items, req.Total)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

func (h *OrderHandler) GetOrders(c *gin.Context) {
	list, err := h.svc.GetOrders(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *OrderHandler) GetOrder(c *gin.Context) {
	order, err := h.svc.GetOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// PUT /api/orders/:id/status (admin)
func (h *OrderHandler) UpdateOrderStatus(c *gin.Context) {
	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	order, err := h.svc.UpdateOrderStatus(c.Request.Context(), c.Param("id"), models.OrderStatus(req.Status))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// 📊 GET /api/orders/stats (admin)
func (h *OrderHandler) Stats(c *gin.Context) {
	stats, err := h.svc.Stats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// GET /api/orders/:id/qrcode?size=256 : PNG pointant vers la page de confirmation.
func (h *OrderHandler) QRCode(c *gin.Context) {
	order, err := h.svc.GetOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	size, _ := strconv.Atoi(c.DefaultQuery("size", "256"))
	if size < 64 || size > 1024 {
		size = 256
	}
	png, err := utils.OrderQRCode(h.publicBaseURL, order.ID, size)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

// 🔔 POST /api/webhooks/stripe
func (h *OrderHandler) StripeWebhook(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxWebhookBytes)

	payload, err := c.GetRawData()
	if err != nil {
		log.Println("❌ Lecture payload échouée:", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Échec lecture body"})
		return
	}

	event, err := payment.ParseEvent(payload, c.GetHeader("Stripe-Signature"), h.webhookSecret)
	if err != nil {
		log.Println("❌ Webhook Stripe refusé:", err)
		if errors.Is(err, payment.ErrInvalidSignature) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Signature invalide"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "JSON invalide"})
		return
	}

	log.Printf("📥 Événement Stripe reçu : %s", event.Type)
	if err := h.svc.HandlePaymentEvent(c.Request.Context(), event); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Commande inconnue : on acquitte pour éviter les renvois.
			log.Printf("⚠️ Aucune commande pour %s", event.IntentID)
			c.Status(http.StatusOK)
			return
		}
		respondError(c, err)
		return
	}
	c.Status(http.StatusOK)
}
