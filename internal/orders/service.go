// Package orders porte le pipeline de commande : création de la commande et de
// ses lignes, intention de paiement, suivi du statut.
package orders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"verdure_back_end/internal/cache"
	"verdure_back_end/internal/cart"
	"verdure_back_end/internal/events"
	"verdure_back_end/internal/models"
	"verdure_back_end/internal/payment"
	"verdure_back_end/internal/store"
	"verdure_back_end/internal/utils"
)

var (
	ErrInvalidStatus      = errors.New("statut invalide")
	ErrEmptyCart          = errors.New("panier vide")
	ErrCheckoutInProgress = errors.New("checkout déjà en cours pour cette clé")
	ErrInvalidQuantity    = errors.New("quantité invalide")
	ErrInvalidTotal       = errors.New("montant total invalide")
)

const PaymentMethodCard = "card"

type Deps struct {
	Orders   store.OrderRepository
	Products store.ProductRepository
	Gateway  payment.Gateway
	Cache    *cache.Cache
	Events   events.Publisher
	Mailer   utils.Mailer
	Currency string
}

type Service struct {
	orders   store.OrderRepository
	products store.ProductRepository
	gateway  payment.Gateway
	cache    *cache.Cache
	events   events.Publisher
	mailer   utils.Mailer
	currency string
}

func NewService(d Deps) *Service {
	if d.Events == nil {
		d.Events = events.Nop{}
	}
	if d.Currency == "" {
		d.Currency = "eur"
	}
	return &Service{
		orders:   d.Orders,
		products: d.Products,
		gateway:  d.Gateway,
		cache:    d.Cache,
		events:   d.Events,
		mailer:   d.Mailer,
		currency: d.Currency,
	}
}

// CheckoutRequest est le corps de POST /api/create-payment-intent.
type CheckoutRequest struct {
	Items    []models.CartItem   `json:"items" binding:"required,min=1,dive"`
	Customer models.CustomerInfo `json:"customer" binding:"required"`
	Total    decimal.Decimal     `json:"total"`
}

type CheckoutResult struct {
	ClientSecret    string `json:"clientSecret"`
	OrderID         string `json:"orderId"`
	PaymentIntentID string `json:"paymentId"`
}

// CreateOrder enregistre la commande en pending puis une ligne par article du
// panier. Un produit introuvable est ignoré et journalisé. Le total reçu est
// conservé tel quel, même s'il diffère du total recalculé.
func (s *Service) CreateOrder(ctx context.Context, customer models.CustomerInfo, items []models.CartItem, total decimal.Decimal) (*models.Order, error) {
	return s.createOrder(ctx, "", customer, items, total)
}

func (s *Service) createOrder(ctx context.Context, id string, customer models.CustomerInfo, items []models.CartItem, total decimal.Decimal) (*models.Order, error) {
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}
	for _, it := range items {
		if it.Quantity < 1 {
			return nil, fmt.Errorf("%w: %s (%d)", ErrInvalidQuantity, it.ProductID, it.Quantity)
		}
	}
	if total.IsNegative() {
		return nil, ErrInvalidTotal
	}

	address, err := json.Marshal(models.ShippingAddress{
		Address:    customer.Address,
		City:       customer.City,
		PostalCode: customer.PostalCode,
		Country:    customer.Country,
	})
	if err != nil {
		return nil, fmt.Errorf("sérialisation adresse: %w", err)
	}

	if computed := cart.Total(items); !computed.Equal(total) {
		log.Printf("⚠️ Total client %s différent du total recalculé %s (%s)", total.StringFixed(2), computed.StringFixed(2), customer.Email)
	}

	order := &models.Order{
		ID:              id,
		CustomerName:    customer.FullName(),
		CustomerEmail:   customer.Email,
		CustomerPhone:   customer.Phone,
		ShippingAddress: string(address),
		Total:           total,
		Status:          models.OrderPending,
		PaymentMethod:   PaymentMethodCard,
	}
	if err := s.orders.CreateOrder(ctx, order); err != nil {
		return nil, fmt.Errorf("création commande: %w", err)
	}

	for _, it := range items {
		product, err := s.products.GetProduct(ctx, it.ProductID)
		if errors.Is(err, store.ErrNotFound) {
			log.Printf("⚠️ Produit %s introuvable, ligne ignorée (commande %s)", it.ProductID, order.ID)
			continue
		}
		if err != nil {
			return order, fmt.Errorf("lecture produit %s: %w", it.ProductID, err)
		}

		line := &models.OrderItem{
			OrderID:     order.ID,
			ProductID:   it.ProductID,
			ProductName: product.Name,
			Quantity:    it.Quantity,
			UnitPrice:   it.Price,
		}
		if err := s.orders.CreateOrderItem(ctx, line); err != nil {
			return order, fmt.Errorf("création ligne %s: %w", it.ProductID, err)
		}
		order.Items = append(order.Items, *line)
	}

	log.Printf("🧾 Commande %s créée (%d lignes, %s)", order.ID, len(order.Items), total.StringFixed(2))
	return order, nil
}

// CreatePaymentIntent crée l'intention de paiement liée à la commande. En cas
// d'échec, la commande est compensée en cancelled.
func (s *Service) CreatePaymentIntent(ctx context.Context, order *models.Order) (*payment.Intent, error) {
	intent, err := s.gateway.CreateIntent(ctx, payment.IntentRequest{
		OrderID:  order.ID,
		Email:    order.CustomerEmail,
		Amount:   order.Total,
		Currency: s.currency,
	})
	if err != nil {
		s.compensate(order.ID)
		return nil, err
	}

	if err := s.orders.SetPaymentIntent(ctx, order.ID, intent.ID); err != nil {
		s.compensate(order.ID)
		return nil, fmt.Errorf("liaison paiement: %w", err)
	}
	order.PaymentIntentID = intent.ID
	return intent, nil
}

func (s *Service) compensate(orderID string) {
	ctx := context.Background()
	if _, err := s.orders.UpdateOrderStatus(ctx, orderID, models.OrderCancelled); err != nil {
		log.Printf("❌ Compensation impossible pour la commande %s: %v", orderID, err)
		return
	}
	log.Printf("↩️ Commande %s annulée (échec paiement)", orderID)
	s.publish(ctx, events.TypeOrderStatusChanged, orderID, events.StatusChangedPayload{OrderID: orderID, Status: string(models.OrderCancelled)})
}

// Checkout enchaîne CreateOrder et CreatePaymentIntent. Avec une clé
// d'idempotence, une deuxième soumission retourne le résultat de la première.
func (s *Service) Checkout(ctx context.Context, req CheckoutRequest, idemKey string) (*CheckoutResult, error) {
	orderID := uuid.NewString()

	if idemKey != "" {
		var previous CheckoutResult
		if s.cache.GetJSON(ctx, fmt.Sprintf(cache.KeyIdemCheckoutResult, idemKey), &previous) {
			log.Printf("🔁 Checkout rejoué pour la clé %s → %s", idemKey, previous.OrderID)
			return &previous, nil
		}
		existing, fresh, err := s.cache.Remember(ctx, fmt.Sprintf(cache.KeyIdemCheckout, idemKey), orderID, cache.TTLIdempotency)
		if err != nil {
			log.Printf("⚠️ Idempotence indisponible: %v", err)
		} else if !fresh {
			log.Printf("⏳ Checkout %s déjà en cours (commande %s)", idemKey, existing)
			return nil, ErrCheckoutInProgress
		}
	}

	order, err := s.createOrder(ctx, orderID, req.Customer, req.Items, req.Total)
	if err != nil {
		s.release(ctx, idemKey)
		return nil, err
	}

	s.publish(ctx, events.TypeOrderCreated, order.ID, events.OrderCreatedPayload{
		OrderID:       order.ID,
		CustomerEmail: order.CustomerEmail,
		Total:         order.Total.StringFixed(2),
		ItemCount:     len(order.Items),
	})

	intent, err := s.CreatePaymentIntent(ctx, order)
	if err != nil {
		s.release(ctx, idemKey)
		return nil, err
	}

	result := &CheckoutResult{ClientSecret: intent.ClientSecret, OrderID: order.ID, PaymentIntentID: intent.ID}
	if idemKey != "" {
		s.cache.SetJSON(ctx, fmt.Sprintf(cache.KeyIdemCheckoutResult, idemKey), result, cache.TTLIdempotency)
	}
	return result, nil
}

// release libère la clé d'idempotence pour qu'un nouvel essai reste possible.
func (s *Service) release(ctx context.Context, idemKey string) {
	if idemKey != "" {
		s.cache.Delete(ctx, fmt.Sprintf(cache.KeyIdemCheckout, idemKey))
	}
}

// UpdateOrderStatus écrase le statut. Toute transition entre statuts connus est acceptée.
func (s *Service) UpdateOrderStatus(ctx context.Context, id string, status models.OrderStatus) (*models.Order, error) {
	order, err := s.setStatus(ctx, id, status)
	if err != nil {
		return nil, err
	}

	if subject, body, err := utils.OrderStatusEmail(*order); err == nil {
		utils.SendAsync(s.mailer, order.CustomerEmail, subject, body)
	} else {
		log.Printf("⚠️ Erreur rendu email statut: %v", err)
	}
	return order, nil
}

func (s *Service) setStatus(ctx context.Context, id string, status models.OrderStatus) (*models.Order, error) {
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}
	order, err := s.orders.UpdateOrderStatus(ctx, id, status)
	if err != nil {
		return nil, err
	}
	log.Printf("✅ Commande %s mise à jour: %s", id, status)
	s.publish(ctx, events.TypeOrderStatusChanged, id, events.StatusChangedPayload{OrderID: id, Status: string(status)})
	return order, nil
}

// GetOrder retourne la commande avec ses lignes.
func (s *Service) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	order, err := s.orders.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	items, err := s.orders.ListOrderItems(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("lecture lignes: %w", err)
	}
	order.Items = items
	return order, nil
}

// GetOrders retourne toutes les commandes, la plus récente en premier.
func (s *Service) GetOrders(ctx context.Context) ([]models.Order, error) {
	return s.orders.ListOrders(ctx)
}

// HandlePaymentEvent applique un événement du webhook : succès → paid,
// échec → journalisé, la commande reste pending.
func (s *Service) HandlePaymentEvent(ctx context.Context, ev *payment.Event) error {
	switch ev.Type {
	case payment.EventSucceeded:
		order, err := s.orderForEvent(ctx, ev)
		if err != nil {
			return err
		}
		if order.Status == models.OrderPaid {
			log.Printf("🔁 Commande %s déjà payée, on ignore.", order.ID)
			return nil
		}
		if _, err := s.setStatus(ctx, order.ID, models.OrderPaid); err != nil {
			return err
		}
		s.publish(ctx, events.TypePaymentSucceeded, order.ID, events.PaymentPayload{OrderID: order.ID, PaymentIntentID: ev.IntentID})

		full, err := s.GetOrder(ctx, order.ID)
		if err != nil {
			return err
		}
		if subject, body, err := utils.OrderConfirmationEmail(*full); err == nil {
			utils.SendAsync(s.mailer, full.CustomerEmail, subject, body)
		}
		return nil

	case payment.EventFailed:
		log.Printf("⚠️ Paiement échoué : %s (commande %s)", ev.IntentID, ev.OrderID)
		s.publish(ctx, events.TypePaymentFailed, ev.OrderID, events.PaymentPayload{OrderID: ev.OrderID, PaymentIntentID: ev.IntentID})
		return nil

	default:
		log.Printf("ℹ️ Événement ignoré : %s", ev.Type)
		return nil
	}
}

func (s *Service) orderForEvent(ctx context.Context, ev *payment.Event) (*models.Order, error) {
	if ev.OrderID != "" {
		order, err := s.orders.GetOrder(ctx, ev.OrderID)
		if err == nil || !errors.Is(err, store.ErrNotFound) {
			return order, err
		}
	}
	return s.orders.GetOrderByPaymentIntent(ctx, ev.IntentID)
}

// Stats agrège les commandes par statut. Le chiffre d'affaires ne compte que
// les commandes payées, expédiées ou livrées.
func (s *Service) Stats(ctx context.Context) (*models.OrderStats, error) {
	list, err := s.orders.ListOrders(ctx)
	if err != nil {
		return nil, err
	}

	stats := &models.OrderStats{
		TotalRevenue: decimal.Zero,
		ByStatus:     make(map[models.OrderStatus]int, len(models.OrderStatuses)),
	}
	for _, st := range models.OrderStatuses {
		stats.ByStatus[st] = 0
	}
	for _, o := range list {
		stats.TotalOrders++
		stats.ByStatus[o.Status]++
		switch o.Status {
		case models.OrderPaid, models.OrderShipped, models.OrderDelivered:
			stats.TotalRevenue = stats.TotalRevenue.Add(o.Total)
		}
	}
	return stats, nil
}

func (s *Service) publish(ctx context.Context, eventType, orderID string, payload any) {
	if err := s.events.Publish(ctx, eventType, orderID, payload); err != nil {
		log.Printf("⚠️ Publication %s échouée pour %s: %v", eventType, orderID, err)
	}
}
