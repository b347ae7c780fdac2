// Package store définit les dépôts de la boutique et leurs implémentations
// (mémoire pour le dev et les tests, ScyllaDB en production).
package store

import (
	"context"
	"errors"

	"verdure_back_end/internal/models"
)

var (
	ErrNotFound      = errors.New("enregistrement introuvable")
	ErrAlreadyExists = errors.New("enregistrement déjà existant")
)

type ProductRepository interface {
	ListProducts(ctx context.Context) ([]models.Product, error)
	GetProduct(ctx context.Context, id string) (*models.Product, error)
	CreateProduct(ctx context.Context, p *models.Product) error
	UpdateProduct(ctx context.Context, p *models.Product) error
	DeleteProduct(ctx context.Context, id string) error
}

type CategoryRepository interface {
	ListCategories(ctx context.Context) ([]models.Category, error)
	GetCategory(ctx context.Context, id string) (*models.Category, error)
	GetCategoryBySlug(ctx context.Context, slug string) (*models.Category, error)
	CreateCategory(ctx context.Context, c *models.Category) error
	UpdateCategory(ctx context.Context, c *models.Category) error
	DeleteCategory(ctx context.Context, id string) error
}

type OrderRepository interface {
	CreateOrder(ctx context.Context, o *models.Order) error
	CreateOrderItem(ctx context.Context, item *models.OrderItem) error
	GetOrder(ctx context.Context, id string) (*models.Order, error)
	ListOrders(ctx context.Context) ([]models.Order, error)
	ListOrderItems(ctx context.Context, orderID string) ([]models.OrderItem, error)
	UpdateOrderStatus(ctx context.Context, id string, status models.OrderStatus) (*models.Order, error)
	SetPaymentIntent(ctx context.Context, id, paymentIntentID string) error
	GetOrderByPaymentIntent(ctx context.Context, paymentIntentID string) (*models.Order, error)
}

type MessagingRepository interface {
	AddChatMessage(ctx context.Context, m *models.ChatMessage) error
	ListChatMessages(ctx context.Context, sessionID string) ([]models.ChatMessage, error)

	AddContact(ctx context.Context, c *models.Contact) error
	ListContacts(ctx context.Context) ([]models.Contact, error)
	MarkContactRead(ctx context.Context, id string) error

	AddSubscriber(ctx context.Context, s *models.NewsletterSubscriber) error
}

type ModerationRepository interface {
	AddReview(ctx context.Context, r *models.Review) error
	ListReviews(ctx context.Context) ([]models.Review, error)
	ApproveReview(ctx context.Context, id string) error
	DeleteReview(ctx context.Context, id string) error

	AddTestimonial(ctx context.Context, t *models.Testimonial) error
	ListTestimonials(ctx context.Context) ([]models.Testimonial, error)
	UpdateTestimonial(ctx context.Context, t *models.Testimonial) error
	ApproveTestimonial(ctx context.Context, id string) error
	DeleteTestimonial(ctx context.Context, id string) error

	ListHeroSlides(ctx context.Context) ([]models.HeroSlide, error)
	SaveHeroSlide(ctx context.Context, s *models.HeroSlide) error
	DeleteHeroSlide(ctx context.Context, id string) error
}

// Store regroupe tous les dépôts derrière une seule valeur injectée au démarrage.
type Store interface {
	ProductRepository
	CategoryRepository
	OrderRepository
	MessagingRepository
	ModerationRepository
}
