package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"verdure_back_end/internal/models"
)

// Memory est le stockage en mémoire : des maps indexées par identifiant et des
// parcours linéaires. Les slices d'ordre conservent l'ordre d'insertion.
type Memory struct {
	mu sync.RWMutex

	products   map[string]models.Product
	productIDs []string

	categories map[string]models.Category

	orders     map[string]models.Order
	orderIDs   []string
	orderItems map[string][]models.OrderItem

	chat        []models.ChatMessage
	contacts    []models.Contact
	subscribers map[string]models.NewsletterSubscriber

	reviews      []models.Review
	testimonials []models.Testimonial
	slides       map[string]models.HeroSlide

	now func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		products:    make(map[string]models.Product),
		categories:  make(map[string]models.Category),
		orders:      make(map[string]models.Order),
		orderItems:  make(map[string][]models.OrderItem),
		subscribers: make(map[string]models.NewsletterSubscriber),
		slides:      make(map[string]models.HeroSlide),
		now:         time.Now,
	}
}

// --- Produits ---

func (m *Memory) ListProducts(_ context.Context) ([]models.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.Product, 0, len(m.productIDs))
	for _, id := range m.productIDs {
		out = append(out, cloneProduct(m.products[id]))
	}
	return out, nil
}

func (m *Memory) GetProduct(_ context.Context, id string) (*models.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.products[id]
	if !ok {
		return nil, ErrNotFound
	}
	p = cloneProduct(p)
	return &p, nil
}

func (m *Memory) CreateProduct(_ context.Context, p *models.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if _, exists := m.products[p.ID]; exists {
		return ErrAlreadyExists
	}
	now := m.now()
	p.CreatedAt, p.UpdatedAt = now, now
	m.products[p.ID] = cloneProduct(*p)
	m.productIDs = append(m.productIDs, p.ID)
	return nil
}

func (m *Memory) UpdateProduct(_ context.Context, p *models.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	old, ok := m.products[p.ID]
	if !ok {
		return ErrNotFound
	}
	p.CreatedAt = old.CreatedAt
	p.UpdatedAt = m.now()
	m.products[p.ID] = cloneProduct(*p)
	return nil
}

func (m *Memory) DeleteProduct(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.products[id]; !ok {
		return ErrNotFound
	}
	delete(m.products, id)
	m.productIDs = removeID(m.productIDs, id)
	return nil
}

// --- Catégories ---

func (m *Memory) ListCategories(_ context.Context) ([]models.Category, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.Category, 0, len(m.categories))
	for _, c := range m.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SortOrder != out[j].SortOrder {
			return out[i].SortOrder < out[j].SortOrder
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (m *Memory) GetCategory(_ context.Context, id string) (*models.Category, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.categories[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &c, nil
}

func (m *Memory) GetCategoryBySlug(_ context.Context, slug string) (*models.Category, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, c := range m.categories {
		if strings.EqualFold(c.Slug, slug) {
			return &c, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) CreateCategory(_ context.Context, c *models.Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if _, exists := m.categories[c.ID]; exists {
		return ErrAlreadyExists
	}
	c.CreatedAt = m.now()
	m.categories[c.ID] = *c
	return nil
}

func (m *Memory) UpdateCategory(_ context.Context, c *models.Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	old, ok := m.categories[c.ID]
	if !ok {
		return ErrNotFound
	}
	c.CreatedAt = old.CreatedAt
	m.categories[c.ID] = *c
	return nil
}

func (m *Memory) DeleteCategory(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.categories[id]; !ok {
		return ErrNotFound
	}
	delete(m.categories, id)
	return nil
}

// --- Commandes ---

func (m *Memory) CreateOrder(_ context.Context, o *models.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	now := m.now()
	o.CreatedAt, o.UpdatedAt = now, now
	stored := *o
	stored.Items = nil
	m.orders[o.ID] = stored
	m.orderIDs = append(m.orderIDs, o.ID)
	return nil
}

func (m *Memory) CreateOrderItem(_ context.Context, item *models.OrderItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.orders[item.OrderID]; !ok {
		return ErrNotFound
	}
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	m.orderItems[item.OrderID] = append(m.orderItems[item.OrderID], *item)
	return nil
}

func (m *Memory) GetOrder(_ context.Context, id string) (*models.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	o, ok := m.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &o, nil
}

// ListOrders retourne les commandes, la plus récente en premier.
func (m *Memory) ListOrders(_ context.Context) ([]models.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.Order, 0, len(m.orderIDs))
	for i := len(m.orderIDs) - 1; i >= 0; i-- {
		out = append(out, m.orders[m.orderIDs[i]])
	}
	return out, nil
}

func (m *Memory) ListOrderItems(_ context.Context, orderID string) ([]models.OrderItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	items := m.orderItems[orderID]
	out := make([]models.OrderItem, len(items))
	copy(out, items)
	return out, nil
}

func (m *Memory) UpdateOrderStatus(_ context.Context, id string, status models.OrderStatus) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	o, ok := m.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	o.Status = status
	o.UpdatedAt = m.now()
	m.orders[id] = o
	return &o, nil
}

func (m *Memory) SetPaymentIntent(_ context.Context, id, paymentIntentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	o, ok := m.orders[id]
	if !ok {
		return ErrNotFound
	}
	o.PaymentIntentID = paymentIntentID
	o.UpdatedAt = m.now()
	m.orders[id] = o
	return nil
}

func (m *Memory) GetOrderByPaymentIntent(_ context.Context, paymentIntentID string) (*models.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, o := range m.orders {
		if paymentIntentID != "" && o.PaymentIntentID == paymentIntentID {
			return &o, nil
		}
	}
	return nil, ErrNotFound
}

// --- Messagerie ---

func (m *Memory) AddChatMessage(_ context.Context, msg *models.ChatMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	msg.CreatedAt = m.now()
	m.chat = append(m.chat, *msg)
	return nil
}

// ListChatMessages retourne les messages dans l'ordre d'insertion. Une session vide
// retourne tout le journal (vue admin).
func (m *Memory) ListChatMessages(_ context.Context, sessionID string) ([]models.ChatMessage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []models.ChatMessage{}
	for _, msg := range m.chat {
		if sessionID == "" || msg.SessionID == sessionID {
			out = append(out, msg)
		}
	}
	return out, nil
}

func (m *Memory) AddContact(_ context.Context, c *models.Contact) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	c.CreatedAt = m.now()
	m.contacts = append(m.contacts, *c)
	return nil
}

func (m *Memory) ListContacts(_ context.Context) ([]models.Contact, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.Contact, len(m.contacts))
	copy(out, m.contacts)
	return out, nil
}

func (m *Memory) MarkContactRead(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.contacts {
		if m.contacts[i].ID == id {
			m.contacts[i].IsRead = true
			return nil
		}
	}
	return ErrNotFound
}

func (m *Memory) AddSubscriber(_ context.Context, s *models.NewsletterSubscriber) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := strings.ToLower(s.Email)
	if _, exists := m.subscribers[key]; exists {
		return ErrAlreadyExists
	}
	s.CreatedAt = m.now()
	m.subscribers[key] = *s
	return nil
}

// --- Modération ---

func (m *Memory) AddReview(_ context.Context, r *models.Review) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	r.CreatedAt = m.now()
	m.reviews = append(m.reviews, *r)
	return nil
}

func (m *Memory) ListReviews(_ context.Context) ([]models.Review, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.Review, len(m.reviews))
	copy(out, m.reviews)
	return out, nil
}

func (m *Memory) ApproveReview(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.reviews {
		if m.reviews[i].ID == id {
			m.reviews[i].IsApproved = true
			return nil
		}
	}
	return ErrNotFound
}

func (m *Memory) DeleteReview(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.reviews {
		if m.reviews[i].ID == id {
			m.reviews = append(m.reviews[:i], m.reviews[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (m *Memory) AddTestimonial(_ context.Context, t *models.Testimonial) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	t.CreatedAt = m.now()
	m.testimonials = append(m.testimonials, *t)
	return nil
}

func (m *Memory) ListTestimonials(_ context.Context) ([]models.Testimonial, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.Testimonial, len(m.testimonials))
	copy(out, m.testimonials)
	return out, nil
}

func (m *Memory) UpdateTestimonial(_ context.Context, t *models.Testimonial) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.testimonials {
		if m.testimonials[i].ID == t.ID {
			t.CreatedAt = m.testimonials[i].CreatedAt
			m.testimonials[i] = *t
			return nil
		}
	}
	return ErrNotFound
}

func (m *Memory) ApproveTestimonial(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.testimonials {
		if m.testimonials[i].ID == id {
			m.testimonials[i].IsApproved = true
			return nil
		}
	}
	return ErrNotFound
}

func (m *Memory) DeleteTestimonial(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.testimonials {
		if m.testimonials[i].ID == id {
			m.testimonials = append(m.testimonials[:i], m.testimonials[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (m *Memory) ListHeroSlides(_ context.Context) ([]models.HeroSlide, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.HeroSlide, 0, len(m.slides))
	for _, s := range m.slides {
		out = append(out, s)
	}
	sortSlides(out)
	return out, nil
}

// SaveHeroSlide crée la slide si son ID est vide, sinon la remplace.
func (m *Memory) SaveHeroSlide(_ context.Context, s *models.HeroSlide) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s.ID == "" {
		s.ID = uuid.NewString()
		s.CreatedAt = m.now()
	} else {
		old, ok := m.slides[s.ID]
		if !ok {
			return ErrNotFound
		}
		s.CreatedAt = old.CreatedAt
	}
	m.slides[s.ID] = *s
	return nil
}

func (m *Memory) DeleteHeroSlide(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.slides[id]; !ok {
		return ErrNotFound
	}
	delete(m.slides, id)
	return nil
}

func cloneProduct(p models.Product) models.Product {
	if p.ImageURLs != nil {
		p.ImageURLs = append([]string(nil), p.ImageURLs...)
	}
	return p
}

func removeID(ids []string, id string) []string {
	for i, v := range ids {
		if v == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}

func sortSlides(slides []models.HeroSlide) {
	sort.SliceStable(slides, func(i, j int) bool {
		if slides[i].SortOrder != slides[j].SortOrder {
			return slides[i].SortOrder < slides[j].SortOrder
		}
		return slides[i].CreatedAt.Before(slides[j].CreatedAt)
	})
}
