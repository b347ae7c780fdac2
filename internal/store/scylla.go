package store

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/gocql/gocql"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"verdure_back_end/internal/models"
)

// Scylla implémente Store sur trois keyspaces : catalogue, commandes et messagerie.
// Les tables sont créées via scripts/scylladb_init.cql.
type Scylla struct {
	catalog   *gocql.Session
	orders    *gocql.Session
	messaging *gocql.Session
}

func NewScylla(catalog, orders, messaging *gocql.Session) *Scylla {
	return &Scylla{catalog: catalog, orders: orders, messaging: messaging}
}

func notFound(err error) error {
	if errors.Is(err, gocql.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

func parseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// =============================================
// PRODUITS
// =============================================

const productColumns = `product_id, name, description, price, image_urls, category_id, stock, is_active, is_featured, created_at, updated_at`

func scanProduct(scan func(dest ...interface{}) bool) (models.Product, bool) {
	var p models.Product
	var price string
	ok := scan(&p.ID, &p.Name, &p.Description, &price, &p.ImageURLs, &p.CategoryID, &p.Stock, &p.IsActive, &p.IsFeatured, &p.CreatedAt, &p.UpdatedAt)
	p.Price = parseDecimal(price)
	return p, ok
}

func (s *Scylla) ListProducts(ctx context.Context) ([]models.Product, error) {
	iter := s.catalog.Query(`SELECT `+productColumns+` FROM products`).WithContext(ctx).Iter()

	products := []models.Product{}
	for {
		p, ok := scanProduct(iter.Scan)
		if !ok {
			break
		}
		products = append(products, p)
	}
	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("lecture produits: %w", err)
	}

	// Scylla ne garantit pas d'ordre entre partitions
	sort.SliceStable(products, func(i, j int) bool { return products[i].CreatedAt.Before(products[j].CreatedAt) })
	return products, nil
}

func (s *Scylla) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	q := s.catalog.Query(`SELECT `+productColumns+` FROM products WHERE product_id = ?`, id).WithContext(ctx)

	var scanErr error
	p, _ := scanProduct(func(dest ...interface{}) bool {
		scanErr = q.Scan(dest...)
		return scanErr == nil
	})
	if scanErr != nil {
		return nil, notFound(scanErr)
	}
	return &p, nil
}

func (s *Scylla) CreateProduct(ctx context.Context, p *models.Product) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := time.Now()
	p.CreatedAt, p.UpdatedAt = now, now
	return s.writeProduct(ctx, p)
}

func (s *Scylla) UpdateProduct(ctx context.Context, p *models.Product) error {
	old, err := s.GetProduct(ctx, p.ID)
	if err != nil {
		return err
	}
	p.CreatedAt = old.CreatedAt
	p.UpdatedAt = time.Now()
	return s.writeProduct(ctx, p)
}

func (s *Scylla) writeProduct(ctx context.Context, p *models.Product) error {
	err := s.catalog.Query(`INSERT INTO products (`+productColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.Description, p.Price.String(), p.ImageURLs, p.CategoryID, p.Stock, p.IsActive, p.IsFeatured, p.CreatedAt, p.UpdatedAt,
	).WithContext(ctx).Exec()
	if err != nil {
		return fmt.Errorf("écriture produit %s: %w", p.ID, err)
	}
	return nil
}

func (s *Scylla) DeleteProduct(ctx context.Context, id string) error {
	if _, err := s.GetProduct(ctx, id); err != nil {
		return err
	}
	return s.catalog.Query(`DELETE FROM products WHERE product_id = ?`, id).WithContext(ctx).Exec()
}

// =============================================
// CATÉGORIES
// =============================================

const categoryColumns = `category_id, name, slug, description, parent_id, sort_order, created_at`

func scanCategory(scan func(dest ...interface{}) bool) (models.Category, bool) {
	var c models.Category
	var parentID string
	ok := scan(&c.ID, &c.Name, &c.Slug, &c.Description, &parentID, &c.SortOrder, &c.CreatedAt)
	if parentID != "" {
		c.ParentID = &parentID
	}
	return c, ok
}

func (s *Scylla) ListCategories(ctx context.Context) ([]models.Category, error) {
	iter := s.catalog.Query(`SELECT ` + categoryColumns + ` FROM categories`).WithContext(ctx).Iter()

	cats := []models.Category{}
	for {
		c, ok := scanCategory(iter.Scan)
		if !ok {
			break
		}
		cats = append(cats, c)
	}
	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("lecture catégories: %w", err)
	}

	sort.Slice(cats, func(i, j int) bool {
		if cats[i].SortOrder != cats[j].SortOrder {
			return cats[i].SortOrder < cats[j].SortOrder
		}
		return cats[i].Name < cats[j].Name
	})
	return cats, nil
}

func (s *Scylla) GetCategory(ctx context.Context, id string) (*models.Category, error) {
	q := s.catalog.Query(`SELECT `+categoryColumns+` FROM categories WHERE category_id = ?`, id).WithContext(ctx)

	var scanErr error
	c, _ := scanCategory(func(dest ...interface{}) bool {
		scanErr = q.Scan(dest...)
		return scanErr == nil
	})
	if scanErr != nil {
		return nil, notFound(scanErr)
	}
	return &c, nil
}

// GetCategoryBySlug parcourt la table : elle reste petite (deux niveaux).
func (s *Scylla) GetCategoryBySlug(ctx context.Context, slug string) (*models.Category, error) {
	cats, err := s.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	for _, c := range cats {
		if strings.EqualFold(c.Slug, slug) {
			return &c, nil
		}
	}
	return nil, ErrNotFound
}

func (s *Scylla) CreateCategory(ctx context.Context, c *models.Category) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	c.CreatedAt = time.Now()
	return s.writeCategory(ctx, c)
}

func (s *Scylla) UpdateCategory(ctx context.Context, c *models.Category) error {
	old, err := s.GetCategory(ctx, c.ID)
	if err != nil {
		return err
	}
	c.CreatedAt = old.CreatedAt
	return s.writeCategory(ctx, c)
}

func (s *Scylla) writeCategory(ctx context.Context, c *models.Category) error {
	parentID := ""
	if c.ParentID != nil {
		parentID = *c.ParentID
	}
	return s.catalog.Query(`INSERT INTO categories (`+categoryColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Name, c.Slug, c.Description, parentID, c.SortOrder, c.CreatedAt,
	).WithContext(ctx).Exec()
}

func (s *Scylla) DeleteCategory(ctx context.Context, id string) error {
	if _, err := s.GetCategory(ctx, id); err != nil {
		return err
	}
	return s.catalog.Query(`DELETE FROM categories WHERE category_id = ?`, id).WithContext(ctx).Exec()
}

// =============================================
// COMMANDES
// =============================================

const orderColumns = `order_id, customer_name, customer_email, customer_phone, shipping_address, total, status, payment_method, payment_intent_id, created_at, updated_at`

func scanOrder(scan func(dest ...interface{}) bool) (models.Order, bool) {
	var o models.Order
	var total, status string
	ok := scan(&o.ID, &o.CustomerName, &o.CustomerEmail, &o.CustomerPhone, &o.ShippingAddress, &total, &status,
		&o.PaymentMethod, &o.PaymentIntentID, &o.CreatedAt, &o.UpdatedAt)
	o.Total = parseDecimal(total)
	o.Status = models.OrderStatus(status)
	return o, ok
}

func (s *Scylla) CreateOrder(ctx context.Context, o *models.Order) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	now := time.Now()
	o.CreatedAt, o.UpdatedAt = now, now

	err := s.orders.Query(`INSERT INTO orders (`+orderColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		o.ID, o.CustomerName, o.CustomerEmail, o.CustomerPhone, o.ShippingAddress, o.Total.String(), string(o.Status),
		o.PaymentMethod, o.PaymentIntentID, o.CreatedAt, o.UpdatedAt,
	).WithContext(ctx).Exec()
	if err != nil {
		return fmt.Errorf("insertion commande: %w", err)
	}
	return nil
}

func (s *Scylla) CreateOrderItem(ctx context.Context, item *models.OrderItem) error {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	return s.orders.Query(`INSERT INTO order_items (order_id, item_id, product_id, product_name, quantity, unit_price) VALUES (?, ?, ?, ?, ?, ?)`,
		item.OrderID, item.ID, item.ProductID, item.ProductName, item.Quantity, item.UnitPrice.String(),
	).WithContext(ctx).Exec()
}

func (s *Scylla) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	q := s.orders.Query(`SELECT `+orderColumns+` FROM orders WHERE order_id = ?`, id).WithContext(ctx)

	var scanErr error
	o, _ := scanOrder(func(dest ...interface{}) bool {
		scanErr = q.Scan(dest...)
		return scanErr == nil
	})
	if scanErr != nil {
		return nil, notFound(scanErr)
	}
	return &o, nil
}

func (s *Scylla) ListOrders(ctx context.Context) ([]models.Order, error) {
	// Attention : scan complet, acceptable pour le volume d'une petite boutique
	iter := s.orders.Query(`SELECT ` + orderColumns + ` FROM orders`).WithContext(ctx).Iter()

	orders := []models.Order{}
	for {
		o, ok := scanOrder(iter.Scan)
		if !ok {
			break
		}
		orders = append(orders, o)
	}
	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("lecture commandes: %w", err)
	}

	sort.SliceStable(orders, func(i, j int) bool { return orders[i].CreatedAt.After(orders[j].CreatedAt) })
	return orders, nil
}

func (s *Scylla) ListOrderItems(ctx context.Context, orderID string) ([]models.OrderItem, error) {
	iter := s.orders.Query(`SELECT item_id, product_id, product_name, quantity, unit_price FROM order_items WHERE order_id = ?`, orderID).
		WithContext(ctx).Iter()

	items := []models.OrderItem{}
	var item models.OrderItem
	var price string
	for iter.Scan(&item.ID, &item.ProductID, &item.ProductName, &item.Quantity, &price) {
		item.OrderID = orderID
		item.UnitPrice = parseDecimal(price)
		items = append(items, item)
		item = models.OrderItem{}
	}
	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("lecture articles commande %s: %w", orderID, err)
	}
	return items, nil
}

func (s *Scylla) UpdateOrderStatus(ctx context.Context, id string, status models.OrderStatus) (*models.Order, error) {
	o, err := s.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	o.Status = status
	o.UpdatedAt = time.Now()

	if err := s.orders.Query(`UPDATE orders SET status = ?, updated_at = ? WHERE order_id = ?`, string(status), o.UpdatedAt, id).
		WithContext(ctx).Exec(); err != nil {
		return nil, fmt.Errorf("mise à jour statut %s: %w", id, err)
	}
	return o, nil
}

func (s *Scylla) SetPaymentIntent(ctx context.Context, id, paymentIntentID string) error {
	if _, err := s.GetOrder(ctx, id); err != nil {
		return err
	}
	if err := s.orders.Query(`UPDATE orders SET payment_intent_id = ?, updated_at = ? WHERE order_id = ?`, paymentIntentID, time.Now(), id).
		WithContext(ctx).Exec(); err != nil {
		return err
	}

	// Index secondaire pour le webhook Stripe
	if err := s.orders.Query(`INSERT INTO orders_by_payment_intent (payment_intent_id, order_id) VALUES (?, ?)`, paymentIntentID, id).
		WithContext(ctx).Exec(); err != nil {
		log.Printf("⚠️ Erreur index orders_by_payment_intent: %v", err)
	}
	return nil
}

func (s *Scylla) GetOrderByPaymentIntent(ctx context.Context, paymentIntentID string) (*models.Order, error) {
	var orderID string
	if err := s.orders.Query(`SELECT order_id FROM orders_by_payment_intent WHERE payment_intent_id = ?`, paymentIntentID).
		WithContext(ctx).Scan(&orderID); err != nil {
		return nil, notFound(err)
	}
	return s.GetOrder(ctx, orderID)
}

// =============================================
// MESSAGERIE
// =============================================

func (s *Scylla) AddChatMessage(ctx context.Context, m *models.ChatMessage) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	m.CreatedAt = time.Now()
	return s.messaging.Query(`INSERT INTO chat_messages (session_id, created_at, message_id, sender, content, is_read) VALUES (?, ?, ?, ?, ?, ?)`,
		m.SessionID, m.CreatedAt, m.ID, m.Sender, m.Content, m.IsRead,
	).WithContext(ctx).Exec()
}

func (s *Scylla) ListChatMessages(ctx context.Context, sessionID string) ([]models.ChatMessage, error) {
	var q *gocql.Query
	if sessionID == "" {
		q = s.messaging.Query(`SELECT session_id, created_at, message_id, sender, content, is_read FROM chat_messages`)
	} else {
		q = s.messaging.Query(`SELECT session_id, created_at, message_id, sender, content, is_read FROM chat_messages WHERE session_id = ?`, sessionID)
	}
	iter := q.WithContext(ctx).Iter()

	msgs := []models.ChatMessage{}
	var m models.ChatMessage
	for iter.Scan(&m.SessionID, &m.CreatedAt, &m.ID, &m.Sender, &m.Content, &m.IsRead) {
		msgs = append(msgs, m)
		m = models.ChatMessage{}
	}
	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("lecture chat: %w", err)
	}

	sort.SliceStable(msgs, func(i, j int) bool { return msgs[i].CreatedAt.Before(msgs[j].CreatedAt) })
	return msgs, nil
}

func (s *Scylla) AddContact(ctx context.Context, c *models.Contact) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	c.CreatedAt = time.Now()
	return s.messaging.Query(`INSERT INTO contacts (contact_id, name, email, phone, subject, message, is_read, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Name, c.Email, c.Phone, c.Subject, c.Message, c.IsRead, c.CreatedAt,
	).WithContext(ctx).Exec()
}

func (s *Scylla) ListContacts(ctx context.Context) ([]models.Contact, error) {
	iter := s.messaging.Query(`SELECT contact_id, name, email, phone, subject, message, is_read, created_at FROM contacts`).
		WithContext(ctx).Iter()

	contacts := []models.Contact{}
	var c models.Contact
	for iter.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.Subject, &c.Message, &c.IsRead, &c.CreatedAt) {
		contacts = append(contacts, c)
		c = models.Contact{}
	}
	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("lecture contacts: %w", err)
	}

	sort.SliceStable(contacts, func(i, j int) bool { return contacts[i].CreatedAt.Before(contacts[j].CreatedAt) })
	return contacts, nil
}

func (s *Scylla) MarkContactRead(ctx context.Context, id string) error {
	applied, err := s.messaging.Query(`UPDATE contacts SET is_read = true WHERE contact_id = ? IF EXISTS`, id).
		WithContext(ctx).MapScanCAS(map[string]interface{}{})
	if err != nil {
		return err
	}
	if !applied {
		return ErrNotFound
	}
	return nil
}

func (s *Scylla) AddSubscriber(ctx context.Context, sub *models.NewsletterSubscriber) error {
	sub.CreatedAt = time.Now()
	applied, err := s.messaging.Query(`INSERT INTO newsletter_subscribers (email, created_at) VALUES (?, ?) IF NOT EXISTS`,
		strings.ToLower(sub.Email), sub.CreatedAt,
	).WithContext(ctx).MapScanCAS(map[string]interface{}{})
	if err != nil {
		return err
	}
	if !applied {
		return ErrAlreadyExists
	}
	return nil
}

// =============================================
// MODÉRATION
// =============================================

func (s *Scylla) AddReview(ctx context.Context, r *models.Review) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	r.CreatedAt = time.Now()
	return s.messaging.Query(`INSERT INTO reviews (review_id, product_id, author_name, rating, comment, is_approved, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.ProductID, r.AuthorName, r.Rating, r.Comment, r.IsApproved, r.CreatedAt,
	).WithContext(ctx).Exec()
}

func (s *Scylla) ListReviews(ctx context.Context) ([]models.Review, error) {
	iter := s.messaging.Query(`SELECT review_id, product_id, author_name, rating, comment, is_approved, created_at FROM reviews`).
		WithContext(ctx).Iter()

	reviews := []models.Review{}
	var r models.Review
	for iter.Scan(&r.ID, &r.ProductID, &r.AuthorName, &r.Rating, &r.Comment, &r.IsApproved, &r.CreatedAt) {
		reviews = append(reviews, r)
		r = models.Review{}
	}
	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("lecture avis: %w", err)
	}

	sort.SliceStable(reviews, func(i, j int) bool { return reviews[i].CreatedAt.Before(reviews[j].CreatedAt) })
	return reviews, nil
}

func (s *Scylla) ApproveReview(ctx context.Context, id string) error {
	return s.casUpdate(ctx, `UPDATE reviews SET is_approved = true WHERE review_id = ? IF EXISTS`, id)
}

func (s *Scylla) DeleteReview(ctx context.Context, id string) error {
	return s.casUpdate(ctx, `DELETE FROM reviews WHERE review_id = ? IF EXISTS`, id)
}

func (s *Scylla) AddTestimonial(ctx context.Context, t *models.Testimonial) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	t.CreatedAt = time.Now()
	return s.writeTestimonial(ctx, t)
}

func (s *Scylla) writeTestimonial(ctx context.Context, t *models.Testimonial) error {
	return s.messaging.Query(`INSERT INTO testimonials (testimonial_id, author_name, location, content, rating, is_approved, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.AuthorName, t.Location, t.Content, t.Rating, t.IsApproved, t.CreatedAt,
	).WithContext(ctx).Exec()
}

func (s *Scylla) ListTestimonials(ctx context.Context) ([]models.Testimonial, error) {
	iter := s.messaging.Query(`SELECT testimonial_id, author_name, location, content, rating, is_approved, created_at FROM testimonials`).
		WithContext(ctx).Iter()

	out := []models.Testimonial{}
	var t models.Testimonial
	for iter.Scan(&t.ID, &t.AuthorName, &t.Location, &t.Content, &t.Rating, &t.IsApproved, &t.CreatedAt) {
		out = append(out, t)
		t = models.Testimonial{}
	}
	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("lecture témoignages: %w", err)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Scylla) UpdateTestimonial(ctx context.Context, t *models.Testimonial) error {
	var createdAt time.Time
	if err := s.messaging.Query(`SELECT created_at FROM testimonials WHERE testimonial_id = ?`, t.ID).
		WithContext(ctx).Scan(&createdAt); err != nil {
		return notFound(err)
	}
	t.CreatedAt = createdAt
	return s.writeTestimonial(ctx, t)
}

func (s *Scylla) ApproveTestimonial(ctx context.Context, id string) error {
	return s.casUpdate(ctx, `UPDATE testimonials SET is_approved = true WHERE testimonial_id = ? IF EXISTS`, id)
}

func (s *Scylla) DeleteTestimonial(ctx context.Context, id string) error {
	return s.casUpdate(ctx, `DELETE FROM testimonials WHERE testimonial_id = ? IF EXISTS`, id)
}

func (s *Scylla) ListHeroSlides(ctx context.Context) ([]models.HeroSlide, error) {
	iter := s.catalog.Query(`SELECT slide_id, title, subtitle, image_url, link_url, sort_order, is_active, created_at FROM hero_slides`).
		WithContext(ctx).Iter()

	slides := []models.HeroSlide{}
	var sl models.HeroSlide
	for iter.Scan(&sl.ID, &sl.Title, &sl.Subtitle, &sl.ImageURL, &sl.LinkURL, &sl.SortOrder, &sl.IsActive, &sl.CreatedAt) {
		slides = append(slides, sl)
		sl = models.HeroSlide{}
	}
	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("lecture slides: %w", err)
	}

	sortSlides(slides)
	return slides, nil
}

func (s *Scylla) SaveHeroSlide(ctx context.Context, sl *models.HeroSlide) error {
	if sl.ID == "" {
		sl.ID = uuid.NewString()
		sl.CreatedAt = time.Now()
	} else {
		var createdAt time.Time
		if err := s.catalog.Query(`SELECT created_at FROM hero_slides WHERE slide_id = ?`, sl.ID).
			WithContext(ctx).Scan(&createdAt); err != nil {
			return notFound(err)
		}
		sl.CreatedAt = createdAt
	}
	return s.catalog.Query(`INSERT INTO hero_slides (slide_id, title, subtitle, image_url, link_url, sort_order, is_active, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		sl.ID, sl.Title, sl.Subtitle, sl.ImageURL, sl.LinkURL, sl.SortOrder, sl.IsActive, sl.CreatedAt,
	).WithContext(ctx).Exec()
}

func (s *Scylla) DeleteHeroSlide(ctx context.Context, id string) error {
	applied, err := s.catalog.Query(`DELETE FROM hero_slides WHERE slide_id = ? IF EXISTS`, id).
		WithContext(ctx).MapScanCAS(map[string]interface{}{})
	if err != nil {
		return err
	}
	if !applied {
		return ErrNotFound
	}
	return nil
}

// casUpdate exécute une requête LWT "IF EXISTS" sur le keyspace messagerie.
func (s *Scylla) casUpdate(ctx context.Context, stmt string, id string) error {
	applied, err := s.messaging.Query(stmt, id).WithContext(ctx).MapScanCAS(map[string]interface{}{})
	if err != nil {
		return err
	}
	if !applied {
		return ErrNotFound
	}
	return nil
}
