package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"verdure_back_end/internal/cache"
	"verdure_back_end/internal/cart"
	"verdure_back_end/internal/catalog"
	"verdure_back_end/internal/handlers"
	"verdure_back_end/internal/messaging"
	"verdure_back_end/internal/models"
	"verdure_back_end/internal/orders"
	"verdure_back_end/internal/payment"
	"verdure_back_end/internal/routes"
	"verdure_back_end/internal/store"
	"verdure_back_end/internal/uploads"
	"verdure_back_end/internal/utils"
)

const testSecret = "test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeGateway struct {
	mu sync.Mutex
	n  int
}

func (g *fakeGateway) CreateIntent(_ context.Context, _ payment.IntentRequest) (*payment.Intent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return &payment.Intent{ID: fmt.Sprintf("pi_%d", g.n), ClientSecret: fmt.Sprintf("pi_%d_secret", g.n)}, nil
}

type env struct {
	router  *gin.Engine
	mem     *store.Memory
	gateway *fakeGateway
	product models.Product
	token   string
}

func newEnv(t *testing.T) *env {
	t.Helper()

	mr := miniredis.RunT(t)
	c := cache.New(redis.NewClient(&redis.Options{Addr: mr.Addr()}))

	mem := store.NewMemory()
	ctx := context.Background()
	p := models.Product{Name: "Miel de lavande", Price: decimal.RequireFromString("24.99"), IsActive: true}
	require.NoError(t, mem.CreateProduct(ctx, &p))

	hash, err := utils.HashPassword("s3cret!")
	require.NoError(t, err)

	gw := &fakeGateway{}
	catalogSvc := catalog.NewService(mem, mem, c, nil)
	orderSvc := orders.NewService(orders.Deps{
		Orders:   mem,
		Products: mem,
		Gateway:  gw,
		Cache:    c,
		Mailer:   utils.LogMailer{},
	})
	messagingSvc := messaging.NewService(mem, mem, nil, utils.LogMailer{}, "shop@verdure.test")

	local, err := uploads.NewLocal(t.TempDir())
	require.NoError(t, err)

	r := gin.New()
	routes.RegisterRoutes(r, routes.Handlers{
		Auth:      handlers.NewAuthHandler(testSecret, "admin@verdure.test", hash),
		Catalog:   handlers.NewCatalogHandler(catalogSvc),
		Cart:      handlers.NewCartHandler(cart.NewMemoryPersister(), catalogSvc),
		Orders:    handlers.NewOrderHandler(orderSvc, "", "https://verdure.test"),
		Messaging: handlers.NewMessagingHandler(messagingSvc),
		Chat:      handlers.NewChatSocket(messagingSvc.Hub(), nil),
		Uploads:   handlers.NewUploadHandler(uploads.NewService(local), local, nil),
	}, routes.Options{JWTSecret: testSecret, CORSOrigins: []string{"http://localhost:5173"}, Cache: c})

	token, err := utils.GenerateJWT(testSecret, models.User{ID: "admin", Email: "admin@verdure.test", Role: "admin"})
	require.NoError(t, err)

	return &env{router: r, mem: mem, gateway: gw, product: p, token: token}
}

func (e *env) do(method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *env) admin() map[string]string {
	return map[string]string{"Authorization": "Bearer " + e.token}
}

func (e *env) checkoutBody() map[string]any {
	return map[string]any{
		"items": []map[string]any{
			{"product_id": e.product.ID, "name": e.product.Name, "price": "24.99", "quantity": 1},
		},
		"customer": map[string]any{
			"first_name": "Léa", "last_name": "Martin", "email": "lea@example.com",
			"address": "3 rue des Lilas", "city": "Lyon", "postal_code": "69003",
		},
		"total": "24.99",
	}
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestHealthz(t *testing.T) {
	e := newEnv(t)
	w := e.do(http.MethodGet, "/healthz", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCreatePaymentIntent(t *testing.T) {
	e := newEnv(t)

	w := e.do(http.MethodPost, "/api/create-payment-intent", e.checkoutBody(), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	res := decode[orders.CheckoutResult](t, w)
	assert.Equal(t, "pi_1_secret", res.ClientSecret)
	assert.Equal(t, "pi_1", res.PaymentIntentID)
	assert.NotEmpty(t, res.OrderID)

	order, err := e.mem.GetOrder(context.Background(), res.OrderID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderPending, order.Status)
	assert.Equal(t, "pi_1", order.PaymentIntentID)
}

func TestCreatePaymentIntentIdempotencyKey(t *testing.T) {
	e := newEnv(t)
	headers := map[string]string{"Idempotency-Key": "checkout-abc"}

	first := decode[orders.CheckoutResult](t, e.do(http.MethodPost, "/api/create-payment-intent", e.checkoutBody(), headers))
	second := decode[orders.CheckoutResult](t, e.do(http.MethodPost, "/api/create-payment-intent", e.checkoutBody(), headers))

	assert.Equal(t, first.OrderID, second.OrderID)
	assert.Equal(t, 1, e.gateway.n)

	list, err := e.mem.ListOrders(context.Background())
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestCreatePaymentIntentValidation(t *testing.T) {
	e := newEnv(t)
	body := e.checkoutBody()
	delete(body["customer"].(map[string]any), "email")

	w := e.do(http.MethodPost, "/api/create-payment-intent", body, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)

	res := decode[struct {
		Fields []handlers.FieldError `json:"fields"`
	}](t, w)
	require.Len(t, res.Fields, 1)
	assert.Equal(t, "customer.email", res.Fields[0].Field)
	assert.Equal(t, 0, e.gateway.n)
}

func TestCreatePaymentIntentEmptyCart(t *testing.T) {
	e := newEnv(t)
	body := e.checkoutBody()
	body["items"] = []map[string]any{}

	w := e.do(http.MethodPost, "/api/create-payment-intent", body, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCheckoutRejectsNonPositiveQuantity(t *testing.T) {
	e := newEnv(t)

	for _, path := range []string{"/api/create-payment-intent", "/api/orders"} {
		for _, qty := range []int{0, -3} {
			body := e.checkoutBody()
			line := body["items"].([]map[string]any)[0]
			line["quantity"] = qty
			body["total"] = decimal.RequireFromString("24.99").Mul(decimal.NewFromInt(int64(qty))).String()

			w := e.do(http.MethodPost, path, body, nil)
			require.Equal(t, http.StatusBadRequest, w.Code, "%s quantité %d: %s", path, qty, w.Body.String())
			res := decode[struct {
				Fields []handlers.FieldError `json:"fields"`
			}](t, w)
			require.Len(t, res.Fields, 1)
			assert.Equal(t, "items[0].quantity", res.Fields[0].Field)
		}
	}

	all, err := e.mem.ListOrders(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)
	assert.Equal(t, 0, e.gateway.n)
}

func TestCheckoutRejectsNegativeTotal(t *testing.T) {
	e := newEnv(t)
	body := e.checkoutBody()
	body["total"] = "-24.99"

	w := e.do(http.MethodPost, "/api/orders", body, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())

	w = e.do(http.MethodPost, "/api/create-payment-intent", body, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
	assert.Equal(t, 0, e.gateway.n)
}

func TestOrderStatusRequiresAdmin(t *testing.T) {
	e := newEnv(t)

	w := e.do(http.MethodPost, "/api/orders", e.checkoutBody(), nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	order := decode[models.Order](t, w)

	w = e.do(http.MethodPut, "/api/orders/"+order.ID+"/status", gin.H{"status": "shipped"}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = e.do(http.MethodPut, "/api/orders/"+order.ID+"/status", gin.H{"status": "shipped"}, e.admin())
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, models.OrderShipped, decode[models.Order](t, w).Status)

	w = e.do(http.MethodPut, "/api/orders/"+order.ID+"/status", gin.H{"status": "lost"}, e.admin())
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "valid_statuses")

	w = e.do(http.MethodPut, "/api/orders/missing/status", gin.H{"status": "paid"}, e.admin())
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetOrderWithItems(t *testing.T) {
	e := newEnv(t)
	order := decode[models.Order](t, e.do(http.MethodPost, "/api/orders", e.checkoutBody(), nil))

	w := e.do(http.MethodGet, "/api/orders/"+order.ID, nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[models.Order](t, w)
	require.Len(t, got.Items, 1)
	assert.True(t, got.Items[0].UnitPrice.Equal(decimal.RequireFromString("24.99")))

	w = e.do(http.MethodGet, "/api/orders/"+order.ID+"/qrcode", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))

	w = e.do(http.MethodGet, "/api/orders/stats", nil, e.admin())
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, decode[models.OrderStats](t, w).TotalOrders)
}

func TestStripeWebhookMarksOrderPaid(t *testing.T) {
	e := newEnv(t)
	res := decode[orders.CheckoutResult](t, e.do(http.MethodPost, "/api/create-payment-intent", e.checkoutBody(), nil))

	event := fmt.Sprintf(`{"id":"evt_1","object":"event","type":"payment_intent.succeeded",
		"data":{"object":{"id":%q,"object":"payment_intent","amount":2499,"metadata":{"order_id":%q}}}}`,
		res.PaymentIntentID, res.OrderID)
	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/stripe", strings.NewReader(event))
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	order, err := e.mem.GetOrder(context.Background(), res.OrderID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderPaid, order.Status)
}

func TestStripeWebhookUnknownOrder(t *testing.T) {
	e := newEnv(t)
	event := `{"id":"evt_2","object":"event","type":"payment_intent.succeeded",
		"data":{"object":{"id":"pi_unknown","object":"payment_intent","metadata":{"order_id":"nope"}}}}`

	w := e.do(http.MethodPost, "/api/webhooks/stripe", json.RawMessage(event), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = e.do(http.MethodPost, "/api/webhooks/stripe", json.RawMessage(`"pas un objet"`), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCartEndpoints(t *testing.T) {
	e := newEnv(t)
	session := map[string]string{handlers.CartSessionHeader: "visitor-1"}

	w := e.do(http.MethodGet, "/api/cart", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	for i := 0; i < 2; i++ {
		w = e.do(http.MethodPost, "/api/cart/items", gin.H{"product_id": e.product.ID}, session)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}

	type view struct {
		Items []models.CartItem `json:"items"`
		Total decimal.Decimal   `json:"total"`
		Count int               `json:"count"`
	}
	got := decode[view](t, e.do(http.MethodGet, "/api/cart", nil, session))
	require.Len(t, got.Items, 1)
	assert.Equal(t, 2, got.Items[0].Quantity)
	assert.Equal(t, "Miel de lavande", got.Items[0].Name)
	assert.Equal(t, 2, got.Count)
	assert.True(t, got.Total.Equal(decimal.RequireFromString("49.98")))

	got = decode[view](t, e.do(http.MethodPut, "/api/cart/items/"+e.product.ID, gin.H{"quantity": 0}, session))
	assert.Empty(t, got.Items)

	w = e.do(http.MethodPost, "/api/cart/items", gin.H{"product_id": "missing"}, session)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCartConcurrentAddsAreNotLost(t *testing.T) {
	e := newEnv(t)
	session := map[string]string{handlers.CartSessionHeader: "visitor-busy"}
	const n = 50

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w := e.do(http.MethodPost, "/api/cart/items", gin.H{"product_id": e.product.ID}, session)
			assert.Equal(t, http.StatusOK, w.Code)
		}()
	}
	wg.Wait()

	got := decode[struct {
		Items []models.CartItem `json:"items"`
		Count int               `json:"count"`
	}](t, e.do(http.MethodGet, "/api/cart", nil, session))
	require.Len(t, got.Items, 1)
	assert.Equal(t, n, got.Items[0].Quantity)
	assert.Equal(t, n, got.Count)
}

func TestCatalogRoutes(t *testing.T) {
	e := newEnv(t)

	w := e.do(http.MethodGet, "/api/products/search", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = e.do(http.MethodGet, "/api/products/search?q=%20%20", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = e.do(http.MethodGet, "/api/products/search?q=lavande", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]models.Product](t, w), 1)

	w = e.do(http.MethodPost, "/api/products", gin.H{"name": "Savon", "price": "6.50", "is_active": true}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = e.do(http.MethodPost, "/api/products", gin.H{"name": "Savon", "price": "6.50", "is_active": true}, e.admin())
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = e.do(http.MethodPost, "/api/products", gin.H{"name": "Savon", "category_id": "ghost"}, e.admin())
	assert.Equal(t, http.StatusBadRequest, w.Code)

	assert.Len(t, decode[[]models.Product](t, e.do(http.MethodGet, "/api/products", nil, nil)), 2)
}

func TestLogin(t *testing.T) {
	e := newEnv(t)

	w := e.do(http.MethodPost, "/api/auth/login", gin.H{"email": "ADMIN@verdure.test", "password": "s3cret!"}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	token := decode[struct {
		Token string `json:"token"`
	}](t, w).Token
	require.NotEmpty(t, token)

	w = e.do(http.MethodGet, "/api/auth/me", nil, map[string]string{"Authorization": "Bearer " + token})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"role":"admin"`)

	w = e.do(http.MethodPost, "/api/auth/login", gin.H{"email": "admin@verdure.test", "password": "wrong"}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestNewsletterIdempotent(t *testing.T) {
	e := newEnv(t)

	w := e.do(http.MethodPost, "/api/newsletter", gin.H{"email": "Lea@Example.com"}, nil)
	assert.Equal(t, http.StatusCreated, w.Code)

	w = e.do(http.MethodPost, "/api/newsletter", gin.H{"email": "lea@example.com"}, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = e.do(http.MethodPost, "/api/newsletter", gin.H{"email": "pas-un-email"}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestChatMessages(t *testing.T) {
	e := newEnv(t)

	w := e.do(http.MethodPost, "/api/chat/messages", gin.H{"session_id": "s1", "content": " Bonjour ", "sender": "admin"}, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	msg := decode[models.ChatMessage](t, w)
	assert.Equal(t, messaging.SenderVisitor, msg.Sender)
	assert.Equal(t, "Bonjour", msg.Content)

	w = e.do(http.MethodPost, "/api/admin/chat/messages", gin.H{"session_id": "s1", "content": "Bienvenue"}, e.admin())
	require.Equal(t, http.StatusCreated, w.Code)

	list := decode[[]models.ChatMessage](t, e.do(http.MethodGet, "/api/chat/messages?session_id=s1", nil, nil))
	require.Len(t, list, 2)
	assert.Equal(t, messaging.SenderAdmin, list[1].Sender)

	w = e.do(http.MethodGet, "/api/chat/messages", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = e.do(http.MethodGet, "/api/chat/messages?session_id=s1&since=hier", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReviewModeration(t *testing.T) {
	e := newEnv(t)

	w := e.do(http.MethodPost, "/api/reviews", gin.H{
		"product_id": e.product.ID, "author_name": "Paul", "rating": 5, "comment": "Parfait", "is_approved": true,
	}, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	id := decode[struct {
		ID string `json:"id"`
	}](t, w).ID

	assert.Empty(t, decode[[]models.Review](t, e.do(http.MethodGet, "/api/reviews?product_id="+e.product.ID, nil, nil)))

	w = e.do(http.MethodPut, "/api/reviews/"+id+"/approve", nil, e.admin())
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]models.Review](t, e.do(http.MethodGet, "/api/reviews?product_id="+e.product.ID, nil, nil)), 1)

	w = e.do(http.MethodPost, "/api/reviews", gin.H{"product_id": e.product.ID, "author_name": "Paul", "rating": 9, "comment": "x"}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestContactAdminList(t *testing.T) {
	e := newEnv(t)

	w := e.do(http.MethodPost, "/api/contact", gin.H{"name": "Léa", "email": "lea@example.com", "message": "Livrez-vous en Belgique ?"}, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = e.do(http.MethodGet, "/api/contact", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	list := decode[[]models.Contact](t, e.do(http.MethodGet, "/api/contact", nil, e.admin()))
	require.Len(t, list, 1)

	w = e.do(http.MethodPut, "/api/contact/"+list[0].ID+"/read", nil, e.admin())
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHeroSlides(t *testing.T) {
	e := newEnv(t)

	w := e.do(http.MethodPost, "/api/hero-slides", gin.H{"title": "Printemps", "image_url": "/uploads/a.png", "is_active": true}, e.admin())
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	w = e.do(http.MethodPost, "/api/hero-slides", gin.H{"title": "Brouillon", "image_url": "/uploads/b.png"}, e.admin())
	require.Equal(t, http.StatusCreated, w.Code)

	assert.Len(t, decode[[]models.HeroSlide](t, e.do(http.MethodGet, "/api/hero-slides", nil, nil)), 1)
	assert.Len(t, decode[[]models.HeroSlide](t, e.do(http.MethodGet, "/api/admin/hero-slides", nil, e.admin())), 2)
}

func TestHeroSlidePostIgnoresBodyID(t *testing.T) {
	e := newEnv(t)

	w := e.do(http.MethodPost, "/api/hero-slides", gin.H{"title": "Printemps", "image_url": "/uploads/a.png"}, e.admin())
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	first := decode[models.HeroSlide](t, w)

	w = e.do(http.MethodPost, "/api/hero-slides", gin.H{"id": first.ID, "title": "Été", "image_url": "/uploads/b.png"}, e.admin())
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	second := decode[models.HeroSlide](t, w)
	assert.NotEqual(t, first.ID, second.ID)

	all := decode[[]models.HeroSlide](t, e.do(http.MethodGet, "/api/admin/hero-slides", nil, e.admin()))
	require.Len(t, all, 2)
	titles := []string{all[0].Title, all[1].Title}
	assert.ElementsMatch(t, []string{"Printemps", "Été"}, titles)
}

func TestUploadAndServe(t *testing.T) {
	e := newEnv(t)

	var img bytes.Buffer
	require.NoError(t, png.Encode(&img, image.NewRGBA(image.Rect(0, 0, 2, 2))))

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("image", "miel.png")
	require.NoError(t, err)
	_, err = part.Write(img.Bytes())
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+e.token)
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	up := decode[uploads.Image](t, w)
	assert.True(t, strings.HasPrefix(up.URL, "/uploads/"))
	assert.Equal(t, "image/png", up.ContentType)

	w = e.do(http.MethodGet, up.URL, nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, img.Bytes(), w.Body.Bytes())

	w = e.do(http.MethodGet, "/uploads/.env", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = e.do(http.MethodGet, "/api/upload/signed?url=x", nil, e.admin())
	assert.Equal(t, http.StatusNotFound, w.Code)
}
