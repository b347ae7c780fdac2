package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"verdure_back_end/internal/cart"
	"verdure_back_end/internal/models"
)

var validCustomer = models.CustomerInfo{
	FirstName:  "Jeanne",
	LastName:   "Dupont",
	Email:      "jeanne@example.com",
	Address:    "1 rue des Lilas",
	City:       "Lyon",
	PostalCode: "69001",
}

type confirmerFunc func(ctx context.Context, secret string) error

func (f confirmerFunc) Confirm(ctx context.Context, secret string) error { return f(ctx, secret) }

type stubRequester struct {
	mu   sync.Mutex
	keys []string
	reqs []IntentRequest
	err  error
}

func (s *stubRequester) RequestIntent(_ context.Context, req IntentRequest, key string) (*IntentResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys = append(s.keys, key)
	s.reqs = append(s.reqs, req)
	if s.err != nil {
		return nil, s.err
	}
	return &IntentResponse{ClientSecret: "pi_1_secret", OrderID: "ord-1", PaymentID: "pi_1"}, nil
}

func filledCart(t *testing.T) *cart.Store {
	t.Helper()
	ctx := context.Background()
	c := cart.New(nil, "")
	huile := models.CartItem{ProductID: "1", Name: "Huile", Price: decimal.RequireFromString("24.99")}
	require.NoError(t, c.AddItem(ctx, huile))
	require.NoError(t, c.AddItem(ctx, huile))
	require.NoError(t, c.AddItem(ctx, models.CartItem{ProductID: "3", Name: "Savon", Price: decimal.RequireFromString("34.99")}))
	return c
}

func TestSubmitCustomerInfoFieldErrors(t *testing.T) {
	f := NewFlow(filledCart(t), &stubRequester{})

	errs, err := f.SubmitCustomerInfo(models.CustomerInfo{FirstName: "Jeanne", Email: "pas-un-email"})
	assert.ErrorIs(t, err, ErrInvalidFields)
	assert.Equal(t, StateCollecting, f.State())

	fields := map[string]bool{}
	for _, e := range errs {
		fields[e.Field] = true
	}
	assert.Equal(t, map[string]bool{
		"last_name": true, "email": true, "address": true, "city": true, "postal_code": true,
	}, fields)
}

func TestHappyPath(t *testing.T) {
	c := filledCart(t)
	req := &stubRequester{}
	f := NewFlow(c, req)
	ctx := context.Background()

	_, err := f.SubmitCustomerInfo(validCustomer)
	require.NoError(t, err)
	assert.Equal(t, StateAwaitingIntent, f.State())

	require.NoError(t, f.RequestPaymentIntent(ctx))
	assert.Equal(t, StatePaymentForm, f.State())
	assert.Equal(t, "pi_1_secret", f.ClientSecret())
	require.Len(t, req.reqs, 1)
	assert.True(t, decimal.RequireFromString("84.97").Equal(req.reqs[0].Total))
	assert.Len(t, req.reqs[0].Items, 2)

	var seen string
	err = f.ConfirmPayment(ctx, confirmerFunc(func(_ context.Context, secret string) error {
		seen = secret
		return nil
	}))
	require.NoError(t, err)
	assert.Equal(t, "pi_1_secret", seen)
	assert.Equal(t, StateSucceeded, f.State())
	assert.Equal(t, "/order-confirmation/ord-1", f.ConfirmationPath())
	assert.Empty(t, c.Items())
}

func TestIntentFailureIsRetryableWithSameKey(t *testing.T) {
	req := &stubRequester{err: errors.New("réseau indisponible")}
	f := NewFlow(filledCart(t), req)
	ctx := context.Background()

	_, err := f.SubmitCustomerInfo(validCustomer)
	require.NoError(t, err)
	require.Error(t, f.RequestPaymentIntent(ctx))
	assert.Equal(t, StateCollecting, f.State())
	assert.Equal(t, "réseau indisponible", f.LastError())

	req.err = nil
	_, err = f.SubmitCustomerInfo(validCustomer)
	require.NoError(t, err)
	require.NoError(t, f.RequestPaymentIntent(ctx))

	require.Len(t, req.keys, 2)
	assert.Equal(t, req.keys[0], req.keys[1])
	assert.Equal(t, f.IdempotencyKey(), req.keys[0])
}

func TestPaymentErrorStaysOnForm(t *testing.T) {
	c := filledCart(t)
	f := NewFlow(c, &stubRequester{})
	ctx := context.Background()

	_, err := f.SubmitCustomerInfo(validCustomer)
	require.NoError(t, err)
	require.NoError(t, f.RequestPaymentIntent(ctx))

	err = f.ConfirmPayment(ctx, confirmerFunc(func(context.Context, string) error {
		return errors.New("carte refusée")
	}))
	require.Error(t, err)
	assert.Equal(t, StatePaymentForm, f.State())
	assert.Equal(t, "carte refusée", f.LastError())
	assert.Len(t, c.Items(), 2)
	assert.Empty(t, f.ConfirmationPath())
}

func TestInvalidTransitions(t *testing.T) {
	f := NewFlow(filledCart(t), &stubRequester{})
	ctx := context.Background()

	assert.ErrorIs(t, f.RequestPaymentIntent(ctx), ErrInvalidState)
	assert.ErrorIs(t, f.ConfirmPayment(ctx, confirmerFunc(func(context.Context, string) error { return nil })), ErrInvalidState)

	_, err := f.SubmitCustomerInfo(validCustomer)
	require.NoError(t, err)
	_, err = f.SubmitCustomerInfo(validCustomer)
	assert.ErrorIs(t, err, ErrInvalidState)

	f.Fail("formulaire indisponible")
	assert.Equal(t, StateFailed, f.State())
}

func TestEmptyCartCannotRequestIntent(t *testing.T) {
	f := NewFlow(cart.New(nil, ""), &stubRequester{})
	_, err := f.SubmitCustomerInfo(validCustomer)
	require.NoError(t, err)
	assert.ErrorIs(t, f.RequestPaymentIntent(context.Background()), ErrEmptyCart)
	assert.Equal(t, StateCollecting, f.State())
}

func TestAPIClientSendsIdempotencyKey(t *testing.T) {
	var gotKey string
	var got IntentRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/create-payment-intent", r.URL.Path)
		gotKey = r.Header.Get("Idempotency-Key")
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"clientSecret":"sec","orderId":"ord-9","paymentId":"pi_9"}`))
	}))
	t.Cleanup(srv.Close)

	res, err := NewAPIClient(srv.URL+"/").RequestIntent(context.Background(), IntentRequest{
		Customer: validCustomer,
		Total:    decimal.RequireFromString("12.50"),
	}, "key-1")
	require.NoError(t, err)
	assert.Equal(t, "key-1", gotKey)
	assert.Equal(t, "ord-9", res.OrderID)
	assert.True(t, decimal.RequireFromString("12.50").Equal(got.Total))
}

func TestAPIClientErrorResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"Panier vide"}`))
	}))
	t.Cleanup(srv.Close)

	_, err := NewAPIClient(srv.URL).RequestIntent(context.Background(), IntentRequest{}, "")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "Panier vide", apiErr.Message)
}
