package utils

import (
	"bytes"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"verdure_back_end/internal/models"
)

func TestPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("mot-de-passe")
	require.NoError(t, err)
	assert.True(t, IsArgon2Hash(hash))

	ok, err := VerifyPassword("mot-de-passe", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifyPassword("autre", hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerifyPasswordRejectsGarbage(t *testing.T) {
	_, err := VerifyPassword("x", "$2a$10$abc")
	assert.ErrorIs(t, err, ErrInvalidHash)
}

func TestJWTRoundTrip(t *testing.T) {
	token, err := GenerateJWT("secret", models.User{ID: "admin", Email: "admin@verdure.test", Role: "admin"})
	require.NoError(t, err)

	claims, err := ParseJWT("secret", token)
	require.NoError(t, err)
	assert.Equal(t, "admin", claims["role"])
	assert.Equal(t, "admin@verdure.test", claims["email"])

	_, err = ParseJWT("autre", token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestOrderQRCode(t *testing.T) {
	png, err := OrderQRCode("http://localhost:8080/", "ord-1", 128)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, []byte("\x89PNG")))
	assert.Equal(t, "http://localhost:8080/order-confirmation/ord-1", OrderTrackingURL("http://localhost:8080/", "ord-1"))
}

func TestOrderEmails(t *testing.T) {
	order := models.Order{
		ID:           "ord-1",
		CustomerName: "Jeanne <b>Dupont</b>",
		Total:        decimal.RequireFromString("84.97"),
		Status:       models.OrderShipped,
		Items: []models.OrderItem{
			{ProductName: "Huile d'argan", Quantity: 2, UnitPrice: decimal.RequireFromString("24.99")},
		},
	}

	subject, body, err := OrderConfirmationEmail(order)
	require.NoError(t, err)
	assert.Contains(t, subject, "Confirmation")
	assert.Contains(t, body, "84.97")
	assert.Contains(t, body, "24.99")
	assert.False(t, strings.Contains(body, "<b>Dupont</b>"), "le nom doit être échappé")

	subject, body, err = OrderStatusEmail(order)
	require.NoError(t, err)
	assert.Contains(t, subject, "expédiée")
	assert.Contains(t, body, "shipped")
}
