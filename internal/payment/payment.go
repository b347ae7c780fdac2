// Package payment encapsule le collaborateur de paiement (Stripe PaymentIntents).
package payment

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v83"
	"github.com/stripe/stripe-go/v83/paymentintent"
)

// IntentRequest décrit le paiement à créer ; Amount est en unités principales (ex. euros).
type IntentRequest struct {
	OrderID  string
	Email    string
	Amount   decimal.Decimal
	Currency string
}

type Intent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
}

// Gateway crée les intentions de paiement. Implémenté par Stripe en production.
type Gateway interface {
	CreateIntent(ctx context.Context, req IntentRequest) (*Intent, error)
}

// MinorUnits convertit un montant décimal en centimes, arrondi au plus proche.
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}

type Stripe struct {
	currency string
}

// NewStripe configure la clé secrète globale du SDK.
func NewStripe(secretKey, currency string) *Stripe {
	stripe.Key = secretKey
	if secretKey == "" {
		log.Println("⚠️ STRIPE_SECRET_KEY manquante, les paiements échoueront")
	}
	return &Stripe{currency: strings.ToLower(currency)}
}

func (s *Stripe) CreateIntent(ctx context.Context, req IntentRequest) (*Intent, error) {
	currency := req.Currency
	if currency == "" {
		currency = s.currency
	}

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(MinorUnits(req.Amount)),
		Currency: stripe.String(currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
		Metadata: map[string]string{
			"order_id": req.OrderID,
		},
	}
	if req.Email != "" {
		params.ReceiptEmail = stripe.String(req.Email)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	pi, err := paymentintent.New(params)
	if err != nil {
		return nil, fmt.Errorf("création PaymentIntent: %w", err)
	}

	log.Printf("💳 PaymentIntent créé : %s (%s %s) pour la commande %s", pi.ID, req.Amount.StringFixed(2), currency, req.OrderID)
	return &Intent{ID: pi.ID, ClientSecret: pi.ClientSecret}, nil
}
