// Package checkout implémente le parcours de paiement côté client : saisie des
// coordonnées, demande d'intention de paiement, confirmation.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"verdure_back_end/internal/cart"
	"verdure_back_end/internal/models"
)

type State string

const (
	StateCollecting     State = "collecting-customer-info"
	StateAwaitingIntent State = "awaiting-payment-intent"
	StatePaymentForm    State = "payment-form-shown"
	StateSubmitting     State = "submitting"
	StateSucceeded      State = "succeeded"
	StateFailed         State = "failed"
)

var (
	ErrInvalidState  = errors.New("action impossible dans l'état courant")
	ErrInvalidFields = errors.New("informations client incomplètes")
	ErrEmptyCart     = errors.New("panier vide")
)

var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// FieldError décrit un champ manquant ou invalide du formulaire.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// IntentRequest est envoyé à POST /api/create-payment-intent.
type IntentRequest struct {
	Items    []models.CartItem   `json:"items"`
	Customer models.CustomerInfo `json:"customer"`
	Total    decimal.Decimal     `json:"total"`
}

type IntentResponse struct {
	ClientSecret string `json:"clientSecret"`
	OrderID      string `json:"orderId"`
	PaymentID    string `json:"paymentId"`
}

// IntentRequester appelle l'API de commande. idemKey est constant pour un même parcours.
type IntentRequester interface {
	RequestIntent(ctx context.Context, req IntentRequest, idemKey string) (*IntentResponse, error)
}

// PaymentConfirmer confirme le paiement auprès du formulaire hébergé.
type PaymentConfirmer interface {
	Confirm(ctx context.Context, clientSecret string) error
}

// Flow est la machine à états d'un parcours de paiement.
type Flow struct {
	mu sync.Mutex

	cart      *cart.Store
	requester IntentRequester
	idemKey   string

	state        State
	customer     models.CustomerInfo
	clientSecret string
	orderID      string
	lastErr      string
}

func NewFlow(c *cart.Store, requester IntentRequester) *Flow {
	return &Flow{
		cart:      c,
		requester: requester,
		idemKey:   uuid.NewString(),
		state:     StateCollecting,
	}
}

func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *Flow) OrderID() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.orderID
}

func (f *Flow) ClientSecret() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.clientSecret
}

// LastError retourne le dernier message d'erreur affiché à l'utilisateur.
func (f *Flow) LastError() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastErr
}

func (f *Flow) IdempotencyKey() string { return f.idemKey }

// ConfirmationPath est la vue de confirmation après un paiement réussi.
func (f *Flow) ConfirmationPath() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != StateSucceeded {
		return ""
	}
	return "/order-confirmation/" + f.orderID
}

// ValidateCustomer vérifie seulement la présence des champs et le format de l'e-mail.
func ValidateCustomer(info models.CustomerInfo) []FieldError {
	var errs []FieldError
	required := []struct {
		field, value string
	}{
		{"first_name", info.FirstName},
		{"last_name", info.LastName},
		{"email", info.Email},
		{"address", info.Address},
		{"city", info.City},
		{"postal_code", info.PostalCode},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			errs = append(errs, FieldError{Field: r.field, Message: "champ obligatoire"})
		}
	}
	if strings.TrimSpace(info.Email) != "" && !emailRe.MatchString(strings.TrimSpace(info.Email)) {
		errs = append(errs, FieldError{Field: "email", Message: "adresse e-mail invalide"})
	}
	return errs
}

// SubmitCustomerInfo enregistre le formulaire. En cas d'erreur de champ, le
// parcours reste dans collecting-customer-info.
func (f *Flow) SubmitCustomerInfo(info models.CustomerInfo) ([]FieldError, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state != StateCollecting {
		return nil, ErrInvalidState
	}
	if errs := ValidateCustomer(info); len(errs) > 0 {
		return errs, ErrInvalidFields
	}
	f.customer = info
	f.state = StateAwaitingIntent
	f.lastErr = ""
	return nil, nil
}

// RequestPaymentIntent envoie le panier, le client et le total calculé
// localement. Un échec est réessayable : retour à collecting-customer-info.
func (f *Flow) RequestPaymentIntent(ctx context.Context) error {
	f.mu.Lock()
	if f.state != StateAwaitingIntent {
		f.mu.Unlock()
		return ErrInvalidState
	}
	items := f.cart.Items()
	if len(items) == 0 {
		f.state = StateCollecting
		f.lastErr = ErrEmptyCart.Error()
		f.mu.Unlock()
		return ErrEmptyCart
	}
	req := IntentRequest{Items: items, Customer: f.customer, Total: f.cart.Total()}
	f.mu.Unlock()

	res, err := f.requester.RequestIntent(ctx, req, f.idemKey)

	f.mu.Lock()
	defer f.mu.Unlock()
	if err != nil {
		f.state = StateCollecting
		f.lastErr = err.Error()
		return fmt.Errorf("demande de paiement: %w", err)
	}
	f.clientSecret = res.ClientSecret
	f.orderID = res.OrderID
	f.state = StatePaymentForm
	f.lastErr = ""
	return nil
}

// ConfirmPayment soumet le formulaire de paiement. Succès : panier vidé et
// parcours terminé. Erreur : retour au formulaire avec le message, sans nouvel essai.
func (f *Flow) ConfirmPayment(ctx context.Context, confirmer PaymentConfirmer) error {
	f.mu.Lock()
	if f.state != StatePaymentForm {
		f.mu.Unlock()
		return ErrInvalidState
	}
	f.state = StateSubmitting
	secret := f.clientSecret
	f.mu.Unlock()

	err := confirmer.Confirm(ctx, secret)

	f.mu.Lock()
	defer f.mu.Unlock()
	if err != nil {
		f.state = StatePaymentForm
		f.lastErr = err.Error()
		return err
	}

	if err := f.cart.Clear(ctx); err != nil {
		// Le paiement est passé : on termine quand même le parcours.
		f.lastErr = "panier non vidé: " + err.Error()
	}
	f.state = StateSucceeded
	return nil
}

// Fail termine le parcours sur une erreur non récupérable (ex. formulaire de
// paiement indisponible).
func (f *Flow) Fail(reason string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state == StateSucceeded {
		return
	}
	f.state = StateFailed
	f.lastErr = reason
}
