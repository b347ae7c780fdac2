package handlers

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"verdure_back_end/internal/cart"
	"verdure_back_end/internal/catalog"
	"verdure_back_end/internal/models"
	"verdure_back_end/internal/orders"
	"verdure_back_end/internal/store"
	"verdure_back_end/internal/uploads"
)

// Les erreurs de validation sont rapportées avec le nom JSON du champ.
func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				return f.Name
			}
			return name
		})
	}
}

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// badRequest répond 400 avec la liste des champs invalides quand l'erreur vient du validateur.
func badRequest(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]FieldError, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, FieldError{Field: fieldPath(fe), Message: fieldMessage(fe)})
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides", "fields": fields})
		return
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": "Requête invalide", "details": err.Error()})
}

// fieldPath retire le nom de la structure racine : CheckoutRequest.customer.email → customer.email
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "champ obligatoire"
	case "email":
		return "adresse e-mail invalide"
	case "min", "gte":
		return fmt.Sprintf("doit être au moins %s", fe.Param())
	case "max", "lte":
		return fmt.Sprintf("doit être au plus %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("valeurs acceptées : %s", fe.Param())
	default:
		return fmt.Sprintf("règle %s non respectée", fe.Tag())
	}
}

// respondError traduit les erreurs métier en code HTTP ; le reste part en 500
// avec le message brut.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Introuvable"})
	case errors.Is(err, store.ErrAlreadyExists):
		c.JSON(http.StatusConflict, gin.H{"error": "Existe déjà"})
	case errors.Is(err, orders.ErrInvalidStatus):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":          "Statut invalide",
			"valid_statuses": models.OrderStatuses,
		})
	case errors.Is(err, orders.ErrEmptyCart):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Panier vide"})
	case errors.Is(err, orders.ErrInvalidQuantity):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Quantité invalide", "details": err.Error()})
	case errors.Is(err, orders.ErrInvalidTotal):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Montant total invalide"})
	case errors.Is(err, orders.ErrCheckoutInProgress):
		c.JSON(http.StatusConflict, gin.H{"error": "Paiement déjà en cours de création"})
	case errors.Is(err, cart.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "Panier modifié en parallèle, réessayez"})
	case errors.Is(err, catalog.ErrUnknownCategory):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Catégorie introuvable"})
	case errors.Is(err, uploads.ErrTooLarge):
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": err.Error()})
	case errors.Is(err, uploads.ErrUnsupportedType), errors.Is(err, uploads.ErrInvalidName):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		log.Printf("❌ %s %s: %v", c.Request.Method, c.FullPath(), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur interne", "details": err.Error()})
	}
}
