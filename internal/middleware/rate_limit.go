package middleware

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"verdure_back_end/internal/cache"
)

// Limit est un budget de requêtes par IP sur une fenêtre.
type Limit struct {
	Scope  string
	Max    int64
	Window time.Duration
}

var (
	LoginLimit      = Limit{Scope: "login", Max: 5, Window: 15 * time.Minute}
	CheckoutLimit   = Limit{Scope: "checkout", Max: 10, Window: time.Minute}
	ContactLimit    = Limit{Scope: "contact", Max: 5, Window: 10 * time.Minute}
	NewsletterLimit = Limit{Scope: "newsletter", Max: 10, Window: time.Hour}
	ChatLimit       = Limit{Scope: "chat", Max: 30, Window: time.Minute}
	SearchLimit     = Limit{Scope: "search", Max: 30, Window: time.Minute}
	UploadLimit     = Limit{Scope: "upload", Max: 20, Window: time.Minute}
)

// RateLimit compte les requêtes dans Redis. Sans Redis, ou si Redis échoue,
// la requête passe.
func RateLimit(c *cache.Cache, l Limit) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		key := fmt.Sprintf(cache.KeyRateLimit, l.Scope, ctx.ClientIP())

		count, err := c.IncrementRateLimit(ctx.Request.Context(), key, l.Window)
		if err != nil {
			log.Printf("⚠️ Rate limit %s indisponible: %v", l.Scope, err)
			ctx.Next()
			return
		}
		if !c.Enabled() {
			ctx.Next()
			return
		}

		remaining := l.Max - count
		if remaining < 0 {
			remaining = 0
		}
		ctx.Header("X-RateLimit-Limit", fmt.Sprintf("%d", l.Max))
		ctx.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", remaining))

		if count > l.Max {
			ctx.JSON(http.StatusTooManyRequests, gin.H{
				"error":       fmt.Sprintf("Trop de requêtes. Réessayez dans %d minutes", int(l.Window.Minutes())),
				"retry_after": int(l.Window.Seconds()),
			})
			ctx.Abort()
			return
		}
		ctx.Next()
	}
}
