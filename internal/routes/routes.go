package routes

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"verdure_back_end/internal/cache"
	"verdure_back_end/internal/handlers"
	"verdure_back_end/internal/middleware"
)

// Handlers regroupe tout ce que le routeur expose.
type Handlers struct {
	Auth      *handlers.AuthHandler
	Catalog   *handlers.CatalogHandler
	Cart      *handlers.CartHandler
	Orders    *handlers.OrderHandler
	Messaging *handlers.MessagingHandler
	Chat      *handlers.ChatSocket
	Uploads   *handlers.UploadHandler
}

type Options struct {
	JWTSecret   string
	CORSOrigins []string
	Cache       *cache.Cache
}

func RegisterRoutes(r *gin.Engine, h Handlers, opts Options) {
	corsCfg := cors.Config{
		AllowOrigins:     opts.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Idempotency-Key", handlers.CartSessionHeader},
		ExposeHeaders:    []string{"X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(opts.CORSOrigins) == 0 {
		corsCfg.AllowOrigins = nil
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	}
	r.Use(cors.New(corsCfg))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/uploads/:file", h.Uploads.Serve)

	limit := func(l middleware.Limit) gin.HandlerFunc {
		return middleware.RateLimit(opts.Cache, l)
	}
	admin := []gin.HandlerFunc{middleware.AuthRequired(opts.JWTSecret), middleware.RequireAdmin}

	api := r.Group("/api")

	// Auth
	auth := api.Group("/auth")
	{
		auth.POST("/login", limit(middleware.LoginLimit), h.Auth.Login)
		auth.GET("/me", append(admin, h.Auth.Me)...)
	}

	// Catalogue
	products := api.Group("/products")
	{
		products.GET("", h.Catalog.ListProducts)
		products.GET("/search", limit(middleware.SearchLimit), h.Catalog.SearchProducts)
		products.GET("/:id", h.Catalog.GetProduct)
		products.POST("", append(admin, h.Catalog.CreateProduct)...)
		products.PUT("/:id", append(admin, h.Catalog.UpdateProduct)...)
		products.DELETE("/:id", append(admin, h.Catalog.DeleteProduct)...)
	}
	categories := api.Group("/categories")
	{
		categories.GET("", h.Catalog.ListCategories)
		categories.POST("", append(admin, h.Catalog.CreateCategory)...)
		categories.PUT("/:id", append(admin, h.Catalog.UpdateCategory)...)
		categories.DELETE("/:id", append(admin, h.Catalog.DeleteCategory)...)
	}

	// Panier serveur
	cartGroup := api.Group("/cart")
	{
		cartGroup.GET("", h.Cart.GetCart)
		cartGroup.POST("/items", h.Cart.AddItem)
		cartGroup.PUT("/items/:productId", h.Cart.UpdateQuantity)
		cartGroup.DELETE("/items/:productId", h.Cart.RemoveItem)
		cartGroup.DELETE("", h.Cart.Clear)
	}

	// Commandes & paiement
	api.POST("/create-payment-intent", limit(middleware.CheckoutLimit), h.Orders.CreatePaymentIntent)
	api.POST("/webhooks/stripe", h.Orders.StripeWebhook)
	orders := api.Group("/orders")
	{
		orders.POST("", limit(middleware.CheckoutLimit), h.Orders.CreateOrder)
		orders.GET("/:id", h.Orders.GetOrder)
		orders.GET("/:id/qrcode", h.Orders.QRCode)
		orders.GET("", append(admin, h.Orders.GetOrders)...)
		orders.GET("/stats", append(admin, h.Orders.Stats)...)
		orders.PUT("/:id/status", append(admin, h.Orders.UpdateOrderStatus)...)
	}

	// Messagerie
	api.POST("/contact", limit(middleware.ContactLimit), h.Messaging.SubmitContact)
	api.GET("/contact", append(admin, h.Messaging.ListContacts)...)
	api.PUT("/contact/:id/read", append(admin, h.Messaging.MarkContactRead)...)
	api.POST("/newsletter", limit(middleware.NewsletterLimit), h.Messaging.Subscribe)

	chat := api.Group("/chat")
	{
		chat.GET("/messages", h.Messaging.ListMessages)
		chat.POST("/messages", limit(middleware.ChatLimit), h.Messaging.PostMessage)
		chat.GET("/ws", h.Chat.Visitor)
	}

	reviews := api.Group("/reviews")
	{
		reviews.GET("", h.Messaging.ListReviews)
		reviews.POST("", limit(middleware.ContactLimit), h.Messaging.SubmitReview)
		reviews.PUT("/:id/approve", append(admin, h.Messaging.ApproveReview)...)
		reviews.DELETE("/:id", append(admin, h.Messaging.DeleteReview)...)
	}

	testimonials := api.Group("/testimonials")
	{
		testimonials.GET("", h.Messaging.ListTestimonials)
		testimonials.POST("", limit(middleware.ContactLimit), h.Messaging.SubmitTestimonial)
		testimonials.PUT("/:id", append(admin, h.Messaging.UpdateTestimonial)...)
		testimonials.PUT("/:id/approve", append(admin, h.Messaging.ApproveTestimonial)...)
		testimonials.DELETE("/:id", append(admin, h.Messaging.DeleteTestimonial)...)
	}

	slides := api.Group("/hero-slides")
	{
		slides.GET("", h.Messaging.ListHeroSlides)
		slides.POST("", append(admin, h.Messaging.SaveHeroSlide)...)
		slides.PUT("/:id", append(admin, h.Messaging.SaveHeroSlide)...)
		slides.DELETE("/:id", append(admin, h.Messaging.DeleteHeroSlide)...)
	}

	// Uploads
	api.POST("/upload", append(admin, limit(middleware.UploadLimit), h.Uploads.Upload)...)
	api.GET("/upload/signed", append(admin, h.Uploads.SignedURL)...)

	// Back-office : vues non filtrées
	adm := api.Group("/admin", admin...)
	{
		adm.GET("/products", h.Catalog.ListAllProducts)
		adm.GET("/reviews", h.Messaging.ListAllReviews)
		adm.GET("/testimonials", h.Messaging.ListAllTestimonials)
		adm.POST("/testimonials", h.Messaging.CreateTestimonial)
		adm.GET("/hero-slides", h.Messaging.ListAllHeroSlides)
		adm.GET("/chat/messages", h.Messaging.ListAllMessages)
		adm.POST("/chat/messages", h.Messaging.PostAdminMessage)
		adm.GET("/chat/ws", h.Chat.Admin)
	}
}
