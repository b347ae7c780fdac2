package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"

	"verdure_back_end/internal/cache"
	"verdure_back_end/internal/cart"
	"verdure_back_end/internal/catalog"
	"verdure_back_end/internal/config"
	"verdure_back_end/internal/database"
	"verdure_back_end/internal/events"
	"verdure_back_end/internal/handlers"
	"verdure_back_end/internal/messaging"
	"verdure_back_end/internal/orders"
	"verdure_back_end/internal/payment"
	"verdure_back_end/internal/routes"
	"verdure_back_end/internal/store"
	"verdure_back_end/internal/uploads"
	"verdure_back_end/internal/utils"
)

func main() {
	cfg := config.Load()

	if cfg.StripeSecretKey == "" {
		log.Fatal("❌ Impossible d'initialiser Stripe : clé manquante")
	}
	gateway := payment.NewStripe(cfg.StripeSecretKey, cfg.PaymentCurrency)
	log.Println("✅ Stripe initialisé")

	database.ConnectDatabases(cfg)
	defer database.CloseAll()

	st := openStore(cfg)
	c := cache.New(database.Redis)
	warmupRedisCache(c)

	// Recherche
	var searcher catalog.Searcher
	if database.Elastic != nil {
		searcher = catalog.NewElastic(database.Elastic)
	}
	catalogSvc := catalog.NewService(st, st, c, searcher)
	if searcher != nil {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()
			if err := catalogSvc.Reindex(ctx); err != nil {
				log.Printf("⚠️ Réindexation Elasticsearch échouée: %v", err)
			}
		}()
	}

	// Événements
	var publisher events.Publisher = events.Nop{}
	var producer *events.Kafka
	if len(cfg.KafkaBrokers) > 0 {
		producer = events.NewKafka(cfg.KafkaBrokers, cfg.KafkaTopic, 256)
		producer.Start()
		publisher = producer
		log.Printf("✅ Producteur Kafka prêt (topic %s)", cfg.KafkaTopic)
	}

	mailer := utils.NewMailer(cfg)

	orderSvc := orders.NewService(orders.Deps{
		Orders:   st,
		Products: st,
		Gateway:  gateway,
		Cache:    c,
		Events:   publisher,
		Mailer:   mailer,
		Currency: cfg.PaymentCurrency,
	})
	messagingSvc := messaging.NewService(st, st, nil, mailer, cfg.ShopEmail)

	// Uploads
	var (
		storage uploads.Storage
		local   *uploads.Local
		signer  handlers.URLSigner
	)
	if database.MinIO != nil {
		m := uploads.NewMinIO(database.MinIO, cfg.MinIOBucket, cfg.MinIOPublicURL)
		storage, signer = m, m
	} else {
		l, err := uploads.NewLocal(cfg.UploadDir)
		if err != nil {
			log.Fatalf("❌ Dossier d'upload inaccessible: %v", err)
		}
		storage, local = l, l
	}

	// Panier serveur : Redis si disponible, mémoire sinon.
	var cartPersister cart.Persister = cart.NewMemoryPersister()
	if c.Enabled() {
		cartPersister = cart.RedisPersister{Client: c.Client()}
	}

	r := gin.Default()
	routes.RegisterRoutes(r, routes.Handlers{
		Auth:      handlers.NewAuthHandler(cfg.JWTSecret, cfg.AdminEmail, cfg.AdminPasswordHash),
		Catalog:   handlers.NewCatalogHandler(catalogSvc),
		Cart:      handlers.NewCartHandler(cartPersister, catalogSvc),
		Orders:    handlers.NewOrderHandler(orderSvc, cfg.StripeWebhookSecret, cfg.PublicBaseURL),
		Messaging: handlers.NewMessagingHandler(messagingSvc),
		Chat:      handlers.NewChatSocket(messagingSvc.Hub(), cfg.CORSOrigins),
		Uploads:   handlers.NewUploadHandler(uploads.NewService(storage), local, signer),
	}, routes.Options{
		JWTSecret:   cfg.JWTSecret,
		CORSOrigins: cfg.CORSOrigins,
		Cache:       c,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Println("🚀 Serveur Verdure lancé sur le port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("❌ Serveur arrêté: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("🛑 Arrêt en cours...")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("⚠️ Arrêt HTTP forcé: %v", err)
	}
	if producer != nil {
		producer.Close()
		if err := producer.WaitClosed(ctx); err != nil {
			log.Printf("⚠️ Producteur Kafka non vidé: %v", err)
		}
	}
	log.Println("✅ Serveur arrêté")
}

// openStore choisit le backend de persistance selon STORE_DRIVER.
func openStore(cfg config.Config) store.Store {
	if cfg.StoreDriver != "scylla" {
		log.Println("⚠️ STORE_DRIVER=memory : les données ne survivent pas au redémarrage")
		return store.NewMemory()
	}

	sessions := make([]*gocql.Session, 0, 3)
	for _, ks := range []string{cfg.KeyspaceCatalog, cfg.KeyspaceOrders, cfg.KeyspaceMessaging} {
		s, err := database.Scylla.GetSession(ks)
		if err != nil {
			log.Fatalf("❌ Session ScyllaDB %s: %v", ks, err)
		}
		sessions = append(sessions, s)
	}
	return store.NewScylla(sessions[0], sessions[1], sessions[2])
}

// warmupRedisCache établit la connexion Redis avant le premier appel.
func warmupRedisCache(c *cache.Cache) {
	if !c.Enabled() {
		return
	}
	if err := c.Client().Ping(context.Background()).Err(); err == nil {
		log.Println("✅ Cache Redis pré-chauffé")
	}
}
