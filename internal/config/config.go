package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Port          string
	PublicBaseURL string
	CORSOrigins   []string

	StoreDriver       string // "memory" ou "scylla"
	ScyllaHosts       []string
	ScyllaUsername    string
	ScyllaPassword    string
	ScyllaSSLEnabled  bool
	ScyllaCACertPath  string
	KeyspaceCatalog   string
	KeyspaceOrders    string
	KeyspaceMessaging string

	RedisHost     string
	RedisPassword string

	ElasticURL      string
	ElasticUser     string
	ElasticPassword string

	StorageDriver  string // "local" ou "minio"
	UploadDir      string
	MinIOEndpoint  string
	MinIOAccessKey string
	MinIOSecretKey string
	MinIOBucket    string
	MinIOUseSSL    bool
	MinIOPublicURL string

	StripeSecretKey     string
	StripeWebhookSecret string
	PaymentCurrency     string

	JWTSecret         string
	AdminEmail        string
	AdminPasswordHash string

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	MailFrom     string
	ShopEmail    string

	KafkaBrokers []string
	KafkaTopic   string
}

// Load charge le fichier .env (s'il existe) puis lit les variables d'environnement.
func Load() Config {
	err := godotenv.Load(".env")
	if err != nil {
		log.Println("⚠️  Aucun fichier .env trouvé, on continue avec les variables d'environnement du système")
	} else {
		log.Println("✅ Fichier .env chargé avec succès")
	}
	return FromEnv()
}

// FromEnv construit la configuration sans toucher au fichier .env.
func FromEnv() Config {
	return Config{
		Port:          getenv("PORT", "8080"),
		PublicBaseURL: getenv("PUBLIC_BASE_URL", "http://localhost:8080"),
		CORSOrigins:   splitCSV(getenv("CORS_ORIGINS", "http://localhost:5173")),

		StoreDriver:       getenv("STORE_DRIVER", "memory"),
		ScyllaHosts:       splitCSV(os.Getenv("SCYLLA_HOSTS")),
		ScyllaUsername:    os.Getenv("SCYLLA_USERNAME"),
		ScyllaPassword:    os.Getenv("SCYLLA_PASSWORD"),
		ScyllaSSLEnabled:  strings.ToLower(os.Getenv("SCYLLA_SSL_ENABLED")) == "true",
		ScyllaCACertPath:  os.Getenv("SCYLLA_SSL_CA_PATH"),
		KeyspaceCatalog:   getenv("SCYLLA_KS_CATALOG_KEYSPACE", "verdure_catalog"),
		KeyspaceOrders:    getenv("SCYLLA_KS_ORDERS_KEYSPACE", "verdure_orders"),
		KeyspaceMessaging: getenv("SCYLLA_KS_MESSAGING_KEYSPACE", "verdure_messaging"),

		RedisHost:     os.Getenv("REDIS_HOST"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		ElasticURL:      os.Getenv("ELASTIC_URL"),
		ElasticUser:     os.Getenv("ELASTIC_USER"),
		ElasticPassword: os.Getenv("ELASTIC_PASSWORD"),

		StorageDriver:  getenv("STORAGE_DRIVER", "local"),
		UploadDir:      getenv("UPLOAD_DIR", "uploads"),
		MinIOEndpoint:  os.Getenv("MINIO_ENDPOINT"),
		MinIOAccessKey: os.Getenv("MINIO_ACCESS_KEY"),
		MinIOSecretKey: os.Getenv("MINIO_SECRET_KEY"),
		MinIOBucket:    getenv("MINIO_BUCKET", "verdure-images"),
		MinIOUseSSL:    os.Getenv("MINIO_USE_SSL") == "true",
		MinIOPublicURL: os.Getenv("MINIO_PUBLIC_URL"),

		StripeSecretKey:     os.Getenv("STRIPE_SECRET_KEY"),
		StripeWebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),
		PaymentCurrency:     strings.ToLower(getenv("PAYMENT_CURRENCY", "eur")),

		JWTSecret:         getenv("JWT_SECRET", "super_secret"),
		AdminEmail:        os.Getenv("ADMIN_EMAIL"),
		AdminPasswordHash: os.Getenv("ADMIN_PASSWORD_HASH"),

		SMTPHost:     os.Getenv("SMTP_HOST"),
		SMTPPort:     getenvInt("SMTP_PORT", 587),
		SMTPUsername: os.Getenv("SMTP_USERNAME"),
		SMTPPassword: os.Getenv("SMTP_PASSWORD"),
		MailFrom:     getenv("MAIL_FROM", "noreply@verdure.shop"),
		ShopEmail:    getenv("SHOP_EMAIL", "contact@verdure.shop"),

		KafkaBrokers: splitCSV(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:   getenv("KAFKA_TOPIC", "verdure.orders"),
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getenvInt(k string, def int) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("⚠️ %s invalide (%q), valeur par défaut %d", k, v, def)
		return def
	}
	return n
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
