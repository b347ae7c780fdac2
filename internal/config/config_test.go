package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("PAYMENT_CURRENCY", "")
	t.Setenv("STORE_DRIVER", "")
	t.Setenv("SMTP_PORT", "")

	cfg := FromEnv()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "eur", cfg.PaymentCurrency)
	assert.Equal(t, "memory", cfg.StoreDriver)
	assert.Equal(t, 587, cfg.SMTPPort)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("PAYMENT_CURRENCY", "CAD")
	t.Setenv("SCYLLA_HOSTS", "10.0.0.1, 10.0.0.2,,")
	t.Setenv("SMTP_PORT", "465")
	t.Setenv("KAFKA_BROKERS", "kafka:9092")

	cfg := FromEnv()

	assert.Equal(t, "cad", cfg.PaymentCurrency)
	assert.Equal(t, []string{"10.0.0.1", "10.0.0.2"}, cfg.ScyllaHosts)
	assert.Equal(t, 465, cfg.SMTPPort)
	assert.Equal(t, []string{"kafka:9092"}, cfg.KafkaBrokers)
}

func TestGetenvIntInvalid(t *testing.T) {
	t.Setenv("SMTP_PORT", "abc")
	assert.Equal(t, 587, getenvInt("SMTP_PORT", 587))
}
