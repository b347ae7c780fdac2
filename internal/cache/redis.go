package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache enveloppe le client Redis. Un Cache sans client (Redis non configuré)
// se comporte comme un cache toujours vide : les lectures ratent, les écritures
// sont ignorées.
type Cache struct {
	client *redis.Client
}

func New(client *redis.Client) *Cache {
	return &Cache{client: client}
}

// Enabled indique si un client Redis est branché.
func (c *Cache) Enabled() bool {
	return c != nil && c.client != nil
}

func (c *Cache) Client() *redis.Client {
	if c == nil {
		return nil
	}
	return c.client
}

// --- Cache générique ---

// GetJSON décode la valeur de key dans dest. Retourne false si absente ou illisible.
func (c *Cache) GetJSON(ctx context.Context, key string, dest interface{}) bool {
	if !c.Enabled() {
		return false
	}
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Printf("⚠️ Erreur lecture cache %s: %v", key, err)
		}
		return false
	}
	return json.Unmarshal(data, dest) == nil
}

func (c *Cache) SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	if !c.Enabled() {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		log.Printf("⚠️ Erreur sérialisation cache %s: %v", key, err)
		return
	}
	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		log.Printf("⚠️ Erreur écriture cache %s: %v", key, err)
	}
}

func (c *Cache) Delete(ctx context.Context, keys ...string) {
	if !c.Enabled() || len(keys) == 0 {
		return
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		log.Printf("⚠️ Erreur invalidation cache %v: %v", keys, err)
	}
}

// --- Idempotence ---

// Remember enregistre value sous key si la clé n'existe pas encore.
// Retourne la valeur déjà présente et false si la clé existait.
func (c *Cache) Remember(ctx context.Context, key, value string, ttl time.Duration) (string, bool, error) {
	if !c.Enabled() {
		return value, true, nil
	}
	ok, err := c.client.SetNX(ctx, key, value, ttl).Result()
	if err != nil {
		return "", false, err
	}
	if ok {
		return value, true, nil
	}
	existing, err := c.client.Get(ctx, key).Result()
	if err != nil {
		return "", false, err
	}
	return existing, false, nil
}

// Lookup retourne la valeur d'une clé, "" si absente.
func (c *Cache) Lookup(ctx context.Context, key string) (string, error) {
	if !c.Enabled() {
		return "", nil
	}
	v, err := c.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return v, err
}

// Set écrit une valeur brute.
func (c *Cache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if !c.Enabled() {
		return nil
	}
	return c.client.Set(ctx, key, value, ttl).Err()
}

// --- Rate Limiting ---

// IncrementRateLimit incrémente le compteur de key et réarme sa fenêtre.
func (c *Cache) IncrementRateLimit(ctx context.Context, key string, window time.Duration) (int64, error) {
	if !c.Enabled() {
		return 0, nil
	}
	pipe := c.client.Pipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return incr.Val(), nil
}
