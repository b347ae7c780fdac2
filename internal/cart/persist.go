package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/redis/go-redis/v9"

	"verdure_back_end/internal/cache"
	"verdure_back_end/internal/models"
)

// FilePersister écrit le panier en JSON dans Dir/<key>.json, l'équivalent du
// stockage local d'un navigateur pour un client Go.
type FilePersister struct {
	Dir string
}

func (p FilePersister) path(key string) string {
	return filepath.Join(p.Dir, key+".json")
}

func (p FilePersister) Save(_ context.Context, key string, items []models.CartItem) error {
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("sérialisation panier: %w", err)
	}
	if err := os.MkdirAll(p.Dir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(p.path(key), data, 0o644)
}

func (p FilePersister) Load(_ context.Context, key string) ([]models.CartItem, error) {
	data, err := os.ReadFile(p.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var items []models.CartItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("décodage panier: %w", err)
	}
	return items, nil
}

// RedisPersister stocke le panier sous cart:<key> pendant 30 jours.
type RedisPersister struct {
	Client *redis.Client
}

func (p RedisPersister) Save(ctx context.Context, key string, items []models.CartItem) error {
	redisKey := fmt.Sprintf(cache.KeyCart, key)
	if len(items) == 0 {
		return p.Client.Del(ctx, redisKey).Err()
	}
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("sérialisation panier: %w", err)
	}
	return p.Client.Set(ctx, redisKey, data, cache.TTLCart).Err()
}

func (p RedisPersister) Load(ctx context.Context, key string) ([]models.CartItem, error) {
	data, err := p.Client.Get(ctx, fmt.Sprintf(cache.KeyCart, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var items []models.CartItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("décodage panier: %w", err)
	}
	return items, nil
}

// MemoryPersister garde les paniers en mémoire de processus (mode dev sans Redis).
type MemoryPersister struct {
	mu    sync.Mutex
	carts map[string][]byte
}

func NewMemoryPersister() *MemoryPersister {
	return &MemoryPersister{carts: make(map[string][]byte)}
}

func (p *MemoryPersister) Save(_ context.Context, key string, items []models.CartItem) error {
	data, err := json.Marshal(items)
	if err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.carts[key] = data
	return nil
}

func (p *MemoryPersister) Load(_ context.Context, key string) ([]models.CartItem, error) {
	p.mu.Lock()
	data, ok := p.carts[key]
	p.mu.Unlock()
	if !ok {
		return nil, nil
	}
	var items []models.CartItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, err
	}
	return items, nil
}
