package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"hash/fnv"
	"sync"

	"github.com/redis/go-redis/v9"

	"verdure_back_end/internal/cache"
	"verdure_back_end/internal/models"
)

// ErrConflict : la lecture-modification-écriture n'a pas abouti après maxTxRetries essais.
var ErrConflict = errors.New("panier modifié en concurrence")

const maxTxRetries = 100

// Updater est implémenté par les persisters capables d'une lecture-modification-écriture
// atomique entre plusieurs processus.
type Updater interface {
	Update(ctx context.Context, key string, fn func([]models.CartItem) ([]models.CartItem, error)) ([]models.CartItem, error)
}

// Verrous par session dans le processus, répartis sur un nombre fixe de mutex.
var sessionLocks [64]sync.Mutex

func lockFor(key string) *sync.Mutex {
	h := fnv.New32a()
	h.Write([]byte(key))
	return &sessionLocks[h.Sum32()%uint32(len(sessionLocks))]
}

// Apply recharge le panier de key, applique op et sauvegarde le résultat, sans
// qu'une autre requête sur la même clé ne s'intercale.
func Apply(ctx context.Context, persister Persister, key string, op func(ctx context.Context, s *Store) error) (*Store, error) {
	mu := lockFor(key)
	mu.Lock()
	defer mu.Unlock()

	if u, ok := persister.(Updater); ok {
		items, err := u.Update(ctx, key, func(items []models.CartItem) ([]models.CartItem, error) {
			s := New(nil, key)
			if items != nil {
				s.items = items
			}
			if err := op(ctx, s); err != nil {
				return nil, err
			}
			return s.Items(), nil
		})
		if err != nil {
			return nil, err
		}
		s := New(persister, key)
		s.items = items
		return s, nil
	}

	s, err := Restore(ctx, persister, key)
	if err != nil {
		return nil, err
	}
	if err := op(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

// Update relit et réécrit cart:<key> sous WATCH ; la transaction est rejouée si
// un autre client a modifié la clé entre-temps.
func (p RedisPersister) Update(ctx context.Context, key string, fn func([]models.CartItem) ([]models.CartItem, error)) ([]models.CartItem, error) {
	redisKey := fmt.Sprintf(cache.KeyCart, key)
	var out []models.CartItem

	txf := func(tx *redis.Tx) error {
		var items []models.CartItem
		data, err := tx.Get(ctx, redisKey).Bytes()
		switch {
		case errors.Is(err, redis.Nil):
		case err != nil:
			return err
		default:
			if err := json.Unmarshal(data, &items); err != nil {
				return fmt.Errorf("décodage panier: %w", err)
			}
		}

		next, err := fn(items)
		if err != nil {
			return err
		}
		payload, err := json.Marshal(next)
		if err != nil {
			return fmt.Errorf("sérialisation panier: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			if len(next) == 0 {
				pipe.Del(ctx, redisKey)
			} else {
				pipe.Set(ctx, redisKey, payload, cache.TTLCart)
			}
			return nil
		})
		if err == nil {
			out = next
		}
		return err
	}

	for i := 0; i < maxTxRetries; i++ {
		err := p.Client.Watch(ctx, txf, redisKey)
		if err == nil {
			return out, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return nil, err
	}
	return nil, ErrConflict
}
