// Package cart implémente le panier : un conteneur d'état explicite dont chaque
// mutation persiste la liste complète des lignes sous une clé fixe.
package cart

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"

	"verdure_back_end/internal/models"
)

// StorageKey est la clé fixe du panier côté client.
const StorageKey = "verdure-cart"

// Persister sauvegarde et relit la liste des lignes. Aucun versionnage.
type Persister interface {
	Save(ctx context.Context, key string, items []models.CartItem) error
	Load(ctx context.Context, key string) ([]models.CartItem, error)
}

type Store struct {
	mu        sync.Mutex
	key       string
	items     []models.CartItem
	persister Persister
}

// New crée un panier vide. Un persister nil garde le panier en mémoire seulement.
func New(persister Persister, key string) *Store {
	if key == "" {
		key = StorageKey
	}
	return &Store{key: key, persister: persister, items: []models.CartItem{}}
}

// Restore recharge le panier sauvegardé sous key.
func Restore(ctx context.Context, persister Persister, key string) (*Store, error) {
	s := New(persister, key)
	if persister == nil {
		return s, nil
	}
	items, err := persister.Load(ctx, s.key)
	if err != nil {
		return nil, err
	}
	if items != nil {
		s.items = items
	}
	return s, nil
}

// AddItem incrémente la quantité de 1 si le produit est déjà présent, sinon
// ajoute la ligne avec une quantité de 1. Pas de contrôle de stock.
func (s *Store) AddItem(ctx context.Context, item models.CartItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.items {
		if s.items[i].ProductID == item.ProductID {
			s.items[i].Quantity++
			return s.persist(ctx)
		}
	}

	item.Quantity = 1
	s.items = append(s.items, item)
	return s.persist(ctx)
}

// UpdateQuantity fixe la quantité ; qty <= 0 retire la ligne.
func (s *Store) UpdateQuantity(ctx context.Context, productID string, qty int) error {
	if qty <= 0 {
		return s.RemoveItem(ctx, productID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.items {
		if s.items[i].ProductID == productID {
			s.items[i].Quantity = qty
			break
		}
	}
	return s.persist(ctx)
}

func (s *Store) RemoveItem(ctx context.Context, productID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.items[:0]
	for _, it := range s.items {
		if it.ProductID != productID {
			kept = append(kept, it)
		}
	}
	s.items = kept
	return s.persist(ctx)
}

func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = []models.CartItem{}
	return s.persist(ctx)
}

// Items retourne une copie des lignes, dans l'ordre d'ajout.
func (s *Store) Items() []models.CartItem {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.CartItem, len(s.items))
	copy(out, s.items)
	return out
}

// Total retourne Σ prix × quantité (zéro pour un panier vide).
func (s *Store) Total() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Total(s.items)
}

// ItemCount retourne la somme des quantités.
func (s *Store) ItemCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, it := range s.items {
		n += it.Quantity
	}
	return n
}

func (s *Store) persist(ctx context.Context) error {
	if s.persister == nil {
		return nil
	}
	snapshot := make([]models.CartItem, len(s.items))
	copy(snapshot, s.items)
	return s.persister.Save(ctx, s.key, snapshot)
}

// Total calcule le montant d'une liste de lignes.
func Total(items []models.CartItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.LineTotal())
	}
	return total
}
