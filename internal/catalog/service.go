// Package catalog expose les produits et catégories de la boutique, avec un
// cache Redis des listes et une recherche Elasticsearch optionnelle.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"verdure_back_end/internal/cache"
	"verdure_back_end/internal/models"
	"verdure_back_end/internal/store"
)

var ErrUnknownCategory = errors.New("catégorie introuvable")

type Service struct {
	products   store.ProductRepository
	categories store.CategoryRepository
	cache      *cache.Cache
	search     Searcher
}

// NewService accepte un cache nil et un searcher nil (recherche par sous-chaîne seulement).
func NewService(products store.ProductRepository, categories store.CategoryRepository, c *cache.Cache, search Searcher) *Service {
	return &Service{products: products, categories: categories, cache: c, search: search}
}

// ListProducts applique, dans l'ordre : recherche texte, puis catégorie (id ou
// slug), sinon tous les produits actifs. Featured restreint le résultat.
func (s *Service) ListProducts(ctx context.Context, f models.ProductFilter) ([]models.Product, error) {
	all, err := s.allProducts(ctx)
	if err != nil {
		return nil, err
	}

	// Une recherche faite uniquement d'espaces équivaut à pas de recherche.
	var out []models.Product
	switch {
	case strings.TrimSpace(f.Search) != "":
		out = filterSearch(all, f.Search)
	case f.Category != "":
		categoryID, err := s.resolveCategory(ctx, f.Category)
		if err != nil {
			return nil, err
		}
		out = filter(all, func(p models.Product) bool { return p.IsActive && p.CategoryID == categoryID })
	default:
		out = filter(all, func(p models.Product) bool { return p.IsActive })
	}

	if f.Featured {
		out = filter(out, func(p models.Product) bool { return p.IsFeatured })
	}
	return out, nil
}

// ListAllProducts retourne aussi les produits inactifs (back-office).
func (s *Service) ListAllProducts(ctx context.Context) ([]models.Product, error) {
	return s.allProducts(ctx)
}

func (s *Service) allProducts(ctx context.Context) ([]models.Product, error) {
	var cached []models.Product
	if s.cache.GetJSON(ctx, cache.KeyProductsAll, &cached) {
		return cached, nil
	}

	products, err := s.products.ListProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("lecture produits: %w", err)
	}
	s.cache.SetJSON(ctx, cache.KeyProductsAll, products, cache.TTLProducts)
	return products, nil
}

// resolveCategory accepte un id ou un slug. Une valeur inconnue est comparée
// telle quelle aux category_id.
func (s *Service) resolveCategory(ctx context.Context, idOrSlug string) (string, error) {
	if c, err := s.categories.GetCategory(ctx, idOrSlug); err == nil {
		return c.ID, nil
	} else if !errors.Is(err, store.ErrNotFound) {
		return "", err
	}
	if c, err := s.categories.GetCategoryBySlug(ctx, idOrSlug); err == nil {
		return c.ID, nil
	} else if !errors.Is(err, store.ErrNotFound) {
		return "", err
	}
	return idOrSlug, nil
}

// GetProduct retourne ErrNotFound si le produit est absent ou inactif.
func (s *Service) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	key := fmt.Sprintf(cache.KeyProduct, id)

	var p models.Product
	if !s.cache.GetJSON(ctx, key, &p) {
		found, err := s.products.GetProduct(ctx, id)
		if err != nil {
			return nil, err
		}
		p = *found
		s.cache.SetJSON(ctx, key, p, cache.TTLProduct)
	}

	if !p.IsActive {
		return nil, store.ErrNotFound
	}
	return &p, nil
}

func (s *Service) CreateProduct(ctx context.Context, p *models.Product) error {
	if err := s.checkCategory(ctx, p.CategoryID); err != nil {
		return err
	}
	if err := s.products.CreateProduct(ctx, p); err != nil {
		return err
	}
	s.invalidateProduct(ctx, p.ID)
	s.index(*p)
	log.Printf("✅ Produit créé: %s (%s)", p.Name, p.ID)
	return nil
}

func (s *Service) UpdateProduct(ctx context.Context, p *models.Product) error {
	if err := s.checkCategory(ctx, p.CategoryID); err != nil {
		return err
	}
	if err := s.products.UpdateProduct(ctx, p); err != nil {
		return err
	}
	s.invalidateProduct(ctx, p.ID)
	s.index(*p)
	return nil
}

func (s *Service) DeleteProduct(ctx context.Context, id string) error {
	if err := s.products.DeleteProduct(ctx, id); err != nil {
		return err
	}
	s.invalidateProduct(ctx, id)
	if s.search != nil {
		go func() {
			if err := s.search.Remove(context.Background(), id); err != nil {
				log.Printf("⚠️ Suppression index %s: %v", id, err)
			}
		}()
	}
	return nil
}

func (s *Service) checkCategory(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	_, err := s.categories.GetCategory(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return ErrUnknownCategory
	}
	return err
}

func (s *Service) invalidateProduct(ctx context.Context, id string) {
	s.cache.Delete(ctx, cache.KeyProductsAll, fmt.Sprintf(cache.KeyProduct, id))
}

func (s *Service) index(p models.Product) {
	if s.search == nil {
		return
	}
	go func() {
		if err := s.search.Index(context.Background(), p); err != nil {
			log.Printf("⚠️ Indexation %s: %v", p.Name, err)
		}
	}()
}

// --- Catégories ---

func (s *Service) ListCategories(ctx context.Context) ([]models.Category, error) {
	var cached []models.Category
	if s.cache.GetJSON(ctx, cache.KeyCategoriesAll, &cached) {
		return cached, nil
	}

	categories, err := s.categories.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("lecture catégories: %w", err)
	}
	s.cache.SetJSON(ctx, cache.KeyCategoriesAll, categories, cache.TTLCategories)
	return categories, nil
}

func (s *Service) CreateCategory(ctx context.Context, c *models.Category) error {
	if err := s.categories.CreateCategory(ctx, c); err != nil {
		return err
	}
	s.cache.Delete(ctx, cache.KeyCategoriesAll)
	return nil
}

func (s *Service) UpdateCategory(ctx context.Context, c *models.Category) error {
	if err := s.categories.UpdateCategory(ctx, c); err != nil {
		return err
	}
	s.cache.Delete(ctx, cache.KeyCategoriesAll)
	return nil
}

// DeleteCategory ne touche pas aux produits ni aux sous-catégories rattachés.
func (s *Service) DeleteCategory(ctx context.Context, id string) error {
	if err := s.categories.DeleteCategory(ctx, id); err != nil {
		return err
	}
	s.cache.Delete(ctx, cache.KeyCategoriesAll)
	return nil
}

func filter(in []models.Product, keep func(models.Product) bool) []models.Product {
	out := []models.Product{}
	for _, p := range in {
		if keep(p) {
			out = append(out, p)
		}
	}
	return out
}

// filterSearch : sous-chaîne insensible à la casse sur le nom ou la description,
// la requête étant prise telle quelle.
func filterSearch(in []models.Product, q string) []models.Product {
	q = strings.ToLower(q)
	return filter(in, func(p models.Product) bool {
		return p.IsActive && (strings.Contains(strings.ToLower(p.Name), q) ||
			strings.Contains(strings.ToLower(p.Description), q))
	})
}
