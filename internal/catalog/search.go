package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"verdure_back_end/internal/models"
)

const ProductsIndex = "products"

// Searcher indexe les produits et retourne les identifiants correspondant à une requête.
type Searcher interface {
	Index(ctx context.Context, p models.Product) error
	Remove(ctx context.Context, id string) error
	Search(ctx context.Context, query string) ([]string, error)
}

type Elastic struct {
	client *elasticsearch.Client
	index  string
}

func NewElastic(client *elasticsearch.Client) *Elastic {
	return &Elastic{client: client, index: ProductsIndex}
}

func (e *Elastic) Index(ctx context.Context, p models.Product) error {
	data, err := json.Marshal(p)
	if err != nil {
		return err
	}
	req := esapi.IndexRequest{
		Index:      e.index,
		DocumentID: p.ID,
		Body:       bytes.NewReader(data),
		Refresh:    "true",
	}

	res, err := req.Do(ctx, e.client)
	if err != nil {
		return fmt.Errorf("envoi Elastic: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("elastic a renvoyé une erreur pour %s: %s", p.Name, res.String())
	}
	log.Printf("✅ Produit indexé dans Elasticsearch: %s", p.Name)
	return nil
}

func (e *Elastic) Remove(ctx context.Context, id string) error {
	res, err := esapi.DeleteRequest{Index: e.index, DocumentID: id}.Do(ctx, e.client)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != 404 {
		return fmt.Errorf("suppression Elastic: %s", res.String())
	}
	return nil
}

// Search lance un multi_match sur le nom et la description.
func (e *Elastic) Search(ctx context.Context, query string) ([]string, error) {
	var buf bytes.Buffer
	q := map[string]interface{}{
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  query,
				"fields": []string{"name^2", "description"},
			},
		},
	}
	if err := json.NewEncoder(&buf).Encode(q); err != nil {
		return nil, fmt.Errorf("erreur encodage requête: %w", err)
	}

	res, err := esapi.SearchRequest{Index: []string{e.index}, Body: &buf}.Do(ctx, e.client)
	if err != nil {
		return nil, fmt.Errorf("erreur requête Elastic: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, errors.New("index non trouvé ou vide")
	}

	var r struct {
		Hits struct {
			Hits []struct {
				ID string `json:"_id"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return nil, fmt.Errorf("erreur décodage JSON: %w", err)
	}

	ids := make([]string, 0, len(r.Hits.Hits))
	for _, h := range r.Hits.Hits {
		ids = append(ids, h.ID)
	}
	return ids, nil
}

// Search interroge Elasticsearch puis recharge les produits actifs trouvés,
// dans l'ordre de pertinence. Sans Elasticsearch, ou en cas d'erreur, on
// retombe sur la recherche par sous-chaîne.
func (s *Service) Search(ctx context.Context, query string) ([]models.Product, error) {
	if s.search != nil {
		ids, err := s.search.Search(ctx, query)
		if err == nil && len(ids) > 0 {
			out := make([]models.Product, 0, len(ids))
			for _, id := range ids {
				p, err := s.GetProduct(ctx, id)
				if err != nil {
					continue
				}
				out = append(out, *p)
			}
			return out, nil
		}
		if err != nil {
			log.Printf("⚠️ Recherche Elastic indisponible, repli sur le filtre: %v", err)
		}
	}
	return s.ListProducts(ctx, models.ProductFilter{Search: query})
}

// Reindex pousse tous les produits dans l'index (au démarrage).
func (s *Service) Reindex(ctx context.Context) error {
	if s.search == nil {
		return nil
	}
	products, err := s.products.ListProducts(ctx)
	if err != nil {
		return err
	}
	for _, p := range products {
		if err := s.search.Index(ctx, p); err != nil {
			return err
		}
	}
	log.Printf("🔎 %d produits réindexés", len(products))
	return nil
}
