package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"marketplace/internal/config"
	"marketplace/internal/models"

	"github.com/elastic/go-elasticsearch/v9"
)

const maxHits = 100

// NewClient connects to Elasticsearch and checks the cluster answers.
func NewClient(cfg *config.Config, logger *slog.Logger) (*elasticsearch.Client, error) {
	logger.Info("connecting to Elasticsearch", "url", cfg.ESURL)

	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{cfg.ESURL},
		Username:  cfg.ESUser,
		Password:  cfg.ESPassword,
	})
	if err != nil {
		return nil, fmt.Errorf("create elasticsearch client: %w", err)
	}

	res, err := client.Info()
	if err != nil {
		return nil, fmt.Errorf("elasticsearch info: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return nil, fmt.Errorf("elasticsearch error response %s: %s", res.Status(), body)
	}
	return client, nil
}

// ProductIndex keeps product name and description searchable.
type ProductIndex struct {
	es     *elasticsearch.Client
	index  string
	logger *slog.Logger
}

// NewProductIndex creates a new ProductIndex on the given index name.
func NewProductIndex(es *elasticsearch.Client, index string, logger *slog.Logger) *ProductIndex {
	return &ProductIndex{es: es, index: index, logger: logger}
}

type document struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	SellerID    string   `json:"sellerId"`
	Categories  []string `json:"categories"`
	Price       float64  `json:"price"`
}

// EnsureIndex creates the index with text mappings if it does not exist.
func (i *ProductIndex) EnsureIndex(ctx context.Context) error {
	res, err := i.es.Indices.Exists([]string{i.index}, i.es.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("check index %s: %w", i.index, err)
	}
	res.Body.Close()
	if res.StatusCode == http.StatusOK {
		return nil
	}

	mapping := map[string]any{
		"mappings": map[string]any{
			"properties": map[string]any{
				"name":        map[string]any{"type": "text"},
				"description": map[string]any{"type": "text"},
				"sellerId":    map[string]any{"type": "keyword"},
				"categories":  map[string]any{"type": "keyword"},
				"price":       map[string]any{"type": "double"},
			},
		},
	}
	body, err := encode(mapping)
	if err != nil {
		return err
	}
	res, err = i.es.Indices.Create(i.index, i.es.Indices.Create.WithBody(body), i.es.Indices.Create.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("create index %s: %w", i.index, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("create index %s: %s", i.index, res.Status())
	}
	i.logger.Info("created search index", "index", i.index)
	return nil
}

// IndexProduct upserts the searchable fields of product.
func (i *ProductIndex) IndexProduct(ctx context.Context, product *models.Product) error {
	body, err := encode(document{
		Name:        product.Name,
		Description: product.Description,
		SellerID:    product.SellerID,
		Categories:  product.Categories,
		Price:       product.Price,
	})
	if err != nil {
		return err
	}
	res, err := i.es.Index(i.index, body,
		i.es.Index.WithDocumentID(product.ID),
		i.es.Index.WithContext(ctx),
		i.es.Index.WithRefresh("true"),
	)
	if err != nil {
		return fmt.Errorf("index product %s: %w", product.ID, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("index product %s: %s", product.ID, res.Status())
	}
	return nil
}

// DeleteProduct removes a product. A product that was never indexed is not
// an error.
func (i *ProductIndex) DeleteProduct(ctx context.Context, id string) error {
	res, err := i.es.Delete(i.index, id, i.es.Delete.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("delete product %s: %w", id, err)
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("delete product %s: %s", id, res.Status())
	}
	return nil
}

// SearchProducts runs a multi_match over name (boosted) and description and
// returns the ids of the best hits.
func (i *ProductIndex) SearchProducts(ctx context.Context, keyword string) ([]string, error) {
	query := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":  keyword,
				"fields": []string{"name^2", "description"},
			},
		},
		"_source": false,
		"size":    maxHits,
	}
	body, err := encode(query)
	if err != nil {
		return nil, err
	}

	res, err := i.es.Search(
		i.es.Search.WithContext(ctx),
		i.es.Search.WithIndex(i.index),
		i.es.Search.WithBody(body),
	)
	if err != nil {
		return nil, fmt.Errorf("search error: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, fmt.Errorf("search error: %s", res.Status())
	}

	var r struct {
		Hits struct {
			Hits []struct {
				ID string `json:"_id"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	ids := make([]string, 0, len(r.Hits.Hits))
	for _, hit := range r.Hits.Hits {
		ids = append(ids, hit.ID)
	}
	return ids, nil
}

func encode(v any) (*bytes.Buffer, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	return &buf, nil
}
