package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"BeautyBot/internal/domain"
	"BeautyBot/internal/ports"
)

// FileBatchCache persists the weekly batch as a JSON array of product
// objects. The array length is the number of items available this week,
// indexed 0=Monday through 4=Friday.
type FileBatchCache struct {
	path string
}

var _ ports.BatchCache = (*FileBatchCache)(nil)

// NewFileBatchCache wires the cache file path.
func NewFileBatchCache(path string) *FileBatchCache {
	return &FileBatchCache{path: path}
}

type batchItem struct {
	Title       string `json:"title"`
	Brand       string `json:"brand,omitempty"`
	URL         string `json:"url"`
	SkinType    string `json:"skin_type,omitempty"`
	Description string `json:"description,omitempty"`
	Ingredients string `json:"ingredients,omitempty"`
	Price       string `json:"price,omitempty"`
}

// Load reads the cached batch. A missing file yields an empty batch
// without error; a corrupt file is an error so the caller can decide
// whether the week is lost or a refresh is due.
func (c *FileBatchCache) Load(_ context.Context) ([]domain.Product, error) {
	raw, err := os.ReadFile(c.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read batch cache: %w", err)
	}

	var items []batchItem
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("parse batch cache: %w", err)
	}

	batch := make([]domain.Product, 0, len(items))
	for _, item := range items {
		batch = append(batch, domain.Product{
			Source:      "weekly-batch",
			Title:       item.Title,
			Brand:       item.Brand,
			URL:         item.URL,
			SkinType:    item.SkinType,
			Description: item.Description,
			Ingredients: item.Ingredients,
			Price:       item.Price,
		})
	}
	return batch, nil
}

// Save overwrites the cache atomically. Callers invoke it only after a
// successful refresh, so a failed refresh never clobbers the old batch.
func (c *FileBatchCache) Save(_ context.Context, batch []domain.Product) error {
	items := make([]batchItem, 0, len(batch))
	for _, product := range batch {
		items = append(items, batchItem{
			Title:       product.Title,
			Brand:       product.Brand,
			URL:         product.URL,
			SkinType:    product.SkinType,
			Description: product.Description,
			Ingredients: product.Ingredients,
			Price:       product.Price,
		})
	}

	raw, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal batch: %w", err)
	}
	return writeFileAtomic(c.path, raw)
}
