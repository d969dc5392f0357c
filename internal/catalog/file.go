package catalog

import (
	"fmt"
	"os"

	"github.com/fjod/cart-engine/internal/domain"
	"gopkg.in/yaml.v3"
)

type fileProduct struct {
	ID    string  `yaml:"id"`
	Name  string  `yaml:"name"`
	Price float64 `yaml:"price"`
	Stock int     `yaml:"stock"`
}

// LoadFile builds a MemoryCatalog from a YAML list of products.
func LoadFile(path string) (*MemoryCatalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog file: %w", err)
	}

	var doc struct {
		Products []fileProduct `yaml:"products"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse catalog file %s: %w", path, err)
	}

	products := make([]domain.Product, 0, len(doc.Products))
	for i, p := range doc.Products {
		if p.ID == "" {
			return nil, fmt.Errorf("catalog file %s: product %d has no id", path, i)
		}
		if p.Price < 0 || p.Stock < 0 {
			return nil, fmt.Errorf("catalog file %s: product %s has negative price or stock", path, p.ID)
		}
		products = append(products, domain.Product{ID: p.ID, Name: p.Name, Price: p.Price, Stock: p.Stock})
	}
	return NewMemoryCatalog(products...), nil
}
