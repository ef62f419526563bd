package catalog

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/productadvisor/backend/internal/domain"
	"go.uber.org/zap"
)

//go:embed products.json
var defaultCatalog []byte

// Catalog is an immutable, validated product catalog
type Catalog struct {
	products []domain.Product
	byID     map[string]int
}

var _ domain.CatalogRepository = (*Catalog)(nil)

// Load reads the catalog at path, or the embedded default catalog when path is empty
func Load(path string, version domain.SchemaVersion, logger *zap.Logger) (*Catalog, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	data := defaultCatalog
	source := "embedded"
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read catalog %s: %w", path, err)
		}
		data = b
		source = path
	}

	c, err := Parse(data, version, logger)
	if err != nil {
		return nil, err
	}

	logger.Info("catalog loaded", zap.String("source", source), zap.Int("products", c.Len()))
	return c, nil
}

// Parse builds a catalog from a JSON array of products
func Parse(data []byte, version domain.SchemaVersion, logger *zap.Logger) (*Catalog, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var products []domain.Product
	if err := json.Unmarshal(data, &products); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidCatalog, err)
	}

	c := &Catalog{
		products: products,
		byID:     make(map[string]int, len(products)),
	}
	pairs := make(map[string]string, len(products))

	for i, p := range products {
		if err := validateProduct(p); err != nil {
			return nil, fmt.Errorf("%w: product %d: %v", domain.ErrInvalidCatalog, i, err)
		}
		if _, dup := c.byID[p.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate id %q", domain.ErrInvalidCatalog, p.ID)
		}
		c.byID[p.ID] = i

		key := domain.NormalizeKey(p.ProductName) + "|" + domain.NormalizeKey(p.Brand)
		if other, dup := pairs[key]; dup {
			if version == domain.SchemaNameBrand {
				return nil, fmt.Errorf("%w: products %q and %q share name and brand", domain.ErrInvalidCatalog, other, p.ID)
			}
			logger.Warn("duplicate name and brand in catalog",
				zap.String("id", p.ID),
				zap.String("other_id", other),
			)
			continue
		}
		pairs[key] = p.ID
	}

	return c, nil
}

func validateProduct(p domain.Product) error {
	switch {
	case strings.TrimSpace(p.ID) == "":
		return fmt.Errorf("id is required")
	case strings.TrimSpace(p.Brand) == "":
		return fmt.Errorf("brand is required for %q", p.ID)
	case strings.TrimSpace(p.ProductName) == "":
		return fmt.Errorf("product_name is required for %q", p.ID)
	case math.IsNaN(p.Price) || math.IsInf(p.Price, 0) || p.Price < 0:
		return fmt.Errorf("invalid price %v for %q", p.Price, p.ID)
	}
	return nil
}

// Products returns a copy of all products in catalog order
func (c *Catalog) Products() []domain.Product {
	out := make([]domain.Product, len(c.products))
	copy(out, c.products)
	return out
}

// Get returns the product with the given id
func (c *Catalog) Get(id string) (domain.Product, error) {
	i, ok := c.byID[id]
	if !ok {
		return domain.Product{}, domain.ErrProductNotFound
	}
	return c.products[i], nil
}

// Len returns the number of products
func (c *Catalog) Len() int {
	return len(c.products)
}
