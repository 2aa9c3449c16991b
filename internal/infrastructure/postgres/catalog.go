package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/example/ec-checkout/internal/domain/catalog"
)

// Catalog reads active products from catalog_products
type Catalog struct {
	db *sql.DB
}

func NewCatalog(db *sql.DB) *Catalog {
	return &Catalog{db: db}
}

func (c *Catalog) GetProduct(ctx context.Context, id string) (*catalog.Product, error) {
	var p catalog.Product
	err := c.db.QueryRowContext(ctx, `
		SELECT id, name, price, category, vendor_id
		FROM catalog_products WHERE id = $1 AND is_active
	`, id).Scan(&p.ID, &p.Name, &p.Price, &p.Category, &p.VendorID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, catalog.ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query product %s: %w", id, err)
	}
	return &p, nil
}
