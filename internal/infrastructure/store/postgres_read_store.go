package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/example/ec-checkout/internal/readmodel"
)

// queryer is satisfied by *sql.DB and *sql.Tx
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// PostgresReadStore implements ReadStoreInterface using PostgreSQL
type PostgresReadStore struct {
	db *sql.DB
}

// NewPostgresReadStore creates a new PostgreSQL-based read store
func NewPostgresReadStore(db *sql.DB) *PostgresReadStore {
	return &PostgresReadStore{db: db}
}

var errUnknownCollection = errors.New("unknown read model collection")

// Set stores a read model
func (rs *PostgresReadStore) Set(ctx context.Context, collection, id string, data any) error {
	return rs.set(ctx, rs.db, collection, data)
}

func (rs *PostgresReadStore) set(ctx context.Context, q queryer, collection string, data any) error {
	switch collection {
	case CollectionCarts:
		return setCart(ctx, q, data.(*readmodel.CartReadModel))
	case CollectionOrders:
		return setOrder(ctx, q, data.(*readmodel.OrderReadModel))
	}
	return fmt.Errorf("%w: %s", errUnknownCollection, collection)
}

// Get retrieves a read model by id
func (rs *PostgresReadStore) Get(ctx context.Context, collection, id string) (any, bool, error) {
	return rs.get(ctx, rs.db, collection, id, false)
}

func (rs *PostgresReadStore) get(ctx context.Context, q queryer, collection, id string, forUpdate bool) (any, bool, error) {
	lock := ""
	if forUpdate {
		lock = " FOR UPDATE"
	}

	var (
		item any
		err  error
	)
	switch collection {
	case CollectionCarts:
		item, err = scanCart(q.QueryRowContext(ctx, `SELECT `+cartColumns+` FROM read_carts WHERE id = $1`+lock, id))
	case CollectionOrders:
		item, err = scanOrder(q.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM read_orders WHERE id = $1`+lock, id))
	default:
		return nil, false, fmt.Errorf("%w: %s", errUnknownCollection, collection)
	}
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get %s %s: %w", collection, id, err)
	}
	return item, true, nil
}

// GetAllByUser retrieves a user's items in a collection, newest first
func (rs *PostgresReadStore) GetAllByUser(ctx context.Context, collection, userID string) ([]any, error) {
	var query string
	var scan func(rowScanner) (any, error)
	switch collection {
	case CollectionCarts:
		query = `SELECT ` + cartColumns + ` FROM read_carts WHERE user_id = $1 ORDER BY updated_at DESC`
		scan = func(r rowScanner) (any, error) { return scanCart(r) }
	case CollectionOrders:
		query = `SELECT ` + orderColumns + ` FROM read_orders WHERE user_id = $1 ORDER BY created_at DESC`
		scan = func(r rowScanner) (any, error) { return scanOrder(r) }
	default:
		return nil, fmt.Errorf("%w: %s", errUnknownCollection, collection)
	}

	rows, err := rs.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list %s for %s: %w", collection, userID, err)
	}
	defer rows.Close()

	var items []any
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// Delete removes a read model
func (rs *PostgresReadStore) Delete(ctx context.Context, collection, id string) error {
	var tableName string
	switch collection {
	case CollectionCarts:
		tableName = "read_carts"
	case CollectionOrders:
		tableName = "read_orders"
	default:
		return fmt.Errorf("%w: %s", errUnknownCollection, collection)
	}

	if _, err := rs.db.ExecContext(ctx, "DELETE FROM "+tableName+" WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete %s %s: %w", collection, id, err)
	}
	return nil
}

// Update modifies a read model using an update function. The row is locked
// for the duration of the update.
func (rs *PostgresReadStore) Update(ctx context.Context, collection, id string, updateFn func(current any) any) (bool, error) {
	tx, err := rs.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	current, found, err := rs.get(ctx, tx, collection, id, true)
	if err != nil || !found {
		return false, err
	}
	if err := rs.set(ctx, tx, collection, updateFn(current)); err != nil {
		return false, err
	}
	return true, tx.Commit()
}

type rowScanner interface {
	Scan(dest ...any) error
}

// Cart operations
const cartColumns = `id, user_id, items, subtotal, version, updated_at`

func setCart(ctx context.Context, q queryer, c *readmodel.CartReadModel) error {
	itemsJSON, err := json.Marshal(c.Items)
	if err != nil {
		return err
	}
	_, err = q.ExecContext(ctx, `
		INSERT INTO read_carts (id, user_id, items, subtotal, version, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			items = EXCLUDED.items,
			subtotal = EXCLUDED.subtotal,
			version = EXCLUDED.version,
			updated_at = EXCLUDED.updated_at
	`, c.ID, c.UserID, itemsJSON, int64(c.Subtotal), c.Version, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("set cart %s: %w", c.ID, err)
	}
	return nil
}

func scanCart(r rowScanner) (*readmodel.CartReadModel, error) {
	var c readmodel.CartReadModel
	var itemsJSON []byte
	if err := r.Scan(&c.ID, &c.UserID, &itemsJSON, &c.Subtotal, &c.Version, &c.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(itemsJSON, &c.Items); err != nil {
		return nil, err
	}
	return &c, nil
}

// Order operations
const orderColumns = `id, user_id, items, address, shipping_method, payment_method,
	subtotal, shipping_cost, tax, discount, total, coupon_code, status, version, created_at, updated_at`

func setOrder(ctx context.Context, q queryer, o *readmodel.OrderReadModel) error {
	itemsJSON, err := json.Marshal(o.Items)
	if err != nil {
		return err
	}
	addressJSON, err := json.Marshal(o.Address)
	if err != nil {
		return err
	}
	_, err = q.ExecContext(ctx, `
		INSERT INTO read_orders (id, user_id, items, address, shipping_method, payment_method,
			subtotal, shipping_cost, tax, discount, total, coupon_code, status, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			version = EXCLUDED.version,
			updated_at = EXCLUDED.updated_at
	`, o.ID, o.UserID, itemsJSON, addressJSON, o.ShippingMethod, o.PaymentMethod,
		int64(o.Subtotal), int64(o.ShippingCost), int64(o.Tax), int64(o.Discount), int64(o.Total),
		o.CouponCode, o.Status, o.Version, o.CreatedAt, o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("set order %s: %w", o.ID, err)
	}
	return nil
}

func scanOrder(r rowScanner) (*readmodel.OrderReadModel, error) {
	var o readmodel.OrderReadModel
	var itemsJSON, addressJSON []byte
	err := r.Scan(&o.ID, &o.UserID, &itemsJSON, &addressJSON, &o.ShippingMethod, &o.PaymentMethod,
		&o.Subtotal, &o.ShippingCost, &o.Tax, &o.Discount, &o.Total,
		&o.CouponCode, &o.Status, &o.Version, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(itemsJSON, &o.Items); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(addressJSON, &o.Address); err != nil {
		return nil, err
	}
	return &o, nil
}
