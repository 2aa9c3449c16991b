package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/example/ec-checkout/internal/domain/address"
	"github.com/google/uuid"
)

// AddressBook stores saved addresses. The unique index over every field
// makes saving an identical address a no-op.
type AddressBook struct {
	db *sql.DB
}

func NewAddressBook(db *sql.DB) *AddressBook {
	return &AddressBook{db: db}
}

func (b *AddressBook) List(ctx context.Context, userID string) ([]address.Address, error) {
	rows, err := b.db.QueryContext(ctx, `
		SELECT recipient_name, street, city, state, postal_code, phone, email
		FROM addresses WHERE user_id = $1 ORDER BY created_at ASC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list addresses: %w", err)
	}
	defer rows.Close()

	var list []address.Address
	for rows.Next() {
		var a address.Address
		if err := rows.Scan(&a.RecipientName, &a.Street, &a.City, &a.State, &a.PostalCode, &a.Phone, &a.Email); err != nil {
			return nil, err
		}
		list = append(list, a)
	}
	return list, rows.Err()
}

func (b *AddressBook) Save(ctx context.Context, userID string, a address.Address) error {
	_, err := b.db.ExecContext(ctx, `
		INSERT INTO addresses (id, user_id, recipient_name, street, city, state, postal_code, phone, email)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT DO NOTHING
	`, uuid.New().String(), userID, a.RecipientName, a.Street, a.City, a.State, a.PostalCode, a.Phone, a.Email)
	if err != nil {
		return fmt.Errorf("save address: %w", err)
	}
	return nil
}
