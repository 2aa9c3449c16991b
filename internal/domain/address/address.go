package address

import (
	"context"
	"strings"
	"sync"
)

// Address is a delivery address. Recipient, street, city and postal code are
// required; state, phone and email are optional.
type Address struct {
	RecipientName string `json:"recipient_name"`
	Street        string `json:"street"`
	City          string `json:"city"`
	State         string `json:"state"`
	PostalCode    string `json:"postal_code"`
	Phone         string `json:"phone"`
	Email         string `json:"email"`
}

// MissingFields lists the required fields that are blank after trimming
func (a Address) MissingFields() []string {
	var missing []string
	if strings.TrimSpace(a.RecipientName) == "" {
		missing = append(missing, "recipient_name")
	}
	if strings.TrimSpace(a.Street) == "" {
		missing = append(missing, "street")
	}
	if strings.TrimSpace(a.City) == "" {
		missing = append(missing, "city")
	}
	if strings.TrimSpace(a.PostalCode) == "" {
		missing = append(missing, "postal_code")
	}
	return missing
}

func (a Address) Complete() bool {
	return len(a.MissingFields()) == 0
}

// Normalize trims surrounding whitespace from every field
func (a Address) Normalize() Address {
	return Address{
		RecipientName: strings.TrimSpace(a.RecipientName),
		Street:        strings.TrimSpace(a.Street),
		City:          strings.TrimSpace(a.City),
		State:         strings.TrimSpace(a.State),
		PostalCode:    strings.TrimSpace(a.PostalCode),
		Phone:         strings.TrimSpace(a.Phone),
		Email:         strings.TrimSpace(a.Email),
	}
}

// Contains reports whether list holds an address equal to a field by field
func Contains(list []Address, a Address) bool {
	for _, saved := range list {
		if saved == a {
			return true
		}
	}
	return false
}

// Book stores a user's saved addresses
type Book interface {
	List(ctx context.Context, userID string) ([]Address, error)
	Save(ctx context.Context, userID string, a Address) error
}

// MemoryBook is an in-memory Book
type MemoryBook struct {
	mu    sync.RWMutex
	saved map[string][]Address
}

func NewMemoryBook() *MemoryBook {
	return &MemoryBook{saved: make(map[string][]Address)}
}

func (b *MemoryBook) List(ctx context.Context, userID string) ([]Address, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]Address(nil), b.saved[userID]...), nil
}

func (b *MemoryBook) Save(ctx context.Context, userID string, a Address) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if Contains(b.saved[userID], a) {
		return nil
	}
	b.saved[userID] = append(b.saved[userID], a)
	return nil
}
