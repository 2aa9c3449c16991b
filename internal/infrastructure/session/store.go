package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/example/ec-checkout/internal/domain/checkout"
)

var (
	ErrNotFound = errors.New("checkout session not found")
	ErrLocked   = errors.New("checkout session is locked")
)

// DefaultTTL is how long an idle checkout session is kept
const DefaultTTL = 30 * time.Minute

// lockTTL bounds how long a crashed submitter can hold a session lock
const lockTTL = 30 * time.Second

// Store persists checkout sessions, one per buyer. Loaded sessions are
// unbound; callers attach the cart and pricing engine with Bind.
type Store interface {
	Load(ctx context.Context, userID string) (*checkout.Session, error)
	Save(ctx context.Context, sess *checkout.Session) error
	Delete(ctx context.Context, userID string) error

	// Lock takes the submission lock for a session. It returns ErrLocked
	// when another holder has it. The returned func releases the lock.
	Lock(ctx context.Context, sessionID string) (func(), error)
}

// MemoryStore keeps sessions in process. Sessions are stored encoded so a
// loaded session never aliases the saved one, matching RedisStore.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string][]byte
	locks    map[string]struct{}
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string][]byte),
		locks:    make(map[string]struct{}),
	}
}

func (m *MemoryStore) Load(ctx context.Context, userID string) (*checkout.Session, error) {
	m.mu.Lock()
	data, ok := m.sessions[userID]
	m.mu.Unlock()
	if !ok {
		return nil, ErrNotFound
	}
	return decode(data)
}

func (m *MemoryStore) Save(ctx context.Context, sess *checkout.Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal session failed: %w", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[sess.UserID] = data
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, userID)
	return nil
}

func (m *MemoryStore) Lock(ctx context.Context, sessionID string) (func(), error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, held := m.locks[sessionID]; held {
		return nil, ErrLocked
	}
	m.locks[sessionID] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.locks, sessionID)
			m.mu.Unlock()
		})
	}, nil
}

func decode(data []byte) (*checkout.Session, error) {
	var sess checkout.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("unmarshal session failed: %w", err)
	}
	return &sess, nil
}
