// Package session keeps the logged-in user under the "user" key.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"complaintdesk/internal/kvstore"
	"complaintdesk/internal/model"
)

// Key is where the session user is persisted.
const Key = "user"

// Store caches the session user read at construction. It never re-reads the
// backing store, so sessions started elsewhere are not observed.
type Store struct {
	kv     kvstore.Store
	logger *zap.Logger

	mu   sync.RWMutex
	user *model.User
}

// Load reads the persisted session once. Malformed data is logged and treated
// as no session; only backend failures are returned.
func Load(ctx context.Context, kv kvstore.Store, logger *zap.Logger) (*Store, error) {
	s := &Store{kv: kv, logger: logger}

	raw, err := kv.Get(ctx, Key)
	if errors.Is(err, kvstore.ErrNotFound) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read session: %w", err)
	}

	var user model.User
	if err := json.Unmarshal(raw, &user); err != nil {
		logger.Warn("ignoring malformed session data", zap.Error(err))
		return s, nil
	}
	if user.ID == "" {
		logger.Warn("ignoring session without user id")
		return s, nil
	}
	s.user = &user
	return s, nil
}

// Current returns the cached session user.
func (s *Store) Current() (*model.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil, false
	}
	u := *s.user
	return &u, true
}

// CurrentUser implements auth.Authenticator.
func (s *Store) CurrentUser(context.Context) (*model.User, bool) {
	return s.Current()
}

// Begin persists user as the session user. This is the login flow's half of
// the contract.
func (s *Store) Begin(ctx context.Context, user *model.User) error {
	payload, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := s.kv.Set(ctx, Key, payload); err != nil {
		return fmt.Errorf("write session: %w", err)
	}

	u := *user
	s.mu.Lock()
	s.user = &u
	s.mu.Unlock()
	return nil
}

// End clears the persisted session.
func (s *Store) End(ctx context.Context) error {
	if err := s.kv.Delete(ctx, Key); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	s.mu.Lock()
	s.user = nil
	s.mu.Unlock()
	return nil
}
