package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"complaintdesk/internal/kvstore"
)

// documentList reads and writes a JSON array stored under one key. Elements
// are kept as raw JSON so records this process never touches are written back
// byte for byte.
type documentList struct {
	kv     kvstore.Store
	key    string
	logger *zap.Logger
}

// load returns the stored elements. A missing key or a value that is not a
// JSON array reads as an empty list; only backend errors are returned.
func (d *documentList) load(ctx context.Context) ([]json.RawMessage, error) {
	raw, err := d.kv.Get(ctx, d.key)
	if errors.Is(err, kvstore.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", d.key, err)
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		d.logger.Warn("treating malformed stored list as empty",
			zap.String("key", d.key), zap.Error(err))
		return nil, nil
	}
	return items, nil
}

// save writes the full list in a single Set.
func (d *documentList) save(ctx context.Context, items []json.RawMessage) error {
	if items == nil {
		items = []json.RawMessage{}
	}
	payload, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", d.key, err)
	}
	if err := d.kv.Set(ctx, d.key, payload); err != nil {
		return fmt.Errorf("write %s: %w", d.key, err)
	}
	return nil
}
