package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"complaintdesk/internal/kvstore"
	"complaintdesk/internal/model"
)

// NotificationsKey is where status-change notifications are persisted.
const NotificationsKey = "notifications"

// NotificationRepository defines notification persistence operations.
type NotificationRepository interface {
	Append(ctx context.Context, n *model.Notification) error
	ListForUser(ctx context.Context, userID string) ([]model.Notification, error)
	MarkAllRead(ctx context.Context, userID string) (int, error)
}

type notificationRepository struct {
	list   documentList
	logger *zap.Logger
	mu     sync.Mutex
}

// NewNotificationRepository builds a repository over the "notifications" key.
func NewNotificationRepository(kv kvstore.Store, logger *zap.Logger) NotificationRepository {
	return &notificationRepository{
		list:   documentList{kv: kv, key: NotificationsKey, logger: logger},
		logger: logger,
	}
}

func (r *notificationRepository) Append(ctx context.Context, n *model.Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	items, err := r.list.load(ctx)
	if err != nil {
		return err
	}
	return r.list.save(ctx, append(items, payload))
}

// ListForUser returns the user's notifications, newest first.
func (r *notificationRepository) ListForUser(ctx context.Context, userID string) ([]model.Notification, error) {
	all, err := r.decodeAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]model.Notification, 0)
	for i := len(all) - 1; i >= 0; i-- {
		if all[i].UserID == userID {
			out = append(out, all[i])
		}
	}
	return out, nil
}

// MarkAllRead flags every unread notification of userID and reports how many
// changed.
func (r *notificationRepository) MarkAllRead(ctx context.Context, userID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	all, err := r.decodeAll(ctx)
	if err != nil {
		return 0, err
	}
	changed := 0
	items := make([]json.RawMessage, 0, len(all))
	for i := range all {
		if all[i].UserID == userID && !all[i].Read {
			all[i].Read = true
			changed++
		}
		payload, err := json.Marshal(&all[i])
		if err != nil {
			return 0, fmt.Errorf("marshal notification: %w", err)
		}
		items = append(items, payload)
	}
	if changed == 0 {
		return 0, nil
	}
	return changed, r.list.save(ctx, items)
}

func (r *notificationRepository) decodeAll(ctx context.Context) ([]model.Notification, error) {
	items, err := r.list.load(ctx)
	if err != nil {
		return nil, err
	}
	all := make([]model.Notification, 0, len(items))
	for i, item := range items {
		var n model.Notification
		if err := json.Unmarshal(item, &n); err != nil {
			r.logger.Warn("skipping malformed notification", zap.Int("index", i), zap.Error(err))
			continue
		}
		all = append(all, n)
	}
	return all, nil
}
