// Package app assembles the store, session and repositories from Config so
// the server, the CLI and the seed tool share one wiring.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"complaintdesk/internal/auth"
	"complaintdesk/internal/config"
	"complaintdesk/internal/db"
	"complaintdesk/internal/kvstore"
	"complaintdesk/internal/media"
	"complaintdesk/internal/repository"
	"complaintdesk/internal/service"
	"complaintdesk/internal/session"
)

// App holds the long-lived collaborators.
type App struct {
	Config        *config.Config
	Logger        *zap.Logger
	Store         kvstore.Store
	Session       *session.Store
	Complaints    repository.ComplaintRepository
	Notifications repository.NotificationRepository

	access service.Access

	// Redis is set when the store itself lives in Redis, so the revocation
	// cache can share the connection.
	Redis *redis.Client

	closers []func() error
}

// New opens the configured backend and loads the session.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	a := &App{Config: cfg, Logger: logger}

	store, err := a.openStore(ctx)
	if err != nil {
		return nil, err
	}
	if cfg.StorePrefix != "" {
		store = kvstore.WithPrefix(store, cfg.StorePrefix)
	}
	a.Store = store

	policy, err := repository.PolicyByName(cfg.StatusPolicy)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	ids, err := repository.IDGeneratorByName(cfg.IDStrategy)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.access, err = service.AccessByName(cfg.ComplaintAccess)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	a.Session, err = session.Load(ctx, store, logger)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.Complaints = repository.NewComplaintRepository(store, logger,
		repository.WithPolicy(policy),
		repository.WithIDGenerator(ids))
	a.Notifications = repository.NewNotificationRepository(store, logger)

	logger.Info("store opened",
		zap.String("backend", cfg.StoreBackend),
		zap.String("prefix", cfg.StorePrefix),
		zap.String("status_policy", cfg.StatusPolicy),
		zap.String("id_strategy", cfg.IDStrategy),
		zap.String("complaint_access", string(a.access)))
	return a, nil
}

func (a *App) openStore(ctx context.Context) (kvstore.Store, error) {
	cfg := a.Config
	switch cfg.StoreBackend {
	case config.BackendMemory:
		return kvstore.NewMemory(), nil

	case config.BackendRedis:
		store, err := kvstore.DialRedis(ctx, cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
		if err != nil {
			return nil, err
		}
		a.Redis = store.Client()
		a.closers = append(a.closers, a.Redis.Close)
		return store, nil

	case config.BackendMySQL:
		gormDB, err := db.NewMySQL(cfg.MySQLDSN)
		if err != nil {
			return nil, fmt.Errorf("database init: %w", err)
		}
		return a.gormStore(gormDB)

	case config.BackendSQLite:
		gormDB, err := db.NewSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("database init: %w", err)
		}
		return a.gormStore(gormDB)

	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}

func (a *App) gormStore(gormDB *gorm.DB) (kvstore.Store, error) {
	if sqlDB, err := gormDB.DB(); err == nil {
		a.closers = append(a.closers, sqlDB.Close)
	}
	store := kvstore.NewGorm(gormDB)
	if err := store.Migrate(); err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("auto-migrate: %w", err)
	}
	return store, nil
}

// ComplaintService builds the complaint service for callers identified by
// authn.
func (a *App) ComplaintService(authn auth.Authenticator) service.ComplaintService {
	return service.NewComplaintService(
		authn,
		a.Complaints,
		a.Notifications,
		media.NewEncoder(a.Config.MediaMaxBytes),
		service.SleepDelay(a.Config.SubmitDelay),
		a.Logger,
		service.WithAccess(a.access),
	)
}

// Close releases backend connections.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}
