package main

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/nhle/hr-console/internal/api"
	"github.com/nhle/hr-console/internal/app"
	"github.com/nhle/hr-console/internal/credential"
	"github.com/nhle/hr-console/internal/eventbus"
	"github.com/nhle/hr-console/internal/guard"
	"github.com/nhle/hr-console/internal/logging"
	"github.com/nhle/hr-console/internal/model"
	"github.com/nhle/hr-console/internal/notify"
	"github.com/nhle/hr-console/internal/pagination"
	"github.com/nhle/hr-console/internal/session"
	"github.com/nhle/hr-console/internal/slice"
	"github.com/nhle/hr-console/internal/store"
)

// historyKeep is the number of notifications kept across restarts.
const historyKeep = 1000

// services is the process-wide wiring shared by every subcommand.
type services struct {
	Config   *model.AppConfig
	Logger   *zap.Logger
	Store    *store.SQLiteStore
	Session  *session.Store
	Guard    *guard.Guard
	Registry *slice.Registry
	Pages    *pagination.Cache
	Bridge   *notify.Bridge
}

// openServices builds the logger, local store, session and request
// slices, and subscribes the observers to the event bus.
func openServices(cfg *model.AppConfig) (*services, error) {
	logger, err := logging.New(cfg.Log.File, cfg.Log.Debug)
	if err != nil {
		return nil, err
	}

	db, err := store.NewSQLiteStore(cfg.Data.DBPath)
	if err != nil {
		_ = logger.Sync()
		return nil, fmt.Errorf("opening local store: %w", err)
	}

	creds, err := credential.Open(filepath.Join(model.ConfigDir(), "credentials"))
	if err != nil {
		_ = db.Close()
		_ = logger.Sync()
		return nil, err
	}

	bus := eventbus.New()
	client := api.NewClient(cfg.API.BaseURL, cfg.RequestTimeout(), logging.Module(logger, "api"))

	sess := session.New(creds, client, bus, logger)
	sess.Bootstrap()

	pages := pagination.New()
	bridge := notify.New(cfg.DedupeWindow(),
		notify.WithRecorder(db),
		notify.WithLogger(logger),
		notify.WithBuffer(cfg.Notifications.Buffer),
	)

	// Session first: an auth failure must end the session before the
	// bridge and views react to it.
	for _, watch := range []func(*eventbus.Bus) error{sess.Watch, pages.Watch, bridge.Watch} {
		if err := watch(bus); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("subscribing to event bus: %w", err)
		}
	}

	registry := slice.NewHRRegistry(client, slice.Options{
		Timeout: cfg.RequestTimeout(),
		Token:   sess.Token,
		Bus:     bus,
		Logger:  logger,
	})

	logger.Info("console started",
		zap.String("api", cfg.API.BaseURL),
		zap.Bool("authenticated", sess.IsAuthenticated()),
	)

	return &services{
		Config:   cfg,
		Logger:   logger,
		Store:    db,
		Session:  sess,
		Guard:    guard.New(sess),
		Registry: registry,
		Pages:    pages,
		Bridge:   bridge,
	}, nil
}

// Deps returns the dependencies of the root UI model.
func (s *services) Deps() app.Deps {
	return app.Deps{
		Config:   s.Config,
		Session:  s.Session,
		Guard:    s.Guard,
		Registry: s.Registry,
		Pages:    s.Pages,
		Bridge:   s.Bridge,
		Store:    s.Store,
		Logger:   s.Logger,
	}
}

// Close trims the notification history and releases the store.
func (s *services) Close() {
	ctx, cancel := shutdownContext()
	defer cancel()
	if err := s.Store.PruneNotifications(ctx, historyKeep); err != nil {
		s.Logger.Warn("pruning notification history failed", zap.Error(err))
	}
	if err := s.Store.Close(); err != nil {
		s.Logger.Warn("closing local store failed", zap.Error(err))
	}
	_ = s.Logger.Sync()
}

func shutdownContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 5*time.Second)
}
