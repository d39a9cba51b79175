package main

import (
	"context"
	"database/sql"
	"fmt"

	"gorm.io/gorm"

	"github.com/appboardguru/boardguru/pkg/ai"
	"github.com/appboardguru/boardguru/pkg/audit"
	"github.com/appboardguru/boardguru/pkg/authz"
	"github.com/appboardguru/boardguru/pkg/cache"
	"github.com/appboardguru/boardguru/pkg/config"
	"github.com/appboardguru/boardguru/pkg/db"
	"github.com/appboardguru/boardguru/pkg/jobs"
	"github.com/appboardguru/boardguru/pkg/logging"
	"github.com/appboardguru/boardguru/pkg/realtime"
	"github.com/appboardguru/boardguru/pkg/server/store"
	gormstore "github.com/appboardguru/boardguru/pkg/server/store/gorm"
	"github.com/appboardguru/boardguru/pkg/service"
	"github.com/appboardguru/boardguru/pkg/storage"
)

// app holds the components shared by the server and the admin commands
type app struct {
	cfg       *config.Config
	db        *gorm.DB
	auditDB   *sql.DB
	stores    store.Stores
	cache     *cache.Manager
	blobs     storage.BlobStore
	ai        *ai.Client
	hub       *realtime.Hub
	bridge    *realtime.NATSBridge
	publisher realtime.Publisher
	services  *service.Services
	worker    *jobs.Worker
}

// newApp connects to the database and object storage and assembles the
// services. The websocket hub and NATS bridge are only created when
// realtime is set; otherwise events are discarded.
func newApp(ctx context.Context, cfg *config.Config, realtimeEnabled bool) (*app, error) {
	log := logging.With("boardguructl")

	gdb, err := db.Connect(db.Config{})
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, db: gdb, stores: gormstore.NewStores(gdb)}

	if cfg.AuditEnabled {
		a.auditDB, err = db.OpenSQL(ctx, db.AuditURL())
		if err != nil {
			return nil, fmt.Errorf("audit database: %w", err)
		}
		audit.SetStore(audit.NewStoreWithDB(a.auditDB))
	}

	if cfg.CacheDBFallback {
		a.cache = cache.New(a.stores.Cache)
	} else {
		a.cache = cache.New(nil)
	}

	if cfg.StorageBucket != "" {
		s3, err := storage.NewS3Store(ctx, cfg.StorageBucket, cfg.StorageRegion, cfg.StorageEndpoint)
		if err != nil {
			return nil, err
		}
		a.blobs = s3
	} else {
		log.Warn().Msg("storage_bucket is not set, asset files are kept in memory")
		a.blobs = storage.NewMemoryStore()
	}

	provider, err := ai.NewProviderFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	a.ai = ai.NewClient(provider, ai.Options{})

	a.publisher = realtime.NoopPublisher{}
	if realtimeEnabled {
		a.hub = realtime.NewHub()
		a.publisher = a.hub
		if cfg.NATSURL != "" {
			a.bridge, err = realtime.NewNATSBridge(cfg.NATSURL, a.hub)
			if err != nil {
				return nil, err
			}
			if err := a.bridge.Start(); err != nil {
				_ = a.bridge.Close()
				return nil, err
			}
			if err := a.bridge.SubscribeCache(a.cache); err != nil {
				_ = a.bridge.Close()
				return nil, err
			}
			a.cache.SetBroadcaster(a.bridge)
			a.publisher = a.bridge
			log.Info().Str("url", cfg.NATSURL).Msg("realtime events relayed through NATS")
		}
	}

	authorizer, err := authz.New(a.stores.Members, a.stores.Vaults)
	if err != nil {
		return nil, fmt.Errorf("authorization policy: %w", err)
	}

	a.services = service.New(service.Deps{
		Stores:    a.stores,
		Authz:     authorizer,
		Publisher: a.publisher,
		Cache:     a.cache,
		Blobs:     a.blobs,
		AI:        a.ai,
	})

	a.worker = jobs.NewWorker(a.stores.Jobs, a.services.Notifications, a.publisher)
	jobs.RegisterDefaults(a.worker, jobs.Deps{
		Stores:    a.stores,
		Blobs:     a.blobs,
		AI:        a.ai,
		Publisher: a.publisher,
		Cache:     a.cache,
	})

	log.Info().Str("ai_provider", provider.Name()).Bool("audit", cfg.AuditEnabled).Msg("application initialized")
	return a, nil
}

// Close releases the connections opened by newApp
func (a *app) Close() {
	if a.bridge != nil {
		_ = a.bridge.Close()
	}
	if a.auditDB != nil {
		audit.SetStore(nil)
		_ = a.auditDB.Close()
	}
	if sqlDB, err := a.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// loadConfig loads, validates and installs the global configuration
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	config.Set(cfg)
	return cfg, nil
}
