package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/custodia-labs/docsum/internal/adapters/driven/auth"
	"github.com/custodia-labs/docsum/internal/adapters/driven/httpapi"
	"github.com/custodia-labs/docsum/internal/adapters/driven/postgres"
	redisadapter "github.com/custodia-labs/docsum/internal/adapters/driven/redis"
	"github.com/custodia-labs/docsum/internal/adapters/driven/tokenstore"
	"github.com/custodia-labs/docsum/internal/config"
	"github.com/custodia-labs/docsum/internal/core/ports/driven"
	"github.com/custodia-labs/docsum/internal/core/ports/driving"
	"github.com/custodia-labs/docsum/internal/core/services"
	"github.com/custodia-labs/docsum/internal/logger"
)

var version = "dev"

// app holds the wired components for one invocation
type app struct {
	cfg    *config.Config
	logger *zap.Logger

	session driving.SessionService
	catalog driving.CatalogService
	search  driving.SearchController
	uploads driving.UploadService
	summary driving.SummaryWorkflow

	closers []func()
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	mode, args := os.Args[1], os.Args[2:]
	if mode == "help" || mode == "-h" || mode == "--help" {
		usage()
		return
	}

	cmd, ok := commands[mode]
	if !ok {
		color.Red("Unknown mode: %s", mode)
		usage()
		os.Exit(2)
	}

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		color.Red("Invalid configuration:\n%v", err)
		os.Exit(1)
	}

	// Setup context with cancellation for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	a, err := newApp(ctx, cfg)
	if err != nil {
		color.Red("Startup failed: %v", err)
		os.Exit(1)
	}

	err = cmd.run(ctx, a, args)
	a.close()
	if err != nil {
		printError(err)
		os.Exit(1)
	}
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	log, err := logger.New(logger.Config{
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		Production: cfg.IsProduction(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	a := &app{cfg: cfg, logger: log}
	a.closers = append(a.closers, func() { _ = log.Sync() })

	client, err := httpapi.NewClient(httpapi.Config{
		BaseURL: cfg.API.BaseURL,
		Timeout: cfg.API.Timeout,
		Logger:  log,
	})
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, func() { _ = client.Close() })

	inspector := auth.NewInspector()
	tokens, lock, err := a.openTokenStore(ctx, inspector)
	if err != nil {
		a.close()
		return nil, err
	}

	session := services.NewSessionService(services.SessionConfig{
		Auth:      client,
		Tokens:    tokens,
		Inspector: inspector,
		Lock:      lock,
		Logger:    log,
	})
	catalog := services.NewCatalogService(services.CatalogConfig{
		Documents:      client,
		Credentials:    session,
		TTL:            cfg.Catalog.TTL,
		AllowAnonymous: cfg.Catalog.AllowAnonymous,
		Logger:         log,
	})
	search := services.NewSearchController(services.SearchConfig{
		Documents:   client,
		Catalog:     catalog,
		Credentials: session,
		Debounce:    cfg.Search.Debounce,
		Logger:      log,
	})
	a.closers = append(a.closers, search.Close)

	a.session = session
	a.catalog = catalog
	a.search = search
	a.uploads = services.NewUploadService(services.UploadConfig{
		Documents:   client,
		Catalog:     catalog,
		Credentials: session,
		Logger:      log,
	})
	a.summary = services.NewSummaryWorkflow(services.SummaryConfig{
		Summaries:   client,
		Catalog:     catalog,
		Credentials: session,
		Logger:      log,
	})
	return a, nil
}

// openTokenStore picks the token backend. The lock is nil for the file backend.
func (a *app) openTokenStore(ctx context.Context, inspector driven.TokenInspector) (driven.TokenStore, driven.DistributedLock, error) {
	cfg := a.cfg.Tokens

	var sealer *tokenstore.Sealer
	if cfg.Passphrase != "" {
		s, err := tokenstore.NewSealer(cfg.Passphrase)
		if err != nil {
			return nil, nil, err
		}
		sealer = s
	}

	switch cfg.Backend {
	case config.BackendRedis:
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to parse Redis URL: %w", err)
		}
		client := redis.NewClient(opts)
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("failed to connect to Redis: %w", err)
		}
		a.closers = append(a.closers, func() { _ = client.Close() })
		a.logger.Debug("using redis token store")

		store := redisadapter.NewTokenStore(redisadapter.TokenStoreConfig{
			Client:    client,
			Sealer:    sealer,
			Inspector: inspector,
			Logger:    a.logger,
		})
		return store, redisadapter.NewLock(client), nil

	case config.BackendPostgres:
		db, err := postgres.Connect(ctx, postgres.DefaultConfig(cfg.DatabaseURL))
		if err != nil {
			return nil, nil, err
		}
		if err := db.InitSchema(ctx); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		a.closers = append(a.closers, func() { _ = db.Close() })
		a.logger.Debug("using postgres token store")

		return postgres.NewTokenStore(db, driven.SessionTokenKey, sealer), postgres.NewLeaseLock(db), nil

	default:
		store, err := tokenstore.NewFileStore(cfg.StateDir, sealer)
		if err != nil {
			return nil, nil, err
		}
		a.logger.Debug("using file token store", zap.String("path", store.Path()))
		return store, nil, nil
	}
}

// close runs the closers in reverse order
func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
