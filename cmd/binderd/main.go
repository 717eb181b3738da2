// Package main runs the deck binder daemon: it loads the card catalog, restores
// the persisted session and serves it over REST and WebSocket.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/ramonehamilton/deck-binder/internal/api"
	"github.com/ramonehamilton/deck-binder/internal/api/handlers"
	"github.com/ramonehamilton/deck-binder/internal/binder"
	"github.com/ramonehamilton/deck-binder/internal/catalog"
	"github.com/ramonehamilton/deck-binder/internal/config"
	"github.com/ramonehamilton/deck-binder/internal/drag"
	"github.com/ramonehamilton/deck-binder/internal/events"
	"github.com/ramonehamilton/deck-binder/internal/grid"
	"github.com/ramonehamilton/deck-binder/internal/metrics"
	"github.com/ramonehamilton/deck-binder/internal/storage"
	"github.com/ramonehamilton/deck-binder/internal/version"
)

var (
	configPath  = flag.String("config", "", "Config file path (default: ~/.deck-binder/config.toml)")
	port        = flag.Int("port", 0, "API server port (overrides config)")
	dbPath      = flag.String("db-path", "", "Database path (overrides config)")
	catalogFile = flag.String("catalog", "", "Catalog JSON file (overrides config)")
	migrateOnly = flag.Bool("migrate", false, "Apply database migrations and exit")
	backupOnly  = flag.Bool("backup", false, "Write one database backup and exit")
	writeConfig = flag.Bool("write-config", false, "Write the effective config to the config path and exit")
	showVersion = flag.Bool("version", false, "Print the version and exit")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println(version.GetVersion())
		return
	}

	cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if *writeConfig {
		path := *configPath
		if path == "" {
			path = config.Path()
		}
		if err := cfg.SaveTo(path); err != nil {
			log.Fatalf("Failed to write config: %v", err)
		}
		fmt.Printf("Config written to %s\n", path)
		return
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Storage.DBPath), 0o755); err != nil {
		log.Fatalf("Failed to create database directory: %v", err)
	}

	if *migrateOnly {
		if err := migrate(cfg.Storage.DBPath); err != nil {
			log.Fatalf("Migration failed: %v", err)
		}
		return
	}

	if *backupOnly {
		if err := backupOnce(cfg); err != nil {
			log.Fatalf("Backup failed: %v", err)
		}
		return
	}

	if err := run(cfg); err != nil {
		log.Fatalf("deck-binder: %v", err)
	}
}

func loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if *configPath != "" {
		cfg, err = config.LoadFrom(*configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	if *port != 0 {
		cfg.Server.Port = *port
	}
	if *dbPath != "" {
		cfg.Storage.DBPath = *dbPath
	}
	if *catalogFile != "" {
		cfg.Catalog.File = *catalogFile
		cfg.Catalog.URL = ""
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func migrate(path string) error {
	mm, err := storage.NewMigrationManager(path)
	if err != nil {
		return err
	}
	defer func() {
		if err := mm.Close(); err != nil {
			log.Printf("Error closing migration manager: %v", err)
		}
	}()

	if err := mm.Up(); err != nil {
		return err
	}
	schemaVersion, dirty, err := mm.Version()
	if err != nil {
		return err
	}
	fmt.Printf("Database %s at schema version %d (dirty=%v)\n", path, schemaVersion, dirty)
	return nil
}

func backupOnce(cfg *config.Config) error {
	db, err := storage.Open(storage.DefaultConfig(cfg.Storage.DBPath))
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = db.Close() }()

	info, err := storage.NewBackupManager(db, cfg.Storage.BackupDir, cfg.Storage.BackupKeep).Backup(context.Background())
	if err != nil {
		return err
	}
	fmt.Printf("Backup written to %s (sha256 %s)\n", info.Path, info.Checksum)
	return nil
}

func catalogSource(cfg *config.Config) (catalog.Source, error) {
	if cfg.Catalog.URL == "" {
		return catalog.FileSource{Path: cfg.Catalog.File}, nil
	}
	timeout, err := cfg.GetCatalogTimeout()
	if err != nil {
		return nil, err
	}
	retries := cfg.Catalog.MaxRetries
	return catalog.NewHTTPSource(cfg.Catalog.URL, catalog.HTTPSourceOptions{
		RateLimit:  rate.Limit(cfg.Catalog.RateLimit),
		Timeout:    timeout,
		MaxRetries: &retries,
	}), nil
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	src, err := catalogSource(cfg)
	if err != nil {
		return err
	}
	cards, err := catalog.Load(ctx, src)
	if err != nil {
		return err
	}

	storageConfig := storage.DefaultConfig(cfg.Storage.DBPath)
	storageConfig.AutoMigrate = cfg.Storage.AutoMigrate
	db, err := storage.Open(storageConfig)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	store := storage.NewService(db)
	defer func() {
		if err := store.Close(); err != nil {
			log.Printf("Error closing storage: %v", err)
		}
	}()

	initial, err := store.LoadState(ctx)
	if err != nil {
		return fmt.Errorf("failed to load session state: %w", err)
	}

	dispatcher := events.NewDispatcher()
	dispatcher.Register(events.LogObserver{})
	if cfg.App.DebugMode {
		dispatcher.Register(events.NewObserverFunc("DebugObserver", func(e events.Event) error {
			log.Printf("[Debug] %s: %+v", e.Type, e.Data)
			return nil
		}, "binder:", "drag:"))
	}

	collector := metrics.NewCollector()
	dispatcher.Register(collector)

	persister := storage.NewPersister(store, dispatcher)
	dispatcher.Register(persister)

	opts := []binder.Option{binder.WithDispatcher(dispatcher)}
	if cfg.Wishlist.AutoRemoveOnAcquire {
		opts = append(opts, binder.WithAcquireHook(binder.RemoveFromWishlist))
	}
	session := binder.NewSession(cards, initial, opts...)
	log.Printf("[Binder] Session restored at version %d", session.Version())

	layout := drag.NewRectLayout()
	controller := drag.NewController(session, layout, dispatcher)

	timeout, err := cfg.GetRequestTimeout()
	if err != nil {
		return err
	}
	backupInterval, err := cfg.GetBackupInterval()
	if err != nil {
		return err
	}
	backups := storage.NewBackupManager(db, cfg.Storage.BackupDir, cfg.Storage.BackupKeep)
	var backupService handlers.BackupService
	if cfg.Storage.BackupDir != "" {
		backupService = backups
	}
	server := api.NewServer(&api.Config{
		Port:           cfg.Server.Port,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		RequestTimeout: timeout,
	}, api.Deps{
		Session: session,
		Catalog: cards,
		Drag:    controller,
		Layout:  layout,
		History: store,
		Backups: backupService,
		Metrics: collector,
		Persist: persister,
		Grid: handlers.GridDefaults{
			Columns: cfg.Grid.Columns,
			Size:    grid.ParseSize(cfg.Grid.Size),
		},
	})
	wsObserver := server.NewWebSocketObserver()
	dispatcher.Register(wsObserver)

	// The persister outlives the server so the final commits are flushed after
	// the last request has finished and the session is closed.
	persistCtx, stopPersister := context.WithCancel(context.Background())
	persisterDone := make(chan error, 1)
	go func() { persisterDone <- persister.Run(persistCtx) }()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.Run(gctx)
	})

	if backupInterval > 0 {
		scheduler := storage.NewBackupScheduler(backups, backupInterval)
		g.Go(func() error {
			return scheduler.Run(gctx)
		})
	}

	fmt.Printf("deck-binder running at http://localhost:%d (Ctrl+C to stop)\n", cfg.Server.Port)
	serveErr := g.Wait()
	dispatcher.Unregister(wsObserver)

	session.Close(context.Background())
	stopPersister()
	persistErr := <-persisterDone

	if failures := persister.Failures(); failures > 0 {
		log.Printf("[Persister] %d write attempts failed this session, %d commits dropped", failures, persister.Dropped())
	}
	return errors.Join(serveErr, persistErr)
}
