package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hypatiagarcia/lenguajesvisuales2-segundoparcial/internal/config"
	"github.com/hypatiagarcia/lenguajesvisuales2-segundoparcial/internal/handler"
	"github.com/hypatiagarcia/lenguajesvisuales2-segundoparcial/internal/ingest"
	"github.com/hypatiagarcia/lenguajesvisuales2-segundoparcial/internal/pkg/logger"
	"github.com/hypatiagarcia/lenguajesvisuales2-segundoparcial/internal/repository"
	"github.com/hypatiagarcia/lenguajesvisuales2-segundoparcial/internal/service"
	"github.com/hypatiagarcia/lenguajesvisuales2-segundoparcial/internal/storage"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := run(); err != nil {
		logger.Error("Server stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("Server exiting")
}

func run() error {
	// 1. Load Configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger.Init(cfg.Log.Level, cfg.Log.Format)
	gin.SetMode(cfg.Server.Mode)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 2. Persistence
	db, err := repository.NewDB(cfg.Database)
	if err != nil {
		return fmt.Errorf("connect to %s database: %w", cfg.Database.Driver, err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("database handle: %w", err)
	}
	defer sqlDB.Close()
	if err := repository.Migrate(db); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}
	logger.Info("✅ Connected to database", "driver", cfg.Database.Driver)

	store, err := newStorage(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("init %s storage: %w", cfg.Storage.Backend, err)
	}

	// Recent-log mirror is optional (Redis > none)
	var mirror service.LogMirror
	if cfg.Redis.Addr != "" {
		rdb, err := repository.NewRedisClient(cfg.Redis)
		if err == nil {
			defer rdb.Close()
			mirror = repository.NewRedisLogMirror(rdb, cfg.Redis.LogListKey, cfg.Redis.LogListMax)
			logger.Info("✅ Connected to Redis, mirroring api logs", "key", cfg.Redis.LogListKey)
		} else {
			logger.Warn("⚠️ Failed to connect to Redis, api logs go to the database only", "error", err)
		}
	}

	// 3. Services
	clientRepo := repository.NewClientRepo(db)
	ingestor := ingest.New(ingest.Options{
		Storage:     store,
		ScratchRoot: cfg.Storage.ScratchDir,
		URLPrefix:   cfg.Storage.URLPrefix,
		Logger:      logger.With("component", "ingest"),
	})

	router := handler.NewRouter(handler.Deps{
		Config:  cfg,
		Clients: service.NewClientService(clientRepo),
		Files:   service.NewFileService(clientRepo, repository.NewFileRepo(db), ingestor),
		Logs:    service.NewLogService(repository.NewLogRepo(db), mirror),
		Storage: store,
		DB:      sqlDB,
		Logger:  logger.With("component", "http"),
	})

	// 4. Serve with graceful shutdown
	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("🚀 Clients API started", "port", cfg.Server.Port, "version", cfg.App.Version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("🛑 Shutting down server...")
		timeout := time.Duration(cfg.Server.ShutdownTimeoutSeconds) * time.Second
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func newStorage(ctx context.Context, cfg config.StorageConfig) (storage.Backend, error) {
	switch cfg.Backend {
	case "minio":
		return storage.NewMinio(ctx, cfg.Minio)
	default:
		return storage.NewLocal(cfg.UploadDir)
	}
}
