package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/content-platform-api/internal/api"
	"github.com/content-platform-api/internal/config"
	"github.com/content-platform-api/internal/database"
	"github.com/content-platform-api/internal/repository"
	"github.com/content-platform-api/internal/service"
	"github.com/content-platform-api/pkg/logger"
	"github.com/rs/zerolog"
)

// store is the connection owned by main for the lifetime of the process
type store interface {
	Shutdown(ctx context.Context) error
}

func main() {
	// Initialize logger
	log := logger.New()
	log.Info().Msg("Starting Content Platform API server...")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	log = logger.NewWithLevel(cfg.Log.Level, cfg.Log.Format)

	// Connect the selected backend
	repos, conn, err := openStore(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Str("backend", cfg.Store.Backend).Msg("Failed to initialize store")
	}

	// Initialize services
	services := service.NewServices(repos, cfg, log)

	// Initialize router
	router := api.NewRouter(services, cfg, log)

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.ReadTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("port", cfg.Server.Port).Str("backend", cfg.Store.Backend).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	if err := conn.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Failed to close store connection")
	}

	log.Info().Msg("Server exited gracefully")
}

// openStore connects to the configured backend and prepares its schema
func openStore(cfg *config.Config, log zerolog.Logger) (*repository.Repositories, store, error) {
	switch cfg.Store.Backend {
	case config.StoreMongo:
		m, err := database.NewMongoDB(&cfg.Mongo, log)
		if err != nil {
			return nil, nil, err
		}
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Mongo.ConnectTimeout)
		defer cancel()
		if err := m.EnsureIndexes(ctx); err != nil {
			_ = m.Shutdown(context.Background())
			return nil, nil, err
		}
		return repository.NewMongo(m), m, nil

	case config.StorePostgres:
		db, err := database.New(&cfg.Database, log)
		if err != nil {
			return nil, nil, err
		}
		if err := db.RunMigrations(cfg.Database.MigrationsPath); err != nil {
			_ = db.Shutdown(context.Background())
			return nil, nil, err
		}
		return repository.New(db), db, nil

	default:
		return nil, nil, fmt.Errorf("unknown store backend: %s", cfg.Store.Backend)
	}
}
