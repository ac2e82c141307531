package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/techbench/gradebook/internal/config"
	"github.com/techbench/gradebook/internal/db"
	"github.com/techbench/gradebook/internal/logger"
	"github.com/techbench/gradebook/internal/view"
)

var (
	migrateOnlyFlag = flag.Bool("migrate-only", false, "Run DB migrations and exit")
	seedOnlyFlag    = flag.Bool("seed-only", false, "Seed the bootstrap admin and exit")
)

const shutdownTimeout = 10 * time.Second

func main() {
	flag.Parse()

	// Load environment variables from .env file
	_ = godotenv.Load()

	log := logger.New(logger.Config{Env: os.Getenv("APP_ENV"), Level: os.Getenv("LOG_LEVEL")})
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	log = logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.Log.Level})

	gdb, err := db.Open(cfg.DB, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer func() {
		if err := db.Close(gdb); err != nil {
			log.Error().Err(err).Msg("closing database")
		}
	}()

	if err := db.Migrate(gdb, cfg.DB, log); err != nil {
		log.Fatal().Err(err).Msg("migration failed")
	}
	if *migrateOnlyFlag {
		log.Info().Msg("migrations completed")
		return
	}

	ctx := context.Background()
	if err := db.SeedAdmin(ctx, gdb, cfg.Admin, log); err != nil {
		log.Fatal().Err(err).Msg("seeding failed")
	}
	if *seedOnlyFlag {
		log.Info().Msg("seeding completed")
		return
	}

	if err := view.Preload(); err != nil {
		log.Fatal().Err(err).Msg("templates failed to parse")
	}

	srv := &http.Server{
		Addr:         cfg.HTTP.Addr(),
		Handler:      NewApp(gdb, cfg, log),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Str("env", cfg.App.Env).Str("driver", cfg.DB.Driver).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("error during shutdown")
	}
	log.Info().Msg("server stopped")
}
