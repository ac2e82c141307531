// Package db opens the database and brings its schema up to date.
package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/techbench/gradebook/internal/config"
	"github.com/techbench/gradebook/internal/logger"
	"github.com/techbench/gradebook/internal/models"
	"github.com/techbench/gradebook/internal/services"
)

// Connection retry policy, for databases that start alongside the server.
var (
	connectAttempts = 5
	connectBackoff  = 2 * time.Second
)

func dialector(cfg config.DBConfig) (gorm.Dialector, error) {
	switch cfg.Driver {
	case "postgres":
		return postgres.Open(NormalizeDSN(cfg.DSN)), nil
	case "sqlite":
		return sqlite.Open(cfg.DSN), nil
	default:
		return nil, fmt.Errorf("unsupported driver %q", cfg.Driver)
	}
}

// Open connects with retries, pings, and applies the pool limits.
func Open(cfg config.DBConfig, log *logger.Logger) (*gorm.DB, error) {
	if cfg.DSN == "" {
		return nil, errors.New("DATABASE_DSN is empty")
	}
	dial, err := dialector(cfg)
	if err != nil {
		return nil, err
	}
	gcfg := &gorm.Config{
		Logger:         log.Gorm(cfg.Debug),
		TranslateError: true,
	}

	var gdb *gorm.DB
	for i := 1; i <= connectAttempts; i++ {
		gdb, err = gorm.Open(dial, gcfg)
		if err == nil {
			err = ping(gdb)
		}
		if err == nil {
			break
		}
		log.Warn().Err(err).Int("attempt", i).Int("of", connectAttempts).Msg("database not reachable, retrying")
		if i < connectAttempts {
			time.Sleep(connectBackoff)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("connect database after %d attempts: %w", connectAttempts, err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)

	log.Info().Str("driver", cfg.Driver).Str("dsn", MaskDSN(cfg.DSN)).Msg("database connected")
	return gdb, nil
}

func ping(gdb *gorm.DB) error {
	sqlDB, err := gdb.DB()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return sqlDB.PingContext(ctx)
}

// Close releases the connection pool.
func Close(gdb *gorm.DB) error {
	sqlDB, err := gdb.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

var requiredTables = []string{"users", "model_presets", "projects", "laptop_grades"}

// Migrate brings the schema up to date: versioned SQL migrations when
// enabled on postgres, gorm AutoMigrate otherwise.
func Migrate(gdb *gorm.DB, cfg config.DBConfig, log *logger.Logger) error {
	if cfg.Migrations && cfg.Driver == "postgres" {
		log.Info().Msg("running sql migrations")
		if err := RunSQLMigrations(cfg.DSN); err != nil {
			return fmt.Errorf("sql migrations: %w", err)
		}
	} else {
		for _, m := range models.All() {
			if err := gdb.AutoMigrate(m); err != nil {
				return fmt.Errorf("automigrate %T: %w", m, err)
			}
		}
	}
	for _, table := range requiredTables {
		if !gdb.Migrator().HasTable(table) {
			return errors.New("missing table after migration: " + table)
		}
	}
	return nil
}

// SeedAdmin provisions the bootstrap administrator from configuration.
func SeedAdmin(ctx context.Context, gdb *gorm.DB, admin config.AdminConfig, log *logger.Logger) error {
	created, err := services.NewUserService(gdb).EnsureAdmin(ctx, admin.UserName, admin.Password)
	if err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	if created {
		log.Info().Str("user_name", admin.UserName).Msg("bootstrap admin created")
	}
	return nil
}
