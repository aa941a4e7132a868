// Package postgres provides PostgreSQL database connection and management
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/menusense/optimizer/internal/infrastructure/config"
	gormrepo "github.com/menusense/optimizer/internal/infrastructure/persistence/gorm"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/plugin/dbresolver"
)

// Connect opens the primary database, registers any read replicas and
// applies the pool settings to every connection
func Connect(ctx context.Context, cfg config.DatabaseConfig, log *zap.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSNFor(cfg.Host)), &gorm.Config{
		Logger:                 gormrepo.NewLogger(log, cfg.LogLevel, cfg.SlowQueryThreshold),
		SkipDefaultTransaction: true,
		PrepareStmt:            true,
		TranslateError:         true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	resolver := dbresolver.Register(dbresolver.Config{
		Replicas: replicaDialectors(cfg),
		Policy:   dbresolver.RandomPolicy{},
	}).
		SetMaxOpenConns(cfg.MaxOpenConns).
		SetMaxIdleConns(cfg.MaxIdleConns).
		SetConnMaxLifetime(cfg.ConnMaxLifetime).
		SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	if err := db.Use(resolver); err != nil {
		return nil, fmt.Errorf("failed to register read replicas: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Info("Connected to PostgreSQL",
		zap.String("host", cfg.Host),
		zap.String("database", cfg.Database),
		zap.Int("replica_count", len(cfg.ReadReplicas)),
	)
	return db, nil
}

// Migrate creates or updates every table
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(gormrepo.Models()...); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

func replicaDialectors(cfg config.DatabaseConfig) []gorm.Dialector {
	if len(cfg.ReadReplicas) == 0 {
		return nil
	}
	replicas := make([]gorm.Dialector, len(cfg.ReadReplicas))
	for i, host := range cfg.ReadReplicas {
		replicas[i] = postgres.Open(cfg.DSNFor(host))
	}
	return replicas
}
