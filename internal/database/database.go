package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"skybound/internal/config"

	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"
)

// Connect opens a PostgreSQL pool through the pgx stdlib driver and verifies
// it with a ping.
func Connect(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (*sql.DB, error) {
	db, err := sql.Open("pgx", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("Database connected",
		zap.String("host", cfg.Host),
		zap.String("database", cfg.Database),
	)
	return db, nil
}

// Health reports pool statistics for the startup log.
func Health(ctx context.Context, db *sql.DB) map[string]string {
	stats := map[string]string{}

	pingCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		stats["status"] = "down"
		stats["error"] = err.Error()
		return stats
	}

	s := db.Stats()
	stats["status"] = "up"
	stats["open_connections"] = fmt.Sprint(s.OpenConnections)
	stats["in_use"] = fmt.Sprint(s.InUse)
	stats["idle"] = fmt.Sprint(s.Idle)
	return stats
}
