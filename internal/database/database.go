package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"go.uber.org/zap"
)

// OpenDB creates and configures a MySQL connection pool for the given DSN.
// parseTime is forced on because the store scans DATETIME columns into time.Time.
func OpenDB(ctx context.Context, dsn string, logger *zap.Logger) (*sql.DB, error) {
	// 1. Normalise the Data Source Name (DSN)
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("invalid DSN: %w", err)
	}
	cfg.ParseTime = true
	cfg.Loc = time.UTC

	// 2. Open a new connection pool.
	db, err := sql.Open("mysql", cfg.FormatDSN())
	if err != nil {
		return nil, err
	}

	// 3. Configure the connection pool settings.
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	// 4. Ping the database to verify the connection.
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("error connecting to database %s@%s: %w", cfg.User, cfg.Addr, err)
	}

	logger.Info("database connection pool established", zap.String("addr", cfg.Addr), zap.String("db", cfg.DBName))
	return db, nil
}
