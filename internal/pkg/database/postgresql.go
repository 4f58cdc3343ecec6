package database

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	defaultMaxConns       = 25
	defaultMinConns       = 2
	defaultMaxConnIdle    = 15 * time.Minute
	defaultConnectTimeout = 10 * time.Second
)

// DB wraps the pgx pool shared by every PostgreSQL repository
type DB struct {
	*pgxpool.Pool
}

// NewPostgreSQLDB opens a pool for dsn and verifies it with a ping. Pool
// limits given as pool_max_conns / pool_min_conns in the dsn take precedence
// over the defaults.
func NewPostgreSQLDB(dsn string) (*DB, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse database dsn: %w", err)
	}

	if !hasPoolOption(config, "pool_max_conns") {
		config.MaxConns = defaultMaxConns
	}
	if !hasPoolOption(config, "pool_min_conns") {
		config.MinConns = defaultMinConns
	}
	config.MaxConnIdleTime = defaultMaxConnIdle

	ctx, cancel := context.WithTimeout(context.Background(), defaultConnectTimeout)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	slog.Info("Connected to PostgreSQL",
		"host", config.ConnConfig.Host,
		"database", config.ConnConfig.Database,
		"max_conns", config.MaxConns,
	)
	return &DB{Pool: pool}, nil
}

func hasPoolOption(config *pgxpool.Config, key string) bool {
	return strings.Contains(config.ConnString(), key)
}

func (db *DB) BeginTx(ctx context.Context) (pgx.Tx, error) {
	return db.Pool.Begin(ctx)
}

// Querier is satisfied by both *pgxpool.Pool and pgx.Tx
type Querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, arguments ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}
