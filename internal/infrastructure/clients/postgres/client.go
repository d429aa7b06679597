package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/zatekoja/cashflow-diagnosis/pkg/config"
	"github.com/zatekoja/cashflow-diagnosis/pkg/retry"
)

const pingTimeout = 3 * time.Second

// Client holds the connection pool behind the postgres record store.
type Client struct {
	db       *sql.DB
	database string
}

// NewClient opens the pool and pings it up to cfg.ConnectAttempts times.
// The store chain runs at startup, so the total wait stays short: a
// database that is not up by then is skipped rather than waited for.
func NewClient(ctx context.Context, cfg *config.DatabaseConfig) (*Client, error) {
	db, err := sql.Open("postgres", cfg.DatabaseDSN())
	if err != nil {
		return nil, fmt.Errorf("postgres open %s: %w", cfg.Database, err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	policy := retry.DefaultConfig()
	policy.MaxAttempts = cfg.ConnectAttempts
	policy.MaxDelay = 2 * time.Second

	err = retry.DoWithLog(ctx, policy, "postgres", func() error {
		pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
		defer cancel()
		return db.PingContext(pingCtx)
	}, func(attempt int, err error, next time.Duration) {
		log.Warn().Err(err).Int("attempt", attempt).Dur("next_delay", next).Str("database", cfg.Database).Msg("postgres not reachable yet")
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres connect %s@%s: %w", cfg.Database, cfg.Host, err)
	}

	log.Info().Str("host", cfg.Host).Str("database", cfg.Database).Int("max_open_conns", cfg.MaxOpenConns).Msg("postgres store connected")
	return &Client{db: db, database: cfg.Database}, nil
}

// DB returns the pool.
func (c *Client) DB() *sql.DB {
	return c.db
}

func (c *Client) Close() error {
	if err := c.db.Close(); err != nil {
		return fmt.Errorf("postgres close %s: %w", c.database, err)
	}
	return nil
}
