package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const pingTimeout = 5 * time.Second

type PostgreDB struct {
	Pool     *pgxpool.Pool
	DBConfig *pgxpool.Config
}

type Config interface {
	GetDSN() string
	// GetPoolLimits returns zero values for the limits pgxpool should keep at default.
	GetPoolLimits() (maxConns, minConns int32, maxLifetime, maxIdle time.Duration)
}

// New opens a pool with the query tracer installed and verifies the server answers.
func New(ctx context.Context, config Config) (*PostgreDB, error) {
	dbConfig, err := pgxpool.ParseConfig(config.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	dbConfig.ConnConfig.Tracer = queryTracer{}
	applyPoolLimits(dbConfig, config)

	pool, err := pgxpool.NewWithConfig(ctx, dbConfig)
	if err != nil {
		return nil, fmt.Errorf("open pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err = pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &PostgreDB{
		Pool:     pool,
		DBConfig: dbConfig,
	}, nil
}

func applyPoolLimits(dbConfig *pgxpool.Config, config Config) {
	maxConns, minConns, maxLifetime, maxIdle := config.GetPoolLimits()
	if maxConns > 0 {
		dbConfig.MaxConns = maxConns
	}
	if minConns > 0 && minConns <= dbConfig.MaxConns {
		dbConfig.MinConns = minConns
	}
	if maxLifetime > 0 {
		dbConfig.MaxConnLifetime = maxLifetime
	}
	if maxIdle > 0 {
		dbConfig.MaxConnIdleTime = maxIdle
	}
}
