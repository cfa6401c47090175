// Package database creates the PostgreSQL connection pool shared by the
// repository.
//
// Every connection carries two query tracers: pgx tracelog writing SQL to
// zerolog through pgx-zerolog, and a tracer feeding the Prometheus query
// metrics.
package database

import (
	"context"
	"fmt"
	"time"

	pgxzero "github.com/jackc/pgx-zerolog"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/tracelog"
	"github.com/lightbnb/lightbnb/internal/logging"
	"github.com/rs/zerolog"
)

// PingTimeout bounds the startup connectivity check.
const PingTimeout = 10 * time.Second

// Config holds pool settings.
type Config struct {
	URL      string
	MaxConns int32
	// LogLevel controls SQL trace logging; statements are logged at debug.
	LogLevel zerolog.Level
}

// Database wraps the pgx connection pool and a logger.
type Database struct {
	Pool *pgxpool.Pool
	log  zerolog.Logger
}

// New parses cfg, creates the pool and pings it.
func New(ctx context.Context, cfg Config, logger zerolog.Logger) (*Database, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse pgx pool config: %w", err)
	}

	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = cfg.MaxConns
	}

	poolConfig.ConnConfig.Tracer = NewTracer(
		&tracelog.TraceLog{
			Logger:   pgxzero.NewLogger(logger.With().Str("component", "pgx").Logger()),
			LogLevel: logging.PgxLevel(cfg.LogLevel),
		},
		&metricsTracer{},
	)

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create pgx pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, PingTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info().
		Str("host", poolConfig.ConnConfig.Host).
		Str("database", poolConfig.ConnConfig.Database).
		Int32("max_conns", poolConfig.MaxConns).
		Msg("connected to the database")

	return &Database{Pool: pool, log: logger}, nil
}

// Close closes the database connection pool.
func (db *Database) Close() {
	db.log.Info().Msg("closing database connection pool")
	db.Pool.Close()
}

// multiTracer fans query tracing out to several tracers. pgx accepts a
// single Tracer per connection config.
type multiTracer struct {
	tracers []pgx.QueryTracer
}

// NewTracer chains tracers; nil entries are skipped.
func NewTracer(tracers ...pgx.QueryTracer) pgx.QueryTracer {
	mt := &multiTracer{}
	for _, t := range tracers {
		if t != nil {
			mt.tracers = append(mt.tracers, t)
		}
	}
	return mt
}

func (mt *multiTracer) TraceQueryStart(ctx context.Context, conn *pgx.Conn, data pgx.TraceQueryStartData) context.Context {
	for _, t := range mt.tracers {
		ctx = t.TraceQueryStart(ctx, conn, data)
	}
	return ctx
}

func (mt *multiTracer) TraceQueryEnd(ctx context.Context, conn *pgx.Conn, data pgx.TraceQueryEndData) {
	for _, t := range mt.tracers {
		t.TraceQueryEnd(ctx, conn, data)
	}
}
