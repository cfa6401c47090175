package database

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lightbnb/lightbnb/internal/metrics"
)

type queryStartKey struct{}

type queryStart struct {
	operation string
	at        time.Time
}

// metricsTracer times each statement and records it in the query metrics.
type metricsTracer struct {
	now func() time.Time
}

func (t *metricsTracer) clock() time.Time {
	if t.now != nil {
		return t.now()
	}
	return time.Now()
}

func (t *metricsTracer) TraceQueryStart(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryStartData) context.Context {
	return context.WithValue(ctx, queryStartKey{}, queryStart{
		operation: operationName(data.SQL),
		at:        t.clock(),
	})
}

func (t *metricsTracer) TraceQueryEnd(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryEndData) {
	start, ok := ctx.Value(queryStartKey{}).(queryStart)
	if !ok {
		return
	}

	var sqlstate string
	var pgErr *pgconn.PgError
	if errors.As(data.Err, &pgErr) {
		sqlstate = pgErr.Code
	}

	metrics.RecordDBQuery(start.operation, t.clock().Sub(start.at), data.Err, sqlstate)
}

// operationName returns the lower-cased leading keyword of a statement.
func operationName(sql string) string {
	fields := strings.Fields(sql)
	if len(fields) == 0 {
		return "unknown"
	}
	return strings.ToLower(fields[0])
}
