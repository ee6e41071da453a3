package postgres

import (
	"context"
	"strings"
	"time"

	"github.com/hpyride/hpyride/pkg/metrics"
	"github.com/jackc/pgx/v5"
)

type queryStartKey struct{}

type queryStart struct {
	at        time.Time
	operation string
}

// queryTracer records every query in the database metrics, labelled by its SQL verb.
type queryTracer struct{}

func (queryTracer) TraceQueryStart(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryStartData) context.Context {
	return context.WithValue(ctx, queryStartKey{}, queryStart{at: time.Now(), operation: Operation(data.SQL)})
}

func (queryTracer) TraceQueryEnd(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryEndData) {
	start, ok := ctx.Value(queryStartKey{}).(queryStart)
	if !ok {
		return
	}
	metrics.RecordDatabaseQuery(start.operation, data.Err, time.Since(start.at))
}

// Operation returns the upper-cased leading keyword of a statement, skipping a WITH clause.
func Operation(sql string) string {
	fields := strings.Fields(sql)
	if len(fields) == 0 {
		return "UNKNOWN"
	}

	op := strings.ToUpper(fields[0])
	if op != "WITH" {
		return op
	}
	for _, f := range fields[1:] {
		switch w := strings.ToUpper(strings.TrimLeft(f, "(")); w {
		case "SELECT", "INSERT", "UPDATE", "DELETE":
			return w
		}
	}
	return op
}
