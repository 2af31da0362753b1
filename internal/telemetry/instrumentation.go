package telemetry

import (
	"database/sql"
	"fmt"

	"github.com/XSAM/otelsql"
	"github.com/go-redis/redis/extra/redisotel/v8"
	"github.com/go-redis/redis/v8"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// OpenInstrumentedDB opens a traced database handle and registers pool stats metrics.
func OpenInstrumentedDB(driverName, dataSourceName string) (*sql.DB, error) {
	db, err := otelsql.Open(driverName, dataSourceName,
		otelsql.WithAttributes(semconv.DBSystemPostgreSQL),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to open instrumented database: %w", err)
	}

	if err := otelsql.RegisterDBStatsMetrics(db, otelsql.WithAttributes(semconv.DBSystemPostgreSQL)); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to register database stats: %w", err)
	}

	return db, nil
}

// InstrumentRedisClient adds the tracing hook to client.
func InstrumentRedisClient(client *redis.Client) {
	client.AddHook(redisotel.NewTracingHook())
}
