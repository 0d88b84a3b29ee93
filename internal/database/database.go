package database

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"time"

	"github.com/XSAM/otelsql"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"

	"briefcase/internal/config"
)

// DriverName is the sqlx bind driver for connections opened by NewPostgres.
const DriverName = "pgx"

var sqlOpen = sql.Open

// BuildPostgresDSN renders c as a postgres:// URL, escaping credentials.
// Example: postgres://briefcase:secret@db:5432/briefcase?sslmode=disable
func BuildPostgresDSN(c config.DatabaseConfig) (string, error) {
	if c.Host == "" || c.Port == "" || c.User == "" || c.Name == "" {
		return "", fmt.Errorf("invalid database config: DB_HOST, DB_PORT, DB_USER and DB_NAME are required")
	}

	u := &url.URL{
		Scheme: "postgres",
		Host:   fmt.Sprintf("%s:%s", c.Host, c.Port),
		Path:   c.Name,
	}
	if c.Password != "" {
		u.User = url.UserPassword(c.User, c.Password)
	} else {
		u.User = url.User(c.User)
	}

	q := u.Query()
	if c.SSLMode != "" {
		q.Set("sslmode", c.SSLMode)
	}
	u.RawQuery = q.Encode()

	return u.String(), nil
}

// NewPostgres opens the documents database through the pgx stdlib driver wrapped by
// otelsql, applies the pool settings and verifies connectivity.
func NewPostgres(c config.DatabaseConfig) (*sqlx.DB, error) {
	dsn, err := BuildPostgresDSN(c)
	if err != nil {
		return nil, err
	}

	driverName, err := otelsql.Register(DriverName, traceOptions(c)...)
	if err != nil {
		return nil, fmt.Errorf("failed to register otelsql: %w", err)
	}

	db, err := sqlOpen(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	applyPool(db, c)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}

	// The otelsql driver name is opaque to sqlx, so bind with the underlying driver.
	return sqlx.NewDb(db, DriverName), nil
}

// traceOptions tags every query span with the target database and drops row
// iteration and session reset spans.
func traceOptions(c config.DatabaseConfig) []otelsql.Option {
	return []otelsql.Option{
		otelsql.WithAttributes(
			semconv.DBSystemPostgreSQL,
			semconv.DBName(c.Name),
			semconv.DBUser(c.User),
			semconv.ServerAddress(c.Host),
		),
		otelsql.WithSpanOptions(otelsql.SpanOptions{
			OmitRows:             true,
			OmitConnResetSession: true,
			DisableErrSkip:       true,
		}),
		otelsql.WithSQLCommenter(true),
	}
}

// applyPool sizes the pool. Zero values keep the database/sql defaults.
func applyPool(db *sql.DB, c config.DatabaseConfig) {
	if c.MaxOpenConns > 0 {
		db.SetMaxOpenConns(c.MaxOpenConns)
	}
	if c.MaxIdleConns > 0 {
		db.SetMaxIdleConns(c.MaxIdleConns)
	}
	if c.ConnMaxLifetimeSec > 0 {
		db.SetConnMaxLifetime(time.Duration(c.ConnMaxLifetimeSec) * time.Second)
	}
}
