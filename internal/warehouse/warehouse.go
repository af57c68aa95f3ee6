// Package warehouse runs read-only aggregation queries against the
// reporting database and normalizes the rows they return.
package warehouse

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/microsoft/go-mssqldb"
	_ "modernc.org/sqlite"
)

// Supported database/sql driver names.
const (
	DriverSQLServer = "sqlserver"
	DriverSQLite    = "sqlite"
)

// Options tune a DB handle.
type Options struct {
	// Schema prefixes fact tables, e.g. "bi" for bi.fact_recepcion_sku.
	Schema string
	// QueryTimeout bounds every query. Zero leaves queries unbounded.
	QueryTimeout time.Duration
	// DatabaseName is reported in payloads. Derived from the DSN when empty.
	DatabaseName string
}

// DB is a read-only handle on the warehouse.
type DB struct {
	sqlDB   *sql.DB
	dialect Dialect
	timeout time.Duration
	name    string
}

// Open connects to the warehouse and verifies the connection.
func Open(ctx context.Context, driver, dsn string, opts Options) (*DB, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("warehouse dsn is required")
	}
	if driver != DriverSQLServer && driver != DriverSQLite {
		return nil, fmt.Errorf("unsupported warehouse driver %q", driver)
	}
	sqlDB, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open warehouse: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping warehouse: %w", err)
	}
	if opts.DatabaseName == "" {
		opts.DatabaseName = DatabaseName(dsn)
	}
	return New(sqlDB, driver, opts), nil
}

// New wraps an already opened *sql.DB.
func New(sqlDB *sql.DB, driver string, opts Options) *DB {
	if driver == DriverSQLite {
		// every sqlite connection to :memory: is a separate database
		sqlDB.SetMaxOpenConns(1)
	}
	name := opts.DatabaseName
	if name == "" {
		name = "Unknown"
	}
	return &DB{
		sqlDB:   sqlDB,
		dialect: Dialect{Driver: driver, Schema: opts.Schema},
		timeout: opts.QueryTimeout,
		name:    name,
	}
}

// Dialect returns the SQL dialect of the connection.
func (d *DB) Dialect() Dialect { return d.dialect }

// DatabaseName returns the database name reported in payloads.
func (d *DB) DatabaseName() string { return d.name }

// Close closes the underlying handle.
func (d *DB) Close() error {
	if d == nil || d.sqlDB == nil {
		return nil
	}
	return d.sqlDB.Close()
}

// Query runs query and returns every row as a Row keyed by column name.
// Errors from the driver are returned unwrapped so callers can inspect
// their message (see IsMissingRelation).
func (d *DB) Query(ctx context.Context, query string, args ...any) ([]Row, error) {
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	rows, err := d.sqlDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var out []Row
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make(Row, len(cols))
		for i, col := range cols {
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
				continue
			}
			row[col] = values[i]
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
