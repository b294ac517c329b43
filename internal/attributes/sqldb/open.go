package sqldb

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/charmbracelet/log"
	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver
	_ "modernc.org/sqlite"             // pure go sqlite driver
)

const (
	DriverPostgres = "pgx"
	DriverSQLite   = "sqlite"
)

var sqlOpen = sql.Open

// Drivers lists the database/sql drivers compiled in.
func Drivers() []string {
	return []string{DriverPostgres, DriverSQLite}
}

// Open opens and pings the pooled database described by c.
func Open(ctx context.Context, c Config) (*sql.DB, error) {
	db, err := sqlOpen(c.Driver, c.DSN)
	if err != nil {
		return nil, fmt.Errorf("open %v: %w", c.Driver, err)
	}
	if c.MaxOpenConns > 0 {
		db.SetMaxOpenConns(c.MaxOpenConns)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %v: %w", c.Driver, err)
	}
	log.Debug("opened attribute database", "driver", c.Driver)
	return db, nil
}

// NewSqlStore builds a Dao from c against an already opened db.
func NewSqlStore(ctx context.Context, db *sql.DB, c Config) (*Dao, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	parser, err := c.BuildParser()
	if err != nil {
		return nil, err
	}
	opts := []Option{WithDefaultAttribute(c.DefaultAttribute)}
	for _, p := range c.RawParams {
		opts = append(opts, WithParamType(p, Raw))
	}
	attrs := c.QueryAttributes
	if attrs == nil {
		attrs = []string{}
	}
	return NewDao(ctx, db, attrs, c.Query, parser, opts...)
}
