package sqldb

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "people.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	stmts := []string{
		`CREATE TABLE people (
			username TEXT NOT NULL,
			domain TEXT NOT NULL,
			email TEXT,
			cn TEXT,
			PRIMARY KEY (username, domain)
		)`,
		`CREATE TABLE person_attributes (
			username TEXT NOT NULL,
			attr_name TEXT,
			attr_value TEXT
		)`,
		`INSERT INTO people VALUES ('alice', 'example.org', 'a@x.com', 'Alice')`,
		`INSERT INTO people VALUES ('alice', 'example.com', 'alice@example.com', 'Alice C')`,
		`INSERT INTO people VALUES ('bob', 'example.org', NULL, NULL)`,
		`INSERT INTO people VALUES ('carol', 'example.org', 'c@x.com', 'Carol')`,
		`INSERT INTO person_attributes VALUES ('alice', 'mail', 'a@x.com')`,
		`INSERT INTO person_attributes VALUES ('alice', 'mail', 'alice@x.com')`,
		`INSERT INTO person_attributes VALUES ('alice', 'phone', '555-1212')`,
		`INSERT INTO person_attributes VALUES ('alice', 'secret', 'hunter2')`,
		`INSERT INTO person_attributes VALUES ('bob', 'phone', NULL)`,
	}
	ctx := context.Background()
	for _, s := range stmts {
		_, err := db.ExecContext(ctx, s)
		require.NoError(t, err)
	}
	return db
}
