package persondir

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/knadh/koanf/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func seedDatabase(t *testing.T, path string) {
	t.Helper()
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()
	for _, s := range []string{
		`CREATE TABLE people (username TEXT PRIMARY KEY, email TEXT)`,
		`INSERT INTO people VALUES ('alice', 'a@x.com')`,
		`INSERT INTO people VALUES ('bob', NULL)`,
	} {
		_, err := db.Exec(s)
		require.NoError(t, err)
	}
}

func testKoanf(t *testing.T) (*koanf.Koanf, string) {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "people.db")
	seedDatabase(t, dbPath)

	repo := filepath.Join(dir, "repo")
	require.NoError(t, os.MkdirAll(filepath.Join(repo, "people"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(repo, "people", "vault.toml"), []byte(`
[people.alice]
email = "vault@x.com"
phone = "555-1212"

[people.carol]
phone = "555-0000"
`), 0o644))

	k := koanf.New(".")
	require.NoError(t, k.Set("sourcedir", filepath.Join(dir, "source")))
	require.NoError(t, k.Set("sources", []string{"sql", "file"}))
	require.NoError(t, k.Set("source.url", "file://"+repo))
	require.NoError(t, k.Set("sql.driver", "sqlite"))
	require.NoError(t, k.Set("sql.dsn", dbPath))
	require.NoError(t, k.Set("sql.query", "SELECT username, email FROM people WHERE username = ?"))
	require.NoError(t, k.Set("sql.query_attributes", []string{"username"}))
	require.NoError(t, k.Set("sql.columns", map[string]any{"email": "email"}))
	require.NoError(t, k.Set("file.base_dir", "people"))
	return k, dir
}

func TestNewConfig(t *testing.T) {
	k, dir := testKoanf(t)
	c, err := NewConfig(k)
	require.NoError(t, err)
	assert.Equal(t, []string{"sql", "file"}, c.Sources)
	assert.Equal(t, filepath.Join(dir, "source"), c.SourceDir)
	assert.Equal(t, "username", c.DefaultAttribute)
	assert.Equal(t, "username", c.SQLConfig.DefaultAttribute)
	assert.Equal(t, "file", c.SourceConfig.Kind)
	assert.Nil(t, c.AgeConfig)
	assert.NoError(t, c.Validate())
	assert.Contains(t, c.String(), "Attribute sources: [sql file]")
}

func TestNewConfigDerivesSources(t *testing.T) {
	k := koanf.New(".")
	require.NoError(t, k.Set("sourcedir", t.TempDir()))
	require.NoError(t, k.Set("file.base_dir", "people"))
	require.NoError(t, k.Set("sql.dsn", "people.db"))
	c, err := NewConfig(k)
	require.NoError(t, err)
	assert.Equal(t, []string{"sql", "file"}, c.Sources)
}

func TestConfigValidate(t *testing.T) {
	k := koanf.New(".")
	require.NoError(t, k.Set("sourcedir", t.TempDir()))
	c, err := NewConfig(k)
	require.NoError(t, err)
	assert.Error(t, c.Validate())

	c.Sources = []string{"ldap"}
	assert.Error(t, c.Validate())
	c.Sources = []string{"age"}
	assert.Error(t, c.Validate())
}

func TestPersonDir(t *testing.T) {
	ctx := context.Background()
	k, _ := testKoanf(t)
	c, err := NewConfig(k)
	require.NoError(t, err)
	require.NoError(t, SyncVaults(ctx, k, c))

	p, err := NewPersonDirFromConfig(ctx, c)
	require.NoError(t, err)
	defer func() { assert.NoError(t, p.Close()) }()

	got, err := p.MultivaluedAttributesFor(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, map[string][]any{"email": {"a@x.com"}, "phone": {"555-1212"}}, got)

	got, err = p.MultivaluedAttributesFor(ctx, "bob")
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)

	got, err = p.MultivaluedAttributesFor(ctx, "carol")
	require.NoError(t, err)
	assert.Equal(t, map[string][]any{"phone": {"555-0000"}}, got)

	got, err = p.MultivaluedAttributesFor(ctx, "ghost")
	require.NoError(t, err)
	assert.Nil(t, got)

	sqlOnly, ok := p.Source("sql")
	require.True(t, ok)
	got, err = sqlOnly.Lookup(ctx, map[string][]any{"username": {"carol"}})
	require.NoError(t, err)
	assert.Nil(t, got)

	assert.Equal(t, []string{"email", "phone"}, p.PossibleAttributeNames())
}

func TestPersonDirBadSource(t *testing.T) {
	ctx := context.Background()
	k, _ := testKoanf(t)
	require.NoError(t, k.Set("sql.query", "SELECT email FROM missing_table WHERE username = ?"))
	c, err := NewConfig(k)
	require.NoError(t, err)
	_, err = NewPersonDirFromConfig(ctx, c)
	assert.Error(t, err)
}

func TestSyncVaultsNoSync(t *testing.T) {
	k, _ := testKoanf(t)
	require.NoError(t, k.Set("source.no_sync", true))
	c, err := NewConfig(k)
	require.NoError(t, err)
	require.NoError(t, SyncVaults(context.Background(), k, c))
	_, err = os.Stat(filepath.Join(c.SourceDir, "people"))
	assert.True(t, os.IsNotExist(err))
}

func Test_remoteURL(t *testing.T) {
	assert.Equal(t, "https://example.com/people.git", remoteURL("example.com/people.git"))
	assert.Equal(t, "ssh://git@example.com/people.git", remoteURL("ssh://git@example.com/people.git"))
	assert.Equal(t, "git@example.com:people.git", remoteURL("git@example.com:people.git"))
	assert.Equal(t, "/srv/git/people", remoteURL("/srv/git/people"))
}

func TestPersonDirMemoryOverrides(t *testing.T) {
	ctx := context.Background()
	k, _ := testKoanf(t)
	require.NoError(t, k.Set("sources", []string{"memory", "sql"}))
	require.NoError(t, k.Set("memory.people.alice", map[string]any{"email": "override@x.com"}))
	c, err := NewConfig(k)
	require.NoError(t, err)
	assert.Contains(t, c.String(), "memory:\n")

	p, err := NewPersonDirFromConfig(ctx, c)
	require.NoError(t, err)
	defer func() { assert.NoError(t, p.Close()) }()
	assert.Equal(t, []string{"memory", "sql"}, p.SourceNames())

	got, err := p.AttributesFor(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"email": "override@x.com"}, got)
}
