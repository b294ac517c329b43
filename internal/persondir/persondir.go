// Package persondir assembles the configured attribute sources into a
// directory.
package persondir

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/knadh/koanf/v2"
	"persondir.systems/persondir/internal/attributes"
	"persondir.systems/persondir/internal/attributes/age"
	filestore "persondir.systems/persondir/internal/attributes/file"
	"persondir.systems/persondir/internal/attributes/mem"
	"persondir.systems/persondir/internal/attributes/sops"
	"persondir.systems/persondir/internal/attributes/sqldb"
	"persondir.systems/persondir/internal/directory"
	"persondir.systems/persondir/internal/source"
	filesource "persondir.systems/persondir/internal/source/file"
	"persondir.systems/persondir/internal/source/git"
)

type PersonDir struct {
	*directory.Directory
	config *Config
	db     *sql.DB
	dao    *sqldb.Dao
}

// NewPersonDirFromConfig opens every configured source in priority order.
func NewPersonDirFromConfig(ctx context.Context, c *Config) (*PersonDir, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	p := &PersonDir{
		Directory: directory.NewDirectory(c.DefaultAttribute),
		config:    c,
	}
	for _, kind := range c.Sources {
		s, err := p.openSource(ctx, kind)
		if err != nil {
			_ = p.Close()
			return nil, fmt.Errorf("error opening %v source: %w", kind, err)
		}
		if err := p.AddSource(kind, s); err != nil {
			_ = p.Close()
			return nil, err
		}
		log.Debug("added attribute source", "source", kind)
	}
	return p, nil
}

func (p *PersonDir) openSource(ctx context.Context, kind string) (attributes.Source, error) {
	c := p.config
	switch kind {
	case "memory":
		return mem.NewMemoryStoreFromConfig(*c.MemoryConfig), nil
	case "sql":
		db, err := sqldb.Open(ctx, *c.SQLConfig)
		if err != nil {
			return nil, err
		}
		p.db = db
		dao, err := sqldb.NewSqlStore(ctx, db, *c.SQLConfig)
		if err != nil {
			return nil, err
		}
		p.dao = dao
		return dao, nil
	case "file":
		return filestore.NewFileStore(*c.FileConfig, c.SourceDir)
	case "age":
		return age.NewAgeStore(*c.AgeConfig, c.SourceDir)
	case "sops":
		return sops.NewSopsStore(*c.SopsConfig, c.SourceDir)
	default:
		return nil, fmt.Errorf("unknown attribute source %q", kind)
	}
}

// Close releases the compiled query and the database pool.
func (p *PersonDir) Close() error {
	var errs []error
	if p.dao != nil {
		errs = append(errs, p.dao.Close())
	}
	if p.db != nil {
		errs = append(errs, p.db.Close())
	}
	return errors.Join(errs...)
}

// NewVaultSource builds the source that keeps SourceDir up to date.
func NewVaultSource(k *koanf.Koanf, c *Config) (source.Source, error) {
	if c.SourceConfig == nil {
		return nil, errors.New("no vault source configured")
	}
	if err := c.SourceConfig.Validate(); err != nil {
		return nil, err
	}
	switch c.SourceConfig.Kind {
	case "git":
		config, err := git.NewConfig(k, c.SourceDir, remoteURL(c.SourceConfig.Location()))
		if err != nil {
			return nil, fmt.Errorf("error creating git config: %w", err)
		}
		s, err := git.NewGitSource(config)
		if err != nil {
			return nil, fmt.Errorf("invalid git source: %w", err)
		}
		return s, nil
	case "file":
		config, err := filesource.NewConfig(k, c.SourceDir, c.SourceConfig.Location())
		if err != nil {
			return nil, fmt.Errorf("error creating file config: %w", err)
		}
		s, err := filesource.NewFileSource(config)
		if err != nil {
			return nil, fmt.Errorf("invalid file source: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("invalid source: %v", c.SourceConfig.Kind)
	}
}

// remoteURL defaults scheme-less git remotes to https. scp style ssh remotes
// and local paths are left alone.
func remoteURL(loc string) string {
	if strings.Contains(loc, "://") || strings.Contains(loc, "@") || strings.HasPrefix(loc, "/") {
		return loc
	}
	return "https://" + loc
}

// SyncVaults refreshes SourceDir unless syncing is disabled.
func SyncVaults(ctx context.Context, k *koanf.Koanf, c *Config) error {
	if c.SourceConfig == nil {
		return nil
	}
	if c.SourceConfig.NoSync {
		log.Debug("skipping vault sync on request")
		return nil
	}
	s, err := NewVaultSource(k, c)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close(ctx) }()
	log.Debug("updating configured vault source")
	if err := s.Sync(ctx); err != nil {
		return fmt.Errorf("error syncing source: %w", err)
	}
	return nil
}
