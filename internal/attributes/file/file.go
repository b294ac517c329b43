package file

import (
	"context"
	"io/fs"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"persondir.systems/persondir/internal/attributes"
)

// FileStore reads people from TOML vault files.
type FileStore struct {
	vaultfiles    []string
	generalVaults []string
	loadAllVaults bool
	key           string
}

func NewFileStore(c Config, sourceDir string) (*FileStore, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	var f FileStore

	err := filepath.WalkDir(filepath.Join(sourceDir, c.BaseDir), func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() && d.Name() == ".git" {
			return filepath.SkipDir
		}
		if filepath.Ext(path) == ".toml" {
			f.vaultfiles = append(f.vaultfiles, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(c.GeneralVaults) == 0 {
		c.GeneralVaults = []string{"vault.toml", "people.toml"}
	}
	f.generalVaults = c.GeneralVaults
	f.loadAllVaults = c.LoadAllVaults
	f.key = c.KeyAttribute
	if f.key == "" {
		f.key = attributes.DefaultAttributeName
	}
	return &f, nil
}

func (s *FileStore) Lookup(ctx context.Context, seed map[string][]any) (map[string][]any, error) {
	return attributes.Lookup(seed, s.key, s.vaultfiles, s.generalVaults, s.loadAllVaults, "", func(path string) (attributes.PersonVault, error) {
		if err := ctx.Err(); err != nil {
			return attributes.PersonVault{}, err
		}
		return decodeVault(path)
	})
}

// PossibleAttributeNames is nil when a vault can no longer be read.
func (s *FileStore) PossibleAttributeNames() []string {
	vaults := make([]attributes.PersonVault, 0, len(s.vaultfiles))
	for _, v := range s.vaultfiles {
		vault, err := decodeVault(v)
		if err != nil {
			return nil
		}
		vaults = append(vaults, vault)
	}
	return attributes.VaultAttributeNames(vaults...)
}

func decodeVault(path string) (attributes.PersonVault, error) {
	var vault attributes.PersonVault
	if _, err := toml.DecodeFile(path, &vault); err != nil {
		return attributes.PersonVault{}, err
	}
	return vault, nil
}
