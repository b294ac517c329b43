package age

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"filippo.io/age"
	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"
	"persondir.systems/persondir/internal/attributes"
)

// AgeStore reads people from age encrypted TOML vaults.
type AgeStore struct {
	identities    []age.Identity
	vaultfiles    []string
	generalVaults []string
	loadAllVaults bool
	key           string
}

func NewAgeStore(c Config, sourceDir string) (*AgeStore, error) {
	err := c.Validate()
	if err != nil {
		return nil, err
	}
	var a AgeStore
	ifile, err := os.Open(c.IdentPath)
	if err != nil {
		return nil, err
	}
	defer func() { _ = ifile.Close() }()
	idents, err := age.ParseIdentities(ifile)
	if err != nil {
		return nil, err
	}
	if len(idents) == 0 {
		return nil, errors.New("need at least one identity")
	}
	a.identities = idents
	if len(c.GeneralVaults) == 0 {
		c.GeneralVaults = []string{"vault.age", "people.age"}
	}
	a.generalVaults = c.GeneralVaults
	a.loadAllVaults = c.LoadAllVaults
	a.key = c.KeyAttribute
	if a.key == "" {
		a.key = attributes.DefaultAttributeName
	}
	err = filepath.WalkDir(filepath.Join(sourceDir, c.BaseDir), func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() && d.Name() == ".git" {
			return filepath.SkipDir
		}
		if filepath.Ext(path) == ".age" {
			a.vaultfiles = append(a.vaultfiles, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (a *AgeStore) Lookup(ctx context.Context, seed map[string][]any) (map[string][]any, error) {
	return attributes.Lookup(seed, a.key, a.vaultfiles, a.generalVaults, a.loadAllVaults, "", func(path string) (attributes.PersonVault, error) {
		if err := ctx.Err(); err != nil {
			return attributes.PersonVault{}, err
		}
		return a.decrypt(path)
	})
}

func (a *AgeStore) PossibleAttributeNames() []string {
	vaults := make([]attributes.PersonVault, 0, len(a.vaultfiles))
	for _, v := range a.vaultfiles {
		vault, err := a.decrypt(v)
		if err != nil {
			log.Warn("can't read age vault", "file", v, "err", err)
			return nil
		}
		vaults = append(vaults, vault)
	}
	return attributes.VaultAttributeNames(vaults...)
}

func (a *AgeStore) decrypt(path string) (attributes.PersonVault, error) {
	var attrs attributes.PersonVault
	file, err := os.Open(path)
	if err != nil {
		return attrs, err
	}
	defer func() { _ = file.Close() }()
	decrypted, err := age.Decrypt(file, a.identities...)
	if err != nil {
		return attrs, fmt.Errorf("error decrypting %v: %w", path, err)
	}
	buf := new(bytes.Buffer)
	_, err = buf.ReadFrom(decrypted)
	if err != nil {
		return attrs, err
	}
	err = toml.Unmarshal(buf.Bytes(), &attrs)
	if err != nil {
		return attrs, fmt.Errorf("error decoding %v: %w", path, err)
	}
	return attrs, nil
}
