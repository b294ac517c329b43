package sops

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/getsops/sops/v3/cmd/sops/formats"
	"github.com/getsops/sops/v3/decrypt"
	"gopkg.in/ini.v1"
	"gopkg.in/yaml.v3"
	"persondir.systems/persondir/internal/attributes"
)

// SopsStore reads people from sops encrypted YAML, JSON or INI vaults.
type SopsStore struct {
	vaultfiles    []string
	generalVaults []string
	loadAllVaults bool
	suffix        string
	key           string
}

func NewSopsStore(c Config, sourceDir string) (*SopsStore, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	var s SopsStore
	s.generalVaults = c.GeneralVaults
	s.loadAllVaults = c.LoadAllVaults
	s.suffix = c.Suffix
	s.key = c.KeyAttribute
	if s.key == "" {
		s.key = attributes.DefaultAttributeName
	}
	err := filepath.WalkDir(filepath.Join(sourceDir, c.BaseDir), func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() && d.Name() == ".git" {
			return filepath.SkipDir
		}
		// we're not supporting binary or env files here
		// note, the formats package isn't technically stable
		if formatName(path) != "" {
			if c.Suffix != "" {
				if strings.Contains(path, c.Suffix) {
					s.vaultfiles = append(s.vaultfiles, path)
				}
			} else {
				s.vaultfiles = append(s.vaultfiles, path)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &s, nil
}

func (s *SopsStore) Lookup(ctx context.Context, seed map[string][]any) (map[string][]any, error) {
	return attributes.Lookup(seed, s.key, s.vaultfiles, s.generalVaults, s.loadAllVaults, s.suffix, func(path string) (attributes.PersonVault, error) {
		if err := ctx.Err(); err != nil {
			return attributes.PersonVault{}, err
		}
		decrypted, err := decrypt.File(path, formatName(path))
		if err != nil {
			return attributes.PersonVault{}, fmt.Errorf("error decrypting SOPS file %v: %w", path, err)
		}
		return decodeVault(path, decrypted)
	})
}

// PossibleAttributeNames is unknowable without decrypting every vault.
func (s *SopsStore) PossibleAttributeNames() []string {
	return nil
}

func formatName(path string) string {
	switch {
	case formats.IsYAMLFile(path):
		return "yaml"
	case formats.IsJSONFile(path):
		return "json"
	case formats.IsIniFile(path):
		return "ini"
	default:
		return ""
	}
}

func decodeVault(path string, data []byte) (attributes.PersonVault, error) {
	var vault attributes.PersonVault
	switch formatName(path) {
	case "yaml":
		if err := yaml.Unmarshal(data, &vault); err != nil {
			return vault, fmt.Errorf("error unmarshaling SOPS YAML %v: %w", path, err)
		}
	case "json":
		if err := json.Unmarshal(data, &vault); err != nil {
			return vault, fmt.Errorf("error unmarshaling SOPS JSON %v: %w", path, err)
		}
	case "ini":
		cfg, err := ini.LoadSources(ini.LoadOptions{AllowShadows: true}, data)
		if err != nil {
			return vault, fmt.Errorf("error unmarshaling SOPS INI %v: %w", path, err)
		}
		vault = iniVault(cfg)
	default:
		return vault, fmt.Errorf("invalid sops file: %v", path)
	}
	return vault, nil
}

// iniVault reads a [defaults] section and one [people.<uid>] section per
// person. Keys repeated with ini shadows become value lists.
func iniVault(cfg *ini.File) attributes.PersonVault {
	vault := attributes.PersonVault{
		Defaults: map[string]any{},
		People:   map[string]map[string]any{},
	}
	for _, section := range cfg.Sections() {
		name := section.Name()
		var target map[string]any
		switch {
		case name == "defaults":
			target = vault.Defaults
		case strings.HasPrefix(name, "people."):
			target = map[string]any{}
			vault.People[strings.TrimPrefix(name, "people.")] = target
		default:
			continue
		}
		for _, key := range section.Keys() {
			values := key.ValueWithShadows()
			if len(values) == 1 {
				target[key.Name()] = values[0]
				continue
			}
			list := make([]any, len(values))
			for i, v := range values {
				list[i] = v
			}
			target[key.Name()] = list
		}
	}
	return vault
}
