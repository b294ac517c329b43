package source

import (
	"errors"
	"fmt"
	"strings"

	"github.com/knadh/koanf/v2"
)

type SourceConfig struct {
	URL    string `toml:"url" json:"url" yaml:"url"`
	Kind   string `toml:"kind" json:"kind" yaml:"kind"`
	NoSync bool   `toml:"no_sync" json:"no_sync" yaml:"no_sync"`
}

func NewConfig(k *koanf.Koanf) (*SourceConfig, error) {
	var c SourceConfig
	c.URL = k.String("source.url")
	c.NoSync = k.Bool("source.no_sync")
	if c.URL != "" {
		kind, _, found := strings.Cut(c.URL, "://")
		if !found {
			return nil, fmt.Errorf("source url %q has no scheme", c.URL)
		}
		c.Kind = kind
	}
	return &c, nil
}

func (c SourceConfig) String() string {
	return fmt.Sprintf("URL: %v\nKind: %v\nNo sync: %v\n", c.URL, c.Kind, c.NoSync)
}

func (c SourceConfig) Validate() error {
	if c.URL == "" {
		return errors.New("need source URL")
	}
	return nil
}

// Location strips the scheme from the URL.
func (c SourceConfig) Location() string {
	_, loc, _ := strings.Cut(c.URL, "://")
	return loc
}
