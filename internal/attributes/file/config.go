package file

import (
	"errors"
	"fmt"

	"github.com/knadh/koanf/v2"
	"persondir.systems/persondir/internal/attributes"
)

type Config struct {
	BaseDir       string   `toml:"base_dir"`
	GeneralVaults []string `toml:"vaults"`
	LoadAllVaults bool     `toml:"load_all_vaults"`
	KeyAttribute  string   `toml:"key_attribute"`
}

func (c Config) Validate() error {
	if c.BaseDir == "" {
		return errors.New("need base directory for file attributes")
	}
	return nil
}

func NewConfig(k *koanf.Koanf) (*Config, error) {
	var c Config
	c.BaseDir = k.String("file.base_dir")
	if c.BaseDir == "" {
		c.BaseDir = "people"
	}
	c.GeneralVaults = k.Strings("file.vaults")
	c.LoadAllVaults = k.Bool("file.load_all_vaults")
	c.KeyAttribute = k.String("file.key_attribute")
	if c.KeyAttribute == "" {
		c.KeyAttribute = attributes.DefaultAttributeName
	}

	return &c, nil
}

func (c Config) String() string {
	return fmt.Sprintf("Base Path: %v\nVaults: %v\nKey attribute: %v\nLoad all vaults: %v\n", c.BaseDir, c.GeneralVaults, c.KeyAttribute, c.LoadAllVaults)
}

func (c Config) SourceType() string {
	return "file"
}
