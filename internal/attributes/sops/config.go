package sops

import (
	"fmt"

	"github.com/knadh/koanf/v2"
	"persondir.systems/persondir/internal/attributes"
)

type Config struct {
	BaseDir       string   `toml:"base_dir"`
	Suffix        string   `toml:"suffix"`
	GeneralVaults []string `toml:"vaults"`
	LoadAllVaults bool     `toml:"load_all_vaults"`
	KeyAttribute  string   `toml:"key_attribute"`
}

func (c Config) Validate() error {
	if c.BaseDir == "" {
		return fmt.Errorf("empty base path for sops")
	}
	return nil
}

func (c Config) SourceType() string { return "sops" }

func NewConfig(k *koanf.Koanf) (*Config, error) {
	var c Config
	c.BaseDir = k.String("sops.base_dir")
	if c.BaseDir == "" {
		c.BaseDir = "people"
	}
	c.GeneralVaults = k.Strings("sops.vaults")
	c.Suffix = k.String("sops.suffix")
	c.LoadAllVaults = k.Bool("sops.load_all_vaults")
	if len(c.GeneralVaults) == 0 {
		c.GeneralVaults = []string{"vault.yml", "people.yml"}
		if c.Suffix != "" {
			c.GeneralVaults = append(c.GeneralVaults, fmt.Sprintf("vault.%v.yml", c.Suffix))
			c.GeneralVaults = append(c.GeneralVaults, fmt.Sprintf("people.%v.yml", c.Suffix))
		}
	}
	c.KeyAttribute = k.String("sops.key_attribute")
	if c.KeyAttribute == "" {
		c.KeyAttribute = attributes.DefaultAttributeName
	}
	return &c, nil
}

func (c Config) String() string {
	return fmt.Sprintf("Base Path: %v\nSuffix: %v\nVaults: %v\nKey attribute: %v\n", c.BaseDir, c.Suffix, c.GeneralVaults, c.KeyAttribute)
}
