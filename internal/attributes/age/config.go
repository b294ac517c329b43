package age

import (
	"fmt"

	"github.com/knadh/koanf/v2"
	"persondir.systems/persondir/internal/attributes"
)

type Config struct {
	IdentPath     string   `toml:"keyfile"`
	BaseDir       string   `toml:"base_dir"`
	GeneralVaults []string `toml:"vaults"`
	LoadAllVaults bool     `toml:"load_all_vaults"`
	KeyAttribute  string   `toml:"key_attribute"`
}

func (c Config) Validate() error {
	if c.BaseDir == "" {
		return fmt.Errorf("empty base path for age")
	}
	if c.IdentPath == "" {
		return fmt.Errorf("empty identities location for age")
	}
	return nil
}

func (c Config) SourceType() string { return "age" }

func NewConfig(k *koanf.Koanf) (*Config, error) {
	var c Config
	c.IdentPath = k.String("age.keyfile")
	if c.IdentPath == "" {
		c.IdentPath = "/etc/persondir/key.txt"
	}
	c.BaseDir = k.String("age.base_dir")
	if c.BaseDir == "" {
		c.BaseDir = "people"
	}
	c.GeneralVaults = k.Strings("age.vaults")
	c.LoadAllVaults = k.Bool("age.load_all_vaults")
	if len(c.GeneralVaults) == 0 {
		c.GeneralVaults = []string{"vault.age", "people.age"}
	}
	c.KeyAttribute = k.String("age.key_attribute")
	if c.KeyAttribute == "" {
		c.KeyAttribute = attributes.DefaultAttributeName
	}
	return &c, nil
}

func (c Config) String() string {
	return fmt.Sprintf("Keyfile Path:%v\nBase Path: %v\nVaults: %v\nKey attribute: %v\nLoad all vaults: %v\n", c.IdentPath, c.BaseDir, c.GeneralVaults, c.KeyAttribute, c.LoadAllVaults)
}
