package persondir

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/knadh/koanf/v2"
	"persondir.systems/persondir/internal/attributes"
	"persondir.systems/persondir/internal/attributes/age"
	filestore "persondir.systems/persondir/internal/attributes/file"
	"persondir.systems/persondir/internal/attributes/mem"
	"persondir.systems/persondir/internal/attributes/sops"
	"persondir.systems/persondir/internal/attributes/sqldb"
	"persondir.systems/persondir/internal/source"
)

var sourceKinds = []string{"memory", "sql", "file", "age", "sops"}

type sourceConfig interface {
	SourceType() string
	Validate() error
	String() string
}

type Config struct {
	Debug            bool
	UseStdout        bool
	DefaultAttribute string
	SourceDir        string
	Sources          []string
	SourceConfig     *source.SourceConfig
	SQLConfig        *sqldb.Config
	FileConfig       *filestore.Config
	AgeConfig        *age.Config
	SopsConfig       *sops.Config
	MemoryConfig     *mem.Config
}

func NewConfig(k *koanf.Koanf) (*Config, error) {
	var c Config
	var err error
	c.Debug = k.Bool("debug")
	c.UseStdout = k.Bool("stdout")
	c.DefaultAttribute = k.String("default_attribute")
	if c.DefaultAttribute == "" {
		c.DefaultAttribute = attributes.DefaultAttributeName
	}
	c.SourceDir = k.String("sourcedir")
	c.Sources = k.Strings("sources")
	if k.Exists("source.url") {
		c.SourceConfig, err = source.NewConfig(k)
		if err != nil {
			return nil, err
		}
	}
	if k.Exists("sql") {
		c.SQLConfig, err = sqldb.NewConfig(k)
		if err != nil {
			return nil, err
		}
		if c.SQLConfig.DefaultAttribute == "" {
			c.SQLConfig.DefaultAttribute = c.DefaultAttribute
		}
	}
	if k.Exists("file") {
		c.FileConfig, err = filestore.NewConfig(k)
		if err != nil {
			return nil, err
		}
	}
	if k.Exists("age") {
		c.AgeConfig, err = age.NewConfig(k)
		if err != nil {
			return nil, err
		}
	}
	if k.Exists("memory") {
		c.MemoryConfig, err = mem.NewConfig(k)
		if err != nil {
			return nil, err
		}
	}
	if k.Exists("sops") {
		c.SopsConfig, err = sops.NewConfig(k)
		if err != nil {
			return nil, err
		}
	}

	if c.SourceDir == "" {
		dataPath, found := os.LookupEnv("XDG_DATA_HOME")
		if !found {
			home, err := os.UserHomeDir()
			if err != nil {
				return nil, err
			}
			dataPath = filepath.Join(home, ".local", "share")
		}
		c.SourceDir = filepath.Join(dataPath, "persondir", "source")
	}
	if len(c.Sources) == 0 {
		for _, sc := range c.sourceConfigs() {
			c.Sources = append(c.Sources, sc.SourceType())
		}
	}
	return &c, nil
}

// sourceConfigs lists the configured attribute sources in sourceKinds order.
func (c *Config) sourceConfigs() []sourceConfig {
	var configs []sourceConfig
	if c.MemoryConfig != nil {
		configs = append(configs, c.MemoryConfig)
	}
	if c.SQLConfig != nil {
		configs = append(configs, c.SQLConfig)
	}
	if c.FileConfig != nil {
		configs = append(configs, c.FileConfig)
	}
	if c.AgeConfig != nil {
		configs = append(configs, c.AgeConfig)
	}
	if c.SopsConfig != nil {
		configs = append(configs, c.SopsConfig)
	}
	return configs
}

func (c *Config) sourceConfig(kind string) (sourceConfig, bool) {
	for _, sc := range c.sourceConfigs() {
		if sc.SourceType() == kind {
			return sc, true
		}
	}
	return nil, false
}

func (c *Config) Validate() error {
	if len(c.Sources) == 0 {
		return errors.New("need at least one attribute source")
	}
	for i, s := range c.Sources {
		if !slices.Contains(sourceKinds, s) {
			return fmt.Errorf("unknown attribute source %q", s)
		}
		sc, ok := c.sourceConfig(s)
		if !ok {
			return fmt.Errorf("attribute source %v is not configured", s)
		}
		if slices.Contains(c.Sources[:i], s) {
			return fmt.Errorf("attribute source %v listed twice", s)
		}
		if err := sc.Validate(); err != nil {
			return fmt.Errorf("invalid %v config: %w", s, err)
		}
	}
	if c.SourceConfig != nil {
		if err := c.SourceConfig.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) String() string {
	var result string
	result += fmt.Sprintf("Debug mode: %v\n", c.Debug)
	result += fmt.Sprintf("STDOUT: %v\n", c.UseStdout)
	result += fmt.Sprintf("Default attribute: %v\n", c.DefaultAttribute)
	result += fmt.Sprintf("Source cache dir: %v\n", c.SourceDir)
	result += fmt.Sprintf("Attribute sources: %v\n", c.Sources)
	if c.SourceConfig != nil {
		result += fmt.Sprintf("Vault source:\n%v", c.SourceConfig)
	}
	for _, sc := range c.sourceConfigs() {
		result += fmt.Sprintf("%v:\n%v", sc.SourceType(), sc)
	}
	return result
}
