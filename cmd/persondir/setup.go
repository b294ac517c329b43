package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"persondir.systems/persondir/internal/persondir"
)

func setupDirectories(c *persondir.Config) error {
	err := os.MkdirAll(c.SourceDir, 0o755)
	if err != nil && !errors.Is(err, fs.ErrExist) {
		return fmt.Errorf("error creating source dir: %w", err)
	}
	return nil
}

func setupLogger(c *persondir.Config) {
	if c.UseStdout {
		log.Default().SetOutput(os.Stdout)
	}
	if c.Debug {
		log.Default().SetLevel(log.DebugLevel)
		log.Default().SetReportCaller(true)
	}
}

func loadConfig(ctx context.Context, configFile string, cliflags map[string]any) (*koanf.Koanf, *persondir.Config, error) {
	k, err := LoadConfigs(ctx, configFile, cliflags)
	if err != nil {
		return nil, nil, fmt.Errorf("error generating config blob: %w", err)
	}
	c, err := persondir.NewConfig(k)
	if err != nil {
		return nil, nil, fmt.Errorf("error parsing config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, nil, fmt.Errorf("error validating config: %w", err)
	}
	return k, c, nil
}

func setup(ctx context.Context, configFile string, cliflags map[string]any) (*persondir.PersonDir, error) {
	k, c, err := loadConfig(ctx, configFile, cliflags)
	if err != nil {
		return nil, err
	}
	if err := setupDirectories(c); err != nil {
		return nil, fmt.Errorf("error creating base directories: %w", err)
	}
	setupLogger(c)

	if err := persondir.SyncVaults(ctx, k, c); err != nil {
		return nil, err
	}
	return persondir.NewPersonDirFromConfig(ctx, c)
}

// LoadConfigs layers the config file, PERSONDIR_ environment variables and
// command line flags, later layers winning.
func LoadConfigs(_ context.Context, configFile string, cliflags map[string]any) (*koanf.Koanf, error) {
	k := koanf.New(".")
	fileConf := koanf.New(".")
	envConf := koanf.New(".")
	cliConf := koanf.New(".")
	if configFile != "" {
		err := fileConf.Load(file.Provider(configFile), toml.Parser())
		if err != nil {
			return nil, fmt.Errorf("error loading config file: %w", err)
		}
	}
	err := envConf.Load(env.Provider("PERSONDIR", ".", func(s string) string {
		return strings.Replace(strings.ToLower(
			strings.TrimPrefix(s, "PERSONDIR_")), "__", ".", 1)
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("error loading config from env: %w", err)
	}
	err = cliConf.Load(confmap.Provider(cliflags, "."), nil)
	if err != nil {
		return nil, err
	}
	for _, layer := range []*koanf.Koanf{fileConf, envConf, cliConf} {
		if err := k.Merge(layer); err != nil {
			return nil, fmt.Errorf("error building config: %w", err)
		}
	}
	return k, nil
}
