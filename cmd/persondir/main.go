package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"
	"persondir.systems/persondir/internal/persondir"
)

var Version string

func sourceFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "source",
		Aliases: []string{"s"},
		Usage:   "Only query the named attribute source",
	}
}

func main() {
	cliflags := make(map[string]any)
	ctx := context.Background()

	var configFile string

	app := &cli.Command{
		Name:  "persondir",
		Usage: "Look up person attributes across configured sources",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Usage:       "Specifed TOML config file",
				Required:    false,
				Destination: &configFile,
				Aliases:     []string{"c"},
				Sources:     cli.EnvVars("PERSONDIR_CONFIG"),
				Action: func(ctx context.Context, cCtx *cli.Command, v string) error {
					if v == "" {
						return errors.New("config file passed without value")
					}
					if _, err := os.Stat(v); err != nil && os.IsNotExist(err) {
						return errors.New("config file not found")
					} else if err != nil {
						return err
					}
					return nil
				},
			},
			&cli.BoolFlag{
				Name:    "debug",
				Usage:   "Enable debug logging",
				Sources: cli.EnvVars("PERSONDIR_DEBUG"),
				Action: func(ctx context.Context, cm *cli.Command, b bool) error {
					cliflags["debug"] = b
					return nil
				},
			},
			&cli.BoolFlag{
				Name:    "nosync",
				Usage:   "Disable syncing vaults before a lookup",
				Sources: cli.EnvVars("PERSONDIR_NOSYNC"),
				Action: func(ctx context.Context, cm *cli.Command, b bool) error {
					cliflags["source.no_sync"] = b
					return nil
				},
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "config",
				Usage: "Dump active config",
				Action: func(ctx context.Context, cCtx *cli.Command) error {
					k, err := LoadConfigs(ctx, configFile, cliflags)
					if err != nil {
						return err
					}
					c, err := persondir.NewConfig(k)
					if err != nil {
						return err
					}
					fmt.Println(c)
					return nil
				},
			},
			{
				Name:      "lookup",
				Usage:     "Look up the attributes of a person",
				ArgsUsage: "[uid]",
				Flags: []cli.Flag{
					&cli.StringSliceFlag{
						Name:    "attr",
						Aliases: []string{"a"},
						Usage:   "Seed attribute as name=value, may be repeated",
					},
					&cli.BoolFlag{
						Name:  "single",
						Usage: "Collapse every attribute to its first value",
					},
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Control output format. Supports text,json",
						Value:   "text",
					},
					sourceFlag(),
				},
				Action: func(ctx context.Context, cCtx *cli.Command) error {
					p, err := setup(ctx, configFile, cliflags)
					if err != nil {
						return err
					}
					defer func() { _ = p.Close() }()
					return lookupCommand(ctx, os.Stdout, p, lookupOptions{
						uid:    cCtx.Args().First(),
						attrs:  cCtx.StringSlice("attr"),
						single: cCtx.Bool("single"),
						format: cCtx.String("format"),
						source: cCtx.String("source"),
					})
				},
			},
			{
				Name:  "names",
				Usage: "List the attribute names the sources can return",
				Flags: []cli.Flag{sourceFlag()},
				Action: func(ctx context.Context, cCtx *cli.Command) error {
					p, err := setup(ctx, configFile, cliflags)
					if err != nil {
						return err
					}
					defer func() { _ = p.Close() }()
					return namesCommand(os.Stdout, p, cCtx.String("source"))
				},
			},
			{
				Name:      "diff",
				Usage:     "Compare what two sources hold for a person",
				ArgsUsage: "<uid> <source> <source>",
				Action: func(ctx context.Context, cCtx *cli.Command) error {
					if cCtx.Args().Len() != 3 {
						return errors.New("diff needs a uid and two source names")
					}
					p, err := setup(ctx, configFile, cliflags)
					if err != nil {
						return err
					}
					defer func() { _ = p.Close() }()
					return diffCommand(ctx, os.Stdout, p, cCtx.Args().Get(0), cCtx.Args().Get(1), cCtx.Args().Get(2))
				},
			},
			{
				Name:  "sync",
				Usage: "Update the local copy of the vault source",
				Action: func(ctx context.Context, cCtx *cli.Command) error {
					k, c, err := loadConfig(ctx, configFile, cliflags)
					if err != nil {
						return err
					}
					if err := setupDirectories(c); err != nil {
						return err
					}
					setupLogger(c)
					if c.SourceConfig == nil {
						return errors.New("no vault source configured")
					}
					c.SourceConfig.NoSync = false
					return persondir.SyncVaults(ctx, k, c)
				},
			},
			{
				Name:  "version",
				Usage: "show version",
				Action: func(_ context.Context, _ *cli.Command) error {
					fmt.Printf("persondir version %v\n", Version)
					return nil
				},
			},
		},
	}

	if err := app.Run(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}
