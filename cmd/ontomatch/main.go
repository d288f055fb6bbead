// Package main is the ontomatch CLI entry point.
package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	ocli "github.com/hyperjump/ontomatch/internal/cli"
	"github.com/hyperjump/ontomatch/internal/config"
	"github.com/hyperjump/ontomatch/internal/index"
	"github.com/hyperjump/ontomatch/internal/ingest"
	"github.com/hyperjump/ontomatch/internal/mapper"
	"github.com/hyperjump/ontomatch/internal/scoring"
	"github.com/hyperjump/ontomatch/internal/search"
	"github.com/hyperjump/ontomatch/internal/storage"
	"github.com/hyperjump/ontomatch/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/ontomatch/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks for
// config.yaml in the current directory (for development).
func loadConfig(path string) (*config.Config, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				return config.Load(fallback)
			}
		}
	}
	return config.Load(path)
}

func main() {
	if err := newApp(os.Stdout).Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp(out io.Writer) *cli.App {
	return &cli.App{
		Name:      "ontomatch",
		Usage:     "Map source records to curated rules and ontology terms",
		Version:   version,
		Writer:    out,
		ErrWriter: os.Stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Config file path",
				Value:   defaultConfigPath,
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "index",
				Usage:     "Load target entities from a JSON file into an index",
				ArgsUsage: "<targets.json>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "index",
						Aliases:  []string{"i"},
						Usage:    "Index ID to write to (e.g. the rules_index or ontology_index of an entity type)",
						Required: true,
					},
				},
				Action: indexCommand,
			},
			{
				Name:      "map",
				Usage:     "Find suggestions for a JSON array of source entities",
				ArgsUsage: "<request.json>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Output format: text or json",
						Value:   string(ocli.OutputText),
					},
				},
				Action: mapCommand,
			},
			{
				Name:      "remove",
				Usage:     "Remove targets from an index by unique id",
				ArgsUsage: "<unique-id>...",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "index",
						Aliases:  []string{"i"},
						Usage:    "Index ID to remove from",
						Required: true,
					},
				},
				Action: removeCommand,
			},
			{
				Name:      "stats",
				Usage:     "Show the number of targets stored in an index",
				ArgsUsage: "<index-id>",
				Action:    statsCommand,
			},
			{
				Name:  "version",
				Usage: "Print the version",
				Action: func(c *cli.Context) error {
					fmt.Fprintf(c.App.Writer, "ontomatch %s\n", version)
					return nil
				},
			},
		},
	}
}

// Components holds the long-lived dependencies shared by all commands.
type Components struct {
	Config  *config.Config
	Logger  *zap.Logger
	Storage *storage.SQLiteStorage
	Gateway *index.BleveGateway
}

// Close releases the gateway before the store it reads from.
func (c *Components) Close() {
	if c.Gateway != nil {
		_ = c.Gateway.Close()
	}
	if c.Storage != nil {
		_ = c.Storage.Close()
	}
	if c.Logger != nil {
		_ = c.Logger.Sync()
	}
}

func initializeComponents(c *cli.Context) (*Components, error) {
	cfg, err := loadConfig(c.String("config"))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	comps := &Components{Config: cfg, Logger: logger}

	comps.Storage, err = storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		comps.Close()
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	comps.Gateway, err = index.NewBleveGateway(cfg.Storage.IndexDir, comps.Storage,
		index.WithLogger(logger),
		index.WithResultWindow(cfg.Mapping.ResultWindow),
	)
	if err != nil {
		comps.Close()
		return nil, fmt.Errorf("failed to initialize index gateway: %w", err)
	}
	return comps, nil
}

func indexCommand(c *cli.Context) error {
	if c.NArg() < 1 {
		return fmt.Errorf("usage: ontomatch index --index <id> <targets.json>")
	}
	comps, err := initializeComponents(c)
	if err != nil {
		return err
	}
	defer comps.Close()

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	indexID := c.String("index")
	n, err := ingest.Load(ctx, comps.Gateway, indexID, c.Args().First())
	if err != nil {
		return fmt.Errorf("indexing failed after %d targets: %w", n, err)
	}
	comps.Logger.Info("targets indexed", zap.String("index", indexID), zap.Int("count", n))
	fmt.Fprintf(c.App.Writer, "Indexed %d target(s) into %s\n", n, indexID)
	return nil
}

func mapCommand(c *cli.Context) error {
	if c.NArg() < 1 {
		return fmt.Errorf("usage: ontomatch map [--format text|json] <request.json>")
	}
	format, err := ocli.ParseOutputFormat(c.String("format"))
	if err != nil {
		return err
	}
	f, err := os.Open(c.Args().First())
	if err != nil {
		return fmt.Errorf("failed to open request: %w", err)
	}
	inputs, err := ocli.ReadRequest(f)
	_ = f.Close()
	if err != nil {
		return err
	}

	comps, err := initializeComponents(c)
	if err != nil {
		return err
	}
	defer comps.Close()
	cfg, logger := comps.Config, comps.Logger

	calc, err := scoring.NewCalculator(cfg.Scoring)
	if err != nil {
		return err
	}
	finder := search.NewFinder(
		search.NewRulesSearcher(comps.Gateway, calc, search.WithSearcherLogger(logger)),
		search.NewOntologiesSearcher(comps.Gateway, calc, search.WithSearcherLogger(logger)),
		cfg.Entities,
		search.OptionsFromConfig(cfg.Mapping),
		search.WithLogger(logger),
	)
	m := mapper.New(finder, mapper.WithWorkers(cfg.Mapping.Workers), mapper.WithLogger(logger))

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	results := m.MapInputs(ctx, inputs)
	return ocli.WriteMapResponse(c.App.Writer, ocli.NewMapResponse(results, time.Since(start)), format)
}

func removeCommand(c *cli.Context) error {
	if c.NArg() < 1 {
		return fmt.Errorf("usage: ontomatch remove --index <id> <unique-id>...")
	}
	comps, err := initializeComponents(c)
	if err != nil {
		return err
	}
	defer comps.Close()

	indexID := c.String("index")
	n, err := comps.Gateway.RemoveTargets(c.Context, indexID, c.Args().Slice())
	if err != nil {
		return fmt.Errorf("failed to remove targets: %w", err)
	}
	comps.Logger.Info("targets removed", zap.String("index", indexID), zap.Int("count", n))
	fmt.Fprintf(c.App.Writer, "Removed %d target(s) from %s\n", n, indexID)
	return nil
}

func statsCommand(c *cli.Context) error {
	if c.NArg() < 1 {
		return fmt.Errorf("usage: ontomatch stats <index-id>")
	}
	comps, err := initializeComponents(c)
	if err != nil {
		return err
	}
	defer comps.Close()

	indexID := c.Args().First()
	n, err := comps.Storage.CountTargets(c.Context, indexID)
	if err != nil {
		return fmt.Errorf("failed to count targets: %w", err)
	}
	fmt.Fprintf(c.App.Writer, "%s: %d target(s)\n", indexID, n)
	return nil
}
