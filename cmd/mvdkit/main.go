// Package main provides the mvdkit binary entry point.
// mvdkit checks, inspects and converts model view definitions stored as
// mvdXML documents.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/c360studio/mvdkit/config"
	"github.com/c360studio/mvdkit/metric"
	"github.com/c360studio/mvdkit/mvdxml"
	"github.com/c360studio/mvdkit/schema"
)

const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "mvdkit"
)

func main() {
	// Add panic recovery
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// app is the state shared by every subcommand, set up before a command runs.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	registry *metric.Registry
	schema   *schema.Index
}

// codecOptions returns the decode options every command uses.
func (a *app) codecOptions() []mvdxml.Option {
	opts := []mvdxml.Option{
		mvdxml.WithLogger(a.logger),
		mvdxml.WithMetrics(a.registry.Metrics()),
	}
	if a.schema != nil {
		opts = append(opts, mvdxml.WithSchema(a.schema))
	}
	return opts
}

func (a *app) decode(path string) (*mvdxml.Result, error) {
	return mvdxml.DecodeFile(path, a.codecOptions()...)
}

func rootCmd() *cobra.Command {
	var (
		configDir string
		catalog   string
		logLevel  string
	)
	a := &app{}

	cmd := &cobra.Command{
		Use:   appName,
		Short: "Model view definition toolkit",
		Long: `mvdkit works with model view definitions exchanged as mvdXML.

It can:
- check documents for dangling and recursive template references
- show template rule trees with inherited nodes marked
- list the concepts a view applies to an entity, including inherited ones
- derive Schematron checks from concept usages
- watch a directory and re-check documents as they change
- push and pull documents to a NATS key-value bucket`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(configDir, catalog, logLevel, cmd.Flags().Changed("log-level"))
		},
	}

	cmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "Directory to start the project config search from (default: working directory)")
	cmd.PersistentFlags().StringVar(&catalog, "schema", "", "Schema catalog YAML used to check entity names")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	cmd.AddCommand(
		checkCmd(a),
		showCmd(a),
		inheritCmd(a),
		normalizeCmd(a),
		assertCmd(a),
		watchCmd(a),
		pushCmd(a),
		pullCmd(a),
		listCmd(a),
		initCmd(a),
	)

	// Version command
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s version %s (build: %s)\n", appName, Version, BuildTime)
		},
	})

	return cmd
}

// setup loads the layered configuration, then applies flag overrides.
func (a *app) setup(configDir, catalog, logLevel string, levelSet bool) error {
	bootstrap := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	loader := config.NewLoader(bootstrap)
	var (
		cfg *config.Config
		err error
	)
	if configDir != "" {
		cfg, err = loader.LoadFrom(configDir)
	} else {
		cfg, err = loader.Load()
	}
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if levelSet {
		cfg.Log.Level = logLevel
	}
	if catalog != "" {
		cfg.Schema.Catalog = catalog
	}
	level, err := config.ParseLevel(cfg.Log.Level)
	if err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}

	a.cfg = cfg
	a.logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(a.logger)
	a.registry = metric.NewRegistry()

	if cfg.Schema.Catalog != "" {
		ix, err := schema.LoadFile(cfg.Schema.Catalog)
		if err != nil {
			return fmt.Errorf("load schema catalog: %w", err)
		}
		a.schema = ix
		a.logger.Debug("Loaded schema catalog",
			"schema", ix.Name(),
			"definitions", ix.Len())
	}
	return nil
}
