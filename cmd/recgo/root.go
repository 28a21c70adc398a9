package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/hupe1980/recgo"
	"github.com/hupe1980/recgo/blobstore"
	"github.com/hupe1980/recgo/bundle"
	"github.com/hupe1980/recgo/frame"
	"github.com/hupe1980/recgo/metrics/prometheus"
	"github.com/hupe1980/recgo/model"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	cfg     *Config
)

var rootCmd = &cobra.Command{
	Use:   "recgo",
	Short: "Batch recommendation queries against stored model bundles",
	Long: `recgo - score and rank items for many entities in one call.

A model bundle (see package bundle) is loaded from a local directory, S3 or
MinIO. Input tables are CSV files with a header row; columns the model
trained as numeric are parsed as numbers.

Examples:
  # Top 10 items for every known entity
  recgo recommend -o recs.csv

  # Top 20 for listed users, excluding what they already saw
  RECGO_TOP_K=20 recgo recommend --query users.csv --exclude-training

  # Precision/recall of a stored result table
  recgo evaluate --held-out test.csv --recs results/run1
`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		var err error
		cfg, err = loadConfig(cfgFile)
		return err
	},
}

// Execute runs the root command with SIGINT/SIGTERM canceling the context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "YAML config file (default $RECGO_CONFIG)")

	rootCmd.AddCommand(recommendCmd)
	rootCmd.AddCommand(evaluateCmd)
	rootCmd.AddCommand(inspectCmd)
}

// session is the state shared by commands that need an engine.
type session struct {
	store   blobstore.BlobStore
	bundle  *bundle.Bundle
	engine  *recgo.Engine
	metrics *prom.Registry
}

func openSession(ctx context.Context) (*session, error) {
	store, err := cfg.openStore(ctx)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	b, err := bundle.Load(ctx, store, cfg.Model, bundle.WithIOLimit(cfg.IOLimit), bundle.WithBlockCache(cfg.BlockCache))
	if err != nil {
		return nil, fmt.Errorf("load bundle %s: %w", cfg.Model, err)
	}

	reg := prom.NewRegistry()
	opts := []recgo.Option{
		recgo.WithLogger(cfg.logger()),
		recgo.WithMetricsCollector(prometheus.New(reg)),
		recgo.WithProgressEvery(cfg.ProgressEvery),
		recgo.WithDebugChecks(cfg.DebugChecks),
		recgo.WithMemoryLimit(cfg.MemoryLimit),
	}
	if cfg.Workers > 0 {
		opts = append(opts, recgo.WithWorkers(cfg.Workers))
	}

	eng, err := recgo.New(b, opts...)
	if err != nil {
		_ = b.Close()
		return nil, err
	}
	return &session{store: store, bundle: b, engine: eng, metrics: reg}, nil
}

// Close writes the metrics file, if configured, and releases the bundle.
func (s *session) Close() error {
	var err error
	if cfg.MetricsFile != "" {
		err = prom.WriteToTextfile(cfg.MetricsFile, s.metrics)
	}
	if cerr := s.bundle.Close(); err == nil {
		err = cerr
	}
	return err
}

// numericColumns returns the schema columns trained as numeric.
func numericColumns(s *model.Schema) []string {
	var out []string
	for _, c := range s.Columns() {
		if c.Kind == model.Numeric {
			out = append(out, c.Name)
		}
	}
	return out
}

// readFrame reads a CSV table; an empty path yields a nil frame.
func readFrame(path string, numeric []string) (*frame.Frame, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	fr, err := frame.ReadCSV(f, numeric...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return fr, nil
}
