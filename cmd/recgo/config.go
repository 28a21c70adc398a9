package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/hupe1980/recgo"
	"github.com/hupe1980/recgo/blobstore"
	"github.com/hupe1980/recgo/blobstore/minio"
	"github.com/hupe1980/recgo/blobstore/s3"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

const (
	envPrefix     = "RECGO_"
	configPathEnv = "RECGO_CONFIG"
)

// Config is the CLI configuration.
type Config struct {
	Store  StoreConfig  `koanf:"store"`
	Model  string       `koanf:"model"`
	Output OutputConfig `koanf:"output"`

	TopK            int     `koanf:"top_k"`
	DiversityFactor float64 `koanf:"diversity_factor"`
	Seed            uint64  `koanf:"seed"`
	ExcludeTraining bool    `koanf:"exclude_training"`
	Cutoffs         []int   `koanf:"cutoffs"`

	Workers       int    `koanf:"workers"`
	ProgressEvery uint64 `koanf:"progress_every"`
	DebugChecks   bool   `koanf:"debug_checks"`
	MemoryLimit   int64  `koanf:"memory_limit"`
	IOLimit       int64  `koanf:"io_limit"`
	BlockCache    int64  `koanf:"block_cache"`

	LogLevel    string `koanf:"log_level"`
	LogFormat   string `koanf:"log_format"`
	MetricsFile string `koanf:"metrics_file"`
}

// StoreConfig selects the blob store holding bundles and result tables.
type StoreConfig struct {
	// Kind is local, s3 or minio.
	Kind   string `koanf:"kind"`
	Path   string `koanf:"path"`
	Bucket string `koanf:"bucket"`
	Prefix string `koanf:"prefix"`
	Region string `koanf:"region"`

	Endpoint     string `koanf:"endpoint"`
	UsePathStyle bool   `koanf:"use_path_style"`
	AccessKey    string `koanf:"access_key"`
	SecretKey    string `koanf:"secret_key"`
	Secure       bool   `koanf:"secure"`
}

// OutputConfig controls where recommend writes its table.
type OutputConfig struct {
	// Format is csv or table.
	Format      string `koanf:"format"`
	Codec       string `koanf:"codec"`
	Compression string `koanf:"compression"`
}

func defaultConfig() *Config {
	return &Config{
		Store: StoreConfig{
			Kind:   "local",
			Path:   ".",
			Secure: true,
		},
		Model: "model",
		Output: OutputConfig{
			Format:      "csv",
			Codec:       "go-json",
			Compression: "zstd",
		},
		TopK:          10,
		Cutoffs:       []int{5, 10},
		ProgressEvery: recgo.DefaultProgressEvery,
		LogLevel:      "info",
		LogFormat:     "text",
	}
}

// envTransform maps RECGO_STORE_ACCESS_KEY to store.access_key. The first
// segment after the prefix selects a section when one exists.
func envTransform(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, envPrefix))
	for _, section := range []string{"store_", "output_"} {
		if strings.HasPrefix(key, section) {
			return strings.TrimSuffix(section, "_") + "." + strings.TrimPrefix(key, section)
		}
	}
	return key
}

// loadConfig layers defaults, the optional YAML file and RECGO_* variables.
func loadConfig(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path == "" {
		path = os.Getenv(configPathEnv)
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	// Comma-separated cutoffs from the environment arrive as one string.
	if s, ok := k.Get("cutoffs").(string); ok {
		parts := strings.Split(s, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		if err := k.Set("cutoffs", parts); err != nil {
			return nil, err
		}
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks value ranges and store settings.
func (c *Config) Validate() error {
	switch c.Store.Kind {
	case "local":
		if c.Store.Path == "" {
			return fmt.Errorf("store.path is required for a local store")
		}
	case "s3", "minio":
		if c.Store.Bucket == "" {
			return fmt.Errorf("store.bucket is required for a %s store", c.Store.Kind)
		}
		if c.Store.Kind == "minio" && c.Store.Endpoint == "" {
			return fmt.Errorf("store.endpoint is required for a minio store")
		}
	default:
		return fmt.Errorf("unknown store kind %q", c.Store.Kind)
	}
	switch c.Output.Format {
	case "csv", "table":
	default:
		return fmt.Errorf("unknown output format %q", c.Output.Format)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log format %q", c.LogFormat)
	}
	if _, err := c.level(); err != nil {
		return err
	}
	if c.TopK <= 0 {
		return fmt.Errorf("top_k must be positive, got %d", c.TopK)
	}
	if c.DiversityFactor < 0 {
		return fmt.Errorf("diversity_factor must be non-negative, got %g", c.DiversityFactor)
	}
	if c.Workers < 0 || c.MemoryLimit < 0 || c.IOLimit < 0 || c.BlockCache < 0 {
		return fmt.Errorf("workers, memory_limit, io_limit and block_cache must be non-negative")
	}
	return nil
}

func (c *Config) level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("invalid log level %q: %w", c.LogLevel, err)
	}
	return l, nil
}

func (c *Config) logger() *recgo.Logger {
	l, _ := c.level()
	if c.LogFormat == "json" {
		return recgo.NewJSONLogger(l)
	}
	return recgo.NewTextLogger(l)
}

// openStore connects the configured blob store.
func (c *Config) openStore(ctx context.Context) (blobstore.BlobStore, error) {
	s := c.Store
	switch s.Kind {
	case "s3":
		opts := []s3.Option{s3.WithPrefix(s.Prefix)}
		if s.Region != "" {
			opts = append(opts, s3.WithRegion(s.Region))
		}
		if s.Endpoint != "" {
			opts = append(opts, s3.WithEndpoint(s.Endpoint, s.UsePathStyle))
		}
		return s3.New(ctx, s.Bucket, opts...)
	case "minio":
		return minio.Dial(ctx, minio.Config{
			Endpoint:  s.Endpoint,
			AccessKey: s.AccessKey,
			SecretKey: s.SecretKey,
			Secure:    s.Secure,
			Region:    s.Region,
			Bucket:    s.Bucket,
			Prefix:    s.Prefix,
		})
	default:
		return blobstore.NewLocalStore(s.Path), nil
	}
}
