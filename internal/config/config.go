// Package config loads housingcore settings: built-in defaults, then an
// optional YAML file, then HOUSINGCORE_* environment overrides.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"housingcore/internal/blob"
	blobcore "housingcore/internal/blob/core"
	"housingcore/internal/core"
	"housingcore/internal/infra/blob/s3"
)

// Config is the full settings tree. Metrics is one of none, expvar or
// prometheus; Tracing is one of none, json or otel.
type Config struct {
	Storage StorageConfig `yaml:"storage"`
	Log     LogConfig     `yaml:"log"`
	Metrics string        `yaml:"metrics"`
	Tracing string        `yaml:"tracing"`
}

// StorageConfig selects the record backend.
type StorageConfig struct {
	Driver      string     `yaml:"driver"`
	SQLitePath  string     `yaml:"sqlitePath"`
	PostgresDSN string     `yaml:"postgresDSN"`
	Blob        BlobConfig `yaml:"blob"`
}

// BlobConfig configures the blob backend.
type BlobConfig struct {
	Driver string   `yaml:"driver"`
	FSRoot string   `yaml:"fsRoot"`
	Prefix string   `yaml:"prefix"`
	S3     S3Config `yaml:"s3"`
}

// S3Config holds the non-secret S3 settings. Credentials come from the
// environment or the default AWS chain.
type S3Config struct {
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
	Endpoint  string `yaml:"endpoint"`
	PathStyle bool   `yaml:"pathStyle"`
}

// LogConfig configures the slog handler. Level is a slog level name and
// Format is text or json.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the settings used when nothing is configured.
func Default() Config {
	return Config{
		Storage: StorageConfig{
			Driver:     string(core.StorageBlob),
			SQLitePath: "housingcore.db",
			Blob:       BlobConfig{Driver: string(blobcore.DriverFilesystem), FSRoot: "./data"},
		},
		Log:     LogConfig{Level: "info", Format: "text"},
		Metrics: "none",
		Tracing: "none",
	}
}

// Load builds the configuration. An empty path skips the file; a path that
// cannot be read or parsed is an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := Merge(&cfg, data); err != nil {
			return Config{}, err
		}
	}
	ApplyEnvOverrides(&cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Merge overlays the YAML document onto cfg. Fields absent from the document
// keep their current values.
func Merge(cfg *Config, data []byte) error {
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}

// ApplyEnvOverrides applies HOUSINGCORE_* variables that are set.
func ApplyEnvOverrides(cfg *Config) {
	set := func(dst *string, key string) {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			*dst = v
		}
	}
	set(&cfg.Storage.Driver, "HOUSINGCORE_STORAGE_DRIVER")
	set(&cfg.Storage.SQLitePath, "HOUSINGCORE_SQLITE_PATH")
	set(&cfg.Storage.PostgresDSN, "HOUSINGCORE_POSTGRES_DSN")
	set(&cfg.Storage.Blob.Driver, "HOUSINGCORE_BLOB_DRIVER")
	set(&cfg.Storage.Blob.FSRoot, "HOUSINGCORE_BLOB_FS_ROOT")
	set(&cfg.Storage.Blob.Prefix, "HOUSINGCORE_BLOB_PREFIX")
	set(&cfg.Storage.Blob.S3.Bucket, "HOUSINGCORE_BLOB_S3_BUCKET")
	set(&cfg.Storage.Blob.S3.Region, "HOUSINGCORE_BLOB_S3_REGION")
	set(&cfg.Storage.Blob.S3.Endpoint, "HOUSINGCORE_BLOB_S3_ENDPOINT")
	if raw := strings.TrimSpace(os.Getenv("HOUSINGCORE_BLOB_S3_PATH_STYLE")); raw != "" {
		if v, err := strconv.ParseBool(raw); err == nil {
			cfg.Storage.Blob.S3.PathStyle = v
		}
	}
	set(&cfg.Log.Level, "HOUSINGCORE_LOG_LEVEL")
	set(&cfg.Log.Format, "HOUSINGCORE_LOG_FORMAT")
	set(&cfg.Metrics, "HOUSINGCORE_METRICS")
	set(&cfg.Tracing, "HOUSINGCORE_TRACING")
}

var (
	storageDrivers = toSet(string(core.StorageBlob), string(core.StorageMemory), string(core.StorageSQLite), string(core.StoragePostgres))
	blobDrivers    = toSet(string(blobcore.DriverFilesystem), string(blobcore.DriverS3), string(blobcore.DriverMemory))
	metricsModes   = toSet("none", "expvar", "prometheus")
	tracingModes   = toSet("none", "json", "otel")
	logFormats     = toSet("text", "json")
)

func toSet(values ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

// Validate reports every unknown enumerated value.
func (c Config) Validate() error {
	var errs []error
	check := func(name, value string, allowed map[string]struct{}) {
		if _, ok := allowed[value]; !ok {
			errs = append(errs, fmt.Errorf("unknown %s %q", name, value))
		}
	}
	check("storage driver", c.Storage.Driver, storageDrivers)
	if c.Storage.Driver == string(core.StorageBlob) {
		check("blob driver", c.Storage.Blob.Driver, blobDrivers)
		if c.Storage.Blob.Driver == string(blobcore.DriverS3) && c.Storage.Blob.S3.Bucket == "" {
			errs = append(errs, errors.New("s3 blob driver requires a bucket"))
		}
	}
	check("metrics mode", c.Metrics, metricsModes)
	check("tracing mode", c.Tracing, tracingModes)
	check("log format", c.Log.Format, logFormats)
	if _, err := parseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Backend maps the storage settings onto core.StorageConfig. S3 credentials
// are read from HOUSINGCORE_BLOB_S3_ACCESS_KEY_ID and friends when present.
func (c Config) Backend() core.StorageConfig {
	s3cfg := s3.Config{
		Bucket:          c.Storage.Blob.S3.Bucket,
		Region:          c.Storage.Blob.S3.Region,
		Endpoint:        c.Storage.Blob.S3.Endpoint,
		PathStyle:       c.Storage.Blob.S3.PathStyle,
		AccessKeyID:     os.Getenv("HOUSINGCORE_BLOB_S3_ACCESS_KEY_ID"),
		SecretAccessKey: os.Getenv("HOUSINGCORE_BLOB_S3_SECRET_ACCESS_KEY"),
		SessionToken:    os.Getenv("HOUSINGCORE_BLOB_S3_SESSION_TOKEN"),
	}
	return core.StorageConfig{
		Driver:      core.StorageDriver(c.Storage.Driver),
		SQLitePath:  c.Storage.SQLitePath,
		PostgresDSN: c.Storage.PostgresDSN,
		Blob: blob.Config{
			Driver: blobcore.Driver(c.Storage.Blob.Driver),
			FSRoot: c.Storage.Blob.FSRoot,
			S3:     s3cfg,
		},
		BlobPrefix: c.Storage.Blob.Prefix,
	}
}

func parseLevel(raw string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(raw)); err != nil {
		return 0, fmt.Errorf("unknown log level %q", raw)
	}
	return level, nil
}

// NewLogger builds a slog logger writing to w.
func (l LogConfig) NewLogger(w io.Writer) (*slog.Logger, error) {
	level, err := parseLevel(l.Level)
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}
	switch l.Format {
	case "", "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("unknown log format %q", l.Format)
	}
}
