package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/Nathanael1721/Final-Project/internal/adapters/probe"
	"github.com/Nathanael1721/Final-Project/internal/adapters/sqlstore"
	"github.com/Nathanael1721/Final-Project/internal/domain"
	"github.com/Nathanael1721/Final-Project/internal/ports"
)

// Environment variables that override the file.
const (
	EnvLocalDSN    = "SENSORSYNC_LOCAL_DSN"
	EnvRemoteDSN   = "SENSORSYNC_REMOTE_DSN"
	EnvBufferPath  = "SENSORSYNC_BUFFER_PATH"
	EnvMetricsAddr = "SENSORSYNC_METRICS_ADDR"
)

// DefaultStreams are the sensor tables synced when none are configured.
var DefaultStreams = []string{
	"cluster1_suhu",
	"cluster1_kelembaban",
	"cluster1_tanah",
	"cluster2_suhu",
	"cluster2_kelembaban",
	"cluster2_tanah",
}

type Config struct {
	Policy  ports.Policy   `yaml:"policy"`
	Probe   ProbeConfig    `yaml:"probe"`
	Local   StoreConfig    `yaml:"local"`
	Remote  StoreConfig    `yaml:"remote"`
	Streams []StreamConfig `yaml:"streams"`
	Buffer  BufferConfig   `yaml:"buffer"`
	Metrics MetricsConfig  `yaml:"metrics"`
}

type ProbeConfig struct {
	Target  string        `yaml:"target"`
	Timeout time.Duration `yaml:"timeout"`
}

type StoreConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// StreamConfig names a sensor table. ValueColumn defaults to the part of the
// name after the first underscore.
type StreamConfig struct {
	Name        string `yaml:"name"`
	ValueColumn string `yaml:"value_column"`
}

type BufferConfig struct {
	Path string `yaml:"path"`
}

type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// Load reads the YAML file at path, then a .env file in the working directory
// if present, then the SENSORSYNC_* environment overrides. An empty path skips
// the file and starts from defaults.
func Load(path string) (*Config, error) {
	var raw []byte
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		raw = b
	}
	_ = godotenv.Load(".env")
	return Parse(raw)
}

// Parse decodes raw YAML and applies environment overrides and defaults.
func Parse(raw []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Catalog builds the stream catalog in configured order.
func (c *Config) Catalog() (domain.Catalog, error) {
	streams := make([]domain.Stream, 0, len(c.Streams))
	for _, sc := range c.Streams {
		s := domain.NewStream(sc.Name)
		if sc.ValueColumn != "" {
			s.ValueColumn = sc.ValueColumn
		}
		streams = append(streams, s)
	}
	return domain.NewCatalog(streams)
}

func (c *Config) applyEnv() {
	if v := strings.TrimSpace(os.Getenv(EnvLocalDSN)); v != "" {
		c.Local.DSN = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvRemoteDSN)); v != "" {
		c.Remote.DSN = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvBufferPath)); v != "" {
		c.Buffer.Path = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvMetricsAddr)); v != "" {
		c.Metrics.Addr = v
	}
}

func (c *Config) applyDefaults() {
	if c.Policy.PollInterval == 0 {
		c.Policy.PollInterval = 60 * time.Second
	}
	if c.Policy.ProbeInterval == 0 {
		c.Policy.ProbeInterval = time.Second
	}
	if c.Policy.BucketWidth == 0 {
		c.Policy.BucketWidth = time.Minute
	}
	if c.Policy.Concurrency == 0 {
		c.Policy.Concurrency = 1
	}
	if c.Probe.Target == "" {
		c.Probe.Target = probe.DefaultTarget
	}
	if c.Probe.Timeout == 0 {
		c.Probe.Timeout = probe.DefaultTimeout
	}
	if c.Local.Driver == "" {
		c.Local.Driver = "mysql"
	}
	if c.Remote.Driver == "" {
		c.Remote.Driver = "mysql"
	}
	if len(c.Streams) == 0 {
		for _, name := range DefaultStreams {
			c.Streams = append(c.Streams, StreamConfig{Name: name})
		}
	}
	if c.Buffer.Path == "" {
		c.Buffer.Path = "./data/buffer_data.json"
	}
	if c.Metrics.Addr == "" {
		c.Metrics.Addr = ":9100"
	}
}

func (c *Config) validate() error {
	var errs []error
	if c.Policy.PollInterval < 0 || c.Policy.ProbeInterval < 0 || c.Policy.BucketWidth < 0 {
		errs = append(errs, errors.New("policy intervals must be positive"))
	}
	if c.Policy.Concurrency < 0 {
		errs = append(errs, errors.New("policy.concurrency must not be negative"))
	}
	if _, err := sqlstore.DialectFor(c.Local.Driver); err != nil {
		errs = append(errs, fmt.Errorf("local: %w", err))
	}
	if _, err := sqlstore.DialectFor(c.Remote.Driver); err != nil {
		errs = append(errs, fmt.Errorf("remote: %w", err))
	}
	if c.Local.DSN == "" {
		errs = append(errs, fmt.Errorf("local.dsn is required (or set %s)", EnvLocalDSN))
	}
	if c.Remote.DSN == "" {
		errs = append(errs, fmt.Errorf("remote.dsn is required (or set %s)", EnvRemoteDSN))
	}
	if _, err := c.Catalog(); err != nil {
		errs = append(errs, fmt.Errorf("streams: %w", err))
	}
	return errors.Join(errs...)
}
