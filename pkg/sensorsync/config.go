package sensorsync

import (
	"github.com/Nathanael1721/Final-Project/internal/app/config"
	"github.com/Nathanael1721/Final-Project/internal/ports"
)

// Config re-exports the root configuration struct so downstream projects can
// construct or modify it programmatically.
type Config = config.Config

type (
	// Policy controls cycle timing, bucket width and stream concurrency.
	Policy = ports.Policy
	// ProbeConfig selects the connectivity target.
	ProbeConfig = config.ProbeConfig
	// StoreConfig names a database/sql driver and DSN.
	StoreConfig = config.StoreConfig
	// StreamConfig describes one sensor table.
	StreamConfig = config.StreamConfig
	// BufferConfig configures the offline buffer file.
	BufferConfig = config.BufferConfig
	// MetricsConfig configures the metrics HTTP server.
	MetricsConfig = config.MetricsConfig
)

// LoadConfig loads YAML from disk using the internal config reader.
func LoadConfig(path string) (*Config, error) {
	return config.Load(path)
}

// ParseConfig decodes YAML already in memory.
func ParseConfig(raw []byte) (*Config, error) {
	return config.Parse(raw)
}
