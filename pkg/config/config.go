// Package config provides configuration loading, validation, and management
// for the asninfo service. It supports YAML-based configuration files with
// validation and default value application; every value has a usable default
// so the server can run without a configuration file at all.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/asnlab/asninfo/pkg/logging"
)

const (
	// MinRefreshInterval is the floor applied to the configured refresh
	// interval before the timer is armed. Upstream datasets update at most a
	// few times per day.
	MinRefreshInterval = 3600

	defaultRefreshInterval = 21600
	defaultMaxASNs         = 100
	defaultShutdownTimeout = 20 * time.Second
)

// Config models the complete application configuration for the serve command.
type Config struct {
	// Server configures the HTTP lookup API listener.
	Server ServerConfig `yaml:"server"`
	// Metrics configures the HTTP server for Prometheus metrics and probes.
	Metrics MetricsConfig `yaml:"metrics"`
	// Logging configures structured logging output and levels.
	Logging logging.Config `yaml:"logging"`
	// Refresh controls the background dataset refresh cycle.
	Refresh RefreshConfig `yaml:"refresh"`
	// Lookup bounds individual lookup requests.
	Lookup LookupConfig `yaml:"lookup"`
	// Provider points at the upstream dataset endpoints.
	Provider ProviderConfig `yaml:"provider"`
	// Shutdown controls graceful shutdown behavior.
	Shutdown ShutdownConfig `yaml:"shutdown"`
}

// ServerConfig controls the lookup API listener.
type ServerConfig struct {
	// Address is the bind address for the lookup API (e.g., "0.0.0.0:8080").
	Address string `yaml:"address"`
}

// MetricsConfig controls the metrics/health HTTP server.
type MetricsConfig struct {
	// Address is the bind address for the metrics HTTP server (e.g., ":9090").
	Address string `yaml:"address"`
	// HealthPath is the liveness probe endpoint path.
	HealthPath string `yaml:"healthPath"`
	// ReadinessPath is the readiness probe endpoint path.
	ReadinessPath string `yaml:"readinessPath"`
	// DropPrefixes specifies metric name prefixes to filter out from the
	// default Go runtime registry.
	DropPrefixes []string `yaml:"dropPrefixes"`
}

// RefreshConfig holds background refresh parameters.
type RefreshConfig struct {
	// IntervalSecs is the refresh period in seconds. Values below
	// MinRefreshInterval are raised to it.
	IntervalSecs uint64 `yaml:"intervalSecs"`
	// Simplified skips the heavy auxiliary datasets (hegemony, PeeringDB,
	// population) when true.
	Simplified bool `yaml:"simplified"`
}

// LookupConfig bounds lookup requests.
type LookupConfig struct {
	// MaxASNs is the maximum number of ASNs accepted in one request.
	// Overridable via the ASNINFO_MAX_ASNS environment variable.
	MaxASNs int `yaml:"maxAsns"`
}

// ProviderConfig points at the upstream dataset sources.
type ProviderConfig struct {
	// ASNamesURL serves the primary ASN/name/country registry.
	ASNamesURL string `yaml:"asnamesUrl"`
	// As2OrgURL serves the as2org organization mapping (JSONL).
	As2OrgURL string `yaml:"as2orgUrl"`
	// HegemonyURL serves AS hegemony scores (JSONL, full mode only).
	HegemonyURL string `yaml:"hegemonyUrl"`
	// PeeringDBURL serves the PeeringDB network dump (JSONL, full mode only).
	PeeringDBURL string `yaml:"peeringdbUrl"`
	// PopulationURL serves APNIC population estimates (JSONL, full mode only).
	PopulationURL string `yaml:"populationUrl"`
	// TimeoutSecs bounds each upstream HTTP request.
	TimeoutSecs int `yaml:"timeoutSecs"`
}

// ShutdownConfig holds graceful shutdown parameters.
type ShutdownConfig struct {
	// Timeout is the maximum duration to wait for graceful shutdown (e.g., "25s").
	Timeout string `yaml:"timeout"`
}

// Load reads, normalizes, and validates a configuration file from the
// specified path. A missing file is not an error: defaults apply, so the
// server runs unconfigured. Environment overrides are applied after the file.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("could not parse the configuration file: %w", err)
			}
		case errors.Is(err, os.ErrNotExist):
			// fall through to defaults
		default:
			return nil, fmt.Errorf("could not read the configuration file: %w", err)
		}
	}

	cfg.applyDefaults()
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures the configuration is ready for use.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if c.Server.Address == "" {
		return errors.New("server address is required")
	}
	if c.Lookup.MaxASNs < 1 {
		return errors.New("lookup maxAsns must be at least 1")
	}
	if c.Provider.TimeoutSecs < 1 {
		return errors.New("provider timeoutSecs must be at least 1")
	}
	if _, err := time.ParseDuration(c.Shutdown.Timeout); err != nil {
		return fmt.Errorf("invalid shutdown timeout: %w", err)
	}
	return nil
}

// RefreshInterval returns the refresh period with the floor applied.
func (c *Config) RefreshInterval() time.Duration {
	secs := c.Refresh.IntervalSecs
	if secs < MinRefreshInterval {
		secs = MinRefreshInterval
	}
	return time.Duration(secs) * time.Second
}

// ShutdownTimeout parses the shutdown timeout, falling back to the default on
// malformed input.
func (c *ShutdownConfig) ShutdownTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return defaultShutdownTimeout
	}
	return d
}

// applyDefaults populates configuration fields with sensible default values
// when they are not explicitly specified in the configuration file.
func (c *Config) applyDefaults() {
	if c.Server.Address == "" {
		c.Server.Address = "0.0.0.0:8080"
	}

	if c.Metrics.Address == "" {
		c.Metrics.Address = ":9090"
	}
	if c.Metrics.HealthPath == "" {
		c.Metrics.HealthPath = "/healthz"
	}
	if c.Metrics.ReadinessPath == "" {
		c.Metrics.ReadinessPath = "/readyz"
	}
	if c.Metrics.DropPrefixes == nil {
		c.Metrics.DropPrefixes = []string{"go_", "process_", "promhttp_"}
	}

	if c.Refresh.IntervalSecs == 0 {
		c.Refresh.IntervalSecs = defaultRefreshInterval
	}

	if c.Lookup.MaxASNs == 0 {
		c.Lookup.MaxASNs = defaultMaxASNs
	}

	if c.Provider.ASNamesURL == "" {
		c.Provider.ASNamesURL = "https://ftp.ripe.net/ripe/asnames/asn.txt"
	}
	if c.Provider.As2OrgURL == "" {
		c.Provider.As2OrgURL = "https://data.bgpkit.com/commons/as2org.jsonl"
	}
	if c.Provider.HegemonyURL == "" {
		c.Provider.HegemonyURL = "https://data.bgpkit.com/commons/hegemony.jsonl"
	}
	if c.Provider.PeeringDBURL == "" {
		c.Provider.PeeringDBURL = "https://data.bgpkit.com/commons/peeringdb.jsonl"
	}
	if c.Provider.PopulationURL == "" {
		c.Provider.PopulationURL = "https://data.bgpkit.com/commons/population.jsonl"
	}
	if c.Provider.TimeoutSecs == 0 {
		c.Provider.TimeoutSecs = 120
	}

	if c.Shutdown.Timeout == "" {
		c.Shutdown.Timeout = "20s"
	}
}

// applyEnv applies environment variable overrides on top of file values.
func (c *Config) applyEnv() {
	if v := os.Getenv("ASNINFO_MAX_ASNS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Lookup.MaxASNs = n
		}
	}
}
