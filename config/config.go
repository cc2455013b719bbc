// Package config implements §15 (AMBIENT): the YAML-driven configuration
// searchd and indexer load at startup, grounded on the teacher's
// database.GeneratorConfig (database/database.go) — a plain struct decoded
// with a YAML library and merged/validated by hand rather than through a
// schema-validation library.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

// ListenSpec is one `listen=` endpoint: network, address, and which wire
// dialect it speaks (§6.1/§15).
type ListenSpec struct {
	Net      string `yaml:"net"`      // "tcp" or "unix"
	Addr     string `yaml:"addr"`
	Protocol string `yaml:"protocol"` // "sphinx" or "mysql41"
}

// AgentSpec is one remote or blackhole agent of a distributed index
// (§4.K/§15).
type AgentSpec struct {
	Net       string `yaml:"net"`
	Addr      string `yaml:"addr"`
	Index     string `yaml:"index"`
	Blackhole bool   `yaml:"blackhole"`
	Weight    uint32 `yaml:"weight"`
}

// DistIndexSpec is one `index ... type=distributed` block (§4.K/§15).
type DistIndexSpec struct {
	Agents          []AgentSpec `yaml:"agents"`
	LocalIndexes    []string    `yaml:"local_indexes"`
	RetryCount      int         `yaml:"retry_count"`
	ConnectTimeoutMs int        `yaml:"connect_timeout_ms"`
	QueryTimeoutMs  int         `yaml:"query_timeout_ms"`
}

// ServerConfig is searchd's top-level configuration (§15).
type ServerConfig struct {
	Listen           []ListenSpec             `yaml:"listen"`
	IndexDir         string                   `yaml:"index_dir"`
	PidFile          string                   `yaml:"pid_file"`
	LogFile          string                   `yaml:"log_file"`
	QueryLogFile     string                   `yaml:"query_log_file"`
	MaxChildren      int                      `yaml:"max_children"`
	MaxQueryMs       int                      `yaml:"max_query_ms"`
	AttrFlushPeriod  time.Duration            `yaml:"attr_flush_period"`
	SeamlessRotate   bool                     `yaml:"seamless_rotate"`
	ReadTimeout      time.Duration            `yaml:"read_timeout"`
	LocalIndexes     []string                 `yaml:"local_indexes"`
	Distributed      map[string]DistIndexSpec `yaml:"distributed"`
}

// LoadServerConfig reads and unmarshals a searchd YAML config from path.
func LoadServerConfig(path string) (ServerConfig, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return ServerConfig{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	var cfg ServerConfig
	if err := yaml.Unmarshal(buf, &cfg); err != nil {
		return ServerConfig{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *ServerConfig) applyDefaults() {
	if c.MaxChildren == 0 {
		c.MaxChildren = 30
	}
	if c.AttrFlushPeriod == 0 {
		c.AttrFlushPeriod = 10 * time.Minute
	}
}

// Validate collects every configuration error rather than failing on the
// first, per §7's "Configuration errors are fatal at startup, collected
// and reported together."
func (c ServerConfig) Validate() []error {
	var errs []error
	if len(c.Listen) == 0 {
		errs = append(errs, fmt.Errorf("config: at least one listen= endpoint is required"))
	}
	for i, l := range c.Listen {
		if l.Net != "tcp" && l.Net != "unix" {
			errs = append(errs, fmt.Errorf("config: listen[%d]: net must be tcp or unix, got %q", i, l.Net))
		}
		if l.Addr == "" {
			errs = append(errs, fmt.Errorf("config: listen[%d]: addr is required", i))
		}
		if l.Protocol != "sphinx" && l.Protocol != "mysql41" {
			errs = append(errs, fmt.Errorf("config: listen[%d]: protocol must be sphinx or mysql41, got %q", i, l.Protocol))
		}
	}
	if c.IndexDir == "" {
		errs = append(errs, fmt.Errorf("config: index_dir is required"))
	}
	for name, d := range c.Distributed {
		if len(d.Agents) == 0 && len(d.LocalIndexes) == 0 {
			errs = append(errs, fmt.Errorf("config: distributed index %q needs at least one agent or local index", name))
		}
	}
	return errs
}
