// Package config loads and validates the forwarding service's
// configuration (spec.md §6 "Configuration options"). Values are read
// from an optional YAML manifest merged over the defaults, following the
// teacher's yaml-manifest pattern (cmd/warren/apply.go). No CLI flag or
// environment variable overrides an individual setting.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the forwarding service's full configuration (spec.md §6).
type Config struct {
	Timeline  Timeline `yaml:"timeline"`
	ACLs      ACLs     `yaml:"acls"`
	Extension Ext      `yaml:"extension"`
	Tracker   Tracker  `yaml:"tracker"`
}

// Tracker bounds the built-in session/execution tracker's retention
// (spec.md §4.6 "Trimming").
type Tracker struct {
	SessionLimit   int `yaml:"session_limit"`
	ExecutionLimit int `yaml:"execution_limit"`
}

// Timeline holds the posting-pipeline knobs.
type Timeline struct {
	BatchSize            int           `yaml:"batch_size"`
	PostLimit            int           `yaml:"post_limit"`
	PostRetryInterval    time.Duration `yaml:"post_retry_interval"`
	PostRetryMaxInterval time.Duration `yaml:"post_retry_max_interval"`
	ShutdownWaitTime     time.Duration `yaml:"shutdown_waittime"`
	Domain               string        `yaml:"domain"`
	Listen               bool          `yaml:"listen"`
	ServerAddr           string        `yaml:"server_addr"`
	V15Enabled           bool          `yaml:"v15_enabled"`
	GroupInstanceID      string        `yaml:"group_instance_id"`
	SparkVersion         string        `yaml:"spark_version"`
}

// ACLs holds domain-ACL configuration (spec.md §4.7, §6).
type ACLs struct {
	Enabled bool     `yaml:"enabled"`
	Admin   []string `yaml:"admin"`
	View    []string `yaml:"view"`
	Modify  []string `yaml:"modify"`
}

// Ext holds the extension-service plug-in list (spec.md §6
// "extension.services").
type Ext struct {
	Services []string `yaml:"services"`
}

// Default returns the configuration defaults from spec.md §6's table.
func Default() Config {
	return Config{
		Timeline: Timeline{
			BatchSize:            100,
			PostLimit:            10000,
			PostRetryInterval:    1000 * time.Millisecond,
			PostRetryMaxInterval: 60 * time.Second,
			ShutdownWaitTime:     30 * time.Second,
			Listen:               true,
		},
		Tracker: Tracker{
			SessionLimit:   1000,
			ExecutionLimit: 1000,
		},
	}
}

// Load reads a YAML manifest at path, merges it over Default, and
// validates the result. An empty path returns the defaults unmodified.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, cfg.Validate()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// PostQueueCap is postQueueLimit = batchSize + configuredExtra (spec.md
// §4.5 step 2), where PostLimit is the configured extra.
func (c Config) PostQueueCap() int {
	return c.Timeline.BatchSize + c.Timeline.PostLimit
}

// Validate rejects a non-positive batch size, retry max interval or
// shutdown wait time, and a negative post limit or retry interval. A zero
// post limit and a zero retry interval are accepted.
func (c Config) Validate() error {
	if c.Timeline.BatchSize <= 0 {
		return fmt.Errorf("config: timeline.batch.size must be positive, got %d", c.Timeline.BatchSize)
	}
	if c.Timeline.PostLimit < 0 {
		return fmt.Errorf("config: timeline.post.limit must not be negative, got %d", c.Timeline.PostLimit)
	}
	if c.Timeline.PostRetryInterval < 0 {
		return fmt.Errorf("config: timeline.post.retry.interval must not be negative, got %s", c.Timeline.PostRetryInterval)
	}
	if c.Timeline.PostRetryMaxInterval <= 0 {
		return fmt.Errorf("config: timeline.post.retry.max.interval must be positive, got %s", c.Timeline.PostRetryMaxInterval)
	}
	if c.Timeline.ShutdownWaitTime <= 0 {
		return fmt.Errorf("config: timeline.shutdown.waittime must be positive, got %s", c.Timeline.ShutdownWaitTime)
	}
	return nil
}
