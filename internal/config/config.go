// Package config loads the audit service's YAML configuration, layering
// environment variable overrides of the form AUDIT_<SECTION>_<KEY> on top
// of file-sourced values, grounded on the teacher's internal/cli.Config
// nested-struct-with-yaml-tags convention.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Engine holds the tunables of pkg/audit.Config, expressed in the
// millisecond/seconds units the external configuration surface uses
// (SPEC_FULL.md §6); the FlushInterval, RetentionPeriod, KeepAlive and
// AwaitTermination methods convert them to time.Duration.
type Engine struct {
	BufferSize             int    `yaml:"buffer-size"`
	FlushIntervalMillis    int64  `yaml:"flush-interval-millis"`
	WALFilePath            string `yaml:"wal-file-path"`
	WALFsyncOnAppend       bool   `yaml:"wal-fsync-on-append"`
	RetentionPeriodMillis  int64  `yaml:"retention-period-millis"`
	ClearCron              string `yaml:"clear-cron"`
	ExecutorCorePoolSize   int    `yaml:"executor.core-pool-size"`
	ExecutorMaxPoolSize    int    `yaml:"executor.max-pool-size"`
	ExecutorQueueCapacity  int    `yaml:"executor.queue-capacity"`
	ExecutorKeepAliveSecs  int    `yaml:"executor.keep-alive-seconds"`
	ExecutorAwaitTermSecs  int    `yaml:"executor.await-termination-seconds"`
}

// Database holds the reference AuditStore's connection settings.
type Database struct {
	DSN string `yaml:"dsn"`
}

// Logging holds structured-logging settings for internal/logging.
type Logging struct {
	Level  string `yaml:"level"`  // debug|info|warn|error
	Format string `yaml:"format"` // json|text
}

// Metrics holds the Prometheus HTTP endpoint settings.
type Metrics struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// Config is the root configuration document.
type Config struct {
	Engine   Engine   `yaml:"engine"`
	Database Database `yaml:"database"`
	Logging  Logging  `yaml:"logging"`
	Metrics  Metrics  `yaml:"metrics"`
}

// Default returns the documented defaults from SPEC_FULL.md §6.
func Default() Config {
	return Config{
		Engine: Engine{
			BufferSize:            1000,
			FlushIntervalMillis:   60000,
			WALFilePath:           "./audit-wal.log",
			WALFsyncOnAppend:      false,
			RetentionPeriodMillis: 2592000000,
			ClearCron:             "0 0 3 * * *",
			ExecutorCorePoolSize:  8,
			ExecutorMaxPoolSize:   12,
			ExecutorQueueCapacity: 500,
			ExecutorKeepAliveSecs: 60,
			ExecutorAwaitTermSecs: 30,
		},
		Logging: Logging{Level: "info", Format: "text"},
		Metrics: Metrics{Enabled: true, Port: 9090},
	}
}

// Load reads a YAML document at path into a Config seeded with Default(),
// then applies any AUDIT_* environment variable overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config file %s: %w", path, err)
	}

	applyEnvOverrides(&cfg)
	return cfg, nil
}

// applyEnvOverrides layers AUDIT_ENGINE_BUFFER_SIZE-style environment
// variables on top of file-sourced values. Only the keys an operator is
// likely to need to override without redeploying config are covered.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("AUDIT_ENGINE_BUFFER_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Engine.BufferSize = n
		}
	}
	if v := os.Getenv("AUDIT_ENGINE_WAL_FILE_PATH"); v != "" {
		cfg.Engine.WALFilePath = v
	}
	if v := os.Getenv("AUDIT_ENGINE_CLEAR_CRON"); v != "" {
		cfg.Engine.ClearCron = v
	}
	if v := os.Getenv("AUDIT_DATABASE_DSN"); v != "" {
		cfg.Database.DSN = v
	}
	if v := os.Getenv("AUDIT_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// FlushInterval returns the engine's scheduled flush cadence as a
// time.Duration.
func (e Engine) FlushInterval() time.Duration {
	return time.Duration(e.FlushIntervalMillis) * time.Millisecond
}

// RetentionPeriod returns the retention window as a time.Duration.
func (e Engine) RetentionPeriod() time.Duration {
	return time.Duration(e.RetentionPeriodMillis) * time.Millisecond
}

// KeepAlive returns the executor's idle burst-worker timeout.
func (e Engine) KeepAlive() time.Duration {
	return time.Duration(e.ExecutorKeepAliveSecs) * time.Second
}

// AwaitTermination returns the shutdown grace period.
func (e Engine) AwaitTermination() time.Duration {
	return time.Duration(e.ExecutorAwaitTermSecs) * time.Second
}
