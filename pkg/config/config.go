// Package config loads the process-wide settings: connection pool
// sizing, scheduler worker count, and command timeouts. Settings come
// from a YAML file with environment variable overrides for container
// deployment; every field has a documented default.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Pool holds connection-pool configuration.
type Pool struct {
	MaxSize             int    `yaml:"max_size"`
	MaxPerHost          int    `yaml:"max_per_host"`
	IdleTimeoutSeconds  int    `yaml:"idle_timeout_seconds"`
	CleanupIntervalSecs int    `yaml:"cleanup_interval_seconds"`
	RedisAddr           string `yaml:"redis_addr,omitempty"`
}

// Scheduler holds scheduler configuration.
type Scheduler struct {
	NumWorkers             int     `yaml:"num_workers"`
	QueuePollIntervalSecs  float64 `yaml:"queue_poll_interval_seconds"`
}

// Command holds command-execution configuration.
type Command struct {
	DefaultTimeoutSeconds int `yaml:"default_timeout_seconds"`
}

// Config is the top-level, fully-defaulted configuration object.
type Config struct {
	Pool      Pool      `yaml:"pool"`
	Scheduler Scheduler `yaml:"scheduler"`
	Command   Command   `yaml:"command"`
}

// Default returns a Config populated with every documented default.
func Default() *Config {
	return &Config{
		Pool: Pool{
			MaxSize:             50,
			MaxPerHost:          5,
			IdleTimeoutSeconds:  300,
			CleanupIntervalSecs: 60,
		},
		Scheduler: Scheduler{
			NumWorkers:            5,
			QueuePollIntervalSecs: 1.0,
		},
		Command: Command{
			DefaultTimeoutSeconds: 30,
		},
	}
}

// Load reads a YAML config file, applying defaults for any field the file
// omits, then layers environment variable overrides on top.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("reading config %s: %w", path, err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}
	applyEnvOverrides(cfg)
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	envInt("NETRAVEN_POOL_MAX_SIZE", &cfg.Pool.MaxSize)
	envInt("NETRAVEN_POOL_MAX_PER_HOST", &cfg.Pool.MaxPerHost)
	envInt("NETRAVEN_POOL_IDLE_TIMEOUT_SECONDS", &cfg.Pool.IdleTimeoutSeconds)
	envInt("NETRAVEN_POOL_CLEANUP_INTERVAL_SECONDS", &cfg.Pool.CleanupIntervalSecs)
	if v := os.Getenv("NETRAVEN_POOL_REDIS_ADDR"); v != "" {
		cfg.Pool.RedisAddr = v
	}
	envInt("NETRAVEN_SCHEDULER_NUM_WORKERS", &cfg.Scheduler.NumWorkers)
	envInt("NETRAVEN_COMMAND_DEFAULT_TIMEOUT_SECONDS", &cfg.Command.DefaultTimeoutSeconds)
}

func envInt(name string, dest *int) {
	v := os.Getenv(name)
	if v == "" {
		return
	}
	if n, err := strconv.Atoi(v); err == nil {
		*dest = n
	}
}
