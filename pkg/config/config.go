package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"BreadthLab/internal/domain/models"
)

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		Output string `yaml:"output"`
	} `yaml:"logging"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
	ClickHouse struct {
		Host             string        `yaml:"host"`
		Port             int           `yaml:"port"`
		Database         string        `yaml:"database"`
		User             string        `yaml:"user"`
		Password         string        `yaml:"password"`
		DialTimeout      time.Duration `yaml:"dial_timeout"`
		ReadTimeout      time.Duration `yaml:"read_timeout"`
		WriteTimeout     time.Duration `yaml:"write_timeout"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time"`
	} `yaml:"clickhouse"`
	Kafka struct {
		Enabled      bool     `yaml:"enabled"`
		Brokers      []string `yaml:"brokers"`
		Topic        string   `yaml:"topic"`
		RequiredAcks int      `yaml:"required_acks"`
		Compression  string   `yaml:"compression"`
		Producer     struct {
			MaxAttempts  int           `yaml:"max_attempts"`
			Linger       time.Duration `yaml:"linger"`
			BatchBytes   int           `yaml:"batch_bytes"`
			BatchSize    int           `yaml:"batch_size"`
			WriteTimeout time.Duration `yaml:"write_timeout"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
	} `yaml:"kafka"`
	Redis struct {
		Enabled  bool   `yaml:"enabled"`
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		Prefix   string `yaml:"prefix"`
	} `yaml:"redis"`
	Breadth struct {
		Index        string        `yaml:"index"`
		History      time.Duration `yaml:"history"`
		ShortWindows []int         `yaml:"short_windows"`
		MedWindows   []int         `yaml:"medium_windows"`
		LongWindows  []int         `yaml:"long_windows"`
		Epsilon      float64       `yaml:"epsilon"`
		SmoothWindow int           `yaml:"smooth_window"`
		SmoothCounts bool          `yaml:"smooth_counts"`
	} `yaml:"breadth"`
	Oscillator struct {
		Mode       string `yaml:"mode"`
		Lookback   int    `yaml:"lookback"`
		ZMode      string `yaml:"zmode"`
		ExcludeMax bool   `yaml:"exclude_max"`
	} `yaml:"oscillator"`
	Breakout struct {
		SmoothWindow int `yaml:"smooth_window"`
		RatioShort   int `yaml:"ratio_short"`
		RatioLong    int `yaml:"ratio_long"`
		Conditions   []struct {
			PeriodDays int     `yaml:"period_days"`
			Pct        float64 `yaml:"pct"`
		} `yaml:"conditions"`
	} `yaml:"breakout"`
	Scheduler struct {
		Enabled    bool   `yaml:"enabled"`
		Spec       string `yaml:"spec"` // cron expression
		RunOnStart bool   `yaml:"run_on_start"`
	} `yaml:"scheduler"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			c.Server.Port = p
		}
	}
	if v := os.Getenv("CLICKHOUSE_HOST"); v != "" {
		c.ClickHouse.Host = v
	}
	if v := os.Getenv("CLICKHOUSE_PASSWORD"); v != "" {
		c.ClickHouse.Password = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("KAFKA_TOPIC"); v != "" {
		c.Kafka.Topic = v
	}
	if v := os.Getenv("REDIS_HOST"); v != "" {
		c.Redis.Host = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Redis.Password = v
	}
	if v := os.Getenv("BREADTH_INDEX"); v != "" {
		c.Breadth.Index = v
	}
	return c, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Breadth.Index == "" {
		return fmt.Errorf("breadth.index is required")
	}
	if _, err := c.WindowSet(); err != nil {
		return fmt.Errorf("breadth windows: %w", err)
	}
	if c.Breadth.Epsilon < 0 {
		return fmt.Errorf("breadth.epsilon must be >= 0")
	}
	if c.Breadth.History <= 0 {
		return fmt.Errorf("breadth.history must be positive")
	}
	switch c.Oscillator.Mode {
	case "", "minmax", "zscore":
	default:
		return fmt.Errorf("oscillator.mode must be 'minmax' or 'zscore', got '%s'", c.Oscillator.Mode)
	}
	for _, cond := range c.Breakout.Conditions {
		if err := (models.BreakoutCondition{Period: cond.PeriodDays, Pct: cond.Pct}).Validate(); err != nil {
			return err
		}
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
	}
	if c.Kafka.Enabled && c.Kafka.Topic == "" {
		return fmt.Errorf("kafka.topic is required when kafka is enabled")
	}
	if c.Scheduler.Enabled && c.Scheduler.Spec == "" {
		return fmt.Errorf("scheduler.spec is required when the scheduler is enabled")
	}
	return nil
}

// BreakoutConditions builds the configured crossing rules. Empty config means
// the aggregator defaults apply.
func (c *Config) BreakoutConditions() []models.BreakoutCondition {
	out := make([]models.BreakoutCondition, 0, len(c.Breakout.Conditions))
	for _, cond := range c.Breakout.Conditions {
		out = append(out, models.BreakoutCondition{Period: cond.PeriodDays, Pct: cond.Pct})
	}
	return out
}

// WindowSet builds the validated window configuration. Empty config falls back
// to the default study windows.
func (c *Config) WindowSet() (models.WindowSet, error) {
	if len(c.Breadth.ShortWindows) == 0 && len(c.Breadth.MedWindows) == 0 && len(c.Breadth.LongWindows) == 0 {
		return models.DefaultWindowSet(), nil
	}
	return models.NewWindowSet(c.Breadth.ShortWindows, c.Breadth.MedWindows, c.Breadth.LongWindows)
}
