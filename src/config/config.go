package config

import (
	"fmt"
	"os"

	"wealthpilot-market/src/models"

	"gopkg.in/yaml.v3"
)

// -----------------------------------------------------------------------------

// Known provider names accepted in providers.order.
var knownProviders = map[string]bool{
	"alphavantage": true,
	"yahoo":        true,
	"simulated":    true,
}

// Config wraps models.MConfig and provides validation and persistence.
type Config struct {
	*models.MConfig
}

// -----------------------------------------------------------------------------

// NewConfig creates a new MConfig instance from a YAML file. Values of the
// form ${VAR} are expanded from the environment before parsing, so API keys
// and secrets stay out of the file.
func NewConfig(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", configPath, err)
	}

	expanded := os.ExpandEnv(string(data))

	var modelConfig models.MConfig
	if err := yaml.Unmarshal([]byte(expanded), &modelConfig); err != nil {
		return nil, fmt.Errorf("failed to parse config from YAML: %w", err)
	}

	config := &Config{MConfig: &modelConfig}
	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// -----------------------------------------------------------------------------

func (c *Config) applyDefaults() {
	if c.Cache.Backend == "" {
		c.Cache.Backend = "memory"
	}
	if c.Cache.QuoteTTLSeconds <= 0 {
		c.Cache.QuoteTTLSeconds = 10
	}
	if c.Cache.HistoricalTTLSeconds <= 0 {
		c.Cache.HistoricalTTLSeconds = 300
	}
	if c.Cache.ProfileTTLSeconds <= 0 {
		c.Cache.ProfileTTLSeconds = 1800
	}
	if c.Providers.RequestTimeoutSeconds <= 0 {
		c.Providers.RequestTimeoutSeconds = 10
	}
	if c.Providers.AlphaVantage.CallsPerMinute <= 0 {
		c.Providers.AlphaVantage.CallsPerMinute = 5
	}
	if c.Stream.PollIntervalSeconds <= 0 {
		c.Stream.PollIntervalSeconds = 15
	}
	if c.Stream.BatchSize <= 0 {
		c.Stream.BatchSize = 5
	}
	if c.Stream.BatchDelayMs <= 0 {
		c.Stream.BatchDelayMs = 1000
	}
	if c.Stream.HeartbeatIntervalSeconds <= 0 {
		c.Stream.HeartbeatIntervalSeconds = 30
	}
	if c.Alerts.IntervalSeconds <= 0 {
		c.Alerts.IntervalSeconds = 60
	}
	if c.Alerts.CooldownMinutes <= 0 {
		c.Alerts.CooldownMinutes = 60
	}
}

// -----------------------------------------------------------------------------

// Validate performs basic configuration validation.
func (c *Config) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("application name cannot be empty")
	}

	if c.Host == "" {
		return fmt.Errorf("server host cannot be empty")
	}
	if c.Port <= 1024 || c.Port > 65535 {
		return fmt.Errorf("invalid server port number: %d (must be between 1025 and 65535)", c.Port)
	}

	if c.Storage.DBType == "" {
		return fmt.Errorf("database type cannot be empty")
	}
	if c.Storage.DBType == "sqlite" && c.Storage.DBPath == "" {
		return fmt.Errorf("database path cannot be empty for sqlite")
	}
	if c.Storage.DBType == "postgres" && c.Storage.DBConnectionString == "" {
		return fmt.Errorf("connection string cannot be empty for postgres")
	}

	switch c.Cache.Backend {
	case "memory":
	case "redis":
		if c.Cache.RedisAddr == "" {
			return fmt.Errorf("redis address cannot be empty for redis cache backend")
		}
	default:
		return fmt.Errorf("unknown cache backend: %s", c.Cache.Backend)
	}

	if len(c.Providers.Order) == 0 {
		return fmt.Errorf("at least one provider must be configured")
	}
	for i, name := range c.Providers.Order {
		if !knownProviders[name] {
			return fmt.Errorf("provider %d: unknown provider '%s'", i, name)
		}
	}

	if c.Alerts.Kafka.Enabled {
		if len(c.Alerts.Kafka.Brokers) == 0 {
			return fmt.Errorf("kafka brokers cannot be empty when kafka is enabled")
		}
		if c.Alerts.Kafka.Topic == "" {
			return fmt.Errorf("kafka topic cannot be empty when kafka is enabled")
		}
	}

	if c.Auth.Secret == "" {
		return fmt.Errorf("auth secret cannot be empty")
	}

	return nil
}

// -----------------------------------------------------------------------------

// Save persists the current configuration to the specified YAML file path.
func (c *Config) Save(configPath string) error {
	data, err := yaml.Marshal(c.MConfig)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config to file '%s': %w", configPath, err)
	}

	return nil
}
