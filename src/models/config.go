package models

// MConfig Structure
type MConfig struct {
	Name      string          `yaml:"name"`
	Host      string          `yaml:"host"`
	Port      int             `yaml:"port"`
	LogLevel  string          `yaml:"log_level"`
	Storage   MStorageConfig  `yaml:"storage"`
	Cache     MCacheConfig    `yaml:"cache"`
	Providers MProviderConfig `yaml:"providers"`
	Stream    MStreamConfig   `yaml:"stream"`
	Alerts    MAlertsConfig   `yaml:"alerts"`
	Auth      MAuthConfig     `yaml:"auth"`
}

type MStorageConfig struct {
	DBType             string `yaml:"db_type"`
	DBPath             string `yaml:"db_path"`
	DBConnectionString string `yaml:"db_connection_string"`
}

type MCacheConfig struct {
	Backend              string `yaml:"backend"` // "memory" or "redis"
	RedisAddr            string `yaml:"redis_addr"`
	QuoteTTLSeconds      int    `yaml:"quote_ttl_seconds"`
	HistoricalTTLSeconds int    `yaml:"historical_ttl_seconds"`
	ProfileTTLSeconds    int    `yaml:"profile_ttl_seconds"`
}

type MProviderConfig struct {
	// Order lists provider names by priority; unknown names are rejected
	// at config validation.
	Order                 []string            `yaml:"order"`
	RequestTimeoutSeconds int                 `yaml:"request_timeout_seconds"`
	MaxRetries            int                 `yaml:"retries"`
	UserAgent             string              `yaml:"user_agent"`
	AlphaVantage          MAlphaVantageConfig `yaml:"alpha_vantage"`
}

type MAlphaVantageConfig struct {
	APIKey         string `yaml:"api_key"` // ${ALPHA_VANTAGE_API_KEY} expanded
	CallsPerMinute int    `yaml:"calls_per_minute"`
}

type MStreamConfig struct {
	PollIntervalSeconds      int  `yaml:"poll_interval_seconds"`
	BatchSize                int  `yaml:"batch_size"`
	BatchDelayMs             int  `yaml:"batch_delay_ms"`
	HeartbeatIntervalSeconds int  `yaml:"heartbeat_interval_seconds"`
	RespectMarketHours       bool `yaml:"respect_market_hours"`
}

type MAlertsConfig struct {
	IntervalSeconds int          `yaml:"interval_seconds"`
	CooldownMinutes int          `yaml:"cooldown_minutes"`
	Kafka           MKafkaConfig `yaml:"kafka"`
}

type MKafkaConfig struct {
	Enabled bool     `yaml:"enabled"`
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

type MAuthConfig struct {
	Secret string `yaml:"secret"` // ${WEALTHPILOT_AUTH_SECRET} expanded
}
