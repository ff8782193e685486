package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Matching MatchingConfig `mapstructure:"matching"`
	OpenAI   OpenAIConfig   `mapstructure:"openai"`
	Logger   LoggerConfig   `mapstructure:"logger"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// MatchingConfig holds the reconciliation tuning parameters. The defaults
// are empirically tuned and deliberately injected rather than compiled in.
type MatchingConfig struct {
	AutoThreshold      float64 `mapstructure:"auto_threshold"`
	ReviewThreshold    float64 `mapstructure:"review_threshold"`
	DateWindowDays     int     `mapstructure:"date_window_days"`
	AmountTolerancePct float64 `mapstructure:"amount_tolerance_pct"`
	CandidateCap       int     `mapstructure:"candidate_cap"`
	TextWeight         float64 `mapstructure:"text_weight"`
	AmountWeight       float64 `mapstructure:"amount_weight"`
	DateWeight         float64 `mapstructure:"date_weight"`
	AssistCandidates   int     `mapstructure:"assist_candidates"`
}

// OpenAIConfig holds the semantic matcher collaborator configuration
type OpenAIConfig struct {
	APIKey      string        `mapstructure:"api_key"`
	Model       string        `mapstructure:"model"`
	Temperature float32       `mapstructure:"temperature"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`
}

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	bindEnvVars()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults() {
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", 30*time.Second)
	viper.SetDefault("server.write_timeout", 30*time.Second)

	viper.SetDefault("database.path", "data/reconciliation.db")
	viper.SetDefault("database.max_open_conns", 25)
	viper.SetDefault("database.max_idle_conns", 5)
	viper.SetDefault("database.conn_max_lifetime", 5*time.Minute)

	viper.SetDefault("matching.auto_threshold", 0.90)
	viper.SetDefault("matching.review_threshold", 0.60)
	viper.SetDefault("matching.date_window_days", 45)
	viper.SetDefault("matching.amount_tolerance_pct", 0.05)
	viper.SetDefault("matching.candidate_cap", 50)
	viper.SetDefault("matching.text_weight", 0.5)
	viper.SetDefault("matching.amount_weight", 0.3)
	viper.SetDefault("matching.date_weight", 0.2)
	viper.SetDefault("matching.assist_candidates", 5)

	viper.SetDefault("openai.model", "gpt-4o")
	viper.SetDefault("openai.temperature", 0.2)
	viper.SetDefault("openai.max_tokens", 1000)
	viper.SetDefault("openai.timeout", 60*time.Second)

	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.output_path", "stdout")
	viper.SetDefault("logger.format", "json")
}

// bindEnvVars binds environment variables to configuration
func bindEnvVars() {
	viper.BindEnv("openai.api_key", "OPENAI_API_KEY")
	viper.BindEnv("database.path", "RECON_DB_PATH")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	m := c.Matching
	if m.AutoThreshold <= 0 || m.AutoThreshold > 1 {
		return fmt.Errorf("matching.auto_threshold must be in (0, 1], got %.2f", m.AutoThreshold)
	}
	if m.ReviewThreshold < 0 || m.ReviewThreshold > 1 {
		return fmt.Errorf("matching.review_threshold must be in [0, 1], got %.2f", m.ReviewThreshold)
	}
	if m.AutoThreshold <= m.ReviewThreshold {
		return fmt.Errorf("matching.auto_threshold must be greater than review_threshold (auto: %.2f, review: %.2f)",
			m.AutoThreshold, m.ReviewThreshold)
	}
	if m.DateWindowDays <= 0 {
		return fmt.Errorf("matching.date_window_days must be positive, got %d", m.DateWindowDays)
	}
	if m.CandidateCap <= 0 {
		return fmt.Errorf("matching.candidate_cap must be positive, got %d", m.CandidateCap)
	}
	if sum := m.TextWeight + m.AmountWeight + m.DateWeight; sum <= 0 {
		return fmt.Errorf("matching weights must sum to a positive value, got %.2f", sum)
	}
	return nil
}
