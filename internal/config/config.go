package config

import (
	"errors"
	"fmt"
	"os"

	"fleetbook/internal/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App        AppConfig        `yaml:"app"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	API        APIConfig        `yaml:"api"`
	Mail       MailConfig       `yaml:"mail"`
	Telegram   TelegramConfig   `yaml:"telegram"`
	Worker     WorkerConfig     `yaml:"worker"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Logging    LoggingConfig    `yaml:"logging"`
	Exports    ExportConfig     `yaml:"exports"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

type APIConfig struct {
	HTTP      APIHTTPConfig      `yaml:"http"`
	Auth      APIAuthConfig      `yaml:"auth"`
	RateLimit APIRateLimitConfig `yaml:"rate_limit"`
}

type APIHTTPConfig struct {
	Port int `yaml:"port"`
}

type APIAuthConfig struct {
	Enabled      bool           `yaml:"enabled"`
	HeaderAPIKey string         `yaml:"header_api_key"`
	HeaderExtra  string         `yaml:"header_extra"`
	APIKeys      []APIClientKey `yaml:"api_keys"`
}

type APIClientKey struct {
	Key         string   `yaml:"key"`
	Extra       string   `yaml:"extra"`
	Name        string   `yaml:"name"`
	Permissions []string `yaml:"permissions"`
}

type APIRateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

// MailConfig holds the outbound mail transport settings. An empty api_key
// disables sending entirely; nothing else fails because of it.
type MailConfig struct {
	APIKey    string `yaml:"api_key"`
	FromEmail string `yaml:"from_email"`
	FromName  string `yaml:"from_name"`
	BaseURL   string `yaml:"base_url"`
}

type TelegramConfig struct {
	BotToken     string  `yaml:"bot_token"`
	AdminChatIDs []int64 `yaml:"admin_chat_ids"`
	Debug        bool    `yaml:"debug"`
}

type WorkerConfig struct {
	MaxRetries      int `yaml:"max_retries"`
	InitialDelaySec int `yaml:"initial_delay_seconds"`
	MaxDelaySec     int `yaml:"max_delay_seconds"`
	PollIntervalSec int `yaml:"poll_interval_seconds"`
	BatchSize       int `yaml:"batch_size"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
	PrometheusPort    int  `yaml:"prometheus_port"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

type ExportConfig struct {
	Path string `yaml:"path"`
}

func Load(configPath string) (*Config, error) {
	// .env is optional; real deployments inject environment directly.
	_ = godotenv.Load(".env")

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	// Expand ${VAR} references before parsing so secrets stay out of yaml.
	expandedData := []byte(os.ExpandEnv(string(data)))

	var config Config
	if err := yaml.Unmarshal(expandedData, &config); err != nil {
		return nil, err
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return errors.New("database path is required")
	}

	if c.Mail.APIKey != "" && c.Mail.FromEmail == "" {
		return errors.New("mail.from_email is required when mail.api_key is set")
	}

	return nil
}

// ValidateFleet checks the static fallback fleet for duplicate or empty ids.
func ValidateFleet(vehicles []models.Vehicle) error {
	seen := make(map[string]bool)
	for _, v := range vehicles {
		if v.ID == "" {
			return fmt.Errorf("vehicle '%s' has an empty id", v.Name)
		}
		if seen[v.ID] {
			return fmt.Errorf("duplicate vehicle id found: %s", v.ID)
		}
		seen[v.ID] = true
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.API.HTTP.Port == 0 {
		c.API.HTTP.Port = 8080
	}
	if c.API.Auth.HeaderAPIKey == "" {
		c.API.Auth.HeaderAPIKey = "x-api-key"
	}
	if c.API.Auth.HeaderExtra == "" {
		c.API.Auth.HeaderExtra = "x-api-extra"
	}
	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}

	if c.Worker.MaxRetries == 0 {
		c.Worker.MaxRetries = models.DefaultMaxMailRetries
	}
	if c.Worker.InitialDelaySec == 0 {
		c.Worker.InitialDelaySec = 2
	}
	if c.Worker.MaxDelaySec == 0 {
		c.Worker.MaxDelaySec = 60
	}
	if c.Worker.PollIntervalSec == 0 {
		c.Worker.PollIntervalSec = 2
	}
	if c.Worker.BatchSize == 0 {
		c.Worker.BatchSize = 20
	}

	if c.Exports.Path == "" {
		c.Exports.Path = "exports"
	}
}
