package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Database DatabaseConfig
	HTTP     HTTPConfig
	GRPC     GRPCConfig
	Auth     AuthConfig
	Logger   LoggerSettings
	Gateway  GatewayConfig
	Telegram TelegramConfig
	Outbox   OutboxConfig
	Jobs     JobsConfig
	Fees     FeesConfig
}

// DatabaseConfig contains database-related settings.
type DatabaseConfig struct {
	Path string // SQLite database file path
}

// HTTPConfig contains REST API settings.
type HTTPConfig struct {
	Address        string   `validate:"required"`
	AllowedOrigins []string // CORS origins; empty allows none
}

// GRPCConfig contains gRPC server settings.
type GRPCConfig struct {
	Address string // gRPC server listen address (e.g., ":50051"); empty disables it
}

// AuthConfig contains authentication settings.
type AuthConfig struct {
	JWTSecret string // JWT signing secret
}

// GatewayConfig holds payment gateway credentials.
type GatewayConfig struct {
	BaseURL   string `validate:"required,url"`
	ShopID    string
	SecretKey string
	Timeout   time.Duration `validate:"gt=0"`
}

// TelegramConfig holds Bot API settings.
type TelegramConfig struct {
	BotToken   string
	APIBaseURL string `validate:"required,url"`
}

// OutboxConfig selects where CRM sync events go.
type OutboxConfig struct {
	AMQPURL       string
	Queue         string        `validate:"required"`
	CRMWebhookURL string        `validate:"omitempty,url"`
	Interval      time.Duration `validate:"gt=0"`
}

// JobsConfig controls the in-process schedulers. Zero intervals disable a job.
type JobsConfig struct {
	SyncInterval  time.Duration
	SweepInterval time.Duration
	FetchLookback time.Duration `validate:"gt=0"`
	ReceiptDelay  time.Duration
}

// FeesConfig points at an optional YAML fee table imported at startup.
type FeesConfig struct {
	RulesFile string
}

// Load loads configuration from environment variables (and an optional YAML
// file named by CONFIG_FILE) with sensible defaults.
func Load() (*Config, error) {
	cfg, err := load("")
	if err != nil {
		return nil, err
	}

	// Validate critical settings
	if cfg.Auth.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable is not set; required for production")
	}

	return cfg, nil
}

// LoadWithDefaults is like Load but uses a safe default for JWT_SECRET in development.
// WARNING: Only use in development! Use Load() in production.
func LoadWithDefaults() (*Config, error) {
	return load("dev-secret-change-me")
}

func load(defaultSecret string) (*Config, error) {
	v := viper.New()
	setDefaults(v, defaultSecret)
	if err := bindEnv(v); err != nil {
		return nil, err
	}
	if path, ok := os.LookupEnv("CONFIG_FILE"); ok && path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	cfg := &Config{
		Database: DatabaseConfig{
			Path: v.GetString("database.path"),
		},
		HTTP: HTTPConfig{
			Address:        v.GetString("http.address"),
			AllowedOrigins: splitList(v.GetString("http.allowed_origins")),
		},
		GRPC: GRPCConfig{
			Address: v.GetString("grpc.address"),
		},
		Auth: AuthConfig{
			JWTSecret: v.GetString("auth.jwt_secret"),
		},
		Logger: LoggerSettings{
			LogLevel:   v.GetString("logger.log_level"),
			LogType:    v.GetString("logger.log_type"),
			FilePath:   v.GetString("logger.file_path"),
			MaxSize:    v.GetInt("logger.max_size"),
			MaxBackups: v.GetInt("logger.max_backups"),
			MaxAge:     v.GetInt("logger.max_age"),
		},
		Gateway: GatewayConfig{
			BaseURL:   v.GetString("gateway.base_url"),
			ShopID:    v.GetString("gateway.shop_id"),
			SecretKey: v.GetString("gateway.secret_key"),
			Timeout:   v.GetDuration("gateway.timeout"),
		},
		Telegram: TelegramConfig{
			BotToken:   v.GetString("telegram.bot_token"),
			APIBaseURL: v.GetString("telegram.api_base_url"),
		},
		Outbox: OutboxConfig{
			AMQPURL:       v.GetString("outbox.amqp_url"),
			Queue:         v.GetString("outbox.queue"),
			CRMWebhookURL: v.GetString("outbox.crm_webhook_url"),
			Interval:      v.GetDuration("outbox.interval"),
		},
		Jobs: JobsConfig{
			SyncInterval:  v.GetDuration("jobs.sync_interval"),
			SweepInterval: v.GetDuration("jobs.sweep_interval"),
			FetchLookback: v.GetDuration("jobs.fetch_lookback"),
			ReceiptDelay:  v.GetDuration("jobs.receipt_delay"),
		},
		Fees: FeesConfig{
			RulesFile: v.GetString("fees.rules_file"),
		},
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, defaultSecret string) {
	v.SetDefault("database.path", "admin.db")
	v.SetDefault("http.address", ":8080")
	v.SetDefault("http.allowed_origins", "")
	v.SetDefault("grpc.address", ":50051")
	v.SetDefault("auth.jwt_secret", defaultSecret)
	v.SetDefault("logger.log_level", LogLevelInfo)
	v.SetDefault("logger.log_type", LogTypeConsole)
	v.SetDefault("logger.file_path", "")
	v.SetDefault("logger.max_size", 10)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 28)
	v.SetDefault("gateway.base_url", "https://gateway.bepaid.by")
	v.SetDefault("gateway.timeout", 15*time.Second)
	v.SetDefault("telegram.api_base_url", "https://api.telegram.org")
	v.SetDefault("outbox.queue", "crm-sync")
	v.SetDefault("outbox.interval", time.Second)
	v.SetDefault("jobs.sync_interval", 15*time.Minute)
	v.SetDefault("jobs.sweep_interval", time.Hour)
	v.SetDefault("jobs.fetch_lookback", 24*time.Hour)
	v.SetDefault("jobs.receipt_delay", 300*time.Millisecond)
}

// envKeys maps config keys to the environment variables that override them.
var envKeys = map[string]string{
	"database.path":          "DB_PATH",
	"http.address":           "HTTP_ADDRESS",
	"http.allowed_origins":   "HTTP_ALLOWED_ORIGINS",
	"grpc.address":           "GRPC_ADDRESS",
	"auth.jwt_secret":        "JWT_SECRET",
	"logger.log_level":       "LOG_LEVEL",
	"logger.log_type":        "LOG_TYPE",
	"logger.file_path":       "LOG_FILE_PATH",
	"logger.max_size":        "LOG_MAX_SIZE",
	"logger.max_backups":     "LOG_MAX_BACKUPS",
	"logger.max_age":         "LOG_MAX_AGE",
	"gateway.base_url":       "GATEWAY_BASE_URL",
	"gateway.shop_id":        "GATEWAY_SHOP_ID",
	"gateway.secret_key":     "GATEWAY_SECRET_KEY",
	"gateway.timeout":        "GATEWAY_TIMEOUT",
	"telegram.bot_token":     "TELEGRAM_BOT_TOKEN",
	"telegram.api_base_url":  "TELEGRAM_API_BASE_URL",
	"outbox.amqp_url":        "AMQP_URL",
	"outbox.queue":           "OUTBOX_QUEUE",
	"outbox.crm_webhook_url": "CRM_WEBHOOK_URL",
	"outbox.interval":        "OUTBOX_INTERVAL",
	"jobs.sync_interval":     "SYNC_INTERVAL",
	"jobs.sweep_interval":    "SWEEP_INTERVAL",
	"jobs.fetch_lookback":    "FETCH_LOOKBACK",
	"jobs.receipt_delay":     "RECEIPT_DELAY",
	"fees.rules_file":        "FEE_RULES_FILE",
}

func bindEnv(v *viper.Viper) error {
	for key, env := range envKeys {
		if err := v.BindEnv(key, env); err != nil {
			return fmt.Errorf("bind %s: %w", env, err)
		}
	}
	return nil
}

// Validate checks every section with struct tags plus the logger rules.
func (c *Config) Validate() error {
	validate := validator.New()
	for _, section := range []any{&c.HTTP, &c.Gateway, &c.Telegram, &c.Outbox, &c.Jobs} {
		if err := validate.Struct(section); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}
	}
	return c.Logger.Validate()
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// String returns a string representation of the config (sensitive values are masked).
func (c *Config) String() string {
	return fmt.Sprintf("Config{DB: %s, HTTP: %s, gRPC: %s, Gateway: %s, Auth: *** (masked) ***, Log: %s/%s}",
		c.Database.Path, c.HTTP.Address, c.GRPC.Address, c.Gateway.BaseURL, c.Logger.LogType, c.Logger.LogLevel)
}
