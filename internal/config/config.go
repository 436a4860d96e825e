// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type ServerConfig struct {
	Port           int           `yaml:"port"`
	BasePath       string        `yaml:"base_path"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	CORSOrigins    []string      `yaml:"cors_origins"`
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
	File     string `yaml:"file"`     // optional rotated log file
}

type DatabaseConfig struct {
	URL      string `yaml:"url"`
	MaxConns int32  `yaml:"max_conns"`
}

type RedisConfig struct {
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

type AuthConfig struct {
	JWTSecret  string        `yaml:"jwt_secret"`
	TokenTTL   time.Duration `yaml:"token_ttl"`
	BcryptCost int           `yaml:"bcrypt_cost"`
}

type AIConfig struct {
	Provider        string        `yaml:"provider"` // gemini|openai|noop
	GeminiKey       string        `yaml:"gemini_key"`
	GeminiURL       string        `yaml:"gemini_url"`
	OpenAIKey       string        `yaml:"openai_key"`
	OpenAIBaseURL   string        `yaml:"openai_base_url"`
	DefaultModel    string        `yaml:"default_model"`
	Timeout         time.Duration `yaml:"timeout"`
	MaxRetries      int           `yaml:"max_retries"`
	RetryBackoff    time.Duration `yaml:"retry_backoff"`
	ConcurrentLimit int           `yaml:"concurrent_limit"` // max concurrent AI calls
	MaxOutputTokens int           `yaml:"max_output_tokens"`
	MaxPromptTokens int           `yaml:"max_prompt_tokens"` // 0 disables the precheck
}

const (
	GroupingProject        = "project"
	GroupingClassification = "classification"
)

type GroupingConfig struct {
	Mode string `yaml:"mode"` // project|classification
}

type ClassificationConfig struct {
	Gate            bool `yaml:"gate"`
	FailOpen        bool `yaml:"fail_open"`
	PersistRejected bool `yaml:"persist_rejected"`
}

type ChatConfig struct {
	PersistUserTurnFirst bool          `yaml:"persist_user_turn_first"`
	SerializeSessions    bool          `yaml:"serialize_sessions"`
	LockTTL              time.Duration `yaml:"lock_ttl"`
	RateLimitPerMinute   int           `yaml:"rate_limit_per_minute"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

type Config struct {
	Server         ServerConfig         `yaml:"server"`
	Log            LogConfig            `yaml:"log"`
	Database       DatabaseConfig       `yaml:"database"`
	Redis          RedisConfig          `yaml:"redis"`
	Auth           AuthConfig           `yaml:"auth"`
	AI             AIConfig             `yaml:"ai"`
	Grouping       GroupingConfig       `yaml:"grouping"`
	Classification ClassificationConfig `yaml:"classification"`
	Chat           ChatConfig           `yaml:"chat"`
	Metrics        MetricsConfig        `yaml:"metrics"`

	Runtime RuntimeConfig `yaml:"-"`
}

// Default returns the configuration used when no file sets a value.
func Default() Config {
	return Config{
		Server: ServerConfig{Port: 8001, BasePath: "/api", RequestTimeout: 60 * time.Second, CORSOrigins: []string{"*"}},
		Log:    LogConfig{Level: "info", Format: "json"},
		Auth:   AuthConfig{TokenTTL: 7 * 24 * time.Hour, BcryptCost: 10},
		AI: AIConfig{
			Provider:        "gemini",
			DefaultModel:    "gemini-1.5-flash",
			Timeout:         30 * time.Second,
			RetryBackoff:    500 * time.Millisecond,
			ConcurrentLimit: 16,
		},
		Grouping:       GroupingConfig{Mode: GroupingProject},
		Classification: ClassificationConfig{Gate: true, FailOpen: true},
		Chat:           ChatConfig{SerializeSessions: true, LockTTL: time.Minute},
		Redis:          RedisConfig{TTL: time.Hour},
		Metrics:        MetricsConfig{Enabled: true, Path: "/metrics"},
	}
}

// LoadConfig reads the YAML file at path (optional in dev mode), loads .env and applies
// environment overrides for secrets and connection strings.
func LoadConfig(path string, dev bool) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	b, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	case errors.Is(err, os.ErrNotExist) && dev:
		// dev runs may rely on env only
	default:
		return nil, fmt.Errorf("read config: %w", err)
	}
	applyEnv(&cfg)
	cfg.Runtime.Dev = dev

	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnv(cfg *Config) {
	set := func(dst *string, key string) {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			*dst = v
		}
	}
	set(&cfg.Database.URL, "DATABASE_URL")
	set(&cfg.Redis.URL, "REDIS_URL")
	set(&cfg.Auth.JWTSecret, "JWT_SECRET_KEY")
	set(&cfg.AI.GeminiKey, "GOOGLE_API_KEY")
	set(&cfg.AI.OpenAIKey, "OPENAI_API_KEY")
}

func (cfg *Config) normalize() error {
	// defaults
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8001
	}
	cfg.Server.BasePath = "/" + strings.Trim(cfg.Server.BasePath, "/")
	if cfg.Server.BasePath == "/" {
		cfg.Server.BasePath = ""
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Auth.TokenTTL <= 0 {
		cfg.Auth.TokenTTL = 7 * 24 * time.Hour
	}
	if cfg.AI.Timeout <= 0 {
		cfg.AI.Timeout = 30 * time.Second
	}
	if cfg.AI.MaxRetries < 0 {
		cfg.AI.MaxRetries = 0
	}
	if cfg.Chat.LockTTL <= 0 {
		cfg.Chat.LockTTL = time.Minute
	}
	cfg.Redis.TTL = normalizeTTL(cfg.Redis.TTL)
	cfg.AI.Provider = strings.ToLower(strings.TrimSpace(cfg.AI.Provider))
	cfg.Grouping.Mode = strings.ToLower(strings.TrimSpace(cfg.Grouping.Mode))

	// Minimal validation
	switch cfg.Grouping.Mode {
	case GroupingProject, GroupingClassification:
	default:
		return fmt.Errorf("grouping.mode must be %q or %q", GroupingProject, GroupingClassification)
	}
	switch cfg.AI.Provider {
	case "gemini":
		if cfg.AI.GeminiKey == "" {
			return errors.New("ai.gemini_key (or GOOGLE_API_KEY) is required for provider gemini")
		}
	case "openai":
		if cfg.AI.OpenAIKey == "" {
			return errors.New("ai.openai_key (or OPENAI_API_KEY) is required for provider openai")
		}
	case "noop":
	default:
		return fmt.Errorf("unknown ai.provider %q", cfg.AI.Provider)
	}
	if cfg.Auth.JWTSecret == "" {
		if !cfg.Runtime.Dev {
			return errors.New("auth.jwt_secret (or JWT_SECRET_KEY) is required")
		}
		cfg.Auth.JWTSecret = "dev-secret-change-this-in-production"
	}
	if cfg.Database.URL == "" && !cfg.Runtime.Dev {
		return errors.New("database.url is required")
	}
	return nil
}

func normalizeTTL(d time.Duration) time.Duration {
	if d <= 0 {
		return time.Hour
	}
	return d
}
