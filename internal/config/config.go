package config

import (
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/crm-autosync/internal/model"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Agent     AgentConfig     `yaml:"agent" mapstructure:"agent"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the state backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"` // sqlite, postgres or memory
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// AgentConfig configures the agent gateway.
type AgentConfig struct {
	Driver            string  `yaml:"driver" mapstructure:"driver"` // http or anthropic
	BaseURL           string  `yaml:"base_url" mapstructure:"base_url"`
	APIKey            string  `yaml:"api_key" mapstructure:"api_key"`
	UserID            string  `yaml:"user_id" mapstructure:"user_id"`
	TimeoutSecs       int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RatePerSec        float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
	ExtractionAgentID string  `yaml:"extraction_agent_id" mapstructure:"extraction_agent_id"`
	PushAgentID       string  `yaml:"push_agent_id" mapstructure:"push_agent_id"`
}

// AnthropicConfig holds Anthropic API settings for the anthropic agent driver.
type AnthropicConfig struct {
	Key       string `yaml:"key" mapstructure:"key"`
	Model     string `yaml:"model" mapstructure:"model"`
	MaxTokens int64  `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// DefaultDatabasePath is the SQLite state file under the XDG data home.
func DefaultDatabasePath() string {
	return filepath.Join(xdg.DataHome, "crm-autosync", "state.db")
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("CRMSYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", DefaultDatabasePath())
	v.SetDefault("agent.driver", "http")
	v.SetDefault("agent.base_url", "http://localhost:3000/api/agent")
	v.SetDefault("agent.api_key", "")
	v.SetDefault("agent.user_id", "")
	v.SetDefault("agent.timeout_secs", 300)
	v.SetDefault("agent.rate_per_sec", 1.0)
	v.SetDefault("agent.extraction_agent_id", model.ExtractionCoordinatorID)
	v.SetDefault("agent.push_agent_id", model.PushAgentID)
	v.SetDefault("anthropic.key", "")
	v.SetDefault("anthropic.model", "claude-sonnet-4-5-20250929")
	v.SetDefault("anthropic.max_tokens", 8192)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the settings needed by one command mode: "serve" and
// "run" talk to agents, "local" only reads and writes state.
func (c *Config) Validate(mode string) error {
	var errs []string

	switch c.Store.Driver {
	case "sqlite", "postgres":
		if c.Store.DatabaseURL == "" {
			errs = append(errs, "store.database_url is required")
		}
	case "memory":
	default:
		errs = append(errs, "store.driver must be sqlite, postgres or memory")
	}

	switch mode {
	case "serve":
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, "server.port must be > 0 and <= 65535")
		}
		errs = append(errs, c.validateAgent()...)
	case "run":
		errs = append(errs, c.validateAgent()...)
	case "local":
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

func (c *Config) validateAgent() []string {
	var errs []string
	switch c.Agent.Driver {
	case "http":
		if c.Agent.BaseURL == "" {
			errs = append(errs, "agent.base_url is required")
		}
	case "anthropic":
		if c.Anthropic.Key == "" {
			errs = append(errs, "anthropic.key is required")
		}
	default:
		errs = append(errs, "agent.driver must be http or anthropic")
	}
	if c.Agent.TimeoutSecs <= 0 {
		errs = append(errs, "agent.timeout_secs must be > 0")
	}
	if c.Agent.ExtractionAgentID == "" || c.Agent.PushAgentID == "" {
		errs = append(errs, "agent.extraction_agent_id and agent.push_agent_id are required")
	}
	return errs
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
