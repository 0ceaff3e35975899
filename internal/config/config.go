package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config describes the top-level application configuration loaded from YAML and ENV.
type Config struct {
	Version   string                    `mapstructure:"version"`
	Providers map[string]ProviderConfig `mapstructure:"providers"`
	Models    map[string]ModelConfig    `mapstructure:"models"`
	Strategy  StrategyConfig            `mapstructure:"strategy"`
	Agent     AgentConfig               `mapstructure:"agent"`
	Tools     ToolsConfig               `mapstructure:"tools"`
	Profiles  ProfilesConfig            `mapstructure:"profiles"`
	Auth      AuthConfig                `mapstructure:"auth"`
	Logging   LoggingConfig             `mapstructure:"logging"`
	Server    ServerConfig              `mapstructure:"server"`
	MCP       MCPConfig                 `mapstructure:"mcp"`
}

// ProviderConfig represents LLM provider configuration such as OpenAI, Ollama, or custom gateways.
type ProviderConfig struct {
	Type    string        `mapstructure:"type"`     // openai, openrouter, ollama, vllm, lmstudio, custom
	BaseURL string        `mapstructure:"base_url"` // API base URL
	APIKey  string        `mapstructure:"api_key"`  // optional API key
	Timeout time.Duration `mapstructure:"timeout"`  // request timeout
}

// ModelConfig binds a logical model name to a provider entry and model parameters.
type ModelConfig struct {
	Provider    string  `mapstructure:"provider"`
	Model       string  `mapstructure:"model"`
	Temperature float64 `mapstructure:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens"`
	Default     bool    `mapstructure:"default"`
}

// AgentConfig describes generation turn parameters.
type AgentConfig struct {
	MaxSteps         int           `mapstructure:"max_steps"`
	MaxTokens        int           `mapstructure:"max_tokens"`
	Temperature      float64       `mapstructure:"temperature"`
	TurnTimeout      time.Duration `mapstructure:"turn_timeout"`
	MaxContextTokens int           `mapstructure:"max_context_tokens"` // 0 = unlimited
	MaxHistoryTokens int           `mapstructure:"max_history_tokens"` // 0 = unlimited
	ProgressiveFiles bool          `mapstructure:"progressive_files"`
}

// ToolsConfig selects which model-callable tools are offered.
type ToolsConfig struct {
	AllowFileWrite bool `mapstructure:"allow_file_write"`
	AllowProfiles  bool `mapstructure:"allow_profiles"`
	MaxReadBytes   int  `mapstructure:"max_read_bytes"`
}

// ProfilesConfig configures the profile store.
type ProfilesConfig struct {
	SeedFile string `mapstructure:"seed_file"`
}

// AuthConfig maps bearer tokens to identities.
type AuthConfig struct {
	Required bool              `mapstructure:"required"`
	Tokens   map[string]string `mapstructure:"tokens"` // token -> user id
}

// LoggingConfig controls logger behaviour.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // console or json
}

// ServerConfig describes daemon settings.
type ServerConfig struct {
	Addr           string `mapstructure:"addr"`
	MetricsEnabled bool   `mapstructure:"metrics_enabled"`
	Transport      string `mapstructure:"transport"` // connect or ndjson
}

// MCPConfig configures the stdio MCP server.
type MCPConfig struct {
	Name string `mapstructure:"name"`
}

// Load reads configuration from the provided path or defaults to configs/config.yaml.
// Environment variables override file values (prefix: PROFILEBASE_, dots replaced with underscores).
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("PROFILEBASE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path == "" {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("configs")
	} else {
		v.SetConfigFile(path)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) && path == "" {
			v.SetConfigName("config.example")
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("read config: %w", err)
			}
		} else {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("agent.max_steps", 5)
	v.SetDefault("agent.max_tokens", 4096)
	v.SetDefault("agent.temperature", 0.2)
	v.SetDefault("agent.turn_timeout", 60*time.Second)
	v.SetDefault("agent.max_context_tokens", 0)
	v.SetDefault("agent.max_history_tokens", 0)
	v.SetDefault("agent.progressive_files", true)

	v.SetDefault("tools.allow_file_write", true)
	v.SetDefault("tools.allow_profiles", true)
	v.SetDefault("tools.max_read_bytes", 65536)

	v.SetDefault("strategy.default_model", "")
	v.SetDefault("strategy.coder_model", "")
	v.SetDefault("strategy.editor_model", "")
	v.SetDefault("strategy.chat_model", "")

	v.SetDefault("auth.required", false)

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.metrics_enabled", true)
	v.SetDefault("server.transport", "connect")

	v.SetDefault("mcp.name", "profilebase")
}

// Validate performs basic sanity checks on configuration values.
func (c *Config) Validate() error {
	if len(c.Providers) == 0 {
		return errors.New("at least one provider must be configured")
	}

	if len(c.Models) == 0 {
		return errors.New("at least one model must be defined")
	}

	for name, p := range c.Providers {
		if p.Type == "" {
			return fmt.Errorf("provider %q must define type", name)
		}
	}

	var defaultFound bool
	for name, m := range c.Models {
		if m.Provider == "" {
			return fmt.Errorf("model %q must reference provider", name)
		}

		if _, ok := c.Providers[m.Provider]; !ok {
			return fmt.Errorf("model %q references unknown provider %q", name, m.Provider)
		}

		if m.Temperature < 0 || m.Temperature > 2 {
			return fmt.Errorf("model %q temperature must be within [0,2]", name)
		}

		if m.MaxTokens < 0 {
			return fmt.Errorf("model %q max_tokens cannot be negative", name)
		}

		if m.Default {
			defaultFound = true
		}
	}

	if !defaultFound {
		return errors.New("at least one model should be marked as default")
	}

	if c.Agent.MaxSteps <= 0 {
		return errors.New("agent.max_steps must be > 0")
	}
	if c.Agent.MaxTokens < 0 {
		return errors.New("agent.max_tokens must be >= 0")
	}
	if c.Agent.Temperature < 0 || c.Agent.Temperature > 2 {
		return errors.New("agent.temperature must be within [0,2]")
	}
	if c.Agent.TurnTimeout < 0 {
		return errors.New("agent.turn_timeout must be >= 0")
	}
	if c.Agent.MaxContextTokens < 0 {
		return errors.New("agent.max_context_tokens must be >= 0")
	}
	if c.Agent.MaxHistoryTokens < 0 {
		return errors.New("agent.max_history_tokens must be >= 0")
	}
	if c.Tools.MaxReadBytes < 0 {
		return errors.New("tools.max_read_bytes must be >= 0")
	}

	if err := c.Strategy.validate(c.Models); err != nil {
		return err
	}

	for token, user := range c.Auth.Tokens {
		if strings.TrimSpace(token) == "" || strings.TrimSpace(user) == "" {
			return errors.New("auth.tokens entries must map a non-empty token to a non-empty user id")
		}
	}
	if c.Auth.Required && len(c.Auth.Tokens) == 0 {
		return errors.New("auth.tokens must be set when auth.required is true")
	}

	switch strings.ToLower(strings.TrimSpace(c.Server.Transport)) {
	case "", "connect", "ndjson":
	default:
		return fmt.Errorf("server.transport must be one of connect or ndjson, got %q", c.Server.Transport)
	}

	return nil
}
