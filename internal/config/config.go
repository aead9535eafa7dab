// File: internal/config/config.go
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the entire application configuration.
type Config struct {
	Logger  LoggerConfig  `mapstructure:"logger" yaml:"logger"`
	LLM     LLMConfig     `mapstructure:"llm" yaml:"llm"`
	Planner PlannerConfig `mapstructure:"planner" yaml:"planner"`
	Runner  RunnerConfig  `mapstructure:"runner" yaml:"runner"`
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string `mapstructure:"level" yaml:"level"`
	Format      string `mapstructure:"format" yaml:"format"`
	AddSource   bool   `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int    `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int    `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool   `mapstructure:"compress" yaml:"compress"`
}

// LLMProvider defines the supported chat-model providers.
type LLMProvider string

const (
	ProviderOpenAI LLMProvider = "openai"
	ProviderOllama LLMProvider = "ollama"
)

// LLMConfig defines the configuration for the chat-model client.
type LLMConfig struct {
	Provider    LLMProvider   `mapstructure:"provider" yaml:"provider"`
	Model       string        `mapstructure:"model" yaml:"model"`
	APIKey      string        `mapstructure:"api_key" yaml:"-"`
	Endpoint    string        `mapstructure:"endpoint" yaml:"endpoint"`
	APITimeout  time.Duration `mapstructure:"api_timeout" yaml:"api_timeout"`
	Temperature float64       `mapstructure:"temperature" yaml:"temperature"`
	MaxTokens   int           `mapstructure:"max_tokens" yaml:"max_tokens"`
}

// PlannerConfig configures the planning agent. Immutable for the agent's
// lifetime once captured at construction.
type PlannerConfig struct {
	// UseServerForFirstPlan routes the first planning step of a task
	// through the remote plan server before falling back to the chat model.
	UseServerForFirstPlan bool `mapstructure:"use_server_for_first_plan" yaml:"use_server_for_first_plan"`
	// ServerPlanEndpoint is the base URL of the plan server. A trailing
	// slash is tolerated.
	ServerPlanEndpoint string `mapstructure:"server_plan_endpoint" yaml:"server_plan_endpoint"`
}

// RunnerConfig tunes the task driver that sits around the planner.
type RunnerConfig struct {
	MaxSteps            int  `mapstructure:"max_steps" yaml:"max_steps"`
	MaxStepFailures     int  `mapstructure:"max_step_failures" yaml:"max_step_failures"`
	UseVision           bool `mapstructure:"use_vision" yaml:"use_vision"`
	UseVisionForPlanner bool `mapstructure:"use_vision_for_planner" yaml:"use_vision_for_planner"`
}

// SetDefaults initializes default values for all configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "webpilot")
	v.SetDefault("logger.log_file", "webpilot.log")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)

	// -- LLM --
	v.SetDefault("llm.provider", "openai")
	v.SetDefault("llm.model", "gpt-4o-mini")
	v.SetDefault("llm.api_timeout", "60s")
	v.SetDefault("llm.temperature", 0.2)
	v.SetDefault("llm.max_tokens", 2048)

	// -- Planner --
	v.SetDefault("planner.use_server_for_first_plan", false)
	v.SetDefault("planner.server_plan_endpoint", "")

	// -- Runner --
	v.SetDefault("runner.max_steps", 20)
	v.SetDefault("runner.max_step_failures", 3)
	v.SetDefault("runner.use_vision", false)
	v.SetDefault("runner.use_vision_for_planner", false)
}

// NewDefaultConfig creates a configuration populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// Cannot happen with defaults, but fail loudly if it does.
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// NewConfigFromViper creates a configuration instance from a viper object,
// binding sensitive values from the environment.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	v.BindEnv("llm.api_key", "WEBPILOT_LLM_API_KEY")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	switch c.LLM.Provider {
	case ProviderOpenAI, ProviderOllama:
	default:
		return fmt.Errorf("llm.provider must be one of [%s, %s], got %q", ProviderOpenAI, ProviderOllama, c.LLM.Provider)
	}
	if c.LLM.Model == "" {
		return fmt.Errorf("llm.model is a required configuration field")
	}
	if c.Runner.MaxSteps <= 0 {
		return fmt.Errorf("runner.max_steps must be a positive integer")
	}
	if c.Runner.MaxStepFailures < 0 {
		return fmt.Errorf("runner.max_step_failures must not be negative")
	}
	if err := c.Planner.Validate(); err != nil {
		return fmt.Errorf("planner configuration invalid: %w", err)
	}
	return nil
}

// Validate checks the planner settings.
func (p *PlannerConfig) Validate() error {
	if !p.UseServerForFirstPlan {
		return nil
	}
	if p.ServerPlanEndpoint == "" {
		// Allowed: the agent treats a missing endpoint as a local failure
		// and plans with the chat model instead.
		return nil
	}
	u, err := url.Parse(p.ServerPlanEndpoint)
	if err != nil {
		return fmt.Errorf("server_plan_endpoint is not a valid URL: %w", err)
	}
	if !strings.HasPrefix(u.Scheme, "http") {
		return fmt.Errorf("server_plan_endpoint must use http or https, got %q", u.Scheme)
	}
	return nil
}
