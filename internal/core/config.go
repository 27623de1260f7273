package core

import (
	"crypto/subtle"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the entire Jano configuration.
type Config struct {
	Server  ServerConfig            `yaml:"server"`
	Bus     BusConfig               `yaml:"bus"`
	Logging LoggingConfig           `yaml:"logging"`
	LLM     LLMConfig               `yaml:"llm"`
	Chat    ChatConfig              `yaml:"chat"`
	Fixers  map[string]PluginConfig `yaml:"fixers"`
	Attacks map[string]PluginConfig `yaml:"attacks"`
}

// ServerConfig holds API server settings.
type ServerConfig struct {
	Host        string   `yaml:"host"`
	Port        int      `yaml:"port"`
	APIKeys     []string `yaml:"api_keys"`
	CORSOrigins []string `yaml:"cors_origins"`
}

// BusConfig holds NATS audit bus settings.
type BusConfig struct {
	Enabled  bool   `yaml:"enabled"`
	URL      string `yaml:"url"`
	Embedded bool   `yaml:"embedded"`
	DataDir  string `yaml:"data_dir"`
	Port     int    `yaml:"port"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// LLMConfig selects and configures the language-model backend plugin.
type LLMConfig struct {
	Plugin        string `yaml:"plugin"`
	APIKey        string `yaml:"api_key"`
	Model         string `yaml:"model"`
	AdvancedModel string `yaml:"advanced_model"`
	BaseURL       string `yaml:"base_url"`
}

// ChatConfig holds conversation store settings.
type ChatConfig struct {
	Store        string `yaml:"store"` // "memory" or "badger"
	DataDir      string `yaml:"data_dir"`
	HistoryLimit int    `yaml:"history_limit"`
}

// PluginConfig holds per-plugin enablement and free-form settings.
type PluginConfig struct {
	Enabled  bool           `yaml:"enabled"`
	Settings map[string]any `yaml:"settings"`
}

// DefaultConfig returns a Config with sane defaults — zero-config works out of the box.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8005,
		},
		Bus: BusConfig{
			Enabled:  false,
			URL:      "nats://127.0.0.1:4222",
			Embedded: true,
			DataDir:  "./data/nats",
			Port:     4222,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		LLM: LLMConfig{
			Plugin: "gemini",
		},
		Chat: ChatConfig{
			Store:        "memory",
			DataDir:      "./data/chat",
			HistoryLimit: 50,
		},
		Fixers: map[string]PluginConfig{
			"ssh_config_fixer":    {Enabled: true, Settings: map[string]any{}},
			"nginx_config_fixer":  {Enabled: true, Settings: map[string]any{}},
			"apache_config_fixer": {Enabled: true, Settings: map[string]any{}},
		},
		Attacks: map[string]PluginConfig{
			"weak_ssh": {Enabled: true, Settings: map[string]any{}},
			"ssh_login": {Enabled: false, Settings: map[string]any{}},
		},
	}
}

// LoadConfig loads configuration from a YAML file, falling back to defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		cfg.applyEnv()
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnv()
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.applyEnv()
	return cfg, nil
}

// applyEnv fills settings left empty in the file from the environment.
func (c *Config) applyEnv() {
	if len(c.Server.APIKeys) == 0 {
		if envKey := os.Getenv("JANO_API_KEY"); envKey != "" {
			c.Server.APIKeys = []string{envKey}
		}
	}
	if c.LLM.APIKey == "" {
		switch strings.ToLower(c.LLM.Plugin) {
		case "openai":
			c.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
		default:
			c.LLM.APIKey = os.Getenv("GEMINI_API_KEY")
		}
	}
}

// SaveConfig writes the configuration to a YAML file.
func SaveConfig(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// IsFixerEnabled checks if a fixer plugin is enabled in the configuration.
// Plugins absent from the config are enabled.
func (c *Config) IsFixerEnabled(name string) bool {
	p, ok := c.Fixers[name]
	if !ok {
		return true
	}
	return p.Enabled
}

// FixerSettings returns the settings map for a fixer plugin.
func (c *Config) FixerSettings(name string) map[string]any {
	p, ok := c.Fixers[name]
	if !ok || p.Settings == nil {
		return map[string]any{}
	}
	return p.Settings
}

// IsAttackEnabled checks if an attack-simulator plugin is enabled.
// Unlike fixers, simulators absent from the config stay disabled.
func (c *Config) IsAttackEnabled(name string) bool {
	p, ok := c.Attacks[name]
	if !ok {
		return false
	}
	return p.Enabled
}

// AttackSettings returns the settings map for an attack-simulator plugin.
func (c *Config) AttackSettings(name string) map[string]any {
	p, ok := c.Attacks[name]
	if !ok || p.Settings == nil {
		return map[string]any{}
	}
	return p.Settings
}

// LLMSettings builds the settings map handed to the configured LLM plugin.
func (c *Config) LLMSettings() map[string]any {
	s := map[string]any{}
	if c.LLM.APIKey != "" {
		s["api_key"] = c.LLM.APIKey
	}
	if c.LLM.Model != "" {
		s["model"] = c.LLM.Model
	}
	if c.LLM.AdvancedModel != "" {
		s["advanced_model"] = c.LLM.AdvancedModel
	}
	if c.LLM.BaseURL != "" {
		s["api_base_url"] = c.LLM.BaseURL
	}
	return s
}

// LogLevel returns the parsed log level string.
func (c *Config) LogLevel() string {
	return strings.ToLower(c.Logging.Level)
}

// AuthEnabled returns true if API key authentication is configured.
func (c *Config) AuthEnabled() bool {
	return len(c.Server.APIKeys) > 0
}

// ValidateAPIKey checks if the provided key matches any configured API key.
// Uses constant-time comparison to prevent timing attacks.
func (c *Config) ValidateAPIKey(key string) bool {
	for _, valid := range c.Server.APIKeys {
		if subtle.ConstantTimeCompare([]byte(key), []byte(valid)) == 1 {
			return true
		}
	}
	return false
}
