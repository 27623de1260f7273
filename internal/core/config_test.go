package core

import (
	"os"
	"path/filepath"
	"testing"
)

// ─── DefaultConfig ──────────────────────────────────────────────────────────

func TestDefaultConfig_Values(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("default Host = %q, want 0.0.0.0", cfg.Server.Host)
	}
	if cfg.Server.Port != 8005 {
		t.Errorf("default Port = %d, want 8005", cfg.Server.Port)
	}
	if cfg.Bus.Enabled {
		t.Error("audit bus should be disabled by default")
	}
	if !cfg.Bus.Embedded {
		t.Error("expected Bus.Embedded = true by default")
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("default Level = %q, want info", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "console" {
		t.Errorf("default Format = %q, want console", cfg.Logging.Format)
	}
	if cfg.LLM.Plugin != "gemini" {
		t.Errorf("default LLM plugin = %q, want gemini", cfg.LLM.Plugin)
	}
	if cfg.Chat.Store != "memory" {
		t.Errorf("default chat store = %q, want memory", cfg.Chat.Store)
	}
	if cfg.Chat.HistoryLimit != 50 {
		t.Errorf("default history limit = %d, want 50", cfg.Chat.HistoryLimit)
	}
}

func TestDefaultConfig_FixersEnabled(t *testing.T) {
	cfg := DefaultConfig()
	for _, name := range []string{"ssh_config_fixer", "nginx_config_fixer", "apache_config_fixer"} {
		if !cfg.IsFixerEnabled(name) {
			t.Errorf("fixer %q should be enabled by default", name)
		}
	}
}

func TestDefaultConfig_AttackEnablement(t *testing.T) {
	cfg := DefaultConfig()
	if !cfg.IsAttackEnabled("weak_ssh") {
		t.Error("weak_ssh should be enabled by default")
	}
	if cfg.IsAttackEnabled("ssh_login") {
		t.Error("ssh_login should be disabled by default")
	}
}

// ─── Enablement semantics ───────────────────────────────────────────────────

func TestIsFixerEnabled_AbsentDefaultsToEnabled(t *testing.T) {
	cfg := DefaultConfig()
	if !cfg.IsFixerEnabled("some_future_fixer") {
		t.Error("fixers absent from config should default to enabled")
	}
}

func TestIsAttackEnabled_AbsentDefaultsToDisabled(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.IsAttackEnabled("some_future_attack") {
		t.Error("attack simulators absent from config should default to disabled")
	}
}

func TestIsFixerEnabled_ExplicitDisable(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Fixers["nginx_config_fixer"] = PluginConfig{Enabled: false}
	if cfg.IsFixerEnabled("nginx_config_fixer") {
		t.Error("explicitly disabled fixer should stay disabled")
	}
}

func TestFixerSettings_MissingReturnsEmptyMap(t *testing.T) {
	cfg := DefaultConfig()
	s := cfg.FixerSettings("no_such_fixer")
	if s == nil {
		t.Fatal("settings for unknown fixer should be an empty map, not nil")
	}
	if len(s) != 0 {
		t.Errorf("settings for unknown fixer should be empty, got %v", s)
	}
}

// ─── Load / Save ────────────────────────────────────────────────────────────

func TestLoadConfig_MissingFileFallsBackToDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig on missing file: %v", err)
	}
	if cfg.Server.Port != 8005 {
		t.Errorf("expected defaults on missing file, got port %d", cfg.Server.Port)
	}
}

func TestLoadConfig_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  port: 9001
llm:
  plugin: openai
fixers:
  ssh_config_fixer:
    enabled: false
    settings:
      config_path: /tmp/sshd_config
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Server.Port != 9001 {
		t.Errorf("Port = %d, want 9001", cfg.Server.Port)
	}
	if cfg.LLM.Plugin != "openai" {
		t.Errorf("LLM plugin = %q, want openai", cfg.LLM.Plugin)
	}
	if cfg.IsFixerEnabled("ssh_config_fixer") {
		t.Error("ssh_config_fixer should be disabled by file")
	}
	if got := cfg.FixerSettings("ssh_config_fixer")["config_path"]; got != "/tmp/sshd_config" {
		t.Errorf("config_path setting = %v, want /tmp/sshd_config", got)
	}
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("server: [not: valid"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := DefaultConfig()
	cfg.Server.Port = 7777

	if err := SaveConfig(cfg, path); err != nil {
		t.Fatalf("SaveConfig: %v", err)
	}
	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if loaded.Server.Port != 7777 {
		t.Errorf("round-trip Port = %d, want 7777", loaded.Server.Port)
	}
}

// ─── Environment overrides ──────────────────────────────────────────────────

func TestLoadConfig_APIKeyFromEnv(t *testing.T) {
	t.Setenv("JANO_API_KEY", "secret-key-from-env")

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if !cfg.AuthEnabled() {
		t.Fatal("auth should be enabled when JANO_API_KEY is set")
	}
	if !cfg.ValidateAPIKey("secret-key-from-env") {
		t.Error("env-provided API key should validate")
	}
}

func TestLoadConfig_LLMKeyByPlugin(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "gem-key")
	t.Setenv("OPENAI_API_KEY", "oai-key")

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.LLM.APIKey != "gem-key" {
		t.Errorf("gemini plugin should pick GEMINI_API_KEY, got %q", cfg.LLM.APIKey)
	}

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("llm:\n  plugin: openai\n"), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err = LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.LLM.APIKey != "oai-key" {
		t.Errorf("openai plugin should pick OPENAI_API_KEY, got %q", cfg.LLM.APIKey)
	}
}

// ─── API key validation ─────────────────────────────────────────────────────

func TestValidateAPIKey(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Server.APIKeys = []string{"alpha", "beta"}

	if !cfg.ValidateAPIKey("alpha") || !cfg.ValidateAPIKey("beta") {
		t.Error("configured keys should validate")
	}
	if cfg.ValidateAPIKey("gamma") {
		t.Error("unknown key should not validate")
	}
	if cfg.ValidateAPIKey("") {
		t.Error("empty key should not validate")
	}
}

func TestAuthEnabled_NoKeys(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.AuthEnabled() {
		t.Error("auth should be disabled with no keys configured")
	}
}
