package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	// Server defaults
	if cfg.Server.Name != "searchlens-mcp" {
		t.Errorf("expected server name 'searchlens-mcp', got %q", cfg.Server.Name)
	}
	if cfg.Server.LogFile != "searchlens-mcp.log" {
		t.Errorf("expected log file 'searchlens-mcp.log', got %q", cfg.Server.LogFile)
	}

	// Assistant defaults
	if cfg.Assistant.Model == "" {
		t.Error("expected a default assistant model")
	}
	if cfg.Assistant.CommandMaxTokens != 100 {
		t.Errorf("expected command token budget 100, got %d", cfg.Assistant.CommandMaxTokens)
	}
	if cfg.Assistant.ExplainMaxTokens != 300 {
		t.Errorf("expected explain token budget 300, got %d", cfg.Assistant.ExplainMaxTokens)
	}

	// Analytics defaults
	if cfg.Analytics.RowLimit != 1000 {
		t.Errorf("expected row limit 1000, got %d", cfg.Analytics.RowLimit)
	}
	if cfg.Analytics.IsFetchAll() {
		t.Error("expected fetch_all to default to false")
	}

	// Trace defaults
	if cfg.Trace.Enable {
		t.Error("expected Trace.Enable to be false")
	}
	if cfg.Trace.Dir != "data/traces" {
		t.Errorf("expected trace dir 'data/traces', got %q", cfg.Trace.Dir)
	}
}

func TestLoadEmptyPath(t *testing.T) {
	_, err := Load("")
	if err == nil {
		t.Error("expected error for empty path")
	}
	if err.Error() != "config path is required" {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestLoadNonExistentFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("expected error for non-existent file")
	}
}

func TestLoadValidConfig(t *testing.T) {
	// Create a temporary config file
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
server:
  name: "test-server"
  version: "1.0.0"
  log_file: "test.log"

gsc:
  credentials_file: "creds.json"

assistant:
  model: "claude-3-haiku-20240307"
  command_max_tokens: 150
  explain_max_tokens: 500

analytics:
  row_limit: 250
  fetch_all: true

mcp:
  sse_port: 8931

trace:
  enable: true
  dir: "traces"
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	// Verify loaded values
	if cfg.Server.Name != "test-server" {
		t.Errorf("expected server name 'test-server', got %q", cfg.Server.Name)
	}
	if cfg.GSC.CredentialsFile != "creds.json" {
		t.Errorf("expected credentials file 'creds.json', got %q", cfg.GSC.CredentialsFile)
	}
	if cfg.Assistant.ExplainMaxTokens != 500 {
		t.Errorf("expected explain token budget 500, got %d", cfg.Assistant.ExplainMaxTokens)
	}
	if cfg.Analytics.RowLimit != 250 {
		t.Errorf("expected row limit 250, got %d", cfg.Analytics.RowLimit)
	}
	if !cfg.Analytics.IsFetchAll() {
		t.Error("expected fetch_all to be true")
	}
	if cfg.MCP.SSEPort != 8931 {
		t.Errorf("expected SSE port 8931, got %d", cfg.MCP.SSEPort)
	}
	if !cfg.Trace.Enable {
		t.Error("expected Trace.Enable to be true")
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	// Invalid YAML content
	if err := os.WriteFile(configPath, []byte("invalid: yaml: content:"), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	_, err := Load(configPath)
	if err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestValidate(t *testing.T) {
	base := func() Config {
		return Config{
			Server:    ServerConfig{Name: "test"},
			Assistant: AssistantConfig{Model: "claude-3-haiku-20240307"},
			Analytics: AnalyticsConfig{RowLimit: 1000},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
		errMsg  string
	}{
		{
			name:    "complete config passes",
			mutate:  func(*Config) {},
			wantErr: false,
		},
		{
			name:    "empty server name",
			mutate:  func(c *Config) { c.Server.Name = "" },
			wantErr: true,
			errMsg:  "server.name is required",
		},
		{
			name:    "empty assistant model",
			mutate:  func(c *Config) { c.Assistant.Model = "" },
			wantErr: true,
			errMsg:  "assistant.model is required",
		},
		{
			name:    "non-positive row limit",
			mutate:  func(c *Config) { c.Analytics.RowLimit = 0 },
			wantErr: true,
			errMsg:  "analytics.row_limit must be positive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				if err == nil {
					t.Error("expected error but got nil")
				} else if err.Error() != tt.errMsg {
					t.Errorf("expected error %q, got %q", tt.errMsg, err.Error())
				}
			} else {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
			}
		})
	}
}

func TestCredentialsPath(t *testing.T) {
	t.Run("config value wins", func(t *testing.T) {
		t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "/env/creds.json")
		cfg := GSCConfig{CredentialsFile: "/cfg/creds.json"}
		if got := cfg.CredentialsPath(); got != "/cfg/creds.json" {
			t.Errorf("expected config path, got %q", got)
		}
	})

	t.Run("env fallback", func(t *testing.T) {
		t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "/env/creds.json")
		cfg := GSCConfig{}
		if got := cfg.CredentialsPath(); got != "/env/creds.json" {
			t.Errorf("expected env path, got %q", got)
		}
	})
}

func TestTokenBudgetDefaults(t *testing.T) {
	cfg := AssistantConfig{}
	if cfg.GetCommandMaxTokens() != 100 {
		t.Errorf("expected default command budget 100, got %d", cfg.GetCommandMaxTokens())
	}
	if cfg.GetExplainMaxTokens() != 300 {
		t.Errorf("expected default explain budget 300, got %d", cfg.GetExplainMaxTokens())
	}

	cfg = AssistantConfig{CommandMaxTokens: 50, ExplainMaxTokens: 1000}
	if cfg.GetCommandMaxTokens() != 50 || cfg.GetExplainMaxTokens() != 1000 {
		t.Error("explicit token budgets must pass through")
	}
}

