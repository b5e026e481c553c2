package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	// WorkspaceDirName is the directory name for project-level SearchLens config.
	WorkspaceDirName = ".searchlens"
	// WorkspaceConfigFile is the config file name inside the workspace directory.
	WorkspaceConfigFile = "config.yaml"
	// MaxSearchDepth limits how many parent directories to walk when discovering a workspace.
	MaxSearchDepth = 10
)

// WorkspaceOptions controls workspace discovery behavior.
type WorkspaceOptions struct {
	// Disable skips workspace discovery entirely (--no-workspace flag).
	Disable bool
	// ExplicitDir uses this directory as workspace root instead of walking up (--workspace-dir flag).
	ExplicitDir string
}

// Config captures all tunable settings for the SearchLens server and the
// interactive assistant.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	GSC       GSCConfig       `yaml:"gsc"`
	Assistant AssistantConfig `yaml:"assistant"`
	Analytics AnalyticsConfig `yaml:"analytics"`
	MCP       MCPConfig       `yaml:"mcp"`
	Trace     TraceConfig     `yaml:"trace"`
}

type ServerConfig struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
	LogFile string `yaml:"log_file"`
}

// GSCConfig locates the Search Console credentials.
type GSCConfig struct {
	// Path to the service-account credentials JSON. When empty, the
	// GOOGLE_APPLICATION_CREDENTIALS environment variable decides.
	CredentialsFile string `yaml:"credentials_file"`
}

// AssistantConfig tunes the language-model calls. The API key always comes
// from the ANTHROPIC_API_KEY environment variable, never from a config file.
type AssistantConfig struct {
	Model string `yaml:"model"`
	// Token budget for command proposals.
	CommandMaxTokens int `yaml:"command_max_tokens"`
	// Token budget for result explanations.
	ExplainMaxTokens int `yaml:"explain_max_tokens"`
}

// AnalyticsConfig sets query defaults used when a command carries none.
type AnalyticsConfig struct {
	RowLimit int `yaml:"row_limit"`
	// FetchAll pages until the property is exhausted instead of returning a
	// single page (default: false).
	FetchAll *bool `yaml:"fetch_all"`
}

type MCPConfig struct {
	// When set, starts an SSE server on this port instead of stdio-only.
	SSEPort int `yaml:"sse_port"`
}

// TraceConfig controls the JSONL session recorder.
type TraceConfig struct {
	Enable bool   `yaml:"enable"`
	Dir    string `yaml:"dir"`
}

// DefaultConfig provides reasonable defaults for local use.
func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Name:    "searchlens-mcp",
			Version: "0.1.0",
			LogFile: "searchlens-mcp.log",
		},
		Assistant: AssistantConfig{
			Model:            "claude-3-haiku-20240307",
			CommandMaxTokens: 100,
			ExplainMaxTokens: 300,
		},
		Analytics: AnalyticsConfig{
			RowLimit: 1000,
		},
		MCP: MCPConfig{
			SSEPort: 0,
		},
		Trace: TraceConfig{
			Enable: false,
			Dir:    "data/traces",
		},
	}
}

// Load reads YAML config from disk and overlays defaults.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		return cfg, errors.New("config path is required")
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}

	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, err
	}

	return cfg, cfg.Validate()
}

// DiscoverWorkspace walks up from startDir looking for a .searchlens/config.yaml file.
// Returns the workspace root directory (parent of .searchlens/) or empty string if not found.
func DiscoverWorkspace(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("resolving start directory: %w", err)
	}

	for i := 0; i < MaxSearchDepth; i++ {
		candidate := filepath.Join(dir, WorkspaceDirName, WorkspaceConfigFile)
		if _, err := os.Stat(candidate); err == nil {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached filesystem root
			break
		}
		dir = parent
	}

	return "", nil
}

// LoadWithWorkspace implements multi-layer config merge:
//
//	DefaultConfig() <- .searchlens/config.yaml <- explicit --config <- CLI flags
//
// Returns the merged config and the workspace directory (empty if none found).
func LoadWithWorkspace(explicitConfig string, opts WorkspaceOptions) (Config, string, error) {
	cfg := DefaultConfig()
	wsDir := ""

	// Layer 1: Workspace config (if not disabled)
	if !opts.Disable {
		var err error
		if opts.ExplicitDir != "" {
			// Verify the explicit workspace dir has a config
			candidate := filepath.Join(opts.ExplicitDir, WorkspaceDirName, WorkspaceConfigFile)
			if _, statErr := os.Stat(candidate); statErr == nil {
				wsDir = opts.ExplicitDir
			}
		} else {
			cwd, cwdErr := os.Getwd()
			if cwdErr != nil {
				return cfg, "", fmt.Errorf("getting working directory: %w", cwdErr)
			}
			wsDir, err = DiscoverWorkspace(cwd)
			if err != nil {
				return cfg, "", fmt.Errorf("discovering workspace: %w", err)
			}
		}

		if wsDir != "" {
			wsConfigPath := filepath.Join(wsDir, WorkspaceDirName, WorkspaceConfigFile)
			raw, err := os.ReadFile(wsConfigPath)
			if err != nil {
				return cfg, "", fmt.Errorf("reading workspace config %s: %w", wsConfigPath, err)
			}
			if err := yaml.Unmarshal(raw, &cfg); err != nil {
				return cfg, "", fmt.Errorf("parsing workspace config %s: %w", wsConfigPath, err)
			}
			cfg = resolveWorkspacePaths(cfg, wsDir)
		}
	}

	// Layer 2: Explicit config file (--config flag)
	if explicitConfig != "" {
		raw, err := os.ReadFile(explicitConfig)
		if err != nil {
			return cfg, wsDir, fmt.Errorf("reading explicit config %s: %w", explicitConfig, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return cfg, wsDir, fmt.Errorf("parsing explicit config %s: %w", explicitConfig, err)
		}
	}

	return cfg, wsDir, cfg.Validate()
}

// InitWorkspace creates a .searchlens/ directory with template files at root.
func InitWorkspace(root string) error {
	wsDir := filepath.Join(root, WorkspaceDirName)

	if _, err := os.Stat(wsDir); err == nil {
		return fmt.Errorf("workspace directory already exists: %s", wsDir)
	}

	dirs := []string{
		wsDir,
		filepath.Join(wsDir, "data"),
	}
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0755); err != nil {
			return fmt.Errorf("creating directory %s: %w", d, err)
		}
	}

	// Write template config
	templateConfig := `# SearchLens project-level configuration
# Values here override defaults but are overridden by --config and CLI flags.

# gsc:
#   credentials_file: ".searchlens/credentials.json"

# assistant:
#   model: "claude-3-haiku-20240307"
#   explain_max_tokens: 300

# analytics:
#   row_limit: 1000
#   fetch_all: false

# trace:
#   enable: true
#   dir: ".searchlens/data/traces"
`
	configPath := filepath.Join(wsDir, WorkspaceConfigFile)
	if err := os.WriteFile(configPath, []byte(templateConfig), 0644); err != nil {
		return fmt.Errorf("writing config template: %w", err)
	}

	// Write .gitignore for data directory and credentials
	gitignoreContent := "# Runtime data and credentials - do not version control\ndata/\ncredentials.json\n"
	gitignorePath := filepath.Join(wsDir, ".gitignore")
	if err := os.WriteFile(gitignorePath, []byte(gitignoreContent), 0644); err != nil {
		return fmt.Errorf("writing .gitignore: %w", err)
	}

	return nil
}

// resolveWorkspacePaths resolves relative paths in the config against the workspace directory.
func resolveWorkspacePaths(cfg Config, wsDir string) Config {
	resolve := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(wsDir, p)
	}

	cfg.Server.LogFile = resolve(cfg.Server.LogFile)
	cfg.GSC.CredentialsFile = resolve(cfg.GSC.CredentialsFile)
	cfg.Trace.Dir = resolve(cfg.Trace.Dir)
	return cfg
}

// Validate ensures required fields exist so the binaries can start deterministically.
func (c *Config) Validate() error {
	if c.Server.Name == "" {
		return errors.New("server.name is required")
	}
	if c.Assistant.Model == "" {
		return errors.New("assistant.model is required")
	}
	if c.Analytics.RowLimit <= 0 {
		return errors.New("analytics.row_limit must be positive")
	}
	return nil
}

// CredentialsPath returns the configured credentials file, falling back to
// the GOOGLE_APPLICATION_CREDENTIALS environment variable.
func (g GSCConfig) CredentialsPath() string {
	if g.CredentialsFile != "" {
		return g.CredentialsFile
	}
	return os.Getenv("GOOGLE_APPLICATION_CREDENTIALS")
}

// IsFetchAll returns whether pagination should run to exhaustion (default: false).
func (a AnalyticsConfig) IsFetchAll() bool {
	if a.FetchAll == nil {
		return false
	}
	return *a.FetchAll
}

// GetCommandMaxTokens returns the proposal token budget with a sane default.
func (a AssistantConfig) GetCommandMaxTokens() int {
	if a.CommandMaxTokens <= 0 {
		return 100
	}
	return a.CommandMaxTokens
}

// GetExplainMaxTokens returns the explanation token budget with a sane default.
func (a AssistantConfig) GetExplainMaxTokens() int {
	if a.ExplainMaxTokens <= 0 {
		return 300
	}
	return a.ExplainMaxTokens
}
