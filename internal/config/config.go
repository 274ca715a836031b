// Package config defines the humcp server configuration and its JSON
// loader. The tool filter rule is a separate YAML document handled by
// internal/filter; this package only records where it lives.
package config

// Config is the root configuration structure.
type Config struct {
	Server ServerConfig `json:"server"`
	Tools  ToolsConfig  `json:"tools"`
	// FilterPath points at the YAML include/exclude document.
	// Empty means the default config/tools.yaml.
	FilterPath string `json:"filterPath,omitempty"`
	// SkillsDir holds per-category SKILL.md directories.
	SkillsDir string `json:"skillsDir,omitempty"`
	// Workspace is the root directory tools operate in.
	Workspace string `json:"workspace,omitempty"`
}

// ServerConfig groups HTTP server settings.
type ServerConfig struct {
	Port int `json:"port"`
	// Token, when set, is required as a bearer token on the /mcp surface.
	// It is passed through as-is; humcp does no credential management.
	Token string `json:"token,omitempty"`
	// SkillsRefresh is a cron spec for rescanning the skills directory.
	SkillsRefresh string `json:"skillsRefresh,omitempty"`
}

// ToolsConfig groups per-tool settings.
type ToolsConfig struct {
	Exec                ExecToolConfig `json:"exec"`
	Web                 WebToolsConfig `json:"web"`
	CSV                 CSVToolConfig  `json:"csv"`
	RestrictToWorkspace bool           `json:"restrictToWorkspace"`
}

// ExecToolConfig configures the shell_run tool.
type ExecToolConfig struct {
	Timeout int `json:"timeout"` // seconds
}

// WebToolsConfig configures the search pack.
type WebToolsConfig struct {
	Search WebSearchConfig `json:"search"`
}

type WebSearchConfig struct {
	APIKey     string `json:"apiKey,omitempty"`
	MaxResults int    `json:"maxResults,omitempty"`
}

// CSVToolConfig lists the CSV files exposed by the data pack.
type CSVToolConfig struct {
	Files []string `json:"files,omitempty"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Port:          8080,
			SkillsRefresh: "@every 5m",
		},
		Tools: ToolsConfig{
			Exec: ExecToolConfig{Timeout: 60},
			Web:  WebToolsConfig{Search: WebSearchConfig{MaxResults: 5}},
		},
		SkillsDir: "skills",
	}
}

// WorkspacePath returns the configured workspace, defaulting to the data
// directory's workspace subfolder.
func (c *Config) WorkspacePath() string {
	if c.Workspace != "" {
		return c.Workspace
	}
	return DataDir() + "/workspace"
}
