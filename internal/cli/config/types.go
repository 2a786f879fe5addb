// Package config provides configuration management for the leapcheck CLI.
//
// The application config (leapcheck.yaml) says where the rule file and
// guideline documents live and how the server and embeddings are set up.
// Rule content itself is loaded by internal/config.
package config

import (
	"github.com/leapstack-labs/leapcheck/internal/kb"
)

// Default values for the application config.
const (
	DefaultRulesPath     = "config/rules.yml"
	DefaultGuidelinesDir = "guidelines"
	DefaultKBCache       = ".leapcheck/kb.db"
	DefaultOutput        = "auto"
	DefaultHost          = "0.0.0.0"
	DefaultPort          = 8080
	DefaultMaxUploadMB   = 128
)

// ServerConfig holds configuration for the HTTP service.
type ServerConfig struct {
	Host        string `koanf:"host" json:"host"`
	Port        int    `koanf:"port" json:"port"`
	MaxUploadMB int    `koanf:"max_upload_mb" json:"max_upload_mb"`
	// Watch reloads the knowledge base when guideline files change.
	Watch bool `koanf:"watch" json:"watch"`
}

// MaxUploadBytes returns the upload limit in bytes.
func (s ServerConfig) MaxUploadBytes() int64 {
	mb := s.MaxUploadMB
	if mb <= 0 {
		mb = DefaultMaxUploadMB
	}
	return int64(mb) << 20
}

// Config holds all CLI configuration options.
type Config struct {
	RulesPath     string         `koanf:"rules_path" json:"rules_path"`
	Guidelines    []string       `koanf:"guidelines" json:"guidelines"`
	GuidelinesDir string         `koanf:"guidelines_dir" json:"guidelines_dir"`
	KBCache       string         `koanf:"kb_cache" json:"kb_cache"`
	Verbose       bool           `koanf:"verbose" json:"verbose"`
	OutputFormat  string         `koanf:"output" json:"output"`
	Server        ServerConfig   `koanf:"server" json:"server"`
	Embeddings    kb.EmbedConfig `koanf:"embeddings" json:"embeddings"`

	// ProjectRoot is the directory relative paths are resolved against.
	// Set by the loader, never read from the file.
	ProjectRoot string `koanf:"-" json:"project_root"`
}

// DefaultConfig returns the configuration used when nothing is loaded.
func DefaultConfig() *Config {
	return &Config{
		RulesPath:     DefaultRulesPath,
		GuidelinesDir: DefaultGuidelinesDir,
		KBCache:       DefaultKBCache,
		OutputFormat:  DefaultOutput,
		Server: ServerConfig{
			Host:        DefaultHost,
			Port:        DefaultPort,
			MaxUploadMB: DefaultMaxUploadMB,
		},
	}
}

// GuidelinePaths lists the guideline files to load: explicit files first,
// then the supported files in GuidelinesDir.
func (c *Config) GuidelinePaths() []string {
	return kb.GuidelinePaths(c.GuidelinesDir, c.Guidelines)
}
