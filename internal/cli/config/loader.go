package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	intconfig "github.com/leapstack-labs/leapcheck/internal/config"
)

// EnvPrefix is the prefix of environment variables read into the config.
// A double underscore separates nested keys: LEAPCHECK_SERVER__PORT.
const EnvPrefix = "LEAPCHECK_"

// loggerKey is used to store logger in context.
// This key is shared with root.go via both using the same type.
type loggerKey struct{}

// maxUpwardSearchLevels limits how far up the directory tree to search for config files.
const maxUpwardSearchLevels = 10

// Package-level koanf instance and config file tracking
var (
	k              = koanf.New(".")
	configFileUsed string
	currentConfig  *Config // Stores the loaded config for access by commands
)

// flagKeys maps flag names to config keys where they differ from the
// snake_case form of the flag name.
var flagKeys = map[string]string{
	"rules":          "rules_path",
	"guideline":      "guidelines",
	"host":           "server.host",
	"port":           "server.port",
	"max-upload-mb":  "server.max_upload_mb",
	"watch":          "server.watch",
	"embed-provider": "embeddings.provider",
}

// findConfigFile finds the config file to use.
// Priority: explicit path > leapcheck.yaml > leapcheck.yml
func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	for _, name := range []string{intconfig.ConfigFileName, intconfig.ConfigFileNameAlt} {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}

// configExistsIn checks if a leapcheck config file exists in the directory.
func configExistsIn(dir string) bool {
	return intconfig.FindConfigFile(dir) != ""
}

// findProjectRootUpward searches upward from startDir for a leapcheck config file.
// Returns empty string if not found within maxUpwardSearchLevels.
func findProjectRootUpward(startDir string) string {
	dir := startDir
	for range maxUpwardSearchLevels {
		if configExistsIn(dir) {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached filesystem root
			break
		}
		dir = parent
	}
	return ""
}

// inferProjectRoot determines the project root from CLI flags and filesystem.
// Priority:
//  1. Explicit --project-dir flag
//  2. Search upward from CWD for leapcheck.yaml
//  3. Current working directory
func inferProjectRoot(flags *pflag.FlagSet) string {
	if flags != nil && flags.Lookup("project-dir") != nil {
		if projectDir, _ := flags.GetString("project-dir"); projectDir != "" && flags.Changed("project-dir") {
			abs, err := filepath.Abs(projectDir)
			if err == nil {
				return abs
			}
			return filepath.Clean(projectDir)
		}
	}

	if cwd, err := os.Getwd(); err == nil {
		if root := findProjectRootUpward(cwd); root != "" {
			return root
		}
	}

	cwd, _ := os.Getwd()
	if cwd == "" {
		cwd = "."
	}
	return cwd
}

// resolvePathRelativeTo resolves a path relative to baseDir if it's not absolute.
// Returns the path unchanged if it's empty or already absolute.
func resolvePathRelativeTo(path, baseDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}

// ResetConfig resets the koanf instance. Used for testing.
func ResetConfig() {
	k = koanf.New(".")
	configFileUsed = ""
	currentConfig = nil
}

// LoadConfig loads configuration from file, environment variables, and flags.
// Precedence (highest to lowest): flags > env vars > config file > defaults
//
// Paths given as flags are relative to the working directory; paths from
// the file, environment or defaults are relative to the project root.
func LoadConfig(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	// Reset koanf for fresh load
	k = koanf.New(".")

	projectRoot := inferProjectRoot(flags)

	// An explicit config file anchors the project unless --project-dir was given.
	if cfgFile != "" && !flagChanged(flags, "project-dir") {
		if absPath, err := filepath.Abs(cfgFile); err == nil {
			projectRoot = filepath.Dir(absPath)
		}
	}

	// 1. Load defaults
	if err := k.Load(confmap.Provider(map[string]interface{}{
		"rules_path":           DefaultRulesPath,
		"guidelines_dir":       DefaultGuidelinesDir,
		"kb_cache":             DefaultKBCache,
		"verbose":              false,
		"output":               DefaultOutput,
		"server.host":          DefaultHost,
		"server.port":          DefaultPort,
		"server.max_upload_mb": DefaultMaxUploadMB,
		"server.watch":         false,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Find and load config file
	if cfgFile == "" {
		cfgFile = intconfig.FindConfigFile(projectRoot)
	}
	configFileUsed = findConfigFile(cfgFile)
	if configFileUsed != "" {
		if err := k.Load(file.Provider(configFileUsed), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", configFileUsed, err)
		}
	}

	// 3. Load environment variables (LEAPCHECK_ prefix)
	// Transform: LEAPCHECK_SERVER__MAX_UPLOAD_MB -> server.max_upload_mb
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Load flags (highest priority - overrides env vars and config file)
	flagPaths := make(map[string]string)
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			// Only load flags that were explicitly set
			if !f.Changed {
				return "", nil
			}
			key := flagKey(f.Name)
			if v, ok := flagPathValue(key, f); ok {
				flagPaths[key] = v
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	// 5. Unmarshal into Config struct
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{
		DecoderConfig: &mapstructure.DecoderConfig{
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				mapstructure.StringToSliceHookFunc(","),
			),
			Result:           &cfg,
			WeaklyTypedInput: true,
		},
	}); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// 6. Set project root and resolve relative paths
	cfg.ProjectRoot = projectRoot
	resolvePaths(&cfg, projectRoot, flagPaths, flagChanged(flags, "guideline"))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// Store config for access by commands
	currentConfig = &cfg

	return &cfg, nil
}

func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

func flagKey(name string) string {
	if key, ok := flagKeys[name]; ok {
		return key
	}
	// Transform kebab-case to snake_case for config keys
	return strings.ReplaceAll(name, "-", "_")
}

func flagChanged(flags *pflag.FlagSet, name string) bool {
	return flags != nil && flags.Lookup(name) != nil && flags.Changed(name)
}

// flagPathValue returns the absolute form of a path-valued flag.
func flagPathValue(key string, f *pflag.Flag) (string, bool) {
	switch key {
	case "rules_path", "guidelines_dir", "kb_cache":
	default:
		return "", false
	}
	v := f.Value.String()
	if v == "" {
		return "", false
	}
	abs, err := filepath.Abs(v)
	if err != nil {
		return v, true
	}
	return abs, true
}

func resolvePaths(cfg *Config, projectRoot string, flagPaths map[string]string, guidelinesFromFlag bool) {
	resolve := func(key, path string) string {
		if v, ok := flagPaths[key]; ok {
			return v
		}
		return resolvePathRelativeTo(intconfig.ExpandEnvVars(path), projectRoot)
	}
	cfg.RulesPath = resolve("rules_path", cfg.RulesPath)
	cfg.GuidelinesDir = resolve("guidelines_dir", cfg.GuidelinesDir)
	if cfg.KBCache != ":memory:" {
		cfg.KBCache = resolve("kb_cache", cfg.KBCache)
	}

	for i, g := range cfg.Guidelines {
		g = intconfig.ExpandEnvVars(g)
		if guidelinesFromFlag {
			if abs, err := filepath.Abs(g); err == nil {
				cfg.Guidelines[i] = abs
				continue
			}
		}
		cfg.Guidelines[i] = resolvePathRelativeTo(g, projectRoot)
	}
}

// Validate checks values that cannot be fixed up silently.
func (c *Config) Validate() error {
	switch strings.ToLower(c.OutputFormat) {
	case "", "auto", "text", "markdown", "md", "json":
	default:
		return fmt.Errorf("invalid output format %q (want auto, text, markdown or json)", c.OutputFormat)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.Server.MaxUploadMB < 0 {
		return fmt.Errorf("invalid max_upload_mb %d", c.Server.MaxUploadMB)
	}
	return nil
}

// GetConfigFileUsed returns the path to the config file being used, if any.
func GetConfigFileUsed() string {
	return configFileUsed
}

// GetCurrentConfig returns the currently loaded configuration.
// This is available after LoadConfig is called.
func GetCurrentConfig() *Config {
	return currentConfig
}

// LoggerKey returns the context key used for storing the logger.
// This allows the commands package to retrieve the logger from context
// without creating an import cycle with the cli package.
func LoggerKey() interface{} {
	return loggerKey{}
}

// GetLogger retrieves the logger from the command context.
func GetLogger(ctx context.Context) *slog.Logger {
	if ctx == nil {
		return slog.New(slog.DiscardHandler)
	}
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	// Return discard logger as safe fallback
	return slog.New(slog.DiscardHandler)
}
