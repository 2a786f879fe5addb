package config

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "leapcheck.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func newFlagSet() *pflag.FlagSet {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("project-dir", "", "project directory")
	flags.String("rules", "", "rules file")
	flags.StringSlice("guideline", nil, "guideline file")
	flags.String("kb-cache", "", "kb cache")
	flags.Int("port", 0, "port")
	flags.BoolP("verbose", "v", false, "verbose")
	flags.StringP("output", "o", "", "output")
	return flags
}

func TestLoadConfig_Defaults(t *testing.T) {
	ResetConfig()
	dir := t.TempDir()

	flags := newFlagSet()
	require.NoError(t, flags.Set("project-dir", dir))

	cfg, err := LoadConfig("", flags)
	require.NoError(t, err)

	assert.Equal(t, dir, cfg.ProjectRoot)
	assert.Equal(t, filepath.Join(dir, DefaultRulesPath), cfg.RulesPath)
	assert.Equal(t, filepath.Join(dir, DefaultGuidelinesDir), cfg.GuidelinesDir)
	assert.Equal(t, filepath.Join(dir, DefaultKBCache), cfg.KBCache)
	assert.Equal(t, DefaultOutput, cfg.OutputFormat)
	assert.Equal(t, DefaultPort, cfg.Server.Port)
	assert.Equal(t, DefaultMaxUploadMB, cfg.Server.MaxUploadMB)
	assert.Empty(t, GetConfigFileUsed())
	assert.Same(t, cfg, GetCurrentConfig())
}

func TestLoadConfig_FileRelativeToProjectRoot(t *testing.T) {
	ResetConfig()
	dir := t.TempDir()
	cfgPath := writeConfig(t, dir, `rules_path: rules/custom.yml
guidelines:
  - docs/gmp.md
server:
  port: 9090
  watch: true
embeddings:
  provider: hash
  hash_dims: 256
`)

	cfg, err := LoadConfig(cfgPath, nil)
	require.NoError(t, err)

	assert.Equal(t, cfgPath, GetConfigFileUsed())
	assert.Equal(t, filepath.Join(dir, "rules/custom.yml"), cfg.RulesPath)
	assert.Equal(t, []string{filepath.Join(dir, "docs/gmp.md")}, cfg.Guidelines)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.True(t, cfg.Server.Watch)
	assert.Equal(t, "hash", cfg.Embeddings.Provider)
	assert.Equal(t, 256, cfg.Embeddings.HashDims)
}

func TestLoadConfig_FlagPrecedence(t *testing.T) {
	ResetConfig()
	dir := t.TempDir()
	cfgPath := writeConfig(t, dir, "server:\n  port: 9090\n")
	t.Setenv("LEAPCHECK_SERVER__PORT", "9191")

	flags := newFlagSet()
	require.NoError(t, flags.Set("port", "9292"))

	cfg, err := LoadConfig(cfgPath, flags)
	require.NoError(t, err)

	assert.Equal(t, 9292, cfg.Server.Port, "flag value should override config file and env var")
}

func TestLoadConfig_EnvPrecedenceOverFile(t *testing.T) {
	ResetConfig()
	dir := t.TempDir()
	cfgPath := writeConfig(t, dir, "server:\n  port: 9090\noutput: text\n")
	t.Setenv("LEAPCHECK_SERVER__PORT", "9191")
	t.Setenv("LEAPCHECK_OUTPUT", "json")

	cfg, err := LoadConfig(cfgPath, newFlagSet())
	require.NoError(t, err)

	assert.Equal(t, 9191, cfg.Server.Port)
	assert.Equal(t, "json", cfg.OutputFormat)
}

func TestLoadConfig_EnvGuidelineList(t *testing.T) {
	ResetConfig()
	dir := t.TempDir()
	t.Setenv("LEAPCHECK_GUIDELINES", "a.md,b.txt")

	flags := newFlagSet()
	require.NoError(t, flags.Set("project-dir", dir))

	cfg, err := LoadConfig("", flags)
	require.NoError(t, err)

	assert.Equal(t, []string{filepath.Join(dir, "a.md"), filepath.Join(dir, "b.txt")}, cfg.Guidelines)
}

func TestLoadConfig_PathFlagsRelativeToWorkingDir(t *testing.T) {
	ResetConfig()
	project := t.TempDir()
	cwd := t.TempDir()
	t.Chdir(cwd)

	flags := newFlagSet()
	require.NoError(t, flags.Set("project-dir", project))
	require.NoError(t, flags.Set("rules", "my-rules.yml"))
	require.NoError(t, flags.Set("guideline", "g1.md,g2.md"))
	require.NoError(t, flags.Set("kb-cache", ":memory:"))

	cfg, err := LoadConfig("", flags)
	require.NoError(t, err)

	wd, err := os.Getwd()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(wd, "my-rules.yml"), cfg.RulesPath)
	assert.Equal(t, []string{filepath.Join(wd, "g1.md"), filepath.Join(wd, "g2.md")}, cfg.Guidelines)
	assert.Equal(t, ":memory:", cfg.KBCache)
	assert.Equal(t, filepath.Join(project, DefaultGuidelinesDir), cfg.GuidelinesDir)
}

func TestLoadConfig_FindsConfigUpward(t *testing.T) {
	ResetConfig()
	root := t.TempDir()
	writeConfig(t, root, "output: markdown\n")
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0750))
	t.Chdir(nested)

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)

	wantRoot, err := filepath.EvalSymlinks(root)
	require.NoError(t, err)
	gotRoot, err := filepath.EvalSymlinks(cfg.ProjectRoot)
	require.NoError(t, err)
	assert.Equal(t, wantRoot, gotRoot)
	assert.Equal(t, "markdown", cfg.OutputFormat)
}

func TestLoadConfig_InvalidOutput(t *testing.T) {
	ResetConfig()
	dir := t.TempDir()
	cfgPath := writeConfig(t, dir, "output: html\n")

	_, err := LoadConfig(cfgPath, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid output format")
}

func TestLoadConfig_BadYAML(t *testing.T) {
	ResetConfig()
	dir := t.TempDir()
	cfgPath := writeConfig(t, dir, "server: [unclosed\n")

	_, err := LoadConfig(cfgPath, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading config file")
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "server.max_upload_mb", envKey("LEAPCHECK_SERVER__MAX_UPLOAD_MB"))
	assert.Equal(t, "rules_path", envKey("LEAPCHECK_RULES_PATH"))
}

func TestFlagKey(t *testing.T) {
	assert.Equal(t, "rules_path", flagKey("rules"))
	assert.Equal(t, "server.port", flagKey("port"))
	assert.Equal(t, "guidelines_dir", flagKey("guidelines-dir"))
	assert.Equal(t, "verbose", flagKey("verbose"))
}

func TestServerConfig_MaxUploadBytes(t *testing.T) {
	assert.Equal(t, int64(128<<20), ServerConfig{}.MaxUploadBytes())
	assert.Equal(t, int64(1<<20), ServerConfig{MaxUploadMB: 1}.MaxUploadBytes())
}

func TestConfig_GuidelinePaths(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.md"), []byte("b"), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("a"), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "skip.pdf"), []byte("x"), 0600))

	cfg := &Config{GuidelinesDir: dir, Guidelines: []string{"/extra/first.md"}}
	assert.Equal(t, []string{
		"/extra/first.md",
		filepath.Join(dir, "a.txt"),
		filepath.Join(dir, "b.md"),
	}, cfg.GuidelinePaths())
}

func TestGetLogger(t *testing.T) {
	logger := slog.New(slog.DiscardHandler)
	ctx := context.WithValue(context.Background(), LoggerKey(), logger)
	assert.Same(t, logger, GetLogger(ctx))
	assert.NotNil(t, GetLogger(context.Background()))
}
