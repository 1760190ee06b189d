package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"mangadex-dl/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_WritesTemplate(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "config")

	cfg, err := New(dir, "1.2.3")
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(dir, configFile))
	assert.Equal(t, filepath.Join(dir, configFile), cfg.ConfigFileUsed())

	assert.Equal(t, "1.2.3", cfg.Config.Version)
	assert.Equal(t, "./mangadex-dl", cfg.Config.OutputDirectory)
	assert.Equal(t, DefaultCacheFile(), cfg.Config.CacheFile)
	assert.Equal(t, "en", cfg.Config.Language)
	assert.Equal(t, domain.DefaultWorkers, cfg.Config.Workers)
	assert.Equal(t, "cbz", cfg.Config.Format)
	assert.Equal(t, "WARN", cfg.Config.LogLevel)
	assert.Equal(t, 50, cfg.Config.LogMaxSize)
	assert.Equal(t, 3, cfg.Config.LogMaxBackups)
}

func TestNew_ReadsFile(t *testing.T) {
	dir := t.TempDir()
	content := `outputDirectory: "/data/manga"
cacheFile: "/data/cache.json"
language: "fr"
workers: 8
dataSaver: true
format: "PDF"
logLevel: "DEBUG"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, configFile), []byte(content), 0o644))

	cfg, err := New(dir, "dev")
	require.NoError(t, err)

	assert.Equal(t, "/data/manga", cfg.Config.OutputDirectory)
	assert.Equal(t, "/data/cache.json", cfg.Config.CacheFile)
	assert.Equal(t, "fr", cfg.Config.Language)
	assert.Equal(t, 8, cfg.Config.Workers)
	assert.True(t, cfg.Config.DataSaver)
	assert.Equal(t, "pdf", cfg.Config.Format)
	assert.Equal(t, "DEBUG", cfg.Config.LogLevel)
}

func TestNew_EnvOverrides(t *testing.T) {
	t.Setenv(envPrefix+"OUTPUT_DIRECTORY", "/env/out")
	t.Setenv(envPrefix+"WORKERS", "2")
	t.Setenv(envPrefix+"REPORT", "true")
	t.Setenv(envPrefix+"LOG_LEVEL", "TRACE")
	t.Setenv(envPrefix+"LOG_MAX_SIZE", "-1")

	cfg, err := New(t.TempDir(), "dev")
	require.NoError(t, err)

	assert.Equal(t, "/env/out", cfg.Config.OutputDirectory)
	assert.Equal(t, 2, cfg.Config.Workers)
	assert.True(t, cfg.Config.Report)
	assert.Equal(t, "TRACE", cfg.Config.LogLevel)
	assert.Equal(t, 50, cfg.Config.LogMaxSize)
}

func TestNew_InvalidFormat(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, configFile), []byte(`format: "epub"`), 0o644))

	_, err := New(dir, "dev")
	assert.Error(t, err)
}

func TestNew_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, configFile), []byte("workers: [1"), 0o644))

	_, err := New(dir, "dev")
	assert.Error(t, err)
}

func TestUpdateConfig(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, configFile), []byte("language: \"en\"\n"), 0o644))

	cfg, err := New(dir, "dev")
	require.NoError(t, err)

	cfg.Config.LogLevel = "INFO"
	cfg.Config.LogPath = "logs/mangadex-dl.log"
	require.NoError(t, cfg.UpdateConfig())

	content, err := os.ReadFile(filepath.Join(dir, configFile))
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(string(content), "language: \"en\"\n"))
	assert.Contains(t, string(content), `logLevel: "INFO"`)
	assert.Contains(t, string(content), `logPath: "logs/mangadex-dl.log"`)
}

func TestProcessLines(t *testing.T) {
	c := &AppConfig{Config: &domain.Config{LogLevel: "ERROR"}}

	lines := c.processLines(strings.Split(configTemplate, "\n"))
	output := strings.Join(lines, "\n")

	assert.Contains(t, output, `logLevel: "ERROR"`)
	assert.Equal(t, 1, strings.Count(output, `logLevel: "`))
	assert.Contains(t, output, `#logPath: ""`)
	assert.Contains(t, output, `# Default: "WARN"`)
}
