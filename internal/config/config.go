package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"mangadex-dl/internal/domain"
	"mangadex-dl/internal/logger"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const (
	configFile = "config.yaml"
	envPrefix  = "MANGADEXDL__"
)

var configTemplate = `# config.yaml

# Output Directory
# Series are saved as sub directories of this directory
#
# Default: "./mangadex-dl"
#
outputDirectory: "./mangadex-dl"

# Cache File
# Keeps track of every downloaded chapter, so runs only fetch new chapters
#
# Default: "$HOME/.cache/mangadex-dl/downloaded.json"
#
#cacheFile: ""

# Translation Language
# Language code of the chapters to download
#
# Default: "en"
#
language: "en"

# Workers
# Number of pages and chapter lookups fetched at the same time
#
# Default: 5
#
workers: 5

# Data Saver
# Download compressed pages instead of the originals
#
# Default: false
#
dataSaver: false

# Report
# Send MangaDex@Home server health reports to MangaDex
#
# Default: false
#
report: false

# Archive Format
#
# Default: "cbz"
#
# Options: "cbz", "pdf"
#
format: "cbz"

# mangadex-dl logs file
# If not defined, logs to stderr
# Make sure to use forward slashes and include the filename with extension. e.g. "logs/mangadex-dl.log"
#
# Optional
#
#logPath: ""

# Log level
#
# Default: "WARN"
#
# Options: "ERROR", "WARN", "INFO", "DEBUG", "TRACE"
#
logLevel: "WARN"

# Log Max Size
#
# Default: 50
#
# Max log size in megabytes
#
#logMaxSize: 50

# Log Max Backups
#
# Default: 3
#
# Max amount of old log files
#
#logMaxBackups: 3
`

// DefaultCacheFile is where downloaded chapter ids are recorded when no
// cache file is configured.
func DefaultCacheFile() string {
	return os.ExpandEnv(filepath.Join("$HOME", ".cache", "mangadex-dl", "downloaded.json"))
}

func writeConfig(configPath string, configFile string) error {
	cfgPath := filepath.Join(configPath, configFile)

	// check if configPath exists, if not create it
	if _, err := os.Stat(configPath); errors.Is(err, os.ErrNotExist) {
		if err := os.MkdirAll(configPath, os.ModePerm); err != nil {
			return err
		}
	}

	// check if config exists, if not create it
	if _, err := os.Stat(cfgPath); errors.Is(err, os.ErrNotExist) {
		f, err := os.Create(cfgPath)
		if err != nil {
			return errors.Wrap(err, "error creating file")
		}
		defer f.Close()

		if _, err = f.WriteString(configTemplate); err != nil {
			return errors.Wrapf(err, "error writing contents to file: %s", cfgPath)
		}

		return f.Sync()
	}

	return nil
}

type Config interface {
	UpdateConfig() error
	DynamicReload(log logger.Logger)
}

type AppConfig struct {
	Config *domain.Config
	v      *viper.Viper
	m      *sync.Mutex
}

// New reads the config file in configPath, writing a commented default there
// first if it is missing. With an empty configPath the usual config
// directories are searched and a missing file is not an error. Environment
// variables prefixed with MANGADEXDL__ override file values.
func New(configPath string, version string) (*AppConfig, error) {
	c := &AppConfig{
		v: viper.New(),
		m: new(sync.Mutex),
	}
	c.defaults()
	c.Config = &domain.Config{
		Version:    version,
		ConfigPath: configPath,
	}

	if err := c.load(configPath); err != nil {
		return nil, err
	}
	c.loadFromEnv()

	if c.Config.CacheFile == "" {
		c.Config.CacheFile = DefaultCacheFile()
	}

	if err := c.validate(); err != nil {
		return nil, err
	}

	return c, nil
}

func (c *AppConfig) defaults() {
	c.v.SetDefault("outputDirectory", "./mangadex-dl")
	c.v.SetDefault("cacheFile", "")
	c.v.SetDefault("language", "en")
	c.v.SetDefault("workers", domain.DefaultWorkers)
	c.v.SetDefault("dataSaver", false)
	c.v.SetDefault("report", false)
	c.v.SetDefault("format", string(domain.FormatCBZ))
	c.v.SetDefault("logPath", "")
	c.v.SetDefault("logLevel", "WARN")
	c.v.SetDefault("logMaxSize", 50)
	c.v.SetDefault("logMaxBackups", 3)
}

func (c *AppConfig) loadFromEnv() {
	envs := os.Environ()
	for _, env := range envs {
		if strings.HasPrefix(env, envPrefix) {
			envPair := strings.SplitN(env, "=", 2)

			if envPair[1] != "" {
				switch envPair[0] {
				case envPrefix + "OUTPUT_DIRECTORY":
					c.Config.OutputDirectory = envPair[1]
				case envPrefix + "CACHE_FILE":
					c.Config.CacheFile = envPair[1]
				case envPrefix + "LANGUAGE":
					c.Config.Language = envPair[1]
				case envPrefix + "WORKERS":
					if i, _ := strconv.ParseInt(envPair[1], 10, 32); i > 0 {
						c.Config.Workers = int(i)
					}
				case envPrefix + "DATA_SAVER":
					if b, err := strconv.ParseBool(envPair[1]); err == nil {
						c.Config.DataSaver = b
					}
				case envPrefix + "REPORT":
					if b, err := strconv.ParseBool(envPair[1]); err == nil {
						c.Config.Report = b
					}
				case envPrefix + "FORMAT":
					c.Config.Format = envPair[1]
				case envPrefix + "LOG_LEVEL":
					c.Config.LogLevel = envPair[1]
				case envPrefix + "LOG_PATH":
					c.Config.LogPath = envPair[1]
				case envPrefix + "LOG_MAX_SIZE":
					if i, _ := strconv.ParseInt(envPair[1], 10, 32); i > 0 {
						c.Config.LogMaxSize = int(i)
					}
				case envPrefix + "LOG_MAX_BACKUPS":
					if i, _ := strconv.ParseInt(envPair[1], 10, 32); i > 0 {
						c.Config.LogMaxBackups = int(i)
					}
				}
			}
		}
	}
}

func (c *AppConfig) load(configPath string) error {
	c.v.SetConfigType("yaml")

	if configPath != "" {
		// clean trailing slash from configPath
		configPath = filepath.Clean(configPath)

		// check if path and file exists
		// if not, create path and file
		if err := writeConfig(configPath, configFile); err != nil {
			return errors.Wrap(err, "could not write default config")
		}

		c.v.SetConfigFile(filepath.Join(configPath, configFile))
	} else {
		c.v.SetConfigName("config")

		// Search config in directories
		c.v.AddConfigPath(".")
		c.v.AddConfigPath("$HOME/.config/mangadex-dl")
		c.v.AddConfigPath("$HOME/.mangadex-dl")
	}

	// read config
	if err := c.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return errors.Wrap(err, "config read error")
		}
	}

	if err := c.v.Unmarshal(c.Config); err != nil {
		return errors.Wrapf(err, "could not unmarshal config file: %s", c.v.ConfigFileUsed())
	}

	return nil
}

func (c *AppConfig) validate() error {
	switch domain.Format(strings.ToLower(c.Config.Format)) {
	case domain.FormatCBZ, domain.FormatPDF:
		c.Config.Format = strings.ToLower(c.Config.Format)
	default:
		return errors.Errorf("unknown archive format %q, use cbz or pdf", c.Config.Format)
	}

	if c.Config.Workers <= 0 {
		c.Config.Workers = domain.DefaultWorkers
	}

	return nil
}

// ConfigFileUsed returns the path of the config file that was read, if any.
func (c *AppConfig) ConfigFileUsed() string {
	return c.v.ConfigFileUsed()
}

// DynamicReload applies log level and log path changes to the running
// process whenever the config file is written.
func (c *AppConfig) DynamicReload(log logger.Logger) {
	if c.v.ConfigFileUsed() == "" {
		return
	}

	c.v.OnConfigChange(func(_ fsnotify.Event) {
		c.m.Lock()
		defer c.m.Unlock()

		logLevel := c.v.GetString("logLevel")
		c.Config.LogLevel = logLevel
		log.SetLogLevel(c.Config.LogLevel)

		logPath := c.v.GetString("logPath")
		c.Config.LogPath = logPath

		log.Debug().Msg("config file reloaded!")
	})

	c.v.WatchConfig()
}

// UpdateConfig writes the current log level and log path back to the config
// file, adding the settings when the file predates them.
func (c *AppConfig) UpdateConfig() error {
	if c.Config.ConfigPath == "" {
		return nil
	}

	filePath := filepath.Join(c.Config.ConfigPath, configFile)

	f, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("could not read config filePath: %s: %w", filePath, err)
	}

	lines := strings.Split(string(f), "\n")
	lines = c.processLines(lines)

	output := strings.Join(lines, "\n")
	if err := os.WriteFile(filePath, []byte(output), 0o644); err != nil {
		return fmt.Errorf("could not write config file: %s: %w", filePath, err)
	}

	return nil
}

func (c *AppConfig) processLines(lines []string) []string {
	// keep track of not found values to append at bottom
	var (
		foundLineLogLevel = false
		foundLineLogPath  = false
	)

	for i, line := range lines {
		if !foundLineLogLevel && strings.Contains(line, "logLevel:") && !strings.HasPrefix(strings.TrimSpace(line), "# ") {
			lines[i] = fmt.Sprintf(`logLevel: "%s"`, c.Config.LogLevel)
			foundLineLogLevel = true
		}
		if !foundLineLogPath && strings.Contains(line, "logPath:") && !strings.HasPrefix(strings.TrimSpace(line), "# ") {
			if c.Config.LogPath == "" {
				lines[i] = `#logPath: ""`
			} else {
				lines[i] = fmt.Sprintf(`logPath: "%s"`, c.Config.LogPath)
			}
			foundLineLogPath = true
		}
	}

	if !foundLineLogLevel {
		lines = append(lines, "# Log level")
		lines = append(lines, "#")
		lines = append(lines, `# Default: "WARN"`)
		lines = append(lines, "#")
		lines = append(lines, `# Options: "ERROR", "WARN", "INFO", "DEBUG", "TRACE"`)
		lines = append(lines, "#")
		lines = append(lines, fmt.Sprintf(`logLevel: "%s"`, c.Config.LogLevel))
	}

	if !foundLineLogPath {
		lines = append(lines, "# Log Path")
		lines = append(lines, "#")
		lines = append(lines, "# Optional")
		lines = append(lines, "#")
		if c.Config.LogPath == "" {
			lines = append(lines, `#logPath: ""`)
		} else {
			lines = append(lines, fmt.Sprintf(`logPath: "%s"`, c.Config.LogPath))
		}
	}

	return lines
}
