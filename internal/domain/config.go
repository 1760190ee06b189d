package domain

type Config struct {
	Version         string
	ConfigPath      string
	OutputDirectory string `yaml:"outputDirectory"`
	CacheFile       string `yaml:"cacheFile"`
	Language        string `yaml:"language"`
	Workers         int    `yaml:"workers"`
	DataSaver       bool   `yaml:"dataSaver"`
	Report          bool   `yaml:"report"`
	Format          string `yaml:"format"`
	LogPath         string `yaml:"logPath"`
	LogLevel        string `yaml:"logLevel"`
	LogMaxSize      int    `yaml:"logMaxSize"` // in megabytes
	LogMaxBackups   int    `yaml:"logMaxBackups"`
}

// Options controls a single archiver run. It is assembled from Config and
// command line flags.
type Options struct {
	OutputDirectory string
	CacheFile       string
	Language        string
	Workers         int
	Format          Format
	Chapters        string
	Override        bool
	DownloadCover   bool
	ProgressBars    bool
	Report          bool
	DataSaver       bool
}

type Format string

const (
	FormatCBZ Format = "cbz"
	FormatPDF Format = "pdf"
)

const DefaultWorkers = 5
