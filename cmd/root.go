package cmd

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"mangadex-dl/internal/archiver"
	"mangadex-dl/internal/buildinfo"
	"mangadex-dl/internal/cache"
	"mangadex-dl/internal/config"
	"mangadex-dl/internal/domain"
	"mangadex-dl/internal/logger"
	"mangadex-dl/internal/report"
	"mangadex-dl/internal/source"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var rootCmd = &cobra.Command{
	Use:   "mangadex-dl",
	Short: "Download manga chapters from MangaDex into CBZ or PDF archives.",
	Long: `Download manga chapters from MangaDex into CBZ or PDF archives.

Downloaded chapters are recorded in a cache file, so running the same
series again only fetches chapters that are new since the last run.

Provide a configuration file using one of the following methods:
1. Use the --config <path> or -c <path> flag.
2. Place a config.yaml file in the current directory.
3. Place a config.yaml file in the default user configuration directory (e.g., ~/.config/mangadex-dl/).
4. Place a config.yaml file a folder inside your home directory (e.g., ~/.mangadex-dl/).

Command line flags take precedence over the config file.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	initRootFlags()
	initDownloadFlags()

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(downloadCmd)
	rootCmd.AddCommand(coversCmd)
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGHUP, syscall.SIGINT, syscall.SIGQUIT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

// setup reads the config, applies command line flags on top and builds the
// archiver together with the logger it reports to.
func setup(flags *pflag.FlagSet) (*archiver.Archiver, logger.Logger, error) {
	cfg, err := config.New(configPath, buildinfo.Version)
	if err != nil {
		return nil, nil, err
	}

	log := logger.New(cfg.Config)

	if err := cfg.UpdateConfig(); err != nil {
		log.Error().Err(err).Msg("error updating config")
	}

	// after UpdateConfig, so the flags are not written to the config file
	switch {
	case debug:
		log.SetLogLevel("DEBUG")
	case verbose:
		log.SetLogLevel("INFO")
	}

	cfg.DynamicReload(log)

	opts, err := options(cfg.Config, flags)
	if err != nil {
		return nil, log, err
	}

	var archiverOpts []archiver.Option
	sourceOpts := []source.Option{
		source.WithLanguage(opts.Language),
		source.WithDataSaver(opts.DataSaver),
	}

	if opts.Report {
		reporter := report.New(log.With().Logger(), "")
		sourceOpts = append(sourceOpts, source.WithReporter(reporter))
		archiverOpts = append(archiverOpts, archiver.WithReporter(reporter))
	}

	src := source.NewMangadex(log.With().Logger(), sourceOpts...)
	c := cache.New(opts.CacheFile, log.With().Logger())

	log.Debug().Str("cache", opts.CacheFile).Str("out", opts.OutputDirectory).Msgf("mangadex-dl %s", buildinfo.Version)

	return archiver.New(src, c, opts, log.With().Logger(), archiverOpts...), log, nil
}

// options merges the config with the flags that were set explicitly.
func options(cfg *domain.Config, flags *pflag.FlagSet) (domain.Options, error) {
	opts := domain.Options{
		OutputDirectory: cfg.OutputDirectory,
		CacheFile:       cfg.CacheFile,
		Language:        cfg.Language,
		Workers:         cfg.Workers,
		Format:          domain.Format(cfg.Format),
		Report:          cfg.Report,
		DataSaver:       cfg.DataSaver,
		Chapters:        chapterNumbers,
		Override:        override,
		DownloadCover:   downloadCover,
		ProgressBars:    progressBars,
	}

	if flags.Changed("out-directory") {
		opts.OutputDirectory = outDirectory
	}
	if flags.Changed("cache-file") {
		opts.CacheFile = cacheFile
	}
	if flags.Changed("language") {
		opts.Language = language
	}
	if flags.Changed("workers") && workers > 0 {
		opts.Workers = workers
	}
	if flags.Changed("format") {
		opts.Format = domain.Format(strings.ToLower(format))
	}
	if flags.Changed("report") {
		opts.Report = sendReports
	}
	if flags.Changed("data-saver") {
		opts.DataSaver = dataSaver
	}

	switch opts.Format {
	case domain.FormatCBZ, domain.FormatPDF:
	default:
		return opts, errors.Errorf("unknown archive format %q, use cbz or pdf", opts.Format)
	}

	return opts, nil
}
