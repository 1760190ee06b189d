package download

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"mangadex-dl/internal/domain"
	"mangadex-dl/internal/files"
	"mangadex-dl/internal/imaging"
	"mangadex-dl/internal/progress"
	"mangadex-dl/internal/sanitize"
	"mangadex-dl/internal/utils"

	"github.com/avast/retry-go"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const (
	PageAttempts     = 5
	DefaultPageDelay = time.Second
)

// Committer records a finished chapter.
type Committer interface {
	Commit(seriesID, chapterID string) error
}

type Config struct {
	OutputDirectory string
	Format          domain.Format
	Workers         int
	// Override downloads without recording chapters in the cache.
	Override     bool
	ProgressBars bool
	// PageDelay is the pause between attempts of a page download.
	PageDelay time.Duration
}

// Pipeline turns a chapter into an archive in the series directory.
type Pipeline struct {
	pages domain.PageFetcher
	cache Committer
	cfg   Config
	log   zerolog.Logger
	now   func() time.Time
}

func NewPipeline(pages domain.PageFetcher, cache Committer, cfg Config, log zerolog.Logger) *Pipeline {
	if cfg.Workers <= 0 {
		cfg.Workers = domain.DefaultWorkers
	}

	if cfg.Format == "" {
		cfg.Format = domain.FormatCBZ
	}

	return &Pipeline{
		pages: pages,
		cache: cache,
		cfg:   cfg,
		log:   log.With().Str("module", "download").Logger(),
		now:   time.Now,
	}
}

// SeriesDirectory is where the archives of a series are written.
func SeriesDirectory(outputDir string, series domain.SeriesInfo) string {
	return filepath.Join(outputDir, sanitize.Filename(series.Title))
}

// ChapterPath is the archive path of a chapter without its extension.
func ChapterPath(outputDir string, series domain.SeriesInfo, chapter domain.ChapterInfo) (string, error) {
	name, err := utils.ChapterDirectory(chapter.Number, chapter.Title)
	if err != nil {
		return "", errors.Wrapf(domain.ErrIncompleteMetadata, "chapter %s: %v", chapter.ID, err)
	}

	return filepath.Join(SeriesDirectory(outputDir, series), name), nil
}

// Run downloads every page of chapter, writes its ComicInfo.xml, packages the
// result and commits the chapter to the cache. The scratch directory is
// removed on every path.
func (p *Pipeline) Run(ctx context.Context, chapter domain.ChapterInfo, series domain.SeriesInfo) error {
	if err := validate(chapter, series); err != nil {
		return err
	}

	scratch, err := ChapterPath(p.cfg.OutputDirectory, series, chapter)
	if err != nil {
		return err
	}

	log := p.log.With().Str("chapter", chapter.ID).Str("path", scratch).Logger()

	defer func() {
		if err := os.RemoveAll(scratch); err != nil {
			log.Error().Err(err).Msg("could not remove scratch directory")
		}
	}()

	if err := os.MkdirAll(scratch, os.ModePerm); err != nil {
		return err
	}

	urls, err := p.pages.FetchPageURLs(ctx, chapter.ID)
	if err != nil {
		return err
	}

	log.Info().Msgf("downloading %d pages", len(urls))

	if err := p.downloadPages(ctx, scratch, urls, fmt.Sprintf("%s %s", utils.FormatNumber(chapter.Number), chapter.Title)); err != nil {
		return err
	}

	if err := files.WriteComicInfo(scratch, files.NewComicInfo(chapter, series, p.now())); err != nil {
		return errors.Wrapf(domain.ErrComicInfo, "%s: %v", scratch, err)
	}

	archive, err := p.pack(scratch)
	if err != nil {
		return errors.Wrapf(domain.ErrArchive, "%s: %v", scratch, err)
	}

	if err := os.RemoveAll(scratch); err != nil {
		return errors.Wrapf(domain.ErrArchive, "remove %s: %v", scratch, err)
	}

	if !p.cfg.Override {
		if err := p.cache.Commit(series.ID, chapter.ID); err != nil {
			return err
		}
	}

	log.Info().Str("archive", archive).Msg("chapter archived")

	return nil
}

func (p *Pipeline) pack(scratch string) (string, error) {
	switch p.cfg.Format {
	case domain.FormatPDF:
		return files.CreatePDF(scratch)
	default:
		return files.CreateCbzArchive(scratch)
	}
}

// downloadPages saves pages as 001.jpg, 002.jpg, ... in url order.
func (p *Pipeline) downloadPages(ctx context.Context, dir string, urls []string, description string) error {
	bar := progress.New(p.cfg.ProgressBars, len(urls), description)
	defer bar.Finish()

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.Workers)

	for i, url := range urls {
		i, url := i, url
		g.Go(func() error {
			path := filepath.Join(dir, fmt.Sprintf("%03d.jpg", i+1))

			if err := p.downloadPage(ctx, url, path); err != nil {
				return err
			}

			bar.Increment()
			return nil
		})
	}

	return g.Wait()
}

// downloadPage fetches url and stores it at path as a jpeg no taller than
// imaging.PageHeight. Every attempt starts from scratch.
func (p *Pipeline) downloadPage(ctx context.Context, url, path string) error {
	return SaveImage(ctx, p.pages, url, path, imaging.PageHeight, p.cfg.PageDelay, p.log)
}

// SaveImage downloads, transforms and writes one image, trying up to
// PageAttempts times.
func SaveImage(ctx context.Context, fetcher domain.PageFetcher, url, path string, maxHeight int, delay time.Duration, log zerolog.Logger) error {
	err := retry.Do(func() error {
		if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
			return err
		}

		out, err := fetchTransformed(ctx, fetcher, url, maxHeight)
		if err != nil {
			return err
		}

		return os.WriteFile(path, out, 0o644)
	}, retryOptions(ctx, url, delay, log)...)
	if err != nil {
		return errors.Wrapf(domain.ErrFailedImage, "%s: %v", url, err)
	}

	return nil
}

// Image downloads and transforms one image without writing it, trying up to
// PageAttempts times.
func Image(ctx context.Context, fetcher domain.PageFetcher, url string, maxHeight int, delay time.Duration, log zerolog.Logger) ([]byte, error) {
	var out []byte

	err := retry.Do(func() error {
		var err error
		out, err = fetchTransformed(ctx, fetcher, url, maxHeight)
		return err
	}, retryOptions(ctx, url, delay, log)...)
	if err != nil {
		return nil, errors.Wrapf(domain.ErrFailedImage, "%s: %v", url, err)
	}

	return out, nil
}

func fetchTransformed(ctx context.Context, fetcher domain.PageFetcher, url string, maxHeight int) ([]byte, error) {
	data, err := fetcher.FetchImage(ctx, url)
	if err != nil {
		return nil, err
	}

	return imaging.Transform(data, maxHeight)
}

func retryOptions(ctx context.Context, url string, delay time.Duration, log zerolog.Logger) []retry.Option {
	return []retry.Option{
		retry.Context(ctx),
		retry.Attempts(PageAttempts),
		retry.Delay(delay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		// every failure is retried, including the statuses the http client marks as unrecoverable
		retry.RetryIf(func(error) bool { return ctx.Err() == nil }),
		retry.OnRetry(func(n uint, err error) {
			log.Debug().Err(err).Str("url", url).Msgf("image attempt %d failed", n+1)
		}),
	}
}

func validate(chapter domain.ChapterInfo, series domain.SeriesInfo) error {
	switch {
	case series.Title == "":
		return errors.Wrap(domain.ErrIncompleteMetadata, "series title is empty")
	case chapter.ID == "":
		return errors.Wrap(domain.ErrIncompleteMetadata, "chapter id is empty")
	case chapter.Title == "":
		return errors.Wrapf(domain.ErrIncompleteMetadata, "chapter %s has no title", chapter.ID)
	}

	return nil
}
