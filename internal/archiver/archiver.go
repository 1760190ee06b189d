package archiver

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"time"

	"mangadex-dl/internal/domain"
	"mangadex-dl/internal/download"
	"mangadex-dl/internal/files"
	"mangadex-dl/internal/imaging"
	"mangadex-dl/internal/parse"
	"mangadex-dl/internal/planner"
	"mangadex-dl/internal/progress"
	"mangadex-dl/internal/resource"
	"mangadex-dl/internal/utils"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Cache is the download cache as seen by a run.
type Cache interface {
	Ensure() error
	Commit(seriesID, chapterID string) error
	ChapterIDs() map[string]struct{}
}

// Reporter is started before a run and stopped once it returns.
type Reporter interface {
	Start(ctx context.Context)
	Stop()
}

type Archiver struct {
	source    domain.Source
	cache     Cache
	reporter  Reporter
	planner   *planner.Planner
	pipeline  *download.Pipeline
	opts      domain.Options
	pageDelay time.Duration
	log       zerolog.Logger
}

type Option func(*Archiver)

// WithReporter ties the lifetime of r to each run.
func WithReporter(r Reporter) Option {
	return func(a *Archiver) { a.reporter = r }
}

// WithPageDelay sets the pause between image download attempts.
func WithPageDelay(d time.Duration) Option {
	return func(a *Archiver) { a.pageDelay = d }
}

func New(src domain.Source, c Cache, opts domain.Options, log zerolog.Logger, options ...Option) *Archiver {
	if opts.Workers <= 0 {
		opts.Workers = domain.DefaultWorkers
	}

	a := &Archiver{
		source:    src,
		cache:     c,
		opts:      opts,
		pageDelay: download.DefaultPageDelay,
		log:       log.With().Str("module", "archiver").Logger(),
	}

	for _, option := range options {
		option(a)
	}

	a.planner = planner.New(src, opts.Workers, log)
	a.pipeline = download.NewPipeline(src, c, download.Config{
		OutputDirectory: opts.OutputDirectory,
		Format:          opts.Format,
		Workers:         opts.Workers,
		Override:        opts.Override,
		ProgressBars:    opts.ProgressBars,
		PageDelay:       a.pageDelay,
	}, log)

	return a
}

// Run downloads the series or chapter ref points to.
func (a *Archiver) Run(ctx context.Context, ref string) error {
	kind, id, err := resource.Resolve(ref)
	if err != nil {
		return err
	}

	return a.run(ctx, func(ctx context.Context) error {
		a.log.Debug().Str("id", id).Msgf("reference is a %s", kind)

		switch kind {
		case domain.ResourceChapter:
			return a.DownloadChapter(ctx, id)
		default:
			return a.DownloadSeries(ctx, id)
		}
	})
}

// RunCovers saves volume covers next to the already downloaded chapters of
// the series or chapter ref points to.
func (a *Archiver) RunCovers(ctx context.Context, ref string) error {
	kind, id, err := resource.Resolve(ref)
	if err != nil {
		return err
	}

	return a.run(ctx, func(ctx context.Context) error {
		return a.DownloadCovers(ctx, kind, id)
	})
}

func (a *Archiver) run(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := a.cache.Ensure(); err != nil {
		return err
	}

	if a.reporter != nil {
		a.reporter.Start(ctx)
		defer a.reporter.Stop()
	}

	return fn(ctx)
}

// DownloadSeries archives every chapter of a series that is not cached yet,
// in ascending chapter order. The first failing chapter ends the run.
func (a *Archiver) DownloadSeries(ctx context.Context, seriesID string) error {
	series, err := a.source.FetchSeriesInfo(ctx, seriesID)
	if err != nil {
		return err
	}

	log := a.log.With().Str("series", series.Title).Logger()
	log.Info().Msg("got series information")

	if err := os.MkdirAll(download.SeriesDirectory(a.opts.OutputDirectory, series), os.ModePerm); err != nil {
		return err
	}

	tree, err := a.source.FetchVolumeTree(ctx, seriesID)
	if err != nil {
		return err
	}

	if a.opts.DownloadCover {
		if err := a.downloadSeriesCover(ctx, series, tree); err != nil {
			log.Error().Err(err).Msg("could not download series cover")
		} else {
			log.Info().Msg("downloaded series cover")
		}
	}

	chapters, err := a.planner.PlanPending(ctx, tree, a.cachedChapters())
	if err != nil {
		return err
	}

	if a.opts.Chapters != "" {
		chapters, err = parse.ChapterSelection(a.opts.Chapters, chapters)
		if err != nil {
			return err
		}
	}

	log.Info().Msgf("%d chapters to download", len(chapters))

	bar := progress.New(a.opts.ProgressBars, len(chapters), series.Title)
	defer bar.Finish()

	for _, chapter := range chapters {
		bar.Describe(series.Title + " " + utils.FormatNumber(chapter.Number))

		if err := a.pipeline.Run(ctx, chapter, series); err != nil {
			return err
		}

		bar.Increment()
	}

	return nil
}

// DownloadChapter archives a single chapter unless it is cached.
func (a *Archiver) DownloadChapter(ctx context.Context, chapterID string) error {
	chapter, err := a.source.FetchChapterInfo(ctx, chapterID)
	if errors.Is(err, domain.ErrExternalChapter) {
		a.log.Info().Str("chapter", chapterID).Msg("skipping externally hosted chapter")
		return nil
	}
	if err != nil {
		return err
	}

	series, err := a.source.FetchSeriesInfo(ctx, chapter.SeriesID)
	if err != nil {
		return err
	}

	if _, ok := a.cachedChapters()[chapterID]; ok {
		a.log.Info().Str("chapter", chapterID).Msg("chapter already downloaded, skipping")
		return nil
	}

	return a.pipeline.Run(ctx, chapter, series)
}

// DownloadCovers saves the volume cover of each downloaded chapter as a jpeg
// named after its archive. Chapters that already have one are left alone.
func (a *Archiver) DownloadCovers(ctx context.Context, kind domain.ResourceKind, id string) error {
	var (
		series   domain.SeriesInfo
		chapters []domain.ChapterInfo
		err      error
	)

	switch kind {
	case domain.ResourceChapter:
		chapter, err := a.source.FetchChapterInfo(ctx, id)
		if errors.Is(err, domain.ErrExternalChapter) {
			a.log.Info().Str("chapter", id).Msg("skipping externally hosted chapter")
			return nil
		}
		if err != nil {
			return err
		}

		series, err = a.source.FetchSeriesInfo(ctx, chapter.SeriesID)
		if err != nil {
			return err
		}

		chapters = []domain.ChapterInfo{chapter}

	default:
		series, err = a.source.FetchSeriesInfo(ctx, id)
		if err != nil {
			return err
		}

		tree, err := a.source.FetchVolumeTree(ctx, id)
		if err != nil {
			return err
		}

		chapters, err = a.planner.ResolveChapters(ctx, planner.MatchCached(tree, a.cachedChapters()))
		if err != nil {
			return err
		}
	}

	if err := os.MkdirAll(download.SeriesDirectory(a.opts.OutputDirectory, series), os.ModePerm); err != nil {
		return err
	}

	covers, err := a.source.FetchCoverVolumes(ctx, series.ID)
	if err != nil {
		return err
	}

	log := a.log.With().Str("series", series.Title).Logger()
	log.Info().Msgf("downloading covers for %d chapters", len(chapters))

	bar := progress.New(a.opts.ProgressBars, len(chapters), "covers")
	defer bar.Finish()

	volumeImages := make(map[string][]byte)

	for _, chapter := range chapters {
		bar.Increment()

		path, err := download.ChapterPath(a.opts.OutputDirectory, series, chapter)
		if err != nil {
			return err
		}
		path += ".jpg"

		if files.Exists(path) || chapter.Volume == 0 {
			continue
		}

		label := strconv.Itoa(chapter.Volume)

		url, ok := covers[label]
		if !ok {
			log.Debug().Str("chapter", chapter.ID).Msgf("no cover for volume %s", label)
			continue
		}

		img, ok := volumeImages[label]
		if !ok {
			img, err = download.Image(ctx, a.source, url, imaging.ChapterCoverHeight, a.pageDelay, log)
			if err != nil {
				log.Warn().Err(err).Msgf("could not download cover for volume %s", label)
				continue
			}
			volumeImages[label] = img
		}

		if err := os.WriteFile(path, img, 0o644); err != nil {
			return err
		}
	}

	return nil
}

// downloadSeriesCover saves the cover of the highest volume, or the main
// series cover when that volume has none, as cover.jpg in the series directory.
func (a *Archiver) downloadSeriesCover(ctx context.Context, series domain.SeriesInfo, tree domain.VolumeTree) error {
	url := series.CoverArtURL

	if len(tree) > 0 {
		covers, err := a.source.FetchCoverVolumes(ctx, series.ID)
		if err != nil {
			return err
		}

		if volumeURL, ok := covers[highestVolume(tree)]; ok {
			url = volumeURL
		}
	}

	if url == "" {
		return errors.Errorf("series %s has no cover art", series.ID)
	}

	path := filepath.Join(download.SeriesDirectory(a.opts.OutputDirectory, series), "cover.jpg")

	return download.SaveImage(ctx, a.source, url, path, imaging.SeriesCoverHeight, a.pageDelay, a.log)
}

// highestVolume returns the largest volume number of the tree as a label.
// Labels that are not whole numbers count as volume 0.
func highestVolume(tree domain.VolumeTree) string {
	numbers := make([]int, 0, len(tree))
	for _, volume := range tree {
		n, err := strconv.Atoi(volume.Label)
		if err != nil {
			n = 0
		}
		numbers = append(numbers, n)
	}

	return strconv.Itoa(slices.Max(numbers))
}

// cachedChapters is the set of chapters to skip, empty when overriding.
func (a *Archiver) cachedChapters() map[string]struct{} {
	if a.opts.Override {
		return map[string]struct{}{}
	}

	return a.cache.ChapterIDs()
}
