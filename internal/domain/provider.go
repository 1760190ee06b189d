package domain

import "context"

// MetadataFetcher is the read side of the MangaDex API used by the archiver.
type MetadataFetcher interface {
	FetchSeriesInfo(ctx context.Context, seriesID string) (SeriesInfo, error)
	FetchVolumeTree(ctx context.Context, seriesID string) (VolumeTree, error)
	FetchChapterInfo(ctx context.Context, chapterID string) (ChapterInfo, error)
	FetchCoverVolumes(ctx context.Context, seriesID string) (map[string]string, error)
}

// PageFetcher provides the page list of a chapter and the raw bytes behind
// each page url.
type PageFetcher interface {
	FetchPageURLs(ctx context.Context, chapterID string) ([]string, error)
	FetchImage(ctx context.Context, url string) ([]byte, error)
}

// Source is everything a full run needs from MangaDex.
type Source interface {
	MetadataFetcher
	PageFetcher
}

// ChapterResolver turns a chapter id into its metadata.
type ChapterResolver interface {
	FetchChapterInfo(ctx context.Context, chapterID string) (ChapterInfo, error)
}
