package domain

import "github.com/pkg/errors"

var (
	ErrInvalidReference       = errors.New("invalid mangadex reference")
	ErrMetadataFetch          = errors.New("failed to fetch metadata")
	ErrMalformedResponse      = errors.New("malformed mangadex response")
	ErrMissingSeriesReference = errors.New("chapter has no manga relationship")
	ErrMalformedAttribute     = errors.New("malformed chapter attribute")
	ErrExternalChapter        = errors.New("chapter is hosted externally")
	ErrIncompleteMetadata     = errors.New("incomplete chapter or series metadata")
	ErrFailedImage            = errors.New("failed to download image")
	ErrComicInfo              = errors.New("failed to create ComicInfo.xml")
	ErrArchive                = errors.New("failed to create archive")
	ErrCacheWrite             = errors.New("failed to write cache file")
	ErrCorruptCache           = errors.New("cache file is corrupt")
)
