package cache

import (
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"mangadex-dl/internal/domain"

	"github.com/gofrs/flock"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Load reads a cache file into a series id -> chapter ids mapping.
// A missing file is an empty mapping.
func Load(path string) (map[string][]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return map[string][]string{}, nil
		}
		return nil, err
	}

	return decode(path, data)
}

// Cache records which chapters have been archived. Commits are serialized
// within the process by a mutex and across processes by a lock file next to
// the cache.
type Cache struct {
	path string
	log  zerolog.Logger

	mu       sync.Mutex
	lock     *flock.Flock
	snapshot map[string][]string
}

func New(path string, log zerolog.Logger) *Cache {
	return &Cache{
		path:     path,
		log:      log.With().Str("module", "cache").Logger(),
		lock:     flock.New(path + ".lock"),
		snapshot: map[string][]string{},
	}
}

func (c *Cache) Path() string {
	return c.path
}

// Ensure creates the cache file when it does not exist and loads its contents.
func (c *Cache) Ensure() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := os.Stat(c.path); errors.Is(err, fs.ErrNotExist) {
		if err := c.create(); err != nil {
			return err
		}
	}

	data, err := Load(c.path)
	if err != nil {
		return err
	}

	c.snapshot = data

	return nil
}

// Commit appends chapterID to the entry of seriesID and writes the cache back.
// A cache file removed during the run is recreated once.
func (c *Cache) Commit(seriesID, chapterID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.lock.Lock(); err != nil {
		return errors.Wrapf(domain.ErrCacheWrite, "lock %s: %v", c.path, err)
	}
	defer func() {
		if err := c.lock.Unlock(); err != nil {
			c.log.Warn().Err(err).Msg("could not release cache lock")
		}
	}()

	data, err := c.read()
	if err != nil {
		return err
	}

	data[seriesID] = append(data[seriesID], chapterID)

	if err := c.write(data); err != nil {
		return err
	}

	c.snapshot = data

	c.log.Debug().Str("series", seriesID).Str("chapter", chapterID).Msg("chapter committed to cache")

	return nil
}

// ChapterIDs returns every cached chapter id regardless of series.
func (c *Cache) ChapterIDs() map[string]struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()

	ids := make(map[string]struct{})
	for _, chapters := range c.snapshot {
		for _, id := range chapters {
			ids[id] = struct{}{}
		}
	}

	return ids
}

// Contains reports whether chapterID has been cached under any series.
func (c *Cache) Contains(chapterID string) bool {
	_, ok := c.ChapterIDs()[chapterID]
	return ok
}

func (c *Cache) read() (map[string][]string, error) {
	data, err := os.ReadFile(c.path)
	if errors.Is(err, fs.ErrNotExist) {
		c.log.Warn().Str("path", c.path).Msg("cache file disappeared, recreating it")

		if err := c.create(); err != nil {
			return nil, err
		}

		data, err = os.ReadFile(c.path)
	}
	if err != nil {
		return nil, errors.Wrapf(domain.ErrCacheWrite, "read %s: %v", c.path, err)
	}

	return decode(c.path, data)
}

func (c *Cache) create() error {
	if err := os.MkdirAll(filepath.Dir(c.path), os.ModePerm); err != nil {
		return errors.Wrapf(domain.ErrCacheWrite, "create directory for %s: %v", c.path, err)
	}

	return c.write(map[string][]string{})
}

// write replaces the cache file atomically.
func (c *Cache) write(data map[string][]string) error {
	encoded, err := json.MarshalIndent(data, "", "    ")
	if err != nil {
		return errors.Wrap(domain.ErrCacheWrite, err.Error())
	}

	tmp, err := os.CreateTemp(filepath.Dir(c.path), "."+filepath.Base(c.path)+"-*")
	if err != nil {
		return errors.Wrapf(domain.ErrCacheWrite, "%s: %v", c.path, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(encoded); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return errors.Wrapf(domain.ErrCacheWrite, "%s: %v", c.path, err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return errors.Wrapf(domain.ErrCacheWrite, "%s: %v", c.path, err)
	}

	if err := os.Rename(tmpName, c.path); err != nil {
		os.Remove(tmpName)
		return errors.Wrapf(domain.ErrCacheWrite, "%s: %v", c.path, err)
	}

	return nil
}

func decode(path string, data []byte) (map[string][]string, error) {
	var cached map[string][]string
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, errors.Wrapf(domain.ErrCorruptCache, "%s: %v", path, err)
	}

	if cached == nil {
		return nil, errors.Wrapf(domain.ErrCorruptCache, "%s: not a json object", path)
	}

	return cached, nil
}
