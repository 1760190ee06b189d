package source

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"net/url"
	"strconv"
	"time"

	"mangadex-dl/internal/domain"
	"mangadex-dl/internal/report"
	"mangadex-dl/internal/sharedhttp"
	"mangadex-dl/internal/utils"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

const (
	mangadexURL = "https://api.mangadex.org"
	uploadsURL  = "https://uploads.mangadex.org"

	noAuthor = "No Author"
)

// Reporter receives one health report per downloaded image.
type Reporter interface {
	Add(r report.Report)
}

type Mangadex struct {
	client     *sharedhttp.Client
	apiURL     string
	uploadsURL string
	language   string
	dataSaver  bool
	reporter   Reporter
	log        zerolog.Logger
}

type Option func(*Mangadex)

func WithAPIURL(u string) Option {
	return func(m *Mangadex) { m.apiURL = u }
}

func WithUploadsURL(u string) Option {
	return func(m *Mangadex) { m.uploadsURL = u }
}

func WithLanguage(language string) Option {
	return func(m *Mangadex) {
		if language != "" {
			m.language = language
		}
	}
}

func WithDataSaver(enabled bool) Option {
	return func(m *Mangadex) { m.dataSaver = enabled }
}

func WithReporter(r Reporter) Option {
	return func(m *Mangadex) { m.reporter = r }
}

func WithClient(c *sharedhttp.Client) Option {
	return func(m *Mangadex) { m.client = c }
}

func NewMangadex(log zerolog.Logger, opts ...Option) *Mangadex {
	m := &Mangadex{
		apiURL:     mangadexURL,
		uploadsURL: uploadsURL,
		language:   "en",
		log:        log.With().Str("source", "MangaDex").Logger(),
	}

	for _, opt := range opts {
		opt(m)
	}

	if m.client == nil {
		m.client = sharedhttp.NewClient(m.log)
	}

	return m
}

func (m *Mangadex) String() string {
	return "MangaDex"
}

type mangadexRelationship struct {
	ID         string `json:"id"`
	Type       string `json:"type"`
	Attributes struct {
		Name     string `json:"name"`
		FileName string `json:"fileName"`
	} `json:"attributes"`
}

type mangadexManga struct {
	Data *struct {
		ID         string `json:"id"`
		Attributes struct {
			Title       map[string]string `json:"title"`
			Description map[string]string `json:"description"`
			Year        *int              `json:"year"`
		} `json:"attributes"`
		Relationships []mangadexRelationship `json:"relationships"`
	} `json:"data"`
}

type mangadexChapterAttributes struct {
	Volume      *string `json:"volume"`
	Chapter     *string `json:"chapter"`
	Title       *string `json:"title"`
	ExternalURL *string `json:"externalUrl"`
}

type mangadexChapter struct {
	Data *struct {
		ID            string                    `json:"id"`
		Attributes    mangadexChapterAttributes `json:"attributes"`
		Relationships []mangadexRelationship    `json:"relationships"`
	} `json:"data"`
}

type mangadexAtHome struct {
	BaseURL string `json:"baseUrl"`
	Chapter struct {
		Hash      string   `json:"hash"`
		Data      []string `json:"data"`
		DataSaver []string `json:"dataSaver"`
	} `json:"chapter"`
}

// FetchSeriesInfo gets the series details together with its author and cover art.
func (m *Mangadex) FetchSeriesInfo(ctx context.Context, seriesID string) (domain.SeriesInfo, error) {
	var mangaResp mangadexManga

	query := url.Values{"includes[]": []string{"author", "cover_art"}}
	if err := m.getJSON(ctx, query, &mangaResp, "manga", seriesID); err != nil {
		return domain.SeriesInfo{}, err
	}

	if mangaResp.Data == nil || mangaResp.Data.Relationships == nil {
		return domain.SeriesInfo{}, errors.Wrapf(domain.ErrMalformedResponse, "manga %s: missing relationships", seriesID)
	}

	attributes := mangaResp.Data.Attributes

	title, ok := seriesTitle(attributes.Title)
	if !ok {
		return domain.SeriesInfo{}, errors.Wrapf(domain.ErrMalformedResponse, "manga %s: missing title", seriesID)
	}

	info := domain.SeriesInfo{
		ID:          seriesID,
		Title:       title,
		Description: attributes.Description["en"],
		Author:      noAuthor,
	}

	if attributes.Year != nil {
		info.Year = *attributes.Year
	}

	for _, rel := range mangaResp.Data.Relationships {
		if rel.Type == "author" {
			if rel.Attributes.Name != "" {
				info.Author = rel.Attributes.Name
			}
			break
		}
	}

	for _, rel := range mangaResp.Data.Relationships {
		if rel.Type == "cover_art" && rel.Attributes.FileName != "" {
			info.CoverArtURL = m.coverURL(seriesID, rel.Attributes.FileName)
			break
		}
	}

	m.log.Debug().Str("series", seriesID).Msgf("got series information for %q", info.Title)

	return info, nil
}

// FetchChapterInfo gets a single chapter and the series it belongs to.
func (m *Mangadex) FetchChapterInfo(ctx context.Context, chapterID string) (domain.ChapterInfo, error) {
	var chapterResp mangadexChapter

	if err := m.getJSON(ctx, nil, &chapterResp, "chapter", chapterID); err != nil {
		return domain.ChapterInfo{}, err
	}

	if chapterResp.Data == nil {
		return domain.ChapterInfo{}, errors.Wrapf(domain.ErrMalformedResponse, "chapter %s: missing data", chapterID)
	}

	seriesID, ok := seriesFromRelationships(chapterResp.Data.Relationships)
	if !ok {
		return domain.ChapterInfo{}, errors.Wrapf(domain.ErrMissingSeriesReference, "chapter %s", chapterID)
	}

	return parseChapterInfo(chapterID, seriesID, chapterResp.Data.Attributes)
}

// FetchPageURLs gets the page urls of a chapter from the MangaDex@Home
// server assigned to it, in reading order.
func (m *Mangadex) FetchPageURLs(ctx context.Context, chapterID string) ([]string, error) {
	var atHome mangadexAtHome

	if err := m.getJSON(ctx, nil, &atHome, "at-home", "server", chapterID); err != nil {
		return nil, err
	}

	quality, files := "data", atHome.Chapter.Data
	if m.dataSaver {
		quality, files = "data-saver", atHome.Chapter.DataSaver
	}

	if atHome.BaseURL == "" || atHome.Chapter.Hash == "" {
		return nil, errors.Wrapf(domain.ErrMalformedResponse, "at-home server for chapter %s", chapterID)
	}

	return pageURLs(atHome.BaseURL, quality, atHome.Chapter.Hash, files)
}

// FetchImage downloads the raw bytes behind an image url.
func (m *Mangadex) FetchImage(ctx context.Context, imageURL string) ([]byte, error) {
	start := time.Now()
	rep := report.Report{URL: imageURL}

	defer func() {
		if m.reporter != nil {
			rep.Duration = report.Since(start)
			m.reporter.Add(rep)
		}
	}()

	resp, err := m.client.Get(ctx, imageURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(bufio.NewReader(resp.Body))
	if err != nil {
		return nil, err
	}

	rep.Success = true
	rep.Bytes = len(data)
	rep.Cached = resp.Header.Get("X-Cache") == "HIT"

	return data, nil
}

func (m *Mangadex) getJSON(ctx context.Context, query url.Values, v any, elem ...string) error {
	path, err := url.JoinPath(m.apiURL, elem...)
	if err != nil {
		return err
	}

	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	resp, err := m.client.Get(ctx, path)
	if err != nil {
		return errors.Wrapf(domain.ErrMetadataFetch, "%s: %v", path, err)
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(bufio.NewReader(resp.Body)).Decode(v); err != nil {
		return errors.Wrapf(domain.ErrMalformedResponse, "%s: %v", path, err)
	}

	return nil
}

func (m *Mangadex) coverURL(seriesID, fileName string) string {
	return m.uploadsURL + "/covers/" + seriesID + "/" + fileName + ".512.jpg"
}

func seriesTitle(titles map[string]string) (string, bool) {
	for _, lang := range []string{"en", "ja-ro", "ja"} {
		if title := titles[lang]; title != "" {
			return title, true
		}
	}

	return "", false
}

func seriesFromRelationships(relationships []mangadexRelationship) (string, bool) {
	for _, rel := range relationships {
		if rel.Type == "manga" && rel.ID != "" {
			return rel.ID, true
		}
	}

	return "", false
}

func parseChapterInfo(chapterID, seriesID string, attributes mangadexChapterAttributes) (domain.ChapterInfo, error) {
	if attributes.ExternalURL != nil && *attributes.ExternalURL != "" {
		return domain.ChapterInfo{}, errors.Wrapf(domain.ErrExternalChapter, "chapter %s is hosted at %s", chapterID, *attributes.ExternalURL)
	}

	info := domain.ChapterInfo{
		ID:       chapterID,
		SeriesID: seriesID,
	}

	if attributes.Chapter != nil && *attributes.Chapter != "" {
		number, err := strconv.ParseFloat(*attributes.Chapter, 64)
		if err != nil {
			return domain.ChapterInfo{}, errors.Wrapf(domain.ErrMalformedAttribute, "chapter %s: chapter number %q", chapterID, *attributes.Chapter)
		}
		info.Number = number
	}

	if attributes.Volume != nil && *attributes.Volume != "" {
		volume, err := strconv.Atoi(*attributes.Volume)
		if err != nil {
			return domain.ChapterInfo{}, errors.Wrapf(domain.ErrMalformedAttribute, "chapter %s: volume number %q", chapterID, *attributes.Volume)
		}
		info.Volume = volume
	}

	if attributes.Title != nil && *attributes.Title != "" {
		info.Title = *attributes.Title
	} else {
		info.Title = "Chapter " + utils.FormatNumber(info.Number)
	}

	return info, nil
}

func pageURLs(baseURL, quality, hash string, files []string) ([]string, error) {
	urls := make([]string, 0, len(files))

	for _, file := range files {
		pageURL, err := url.JoinPath(baseURL, quality, hash, file)
		if err != nil {
			return nil, err
		}

		urls = append(urls, pageURL)
	}

	return urls, nil
}
