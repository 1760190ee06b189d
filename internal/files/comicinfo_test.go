package files

import (
	"encoding/xml"
	"os"
	"path/filepath"
	"testing"
	"time"

	"mangadex-dl/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewComicInfo(t *testing.T) {
	now := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	chapter := domain.ChapterInfo{ID: "alpha", SeriesID: "beta", Number: 1.0, Volume: 2, Title: "charlie"}
	series := domain.SeriesInfo{ID: "delta", Title: "echo", Description: "foxtrot", Year: 2000, Author: "golf"}

	assert.Equal(t, ComicInfo{
		Title:   "charlie",
		Series:  "echo",
		Summary: "foxtrot",
		Number:  "1",
		Year:    2000,
		Writer:  "golf",
		Manga:   "YesAndRightToLeft",
	}, NewComicInfo(chapter, series, now))

	chapter.Number = 1.5
	assert.Equal(t, "1.5", NewComicInfo(chapter, series, now).Number)

	series.Year = 0
	assert.Equal(t, 2024, NewComicInfo(chapter, series, now).Year)
}

func TestWriteComicInfo(t *testing.T) {
	dir := t.TempDir()

	info := ComicInfo{Title: "A & B", Series: "echo", Number: "12.5", Year: 2001, Writer: "golf", Manga: "YesAndRightToLeft"}
	require.NoError(t, WriteComicInfo(dir, info))

	content, err := os.ReadFile(filepath.Join(dir, ComicInfoName))
	require.NoError(t, err)

	assert.Contains(t, string(content), "<Title>A &amp; B</Title>")
	assert.Contains(t, string(content), "<Number>12.5</Number>")

	var decoded ComicInfo
	require.NoError(t, xml.Unmarshal(content, &decoded))
	assert.Equal(t, "A & B", decoded.Title)
	assert.Equal(t, 2001, decoded.Year)
}

func TestWriteComicInfo_MissingDir(t *testing.T) {
	err := WriteComicInfo(filepath.Join(t.TempDir(), "missing"), ComicInfo{})
	assert.Error(t, err)
}
