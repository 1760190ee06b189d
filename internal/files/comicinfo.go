package files

import (
	"bufio"
	"encoding/xml"
	"os"
	"path/filepath"
	"time"

	"mangadex-dl/internal/domain"
	"mangadex-dl/internal/utils"
)

const ComicInfoName = "ComicInfo.xml"

// ComicInfo is the ComicRack metadata sidecar stored inside each archive.
type ComicInfo struct {
	XMLName xml.Name `xml:"ComicInfo"`
	Title   string   `xml:"Title"`
	Series  string   `xml:"Series"`
	Summary string   `xml:"Summary"`
	Number  string   `xml:"Number"`
	Year    int      `xml:"Year"`
	Writer  string   `xml:"Writer"`
	Manga   string   `xml:"Manga"`
}

// NewComicInfo builds the sidecar for a chapter. A series without a known
// year gets the current year.
func NewComicInfo(chapter domain.ChapterInfo, series domain.SeriesInfo, now time.Time) ComicInfo {
	year := series.Year
	if year == 0 {
		year = now.Year()
	}

	return ComicInfo{
		Title:   chapter.Title,
		Series:  series.Title,
		Summary: series.Description,
		Number:  utils.FormatNumber(chapter.Number),
		Year:    year,
		Writer:  series.Author,
		Manga:   "YesAndRightToLeft",
	}
}

// WriteComicInfo writes info to dir/ComicInfo.xml.
func WriteComicInfo(dir string, info ComicInfo) error {
	out, err := os.Create(filepath.Join(dir, ComicInfoName))
	if err != nil {
		return err
	}
	defer out.Close()

	writeBuf := bufio.NewWriter(out)

	if _, err := writeBuf.WriteString(xml.Header); err != nil {
		return err
	}

	enc := xml.NewEncoder(writeBuf)
	enc.Indent("", "  ")

	if err := enc.Encode(info); err != nil {
		return err
	}

	if err := writeBuf.Flush(); err != nil {
		return err
	}

	return out.Close()
}
