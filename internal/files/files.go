package files

import (
	"archive/zip"
	"bufio"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/go-pdf/fpdf"
	"github.com/pkg/errors"
)

func IsValidLocation(location string) error {
	if _, err := os.Stat(location); err != nil {
		return err
	}

	return nil
}

// Exists reports whether path exists, following symlinks.
func Exists(path string) bool {
	return IsValidLocation(path) == nil
}

// CreateCbzArchive zips the files of sourceDir into sourceDir.zip and renames
// the result to sourceDir.cbz. Entries are stored at the archive root, sorted
// by name.
func CreateCbzArchive(sourceDir string) (string, error) {
	entries, err := listFiles(sourceDir)
	if err != nil {
		return "", err
	}

	base := strings.TrimRight(sourceDir, string(filepath.Separator))
	zipPath := base + ".zip"
	cbzPath := base + ".cbz"

	if err := writeZip(zipPath, sourceDir, entries); err != nil {
		os.Remove(zipPath)
		return "", err
	}

	if err := os.Rename(zipPath, cbzPath); err != nil {
		os.Remove(zipPath)
		return "", errors.Wrapf(err, "could not rename %s to %s", zipPath, cbzPath)
	}

	return cbzPath, nil
}

func writeZip(zipPath, sourceDir string, entries []string) error {
	zipFile, err := os.Create(zipPath)
	if err != nil {
		return err
	}
	defer zipFile.Close()

	writeBuf := bufio.NewWriter(zipFile)
	zipWriter := zip.NewWriter(writeBuf)

	for _, name := range entries {
		if err := addFileToZip(zipWriter, filepath.Join(sourceDir, name), name); err != nil {
			zipWriter.Close()
			return err
		}
	}

	if err := zipWriter.Close(); err != nil {
		return err
	}

	if err := writeBuf.Flush(); err != nil {
		return err
	}

	return zipFile.Close()
}

// CreatePDF writes every jpeg of sourceDir to sourceDir.pdf, one page per
// image sized to the image.
func CreatePDF(sourceDir string) (string, error) {
	entries, err := listFiles(sourceDir)
	if err != nil {
		return "", err
	}

	pdfPath := strings.TrimRight(sourceDir, string(filepath.Separator)) + ".pdf"

	pdf := fpdf.New(fpdf.OrientationPortrait, fpdf.UnitMillimeter, "", "")

	pages := 0
	for _, name := range entries {
		ext := strings.ToLower(filepath.Ext(name))
		if ext != ".jpg" && ext != ".jpeg" {
			continue
		}

		path := filepath.Join(sourceDir, name)

		pdfInfo := pdf.RegisterImageOptions(path, fpdf.ImageOptions{ImageType: "JPG"})
		if pdf.Err() {
			return "", pdf.Error()
		}

		imgWidth, imgHeight := pdfInfo.Extent()

		pdf.AddPageFormat(fpdf.OrientationPortrait, fpdf.SizeType{Wd: imgWidth, Ht: imgHeight})
		pdf.ImageOptions(path, 0, 0, imgWidth, imgHeight, false, fpdf.ImageOptions{ImageType: "JPG"}, 0, "")
		pages++
	}

	if pages == 0 {
		return "", errors.Errorf("no pages in %s", sourceDir)
	}

	if err := pdf.OutputFileAndClose(pdfPath); err != nil {
		return "", err
	}

	return pdfPath, nil
}

// listFiles returns the names of the regular files directly inside dir, sorted.
func listFiles(dir string) ([]string, error) {
	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, entry := range dirEntries {
		if entry.Type().IsRegular() {
			names = append(names, entry.Name())
		}
	}

	slices.Sort(names)

	return names, nil
}

// addFileToZip adds a single file to the zip archive
func addFileToZip(zipWriter *zip.Writer, filePath, fileName string) error {
	fileToZip, err := os.Open(filePath)
	if err != nil {
		return err
	}
	defer fileToZip.Close()

	writer, err := zipWriter.Create(fileName)
	if err != nil {
		return err
	}

	readerBuf := bufio.NewReader(fileToZip)

	_, err = io.Copy(writer, readerBuf)
	return err
}
