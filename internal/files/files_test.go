package files

import (
	"archive/zip"
	"bytes"
	"image"
	"image/jpeg"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeJPEG(t *testing.T, path string, width, height int) {
	t.Helper()

	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, image.NewRGBA(image.Rect(0, 0, width, height)), nil))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

func TestCreateCbzArchive(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "002 bar")
	require.NoError(t, os.MkdirAll(dir, os.ModePerm))

	for _, name := range []string{"002.jpg", "001.jpg", ComicInfoName} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(name), 0o644))
	}

	cbzPath, err := CreateCbzArchive(dir)
	require.NoError(t, err)

	assert.Equal(t, dir+".cbz", cbzPath)
	assert.NoFileExists(t, dir+".zip")

	r, err := zip.OpenReader(cbzPath)
	require.NoError(t, err)
	defer r.Close()

	var names []string
	for _, f := range r.File {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"001.jpg", "002.jpg", ComicInfoName}, names)
}

func TestCreateCbzArchive_MissingDir(t *testing.T) {
	_, err := CreateCbzArchive(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestCreatePDF(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "001 foo")
	require.NoError(t, os.MkdirAll(dir, os.ModePerm))

	writeJPEG(t, filepath.Join(dir, "001.jpg"), 20, 30)
	writeJPEG(t, filepath.Join(dir, "002.jpg"), 40, 30)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ComicInfoName), []byte("<ComicInfo/>"), 0o644))

	pdfPath, err := CreatePDF(dir)
	require.NoError(t, err)
	assert.Equal(t, dir+".pdf", pdfPath)

	content, err := os.ReadFile(pdfPath)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(content, []byte("%PDF-")))
}

func TestCreatePDF_NoPages(t *testing.T) {
	_, err := CreatePDF(t.TempDir())
	assert.Error(t, err)
}

func TestExists(t *testing.T) {
	dir := t.TempDir()
	assert.True(t, Exists(dir))
	assert.False(t, Exists(filepath.Join(dir, "nope")))
}
