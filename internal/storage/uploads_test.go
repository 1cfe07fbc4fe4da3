package storage

import (
	"bytes"
	"mime/multipart"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"example.com/fieldwork/services/workorders/config"

	"github.com/stretchr/testify/require"
)

func fileHeader(t *testing.T, name string, content []byte) *multipart.FileHeader {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	form, err := multipart.NewReader(body, writer.Boundary()).ReadForm(32 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { form.RemoveAll() })

	return form.File["file"][0]
}

func TestFilenameKeepsShortExtension(t *testing.T) {
	name := Filename("Site Photo.JPG")
	require.Regexp(t, regexp.MustCompile(`^\d+_\d+\.jpg$`), name)
}

func TestFilenameDropsOverlongExtension(t *testing.T) {
	name := Filename("weird." + strings.Repeat("x", 20))
	require.Regexp(t, regexp.MustCompile(`^\d+_\d+$`), name)
}

func TestSavePartitionsPerOrderAndCategory(t *testing.T) {
	store := NewUploadStore(config.UploadConfig{Dir: t.TempDir()})

	header := fileHeader(t, "before.jpg", []byte("image-bytes"))

	relPath, err := store.Save(42, "before", header)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(relPath, "work-orders/42/before/"))

	data, err := os.ReadFile(filepath.Join(store.Root(), filepath.FromSlash(relPath)))
	require.NoError(t, err)
	require.Equal(t, []byte("image-bytes"), data)
}

func TestSaveRejectsOversizedFile(t *testing.T) {
	store := NewUploadStore(config.UploadConfig{Dir: t.TempDir(), MaxSizeBytes: 8})

	header := fileHeader(t, "big.bin", []byte("way more than eight"))

	_, err := store.Save(42, "after", header)
	require.ErrorIs(t, err, ErrFileTooLarge)
}
