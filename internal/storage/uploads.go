package storage

import (
	"fmt"
	"io"
	"math/rand"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"example.com/fieldwork/services/workorders/config"

	"github.com/pkg/errors"
)

// UploadStore writes attachment files under a root directory,
// partitioned per work order and category:
//
//	<root>/work-orders/<order-id>/<category>/<unix-ms>_<random><ext>
type UploadStore struct {
	root         string
	maxSizeBytes int64
}

// NewUploadStore creates an upload store rooted at cfg.Dir
func NewUploadStore(cfg config.UploadConfig) *UploadStore {
	maxSize := cfg.MaxSizeBytes
	if maxSize == 0 {
		maxSize = 12 << 20
	}
	return &UploadStore{
		root:         cfg.Dir,
		maxSizeBytes: maxSize,
	}
}

// Root returns the upload root directory
func (s *UploadStore) Root() string {
	return s.root
}

// MaxSizeBytes returns the per-file size ceiling
func (s *UploadStore) MaxSizeBytes() int64 {
	return s.maxSizeBytes
}

// ErrFileTooLarge is returned when an upload exceeds the size ceiling
var ErrFileTooLarge = errors.New("file exceeds size limit")

// Save persists one multipart upload and returns the stored path
// relative to the root, with forward slashes.
func (s *UploadStore) Save(workOrderID uint, category string, file *multipart.FileHeader) (string, error) {
	if file.Size > s.maxSizeBytes {
		return "", ErrFileTooLarge
	}

	relPath := path.Join("work-orders", fmt.Sprintf("%d", workOrderID), category, Filename(file.Filename))

	dest := filepath.Join(s.root, filepath.FromSlash(relPath))
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return "", errors.Wrap(err, "failed to create upload directory")
	}

	src, err := file.Open()
	if err != nil {
		return "", errors.Wrap(err, "failed to open uploaded file")
	}
	defer src.Close()

	out, err := os.Create(dest)
	if err != nil {
		return "", errors.Wrap(err, "failed to create upload file")
	}
	defer out.Close()

	if _, err := io.Copy(out, src); err != nil {
		os.Remove(dest)
		return "", errors.Wrap(err, "failed to write uploaded file")
	}

	return relPath, nil
}

// Filename builds a collision-resistant stored name from the original,
// keeping only a short, safe extension.
func Filename(original string) string {
	ext := strings.ToLower(filepath.Ext(original))
	if len(ext) > 10 {
		ext = ""
	}
	return fmt.Sprintf("%d_%d%s", time.Now().UnixMilli(), rand.Int63n(1e9), ext)
}
