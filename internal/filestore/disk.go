package filestore

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"duplex/pkg/errors"

	"github.com/google/uuid"
)

// Category routes a blob to a subdirectory of the upload root.
type Category string

const (
	CategoryImage    Category = "images"
	CategoryDocument Category = "documents"
)

// documentTypes is the allowlist for non-image uploads, matching what the
// chat UI can render or offer for download.
var documentTypes = map[string]struct{}{
	"application/pdf":    {},
	"application/msword": {},
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": {},
	"application/vnd.ms-excel": {},
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": {},
	"text/plain": {},
}

// CategoryFor maps a MIME type to its storage category. The second return is
// false for disallowed types.
func CategoryFor(mimeType string) (Category, bool) {
	if strings.HasPrefix(mimeType, "image/") {
		return CategoryImage, true
	}
	if _, ok := documentTypes[mimeType]; ok {
		return CategoryDocument, true
	}
	if strings.HasPrefix(mimeType, "text/") {
		return CategoryDocument, true
	}
	return "", false
}

// Disk stores uploaded blobs under root/{category}/{chat_id}/{uuid}{ext}.
// Stored paths are slash-separated and relative to the root.
type Disk struct {
	root string
}

// NewDisk creates the upload root and its category directories.
func NewDisk(root string) (*Disk, error) {
	for _, category := range []Category{CategoryImage, CategoryDocument} {
		dir := filepath.Join(root, string(category))
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeStorage, "MKDIR_ERROR", "failed to create upload directory")
		}
	}
	return &Disk{root: root}, nil
}

// Save writes the blob to disk and returns its stored path and size.
func (d *Disk) Save(chatID string, category Category, ext string, r io.Reader) (string, int64, error) {
	dir := filepath.Join(d.root, string(category), chatID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", 0, errors.Wrap(err, errors.ErrorTypeStorage, "MKDIR_ERROR", "failed to create chat directory")
	}

	name := uuid.NewString() + ext
	path := filepath.Join(dir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", 0, errors.Wrap(err, errors.ErrorTypeStorage, "WRITE_ERROR", "failed to create file")
	}

	size, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path)
		return "", 0, errors.Wrap(err, errors.ErrorTypeStorage, "WRITE_ERROR", "failed to write file")
	}

	storedPath := filepath.ToSlash(filepath.Join(string(category), chatID, name))
	return storedPath, size, nil
}

// Remove deletes a stored blob. Removing an absent blob is a no-op.
func (d *Disk) Remove(storedPath string) error {
	path, err := d.Resolve(storedPath)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, errors.ErrorTypeStorage, "REMOVE_ERROR", "failed to remove file")
	}
	return nil
}

// Resolve turns a stored path into an absolute filesystem path, rejecting
// anything that would escape the upload root.
func (d *Disk) Resolve(storedPath string) (string, error) {
	cleaned := filepath.Clean(filepath.FromSlash(storedPath))
	if cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) || filepath.IsAbs(cleaned) {
		return "", errors.New(errors.ErrorTypeValidation, "INVALID_PATH", fmt.Sprintf("path escapes upload root: %s", storedPath))
	}
	return filepath.Join(d.root, cleaned), nil
}
