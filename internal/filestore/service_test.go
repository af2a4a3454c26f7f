package filestore

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"duplex/internal/logging"
	"duplex/pkg/errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"
)

// pngHeader is a minimal valid PNG signature, enough for MIME sniffing.
var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\x0dIHDR")

func newTestService(t *testing.T, maxFileSize int64) *Service {
	t.Helper()

	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	logger := logging.New(logging.Config{Level: "error", Format: "text"})

	disk, err := NewDisk(t.TempDir())
	require.NoError(t, err)

	return NewService(NewStore(db, logger), disk, ServiceOptions{
		MaxFileSize: maxFileSize,
		Logger:      logger,
	})
}

func requireErrorType(t *testing.T, err error, errorType errors.ErrorType) {
	t.Helper()
	require.Error(t, err)
	e, ok := err.(*errors.Error)
	require.True(t, ok, "expected *errors.Error, got %T", err)
	require.Equal(t, errorType, e.Type)
}

func TestService_SaveSniffsImageType(t *testing.T) {
	svc := newTestService(t, 1<<20)

	rec, err := svc.Save("chat1", "alice", "cat.png", bytes.NewReader(pngHeader))
	require.NoError(t, err)

	require.Equal(t, "image/png", rec.MimeType)
	require.Equal(t, "cat.png", rec.Filename)
	require.Equal(t, "alice", rec.UploadedBy)
	require.True(t, strings.HasPrefix(rec.StoredPath, "images/chat1/"))

	path, err := svc.ResolvePath(rec.StoredPath)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, pngHeader, data)
}

func TestService_SaveRoutesTextToDocuments(t *testing.T) {
	svc := newTestService(t, 1<<20)

	rec, err := svc.Save("chat1", "alice", "notes.txt", strings.NewReader("meeting at noon"))
	require.NoError(t, err)

	require.True(t, strings.HasPrefix(rec.MimeType, "text/plain"))
	require.True(t, strings.HasPrefix(rec.StoredPath, "documents/chat1/"))
}

func TestService_SaveIgnoresDeclaredExtension(t *testing.T) {
	svc := newTestService(t, 1<<20)

	// PNG bytes with a .txt name still land in images.
	rec, err := svc.Save("chat1", "alice", "cat.txt", bytes.NewReader(pngHeader))
	require.NoError(t, err)

	require.Equal(t, "image/png", rec.MimeType)
	require.True(t, strings.HasPrefix(rec.StoredPath, "images/chat1/"))
}

func TestService_SaveRejectsOversizedFile(t *testing.T) {
	svc := newTestService(t, 8)

	_, err := svc.Save("chat1", "alice", "big.txt", strings.NewReader("well over eight bytes"))
	requireErrorType(t, err, errors.ErrorTypeValidation)
	require.Contains(t, err.Error(), "FILE_TOO_LARGE")
}

func TestService_SaveRejectsDisallowedType(t *testing.T) {
	svc := newTestService(t, 1<<20)

	// An ELF header sniffs as an executable, which is not in any allowlist.
	elf := []byte("\x7fELF\x02\x01\x01\x00\x00\x00\x00\x00\x00\x00\x00\x00")
	_, err := svc.Save("chat1", "alice", "payload.bin", bytes.NewReader(elf))
	requireErrorType(t, err, errors.ErrorTypeValidation)
	require.Contains(t, err.Error(), "FILE_TYPE_NOT_ALLOWED")
}

func TestService_ListReturnsChatFilesOnly(t *testing.T) {
	svc := newTestService(t, 1<<20)

	first, err := svc.Save("chat1", "alice", "a.txt", strings.NewReader("first"))
	require.NoError(t, err)
	second, err := svc.Save("chat1", "bob", "b.txt", strings.NewReader("second"))
	require.NoError(t, err)
	_, err = svc.Save("chat2", "alice", "c.txt", strings.NewReader("elsewhere"))
	require.NoError(t, err)

	records, err := svc.List("chat1")
	require.NoError(t, err)
	require.Len(t, records, 2)

	ids := []string{records[0].ID, records[1].ID}
	require.Contains(t, ids, first.ID)
	require.Contains(t, ids, second.ID)
}

func TestService_GetUnknownFileIsNotFound(t *testing.T) {
	svc := newTestService(t, 1<<20)

	_, err := svc.Get("no-such-file")
	requireErrorType(t, err, errors.ErrorTypeNotFound)
}

func TestService_RemoveRequiresUploader(t *testing.T) {
	svc := newTestService(t, 1<<20)

	rec, err := svc.Save("chat1", "alice", "a.txt", strings.NewReader("mine"))
	require.NoError(t, err)

	_, err = svc.Remove(rec.ID, "bob")
	requireErrorType(t, err, errors.ErrorTypeUnauthorized)

	// The record survives the denied attempt.
	_, err = svc.Get(rec.ID)
	require.NoError(t, err)
}

func TestService_RemoveDeletesRecordAndBlob(t *testing.T) {
	svc := newTestService(t, 1<<20)

	rec, err := svc.Save("chat1", "alice", "a.txt", strings.NewReader("mine"))
	require.NoError(t, err)

	path, err := svc.ResolvePath(rec.StoredPath)
	require.NoError(t, err)

	removed, err := svc.Remove(rec.ID, "alice")
	require.NoError(t, err)
	require.Equal(t, rec.ID, removed.ID)

	_, err = svc.Get(rec.ID)
	requireErrorType(t, err, errors.ErrorTypeNotFound)

	_, err = os.Stat(path)
	require.True(t, os.IsNotExist(err))

	records, err := svc.List("chat1")
	require.NoError(t, err)
	require.Empty(t, records)
}

func TestService_DownloadURL(t *testing.T) {
	svc := newTestService(t, 1<<20)

	rec := Record{StoredPath: "images/chat1/abc.png"}
	require.Equal(t, "/files/images/chat1/abc.png", svc.DownloadURL(rec))
}
