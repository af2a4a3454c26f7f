package filestore

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"duplex/internal/eventbus"
	"duplex/internal/logging"
	"duplex/pkg/errors"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/xid"
)

// Service combines the metadata store and the blob store behind the
// operations the file endpoints need. Uploads are sniffed for their real
// MIME type; the client-declared content type is never trusted.
type Service struct {
	store       *Store
	disk        *Disk
	maxFileSize int64
	logger      *logging.Logger
	eventBus    eventbus.Bus
}

// ServiceOptions represents file service configuration options
type ServiceOptions struct {
	MaxFileSize int64
	Logger      *logging.Logger
	EventBus    eventbus.Bus
}

// NewService creates a new file service.
func NewService(store *Store, disk *Disk, opts ServiceOptions) *Service {
	if opts.Logger == nil {
		opts.Logger = logging.New(logging.Config{Level: "info", Format: "text"})
	}

	return &Service{
		store:       store,
		disk:        disk,
		maxFileSize: opts.MaxFileSize,
		logger:      opts.Logger,
		eventBus:    opts.EventBus,
	}
}

// Save validates, stores, and records one uploaded file.
func (s *Service) Save(chatID, uploaderID, filename string, r io.Reader) (Record, error) {
	data, err := io.ReadAll(io.LimitReader(r, s.maxFileSize+1))
	if err != nil {
		return Record{}, errors.Wrap(err, errors.ErrorTypeStorage, "READ_ERROR", "failed to read upload")
	}

	if int64(len(data)) > s.maxFileSize {
		return Record{}, errors.New(errors.ErrorTypeValidation, "FILE_TOO_LARGE",
			fmt.Sprintf("file exceeds maximum allowed size %d", s.maxFileSize))
	}

	mtype := mimetype.Detect(data)
	category, ok := CategoryFor(mtype.String())
	if !ok {
		return Record{}, errors.New(errors.ErrorTypeValidation, "FILE_TYPE_NOT_ALLOWED",
			fmt.Sprintf("file type %s is not allowed", mtype.String()))
	}

	ext := filepath.Ext(filename)
	if ext == "" {
		ext = mtype.Extension()
	}

	storedPath, size, err := s.disk.Save(chatID, category, ext, bytes.NewReader(data))
	if err != nil {
		return Record{}, err
	}

	rec := Record{
		ID:         xid.New().String(),
		Filename:   filename,
		StoredPath: storedPath,
		Size:       size,
		MimeType:   mtype.String(),
		ChatID:     chatID,
		UploadedBy: uploaderID,
		UploadedAt: time.Now(),
	}

	if err := s.store.Put(rec); err != nil {
		if rmErr := s.disk.Remove(storedPath); rmErr != nil {
			s.logger.Error("failed to remove orphaned blob", "stored_path", storedPath, "error", rmErr)
		}
		return Record{}, err
	}

	s.logger.Info("file stored",
		"file_id", rec.ID,
		"chat_id", chatID,
		"mime_type", rec.MimeType,
		"size", size,
	)

	s.publish(eventbus.EventFileStored, rec)

	return rec, nil
}

// Remove deletes a file record and its blob. Only the uploader may remove a
// file.
func (s *Service) Remove(fileID, requesterID string) (Record, error) {
	rec, err := s.store.Get(fileID)
	if err != nil {
		return Record{}, err
	}

	if rec.UploadedBy != requesterID {
		return Record{}, errors.New(errors.ErrorTypeUnauthorized, "NOT_OWNER", "only the uploader can delete a file")
	}

	if err := s.store.Delete(fileID); err != nil {
		return Record{}, err
	}

	if err := s.disk.Remove(rec.StoredPath); err != nil {
		// The record is already gone; a stranded blob is log-worthy but
		// not an error for the caller.
		s.logger.Error("failed to remove blob", "stored_path", rec.StoredPath, "error", err)
	}

	s.logger.Info("file removed", "file_id", fileID, "chat_id", rec.ChatID)

	s.publish(eventbus.EventFileRemoved, rec)

	return rec, nil
}

// Get fetches a single file record.
func (s *Service) Get(fileID string) (Record, error) {
	return s.store.Get(fileID)
}

// List returns the records of every file shared into chatID.
func (s *Service) List(chatID string) ([]Record, error) {
	return s.store.ListByChat(chatID)
}

// ResolvePath maps a stored path to an absolute path inside the upload root.
func (s *Service) ResolvePath(storedPath string) (string, error) {
	return s.disk.Resolve(storedPath)
}

// DownloadURL returns the serving URL for a record.
func (s *Service) DownloadURL(rec Record) string {
	return "/files/" + rec.StoredPath
}

func (s *Service) publish(eventType eventbus.EventType, rec Record) {
	if s.eventBus == nil {
		return
	}
	s.eventBus.PublishAsync(eventbus.NewEvent(eventType, "filestore", map[string]string{
		"file_id": rec.ID,
		"chat_id": rec.ChatID,
	}))
}
