package httpapi

import (
	"encoding/json"
	"net/http"

	"duplex/internal/filestore"
	"duplex/internal/logging"
	"duplex/pkg/domain"

	"github.com/go-chi/chi/v5"
	"github.com/samber/lo"
)

// maxMultipartMemory bounds the in-memory part of multipart parsing; larger
// parts spill to temp files.
const maxMultipartMemory = 8 << 20

// FileHandler produces file_uploaded and file_deleted events around the file
// store.
type FileHandler struct {
	hub    domain.Hub
	files  *filestore.Service
	logger *logging.Logger
}

// NewFileHandler creates a new file handler.
func NewFileHandler(hub domain.Hub, files *filestore.Service, logger *logging.Logger) *FileHandler {
	return &FileHandler{
		hub:    hub,
		files:  files,
		logger: logger,
	}
}

func (h *FileHandler) filePayload(rec filestore.Record) domain.FilePayload {
	return domain.FilePayload{
		ID:          rec.ID,
		Filename:    rec.Filename,
		FileSize:    rec.Size,
		MimeType:    rec.MimeType,
		UploadedBy:  rec.UploadedBy,
		UploadedAt:  rec.UploadedAt,
		DownloadURL: h.files.DownloadURL(rec),
	}
}

// Upload handles POST /chats/{chatID}/files: store the blob, persist the
// record, and broadcast a file_uploaded event excluding the uploader.
func (h *FileHandler) Upload(w http.ResponseWriter, r *http.Request) {
	uploaderID := UserFromContext(r.Context())
	chatID := chi.URLParam(r, "chatID")

	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_MULTIPART", "failed to parse multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "MISSING_FILE", "request has no file part")
		return
	}
	defer file.Close()

	rec, err := h.files.Save(chatID, uploaderID, header.Filename, file)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	payload := h.filePayload(rec)

	fileJSON, err := json.Marshal(payload)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "MARSHAL_ERROR", "failed to marshal file payload")
		return
	}

	event := domain.FileUploadedEvent{
		Type:       domain.EventTypeFileUploaded,
		File:       fileJSON,
		ChatID:     chatID,
		UploadedBy: uploaderID,
	}

	eventJSON, err := json.Marshal(event)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "MARSHAL_ERROR", "failed to marshal event")
		return
	}

	h.hub.BroadcastToChat(r.Context(), chatID, eventJSON, uploaderID)

	writeJSON(w, http.StatusCreated, payload)
}

// List handles GET /chats/{chatID}/files.
func (h *FileHandler) List(w http.ResponseWriter, r *http.Request) {
	chatID := chi.URLParam(r, "chatID")

	records, err := h.files.List(chatID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	payloads := lo.Map(records, func(rec filestore.Record, _ int) domain.FilePayload {
		return h.filePayload(rec)
	})

	writeJSON(w, http.StatusOK, payloads)
}

// Serve handles GET /files/*: stream a stored blob.
func (h *FileHandler) Serve(w http.ResponseWriter, r *http.Request) {
	storedPath := chi.URLParam(r, "*")

	path, err := h.files.ResolvePath(storedPath)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	http.ServeFile(w, r, path)
}

// Delete handles DELETE /files/{fileID}: uploader-only removal plus a
// file_deleted broadcast to the rest of the chat.
func (h *FileHandler) Delete(w http.ResponseWriter, r *http.Request) {
	requesterID := UserFromContext(r.Context())
	fileID := chi.URLParam(r, "fileID")

	rec, err := h.files.Remove(fileID, requesterID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	event := domain.FileDeletedEvent{
		Type:      domain.EventTypeFileDeleted,
		FileID:    rec.ID,
		ChatID:    rec.ChatID,
		DeletedBy: requesterID,
	}

	eventJSON, err := json.Marshal(event)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "MARSHAL_ERROR", "failed to marshal event")
		return
	}

	h.hub.BroadcastToChat(r.Context(), rec.ChatID, eventJSON, requesterID)

	writeJSON(w, http.StatusOK, map[string]string{"message": "file deleted"})
}
