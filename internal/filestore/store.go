package filestore

import (
	"encoding/json"
	"fmt"
	"time"

	"duplex/internal/logging"
	"duplex/pkg/errors"

	"github.com/dgraph-io/badger/v4"
)

// Record is the persisted metadata for one uploaded file.
type Record struct {
	ID         string    `json:"id"`
	Filename   string    `json:"filename"`
	StoredPath string    `json:"stored_path"`
	Size       int64     `json:"size"`
	MimeType   string    `json:"mime_type"`
	ChatID     string    `json:"chat_id"`
	UploadedBy string    `json:"uploaded_by"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// Store keeps file records in Badger. Records are stored under
// "file:{id}"; a per-chat index "chat:{chat_id}:{id}" allows prefix scans
// for everything shared into one chat.
type Store struct {
	db     *badger.DB
	logger *logging.Logger
}

// NewStore creates a store on top of an open Badger instance.
func NewStore(db *badger.DB, logger *logging.Logger) *Store {
	return &Store{db: db, logger: logger}
}

func recordKey(id string) []byte {
	return []byte("file:" + id)
}

func chatKey(chatID, id string) []byte {
	return []byte(fmt.Sprintf("chat:%s:%s", chatID, id))
}

// Put persists a record and its chat index entry.
func (s *Store) Put(rec Record) error {
	value, err := json.Marshal(rec)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeInternal, "MARSHAL_ERROR", "failed to marshal file record")
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(recordKey(rec.ID), value); err != nil {
			return err
		}
		return txn.Set(chatKey(rec.ChatID, rec.ID), []byte(rec.ID))
	})
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeStorage, "STORE_ERROR", "failed to persist file record")
	}

	return nil
}

// Get fetches a record by ID.
func (s *Store) Get(id string) (Record, error) {
	var rec Record

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(recordKey(id))
		if err != nil {
			return err
		}
		return item.Value(func(value []byte) error {
			return json.Unmarshal(value, &rec)
		})
	})
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return Record{}, errors.New(errors.ErrorTypeNotFound, "FILE_NOT_FOUND", "file record not found")
		}
		return Record{}, errors.Wrap(err, errors.ErrorTypeStorage, "STORE_ERROR", "failed to read file record")
	}

	return rec, nil
}

// ListByChat returns every record shared into chatID, via a prefix scan over
// the chat index.
func (s *Store) ListByChat(chatID string) ([]Record, error) {
	var records []Record

	err := s.db.View(func(txn *badger.Txn) error {
		prefix := []byte(fmt.Sprintf("chat:%s:", chatID))

		options := badger.DefaultIteratorOptions
		it := txn.NewIterator(options)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var id string
			if err := it.Item().Value(func(value []byte) error {
				id = string(value)
				return nil
			}); err != nil {
				return err
			}

			item, err := txn.Get(recordKey(id))
			if err != nil {
				// Index entry without a record; skip rather than fail
				// the whole listing.
				s.logger.Warn("dangling chat index entry", "file_id", id, "chat_id", chatID)
				continue
			}

			var rec Record
			if err := item.Value(func(value []byte) error {
				return json.Unmarshal(value, &rec)
			}); err != nil {
				return err
			}
			records = append(records, rec)
		}

		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeStorage, "STORE_ERROR", "failed to list file records")
	}

	return records, nil
}

// Delete removes a record and its chat index entry. Deleting an absent
// record is a no-op.
func (s *Store) Delete(id string) error {
	rec, err := s.Get(id)
	if err != nil {
		if e, ok := err.(*errors.Error); ok && e.Type == errors.ErrorTypeNotFound {
			return nil
		}
		return err
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Delete(recordKey(id)); err != nil {
			return err
		}
		return txn.Delete(chatKey(rec.ChatID, id))
	})
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeStorage, "STORE_ERROR", "failed to delete file record")
	}

	return nil
}
