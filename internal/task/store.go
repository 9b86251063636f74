package task

import (
	"encoding/json"
	"os"
	"time"

	"github.com/taskclaim/taskclaim/internal/errors"
	"github.com/taskclaim/taskclaim/internal/logging"
	"github.com/taskclaim/taskclaim/internal/txn"
)

// FileName is the task store document name within the data directory.
const FileName = "tasks.json"

// Store loads and saves the task store document. All writes go through the
// transaction layer; the Store never opens the document for writing itself.
type Store struct {
	path   string
	writer *txn.Writer
	log    *logging.Logger
}

// NewStore creates a Store for the document at path.
func NewStore(path string, writer *txn.Writer, log *logging.Logger) *Store {
	if log == nil {
		log = logging.NopLogger()
	}
	return &Store{
		path:   path,
		writer: writer,
		log:    log,
	}
}

// Path returns the document path. Lock acquisition keys off this.
func (s *Store) Path() string {
	return s.path
}

// Load parses the document and verifies its checksum. A checksum mismatch
// means another invocation wrote between this caller's read and its lock
// acquisition; it is recoverable by retrying the whole operation.
func (s *Store) Load() (*Document, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, err
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrapf(errors.ErrDocumentCorrupted, "%s: %v", s.path, err)
	}

	if doc.Meta.Checksum != "" {
		payload, err := json.Marshal(doc.Tasks)
		if err != nil {
			return nil, errors.Wrapf(errors.ErrDocumentCorrupted, "%s: %v", s.path, err)
		}
		if got := txn.Checksum(payload); got != doc.Meta.Checksum {
			return nil, errors.Wrapf(errors.ErrChecksumMismatch, "%s", s.path)
		}
	}

	return &doc, nil
}

// Save stamps the document's checksum and modification time, then writes it
// atomically. The caller must hold the document's lock.
func (s *Store) Save(doc *Document) error {
	payload, err := json.Marshal(doc.Tasks)
	if err != nil {
		return errors.Wrapf(errors.ErrWriteFailed, "marshal tasks: %v", err)
	}
	doc.Meta.Checksum = txn.Checksum(payload)
	doc.Meta.LastModified = time.Now().UTC()

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return errors.Wrapf(errors.ErrWriteFailed, "marshal document: %v", err)
	}

	return s.writer.Write(s.path, data)
}

// Init creates an empty document if none exists. Returns true if a new
// document was created.
func (s *Store) Init() (bool, error) {
	if _, err := os.Stat(s.path); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, err
	}

	if err := s.Save(NewDocument()); err != nil {
		return false, err
	}
	s.log.Info("task store created", "path", s.path)
	return true, nil
}

// Exists reports whether the document has been initialized.
func (s *Store) Exists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}
