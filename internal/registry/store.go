package registry

import (
	"encoding/json"
	"os"
	"time"

	"github.com/taskclaim/taskclaim/internal/errors"
	"github.com/taskclaim/taskclaim/internal/logging"
	"github.com/taskclaim/taskclaim/internal/txn"
)

// FileName is the registry document name within the data directory.
const FileName = "sessions.json"

// Store loads and saves the session registry document through the
// transaction layer. In any operation touching both documents, the
// registry is locked first.
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

// Load parses the document and verifies its checksum. A mismatch signals
// a concurrent writer and is recoverable by retrying the operation.
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
		payload, err := checksumPayload(&doc)
		if err != nil {
			return nil, errors.Wrapf(errors.ErrDocumentCorrupted, "%s: %v", s.path, err)
		}
		if got := txn.Checksum(payload); got != doc.Meta.Checksum {
			return nil, errors.Wrapf(errors.ErrChecksumMismatch, "%s", s.path)
		}
	}

	return &doc, nil
}

// Save stamps the document's checksum and modification time, then writes
// it atomically. The caller must hold the document's lock.
func (s *Store) Save(doc *Document) error {
	payload, err := checksumPayload(doc)
	if err != nil {
		return errors.Wrapf(errors.ErrWriteFailed, "marshal registry payload: %v", err)
	}
	doc.Meta.Checksum = txn.Checksum(payload)
	doc.Meta.LastModified = time.Now().UTC()

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return errors.Wrapf(errors.ErrWriteFailed, "marshal registry: %v", err)
	}

	return s.writer.Write(s.path, data)
}

// Init creates an empty registry with the given policy if none exists.
// Returns true if a new document was created.
func (s *Store) Init(policy PolicyConfig) (bool, error) {
	if _, err := os.Stat(s.path); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, err
	}

	if err := s.Save(NewDocument(policy)); err != nil {
		return false, err
	}
	s.log.Info("session registry created", "path", s.path)
	return true, nil
}

// Exists reports whether the document has been initialized.
func (s *Store) Exists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}

// checksumPayload is the canonical byte form the checksum covers: the
// policy, live sessions, and history, but not the metadata itself.
func checksumPayload(doc *Document) ([]byte, error) {
	return json.Marshal(struct {
		Policy   PolicyConfig    `json:"policy"`
		Sessions []Session       `json:"sessions"`
		History  []HistoryRecord `json:"history"`
	}{doc.Policy, doc.Sessions, doc.History})
}
