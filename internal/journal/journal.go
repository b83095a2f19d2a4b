// Package journal persists transfers whose export committed but whose import
// did not, so they can be recovered after the process exits.
package journal

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	// journalFilePermissions is the permission mode for the journal file.
	journalFilePermissions = 0o600

	// journalDirPermissions is the permission mode for the journal directory.
	journalDirPermissions = 0o750

	// FileName is the journal file name inside the data directory.
	FileName = "stuck.json"

	formatVersion = 1
)

var (
	// ErrCorruptJournal indicates the journal file is malformed JSON.
	ErrCorruptJournal = errors.New("journal file is corrupted")

	// ErrMissingAccount indicates an entry was recorded without an account key.
	ErrMissingAccount = errors.New("journal entry has no account")
)

// Entry is one stuck transfer.
type Entry struct {
	ID          string    `json:"id"`
	OperationID string    `json:"operation_id,omitempty"`
	Account     string    `json:"account"`
	Intent      string    `json:"intent"`
	Source      string    `json:"source"`
	Destination string    `json:"destination"`
	Amount      string    `json:"amount,omitempty"`
	ExportTxID  string    `json:"export_tx_id"`
	ImportTxID  string    `json:"import_tx_id,omitempty"`
	Reason      string    `json:"reason,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type document struct {
	Version int     `json:"version"`
	Entries []Entry `json:"entries"`
}

// FileStore keeps the journal as a single JSON document. Writes replace
// the file atomically, so a crash never leaves a partial journal.
type FileStore struct {
	mu   sync.Mutex
	path string
	now  func() time.Time
}

// NewFileStore creates a journal stored at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path, now: time.Now}
}

// Path returns the journal file path.
func (s *FileStore) Path() string {
	return s.path
}

// Record appends e and returns it with ID and CreatedAt filled in.
func (s *FileStore) Record(e Entry) (Entry, error) {
	if e.Account == "" {
		return Entry{}, ErrMissingAccount
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil && !errors.Is(err, ErrCorruptJournal) {
		return Entry{}, err
	}
	doc.Entries = append(doc.Entries, e)
	if err := s.save(doc); err != nil {
		return Entry{}, err
	}
	return e, nil
}

// List returns every entry, oldest first.
func (s *FileStore) List() ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return nil, err
	}
	return doc.Entries, nil
}

// Pending returns the entries recorded for account, oldest first.
func (s *FileStore) Pending(account string) ([]Entry, error) {
	all, err := s.List()
	if err != nil {
		return nil, err
	}
	var out []Entry
	for _, e := range all {
		if e.Account == account {
			out = append(out, e)
		}
	}
	return out, nil
}

// Clear removes every entry for account and returns how many were removed.
func (s *FileStore) Clear(account string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return 0, err
	}

	kept := doc.Entries[:0]
	for _, e := range doc.Entries {
		if e.Account != account {
			kept = append(kept, e)
		}
	}
	removed := len(doc.Entries) - len(kept)
	if removed == 0 {
		return 0, nil
	}
	doc.Entries = kept

	if len(kept) == 0 {
		if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
			return 0, fmt.Errorf("removing journal file: %w", err)
		}
		return removed, nil
	}
	if err := s.save(doc); err != nil {
		return 0, err
	}
	return removed, nil
}

// load reads the journal. A missing file is an empty journal; a corrupt file
// is moved aside and reported with an empty journal.
func (s *FileStore) load() (*document, error) {
	empty := &document{Version: formatVersion}

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return empty, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading journal file: %w", err)
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		corruptPath := fmt.Sprintf("%s.corrupt.%d", s.path, s.now().UTC().UnixNano())
		if renameErr := os.Rename(s.path, corruptPath); renameErr != nil {
			return empty, fmt.Errorf("%w: %w (also failed to move file: %w)", ErrCorruptJournal, err, renameErr)
		}
		return empty, fmt.Errorf("%w: %w (moved to %s)", ErrCorruptJournal, err, corruptPath)
	}

	sort.SliceStable(doc.Entries, func(i, j int) bool {
		return doc.Entries[i].CreatedAt.Before(doc.Entries[j].CreatedAt)
	})
	return &doc, nil
}

func (s *FileStore) save(doc *document) error {
	if err := os.MkdirAll(filepath.Dir(s.path), journalDirPermissions); err != nil {
		return fmt.Errorf("creating journal directory: %w", err)
	}

	doc.Version = formatVersion
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling journal: %w", err)
	}

	return writeAtomic(s.path, data, journalFilePermissions)
}
