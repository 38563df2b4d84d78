// Package fs provides file-system adapters: the draft journal that lets
// unsaved edits survive a crash.
package fs

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/fintab-labs/gridsave/internal/domain"
)

const journalFileName = "drafts.json"

// Journal persists the pending set as a JSON document in a directory.
// Writes are atomic (temp file then rename) so a crash mid-write never
// corrupts the previous journal.
type Journal struct {
	dir string
}

// NewJournal creates a journal rooted at dir.
func NewJournal(dir string) *Journal {
	return &Journal{dir: dir}
}

// Load retrieves the last persisted pending set.
// Returns nil and no error if no journal file exists.
func (j *Journal) Load(ctx context.Context) ([]domain.PendingChange, error) {
	data, err := os.ReadFile(j.Path())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var changes []domain.PendingChange
	if err := json.Unmarshal(data, &changes); err != nil {
		return nil, err
	}
	return changes, nil
}

// Save replaces the journal with the given pending set.
func (j *Journal) Save(ctx context.Context, changes []domain.PendingChange) error {
	if err := os.MkdirAll(j.dir, 0o700); err != nil {
		return err
	}

	if changes == nil {
		changes = []domain.PendingChange{}
	}
	data, err := json.MarshalIndent(changes, "", "  ")
	if err != nil {
		return err
	}

	tmp := j.Path() + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, j.Path())
}

// Path returns the full path to the journal file.
func (j *Journal) Path() string {
	return filepath.Join(j.dir, journalFileName)
}
