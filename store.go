package ledger

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// ErrNotFound reports that no master record exists at the store path.
var ErrNotFound = errors.New("master record not found")

// Store reads and writes the master record. Writes are atomic: the
// document is written to a temporary file in the same directory and
// renamed over the canonical path, so a crash mid-write can never leave
// a truncated record behind.
type Store struct {
	// Path is the canonical record location, typically "master.json".
	Path string
	// ArchiveDir receives a dated copy of every save. Defaults to an
	// "archive" directory next to Path.
	ArchiveDir string
	// WeeksDir, when set, additionally receives the legacy
	// W{n}/master.json copy of each weekly cycle.
	WeeksDir string
}

// NewStore returns a store for the given record path with the default
// archive layout.
func NewStore(path string) *Store {
	return &Store{
		Path:       path,
		ArchiveDir: filepath.Join(filepath.Dir(path), "archive"),
	}
}

// Load reads, decodes and validates the master record. A missing file is
// reported as ErrNotFound.
func (s *Store) Load() (*Master, error) {
	data, err := os.ReadFile(s.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w at %s", ErrNotFound, s.Path)
	}
	if err != nil {
		return nil, fmt.Errorf("reading master record: %w", err)
	}
	var m Master
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", s.Path, err)
	}
	if err := m.Check(); err != nil {
		return nil, fmt.Errorf("invalid record %s: %w", s.Path, err)
	}
	return &m, nil
}

// Save validates and writes the record atomically, then copies it to the
// archive (master-YYYYMMDD.json, keyed by the record's current date) and,
// when WeeksDir is set, to the legacy W{n}/master.json location.
func (s *Store) Save(m *Master) error {
	if err := m.Check(); err != nil {
		return fmt.Errorf("refusing to save invalid record: %w", err)
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding master record: %w", err)
	}
	data = append(data, '\n')
	if err := writeAtomic(s.Path, data); err != nil {
		return err
	}
	if s.ArchiveDir != "" {
		name := fmt.Sprintf("master-%s.json", m.Meta.CurrentDate.Compact())
		if err := writeCopy(filepath.Join(s.ArchiveDir, name), data); err != nil {
			return fmt.Errorf("archiving record: %w", err)
		}
	}
	if s.WeeksDir != "" {
		week := fmt.Sprintf("W%d", m.Weeks())
		if err := writeCopy(filepath.Join(s.WeeksDir, week, "master.json"), data); err != nil {
			return fmt.Errorf("writing weekly copy: %w", err)
		}
	}
	return nil
}

// writeAtomic writes data to a temporary file in the target directory
// and renames it over the destination.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temporary record: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing temporary record: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temporary record: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replacing %s: %w", path, err)
	}
	return nil
}

func writeCopy(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
