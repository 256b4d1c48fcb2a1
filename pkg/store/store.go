// Package store persists named JSON tables and the append-only event journal.
//
// Tables are whole files: load everything, mutate in memory, save everything.
// Saves go through a temp file and an atomic rename so a crash never leaves
// a half-written table behind. There is no locking here; the ledger
// serializes writers.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

var ErrCorruptData = errors.New("corrupt table")

// Store reads and writes JSON tables under Dir.
type Store struct {
	Dir string
}

func New(dir string) *Store {
	return &Store{Dir: dir}
}

// Path returns the file backing the named table.
func (s *Store) Path(table string) string {
	return filepath.Join(s.Dir, table+".json")
}

// Load reads the named table into out, which must be a pointer to a map.
// A missing file is not an error, out keeps its (empty) value.
func (s *Store) Load(table string, out any) (err error) {
	b, err := os.ReadFile(s.Path(table))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return
	}

	err = json.Unmarshal(b, out)
	if err != nil {
		return fmt.Errorf("%w: %s: %s", ErrCorruptData, s.Path(table), err)
	}

	return
}

// Save replaces the named table with v atomically: write a temp file,
// sync it, rename over the old one.
func (s *Store) Save(table string, v any) (err error) {
	err = os.MkdirAll(s.Dir, 0755)
	if err != nil {
		return
	}

	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return
	}

	path := s.Path(table)
	tmp := path + ".tmp"

	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return
	}

	_, err = f.Write(append(b, '\n'))
	if err != nil {
		f.Close()
		return
	}

	err = f.Sync()
	if err != nil {
		f.Close()
		return
	}

	err = f.Close()
	if err != nil {
		return
	}

	return os.Rename(tmp, path)
}
