// Package corebot is the server-utility bot: canned text responses kept
// in a CSV file, reloadable at runtime.
package corebot

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"
)

var (
	ErrCommandExists   = errors.New("command already exists")
	ErrCommandNotFound = errors.New("command not found")
)

// Store holds the custom text commands. It is an owned object, not a
// package-level map: the worker that needs it receives it at start.
type Store struct {
	mu   sync.RWMutex
	path string
	cmds map[string]string
}

func NewStore(path string) *Store {
	return &Store{
		path: path,
		cmds: map[string]string{},
	}
}

// Load reads the CSV file (name,response per row) and swaps the command
// map in one step, so lookups never observe a half-loaded state.
func (s *Store) Load() (n int, err error) {
	f, err := os.Open(s.path)
	if err != nil {
		return
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	rows, err := r.ReadAll()
	if err != nil {
		err = fmt.Errorf("parse %s: %w", s.path, err)
		return
	}

	cmds := map[string]string{}
	for _, row := range rows {
		if len(row) < 2 || row[0] == "" {
			continue
		}
		cmds[row[0]] = row[1]
	}

	s.mu.Lock()
	s.cmds = cmds
	s.mu.Unlock()

	return len(cmds), nil
}

// Create adds a new command and writes the table back to disk.
func (s *Store) Create(name, resp string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.cmds[name]; ok {
		return ErrCommandExists
	}
	s.cmds[name] = resp

	return s.saveLocked()
}

// Update changes a command in place. A non-empty newName renames it,
// a non-empty resp replaces the response text; either may be left
// empty to keep the current value.
func (s *Store) Update(name, newName, resp string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.cmds[name]
	if !ok {
		return ErrCommandNotFound
	}

	if newName != "" && newName != name {
		if _, taken := s.cmds[newName]; taken {
			return ErrCommandExists
		}
		delete(s.cmds, name)
		name = newName
	}
	if resp == "" {
		resp = cur
	}
	s.cmds[name] = resp

	return s.saveLocked()
}

// Delete removes a command and writes the table back to disk.
func (s *Store) Delete(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.cmds[name]; !ok {
		return ErrCommandNotFound
	}
	delete(s.cmds, name)

	return s.saveLocked()
}

// saveLocked rewrites the full CSV through a temp file and a rename, so
// readers never see a partially written table. Callers hold s.mu.
func (s *Store) saveLocked() error {
	names := make([]string, 0, len(s.cmds))
	for name := range s.cmds {
		names = append(names, name)
	}
	sort.Strings(names)

	tmp := s.path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}

	w := csv.NewWriter(f)
	for _, name := range names {
		if err = w.Write([]string{name, s.cmds[name]}); err != nil {
			f.Close()
			return err
		}
	}
	w.Flush()
	if err = w.Error(); err != nil {
		f.Close()
		return err
	}
	if err = f.Sync(); err != nil {
		f.Close()
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}

	return os.Rename(tmp, s.path)
}

// Lookup resolves a command name to its response text.
func (s *Store) Lookup(name string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	resp, ok := s.cmds[name]
	return resp, ok
}

// Names returns the sorted command names.
func (s *Store) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.cmds))
	for name := range s.cmds {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}
