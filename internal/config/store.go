package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrNoSuchDatasource reports a lookup for an unknown name.
var ErrNoSuchDatasource = errors.New("config: no such datasource")

const (
	datasourceFile = "datasources.yaml"
	historyFile    = "history.json"
)

// Store reads and writes persisted state under one directory.
type Store struct {
	dir        string
	historyMax int
}

// Option configures a Store.
type Option func(*Store)

// WithDir overrides the state directory.
func WithDir(dir string) Option {
	return func(s *Store) { s.dir = dir }
}

// WithHistoryMax bounds persisted history length.
func WithHistoryMax(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.historyMax = n
		}
	}
}

// NewStore builds a store rooted at the user config directory unless
// overridden. The directory is created on first write, not here.
func NewStore(opts ...Option) (*Store, error) {
	s := &Store{historyMax: 1000}
	for _, opt := range opts {
		opt(s)
	}
	if s.dir == "" {
		base, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("config: resolve config dir: %w", err)
		}
		s.dir = filepath.Join(base, "ratisui")
	}
	return s, nil
}

// Dir reports the state directory.
func (s *Store) Dir() string { return s.dir }

func (s *Store) ensureDir() error {
	return os.MkdirAll(s.dir, 0o700)
}

// writeFile writes atomically via a temp file rename, so a crash
// mid-write never truncates existing state.
func (s *Store) writeFile(name string, data []byte) error {
	if err := s.ensureDir(); err != nil {
		return fmt.Errorf("config: create dir: %w", err)
	}
	path := filepath.Join(s.dir, name)
	tmp, err := os.CreateTemp(s.dir, name+".tmp-*")
	if err != nil {
		return fmt.Errorf("config: temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("config: write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("config: close %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("config: replace %s: %w", name, err)
	}
	return nil
}

func (s *Store) readFile(name string) ([]byte, error) {
	b, err := os.ReadFile(filepath.Join(s.dir, name))
	if os.IsNotExist(err) {
		return nil, nil
	}
	return b, err
}
