// Package storage provides the key/value stores that hold the serialized
// project collection and small UI settings.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"
)

// Store is a flat key/value store. Get returns nil, nil for a missing key.
type Store interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte) error
	Delete(key string) error
	Close() error
}

// Memory is an in-process Store, used for tests and the "memory" backend
type Memory struct {
	mu   sync.RWMutex
	data map[string][]byte
	// FailWrites makes Set return an error, for exercising save failures
	FailWrites error
}

// NewMemory creates an empty in-memory store
func NewMemory() *Memory {
	return &Memory{data: make(map[string][]byte)}
}

func (m *Memory) Get(key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), v...), nil
}

func (m *Memory) Set(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWrites != nil {
		return m.FailWrites
	}
	m.data[key] = append([]byte(nil), value...)
	return nil
}

func (m *Memory) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *Memory) Close() error { return nil }

var unsafeKeyChars = regexp.MustCompile(`[^A-Za-z0-9._-]`)

// Dir stores each key as <dir>/<key>.json
type Dir struct {
	path string
}

// NewDir creates the directory if needed
func NewDir(path string) (*Dir, error) {
	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}
	return &Dir{path: path}, nil
}

func (d *Dir) file(key string) string {
	return filepath.Join(d.path, unsafeKeyChars.ReplaceAllString(key, "_")+".json")
}

func (d *Dir) Get(key string) ([]byte, error) {
	data, err := os.ReadFile(d.file(key))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return data, nil
}

// Set writes through a temp file and rename so a crash never leaves a torn file
func (d *Dir) Set(key string, value []byte) error {
	target := d.file(key)
	tmp, err := os.CreateTemp(d.path, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	if _, err := tmp.Write(value); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

func (d *Dir) Delete(key string) error {
	err := os.Remove(d.file(key))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (d *Dir) Close() error { return nil }
