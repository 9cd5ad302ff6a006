// Package store loads and saves the canonical configuration document.
package store

import (
	"bytes"
	"os"
	"path/filepath"
	"sync"

	"github.com/goccy/go-yaml"

	"github.com/agentstation/configurator/pkg/constants"
	"github.com/agentstation/configurator/pkg/errors"
	"github.com/agentstation/configurator/pkg/schema"
)

// Store is the load/save contract for the configuration document.
// Load returns an error matching errors.ErrNotFound when no document exists.
type Store interface {
	Load() (*schema.Configuration, error)
	Save(cfg *schema.Configuration) error
}

// FileStore keeps the document in a YAML file.
type FileStore struct {
	path string
}

// NewFileStore returns a FileStore for path. An empty path selects the default document name.
func NewFileStore(path string) *FileStore {
	if path == "" {
		path = constants.DefaultDocumentPath
	}
	return &FileStore{path: path}
}

// Path returns the document location.
func (s *FileStore) Path() string {
	return s.path
}

// Load reads and strictly decodes the document. Unknown keys at any level are
// rejected as parse errors.
func (s *FileStore) Load() (*schema.Configuration, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewNotFoundError("configuration", s.path)
		}
		return nil, errors.WrapIO("read", s.path, err)
	}
	return Decode(data, s.path)
}

// Save writes the document, creating parent directories as needed.
func (s *FileStore) Save(cfg *schema.Configuration) error {
	data, err := Encode(cfg)
	if err != nil {
		return errors.WrapParse("yaml", s.path, err)
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, constants.DirPermissions); err != nil {
			return errors.WrapIO("create", dir, err)
		}
	}
	if err := os.WriteFile(s.path, data, constants.FilePermissions); err != nil {
		return errors.WrapIO("write", s.path, err)
	}
	return nil
}

// Decode strictly decodes a YAML document. file is only used in error messages.
func Decode(data []byte, file string) (*schema.Configuration, error) {
	cfg := &schema.Configuration{}
	if len(bytes.TrimSpace(data)) == 0 {
		return cfg, nil
	}
	if err := yaml.UnmarshalWithOptions(data, cfg, yaml.DisallowUnknownField()); err != nil {
		return nil, errors.NewParseError("yaml", file, yaml.FormatError(err, false, true), err)
	}
	return cfg, nil
}

// Encode renders cfg as YAML with two-space indentation.
func Encode(cfg *schema.Configuration) ([]byte, error) {
	if cfg == nil {
		cfg = &schema.Configuration{}
	}
	return yaml.MarshalWithOptions(cfg, yaml.Indent(2), yaml.IndentSequence(true))
}

// MemoryStore keeps a copy of the document in memory.
type MemoryStore struct {
	mu    sync.RWMutex
	data  []byte
	saves int
}

// NewMemoryStore returns a MemoryStore holding cfg, or an empty store when cfg is nil.
func NewMemoryStore(cfg *schema.Configuration) *MemoryStore {
	s := &MemoryStore{}
	if cfg != nil {
		data, err := Encode(cfg)
		if err == nil {
			s.data = data
		}
	}
	return s
}

// Load returns a copy of the stored document.
func (s *MemoryStore) Load() (*schema.Configuration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.data == nil {
		return nil, errors.NewNotFoundError("configuration", "memory")
	}
	return Decode(s.data, "memory")
}

// Save replaces the stored document with a copy of cfg.
func (s *MemoryStore) Save(cfg *schema.Configuration) error {
	data, err := Encode(cfg)
	if err != nil {
		return errors.WrapParse("yaml", "memory", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = data
	s.saves++
	return nil
}

// Saves returns how many times Save succeeded.
func (s *MemoryStore) Saves() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saves
}
