// Package preference keeps the user's chosen guidance language.
package preference

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/a3tai/mcp-form-guide/internal/guidance"
)

// FileName is the preference file written inside the data directory.
const FileName = "language_preference.json"

// Store reads and writes the language preference.
type Store interface {
	Get() guidance.Language
	Set(language guidance.Language) (guidance.Language, error)
}

type record struct {
	Language string `json:"language"`
}

// FileStore persists the preference as JSON. Unreadable or invalid files
// read as the default language.
type FileStore struct {
	mu       sync.Mutex
	path     string
	fallback guidance.Language
	logger   *zap.Logger
}

// NewFileStore creates a store at dir/FileName. fallback is returned when no
// valid preference has been saved.
func NewFileStore(dir string, fallback guidance.Language, logger *zap.Logger) *FileStore {
	if !fallback.Valid() {
		fallback = guidance.DefaultLanguage
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileStore{
		path:     filepath.Join(dir, FileName),
		fallback: fallback,
		logger:   logger,
	}
}

// Path returns the preference file location.
func (s *FileStore) Path() string {
	return s.path
}

// Get implements Store.
func (s *FileStore) Get() guidance.Language {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.logger.Warn("failed to read language preference", zap.String("path", s.path), zap.Error(err))
		}
		return s.fallback
	}

	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		s.logger.Warn("invalid language preference file", zap.String("path", s.path), zap.Error(err))
		return s.fallback
	}
	language, ok := guidance.ParseLanguage(rec.Language)
	if !ok {
		return s.fallback
	}
	return language
}

// Set implements Store. Unrecognized languages are stored as the default,
// and the stored value is returned.
func (s *FileStore) Set(language guidance.Language) (guidance.Language, error) {
	if parsed, ok := guidance.ParseLanguage(string(language)); ok {
		language = parsed
	} else {
		language = s.fallback
	}

	data, err := json.Marshal(record{Language: string(language)})
	if err != nil {
		return "", fmt.Errorf("failed to encode language preference: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return "", fmt.Errorf("failed to create preference directory: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return "", fmt.Errorf("failed to write language preference: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return "", fmt.Errorf("failed to save language preference: %w", err)
	}

	s.logger.Info("language preference saved", zap.String("language", string(language)))
	return language, nil
}

// Memory is a Store that keeps the preference in process.
type Memory struct {
	mu       sync.RWMutex
	language guidance.Language
}

// NewMemory creates a Memory store holding initial.
func NewMemory(initial guidance.Language) *Memory {
	if !initial.Valid() {
		initial = guidance.DefaultLanguage
	}
	return &Memory{language: initial}
}

// Get implements Store.
func (m *Memory) Get() guidance.Language {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.language
}

// Set implements Store.
func (m *Memory) Set(language guidance.Language) (guidance.Language, error) {
	parsed, ok := guidance.ParseLanguage(string(language))
	if !ok {
		parsed = guidance.DefaultLanguage
	}
	m.mu.Lock()
	m.language = parsed
	m.mu.Unlock()
	return parsed, nil
}
