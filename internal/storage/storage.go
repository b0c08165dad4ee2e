package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"homedash/internal/models"
)

// FileBackend keeps apps and settings in a single JSON document on disk.
type FileBackend struct {
	mu   sync.RWMutex
	path string
	doc  document
}

type document struct {
	apps     []models.App
	hasApps  bool
	settings *models.Settings
}

// fileDocument is the on-disk shape. A nil Apps pointer means apps were
// never saved, which differs from an empty list.
type fileDocument struct {
	Apps     *[]models.App    `json:"apps,omitempty"`
	Settings *models.Settings `json:"dashboard,omitempty"`
}

// NewFileBackend creates a file backend and loads the existing document if present.
func NewFileBackend(path string) (*FileBackend, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure data directory: %w", err)
	}

	s := &FileBackend{path: path}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

// LoadApps implements Backend.
func (s *FileBackend) LoadApps(_ context.Context) ([]models.App, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.doc.hasApps {
		return nil, false, nil
	}
	return slices.Clone(s.doc.apps), true, nil
}

// SaveApps implements Backend.
func (s *FileBackend) SaveApps(_ context.Context, apps []models.App) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.doc.apps = slices.Clone(apps)
	s.doc.hasApps = true
	return s.persist()
}

// LoadSettings implements Backend.
func (s *FileBackend) LoadSettings(_ context.Context) (models.Settings, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.doc.settings == nil {
		return models.Settings{}, false, nil
	}
	return *s.doc.settings, true, nil
}

// SaveSettings implements Backend.
func (s *FileBackend) SaveSettings(_ context.Context, settings models.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.doc.settings = &settings
	return s.persist()
}

// Close implements Backend.
func (s *FileBackend) Close() error {
	return nil
}

func (s *FileBackend) load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.doc = document{}
			return nil
		}
		return fmt.Errorf("read dashboard document: %w", err)
	}

	if len(data) == 0 {
		s.doc = document{}
		return nil
	}

	var raw fileDocument
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("parse dashboard document: %w", err)
	}

	s.doc = document{settings: raw.Settings}
	if raw.Apps != nil {
		s.doc.apps = *raw.Apps
		s.doc.hasApps = true
	}
	return nil
}

func (s *FileBackend) persist() error {
	raw := fileDocument{Settings: s.doc.settings}
	if s.doc.hasApps {
		apps := s.doc.apps
		if apps == nil {
			apps = []models.App{}
		}
		raw.Apps = &apps
	}

	bytes, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return fmt.Errorf("encode dashboard document: %w", err)
	}

	tmpPath := fmt.Sprintf("%s.%d.tmp", s.path, time.Now().UnixNano())
	if err := os.WriteFile(tmpPath, bytes, 0o644); err != nil {
		return fmt.Errorf("write temp dashboard document: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("replace dashboard document: %w", err)
	}
	return nil
}
