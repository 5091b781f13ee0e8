package filesystem

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"artisan-canvas/core"

	"github.com/sirupsen/logrus"
)

// Store keeps one file per key below basePath. Slashes in keys become
// directories.
type Store struct {
	basePath string
}

// NewStore creates a new filesystem-based store.
func NewStore(basePath string) (*Store, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}
	abs, err := filepath.Abs(basePath)
	if err != nil {
		return nil, err
	}
	return &Store{basePath: abs}, nil
}

// path maps a key to a file and refuses anything that would escape basePath.
func (s *Store) path(key string) (string, error) {
	if err := core.ValidateKey(key); err != nil {
		return "", err
	}
	p := filepath.Join(s.basePath, filepath.FromSlash(key))
	if !strings.HasPrefix(p, s.basePath+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid path: access denied")
	}
	return p, nil
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	p, err := s.path(key)
	if err != nil {
		return nil, err
	}
	log := logrus.WithFields(logrus.Fields{"key": key, "file_path": p})

	data, err := os.ReadFile(p)
	if err != nil {
		if os.IsNotExist(err) {
			log.Debug("Key not found")
			return nil, core.ErrNotFound
		}
		log.WithError(err).Error("Failed to read value")
		return nil, err
	}
	return data, nil
}

func (s *Store) Put(ctx context.Context, key string, value []byte) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}
	log := logrus.WithFields(logrus.Fields{"key": key, "file_path": p})

	if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
		log.WithError(err).Error("Failed to create key directory")
		return err
	}

	// Write then rename so readers never see a half-written file.
	tmp, err := os.CreateTemp(filepath.Dir(p), ".tmp-*")
	if err != nil {
		log.WithError(err).Error("Failed to create temp file")
		return err
	}
	if _, err := tmp.Write(value); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		log.WithError(err).Error("Failed to write value")
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), p); err != nil {
		os.Remove(tmp.Name())
		log.WithError(err).Error("Failed to move value into place")
		return err
	}

	log.Debug("Value stored")
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}
	log := logrus.WithFields(logrus.Fields{"key": key, "file_path": p})

	if err := os.Remove(p); err != nil {
		if os.IsNotExist(err) {
			log.Debug("Value not found for deletion, considered successful.")
			return nil
		}
		log.WithError(err).Error("Failed to delete value")
		return err
	}
	log.Debug("Value deleted")
	return nil
}
