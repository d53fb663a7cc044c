package persistence

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/natefinch/atomic"
	"go.uber.org/zap"

	"github.com/helpdeskhq/helpdesk/pkg/util/errorutil"
)

const (
	dataDirPerms  = 0o755
	dataFilePerms = 0o644
)

// FileStore keeps a collection as a pretty-printed JSON array in a single file.
// Writes replace the file atomically through a temp file and rename.
type FileStore[T any] struct {
	path   string
	logger *zap.Logger
	once   sync.Once
}

// NewFileStore returns a store backed by path. The file and its parent
// directories are created on first access.
func NewFileStore[T any](path string, logger *zap.Logger) *FileStore[T] {
	return &FileStore[T]{path: path, logger: logger.With(zap.String("store", path))}
}

// Path returns the backing file location.
func (s *FileStore[T]) Path() string {
	return s.path
}

func (s *FileStore[T]) ensure() {
	s.once.Do(func() {
		if err := os.MkdirAll(filepath.Dir(s.path), dataDirPerms); err != nil {
			s.logger.Warn("unable to create data directory", zap.Error(err))
			return
		}
		if _, err := os.Stat(s.path); !errors.Is(err, fs.ErrNotExist) {
			return
		}
		if err := s.write([]byte("[]")); err != nil {
			s.logger.Warn("unable to initialize data file", zap.Error(err))
		}
	})
}

// LoadAll implements RecordStore.
func (s *FileStore[T]) LoadAll(_ context.Context) []T {
	s.ensure()
	data, err := os.ReadFile(s.path)
	if err != nil {
		s.logger.Warn("unable to read data file", zap.Error(err))
		return []T{}
	}
	return decodeRecords[T](data, s.logger)
}

// SaveAll implements RecordStore.
func (s *FileStore[T]) SaveAll(_ context.Context, records []T) error {
	s.ensure()
	data, err := encodeRecords(records)
	if err != nil {
		return errorutil.NewStorageError(fmt.Errorf("encode %s: %w", s.path, err))
	}
	if err := s.write(data); err != nil {
		return errorutil.NewStorageError(err)
	}
	return nil
}

// Ping reports whether the data directory is reachable.
func (s *FileStore[T]) Ping(_ context.Context) error {
	info, err := os.Stat(filepath.Dir(s.path))
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", filepath.Dir(s.path))
	}
	return nil
}

func (s *FileStore[T]) write(data []byte) error {
	if err := atomic.WriteFile(s.path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("write %s: %w", s.path, err)
	}
	// atomic.WriteFile leaves new files with the temp file's 0600 mode.
	if err := os.Chmod(s.path, dataFilePerms); err != nil {
		return fmt.Errorf("chmod %s: %w", s.path, err)
	}
	return nil
}
