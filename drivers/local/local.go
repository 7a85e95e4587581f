// Package localdriver stores media on the local disk.
package localdriver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	gomedia "github.com/shoraid/go-mediaprovider"
)

// LocalStorageConfig defines where and how files are written.
type LocalStorageConfig struct {
	Directory string      // root directory, created when missing
	Create    bool        // create Directory on startup
	DirMode   os.FileMode // mode of created directories, 0755 when zero
	FileMode  os.FileMode // mode of written files, 0644 when zero
}

// LocalStorage is the gomedia.DirectoryAdapter implementation for local disks.
type LocalStorage struct {
	root     string
	dirMode  os.FileMode
	fileMode os.FileMode
}

var _ gomedia.DirectoryAdapter = (*LocalStorage)(nil)

// NewLocalStorage returns a LocalStorage rooted at cfg.Directory.
// Returns gomedia.ErrInvalidConfig if the directory is missing or unusable.
func NewLocalStorage(cfg LocalStorageConfig) (*LocalStorage, error) {
	if cfg.Directory == "" {
		return nil, gomedia.ErrInvalidConfig
	}

	root, err := filepath.Abs(cfg.Directory)
	if err != nil {
		return nil, gomedia.ErrInvalidConfig
	}

	s := &LocalStorage{root: root, dirMode: cfg.DirMode, fileMode: cfg.FileMode}
	if s.dirMode == 0 {
		s.dirMode = 0o755
	}
	if s.fileMode == 0 {
		s.fileMode = 0o644
	}

	if cfg.Create {
		if err := os.MkdirAll(root, s.dirMode); err != nil {
			log.Error().Err(err).Str("directory", root).Msg("failed to create storage directory")
			return nil, gomedia.ErrInvalidConfig
		}
	}

	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		log.Error().Err(err).Str("directory", root).Msg("storage directory is not usable")
		return nil, gomedia.ErrInvalidConfig
	}

	return s, nil
}

// Directory returns the absolute root directory.
func (s *LocalStorage) Directory() string { return s.root }

// path resolves key inside the root directory.
func (s *LocalStorage) path(key string) (string, error) {
	if key == "" {
		return "", gomedia.ErrInvalidKey
	}

	p := filepath.Join(s.root, filepath.FromSlash(key))
	if p != s.root && !strings.HasPrefix(p, s.root+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q escapes the storage directory", gomedia.ErrInvalidKey, key)
	}
	return p, nil
}

// Delete removes the file. A missing file is not an error.
func (s *LocalStorage) Delete(_ context.Context, key string) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}

	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Error().Err(err).Str("key", key).Msg("failed to delete file from disk")
		return gomedia.ErrInternal
	}

	return nil
}

func (s *LocalStorage) Exists(_ context.Context, key string) (bool, error) {
	p, err := s.path(key)
	if err != nil {
		return false, err
	}

	info, err := os.Stat(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		log.Error().Err(err).Str("key", key).Msg("failed to check if file exists on disk")
		return false, gomedia.ErrInternal
	}

	return !info.IsDir(), nil
}

func (s *LocalStorage) Read(_ context.Context, key string) ([]byte, error) {
	p, err := s.path(key)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, gomedia.ErrNotFound
		}
		log.Error().Err(err).Str("key", key).Msg("failed to read file from disk")
		return nil, gomedia.ErrInternal
	}

	return data, nil
}

// Write stores content atomically through a temporary file in the target
// directory. Metadata is ignored, the disk has nowhere to keep it.
func (s *LocalStorage) Write(_ context.Context, key string, content io.Reader, _ map[string]string) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}

	dir := filepath.Dir(p)
	if err := os.MkdirAll(dir, s.dirMode); err != nil {
		log.Error().Err(err).Str("key", key).Msg("failed to create directory")
		return gomedia.ErrInternal
	}

	tmp, err := os.CreateTemp(dir, ".upload-*")
	if err != nil {
		log.Error().Err(err).Str("key", key).Msg("failed to create temporary file")
		return gomedia.ErrInternal
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, content); err != nil {
		tmp.Close()
		log.Error().Err(err).Str("key", key).Msg("failed to write file to disk")
		return gomedia.ErrInternal
	}
	if err := tmp.Close(); err != nil {
		log.Error().Err(err).Str("key", key).Msg("failed to close temporary file")
		return gomedia.ErrInternal
	}
	if err := os.Chmod(tmp.Name(), s.fileMode); err != nil {
		log.Error().Err(err).Str("key", key).Msg("failed to set file mode")
		return gomedia.ErrInternal
	}
	if err := os.Rename(tmp.Name(), p); err != nil {
		log.Error().Err(err).Str("key", key).Msg("failed to move file into place")
		return gomedia.ErrInternal
	}

	return nil
}
