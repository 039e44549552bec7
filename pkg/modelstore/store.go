// Package modelstore manages model files already on local disk. Its single
// destructive operation, Delete, is constrained to an allow-list of
// directories so a bad path from a UI layer can never escape the model
// storage roots.
package modelstore

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	aferox "github.com/clara-assistant/modelpull/pkg/afero"
	"github.com/clara-assistant/modelpull/pkg/logging"
)

// PathNotAllowedError is returned when a deletion target lies outside every
// allow-listed model directory.
type PathNotAllowedError struct {
	Path string
}

func (e *PathNotAllowedError) Error() string {
	return fmt.Sprintf("path '%s' is outside the allowed model directories", e.Path)
}

// IsPathNotAllowed reports whether err wraps a PathNotAllowedError.
func IsPathNotAllowed(err error) bool {
	var notAllowed *PathNotAllowedError
	return errors.As(err, &notAllowed)
}

// Store performs local file operations against the allow-listed model
// directories.
type Store struct {
	fs          aferox.Fs
	allowedDirs []string
	logger      logging.Interface
}

// New builds a store over the given allow-listed directories. Directories are
// cleaned once here so Allowed works on a normalized list.
func New(fs aferox.Fs, allowedDirs []string, logger logging.Interface) *Store {
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	cleaned := make([]string, 0, len(allowedDirs))
	for _, d := range allowedDirs {
		if d == "" {
			continue
		}
		cleaned = append(cleaned, filepath.Clean(d))
	}

	return &Store{fs: fs, allowedDirs: cleaned, logger: logger}
}

// Dirs returns the allow-listed directories.
func (s *Store) Dirs() []string {
	return append([]string{}, s.allowedDirs...)
}

// EnsureDirs creates every allow-listed directory that does not yet exist.
func (s *Store) EnsureDirs() error {
	for _, d := range s.allowedDirs {
		if err := s.fs.MkdirAll(d, 0o755); err != nil {
			return errors.Wrapf(err, "creating model directory %s", d)
		}
	}
	return nil
}

// Allowed reports whether path is a file strictly inside one of the
// allow-listed directories. The directories themselves are not deletable.
func (s *Store) Allowed(path string) bool {
	cleaned := filepath.Clean(path)

	for _, dir := range s.allowedDirs {
		if cleaned == dir {
			continue
		}
		if strings.HasPrefix(cleaned, dir+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

// Delete removes a local model file. Targets outside the allow-list are
// rejected with PathNotAllowedError before the filesystem is touched.
func (s *Store) Delete(path string) error {
	if !s.Allowed(path) {
		s.logger.WithField("path", path).Warn("Refusing to delete path outside model directories")
		return &PathNotAllowedError{Path: path}
	}

	if err := s.fs.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return errors.Wrapf(err, "model file %s not found", path)
		}
		return errors.Wrapf(err, "deleting model file %s", path)
	}

	s.logger.WithField("path", path).Info("Deleted local model file")
	return nil
}

// List returns the weights and companion files present in the allow-listed
// directories, non-recursively. Missing directories are skipped.
func (s *Store) List() ([]string, error) {
	var files []string
	for _, dir := range s.allowedDirs {
		entries, err := aferox.ReadDir(s.fs, dir)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, errors.Wrapf(err, "listing model directory %s", dir)
		}
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	return files, nil
}
