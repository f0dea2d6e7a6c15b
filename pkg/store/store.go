package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"tftcrawler/pkg/logger"
)

// Store keeps named collections as JSON arrays, one file per collection
type Store struct {
	dir    string
	logger logger.Logger
}

// New creates a store rooted at dir, creating the directory if needed
func New(dir string, log logger.Logger) (*Store, error) {
	if log == nil {
		log = logger.GetLogger()
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}

	return &Store{dir: dir, logger: log}, nil
}

// Dir returns the state directory
func (s *Store) Dir() string {
	return s.dir
}

// Path returns the file backing a collection
func (s *Store) Path(name string) string {
	return filepath.Join(s.dir, name+".json")
}

// Exists checks if a collection file exists
func (s *Store) Exists(name string) bool {
	_, err := os.Stat(s.Path(name))
	return err == nil
}

// ErrCorrupt reports a collection file that does not hold a JSON array
var ErrCorrupt = errors.New("collection is not a JSON array")

// Load reads a collection. A missing file is created empty. A file that does
// not hold a JSON array is copied to its backup and overwritten with an empty
// array. Elements that do not decode as T are dropped from the result and the
// file is backed up before anything rewrites it. Only filesystem errors are
// returned.
func Load[T any](s *Store, name string) ([]T, error) {
	path := s.Path(name)

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		s.logger.InfoWithFields("Collection not found, creating empty", map[string]interface{}{
			"collection": name,
			"path":       path,
		})
		if err := s.Reset(name); err != nil {
			return nil, err
		}
		return []T{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read collection %s: %w", name, err)
	}

	records, skipped, err := decode[T](data)
	if err != nil {
		s.logger.WarnWithFields("Corrupt collection, resetting to empty", map[string]interface{}{
			"collection": name,
			"path":       path,
			"backup":     s.BackupPath(name),
			"error":      err.Error(),
		})
		if err := s.Backup(name); err != nil {
			return nil, err
		}
		if err := s.Reset(name); err != nil {
			return nil, err
		}
		return []T{}, nil
	}

	if len(skipped) > 0 {
		s.logger.WarnWithFields("Dropping malformed records", map[string]interface{}{
			"collection": name,
			"indexes":    skipped,
			"kept":       len(records),
			"backup":     s.BackupPath(name),
		})
		if err := s.Backup(name); err != nil {
			return nil, err
		}
	}

	s.logger.DebugWithFields("Collection loaded", map[string]interface{}{
		"collection": name,
		"records":    len(records),
	})
	return records, nil
}

// Read is Load without repairs: a missing file reads as empty, a file that is
// not an array returns ErrCorrupt and malformed elements are skipped. Nothing
// is written.
func Read[T any](s *Store, name string) ([]T, error) {
	data, err := os.ReadFile(s.Path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return []T{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read collection %s: %w", name, err)
	}

	records, _, err := decode[T](data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", name, ErrCorrupt, err)
	}
	return records, nil
}

// decode parses exactly one JSON array with nothing after it, then each
// element as T. Elements that are null or do not fit T are reported by index.
func decode[T any](data []byte) ([]T, []int, error) {
	dec := json.NewDecoder(bytes.NewReader(data))

	var raw []json.RawMessage
	if err := dec.Decode(&raw); err != nil {
		return nil, nil, err
	}
	if raw == nil {
		return nil, nil, errors.New("content is not an array")
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, nil, errors.New("trailing data after array")
	}

	records := make([]T, 0, len(raw))
	var skipped []int
	for i, elem := range raw {
		if bytes.Equal(bytes.TrimSpace(elem), []byte("null")) {
			skipped = append(skipped, i)
			continue
		}

		elemDec := json.NewDecoder(bytes.NewReader(elem))
		elemDec.UseNumber()

		var record T
		if err := elemDec.Decode(&record); err != nil {
			skipped = append(skipped, i)
			continue
		}
		records = append(records, record)
	}
	return records, skipped, nil
}

// Save replaces a collection with records. The file is written to a temporary
// name, synced and renamed, so readers never see a partial file.
func Save[T any](s *Store, name string, records []T) error {
	if records == nil {
		records = []T{}
	}

	if err := s.writeAtomic(name, records); err != nil {
		return err
	}

	s.logger.DebugWithFields("Collection saved", map[string]interface{}{
		"collection": name,
		"records":    len(records),
	})
	return nil
}

// Reset overwrites a collection with an empty array
func (s *Store) Reset(name string) error {
	return s.writeAtomic(name, []struct{}{})
}

func (s *Store) writeAtomic(name string, v interface{}) error {
	path := s.Path(name)

	file, err := os.CreateTemp(s.dir, name+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary file for %s: %w", name, err)
	}
	tempPath := file.Name()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to encode collection %s: %w", name, err)
	}

	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to sync collection %s: %w", name, err)
	}

	if err := file.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to close collection %s: %w", name, err)
	}

	if err := os.Chmod(tempPath, 0644); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to set permissions on collection %s: %w", name, err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to replace collection %s: %w", name, err)
	}

	return nil
}

// BackupPath returns where Backup copies a collection
func (s *Store) BackupPath(name string) string {
	return s.Path(name) + ".backup"
}

// Backup copies a collection to <name>.json.backup, replacing an older
// backup. A missing collection is not an error.
func (s *Store) Backup(name string) error {
	if !s.Exists(name) {
		return nil
	}

	src, err := os.Open(s.Path(name))
	if err != nil {
		return fmt.Errorf("failed to open collection for backup: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(s.BackupPath(name))
	if err != nil {
		return fmt.Errorf("failed to create backup file: %w", err)
	}

	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return fmt.Errorf("failed to copy collection to backup: %w", err)
	}
	if err := dst.Close(); err != nil {
		return fmt.Errorf("failed to close backup file: %w", err)
	}

	s.logger.DebugWithFields("Collection backed up", map[string]interface{}{
		"collection": name,
	})
	return nil
}
