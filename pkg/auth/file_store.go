package auth

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// FileStore reads a bare API key from a text file such as api_key.txt.
// The file holds a single key, so every profile name maps to it.
type FileStore struct {
	path string
}

// NewFileStore creates a store over the key file at path
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the key file location
func (f *FileStore) Path() string {
	return f.path
}

// Store writes the key to the file with owner-only permissions
func (f *FileStore) Store(cred *Credential) error {
	if cred == nil || cred.APIKey == "" {
		return ErrInvalidCredentials
	}

	if dir := filepath.Dir(f.path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("failed to create key directory: %w", err)
		}
	}
	if err := os.WriteFile(f.path, []byte(cred.APIKey+"\n"), 0600); err != nil {
		return fmt.Errorf("failed to write key file: %w", err)
	}
	return nil
}

// Retrieve reads the key, trimming surrounding whitespace
func (f *FileStore) Retrieve(name string) (*Credential, error) {
	info, err := os.Stat(f.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrCredentialsNotFound
		}
		return nil, fmt.Errorf("failed to stat key file: %w", err)
	}

	content, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read key file: %w", err)
	}

	key := strings.TrimSpace(string(content))
	if key == "" {
		return nil, ErrCredentialsNotFound
	}

	if name == "" {
		name = DefaultProfile
	}
	return &Credential{Name: name, APIKey: key, LastModified: info.ModTime()}, nil
}

// Delete removes the key file
func (f *FileStore) Delete(name string) error {
	if err := os.Remove(f.path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrCredentialsNotFound
		}
		return fmt.Errorf("failed to remove key file: %w", err)
	}
	return nil
}

// Exists checks if the key file holds a key
func (f *FileStore) Exists(name string) bool {
	cred, err := f.Retrieve(name)
	return err == nil && cred != nil
}
