package auth

import (
	"os"
	"strings"
	"time"
)

// APIKeyEnv is read by EnvironmentStore
const APIKeyEnv = "TFTCRAWLER_API_KEY"

// EnvironmentStore implements CredentialStore using an environment variable.
// It is read-only.
type EnvironmentStore struct{}

// NewEnvironmentStore creates a new environment-based credential store
func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

// Store is not supported for environment variables
func (e *EnvironmentStore) Store(cred *Credential) error {
	return ErrStoreUnavailable
}

// Retrieve gets the key from TFTCRAWLER_API_KEY for any profile name
func (e *EnvironmentStore) Retrieve(name string) (*Credential, error) {
	key := strings.TrimSpace(os.Getenv(APIKeyEnv))
	if key == "" {
		return nil, ErrCredentialsNotFound
	}

	if name == "" {
		name = DefaultProfile
	}

	return &Credential{
		Name:         name,
		APIKey:       key,
		LastModified: time.Now(),
	}, nil
}

// Delete is not supported for environment variables
func (e *EnvironmentStore) Delete(name string) error {
	return ErrStoreUnavailable
}

// Exists checks if the environment variable is set
func (e *EnvironmentStore) Exists(name string) bool {
	return strings.TrimSpace(os.Getenv(APIKeyEnv)) != ""
}
