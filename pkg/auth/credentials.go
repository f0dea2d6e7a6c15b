package auth

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"tftcrawler/pkg/config"
)

// DefaultProfile names the key used when no profile is given
const DefaultProfile = "default"

// Credential is a named Riot API key
type Credential struct {
	Name         string    `json:"name"`
	APIKey       string    `json:"api_key"`
	LastModified time.Time `json:"last_modified"`
}

// CredentialStore is the interface for storing and retrieving credentials
type CredentialStore interface {
	// Store saves a credential under its name
	Store(cred *Credential) error

	// Retrieve gets the credential for a name
	Retrieve(name string) (*Credential, error)

	// Delete removes the credential for a name
	Delete(name string) error

	// Exists checks if a credential exists for a name
	Exists(name string) bool
}

// Manager handles credential storage with fallback mechanisms. It also
// satisfies riot.CredentialProvider for the default profile.
type Manager struct {
	stores []CredentialStore

	mu     sync.Mutex
	cached string
}

// NewManager creates a manager trying, in order: the system keyring, the
// encrypted file in the config directory, the plain key file named by
// cfg.Riot.APIKeyFile and the TFTCRAWLER_API_KEY environment variable.
func NewManager(cfg *config.Config) (*Manager, error) {
	var stores []CredentialStore

	if keyringStore, err := NewKeyringStore(); err == nil {
		stores = append(stores, keyringStore)
	}

	encryptedStore, err := NewEncryptedFileStore(filepath.Join(config.DefaultConfigDir(), "credentials.enc"))
	if err != nil {
		return nil, fmt.Errorf("failed to create encrypted store: %w", err)
	}
	stores = append(stores, encryptedStore)

	if cfg != nil && cfg.Riot.APIKeyFile != "" {
		stores = append(stores, NewFileStore(cfg.Riot.APIKeyFile))
	}

	stores = append(stores, NewEnvironmentStore())

	return &Manager{stores: stores}, nil
}

// NewManagerWithStores creates a manager over the given stores, tried in order
func NewManagerWithStores(stores ...CredentialStore) *Manager {
	return &Manager{stores: stores}
}

// Store saves the credential in the first store that accepts it
func (m *Manager) Store(cred *Credential) error {
	if cred == nil || cred.Name == "" {
		return errors.New("profile name is required")
	}
	if err := ValidateAPIKey(cred.APIKey); err != nil {
		return err
	}

	cred.LastModified = time.Now()

	var lastErr error
	for _, store := range m.stores {
		if err := store.Store(cred); err == nil {
			m.invalidate()
			return nil
		} else {
			lastErr = err
		}
	}

	if lastErr != nil {
		return fmt.Errorf("failed to store credentials: %w", lastErr)
	}
	return errors.New("no available credential stores")
}

// Retrieve gets the credential from the first store that has it
func (m *Manager) Retrieve(name string) (*Credential, error) {
	for _, store := range m.stores {
		if cred, err := store.Retrieve(name); err == nil && cred != nil {
			return cred, nil
		}
	}
	return nil, fmt.Errorf("%w for profile: %s", ErrCredentialsNotFound, name)
}

// Delete removes the credential from every store holding it
func (m *Manager) Delete(name string) error {
	var deleted bool
	var lastErr error

	for _, store := range m.stores {
		if err := store.Delete(name); err == nil {
			deleted = true
		} else if !errors.Is(err, ErrCredentialsNotFound) && !errors.Is(err, ErrStoreUnavailable) {
			lastErr = err
		}
	}
	m.invalidate()

	if !deleted && lastErr != nil {
		return fmt.Errorf("failed to delete credentials: %w", lastErr)
	}
	if !deleted {
		return fmt.Errorf("%w for profile: %s", ErrCredentialsNotFound, name)
	}

	return nil
}

// APIKey returns the default profile's key. The first successful lookup is
// cached so the stores are not consulted on every request.
func (m *Manager) APIKey() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cached != "" {
		return m.cached, nil
	}

	cred, err := m.Retrieve(DefaultProfile)
	if err != nil {
		return "", err
	}
	m.cached = cred.APIKey
	return m.cached, nil
}

func (m *Manager) invalidate() {
	m.mu.Lock()
	m.cached = ""
	m.mu.Unlock()
}

// ValidateAPIKey rejects keys that cannot be sent as a header value
func ValidateAPIKey(key string) error {
	if key == "" {
		return fmt.Errorf("%w: API key is empty", ErrInvalidCredentials)
	}
	if strings.ContainsAny(key, " \t\r\n") {
		return fmt.Errorf("%w: API key contains whitespace", ErrInvalidCredentials)
	}
	return nil
}

// SanitizeCredential creates a copy of the credential with the key masked
func SanitizeCredential(cred *Credential) *Credential {
	if cred == nil {
		return nil
	}

	return &Credential{
		Name:         cred.Name,
		APIKey:       MaskKey(cred.APIKey),
		LastModified: cred.LastModified,
	}
}

// MaskKey masks all but the first 6 and last 4 characters of a key
func MaskKey(s string) string {
	if len(s) <= 10 {
		return "********"
	}
	return s[:6] + "..." + s[len(s)-4:]
}

// Errors
var (
	ErrCredentialsNotFound = errors.New("credentials not found")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrStoreUnavailable    = errors.New("credential store unavailable")
)
