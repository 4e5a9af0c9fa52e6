package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/zalando/go-keyring"
)

const (
	// ServiceName is the keyring service all typoflow credentials live under.
	ServiceName = "typoflow"

	indexKey = "__typoflow_index__"
)

// ErrCredentialNotFound is returned when a credential is not stored.
var ErrCredentialNotFound = errors.New("credential not found")

// CredentialStore stores provider API keys.
type CredentialStore interface {
	// Set stores a credential securely
	Set(key string, value string) error
	// Get retrieves a credential
	Get(key string) (string, error)
	// Delete removes a credential
	Delete(key string) error
	// List returns all credential keys (not the values)
	List() ([]string, error)
}

// KeyringCredentialStore implements CredentialStore using the system keyring
// (Keychain on macOS, Credential Manager on Windows, Secret Service on Linux).
type KeyringCredentialStore struct {
	service string
}

// NewKeyringCredentialStore creates a keyring-backed credential store.
func NewKeyringCredentialStore() *KeyringCredentialStore {
	return &KeyringCredentialStore{service: ServiceName}
}

// Set stores a credential in the system keyring.
func (s *KeyringCredentialStore) Set(key string, value string) error {
	if key == "" {
		return fmt.Errorf("credential key cannot be empty")
	}
	if key == indexKey {
		return fmt.Errorf("credential key %q is reserved", key)
	}

	if err := keyring.Set(s.service, key, value); err != nil {
		return fmt.Errorf("failed to store credential: %w", err)
	}

	// the credential is stored even if the index update fails
	_ = s.updateIndex(func(keys []string) []string {
		for _, k := range keys {
			if k == key {
				return keys
			}
		}
		return append(keys, key)
	})
	return nil
}

// Get retrieves a credential from the system keyring.
func (s *KeyringCredentialStore) Get(key string) (string, error) {
	if key == "" {
		return "", fmt.Errorf("credential key cannot be empty")
	}

	value, err := keyring.Get(s.service, key)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", fmt.Errorf("%w: %s", ErrCredentialNotFound, key)
		}
		return "", fmt.Errorf("failed to retrieve credential: %w", err)
	}
	return value, nil
}

// Delete removes a credential from the system keyring.
func (s *KeyringCredentialStore) Delete(key string) error {
	if key == "" {
		return fmt.Errorf("credential key cannot be empty")
	}

	if err := keyring.Delete(s.service, key); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrCredentialNotFound, key)
		}
		return fmt.Errorf("failed to delete credential: %w", err)
	}

	_ = s.updateIndex(func(keys []string) []string {
		out := make([]string, 0, len(keys))
		for _, k := range keys {
			if k != key {
				out = append(out, k)
			}
		}
		return out
	})
	return nil
}

// List returns the stored credential keys. The keyring cannot enumerate
// entries, so keys are tracked in an index entry.
func (s *KeyringCredentialStore) List() ([]string, error) {
	indexJSON, err := keyring.Get(s.service, indexKey)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to retrieve credential index: %w", err)
	}

	var keys []string
	if err := json.Unmarshal([]byte(indexJSON), &keys); err != nil {
		return nil, fmt.Errorf("failed to parse credential index: %w", err)
	}
	return keys, nil
}

func (s *KeyringCredentialStore) updateIndex(update func([]string) []string) error {
	keys, err := s.List()
	if err != nil {
		return err
	}
	indexJSON, err := json.Marshal(update(keys))
	if err != nil {
		return fmt.Errorf("failed to marshal credential index: %w", err)
	}
	if err := keyring.Set(s.service, indexKey, string(indexJSON)); err != nil {
		return fmt.Errorf("failed to save credential index: %w", err)
	}
	return nil
}

// ResolveSecret returns the credential stored under key, falling back to
// the environment variable envVar when the keyring has no entry or is
// unavailable. An empty result is not an error; callers decide whether a
// missing secret is fatal.
func ResolveSecret(store CredentialStore, key, envVar string) string {
	if store != nil && key != "" {
		if v, err := store.Get(key); err == nil && v != "" {
			return v
		}
	}
	if envVar != "" {
		return os.Getenv(envVar)
	}
	return ""
}
