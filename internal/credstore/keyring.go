package credstore

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

// Keyring is a Store backed by the operating system's credential store
// (Keychain, Windows Credential Manager, or the Secret Service D-Bus API).
type Keyring struct{}

// NewKeyring creates a Store backed by the OS keyring.
func NewKeyring() Keyring {
	return Keyring{}
}

// Get looks up the secret for the given service and account in the OS
// keyring. A missing entry is reported as ErrNotFound so callers can
// distinguish it from a store failure.
func (Keyring) Get(service, account string) (string, error) {
	secret, err := keyring.Get(service, account)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", fmt.Errorf("service %q account %q: %w", service, account, ErrNotFound)
		}
		return "", fmt.Errorf("keyring lookup for service %q account %q failed: %w", service, account, err)
	}
	return secret, nil
}
