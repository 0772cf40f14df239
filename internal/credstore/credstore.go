// Package credstore abstracts the secure credential store used by the
// sender commands to look up SMTP passwords.
package credstore

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when no secret exists for a service/account pair.
var ErrNotFound = errors.New("secret not found")

// Store retrieves secrets keyed by service and account name. Backends
// include the OS keyring and an in-memory store for tests.
type Store interface {
	// Get returns the secret for the given service and account, or an
	// error wrapping ErrNotFound if no such entry exists.
	Get(service, account string) (string, error)
}

// Memory is an in-memory Store used as a test fake.
type Memory struct {
	secrets map[string]string
}

// NewMemory creates an empty in-memory Store.
func NewMemory() *Memory {
	return &Memory{secrets: make(map[string]string)}
}

// Set stores a secret for the given service and account.
func (m *Memory) Set(service, account, secret string) {
	m.secrets[memoryKey(service, account)] = secret
}

// Get returns the stored secret or an error wrapping ErrNotFound.
func (m *Memory) Get(service, account string) (string, error) {
	secret, ok := m.secrets[memoryKey(service, account)]
	if !ok {
		return "", fmt.Errorf("service %q account %q: %w", service, account, ErrNotFound)
	}
	return secret, nil
}

func memoryKey(service, account string) string {
	return service + "\x00" + account
}
