package gmailbox

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"golang.org/x/oauth2"
)

// ErrNoToken is returned by a TokenStore when no cached token exists.
var ErrNoToken = errors.New("no cached token")

// TokenStore persists the OAuth2 token between runs so consent is only
// needed once. Backends: a JSON file on disk, and an in-memory fake for
// tests.
type TokenStore interface {
	// Load returns the cached token, or an error wrapping ErrNoToken
	// if nothing is cached.
	Load() (*oauth2.Token, error)

	// Save replaces the cached token.
	Save(tok *oauth2.Token) error
}

// FileTokenStore caches the token as JSON in a file, the format the
// standard Gmail quickstarts use.
type FileTokenStore struct {
	path string
}

// NewFileTokenStore creates a TokenStore backed by the given file path.
func NewFileTokenStore(path string) *FileTokenStore {
	return &FileTokenStore{path: path}
}

// Load reads and decodes the cached token file.
func (s *FileTokenStore) Load() (*oauth2.Token, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", s.path, ErrNoToken)
		}
		return nil, fmt.Errorf("failed to read token cache: %w", err)
	}

	tok := &oauth2.Token{}
	if err := json.Unmarshal(data, tok); err != nil {
		return nil, fmt.Errorf("failed to parse token cache: %w", err)
	}
	return tok, nil
}

// Save writes the token to the cache file, readable only by the owner.
func (s *FileTokenStore) Save(tok *oauth2.Token) error {
	data, err := json.Marshal(tok)
	if err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write token cache: %w", err)
	}
	return nil
}

// MemoryTokenStore is an in-memory TokenStore used as a test fake.
type MemoryTokenStore struct {
	tok *oauth2.Token
}

// NewMemoryTokenStore creates a MemoryTokenStore seeded with tok, which
// may be nil for the empty-cache case.
func NewMemoryTokenStore(tok *oauth2.Token) *MemoryTokenStore {
	return &MemoryTokenStore{tok: tok}
}

// Load returns the stored token or ErrNoToken.
func (s *MemoryTokenStore) Load() (*oauth2.Token, error) {
	if s.tok == nil {
		return nil, ErrNoToken
	}
	return s.tok, nil
}

// Save replaces the stored token.
func (s *MemoryTokenStore) Save(tok *oauth2.Token) error {
	s.tok = tok
	return nil
}
