package credstore

import (
	"errors"
	"strings"
	"testing"
)

func TestMemory_GetStoredSecret(t *testing.T) {
	t.Parallel()

	store := NewMemory()
	store.Set("mailkit-lite", "a@example.com", "s3cret")

	secret, err := store.Get("mailkit-lite", "a@example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if secret != "s3cret" {
		t.Errorf("Get(): got %q, want %q", secret, "s3cret")
	}
}

func TestMemory_NotFound(t *testing.T) {
	t.Parallel()

	store := NewMemory()
	store.Set("mailkit-lite", "a@example.com", "s3cret")

	tests := []struct {
		name    string
		service string
		account string
	}{
		{name: "unknown service", service: "other", account: "a@example.com"},
		{name: "unknown account", service: "mailkit-lite", account: "b@example.com"},
		{name: "empty store keys", service: "", account: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := store.Get(tt.service, tt.account)
			if !errors.Is(err, ErrNotFound) {
				t.Errorf("Get(): got %v, want ErrNotFound", err)
			}
		})
	}
}

func TestMemory_ErrorNamesLookup(t *testing.T) {
	t.Parallel()

	store := NewMemory()
	_, err := store.Get("corp-mail", "a@example.com")
	if err == nil {
		t.Fatal("expected error, got nil")
	}

	// The error must identify which service/account lookup failed.
	if !strings.Contains(err.Error(), "corp-mail") || !strings.Contains(err.Error(), "a@example.com") {
		t.Errorf("error should name service and account, got %q", err.Error())
	}
}
