package gmailbox

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
)

// ConsentFunc runs the interactive half of the authorization flow: it
// receives the consent URL and returns the authorization code the
// operator obtained from it.
type ConsentFunc func(ctx context.Context, authURL string) (string, error)

// Authorizer moves the process from Unauthorized to Authorized. A valid
// or refreshable cached token authorizes silently; otherwise the consent
// flow runs exactly once and the resulting token is cached.
type Authorizer struct {
	config  *oauth2.Config
	store   TokenStore
	consent ConsentFunc
}

// NewAuthorizer creates an Authorizer over the given OAuth2 client
// configuration, token cache, and consent prompt.
func NewAuthorizer(config *oauth2.Config, store TokenStore, consent ConsentFunc) *Authorizer {
	return &Authorizer{
		config:  config,
		store:   store,
		consent: consent,
	}
}

// Token returns a valid access token. Expired-but-refreshable tokens are
// refreshed transparently and the cache is rewritten; a token that can
// no longer be refreshed drops back to the consent flow.
func (a *Authorizer) Token(ctx context.Context) (*oauth2.Token, error) {
	tok, err := a.store.Load()
	switch {
	case err == nil && tok.Valid():
		return tok, nil

	case err == nil && tok.RefreshToken != "":
		fresh, refreshErr := a.config.TokenSource(ctx, tok).Token()
		if refreshErr != nil {
			slog.Warn("cached token could not be refreshed, restarting consent flow",
				"error", refreshErr,
			)
			return a.runConsent(ctx)
		}
		if fresh.RefreshToken == "" {
			fresh.RefreshToken = tok.RefreshToken
		}
		if saveErr := a.store.Save(fresh); saveErr != nil {
			return nil, fmt.Errorf("failed to cache refreshed token: %w", saveErr)
		}
		return fresh, nil

	case err == nil:
		// Cached token is expired and carries no refresh token, so it
		// cannot be used or renewed.
		slog.Warn("cached token is expired and not refreshable, restarting consent flow")
		return a.runConsent(ctx)

	case errors.Is(err, ErrNoToken):
		return a.runConsent(ctx)

	default:
		return nil, fmt.Errorf("failed to load cached token: %w", err)
	}
}

// Client returns an HTTP client that authorizes requests with the token,
// running the full authorization flow if needed.
func (a *Authorizer) Client(ctx context.Context) (*http.Client, error) {
	tok, err := a.Token(ctx)
	if err != nil {
		return nil, err
	}
	return a.config.Client(ctx, tok), nil
}

// runConsent performs the interactive consent exchange once and caches
// the resulting token.
func (a *Authorizer) runConsent(ctx context.Context) (*oauth2.Token, error) {
	authURL := a.config.AuthCodeURL("state-token", oauth2.AccessTypeOffline)

	code, err := a.consent(ctx, authURL)
	if err != nil {
		return nil, fmt.Errorf("authorization consent failed: %w", err)
	}

	tok, err := a.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange authorization code: %w", err)
	}

	if err := a.store.Save(tok); err != nil {
		return nil, fmt.Errorf("failed to cache token: %w", err)
	}
	return tok, nil
}

// PromptConsent returns a ConsentFunc that prints the consent URL and
// reads the authorization code from in, the standard quickstart flow.
func PromptConsent(in io.Reader, out io.Writer) ConsentFunc {
	return func(_ context.Context, authURL string) (string, error) {
		fmt.Fprintf(out, "Go to the following link in your browser then type the authorization code:\n%v\n", authURL)

		code, err := bufio.NewReader(in).ReadString('\n')
		if err != nil {
			return "", fmt.Errorf("failed to read authorization code: %w", err)
		}

		code = strings.TrimSpace(code)
		if code == "" {
			return "", fmt.Errorf("empty authorization code")
		}
		return code, nil
	}
}
