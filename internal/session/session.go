// Package session caches the backend auth token and refreshes it before
// it expires.
package session

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"
)

const (
	// expiryMargin is how close to expiry a cached token may get before
	// EnsureValid refuses to return it.
	expiryMargin = 60 * time.Second

	// refreshInterval pre-empts the typical one-hour token lifetime.
	refreshInterval = 55 * time.Minute
)

// Identity is the signed-in account attached to a token.
type Identity struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Credentials are the full sign-in credentials, used when no refresh
// token is available or the refresh grant fails.
type Credentials struct {
	Email    string
	Password string
}

// Manager owns the cached token. All methods are safe for concurrent
// use.
type Manager struct {
	authURL string
	apiKey  string
	creds   Credentials
	client  *http.Client

	mu           sync.Mutex
	token        string
	refreshToken string
	expiresAt    time.Time
	identity     Identity
}

// NewManager points the session cache at the hosted backend. baseURL is
// the backend root; the auth API lives under /auth/v1.
func NewManager(baseURL, apiKey string, creds Credentials) *Manager {
	return &Manager{
		authURL: strings.TrimRight(baseURL, "/") + "/auth/v1",
		apiKey:  apiKey,
		creds:   creds,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type tokenResponse struct {
	AccessToken  string   `json:"access_token"`
	RefreshToken string   `json:"refresh_token"`
	ExpiresIn    int      `json:"expires_in"`
	User         Identity `json:"user"`
}

// EnsureValid returns a token whose expiry is more than a minute away.
// A stale token triggers a refresh grant, then a full password sign-in.
// Failure of every path is fatal to the session; there is no retry
// loop.
func (m *Manager) EnsureValid(ctx context.Context) (string, Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.token != "" && time.Until(m.expiresAt) > expiryMargin {
		return m.token, m.identity, nil
	}
	return m.renewLocked(ctx)
}

// Token satisfies the table-store client's token source.
func (m *Manager) Token(ctx context.Context) (string, error) {
	token, _, err := m.EnsureValid(ctx)
	return token, err
}

// Renew forces a refresh regardless of how fresh the cached token is.
func (m *Manager) Renew(ctx context.Context) (string, Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.renewLocked(ctx)
}

func (m *Manager) renewLocked(ctx context.Context) (string, Identity, error) {
	if m.refreshToken != "" {
		err := m.grantLocked(ctx, "refresh_token", map[string]string{
			"refresh_token": m.refreshToken,
		})
		if err == nil {
			return m.token, m.identity, nil
		}
		slog.Warn("Token refresh failed, falling back to password sign-in", "error", err)
	}

	err := m.grantLocked(ctx, "password", map[string]string{
		"email":    m.creds.Email,
		"password": m.creds.Password,
	})
	if err != nil {
		m.token = ""
		m.refreshToken = ""
		return "", Identity{}, fmt.Errorf("sign-in failed: %w", err)
	}
	return m.token, m.identity, nil
}

// grantLocked performs one token grant and stores the result. Callers
// hold m.mu.
func (m *Manager) grantLocked(ctx context.Context, grantType string, body map[string]string) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal grant body: %w", err)
	}

	url := m.authURL + "/token?grant_type=" + grantType
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", m.apiKey)

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call auth endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("auth endpoint returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var token tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return fmt.Errorf("failed to decode token response: %w", err)
	}
	if token.AccessToken == "" {
		return fmt.Errorf("auth endpoint returned an empty access token")
	}

	m.token = token.AccessToken
	m.refreshToken = token.RefreshToken
	m.expiresAt = time.Now().Add(time.Duration(token.ExpiresIn) * time.Second)
	m.identity = token.User

	slog.Info("Session token stored", "grant", grantType, "user", token.User.Email, "expires_in", token.ExpiresIn)
	return nil
}

// StartAutoRefresh renews the token on a fixed interval so interactive
// requests rarely pay the sign-in round trip. Stops when ctx is done.
func (m *Manager) StartAutoRefresh(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(refreshInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, _, err := m.Renew(ctx); err != nil {
					slog.Error("Scheduled session refresh failed", "error", err)
				}
			}
		}
	}()
}
