package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/calum/tubegraph/config"
	"golang.org/x/oauth2"
)

const (
	accountsAuthorizeURL = "https://accounts.spotify.com/authorize"
	accountsTokenURL     = "https://accounts.spotify.com/api/token"

	// expiryMargin keeps us from using a token that expires mid-flight
	expiryMargin = 120 * time.Second

	refreshRetryInterval = 5 * time.Minute
	noExpirySleep        = 55 * time.Minute
	saveInterval         = 5 * time.Minute

	authScopes = "user-read-private user-read-email user-read-playback-state playlist-read-private playlist-read-collaborative"
)

// ErrNoRefreshToken indicates that interactive re-authorization is required
var ErrNoRefreshToken = errors.New("no refresh token available, re-authorization required")

// Error is returned when a token exchange or refresh fails
type Error struct {
	Op   string // "exchange", "refresh" or "ensure"
	Body string // provider error body, when the endpoint answered
	Err  error  // transport or sentinel error, when it did not
}

func (e *Error) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("auth %s failed: %s", e.Op, e.Body)
	}
	return fmt.Sprintf("auth %s failed: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// TokenState is the persistable snapshot of the OAuth token pair
type TokenState struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresAt    int64  `json:"expires_at,omitempty"` // Unix seconds; 0 means unknown
}

// tokenResponse is the token endpoint's answer for both grant types
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	Scope        string `json:"scope"`
	ExpiresIn    int64  `json:"expires_in"`
	RefreshToken string `json:"refresh_token"`
}

// Manager owns one access/refresh token pair and keeps it valid.
// All token fields are guarded by mu and read as a consistent snapshot;
// persistence happens after the lock is released.
type Manager struct {
	clientID     string
	clientSecret string
	redirectURI  string
	tokenURL     string
	httpClient   *http.Client
	store        Store
	now          func() time.Time

	mu           sync.Mutex
	accessToken  string
	refreshToken string
	expiresAt    int64
}

// NewManager creates a token manager. The store may be nil when no
// persistence is wanted (tests).
func NewManager(cfg *config.Config, store Store) *Manager {
	return &Manager{
		clientID:     cfg.Spotify.ClientID,
		clientSecret: cfg.Spotify.ClientSecret,
		redirectURI:  cfg.Spotify.RedirectURI,
		tokenURL:     accountsTokenURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		store: store,
		now:   time.Now,
	}
}

// AuthURL returns the URL a user must visit to authorize the application
func (m *Manager) AuthURL() string {
	params := url.Values{}
	params.Set("client_id", m.clientID)
	params.Set("response_type", "code")
	params.Set("redirect_uri", m.redirectURI)
	params.Set("scope", authScopes)

	return accountsAuthorizeURL + "?" + params.Encode()
}

// IsExpired returns true when no expiry is recorded or the token expires
// within the safety margin
func (m *Manager) IsExpired() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.isExpiredLocked()
}

func (m *Manager) isExpiredLocked() bool {
	if m.expiresAt == 0 {
		return true // no expiration recorded, assume expired
	}
	return m.now().Unix() >= m.expiresAt-int64(expiryMargin.Seconds())
}

// Authenticated reports whether an access token is present at all
func (m *Manager) Authenticated() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.accessToken != ""
}

// EnsureValid refreshes the access token when it is missing or about to
// expire. Repeated calls while the token is valid are no-ops. Without a
// refresh token it fails and interactive re-authorization is required.
func (m *Manager) EnsureValid(ctx context.Context) error {
	m.mu.Lock()
	needsRefresh := m.accessToken == "" || m.isExpiredLocked()
	hasRefreshToken := m.refreshToken != ""
	m.mu.Unlock()

	if !needsRefresh {
		return nil
	}
	if !hasRefreshToken {
		return &Error{Op: "ensure", Err: ErrNoRefreshToken}
	}

	return m.Refresh(ctx)
}

// Exchange trades an authorization code for the initial token pair
func (m *Manager) Exchange(ctx context.Context, code string) error {
	if code == "" {
		return &Error{Op: "exchange", Err: errors.New("authorization code is required")}
	}

	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("redirect_uri", m.redirectURI)

	resp, err := m.postToken(ctx, "exchange", form)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.accessToken = resp.AccessToken
	m.refreshToken = resp.RefreshToken
	m.expiresAt = m.now().Unix() + resp.ExpiresIn
	state := m.tokenStateLocked()
	m.mu.Unlock()

	m.persist(state)
	return nil
}

// Refresh exchanges the refresh token for a new access token. On failure
// the current access token is left in place; a stale-but-maybe-valid
// token beats none at all on a transient error.
func (m *Manager) Refresh(ctx context.Context) error {
	m.mu.Lock()
	refreshToken := m.refreshToken
	m.mu.Unlock()

	if refreshToken == "" {
		return &Error{Op: "refresh", Err: ErrNoRefreshToken}
	}

	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refreshToken)

	resp, err := m.postToken(ctx, "refresh", form)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.accessToken = resp.AccessToken
	// Some providers omit the refresh token, meaning the old one stays valid
	if resp.RefreshToken != "" {
		m.refreshToken = resp.RefreshToken
	}
	m.expiresAt = m.now().Unix() + resp.ExpiresIn
	state := m.tokenStateLocked()
	m.mu.Unlock()

	log.Printf("🔑 Token refreshed successfully, expires in %d seconds", resp.ExpiresIn)

	m.persist(state)
	return nil
}

// postToken performs a form-encoded, basic-auth token endpoint call
func (m *Manager) postToken(ctx context.Context, op string, form url.Values) (*tokenResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, &Error{Op: op, Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(m.clientID, m.clientSecret)

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return nil, &Error{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(resp.Body)
		return nil, &Error{Op: op, Body: fmt.Sprintf("status %d: %s", resp.StatusCode, string(body))}
	}

	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return nil, &Error{Op: op, Err: fmt.Errorf("failed to decode token response: %w", err)}
	}

	return &tr, nil
}

// TokenState returns the current token fields as one consistent snapshot
func (m *Manager) TokenState() TokenState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tokenStateLocked()
}

func (m *Manager) tokenStateLocked() TokenState {
	return TokenState{
		AccessToken:  m.accessToken,
		RefreshToken: m.refreshToken,
		ExpiresAt:    m.expiresAt,
	}
}

// RestoreTokenState overwrites the in-memory token fields, used once at
// startup to resume a prior session
func (m *Manager) RestoreTokenState(state TokenState) {
	m.mu.Lock()
	m.accessToken = state.AccessToken
	m.refreshToken = state.RefreshToken
	m.expiresAt = state.ExpiresAt
	m.mu.Unlock()
}

// Token implements oauth2.TokenSource so the catalog client can be built
// directly over the manager
func (m *Manager) Token() (*oauth2.Token, error) {
	if err := m.EnsureValid(context.Background()); err != nil {
		return nil, err
	}

	state := m.TokenState()
	return &oauth2.Token{
		AccessToken:  state.AccessToken,
		RefreshToken: state.RefreshToken,
		TokenType:    "Bearer",
		Expiry:       time.Unix(state.ExpiresAt, 0),
	}, nil
}

var _ oauth2.TokenSource = (*Manager)(nil)

// RunRefreshLoop proactively refreshes the token before it expires. A
// failed refresh is retried every 5 minutes, indefinitely; when no expiry
// is known it checks again after 55 minutes. Returns when ctx is done.
func (m *Manager) RunRefreshLoop(ctx context.Context) {
	for {
		m.mu.Lock()
		expiresAt := m.expiresAt
		m.mu.Unlock()

		if expiresAt == 0 {
			if !sleepCtx(ctx, noExpirySleep) {
				return
			}
			continue
		}

		until := time.Unix(expiresAt, 0).Add(-expiryMargin).Sub(m.now())
		if until > 0 {
			if !sleepCtx(ctx, until) {
				return
			}
		}

		if err := m.Refresh(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Printf("⚠️  Failed to refresh token: %v (retrying in %s)", err, refreshRetryInterval)
			if !sleepCtx(ctx, refreshRetryInterval) {
				return
			}
		}
	}
}

// RunSaveLoop persists the token state every 5 minutes. Returns when ctx
// is done.
func (m *Manager) RunSaveLoop(ctx context.Context) {
	ticker := time.NewTicker(saveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			state := m.TokenState()
			if state.AccessToken != "" {
				m.persist(state)
			}
		}
	}
}

// persist writes the token state to the configured store. Must be called
// without holding mu: saving is I/O.
func (m *Manager) persist(state TokenState) {
	if m.store == nil {
		return
	}
	if err := m.store.Save(state); err != nil {
		log.Printf("⚠️  Failed to save token state: %v", err)
	}
}

// sleepCtx sleeps for d unless ctx is cancelled first; reports whether
// the full sleep completed
func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
