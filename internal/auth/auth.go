// Package auth holds the session-owned boundaries the sheets client depends
// on: access-token resolution and the currently selected spreadsheet. Both are
// explicit owned instances rather than package-level state, so tests can run
// isolated sessions side by side.
package auth

import (
	"context"
	"sync"

	"golang.org/x/oauth2"
)

// TokenProvider supplies the OAuth2 access token for outgoing API calls.
// An empty token means the user is not authenticated; the client fails fast
// without a network call in that case.
type TokenProvider interface {
	// AccessToken returns the current token, or "" when unauthenticated.
	AccessToken(ctx context.Context) string

	// IsAuthenticated reports whether a token is currently available.
	IsAuthenticated() bool

	// ClearAuthState drops the cached token. Called by the sheets client
	// when the remote API reports the token as revoked (HTTP 401).
	ClearAuthState()
}

// SpreadsheetSelector resolves the spreadsheet every range operation targets.
// An empty id is a fatal "no spreadsheet selected" condition, detected before
// any network call.
type SpreadsheetSelector interface {
	SelectedSpreadsheetID() string
}

// Session is the concrete token provider and spreadsheet selector backed by an
// oauth2 token source. It is safe for concurrent use.
type Session struct {
	mu            sync.RWMutex
	source        oauth2.TokenSource
	spreadsheetID string
}

// NewSession creates a session around an oauth2 token source.
func NewSession(source oauth2.TokenSource) *Session {
	return &Session{source: source}
}

// NewStaticSession creates a session from a fixed access token. Useful for the
// CLI, where the token is obtained out of band and passed via the environment.
func NewStaticSession(accessToken string) *Session {
	if accessToken == "" {
		return &Session{}
	}
	return NewSession(oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken}))
}

// AccessToken implements TokenProvider.
func (s *Session) AccessToken(ctx context.Context) string {
	s.mu.RLock()
	source := s.source
	s.mu.RUnlock()

	if source == nil {
		return ""
	}
	tok, err := source.Token()
	if err != nil || !tok.Valid() {
		return ""
	}
	return tok.AccessToken
}

// IsAuthenticated implements TokenProvider.
func (s *Session) IsAuthenticated() bool {
	return s.AccessToken(context.Background()) != ""
}

// ClearAuthState implements TokenProvider. The token source is dropped; a new
// sign-in must install a fresh one via SetTokenSource.
func (s *Session) ClearAuthState() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.source = nil
}

// SetTokenSource installs a new token source after a (re-)authentication.
func (s *Session) SetTokenSource(source oauth2.TokenSource) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.source = source
}

// TokenSource exposes the underlying source for wiring into API clients.
// Returns nil when unauthenticated.
func (s *Session) TokenSource() oauth2.TokenSource {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.source
}

// SelectedSpreadsheetID implements SpreadsheetSelector.
func (s *Session) SelectedSpreadsheetID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.spreadsheetID
}

// SelectSpreadsheet records the spreadsheet all range operations resolve to.
func (s *Session) SelectSpreadsheet(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.spreadsheetID = id
}
