package sheets

import (
	"errors"
	"fmt"
)

// ErrNoSpreadsheetSelected is returned when a range operation runs without a
// selected spreadsheet. Detected before any network call.
var ErrNoSpreadsheetSelected = errors.New("no spreadsheet selected")

// ErrRowNotFound is returned by FindByID when no row carries the requested id.
var ErrRowNotFound = errors.New("row not found")

// ErrTemplateNotFound is returned by provisioning flows when the template
// spreadsheet a new budget is copied from no longer exists.
var ErrTemplateNotFound = errors.New("template spreadsheet not found")

// AuthError reports a failed authentication precondition or a revoked token.
type AuthError struct {
	// Revoked is true when the remote API rejected the token (HTTP 401),
	// false when no token was available to begin with.
	Revoked bool
	cause   error
}

func (e *AuthError) Error() string {
	if e.Revoked {
		return "sheets: auth-revoked: access token rejected by the API"
	}
	return "sheets: authentication required: no access token"
}

func (e *AuthError) Unwrap() error { return e.cause }

// NotFoundError reports that the spreadsheet or range no longer exists
// (HTTP 404) — typically the sheet has been moved or deleted.
type NotFoundError struct {
	Resource string
	cause    error
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("sheets: %s not found (moved or deleted)", e.Resource)
}

func (e *NotFoundError) Unwrap() error { return e.cause }

// RateLimitError reports quota exhaustion (HTTP 429) that survived retries.
type RateLimitError struct {
	cause error
}

func (e *RateLimitError) Error() string {
	return "sheets: rate limited by the API"
}

func (e *RateLimitError) Unwrap() error { return e.cause }
