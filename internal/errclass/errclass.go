// Package errclass provides stateless predicates that classify failures into
// the recovery categories the UI layer acts on. Callers use IsHandled to
// suppress generic error surfacing when a dedicated recovery flow (re-auth,
// re-select spreadsheet, re-provision) will handle the failure instead.
package errclass

import (
	"errors"
	"strings"

	"google.golang.org/api/googleapi"

	"sheetbudget/internal/sheets"
)

// IsAuthError reports whether the failure is authentication-related: a
// missing or revoked token, an HTTP 401, or an auth-revoked message marker.
func IsAuthError(err error) bool {
	if err == nil {
		return false
	}

	var authErr *sheets.AuthError
	if errors.As(err, &authErr) {
		return true
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && apiErr.Code == 401 {
		return true
	}

	return containsAny(err.Error(),
		"auth-revoked",
		"authentication required",
		"invalid authentication credentials",
	)
}

// IsNotFoundError reports whether the failure is resource-related: the
// spreadsheet is gone (HTTP 404, moved/deleted wording) or none is selected.
func IsNotFoundError(err error) bool {
	if err == nil {
		return false
	}

	var nfErr *sheets.NotFoundError
	if errors.As(err, &nfErr) {
		return true
	}
	if errors.Is(err, sheets.ErrNoSpreadsheetSelected) {
		return true
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && apiErr.Code == 404 {
		return true
	}

	return containsAny(err.Error(),
		"not found",
		"has been moved or deleted",
		"no spreadsheet selected",
	)
}

// IsTemplateError reports whether the failure is the missing-template
// condition raised while provisioning a new budget spreadsheet.
func IsTemplateError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, sheets.ErrTemplateNotFound) {
		return true
	}
	return containsAny(err.Error(), "template spreadsheet not found")
}

// IsHandled reports whether any dedicated recovery flow covers the failure.
func IsHandled(err error) bool {
	return IsAuthError(err) || IsNotFoundError(err) || IsTemplateError(err)
}

func containsAny(msg string, markers ...string) bool {
	lower := strings.ToLower(msg)
	for _, m := range markers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}
