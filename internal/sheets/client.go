// Package sheets is the authenticated client for the row-oriented remote
// store. Every call funnels through the shared rate limiter, retries
// transient failures with backoff, and maps API failures to typed errors so
// call sites get consistent classification.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/api/googleapi"

	"sheetbudget/internal/auth"
	"sheetbudget/internal/ratelimit"
	"sheetbudget/internal/retry"
)

// UpsertResult reports whether an upsert updated a row in place or appended a
// new one, and the resulting 1-based sheet row.
type UpsertResult struct {
	Updated   bool
	RowNumber int
}

// Client turns row-range I/O into typed request/response pairs.
type Client struct {
	api        ValuesAPI
	tokens     auth.TokenProvider
	selector   auth.SpreadsheetSelector
	limiter    *ratelimit.Limiter
	maxRetries int
	retryOpts  []retry.Option
	log        zerolog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithLogger sets the client logger.
func WithLogger(log zerolog.Logger) ClientOption {
	return func(c *Client) { c.log = log }
}

// WithMaxRetries bounds retries of transient API failures per call.
func WithMaxRetries(n int) ClientOption {
	return func(c *Client) { c.maxRetries = n }
}

// WithRetryOptions appends extra backoff tuning applied to every call.
func WithRetryOptions(opts ...retry.Option) ClientOption {
	return func(c *Client) { c.retryOpts = append(c.retryOpts, opts...) }
}

// NewClient assembles a client. All entity services share one client and
// therefore one limiter, so a burst from one service throttles the others.
func NewClient(api ValuesAPI, tokens auth.TokenProvider, selector auth.SpreadsheetSelector, limiter *ratelimit.Limiter, opts ...ClientOption) *Client {
	c := &Client{
		api:        api,
		tokens:     tokens,
		selector:   selector,
		limiter:    limiter,
		maxRetries: retry.DefaultMaxRetries,
		log:        zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Read returns the rows of a range; empty when the range holds no data.
func (c *Client) Read(ctx context.Context, readRange string) ([]Row, error) {
	var rows []Row
	err := c.call(ctx, "Read", func(ctx context.Context, spreadsheetID string) error {
		var err error
		rows, err = c.api.Get(ctx, spreadsheetID, readRange)
		return err
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// Write overwrites a range with the given rows.
func (c *Client) Write(ctx context.Context, writeRange string, rows []Row) (*UpdateResult, error) {
	var result *UpdateResult
	err := c.call(ctx, "Write", func(ctx context.Context, spreadsheetID string) error {
		var err error
		result, err = c.api.Update(ctx, spreadsheetID, writeRange, rows)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Append inserts rows after existing data in a table-shaped range.
func (c *Client) Append(ctx context.Context, tableRange string, rows []Row) (*AppendResult, error) {
	var result *AppendResult
	err := c.call(ctx, "Append", func(ctx context.Context, spreadsheetID string) error {
		var err error
		result, err = c.api.Append(ctx, spreadsheetID, tableRange, rows)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// BatchRead fetches multiple ranges in one round trip.
func (c *Client) BatchRead(ctx context.Context, ranges []string) (map[string][]Row, error) {
	var result map[string][]Row
	err := c.call(ctx, "BatchRead", func(ctx context.Context, spreadsheetID string) error {
		var err error
		result, err = c.api.BatchGet(ctx, spreadsheetID, ranges)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// BatchWrite writes multiple (range, rows) pairs in one round trip.
func (c *Client) BatchWrite(ctx context.Context, data []ValueRange) (*BatchWriteResult, error) {
	var result *BatchWriteResult
	err := c.call(ctx, "BatchWrite", func(ctx context.Context, spreadsheetID string) error {
		var err error
		result, err = c.api.BatchUpdate(ctx, spreadsheetID, data)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// FindByID scans a sheet (skipping the header row) for the first row whose id
// column equals id, returning the row and its 1-based sheet position. Returns
// ErrRowNotFound when no row matches.
func (c *Client) FindByID(ctx context.Context, sheetName, id string, idColumnIndex int) (Row, int, error) {
	rows, err := c.Read(ctx, sheetName)
	if err != nil {
		return nil, 0, err
	}
	for i := 1; i < len(rows); i++ {
		if rows[i].Cell(idColumnIndex).AsString() == id {
			return rows[i], i + 1, nil
		}
	}
	return nil, 0, fmt.Errorf("FindByID: %q in %s: %w", id, sheetName, ErrRowNotFound)
}

// UpsertByID overwrites the row carrying id in place when it exists, and
// appends a new row otherwise.
func (c *Client) UpsertByID(ctx context.Context, sheetName, id string, row Row, idColumnIndex int) (*UpsertResult, error) {
	_, pos, err := c.FindByID(ctx, sheetName, id, idColumnIndex)
	switch {
	case err == nil:
		if _, err := c.Write(ctx, fmt.Sprintf("%s!A%d", sheetName, pos), []Row{row}); err != nil {
			return nil, fmt.Errorf("UpsertByID: update: %w", err)
		}
		return &UpsertResult{Updated: true, RowNumber: pos}, nil

	case errors.Is(err, ErrRowNotFound):
		result, err := c.Append(ctx, sheetName, []Row{row})
		if err != nil {
			return nil, fmt.Errorf("UpsertByID: insert: %w", err)
		}
		return &UpsertResult{Updated: false, RowNumber: startRowOfRange(result.UpdatedRange)}, nil

	default:
		return nil, err
	}
}

// DeleteByID clears the cells of the row carrying id with empty strings. The
// row itself is not removed, preserving positions for by-position callers.
// Reports whether a row was found and cleared.
func (c *Client) DeleteByID(ctx context.Context, sheetName, id string, columnCount, idColumnIndex int) (bool, error) {
	_, pos, err := c.FindByID(ctx, sheetName, id, idColumnIndex)
	if errors.Is(err, ErrRowNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if _, err := c.Write(ctx, fmt.Sprintf("%s!A%d", sheetName, pos), []Row{EmptyRow(columnCount)}); err != nil {
		return false, fmt.Errorf("DeleteByID: clear: %w", err)
	}
	return true, nil
}

// call runs one API operation: token precondition, spreadsheet resolution,
// rate limiting, bounded retry, then error classification.
func (c *Client) call(ctx context.Context, op string, fn func(ctx context.Context, spreadsheetID string) error) error {
	if c.tokens.AccessToken(ctx) == "" {
		return fmt.Errorf("%s: %w", op, &AuthError{})
	}

	spreadsheetID := c.selector.SelectedSpreadsheetID()
	if spreadsheetID == "" {
		return fmt.Errorf("%s: %w", op, ErrNoSpreadsheetSelected)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%s: rate limiter: %w", op, err)
	}

	retryOpts := []retry.Option{
		retry.WithMaxRetries(c.maxRetries),
		retry.WithRetryable(retry.DefaultRetryable),
		retry.WithOnRetry(func(err error, attempt int, delay time.Duration) {
			c.log.Warn().
				Err(err).
				Str("op", op).
				Int("attempt", attempt).
				Dur("delay", delay).
				Msg("Retrying Sheets API call")
		}),
	}
	retryOpts = append(retryOpts, c.retryOpts...)

	err := retry.Do(ctx, func(ctx context.Context) error { return fn(ctx, spreadsheetID) }, retryOpts...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, c.classify(err))
	}
	return nil
}

// classify maps API status codes to typed errors. A 401 also clears the
// cached auth state so the next call fails fast into the re-auth flow.
func (c *Client) classify(err error) error {
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) {
		return err
	}
	switch apiErr.Code {
	case 401:
		c.tokens.ClearAuthState()
		return &AuthError{Revoked: true, cause: err}
	case 404:
		return &NotFoundError{Resource: "spreadsheet", cause: err}
	case 429:
		return &RateLimitError{cause: err}
	default:
		return err
	}
}

// startRowOfRange extracts the first row number from an A1-notation range
// such as "Movements!A7:F7". Returns 0 when the range has no row component.
func startRowOfRange(a1 string) int {
	if i := strings.IndexByte(a1, '!'); i >= 0 {
		a1 = a1[i+1:]
	}
	if i := strings.IndexByte(a1, ':'); i >= 0 {
		a1 = a1[:i]
	}
	start := 0
	for start < len(a1) && (a1[start] < '0' || a1[start] > '9') {
		start++
	}
	n, err := strconv.Atoi(a1[start:])
	if err != nil {
		return 0
	}
	return n
}
