package sheets

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"
)

// ValueRange pairs a range with the rows to write there.
type ValueRange struct {
	Range string
	Rows  []Row
}

// UpdateResult reports the outcome of a range overwrite.
type UpdateResult struct {
	UpdatedRange string
	UpdatedRows  int64
	UpdatedCells int64
}

// AppendResult reports where appended rows actually landed.
type AppendResult struct {
	UpdatedRange string
	UpdatedRows  int64
}

// BatchWriteResult aggregates counts across a multi-range write.
type BatchWriteResult struct {
	TotalUpdatedRows  int64
	TotalUpdatedCells int64
}

// ValuesAPI is the raw row-range transport the client drives. The concrete
// implementation is the Google Sheets values service; tests substitute an
// in-memory fake.
type ValuesAPI interface {
	Get(ctx context.Context, spreadsheetID, readRange string) ([]Row, error)
	Update(ctx context.Context, spreadsheetID, writeRange string, rows []Row) (*UpdateResult, error)
	Append(ctx context.Context, spreadsheetID, tableRange string, rows []Row) (*AppendResult, error)
	BatchGet(ctx context.Context, spreadsheetID string, ranges []string) (map[string][]Row, error)
	BatchUpdate(ctx context.Context, spreadsheetID string, data []ValueRange) (*BatchWriteResult, error)
}

// GoogleValuesAPI implements ValuesAPI over the Sheets v4 values service.
type GoogleValuesAPI struct {
	svc *gsheets.Service
}

// NewGoogleValuesAPI builds the Sheets service from an OAuth2 token source.
func NewGoogleValuesAPI(ctx context.Context, source oauth2.TokenSource) (*GoogleValuesAPI, error) {
	svc, err := gsheets.NewService(ctx, option.WithTokenSource(source))
	if err != nil {
		return nil, fmt.Errorf("NewGoogleValuesAPI: creating service: %w", err)
	}
	return &GoogleValuesAPI{svc: svc}, nil
}

// Get reads a range. An empty range yields no rows.
func (g *GoogleValuesAPI) Get(ctx context.Context, spreadsheetID, readRange string) ([]Row, error) {
	resp, err := g.svc.Spreadsheets.Values.Get(spreadsheetID, readRange).Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	return RowsFromInterfaces(resp.Values), nil
}

// Update overwrites a range with the given rows.
func (g *GoogleValuesAPI) Update(ctx context.Context, spreadsheetID, writeRange string, rows []Row) (*UpdateResult, error) {
	body := &gsheets.ValueRange{Values: RowsToInterfaces(rows)}
	resp, err := g.svc.Spreadsheets.Values.Update(spreadsheetID, writeRange, body).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return nil, err
	}
	return &UpdateResult{
		UpdatedRange: resp.UpdatedRange,
		UpdatedRows:  resp.UpdatedRows,
		UpdatedCells: resp.UpdatedCells,
	}, nil
}

// Append inserts rows after the existing data of a table-shaped range.
func (g *GoogleValuesAPI) Append(ctx context.Context, spreadsheetID, tableRange string, rows []Row) (*AppendResult, error) {
	body := &gsheets.ValueRange{Values: RowsToInterfaces(rows)}
	resp, err := g.svc.Spreadsheets.Values.Append(spreadsheetID, tableRange, body).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return nil, err
	}
	out := &AppendResult{}
	if resp.Updates != nil {
		out.UpdatedRange = resp.Updates.UpdatedRange
		out.UpdatedRows = resp.Updates.UpdatedRows
	}
	return out, nil
}

// BatchGet reads multiple ranges in one round trip, keyed by requested range.
func (g *GoogleValuesAPI) BatchGet(ctx context.Context, spreadsheetID string, ranges []string) (map[string][]Row, error) {
	resp, err := g.svc.Spreadsheets.Values.BatchGet(spreadsheetID).
		Ranges(ranges...).
		Context(ctx).
		Do()
	if err != nil {
		return nil, err
	}
	out := make(map[string][]Row, len(ranges))
	for i, vr := range resp.ValueRanges {
		if i >= len(ranges) {
			break
		}
		out[ranges[i]] = RowsFromInterfaces(vr.Values)
	}
	return out, nil
}

// BatchUpdate writes multiple ranges in one round trip.
func (g *GoogleValuesAPI) BatchUpdate(ctx context.Context, spreadsheetID string, data []ValueRange) (*BatchWriteResult, error) {
	body := &gsheets.BatchUpdateValuesRequest{ValueInputOption: "RAW"}
	for _, vr := range data {
		body.Data = append(body.Data, &gsheets.ValueRange{
			Range:  vr.Range,
			Values: RowsToInterfaces(vr.Rows),
		})
	}
	resp, err := g.svc.Spreadsheets.Values.BatchUpdate(spreadsheetID, body).Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	return &BatchWriteResult{
		TotalUpdatedRows:  resp.TotalUpdatedRows,
		TotalUpdatedCells: resp.TotalUpdatedCells,
	}, nil
}

var _ ValuesAPI = (*GoogleValuesAPI)(nil)
