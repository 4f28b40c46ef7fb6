// Package googlesheets implements store.Store over the Google Sheets v4 API.
// Errors from the API client are returned untouched so the retry classifier
// can inspect status codes and quota wording on the original failure.
package googlesheets

import (
	"context"
	"fmt"

	sheets "google.golang.org/api/sheets/v4"

	"github.com/ainetwork-ai/google-sheet-mcp/internal/store"
	"github.com/ainetwork-ai/google-sheet-mcp/pkg/sheeterr"
)

// Store wraps an authenticated sheets.Service. Credential acquisition is the
// caller's concern; the service handle is consumed as an opaque capability.
type Store struct {
	svc *sheets.Service
}

// New constructs a Store over the provided service handle.
func New(svc *sheets.Service) *Store {
	return &Store{svc: svc}
}

var _ store.Store = (*Store)(nil)

func (s *Store) ReadRange(ctx context.Context, spreadsheetID, rng string) (*store.ValueRange, error) {
	resp, err := s.svc.Spreadsheets.Values.Get(spreadsheetID, rng).
		ValueRenderOption("UNFORMATTED_VALUE").
		Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	return &store.ValueRange{Range: resp.Range, Values: resp.Values}, nil
}

func (s *Store) UpdateRange(ctx context.Context, spreadsheetID, rng string, values [][]any) error {
	_, err := s.svc.Spreadsheets.Values.Update(spreadsheetID, rng, &sheets.ValueRange{Values: values}).
		ValueInputOption("USER_ENTERED").
		Context(ctx).Do()
	return err
}

func (s *Store) AppendRows(ctx context.Context, spreadsheetID, rng string, values [][]any) error {
	_, err := s.svc.Spreadsheets.Values.Append(spreadsheetID, rng, &sheets.ValueRange{Values: values}).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	return err
}

func (s *Store) ClearRange(ctx context.Context, spreadsheetID, rng string) error {
	_, err := s.svc.Spreadsheets.Values.Clear(spreadsheetID, rng, &sheets.ClearValuesRequest{}).
		Context(ctx).Do()
	return err
}

func (s *Store) WriteCell(ctx context.Context, spreadsheetID string, w store.CellWrite) error {
	rng := fmt.Sprintf("%s!%s:%s", w.Sheet, w.Address, w.Address)
	return s.UpdateRange(ctx, spreadsheetID, rng, [][]any{{w.Value}})
}

func (s *Store) ListSheets(ctx context.Context, spreadsheetID string) ([]store.SheetProps, error) {
	resp, err := s.svc.Spreadsheets.Get(spreadsheetID).
		Fields("sheets.properties").
		Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	props := make([]store.SheetProps, 0, len(resp.Sheets))
	for _, sh := range resp.Sheets {
		p := sh.Properties
		if p == nil {
			continue
		}
		sp := store.SheetProps{
			ID:    p.SheetId,
			Title: p.Title,
			Index: int(p.Index),
		}
		if gp := p.GridProperties; gp != nil {
			sp.RowCount = int(gp.RowCount)
			sp.ColCount = int(gp.ColumnCount)
		}
		props = append(props, sp)
	}
	return props, nil
}

func (s *Store) AddSheet(ctx context.Context, spreadsheetID, title string) error {
	req := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			AddSheet: &sheets.AddSheetRequest{
				Properties: &sheets.SheetProperties{Title: title},
			},
		}},
	}
	_, err := s.svc.Spreadsheets.BatchUpdate(spreadsheetID, req).Context(ctx).Do()
	return err
}

func (s *Store) DeleteSheet(ctx context.Context, spreadsheetID, title string) error {
	props, err := s.ListSheets(ctx, spreadsheetID)
	if err != nil {
		return err
	}
	var sheetID int64 = -1
	for _, p := range props {
		if p.Title == title {
			sheetID = p.ID
			break
		}
	}
	if sheetID < 0 {
		return sheeterr.Newf(sheeterr.NotFound, "sheet %q not found", title)
	}
	req := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			DeleteSheet: &sheets.DeleteSheetRequest{SheetId: sheetID},
		}},
	}
	_, err = s.svc.Spreadsheets.BatchUpdate(spreadsheetID, req).Context(ctx).Do()
	return err
}

func (s *Store) CreateSpreadsheet(ctx context.Context, title string) (string, error) {
	resp, err := s.svc.Spreadsheets.Create(&sheets.Spreadsheet{
		Properties: &sheets.SpreadsheetProperties{Title: title},
	}).Context(ctx).Do()
	if err != nil {
		return "", err
	}
	return resp.SpreadsheetId, nil
}
