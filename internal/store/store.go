// Package store defines the data-access boundary for spreadsheet backends.
// Implementations perform raw reads and writes; resilience (admission
// control, retry) and address translation live above, in internal/sheets.
package store

import "context"

// ValueRange is a rectangular block of cell values anchored at an A1 range.
// Values are row-major; cells are opaque scalars (string, float64, bool) or
// nil when absent, matching the Sheets "values" payload shape.
type ValueRange struct {
	Range  string
	Values [][]any
}

// SheetProps summarizes one sheet tab without loading cell data.
type SheetProps struct {
	ID       int64  `json:"sheet_id"`
	Title    string `json:"title"`
	Index    int    `json:"index"`
	RowCount int    `json:"row_count"`
	ColCount int    `json:"col_count"`
}

// CellWrite is a single targeted cell update, used by smart-replace commits.
type CellWrite struct {
	Sheet string
	// Address is the unqualified A1 cell address, e.g. "B7".
	Address string
	Value   any
}

// Store is the opaque spreadsheet collaborator. Ranges are sheet-qualified
// A1 text ("Sheet1!A1:B10"); implementations pass errors through untouched
// so the retry classifier can inspect the original failure.
type Store interface {
	// ReadRange returns the values inside a qualified range. Missing
	// trailing rows/cells may be absent from the result, per backend.
	ReadRange(ctx context.Context, spreadsheetID, rng string) (*ValueRange, error)

	// UpdateRange overwrites the cells of a qualified range with values.
	UpdateRange(ctx context.Context, spreadsheetID, rng string, values [][]any) error

	// AppendRows appends rows after the last non-empty row of the range's table.
	AppendRows(ctx context.Context, spreadsheetID, rng string, values [][]any) error

	// ClearRange blanks the cells of a qualified range.
	ClearRange(ctx context.Context, spreadsheetID, rng string) error

	// WriteCell commits one targeted cell update.
	WriteCell(ctx context.Context, spreadsheetID string, w CellWrite) error

	// ListSheets returns the spreadsheet's sheet tabs in index order.
	ListSheets(ctx context.Context, spreadsheetID string) ([]SheetProps, error)

	// AddSheet creates a new sheet tab with the given title.
	AddSheet(ctx context.Context, spreadsheetID, title string) error

	// DeleteSheet removes a sheet tab by title.
	DeleteSheet(ctx context.Context, spreadsheetID, title string) error

	// CreateSpreadsheet creates a new spreadsheet and returns its ID.
	CreateSpreadsheet(ctx context.Context, title string) (string, error)
}
