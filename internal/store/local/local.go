// Package local implements store.Store over excelize workbooks managed by
// internal/workbooks. Spreadsheet IDs are workbook handle IDs. It serves
// offline use and tests; semantics mirror the remote backend where the
// formats allow.
package local

import (
	"context"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/ainetwork-ai/google-sheet-mcp/internal/store"
	"github.com/ainetwork-ai/google-sheet-mcp/internal/workbooks"
	"github.com/ainetwork-ai/google-sheet-mcp/pkg/a1"
	"github.com/ainetwork-ai/google-sheet-mcp/pkg/sheeterr"
)

// Store resolves spreadsheet IDs through a workbook handle manager.
type Store struct {
	mgr *workbooks.Manager
}

// New constructs a Store over the given handle manager.
func New(mgr *workbooks.Manager) *Store {
	return &Store{mgr: mgr}
}

var _ store.Store = (*Store)(nil)

// Open opens a workbook file and returns its spreadsheet ID.
func (s *Store) Open(ctx context.Context, path string) (string, error) {
	return s.mgr.Open(ctx, path)
}

// Close releases a spreadsheet handle.
func (s *Store) Close(ctx context.Context, spreadsheetID string) error {
	return s.mgr.CloseHandle(ctx, spreadsheetID)
}

func (s *Store) ReadRange(ctx context.Context, spreadsheetID, rng string) (*store.ValueRange, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if sheet, ok := wholeSheetRange(rng); ok {
		return s.readWholeSheet(spreadsheetID, sheet)
	}
	sheet, sr, sc, er, ec, err := splitRange(rng)
	if err != nil {
		return nil, err
	}
	out := &store.ValueRange{Range: rng}
	err = s.withRead(spreadsheetID, func(f *excelize.File, _ int64) error {
		if err := requireSheet(f, sheet); err != nil {
			return err
		}
		for r := sr; r <= er; r++ {
			row := make([]any, 0, ec-sc+1)
			for c := sc; c <= ec; c++ {
				v, err := f.GetCellValue(sheet, a1.FormatCell(r, c))
				if err != nil {
					return err
				}
				if v == "" {
					row = append(row, nil)
				} else {
					row = append(row, v)
				}
			}
			out.Values = append(out.Values, row)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) UpdateRange(ctx context.Context, spreadsheetID, rng string, values [][]any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	sheet, sr, sc, _, _, err := splitRange(rng)
	if err != nil {
		return err
	}
	return s.withWrite(spreadsheetID, func(f *excelize.File) error {
		if err := requireSheet(f, sheet); err != nil {
			return err
		}
		for i, row := range values {
			for j, v := range row {
				if err := f.SetCellValue(sheet, a1.FormatCell(sr+i, sc+j), v); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

func (s *Store) AppendRows(ctx context.Context, spreadsheetID, rng string, values [][]any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	sheet, ok := a1.SheetName(rng)
	if !ok {
		sheet = rng
	}
	return s.withWrite(spreadsheetID, func(f *excelize.File) error {
		if err := requireSheet(f, sheet); err != nil {
			return err
		}
		rows, err := f.GetRows(sheet)
		if err != nil {
			return err
		}
		start := len(rows) + 1
		for i, row := range values {
			for j, v := range row {
				if err := f.SetCellValue(sheet, a1.FormatCell(start+i, j+1), v); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

func (s *Store) ClearRange(ctx context.Context, spreadsheetID, rng string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	sheet, sr, sc, er, ec, err := splitRange(rng)
	if err != nil {
		return err
	}
	return s.withWrite(spreadsheetID, func(f *excelize.File) error {
		if err := requireSheet(f, sheet); err != nil {
			return err
		}
		for r := sr; r <= er; r++ {
			for c := sc; c <= ec; c++ {
				if err := f.SetCellValue(sheet, a1.FormatCell(r, c), nil); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

func (s *Store) WriteCell(ctx context.Context, spreadsheetID string, w store.CellWrite) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, _, err := a1.ParseCell(w.Address); err != nil {
		return err
	}
	return s.withWrite(spreadsheetID, func(f *excelize.File) error {
		if err := requireSheet(f, w.Sheet); err != nil {
			return err
		}
		return f.SetCellValue(w.Sheet, w.Address, w.Value)
	})
}

func (s *Store) ListSheets(ctx context.Context, spreadsheetID string) ([]store.SheetProps, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var props []store.SheetProps
	err := s.withRead(spreadsheetID, func(f *excelize.File, _ int64) error {
		for i, name := range f.GetSheetList() {
			rows, err := f.GetRows(name)
			if err != nil {
				return err
			}
			width := 0
			for _, row := range rows {
				if len(row) > width {
					width = len(row)
				}
			}
			props = append(props, store.SheetProps{
				ID:       int64(i),
				Title:    name,
				Index:    i,
				RowCount: len(rows),
				ColCount: width,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return props, nil
}

func (s *Store) AddSheet(ctx context.Context, spreadsheetID, title string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.withWrite(spreadsheetID, func(f *excelize.File) error {
		_, err := f.NewSheet(title)
		return err
	})
}

func (s *Store) DeleteSheet(ctx context.Context, spreadsheetID, title string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.withWrite(spreadsheetID, func(f *excelize.File) error {
		if err := requireSheet(f, title); err != nil {
			return err
		}
		return f.DeleteSheet(title)
	})
}

func (s *Store) CreateSpreadsheet(ctx context.Context, title string) (string, error) {
	f := excelize.NewFile()
	if title != "" {
		if err := f.SetSheetName(f.GetSheetName(0), title); err != nil {
			_ = f.Close()
			return "", err
		}
	}
	id, err := s.mgr.Adopt(ctx, f)
	if err != nil {
		_ = f.Close()
		return "", err
	}
	return id, nil
}

func (s *Store) withRead(id string, fn func(*excelize.File, int64) error) error {
	err := s.mgr.WithRead(id, fn)
	if err == workbooks.ErrHandleNotFound {
		return sheeterr.Wrap(sheeterr.NotFound, "spreadsheet handle not found", err)
	}
	return err
}

func (s *Store) withWrite(id string, fn func(*excelize.File) error) error {
	err := s.mgr.WithWrite(id, fn)
	if err == workbooks.ErrHandleNotFound {
		return sheeterr.Wrap(sheeterr.NotFound, "spreadsheet handle not found", err)
	}
	return err
}

// readWholeSheet reads the used range of a sheet, matching the remote
// backend's behavior when a request names a sheet with no cell coordinates.
func (s *Store) readWholeSheet(spreadsheetID, sheet string) (*store.ValueRange, error) {
	out := &store.ValueRange{Range: sheet}
	err := s.withRead(spreadsheetID, func(f *excelize.File, _ int64) error {
		if err := requireSheet(f, sheet); err != nil {
			return err
		}
		rows, err := f.GetRows(sheet)
		if err != nil {
			return err
		}
		for _, row := range rows {
			vals := make([]any, 0, len(row))
			for _, v := range row {
				if v == "" {
					vals = append(vals, nil)
				} else {
					vals = append(vals, v)
				}
			}
			out.Values = append(out.Values, vals)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// wholeSheetRange reports whether rng names a bare sheet. Unqualified cell
// coordinates ("A1:B10", "C3") stay rejected: those need a sheet prefix.
func wholeSheetRange(rng string) (string, bool) {
	if rng == "" || strings.Contains(rng, "!") {
		return "", false
	}
	if a1.ValidRange(rng) {
		return "", false
	}
	if _, _, err := a1.ParseCell(rng); err == nil {
		return "", false
	}
	return rng, true
}

// splitRange decodes "Sheet!A1:B10" into its sheet and corner coordinates.
func splitRange(rng string) (sheet string, sr, sc, er, ec int, err error) {
	sheet, ok := a1.SheetName(rng)
	if !ok {
		return "", 0, 0, 0, 0, sheeterr.Newf(sheeterr.InvalidRange, "range %q is missing a sheet qualifier", rng)
	}
	rest := rng[len(sheet)+1:]
	if !strings.Contains(rest, ":") {
		// Single cell degenerates to a 1x1 range.
		r, c, perr := a1.ParseCell(rest)
		if perr != nil {
			return "", 0, 0, 0, 0, sheeterr.Newf(sheeterr.InvalidRange, "invalid range: %q", rng)
		}
		return sheet, r, c, r, c, nil
	}
	sr, sc, er, ec, err = a1.ParseRange(rest)
	if err != nil {
		return "", 0, 0, 0, 0, err
	}
	if er < sr || ec < sc {
		return "", 0, 0, 0, 0, sheeterr.Newf(sheeterr.InvalidRange, "reversed range: %q", rng)
	}
	return sheet, sr, sc, er, ec, nil
}

func requireSheet(f *excelize.File, sheet string) error {
	idx, err := f.GetSheetIndex(sheet)
	if err != nil {
		return err
	}
	if idx < 0 {
		return sheeterr.Newf(sheeterr.NotFound, "sheet %q does not exist", sheet)
	}
	return nil
}
