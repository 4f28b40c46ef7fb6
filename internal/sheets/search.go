package sheets

import (
	"context"
	"fmt"
	"strings"

	"github.com/ainetwork-ai/google-sheet-mcp/internal/match"
	"github.com/ainetwork-ai/google-sheet-mcp/internal/store"
	"github.com/ainetwork-ai/google-sheet-mcp/pkg/a1"
	"github.com/ainetwork-ai/google-sheet-mcp/pkg/sheeterr"
)

// SearchInput selects the cells to scan and the query to locate.
type SearchInput struct {
	SpreadsheetID string
	Sheet         string
	// Range optionally restricts the scan; empty scans the whole sheet.
	Range string
	Query string
	// Columns optionally restricts matching to these column letters.
	Columns []string
}

// SearchResult reports located occurrences in row-major scan order.
type SearchResult struct {
	Sheet   string        `json:"sheet"`
	Query   string        `json:"query"`
	Matches []match.Match `json:"matches"`
}

// Search reads the selected cells and locates query occurrences. Addresses
// in the result are absolute sheet coordinates even when a sub-range was
// scanned.
func (s *Service) Search(ctx context.Context, in SearchInput) (*SearchResult, error) {
	// The matcher sees columns relative to the scanned grid, so sheet column
	// letters must be rebased when a sub-range narrows the scan.
	cols := in.Columns
	if in.Range != "" && len(cols) > 0 {
		_, sc, _, ec, err := checkRange(in.Range)
		if err != nil {
			return nil, err
		}
		cols, err = rebaseColumns(cols, sc, ec)
		if err != nil {
			return nil, err
		}
	}
	grid, originRow, originCol, err := s.readGrid(ctx, in.SpreadsheetID, in.Sheet, in.Range)
	if err != nil {
		return nil, err
	}
	matches, err := match.Search(grid, in.Query, cols)
	if err != nil {
		return nil, err
	}
	for i := range matches {
		matches[i].Row += originRow - 1
		matches[i].Col += originCol - 1
		matches[i].Address = a1.FormatCell(matches[i].Row, matches[i].Col)
	}
	return &SearchResult{Sheet: in.Sheet, Query: in.Query, Matches: matches}, nil
}

// ReplaceInput configures a smart replace pass.
type ReplaceInput struct {
	SpreadsheetID   string
	Sheet           string
	Range           string
	FindText        string
	ReplaceText     string
	MatchCase       bool
	MatchEntireCell bool
}

// ReplaceResult reports committed rewrites. ModifiedCount is a lower bound
// of completed work when Err is non-nil: replacements are committed one
// targeted write at a time, in discovery order, and a mid-sequence failure
// leaves earlier writes in place.
type ReplaceResult struct {
	Sheet         string              `json:"sheet"`
	ModifiedCount int                 `json:"modified_count"`
	Replacements  []match.Replacement `json:"replacements"`
}

// SmartReplace locates occurrences of FindText and commits the computed
// rewrites cell by cell. On a partial failure the result carries every
// committed replacement alongside the surfaced error.
func (s *Service) SmartReplace(ctx context.Context, in ReplaceInput) (*ReplaceResult, error) {
	if in.FindText == "" {
		return nil, sheeterr.New(sheeterr.Validation, "find_text is required")
	}
	grid, originRow, originCol, err := s.readGrid(ctx, in.SpreadsheetID, in.Sheet, in.Range)
	if err != nil {
		return nil, err
	}

	// The grid is already restricted to the requested sub-rectangle, so the
	// matcher runs unbounded over it.
	_, repls, err := match.Replace(grid, in.FindText, in.ReplaceText, match.Options{
		MatchCase:       in.MatchCase,
		MatchEntireCell: in.MatchEntireCell,
	})
	if err != nil {
		return nil, err
	}

	res := &ReplaceResult{Sheet: in.Sheet}
	for _, r := range repls {
		r.Row += originRow - 1
		r.Col += originCol - 1
		r.Address = a1.FormatCell(r.Row, r.Col)

		w := store.CellWrite{Sheet: in.Sheet, Address: r.Address, Value: r.NewValue}
		err := s.call(ctx, "smart_replace", func(ctx context.Context) error {
			return s.store.WriteCell(ctx, in.SpreadsheetID, w)
		})
		if err != nil {
			return res, sheeterr.Wrap(sheeterr.ReplaceFailed,
				fmt.Sprintf("replace stopped at %s after committing %d cells", r.Address, res.ModifiedCount), err)
		}
		res.Replacements = append(res.Replacements, r)
		res.ModifiedCount++
	}
	return res, nil
}

// rebaseColumns translates sheet column letters onto a grid whose leftmost
// column is startCol. Letters outside [startCol, endCol] cannot match any
// scanned cell and are rejected rather than silently dropped.
func rebaseColumns(columns []string, startCol, endCol int) ([]string, error) {
	out := make([]string, 0, len(columns))
	for _, name := range columns {
		n, err := a1.ColumnNumber(strings.ToUpper(strings.TrimSpace(name)))
		if err != nil {
			return nil, err
		}
		if n < startCol || n > endCol {
			return nil, sheeterr.Newf(sheeterr.Validation, "column %s is outside the scanned range", name)
		}
		out = append(out, a1.ColumnName(n-startCol+1))
	}
	return out, nil
}

// readGrid fetches the scan area and returns the grid with the absolute
// coordinates of its top-left cell.
func (s *Service) readGrid(ctx context.Context, spreadsheetID, sheet, rng string) ([][]any, int, int, error) {
	originRow, originCol := 1, 1
	if rng != "" {
		sr, sc, _, _, err := checkRange(rng)
		if err != nil {
			return nil, 0, 0, err
		}
		originRow, originCol = sr, sc
	}
	qualified := a1.Qualify(sheet, rng)
	var vr *store.ValueRange
	err := s.call(ctx, "read_grid", func(ctx context.Context) error {
		var callErr error
		vr, callErr = s.store.ReadRange(ctx, spreadsheetID, qualified)
		return callErr
	})
	if err != nil {
		return nil, 0, 0, err
	}
	return vr.Values, originRow, originCol, nil
}
