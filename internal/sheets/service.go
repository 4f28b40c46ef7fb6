// Package sheets implements the spreadsheet operations exposed by the tool
// catalog. Every outbound store call passes through the admission controller
// and the retry executor; addresses and ranges are translated through pkg/a1
// at the boundary.
package sheets

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"
	"google.golang.org/api/googleapi"

	"github.com/ainetwork-ai/google-sheet-mcp/internal/ratelimit"
	"github.com/ainetwork-ai/google-sheet-mcp/internal/retry"
	"github.com/ainetwork-ai/google-sheet-mcp/internal/store"
	"github.com/ainetwork-ai/google-sheet-mcp/pkg/a1"
	"github.com/ainetwork-ai/google-sheet-mcp/pkg/sheeterr"
)

// Service wires a spreadsheet store with the resilience layer. Construct one
// per server; the limiter instance is shared so all operations count against
// the same admission window.
type Service struct {
	store   store.Store
	limiter *ratelimit.Limiter
	retrier *retry.Executor
	log     zerolog.Logger
}

// NewService constructs a Service. limiter and retrier must not be nil; they
// are injected so tests can instantiate independent controllers.
func NewService(st store.Store, limiter *ratelimit.Limiter, retrier *retry.Executor, log zerolog.Logger) *Service {
	return &Service{store: st, limiter: limiter, retrier: retrier, log: log}
}

// call runs op with admission and retry. Admission is re-entered on every
// attempt, so a retried call is throttled exactly like a fresh one. Quota
// exhaustion surviving the retries surfaces as QUOTA_EXCEEDED.
func (s *Service) call(ctx context.Context, name string, op func(ctx context.Context) error) error {
	err := s.retrier.Do(ctx, func(ctx context.Context) error {
		if err := s.limiter.Wait(ctx); err != nil {
			return err
		}
		return op(ctx)
	})
	if err != nil {
		s.log.Debug().Str("op", name).Err(err).Msg("store call failed")
		return normalizeStoreErr(err)
	}
	return nil
}

// normalizeStoreErr maps raw backend failures onto the closed taxonomy.
// Typed errors pass through; Google API statuses map by code, with quota
// wording taking precedence over the generic 403.
func normalizeStoreErr(err error) error {
	if err == nil {
		return nil
	}
	if sheeterr.CodeOf(err) != "" {
		return err
	}
	if retry.IsQuota(err) {
		return retry.AsQuotaError(err)
	}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Code == 404:
			return sheeterr.Wrap(sheeterr.NotFound, "spreadsheet or sheet not found", err)
		case apiErr.Code == 403:
			return sheeterr.Wrap(sheeterr.PermissionDenied, apiErr.Message, err)
		case apiErr.Code == 400:
			return sheeterr.Wrap(sheeterr.Validation, apiErr.Message, err)
		case apiErr.Code == 429 || apiErr.Code >= 500:
			return sheeterr.Wrap(sheeterr.TransientFailure, apiErr.Message, err)
		}
	}
	if retry.IsRetryable(err) {
		return sheeterr.Wrap(sheeterr.TransientFailure, err.Error(), err)
	}
	return err
}

// checkRange parses an unqualified A1 range and rejects reversed corners.
func checkRange(rng string) (sr, sc, er, ec int, err error) {
	sr, sc, er, ec, err = a1.ParseRange(rng)
	if err != nil {
		return 0, 0, 0, 0, err
	}
	if er < sr || ec < sc {
		return 0, 0, 0, 0, sheeterr.Newf(sheeterr.InvalidRange, "reversed range: %q", rng)
	}
	return sr, sc, er, ec, nil
}

// ReadResult carries a read grid with its effective range.
type ReadResult struct {
	Range  string  `json:"range"`
	Values [][]any `json:"values"`
	// Rows and Cols are the dimensions of the requested range, which may
	// exceed len(Values) when trailing rows are empty.
	Rows int `json:"rows"`
	Cols int `json:"cols"`
}

// ReadRange reads a rectangular range from a sheet.
func (s *Service) ReadRange(ctx context.Context, spreadsheetID, sheet, rng string) (*ReadResult, error) {
	sr, sc, er, ec, err := checkRange(rng)
	if err != nil {
		return nil, err
	}
	qualified := a1.Qualify(sheet, rng)
	var vr *store.ValueRange
	err = s.call(ctx, "read_range", func(ctx context.Context) error {
		var callErr error
		vr, callErr = s.store.ReadRange(ctx, spreadsheetID, qualified)
		return callErr
	})
	if err != nil {
		return nil, err
	}
	return &ReadResult{
		Range:  qualified,
		Values: vr.Values,
		Rows:   er - sr + 1,
		Cols:   ec - sc + 1,
	}, nil
}

// WriteRange overwrites a range with values. The value block must fit inside
// the range dimensions.
func (s *Service) WriteRange(ctx context.Context, spreadsheetID, sheet, rng string, values [][]any) error {
	sr, sc, er, ec, err := checkRange(rng)
	if err != nil {
		return err
	}
	if len(values) > er-sr+1 {
		return sheeterr.Newf(sheeterr.Validation, "%d value rows exceed range height %d", len(values), er-sr+1)
	}
	for _, row := range values {
		if len(row) > ec-sc+1 {
			return sheeterr.Newf(sheeterr.Validation, "%d value columns exceed range width %d", len(row), ec-sc+1)
		}
	}
	qualified := a1.Qualify(sheet, rng)
	return s.call(ctx, "write_range", func(ctx context.Context) error {
		return s.store.UpdateRange(ctx, spreadsheetID, qualified, values)
	})
}

// AppendRows appends value rows after the sheet's last non-empty row.
func (s *Service) AppendRows(ctx context.Context, spreadsheetID, sheet string, values [][]any) error {
	if len(values) == 0 {
		return sheeterr.New(sheeterr.Validation, "no rows to append")
	}
	return s.call(ctx, "append_rows", func(ctx context.Context) error {
		return s.store.AppendRows(ctx, spreadsheetID, sheet, values)
	})
}

// ClearRange blanks the cells of a range.
func (s *Service) ClearRange(ctx context.Context, spreadsheetID, sheet, rng string) error {
	if _, _, _, _, err := checkRange(rng); err != nil {
		return err
	}
	qualified := a1.Qualify(sheet, rng)
	return s.call(ctx, "clear_range", func(ctx context.Context) error {
		return s.store.ClearRange(ctx, spreadsheetID, qualified)
	})
}

// ListSheets returns the spreadsheet's sheet tabs.
func (s *Service) ListSheets(ctx context.Context, spreadsheetID string) ([]store.SheetProps, error) {
	var props []store.SheetProps
	err := s.call(ctx, "list_sheets", func(ctx context.Context) error {
		var callErr error
		props, callErr = s.store.ListSheets(ctx, spreadsheetID)
		return callErr
	})
	if err != nil {
		return nil, err
	}
	return props, nil
}

// CreateSheet adds a sheet tab.
func (s *Service) CreateSheet(ctx context.Context, spreadsheetID, title string) error {
	if strings.TrimSpace(title) == "" {
		return sheeterr.New(sheeterr.Validation, "sheet title is required")
	}
	return s.call(ctx, "create_sheet", func(ctx context.Context) error {
		return s.store.AddSheet(ctx, spreadsheetID, title)
	})
}

// DeleteSheet removes a sheet tab by title.
func (s *Service) DeleteSheet(ctx context.Context, spreadsheetID, title string) error {
	return s.call(ctx, "delete_sheet", func(ctx context.Context) error {
		return s.store.DeleteSheet(ctx, spreadsheetID, title)
	})
}

// CreateSpreadsheet creates a new spreadsheet and returns its ID.
func (s *Service) CreateSpreadsheet(ctx context.Context, title string) (string, error) {
	var id string
	err := s.call(ctx, "create_spreadsheet", func(ctx context.Context) error {
		var callErr error
		id, callErr = s.store.CreateSpreadsheet(ctx, title)
		return callErr
	})
	if err != nil {
		return "", err
	}
	return id, nil
}
