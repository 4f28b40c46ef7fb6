package registry

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/ainetwork-ai/google-sheet-mcp/internal/runtime"
	"github.com/ainetwork-ai/google-sheet-mcp/internal/sheets"
	"github.com/ainetwork-ai/google-sheet-mcp/pkg/a1"
	"github.com/ainetwork-ai/google-sheet-mcp/pkg/pagination"
	"github.com/ainetwork-ai/google-sheet-mcp/pkg/sheeterr"
	"github.com/ainetwork-ai/google-sheet-mcp/pkg/validation"
)

// --- Input / Output Schemas (typed for discovery) ---

// ReadRangeInput defines parameters for reading a cell range.
type ReadRangeInput struct {
	SpreadsheetID string `json:"spreadsheet_id" validate:"required" jsonschema_description:"Spreadsheet ID"`
	Sheet         string `json:"sheet" validate:"required" jsonschema_description:"Sheet name"`
	RangeA1       string `json:"range" validate:"required,a1range" jsonschema_description:"A1-style cell range (e.g., A1:D50)"`
	Cursor        string `json:"cursor,omitempty" validate:"omitempty,cursor" jsonschema_description:"Opaque cursor from a previous page"`
	PageSize      int    `json:"page_size,omitempty" validate:"omitempty,min=1" jsonschema_description:"Max rows per page"`
}

// PageMeta captures paging/truncation metadata.
type PageMeta struct {
	Returned   int    `json:"returned"`
	Truncated  bool   `json:"truncated"`
	NextCursor string `json:"nextCursor,omitempty"`
}

// ReadRangeOutput documents the read_range response.
type ReadRangeOutput struct {
	SpreadsheetID string   `json:"spreadsheet_id"`
	Sheet         string   `json:"sheet"`
	RangeA1       string   `json:"range"`
	Values        [][]any  `json:"values"`
	Meta          PageMeta `json:"meta"`
}

// WriteRangeInput defines parameters for overwriting a cell range.
type WriteRangeInput struct {
	SpreadsheetID string  `json:"spreadsheet_id" validate:"required"`
	Sheet         string  `json:"sheet" validate:"required"`
	RangeA1       string  `json:"range" validate:"required,a1range"`
	Values        [][]any `json:"values" validate:"required,min=1" jsonschema_description:"Row-major grid of cell values"`
}

// AppendRowsInput defines parameters for appending rows after existing data.
type AppendRowsInput struct {
	SpreadsheetID string  `json:"spreadsheet_id" validate:"required"`
	Sheet         string  `json:"sheet" validate:"required"`
	Values        [][]any `json:"values" validate:"required,min=1" jsonschema_description:"Rows to append"`
}

// ClearRangeInput defines parameters for clearing a cell range.
type ClearRangeInput struct {
	SpreadsheetID string `json:"spreadsheet_id" validate:"required"`
	Sheet         string `json:"sheet" validate:"required"`
	RangeA1       string `json:"range" validate:"required,a1range"`
}

// SearchValuesInput defines parameters for locating cell values.
type SearchValuesInput struct {
	SpreadsheetID string   `json:"spreadsheet_id" validate:"required"`
	Sheet         string   `json:"sheet" validate:"required"`
	Query         string   `json:"query" validate:"required" jsonschema_description:"Substring to locate (case-insensitive)"`
	RangeA1       string   `json:"range,omitempty" validate:"omitempty,a1range" jsonschema_description:"Optional A1 range restricting the scan"`
	Columns       []string `json:"columns,omitempty" validate:"omitempty,dive,column" jsonschema_description:"Optional column letters restricting matches"`
}

// SmartReplaceInput defines parameters for a find-and-replace pass.
type SmartReplaceInput struct {
	SpreadsheetID   string `json:"spreadsheet_id" validate:"required"`
	Sheet           string `json:"sheet" validate:"required"`
	FindText        string `json:"find_text" validate:"required" jsonschema_description:"Text to locate"`
	ReplaceText     string `json:"replace_text" jsonschema_description:"Replacement text (may be empty to delete)"`
	RangeA1         string `json:"range,omitempty" validate:"omitempty,a1range" jsonschema_description:"Optional A1 range restricting the pass"`
	MatchCase       bool   `json:"match_case,omitempty" jsonschema_description:"Require exact case"`
	MatchEntireCell bool   `json:"match_entire_cell,omitempty" jsonschema_description:"Replace only cells equal to find_text"`
}

// ListSheetsInput defines parameters for listing sheet tabs.
type ListSheetsInput struct {
	SpreadsheetID string `json:"spreadsheet_id" validate:"required"`
}

// SheetInfo summarizes a sheet tab.
type SheetInfo struct {
	Title       string `json:"title"`
	Index       int    `json:"index"`
	RowCount    int    `json:"row_count"`
	ColumnCount int    `json:"column_count"`
}

// CreateSheetInput defines parameters for adding a sheet tab.
type CreateSheetInput struct {
	SpreadsheetID string `json:"spreadsheet_id" validate:"required"`
	Title         string `json:"title" validate:"required"`
}

// DeleteSheetInput defines parameters for removing a sheet tab.
type DeleteSheetInput struct {
	SpreadsheetID string `json:"spreadsheet_id" validate:"required"`
	Title         string `json:"title" validate:"required"`
}

// CreateSpreadsheetInput defines parameters for creating a spreadsheet.
type CreateSpreadsheetInput struct {
	Title string `json:"title" validate:"required"`
}

func resultJSON(v any) *mcp.CallToolResult {
	b, err := json.Marshal(v)
	if err != nil {
		return sheeterr.ResultFor(sheeterr.ReadFailed, "failed to encode result")
	}
	return mcp.NewToolResultText(string(b))
}

// RegisterSpreadsheetTools defines the spreadsheet tool catalog and wires the
// handlers to the service layer.
func RegisterSpreadsheetTools(s *server.MCPServer, reg *Registry, svc *sheets.Service, limits runtime.Limits) {
	// read_range
	readRange := mcp.NewTool(
		"read_range",
		mcp.WithDescription("Return a bounded cell range with pagination metadata"),
		mcp.WithString("spreadsheet_id", mcp.Required(), mcp.Description("Spreadsheet ID")),
		mcp.WithString("sheet", mcp.Required(), mcp.Description("Sheet name")),
		mcp.WithString("range", mcp.Required(), mcp.Description("A1-style cell range (e.g., A1:D50)")),
		mcp.WithString("cursor", mcp.Description("Opaque cursor from a previous page")),
		mcp.WithNumber("page_size", mcp.DefaultNumber(float64(limits.ReadPageRows)), mcp.Min(1), mcp.Description("Max rows per page")),
		mcp.WithOutputSchema[ReadRangeOutput](),
	)
	s.AddTool(readRange, mcp.NewTypedToolHandler(func(ctx context.Context, req mcp.CallToolRequest, in ReadRangeInput) (*mcp.CallToolResult, error) {
		if msg := validation.ValidateStruct(in); msg != "" {
			return mcp.NewToolResultError(msg), nil
		}
		return handleReadRange(ctx, svc, limits, in), nil
	}))
	reg.Register(readRange)

	// write_range
	writeRange := mcp.NewTool(
		"write_range",
		mcp.WithDescription("Overwrite a cell range with a row-major grid of values"),
		mcp.WithString("spreadsheet_id", mcp.Required(), mcp.Description("Spreadsheet ID")),
		mcp.WithString("sheet", mcp.Required(), mcp.Description("Sheet name")),
		mcp.WithString("range", mcp.Required(), mcp.Description("A1-style cell range the values must fit")),
		mcp.WithArray("values", mcp.Required(), mcp.Description("Row-major grid of cell values")),
	)
	s.AddTool(writeRange, mcp.NewTypedToolHandler(func(ctx context.Context, req mcp.CallToolRequest, in WriteRangeInput) (*mcp.CallToolResult, error) {
		if msg := validation.ValidateStruct(in); msg != "" {
			return mcp.NewToolResultError(msg), nil
		}
		if c := cellCount(in.Values); c > limits.MaxCellsPerOp {
			return sheeterr.Resultf(sheeterr.PayloadTooLarge, "%d cells exceeds the per-operation limit of %d", c, limits.MaxCellsPerOp), nil
		}
		if err := svc.WriteRange(ctx, in.SpreadsheetID, in.Sheet, in.RangeA1, in.Values); err != nil {
			return sheeterr.Result(err), nil
		}
		return resultJSON(map[string]any{
			"spreadsheet_id": in.SpreadsheetID,
			"updated_range":  a1.Qualify(in.Sheet, in.RangeA1),
			"updated_cells":  cellCount(in.Values),
		}), nil
	}))
	reg.Register(writeRange)

	// append_rows
	appendRows := mcp.NewTool(
		"append_rows",
		mcp.WithDescription("Append rows after the last row containing data"),
		mcp.WithString("spreadsheet_id", mcp.Required(), mcp.Description("Spreadsheet ID")),
		mcp.WithString("sheet", mcp.Required(), mcp.Description("Sheet name")),
		mcp.WithArray("values", mcp.Required(), mcp.Description("Rows to append")),
	)
	s.AddTool(appendRows, mcp.NewTypedToolHandler(func(ctx context.Context, req mcp.CallToolRequest, in AppendRowsInput) (*mcp.CallToolResult, error) {
		if msg := validation.ValidateStruct(in); msg != "" {
			return mcp.NewToolResultError(msg), nil
		}
		if c := cellCount(in.Values); c > limits.MaxCellsPerOp {
			return sheeterr.Resultf(sheeterr.PayloadTooLarge, "%d cells exceeds the per-operation limit of %d", c, limits.MaxCellsPerOp), nil
		}
		if err := svc.AppendRows(ctx, in.SpreadsheetID, in.Sheet, in.Values); err != nil {
			return sheeterr.Result(err), nil
		}
		return resultJSON(map[string]any{
			"spreadsheet_id": in.SpreadsheetID,
			"sheet":          in.Sheet,
			"appended_rows":  len(in.Values),
		}), nil
	}))
	reg.Register(appendRows)

	// clear_range
	clearRange := mcp.NewTool(
		"clear_range",
		mcp.WithDescription("Clear the values of a cell range (formatting is untouched)"),
		mcp.WithString("spreadsheet_id", mcp.Required(), mcp.Description("Spreadsheet ID")),
		mcp.WithString("sheet", mcp.Required(), mcp.Description("Sheet name")),
		mcp.WithString("range", mcp.Required(), mcp.Description("A1-style cell range")),
	)
	s.AddTool(clearRange, mcp.NewTypedToolHandler(func(ctx context.Context, req mcp.CallToolRequest, in ClearRangeInput) (*mcp.CallToolResult, error) {
		if msg := validation.ValidateStruct(in); msg != "" {
			return mcp.NewToolResultError(msg), nil
		}
		if err := svc.ClearRange(ctx, in.SpreadsheetID, in.Sheet, in.RangeA1); err != nil {
			return sheeterr.Result(err), nil
		}
		return resultJSON(map[string]any{
			"spreadsheet_id": in.SpreadsheetID,
			"cleared_range":  a1.Qualify(in.Sheet, in.RangeA1),
		}), nil
	}))
	reg.Register(clearRange)

	// search_values
	searchValues := mcp.NewTool(
		"search_values",
		mcp.WithDescription("Locate cells containing a substring, scanning row-major"),
		mcp.WithString("spreadsheet_id", mcp.Required(), mcp.Description("Spreadsheet ID")),
		mcp.WithString("sheet", mcp.Required(), mcp.Description("Sheet name")),
		mcp.WithString("query", mcp.Required(), mcp.Description("Substring to locate (case-insensitive)")),
		mcp.WithString("range", mcp.Description("Optional A1 range restricting the scan")),
		mcp.WithArray("columns", mcp.Description("Optional column letters restricting matches")),
		mcp.WithOutputSchema[sheets.SearchResult](),
	)
	s.AddTool(searchValues, mcp.NewTypedToolHandler(func(ctx context.Context, req mcp.CallToolRequest, in SearchValuesInput) (*mcp.CallToolResult, error) {
		if msg := validation.ValidateStruct(in); msg != "" {
			return mcp.NewToolResultError(msg), nil
		}
		res, err := svc.Search(ctx, sheets.SearchInput{
			SpreadsheetID: in.SpreadsheetID,
			Sheet:         in.Sheet,
			Range:         in.RangeA1,
			Query:         in.Query,
			Columns:       in.Columns,
		})
		if err != nil {
			return sheeterr.Result(err), nil
		}
		return resultJSON(res), nil
	}))
	reg.Register(searchValues)

	// smart_replace
	smartReplace := mcp.NewTool(
		"smart_replace",
		mcp.WithDescription("Find and replace cell text, committing one targeted write per modified cell"),
		mcp.WithString("spreadsheet_id", mcp.Required(), mcp.Description("Spreadsheet ID")),
		mcp.WithString("sheet", mcp.Required(), mcp.Description("Sheet name")),
		mcp.WithString("find_text", mcp.Required(), mcp.Description("Text to locate")),
		mcp.WithString("replace_text", mcp.Description("Replacement text (may be empty to delete)")),
		mcp.WithString("range", mcp.Description("Optional A1 range restricting the pass")),
		mcp.WithBoolean("match_case", mcp.DefaultBool(false), mcp.Description("Require exact case")),
		mcp.WithBoolean("match_entire_cell", mcp.DefaultBool(false), mcp.Description("Replace only cells equal to find_text")),
		mcp.WithOutputSchema[sheets.ReplaceResult](),
	)
	s.AddTool(smartReplace, mcp.NewTypedToolHandler(func(ctx context.Context, req mcp.CallToolRequest, in SmartReplaceInput) (*mcp.CallToolResult, error) {
		if msg := validation.ValidateStruct(in); msg != "" {
			return mcp.NewToolResultError(msg), nil
		}
		res, err := svc.SmartReplace(ctx, sheets.ReplaceInput{
			SpreadsheetID:   in.SpreadsheetID,
			Sheet:           in.Sheet,
			Range:           in.RangeA1,
			FindText:        in.FindText,
			ReplaceText:     in.ReplaceText,
			MatchCase:       in.MatchCase,
			MatchEntireCell: in.MatchEntireCell,
		})
		if err != nil {
			// A mid-sequence failure still reports the committed prefix.
			if res != nil && res.ModifiedCount > 0 {
				return sheeterr.Resultf(sheeterr.ReplaceFailed,
					"%s (committed %d replacements before the failure)", err.Error(), res.ModifiedCount), nil
			}
			return sheeterr.Result(err), nil
		}
		return resultJSON(res), nil
	}))
	reg.Register(smartReplace)

	// list_sheets
	listSheets := mcp.NewTool(
		"list_sheets",
		mcp.WithDescription("List sheet tabs with dimensions (no cell data)"),
		mcp.WithString("spreadsheet_id", mcp.Required(), mcp.Description("Spreadsheet ID")),
		mcp.WithOutputSchema[[]SheetInfo](),
	)
	s.AddTool(listSheets, mcp.NewTypedToolHandler(func(ctx context.Context, req mcp.CallToolRequest, in ListSheetsInput) (*mcp.CallToolResult, error) {
		if msg := validation.ValidateStruct(in); msg != "" {
			return mcp.NewToolResultError(msg), nil
		}
		props, err := svc.ListSheets(ctx, in.SpreadsheetID)
		if err != nil {
			return sheeterr.Result(err), nil
		}
		infos := make([]SheetInfo, 0, len(props))
		for _, p := range props {
			infos = append(infos, SheetInfo{Title: p.Title, Index: p.Index, RowCount: p.RowCount, ColumnCount: p.ColCount})
		}
		return resultJSON(infos), nil
	}))
	reg.Register(listSheets)

	// create_sheet
	createSheet := mcp.NewTool(
		"create_sheet",
		mcp.WithDescription("Add a sheet tab to a spreadsheet"),
		mcp.WithString("spreadsheet_id", mcp.Required(), mcp.Description("Spreadsheet ID")),
		mcp.WithString("title", mcp.Required(), mcp.Description("Title for the new sheet")),
	)
	s.AddTool(createSheet, mcp.NewTypedToolHandler(func(ctx context.Context, req mcp.CallToolRequest, in CreateSheetInput) (*mcp.CallToolResult, error) {
		if msg := validation.ValidateStruct(in); msg != "" {
			return mcp.NewToolResultError(msg), nil
		}
		if err := svc.CreateSheet(ctx, in.SpreadsheetID, in.Title); err != nil {
			return sheeterr.Result(err), nil
		}
		return resultJSON(map[string]any{"spreadsheet_id": in.SpreadsheetID, "title": in.Title}), nil
	}))
	reg.Register(createSheet)

	// delete_sheet
	deleteSheet := mcp.NewTool(
		"delete_sheet",
		mcp.WithDescription("Remove a sheet tab from a spreadsheet"),
		mcp.WithString("spreadsheet_id", mcp.Required(), mcp.Description("Spreadsheet ID")),
		mcp.WithString("title", mcp.Required(), mcp.Description("Title of the sheet to remove")),
	)
	s.AddTool(deleteSheet, mcp.NewTypedToolHandler(func(ctx context.Context, req mcp.CallToolRequest, in DeleteSheetInput) (*mcp.CallToolResult, error) {
		if msg := validation.ValidateStruct(in); msg != "" {
			return mcp.NewToolResultError(msg), nil
		}
		if err := svc.DeleteSheet(ctx, in.SpreadsheetID, in.Title); err != nil {
			return sheeterr.Result(err), nil
		}
		return resultJSON(map[string]any{"spreadsheet_id": in.SpreadsheetID, "deleted": in.Title}), nil
	}))
	reg.Register(deleteSheet)

	// create_spreadsheet
	createSpreadsheet := mcp.NewTool(
		"create_spreadsheet",
		mcp.WithDescription("Create a new spreadsheet and return its ID"),
		mcp.WithString("title", mcp.Required(), mcp.Description("Title for the new spreadsheet")),
	)
	s.AddTool(createSpreadsheet, mcp.NewTypedToolHandler(func(ctx context.Context, req mcp.CallToolRequest, in CreateSpreadsheetInput) (*mcp.CallToolResult, error) {
		if msg := validation.ValidateStruct(in); msg != "" {
			return mcp.NewToolResultError(msg), nil
		}
		id, err := svc.CreateSpreadsheet(ctx, in.Title)
		if err != nil {
			return sheeterr.Result(err), nil
		}
		return resultJSON(map[string]any{"spreadsheet_id": id, "title": in.Title}), nil
	}))
	reg.Register(createSpreadsheet)
}

// handleReadRange resolves the requested page, reads it, and attaches a
// cursor when more rows remain.
func handleReadRange(ctx context.Context, svc *sheets.Service, limits runtime.Limits, in ReadRangeInput) *mcp.CallToolResult {
	sid, sheet, rng := in.SpreadsheetID, in.Sheet, in.RangeA1
	off := 0
	ps := in.PageSize
	if ps <= 0 {
		ps = limits.ReadPageRows
	}

	if in.Cursor != "" {
		c, err := pagination.Decode(in.Cursor)
		if err != nil {
			return sheeterr.ResultFor(sheeterr.CursorInvalid, "failed to decode cursor; restart pagination from the first page")
		}
		if c.Sid != sid {
			return sheeterr.ResultFor(sheeterr.CursorInvalid, "cursor belongs to a different spreadsheet")
		}
		sheet, rng, off, ps = c.S, c.R, c.Off, c.Ps
	}

	sr, sc, er, ec, err := a1.ParseRange(rng)
	if err != nil {
		return sheeterr.Result(err)
	}

	pageStart := sr + off
	if pageStart > er {
		return resultJSON(ReadRangeOutput{
			SpreadsheetID: sid, Sheet: sheet, RangeA1: rng,
			Values: [][]any{}, Meta: PageMeta{},
		})
	}
	pageEnd := pageStart + ps - 1
	if pageEnd > er {
		pageEnd = er
	}
	if c := (pageEnd - pageStart + 1) * (ec - sc + 1); c > limits.MaxCellsPerOp {
		return sheeterr.Resultf(sheeterr.PayloadTooLarge, "%d cells exceeds the per-operation limit of %d; reduce page_size", c, limits.MaxCellsPerOp)
	}

	pageRange := a1.FormatRange(pageStart, sc, pageEnd, ec)
	res, err := svc.ReadRange(ctx, sid, sheet, pageRange)
	if err != nil {
		return sheeterr.Result(err)
	}

	out := ReadRangeOutput{
		SpreadsheetID: sid,
		Sheet:         sheet,
		RangeA1:       res.Range,
		Values:        res.Values,
		Meta:          PageMeta{Returned: pageEnd - pageStart + 1},
	}
	nextOff := pagination.NextOffset(off, pageEnd-pageStart+1)
	if sr+nextOff <= er {
		token, encErr := pagination.Encode(pagination.Cursor{Sid: sid, S: sheet, R: rng, Off: nextOff, Ps: ps})
		if encErr == nil {
			out.Meta.Truncated = true
			out.Meta.NextCursor = token
		}
	}
	return resultJSON(out)
}

func cellCount(values [][]any) int {
	n := 0
	for _, row := range values {
		n += len(row)
	}
	return n
}
