package registry

import (
	"context"
	"errors"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/ainetwork-ai/google-sheet-mcp/internal/security"
	"github.com/ainetwork-ai/google-sheet-mcp/internal/store/local"
	"github.com/ainetwork-ai/google-sheet-mcp/internal/workbooks"
	"github.com/ainetwork-ai/google-sheet-mcp/pkg/sheeterr"
	"github.com/ainetwork-ai/google-sheet-mcp/pkg/validation"
)

// OpenSpreadsheetInput defines parameters for opening a local spreadsheet file.
type OpenSpreadsheetInput struct {
	Path string `json:"path" validate:"required" jsonschema_description:"Path to a spreadsheet file inside an allowed directory"`
}

// CloseSpreadsheetInput defines parameters for releasing a local handle.
type CloseSpreadsheetInput struct {
	SpreadsheetID string `json:"spreadsheet_id" validate:"required"`
}

// RegisterLocalTools adds the file-handle tools used only by the local
// backend. The Google backend addresses spreadsheets by their remote ID and
// has no open/close lifecycle.
func RegisterLocalTools(s *server.MCPServer, reg *Registry, st *local.Store) {
	openTool := mcp.NewTool(
		"open_spreadsheet",
		mcp.WithDescription("Open a spreadsheet file from an allowed directory and return its handle ID"),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path to a .xlsx/.xlsm/.xltx/.xltm file")),
	)
	s.AddTool(openTool, mcp.NewTypedToolHandler(func(ctx context.Context, req mcp.CallToolRequest, in OpenSpreadsheetInput) (*mcp.CallToolResult, error) {
		if msg := validation.ValidateStruct(in); msg != "" {
			return mcp.NewToolResultError(msg), nil
		}
		id, err := st.Open(ctx, in.Path)
		if err != nil {
			return openErrResult(err), nil
		}
		return resultJSON(map[string]any{"spreadsheet_id": id}), nil
	}))
	reg.Register(openTool)

	closeTool := mcp.NewTool(
		"close_spreadsheet",
		mcp.WithDescription("Release a previously opened spreadsheet handle"),
		mcp.WithString("spreadsheet_id", mcp.Required(), mcp.Description("Handle ID returned by open_spreadsheet")),
	)
	s.AddTool(closeTool, mcp.NewTypedToolHandler(func(ctx context.Context, req mcp.CallToolRequest, in CloseSpreadsheetInput) (*mcp.CallToolResult, error) {
		if msg := validation.ValidateStruct(in); msg != "" {
			return mcp.NewToolResultError(msg), nil
		}
		if err := st.Close(ctx, in.SpreadsheetID); err != nil {
			if errors.Is(err, workbooks.ErrHandleNotFound) {
				return sheeterr.ResultFor(sheeterr.NotFound, "unknown spreadsheet handle"), nil
			}
			return sheeterr.Result(err), nil
		}
		return resultJSON(map[string]any{"success": true}), nil
	}))
	reg.Register(closeTool)
}

func openErrResult(err error) *mcp.CallToolResult {
	switch {
	case errors.Is(err, security.ErrNotAllowed):
		return sheeterr.ResultFor(sheeterr.PermissionDenied, "path is outside the allowed directories")
	case errors.Is(err, security.ErrNotFound):
		return sheeterr.ResultFor(sheeterr.NotFound, "file does not exist")
	case errors.Is(err, security.ErrUnsupportedExtension):
		return sheeterr.ResultFor(sheeterr.Validation, "unsupported file extension")
	default:
		return sheeterr.Result(err)
	}
}
