package sheeterr

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
)

// Code defines a canonical error code used across tools. The set is closed:
// every failure that crosses the tool boundary carries exactly one of these.
type Code string

const (
	// Validation & addressing
	Validation     Code = "VALIDATION"
	InvalidAddress Code = "INVALID_ADDRESS"
	InvalidRange   Code = "INVALID_RANGE"
	CursorInvalid  Code = "CURSOR_INVALID"

	// Remote store
	QuotaExceeded    Code = "QUOTA_EXCEEDED"
	TransientFailure Code = "TRANSIENT_FAILURE"
	NotFound         Code = "NOT_FOUND"
	PermissionDenied Code = "PERMISSION_DENIED"

	// Resource & limits
	BusyResource    Code = "BUSY_RESOURCE"
	Timeout         Code = "TIMEOUT"
	PayloadTooLarge Code = "PAYLOAD_TOO_LARGE"

	// Operations
	ReadFailed    Code = "READ_FAILED"
	WriteFailed   Code = "WRITE_FAILED"
	SearchFailed  Code = "SEARCH_FAILED"
	ReplaceFailed Code = "REPLACE_FAILED"
)

// Error is the typed failure value used throughout the server. It carries a
// stable code, a human-readable message, an optional retry-after hint, and
// the wrapped cause when one exists.
type Error struct {
	Code       Code
	Message    string
	RetryAfter time.Duration
	Err        error
}

func (e *Error) Error() string {
	if e.Message == "" && e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Code, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// New constructs a typed error for the given code.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf constructs a typed error with a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying cause.
func Wrap(code Code, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// CodeOf extracts the canonical code from an error chain, or "" when the
// chain carries no typed error.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// Is reports whether the error chain carries the given code.
func Is(err error, code Code) bool {
	return CodeOf(err) == code
}

// Entry documents a code's standard message, retry semantics, and next steps.
type Entry struct {
	Code      Code
	Message   string
	Retryable bool
	NextSteps []string
}

// catalog maps canonical codes to guidance. Messages can be overridden per error.
var catalog = map[Code]Entry{
	Validation:     {Code: Validation, Message: "invalid inputs", Retryable: false, NextSteps: []string{"Correct the inputs per schema and retry", "See examples in tool description"}},
	InvalidAddress: {Code: InvalidAddress, Message: "malformed cell address", Retryable: false, NextSteps: []string{"Use A1 notation, e.g. B7 or AA27"}},
	InvalidRange:   {Code: InvalidRange, Message: "malformed cell range", Retryable: false, NextSteps: []string{"Use A1 ranges like A1:D50 with start before end"}},
	CursorInvalid:  {Code: CursorInvalid, Message: "cursor is invalid for current context", Retryable: false, NextSteps: []string{"Restart pagination from the first page"}},

	QuotaExceeded:    {Code: QuotaExceeded, Message: "Sheets API quota exhausted", Retryable: true, NextSteps: []string{"Wait for the quota window to reset", "Reduce call frequency"}},
	TransientFailure: {Code: TransientFailure, Message: "transient upstream failure", Retryable: true, NextSteps: []string{"Retry after a short delay"}},
	NotFound:         {Code: NotFound, Message: "spreadsheet or sheet not found", Retryable: false, NextSteps: []string{"Verify the spreadsheet ID and sheet name", "Call list_sheets to inspect the workbook"}},
	PermissionDenied: {Code: PermissionDenied, Message: "insufficient permissions for spreadsheet", Retryable: false, NextSteps: []string{"Share the spreadsheet with the service account"}},

	BusyResource:    {Code: BusyResource, Message: "concurrent request limit reached", Retryable: true, NextSteps: []string{"Retry after a short delay"}},
	Timeout:         {Code: Timeout, Message: "operation exceeded configured time limit", Retryable: true, NextSteps: []string{"Narrow the range or increase the timeout"}},
	PayloadTooLarge: {Code: PayloadTooLarge, Message: "payload exceeds configured size", Retryable: false, NextSteps: []string{"Reduce range size or split into batches"}},

	ReadFailed:    {Code: ReadFailed, Message: "failed to read range", Retryable: true, NextSteps: []string{"Verify the A1 range and retry"}},
	WriteFailed:   {Code: WriteFailed, Message: "failed to write range", Retryable: false, NextSteps: []string{"Validate range and value dimensions"}},
	SearchFailed:  {Code: SearchFailed, Message: "search execution failed", Retryable: true, NextSteps: []string{"Narrow the scanned range"}},
	ReplaceFailed: {Code: ReplaceFailed, Message: "replace partially applied", Retryable: false, NextSteps: []string{"Treat the reported count as a lower bound", "Re-run search_values to inspect remaining cells"}},
}

// Retryable reports the catalog's retry guidance for a code. Unknown codes
// are not retryable.
func Retryable(code Code) bool {
	e, ok := catalog[code]
	return ok && e.Retryable
}

// normalize builds a standard error string including next steps for MCP
// clients that surface only a message string. Format: "CODE: message"
// followed by a guidance tail.
func normalize(code Code, msg string) string {
	base := strings.TrimSpace(msg)
	e, ok := catalog[code]
	if !ok {
		if base == "" {
			return string(code)
		}
		return fmt.Sprintf("%s: %s", string(code), base)
	}
	if base == "" {
		base = e.Message
	}
	guidance := ""
	if len(e.NextSteps) > 0 {
		guidance = " | nextSteps: " + strings.Join(e.NextSteps, "; ")
	}
	return fmt.Sprintf("%s: %s%s", e.Code, base, guidance)
}

// Result renders an error as an MCP tool error with catalog guidance. Errors
// without a typed code fall back to VALIDATION so clients always receive a
// stable prefix.
func Result(err error) *mcp.CallToolResult {
	if err == nil {
		return mcp.NewToolResultError(normalize(Validation, ""))
	}
	var e *Error
	if errors.As(err, &e) {
		return mcp.NewToolResultError(normalize(e.Code, e.Message))
	}
	return mcp.NewToolResultError(normalize(Validation, err.Error()))
}

// ResultFor returns an MCP error result for a given code and optional message override.
func ResultFor(code Code, message string) *mcp.CallToolResult {
	return mcp.NewToolResultError(normalize(code, message))
}

// Resultf formats details and returns an MCP error result for the code.
func Resultf(code Code, format string, args ...any) *mcp.CallToolResult {
	return mcp.NewToolResultError(normalize(code, fmt.Sprintf(format, args...)))
}
