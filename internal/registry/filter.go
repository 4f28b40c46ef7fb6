package registry

import (
	"context"
	"os"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// WriteToolFilter conditionally hides mutating tools unless explicitly enabled.
// Enable by setting environment variable GSHEET_MCP_ENABLE_WRITES=true.
type WriteToolFilter struct {
	allowWrites bool
}

// NewWriteToolFilterFromEnv constructs a filter using GSHEET_MCP_ENABLE_WRITES.
func NewWriteToolFilterFromEnv() *WriteToolFilter {
	v := strings.ToLower(strings.TrimSpace(os.Getenv("GSHEET_MCP_ENABLE_WRITES")))
	allow := v == "1" || v == "true" || v == "yes"
	return &WriteToolFilter{allowWrites: allow}
}

// FilterTools implements server tool filtering semantics.
// When writes are disabled, tools with prefixes used for mutations are
// excluded from discovery: write_, append_, clear_, smart_, create_, delete_.
func (f *WriteToolFilter) FilterTools(ctx context.Context, tools []mcp.Tool) []mcp.Tool {
	if f.allowWrites {
		return tools
	}
	out := make([]mcp.Tool, 0, len(tools))
	for _, t := range tools {
		name := strings.ToLower(t.Name)
		if strings.HasPrefix(name, "write_") || strings.HasPrefix(name, "append_") ||
			strings.HasPrefix(name, "clear_") || strings.HasPrefix(name, "smart_") ||
			strings.HasPrefix(name, "create_") || strings.HasPrefix(name, "delete_") {
			continue
		}
		out = append(out, t)
	}
	return out
}
