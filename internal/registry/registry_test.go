package registry

import (
	"context"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/require"
)

func TestRegistryRegisterAndSort(t *testing.T) {
	r := New()
	r.Register(mcp.NewTool("write_range"))
	r.Register(mcp.NewTool("list_sheets"))
	r.Register(mcp.NewTool("read_range"))

	_, ok := r.Get("list_sheets")
	require.True(t, ok)
	_, ok = r.Get("nope")
	require.False(t, ok)

	tools, err := r.Tools(context.Background())
	require.NoError(t, err)
	names := make([]string, 0, len(tools))
	for _, tool := range tools {
		names = append(names, tool.Name)
	}
	require.Equal(t, []string{"list_sheets", "read_range", "write_range"}, names)
}

func TestWriteToolFilterHidesMutations(t *testing.T) {
	tools := []mcp.Tool{
		mcp.NewTool("read_range"),
		mcp.NewTool("write_range"),
		mcp.NewTool("append_rows"),
		mcp.NewTool("clear_range"),
		mcp.NewTool("smart_replace"),
		mcp.NewTool("create_sheet"),
		mcp.NewTool("delete_sheet"),
		mcp.NewTool("search_values"),
		mcp.NewTool("list_sheets"),
	}

	t.Setenv("GSHEET_MCP_ENABLE_WRITES", "")
	f := NewWriteToolFilterFromEnv()
	got := f.FilterTools(context.Background(), tools)
	names := make([]string, 0, len(got))
	for _, tool := range got {
		names = append(names, tool.Name)
	}
	require.Equal(t, []string{"read_range", "search_values", "list_sheets"}, names)

	t.Setenv("GSHEET_MCP_ENABLE_WRITES", "true")
	f = NewWriteToolFilterFromEnv()
	require.Len(t, f.FilterTools(context.Background(), tools), len(tools))
}
