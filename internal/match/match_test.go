package match

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ainetwork-ai/google-sheet-mcp/pkg/sheeterr"
)

func sampleGrid() [][]any {
	return [][]any{
		{"Name", "City"},
		{"John", "Seoul"},
		{"Jane", "Busan"},
	}
}

func TestSearchSingleMatch(t *testing.T) {
	matches, err := Search(sampleGrid(), "Seoul", nil)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	require.Equal(t, 2, matches[0].Row)
	require.Equal(t, 2, matches[0].Col)
	require.Equal(t, "B2", matches[0].Address)
	require.Equal(t, "Seoul", matches[0].Value)
}

func TestSearchCaseInsensitiveSubstring(t *testing.T) {
	grid := [][]any{
		{"contact: SEOUL office"},
		{"seoulite"},
		{"Busan"},
	}
	matches, err := Search(grid, "Seoul", nil)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	require.Equal(t, "A1", matches[0].Address)
	require.Equal(t, "A2", matches[1].Address)
}

func TestSearchColumnFilter(t *testing.T) {
	grid := [][]any{
		{"Seoul", "Seoul", "Seoul"},
		{"x", "Seoul", "y"},
	}
	matches, err := Search(grid, "Seoul", []string{"B"})
	require.NoError(t, err)
	require.Len(t, matches, 2)
	for _, m := range matches {
		require.Equal(t, 2, m.Col)
	}

	_, err = Search(grid, "Seoul", []string{"B2"})
	require.Error(t, err)
	require.Equal(t, sheeterr.InvalidAddress, sheeterr.CodeOf(err))
}

func TestSearchScanOrderRowMajor(t *testing.T) {
	grid := [][]any{
		{"hit", "miss", "hit"},
		{"hit", nil, ""},
	}
	matches, err := Search(grid, "hit", nil)
	require.NoError(t, err)
	addrs := make([]string, 0, len(matches))
	for _, m := range matches {
		addrs = append(addrs, m.Address)
	}
	require.Equal(t, []string{"A1", "C1", "A2"}, addrs)
}

func TestSearchSkipsEmptyAndAbsentCells(t *testing.T) {
	grid := [][]any{{nil, "", "value"}}
	matches, err := Search(grid, "", nil)
	require.NoError(t, err)
	// Empty query matches any non-empty cell; nil and "" are skipped.
	require.Len(t, matches, 1)
	require.Equal(t, "C1", matches[0].Address)
}

func TestReplaceSubstringLeavesSurroundingText(t *testing.T) {
	grid := [][]any{{"Contact: Seoul Office"}}
	n, repls, err := Replace(grid, "Seoul", "Seoul City", Options{})
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.Equal(t, "Contact: Seoul City Office", repls[0].NewValue)
	require.Equal(t, "Contact: Seoul Office", repls[0].OldValue)
}

func TestReplaceEntireCellRequiresFullEquality(t *testing.T) {
	grid := [][]any{
		{"Contact: Seoul Office"},
		{"Seoul"},
		{"seoul"},
	}
	n, repls, err := Replace(grid, "Seoul", "Seoul City", Options{MatchEntireCell: true})
	require.NoError(t, err)
	// A1 is not equal to "Seoul" in full and stays untouched; A2 and A3
	// qualify under the default case-insensitive rule.
	require.Equal(t, 2, n)
	require.Equal(t, "A2", repls[0].Address)
	require.Equal(t, "A3", repls[1].Address)
	require.Equal(t, "Seoul City", repls[0].NewValue)
}

func TestReplaceMatchCase(t *testing.T) {
	grid := [][]any{{"seoul Seoul SEOUL"}}

	n, repls, err := Replace(grid, "Seoul", "X", Options{MatchCase: true})
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.Equal(t, "seoul X SEOUL", repls[0].NewValue)

	n, repls, err = Replace(grid, "Seoul", "X", Options{})
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.Equal(t, "X X X", repls[0].NewValue)
}

func TestReplaceLiteralMetacharacters(t *testing.T) {
	grid := [][]any{{"cost (usd): 1.50"}}
	n, repls, err := Replace(grid, "(usd)", "(krw)", Options{})
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.Equal(t, "cost (krw): 1.50", repls[0].NewValue)

	// "." must not act as a wildcard.
	n, _, err = Replace(grid, "1.50", "2.00", Options{})
	require.NoError(t, err)
	require.Equal(t, 1, n)
	n, _, err = Replace(grid, "1x50", "2.00", Options{})
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestReplaceDollarSignsLiteralInReplacement(t *testing.T) {
	grid := [][]any{{"price"}}
	n, repls, err := Replace(grid, "price", "$1 off", Options{})
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.Equal(t, "$1 off", repls[0].NewValue)
}

func TestReplaceRangeRestriction(t *testing.T) {
	grid := [][]any{
		{"Seoul", "Seoul"},
		{"Seoul", "Seoul"},
	}
	n, repls, err := Replace(grid, "Seoul", "Busan", Options{Range: "B1:B2"})
	require.NoError(t, err)
	require.Equal(t, 2, n)
	require.Equal(t, "B1", repls[0].Address)
	require.Equal(t, "B2", repls[1].Address)
}

func TestReplaceRejectsMalformedRange(t *testing.T) {
	grid := sampleGrid()

	_, _, err := Replace(grid, "a", "b", Options{Range: "nope"})
	require.Error(t, err)
	require.Equal(t, sheeterr.InvalidRange, sheeterr.CodeOf(err))

	// Reversed ranges are rejected, not repaired.
	_, _, err = Replace(grid, "a", "b", Options{Range: "B2:A1"})
	require.Error(t, err)
	require.Equal(t, sheeterr.InvalidRange, sheeterr.CodeOf(err))
}

func TestReplaceSkipsNonStringScalars(t *testing.T) {
	grid := [][]any{{float64(42), true, "42"}}
	n, repls, err := Replace(grid, "42", "24", Options{})
	require.NoError(t, err)
	// The numeric cell renders as "42" and matches too; the boolean does not.
	require.Equal(t, 2, n)
	require.Equal(t, "A1", repls[0].Address)
	require.Equal(t, "C1", repls[1].Address)
}

func TestCellText(t *testing.T) {
	require.Equal(t, "", CellText(nil))
	require.Equal(t, "hi", CellText("hi"))
	require.Equal(t, "TRUE", CellText(true))
	require.Equal(t, "FALSE", CellText(false))
	require.Equal(t, "1.5", CellText(1.5))
	require.Equal(t, "7", CellText(float64(7)))
}
