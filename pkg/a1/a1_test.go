package a1

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ainetwork-ai/google-sheet-mcp/pkg/sheeterr"
)

func TestParseCell(t *testing.T) {
	cases := []struct {
		text string
		row  int
		col  int
	}{
		{"A1", 1, 1},
		{"Z26", 26, 26},
		{"AA27", 27, 27},
		{"B10", 10, 2},
		{"AZ1", 1, 52},
		{"BA1", 1, 53},
		{"ZZ1", 1, 702},
		{"AAA1", 1, 703},
	}
	for _, tc := range cases {
		row, col, err := ParseCell(tc.text)
		require.NoError(t, err, tc.text)
		require.Equal(t, tc.row, row, tc.text)
		require.Equal(t, tc.col, col, tc.text)
	}
}

func TestParseCellInvalid(t *testing.T) {
	for _, text := range []string{"", "A", "1", "1A", "A1B", "a1", "A-1", "A0"} {
		_, _, err := ParseCell(text)
		require.Error(t, err, text)
		require.Equal(t, sheeterr.InvalidAddress, sheeterr.CodeOf(err), text)
	}
}

func TestFormatCell(t *testing.T) {
	require.Equal(t, "A1", FormatCell(1, 1))
	require.Equal(t, "Z26", FormatCell(26, 26))
	require.Equal(t, "AA27", FormatCell(27, 27))
	require.Equal(t, "ZZ702", FormatCell(702, 702))
	require.Equal(t, "AAA703", FormatCell(703, 703))
}

func TestRoundTrip(t *testing.T) {
	// FormatCell and ParseCell must be mutual inverses across the letter
	// carry boundaries (Z->AA, AZ->BA, ZZ->AAA).
	for col := 1; col <= 800; col++ {
		for _, row := range []int{1, 7, 999, 1_048_576} {
			r, c, err := ParseCell(FormatCell(row, col))
			require.NoError(t, err)
			require.Equal(t, row, r)
			require.Equal(t, col, c)
		}
	}
}

func TestParseRange(t *testing.T) {
	sr, sc, er, ec, err := ParseRange("A1:B10")
	require.NoError(t, err)
	require.Equal(t, []int{1, 1, 10, 2}, []int{sr, sc, er, ec})

	sr, sc, er, ec, err = ParseRange("Z1:AA10")
	require.NoError(t, err)
	require.Equal(t, []int{1, 26, 10, 27}, []int{sr, sc, er, ec})
}

func TestParseRangeInvalid(t *testing.T) {
	for _, text := range []string{"invalid", "A1", "A1:B2:C3", "A1:", ":B2", "A1:b2"} {
		_, _, _, _, err := ParseRange(text)
		require.Error(t, err, text)
		require.Equal(t, sheeterr.InvalidRange, sheeterr.CodeOf(err), text)
	}
}

func TestValidRange(t *testing.T) {
	require.True(t, ValidRange("A1:B10"))
	require.False(t, ValidRange("invalid"))
	require.False(t, ValidRange(""))
}

func TestQualify(t *testing.T) {
	require.Equal(t, "Sheet1", Qualify("Sheet1", ""))
	require.Equal(t, "Sheet1!A1:B10", Qualify("Sheet1", "A1:B10"))
}

func TestSheetName(t *testing.T) {
	sheet, ok := SheetName("Data!A1:B2")
	require.True(t, ok)
	require.Equal(t, "Data", sheet)

	_, ok = SheetName("A1:B2")
	require.False(t, ok)
}

func TestColumnNameNumber(t *testing.T) {
	for _, tc := range []struct {
		name string
		n    int
	}{{"A", 1}, {"Z", 26}, {"AA", 27}, {"AZ", 52}, {"ZZ", 702}} {
		require.Equal(t, tc.name, ColumnName(tc.n))
		n, err := ColumnNumber(tc.name)
		require.NoError(t, err)
		require.Equal(t, tc.n, n)
	}

	_, err := ColumnNumber("")
	require.Error(t, err)
	_, err = ColumnNumber("a")
	require.Error(t, err)
}
