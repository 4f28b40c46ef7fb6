// Package a1 converts between spreadsheet A1 notation and 1-based numeric
// row/column coordinates. All functions are pure and deterministic.
package a1

import (
	"strconv"
	"strings"

	"github.com/ainetwork-ai/google-sheet-mcp/pkg/sheeterr"
)

// ParseCell decodes an address like "AA27" into its 1-based row and column.
// Addresses must be one or more uppercase letters followed by one or more
// digits; anything else fails with INVALID_ADDRESS.
func ParseCell(text string) (row, col int, err error) {
	i := 0
	for i < len(text) && text[i] >= 'A' && text[i] <= 'Z' {
		col = col*26 + int(text[i]-'A'+1)
		i++
	}
	if i == 0 || i == len(text) {
		return 0, 0, sheeterr.Newf(sheeterr.InvalidAddress, "invalid cell address: %q", text)
	}
	for j := i; j < len(text); j++ {
		if text[j] < '0' || text[j] > '9' {
			return 0, 0, sheeterr.Newf(sheeterr.InvalidAddress, "invalid cell address: %q", text)
		}
		row = row*10 + int(text[j]-'0')
	}
	if row < 1 {
		return 0, 0, sheeterr.Newf(sheeterr.InvalidAddress, "invalid cell address: %q", text)
	}
	return row, col, nil
}

// FormatCell encodes 1-based row and column into A1 notation, e.g.
// (27, 27) -> "AA27". Results are undefined for row or col < 1.
func FormatCell(row, col int) string {
	return ColumnName(col) + strconv.Itoa(row)
}

// ColumnName encodes a 1-based column index as its letter sequence.
func ColumnName(col int) string {
	var letters [8]byte
	n := len(letters)
	for col > 0 {
		n--
		letters[n] = byte('A' + (col-1)%26)
		col = (col - 1) / 26
	}
	return string(letters[n:])
}

// ColumnNumber decodes a column letter sequence into its 1-based index.
// Fails with INVALID_ADDRESS on empty or non-letter input.
func ColumnNumber(name string) (int, error) {
	if name == "" {
		return 0, sheeterr.New(sheeterr.InvalidAddress, "empty column name")
	}
	col := 0
	for i := 0; i < len(name); i++ {
		if name[i] < 'A' || name[i] > 'Z' {
			return 0, sheeterr.Newf(sheeterr.InvalidAddress, "invalid column name: %q", name)
		}
		col = col*26 + int(name[i]-'A'+1)
	}
	return col, nil
}

// ParseRange decodes "A1:B10" into its corner coordinates. Exactly one ":"
// separator is required and both sides must parse as cell addresses;
// otherwise the range fails with INVALID_RANGE. Reversed ranges are not
// repaired here; callers reject them.
func ParseRange(text string) (startRow, startCol, endRow, endCol int, err error) {
	parts := strings.Split(text, ":")
	if len(parts) != 2 {
		return 0, 0, 0, 0, sheeterr.Newf(sheeterr.InvalidRange, "invalid range: %q", text)
	}
	startRow, startCol, err = ParseCell(parts[0])
	if err != nil {
		return 0, 0, 0, 0, sheeterr.Newf(sheeterr.InvalidRange, "invalid range: %q", text)
	}
	endRow, endCol, err = ParseCell(parts[1])
	if err != nil {
		return 0, 0, 0, 0, sheeterr.Newf(sheeterr.InvalidRange, "invalid range: %q", text)
	}
	return startRow, startCol, endRow, endCol, nil
}

// ValidRange reports whether text parses as a range. It never returns an error.
func ValidRange(text string) bool {
	_, _, _, _, err := ParseRange(text)
	return err == nil
}

// FormatRange encodes corner coordinates as "A1:B10".
func FormatRange(startRow, startCol, endRow, endCol int) string {
	return FormatCell(startRow, startCol) + ":" + FormatCell(endRow, endCol)
}

// Qualify prefixes a range with its sheet name: Qualify("Data", "A1:B2")
// returns "Data!A1:B2", and Qualify("Data", "") returns "Data".
func Qualify(sheet, rng string) string {
	if rng == "" {
		return sheet
	}
	return sheet + "!" + rng
}

// SheetName extracts the sheet prefix from a qualified range. ok is false
// when the text carries no "!" separator.
func SheetName(text string) (sheet string, ok bool) {
	i := strings.Index(text, "!")
	if i < 0 {
		return "", false
	}
	return text[:i], true
}
