// Package match locates and rewrites text occurrences inside a 2-D grid of
// cell values. It is pure: it computes matches and replacements without
// touching the grid, and the calling service commits writes.
package match

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/ainetwork-ai/google-sheet-mcp/pkg/a1"
	"github.com/ainetwork-ai/google-sheet-mcp/pkg/sheeterr"
)

// Match is one located occurrence: 1-based coordinates, the A1 address, and
// the full cell text the query was found in.
type Match struct {
	Row     int    `json:"row"`
	Col     int    `json:"col"`
	Address string `json:"address"`
	Value   string `json:"value"`
}

// Replacement pairs a matched cell with its computed new text.
type Replacement struct {
	Row      int    `json:"row"`
	Col      int    `json:"col"`
	Address  string `json:"address"`
	OldValue string `json:"old_value"`
	NewValue string `json:"new_value"`
}

// Options controls Replace behavior.
type Options struct {
	// Range restricts scanning to a sub-rectangle of the grid (A1, relative
	// to the grid origin). Cells outside it are never inspected or mutated.
	Range string
	// MatchCase makes the containment/equality test case-sensitive.
	MatchCase bool
	// MatchEntireCell requires the whole cell text to equal the query; the
	// cell value is then swapped verbatim for the replacement text.
	MatchEntireCell bool
}

// Search scans rows top-to-bottom and columns left-to-right, reporting every
// non-empty cell whose text contains query (case-insensitive). When columns
// is non-empty, only cells in those columns (letters, e.g. "B") are tested.
// Results are in row-major scan order, so output is stable for a given grid.
func Search(grid [][]any, query string, columns []string) ([]Match, error) {
	want, err := columnSet(columns)
	if err != nil {
		return nil, err
	}
	needle := strings.ToLower(query)

	var matches []Match
	for r, rowVals := range grid {
		for c, v := range rowVals {
			if want != nil {
				if _, ok := want[c+1]; !ok {
					continue
				}
			}
			text := CellText(v)
			if text == "" {
				continue
			}
			if strings.Contains(strings.ToLower(text), needle) {
				matches = append(matches, Match{
					Row:     r + 1,
					Col:     c + 1,
					Address: a1.FormatCell(r+1, c+1),
					Value:   text,
				})
			}
		}
	}
	return matches, nil
}

// Replace computes the rewrites for every cell matching find under opts.
// Substring mode rewrites only the matching occurrences inside the cell and
// leaves surrounding text untouched; entire-cell mode swaps the full value.
// The returned count equals len(replacements); scan order is row-major,
// identical to Search.
func Replace(grid [][]any, find, replace string, opts Options) (int, []Replacement, error) {
	startRow, startCol := 1, 1
	endRow, endCol := len(grid), maxWidth(grid)
	if opts.Range != "" {
		sr, sc, er, ec, err := a1.ParseRange(opts.Range)
		if err != nil {
			return 0, nil, err
		}
		if er < sr || ec < sc {
			return 0, nil, sheeterr.Newf(sheeterr.InvalidRange, "reversed range: %q", opts.Range)
		}
		startRow, startCol, endRow, endCol = sr, sc, er, ec
	}

	rewrite := substringRewriter(find, replace, opts.MatchCase)

	var repls []Replacement
	for r := startRow; r <= endRow && r <= len(grid); r++ {
		rowVals := grid[r-1]
		for c := startCol; c <= endCol && c <= len(rowVals); c++ {
			text := CellText(rowVals[c-1])
			if text == "" {
				continue
			}
			var newText string
			if opts.MatchEntireCell {
				if !equalsUnderCase(text, find, opts.MatchCase) {
					continue
				}
				newText = replace
			} else {
				newText = rewrite(text)
				if newText == text {
					continue
				}
			}
			repls = append(repls, Replacement{
				Row:      r,
				Col:      c,
				Address:  a1.FormatCell(r, c),
				OldValue: text,
				NewValue: newText,
			})
		}
	}
	return len(repls), repls, nil
}

// substringRewriter returns a function replacing every literal occurrence of
// find. Case-insensitive mode goes through a compiled pattern so occurrences
// are replaced regardless of their casing; find is quoted first, so regex
// metacharacters in the query are matched literally.
func substringRewriter(find, replace string, matchCase bool) func(string) string {
	if matchCase {
		return func(s string) string { return strings.ReplaceAll(s, find, replace) }
	}
	re := regexp.MustCompile("(?i)" + regexp.QuoteMeta(find))
	// Replacement text is literal too: $ must not be expanded.
	return func(s string) string {
		return re.ReplaceAllStringFunc(s, func(string) string { return replace })
	}
}

func equalsUnderCase(a, b string, matchCase bool) bool {
	if matchCase {
		return a == b
	}
	return strings.EqualFold(a, b)
}

// CellText renders an opaque cell scalar as its text form. Absent cells and
// empty strings render as "" and are skipped by the scanners.
func CellText(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		if t {
			return "TRUE"
		}
		return "FALSE"
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	default:
		return fmt.Sprintf("%v", t)
	}
}

func columnSet(columns []string) (map[int]struct{}, error) {
	if len(columns) == 0 {
		return nil, nil
	}
	set := make(map[int]struct{}, len(columns))
	for _, name := range columns {
		n, err := a1.ColumnNumber(strings.ToUpper(strings.TrimSpace(name)))
		if err != nil {
			return nil, err
		}
		set[n] = struct{}{}
	}
	return set, nil
}

func maxWidth(grid [][]any) int {
	w := 0
	for _, row := range grid {
		if len(row) > w {
			w = len(row)
		}
	}
	return w
}
