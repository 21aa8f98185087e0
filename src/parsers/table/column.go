package table

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// NoColumnIndex is resolved by an Optional strategy whose wrapped
// strategy matched nothing.
const NoColumnIndex = -1

// ErrColumnNotFound reports that no header cell satisfied a strategy.
var ErrColumnNotFound = errors.New("column not found")

// ColumnStrategy resolves a logical column's zero-based index from one
// or more header rows, starting the search at startColumn.
type ColumnStrategy interface {
	Resolve(headers [][]Cell, startColumn int) (int, error)
}

type keywordColumn struct {
	words    []string
	patterns []*regexp.Regexp
}

// Keywords matches a header cell containing every word, case-insensitive
// and word-boundary-respecting. A word may itself use regular-expression
// syntax (e.g. "^нкд$" for an exact header).
func Keywords(words ...string) ColumnStrategy {
	patterns := make([]*regexp.Regexp, len(words))
	for i, word := range words {
		patterns[i] = regexp.MustCompile(`(?i)(^|[^\p{L}\p{N}])(?:` + word + `)([^\p{L}\p{N}]|$)`)
	}
	return &keywordColumn{words: words, patterns: patterns}
}

func (k *keywordColumn) Resolve(headers [][]Cell, startColumn int) (int, error) {
	// A header may legitimately sit in any of the designated rows, so
	// row 0 is tried across all words before moving to row 1.
	for _, header := range headers {
		for _, cell := range header {
			if cell.Column < startColumn || cell.Type != CellString {
				continue
			}
			if k.matches(cell.Value) {
				return cell.Column, nil
			}
		}
	}
	return 0, fmt.Errorf("%w, expected words: %q", ErrColumnNotFound, k.words)
}

func (k *keywordColumn) matches(text string) bool {
	for _, p := range k.patterns {
		if !p.MatchString(text) {
			return false
		}
	}
	return true
}

type patternColumn struct {
	re *regexp.Regexp
}

// Pattern matches a header cell satisfying the regular expression.
func Pattern(expr string) ColumnStrategy {
	return &patternColumn{re: regexp.MustCompile("(?i)" + expr)}
}

func (p *patternColumn) Resolve(headers [][]Cell, startColumn int) (int, error) {
	for _, header := range headers {
		for _, cell := range header {
			if cell.Column < startColumn || cell.Type != CellString {
				continue
			}
			if p.re.MatchString(cell.Value) {
				return cell.Column, nil
			}
		}
	}
	return 0, fmt.Errorf("%w, expected pattern: %q", ErrColumnNotFound, p.re.String())
}

type anyOfColumn struct {
	choices []ColumnStrategy
}

// AnyOf tries each strategy in declared order; the first success wins.
func AnyOf(choices ...ColumnStrategy) ColumnStrategy {
	return &anyOfColumn{choices: choices}
}

func (a *anyOfColumn) Resolve(headers [][]Cell, startColumn int) (int, error) {
	var failures []string
	for _, choice := range a.choices {
		index, err := choice.Resolve(headers, startColumn)
		if err == nil {
			return index, nil
		}
		failures = append(failures, err.Error())
	}
	return 0, fmt.Errorf("%w, none of the alternatives matched: %s",
		ErrColumnNotFound, strings.Join(failures, "; "))
}

type multiLineColumn struct {
	rows []ColumnStrategy
}

// MultiLine resolves a column under a nested header by narrowing: the
// first strategy matches header row 0 and its match column becomes the
// search start for the second strategy on row 1, and so on.
func MultiLine(rows ...ColumnStrategy) ColumnStrategy {
	return &multiLineColumn{rows: rows}
}

func (m *multiLineColumn) Resolve(headers [][]Cell, startColumn int) (int, error) {
	if len(headers) != len(m.rows) {
		return 0, fmt.Errorf("%w: multi-line column declares %d header rows, table has %d",
			ErrColumnNotFound, len(m.rows), len(headers))
	}
	index := startColumn
	for i, strategy := range m.rows {
		resolved, err := strategy.Resolve([][]Cell{headers[i]}, index)
		if err != nil {
			return 0, fmt.Errorf("header row %d: %w", i, err)
		}
		index = resolved
	}
	return index, nil
}

type optionalColumn struct {
	of ColumnStrategy
}

// Optional resolves to NoColumnIndex instead of failing when the
// wrapped strategy matches nothing.
func Optional(of ColumnStrategy) ColumnStrategy {
	return &optionalColumn{of: of}
}

func (o *optionalColumn) Resolve(headers [][]Cell, startColumn int) (int, error) {
	index, err := o.of.Resolve(headers, startColumn)
	if err != nil {
		return NoColumnIndex, nil
	}
	return index, nil
}

type relativeColumn struct {
	to     ColumnStrategy
	offset int
}

// RelativeTo resolves another column first and applies a fixed offset.
// Used when a column has no distinguishing header text of its own, e.g.
// a fee amount immediately left of its currency column.
func RelativeTo(to ColumnStrategy, offset int) ColumnStrategy {
	return &relativeColumn{to: to, offset: offset}
}

func (r *relativeColumn) Resolve(headers [][]Cell, startColumn int) (int, error) {
	index, err := r.to.Resolve(headers, startColumn)
	if err != nil {
		return 0, err
	}
	return index + r.offset, nil
}

type fixedColumn int

// FixedPosition resolves to a constant column index for report versions
// whose column has no usable header text at all.
func FixedPosition(index int) ColumnStrategy {
	return fixedColumn(index)
}

func (f fixedColumn) Resolve([][]Cell, int) (int, error) {
	return int(f), nil
}
