package core

// validation.go checks a normalized question list before anything is selected.
//
// Validation happens in two stages:
//  1. Sequence validation: identifiers are whole numbers and, in strict mode,
//     exactly 1..N. Rows after the last identifier are dropped first.
//  2. Completeness validation: every numbered row has a question and an answer.
//
// Both stages report every offending row at once rather than stopping at the
// first one, so a user can fix a file in a single pass.

import (
	"math"
	"regexp"
	"slices"
	"strconv"
)

// numericRegex validates that an identifier looks like a plain decimal number.
// Hex, infinities and NaN are rejected even though strconv would parse them.
var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// Fallback column titles used in diagnostics when the header row is blank.
const (
	fallbackIDTitle       = "No."
	fallbackQuestionTitle = "question"
	fallbackAnswerTitle   = "answer"
)

// ParseIdentifier parses a normalized identifier cell.
// Integral decimals such as "3.0" or "1e1" are accepted; "2.5" is not.
func ParseIdentifier(s string) (int, bool) {
	if n, err := strconv.Atoi(s); err == nil {
		return n, true
	}
	if !numericRegex.MatchString(s) {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return 0, false
	}
	return int(f), true
}

// TrimTrailing returns t without the rows that follow the last row holding
// an identifier. Rows are shared with t, not copied.
func TrimTrailing(t Table) Table {
	last := -1
	for i := range t.Rows {
		if t.Cell(i, ColID) != "" {
			last = i
		}
	}
	return Table{Header: t.Header, Rows: t.Rows[:last+1]}
}

// CheckSequence validates the identifier column of a normalized, trimmed
// table and returns the parsed identifiers in row order.
//
// A blank or non-numeric identifier yields a *FormatError listing every such
// row. In ModeStrict the identifiers must be a permutation of 1..N, otherwise
// a *SequenceError is returned.
func CheckSequence(t Table, mode ValidationMode) ([]int, error) {
	column := t.ColumnTitle(ColID, fallbackIDTitle)
	if len(t.Rows) == 0 {
		return nil, &FormatError{Column: column, Empty: true}
	}

	ids := make([]int, len(t.Rows))
	var bad []int
	for i := range t.Rows {
		id, ok := ParseIdentifier(t.Cell(i, ColID))
		if !ok {
			bad = append(bad, i+LineOffset)
			continue
		}
		ids[i] = id
	}
	if len(bad) > 0 {
		return nil, &FormatError{Column: column, Rows: bad}
	}

	if mode == ModeStrict {
		if err := checkContiguous(ids, column); err != nil {
			return nil, err
		}
	}
	return ids, nil
}

// checkContiguous verifies ids is a permutation of 1..len(ids).
// N distinct values inside 1..N cover the range, so only out-of-range values
// and repeats need to be found.
func checkContiguous(ids []int, column string) error {
	n := len(ids)
	seen := make(map[int]bool, n)
	repeated := make(map[int]bool)
	var rows, dups []int

	for i, id := range ids {
		switch {
		case id < 1 || id > n:
			rows = append(rows, i+LineOffset)
		case seen[id]:
			rows = append(rows, i+LineOffset)
			if !repeated[id] {
				repeated[id] = true
				dups = append(dups, id)
			}
		default:
			seen[id] = true
		}
	}
	if len(rows) == 0 {
		return nil
	}

	var missing []int
	for v := 1; v <= n; v++ {
		if !seen[v] {
			missing = append(missing, v)
		}
	}
	slices.Sort(dups)

	return &SequenceError{
		Column:      column,
		Expected:    n,
		ObservedMax: slices.Max(ids),
		Rows:        rows,
		Missing:     missing,
		Duplicates:  dups,
	}
}

// CheckCompleteness reports blank question cells, and blank answer cells
// when requireAnswer is set, on every row that has an identifier. All
// columns are checked before returning a *CompletenessError.
func CheckCompleteness(t Table, requireAnswer bool) error {
	type required struct {
		col      int
		fallback string
	}
	cols := []required{{ColQuestion, fallbackQuestionTitle}}
	if requireAnswer {
		cols = append(cols, required{ColAnswer, fallbackAnswerTitle})
	}

	var gaps []ColumnGap
	for _, c := range cols {
		var rows []int
		for i := range t.Rows {
			if t.Cell(i, ColID) == "" {
				continue
			}
			if t.Cell(i, c.col) == "" {
				rows = append(rows, i+LineOffset)
			}
		}
		if len(rows) > 0 {
			gaps = append(gaps, ColumnGap{Column: t.ColumnTitle(c.col, c.fallback), Rows: rows})
		}
	}
	if len(gaps) > 0 {
		return &CompletenessError{Gaps: gaps}
	}
	return nil
}
