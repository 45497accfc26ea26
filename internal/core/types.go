package core

import (
	"fmt"
	"strings"
)

// Column positions inside an uploaded question list.
const (
	ColID       = 0 // Numeric identifier, the join key for all filtering
	ColQuestion = 1
	ColAnswer   = 2
)

// LineOffset converts a 0-based data row index into the 1-based spreadsheet
// line the user sees: one for the header row and one for 1-based numbering.
const LineOffset = 2

// ValidationMode selects how strictly the identifier column is checked.
type ValidationMode string

const (
	// ModeStrict requires identifiers to be exactly 1..N in any order.
	ModeStrict ValidationMode = "strict"
	// ModeLoose only requires identifiers to be whole numbers.
	ModeLoose ValidationMode = "loose"
)

// ParseValidationMode parses a mode name. An empty string yields ModeStrict.
func ParseValidationMode(s string) (ValidationMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "strict", "contiguous":
		return ModeStrict, nil
	case "loose", "numeric":
		return ModeLoose, nil
	default:
		return "", fmt.Errorf("unknown validation mode %q (use strict or loose)", s)
	}
}

// SortOrder is the ordering policy applied to a sampled selection.
type SortOrder string

const (
	OrderAscending  SortOrder = "asc"
	OrderDescending SortOrder = "desc"
	OrderDraw       SortOrder = "random" // keep the order rows were drawn in
)

// ParseSortOrder parses an ordering name. An empty string yields OrderAscending.
func ParseSortOrder(s string) (SortOrder, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "asc", "ascending":
		return OrderAscending, nil
	case "desc", "descending":
		return OrderDescending, nil
	case "random", "draw", "shuffle":
		return OrderDraw, nil
	default:
		return "", fmt.Errorf("unknown order %q (use asc, desc or random)", s)
	}
}

// Table is a header row plus the raw data rows in spreadsheet order.
type Table struct {
	Header []string
	Rows   [][]string
}

// Cell returns the value at (row, col), or "" when the row is short.
func (t Table) Cell(row, col int) string {
	if row < 0 || row >= len(t.Rows) || col < 0 || col >= len(t.Rows[row]) {
		return ""
	}
	return t.Rows[row][col]
}

// ColumnTitle returns the header text for col, falling back to fallback
// when the header is missing or blank.
func (t Table) ColumnTitle(col int, fallback string) string {
	if col < len(t.Header) && strings.TrimSpace(t.Header[col]) != "" {
		return t.Header[col]
	}
	return fallback
}

// TableFromRecords splits raw records into a header and data rows.
// The first record is the header.
func TableFromRecords(records [][]string) Table {
	if len(records) == 0 {
		return Table{}
	}
	return Table{Header: records[0], Rows: records[1:]}
}

// Item is one validated question row.
type Item struct {
	Line     int      `json:"line"` // 1-based spreadsheet line
	ID       int      `json:"id"`
	Question string   `json:"question"`
	Answer   string   `json:"answer"`
	Extra    []string `json:"extra,omitempty"`
}

// ValidateOptions controls the validation pipeline.
type ValidateOptions struct {
	Mode          ValidationMode
	RequireAnswer bool // Answer column must be filled on every row
	FoldWidth     bool // Narrow full-width digits in the identifier column
}

// DefaultValidateOptions returns strict validation with a required answer column.
func DefaultValidateOptions() ValidateOptions {
	return ValidateOptions{
		Mode:          ModeStrict,
		RequireAnswer: true,
	}
}

// SelectParams describes which rows go onto a test sheet.
type SelectParams struct {
	Start  int       `json:"start"`
	End    int       `json:"end"`
	Count  int       `json:"count"`
	Order  SortOrder `json:"order"`
	Filter string    `json:"filter,omitempty"` // Optional expression, see CompileFilter
}

// String renders the parameters for log lines.
func (p SelectParams) String() string {
	s := fmt.Sprintf("start=%d end=%d count=%d order=%s", p.Start, p.End, p.Count, p.Order)
	if p.Filter != "" {
		s += fmt.Sprintf(" filter=%q", p.Filter)
	}
	return s
}
