package core

// errors.go defines the typed failures of the validation and selection
// pipeline.
//
// Each validation error carries the 1-based spreadsheet lines that caused it
// and can describe itself as a list of Diagnostic values for display. The
// sentinel errors allow callers to branch with errors.Is without caring about
// the concrete type.

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Sentinel errors matched by the typed errors below.
var (
	ErrFormat       = errors.New("format error")
	ErrSequence     = errors.New("sequence error")
	ErrCompleteness = errors.New("completeness error")
	ErrRange        = errors.New("range error")
	ErrIngest       = errors.New("ingest error")
)

// DefaultRowDisplayLimit is how many row numbers are listed before the rest
// are summarised as "… and N more".
const DefaultRowDisplayLimit = 10

// DiagnosticKind classifies a Diagnostic.
type DiagnosticKind string

const (
	KindFormat       DiagnosticKind = "format-error"
	KindSequence     DiagnosticKind = "sequence-error"
	KindCompleteness DiagnosticKind = "completeness-error"
	KindRange        DiagnosticKind = "range-error"
)

// Diagnostic is one user-facing problem found in an upload or a selection.
type Diagnostic struct {
	Kind    DiagnosticKind `json:"kind"`
	Column  string         `json:"column,omitempty"`
	Rows    []int          `json:"rows,omitempty"` // 1-based spreadsheet lines
	Message string         `json:"message"`
	Hint    string         `json:"hint,omitempty"`
}

// RowSummary renders the diagnostic's rows with the given display cap.
func (d Diagnostic) RowSummary(limit int) string {
	return FormatRows(d.Rows, limit)
}

// Diagnoser is implemented by errors that can explain themselves as diagnostics.
type Diagnoser interface {
	error
	Diagnostics() []Diagnostic
}

// Diagnose extracts diagnostics from err. It returns nil when err carries none.
func Diagnose(err error) []Diagnostic {
	var d Diagnoser
	if errors.As(err, &d) {
		return d.Diagnostics()
	}
	return nil
}

// FormatRows joins row numbers, listing at most limit of them.
// A limit <= 0 lists every row.
func FormatRows(rows []int, limit int) string {
	shown := rows
	if limit > 0 && len(rows) > limit {
		shown = rows[:limit]
	}
	parts := make([]string, len(shown))
	for i, r := range shown {
		parts[i] = strconv.Itoa(r)
	}
	s := strings.Join(parts, ", ")
	if rest := len(rows) - len(shown); rest > 0 {
		s += fmt.Sprintf(" … and %d more", rest)
	}
	return s
}

// FormatError reports identifiers that are not whole numbers, or a list with
// no identifiers at all.
type FormatError struct {
	Column string // Identifier column title
	Rows   []int  // Lines with a non-numeric identifier
	Empty  bool   // No identifier values were found
}

func (e *FormatError) Error() string {
	if e.Empty {
		return "no identifier values found in the first column"
	}
	return fmt.Sprintf("non-numeric identifier in rows %s", FormatRows(e.Rows, DefaultRowDisplayLimit))
}

func (e *FormatError) Is(target error) bool { return target == ErrFormat }

func (e *FormatError) Diagnostics() []Diagnostic {
	if e.Empty {
		return []Diagnostic{{
			Kind:    KindFormat,
			Column:  e.Column,
			Message: e.Error(),
			Hint:    "Put question numbers in the first column below the header row",
		}}
	}
	return []Diagnostic{{
		Kind:    KindFormat,
		Column:  e.Column,
		Rows:    e.Rows,
		Message: "Question numbers must be whole numbers written with half-width digits",
		Hint:    "Fix or fill the number in each listed row",
	}}
}

// SequenceError reports identifiers that are not exactly 1..N.
type SequenceError struct {
	Column      string
	Expected    int   // N, the final value of a contiguous list
	ObservedMax int   // Largest identifier actually present
	Rows        []int // Lines holding an out-of-range or repeated identifier
	Missing     []int // Values in 1..N that never appear
	Duplicates  []int // Values that appear more than once
}

func (e *SequenceError) Error() string {
	return fmt.Sprintf("identifiers are not contiguous from 1: expected final value %d, observed maximum %d",
		e.Expected, e.ObservedMax)
}

func (e *SequenceError) Is(target error) bool { return target == ErrSequence }

func (e *SequenceError) Diagnostics() []Diagnostic {
	var hint strings.Builder
	hint.WriteString("Renumber the list 1, 2, 3 … without gaps or repeats")
	if len(e.Missing) > 0 {
		fmt.Fprintf(&hint, "; missing %s", FormatRows(e.Missing, DefaultRowDisplayLimit))
	}
	if len(e.Duplicates) > 0 {
		fmt.Fprintf(&hint, "; repeated %s", FormatRows(e.Duplicates, DefaultRowDisplayLimit))
	}
	return []Diagnostic{{
		Kind:    KindSequence,
		Column:  e.Column,
		Rows:    e.Rows,
		Message: fmt.Sprintf("Question numbers should run from 1 to %d but the largest is %d", e.Expected, e.ObservedMax),
		Hint:    hint.String(),
	}}
}

// ColumnGap lists the blank cells of one required column.
type ColumnGap struct {
	Column string
	Rows   []int
}

// CompletenessError reports blank required cells, for every required column at once.
type CompletenessError struct {
	Gaps []ColumnGap
}

func (e *CompletenessError) Error() string {
	parts := make([]string, len(e.Gaps))
	for i, g := range e.Gaps {
		parts[i] = fmt.Sprintf("%s rows %s", g.Column, FormatRows(g.Rows, DefaultRowDisplayLimit))
	}
	return "blank required field: " + strings.Join(parts, "; ")
}

func (e *CompletenessError) Is(target error) bool { return target == ErrCompleteness }

func (e *CompletenessError) Diagnostics() []Diagnostic {
	out := make([]Diagnostic, len(e.Gaps))
	for i, g := range e.Gaps {
		out[i] = Diagnostic{
			Kind:    KindCompleteness,
			Column:  g.Column,
			Rows:    g.Rows,
			Message: fmt.Sprintf("%q is blank", g.Column),
			Hint:    "Fill every numbered row, or delete rows that are not used",
		}
	}
	return out
}

// RangeReason says which selection constraint failed.
type RangeReason string

const (
	ReasonInverted RangeReason = "start after end"
	ReasonEmpty    RangeReason = "range is empty"
	ReasonCount    RangeReason = "count out of range"
	ReasonWidth    RangeReason = "too many questions for one worksheet"
)

// RangeError reports selection parameters that cannot be satisfied.
type RangeError struct {
	Reason    RangeReason
	Start     int
	End       int
	Count     int
	Available int
	// RowsPerBlock is set with ReasonWidth; zero means a single plain column.
	RowsPerBlock int
}

func (e *RangeError) Error() string {
	switch e.Reason {
	case ReasonInverted:
		return fmt.Sprintf("%s: %d > %d", e.Reason, e.Start, e.End)
	case ReasonEmpty:
		return fmt.Sprintf("%s: no identifiers between %d and %d", e.Reason, e.Start, e.End)
	case ReasonWidth:
		return fmt.Sprintf("%s: requested %d, at most %d fit", e.Reason, e.Count, e.Available)
	default:
		return fmt.Sprintf("%s: requested %d, available %d", e.Reason, e.Count, e.Available)
	}
}

func (e *RangeError) Is(target error) bool { return target == ErrRange }

func (e *RangeError) Diagnostics() []Diagnostic {
	d := Diagnostic{Kind: KindRange, Message: e.Error()}
	switch e.Reason {
	case ReasonInverted:
		d.Hint = "Make the start number less than or equal to the end number"
	case ReasonEmpty:
		d.Hint = "Widen the range so it covers at least one question"
	case ReasonWidth:
		if e.RowsPerBlock > 0 {
			d.Hint = fmt.Sprintf("Choose at most %d questions or raise the rows per block above %d", e.Available, e.RowsPerBlock)
		} else {
			d.Hint = fmt.Sprintf("Choose at most %d questions", e.Available)
		}
	default:
		d.Hint = fmt.Sprintf("Choose between 1 and %d questions", e.Available)
	}
	return []Diagnostic{d}
}

// IngestError wraps a failure to read an uploaded file.
type IngestError struct {
	Source string
	Err    error
}

func (e *IngestError) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("cannot read upload: %v", e.Err)
	}
	return fmt.Sprintf("cannot read %s: %v", e.Source, e.Err)
}

func (e *IngestError) Unwrap() error { return e.Err }

func (e *IngestError) Is(target error) bool { return target == ErrIngest }
