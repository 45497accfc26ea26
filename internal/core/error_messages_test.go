package core

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/JonMunkholm/testsheet/internal/ingest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name, code, message string
		err                 error
	}{
		{"non-numeric identifier", "VAL001", "A question number is not a whole number", &FormatError{Column: "No.", Rows: []int{4}}},
		{"empty identifier column", "VAL002", "The first column has no question numbers", &FormatError{Empty: true}},
		{"sequence gap", "VAL003", "Question numbers do not run 1, 2, 3 without gaps", &SequenceError{Expected: 3, ObservedMax: 4, Rows: []int{4}}},
		{"blank cells", "VAL004", "A numbered row has a blank question or answer", &CompletenessError{Gaps: []ColumnGap{{Column: "問題", Rows: []int{5}}}}},
		{"unknown mode", "VAL005", "", func() error { _, err := ParseValidationMode("fuzzy"); return err }()},
		{"inverted range", "SEL001", "The start number is greater than the end number", &RangeError{Reason: ReasonInverted, Start: 8, End: 3}},
		{"empty range", "SEL002", "", &RangeError{Reason: ReasonEmpty, Start: 50, End: 60}},
		{"count too large", "SEL003", "", &RangeError{Reason: ReasonCount, Count: 20, Available: 6}},
		{"bad filter", "SEL004", "", func() error { _, err := CompileFilter("id >"); return err }()},
		{"unknown order", "SEL005", "", func() error { _, err := ParseSortOrder("sideways"); return err }()},
		{"bad seed", "SEL006", "", func() error { _, err := ParseSeed("-1"); return err }()},
		{"too wide for a sheet", "SEL007", "Too many questions to fit on one worksheet", &RangeError{Reason: ReasonWidth, Count: 20481, Available: 20480, RowsPerBlock: 5}},
		{"file too large wrapped in ingest error", "FILE001", "File exceeds the upload size limit", &IngestError{Source: "big", Err: ingest.ErrTooLarge}},
		{"unsupported type wrapped in ingest error", "FILE002", "", &IngestError{Source: "notes", Err: fmt.Errorf("%w %q", ingest.ErrUnsupportedType, ".pdf")}},
		{"corrupt workbook", "FILE003", "", &IngestError{Source: "bad", Err: errors.New("zip: not a valid zip file")}},
		{"empty upload", "FILE005", "", &IngestError{Source: "a", Err: ingest.ErrEmptyFile}},
		{"limiter timeout", "GEN001", "System is busy generating other test sheets", ErrTooManyGenerations},
		{"deadline", "GEN002", "", context.DeadlineExceeded},
		{"rate limit text", "RATE001", "Too many requests", errors.New("rate limit exceeded")},
		{"unrecognised error", "ERR000", "An unexpected error occurred", errors.New("some random internal error")},
		{"case insensitive matching", "FILE002", "", errors.New("UNSUPPORTED FILE TYPE")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			assert.Equal(t, tt.code, got.Code, "err: %v", tt.err)
			if tt.message != "" {
				assert.Equal(t, tt.message, got.Message)
			}
		})
	}

	assert.Equal(t, UserMessage{}, MapError(nil))
}

func TestFormatUserError(t *testing.T) {
	got := FormatUserError(&RangeError{Reason: ReasonInverted, Start: 5, End: 2})
	assert.Equal(t, "The start number is greater than the end number (Code: SEL001). Make the start number less than or equal to the end number", got)
	assert.Empty(t, FormatUserError(nil))
}

func TestMapError_WrappedTypedErrors(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{fmt.Errorf("load words: %w", &SequenceError{Expected: 2, ObservedMax: 5}), "VAL003"},
		{fmt.Errorf("select: %w", &RangeError{Reason: ReasonCount, Count: 9, Available: 2}), "SEL003"},
		{fmt.Errorf("generate: %w", context.Canceled), "GEN003"},
		{&IngestError{Err: fmt.Errorf("read: %w", ingest.ErrNoWorksheets)}, "FILE006"},
	}
	for _, tt := range tests {
		if got := MapError(tt.err).Code; got != tt.want {
			t.Errorf("MapError(%v) = %s, want %s", tt.err, got, tt.want)
		}
	}
}

func TestCatalogueCoversEveryCode(t *testing.T) {
	var codes []string
	for _, s := range sentinels {
		codes = append(codes, s.code)
	}
	for _, p := range phrases {
		codes = append(codes, p.code)
	}
	for _, code := range codes {
		msg, ok := catalogue[code]
		if !ok || msg.Message == "" || msg.Action == "" {
			t.Errorf("code %s has no complete catalogue entry", code)
		}
	}
}

func TestRangeError_WidthDiagnostics(t *testing.T) {
	booklet := Diagnose(&RangeError{Reason: ReasonWidth, Count: 20481, Available: 20480, RowsPerBlock: 5})
	require.Len(t, booklet, 1)
	assert.Equal(t, "too many questions for one worksheet: requested 20481, at most 20480 fit", booklet[0].Message)
	assert.Contains(t, booklet[0].Hint, "rows per block above 5")

	plain := Diagnose(&RangeError{Reason: ReasonWidth, Count: 2000000, Available: 1048575})
	require.Len(t, plain, 1)
	assert.Equal(t, "Choose at most 1048575 questions", plain[0].Hint)
}
