package report

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/JonMunkholm/testsheet/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validDataset(t *testing.T) *core.Dataset {
	t.Helper()
	raw := core.Table{
		Header: []string{"問題No", "問題", "解答"},
		Rows:   [][]string{{"1", "dog", "犬"}, {"2", "cat", "猫"}, {"3", "a|b", "c"}},
	}
	ds, err := core.Prepare(context.Background(), "words.xlsx", raw, core.DefaultValidateOptions())
	require.NoError(t, err)
	return ds
}

func blankRowsError() error {
	rows := make([]int, 14)
	for i := range rows {
		rows[i] = i + 2
	}
	return &core.CompletenessError{Gaps: []core.ColumnGap{{Column: "問題", Rows: rows}}}
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": FormatText, "JSON": FormatJSON, "toon": FormatTOON, "md": FormatMarkdown} {
		got, err := ParseFormat(in)
		require.NoError(t, err)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseFormat("yaml")
	assert.Error(t, err)
}

func TestNewValidation(t *testing.T) {
	ds := validDataset(t)
	v := NewValidation("dir/words.xlsx", ds, ds.Defaults(10), nil)
	assert.True(t, v.Valid)
	assert.Equal(t, "words", v.Source)
	require.NotNil(t, v.Summary)
	assert.Equal(t, 3, v.Summary.Rows)
	assert.Nil(t, v.Error)

	v = NewValidation("words.xlsx", nil, core.SelectParams{}, blankRowsError())
	assert.False(t, v.Valid)
	assert.Nil(t, v.Summary)
	require.NotNil(t, v.Error)
	assert.Equal(t, "VAL004", v.Error.Code)
	require.Len(t, v.Diagnostics, 1)
}

func TestWriteValidation_TextCapsRows(t *testing.T) {
	var buf bytes.Buffer
	v := NewValidation("words.xlsx", nil, core.SelectParams{}, blankRowsError())
	require.NoError(t, New(FormatText).WriteValidation(&buf, v))

	out := buf.String()
	assert.Contains(t, out, "FAIL  words")
	assert.Contains(t, out, "rows: 2, 3, 4, 5, 6, 7, 8, 9, 10, 11 … and 4 more")
	assert.Contains(t, out, "(Code: VAL004)")
}

func TestWriteValidation_TextValid(t *testing.T) {
	ds := validDataset(t)
	var buf bytes.Buffer
	require.NoError(t, New(FormatText).WriteValidation(&buf, NewValidation("words.xlsx", ds, ds.Defaults(10), nil)))
	assert.Contains(t, buf.String(), "questions: 3 (ids 1-3)")
	assert.Contains(t, buf.String(), "start=1 end=3 count=3 order=asc")
}

func TestWriteValidation_JSON(t *testing.T) {
	var buf bytes.Buffer
	v := NewValidation("words.xlsx", nil, core.SelectParams{}, blankRowsError())
	require.NoError(t, New(FormatJSON).WriteValidation(&buf, v))

	var got struct {
		Valid       bool `json:"valid"`
		Diagnostics []struct {
			Kind     string `json:"kind"`
			Rows     []int  `json:"rows"`
			MoreRows int    `json:"more_rows"`
		} `json:"diagnostics"`
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.False(t, got.Valid)
	assert.Equal(t, "VAL004", got.Error.Code)
	require.Len(t, got.Diagnostics, 1)
	assert.Equal(t, "completeness-error", got.Diagnostics[0].Kind)
	assert.Len(t, got.Diagnostics[0].Rows, 10)
	assert.Equal(t, 4, got.Diagnostics[0].MoreRows)
}

func TestWriteValidation_Uncapped(t *testing.T) {
	var buf bytes.Buffer
	r := &Renderer{Format: FormatJSON, RowLimit: 0}
	require.NoError(t, r.WriteValidation(&buf, NewValidation("w.csv", nil, core.SelectParams{}, blankRowsError())))
	assert.NotContains(t, buf.String(), "more_rows")
}

func TestWriteValidation_TOON(t *testing.T) {
	ds := validDataset(t)
	var buf bytes.Buffer
	require.NoError(t, New(FormatTOON).WriteValidation(&buf, NewValidation("words.xlsx", ds, ds.Defaults(10), nil)))

	out := buf.String()
	assert.NotEmpty(t, strings.TrimSpace(out))
	assert.Contains(t, out, "words")
	assert.Contains(t, out, "min_id")
	assert.True(t, strings.HasSuffix(out, "\n"))
}

func TestWriteValidation_Markdown(t *testing.T) {
	var buf bytes.Buffer
	v := NewValidation("words.xlsx", nil, core.SelectParams{}, blankRowsError())
	require.NoError(t, New(FormatMarkdown).WriteValidation(&buf, v))

	out := buf.String()
	assert.Contains(t, out, "# Validation: words")
	assert.Contains(t, out, "| completeness-error | 問題 |")
	assert.Contains(t, out, "… and 4 more")
}

func TestWriteSelection(t *testing.T) {
	ds := validDataset(t)
	sel := Selection{
		Source:   "words",
		Params:   core.SelectParams{Start: 1, End: 3, Count: 3, Order: core.OrderAscending},
		Items:    ds.Items,
		Filename: "words_1-3.xlsx",
	}

	tests := []struct {
		format Format
		want   []string
	}{
		{FormatText, []string{"words: 3 questions", "written to words_1-3.xlsx", "dog", "犬"}},
		{FormatMarkdown, []string{"# Selection: words", "| 3 | a\\|b | c |"}},
		{FormatJSON, []string{`"question": "dog"`, `"filename": "words_1-3.xlsx"`}},
		{FormatTOON, []string{"dog", "猫"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, New(tt.format).WriteSelection(&buf, sel))
			for _, w := range tt.want {
				assert.Contains(t, buf.String(), w)
			}
		})
	}
}

func TestRenderer_UnknownFormat(t *testing.T) {
	var buf bytes.Buffer
	err := (&Renderer{Format: "yaml"}).WriteSelection(&buf, Selection{})
	assert.ErrorIs(t, err, errUnknownFormat)
}

func TestProblemLines(t *testing.T) {
	lines := ProblemLines(Problems(core.Diagnose(blankRowsError()), 3))
	require.Len(t, lines, 1)
	assert.Equal(t, `"問題" is blank (rows 2, 3, 4 … and 11 more)`, lines[0])
}
