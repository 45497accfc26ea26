package ingest

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// buildWorkbook writes rows to the first sheet, leaving nil cells empty.
func buildWorkbook(t *testing.T, rows [][]any) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	for r, row := range rows {
		for c, v := range row {
			if v == nil {
				continue
			}
			ref, err := excelize.CoordinatesToCellName(c+1, r+1)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue("Sheet1", ref, v))
		}
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestRead_XLSXBothEngines(t *testing.T) {
	data := buildWorkbook(t, [][]any{
		{"問題No", "問題", "解答"},
		{1, "dog", "犬"},
		{2, "cat", nil},
		nil,
		{3, nil, "鳥"},
	})

	want := [][]string{
		{"問題No", "問題", "解答"},
		{"1", "dog", "犬"},
		{"2", "cat"},
		nil,
		{"3", "", "鳥"},
	}

	for _, engine := range []Engine{EngineExcelize, EngineStream} {
		t.Run(string(engine), func(t *testing.T) {
			got, err := Read(context.Background(), "words.xlsx", bytes.NewReader(data), Options{Engine: engine})
			require.NoError(t, err)
			require.Len(t, got, len(want))
			for i := range want {
				assert.Equal(t, trimRight(want[i]), trimRight(got[i]), "row %d", i)
			}
		})
	}
}

// trimRight drops trailing empty cells, which the two engines report differently.
func trimRight(row []string) []string {
	for len(row) > 0 && row[len(row)-1] == "" {
		row = row[:len(row)-1]
	}
	if len(row) == 0 {
		return nil
	}
	return row
}

func TestRead_CSVWithBOM(t *testing.T) {
	input := "\ufeff問題No,問題,解答\n1,dog,犬\n2,\"a, b\",c\n"
	got, err := Read(context.Background(), "list.CSV", strings.NewReader(input), Options{})
	require.NoError(t, err)

	assert.Equal(t, [][]string{
		{"問題No", "問題", "解答"},
		{"1", "dog", "犬"},
		{"2", "a, b", "c"},
	}, got)
}

func TestRead_CSVRaggedRows(t *testing.T) {
	got, err := Read(context.Background(), "list.csv", strings.NewReader("no,q,a\n1,x\n2,y,z,extra\n"), Options{})
	require.NoError(t, err)
	assert.Len(t, got[1], 2)
	assert.Len(t, got[2], 4)
}

func TestRead_Errors(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name  string
		file  string
		input string
		opts  Options
		want  error
	}{
		{"unsupported extension", "notes.pdf", "x", Options{}, ErrUnsupportedType},
		{"no extension", "notes", "x", Options{}, ErrUnsupportedType},
		{"empty csv", "a.csv", "", Options{}, ErrEmptyFile},
		{"whitespace csv", "a.csv", " , \n,,\n", Options{}, ErrEmptyFile},
		{"empty xlsx", "a.xlsx", "", Options{}, ErrEmptyFile},
		{"too large", "a.csv", strings.Repeat("1,q,a\n", 100), Options{MaxBytes: 50}, ErrTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read(ctx, tt.file, strings.NewReader(tt.input), tt.opts)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v, want %v", err, tt.want)
		})
	}
}

func TestRead_CorruptWorkbook(t *testing.T) {
	for _, engine := range []Engine{EngineExcelize, EngineStream} {
		_, err := Read(context.Background(), "bad.xlsx", strings.NewReader("not a zip"), Options{Engine: engine})
		assert.Error(t, err, "engine %s", engine)
	}
}

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "list.xlsx")
	require.NoError(t, os.WriteFile(path, buildWorkbook(t, [][]any{{"No", "Q", "A"}, {1, "q", "a"}}), 0o600))

	got, err := ReadFile(context.Background(), path, Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "q", "a"}, got[1])
}

func TestParseEngine(t *testing.T) {
	for in, want := range map[string]Engine{"": EngineExcelize, "excelize": EngineExcelize, "STREAM": EngineStream, "xlsxreader": EngineStream} {
		got, err := ParseEngine(in)
		require.NoError(t, err)
		assert.Equal(t, want, got, "ParseEngine(%q)", in)
	}
	_, err := ParseEngine("pandas")
	assert.Error(t, err)
}
