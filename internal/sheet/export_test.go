package sheet

import (
	"bytes"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func testDocument(n int) Document {
	p := DefaultProfile()
	question := make([][]any, n)
	answer := make([][]any, n)
	for i := range n {
		question[i] = []any{i + 1, fmt.Sprintf("q%d", i+1), nil}
		answer[i] = []any{i + 1, fmt.Sprintf("q%d", i+1), fmt.Sprintf("a%d", i+1)}
	}
	return Document{
		Title:   "words",
		Date:    time.Date(2026, 10, 15, 9, 30, 0, 0, time.UTC),
		Layout:  NewLayout(25),
		Profile: p,
		Sheets: []Sheet{
			{
				Name: p.QuestionSheet,
				Columns: []Column{
					{Title: "No.", Kind: ColumnID},
					{Title: "問題", Kind: ColumnQuestion},
					{Title: p.AnswerSpaceLabel, Kind: ColumnAnswerSpace},
				},
				Rows: question,
			},
			{
				Name: p.AnswerSheet,
				Columns: []Column{
					{Title: "No.", Kind: ColumnID},
					{Title: "問題", Kind: ColumnQuestion},
					{Title: "解答", Kind: ColumnAnswer},
				},
				Rows: answer,
			},
		},
	}
}

func openWorkbook(t *testing.T, data []byte) *excelize.File {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })
	return f
}

func cell(t *testing.T, f *excelize.File, sheet, ref string) string {
	t.Helper()
	v, err := f.GetCellValue(sheet, ref)
	require.NoError(t, err)
	return v
}

func TestWrite_SheetsAndHeaderLines(t *testing.T) {
	data, err := Bytes(testDocument(3))
	require.NoError(t, err)
	f := openWorkbook(t, data)

	assert.Equal(t, []string{"問題用紙", "解答付(保存用)"}, f.GetSheetList())

	for _, name := range f.GetSheetList() {
		assert.Equal(t, "データ元: words", cell(t, f, name, "B1"))
		assert.Equal(t, "実施日: 2026/10/15　　氏名: ", cell(t, f, name, "B2"))
		assert.Empty(t, cell(t, f, name, "A1"))
	}
}

func TestWrite_BlocksTileRightward(t *testing.T) {
	data, err := Bytes(testDocument(30))
	require.NoError(t, err)
	f := openWorkbook(t, data)
	sheet := "解答付(保存用)"

	// Block 0 header on row 4, data rows 5..29.
	assert.Equal(t, "No.", cell(t, f, sheet, "B4"))
	assert.Equal(t, "問題", cell(t, f, sheet, "C4"))
	assert.Equal(t, "解答", cell(t, f, sheet, "D4"))
	assert.Equal(t, "1", cell(t, f, sheet, "B5"))
	assert.Equal(t, "a1", cell(t, f, sheet, "D5"))
	assert.Equal(t, "25", cell(t, f, sheet, "B29"))

	// Column E separates the blocks; block 1 starts at F.
	assert.Empty(t, cell(t, f, sheet, "E4"))
	assert.Empty(t, cell(t, f, sheet, "E5"))
	assert.Equal(t, "No.", cell(t, f, sheet, "F4"))
	assert.Equal(t, "26", cell(t, f, sheet, "F5"))
	assert.Equal(t, "q30", cell(t, f, sheet, "G9"))
	assert.Empty(t, cell(t, f, sheet, "F10"))
}

func TestWrite_AnswerSpaceIsBlank(t *testing.T) {
	data, err := Bytes(testDocument(2))
	require.NoError(t, err)
	f := openWorkbook(t, data)

	assert.Equal(t, "解答欄", cell(t, f, "問題用紙", "D4"))
	assert.Empty(t, cell(t, f, "問題用紙", "D5"))
	assert.Empty(t, cell(t, f, "問題用紙", "D6"))
	assert.Equal(t, "q2", cell(t, f, "問題用紙", "C6"))
}

func TestWrite_WidthsHeightsAndPrintSetup(t *testing.T) {
	data, err := Bytes(testDocument(30))
	require.NoError(t, err)
	f := openWorkbook(t, data)
	sheet := "問題用紙"

	for col, want := range map[string]float64{"B": 8, "C": 25, "D": 40, "F": 8, "H": 40} {
		w, err := f.GetColWidth(sheet, col)
		require.NoError(t, err)
		assert.InDelta(t, want, w, 0.5, "column %s", col)
	}

	for row, want := range map[int]float64{1: 25, 2: 20, 5: 25, 29: 25} {
		h, err := f.GetRowHeight(sheet, row)
		require.NoError(t, err)
		assert.InDelta(t, want, h, 0.5, "row %d", row)
	}

	layout, err := f.GetPageLayout(sheet)
	require.NoError(t, err)
	require.NotNil(t, layout.Size)
	require.NotNil(t, layout.Orientation)
	assert.Equal(t, 9, *layout.Size)
	assert.Equal(t, "landscape", *layout.Orientation)
}

func TestWrite_HeaderStyle(t *testing.T) {
	data, err := Bytes(testDocument(1))
	require.NoError(t, err)
	f := openWorkbook(t, data)

	idx, err := f.GetCellStyle("問題用紙", "B4")
	require.NoError(t, err)
	st, err := f.GetStyle(idx)
	require.NoError(t, err)
	require.NotNil(t, st.Font)
	assert.True(t, st.Font.Bold)
	require.NotNil(t, st.Alignment)
	assert.Equal(t, "center", st.Alignment.Horizontal)
	assert.Len(t, st.Border, 4)

	idx, err = f.GetCellStyle("問題用紙", "C5")
	require.NoError(t, err)
	st, err = f.GetStyle(idx)
	require.NoError(t, err)
	require.NotNil(t, st.Alignment)
	assert.True(t, st.Alignment.WrapText)
	assert.Equal(t, "left", st.Alignment.Horizontal)
}

func TestBuild_NoSheets(t *testing.T) {
	_, err := Build(Document{Profile: DefaultProfile()})
	require.Error(t, err)
}

func TestWritePlain(t *testing.T) {
	var buf bytes.Buffer
	err := WritePlain(&buf, Plain{
		Name: "Test",
		Columns: []Column{
			{Title: "問題No", Kind: ColumnID},
			{Title: "問題", Kind: ColumnQuestion},
			{Title: "解答", Kind: ColumnAnswer},
		},
		Rows: [][]any{{3, "dog", "犬"}, {7, "cat", nil}},
	}, DefaultProfile().Widths)
	require.NoError(t, err)

	f := openWorkbook(t, buf.Bytes())
	assert.Equal(t, []string{"Test"}, f.GetSheetList())

	rows, err := f.GetRows("Test")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"問題No", "問題", "解答"}, rows[0])
	assert.Equal(t, []string{"3", "dog", "犬"}, rows[1])
	assert.Equal(t, []string{"7", "cat"}, rows[2])
}

func TestBuild_RejectsBlocksPastLastColumn(t *testing.T) {
	doc := testDocument(0)
	doc.Layout = NewLayout(MinRowsPerBlock)
	limit := doc.Layout.Capacity(3, MaxColumns)
	for i := range doc.Sheets {
		doc.Sheets[i].Rows = make([][]any, limit+1)
		for r := range doc.Sheets[i].Rows {
			doc.Sheets[i].Rows[r] = []any{r + 1, "q", nil}
		}
	}

	f, err := Build(doc)
	assert.Nil(t, f)
	assert.ErrorIs(t, err, ErrTooWide)
}

func TestCellRef_OutOfRange(t *testing.T) {
	_, err := cellRef(Position{Row: 0, Col: MaxColumns})
	assert.ErrorIs(t, err, ErrTooWide)

	ref, err := cellRef(Position{Row: 3, Col: MaxColumns - 1})
	require.NoError(t, err)
	assert.Equal(t, "XFD4", ref)

	_, err = colName(MaxColumns)
	assert.ErrorIs(t, err, ErrTooWide)
}
