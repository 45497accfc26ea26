package sheet

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"
)

// defaultSheet is the sheet excelize.NewFile creates.
const defaultSheet = "Sheet1"

// ColumnKind decides the width of a column.
type ColumnKind int

const (
	ColumnID ColumnKind = iota
	ColumnQuestion
	ColumnAnswer
	ColumnAnswerSpace // blank column the student writes in
	ColumnExtra
)

// Column is one column of a block.
type Column struct {
	Title string
	Kind  ColumnKind
}

// Sheet is a logical worksheet: a column set and one value row per item.
type Sheet struct {
	Name    string
	Columns []Column
	Rows    [][]any
}

// Document is everything needed to build a test-sheet workbook.
type Document struct {
	Title   string    // Source name shown in the title line
	Date    time.Time // Shown in the info line
	Layout  Layout
	Profile Profile
	Sheets  []Sheet
}

// Width returns the configured width for a column kind.
func (w Widths) Width(kind ColumnKind) float64 {
	switch kind {
	case ColumnID:
		return w.ID
	case ColumnQuestion:
		return w.Question
	case ColumnAnswer, ColumnAnswerSpace:
		return w.Answer
	default:
		return w.Extra
	}
}

type styles struct {
	title  int
	info   int
	header int
	data   int
}

func newStyles(f *excelize.File, p Profile) (styles, error) {
	var st styles
	var err error

	border := []excelize.Border{
		{Type: "left", Color: "000000", Style: 1},
		{Type: "top", Color: "000000", Style: 1},
		{Type: "right", Color: "000000", Style: 1},
		{Type: "bottom", Color: "000000", Style: 1},
	}

	if st.title, err = f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: p.TitleFontSize},
	}); err != nil {
		return st, err
	}
	if st.info, err = f.NewStyle(&excelize.Style{
		Border: []excelize.Border{{Type: "bottom", Color: "000000", Style: 1}},
	}); err != nil {
		return st, err
	}
	if st.header, err = f.NewStyle(&excelize.Style{
		Border:    border,
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{p.HeaderFill}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	}); err != nil {
		return st, err
	}
	if st.data, err = f.NewStyle(&excelize.Style{
		Border:    border,
		Alignment: &excelize.Alignment{Horizontal: "left", Vertical: "center", WrapText: true},
	}); err != nil {
		return st, err
	}
	return st, nil
}

// ErrTooWide reports blocks that would run past the last worksheet column.
var ErrTooWide = errors.New("blocks extend past the last worksheet column")

// cellRef converts a 0-based position to an A1 reference.
func cellRef(p Position) (string, error) {
	if p.Col >= MaxColumns {
		return "", fmt.Errorf("column %d: %w", p.Col+1, ErrTooWide)
	}
	return excelize.CoordinatesToCellName(p.Col+1, p.Row+1)
}

func colName(col int) (string, error) {
	if col >= MaxColumns {
		return "", fmt.Errorf("column %d: %w", col+1, ErrTooWide)
	}
	return excelize.ColumnNumberToName(col + 1)
}

// Build assembles the workbook. The caller owns the returned file and must
// Close it.
func Build(doc Document) (*excelize.File, error) {
	if len(doc.Sheets) == 0 {
		return nil, errors.New("document has no sheets")
	}
	if doc.Layout.RowsPerBlock <= 0 {
		doc.Layout = NewLayout(doc.Layout.RowsPerBlock)
	}

	for _, s := range doc.Sheets {
		if span := doc.Layout.Span(len(s.Rows), len(s.Columns)); span > MaxColumns {
			return nil, fmt.Errorf("sheet %q needs %d columns, limit %d: %w", s.Name, span, MaxColumns, ErrTooWide)
		}
	}

	f := excelize.NewFile()
	st, err := newStyles(f, doc.Profile)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("create styles: %w", err)
	}

	for i, s := range doc.Sheets {
		if err := addSheet(f, i, s.Name); err != nil {
			f.Close()
			return nil, err
		}
		if err := writeSheet(f, st, doc, s); err != nil {
			f.Close()
			return nil, fmt.Errorf("write sheet %q: %w", s.Name, err)
		}
	}
	f.SetActiveSheet(0)
	return f, nil
}

// addSheet renames the default sheet for index 0 and appends the others.
func addSheet(f *excelize.File, index int, name string) error {
	if index == 0 {
		if name == defaultSheet {
			return nil
		}
		if err := f.SetSheetName(defaultSheet, name); err != nil {
			return fmt.Errorf("rename sheet to %q: %w", name, err)
		}
		return nil
	}
	if _, err := f.NewSheet(name); err != nil {
		return fmt.Errorf("add sheet %q: %w", name, err)
	}
	return nil
}

func writeSheet(f *excelize.File, st styles, doc Document, s Sheet) error {
	p := doc.Profile
	name := s.Name

	// Title and info lines sit in column B of rows 1 and 2.
	lines := []struct {
		row    int
		text   string
		style  int
		height float64
	}{
		{0, fmt.Sprintf(p.TitleFormat, doc.Title), st.title, p.Heights.Title},
		{1, fmt.Sprintf(p.InfoFormat, doc.Date.Format(p.DateLayout)), st.info, p.Heights.Info},
	}
	for _, ln := range lines {
		if err := setCell(f, name, Position{Row: ln.row, Col: doc.Layout.FirstCol}, ln.text, ln.style); err != nil {
			return err
		}
		if err := f.SetRowHeight(name, ln.row+1, ln.height); err != nil {
			return err
		}
	}

	for _, pl := range doc.Layout.Place(len(s.Rows), len(s.Columns)) {
		if pl.Header {
			origin := doc.Layout.BlockOrigin(pl.Block, len(s.Columns))
			for c, col := range s.Columns {
				at := Position{Row: origin.Row, Col: origin.Col + c}
				if err := setCell(f, name, at, col.Title, st.header); err != nil {
					return err
				}
				if err := setWidth(f, name, at.Col, p.Widths.Width(col.Kind)); err != nil {
					return err
				}
			}
		}

		row := s.Rows[pl.Index]
		for c := range s.Columns {
			var v any
			if c < len(row) {
				v = row[c]
			}
			if err := setCell(f, name, Position{Row: pl.Cell.Row, Col: pl.Cell.Col + c}, v, st.data); err != nil {
				return err
			}
		}
	}

	for r := range doc.Layout.DataRows(len(s.Rows)) {
		if err := f.SetRowHeight(name, doc.Layout.HeaderRow+2+r, p.Heights.Row); err != nil {
			return err
		}
	}

	return applyPrintSetup(f, name, p.Print)
}

// setCell writes v at p and styles the cell. A nil v leaves the cell empty
// but still styled.
func setCell(f *excelize.File, sheet string, p Position, v any, style int) error {
	ref, err := cellRef(p)
	if err != nil {
		return err
	}
	if v != nil {
		if err := f.SetCellValue(sheet, ref, v); err != nil {
			return err
		}
	}
	return f.SetCellStyle(sheet, ref, ref, style)
}

func setWidth(f *excelize.File, sheet string, col int, width float64) error {
	name, err := colName(col)
	if err != nil {
		return err
	}
	return f.SetColWidth(sheet, name, name, width)
}

func applyPrintSetup(f *excelize.File, sheet string, pr Print) error {
	size := pr.PaperSize
	orientation := pr.Orientation
	if err := f.SetPageLayout(sheet, &excelize.PageLayoutOptions{
		Size:        &size,
		Orientation: &orientation,
	}); err != nil {
		return fmt.Errorf("page layout: %w", err)
	}
	m := pr.Margin
	if err := f.SetPageMargins(sheet, &excelize.PageLayoutMarginsOptions{
		Top:    &m,
		Bottom: &m,
		Left:   &m,
		Right:  &m,
	}); err != nil {
		return fmt.Errorf("page margins: %w", err)
	}
	return nil
}

// Write builds the workbook and streams it to w.
func Write(w io.Writer, doc Document) error {
	f, err := Build(doc)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// Bytes builds the workbook and returns its encoded form.
func Bytes(doc Document) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(&buf, doc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
