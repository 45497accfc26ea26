package sheet

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// Plain is a single-sheet table: one bold header row followed by data rows
// starting at A1. It backs the simple export and the downloadable templates.
type Plain struct {
	Name    string
	Columns []Column
	Rows    [][]any
}

// WritePlain encodes t as a one-sheet workbook.
func WritePlain(w io.Writer, t Plain, widths Widths) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := addSheet(f, 0, t.Name); err != nil {
		return err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create styles: %w", err)
	}

	if len(t.Rows) >= MaxRows {
		return fmt.Errorf("%d rows exceed the worksheet limit of %d", len(t.Rows), MaxRows-1)
	}

	for c, col := range t.Columns {
		if err := setCell(f, t.Name, Position{Row: 0, Col: c}, col.Title, bold); err != nil {
			return err
		}
		if err := setWidth(f, t.Name, c, widths.Width(col.Kind)); err != nil {
			return err
		}
	}
	for r, row := range t.Rows {
		for c, v := range row {
			if v == nil {
				continue
			}
			ref, err := cellRef(Position{Row: r + 1, Col: c})
			if err != nil {
				return err
			}
			if err := f.SetCellValue(t.Name, ref, v); err != nil {
				return err
			}
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
