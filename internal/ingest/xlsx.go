package ingest

import (
	"context"
	"fmt"
	"io"

	"github.com/thedatashed/xlsxreader"
	"github.com/xuri/excelize/v2"
)

// readXLSX reads the first worksheet with excelize. Raw cell values are used
// so a number formatted as "001" or "1.0" still reads as its stored value.
func readXLSX(ctx context.Context, r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoWorksheets
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	return rows, nil
}

// readXLSXStream reads the first worksheet with xlsxreader. Its rows are
// sparse: empty rows are skipped and empty cells omitted, so both are put
// back by index here.
func readXLSXStream(ctx context.Context, data []byte) ([][]string, error) {
	xl, err := xlsxreader.NewReader(data)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	if len(xl.Sheets) == 0 {
		return nil, ErrNoWorksheets
	}

	var (
		records [][]string
		readErr error
	)
	// The channel must be drained so the reader goroutine can exit.
	for row := range xl.ReadRows(xl.Sheets[0]) {
		if readErr != nil {
			continue
		}
		if row.Error != nil {
			readErr = fmt.Errorf("read sheet %q: %w", xl.Sheets[0], row.Error)
			continue
		}
		if err := ctx.Err(); err != nil {
			readErr = err
			continue
		}

		// Row.Index is 1-based.
		for len(records) < row.Index-1 {
			records = append(records, nil)
		}
		records = append(records, expandCells(row.Cells))
	}
	if readErr != nil {
		return nil, readErr
	}
	return records, nil
}

func expandCells(cells []xlsxreader.Cell) []string {
	width := 0
	for _, c := range cells {
		width = max(width, c.ColumnIndex()+1)
	}
	out := make([]string, width)
	for _, c := range cells {
		out[c.ColumnIndex()] = c.Value
	}
	return out
}
