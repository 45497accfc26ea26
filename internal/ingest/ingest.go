// Package ingest reads an uploaded question list into raw string records.
//
// Excel workbooks (.xlsx, .xlsm) are read from their first worksheet, either
// with excelize or, for the "stream" engine, with xlsxreader. CSV files are
// converted to UTF-8 first (from UTF-16 or Shift_JIS when that is what they
// hold) and then split by encoding/csv. The first returned record is the
// header row; no other interpretation is applied.
package ingest

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Sentinel errors. Their texts are matched by the user-facing error mapper.
var (
	ErrUnsupportedType = errors.New("unsupported file type")
	ErrEmptyFile       = errors.New("empty file")
	ErrNoWorksheets    = errors.New("no worksheets")
	ErrTooLarge        = errors.New("file too large")
	ErrEncoding        = errors.New("unrecognised text encoding")
)

// Kind is the detected file format.
type Kind string

const (
	KindXLSX Kind = "xlsx"
	KindCSV  Kind = "csv"
)

// Engine selects the .xlsx decoder.
type Engine string

const (
	EngineExcelize Engine = "excelize" // full workbook model
	EngineStream   Engine = "stream"   // xlsxreader, row channel
)

// ParseEngine parses an engine name. An empty string yields EngineExcelize.
func ParseEngine(s string) (Engine, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "excelize":
		return EngineExcelize, nil
	case "stream", "xlsxreader":
		return EngineStream, nil
	default:
		return "", fmt.Errorf("unknown ingest engine %q (use excelize or stream)", s)
	}
}

// Options controls Read.
type Options struct {
	Engine   Engine
	MaxBytes int64 // 0 disables the size check
}

// DetectKind maps a file name to its format by extension.
func DetectKind(name string) (Kind, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".xlsm":
		return KindXLSX, nil
	case ".csv":
		return KindCSV, nil
	default:
		return "", fmt.Errorf("%w %q (use .xlsx or .csv)", ErrUnsupportedType, filepath.Ext(name))
	}
}

// Read decodes r, whose format is taken from name.
func Read(ctx context.Context, name string, r io.Reader, opts Options) ([][]string, error) {
	kind, err := DetectKind(name)
	if err != nil {
		return nil, err
	}
	lr := newLimitReader(r, opts.MaxBytes)

	var records [][]string
	switch kind {
	case KindCSV:
		records, err = readCSV(ctx, lr)
	default:
		var data []byte
		data, err = io.ReadAll(lr)
		if err != nil {
			return nil, err
		}
		if len(data) == 0 {
			return nil, ErrEmptyFile
		}
		if opts.Engine == EngineStream {
			records, err = readXLSXStream(ctx, data)
		} else {
			records, err = readXLSX(ctx, bytes.NewReader(data))
		}
	}
	if err != nil {
		return nil, err
	}
	if isBlank(records) {
		return nil, ErrEmptyFile
	}
	return records, nil
}

// ReadFile opens path and reads it with Read.
func ReadFile(ctx context.Context, path string, opts Options) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Read(ctx, path, f, opts)
}

func readCSV(ctx context.Context, r io.Reader) ([][]string, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	text, err := decodeText(raw)
	if err != nil {
		return nil, err
	}

	cr := csv.NewReader(bytes.NewReader(text))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	var records [][]string
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			return records, nil
		}
		if err != nil {
			return nil, fmt.Errorf("parse csv: %w", err)
		}
		records = append(records, rec)
		if len(records)%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
	}
}

func isBlank(records [][]string) bool {
	for _, rec := range records {
		for _, v := range rec {
			if strings.TrimSpace(v) != "" {
				return false
			}
		}
	}
	return true
}
