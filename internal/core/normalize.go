package core

import (
	"strings"
	"unicode"

	"golang.org/x/text/width"
)

// NormalizeOptions controls Normalize.
type NormalizeOptions struct {
	FoldWidth bool // Narrow full-width characters in the identifier column
}

// NormalizeCell trims leading and trailing runes for which unicode.IsSpace
// holds: ASCII spaces, the full-width space U+3000, and also tabs, line
// breaks and NBSP (U+00A0), which spreadsheet exports leave around cells.
// A cell holding nothing else becomes "".
func NormalizeCell(s string) string {
	return strings.TrimFunc(s, unicode.IsSpace)
}

// NormalizeIdentifier removes every whitespace rune from an identifier cell.
// With fold set, full-width digits and signs are narrowed first ("１２" -> "12").
func NormalizeIdentifier(s string, fold bool) string {
	if fold {
		s = width.Narrow.String(s)
	}
	if strings.IndexFunc(s, unicode.IsSpace) < 0 {
		return s
	}
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

// Normalize returns a cleaned copy of t. The source table is not modified
// and Normalize(Normalize(t)) equals Normalize(t).
func Normalize(t Table, opts NormalizeOptions) Table {
	out := Table{
		Header: make([]string, len(t.Header)),
		Rows:   make([][]string, len(t.Rows)),
	}
	for i, h := range t.Header {
		out.Header[i] = NormalizeCell(h)
	}
	for i, row := range t.Rows {
		clean := make([]string, len(row))
		for j, cell := range row {
			if j == ColID {
				clean[j] = NormalizeIdentifier(cell, opts.FoldWidth)
				continue
			}
			clean[j] = NormalizeCell(cell)
		}
		out.Rows[i] = clean
	}
	return out
}
