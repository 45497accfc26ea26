// Package report renders validation outcomes and selections for terminals
// and machine consumers.
//
// Four formats are supported: plain text, indented JSON, TOON and Markdown.
// Every format applies the same row display cap, so a list with hundreds of
// broken rows prints the first few and a count of the rest.
package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/JonMunkholm/testsheet/internal/core"
	toon "github.com/mateuszkardas/toon-go"
)

// Format names an output encoding.
type Format string

const (
	FormatText     Format = "text"
	FormatJSON     Format = "json"
	FormatTOON     Format = "toon"
	FormatMarkdown Format = "markdown"
)

// Formats lists the accepted format names in help order.
var Formats = []Format{FormatText, FormatJSON, FormatTOON, FormatMarkdown}

// ParseFormat parses a format name. An empty string yields FormatText.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text", "txt":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	case "toon":
		return FormatTOON, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf("unknown report format %q (use text, json, toon or markdown)", s)
	}
}

// Summary describes a question list that passed validation.
type Summary struct {
	Rows     int               `json:"rows"`
	MinID    int               `json:"min_id"`
	MaxID    int               `json:"max_id"`
	Header   []string          `json:"header"`
	Defaults core.SelectParams `json:"defaults"`
}

// Validation is the outcome of loading one file.
type Validation struct {
	Source      string            `json:"source"`
	Valid       bool              `json:"valid"`
	Summary     *Summary          `json:"summary,omitempty"`
	Diagnostics []core.Diagnostic `json:"diagnostics,omitempty"`
	Error       *core.UserMessage `json:"error,omitempty"`
}

// NewValidation builds a Validation from the result of core.Service.Load.
// defaults is ignored when err is non-nil.
func NewValidation(source string, ds *core.Dataset, defaults core.SelectParams, err error) Validation {
	v := Validation{Source: core.SourceTitle(source)}
	if err != nil {
		msg := core.MapError(err)
		v.Error = &msg
		v.Diagnostics = core.Diagnose(err)
		return v
	}
	v.Valid = true
	v.Summary = &Summary{
		Rows:     ds.Len(),
		MinID:    ds.MinID,
		MaxID:    ds.MaxID,
		Header:   ds.Header,
		Defaults: defaults,
	}
	return v
}

// Selection is a set of rows chosen for a test sheet.
type Selection struct {
	Source   string            `json:"source"`
	Params   core.SelectParams `json:"params"`
	Items    []core.Item       `json:"items"`
	Filename string            `json:"filename,omitempty"`
}

// Renderer writes reports in one format.
type Renderer struct {
	Format   Format
	RowLimit int // Rows listed per diagnostic; <= 0 lists all
}

// New returns a renderer with the default row cap.
func New(format Format) *Renderer {
	return &Renderer{Format: format, RowLimit: core.DefaultRowDisplayLimit}
}

var errUnknownFormat = errors.New("unknown report format")

// WriteValidation renders v to w.
func (r *Renderer) WriteValidation(w io.Writer, v Validation) error {
	switch r.Format {
	case FormatText, "":
		return writeText(w, validationText(v, r.RowLimit))
	case FormatJSON:
		return writeJSON(w, r.validationPayload(v))
	case FormatTOON:
		return writeTOON(w, r.validationPayload(v))
	case FormatMarkdown:
		return writeText(w, validationMarkdown(v, r.RowLimit))
	default:
		return fmt.Errorf("%w %q", errUnknownFormat, r.Format)
	}
}

// WriteSelection renders s to w.
func (r *Renderer) WriteSelection(w io.Writer, s Selection) error {
	switch r.Format {
	case FormatText, "":
		return writeText(w, selectionText(s))
	case FormatJSON:
		return writeJSON(w, s)
	case FormatTOON:
		return writeTOON(w, selectionPayload(s))
	case FormatMarkdown:
		return writeText(w, selectionMarkdown(s))
	default:
		return fmt.Errorf("%w %q", errUnknownFormat, r.Format)
	}
}

func writeText(w io.Writer, s string) error {
	_, err := io.WriteString(w, s)
	return err
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

func writeTOON(w io.Writer, payload map[string]interface{}) error {
	out, err := toon.Marshal(payload, nil)
	if err != nil {
		return fmt.Errorf("encode toon: %w", err)
	}
	if !strings.HasSuffix(out, "\n") {
		out += "\n"
	}
	return writeText(w, out)
}

// Problem is a Diagnostic with its row list capped for display.
type Problem struct {
	Kind     core.DiagnosticKind `json:"kind"`
	Column   string              `json:"column,omitempty"`
	Rows     []int               `json:"rows,omitempty"`
	MoreRows int                 `json:"more_rows,omitempty"`
	RowText  string              `json:"row_text,omitempty"` // e.g. "2, 3 … and 4 more"
	Message  string              `json:"message"`
	Hint     string              `json:"hint,omitempty"`
}

// Problems caps every diagnostic's rows at limit.
func Problems(diags []core.Diagnostic, limit int) []Problem {
	out := make([]Problem, len(diags))
	for i, d := range diags {
		shown, more := capRows(d.Rows, limit)
		out[i] = Problem{
			Kind:     d.Kind,
			Column:   d.Column,
			Rows:     shown,
			MoreRows: more,
			Message:  d.Message,
			Hint:     d.Hint,
		}
		if len(d.Rows) > 0 {
			out[i].RowText = d.RowSummary(limit)
		}
	}
	return out
}

// capRows returns at most limit rows and the number left out.
func capRows(rows []int, limit int) ([]int, int) {
	if limit <= 0 || len(rows) <= limit {
		return rows, 0
	}
	return rows[:limit], len(rows) - limit
}

// validationPayload is the structured form shared by JSON and TOON. Row
// lists are capped and the remainder is reported as "more_rows".
func (r *Renderer) validationPayload(v Validation) map[string]interface{} {
	payload := map[string]interface{}{
		"source": v.Source,
		"valid":  v.Valid,
	}
	if v.Summary != nil {
		payload["summary"] = map[string]interface{}{
			"rows":   v.Summary.Rows,
			"min_id": v.Summary.MinID,
			"max_id": v.Summary.MaxID,
			"header": v.Summary.Header,
			"defaults": map[string]interface{}{
				"start": v.Summary.Defaults.Start,
				"end":   v.Summary.Defaults.End,
				"count": v.Summary.Defaults.Count,
				"order": string(v.Summary.Defaults.Order),
			},
		}
	}
	if v.Error != nil {
		payload["error"] = map[string]interface{}{
			"code":    v.Error.Code,
			"message": v.Error.Message,
			"action":  v.Error.Action,
		}
	}
	if len(v.Diagnostics) > 0 {
		diags := make([]map[string]interface{}, 0, len(v.Diagnostics))
		for _, p := range Problems(v.Diagnostics, r.RowLimit) {
			entry := map[string]interface{}{
				"kind":    string(p.Kind),
				"column":  p.Column,
				"message": p.Message,
				"hint":    p.Hint,
				"rows":    p.Rows,
			}
			if p.MoreRows > 0 {
				entry["more_rows"] = p.MoreRows
			}
			diags = append(diags, entry)
		}
		payload["diagnostics"] = diags
	}
	return payload
}

func selectionPayload(s Selection) map[string]interface{} {
	items := make([]map[string]interface{}, 0, len(s.Items))
	for _, it := range s.Items {
		items = append(items, map[string]interface{}{
			"id":       it.ID,
			"line":     it.Line,
			"question": it.Question,
			"answer":   it.Answer,
		})
	}
	payload := map[string]interface{}{
		"source": s.Source,
		"params": map[string]interface{}{
			"start":  s.Params.Start,
			"end":    s.Params.End,
			"count":  s.Params.Count,
			"order":  string(s.Params.Order),
			"filter": s.Params.Filter,
		},
		"items": items,
	}
	if s.Filename != "" {
		payload["filename"] = s.Filename
	}
	return payload
}
