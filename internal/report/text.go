package report

import (
	"fmt"
	"strings"
	"text/tabwriter"
)

func validationText(v Validation, limit int) string {
	var b strings.Builder
	if v.Valid {
		s := v.Summary
		fmt.Fprintf(&b, "OK  %s\n", v.Source)
		fmt.Fprintf(&b, "  questions: %d (ids %d-%d)\n", s.Rows, s.MinID, s.MaxID)
		if len(s.Header) > 0 {
			fmt.Fprintf(&b, "  header:    %s\n", strings.Join(s.Header, " | "))
		}
		fmt.Fprintf(&b, "  defaults:  %s\n", s.Defaults)
		return b.String()
	}

	fmt.Fprintf(&b, "FAIL  %s\n", v.Source)
	if v.Error != nil {
		fmt.Fprintf(&b, "  %s (Code: %s)\n", v.Error.Message, v.Error.Code)
	}
	for _, d := range v.Diagnostics {
		b.WriteString("  - ")
		if d.Column != "" {
			fmt.Fprintf(&b, "[%s] ", d.Column)
		}
		b.WriteString(d.Message)
		b.WriteString("\n")
		if len(d.Rows) > 0 {
			fmt.Fprintf(&b, "    rows: %s\n", d.RowSummary(limit))
		}
		if d.Hint != "" {
			fmt.Fprintf(&b, "    hint: %s\n", d.Hint)
		}
	}
	if v.Error != nil && v.Error.Action != "" && len(v.Diagnostics) == 0 {
		fmt.Fprintf(&b, "  %s\n", v.Error.Action)
	}
	return b.String()
}

func selectionText(s Selection) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %d questions (%s)\n", s.Source, len(s.Items), s.Params)
	if s.Filename != "" {
		fmt.Fprintf(&b, "written to %s\n", s.Filename)
	}

	tw := tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tQUESTION\tANSWER")
	for _, it := range s.Items {
		fmt.Fprintf(tw, "%d\t%s\t%s\n", it.ID, oneLine(it.Question), oneLine(it.Answer))
	}
	tw.Flush()
	return b.String()
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// ProblemLines renders capped problems one per line for plain-text
// error responses.
func ProblemLines(problems []Problem) []string {
	out := make([]string, 0, len(problems))
	for _, p := range problems {
		line := p.Message
		if p.RowText != "" {
			line += " (rows " + p.RowText + ")"
		}
		out = append(out, line)
	}
	return out
}
