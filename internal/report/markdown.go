package report

import (
	"fmt"
	"strings"
)

func escapeMarkdownCell(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return ""
	}
	v = strings.ReplaceAll(v, "\\", "\\\\")
	v = strings.ReplaceAll(v, "|", "\\|")
	v = strings.ReplaceAll(v, "\n", " ")
	return v
}

func validationMarkdown(v Validation, limit int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Validation: %s\n\n", escapeMarkdownCell(v.Source))

	if v.Valid {
		s := v.Summary
		b.WriteString("| Questions | Min ID | Max ID |\n")
		b.WriteString("| ---: | ---: | ---: |\n")
		fmt.Fprintf(&b, "| %d | %d | %d |\n", s.Rows, s.MinID, s.MaxID)
		return b.String()
	}

	if v.Error != nil {
		fmt.Fprintf(&b, "**%s** (`%s`)\n\n", v.Error.Message, v.Error.Code)
	}
	if len(v.Diagnostics) == 0 {
		return b.String()
	}
	b.WriteString("| Kind | Column | Rows | Problem | Hint |\n")
	b.WriteString("| --- | --- | --- | --- | --- |\n")
	for _, d := range v.Diagnostics {
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s |\n",
			d.Kind,
			escapeMarkdownCell(d.Column),
			d.RowSummary(limit),
			escapeMarkdownCell(d.Message),
			escapeMarkdownCell(d.Hint),
		)
	}
	return b.String()
}

func selectionMarkdown(s Selection) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Selection: %s\n\n", escapeMarkdownCell(s.Source))
	fmt.Fprintf(&b, "Range %d-%d, %d questions, order `%s`", s.Params.Start, s.Params.End, len(s.Items), s.Params.Order)
	if s.Params.Filter != "" {
		fmt.Fprintf(&b, ", filter `%s`", s.Params.Filter)
	}
	b.WriteString("\n\n")

	b.WriteString("| ID | Question | Answer |\n")
	b.WriteString("| ---: | --- | --- |\n")
	for _, it := range s.Items {
		fmt.Fprintf(&b, "| %d | %s | %s |\n", it.ID, escapeMarkdownCell(it.Question), escapeMarkdownCell(it.Answer))
	}
	return b.String()
}
