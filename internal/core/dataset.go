package core

import (
	"context"
	"slices"
)

// Dataset is a validated question list. It is immutable once returned by
// Prepare; selections never modify it.
type Dataset struct {
	Source string   // Uploaded file name, used for the sheet title
	Header []string // Normalized header row
	Items  []Item   // Rows in spreadsheet order
	MinID  int
	MaxID  int
}

// Prepare runs normalization, sequence validation and completeness
// validation over a raw table and builds a Dataset.
func Prepare(ctx context.Context, source string, raw Table, opts ValidateOptions) (*Dataset, error) {
	t := Normalize(raw, NormalizeOptions{FoldWidth: opts.FoldWidth})
	t = TrimTrailing(t)

	ids, err := CheckSequence(t, opts.Mode)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := CheckCompleteness(t, opts.RequireAnswer); err != nil {
		return nil, err
	}

	items := make([]Item, len(t.Rows))
	for i := range t.Rows {
		it := Item{
			Line:     i + LineOffset,
			ID:       ids[i],
			Question: t.Cell(i, ColQuestion),
			Answer:   t.Cell(i, ColAnswer),
		}
		if row := t.Rows[i]; len(row) > ColAnswer+1 {
			it.Extra = slices.Clone(row[ColAnswer+1:])
		}
		items[i] = it
	}

	return &Dataset{
		Source: source,
		Header: t.Header,
		Items:  items,
		MinID:  slices.Min(ids),
		MaxID:  slices.Max(ids),
	}, nil
}

// Len returns the number of questions.
func (d *Dataset) Len() int { return len(d.Items) }

// QuestionTitle returns the header of the question column.
func (d *Dataset) QuestionTitle() string {
	return Table{Header: d.Header}.ColumnTitle(ColQuestion, fallbackQuestionTitle)
}

// AnswerTitle returns the header of the answer column.
func (d *Dataset) AnswerTitle() string {
	return Table{Header: d.Header}.ColumnTitle(ColAnswer, fallbackAnswerTitle)
}

// IDTitle returns the header of the identifier column.
func (d *Dataset) IDTitle() string {
	return Table{Header: d.Header}.ColumnTitle(ColID, fallbackIDTitle)
}

// Available counts the items whose identifier lies in [start, end].
func (d *Dataset) Available(start, end int) int {
	return len(InRange(d.Items, start, end))
}

// Defaults returns the parameters a form starts with: the full identifier
// range, defaultCount questions (capped at the list size) and ascending order.
func (d *Dataset) Defaults(defaultCount int) SelectParams {
	return SelectParams{
		Start: d.MinID,
		End:   d.MaxID,
		Count: min(max(defaultCount, 1), d.Len()),
		Order: OrderAscending,
	}
}

// Clamp pulls p into the bounds a selection form enforces: start into
// [MinID, MaxID], end into [start, MaxID] and count into [1, available].
// The filter is not applied when counting what is available.
func (d *Dataset) Clamp(p SelectParams) SelectParams {
	p.Start = ClampInt(p.Start, d.MinID, d.MaxID)
	p.End = ClampInt(p.End, p.Start, d.MaxID)
	p.Count = ClampInt(p.Count, 1, max(d.Available(p.Start, p.End), 1))
	if p.Order == "" {
		p.Order = OrderAscending
	}
	return p
}

// ClampInt limits v to [lo, hi]. When lo > hi, lo wins.
func ClampInt(v, lo, hi int) int {
	if v > hi {
		v = hi
	}
	if v < lo {
		v = lo
	}
	return v
}
