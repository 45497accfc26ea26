package core

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestPrepare(t *testing.T) {
	raw := Table{
		Header: []string{" 問題No ", "問題", "解答", "品詞"},
		Rows: [][]string{
			{"2", " cat ", "猫", "noun"},
			{" 1 ", "dog", "犬"},
			{"3", "run", "走る", "verb"},
			{"", "", ""},
			{"", "memo", ""},
		},
	}

	ds, err := Prepare(context.Background(), "words.xlsx", raw, DefaultValidateOptions())
	if err != nil {
		t.Fatalf("Prepare error = %v", err)
	}

	want := []Item{
		{Line: 2, ID: 2, Question: "cat", Answer: "猫", Extra: []string{"noun"}},
		{Line: 3, ID: 1, Question: "dog", Answer: "犬"},
		{Line: 4, ID: 3, Question: "run", Answer: "走る", Extra: []string{"verb"}},
	}
	if diff := cmp.Diff(want, ds.Items); diff != "" {
		t.Errorf("items mismatch (-want +got):\n%s", diff)
	}
	if ds.MinID != 1 || ds.MaxID != 3 || ds.Len() != 3 {
		t.Errorf("dataset bounds = (%d, %d, %d), want (1, 3, 3)", ds.MinID, ds.MaxID, ds.Len())
	}
	if ds.IDTitle() != "問題No" || ds.QuestionTitle() != "問題" || ds.AnswerTitle() != "解答" {
		t.Errorf("titles = %q %q %q", ds.IDTitle(), ds.QuestionTitle(), ds.AnswerTitle())
	}
}

func TestPrepare_FoldWidth(t *testing.T) {
	raw := Table{Header: []string{"No", "Q", "A"}, Rows: [][]string{{"１", "q", "a"}, {"２", "q", "a"}}}

	if _, err := Prepare(context.Background(), "x.csv", raw, DefaultValidateOptions()); !errors.Is(err, ErrFormat) {
		t.Errorf("without folding got %v, want ErrFormat", err)
	}

	opts := DefaultValidateOptions()
	opts.FoldWidth = true
	if _, err := Prepare(context.Background(), "x.csv", raw, opts); err != nil {
		t.Errorf("with folding got %v, want nil", err)
	}
}

func TestPrepare_StopsAtFirstFailingStage(t *testing.T) {
	raw := Table{Header: []string{"No", "Q", "A"}, Rows: [][]string{{"1", "", ""}, {"3", "q", "a"}}}
	_, err := Prepare(context.Background(), "x.csv", raw, DefaultValidateOptions())
	if !errors.Is(err, ErrSequence) {
		t.Errorf("got %v, want ErrSequence before completeness is checked", err)
	}
}

func TestPrepare_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Prepare(ctx, "x.csv", numbered("1", "2"), DefaultValidateOptions())
	if !errors.Is(err, context.Canceled) {
		t.Errorf("got %v, want context.Canceled", err)
	}
}

func TestDataset_DefaultsAndClamp(t *testing.T) {
	ds, err := Prepare(context.Background(), "x.csv", numbered("1", "2", "3", "4", "5", "6"), DefaultValidateOptions())
	if err != nil {
		t.Fatal(err)
	}

	if got, want := ds.Defaults(10), (SelectParams{Start: 1, End: 6, Count: 6, Order: OrderAscending}); got != want {
		t.Errorf("Defaults(10) = %+v, want %+v", got, want)
	}
	if got := ds.Defaults(0).Count; got != 1 {
		t.Errorf("Defaults(0).Count = %d, want 1", got)
	}

	tests := []struct {
		name string
		in   SelectParams
		want SelectParams
	}{
		{"in bounds", SelectParams{Start: 2, End: 5, Count: 3, Order: OrderDescending}, SelectParams{Start: 2, End: 5, Count: 3, Order: OrderDescending}},
		{"start below min", SelectParams{Start: -4, End: 6, Count: 2}, SelectParams{Start: 1, End: 6, Count: 2, Order: OrderAscending}},
		{"end before start", SelectParams{Start: 5, End: 2, Count: 1}, SelectParams{Start: 5, End: 5, Count: 1, Order: OrderAscending}},
		{"count above available", SelectParams{Start: 3, End: 4, Count: 9}, SelectParams{Start: 3, End: 4, Count: 2, Order: OrderAscending}},
		{"count below one", SelectParams{Start: 1, End: 6, Count: 0}, SelectParams{Start: 1, End: 6, Count: 1, Order: OrderAscending}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ds.Clamp(tt.in); got != tt.want {
				t.Errorf("Clamp(%+v) = %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}
}
