package core

import (
	"fmt"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// Filter is a compiled row predicate such as `len(answer) <= 20` or
// `id % 2 == 0`. Expressions see the variables id, line, question, answer
// and extra.
type Filter struct {
	source  string
	program *vm.Program
}

// filterEnv is the variable set a filter expression is compiled against.
func filterEnv(it Item) map[string]any {
	extra := it.Extra
	if extra == nil {
		extra = []string{}
	}
	return map[string]any{
		"id":       it.ID,
		"line":     it.Line,
		"question": it.Question,
		"answer":   it.Answer,
		"extra":    extra,
	}
}

// CompileFilter compiles a filter expression. A blank source returns a nil
// Filter, which matches every item.
func CompileFilter(source string) (*Filter, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		return nil, nil
	}
	program, err := expr.Compile(source, expr.Env(filterEnv(Item{})), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("invalid filter expression %q: %w", source, err)
	}
	return &Filter{source: source, program: program}, nil
}

// String returns the expression source.
func (f *Filter) String() string {
	if f == nil {
		return ""
	}
	return f.source
}

// Match reports whether it satisfies the filter.
func (f *Filter) Match(it Item) (bool, error) {
	if f == nil {
		return true, nil
	}
	out, err := expr.Run(f.program, filterEnv(it))
	if err != nil {
		return false, fmt.Errorf("invalid filter expression %q on line %d: %w", f.source, it.Line, err)
	}
	ok, _ := out.(bool)
	return ok, nil
}

// Apply returns the items that satisfy the filter, in order.
func (f *Filter) Apply(items []Item) ([]Item, error) {
	if f == nil {
		return items, nil
	}
	var out []Item
	for _, it := range items {
		ok, err := f.Match(it)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, it)
		}
	}
	return out, nil
}
