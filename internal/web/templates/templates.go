// Package templates holds the HTML views of the web UI as templ components.
package templates

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/JonMunkholm/testsheet/internal/core"
	"github.com/JonMunkholm/testsheet/internal/report"
	"github.com/a-h/templ"
)

// PageData is what the upload page needs to render its form.
type PageData struct {
	MaxFileSizeMB   int64
	RowsPerBlock    int
	MinRowsPerBlock int
	MaxRowsPerBlock int
	DefaultCount    int
}

// esc is shorthand for templ's HTML escaper.
func esc(s string) string { return templ.EscapeString(s) }

// write renders chunks in order, stopping at the first error.
func write(w io.Writer, chunks ...string) error {
	for _, c := range chunks {
		if _, err := io.WriteString(w, c); err != nil {
			return err
		}
	}
	return nil
}

// Layout wraps body in the page shell.
func Layout(title string, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if err := write(w,
			`<!DOCTYPE html><html lang="ja"><head><meta charset="utf-8">`,
			`<meta name="viewport" content="width=device-width, initial-scale=1">`,
			`<title>`, esc(title), `</title>`,
			`<script src="https://unpkg.com/htmx.org@1.9.12"></script>`,
			`</head><body><main class="container">`,
		); err != nil {
			return err
		}
		if err := body.Render(ctx, w); err != nil {
			return err
		}
		return write(w, `</main></body></html>`)
	})
}

// UploadPage is the single-page generator: upload, validate, preview and download.
func UploadPage(d PageData) templ.Component {
	form := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return write(w,
			`<h1>テスト作成</h1>`,
			`<p>1列目: 問題番号 / 2列目: 問題 / 3列目: 解答 (.xlsx または .csv、最大 `, fmt.Sprint(d.MaxFileSizeMB), `MB)</p>`,
			`<p><a href="/api/template">テンプレート</a> | <a href="/api/sample">サンプルデータ</a></p>`,
			`<form id="generate" method="post" action="/api/generate" enctype="multipart/form-data">`,
			`<input type="file" name="file" accept=".xlsx,.xlsm,.csv" required `,
			`hx-post="/api/validate" hx-encoding="multipart/form-data" hx-trigger="change" hx-target="#result">`,
			`<fieldset><legend>出題範囲</legend>`,
			`<label>開始 <input type="number" name="start" min="1"></label>`,
			`<label>終了 <input type="number" name="end" min="1"></label>`,
			`<label>問題数 <input type="number" name="count" min="1" value="`, fmt.Sprint(d.DefaultCount), `"></label>`,
			`</fieldset>`,
			`<fieldset><legend>出力</legend>`,
			`<label>1列の行数 <input type="number" name="rows_per_block" min="`, fmt.Sprint(d.MinRowsPerBlock),
			`" max="`, fmt.Sprint(d.MaxRowsPerBlock), `" value="`, fmt.Sprint(d.RowsPerBlock), `"></label>`,
			`<label>順番 <select name="order">`,
			`<option value="asc">昇順</option><option value="desc">降順</option><option value="random">ランダム</option>`,
			`</select></label>`,
			`<label>形式 <select name="format"><option value="booklet">問題用紙 + 解答</option><option value="simple">シンプル</option></select></label>`,
			`<label>条件式 <input type="text" name="filter" placeholder="len(answer) &lt;= 20"></label>`,
			`</fieldset>`,
			`<button type="button" hx-post="/api/preview" hx-encoding="multipart/form-data" hx-target="#result">プレビュー</button> `,
			`<button type="submit">テスト作成</button>`,
			`</form><div id="result"></div>`,
		)
	})
	return Layout("テスト作成", form)
}

// ErrorAlert is an HTMX fragment describing a failed request.
func ErrorAlert(message, action, code string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return write(w,
			`<div class="alert alert-error" role="alert"><strong>`, esc(message), `</strong>`,
			`<p>`, esc(action), `</p><small>Code: `, esc(code), `</small></div>`,
		)
	})
}

// ProblemList renders capped diagnostics as a list.
func ProblemList(problems []report.Problem) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if len(problems) == 0 {
			return nil
		}
		if err := write(w, `<ul class="problems">`); err != nil {
			return err
		}
		for _, p := range problems {
			var b strings.Builder
			b.WriteString(`<li>`)
			if p.Column != "" {
				b.WriteString(`<code>` + esc(p.Column) + `</code> `)
			}
			b.WriteString(esc(p.Message))
			if p.RowText != "" {
				b.WriteString(`<br><small>行: ` + esc(p.RowText) + `</small>`)
			}
			if p.Hint != "" {
				b.WriteString(`<br><em>` + esc(p.Hint) + `</em>`)
			}
			b.WriteString(`</li>`)
			if err := write(w, b.String()); err != nil {
				return err
			}
		}
		return write(w, `</ul>`)
	})
}

// ValidationResult is the fragment shown after a file is chosen. On success
// it also fills the range inputs through hx-swap-oob.
func ValidationResult(v report.Validation, rowLimit int) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if !v.Valid {
			msg := core.UserMessage{Message: "The file could not be used"}
			if v.Error != nil {
				msg = *v.Error
			}
			if err := ErrorAlert(msg.Message, msg.Action, msg.Code).Render(ctx, w); err != nil {
				return err
			}
			return ProblemList(report.Problems(v.Diagnostics, rowLimit)).Render(ctx, w)
		}
		s := v.Summary
		return write(w,
			`<div class="alert alert-ok"><strong>`, esc(v.Source), `</strong>: `,
			fmt.Sprint(s.Rows), ` 問 (No. `, fmt.Sprint(s.MinID), `-`, fmt.Sprint(s.MaxID), `)</div>`,
			`<input type="number" name="start" min="`, fmt.Sprint(s.MinID), `" max="`, fmt.Sprint(s.MaxID),
			`" value="`, fmt.Sprint(s.Defaults.Start), `" hx-swap-oob="outerHTML:[name=start]">`,
			`<input type="number" name="end" min="`, fmt.Sprint(s.MinID), `" max="`, fmt.Sprint(s.MaxID),
			`" value="`, fmt.Sprint(s.Defaults.End), `" hx-swap-oob="outerHTML:[name=end]">`,
		)
	})
}

// PreviewTable lists the rows a generation would contain.
func PreviewTable(items []core.Item, params core.SelectParams) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if err := write(w,
			`<p>`, esc(params.String()), `</p>`,
			`<table class="preview"><thead><tr><th>No.</th><th>問題</th><th>解答</th></tr></thead><tbody>`,
		); err != nil {
			return err
		}
		for _, it := range items {
			if err := write(w,
				`<tr><td>`, fmt.Sprint(it.ID), `</td><td>`, esc(it.Question), `</td><td>`, esc(it.Answer), `</td></tr>`,
			); err != nil {
				return err
			}
		}
		return write(w, `</tbody></table>`)
	})
}
