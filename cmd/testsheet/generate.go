package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/JonMunkholm/testsheet/internal/core"
	"github.com/JonMunkholm/testsheet/internal/report"
	"github.com/spf13/cobra"
)

type generateFlags struct {
	start, end, count int
	order             string
	rowsPerBlock      int
	seed              string
	filter            string
	simple            bool
	out               string
	interactive       bool
	preview           bool
	format            string
}

func (a *app) generateCmd() *cobra.Command {
	var fl generateFlags

	cmd := &cobra.Command{
		Use:   "generate FILE",
		Short: "Pick questions from a list and write a test workbook",
		Long: `generate validates FILE, draws --count questions whose numbers fall in
--start..--end, and writes a workbook with a question sheet and an answer
sheet. Range and count default to the whole list and ten questions.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := report.ParseFormat(fl.format)
			if err != nil {
				return err
			}
			ds, err := a.load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			req, err := a.buildRequest(cmd, ds, fl)
			if err != nil {
				return err
			}
			return a.generate(cmd.Context(), ds, req, fl.out, fl.preview, a.renderer(format))
		},
	}

	f := cmd.Flags()
	f.IntVar(&fl.start, "start", 0, "First question number in range (default: lowest)")
	f.IntVar(&fl.end, "end", 0, "Last question number in range (default: highest)")
	f.IntVarP(&fl.count, "count", "n", 0, "Number of questions (default: GENERATOR_DEFAULT_COUNT, at most the list size)")
	f.StringVar(&fl.order, "order", "asc", "Question order: asc, desc, random")
	f.IntVar(&fl.rowsPerBlock, "rows-per-block", 0, "Rows per column block on the sheet (default: GENERATOR_ROWS_PER_BLOCK)")
	f.StringVar(&fl.seed, "seed", "", "Random seed for a reproducible draw")
	f.StringVar(&fl.filter, "filter", "", "Only draw rows matching an expression, e.g. 'len(answer) <= 10'")
	f.BoolVar(&fl.simple, "simple", false, "Write a single plain sheet instead of question and answer sheets")
	f.StringVarP(&fl.out, "out", "o", "", "Output file or directory (default: generated name in the current directory)")
	f.BoolVarP(&fl.interactive, "interactive", "i", false, "Prompt for range, count and order")
	f.BoolVar(&fl.preview, "preview", false, "Print the selection without writing a workbook")
	f.StringVarP(&fl.format, "format", "f", "text", "Summary format: text, json, toon, markdown")
	return cmd
}

// buildRequest starts from the list's defaults and applies explicit flags,
// then the interactive answers.
func (a *app) buildRequest(cmd *cobra.Command, ds *core.Dataset, fl generateFlags) (core.GenerateRequest, error) {
	p := a.svc.Defaults(ds)
	flags := cmd.Flags()
	if flags.Changed("start") {
		p.Start = fl.start
	}
	if flags.Changed("end") {
		p.End = fl.end
	}
	if flags.Changed("count") {
		p.Count = fl.count
	}
	order, err := core.ParseSortOrder(fl.order)
	if err != nil {
		return core.GenerateRequest{}, err
	}
	p.Order = order
	p.Filter = fl.filter

	seed, err := core.ParseSeed(fl.seed)
	if err != nil {
		return core.GenerateRequest{}, err
	}
	req := core.GenerateRequest{
		Params:       p,
		RowsPerBlock: fl.rowsPerBlock,
		Simple:       fl.simple,
		Seed:         seed,
	}

	if fl.interactive {
		return a.ask(ds, req)
	}
	return req, nil
}

// ask walks through the selection settings, offering the current values as
// defaults and accepting only values that can succeed.
func (a *app) ask(ds *core.Dataset, req core.GenerateRequest) (core.GenerateRequest, error) {
	p := ds.Clamp(req.Params)
	var err error

	fmt.Fprintf(a.stdout, "%s: %d questions, numbers %d-%d\n", core.SourceTitle(ds.Source), ds.Len(), ds.MinID, ds.MaxID)

	if p.Start, err = a.prompt.Int("First question number", p.Start, ds.MinID, ds.MaxID); err != nil {
		return req, err
	}
	if p.End, err = a.prompt.Int("Last question number", max(p.End, p.Start), p.Start, ds.MaxID); err != nil {
		return req, err
	}
	avail := ds.Available(p.Start, p.End)
	if avail == 0 {
		return req, &core.RangeError{Reason: core.ReasonEmpty, Start: p.Start, End: p.End, Count: p.Count}
	}
	if p.Count, err = a.prompt.Int("Number of questions", core.ClampInt(p.Count, 1, avail), 1, avail); err != nil {
		return req, err
	}

	order, err := a.prompt.Choice("Order", []string{
		string(core.OrderAscending), string(core.OrderDescending), string(core.OrderDraw),
	}, string(p.Order))
	if err != nil {
		return req, err
	}
	p.Order = core.SortOrder(order)

	if req.Simple, err = a.prompt.Confirm("Single plain sheet without answer sheet?", req.Simple); err != nil {
		return req, err
	}
	if !req.Simple {
		g := a.cfg.Generator
		if req.RowsPerBlock, err = a.prompt.Int("Rows per block", a.svc.RowsPerBlock(req.RowsPerBlock), g.MinRowsPerBlock, g.MaxRowsPerBlock); err != nil {
			return req, err
		}
	}

	req.Params = p
	return req, nil
}

func (a *app) generate(ctx context.Context, ds *core.Dataset, req core.GenerateRequest, out string, preview bool, r *report.Renderer) error {
	sel := report.Selection{Source: core.SourceTitle(ds.Source), Params: req.Params}

	if preview {
		items, err := a.svc.Preview(ctx, ds, req)
		if err != nil {
			return err
		}
		sel.Items = items
		return r.WriteSelection(a.stdout, sel)
	}

	gen, err := a.svc.Generate(ctx, ds, req)
	if err != nil {
		return err
	}
	path := outputPath(out, gen.Filename)
	if err := os.WriteFile(path, gen.Data, 0644); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	sel.Items = gen.Items
	sel.Filename = path
	return r.WriteSelection(a.stdout, sel)
}

// outputPath resolves --out: empty means the generated name, a directory
// receives the generated name, anything else is used as given.
func outputPath(out, generated string) string {
	if out == "" {
		return generated
	}
	if info, err := os.Stat(out); err == nil && info.IsDir() {
		return filepath.Join(out, generated)
	}
	return out
}
