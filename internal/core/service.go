package core

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"time"

	"github.com/JonMunkholm/testsheet/internal/config"
	"github.com/JonMunkholm/testsheet/internal/ingest"
	"github.com/JonMunkholm/testsheet/internal/logging"
	"github.com/JonMunkholm/testsheet/internal/sheet"
	"github.com/google/uuid"
)

// Service provides the validation, selection and export operations shared by
// the HTTP server and the CLI. It holds no per-request state and is safe for
// concurrent use.
type Service struct {
	opts    ValidateOptions
	engine  ingest.Engine
	profile sheet.Profile
	limiter *GenerateLimiter

	maxFileSize     int64
	timeout         time.Duration
	rowsPerBlock    int
	minRowsPerBlock int
	maxRowsPerBlock int
	defaultCount    int
	maxReportedRows int

	now func() time.Time
}

// NewService creates a Service from configuration. The sheet profile named by
// the configuration is loaded here so a bad profile fails at startup.
func NewService(cfg *config.Config) (*Service, error) {
	mode, err := ParseValidationMode(cfg.Generator.ValidationMode)
	if err != nil {
		return nil, err
	}
	engine, err := ingest.ParseEngine(cfg.Generator.IngestEngine)
	if err != nil {
		return nil, err
	}
	profile, err := sheet.LoadProfile(cfg.Generator.ProfilePath)
	if err != nil {
		return nil, err
	}

	return &Service{
		opts: ValidateOptions{
			Mode:          mode,
			RequireAnswer: cfg.Generator.RequireAnswer,
			FoldWidth:     cfg.Generator.FoldWidth,
		},
		engine:          engine,
		profile:         profile,
		limiter:         NewGenerateLimiter(cfg.Limits.MaxConcurrent, cfg.Limits.MaxWaitTime),
		maxFileSize:     cfg.Upload.MaxFileSize,
		timeout:         cfg.Limits.Timeout,
		rowsPerBlock:    cfg.Generator.RowsPerBlock,
		minRowsPerBlock: cfg.Generator.MinRowsPerBlock,
		maxRowsPerBlock: cfg.Generator.MaxRowsPerBlock,
		defaultCount:    cfg.Generator.DefaultCount,
		maxReportedRows: cfg.Generator.MaxReportedRows,
		now:             time.Now,
	}, nil
}

// MaxReportedRows is the number of offending rows a diagnostic lists.
func (s *Service) MaxReportedRows() int { return s.maxReportedRows }

// Limiter returns the generation limiter.
func (s *Service) Limiter() *GenerateLimiter { return s.limiter }

// LimiterStatus reports current generation slot usage.
func (s *Service) LimiterStatus() LimiterStatus { return s.limiter.Status() }

// WaitForDrain blocks until no generation is in flight or ctx ends.
func (s *Service) WaitForDrain(ctx context.Context) error { return s.limiter.WaitForDrain(ctx) }

// reserve takes a limiter slot and bounds ctx by the transform timeout.
// The returned done func releases both and must be called exactly once.
func (s *Service) reserve(ctx context.Context) (context.Context, func(), error) {
	if err := s.limiter.Acquire(ctx); err != nil {
		return ctx, nil, err
	}
	cancel := context.CancelFunc(func() {})
	if s.timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
	}
	return ctx, func() {
		cancel()
		s.limiter.Release()
	}, nil
}

// Load reads an uploaded question list and validates it. Like Generate it
// holds a limiter slot and gives up after the transform timeout.
// Read failures are returned as *IngestError; validation failures as the
// typed errors of this package.
func (s *Service) Load(ctx context.Context, name string, r io.Reader) (*Dataset, error) {
	logger := logging.WithFields(ctx, CallerFrom(ctx).logArgs("source", name)...)

	ctx, done, err := s.reserve(ctx)
	if err != nil {
		logger.Warn("load slot unavailable", "error", err)
		return nil, err
	}
	defer done()

	records, err := ingest.Read(ctx, name, r, ingest.Options{Engine: s.engine, MaxBytes: s.maxFileSize})
	if err != nil {
		logger.Warn("ingest failed", "error", err)
		return nil, &IngestError{Source: SourceTitle(name), Err: err}
	}

	ds, err := Prepare(ctx, name, TableFromRecords(records), s.opts)
	if err != nil {
		logger.Info("validation failed", "error", err)
		return nil, err
	}

	logger.Debug("question list loaded",
		"rows", ds.Len(),
		"min_id", ds.MinID,
		"max_id", ds.MaxID,
		"mode", s.opts.Mode,
	)
	return ds, nil
}

// Defaults returns the selection form's starting values for ds.
func (s *Service) Defaults(ds *Dataset) SelectParams {
	return ds.Defaults(s.defaultCount)
}

// RowsPerBlock resolves a requested block height: zero or less selects the
// configured default, anything else is clamped to the configured bounds.
func (s *Service) RowsPerBlock(n int) int {
	if n <= 0 {
		n = s.rowsPerBlock
	}
	return sheet.ClampRowsPerBlock(n, s.minRowsPerBlock, s.maxRowsPerBlock)
}

// GenerateRequest describes one export.
type GenerateRequest struct {
	Params       SelectParams
	RowsPerBlock int     // 0 selects the configured default
	Simple       bool    // Single plain sheet instead of question paper and answer key
	Seed         *uint64 // Reproducible sampling when set
}

// Generation is a finished export.
type Generation struct {
	ID           string
	Filename     string
	Items        []Item
	Data         []byte
	Params       SelectParams
	RowsPerBlock int
	Simple       bool
}

// Preview runs the selection without building a workbook.
func (s *Service) Preview(ctx context.Context, ds *Dataset, req GenerateRequest) ([]Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return Select(ds.Items, req.Params, NewRand(req.Seed))
}

// Generate selects rows from ds and encodes them as a workbook. It waits for
// a generation slot and gives up after the configured transform timeout.
func (s *Service) Generate(ctx context.Context, ds *Dataset, req GenerateRequest) (*Generation, error) {
	id := uuid.New().String()
	logger := logging.WithFields(ctx, CallerFrom(ctx).logArgs(
		"generation_id", id,
		"source", ds.Source,
	)...)

	ctx, done, err := s.reserve(ctx)
	if err != nil {
		logger.Warn("generation slot unavailable", "error", err)
		return nil, err
	}
	defer done()

	start := time.Now()
	items, err := Select(ds.Items, req.Params, NewRand(req.Seed))
	if err != nil {
		logger.Info("selection rejected", "params", req.Params.String(), "error", err)
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rowsPerBlock := s.RowsPerBlock(req.RowsPerBlock)
	if err := fits(items, rowsPerBlock, req.Simple); err != nil {
		logger.Info("selection rejected", "params", req.Params.String(), "error", err)
		return nil, err
	}

	gen := &Generation{
		ID:           id,
		Items:        items,
		Params:       req.Params,
		RowsPerBlock: rowsPerBlock,
		Simple:       req.Simple,
	}

	var buf bytes.Buffer
	if req.Simple {
		gen.Filename = SimpleFilename(req.Params.Start, req.Params.End)
		err = sheet.WritePlain(&buf, s.simpleSheet(ds, items), s.profile.Widths)
	} else {
		at := s.now()
		gen.Filename = OutputFilename(ds.Source, req.Params.Start, req.Params.End, at)
		err = sheet.Write(&buf, s.document(ds, items, gen.RowsPerBlock, at))
	}
	if err != nil {
		logger.Error("workbook export failed", "error", err)
		return nil, fmt.Errorf("export workbook: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	gen.Data = buf.Bytes()

	logger.Info("test sheet generated",
		"params", req.Params.String(),
		"rows", len(items),
		"rows_per_block", gen.RowsPerBlock,
		"simple", req.Simple,
		"bytes", len(gen.Data),
		slog.Duration("elapsed", time.Since(start)),
	)
	return gen, nil
}

// sheetColumns is the column count of every exported sheet: number,
// question and answer (or the blank answer space).
const sheetColumns = 3

func bookletLayout(rowsPerBlock int) sheet.Layout {
	return sheet.Layout{
		RowsPerBlock: rowsPerBlock,
		HeaderRow:    sheet.DefaultHeaderRow,
		FirstCol:     sheet.DefaultFirstCol,
	}
}

// fits rejects selections the chosen sheet shape cannot hold: booklet blocks
// must end by the last worksheet column and a plain sheet by the last row.
func fits(items []Item, rowsPerBlock int, simple bool) error {
	limit := sheet.MaxRows - 1
	if !simple {
		limit = bookletLayout(rowsPerBlock).Capacity(sheetColumns, sheet.MaxColumns)
	}
	if len(items) <= limit {
		return nil
	}
	err := &RangeError{Reason: ReasonWidth, Count: len(items), Available: limit}
	if !simple {
		err.RowsPerBlock = rowsPerBlock
	}
	return err
}

// document builds the question paper and the answer key for items.
func (s *Service) document(ds *Dataset, items []Item, rowsPerBlock int, at time.Time) sheet.Document {
	p := s.profile
	idCol := sheet.Column{Title: ds.IDTitle(), Kind: sheet.ColumnID}
	qCol := sheet.Column{Title: ds.QuestionTitle(), Kind: sheet.ColumnQuestion}

	questions := make([][]any, len(items))
	answers := make([][]any, len(items))
	for i, it := range items {
		questions[i] = []any{it.ID, it.Question, nil}
		answers[i] = []any{it.ID, it.Question, it.Answer}
	}

	return sheet.Document{
		Title:   SourceTitle(ds.Source),
		Date:    at,
		Layout:  bookletLayout(rowsPerBlock),
		Profile: p,
		Sheets: []sheet.Sheet{
			{
				Name:    p.QuestionSheet,
				Columns: []sheet.Column{idCol, qCol, {Title: p.AnswerSpaceLabel, Kind: sheet.ColumnAnswerSpace}},
				Rows:    questions,
			},
			{
				Name:    p.AnswerSheet,
				Columns: []sheet.Column{idCol, qCol, {Title: ds.AnswerTitle(), Kind: sheet.ColumnAnswer}},
				Rows:    answers,
			},
		},
	}
}

func (s *Service) simpleSheet(ds *Dataset, items []Item) sheet.Plain {
	rows := make([][]any, len(items))
	for i, it := range items {
		rows[i] = []any{it.ID, it.Question, it.Answer}
	}
	return sheet.Plain{
		Name: s.profile.SimpleSheet,
		Columns: []sheet.Column{
			{Title: ds.IDTitle(), Kind: sheet.ColumnID},
			{Title: ds.QuestionTitle(), Kind: sheet.ColumnQuestion},
			{Title: ds.AnswerTitle(), Kind: sheet.ColumnAnswer},
		},
		Rows: rows,
	}
}

// Template header titles.
const (
	TemplateIDTitle       = "問題No"
	TemplateQuestionTitle = "問題"
	TemplateAnswerTitle   = "解答"
)

// sampleRows fill the downloadable sample question list.
var sampleRows = [][2]string{
	{"apple", "りんご"},
	{"book", "本"},
	{"cat", "猫"},
	{"dog", "犬"},
	{"egg", "卵"},
	{"fish", "魚"},
	{"garden", "庭"},
	{"house", "家"},
	{"island", "島"},
	{"journey", "旅"},
	{"knowledge", "知識"},
	{"library", "図書館"},
	{"mountain", "山"},
	{"notebook", "ノート"},
	{"ocean", "海"},
	{"pencil", "鉛筆"},
	{"question", "質問"},
	{"river", "川"},
	{"school", "学校"},
	{"tree", "木"},
}

// TemplateFilename returns the download name of the blank or sample list.
func TemplateFilename(sample bool) string {
	if sample {
		return "sample_data.xlsx"
	}
	return "template.xlsx"
}

// Template writes an upload template: the three expected headers and, when
// sample is true, a short vocabulary list that passes strict validation.
// The sheet is left blank below the header otherwise.
func (s *Service) Template(w io.Writer, sample bool) error {
	t := sheet.Plain{
		Name: "Sheet1",
		Columns: []sheet.Column{
			{Title: TemplateIDTitle, Kind: sheet.ColumnID},
			{Title: TemplateQuestionTitle, Kind: sheet.ColumnQuestion},
			{Title: TemplateAnswerTitle, Kind: sheet.ColumnAnswer},
		},
	}
	if sample {
		for i, r := range sampleRows {
			t.Rows = append(t.Rows, []any{i + 1, r[0], r[1]})
		}
	}
	return sheet.WritePlain(w, t, s.profile.Widths)
}

// SampleSize is the number of rows in the sample question list.
func SampleSize() int { return len(sampleRows) }

// ParseSeed parses an optional decimal seed. An empty string yields nil.
func ParseSeed(s string) (*uint64, error) {
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid seed %q: must be a non-negative integer", s)
	}
	return &v, nil
}
