// Command testsheet validates question lists and builds test sheets from the
// command line.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/JonMunkholm/testsheet/internal/config"
	"github.com/JonMunkholm/testsheet/internal/core"
	"github.com/JonMunkholm/testsheet/internal/logging"
	"github.com/JonMunkholm/testsheet/internal/report"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// errReported means the failure has already been written to the user.
var errReported = errors.New("reported")

// app carries what every subcommand shares.
type app struct {
	cfg    *config.Config
	svc    *core.Service
	stdout io.Writer
	stderr io.Writer
	prompt prompter

	logLevel string
	mode     string
}

func main() {
	// .env values never override the real environment here
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := &app{cfg: cfg, stdout: os.Stdout, stderr: os.Stderr, prompt: surveyPrompter{}}
	code := a.execute(ctx, os.Args[1:])
	stop()
	os.Exit(code)
}

// execute runs the command line and returns the process exit code. Failures
// not already written by a subcommand are reported here.
func (a *app) execute(ctx context.Context, args []string) int {
	cmd := a.rootCmd()
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return 0
	}
	if !errors.Is(err, errReported) {
		a.reportError(err)
	}
	return 1
}

// reportError prints the support message followed by the error itself, so
// causes the message catalogue does not know still reach the user.
func (a *app) reportError(err error) {
	fmt.Fprintln(a.stderr, "error:", core.FormatUserError(err))
	fmt.Fprintln(a.stderr, "cause:", err)
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "testsheet",
		Short: "Build printable vocabulary tests from a question list",
		Long: `testsheet reads a question list (.xlsx or .csv with columns
number, question, answer), checks it, and writes a test workbook with a
question sheet and an answer sheet.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logging.SetupWriter(a.stderr, a.logLevel, "text")
			if a.mode != "" {
				a.cfg.Generator.ValidationMode = a.mode
			}
			svc, err := core.NewService(a.cfg)
			if err != nil {
				return err
			}
			a.svc = svc
			return nil
		},
	}
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "warn", "Log level: debug, info, warn, error")
	root.PersistentFlags().StringVar(&a.mode, "mode", "", "Identifier check: strict or loose (default from GENERATOR_VALIDATION_MODE)")

	root.AddCommand(a.validateCmd(), a.generateCmd(), a.templateCmd())
	return root
}

// load opens and validates path. On failure the diagnostics are written to
// stderr and errReported is returned.
func (a *app) load(ctx context.Context, path string) (*core.Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	ds, err := a.svc.Load(ctx, path, f)
	if err != nil {
		v := report.NewValidation(path, nil, core.SelectParams{}, err)
		if werr := a.renderer(report.FormatText).WriteValidation(a.stderr, v); werr != nil {
			return nil, werr
		}
		return nil, errReported
	}
	return ds, nil
}

// renderer applies the configured diagnostic row cap.
func (a *app) renderer(format report.Format) *report.Renderer {
	return &report.Renderer{Format: format, RowLimit: a.cfg.Generator.MaxReportedRows}
}
