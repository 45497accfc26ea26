package main

import (
	"bytes"
	"fmt"
	"os"

	"github.com/JonMunkholm/testsheet/internal/core"
	"github.com/spf13/cobra"
)

func (a *app) templateCmd() *cobra.Command {
	var (
		sample bool
		out    string
	)

	cmd := &cobra.Command{
		Use:   "template",
		Short: "Write a blank question list template, or a filled sample",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if out == "" {
				out = core.TemplateFilename(sample)
			}
			var buf bytes.Buffer
			if err := a.svc.Template(&buf, sample); err != nil {
				return err
			}
			if err := os.WriteFile(out, buf.Bytes(), 0644); err != nil {
				return fmt.Errorf("failed to write output: %w", err)
			}
			if sample {
				fmt.Fprintf(a.stdout, "wrote %s (%d sample questions)\n", out, core.SampleSize())
			} else {
				fmt.Fprintf(a.stdout, "wrote %s\n", out)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&sample, "sample", false, "Fill the template with sample questions")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file path (default: template.xlsx or sample_data.xlsx)")
	return cmd
}
