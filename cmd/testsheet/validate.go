package main

import (
	"os"

	"github.com/JonMunkholm/testsheet/internal/core"
	"github.com/JonMunkholm/testsheet/internal/report"
	"github.com/spf13/cobra"
)

func (a *app) validateCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "validate FILE...",
		Short: "Check question lists and report every problem found",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := report.ParseFormat(format)
			if err != nil {
				return err
			}
			r := a.renderer(f)

			failed := false
			for _, path := range args {
				v, err := a.validateFile(cmd, path)
				if err != nil {
					return err
				}
				if err := r.WriteValidation(a.stdout, v); err != nil {
					return err
				}
				failed = failed || !v.Valid
			}
			if failed {
				return errReported
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format: text, json, toon, markdown")
	return cmd
}

func (a *app) validateFile(cmd *cobra.Command, path string) (report.Validation, error) {
	file, err := os.Open(path)
	if err != nil {
		return report.Validation{}, err
	}
	defer file.Close()

	ds, err := a.svc.Load(cmd.Context(), path, file)
	if err != nil {
		return report.NewValidation(path, nil, core.SelectParams{}, err), nil
	}
	return report.NewValidation(path, ds, a.svc.Defaults(ds), nil), nil
}
