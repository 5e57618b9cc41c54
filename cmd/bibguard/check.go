package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bibguard/bibguard/internal/app"
	"github.com/bibguard/bibguard/internal/config"
	"github.com/bibguard/bibguard/internal/verify"
)

type checkFlags struct {
	bibPath         string
	texPath         string
	outputPath      string
	workers         int
	checkDuplicates bool
}

func newCheckCmd() *cobra.Command {
	var flags checkFlags

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Verify a BibTeX bibliography",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, flags)
		},
	}

	cmd.Flags().StringVar(&flags.bibPath, "bib", "", "path to the .bib file (required)")
	cmd.Flags().StringVar(&flags.texPath, "tex", "", "path to the LaTeX source, enables usage checks")
	cmd.Flags().StringVarP(&flags.outputPath, "output", "o", "", "write the Markdown report to this file instead of stdout")
	cmd.Flags().IntVar(&flags.workers, "workers", 0, "entry-resolution workers (0 = config default)")
	cmd.Flags().BoolVar(&flags.checkDuplicates, "check-duplicates", true, "detect duplicate bibliography entries")
	_ = cmd.MarkFlagRequired("bib")

	return cmd
}

func runCheck(cmd *cobra.Command, flags checkFlags) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	a, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	bibText, err := os.ReadFile(flags.bibPath)
	if err != nil {
		return fmt.Errorf("reading bib file: %w", err)
	}

	var texText string
	if flags.texPath != "" {
		data, err := os.ReadFile(flags.texPath)
		if err != nil {
			return fmt.Errorf("reading tex file: %w", err)
		}
		texText = string(data)
	}

	workers := flags.workers
	if workers == 0 {
		workers = cfg.Resolve.Workers
	}

	rep, err := a.Verifier.Run(cmd.Context(), string(bibText), texText, verify.Options{
		Workers:         workers,
		CheckDuplicates: flags.checkDuplicates,
	})
	if err != nil {
		return err
	}

	if flags.outputPath != "" {
		if err := rep.WriteFile(flags.outputPath); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "report written to %s\n", flags.outputPath)
	} else {
		fmt.Fprint(cmd.OutOrStdout(), rep.Markdown())
	}

	if rep.Summary.Mismatched > 0 || rep.Summary.Unable > 0 {
		// Nonzero exit so CI can gate on a clean bibliography.
		return fmt.Errorf("%d of %d entries did not verify cleanly",
			rep.Summary.Mismatched+rep.Summary.Unable, rep.Summary.Total)
	}
	return nil
}
