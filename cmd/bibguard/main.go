// Package main provides the bibguard command line interface.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "bibguard",
		Short:         "Verify bibliography entries against bibliographic databases",
		Long:          "bibguard checks BibTeX bibliographies against arXiv, CrossRef, DBLP, OpenAlex, Semantic Scholar and Google Scholar, flags metadata mismatches and duplicate entries, and reports unused or missing citations.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newCheckCmd())
	root.AddCommand(newWorkflowCmd())
	root.AddCommand(newCacheCmd())

	return root
}
