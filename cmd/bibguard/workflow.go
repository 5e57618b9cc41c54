package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bibguard/bibguard/internal/config"
	"github.com/bibguard/bibguard/internal/workflow"
)

func newWorkflowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "workflow",
		Short: "Inspect and manage the resolution cascade",
	}
	cmd.AddCommand(newWorkflowInitCmd())
	cmd.AddCommand(newWorkflowShowCmd())
	return cmd
}

func newWorkflowInitCmd() *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default cascade to a JSON file for customization",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := workflow.Default().Save(path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "workflow written to %s\n", path)
			return nil
		},
	}

	cmd.Flags().StringVarP(&path, "output", "o", "workflow.json", "where to write the workflow file")
	return cmd
}

func newWorkflowShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the active cascade, in step order",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			cascade := workflow.Default()
			if cfg.Workflow.Path != "" {
				cascade, err = workflow.Load(cfg.Workflow.Path)
				if err != nil {
					return err
				}
			}

			data, err := json.MarshalIndent(cascade, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
}
