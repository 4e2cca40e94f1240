package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"procureflow/backend/internal/engine"
	"procureflow/backend/pkg/models"
)

func newValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <workflow.json>",
		Short: "Structurally validate a workflow definition file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			wf, err := readWorkflowFile(args[0])
			if err != nil {
				return err
			}

			if err := engine.Validate(wf.Nodes, wf.Connections); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s: valid (%d nodes, %d connections)\n",
				args[0], len(wf.Nodes), len(wf.Connections))
			return nil
		},
	}
}

func readWorkflowFile(path string) (*models.Workflow, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var wf models.Workflow
	if err := json.Unmarshal(data, &wf); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &wf, nil
}
