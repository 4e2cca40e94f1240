package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"procureflow/backend/internal/engine"
	"procureflow/backend/pkg/models"
)

func newTestCommand() *cobra.Command {
	var (
		amount         float64
		departmentID   string
		departmentCode string
		category       string
		fields         []string
	)

	cmd := &cobra.Command{
		Use:   "test <workflow.json>",
		Short: "Dry-run a workflow definition file against a synthetic subject",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			wf, err := readWorkflowFile(args[0])
			if err != nil {
				return err
			}

			subject := &models.Subject{
				DepartmentID:   departmentID,
				DepartmentCode: departmentCode,
				Category:       category,
				Cost:           amount,
				Fields:         map[string]any{},
			}
			for _, kv := range fields {
				key, value, found := strings.Cut(kv, "=")
				if !found {
					return fmt.Errorf("invalid --field %q, expected key=value", kv)
				}
				subject.Fields[key] = value
			}

			result, err := engine.ComputePath(wf, subject)
			if err != nil {
				return err
			}

			out, _ := json.MarshalIndent(result, "", "  ")
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}

	cmd.Flags().Float64Var(&amount, "amount", 0, "subject cost")
	cmd.Flags().StringVar(&departmentID, "department", "", "subject department id")
	cmd.Flags().StringVar(&departmentCode, "department-code", "", "subject department code")
	cmd.Flags().StringVar(&category, "category", "", "subject category")
	cmd.Flags().StringArrayVar(&fields, "field", nil, "extra subject field as key=value, repeatable")
	return cmd
}
