// workflowctl is the operator CLI for the approval workflow service: it
// seeds a development database and validates or dry-runs workflow
// definition files without a running server.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:           "workflowctl",
		Short:         "Operate on approval workflow definitions",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	root.AddCommand(newSeedCommand())
	root.AddCommand(newValidateCommand())
	root.AddCommand(newTestCommand())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
