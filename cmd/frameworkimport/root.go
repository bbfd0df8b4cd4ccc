package main

import "github.com/spf13/cobra"

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "frameworkimport",
		Short:         "Import competency frameworks from standards documents",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(newImportCmd(), newPreviewCmd())
	return cmd
}
