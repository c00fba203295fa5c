// Package main is the entry point for the protectedfile CLI: a thin
// operator surface over the scope package's Protected Scope protocol.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nikolasavic/protectedfile/internal/auditlog"
)

var version = "dev"

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "protectedfile",
		Short:         "Arbitrate safe concurrent access to a shared file",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newReadCmd())
	root.AddCommand(newEditCmd())
	root.AddCommand(newAuditCmd())
	root.AddCommand(newDoctorCmd())
	root.AddCommand(newUnlockCmd())
	root.AddCommand(newVersionCmd())

	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the CLI version",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "protectedfile %s\n", version)
			return nil
		},
	}
}

func main() {
	auditlog.ConfigureConsoleWriter()
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
