package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nikolasavic/protectedfile/internal/doctor"
	"github.com/nikolasavic/protectedfile/scope"
)

func newDoctorCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "doctor <path>",
		Short: "Validate that a target file is safe to protect",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			results := doctor.Run(args[0])
			overall := doctor.Overall(results)

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(struct {
					Overall doctor.Status        `json:"overall"`
					Checks  []doctor.CheckResult `json:"checks"`
				}{overall, results})
			}

			out := cmd.OutOrStdout()
			for _, r := range results {
				fmt.Fprintf(out, "%-10s %-8s %s\n", r.Name, r.Status, r.Message)
			}
			fmt.Fprintf(out, "overall: %s\n", overall)
			if overall == doctor.StatusFail {
				return fmt.Errorf("doctor: one or more checks failed")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "output machine-readable JSON")
	return cmd
}

func newUnlockCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "unlock <path>",
		Short: "Remove a target's lockfile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !force {
				return fmt.Errorf("refusing to unlock %q without --force: this bypasses ownership checks", args[0])
			}
			return scope.ForceBreak(args[0])
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "required acknowledgement: this does not check ownership or liveness")
	return cmd
}
