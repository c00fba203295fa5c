package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

type auditEntry struct {
	Timestamp string `json:"ts"`
	Event     string `json:"event"`
	Target    string `json:"target"`
	PID       int    `json:"pid"`
	Host      string `json:"host"`
	Detail    string `json:"detail,omitempty"`
}

func newAuditCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "audit <path>",
		Short: "Print the lifecycle trail recorded for a target",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logPath := args[0] + ".audit.log"
			f, err := os.Open(logPath) //nolint:gosec // operator-supplied CLI argument
			if err != nil {
				return fmt.Errorf("open audit trail %q: %w", logPath, err)
			}
			defer func() { _ = f.Close() }()

			out := cmd.OutOrStdout()
			scanner := bufio.NewScanner(f)
			for scanner.Scan() {
				line := scanner.Bytes()
				if asJSON {
					fmt.Fprintln(out, string(line))
					continue
				}
				var e auditEntry
				if err := json.Unmarshal(line, &e); err != nil {
					return fmt.Errorf("parse audit entry: %w", err)
				}
				fmt.Fprintf(out, "%-24s %-20s pid=%-8d host=%-16s %s\n", e.Timestamp, e.Event, e.PID, e.Host, e.Detail)
			}
			return scanner.Err()
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print raw JSONL instead of a formatted table")
	return cmd
}
