package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/nikolasavic/protectedfile/scope"
)

func newReadCmd() *cobra.Command {
	var wait time.Duration

	cmd := &cobra.Command{
		Use:   "read <path>",
		Short: "Print a file's contents under a read-only protected scope",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := scope.Open(args[0], scope.ModeRead, scope.WithWait(wait))
			if err != nil {
				return err
			}
			defer s.Release()

			_, err = io.Copy(cmd.OutOrStdout(), s.Stream())
			return err
		},
	}

	cmd.Flags().DurationVar(&wait, "wait", time.Second, "base retry wait between claim attempts")
	return cmd
}

func newEditCmd() *cobra.Command {
	var (
		wait        time.Duration
		maxLockTime time.Duration
		backup      bool
		noTemp      bool
	)

	cmd := &cobra.Command{
		Use:   "edit <path> <new-contents-file>",
		Short: "Replace a file's contents under a read-write protected scope",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, src := args[0], args[1]

			opts := []scope.Option{
				scope.WithWait(wait),
				scope.WithAuditor(scope.NewAuditLog(target)),
			}
			if maxLockTime > 0 {
				opts = append(opts, scope.WithMaxLockTime(maxLockTime))
			}
			if backup {
				opts = append(opts, scope.WithBackupDuringLock(true))
			}
			if noTemp {
				opts = append(opts, scope.WithoutTemporary())
			}

			return scope.Do(target, scope.ModeReadWrite, func(s *scope.Scope) error {
				in, err := readSourceFile(src)
				if err != nil {
					return err
				}
				if _, err := s.Stream().Seek(0, 0); err != nil {
					return err
				}
				if err := s.Stream().Truncate(0); err != nil {
					return err
				}
				_, err = s.Stream().Write(in)
				return err
			}, opts...)
		},
	}

	cmd.Flags().DurationVar(&wait, "wait", time.Second, "base retry wait between claim attempts")
	cmd.Flags().DurationVar(&maxLockTime, "max-lock-time", 0, "enable recursive reclaim after this long (0 disables)")
	cmd.Flags().BoolVar(&backup, "backup", false, "keep a .backup snapshot after the scope closes")
	cmd.Flags().BoolVar(&noTemp, "no-temp", false, "write directly to the target instead of a shadow file")
	return cmd
}

func readSourceFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path) //nolint:gosec // operator-supplied CLI argument
	if err != nil {
		return nil, fmt.Errorf("read source %q: %w", path, err)
	}
	return data, nil
}
