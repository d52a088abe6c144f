package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"prefmacro/internal/driver"
	"prefmacro/internal/fix"
)

func newFixCmd(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fix [flags] <file.swift|directory>...",
		Short: "Apply suggested fixes",
		Long:  "Run the expansion passes, collect the fixes attached to their diagnostics, and apply them according to the chosen strategy.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFix(cmd, s, args)
		},
	}
	cmd.Flags().Bool("all", false, "apply all safe fixes")
	cmd.Flags().Bool("once", false, "apply the first available fix (default)")
	cmd.Flags().String("id", "", "apply fix with a specific identifier")
	cmd.Flags().Bool("dry-run", false, "print the fixed sources instead of writing them")
	cmd.MarkFlagsMutuallyExclusive("all", "once", "id")
	return cmd
}

func runFix(cmd *cobra.Command, s *session, args []string) error {
	applyAll, err := cmd.Flags().GetBool("all")
	if err != nil {
		return fmt.Errorf("failed to get all flag: %w", err)
	}
	targetID, err := cmd.Flags().GetString("id")
	if err != nil {
		return fmt.Errorf("failed to get id flag: %w", err)
	}
	dryRun, err := cmd.Flags().GetBool("dry-run")
	if err != nil {
		return fmt.Errorf("failed to get dry-run flag: %w", err)
	}

	mode := fix.ApplyModeOnce
	if targetID != "" {
		mode = fix.ApplyModeID
	} else if applyAll {
		mode = fix.ApplyModeAll
	}

	cfg, err := loadConfig(cmd, args[0])
	if err != nil {
		return err
	}
	opts, err := driverOptions(cmd, s, &cfg)
	if err != nil {
		return err
	}

	res, err := driver.Expand(cmd.Context(), args, opts)
	if err != nil {
		return fmt.Errorf("fix: expand failed: %w", err)
	}

	mark := s.timer.Begin("fix")
	applied, applyErr := fix.Apply(res.FileSet, res.Diagnostics(), fix.ApplyOptions{
		Mode:     mode,
		TargetID: targetID,
		DryRun:   dryRun,
	})
	if applied != nil {
		mark.End(fmt.Sprintf("%d applied", len(applied.Applied)))
	}

	out := cmd.OutOrStdout()
	if err := handleApplyResult(out, applied, applyErr); err != nil {
		return err
	}
	if dryRun && applied != nil {
		for _, change := range applied.FileChanges {
			if _, err := fmt.Fprintf(out, "\n==> %s <==\n", change.Path); err != nil {
				return err
			}
			if _, err := out.Write(change.Content); err != nil {
				return err
			}
		}
	}
	return nil
}

func handleApplyResult(out io.Writer, res *fix.ApplyResult, applyErr error) error {
	if res == nil {
		return applyErr
	}

	if len(res.Applied) > 0 {
		fmt.Fprintf(out, "Applied %d fix(es):\n", len(res.Applied))
		for _, item := range res.Applied {
			location := item.PrimaryPath
			if location == "" {
				location = "(unknown location)"
			}
			fmt.Fprintf(out, "  %s [%s] at %s (%d edits, %s)\n",
				item.Title, item.ID, location, item.EditCount, item.Applicability.String())
		}
	}

	if len(res.FileChanges) > 0 {
		fmt.Fprintln(out, "Updated files:")
		for _, change := range res.FileChanges {
			fmt.Fprintf(out, "  %s (%d edits)\n", change.Path, change.EditCount)
		}
	}

	if len(res.Skipped) > 0 {
		fmt.Fprintln(out, "Skipped fixes:")
		for _, skip := range res.Skipped {
			id := skip.ID
			if id == "" {
				id = "(unnamed)"
			}
			if skip.Title != "" {
				fmt.Fprintf(out, "  %s [%s]: %s\n", skip.Title, id, skip.Reason)
			} else {
				fmt.Fprintf(out, "  [%s]: %s\n", id, skip.Reason)
			}
		}
	}

	if applyErr != nil {
		if errors.Is(applyErr, fix.ErrNoFixes) && len(res.Applied) == 0 {
			fmt.Fprintln(out, "No applicable fixes found.")
			return nil
		}
		return applyErr
	}
	if len(res.Applied) == 0 {
		fmt.Fprintln(out, "No fixes applied.")
	}
	return nil
}
