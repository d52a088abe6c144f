package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"prefmacro/internal/config"
)

func newInitCmd(_ *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init [dir]",
		Short: "Write a default " + config.FileName,
		Long: `Init writes a configuration file with every built-in value spelled out.
The directory is created when missing; an existing file is kept unless --force is given.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runInit,
	}
	cmd.Flags().Bool("force", false, "overwrite an existing configuration file")
	return cmd
}

func runInit(cmd *cobra.Command, args []string) error {
	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return fmt.Errorf("failed to get force flag: %w", err)
	}
	target := "."
	if len(args) == 1 {
		target = args[0]
	}
	if err := os.MkdirAll(target, 0o755); err != nil {
		return fmt.Errorf("init: %w", err)
	}

	path, err := config.WriteDefault(target, force)
	if errors.Is(err, os.ErrExist) {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}
	if err != nil {
		return err
	}
	if !isQuiet(cmd) {
		fmt.Fprintf(cmd.OutOrStdout(), "created %s\n", path)
	}
	return nil
}
