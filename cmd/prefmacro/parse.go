package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"prefmacro/internal/diagfmt"
	"prefmacro/internal/driver"
)

func newParseCmd(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parse [flags] file.swift",
		Short: "Print the declaration tree of a source file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParse(cmd, s, args[0])
		},
	}
	cmd.Flags().String("format", "pretty", "output format (pretty|json)")
	return cmd
}

func runParse(cmd *cobra.Command, s *session, filePath string) error {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	if format != "pretty" && format != "json" {
		return fmt.Errorf("unknown format: %s", format)
	}
	cfg, err := loadConfig(cmd, filePath)
	if err != nil {
		return err
	}
	limit, err := maxDiagnostics(cmd, cfg)
	if err != nil {
		return err
	}

	mark := s.timer.Begin("parse")
	result, err := driver.Parse(filePath, limit)
	if err != nil {
		return fmt.Errorf("parse failed: %w", err)
	}
	mark.End(filePath)

	if err := reportToStderr(cmd, result.Bag, result.FileSet); err != nil {
		return err
	}

	tree := diagfmt.BuildTree(result.Tree, result.FileSet, result.File.Path)
	out := cmd.OutOrStdout()
	if format == "json" {
		err = diagfmt.FormatTreeJSON(out, tree)
	} else {
		err = diagfmt.FormatTreePretty(out, tree)
	}
	if err != nil {
		return err
	}
	if result.Bag.HasErrors() {
		return errDiagnostics
	}
	return nil
}
