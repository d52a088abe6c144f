package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"prefmacro/internal/diag"
	"prefmacro/internal/diagfmt"
	"prefmacro/internal/driver"
	"prefmacro/internal/source"
)

func newTokenizeCmd(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tokenize [flags] file.swift",
		Short: "Tokenize a source file",
		Long:  `Tokenize breaks a source file down into tokens with their leading trivia`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTokenize(cmd, s, args[0])
		},
	}
	cmd.Flags().String("format", "pretty", "output format (pretty|json)")
	return cmd
}

func runTokenize(cmd *cobra.Command, s *session, filePath string) error {
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

	mark := s.timer.Begin("tokenize")
	result, err := driver.Tokenize(filePath, limit)
	if err != nil {
		return fmt.Errorf("tokenization failed: %w", err)
	}
	mark.End(fmt.Sprintf("%d tokens", len(result.Tokens)))

	if err := reportToStderr(cmd, result.Bag, result.FileSet); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch format {
	case "json":
		return diagfmt.FormatTokensJSON(out, result.Tokens)
	default:
		return diagfmt.FormatTokensPretty(out, result.Tokens, result.FileSet)
	}
}

// reportToStderr печатает диагностику в stderr, если она есть.
func reportToStderr(cmd *cobra.Command, bag *diag.Bag, fs *source.FileSet) error {
	if bag == nil || bag.Len() == 0 {
		return nil
	}
	stderr := cmd.ErrOrStderr()
	color, err := useColor(cmd, stderr)
	if err != nil {
		return err
	}
	diagfmt.Pretty(stderr, bag, fs, diagfmt.PrettyOpts{
		Color:     color,
		Context:   2,
		ShowNotes: true,
		ShowFixes: true,
	})
	return nil
}
