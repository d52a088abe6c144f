package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"prefmacro/internal/diagfmt"
	"prefmacro/internal/driver"
	"prefmacro/internal/version"
)

func newDiagCmd(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "diag [flags] <file.swift|directory>...",
		Aliases: []string{"check"},
		Short:   "Report annotation misuse",
		Long: `Diag runs the expansion passes without writing anything and reports the
diagnostics they produce, optionally with suggested fixes.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiag(cmd, s, args)
		},
	}
	f := cmd.Flags()
	f.String("format", "pretty", "output format (pretty|short|json|sarif)")
	f.Bool("suggest", false, "show suggested fixes")
	f.Bool("preview", false, "show a preview of each fix (implies --suggest)")
	f.Bool("with-notes", false, "include diagnostic notes")
	f.Bool("no-warnings", false, "drop warnings")
	f.Bool("warnings-as-errors", false, "treat warnings as errors")
	f.Int("jobs", 0, "max parallel workers (0 = GOMAXPROCS)")
	f.String("path-mode", "auto", "path display (auto|absolute|relative|basename)")
	cmd.MarkFlagsMutuallyExclusive("no-warnings", "warnings-as-errors")
	return cmd
}

type diagFlags struct {
	format           string
	suggest          bool
	preview          bool
	withNotes        bool
	noWarnings       bool
	warningsAsErrors bool
	pathMode         diagfmt.PathMode
}

func readDiagFlags(cmd *cobra.Command) (diagFlags, error) {
	var (
		df  diagFlags
		err error
	)
	f := cmd.Flags()
	if df.format, err = f.GetString("format"); err != nil {
		return df, fmt.Errorf("failed to get format flag: %w", err)
	}
	df.format = strings.ToLower(df.format)
	switch df.format {
	case "pretty", "short", "json", "sarif":
	default:
		return df, fmt.Errorf("unknown format: %s", df.format)
	}
	if df.suggest, err = f.GetBool("suggest"); err != nil {
		return df, fmt.Errorf("failed to get suggest flag: %w", err)
	}
	if df.preview, err = f.GetBool("preview"); err != nil {
		return df, fmt.Errorf("failed to get preview flag: %w", err)
	}
	df.suggest = df.suggest || df.preview
	if df.withNotes, err = f.GetBool("with-notes"); err != nil {
		return df, fmt.Errorf("failed to get with-notes flag: %w", err)
	}
	if df.noWarnings, err = f.GetBool("no-warnings"); err != nil {
		return df, fmt.Errorf("failed to get no-warnings flag: %w", err)
	}
	if df.warningsAsErrors, err = f.GetBool("warnings-as-errors"); err != nil {
		return df, fmt.Errorf("failed to get warnings-as-errors flag: %w", err)
	}
	pathMode, err := f.GetString("path-mode")
	if err != nil {
		return df, fmt.Errorf("failed to get path-mode flag: %w", err)
	}
	if df.pathMode, err = diagfmt.ParsePathMode(pathMode); err != nil {
		return df, err
	}
	return df, nil
}

func runDiag(cmd *cobra.Command, s *session, args []string) error {
	df, err := readDiagFlags(cmd)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(cmd, args[0])
	if err != nil {
		return err
	}
	opts, err := driverOptions(cmd, s, &cfg)
	if err != nil {
		return err
	}
	opts.IgnoreWarnings = df.noWarnings
	// конфиг может включить warnings-as-errors, флаг --no-warnings его гасит
	opts.WarningsAsErrors = (opts.WarningsAsErrors || df.warningsAsErrors) && !df.noWarnings

	res, err := driver.Expand(cmd.Context(), args, opts)
	if err != nil {
		return err
	}

	mark := s.timer.Begin("render")
	bag := mergedBag(res.Diagnostics())
	out := cmd.OutOrStdout()
	switch df.format {
	case "short":
		err = diagfmt.Short(out, bag, res.FileSet, df.pathMode, df.withNotes)
	case "json":
		err = diagfmt.JSON(out, bag, res.FileSet, diagfmt.JSONOpts{
			IncludePositions: true,
			PathMode:         df.pathMode,
			IncludeNotes:     df.withNotes,
			IncludeFixes:     df.suggest,
			IncludePreviews:  df.preview,
		})
	case "sarif":
		err = diagfmt.Sarif(out, bag, res.FileSet, diagfmt.SarifRunMeta{
			ToolName:       "prefmacro",
			ToolVersion:    version.Version,
			InvocationArgs: append([]string{"prefmacro", cmd.Name()}, args...),
			PathMode:       df.pathMode,
		})
	default:
		color, colorErr := useColor(cmd, out)
		if colorErr != nil {
			return colorErr
		}
		diagfmt.Pretty(out, bag, res.FileSet, diagfmt.PrettyOpts{
			Color:       color,
			Context:     2,
			PathMode:    df.pathMode,
			ShowNotes:   df.withNotes,
			ShowFixes:   df.suggest,
			ShowPreview: df.preview,
		})
		if !isQuiet(cmd) {
			diagfmt.Summary(out, bag, color)
		}
	}
	mark.End(fmt.Sprintf("%d diagnostics", bag.Len()))
	if err != nil {
		return err
	}
	if bag.HasErrors() {
		return errDiagnostics
	}
	return nil
}
