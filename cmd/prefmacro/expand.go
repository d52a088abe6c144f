package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"prefmacro/internal/diag"
	"prefmacro/internal/diagfmt"
	"prefmacro/internal/driver"
	"prefmacro/internal/source"
	"prefmacro/internal/ui"
)

const stdinPath = "-"

func newExpandCmd(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "expand [flags] <file.swift|directory|->...",
		Short: "Expand annotated declarations",
		Long: `Expand rewrites @Preferences classes and @Stored properties into their generated
form. By default the expanded source is printed; --write updates files in place
and --check only reports which files would change.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExpand(cmd, s, args)
		},
	}
	f := cmd.Flags()
	f.Bool("write", false, "write expanded sources back to their files")
	f.Bool("check", false, "exit with status 1 when expansion would change any file")
	f.String("ui", "auto", "progress view for multiple files (auto|on|off)")
	f.Bool("cache", false, "reuse results from the user cache directory")
	f.String("cache-dir", "", "cache directory (implies --cache)")
	f.Bool("cache-clear", false, "drop cached results before expanding")
	f.Int("jobs", 0, "max parallel workers (0 = GOMAXPROCS)")
	cmd.MarkFlagsMutuallyExclusive("write", "check")
	return cmd
}

type expandFlags struct {
	write, check bool
	ui           uiMode
	cache        bool
	cacheDir     string
	cacheClear   bool
}

func readExpandFlags(cmd *cobra.Command) (expandFlags, error) {
	var (
		ef  expandFlags
		err error
	)
	f := cmd.Flags()
	if ef.write, err = f.GetBool("write"); err != nil {
		return ef, fmt.Errorf("failed to get write flag: %w", err)
	}
	if ef.check, err = f.GetBool("check"); err != nil {
		return ef, fmt.Errorf("failed to get check flag: %w", err)
	}
	uiValue, err := f.GetString("ui")
	if err != nil {
		return ef, fmt.Errorf("failed to get ui flag: %w", err)
	}
	if ef.ui, err = readUIMode(uiValue); err != nil {
		return ef, err
	}
	if ef.cache, err = f.GetBool("cache"); err != nil {
		return ef, fmt.Errorf("failed to get cache flag: %w", err)
	}
	if ef.cacheDir, err = f.GetString("cache-dir"); err != nil {
		return ef, fmt.Errorf("failed to get cache-dir flag: %w", err)
	}
	if ef.cacheClear, err = f.GetBool("cache-clear"); err != nil {
		return ef, fmt.Errorf("failed to get cache-clear flag: %w", err)
	}
	return ef, nil
}

// openCache возвращает nil, если кеш не запрошен.
func (ef expandFlags) openCache() (*driver.DiskCache, error) {
	var (
		cache *driver.DiskCache
		err   error
	)
	switch {
	case ef.cacheDir != "":
		cache, err = driver.NewDiskCache(ef.cacheDir)
	case ef.cache:
		cache, err = driver.OpenDiskCache("prefmacro")
	default:
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}
	if ef.cacheClear {
		if err := cache.DropAll(); err != nil {
			return nil, fmt.Errorf("clear cache: %w", err)
		}
	}
	return cache, nil
}

func runExpand(cmd *cobra.Command, s *session, args []string) error {
	ef, err := readExpandFlags(cmd)
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
	if opts.Cache, err = ef.openCache(); err != nil {
		return err
	}

	if len(args) == 1 && args[0] == stdinPath {
		if ef.write {
			return errors.New("--write cannot be used with standard input")
		}
		return expandStdin(cmd, s, ef, opts)
	}

	res, err := expandWithProgress(cmd, ef, args, opts)
	if err != nil {
		return err
	}
	bag := mergedBag(res.Diagnostics())
	if err := reportWithSummary(cmd, bag, res.FileSet); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch {
	case ef.check:
		changed := res.Changed()
		for _, f := range changed {
			fmt.Fprintf(out, "would expand %s\n", f.Path)
		}
		if len(changed) > 0 || res.HasErrors() {
			return errDiagnostics
		}
		return nil
	case ef.write:
		if res.HasErrors() {
			return errDiagnostics
		}
		written, err := driver.WriteChanged(res)
		if err != nil {
			return err
		}
		if !isQuiet(cmd) {
			for _, path := range written {
				fmt.Fprintf(out, "expanded %s\n", path)
			}
		}
		return nil
	}

	if err := printOutputs(out, res.Files); err != nil {
		return err
	}
	if res.HasErrors() {
		return errDiagnostics
	}
	return nil
}

// expandWithProgress runs driver.Expand, showing the progress view on
// stderr when the ui mode asks for it.
func expandWithProgress(cmd *cobra.Command, ef expandFlags, args []string, opts driver.Options) (*driver.Result, error) {
	ctx := cmd.Context()
	stderr := cmd.ErrOrStderr()
	files, err := driver.CollectFiles(args)
	if err != nil {
		return nil, err
	}
	if isQuiet(cmd) || !shouldUseTUI(ef.ui, stderr, len(files)) {
		return driver.Expand(ctx, args, opts)
	}

	observer, events, closeFeed := ui.Feed(len(files) * 4)
	opts.Observer = observer

	var (
		res     *driver.Result
		expErr  error
		expDone = make(chan struct{})
	)
	go func() {
		defer close(expDone)
		defer closeFeed()
		res, expErr = driver.Expand(ctx, args, opts)
	}()

	uiErr := ui.Run(stderr, "expanding", files, events)
	// UI мог завершиться раньше: дочитываем события, чтобы воркеры не встали
	for range events {
	}
	<-expDone
	if expErr != nil {
		return res, expErr
	}
	if uiErr != nil {
		fmt.Fprintf(stderr, "progress view: %v\n", uiErr)
	}
	return res, nil
}

func expandStdin(cmd *cobra.Command, s *session, ef expandFlags, opts driver.Options) error {
	mark := s.timer.Begin("read stdin")
	content, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return fmt.Errorf("read stdin: %w", err)
	}
	mark.End("")

	fs, res := driver.ExpandSource(cmd.Context(), "<stdin>", content, opts)
	if err := reportWithSummary(cmd, res.Bag, fs); err != nil {
		return err
	}
	if ef.check {
		if res.Changed {
			fmt.Fprintln(cmd.OutOrStdout(), "would expand <stdin>")
			return errDiagnostics
		}
		return nil
	}
	if _, err := cmd.OutOrStdout().Write(res.Output); err != nil {
		return err
	}
	if res.Bag.HasErrors() {
		return errDiagnostics
	}
	return nil
}

// printOutputs пишет результат; для нескольких файлов с заголовками как у head.
func printOutputs(out io.Writer, files []driver.FileResult) error {
	multi := len(files) > 1
	for i, f := range files {
		if f.Output == nil {
			continue
		}
		if multi {
			sep := ""
			if i > 0 {
				sep = "\n"
			}
			if _, err := fmt.Fprintf(out, "%s==> %s <==\n", sep, f.Path); err != nil {
				return err
			}
		}
		if _, err := out.Write(f.Output); err != nil {
			return err
		}
	}
	return nil
}

// mergedBag collects already-ordered diagnostics of a run for rendering.
func mergedBag(items []diag.Diagnostic) *diag.Bag {
	bag := diag.NewBag(len(items))
	for _, d := range items {
		bag.Add(d)
	}
	return bag
}

// reportWithSummary prints diagnostics and the count line to stderr.
func reportWithSummary(cmd *cobra.Command, bag *diag.Bag, fs *source.FileSet) error {
	if bag == nil || bag.Len() == 0 || (isQuiet(cmd) && !bag.HasErrors()) {
		return nil
	}
	if err := reportToStderr(cmd, bag, fs); err != nil {
		return err
	}
	stderr := cmd.ErrOrStderr()
	color, err := useColor(cmd, stderr)
	if err != nil {
		return err
	}
	diagfmt.Summary(stderr, bag, color)
	return nil
}
