package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"prefmacro/internal/observ"
	"prefmacro/internal/prof"
	"prefmacro/internal/version"
)

// session carries state shared by the command tree for one invocation.
type session struct {
	stdin  io.Reader
	timer  *observ.Timer
	prof   *prof.Session
	finish func(failed bool)
}

// exitError ends the process with code without printing anything more;
// the command has already reported the problem.
type exitError struct{ code int }

func (e *exitError) Error() string { return fmt.Sprintf("exit status %d", e.code) }

var errDiagnostics = &exitError{code: 1}

func newRootCmd(s *session) *cobra.Command {
	root := &cobra.Command{
		Use:   "prefmacro",
		Short: "Expand @Preferences and @Stored annotations in Swift sources",
		Long: `prefmacro rewrites classes annotated with @Preferences and properties annotated
with @Stored into observable, storage-backed declarations, and reports
misuse of the annotations with fix suggestions.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			timings, err := cmd.Root().PersistentFlags().GetBool("timings")
			if err != nil {
				return fmt.Errorf("failed to get timings flag: %w", err)
			}
			if timings {
				s.timer = observ.NewTimer()
			}
			if s.prof, err = setupProfiling(cmd); err != nil {
				return err
			}
			finish, err := setupTracing(cmd)
			if err != nil {
				return err
			}
			s.finish = finish
			return nil
		},
	}

	// Глобальные флаги
	pf := root.PersistentFlags()
	pf.String("color", "auto", "colorize output (auto|on|off)")
	pf.Bool("quiet", false, "suppress non-essential output")
	pf.Bool("timings", false, "show timing information")
	pf.Int("max-diagnostics", 0, "maximum number of diagnostics per file (0 = from config)")
	pf.String("config", "", "path to prefmacro.toml (default: discovered from the target path)")
	pf.String("trace", "", "write trace events to file ('-' for stderr)")
	pf.String("trace-level", "off", "trace level (off|error|phase|detail|debug)")
	pf.String("trace-mode", "stream", "trace storage (stream|ring|both)")
	pf.String("trace-format", "auto", "trace output format (auto|text|ndjson)")
	pf.Int("trace-ring-size", 4096, "events kept by the ring tracer")
	pf.Duration("trace-heartbeat", 0, "emit heartbeat events at this interval (0 = off)")
	pf.String("cpuprofile", "", "write a CPU profile to file")
	pf.String("memprofile", "", "write a heap profile to file on exit")
	pf.String("exec-trace", "", "write a Go execution trace to file")

	root.AddCommand(
		newTokenizeCmd(s),
		newParseCmd(s),
		newExpandCmd(s),
		newDiagCmd(s),
		newFixCmd(s),
		newInitCmd(s),
		newVersionCmd(s),
	)
	return root
}

// execute runs the CLI and returns the process exit code.
func execute(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	s := &session{stdin: stdin}
	root := newRootCmd(s)
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if s.finish != nil {
		s.finish(err != nil)
	}
	if profErr := s.prof.Stop(); profErr != nil {
		fmt.Fprintf(stderr, "prefmacro: %v\n", profErr)
	}
	if s.timer != nil {
		fmt.Fprint(stderr, s.timer.Summary())
	}

	var ee *exitError
	switch {
	case err == nil:
		return 0
	case errors.As(err, &ee):
		return ee.code
	default:
		fmt.Fprintf(stderr, "prefmacro: %v\n", err)
		return 1
	}
}

func main() {
	os.Exit(execute(context.Background(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// isTerminal проверяет, является ли writer терминалом
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// useColor resolves --color for output going to w. NO_COLOR disables auto.
func useColor(cmd *cobra.Command, w io.Writer) (bool, error) {
	value, err := cmd.Root().PersistentFlags().GetString("color")
	if err != nil {
		return false, fmt.Errorf("failed to get color flag: %w", err)
	}
	switch strings.ToLower(value) {
	case "on", "always":
		return true, nil
	case "off", "never":
		return false, nil
	case "auto", "":
		return os.Getenv("NO_COLOR") == "" && isTerminal(w), nil
	}
	return false, fmt.Errorf("invalid --color value %q (expected auto|on|off)", value)
}
