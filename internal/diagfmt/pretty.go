package diagfmt

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"prefmacro/internal/diag"
	"prefmacro/internal/source"
)

const tabWidth = 4

type palette struct {
	err, warn, info *color.Color
	code, path      *color.Color
	gutter, caret   *color.Color
	note, fix       *color.Color
	removed, added  *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		err:     color.New(color.FgRed, color.Bold),
		warn:    color.New(color.FgYellow, color.Bold),
		info:    color.New(color.FgCyan, color.Bold),
		code:    color.New(color.Bold),
		path:    color.New(color.FgBlue),
		gutter:  color.New(color.FgBlue, color.Bold),
		caret:   color.New(color.FgRed, color.Bold),
		note:    color.New(color.FgCyan),
		fix:     color.New(color.FgGreen),
		removed: color.New(color.FgRed),
		added:   color.New(color.FgGreen),
	}
	for _, c := range []*color.Color{p.err, p.warn, p.info, p.code, p.path, p.gutter, p.caret, p.note, p.fix, p.removed, p.added} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p palette) severity(s diag.Severity) *color.Color {
	switch s {
	case diag.SevError:
		return p.err
	case diag.SevWarning:
		return p.warn
	default:
		return p.info
	}
}

// Pretty renders diagnostics with source excerpts:
//
//	error[EXP3001]: message
//	  --> Prefs.swift:1:14
//	   |
//	 1 | @Preferences struct Prefs {
//	   |              ^^^^^^
func Pretty(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) {
	if bag == nil {
		return
	}
	p := newPalette(opts.Color)
	for i, d := range bag.Items() {
		if i > 0 {
			fmt.Fprintln(w)
		}
		prettyOne(w, p, d, fs, opts)
	}
}

func prettyOne(w io.Writer, p palette, d diag.Diagnostic, fs *source.FileSet, opts PrettyOpts) {
	sev := p.severity(d.Severity)
	fmt.Fprintf(w, "%s%s %s\n", sev.Sprint(d.Severity.Label()), p.code.Sprintf("[%s]:", d.Code.ID()), d.Message)

	gutter := 1
	if resolvable(fs, d.Primary) {
		start, end := fs.Resolve(d.Primary)
		last := int(end.Line) + int(max(opts.Context, 0))
		gutter = len(strconv.Itoa(last))
		pad := strings.Repeat(" ", gutter)
		fmt.Fprintf(w, "%s%s %s:%d:%d\n", pad, p.gutter.Sprint("-->"), p.path.Sprint(displayPath(fs, d.Primary.File, opts.PathMode)), start.Line, start.Col)
		renderExcerpt(w, p, fs.Get(d.Primary.File), start, end, gutter, int(max(opts.Context, 0)))
	}

	pad := strings.Repeat(" ", gutter)
	if opts.ShowNotes {
		for _, n := range d.Notes {
			loc := ""
			if resolvable(fs, n.Span) {
				s, _ := fs.Resolve(n.Span)
				loc = fmt.Sprintf(" (%s:%d:%d)", displayPath(fs, n.Span.File, opts.PathMode), s.Line, s.Col)
			}
			fmt.Fprintf(w, "%s %s %s%s\n", pad, p.gutter.Sprint("="), p.note.Sprint("note: ")+n.Msg, loc)
		}
	}
	if !opts.ShowFixes {
		return
	}
	ctx := diag.FixBuildContext{FileSet: fs}
	for _, f := range sortedFixes(d.Fixes) {
		resolved, err := f.Resolve(ctx)
		if err != nil {
			fmt.Fprintf(w, "%s %s %s%s (unavailable: %v)\n", pad, p.gutter.Sprint("="), p.fix.Sprint("fix: "), f.Title, err)
			continue
		}
		tags := []string{resolved.Kind.String(), resolved.Applicability.String()}
		if resolved.IsPreferred {
			tags = append(tags, "preferred")
		}
		fmt.Fprintf(w, "%s %s %s%s [%s]", pad, p.gutter.Sprint("="), p.fix.Sprint("fix: "), resolved.Title, strings.Join(tags, ", "))
		if resolved.ID != "" {
			fmt.Fprintf(w, " id=%s", resolved.ID)
		}
		fmt.Fprintln(w)
		if opts.ShowPreview {
			for _, e := range resolved.Edits {
				renderPreview(w, p, fs, e, gutter)
			}
		}
	}
}

func renderExcerpt(w io.Writer, p palette, f *source.File, start, end source.LineCol, gutter, context int) {
	pad := strings.Repeat(" ", gutter)
	bar := p.gutter.Sprint("|")
	fmt.Fprintf(w, "%s %s\n", pad, bar)

	first := max(int(start.Line)-context, 1)
	last := int(end.Line) + context
	for ln := first; ln <= last; ln++ {
		line := f.GetLine(uint32(ln))
		if line == "" && ln > int(end.Line) {
			break
		}
		fmt.Fprintf(w, "%s %s %s\n", p.gutter.Sprintf("%*d", gutter, ln), bar, expandTabs(line))
		if ln != int(start.Line) {
			continue
		}
		col := int(start.Col) - 1
		stop := len(line)
		if end.Line == start.Line {
			stop = min(int(end.Col)-1, len(line))
		}
		col = min(col, len(line))
		offset := displayWidth(line[:col])
		width := max(displayWidth(line[col:max(stop, col)]), 1)
		fmt.Fprintf(w, "%s %s %s%s\n", pad, bar, strings.Repeat(" ", offset), p.caret.Sprint(strings.Repeat("^", width)))
	}
}

func renderPreview(w io.Writer, p palette, fs *source.FileSet, e diag.TextEdit, gutter int) {
	pv, err := buildFixEditPreview(fs, e)
	if err != nil {
		return
	}
	pad := strings.Repeat(" ", gutter)
	for i, l := range pv.before {
		fmt.Fprintf(w, "%s   %s\n", pad, p.removed.Sprintf("- %d | %s", int(pv.startLine)+i, expandTabs(l)))
	}
	for i, l := range pv.after {
		fmt.Fprintf(w, "%s   %s\n", pad, p.added.Sprintf("+ %d | %s", int(pv.startLine)+i, expandTabs(l)))
	}
}

func expandTabs(s string) string {
	return strings.ReplaceAll(s, "\t", strings.Repeat(" ", tabWidth))
}

func displayWidth(s string) int {
	return runewidth.StringWidth(expandTabs(s))
}

// Summary prints the closing `N errors, M warnings` line.
func Summary(w io.Writer, bag *diag.Bag, useColor bool) {
	if bag == nil || bag.Len() == 0 {
		return
	}
	p := newPalette(useColor)
	errs := bag.Count(diag.SevError)
	warns := bag.Count(diag.SevWarning)
	parts := make([]string, 0, 2)
	if errs > 0 {
		parts = append(parts, p.err.Sprint(plural(errs, "error")))
	}
	if warns > 0 {
		parts = append(parts, p.warn.Sprint(plural(warns, "warning")))
	}
	if len(parts) == 0 {
		parts = append(parts, p.info.Sprint(plural(bag.Len(), "note")))
	}
	fmt.Fprintf(w, "%s emitted\n", strings.Join(parts, ", "))
}

func plural(n int, word string) string {
	if n == 1 {
		return "1 " + word
	}
	return strconv.Itoa(n) + " " + word + "s"
}
