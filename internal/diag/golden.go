package diag

import (
	"fmt"
	"sort"
	"strings"

	"prefmacro/internal/source"
)

type lineDiagnostic struct {
	Severity string
	Code     string
	Path     string
	Line     uint32
	Column   uint32
	Message  string
}

// FormatGoldenDiagnostics renders diagnostics one per line with paths
// relative to the FileSet base directory, sorted deterministically. Used by
// tests that compare against golden strings.
func FormatGoldenDiagnostics(diags []Diagnostic, fs *source.FileSet, includeNotes bool) string {
	return formatDiagnostics(diags, fs, includeNotes, "relative")
}

// FormatShortDiagnostics renders the same one-line form for `diag --format short`.
func FormatShortDiagnostics(diags []Diagnostic, fs *source.FileSet, includeNotes bool, pathMode string) string {
	return formatDiagnostics(diags, fs, includeNotes, pathMode)
}

func formatDiagnostics(diags []Diagnostic, fs *source.FileSet, includeNotes bool, pathMode string) string {
	if fs == nil || len(diags) == 0 {
		return ""
	}

	rendered := make([]lineDiagnostic, 0, len(diags))
	for i := range diags {
		rendered = appendDiagnostic(rendered, &diags[i], fs, includeNotes, pathMode)
	}

	sort.SliceStable(rendered, func(i, j int) bool {
		di, dj := rendered[i], rendered[j]
		if di.Path != dj.Path {
			return di.Path < dj.Path
		}
		if di.Line != dj.Line {
			return di.Line < dj.Line
		}
		if di.Column != dj.Column {
			return di.Column < dj.Column
		}
		if di.Severity != dj.Severity {
			return di.Severity < dj.Severity
		}
		if di.Code != dj.Code {
			return di.Code < dj.Code
		}
		return di.Message < dj.Message
	})

	var b strings.Builder
	for i, d := range rendered {
		fmt.Fprintf(&b, "%s %s %s:%d:%d %s", d.Severity, d.Code, d.Path, d.Line, d.Column, d.Message)
		if i < len(rendered)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func appendDiagnostic(out []lineDiagnostic, d *Diagnostic, fs *source.FileSet, includeNotes bool, pathMode string) []lineDiagnostic {
	if loc, ok := resolveSpan(fs, d.Primary, pathMode); ok {
		out = append(out, lineDiagnostic{
			Severity: d.Severity.Label(),
			Code:     d.Code.ID(),
			Path:     loc.Path,
			Line:     loc.Line,
			Column:   loc.Column,
			Message:  sanitizeMessage(d.Message),
		})
	}
	if !includeNotes {
		return out
	}
	for _, note := range d.Notes {
		nloc, ok := resolveSpan(fs, note.Span, pathMode)
		if !ok {
			continue
		}
		out = append(out, lineDiagnostic{
			Severity: "note",
			Code:     d.Code.ID(),
			Path:     nloc.Path,
			Line:     nloc.Line,
			Column:   nloc.Column,
			Message:  sanitizeMessage(note.Msg),
		})
	}
	return out
}

type resolvedSpan struct {
	Path   string
	Line   uint32
	Column uint32
}

func resolveSpan(fs *source.FileSet, span source.Span, pathMode string) (resolvedSpan, bool) {
	file := fs.Get(span.File)
	if file == nil {
		return resolvedSpan{}, false
	}
	start, _ := fs.Resolve(span)
	return resolvedSpan{
		Path:   strings.TrimPrefix(file.FormatPath(pathMode, fs.BaseDir()), "./"),
		Line:   start.Line,
		Column: start.Col,
	}, true
}

func sanitizeMessage(msg string) string {
	msg = strings.ReplaceAll(msg, "\r\n", "\n")
	msg = strings.ReplaceAll(msg, "\r", "\n")
	msg = strings.ReplaceAll(msg, "\n", " ")
	return strings.TrimSpace(msg)
}
