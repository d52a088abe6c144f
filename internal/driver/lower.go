package driver

import (
	"fmt"
	"path/filepath"

	"prefmacro/internal/ast"
	"prefmacro/internal/diag"
	"prefmacro/internal/expand"
	"prefmacro/internal/fix"
	"prefmacro/internal/source"
)

// lower converts a pass diagnostic into the file-level model. Anchors that
// are fully synthesized (injected attributes) fall back to owner's span.
func lower(d expand.Diagnostic, owner ast.Node, path string) diag.Diagnostic {
	var span source.Span
	if d.Anchor != nil {
		span = ast.SpanOf(d.Anchor)
	}
	if !span.IsValid() && owner != nil {
		span = ast.SpanOf(owner)
	}
	out := diag.New(d.Severity, d.Code, span, d.Message)
	if d.Fix != nil {
		if f, ok := lowerFix(d.Code, *d.Fix, path); ok {
			out = out.WithFixSuggestion(f)
		}
	}
	return out
}

// lowerFix turns a node replacement into a lazy single-edit fix. The edit
// is guarded by the text of the replaced node.
func lowerFix(code diag.Code, f expand.Fix, path string) (diag.Fix, bool) {
	old, repl := f.Change.Old, f.Change.New
	if old == nil || repl == nil {
		return diag.Fix{}, false
	}
	span := ast.SpanOf(old)
	if !span.IsValid() {
		return diag.Fix{}, false
	}
	title := f.Message
	return fix.Lazy(title, func() (diag.Fix, error) {
		return fix.ReplaceSpan(title, span, ast.PrintTrimmed(repl), ast.PrintTrimmed(old)), nil
	},
		fix.WithID(fixID(code, path, span)),
		fix.WithApplicability(f.Applicability),
		fix.Preferred(),
	), true
}

// fixID is stable across runs and file load order: EXP3005@app/Prefs.swift:120.
// path is the file's display path relative to the run's base directory.
func fixID(code diag.Code, path string, span source.Span) string {
	return fmt.Sprintf("%s@%s:%d", code.ID(), filepath.ToSlash(path), span.Start)
}
