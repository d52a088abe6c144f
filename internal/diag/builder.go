package diag

import "prefmacro/internal/source"

func New(sev Severity, code Code, primary source.Span, msg string) Diagnostic {
	return Diagnostic{
		Severity: sev,
		Code:     code,
		Primary:  primary,
		Message:  msg,
	}
}

func NewError(code Code, primary source.Span, msg string) Diagnostic {
	return New(SevError, code, primary, msg)
}

func NewWarning(code Code, primary source.Span, msg string) Diagnostic {
	return New(SevWarning, code, primary, msg)
}

func (d Diagnostic) WithNote(sp source.Span, msg string) Diagnostic {
	d.Notes = append(d.Notes, Note{Span: sp, Msg: msg})
	return d
}

func (d Diagnostic) WithFix(title string, edits ...TextEdit) Diagnostic {
	d.Fixes = append(d.Fixes, Fix{
		Title:         title,
		Kind:          FixKindQuickFix,
		Applicability: FixApplicabilitySafeWithHeuristics,
		Edits:         edits,
	})
	return d
}

// WithFixSuggestion appends a fully configured (possibly lazy) fix.
func (d Diagnostic) WithFixSuggestion(fix Fix) Diagnostic {
	d.Fixes = append(d.Fixes, fix)
	return d
}
