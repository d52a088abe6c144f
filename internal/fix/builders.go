package fix

import (
	"prefmacro/internal/diag"
	"prefmacro/internal/source"
)

// Option mutates a fix during construction.
type Option func(*diag.Fix)

func WithApplicability(app diag.FixApplicability) Option {
	return func(f *diag.Fix) { f.Applicability = app }
}

func WithKind(kind diag.FixKind) Option {
	return func(f *diag.Fix) { f.Kind = kind }
}

// Preferred marks the fix as the suggestion editors apply first.
func Preferred() Option {
	return func(f *diag.Fix) { f.IsPreferred = true }
}

// WithID sets the identifier used by `fix --id`.
func WithID(id string) Option {
	return func(f *diag.Fix) { f.ID = id }
}

// WithRequiresAll excludes the fix from single-fix selection.
func WithRequiresAll() Option {
	return func(f *diag.Fix) { f.RequiresAll = true }
}

func build(f diag.Fix, opts []Option) diag.Fix {
	for _, opt := range opts {
		if opt != nil {
			opt(&f)
		}
	}
	return f
}

// ReplaceSpan replaces the text under span. A non-empty expect guards the
// edit against stale input.
func ReplaceSpan(title string, span source.Span, newText, expect string, opts ...Option) diag.Fix {
	return build(diag.Fix{
		Title:         title,
		Kind:          diag.FixKindQuickFix,
		Applicability: diag.FixApplicabilityAlwaysSafe,
		Edits:         []diag.TextEdit{{Span: span, NewText: newText, OldText: expect}},
	}, opts)
}

// InsertText inserts text at the start of at.
func InsertText(title string, at source.Span, text string, opts ...Option) diag.Fix {
	at.End = at.Start
	return ReplaceSpan(title, at, text, "", opts...)
}

// Lazy defers edit construction to fn; metadata from opts is merged by
// diag.Fix.Resolve.
func Lazy(title string, fn func() (diag.Fix, error), opts ...Option) diag.Fix {
	return build(diag.Fix{
		Title: title,
		Kind:  diag.FixKindQuickFix,
		Thunk: diag.FixThunkFunc(func(diag.FixBuildContext) (diag.Fix, error) { return fn() }),
	}, opts)
}
