package diag

import (
	"errors"
	"fmt"

	"prefmacro/internal/source"
)

type Note struct {
	Span source.Span
	Msg  string
}

// TextEdit replaces Span with NewText. A non-empty OldText must match the
// current content of Span for the edit to apply.
type TextEdit struct {
	Span    source.Span
	NewText string
	OldText string
}

// FixKind classifies a fix for UI listings.
type FixKind uint8

const (
	FixKindQuickFix FixKind = iota
	FixKindRefactor
	FixKindRefactorRewrite
	FixKindSourceAction
)

func (k FixKind) String() string {
	switch k {
	case FixKindQuickFix:
		return "quickfix"
	case FixKindRefactor:
		return "refactor"
	case FixKindRefactorRewrite:
		return "refactor.rewrite"
	case FixKindSourceAction:
		return "source"
	}
	return "unknown"
}

// FixApplicability is the confidence that a fix is correct without review.
type FixApplicability uint8

const (
	FixApplicabilityAlwaysSafe FixApplicability = iota
	FixApplicabilitySafeWithHeuristics
	FixApplicabilityManualReview
)

func (a FixApplicability) String() string {
	switch a {
	case FixApplicabilityAlwaysSafe:
		return "always-safe"
	case FixApplicabilitySafeWithHeuristics:
		return "safe-with-heuristics"
	case FixApplicabilityManualReview:
		return "manual-review"
	}
	return "unknown"
}

// FixBuildContext is handed to lazy fix builders.
type FixBuildContext struct {
	FileSet *source.FileSet
}

// FixThunk builds the edits of a fix on demand.
type FixThunk interface {
	BuildFix(ctx FixBuildContext) (Fix, error)
}

// FixThunkFunc adapts a function to FixThunk.
type FixThunkFunc func(ctx FixBuildContext) (Fix, error)

func (f FixThunkFunc) BuildFix(ctx FixBuildContext) (Fix, error) { return f(ctx) }

type Fix struct {
	ID            string
	Title         string
	Kind          FixKind
	Applicability FixApplicability
	IsPreferred   bool
	RequiresAll   bool
	Edits         []TextEdit
	Thunk         FixThunk
}

type Diagnostic struct {
	Severity Severity
	Code     Code
	Message  string
	Primary  source.Span
	Notes    []Note
	Fixes    []Fix
}

var errThunkNoEdits = errors.New("fix thunk produced no edits")

// Resolve materialises a lazy fix. Metadata set on the outer fix wins over
// the builder's when the builder leaves it empty.
func (f Fix) Resolve(ctx FixBuildContext) (Fix, error) {
	if f.Thunk == nil {
		return f, nil
	}
	built, err := f.Thunk.BuildFix(ctx)
	if err != nil {
		return Fix{}, fmt.Errorf("%s: %w", f.Title, err)
	}
	if len(built.Edits) == 0 {
		return Fix{}, fmt.Errorf("%s: %w", f.Title, errThunkNoEdits)
	}
	if built.ID == "" {
		built.ID = f.ID
	}
	if built.Title == "" {
		built.Title = f.Title
	}
	if built.Kind == FixKindQuickFix {
		built.Kind = f.Kind
	}
	if built.Applicability == FixApplicabilityAlwaysSafe {
		built.Applicability = f.Applicability
	}
	built.IsPreferred = built.IsPreferred || f.IsPreferred
	built.RequiresAll = built.RequiresAll || f.RequiresAll
	built.Thunk = nil
	return built, nil
}

// MaterializeFixes resolves every fix, stopping at the first failure.
func MaterializeFixes(ctx FixBuildContext, fixes []Fix) ([]Fix, error) {
	out := make([]Fix, 0, len(fixes))
	for _, f := range fixes {
		r, err := f.Resolve(ctx)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}
