package expand

import (
	"fmt"

	"prefmacro/internal/ast"
	"prefmacro/internal/diag"
	"prefmacro/internal/token"
)

// Diagnostic is a finding of a pass, anchored at a node of its input.
type Diagnostic struct {
	Severity diag.Severity
	Code     diag.Code
	Anchor   ast.Node
	Message  string
	Fix      *Fix
}

// Fix proposes replacing one complete sub-tree with another.
type Fix struct {
	Message       string
	Applicability diag.FixApplicability
	Change        Replacement
}

// Replacement: Old is a node of the input, New a freshly built node that
// prints as its substitute.
type Replacement struct {
	Old ast.Node
	New ast.Node
}

// Injection asks the host to add Attribute to the Member-th member of the
// annotated type.
type Injection struct {
	Member    int
	Target    ast.Decl
	Attribute ast.Attribute
}

// Result is the output of one pass invocation.
type Result struct {
	Diagnostics []Diagnostic
	// Declarations are new peers (property pass), new members (type pass)
	// or extensions (conformance).
	Declarations []ast.Decl
	// Replacements substitute the expanded property, one declaration per
	// binding; empty otherwise.
	Replacements []ast.Decl
	Attributes   []Injection
}

// HasErrors reports whether any diagnostic is an error.
func (r Result) HasErrors() bool {
	for _, d := range r.Diagnostics {
		if d.Severity == diag.SevError {
			return true
		}
	}
	return false
}

// NotAttachedToClass: the type annotation sits on a non-class type or on
// something that is not a type at all. Only the former gets a fix.
func NotAttachedToClass(decl ast.Decl, cfg Config) Diagnostic {
	d := Diagnostic{
		Severity: diag.SevError,
		Code:     diag.ExpNotAttachedToClass,
		Anchor:   decl,
		Message:  fmt.Sprintf("'%s' macro can only be applied to a class", cfg.TypeAttribute),
	}
	td, ok := decl.(*ast.TypeDecl)
	if !ok {
		return d
	}
	intro := ast.Leaf{Tok: td.Introducer}
	d.Anchor = intro
	d.Fix = &Fix{
		Message:       "Change declaration to a class",
		Applicability: diag.FixApplicabilitySafeWithHeuristics,
		Change: Replacement{
			Old: intro,
			New: ast.Leaf{Tok: ast.Respell(td.Introducer, token.KwClass, "class")},
		},
	}
	return d
}

// NotAttachedToVariable has no fix: there is no property to repair.
func NotAttachedToVariable(anchor ast.Node, cfg Config) Diagnostic {
	return Diagnostic{
		Severity: diag.SevError,
		Code:     diag.ExpNotAttachedToVariable,
		Anchor:   anchor,
		Message:  fmt.Sprintf("'%s' must be attached to a property", cfg.PropertyAttribute),
	}
}

// NotMutable anchors at the binding keyword and rewrites only that keyword.
func NotMutable(decl *ast.VarDecl, cfg Config) Diagnostic {
	kw := ast.Leaf{Tok: decl.Keyword}
	return Diagnostic{
		Severity: diag.SevError,
		Code:     diag.ExpNotMutable,
		Anchor:   kw,
		Message:  fmt.Sprintf("'%s' declarations must be mutable", cfg.PropertyAttribute),
		Fix: &Fix{
			Message:       "Make declaration mutable",
			Applicability: diag.FixApplicabilityAlwaysSafe,
			Change: Replacement{
				Old: kw,
				New: ast.Leaf{Tok: ast.Respell(decl.Keyword, token.KwVar, "var")},
			},
		},
	}
}

// HasAccessorBlock anchors at the block of one binding. The fix drops the
// block and, when the binding has no initializer, adds a placeholder one.
func HasAccessorBlock(b ast.Binding, cfg Config) Diagnostic {
	nb := b
	nb.Accessor = nil
	if !nb.HasInitializer() {
		nb = withPlaceholder(nb, cfg)
	}
	return Diagnostic{
		Severity: diag.SevError,
		Code:     diag.ExpHasAccessorBlock,
		Anchor:   b.Accessor,
		Message:  fmt.Sprintf("'%s' properties can not have an accessor block (get/set)", cfg.PropertyAttribute),
		Fix: &Fix{
			Message:       "Remove accessor block",
			Applicability: diag.FixApplicabilityManualReview,
			Change:        Replacement{Old: b, New: nb},
		},
	}
}

// RequiresInitializer anchors at the binding and inserts `= <#initializer#>`.
func RequiresInitializer(b ast.Binding, cfg Config) Diagnostic {
	return Diagnostic{
		Severity: diag.SevError,
		Code:     diag.ExpRequiresInitializer,
		Anchor:   b,
		Message:  fmt.Sprintf("'%s' properties must have an initial value", cfg.PropertyAttribute),
		Fix: &Fix{
			Message:       "Add initializer to provide a default value",
			Applicability: diag.FixApplicabilitySafeWithHeuristics,
			Change:        Replacement{Old: b, New: withPlaceholder(b, cfg)},
		},
	}
}

func withPlaceholder(b ast.Binding, cfg Config) ast.Binding {
	b.Assign = ast.Synth(token.Assign, "=", token.Space(" "))
	b.Init = ast.Expr{Toks: []token.Token{ast.Synth(token.Placeholder, cfg.Placeholder, token.Space(" "))}}
	return b
}

// UnknownStorageBackend warns that `in:` names no known backend.
func UnknownStorageBackend(arg ast.Expr, raw string, fallback StorageBackend) Diagnostic {
	return Diagnostic{
		Severity: diag.SevWarning,
		Code:     diag.ExpUnknownStorageBackend,
		Anchor:   arg,
		Message:  fmt.Sprintf("unknown storage backend '%s', using '%s'", raw, fallback),
	}
}

// MissingTypeAnnotation warns that the value type could not be inferred,
// so generated reads are not cast.
func MissingTypeAnnotation(b ast.Binding) Diagnostic {
	return Diagnostic{
		Severity: diag.SevWarning,
		Code:     diag.ExpMissingTypeAnnotation,
		Anchor:   b,
		Message:  fmt.Sprintf("cannot infer the type of '%s'; add a type annotation", b.Name()),
	}
}

// MaterializeFailed reports generated text that did not parse back.
func MaterializeFailed(anchor ast.Node, err error) Diagnostic {
	return Diagnostic{
		Severity: diag.SevError,
		Code:     diag.ExpMaterializeFailed,
		Anchor:   anchor,
		Message:  fmt.Sprintf("generated code is malformed: %v", err),
	}
}
