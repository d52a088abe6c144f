package ast

import "prefmacro/internal/token"

// Attribute is `@Name` or `@Name(args...)`.
type Attribute struct {
	At   token.Token
	Name token.Token
	Args *ArgList
}

// ArgList is the parenthesized argument list of an attribute.
type ArgList struct {
	LParen token.Token
	Items  []Arg
	RParen token.Token
}

// Arg is `label: value` or a bare value. Comma is the trailing separator.
type Arg struct {
	Label token.Token
	Colon token.Token
	Value Expr
	Comma token.Token
}

func (a Attribute) Tokens() []token.Token {
	out := appendPresent(nil, a.At, a.Name)
	if a.Args == nil {
		return out
	}
	out = append(out, a.Args.LParen)
	for _, arg := range a.Args.Items {
		out = appendPresent(out, arg.Label, arg.Colon)
		out = append(out, arg.Value.Toks...)
		out = appendPresent(out, arg.Comma)
	}
	return appendPresent(out, a.Args.RParen)
}

// NameText returns the attribute name without '@'.
func (a Attribute) NameText() string { return a.Name.Text }

// Labeled returns the first argument with the given label.
func (a Attribute) Labeled(label string) (Arg, bool) {
	if a.Args == nil {
		return Arg{}, false
	}
	for _, arg := range a.Args.Items {
		if Present(arg.Label) && arg.Label.Text == label {
			return arg, true
		}
	}
	return Arg{}, false
}

// FindAttribute returns the index of the first attribute matched by match, or -1.
func FindAttribute(attrs []Attribute, match func(Attribute) bool) int {
	for i, a := range attrs {
		if match(a) {
			return i
		}
	}
	return -1
}
