package token

import (
	"strings"

	"prefmacro/internal/source"
)

// Token represents a single source token with its location and trivia.
type Token struct {
	Kind    Kind
	Span    source.Span
	Text    string
	Leading []Trivia
}

// IsLiteral reports whether the token is a numeric, boolean, nil or string literal.
func (t Token) IsLiteral() bool {
	switch t.Kind {
	case IntLit, FloatLit, StringLit, KwTrue, KwFalse, KwNil:
		return true
	default:
		return false
	}
}

// IsKeyword reports whether the token is a reserved word.
func (t Token) IsKeyword() bool {
	return t.Kind >= KwClass && t.Kind <= KwNil
}

// IsIdent reports whether the token is an identifier.
func (t Token) IsIdent() bool { return t.Kind == Ident }

// IsWord reports whether the token is an identifier or keyword.
// Argument labels and member names may be spelled with keywords (`.in`, `in:`).
func (t Token) IsWord() bool { return t.Kind == Ident || t.IsKeyword() }

// Synthetic reports whether the token was built rather than read from a file.
func (t Token) Synthetic() bool { return !t.Span.IsValid() }

// HasNewlineBefore reports whether the leading trivia contains a line break.
func (t Token) HasNewlineBefore() bool {
	for _, tv := range t.Leading {
		if tv.Kind == TriviaNewline || (tv.Kind == TriviaBlockComment && strings.Contains(tv.Text, "\n")) {
			return true
		}
	}
	return false
}

// LeadingText concatenates the text of the leading trivia.
func (t Token) LeadingText() string {
	if len(t.Leading) == 0 {
		return ""
	}
	var b strings.Builder
	for _, tv := range t.Leading {
		b.WriteString(tv.Text)
	}
	return b.String()
}

// WithLeading returns a copy of t carrying the given trivia.
func (t Token) WithLeading(tv []Trivia) Token {
	t.Leading = tv
	return t
}
