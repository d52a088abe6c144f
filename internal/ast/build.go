package ast

import "prefmacro/internal/token"

// Leaf wraps a single token so it can be used where a Node is expected,
// e.g. as the anchor of a diagnostic on a keyword.
type Leaf struct {
	Tok token.Token
}

func (l Leaf) Tokens() []token.Token { return []token.Token{l.Tok} }

// Synth creates a synthetic token: it has no span and prints as
// leading trivia followed by text.
func Synth(kind token.Kind, text string, leading ...token.Trivia) token.Token {
	return token.Token{Kind: kind, Text: text, Leading: leading}
}

// Respell returns t with new kind and text, keeping its span and trivia.
// Used for keyword rewrites such as let → var.
func Respell(t token.Token, kind token.Kind, text string) token.Token {
	t.Kind = kind
	t.Text = text
	return t
}
