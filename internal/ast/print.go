package ast

import (
	"strings"

	"prefmacro/internal/source"
	"prefmacro/internal/token"
)

// Print renders n exactly, including the leading trivia of its first token.
func Print(n Node) string {
	var b strings.Builder
	for _, tok := range n.Tokens() {
		for _, tv := range tok.Leading {
			b.WriteString(tv.Text)
		}
		b.WriteString(tok.Text)
	}
	return b.String()
}

// PrintTrimmed renders n without the leading trivia of its first token, i.e.
// the text covered by SpanOf for nodes read from a file.
func PrintTrimmed(n Node) string {
	toks := n.Tokens()
	var b strings.Builder
	for i, tok := range toks {
		if i > 0 {
			for _, tv := range tok.Leading {
				b.WriteString(tv.Text)
			}
		}
		b.WriteString(tok.Text)
	}
	return b.String()
}

// SpanOf returns the span from the first to the last token of n that was
// read from a file. Synthesized tokens are ignored; a fully synthesized node
// yields the zero Span.
func SpanOf(n Node) source.Span {
	var sp source.Span
	for _, tok := range n.Tokens() {
		if tok.Span.IsValid() {
			sp = sp.Cover(tok.Span)
		}
	}
	return sp
}

// FirstToken returns the first token of n.
func FirstToken(n Node) (token.Token, bool) {
	toks := n.Tokens()
	if len(toks) == 0 {
		return token.Token{}, false
	}
	return toks[0], true
}

// LastToken returns the last token of n.
func LastToken(n Node) (token.Token, bool) {
	toks := n.Tokens()
	if len(toks) == 0 {
		return token.Token{}, false
	}
	return toks[len(toks)-1], true
}

// Equal reports whether a and b print identically token by token. Spans are
// not compared, so a synthesized tree equals the parsed tree of its text.
func Equal(a, b Node) bool {
	ta, tb := a.Tokens(), b.Tokens()
	if len(ta) != len(tb) {
		return false
	}
	for i := range ta {
		if ta[i].Kind != tb[i].Kind || ta[i].Text != tb[i].Text || ta[i].LeadingText() != tb[i].LeadingText() {
			return false
		}
	}
	return true
}

// IndentOf returns the whitespace that follows the last line break in the
// leading trivia of n's first token.
func IndentOf(n Node) string {
	first, ok := FirstToken(n)
	if !ok {
		return ""
	}
	lead := first.LeadingText()
	if i := strings.LastIndexByte(lead, '\n'); i >= 0 {
		lead = lead[i+1:]
	}
	if strings.TrimLeft(lead, " \t") != "" {
		return ""
	}
	return lead
}
