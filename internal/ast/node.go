package ast

import (
	"strings"

	"prefmacro/internal/token"
)

// Node is any syntax fragment.
type Node interface {
	// Tokens returns the tokens of the node in source order.
	Tokens() []token.Token
}

// Decl is the closed set of declaration nodes:
// *TypeDecl, *ExtensionDecl, *VarDecl, *FuncDecl, *OtherDecl.
type Decl interface {
	Node
	Attributes() []Attribute
	Modifiers() []Modifier
	declNode()
}

// Present reports whether an optional token slot is filled.
func Present(t token.Token) bool { return t.Kind != token.Invalid || t.Text != "" }

// Expr is an opaque expression.
type Expr struct {
	Toks []token.Token
}

func (e Expr) Tokens() []token.Token { return e.Toks }

// IsEmpty reports whether the expression has no tokens.
func (e Expr) IsEmpty() bool { return len(e.Toks) == 0 }

// TypeRef is an opaque type annotation.
type TypeRef struct {
	Toks []token.Token
}

func (t TypeRef) Tokens() []token.Token { return t.Toks }

func (t TypeRef) IsEmpty() bool { return len(t.Toks) == 0 }

// Text returns the type spelled without trivia between tokens, e.g. "[String: Int]".
func (t TypeRef) Text() string {
	var b strings.Builder
	for i, tok := range t.Toks {
		if i > 0 && len(tok.Leading) > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(tok.Text)
	}
	return b.String()
}

// Block is a braced region whose content is kept as raw tokens.
type Block struct {
	LBrace token.Token
	Body   []token.Token
	RBrace token.Token
}

func (b *Block) Tokens() []token.Token {
	if b == nil {
		return nil
	}
	out := make([]token.Token, 0, len(b.Body)+2)
	out = append(out, b.LBrace)
	out = append(out, b.Body...)
	return appendPresent(out, b.RBrace)
}

// Modifier is a declaration modifier such as `private`, `static` or `private(set)`.
type Modifier struct {
	Name   token.Token
	Detail *ModifierDetail
}

// ModifierDetail is the parenthesized part of `private(set)`.
type ModifierDetail struct {
	LParen token.Token
	Arg    token.Token
	RParen token.Token
}

func (m Modifier) Tokens() []token.Token {
	out := []token.Token{m.Name}
	if m.Detail != nil {
		out = append(out, m.Detail.LParen, m.Detail.Arg)
		out = appendPresent(out, m.Detail.RParen)
	}
	return out
}

// IsAccessLevel reports whether the modifier sets visibility.
func (m Modifier) IsAccessLevel() bool {
	switch m.Name.Text {
	case "public", "private", "fileprivate", "internal", "open", "package":
		return true
	}
	return false
}

// File is a parsed source file. EOF carries the trailing trivia.
type File struct {
	Decls []Decl
	EOF   token.Token
}

func (f *File) Tokens() []token.Token {
	out := make([]token.Token, 0, 64)
	for _, d := range f.Decls {
		out = append(out, d.Tokens()...)
	}
	return append(out, f.EOF)
}

func appendPresent(out []token.Token, toks ...token.Token) []token.Token {
	for _, t := range toks {
		if Present(t) {
			out = append(out, t)
		}
	}
	return out
}
