package ast

import (
	"strings"

	"prefmacro/internal/token"
)

// TypeDecl is a nominal type: class, struct, enum, actor or protocol.
type TypeDecl struct {
	Attrs      []Attribute
	Mods       []Modifier
	Introducer token.Token
	Name       token.Token
	Header     []token.Token // generic parameters, inheritance and where clauses
	LBrace     token.Token
	Members    []Decl
	RBrace     token.Token
}

// ExtensionDecl is `extension T: P { ... }`. Header holds everything between
// the keyword and the body.
type ExtensionDecl struct {
	Attrs   []Attribute
	Mods    []Modifier
	Keyword token.Token
	Header  []token.Token
	LBrace  token.Token
	Members []Decl
	RBrace  token.Token
}

// VarDecl is a `var` or `let` declaration with one or more bindings.
type VarDecl struct {
	Attrs    []Attribute
	Mods     []Modifier
	Keyword  token.Token
	Bindings []Binding
}

// Binding is one `pattern: Type = init { accessors }` entry of a VarDecl.
type Binding struct {
	Pattern  []token.Token
	Colon    token.Token
	Type     TypeRef
	Assign   token.Token
	Init     Expr
	Accessor *Block
	Comma    token.Token
}

// FuncDecl covers func, init, deinit and subscript declarations.
type FuncDecl struct {
	Attrs     []Attribute
	Mods      []Modifier
	Keyword   token.Token
	Signature []token.Token
	Body      *Block
}

// OtherDecl is any member or top-level statement the parser does not model.
type OtherDecl struct {
	Attrs []Attribute
	Mods  []Modifier
	Toks  []token.Token
}

func (*TypeDecl) declNode()      {}
func (*ExtensionDecl) declNode() {}
func (*VarDecl) declNode()       {}
func (*FuncDecl) declNode()      {}
func (*OtherDecl) declNode()     {}

func (d *TypeDecl) Attributes() []Attribute      { return d.Attrs }
func (d *ExtensionDecl) Attributes() []Attribute { return d.Attrs }
func (d *VarDecl) Attributes() []Attribute       { return d.Attrs }
func (d *FuncDecl) Attributes() []Attribute      { return d.Attrs }
func (d *OtherDecl) Attributes() []Attribute     { return d.Attrs }

func (d *TypeDecl) Modifiers() []Modifier      { return d.Mods }
func (d *ExtensionDecl) Modifiers() []Modifier { return d.Mods }
func (d *VarDecl) Modifiers() []Modifier       { return d.Mods }
func (d *FuncDecl) Modifiers() []Modifier      { return d.Mods }
func (d *OtherDecl) Modifiers() []Modifier     { return d.Mods }

func prefixTokens(attrs []Attribute, mods []Modifier) []token.Token {
	out := make([]token.Token, 0, 16)
	for _, a := range attrs {
		out = append(out, a.Tokens()...)
	}
	for _, m := range mods {
		out = append(out, m.Tokens()...)
	}
	return out
}

func (d *TypeDecl) Tokens() []token.Token {
	out := prefixTokens(d.Attrs, d.Mods)
	out = appendPresent(out, d.Introducer, d.Name)
	out = append(out, d.Header...)
	out = appendPresent(out, d.LBrace)
	for _, m := range d.Members {
		out = append(out, m.Tokens()...)
	}
	return appendPresent(out, d.RBrace)
}

func (d *ExtensionDecl) Tokens() []token.Token {
	out := prefixTokens(d.Attrs, d.Mods)
	out = append(out, d.Keyword)
	out = append(out, d.Header...)
	out = appendPresent(out, d.LBrace)
	for _, m := range d.Members {
		out = append(out, m.Tokens()...)
	}
	return appendPresent(out, d.RBrace)
}

func (d *VarDecl) Tokens() []token.Token {
	out := prefixTokens(d.Attrs, d.Mods)
	out = append(out, d.Keyword)
	for _, b := range d.Bindings {
		out = append(out, b.Tokens()...)
	}
	return out
}

func (b Binding) Tokens() []token.Token {
	out := append([]token.Token(nil), b.Pattern...)
	out = appendPresent(out, b.Colon)
	out = append(out, b.Type.Toks...)
	out = appendPresent(out, b.Assign)
	out = append(out, b.Init.Toks...)
	out = append(out, b.Accessor.Tokens()...)
	return appendPresent(out, b.Comma)
}

// Name returns the bound identifier, or "" for tuple and wildcard patterns.
// Backticks of quoted identifiers are removed.
func (b Binding) Name() string {
	if len(b.Pattern) != 1 || !b.Pattern[0].IsWord() {
		return ""
	}
	return strings.Trim(b.Pattern[0].Text, "`")
}

func (b Binding) HasInitializer() bool { return Present(b.Assign) }

func (d *FuncDecl) Tokens() []token.Token {
	out := prefixTokens(d.Attrs, d.Mods)
	out = append(out, d.Keyword)
	out = append(out, d.Signature...)
	return append(out, d.Body.Tokens()...)
}

func (d *OtherDecl) Tokens() []token.Token {
	out := prefixTokens(d.Attrs, d.Mods)
	return append(out, d.Toks...)
}

// HasModifier reports whether d carries a modifier spelled name.
func HasModifier(d Decl, name string) bool {
	for _, m := range d.Modifiers() {
		if m.Name.Text == name {
			return true
		}
	}
	return false
}
