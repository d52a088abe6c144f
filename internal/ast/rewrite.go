package ast

import (
	"slices"

	"prefmacro/internal/source"
	"prefmacro/internal/token"
)

// TokenFunc maps one token to its replacement.
type TokenFunc func(token.Token) token.Token

type mapper struct {
	fn TokenFunc
}

func (m *mapper) tok(t token.Token) token.Token {
	if !Present(t) {
		return t
	}
	return m.fn(t)
}

func (m *mapper) toks(ts []token.Token) []token.Token {
	if ts == nil {
		return nil
	}
	out := make([]token.Token, len(ts))
	for i, t := range ts {
		out[i] = m.tok(t)
	}
	return out
}

func (m *mapper) attrs(as []Attribute) []Attribute {
	if as == nil {
		return nil
	}
	out := make([]Attribute, len(as))
	for i, a := range as {
		out[i] = m.attr(a)
	}
	return out
}

func (m *mapper) attr(a Attribute) Attribute {
	at := m.tok(a.At)
	name := m.tok(a.Name)
	res := Attribute{At: at, Name: name}
	if a.Args == nil {
		return res
	}
	args := &ArgList{LParen: m.tok(a.Args.LParen)}
	for _, arg := range a.Args.Items {
		label := m.tok(arg.Label)
		colon := m.tok(arg.Colon)
		value := Expr{Toks: m.toks(arg.Value.Toks)}
		comma := m.tok(arg.Comma)
		args.Items = append(args.Items, Arg{Label: label, Colon: colon, Value: value, Comma: comma})
	}
	args.RParen = m.tok(a.Args.RParen)
	res.Args = args
	return res
}

func (m *mapper) mods(ms []Modifier) []Modifier {
	if ms == nil {
		return nil
	}
	out := make([]Modifier, len(ms))
	for i, mod := range ms {
		out[i] = Modifier{Name: m.tok(mod.Name)}
		if mod.Detail != nil {
			lp := m.tok(mod.Detail.LParen)
			arg := m.tok(mod.Detail.Arg)
			rp := m.tok(mod.Detail.RParen)
			out[i].Detail = &ModifierDetail{LParen: lp, Arg: arg, RParen: rp}
		}
	}
	return out
}

func (m *mapper) block(b *Block) *Block {
	if b == nil {
		return nil
	}
	lb := m.tok(b.LBrace)
	body := m.toks(b.Body)
	rb := m.tok(b.RBrace)
	return &Block{LBrace: lb, Body: body, RBrace: rb}
}

func (m *mapper) decls(ds []Decl) []Decl {
	if ds == nil {
		return nil
	}
	out := make([]Decl, len(ds))
	for i, d := range ds {
		out[i] = m.decl(d)
	}
	return out
}

func (m *mapper) decl(d Decl) Decl {
	switch d := d.(type) {
	case *TypeDecl:
		res := &TypeDecl{Attrs: m.attrs(d.Attrs)}
		res.Mods = m.mods(d.Mods)
		res.Introducer = m.tok(d.Introducer)
		res.Name = m.tok(d.Name)
		res.Header = m.toks(d.Header)
		res.LBrace = m.tok(d.LBrace)
		res.Members = m.decls(d.Members)
		res.RBrace = m.tok(d.RBrace)
		return res
	case *ExtensionDecl:
		res := &ExtensionDecl{Attrs: m.attrs(d.Attrs)}
		res.Mods = m.mods(d.Mods)
		res.Keyword = m.tok(d.Keyword)
		res.Header = m.toks(d.Header)
		res.LBrace = m.tok(d.LBrace)
		res.Members = m.decls(d.Members)
		res.RBrace = m.tok(d.RBrace)
		return res
	case *VarDecl:
		res := &VarDecl{Attrs: m.attrs(d.Attrs)}
		res.Mods = m.mods(d.Mods)
		res.Keyword = m.tok(d.Keyword)
		res.Bindings = make([]Binding, len(d.Bindings))
		for i, b := range d.Bindings {
			res.Bindings[i] = m.binding(b)
		}
		return res
	case *FuncDecl:
		res := &FuncDecl{Attrs: m.attrs(d.Attrs)}
		res.Mods = m.mods(d.Mods)
		res.Keyword = m.tok(d.Keyword)
		res.Signature = m.toks(d.Signature)
		res.Body = m.block(d.Body)
		return res
	case *OtherDecl:
		res := &OtherDecl{Attrs: m.attrs(d.Attrs)}
		res.Mods = m.mods(d.Mods)
		res.Toks = m.toks(d.Toks)
		return res
	}
	return d
}

func (m *mapper) binding(b Binding) Binding {
	var res Binding
	res.Pattern = m.toks(b.Pattern)
	res.Colon = m.tok(b.Colon)
	res.Type = TypeRef{Toks: m.toks(b.Type.Toks)}
	res.Assign = m.tok(b.Assign)
	res.Init = Expr{Toks: m.toks(b.Init.Toks)}
	res.Accessor = m.block(b.Accessor)
	res.Comma = m.tok(b.Comma)
	return res
}

// MapDecl returns a copy of d with fn applied to every token in source order.
func MapDecl(d Decl, fn TokenFunc) Decl {
	m := &mapper{fn: fn}
	return m.decl(d)
}

// MapAttribute returns a copy of a with fn applied to every token.
func MapAttribute(a Attribute, fn TokenFunc) Attribute {
	m := &mapper{fn: fn}
	return m.attr(a)
}

// MapBinding returns a copy of b with fn applied to every token.
func MapBinding(b Binding, fn TokenFunc) Binding {
	m := &mapper{fn: fn}
	return m.binding(b)
}

// firstOnly applies fn to the first token only.
func firstOnly(fn TokenFunc) TokenFunc {
	done := false
	return func(t token.Token) token.Token {
		if done {
			return t
		}
		done = true
		return fn(t)
	}
}

// WithLeading returns a copy of d whose first token carries tv.
func WithLeading(d Decl, tv []token.Trivia) Decl {
	return MapDecl(d, firstOnly(func(t token.Token) token.Token {
		return t.WithLeading(slices.Clone(tv))
	}))
}

// StripSpans returns a copy of d in which every token is synthetic.
func StripSpans(d Decl) Decl {
	return MapDecl(d, func(t token.Token) token.Token {
		t.Span = source.Span{}
		t.Leading = stripTriviaSpans(t.Leading)
		return t
	})
}

func stripTriviaSpans(tv []token.Trivia) []token.Trivia {
	if tv == nil {
		return nil
	}
	out := make([]token.Trivia, len(tv))
	for i, t := range tv {
		out[i] = token.Trivia{Kind: t.Kind, Text: t.Text}
	}
	return out
}

// Indent returns a copy of d where every line break inside d (not in the
// leading trivia of its first token) is followed by indent.
func Indent(d Decl, indent string) Decl {
	if indent == "" {
		return d
	}
	first := true
	return MapDecl(d, func(t token.Token) token.Token {
		if first {
			first = false
			return t
		}
		if !t.HasNewlineBefore() {
			return t
		}
		lead := make([]token.Trivia, 0, len(t.Leading)+1)
		for _, tv := range t.Leading {
			lead = append(lead, tv)
			if tv.Kind == token.TriviaNewline {
				lead = append(lead, token.Space(indent))
			}
		}
		return t.WithLeading(lead)
	})
}

func withAttrs(d Decl, attrs []Attribute) Decl {
	switch d := d.(type) {
	case *TypeDecl:
		c := *d
		c.Attrs = attrs
		return &c
	case *ExtensionDecl:
		c := *d
		c.Attrs = attrs
		return &c
	case *VarDecl:
		c := *d
		c.Attrs = attrs
		return &c
	case *FuncDecl:
		c := *d
		c.Attrs = attrs
		return &c
	case *OtherDecl:
		c := *d
		c.Attrs = attrs
		return &c
	}
	return d
}

// retrivia rewrites the leading trivia of the tokens at the given positions.
func retrivia(d Decl, at map[int][]token.Trivia) Decl {
	i := 0
	return MapDecl(d, func(t token.Token) token.Token {
		tv, ok := at[i]
		i++
		if !ok {
			return t
		}
		return t.WithLeading(slices.Clone(tv))
	})
}

// PrependAttribute returns a copy of d with a placed before its existing
// attributes. The attribute takes over the leading trivia of d; the former
// first token moves to its own line at the same indentation, or stays on
// the same line when d did not start on a new line.
func PrependAttribute(d Decl, a Attribute) Decl {
	orig, _ := FirstToken(d)
	attrs := make([]Attribute, 0, len(d.Attributes())+1)
	attrs = append(attrs, a)
	attrs = append(attrs, d.Attributes()...)

	next := []token.Trivia{token.Space(" ")}
	if orig.HasNewlineBefore() {
		next = []token.Trivia{token.Newline()}
		if indent := IndentOf(d); indent != "" {
			next = append(next, token.Space(indent))
		}
	}
	return retrivia(withAttrs(d, attrs), map[int][]token.Trivia{
		0:               orig.Leading,
		len(a.Tokens()): next,
	})
}

// RemoveAttribute returns a copy of d without its i-th attribute. Removing
// the first attribute hands its leading trivia to the next token.
func RemoveAttribute(d Decl, i int) Decl {
	old := d.Attributes()
	if i < 0 || i >= len(old) {
		return d
	}
	attrs := make([]Attribute, 0, len(old)-1)
	attrs = append(attrs, old[:i]...)
	attrs = append(attrs, old[i+1:]...)
	if len(attrs) == 0 {
		attrs = nil
	}
	res := withAttrs(d, attrs)
	if i != 0 {
		return res
	}
	orig, _ := FirstToken(d)
	return retrivia(res, map[int][]token.Trivia{0: orig.Leading})
}

// ReplaceAttribute returns a copy of d whose i-th attribute is a. The new
// attribute keeps the leading trivia of the one it replaces.
func ReplaceAttribute(d Decl, i int, a Attribute) Decl {
	old := d.Attributes()
	if i < 0 || i >= len(old) {
		return d
	}
	lead := old[i].At.Leading
	a = MapAttribute(a, firstOnly(func(t token.Token) token.Token {
		return t.WithLeading(slices.Clone(lead))
	}))
	attrs := slices.Clone(old)
	attrs[i] = a
	return withAttrs(d, attrs)
}
