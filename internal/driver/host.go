package driver

import (
	"context"
	"slices"
	"strconv"
	"strings"

	"prefmacro/internal/ast"
	"prefmacro/internal/diag"
	"prefmacro/internal/expand"
	"prefmacro/internal/observ"
	"prefmacro/internal/token"
	"prefmacro/internal/trace"
)

// host walks one file and runs the passes in host order: type pass, attribute
// injection, property pass per annotated member, conformance. It never
// mutates the input tree.
type host struct {
	ctx   context.Context
	cfg   expand.Config
	path  string
	timer *observ.Timer
	out   []diag.Diagnostic

	scope   []string   // enclosing type names
	indents []string   // member indentation of each enclosing body
	pending []ast.Decl // extensions of nested types, hoisted to file scope
}

func newHost(ctx context.Context, cfg expand.Config, path string, timer *observ.Timer) *host {
	return &host{ctx: ctx, cfg: cfg, path: path, timer: timer}
}

// file expands the top-level declarations.
func (h *host) file(decls []ast.Decl) []ast.Decl {
	out := make([]ast.Decl, 0, len(decls))
	for _, d := range decls {
		out = append(out, h.decl(d)...)
		for _, ext := range h.pending {
			out = append(out, place(ext, "", true))
		}
		h.pending = h.pending[:0]
	}
	return out
}

func (h *host) decls(decls []ast.Decl) []ast.Decl {
	out := make([]ast.Decl, 0, len(decls))
	for _, d := range decls {
		out = append(out, h.decl(d)...)
	}
	return out
}

func (h *host) decl(d ast.Decl) []ast.Decl {
	view := expand.Classify(d)
	switch {
	case view.HasAttribute(h.cfg.TypeAttribute):
		return h.annotatedType(d)
	case view.HasAttribute(h.cfg.PropertyAttribute):
		return h.property(d)
	default:
		return []ast.Decl{h.container(d)}
	}
}

// container recurses into the members of types and extensions that are not
// annotated themselves.
func (h *host) container(d ast.Decl) ast.Decl {
	switch d := d.(type) {
	case *ast.TypeDecl:
		members := h.body(d.Name.Text, d, d.Members)
		if declsEqual(members, d.Members) {
			return d
		}
		c := *d
		c.Members = members
		c.RBrace = closeBody(c.RBrace, ast.IndentOf(d))
		return &c
	case *ast.ExtensionDecl:
		members := h.body(extendedName(d), d, d.Members)
		if declsEqual(members, d.Members) {
			return d
		}
		c := *d
		c.Members = members
		c.RBrace = closeBody(c.RBrace, ast.IndentOf(d))
		return &c
	}
	return d
}

// body expands members inside the scope of the named type.
func (h *host) body(name string, owner ast.Decl, members []ast.Decl) []ast.Decl {
	h.scope = append(h.scope, name)
	h.indents = append(h.indents, memberIndent(owner, members))
	out := h.decls(members)
	h.scope = h.scope[:len(h.scope)-1]
	h.indents = h.indents[:len(h.indents)-1]
	return out
}

func (h *host) annotatedType(d ast.Decl) []ast.Decl {
	name := expand.Classify(d).Name
	span, ctx := trace.Start(h.ctx, trace.ScopeNode, "type:"+name)
	defer span.End("")

	mark := h.timer.Begin("type-pass")
	res := expand.ExpandType(d, h.cfg)
	mark.End("")
	h.report(res.Diagnostics, d)
	if res.HasErrors() {
		return []ast.Decl{d}
	}
	td, ok := d.(*ast.TypeDecl)
	if !ok || expand.IsExpanded(td, h.cfg) {
		return []ast.Decl{h.container(d)}
	}
	trace.Point(ctx, trace.ScopeNode, "inject", strconv.Itoa(len(res.Attributes)))

	members := slices.Clone(td.Members)
	for _, inj := range res.Attributes {
		members[inj.Member] = ast.PrependAttribute(members[inj.Member], inj.Attribute)
	}
	qualified := strings.Join(append(slices.Clone(h.scope), td.Name.Text), ".")
	members = h.body(td.Name.Text, td, members)

	indent := memberIndent(td, td.Members)
	for _, g := range res.Declarations {
		members = append(members, place(g, indent, false))
	}
	c := *td
	c.Members = members
	if len(res.Declarations) > 0 {
		c.RBrace = closeBody(c.RBrace, ast.IndentOf(td))
	}

	mark = h.timer.Begin("conformance")
	conf := expand.SynthesizeConformance(qualified, h.cfg)
	mark.End("")
	h.report(conf.Diagnostics, d)

	out := []ast.Decl{&c}
	if len(h.scope) > 0 {
		h.pending = append(h.pending, conf.Declarations...)
		return out
	}
	indent = ast.IndentOf(td)
	for _, ext := range conf.Declarations {
		out = append(out, place(ext, indent, true))
	}
	return out
}

func (h *host) property(d ast.Decl) []ast.Decl {
	view := expand.Classify(d)
	span, _ := trace.Start(h.ctx, trace.ScopeNode, "property:"+view.Name)
	defer span.End("")

	mark := h.timer.Begin("property-pass")
	res := expand.ExpandProperty(d, h.cfg)
	mark.End("")
	h.report(res.Diagnostics, d)
	if len(res.Replacements) == 0 {
		return []ast.Decl{d}
	}
	if inline := h.ownLine(d); inline != d {
		// член стоит на строке с `{`: генерируем заново от своей строки
		res = expand.ExpandProperty(inline, h.cfg)
		d = inline
	}
	out := slices.Clone(res.Replacements)
	indent := ast.IndentOf(d)
	for _, peer := range res.Declarations {
		out = append(out, place(peer, indent, false))
	}
	return out
}

// ownLine returns d moved to its own line at member indentation when it
// shares a line with the opening brace of its body, d itself otherwise.
func (h *host) ownLine(d ast.Decl) ast.Decl {
	first, ok := ast.FirstToken(d)
	if !ok || first.HasNewlineBefore() || len(h.indents) == 0 {
		return d
	}
	return ast.WithLeading(d, lineLead(h.indents[len(h.indents)-1], false))
}

func (h *host) report(ds []expand.Diagnostic, owner ast.Node) {
	for _, d := range ds {
		h.out = append(h.out, lower(d, owner, h.path))
	}
}

// place positions a generated declaration on its own line (after a blank
// line when blank is set) at the given indentation.
func place(d ast.Decl, indent string, blank bool) ast.Decl {
	return ast.WithLeading(ast.Indent(d, indent), lineLead(indent, blank))
}

func lineLead(indent string, blank bool) []token.Trivia {
	lead := []token.Trivia{token.Newline()}
	if blank {
		lead = append(lead, token.Newline())
	}
	if indent != "" {
		lead = append(lead, token.Space(indent))
	}
	return lead
}

// closeBody moves a closing brace that follows the last member on the same
// line to a line of its own.
func closeBody(rbrace token.Token, indent string) token.Token {
	if rbrace.HasNewlineBefore() {
		return rbrace
	}
	return rbrace.WithLeading(lineLead(indent, false))
}

// memberIndent: indentation of the first member on its own line, or the
// owner's plus four spaces for an empty or one-line body.
func memberIndent(owner ast.Decl, members []ast.Decl) string {
	for _, m := range members {
		if first, ok := ast.FirstToken(m); ok && first.HasNewlineBefore() {
			return ast.IndentOf(m)
		}
	}
	return ast.IndentOf(owner) + "    "
}

// extendedName is the extended type as written, up to the inheritance
// clause: `extension Foo.Bar: P where T: Q` gives "Foo.Bar".
func extendedName(d *ast.ExtensionDecl) string {
	var b strings.Builder
	for _, t := range d.Header {
		if t.Kind == token.Colon || t.Text == "where" {
			break
		}
		b.WriteString(t.Text)
	}
	return b.String()
}

func declsEqual(a, b []ast.Decl) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
