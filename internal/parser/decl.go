package parser

import (
	"prefmacro/internal/ast"
	"prefmacro/internal/diag"
	"prefmacro/internal/token"
)

var modifierWords = map[string]struct{}{
	"public": {}, "private": {}, "fileprivate": {}, "internal": {}, "open": {}, "package": {},
	"static": {}, "final": {}, "lazy": {}, "weak": {}, "unowned": {}, "override": {},
	"mutating": {}, "nonmutating": {}, "convenience": {}, "required": {}, "dynamic": {},
	"optional": {}, "indirect": {}, "nonisolated": {}, "isolated": {}, "distributed": {},
	"prefix": {}, "postfix": {}, "infix": {}, "consuming": {}, "borrowing": {},
}

func isModifierWord(tok token.Token) bool {
	if tok.Kind != token.Ident {
		return false
	}
	_, ok := modifierWords[tok.Text]
	return ok
}

// parseDecl parses one declaration. It always consumes at least one token
// unless positioned at EOF or, inside a body, at the closing '}'.
func (p *Parser) parseDecl(member bool) ast.Decl {
	attrs := p.parseAttributes()
	mods := p.parseModifiers()
	switch tok := p.peek(); {
	case tok.Kind == token.KwVar || tok.Kind == token.KwLet:
		return p.parseVar(attrs, mods)
	case tok.Kind.IsTypeIntroducer():
		return p.parseType(attrs, mods)
	case tok.Kind == token.KwExtension:
		return p.parseExtension(attrs, mods)
	case tok.Kind == token.KwFunc, tok.Kind == token.KwInit,
		tok.Kind == token.KwDeinit, tok.Kind == token.KwSubscript:
		return p.parseFunc(attrs, mods)
	}
	return p.parseOther(attrs, mods, member)
}

func (p *Parser) parseAttributes() []ast.Attribute {
	var attrs []ast.Attribute
	for p.at(token.At) {
		a := ast.Attribute{At: p.next()}
		if name := p.peek(); name.IsWord() && len(name.Leading) == 0 {
			a.Name = p.next()
		} else {
			p.errorf(diag.SynExpectAttributeName, a.At.Span, "expected attribute name after '@'")
		}
		if ast.Present(a.Name) && p.at(token.LParen) && len(p.peek().Leading) == 0 {
			a.Args = p.parseArgList()
		}
		attrs = append(attrs, a)
	}
	return attrs
}

func (p *Parser) parseArgList() *ast.ArgList {
	list := &ast.ArgList{LParen: p.next()}
	for {
		switch p.peek().Kind {
		case token.RParen:
			list.RParen = p.next()
			return list
		case token.EOF:
			p.errorf(diag.SynUnclosedDelimiter, list.LParen.Span, "unclosed '('")
			return list
		}
		var toks []token.Token
		for !p.atAny(token.Comma, token.RParen, token.EOF) {
			if isOpener(p.peek().Kind) {
				inner, _ := p.balanced()
				toks = append(toks, inner...)
				continue
			}
			if isCloser(p.peek().Kind) {
				tok := p.next()
				p.errorf(diag.SynUnbalancedDelimiter, tok.Span, "unexpected '%s'", tok.Text)
				toks = append(toks, tok)
				continue
			}
			toks = append(toks, p.next())
		}
		var arg ast.Arg
		if len(toks) >= 2 && toks[0].IsWord() && toks[1].Kind == token.Colon {
			arg.Label, arg.Colon = toks[0], toks[1]
			toks = toks[2:]
		}
		arg.Value = ast.Expr{Toks: toks}
		if p.at(token.Comma) {
			arg.Comma = p.next()
		}
		list.Items = append(list.Items, arg)
	}
}

// parseModifiers reads modifier words. A word counts as a modifier only when
// a declaration follows it, so `open` or `lazy` remain usable as names.
// `class` is a modifier in front of func, var, let and subscript.
func (p *Parser) parseModifiers() []ast.Modifier {
	var mods []ast.Modifier
	for {
		tok, next := p.peek(), p.peekAt(1)
		detail := next.Kind == token.LParen && len(next.Leading) == 0 &&
			p.peekAt(2).IsWord() && p.peekAt(3).Kind == token.RParen
		switch {
		case isModifierWord(tok) && (next.IsWord() || detail):
		case tok.Kind == token.KwClass && (isMemberKeyword(next.Kind) || isModifierWord(next)):
		default:
			return mods
		}
		m := ast.Modifier{Name: p.next()}
		if detail {
			m.Detail = &ast.ModifierDetail{LParen: p.next(), Arg: p.next(), RParen: p.next()}
		}
		mods = append(mods, m)
	}
}

func isMemberKeyword(k token.Kind) bool {
	switch k {
	case token.KwFunc, token.KwVar, token.KwLet, token.KwSubscript:
		return true
	}
	return false
}

// atDeclStart reports whether the current token begins a new declaration.
// Used to stop headers and signatures that lost their body.
func (p *Parser) atDeclStart() bool {
	tok := p.peek()
	switch tok.Kind {
	case token.At, token.KwVar, token.KwLet, token.KwFunc, token.KwInit, token.KwDeinit,
		token.KwSubscript, token.KwTypealias, token.KwImport, token.KwCase, token.KwExtension,
		token.RBrace:
		return true
	}
	if tok.Kind.IsTypeIntroducer() {
		return true
	}
	return isModifierWord(tok) && p.peekAt(1).IsWord()
}

func (p *Parser) parseVar(attrs []ast.Attribute, mods []ast.Modifier) *ast.VarDecl {
	d := &ast.VarDecl{Attrs: attrs, Mods: mods, Keyword: p.next()}
	for {
		var b ast.Binding
		switch tok := p.peek(); {
		case (tok.IsWord() || tok.Kind == token.Underscore) && !tok.HasNewlineBefore():
			b.Pattern = []token.Token{p.next()}
		case tok.Kind == token.LParen:
			b.Pattern, _ = p.balanced()
		default:
			p.errorf(diag.SynExpectBindingName, tok.Span, "expected binding name after '%s'", d.Keyword.Text)
		}
		if p.at(token.Colon) {
			b.Colon = p.next()
			b.Type = ast.TypeRef{Toks: p.typeTokens()}
		}
		if p.at(token.Assign) {
			b.Assign = p.next()
			b.Init = ast.Expr{Toks: p.exprTokens()}
		}
		if p.at(token.LBrace) && (!b.HasInitializer() || p.observerAhead()) {
			b.Accessor = p.block()
		}
		if p.at(token.Comma) {
			b.Comma = p.next()
			d.Bindings = append(d.Bindings, b)
			continue
		}
		d.Bindings = append(d.Bindings, b)
		return d
	}
}

// observerAhead reports `{ willSet` or `{ didSet`.
func (p *Parser) observerAhead() bool {
	if !p.at(token.LBrace) {
		return false
	}
	next := p.peekAt(1)
	return next.Kind == token.Ident && (next.Text == "willSet" || next.Text == "didSet")
}

// typeTokens reads a type annotation up to `=`, `{`, `,` or the end of line.
func (p *Parser) typeTokens() []token.Token {
	var toks []token.Token
	for {
		tok := p.peek()
		switch tok.Kind {
		case token.Assign, token.LBrace, token.Comma, token.Semicolon, token.EOF,
			token.RBrace, token.RParen, token.RBracket:
			return toks
		}
		if len(toks) > 0 && tok.HasNewlineBefore() && !continuesType(toks[len(toks)-1], tok) {
			return toks
		}
		switch {
		case isOpener(tok.Kind):
			inner, _ := p.balanced()
			toks = append(toks, inner...)
		case tok.Kind == token.Lt:
			n := p.genericEnd()
			if n == 0 {
				n = 1
			}
			for range n {
				toks = append(toks, p.next())
			}
		default:
			toks = append(toks, p.next())
		}
	}
}

func continuesType(prev, next token.Token) bool {
	switch prev.Kind {
	case token.Arrow, token.Dot, token.Amp, token.Colon:
		return true
	}
	switch next.Kind {
	case token.Arrow, token.Dot, token.Amp:
		return true
	}
	return false
}

// exprTokens reads an initializer expression. A newline ends it unless an
// operator on either side of the line break continues it.
func (p *Parser) exprTokens() []token.Token {
	var toks []token.Token
	for {
		tok := p.peek()
		switch tok.Kind {
		case token.Comma, token.Semicolon, token.EOF, token.RBrace, token.RParen, token.RBracket:
			return toks
		}
		if len(toks) > 0 && tok.HasNewlineBefore() && !continuesExpr(toks[len(toks)-1], tok) {
			return toks
		}
		switch {
		case tok.Kind == token.LBrace:
			if p.observerAhead() {
				return toks
			}
			inner, _ := p.balanced()
			toks = append(toks, inner...)
		case isOpener(tok.Kind):
			inner, _ := p.balanced()
			toks = append(toks, inner...)
		case tok.Kind == token.Lt && len(toks) > 0 && len(tok.Leading) == 0:
			n := max(p.genericEnd(), 1)
			for range n {
				toks = append(toks, p.next())
			}
		default:
			toks = append(toks, p.next())
		}
	}
}

func continuesExpr(prev, next token.Token) bool {
	switch prev.Kind {
	case token.Assign, token.Dot, token.Plus, token.Minus, token.Star, token.Slash, token.Percent,
		token.EqEq, token.BangEq, token.Lt, token.LtEq, token.Gt, token.GtEq, token.AndAnd,
		token.OrOr, token.QuestionQuestion, token.Arrow, token.Operator, token.Colon,
		token.Question, token.Amp, token.Pipe, token.Caret, token.KwAs, token.KwIs:
		return true
	}
	switch next.Kind {
	case token.Dot, token.QuestionQuestion, token.AndAnd, token.OrOr, token.Question, token.Colon,
		token.EqEq, token.BangEq, token.Operator, token.Plus, token.Star, token.Slash,
		token.Pipe, token.Amp, token.KwAs, token.KwIs:
		return true
	}
	return false
}

func (p *Parser) parseType(attrs []ast.Attribute, mods []ast.Modifier) *ast.TypeDecl {
	d := &ast.TypeDecl{Attrs: attrs, Mods: mods, Introducer: p.next()}
	if name := p.peek(); name.IsWord() && !name.HasNewlineBefore() {
		d.Name = p.next()
	} else {
		p.errorf(diag.SynExpectIdentifier, name.Span, "expected type name after '%s'", d.Introducer.Text)
	}
	d.Header = p.headerTokens()
	if !p.at(token.LBrace) {
		p.errorf(diag.SynExpectBody, p.peek().Span, "expected '{' to start the body of '%s'", d.Name.Text)
		return d
	}
	d.LBrace, d.Members, d.RBrace = p.parseMembers()
	return d
}

func (p *Parser) parseExtension(attrs []ast.Attribute, mods []ast.Modifier) *ast.ExtensionDecl {
	d := &ast.ExtensionDecl{Attrs: attrs, Mods: mods, Keyword: p.next()}
	d.Header = p.headerTokens()
	if len(d.Header) == 0 {
		p.errorf(diag.SynExpectIdentifier, p.peek().Span, "expected extended type name")
	}
	if !p.at(token.LBrace) {
		p.errorf(diag.SynExpectBody, p.peek().Span, "expected '{' to start the extension body")
		return d
	}
	d.LBrace, d.Members, d.RBrace = p.parseMembers()
	return d
}

// headerTokens reads generic parameters, inheritance and where clauses.
func (p *Parser) headerTokens() []token.Token {
	var toks []token.Token
	for !p.atAny(token.LBrace, token.RBrace, token.EOF) {
		if p.peek().HasNewlineBefore() && p.atDeclStart() {
			break
		}
		if isOpener(p.peek().Kind) {
			inner, _ := p.balanced()
			toks = append(toks, inner...)
			continue
		}
		toks = append(toks, p.next())
	}
	return toks
}

func (p *Parser) parseMembers() (lbrace token.Token, members []ast.Decl, rbrace token.Token) {
	lbrace = p.next()
	for !p.atAny(token.RBrace, token.EOF) {
		members = append(members, p.parseDecl(true))
	}
	if p.at(token.RBrace) {
		rbrace = p.next()
	} else {
		p.errorf(diag.SynUnclosedDelimiter, lbrace.Span, "unclosed '{'")
	}
	return lbrace, members, rbrace
}

func (p *Parser) parseFunc(attrs []ast.Attribute, mods []ast.Modifier) *ast.FuncDecl {
	d := &ast.FuncDecl{Attrs: attrs, Mods: mods, Keyword: p.next()}
	for !p.atAny(token.LBrace, token.RBrace, token.Semicolon, token.EOF) {
		if p.peek().HasNewlineBefore() && p.atDeclStart() {
			break
		}
		if isOpener(p.peek().Kind) {
			inner, _ := p.balanced()
			d.Signature = append(d.Signature, inner...)
			continue
		}
		d.Signature = append(d.Signature, p.next())
	}
	if p.at(token.LBrace) {
		d.Body = p.block()
	}
	return d
}

// parseOther keeps an unmodelled statement as raw tokens: everything up to a
// line break at depth zero, a `;` (included) or a closing '}' (left alone).
func (p *Parser) parseOther(attrs []ast.Attribute, mods []ast.Modifier, member bool) *ast.OtherDecl {
	d := &ast.OtherDecl{Attrs: attrs, Mods: mods}
	consumed := len(attrs) > 0 || len(mods) > 0
	for {
		tok := p.peek()
		if tok.Kind == token.EOF {
			return d
		}
		if consumed && len(d.Toks) > 0 && tok.HasNewlineBefore() && !continuesExpr(d.Toks[len(d.Toks)-1], tok) {
			return d
		}
		switch {
		case tok.Kind == token.Semicolon:
			d.Toks = append(d.Toks, p.next())
			return d
		case tok.Kind == token.RBrace && (member || consumed):
			return d
		case isOpener(tok.Kind):
			inner, _ := p.balanced()
			d.Toks = append(d.Toks, inner...)
		case isCloser(tok.Kind):
			d.Toks = append(d.Toks, p.next())
			p.errorf(diag.SynUnbalancedDelimiter, tok.Span, "unexpected '%s'", tok.Text)
		default:
			d.Toks = append(d.Toks, p.next())
		}
		consumed = true
	}
}
