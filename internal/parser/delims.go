package parser

import (
	"strings"

	"prefmacro/internal/ast"
	"prefmacro/internal/diag"
	"prefmacro/internal/token"
)

func closerOf(k token.Kind) token.Kind {
	switch k {
	case token.LParen:
		return token.RParen
	case token.LBracket:
		return token.RBracket
	case token.LBrace:
		return token.RBrace
	}
	return token.Invalid
}

func isOpener(k token.Kind) bool { return closerOf(k) != token.Invalid }

func isCloser(k token.Kind) bool {
	return k == token.RParen || k == token.RBracket || k == token.RBrace
}

// balanced consumes an opener and everything up to its matching closer.
// closed is false when the input ended first. A closer that matches an outer
// opener closes the inner ones with a diagnostic; a closer matching nothing
// is kept as content.
func (p *Parser) balanced() (out []token.Token, closed bool) {
	open := p.next()
	out = []token.Token{open}
	stack := []token.Token{open}
	for len(stack) > 0 {
		tok := p.peek()
		if tok.Kind == token.EOF {
			for i := len(stack) - 1; i >= 0; i-- {
				p.errorf(diag.SynUnclosedDelimiter, stack[i].Span, "unclosed '%s'", stack[i].Text)
			}
			return out, false
		}
		out = append(out, p.next())
		switch {
		case isOpener(tok.Kind):
			stack = append(stack, tok)
		case isCloser(tok.Kind):
			depth := -1
			for i := len(stack) - 1; i >= 0; i-- {
				if closerOf(stack[i].Kind) == tok.Kind {
					depth = i
					break
				}
			}
			if depth < 0 {
				p.errorf(diag.SynUnbalancedDelimiter, tok.Span, "unexpected '%s'", tok.Text)
				continue
			}
			for i := len(stack) - 1; i > depth; i-- {
				p.errorf(diag.SynUnclosedDelimiter, stack[i].Span, "unclosed '%s'", stack[i].Text)
			}
			stack = stack[:depth]
		}
	}
	return out, true
}

// block consumes a braced region as an opaque ast.Block.
func (p *Parser) block() *ast.Block {
	toks, closed := p.balanced()
	b := &ast.Block{LBrace: toks[0]}
	if closed {
		b.Body = toks[1 : len(toks)-1]
		b.RBrace = toks[len(toks)-1]
	} else {
		b.Body = toks[1:]
	}
	if len(b.Body) == 0 {
		b.Body = nil
	}
	return b
}

// genericEnd returns the number of tokens of a generic argument clause that
// starts at the current '<', or 0 when the '<' is a comparison.
func (p *Parser) genericEnd() int {
	depth := 0
	for n := 0; ; n++ {
		tok := p.peekAt(n)
		switch tok.Kind {
		case token.Lt:
			depth++
		case token.Gt, token.Operator:
			closes := closingAngles(tok.Text)
			if closes == 0 {
				return 0
			}
			depth -= closes
			if depth <= 0 {
				return n + 1
			}
		case token.Ident, token.Dot, token.Comma, token.Colon, token.Question, token.Bang,
			token.LBracket, token.RBracket, token.LParen, token.RParen, token.Arrow, token.Amp:
		default:
			if !tok.IsWord() {
				return 0
			}
		}
		if n > 0 && tok.HasNewlineBefore() {
			return 0
		}
	}
}

// closingAngles counts the '>' of an operator made only of '>', '?' and '!'
// (">>", ">?").
func closingAngles(text string) int {
	if strings.Trim(text, ">?!") != "" || !strings.HasPrefix(text, ">") {
		return 0
	}
	return strings.Count(text, ">")
}
