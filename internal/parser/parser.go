package parser

import (
	"errors"
	"fmt"
	"slices"

	"prefmacro/internal/ast"
	"prefmacro/internal/diag"
	"prefmacro/internal/lexer"
	"prefmacro/internal/source"
	"prefmacro/internal/token"
)

type Options struct {
	Reporter  diag.Reporter
	MaxErrors uint
}

type Result struct {
	File   *ast.File
	Errors uint
}

// Parser: состояние парсера на один файл. Токены лексируются заранее:
// распознавание блоков наблюдателей требует заглядывания на два токена.
type Parser struct {
	toks []token.Token
	pos  int
	opts Options
	errs uint
}

// ParseFile lexes and parses one file. The returned tree always covers every
// token of the input, even when syntax errors were reported.
func ParseFile(file *source.File, opts Options) Result {
	lx := lexer.New(file, lexer.Options{Reporter: opts.Reporter})
	p := Parser{toks: lx.All(), opts: opts}
	f := p.parseFile()
	return Result{File: f, Errors: p.errs}
}

// ErrFragment is returned by ParseFragment when synthesized text does not parse.
var ErrFragment = errors.New("generated fragment does not parse")

// ParseFragment parses synthesized source text. The tokens of the result
// carry zero spans and are therefore marked synthetic.
func ParseFragment(text string) ([]ast.Decl, error) {
	file := &source.File{ID: source.NoFileID, Path: "<generated>", Content: []byte(text)}
	bag := diag.NewBag(8)
	res := ParseFile(file, Options{Reporter: diag.BagReporter{Bag: bag}})
	if bag.HasErrors() {
		first := bag.Items()[0]
		return nil, fmt.Errorf("%w: %s: %q", ErrFragment, first.Message, text)
	}
	return res.File.Decls, nil
}

// ParseDecl parses text that must contain exactly one declaration.
func ParseDecl(text string) (ast.Decl, error) {
	decls, err := ParseFragment(text)
	if err != nil {
		return nil, err
	}
	if len(decls) != 1 {
		return nil, fmt.Errorf("%w: expected one declaration, got %d", ErrFragment, len(decls))
	}
	return decls[0], nil
}

// MustParseDecl is ParseDecl for text known to be well-formed.
func MustParseDecl(text string) ast.Decl {
	d, err := ParseDecl(text)
	if err != nil {
		panic(err)
	}
	return d
}

func (p *Parser) parseFile() *ast.File {
	f := &ast.File{}
	for !p.at(token.EOF) {
		f.Decls = append(f.Decls, p.parseDecl(false))
	}
	f.EOF = p.next()
	return f
}

func (p *Parser) peek() token.Token { return p.peekAt(0) }

func (p *Parser) peekAt(n int) token.Token {
	i := p.pos + n
	if i >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[i]
}

func (p *Parser) at(k token.Kind) bool { return p.peek().Kind == k }

func (p *Parser) atAny(kinds ...token.Kind) bool {
	return slices.Contains(kinds, p.peek().Kind)
}

// next consumes one token. EOF is returned but never consumed twice.
func (p *Parser) next() token.Token {
	tok := p.peek()
	if p.pos < len(p.toks) {
		p.pos++
	}
	return tok
}

// Enough reports whether the error budget is spent.
func (p *Parser) Enough() bool {
	return p.opts.MaxErrors != 0 && p.errs >= p.opts.MaxErrors
}

func (p *Parser) errorf(code diag.Code, sp source.Span, format string, args ...any) {
	p.errs++
	if p.opts.MaxErrors != 0 && p.errs > p.opts.MaxErrors {
		return
	}
	if p.opts.Reporter != nil {
		diag.ReportError(p.opts.Reporter, code, sp, fmt.Sprintf(format, args...)).Emit()
	}
}
