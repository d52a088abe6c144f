package lexer

import (
	"prefmacro/internal/diag"
	"prefmacro/internal/source"
	"prefmacro/internal/token"
)

type Lexer struct {
	file   *source.File
	cursor Cursor
	opts   Options
	look   *token.Token   // 1 элементный буфер для токена
	hold   []token.Trivia // накопленные leading trivia
	done   bool
}

func New(file *source.File, opts Options) *Lexer {
	return &Lexer{
		file:   file,
		cursor: NewCursor(file),
		opts:   opts,
	}
}

// Next возвращает следующий значимый токен с уже собранным Leading.
// Trivia after the last token is attached to EOF so that the token stream
// covers every byte of the file. После EOF всегда возвращает пустой EOF.
func (lx *Lexer) Next() token.Token {
	if lx.look != nil {
		tok := *lx.look
		lx.look = nil
		return tok
	}

	lx.collectLeadingTrivia()

	if lx.cursor.EOF() {
		tok := token.Token{Kind: token.EOF, Span: lx.emptySpan()}
		if !lx.done {
			tok.Leading = lx.takeHold()
			lx.done = true
		}
		return tok
	}

	start := lx.cursor.Mark()
	ch := lx.cursor.Peek()
	var tok token.Token

	switch {
	case ch == '_' && !isIdentContinueByte(lx.cursor.PeekAt(1)) && lx.cursor.PeekAt(1) < utf8RuneSelf:
		lx.cursor.Bump()
		tok = lx.emit(start, token.Underscore)
	case ch == '`':
		tok = lx.scanQuotedIdent()
	case isIdentStartByte(ch), ch >= utf8RuneSelf:
		tok = lx.scanIdentOrKeyword()
	case isDec(ch):
		tok = lx.scanNumber()
	case ch == '"':
		tok = lx.scanString(0)
	case ch == '#' && lx.rawStringAhead():
		tok = lx.scanRawString()
	case ch == '<' && lx.cursor.PeekAt(1) == '#':
		tok = lx.scanPlaceholder()
	default:
		tok = lx.scanOperatorOrPunct()
	}

	if tok.Span.Len() > maxTokenLength {
		lx.errLex(diag.LexTokenTooLong, tok.Span, "token exceeds maximum length")
		lx.cursor.Off = lx.cursor.Limit
		tok = token.Token{Kind: token.Invalid, Span: tok.Span}
	}

	tok.Leading = lx.takeHold()
	return tok
}

// Peek возвращает следующий токен, не потребляя его.
func (lx *Lexer) Peek() token.Token {
	t := lx.Next()
	lx.look = &t
	return t
}

// All lexes the rest of the file; the last element is EOF.
func (lx *Lexer) All() []token.Token {
	out := make([]token.Token, 0, 64)
	for {
		tok := lx.Next()
		out = append(out, tok)
		if tok.Kind == token.EOF {
			return out
		}
	}
}

func (lx *Lexer) takeHold() []token.Trivia {
	if len(lx.hold) == 0 {
		return nil
	}
	out := lx.hold
	lx.hold = nil
	return out
}

func (lx *Lexer) emit(start Mark, k token.Kind) token.Token {
	sp := lx.cursor.SpanFrom(start)
	return token.Token{Kind: k, Span: sp, Text: string(lx.file.Content[sp.Start:sp.End])}
}

func (lx *Lexer) emptySpan() source.Span {
	return source.Span{File: lx.file.ID, Start: lx.cursor.Off, End: lx.cursor.Off}
}
