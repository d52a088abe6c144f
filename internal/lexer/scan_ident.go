package lexer

import (
	"prefmacro/internal/diag"
	"prefmacro/internal/token"
)

const utf8RuneSelf = 0x80

// scanIdentOrKeyword сканирует [Ident] и проверяет через LookupKeyword.
// '$' допускается внутри имени (_$observationRegistrar) и в начале ($0).
func (lx *Lexer) scanIdentOrKeyword() token.Token {
	start := lx.cursor.Mark()

	r, sz := lx.peekRune()
	if sz == 0 {
		return lx.emit(start, token.Invalid)
	}
	if r < utf8RuneSelf {
		if !isIdentStartByte(byte(r)) {
			return lx.scanOperatorOrPunct()
		}
		lx.cursor.Bump()
	} else {
		if !isIdentStartRune(r) {
			lx.bumpRune()
			sp := lx.cursor.SpanFrom(start)
			lx.errLex(diag.LexUnknownChar, sp, "unknown character")
			return lx.emit(start, token.Invalid)
		}
		lx.bumpRune()
	}
	for {
		r2, sz2 := lx.peekRune()
		if sz2 == 0 {
			break
		}
		if r2 < utf8RuneSelf {
			if !isIdentContinueByte(byte(r2)) {
				break
			}
			lx.cursor.Bump()
			continue
		}
		if !isIdentContinueRune(r2) {
			break
		}
		lx.bumpRune()
	}

	tok := lx.emit(start, token.Ident)
	if k, ok := token.LookupKeyword(tok.Text); ok {
		tok.Kind = k
	}
	return tok
}

// scanQuotedIdent reads `name`; the backticks stay in Text.
func (lx *Lexer) scanQuotedIdent() token.Token {
	start := lx.cursor.Mark()
	lx.cursor.Bump()
	for !lx.cursor.EOF() {
		switch lx.cursor.Peek() {
		case '`':
			lx.cursor.Bump()
			return lx.emit(start, token.Ident)
		case '\n':
			sp := lx.cursor.SpanFrom(start)
			lx.errLex(diag.LexUnknownChar, sp, "unterminated quoted identifier")
			return lx.emit(start, token.Invalid)
		}
		lx.cursor.Bump()
	}
	lx.errLex(diag.LexUnknownChar, lx.cursor.SpanFrom(start), "unterminated quoted identifier")
	return lx.emit(start, token.Invalid)
}
