package lexer

import (
	"prefmacro/internal/diag"
	"prefmacro/internal/token"
)

// Поддержка: 0, 123, 1_000, 0b..., 0o..., 0x..., 1.0, 1e-3, 1.0e+10.
// Точка входит в число только если за ней цифра: `1.description` и `1...5`
// остаются членом/диапазоном.
func (lx *Lexer) scanNumber() token.Token {
	start := lx.cursor.Mark()

	if lx.cursor.Peek() == '0' {
		var digit func(byte) bool
		switch lx.cursor.PeekAt(1) {
		case 'b':
			digit = func(b byte) bool { return b == '0' || b == '1' }
		case 'o':
			digit = func(b byte) bool { return b >= '0' && b <= '7' }
		case 'x':
			digit = isHex
		}
		if digit != nil {
			lx.cursor.BumpN(2)
			if !digit(lx.cursor.Peek()) {
				lx.errLex(diag.LexBadNumber, lx.cursor.SpanFrom(start), "expected digit after base prefix")
				return lx.emit(start, token.Invalid)
			}
			for digit(lx.cursor.Peek()) || lx.cursor.Peek() == '_' {
				lx.cursor.Bump()
			}
			return lx.emit(start, token.IntLit)
		}
	}

	kind := token.IntLit
	lx.eatDecimalDigits()

	if lx.cursor.Peek() == '.' && isDec(lx.cursor.PeekAt(1)) {
		kind = token.FloatLit
		lx.cursor.Bump()
		lx.eatDecimalDigits()
	}

	if b := lx.cursor.Peek(); b == 'e' || b == 'E' {
		mark := lx.cursor.Mark()
		lx.cursor.Bump()
		if s := lx.cursor.Peek(); s == '+' || s == '-' {
			lx.cursor.Bump()
		}
		if !isDec(lx.cursor.Peek()) {
			lx.cursor.Reset(mark)
			lx.errLex(diag.LexBadNumber, lx.cursor.SpanFrom(start), "expected digit after exponent")
			return lx.emit(start, kind)
		}
		kind = token.FloatLit
		lx.eatDecimalDigits()
	}
	return lx.emit(start, kind)
}

func (lx *Lexer) eatDecimalDigits() {
	for isDec(lx.cursor.Peek()) || lx.cursor.Peek() == '_' {
		lx.cursor.Bump()
	}
}
