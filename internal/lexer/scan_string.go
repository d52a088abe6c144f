package lexer

import (
	"strings"

	"prefmacro/internal/diag"
	"prefmacro/internal/token"
)

// scanString читает "...", """...""" и, при hashes > 0, тело raw-строки #"..."#.
// Escape-последовательности не валидируются: нужен только точный конец литерала.
// Интерполяция \( ... ) может содержать вложенные строки и скобки.
func (lx *Lexer) scanString(hashes int) token.Token {
	return lx.scanStringFrom(lx.cursor.Mark(), hashes)
}

func (lx *Lexer) scanRawString() token.Token {
	start := lx.cursor.Mark()
	hashes := 0
	for lx.cursor.Peek() == '#' {
		lx.cursor.Bump()
		hashes++
	}
	return lx.scanStringFrom(start, hashes)
}

// rawStringAhead reports whether the cursor sits on #..#" .
func (lx *Lexer) rawStringAhead() bool {
	n := uint32(0)
	for lx.cursor.PeekAt(n) == '#' {
		n++
	}
	return n > 0 && lx.cursor.PeekAt(n) == '"'
}

func (lx *Lexer) scanStringFrom(start Mark, hashes int) token.Token {
	pounds := strings.Repeat("#", hashes)
	escape := `\` + pounds

	if lx.cursor.HasPrefix(`"""`) {
		lx.cursor.BumpN(3)
		closing := `"""` + pounds
		for !lx.cursor.EOF() {
			switch {
			case lx.cursor.HasPrefix(closing):
				lx.cursor.BumpN(len(closing))
				return lx.emit(start, token.StringLit)
			case lx.cursor.HasPrefix(escape):
				lx.cursor.BumpN(len(escape))
				if lx.cursor.Peek() == '(' {
					lx.skipInterpolation(true)
					continue
				}
				lx.cursor.Bump()
			default:
				lx.cursor.Bump()
			}
		}
		lx.errLex(diag.LexUnterminatedString, lx.cursor.SpanFrom(start), "unterminated multi-line string literal")
		return lx.emit(start, token.Invalid)
	}

	lx.cursor.Bump() // opening '"'
	closing := `"` + pounds
	for !lx.cursor.EOF() {
		switch {
		case lx.cursor.HasPrefix(closing):
			lx.cursor.BumpN(len(closing))
			return lx.emit(start, token.StringLit)
		case lx.cursor.HasPrefix(escape):
			lx.cursor.BumpN(len(escape))
			if lx.cursor.Peek() == '(' {
				lx.skipInterpolation(false)
				continue
			}
			if lx.cursor.Peek() != '\n' {
				lx.cursor.Bump()
			}
		case lx.cursor.Peek() == '\n':
			lx.errLex(diag.LexUnterminatedString, lx.cursor.SpanFrom(start), "newline in string literal")
			return lx.emit(start, token.Invalid)
		default:
			lx.cursor.Bump()
		}
	}
	lx.errLex(diag.LexUnterminatedString, lx.cursor.SpanFrom(start), "unterminated string literal")
	return lx.emit(start, token.Invalid)
}

// skipInterpolation consumes a balanced ( ... ) group inside a string literal.
func (lx *Lexer) skipInterpolation(multiline bool) {
	depth := 0
	for !lx.cursor.EOF() {
		switch lx.cursor.Peek() {
		case '(':
			depth++
			lx.cursor.Bump()
		case ')':
			depth--
			lx.cursor.Bump()
			if depth == 0 {
				return
			}
		case '"':
			lx.scanString(0)
		case '\n':
			if !multiline {
				return
			}
			lx.cursor.Bump()
		default:
			lx.cursor.Bump()
		}
	}
}

// scanPlaceholder reads an editor placeholder <#...#>.
func (lx *Lexer) scanPlaceholder() token.Token {
	start := lx.cursor.Mark()
	lx.cursor.BumpN(2)
	for !lx.cursor.EOF() && lx.cursor.Peek() != '\n' {
		if lx.cursor.HasPrefix("#>") {
			lx.cursor.BumpN(2)
			return lx.emit(start, token.Placeholder)
		}
		lx.cursor.Bump()
	}
	lx.errLex(diag.LexUnterminatedPlaceholder, lx.cursor.SpanFrom(start), "unterminated editor placeholder")
	return lx.emit(start, token.Invalid)
}
