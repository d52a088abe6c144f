package lexer

import (
	"prefmacro/internal/diag"
	"prefmacro/internal/token"
)

var operatorKinds = map[string]token.Kind{
	"+": token.Plus, "-": token.Minus, "*": token.Star, "/": token.Slash, "%": token.Percent,
	"=": token.Assign, "==": token.EqEq, "!": token.Bang, "!=": token.BangEq,
	"<": token.Lt, "<=": token.LtEq, ">": token.Gt, ">=": token.GtEq,
	"&": token.Amp, "|": token.Pipe, "^": token.Caret, "~": token.Tilde,
	"&&": token.AndAnd, "||": token.OrOr, "?": token.Question, "??": token.QuestionQuestion,
	"->": token.Arrow, "...": token.DotDotDot, "..<": token.DotDotLt,
}

// scanOperatorOrPunct: пунктуация читается по одному символу; операторы читаются
// жадно как серия операторных символов. Точка входит в оператор только если
// серия с неё начинается (`...`, `..<`). Постфиксные '?' и '!' отделяются,
// чтобы `String?=` и `x!.y` не склеивались.
func (lx *Lexer) scanOperatorOrPunct() token.Token {
	start := lx.cursor.Mark()

	switch ch := lx.cursor.Peek(); ch {
	case '(', ')', '{', '}', '[', ']', ',', ';', ':', '@', '#', '\\':
		lx.cursor.Bump()
		return lx.emit(start, punctKind(ch))
	case '.':
		if !lx.cursor.HasPrefix("...") && !lx.cursor.HasPrefix("..<") {
			lx.cursor.Bump()
			return lx.emit(start, token.Dot)
		}
		lx.cursor.BumpN(3)
		for isOperatorByte(lx.cursor.Peek()) || lx.cursor.Peek() == '.' {
			lx.cursor.Bump()
		}
		return lx.operatorToken(start)
	case '?':
		if lx.cursor.PeekAt(1) != '?' {
			lx.cursor.Bump()
			return lx.emit(start, token.Question)
		}
	case '!':
		if lx.cursor.PeekAt(1) != '=' {
			lx.cursor.Bump()
			return lx.emit(start, token.Bang)
		}
	}

	if !isOperatorByte(lx.cursor.Peek()) {
		_, sz := lx.peekRune()
		lx.cursor.BumpN(max(sz, 1))
		lx.errLex(diag.LexUnknownChar, lx.cursor.SpanFrom(start), "unknown character")
		return lx.emit(start, token.Invalid)
	}
	lx.cursor.Bump()
	for isOperatorByte(lx.cursor.Peek()) {
		if lx.cursor.HasPrefix("//") || lx.cursor.HasPrefix("/*") || lx.cursor.HasPrefix("<#") {
			break
		}
		lx.cursor.Bump()
	}
	return lx.operatorToken(start)
}

func (lx *Lexer) operatorToken(start Mark) token.Token {
	tok := lx.emit(start, token.Operator)
	if k, ok := operatorKinds[tok.Text]; ok {
		tok.Kind = k
	}
	return tok
}

func punctKind(ch byte) token.Kind {
	switch ch {
	case '(':
		return token.LParen
	case ')':
		return token.RParen
	case '{':
		return token.LBrace
	case '}':
		return token.RBrace
	case '[':
		return token.LBracket
	case ']':
		return token.RBracket
	case ',':
		return token.Comma
	case ';':
		return token.Semicolon
	case ':':
		return token.Colon
	case '@':
		return token.At
	case '#':
		return token.Hash
	default:
		return token.Backslash
	}
}
