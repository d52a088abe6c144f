package lexer

import (
	"prefmacro/internal/diag"
	"prefmacro/internal/token"
)

// collectLeadingTrivia собирает подряд идущие trivia перед значимым токеном.
// - ' ' и '\t' коалесцируются в один TriviaSpace
// - последовательные '\n' коалесцируются в один TriviaNewline
// - //... до \n -> TriviaLineComment, ///... -> TriviaDocLine
// - /* ... */ -> TriviaBlockComment (с вложенностью; незакрытый репортим и обрезаем на EOF)
func (lx *Lexer) collectLeadingTrivia() {
	for !lx.cursor.EOF() {
		start := lx.cursor.Mark()
		switch b := lx.cursor.Peek(); {
		case b == ' ' || b == '\t' || b == '\r' || b == '\f':
			for {
				b2 := lx.cursor.Peek()
				if b2 != ' ' && b2 != '\t' && b2 != '\r' && b2 != '\f' {
					break
				}
				lx.cursor.Bump()
			}
			lx.pushTrivia(start, token.TriviaSpace)
		case b == '\n':
			for lx.cursor.Peek() == '\n' {
				lx.cursor.Bump()
			}
			lx.pushTrivia(start, token.TriviaNewline)
		case b == '/' && lx.cursor.PeekAt(1) == '/':
			lx.cursor.BumpN(2)
			kind := token.TriviaLineComment
			if lx.cursor.Peek() == '/' {
				kind = token.TriviaDocLine
			}
			for !lx.cursor.EOF() && lx.cursor.Peek() != '\n' {
				lx.cursor.Bump()
			}
			lx.pushTrivia(start, kind)
		case b == '/' && lx.cursor.PeekAt(1) == '*':
			lx.scanBlockComment(start)
		default:
			return
		}
	}
}

func (lx *Lexer) scanBlockComment(start Mark) {
	lx.cursor.BumpN(2)
	depth := 1
	for !lx.cursor.EOF() && depth > 0 {
		switch {
		case lx.cursor.HasPrefix("/*"):
			lx.cursor.BumpN(2)
			depth++
		case lx.cursor.HasPrefix("*/"):
			lx.cursor.BumpN(2)
			depth--
		default:
			lx.cursor.Bump()
		}
	}
	if depth > 0 {
		lx.errLex(diag.LexUnterminatedBlockComment, lx.cursor.SpanFrom(start), "unterminated block comment")
	}
	lx.pushTrivia(start, token.TriviaBlockComment)
}

func (lx *Lexer) pushTrivia(start Mark, kind token.TriviaKind) {
	sp := lx.cursor.SpanFrom(start)
	lx.hold = append(lx.hold, token.Trivia{
		Kind: kind,
		Span: sp,
		Text: string(lx.file.Content[sp.Start:sp.End]),
	})
}
