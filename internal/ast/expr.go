package ast

import (
	"strconv"
	"strings"

	"prefmacro/internal/token"
)

// LiteralKind classifies simple literal expressions.
type LiteralKind uint8

const (
	LitNone LiteralKind = iota
	LitString
	LitInt
	LitFloat
	LitBool
	LitNil
)

// Literal classifies e when it is a single literal, optionally negated.
func (e Expr) Literal() LiteralKind {
	toks := e.Toks
	if len(toks) == 2 && toks[0].Kind == token.Minus && len(toks[1].Leading) == 0 {
		switch toks[1].Kind {
		case token.IntLit:
			return LitInt
		case token.FloatLit:
			return LitFloat
		}
		return LitNone
	}
	if len(toks) != 1 {
		return LitNone
	}
	switch toks[0].Kind {
	case token.StringLit:
		return LitString
	case token.IntLit:
		return LitInt
	case token.FloatLit:
		return LitFloat
	case token.KwTrue, token.KwFalse:
		return LitBool
	case token.KwNil:
		return LitNil
	}
	return LitNone
}

// StringLiteral returns the value of a plain single-line string literal.
// Interpolated, raw and multi-line literals are not plain and report false.
func (e Expr) StringLiteral() (string, bool) {
	if len(e.Toks) != 1 || e.Toks[0].Kind != token.StringLit {
		return "", false
	}
	text := e.Toks[0].Text
	if len(text) < 2 || text[0] != '"' || strings.HasPrefix(text, `"""`) || strings.Contains(text, `\(`) {
		return "", false
	}
	return unescape(text[1 : len(text)-1])
}

func unescape(s string) (string, bool) {
	if !strings.Contains(s, `\`) {
		return s, true
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' {
			b.WriteByte(c)
			continue
		}
		i++
		if i >= len(s) {
			return "", false
		}
		switch s[i] {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case '0':
			b.WriteByte(0)
		case '"', '\'', '\\':
			b.WriteByte(s[i])
		case 'u':
			end := strings.IndexByte(s[i:], '}')
			if i+1 >= len(s) || s[i+1] != '{' || end < 0 {
				return "", false
			}
			v, err := strconv.ParseUint(s[i+2:i+end], 16, 32)
			if err != nil {
				return "", false
			}
			b.WriteRune(rune(v))
			i += end
		default:
			return "", false
		}
	}
	return b.String(), true
}

// MemberAccess matches `.member` and `Base.member`. Base is "" for the
// implicit form.
func (e Expr) MemberAccess() (base, member string, ok bool) {
	toks := e.Toks
	switch {
	case len(toks) == 2 && toks[0].Kind == token.Dot && toks[1].IsWord():
		return "", strings.Trim(toks[1].Text, "`"), true
	case len(toks) == 3 && toks[0].IsWord() && toks[1].Kind == token.Dot && toks[2].IsWord():
		return strings.Trim(toks[0].Text, "`"), strings.Trim(toks[2].Text, "`"), true
	}
	return "", "", false
}
