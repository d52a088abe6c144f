package lexer

import (
	"fmt"
	"unicode"
	"unicode/utf8"

	"fortio.org/safecast"
)

// peekRune читает текущую позицию как руну
func (lx *Lexer) peekRune() (r rune, size int) {
	if lx.cursor.EOF() {
		return utf8.RuneError, 0
	}
	b := lx.cursor.Peek()
	if b < utf8.RuneSelf {
		return rune(b), 1
	}
	return utf8.DecodeRune(lx.file.Content[lx.cursor.Off:lx.cursor.Limit])
}

// bumpRune перемещает курсор на размер текущей руны
func (lx *Lexer) bumpRune() {
	_, sz := lx.peekRune()
	if sz == 0 {
		return
	}
	usz, err := safecast.Conv[uint32](sz)
	if err != nil {
		panic(fmt.Errorf("bumpRune overflow: %w", err))
	}
	lx.cursor.Off += usz
}

// ASCII fast-path для идентификаторов, Unicode через isIdentStartRune/Continue.
func isIdentStartByte(b byte) bool {
	return b == '_' || b == '$' || (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z')
}

func isIdentContinueByte(b byte) bool {
	return isIdentStartByte(b) || isDec(b)
}

func isIdentStartRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isIdentContinueRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.Is(unicode.Mn, r)
}

func isDec(b byte) bool { return b >= '0' && b <= '9' }

func isHex(b byte) bool {
	return isDec(b) || (b >= 'a' && b <= 'f') || (b >= 'A' && b <= 'F')
}

func isOperatorByte(b byte) bool {
	switch b {
	case '/', '=', '-', '+', '!', '*', '%', '<', '>', '&', '|', '^', '~', '?':
		return true
	}
	return false
}
