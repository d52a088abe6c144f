package lexer

import (
	"bytes"
	"fmt"

	"fortio.org/safecast"

	"prefmacro/internal/source"
)

// Cursor is a byte position inside a file.
type Cursor struct {
	File *source.File
	Off  uint32
	// Limit is the exclusive upper bound for Off.
	Limit uint32
}

// NewCursor creates a new cursor for the provided file.
func NewCursor(f *source.File) Cursor {
	limit, err := safecast.Conv[uint32](len(f.Content))
	if err != nil {
		panic(fmt.Errorf("len file content overflow: %w", err))
	}
	return Cursor{File: f, Limit: limit}
}

// EOF проверяет, достигнут ли конец файла
func (c *Cursor) EOF() bool {
	return c.Off >= c.Limit
}

// Peek читает текущий байт, если есть, иначе возвращает 0
func (c *Cursor) Peek() byte {
	if c.EOF() {
		return 0
	}
	return c.File.Content[c.Off]
}

// PeekAt returns the byte n positions ahead, or 0 past the end.
func (c *Cursor) PeekAt(n uint32) byte {
	if c.Off+n >= c.Limit {
		return 0
	}
	return c.File.Content[c.Off+n]
}

// HasPrefix reports whether the remaining input starts with s.
func (c *Cursor) HasPrefix(s string) bool {
	if c.EOF() {
		return false
	}
	return bytes.HasPrefix(c.File.Content[c.Off:c.Limit], []byte(s))
}

// Bump перемещает курсор на один байт вперед и возвращает прочитанный байт
func (c *Cursor) Bump() byte {
	if c.EOF() {
		return 0
	}
	b := c.File.Content[c.Off]
	c.Off++
	return b
}

// BumpN advances over n bytes, stopping at the limit.
func (c *Cursor) BumpN(n int) {
	for range n {
		c.Bump()
	}
}

// Mark is a saved position used to build spans of scanned fragments.
type Mark uint32

// Mark сохраняет текущую позицию курсора
func (c *Cursor) Mark() Mark {
	return Mark(c.Off)
}

// SpanFrom получает Span для фрагмента, начиная с метки
func (c *Cursor) SpanFrom(m Mark) source.Span {
	return source.Span{File: c.File.ID, Start: uint32(m), End: c.Off}
}

// Reset возвращает курсор назад к метке
func (c *Cursor) Reset(m Mark) {
	c.Off = uint32(m)
}

// Eat consumes the next byte if it matches the provided byte.
func (c *Cursor) Eat(b byte) bool {
	if !c.EOF() && c.File.Content[c.Off] == b {
		c.Off++
		return true
	}
	return false
}
