package source

import (
	"fmt"
)

type Span struct {
	File  FileID
	Start uint32 // в байтах включительно
	End   uint32 // в байтах не включительно
}

// IsValid reports whether the span points into a loaded file.
// Spans of synthesized tokens are zero and therefore invalid.
func (s Span) IsValid() bool {
	return s.File != NoFileID
}

func (s Span) Empty() bool {
	return s.Start == s.End
}

func (s Span) Len() uint32 {
	return s.End - s.Start
}

func (s Span) String() string {
	return fmt.Sprintf("%d:%d-%d", s.File, s.Start, s.End)
}

// Cover returns the smallest span containing both s and other.
// An invalid receiver adopts other; spans from different files are not merged.
func (s Span) Cover(other Span) Span {
	if !s.IsValid() {
		return other
	}
	if !other.IsValid() || s.File != other.File {
		return s
	}
	if other.Start < s.Start {
		s.Start = other.Start
	}
	if other.End > s.End {
		s.End = other.End
	}
	return s
}

// Contains reports whether other lies entirely within s.
func (s Span) Contains(other Span) bool {
	return s.File == other.File && s.Start <= other.Start && other.End <= s.End
}

// ZeroideToStart collapses the span to its start position.
func (s Span) ZeroideToStart() Span {
	return Span{File: s.File, Start: s.Start, End: s.Start}
}

// ZeroideToEnd collapses the span to its end position.
func (s Span) ZeroideToEnd() Span {
	return Span{File: s.File, Start: s.End, End: s.End}
}
