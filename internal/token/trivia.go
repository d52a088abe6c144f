package token

import "prefmacro/internal/source"

type TriviaKind uint8

const (
	TriviaSpace TriviaKind = iota
	TriviaNewline
	TriviaLineComment
	TriviaBlockComment
	TriviaDocLine
)

type Trivia struct {
	Kind TriviaKind
	Span source.Span
	Text string
}

// Space builds synthesized whitespace trivia.
func Space(text string) Trivia {
	return Trivia{Kind: TriviaSpace, Text: text}
}

// Newline builds synthesized newline trivia.
func Newline() Trivia {
	return Trivia{Kind: TriviaNewline, Text: "\n"}
}

func (k TriviaKind) String() string {
	switch k {
	case TriviaSpace:
		return "Space"
	case TriviaNewline:
		return "Newline"
	case TriviaLineComment:
		return "LineComment"
	case TriviaBlockComment:
		return "BlockComment"
	case TriviaDocLine:
		return "DocLine"
	}
	return "Trivia?"
}
