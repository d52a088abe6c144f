package diag

import (
	"fmt"
	"slices"
)

type Code uint16

const (
	// Неизвестная ошибка
	UnknownCode Code = 0

	// Лексические
	LexInfo                     Code = 1000
	LexUnknownChar              Code = 1001
	LexUnterminatedString       Code = 1002
	LexUnterminatedBlockComment Code = 1003
	LexBadNumber                Code = 1004
	LexUnterminatedPlaceholder  Code = 1005
	LexTokenTooLong             Code = 1006

	// Парсерные
	SynInfo                Code = 2000
	SynUnexpectedToken     Code = 2001
	SynUnclosedDelimiter   Code = 2002
	SynUnbalancedDelimiter Code = 2003
	SynExpectIdentifier    Code = 2004
	SynExpectBindingName   Code = 2005
	SynExpectBody          Code = 2006
	SynExpectAttributeName Code = 2007

	// Expansion rules
	ExpInfo                  Code = 3000
	ExpNotAttachedToClass    Code = 3001
	ExpNotAttachedToVariable Code = 3002
	ExpNotMutable            Code = 3003
	ExpHasAccessorBlock      Code = 3004
	ExpRequiresInitializer   Code = 3005

	ExpUnknownStorageBackend Code = 3100
	ExpMissingTypeAnnotation Code = 3101

	ExpMaterializeFailed Code = 3200

	// I/O
	IOInfo          Code = 4000
	IOLoadFileError Code = 4001
	IOCacheError    Code = 4002

	// Проектные (конфигурация)
	ProjInfo          Code = 5000
	ProjConfigInvalid Code = 5001
	ProjConfigUnknown Code = 5002
)

var codeDescription = map[Code]string{
	UnknownCode:                 "Unknown error",
	LexInfo:                     "Lexical information",
	LexUnknownChar:              "Unknown character",
	LexUnterminatedString:       "Unterminated string literal",
	LexUnterminatedBlockComment: "Unterminated block comment",
	LexBadNumber:                "Malformed number literal",
	LexUnterminatedPlaceholder:  "Unterminated editor placeholder",
	LexTokenTooLong:             "Token too long",

	SynInfo:                "Syntax information",
	SynUnexpectedToken:     "Unexpected token",
	SynUnclosedDelimiter:   "Unclosed delimiter",
	SynUnbalancedDelimiter: "Unbalanced closing delimiter",
	SynExpectIdentifier:    "Expected identifier",
	SynExpectBindingName:   "Expected binding name",
	SynExpectBody:          "Expected declaration body",
	SynExpectAttributeName: "Expected attribute name after '@'",

	ExpInfo:                  "Expansion information",
	ExpNotAttachedToClass:    "Type annotation requires a class",
	ExpNotAttachedToVariable: "Property annotation requires a property",
	ExpNotMutable:            "Annotated property must be mutable",
	ExpHasAccessorBlock:      "Annotated property has an accessor block",
	ExpRequiresInitializer:   "Annotated property requires an initial value",
	ExpUnknownStorageBackend: "Unknown storage backend",
	ExpMissingTypeAnnotation: "Type of annotated property cannot be inferred",
	ExpMaterializeFailed:     "Expanded source does not parse",

	IOInfo:          "I/O information",
	IOLoadFileError: "I/O load file error",
	IOCacheError:    "Expansion cache error",

	ProjInfo:          "Project information",
	ProjConfigInvalid: "Invalid configuration",
	ProjConfigUnknown: "Unknown configuration key",
}

// ID returns the stable textual identifier, e.g. EXP3003.
func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("LEX%04d", ic)
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("SYN%04d", ic)
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("EXP%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("IO%04d", ic)
	case ic >= 5000 && ic < 6000:
		return fmt.Sprintf("PRJ%04d", ic)
	}
	return "E0000"
}

// Title returns the short description of the code.
func (c Code) Title() string {
	if d, ok := codeDescription[c]; ok {
		return d
	}
	return codeDescription[UnknownCode]
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}

// KnownCodes lists every registered code in ascending order.
func KnownCodes() []Code {
	out := make([]Code, 0, len(codeDescription))
	for c := range codeDescription {
		out = append(out, c)
	}
	slices.Sort(out)
	return out
}
