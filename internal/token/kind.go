package token

import "strings"

// Kind represents the category of a source token.
type Kind uint8

const (
	// Invalid indicates an erroneous token.
	Invalid Kind = iota
	// EOF marks the end of the source input. Trailing trivia hangs on it.
	EOF

	// Ident represents an identifier token (including `backticked` names).
	Ident

	KwClass     // class
	KwStruct    // struct
	KwEnum      // enum
	KwActor     // actor
	KwProtocol  // protocol
	KwExtension // extension
	KwVar       // var
	KwLet       // let
	KwFunc      // func
	KwInit      // init
	KwDeinit    // deinit
	KwSubscript // subscript
	KwTypealias // typealias
	KwImport    // import
	KwCase      // case
	KwReturn    // return
	KwAs        // as
	KwIs        // is
	KwIn        // in
	KwTrue      // true
	KwFalse     // false
	KwNil       // nil

	// IntLit represents the integer literal token.
	IntLit
	// FloatLit represents the float literal token.
	FloatLit
	// StringLit represents a single-line string literal, quotes included.
	StringLit
	// Placeholder represents an editor placeholder such as <#initializer#>.
	Placeholder

	Plus             // +
	Minus            // -
	Star             // *
	Slash            // /
	Percent          // %
	Assign           // =
	EqEq             // ==
	Bang             // !
	BangEq           // !=
	Lt               // <
	LtEq             // <=
	Gt               // >
	GtEq             // >=
	Amp              // &
	Pipe             // |
	Caret            // ^
	Tilde            // ~
	AndAnd           // &&
	OrOr             // ||
	Question         // ?
	QuestionQuestion // ??
	Colon            // :
	Semicolon        // ;
	Comma            // ,
	Dot              // .
	Arrow            // ->
	LParen           // (
	RParen           // )
	LBrace           // {
	RBrace           // }
	LBracket         // [
	RBracket         // ]
	At               // @
	Hash             // #
	Backslash        // \
	Underscore       // _
	DotDotDot        // ...
	DotDotLt         // ..<
	// Operator is any other run of operator characters (custom operators, +=, ...).
	Operator
)

var kindNames = map[Kind]string{
	Invalid: "Invalid", EOF: "EOF", Ident: "Ident",
	IntLit: "IntLit", FloatLit: "FloatLit", StringLit: "StringLit", Placeholder: "Placeholder",
	Plus: "Plus", Minus: "Minus", Star: "Star", Slash: "Slash", Percent: "Percent",
	Assign: "Assign", EqEq: "EqEq", Bang: "Bang", BangEq: "BangEq",
	Lt: "Lt", LtEq: "LtEq", Gt: "Gt", GtEq: "GtEq",
	Amp: "Amp", Pipe: "Pipe", Caret: "Caret", Tilde: "Tilde", AndAnd: "AndAnd", OrOr: "OrOr",
	Question: "Question", QuestionQuestion: "QuestionQuestion",
	Colon: "Colon", Semicolon: "Semicolon", Comma: "Comma", Dot: "Dot", Arrow: "Arrow",
	LParen: "LParen", RParen: "RParen", LBrace: "LBrace", RBrace: "RBrace",
	LBracket: "LBracket", RBracket: "RBracket",
	At: "At", Hash: "Hash", Backslash: "Backslash", Underscore: "Underscore",
	DotDotDot: "DotDotDot", DotDotLt: "DotDotLt", Operator: "Operator",
}

// String returns the symbolic name of the kind ("KwVar", "LBrace", ...).
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	if text := KeywordText(k); text != "" {
		return "Kw" + strings.ToUpper(text[:1]) + text[1:]
	}
	return "Kind(?)"
}

// IsTypeIntroducer reports whether k opens a nominal type declaration.
func (k Kind) IsTypeIntroducer() bool {
	switch k {
	case KwClass, KwStruct, KwEnum, KwActor, KwProtocol:
		return true
	default:
		return false
	}
}
