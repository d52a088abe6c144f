package token

var keywords = map[string]Kind{
	"class":     KwClass,
	"struct":    KwStruct,
	"enum":      KwEnum,
	"actor":     KwActor,
	"protocol":  KwProtocol,
	"extension": KwExtension,
	"var":       KwVar,
	"let":       KwLet,
	"func":      KwFunc,
	"init":      KwInit,
	"deinit":    KwDeinit,
	"subscript": KwSubscript,
	"typealias": KwTypealias,
	"import":    KwImport,
	"case":      KwCase,
	"return":    KwReturn,
	"as":        KwAs,
	"is":        KwIs,
	"in":        KwIn,
	"true":      KwTrue,
	"false":     KwFalse,
	"nil":       KwNil,
}

// LookupKeyword возвращает тип и bool если это ключевое слово.
// Ключевые слова регистрозависимые.
func LookupKeyword(ident string) (Kind, bool) {
	k, ok := keywords[ident]
	return k, ok
}

// KeywordText returns the spelling of a keyword kind, or "" for other kinds.
func KeywordText(k Kind) string {
	for text, kind := range keywords {
		if kind == k {
			return text
		}
	}
	return ""
}
