package driver

import (
	"prefmacro/internal/diag"
	"prefmacro/internal/lexer"
	"prefmacro/internal/source"
	"prefmacro/internal/token"
)

type TokenizeResult struct {
	FileSet *source.FileSet
	File    *source.File
	Tokens  []token.Token
	Bag     *diag.Bag
}

// Tokenize lexes one file; the last token is always EOF.
func Tokenize(path string, maxDiagnostics int) (*TokenizeResult, error) {
	fs := source.NewFileSet()
	id, err := fs.Load(path)
	if err != nil {
		return nil, err
	}
	file := fs.Get(id)
	bag := diag.NewBag(maxDiagnostics)
	lx := lexer.New(file, lexer.Options{Reporter: diag.BagReporter{Bag: bag}})
	return &TokenizeResult{
		FileSet: fs,
		File:    file,
		Tokens:  lx.All(),
		Bag:     bag,
	}, nil
}
