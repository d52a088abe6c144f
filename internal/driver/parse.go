package driver

import (
	"fortio.org/safecast"

	"prefmacro/internal/ast"
	"prefmacro/internal/diag"
	"prefmacro/internal/parser"
	"prefmacro/internal/source"
)

type ParseResult struct {
	FileSet *source.FileSet
	File    *source.File
	Tree    *ast.File
	Bag     *diag.Bag
}

// Parse reads and parses one file without expanding it.
func Parse(path string, maxDiagnostics int) (*ParseResult, error) {
	fs := source.NewFileSet()
	id, err := fs.Load(path)
	if err != nil {
		return nil, err
	}
	file := fs.Get(id)

	maxErrors, err := safecast.Conv[uint](maxDiagnostics)
	if err != nil {
		return nil, err
	}
	bag := diag.NewBag(maxDiagnostics)
	res := parser.ParseFile(file, parser.Options{
		Reporter:  diag.BagReporter{Bag: bag},
		MaxErrors: maxErrors,
	})
	return &ParseResult{FileSet: fs, File: file, Tree: res.File, Bag: bag}, nil
}
