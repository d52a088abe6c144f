package expand

import (
	"fmt"

	"prefmacro/internal/ast"
	"prefmacro/internal/token"
)

// ExpandType runs the type pass on a declaration carrying the type
// attribute. On a class it returns the registrar and backend-handle members
// in Declarations and one Injection per stored property that still needs
// the property attribute. Already expanded classes yield an empty result.
func ExpandType(decl ast.Decl, cfg Config) Result {
	var res Result
	if decl == nil {
		return res
	}
	idx := findAttribute(decl, cfg.TypeAttribute)
	if idx < 0 {
		return res
	}
	td, ok := decl.(*ast.TypeDecl)
	if !ok || td.Introducer.Kind != token.KwClass {
		res.Diagnostics = append(res.Diagnostics, NotAttachedToClass(decl, cfg))
		return res
	}
	if IsExpanded(td, cfg) {
		return res
	}

	stored, err := attribute(fmt.Sprintf("@%s(in: .%s)", cfg.PropertyAttribute, BackendMemory))
	if err != nil {
		res.Diagnostics = append(res.Diagnostics, MaterializeFailed(td, err))
		return res
	}
	for i, m := range td.Members {
		v := Classify(m)
		if !v.IsStoredCandidate() || v.HasAttribute(cfg.PropertyAttribute) || v.HasAttribute(cfg.Marker) {
			continue
		}
		res.Attributes = append(res.Attributes, Injection{Member: i, Target: m, Attribute: stored})
	}

	attr := td.Attrs[idx]
	members, err := generatedMembers(TypeArgumentsOf(&attr), cfg)
	if err != nil {
		res.Diagnostics = append(res.Diagnostics, MaterializeFailed(td, err))
		res.Attributes = nil
		return res
	}
	res.Declarations = members
	return res
}

func generatedMembers(args TypeArguments, cfg Config) ([]ast.Decl, error) {
	registrar, err := renderf("@%s %s let %s = %s()",
		cfg.Marker, cfg.AccessKeyword, cfg.RegistrarField, cfg.RegistrarType)
	if err != nil {
		return nil, err
	}
	init := cfg.HandleType + ".standard"
	if args.Named != nil {
		init = fmt.Sprintf("%s(suiteName: %s)!", cfg.HandleType, quote(*args.Named))
	}
	handle, err := renderf("@%s %s let %s: %s = %s",
		cfg.Marker, cfg.AccessKeyword, cfg.HandleField, cfg.HandleType, init)
	if err != nil {
		return nil, err
	}
	return []ast.Decl{registrar, handle}, nil
}

// IsExpanded reports whether decl is a type that already holds a registrar
// member carrying the generated marker.
func IsExpanded(decl ast.Decl, cfg Config) bool {
	td, ok := decl.(*ast.TypeDecl)
	if !ok {
		return false
	}
	field := normName(cfg.RegistrarField)
	for _, m := range td.Members {
		v := Classify(m)
		if v.Kind != KindProperty || !v.HasAttribute(cfg.Marker) {
			continue
		}
		for _, b := range v.Bindings {
			if normName(b.Name) == field {
				return true
			}
		}
	}
	return false
}
