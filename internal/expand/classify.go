package expand

import (
	"golang.org/x/text/unicode/norm"

	"prefmacro/internal/ast"
	"prefmacro/internal/token"
)

// Kind: замкнутый вариант объявления, которым оперируют проходы.
type Kind uint8

const (
	KindOther Kind = iota
	KindProperty
	KindFunction
	KindNestedType
)

func (k Kind) String() string {
	switch k {
	case KindProperty:
		return "property"
	case KindFunction:
		return "function"
	case KindNestedType:
		return "nested-type"
	}
	return "other"
}

// BindingView describes one `name: Type = init` entry.
type BindingView struct {
	Name              string
	DeclaredType      *string
	HasInitializer    bool
	HasCustomAccessor bool
}

// DeclarationView is the classified shape of a declaration. It is derived on
// demand and holds no references into the tree.
type DeclarationView struct {
	Kind              Kind
	Name              string
	DeclaredType      *string
	IsMutable         bool
	HasInitializer    bool
	HasCustomAccessor bool
	IsStatic          bool
	IsLazy            bool
	Attributes        []string
	Bindings          []BindingView
}

// Classify is the only place where passes look at the concrete node type.
// For properties HasInitializer means every binding has one and
// HasCustomAccessor means at least one binding carries an accessor block.
func Classify(decl ast.Decl) DeclarationView {
	var v DeclarationView
	if decl == nil {
		return v
	}
	for _, a := range decl.Attributes() {
		v.Attributes = append(v.Attributes, normName(a.NameText()))
	}
	switch d := decl.(type) {
	case *ast.VarDecl:
		v.Kind = KindProperty
		v.IsMutable = d.Keyword.Kind == token.KwVar
		v.IsStatic = ast.HasModifier(d, "static") || ast.HasModifier(d, "class")
		v.IsLazy = ast.HasModifier(d, "lazy")
		v.HasInitializer = len(d.Bindings) > 0
		for _, b := range d.Bindings {
			bv := BindingView{
				Name:              b.Name(),
				HasInitializer:    b.HasInitializer(),
				HasCustomAccessor: b.Accessor != nil,
			}
			if !b.Type.IsEmpty() {
				t := b.Type.Text()
				bv.DeclaredType = &t
			}
			v.HasInitializer = v.HasInitializer && bv.HasInitializer
			v.HasCustomAccessor = v.HasCustomAccessor || bv.HasCustomAccessor
			v.Bindings = append(v.Bindings, bv)
		}
		if len(v.Bindings) > 0 {
			v.Name = v.Bindings[0].Name
			v.DeclaredType = v.Bindings[0].DeclaredType
		}
	case *ast.FuncDecl:
		v.Kind = KindFunction
		v.Name = d.Keyword.Text
		if d.Keyword.Kind == token.KwFunc && len(d.Signature) > 0 {
			v.Name = d.Signature[0].Text
		}
	case *ast.TypeDecl:
		v.Kind = KindNestedType
		v.Name = d.Name.Text
	}
	return v
}

// HasAttribute reports whether the view lists the attribute name.
func (v DeclarationView) HasAttribute(name string) bool {
	name = normName(name)
	for _, a := range v.Attributes {
		if a == name {
			return true
		}
	}
	return false
}

// IsStoredCandidate reports a property the type pass may annotate: a
// mutable, non-static, non-lazy stored property with named bindings.
func (v DeclarationView) IsStoredCandidate() bool {
	if v.Kind != KindProperty || !v.IsMutable || v.IsStatic || v.IsLazy || v.HasCustomAccessor {
		return false
	}
	for _, b := range v.Bindings {
		if b.Name == "" {
			return false
		}
	}
	return len(v.Bindings) > 0
}

// normName brings identifiers to NFC so that composed and decomposed
// spellings of the same name compare equal.
func normName(s string) string {
	if norm.NFC.IsNormalString(s) {
		return s
	}
	return norm.NFC.String(s)
}

// findAttribute returns the index of the attribute spelled name, or -1.
func findAttribute(decl ast.Decl, name string) int {
	name = normName(name)
	return ast.FindAttribute(decl.Attributes(), func(a ast.Attribute) bool {
		return normName(a.NameText()) == name
	})
}
