package expand

import (
	"fmt"
	"strings"

	"prefmacro/internal/ast"
	"prefmacro/internal/token"
)

// bindingPlan: всё, что нужно для генерации одного binding'а.
type bindingPlan struct {
	binding ast.Binding
	name    string // identifier as spelled in code, backticks included
	field   string // backing field
	key     string
	typ     string // "" when neither declared nor inferable
}

// ExpandProperty runs the property pass on one member declaration.
//
// The pass skips declarations without the property attribute and those that
// already carry the generated marker. Otherwise it either rejects the
// declaration with diagnostics and emits nothing, or returns the backing
// field as the single peer in Declarations and the accessor-carrying
// properties, one per binding, as Replacements.
func ExpandProperty(decl ast.Decl, cfg Config) Result {
	var res Result
	if decl == nil {
		return res
	}
	idx := findAttribute(decl, cfg.PropertyAttribute)
	if idx < 0 || findAttribute(decl, cfg.Marker) >= 0 {
		return res
	}
	vd, ok := decl.(*ast.VarDecl)
	if !ok {
		res.Diagnostics = append(res.Diagnostics, NotAttachedToVariable(decl, cfg))
		return res
	}
	if res.Diagnostics = checkProperty(vd, cfg); len(res.Diagnostics) > 0 {
		return res
	}

	attr := vd.Attrs[idx]
	args := PropertyArgumentsOf(&attr, cfg)
	backend, recognized := args.Resolve(cfg)
	if !recognized {
		res.Diagnostics = append(res.Diagnostics, UnknownStorageBackend(args.BackendArg, args.BackendRaw, backend))
	}

	plans := make([]bindingPlan, 0, len(vd.Bindings))
	for _, b := range vd.Bindings {
		p := bindingPlan{
			binding: b,
			name:    b.Pattern[0].Text,
			field:   "_" + normName(b.Name()),
			key:     b.Name(),
			typ:     typeOf(b),
		}
		if args.Key != nil && len(vd.Bindings) == 1 {
			p.key = *args.Key
		}
		if p.typ == "" {
			res.Diagnostics = append(res.Diagnostics, MissingTypeAnnotation(b))
		}
		plans = append(plans, p)
	}

	peer, err := backingField(vd, plans, cfg)
	if err != nil {
		res.Diagnostics = append(res.Diagnostics, MaterializeFailed(vd, err))
		return res
	}
	repl, err := replacement(vd, idx, plans, backend, cfg)
	if err != nil {
		res.Diagnostics = append(res.Diagnostics, MaterializeFailed(vd, err))
		return res
	}
	res.Declarations = []ast.Decl{peer}
	res.Replacements = repl
	return res
}

// checkProperty applies the rejection rules in order: mutability, binding
// shape, accessor blocks, initializers. Only the first failing rule reports,
// once per offending binding.
func checkProperty(vd *ast.VarDecl, cfg Config) []Diagnostic {
	if vd.Keyword.Kind != token.KwVar {
		return []Diagnostic{NotMutable(vd, cfg)}
	}
	var out []Diagnostic
	if len(vd.Bindings) == 0 {
		return []Diagnostic{NotAttachedToVariable(vd, cfg)}
	}
	for _, b := range vd.Bindings {
		if b.Name() == "" {
			out = append(out, NotAttachedToVariable(b, cfg))
		}
	}
	if len(out) > 0 {
		return out
	}
	for _, b := range vd.Bindings {
		if b.Accessor != nil {
			out = append(out, HasAccessorBlock(b, cfg))
		}
	}
	if len(out) > 0 {
		return out
	}
	for _, b := range vd.Bindings {
		if !b.HasInitializer() {
			out = append(out, RequiresInitializer(b, cfg))
		}
	}
	return out
}

// typeOf returns the declared type, or the type of a literal initializer.
func typeOf(b ast.Binding) string {
	if !b.Type.IsEmpty() {
		return b.Type.Text()
	}
	switch b.Init.Literal() {
	case ast.LitString:
		return "String"
	case ast.LitInt:
		return "Int"
	case ast.LitFloat:
		return "Double"
	case ast.LitBool:
		return "Bool"
	}
	return ""
}

// backingField renders `@Marker private <mods> var _a: T = init, _b = init`.
// Access modifiers are replaced, other modifiers are kept.
func backingField(vd *ast.VarDecl, plans []bindingPlan, cfg Config) (ast.Decl, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "@%s %s ", cfg.Marker, cfg.AccessKeyword)
	for _, m := range vd.Mods {
		if m.IsAccessLevel() {
			continue
		}
		b.WriteString(ast.PrintTrimmed(m))
		b.WriteByte(' ')
	}
	b.WriteString("var ")
	for i, p := range plans {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(p.field)
		if !p.binding.Type.IsEmpty() {
			b.WriteString(": " + ast.PrintTrimmed(p.binding.Type))
		}
		b.WriteString(" = " + ast.PrintTrimmed(p.binding.Init))
	}
	return render(b.String())
}

// replacement rebuilds the property: the triggering attribute becomes the
// marker, initializers are dropped and every binding gets a get/set block.
// A computed property declares one binding, so `var a = 1, b = 2` turns into
// one declaration per binding; only the first keeps the original leading
// trivia. Other attributes and modifiers are copied to each, except `lazy`,
// which a computed property can not carry.
func replacement(vd *ast.VarDecl, idx int, plans []bindingPlan, backend StorageBackend, cfg Config) ([]ast.Decl, error) {
	marker, err := attribute("@" + cfg.Marker)
	if err != nil {
		return nil, err
	}
	base := *(ast.ReplaceAttribute(vd, idx, marker).(*ast.VarDecl))
	base.Mods = nil
	for _, m := range vd.Mods {
		if m.Name.Text != "lazy" {
			base.Mods = append(base.Mods, m)
		}
	}
	indent := ast.IndentOf(vd)
	lead := []token.Trivia{token.Newline()}
	if indent != "" {
		lead = append(lead, token.Space(indent))
	}

	out := make([]ast.Decl, 0, len(plans))
	for i, p := range plans {
		block, err := accessorBlock(p, backend, indent, cfg)
		if err != nil {
			return nil, err
		}
		nb := ast.Binding{
			Pattern:  p.binding.Pattern,
			Colon:    p.binding.Colon,
			Type:     p.binding.Type,
			Accessor: block,
		}
		if nb.Type.IsEmpty() && p.typ != "" {
			nb.Colon = ast.Synth(token.Colon, ":")
			nb.Type = ast.TypeRef{Toks: []token.Token{ast.Synth(token.Ident, p.typ, token.Space(" "))}}
		}
		c := base
		c.Bindings = []ast.Binding{nb}
		var d ast.Decl = &c
		if i > 0 {
			d = ast.WithLeading(d, lead)
		}
		out = append(out, d)
	}
	return out, nil
}

func accessorBlock(p bindingPlan, backend StorageBackend, indent string, cfg Config) (*ast.Block, error) {
	read, write := backendAccess(p, backend, cfg)
	text := "var " + p.name + " {\n" +
		"    get {\n" +
		"        access(keyPath: \\." + p.name + ")\n" +
		"        return " + read + "\n" +
		"    }\n" +
		"    set {\n" +
		"        withMutation(keyPath: \\." + p.name + ") {\n" +
		"            " + write + "\n" +
		"        }\n" +
		"    }\n" +
		"}"
	d, err := render(indentLines(text, indent))
	if err != nil {
		return nil, err
	}
	vd, ok := d.(*ast.VarDecl)
	if !ok || len(vd.Bindings) != 1 || vd.Bindings[0].Accessor == nil {
		return nil, fmt.Errorf("accessor template for %s did not produce an accessor block", p.name)
	}
	return vd.Bindings[0].Accessor, nil
}

// backendAccess returns the getter value and the setter statement.
// Credential accesses are call-site stubs against cfg.CredentialStore.
func backendAccess(p bindingPlan, backend StorageBackend, cfg Config) (read, write string) {
	key := quote(p.key)
	switch backend {
	case BackendMemory:
		return p.field, p.field + " = newValue"
	case BackendDefaults:
		read = fmt.Sprintf("%s.object(forKey: %s)", cfg.HandleField, key)
		if p.typ != "" {
			read += " as? " + p.typ
		}
		return read + " ?? " + p.field, fmt.Sprintf("%s.set(newValue, forKey: %s)", cfg.HandleField, key)
	default:
		if p.typ != "" {
			read = fmt.Sprintf("%s.read(key: %s, as: %s.self)", cfg.CredentialStore, key, p.typ)
		} else {
			read = fmt.Sprintf("%s.read(key: %s)", cfg.CredentialStore, key)
		}
		return read + " ?? " + p.field, fmt.Sprintf("%s.write(newValue, key: %s)", cfg.CredentialStore, key)
	}
}
