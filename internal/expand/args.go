package expand

import "prefmacro/internal/ast"

// ValueKind is the recognized shape of an argument value.
type ValueKind uint8

const (
	ValueAbsent ValueKind = iota
	ValueString
	ValueMember
)

// Value is a labeled argument value. Base is empty for `.member`.
type Value struct {
	Kind   ValueKind
	Text   string
	Base   string
	Member string
	Expr   ast.Expr
}

// Arguments maps labels to values. Unlabeled arguments are dropped; the
// first occurrence of a label wins.
type Arguments map[string]Value

// ParseArguments reads the labeled arguments of attr. A value that is
// neither a plain string literal nor a member access is kept as absent.
func ParseArguments(attr *ast.Attribute) Arguments {
	args := Arguments{}
	if attr == nil || attr.Args == nil {
		return args
	}
	for _, a := range attr.Args.Items {
		if !ast.Present(a.Label) {
			continue
		}
		label := normName(a.Label.Text)
		if _, dup := args[label]; dup {
			continue
		}
		v := Value{Expr: a.Value}
		if s, ok := a.Value.StringLiteral(); ok {
			v.Kind, v.Text = ValueString, s
		} else if base, member, ok := a.Value.MemberAccess(); ok {
			v.Kind, v.Base, v.Member = ValueMember, normName(base), normName(member)
		}
		args[label] = v
	}
	return args
}

// PropertyArguments is the typed view of `@Stored(key:in:)`.
type PropertyArguments struct {
	Key *string
	// Backend is nil when `in:` is absent or not a known member.
	Backend    *StorageBackend
	BackendSet bool
	BackendRaw string
	BackendArg ast.Expr
}

// PropertyArgumentsOf extracts `key:` and `in:`. Accepted backend spellings
// are `.name` and `<BackendEnum>.name`.
func PropertyArgumentsOf(attr *ast.Attribute, cfg Config) PropertyArguments {
	var out PropertyArguments
	args := ParseArguments(attr)
	if v, ok := args["key"]; ok && v.Kind == ValueString {
		key := v.Text
		out.Key = &key
	}
	v, ok := args["in"]
	if !ok || v.Kind == ValueAbsent {
		// in: foo() считается отсутствующим аргументом
		return out
	}
	out.BackendSet = true
	out.BackendArg = v.Expr
	out.BackendRaw = ast.PrintTrimmed(v.Expr)
	if v.Kind != ValueMember || (v.Base != "" && v.Base != normName(cfg.BackendEnum)) {
		return out
	}
	if b, ok := ParseBackend(v.Member); ok {
		out.Backend = &b
	}
	return out
}

// Resolve returns the effective backend: credential when `in:` is absent,
// the configured fallback when it is not recognized.
func (a PropertyArguments) Resolve(cfg Config) (backend StorageBackend, recognized bool) {
	switch {
	case !a.BackendSet:
		return BackendCredential, true
	case a.Backend == nil:
		return cfg.Fallback, false
	}
	return *a.Backend, true
}

// TypeArguments is the typed view of `@Preferences(named:)`.
type TypeArguments struct {
	Named *string
}

func TypeArgumentsOf(attr *ast.Attribute) TypeArguments {
	var out TypeArguments
	if v, ok := ParseArguments(attr)["named"]; ok && v.Kind == ValueString {
		name := v.Text
		out.Named = &name
	}
	return out
}
