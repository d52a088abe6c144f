package expand_test

import (
	"strings"
	"testing"

	"prefmacro/internal/ast"
	"prefmacro/internal/diag"
	"prefmacro/internal/expand"
	"prefmacro/internal/parser"
	"prefmacro/internal/source"
)

var cfg = expand.DefaultConfig()

func parseSource(t *testing.T, src string) *ast.File {
	t.Helper()
	fs := source.NewFileSet()
	file := fs.Get(fs.AddVirtual("prefs.swift", []byte(src)))
	bag := diag.NewBag(16)
	res := parser.ParseFile(file, parser.Options{Reporter: diag.BagReporter{Bag: bag}})
	if bag.Len() != 0 {
		t.Fatalf("unexpected parse diagnostics: %v", bag.Items())
	}
	return res.File
}

// member parses body inside a class and returns its first member.
func member(t *testing.T, body string) ast.Decl {
	t.Helper()
	f := parseSource(t, "class A {\n    "+body+"\n}\n")
	return f.Decls[0].(*ast.TypeDecl).Members[0]
}

func typeDecl(t *testing.T, src string) *ast.TypeDecl {
	t.Helper()
	return parseSource(t, src).Decls[0].(*ast.TypeDecl)
}

func codes(ds []expand.Diagnostic) []diag.Code {
	out := make([]diag.Code, 0, len(ds))
	for _, d := range ds {
		out = append(out, d.Code)
	}
	return out
}

func expectCodes(t *testing.T, ds []expand.Diagnostic, want ...diag.Code) {
	t.Helper()
	got := codes(ds)
	if len(got) != len(want) {
		t.Fatalf("codes = %v, want %v", got, want)
	}
	for i := range got {
		if got[i] != want[i] {
			t.Fatalf("codes = %v, want %v", got, want)
		}
	}
}

func mustReparse(t *testing.T, d ast.Decl) ast.Decl {
	t.Helper()
	re, err := parser.ParseDecl(ast.Print(d))
	if err != nil {
		t.Fatalf("generated declaration does not parse: %v\n%s", err, ast.Print(d))
	}
	return re
}

func TestClassify(t *testing.T) {
	v := expand.Classify(member(t, "@objc private static var a: Int = 1, b = 2"))
	if v.Kind != expand.KindProperty || v.Name != "a" || !v.IsMutable || !v.IsStatic || !v.HasInitializer {
		t.Fatalf("view = %+v", v)
	}
	if v.DeclaredType == nil || *v.DeclaredType != "Int" || len(v.Bindings) != 2 || v.Bindings[1].DeclaredType != nil {
		t.Fatalf("types = %+v", v)
	}
	if !v.HasAttribute("objc") || v.HasAttribute("Stored") {
		t.Fatalf("attributes = %v", v.Attributes)
	}

	v = expand.Classify(member(t, "let a: Int { 1 }"))
	if v.IsMutable || !v.HasCustomAccessor || v.HasInitializer {
		t.Fatalf("computed view = %+v", v)
	}

	v = expand.Classify(member(t, "var a = 1, b: Int"))
	if v.HasInitializer {
		t.Fatalf("HasInitializer must require every binding")
	}

	cases := []struct {
		body string
		kind expand.Kind
		name string
	}{
		{"func reset() {}", expand.KindFunction, "reset"},
		{"init() {}", expand.KindFunction, "init"},
		{"struct Inner {}", expand.KindNestedType, "Inner"},
		{"case a", expand.KindOther, ""},
	}
	for _, tc := range cases {
		v := expand.Classify(member(t, tc.body))
		if v.Kind != tc.kind || v.Name != tc.name {
			t.Errorf("%q: kind %s name %q", tc.body, v.Kind, v.Name)
		}
		if v.DeclaredType != nil || v.IsMutable || v.HasInitializer || v.HasCustomAccessor || v.IsStatic {
			t.Errorf("%q: non-property view has property facts: %+v", tc.body, v)
		}
	}
}

func TestClassifyNormalizesAttributeNames(t *testing.T) {
	// "Café" spelled with a combining acute accent.
	v := expand.Classify(member(t, "@Café var a = 1"))
	if !v.HasAttribute("Café") {
		t.Fatalf("NFC spelling not matched: %q", v.Attributes)
	}
}

func storedAttr(t *testing.T, body string) *ast.Attribute {
	t.Helper()
	d := member(t, body)
	a := d.Attributes()[0]
	return &a
}

func TestPropertyArguments(t *testing.T) {
	cases := []struct {
		body       string
		key        string
		backend    expand.StorageBackend
		recognized bool
	}{
		{`@Stored var a = 1`, "", expand.BackendCredential, true},
		{`@Stored(in: .memory) var a = 1`, "", expand.BackendMemory, true},
		{`@Stored(in: Storage.memory) var a = 1`, "", expand.BackendMemory, true},
		{`@Stored(in: .keychain) var a = 1`, "", expand.BackendCredential, true},
		{`@Stored(in: .credential) var a = 1`, "", expand.BackendCredential, true},
		{`@Stored(in: .persistent) var a = 1`, "", expand.BackendDefaults, true},
		{`@Stored(key: "k", in: .defaults) var a = 1`, "k", expand.BackendDefaults, true},
		{`@Stored(in: .cloud) var a = 1`, "", expand.BackendCredential, false},
		{`@Stored(in: Other.memory) var a = 1`, "", expand.BackendCredential, false},
		{`@Stored(in: "memory") var a = 1`, "", expand.BackendCredential, false},
		{`@Stored(key: name, in: .memory) var a = 1`, "", expand.BackendMemory, true},
		{`@Stored("k", .memory) var a = 1`, "", expand.BackendCredential, true},
	}
	for _, tc := range cases {
		args := expand.PropertyArgumentsOf(storedAttr(t, tc.body), cfg)
		key := ""
		if args.Key != nil {
			key = *args.Key
		}
		backend, ok := args.Resolve(cfg)
		if key != tc.key || backend != tc.backend || ok != tc.recognized {
			t.Errorf("%s: key %q backend %s recognized %v", tc.body, key, backend, ok)
		}
	}
}

func TestFallbackBackendIsConfigurable(t *testing.T) {
	c := cfg
	c.Fallback = expand.BackendMemory
	cases := []struct {
		body       string
		backend    expand.StorageBackend
		recognized bool
	}{
		{`@Stored(in: .cloud) var a = 1`, expand.BackendMemory, false},
		{`@Stored(in: foo()) var a = 1`, expand.BackendCredential, true},
	}
	for _, tc := range cases {
		args := expand.PropertyArgumentsOf(storedAttr(t, tc.body), c)
		if b, ok := args.Resolve(c); b != tc.backend || ok != tc.recognized {
			t.Errorf("%s: resolve = %s %v", tc.body, b, ok)
		}
	}

	res := expand.ExpandProperty(member(t, `@Stored(in: foo()) var x = 1`), c)
	if len(res.Diagnostics) != 0 {
		t.Fatalf("non-literal backend reported: %v", codes(res.Diagnostics))
	}
	if !strings.Contains(ast.Print(res.Replacements[0]), "CredentialStore.read") {
		t.Fatalf("non-literal backend must use the credential default:\n%s", ast.Print(res.Replacements[0]))
	}
}

func TestTypeArguments(t *testing.T) {
	td := typeDecl(t, `@Preferences(named: "group.x") class A {}`)
	args := expand.TypeArgumentsOf(&td.Attrs[0])
	if args.Named == nil || *args.Named != "group.x" {
		t.Fatalf("named = %v", args.Named)
	}
	td = typeDecl(t, `@Preferences(named: suite) class A {}`)
	if expand.TypeArgumentsOf(&td.Attrs[0]).Named != nil {
		t.Fatalf("non-literal named must be absent")
	}
	if expand.TypeArgumentsOf(nil).Named != nil {
		t.Fatalf("nil attribute")
	}
}

func TestParseArgumentsFirstLabelWins(t *testing.T) {
	args := expand.ParseArguments(storedAttr(t, `@Stored(key: "a", key: "b", "c") var x = 1`))
	if len(args) != 1 || args["key"].Text != "a" || args["key"].Kind != expand.ValueString {
		t.Fatalf("args = %+v", args)
	}
}
