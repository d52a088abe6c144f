package expand_test

import (
	"slices"
	"strings"
	"testing"

	"prefmacro/internal/ast"
	"prefmacro/internal/diag"
	"prefmacro/internal/expand"
)

func TestPropertySkips(t *testing.T) {
	for _, body := range []string{
		"var a = 1",
		"@objc var a = 1",
		"@PreferencesGenerated @Stored var a = 1",
	} {
		res := expand.ExpandProperty(member(t, body), cfg)
		if len(res.Diagnostics) != 0 || len(res.Declarations) != 0 || len(res.Replacements) != 0 {
			t.Errorf("%q: expected no output, got %+v", body, res)
		}
	}
}

func TestPropertyNotAttachedToVariable(t *testing.T) {
	res := expand.ExpandProperty(member(t, "@Stored func f() {}"), cfg)
	expectCodes(t, res.Diagnostics, diag.ExpNotAttachedToVariable)
	if res.Diagnostics[0].Fix != nil {
		t.Fatalf("NotAttachedToVariable must not carry a fix")
	}
	if res.Diagnostics[0].Message != "'Stored' must be attached to a property" {
		t.Fatalf("message = %q", res.Diagnostics[0].Message)
	}
	res = expand.ExpandProperty(member(t, "@Stored var (a, b) = (1, 2)"), cfg)
	expectCodes(t, res.Diagnostics, diag.ExpNotAttachedToVariable)
}

func TestPropertyMissingInitializer(t *testing.T) {
	res := expand.ExpandProperty(member(t, "@Stored var x: Int"), cfg)
	if len(res.Declarations) != 0 || len(res.Replacements) != 0 {
		t.Fatalf("rejected property produced declarations")
	}
	expectCodes(t, res.Diagnostics, diag.ExpRequiresInitializer)
	d := res.Diagnostics[0]
	if got := ast.PrintTrimmed(d.Anchor); got != "x: Int" {
		t.Fatalf("anchor = %q", got)
	}
	if d.Message != "'Stored' properties must have an initial value" {
		t.Fatalf("message = %q", d.Message)
	}
	if d.Fix == nil || d.Fix.Message != "Add initializer to provide a default value" {
		t.Fatalf("fix = %+v", d.Fix)
	}
	if got := ast.PrintTrimmed(d.Fix.Change.New); got != "x: Int = <#initializer#>" {
		t.Fatalf("fix new = %q", got)
	}
	if ast.PrintTrimmed(d.Fix.Change.Old) != "x: Int" {
		t.Fatalf("fix old = %q", ast.PrintTrimmed(d.Fix.Change.Old))
	}
}

func TestPropertyMissingInitializerPerBinding(t *testing.T) {
	res := expand.ExpandProperty(member(t, "@Stored var a: Int, b = 1, c: String"), cfg)
	expectCodes(t, res.Diagnostics, diag.ExpRequiresInitializer, diag.ExpRequiresInitializer)
	if got := ast.PrintTrimmed(res.Diagnostics[0].Fix.Change.New); got != "a: Int = <#initializer#>," {
		t.Fatalf("fix new = %q", got)
	}
}

func TestPropertyNotMutable(t *testing.T) {
	res := expand.ExpandProperty(member(t, "@Stored let x = 1"), cfg)
	expectCodes(t, res.Diagnostics, diag.ExpNotMutable)
	d := res.Diagnostics[0]
	if ast.PrintTrimmed(d.Anchor) != "let" {
		t.Fatalf("anchor = %q", ast.PrintTrimmed(d.Anchor))
	}
	if d.Fix.Applicability != diag.FixApplicabilityAlwaysSafe || d.Fix.Message != "Make declaration mutable" {
		t.Fatalf("fix = %+v", d.Fix)
	}
	if ast.PrintTrimmed(d.Fix.Change.Old) != "let" || ast.PrintTrimmed(d.Fix.Change.New) != "var" {
		t.Fatalf("fix rewrites more than the keyword")
	}
	if len(res.Declarations) != 0 {
		t.Fatalf("rejected property produced declarations")
	}
}

func TestPropertyAccessorBlocks(t *testing.T) {
	res := expand.ExpandProperty(member(t, "@Stored var a: Int { 1 }, b: Int { 2 }"), cfg)
	expectCodes(t, res.Diagnostics, diag.ExpHasAccessorBlock, diag.ExpHasAccessorBlock)
	wantAnchors := []string{"{ 1 }", "{ 2 }"}
	wantNew := []string{"a: Int = <#initializer#>,", "b: Int = <#initializer#>"}
	for i, d := range res.Diagnostics {
		if got := ast.PrintTrimmed(d.Anchor); got != wantAnchors[i] {
			t.Errorf("anchor %d = %q", i, got)
		}
		if d.Fix.Applicability != diag.FixApplicabilityManualReview {
			t.Errorf("applicability %d = %s", i, d.Fix.Applicability)
		}
		if got := ast.PrintTrimmed(d.Fix.Change.New); got != wantNew[i] {
			t.Errorf("fix %d = %q", i, got)
		}
	}
	if len(res.Declarations) != 0 {
		t.Fatalf("rejected property produced declarations")
	}
}

func TestPropertyObserverBlockKeepsInitializer(t *testing.T) {
	res := expand.ExpandProperty(member(t, "@Stored var a = 1 { didSet {} }"), cfg)
	expectCodes(t, res.Diagnostics, diag.ExpHasAccessorBlock)
	if got := ast.PrintTrimmed(res.Diagnostics[0].Fix.Change.New); got != "a = 1" {
		t.Fatalf("fix new = %q", got)
	}
}

func TestPropertyMemory(t *testing.T) {
	res := expand.ExpandProperty(member(t, `@Stored(in: .memory) var setting: String = "x"`), cfg)
	if len(res.Diagnostics) != 0 {
		t.Fatalf("diagnostics: %+v", res.Diagnostics)
	}
	if len(res.Declarations) != 1 {
		t.Fatalf("peers = %d", len(res.Declarations))
	}
	if got := ast.PrintTrimmed(res.Declarations[0]); got != `@PreferencesGenerated private var _setting: String = "x"` {
		t.Fatalf("peer = %q", got)
	}
	want := "\n    @PreferencesGenerated var setting: String {\n" +
		"        get {\n" +
		"            access(keyPath: \\.setting)\n" +
		"            return _setting\n" +
		"        }\n" +
		"        set {\n" +
		"            withMutation(keyPath: \\.setting) {\n" +
		"                _setting = newValue\n" +
		"            }\n" +
		"        }\n" +
		"    }"
	if got := ast.Print(res.Replacements[0]); got != want {
		t.Fatalf("replacement:\n%s\nwant:\n%s", got, want)
	}
}

func TestPropertyMemoryIgnoresKey(t *testing.T) {
	res := expand.ExpandProperty(member(t, `@Stored(key: "ignored", in: .memory) var x: Int = 1`), cfg)
	text := ast.Print(res.Replacements[0])
	if strings.Contains(text, "_defaults") || strings.Contains(text, "ignored") || strings.Contains(text, "CredentialStore") {
		t.Fatalf("memory accessors reference a backend:\n%s", text)
	}
}

func TestPropertyDefaults(t *testing.T) {
	res := expand.ExpandProperty(member(t, `@Stored(key: "k", in: .defaults) var n = 1`), cfg)
	if len(res.Diagnostics) != 0 {
		t.Fatalf("diagnostics: %+v", res.Diagnostics)
	}
	text := ast.PrintTrimmed(res.Replacements[0])
	for _, want := range []string{
		"@PreferencesGenerated var n: Int {",
		`return _defaults.object(forKey: "k") as? Int ?? _n`,
		`_defaults.set(newValue, forKey: "k")`,
		`withMutation(keyPath: \.n) {`,
	} {
		if !strings.Contains(text, want) {
			t.Errorf("replacement lacks %q:\n%s", want, text)
		}
	}
	if got := ast.PrintTrimmed(res.Declarations[0]); got != "@PreferencesGenerated private var _n = 1" {
		t.Fatalf("peer = %q", got)
	}
}

func TestPropertyCredentialIsDefault(t *testing.T) {
	res := expand.ExpandProperty(member(t, `@Stored var token = ""`), cfg)
	text := ast.PrintTrimmed(res.Replacements[0])
	for _, want := range []string{
		`return CredentialStore.read(key: "token", as: String.self) ?? _token`,
		`CredentialStore.write(newValue, key: "token")`,
	} {
		if !strings.Contains(text, want) {
			t.Errorf("replacement lacks %q:\n%s", want, text)
		}
	}
}

func TestPropertyUnknownBackend(t *testing.T) {
	res := expand.ExpandProperty(member(t, `@Stored(in: .cloud) var x = 1`), cfg)
	expectCodes(t, res.Diagnostics, diag.ExpUnknownStorageBackend)
	d := res.Diagnostics[0]
	if d.Severity != diag.SevWarning || ast.PrintTrimmed(d.Anchor) != ".cloud" {
		t.Fatalf("diagnostic = %+v", d)
	}
	if !strings.Contains(ast.Print(res.Replacements[0]), "CredentialStore.read") {
		t.Fatalf("fallback backend not applied")
	}
}

func TestPropertyMissingTypeAnnotation(t *testing.T) {
	res := expand.ExpandProperty(member(t, `@Stored(in: .defaults) var x = make()`), cfg)
	expectCodes(t, res.Diagnostics, diag.ExpMissingTypeAnnotation)
	text := ast.Print(res.Replacements[0])
	if !strings.Contains(text, `return _defaults.object(forKey: "x") ?? _x`) || strings.Contains(text, "as?") {
		t.Fatalf("untyped read:\n%s", text)
	}
	if res.HasErrors() {
		t.Fatalf("warnings only expected")
	}
}

func TestPropertyDiagnosticOrder(t *testing.T) {
	res := expand.ExpandProperty(member(t, `@Stored(in: .cloud) var a = f(), b = g()`), cfg)
	expectCodes(t, res.Diagnostics,
		diag.ExpUnknownStorageBackend, diag.ExpMissingTypeAnnotation, diag.ExpMissingTypeAnnotation)
}

func TestPropertyMultipleBindings(t *testing.T) {
	body := "/// doc\n    " + `@Stored(key: "shared", in: .defaults) public var a = 1, b = "s"`
	res := expand.ExpandProperty(member(t, body), cfg)
	if got := ast.PrintTrimmed(res.Declarations[0]); got != `@PreferencesGenerated private var _a = 1, _b = "s"` {
		t.Fatalf("peer = %q", got)
	}
	if len(res.Replacements) != 2 {
		t.Fatalf("replacements = %d", len(res.Replacements))
	}
	tests := []struct {
		head, key string
	}{
		{"@PreferencesGenerated public var a: Int {", `forKey: "a"`},
		{"@PreferencesGenerated public var b: String {", `forKey: "b"`},
	}
	for i, tt := range tests {
		d := res.Replacements[i]
		vd := d.(*ast.VarDecl)
		if len(vd.Bindings) != 1 || vd.Bindings[0].Accessor == nil || ast.Present(vd.Bindings[0].Comma) {
			t.Fatalf("replacement %d: bindings = %+v", i, vd.Bindings)
		}
		text := ast.PrintTrimmed(d)
		if !strings.HasPrefix(text, tt.head) || !strings.Contains(text, tt.key) || strings.Contains(text, "shared") {
			t.Fatalf("replacement %d:\n%s", i, text)
		}
		mustReparse(t, d)
	}
	if !strings.Contains(ast.Print(res.Replacements[0]), "/// doc") || strings.Contains(ast.Print(res.Replacements[1]), "/// doc") {
		t.Fatal("leading comment must stay with the first declaration only")
	}
	if !strings.HasPrefix(ast.Print(res.Replacements[1]), "\n    @PreferencesGenerated") {
		t.Fatalf("second declaration not on its own line: %q", ast.Print(res.Replacements[1]))
	}
}

func TestPropertyKeepsOtherAttributesAndModifiers(t *testing.T) {
	res := expand.ExpandProperty(member(t, `@objc @Stored(in: .memory) public lazy var x = 1`), cfg)
	if got := ast.PrintTrimmed(res.Declarations[0]); got != "@PreferencesGenerated private lazy var _x = 1" {
		t.Fatalf("peer = %q", got)
	}
	if got := ast.PrintTrimmed(res.Replacements[0]); !strings.HasPrefix(got, "@objc @PreferencesGenerated public var x: Int {") {
		t.Fatalf("replacement = %q", got)
	}
}

func TestPropertyQuotedIdentifier(t *testing.T) {
	res := expand.ExpandProperty(member(t, "@Stored(in: .memory) var `default` = true"), cfg)
	if got := ast.PrintTrimmed(res.Declarations[0]); got != "@PreferencesGenerated private var _default = true" {
		t.Fatalf("peer = %q", got)
	}
	if !strings.Contains(ast.Print(res.Replacements[0]), "access(keyPath: \\.`default`)") {
		t.Fatalf("key path:\n%s", ast.Print(res.Replacements[0]))
	}
}

func TestPropertyOutputIsWellFormedAndIdempotent(t *testing.T) {
	bodies := []string{
		`@Stored(in: .memory) var a: [String: Int] = [:]`,
		`@Stored(in: .defaults) var b = 2.5`,
		`@Stored var c = false, d = "x"`,
		`@Stored(key: "q\"uote") var e = 1`,
	}
	for _, body := range bodies {
		res := expand.ExpandProperty(member(t, body), cfg)
		if res.HasErrors() || len(res.Replacements) == 0 {
			t.Fatalf("%s: %+v", body, res.Diagnostics)
		}
		generated := append(slices.Clone(res.Replacements), res.Declarations...)
		for _, d := range generated {
			re := mustReparse(t, d)
			again := expand.ExpandProperty(re, cfg)
			if len(again.Diagnostics) != 0 || len(again.Declarations) != 0 || len(again.Replacements) != 0 {
				t.Errorf("%s: re-expansion of %q is not a no-op", body, ast.PrintTrimmed(d))
			}
			again = expand.ExpandProperty(d, cfg)
			if len(again.Replacements) != 0 {
				t.Errorf("%s: generated tree re-expands", body)
			}
		}
	}
}
