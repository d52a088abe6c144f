package driver

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"prefmacro/internal/ast"
	"prefmacro/internal/config"
	"prefmacro/internal/diag"
	"prefmacro/internal/expand"
	"prefmacro/internal/fix"
	"prefmacro/internal/source"
)

func expandText(t *testing.T, src string, opts Options) (*source.FileSet, FileResult) {
	t.Helper()
	return ExpandSource(context.Background(), "Prefs.swift", []byte(src), opts)
}

func codes(bag *diag.Bag) []string {
	var out []string
	for _, d := range bag.Items() {
		out = append(out, d.Code.ID())
	}
	return out
}

func conformanceText(t *testing.T, name string) string {
	t.Helper()
	res := expand.SynthesizeConformance(name, expand.DefaultConfig())
	if len(res.Declarations) != 1 {
		t.Fatalf("conformance declarations = %d", len(res.Declarations))
	}
	return ast.Print(res.Declarations[0])
}

func TestExpandMaterializesClass(t *testing.T) {
	src := "@Preferences\nclass Prefs {\n    var volume = 5\n}\n"
	_, res := expandText(t, src, Options{})
	if res.Bag.Len() != 0 {
		t.Fatalf("diagnostics: %v", codes(res.Bag))
	}
	want := "@Preferences\nclass Prefs {\n" +
		"    @PreferencesGenerated\n" +
		"    var volume: Int {\n" +
		"        get {\n" +
		"            access(keyPath: \\.volume)\n" +
		"            return _volume\n" +
		"        }\n" +
		"        set {\n" +
		"            withMutation(keyPath: \\.volume) {\n" +
		"                _volume = newValue\n" +
		"            }\n" +
		"        }\n" +
		"    }\n" +
		"    @PreferencesGenerated private var _volume = 5\n" +
		"    @PreferencesGenerated private let _$observationRegistrar = Observation.ObservationRegistrar()\n" +
		"    @PreferencesGenerated private let _defaults: UserDefaults = UserDefaults.standard\n" +
		"}\n\n" + conformanceText(t, "Prefs") + "\n"
	if !res.Changed {
		t.Fatal("expected a change")
	}
	if got := string(res.Output); got != want {
		t.Fatalf("output:\n%s\nwant:\n%s", got, want)
	}
}

func TestExpandIsIdempotent(t *testing.T) {
	src := `import Foundation

@Preferences(named: "group.app")
final class Settings {
    var volume = 5
    @Stored(key: "user.name", in: .defaults) var name: String = "anon"
    @Stored var token = ""
    let id = 1
    func reset() {}
}
`
	_, first := expandText(t, src, Options{})
	if first.Bag.HasErrors() || !first.Changed {
		t.Fatalf("first pass: changed=%t diags=%v", first.Changed, codes(first.Bag))
	}
	out := string(first.Output)
	for _, want := range []string{
		`UserDefaults(suiteName: "group.app")!`,
		`_defaults.object(forKey: "user.name") as? String ?? _name`,
		`CredentialStore.read(key: "token", as: String.self) ?? _token`,
		"    let id = 1\n",
		"extension Settings: Observation.Observable {",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output lacks %q", want)
		}
	}

	_, second := expandText(t, out, Options{})
	if second.Changed || second.Bag.Len() != 0 {
		t.Fatalf("second pass: changed=%t diags=%v\n%s", second.Changed, codes(second.Bag), second.Output)
	}
}

func TestExpandRejectsStruct(t *testing.T) {
	src := "@Preferences\nstruct S {\n    var x = 1\n}\n"
	fs, res := expandText(t, src, Options{})
	if got := codes(res.Bag); len(got) != 1 || got[0] != "EXP3001" {
		t.Fatalf("codes = %v", got)
	}
	if res.Changed || string(res.Output) != src {
		t.Fatalf("rejected type was materialized:\n%s", res.Output)
	}
	d := res.Bag.Items()[0]
	if got := fs.Slice(d.Primary); got != "struct" {
		t.Fatalf("primary = %q", got)
	}
	if len(d.Fixes) != 1 || !strings.HasPrefix(d.Fixes[0].ID, "EXP3001@Prefs.swift:") {
		t.Fatalf("fixes = %+v", d.Fixes)
	}
	fix, err := d.Fixes[0].Resolve(diag.FixBuildContext{FileSet: fs})
	if err != nil {
		t.Fatal(err)
	}
	if e := fix.Edits[0]; e.NewText != "class" || e.OldText != "struct" {
		t.Fatalf("edit = %+v", e)
	}
}

func TestExpandNestedTypeHoistsExtension(t *testing.T) {
	src := "enum Outer {\n    @Preferences\n    class Inner {\n        var on = true\n    }\n}\n"
	_, res := expandText(t, src, Options{})
	if res.Bag.Len() != 0 {
		t.Fatalf("diagnostics: %v", codes(res.Bag))
	}
	out := string(res.Output)
	if !strings.Contains(out, "\n}\n\n@PreferencesGenerated\nextension Outer.Inner: Observation.Observable {") {
		t.Fatalf("extension not hoisted to file scope:\n%s", out)
	}
	if !strings.Contains(out, "        @PreferencesGenerated private var _on = true\n") {
		t.Fatalf("backing field not at member indentation:\n%s", out)
	}
}

func TestExpandNestedInQualifiedExtension(t *testing.T) {
	tests := []struct {
		name, header, want string
	}{
		{"dotted", "extension Foo.Bar {", "extension Foo.Bar.Inner: Observation.Observable {"},
		{"conformance", "extension Foo.Bar: Codable {", "extension Foo.Bar.Inner: Observation.Observable {"},
		{"where clause", "extension Box where T == Int {", "extension Box.Inner: Observation.Observable {"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := tt.header + "\n    @Preferences\n    class Inner {\n        var on = true\n    }\n}\n"
			_, res := expandText(t, src, Options{})
			if res.Bag.Len() != 0 {
				t.Fatalf("diagnostics: %v", codes(res.Bag))
			}
			if !strings.Contains(string(res.Output), tt.want) {
				t.Fatalf("output lacks %q:\n%s", tt.want, res.Output)
			}
		})
	}
}

func TestExpandOneLineBody(t *testing.T) {
	tests := []struct {
		name, src string
		want      []string
	}{
		{
			name: "annotated type",
			src:  "@Preferences\nclass P { var a = 1 }\n",
			want: []string{
				"class P {\n    @PreferencesGenerated var a: Int {\n        get {\n",
				"\n    }\n    @PreferencesGenerated private var _a = 1\n",
				"UserDefaults.standard\n}\n",
			},
		},
		{
			name: "plain container",
			src:  "class Q { @Stored(in: .memory) var b = 2 }\n",
			want: []string{
				"class Q {\n    @PreferencesGenerated var b: Int {\n",
				"\n    @PreferencesGenerated private var _b = 2\n}\n",
			},
		},
		{
			name: "indented type",
			src:  "enum E {\n    class Q { @Stored(in: .memory) var b = 2 }\n}\n",
			want: []string{
				"    class Q {\n        @PreferencesGenerated var b: Int {\n            get {\n",
				"\n        @PreferencesGenerated private var _b = 2\n    }\n}\n",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, res := expandText(t, tt.src, Options{})
			if res.Bag.Len() != 0 {
				t.Fatalf("diagnostics: %v", codes(res.Bag))
			}
			out := string(res.Output)
			for _, want := range tt.want {
				if !strings.Contains(out, want) {
					t.Errorf("output lacks %q:\n%s", want, out)
				}
			}
			for _, line := range strings.Split(out, "\n") {
				if n := len(line) - len(strings.TrimLeft(line, " ")); n%4 != 0 {
					t.Errorf("line indented by %d: %q", n, line)
				}
			}
			_, again := expandText(t, out, Options{})
			if again.Changed || again.Bag.Len() != 0 {
				t.Fatalf("second pass: changed=%t diags=%v", again.Changed, codes(again.Bag))
			}
		})
	}
}

func TestExpandMultipleBindings(t *testing.T) {
	src := "@Preferences\nclass P {\n    var a = 1, b = \"s\"\n}\n"
	_, res := expandText(t, src, Options{})
	if res.Bag.Len() != 0 {
		t.Fatalf("diagnostics: %v", codes(res.Bag))
	}
	out := string(res.Output)
	for _, want := range []string{
		"    @PreferencesGenerated\n    var a: Int {\n",
		"    }\n    @PreferencesGenerated\n    var b: String {\n",
		"    @PreferencesGenerated private var _a = 1, _b = \"s\"\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output lacks %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "}, b") {
		t.Fatalf("computed properties share a declaration:\n%s", out)
	}
	_, again := expandText(t, out, Options{})
	if again.Changed || again.Bag.Len() != 0 {
		t.Fatalf("second pass: changed=%t diags=%v", again.Changed, codes(again.Bag))
	}
}

func TestExpandReportsAndContinues(t *testing.T) {
	src := "@Preferences\nclass P {\n    @Stored let x = 1\n    var y = 2\n}\n"
	fs, res := expandText(t, src, Options{})
	if got := codes(res.Bag); len(got) != 1 || got[0] != "EXP3003" {
		t.Fatalf("codes = %v", got)
	}
	d := res.Bag.Items()[0]
	fix, err := d.Fixes[0].Resolve(diag.FixBuildContext{FileSet: fs})
	if err != nil {
		t.Fatal(err)
	}
	if fix.Applicability != diag.FixApplicabilityAlwaysSafe || fix.Edits[0].NewText != "var" || fix.Edits[0].OldText != "let" {
		t.Fatalf("fix = %+v", fix)
	}
	out := string(res.Output)
	if !strings.Contains(out, "@Stored let x = 1") || !strings.Contains(out, "private var _y = 2") {
		t.Fatalf("sibling not expanded or rejected member changed:\n%s", out)
	}
}

func TestExpandSkipsMaterializeOnSyntaxError(t *testing.T) {
	src := "@Preferences\nclass P {\n    var x = 1\n"
	_, res := expandText(t, src, Options{})
	if !res.Bag.HasErrors() {
		t.Fatal("expected a syntax error")
	}
	if res.Changed || string(res.Output) != src {
		t.Fatal("broken input must not be materialized")
	}
}

func TestExpandWarningPolicy(t *testing.T) {
	src := "class P {\n    @Stored(in: .cloud) var x = 1\n}\n"
	_, res := expandText(t, src, Options{})
	if res.Bag.Count(diag.SevWarning) != 1 || res.Bag.HasErrors() {
		t.Fatalf("codes = %v", codes(res.Bag))
	}
	_, strict := expandText(t, src, Options{WarningsAsErrors: true})
	if !strict.Bag.HasErrors() {
		t.Fatal("warning not promoted")
	}
	_, quiet := expandText(t, src, Options{IgnoreWarnings: true})
	if quiet.Bag.Len() != 0 {
		t.Fatalf("warnings not dropped: %v", codes(quiet.Bag))
	}
}

func TestExpandCustomConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Expand.TypeAttribute = "Settings"
	cfg.Expand.Marker = "Generated"
	src := "@Settings\nclass P {\n    var x = 1\n}\n"
	_, res := expandText(t, src, Options{Config: &cfg})
	if !res.Changed || !strings.Contains(string(res.Output), "@Generated private var _x = 1") {
		t.Fatalf("custom names not applied:\n%s", res.Output)
	}
}

func writeFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestExpandDirectory(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"A.swift":        "@Preferences\nclass A {\n    var a = 1\n}\n",
		"sub/B.swift":    "struct B {}\n",
		"sub/C.swift":    "@Preferences\nenum C {}\n",
		".build/D.swift": "@Preferences\nclass D {}\n",
		"README.md":      "# not swift\n",
	})

	var mu sync.Mutex
	done := map[string]bool{}
	opts := Options{Jobs: 2, Observer: func(ev Event) {
		if ev.Stage == StageDone {
			mu.Lock()
			done[ev.Path] = true
			mu.Unlock()
		}
	}}
	res, err := Expand(context.Background(), []string{dir}, opts)
	if err != nil {
		t.Fatal(err)
	}
	var paths []string
	for _, f := range res.Files {
		paths = append(paths, f.Path)
	}
	if strings.Join(paths, ",") != "A.swift,sub/B.swift,sub/C.swift" {
		t.Fatalf("paths = %v", paths)
	}
	if len(done) != 3 {
		t.Fatalf("observer saw %v", done)
	}
	if !res.HasErrors() || len(res.Changed()) != 1 {
		t.Fatalf("errors=%t changed=%d", res.HasErrors(), len(res.Changed()))
	}

	written, err := WriteChanged(res)
	if err != nil || len(written) != 1 {
		t.Fatalf("written = %v, %v", written, err)
	}
	again, err := Expand(context.Background(), []string{dir}, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if len(again.Changed()) != 0 {
		t.Fatal("written output expands again")
	}
}

func TestFixIDsDistinguishSameNamedFiles(t *testing.T) {
	dir := t.TempDir()
	src := "@Preferences\nclass P {\n    @Stored let x = 1\n}\n"
	writeFiles(t, dir, map[string]string{"a/Prefs.swift": src, "b/Prefs.swift": src})

	res, err := Expand(context.Background(), []string{dir}, Options{})
	if err != nil {
		t.Fatal(err)
	}
	ids := map[string]bool{}
	for _, d := range res.Diagnostics() {
		for _, f := range d.Fixes {
			ids[f.ID] = true
		}
	}
	for _, want := range []string{"EXP3003@a/Prefs.swift:", "EXP3003@b/Prefs.swift:"} {
		found := false
		for id := range ids {
			found = found || strings.HasPrefix(id, want)
		}
		if !found {
			t.Errorf("no fix id with prefix %q in %v", want, ids)
		}
	}

	applied, err := fix.Apply(res.FileSet, res.Diagnostics(), fix.ApplyOptions{Mode: fix.ApplyModeAll, DryRun: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(applied.Applied) != 2 || len(applied.FileChanges) != 2 {
		t.Fatalf("applied=%+v skipped=%+v", applied.Applied, applied.Skipped)
	}
}

func TestExpandCancelled(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"A.swift": "class A {}\n"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Expand(ctx, []string{dir}, Options{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v", err)
	}
}

func TestExpandCache(t *testing.T) {
	dir := t.TempDir()
	src := "@Preferences\nstruct S {}\n\n@Preferences\nclass P {\n    var x = 1\n}\n"
	writeFiles(t, dir, map[string]string{"P.swift": src})
	cache, err := NewDiskCache(filepath.Join(dir, "cache"))
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, "P.swift")

	first, err := Expand(context.Background(), []string{path}, Options{Cache: cache})
	if err != nil {
		t.Fatal(err)
	}
	second, err := Expand(context.Background(), []string{path}, Options{Cache: cache})
	if err != nil {
		t.Fatal(err)
	}
	a, b := first.Files[0], second.Files[0]
	if a.Cached || !b.Cached {
		t.Fatalf("cached: first=%t second=%t", a.Cached, b.Cached)
	}
	if string(a.Output) != string(b.Output) || !b.Changed {
		t.Fatal("cached output differs")
	}
	if strings.Join(codes(a.Bag), ",") != strings.Join(codes(b.Bag), ",") {
		t.Fatalf("codes %v vs %v", codes(a.Bag), codes(b.Bag))
	}
	fa, fb := a.Bag.Items()[0].Fixes[0], b.Bag.Items()[0].Fixes[0]
	if fa.ID != fb.ID || fb.Thunk != nil || len(fb.Edits) != 1 || fb.Edits[0].NewText != "class" {
		t.Fatalf("fix %+v vs %+v", fa, fb)
	}

	cfg := config.Default()
	cfg.Expand.Marker = "Other"
	third, err := Expand(context.Background(), []string{path}, Options{Cache: cache, Config: &cfg})
	if err != nil {
		t.Fatal(err)
	}
	if third.Files[0].Cached {
		t.Fatal("config change must miss the cache")
	}
}

func TestCollectFilesKeepsExplicitFiles(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"x.txt": "", "A.swift": ""})
	files, err := CollectFiles([]string{filepath.Join(dir, "x.txt"), dir, filepath.Join(dir, "A.swift")})
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 2 {
		t.Fatalf("files = %v", files)
	}
}
