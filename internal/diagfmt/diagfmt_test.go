package diagfmt

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"prefmacro/internal/diag"
	"prefmacro/internal/lexer"
	"prefmacro/internal/parser"
	"prefmacro/internal/source"
)

const structSrc = "@Preferences\nstruct Prefs {\n}\n"

// structBag returns the NotAttachedToClass diagnostic on `struct` with a keyword fix.
func structBag(t *testing.T) (*source.FileSet, *diag.Bag) {
	t.Helper()
	fs := source.NewFileSet()
	id := fs.AddVirtual("Prefs.swift", []byte(structSrc))
	span := source.Span{File: id, Start: 13, End: 19}
	d := diag.NewError(diag.ExpNotAttachedToClass, span, "@Preferences can only be attached to a class").
		WithNote(source.Span{File: id, Start: 0, End: 12}, "annotation is here").
		WithFixSuggestion(diag.Fix{
			ID:          "EXP3001@Prefs.swift:13",
			Title:       "Change 'struct' to 'class'",
			IsPreferred: true,
			Edits:       []diag.TextEdit{{Span: span, NewText: "class", OldText: "struct"}},
		})
	bag := diag.NewBag(10)
	bag.Add(d)
	return fs, bag
}

func TestPrettyPlain(t *testing.T) {
	fs, bag := structBag(t)
	var buf bytes.Buffer
	Pretty(&buf, bag, fs, PrettyOpts{PathMode: PathModeBasename, ShowNotes: true, ShowFixes: true, ShowPreview: true})

	want := strings.Join([]string{
		"error[EXP3001]: @Preferences can only be attached to a class",
		" --> Prefs.swift:2:1",
		"  |",
		"2 | struct Prefs {",
		"  | ^^^^^^",
		"  = note: annotation is here (Prefs.swift:1:1)",
		"  = fix: Change 'struct' to 'class' [quickfix, always-safe, preferred] id=EXP3001@Prefs.swift:13",
		"    - 2 | struct Prefs {",
		"    + 2 | class Prefs {",
		"",
	}, "\n")
	if got := buf.String(); got != want {
		t.Fatalf("pretty output mismatch\n got:\n%s\nwant:\n%s", got, want)
	}
}

func TestPrettyHidesNotesAndFixesByDefault(t *testing.T) {
	fs, bag := structBag(t)
	var buf bytes.Buffer
	Pretty(&buf, bag, fs, PrettyOpts{PathMode: PathModeBasename})
	out := buf.String()
	if strings.Contains(out, "note:") || strings.Contains(out, "fix:") {
		t.Fatalf("unexpected notes or fixes:\n%s", out)
	}
}

func TestPrettyCaretUsesDisplayWidth(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("Wide.swift", []byte("var 名前 = 1\n"))
	bag := diag.NewBag(4)
	bag.Add(diag.NewWarning(diag.ExpMissingTypeAnnotation, source.Span{File: id, Start: 11, End: 12}, "w"))

	var buf bytes.Buffer
	Pretty(&buf, bag, fs, PrettyOpts{PathMode: PathModeBasename})
	lines := strings.Split(buf.String(), "\n")
	if len(lines) < 5 {
		t.Fatalf("short output:\n%s", buf.String())
	}
	if want := "  | " + strings.Repeat(" ", 9) + "^"; lines[4] != want {
		t.Fatalf("caret line = %q, want %q", lines[4], want)
	}
	if !strings.HasPrefix(lines[0], "warning[EXP3101]:") {
		t.Fatalf("header = %q", lines[0])
	}
}

func TestPrettyContextLines(t *testing.T) {
	fs, bag := structBag(t)
	var buf bytes.Buffer
	Pretty(&buf, bag, fs, PrettyOpts{PathMode: PathModeBasename, Context: 1})
	out := buf.String()
	for _, want := range []string{"1 | @Preferences", "2 | struct Prefs {", "3 | }"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
}

func TestPrettyColor(t *testing.T) {
	fs, bag := structBag(t)
	var buf bytes.Buffer
	Pretty(&buf, bag, fs, PrettyOpts{Color: true, PathMode: PathModeBasename})
	if !strings.Contains(buf.String(), "\x1b[") {
		t.Fatalf("expected ANSI escapes:\n%q", buf.String())
	}
}

func TestSummary(t *testing.T) {
	_, bag := structBag(t)
	bag.Add(diag.NewWarning(diag.ExpMissingTypeAnnotation, source.Span{File: 1, Start: 0, End: 1}, "w"))
	bag.Add(diag.NewWarning(diag.ExpMissingTypeAnnotation, source.Span{File: 1, Start: 1, End: 2}, "w"))
	var buf bytes.Buffer
	Summary(&buf, bag, false)
	if got := buf.String(); got != "1 error, 2 warnings emitted\n" {
		t.Fatalf("summary = %q", got)
	}
}

func TestShort(t *testing.T) {
	fs, bag := structBag(t)
	var buf bytes.Buffer
	if err := Short(&buf, bag, fs, PathModeBasename, true); err != nil {
		t.Fatal(err)
	}
	want := "note EXP3001 Prefs.swift:1:1 annotation is here\n" +
		"error EXP3001 Prefs.swift:2:1 @Preferences can only be attached to a class\n"
	if got := buf.String(); got != want {
		t.Fatalf("short =\n%s\nwant\n%s", got, want)
	}
}

func TestJSON(t *testing.T) {
	fs, bag := structBag(t)
	var buf bytes.Buffer
	err := JSON(&buf, bag, fs, JSONOpts{
		IncludePositions: true,
		PathMode:         PathModeBasename,
		IncludeNotes:     true,
		IncludeFixes:     true,
		IncludePreviews:  true,
	})
	if err != nil {
		t.Fatal(err)
	}
	var out DiagnosticsOutput
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, buf.String())
	}
	if out.Count != 1 || out.Errors != 1 || out.Warnings != 0 || out.Truncated {
		t.Fatalf("counters = %+v", out)
	}
	d := out.Diagnostics[0]
	if d.Code != "EXP3001" || d.Severity != "ERROR" {
		t.Fatalf("diagnostic = %+v", d)
	}
	if d.Location.File != "Prefs.swift" || d.Location.StartLine != 2 || d.Location.StartCol != 1 || d.Location.StartByte != 13 {
		t.Fatalf("location = %+v", d.Location)
	}
	if len(d.Notes) != 1 || d.Notes[0].Message != "annotation is here" {
		t.Fatalf("notes = %+v", d.Notes)
	}
	if len(d.Fixes) != 1 || len(d.Fixes[0].Edits) != 1 {
		t.Fatalf("fixes = %+v", d.Fixes)
	}
	e := d.Fixes[0].Edits[0]
	if e.NewText != "class" || e.OldText != "struct" {
		t.Fatalf("edit = %+v", e)
	}
	if len(e.BeforeLines) != 1 || e.BeforeLines[0] != "struct Prefs {" || e.AfterLines[0] != "class Prefs {" {
		t.Fatalf("preview = %q -> %q", e.BeforeLines, e.AfterLines)
	}
}

func TestJSONFixBuildErrorAndMax(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("A.swift", []byte("let a = 1\nlet b = 2\n"))
	bag := diag.NewBag(10)
	failing := diag.Fix{
		Title: "broken",
		Thunk: diag.FixThunkFunc(func(diag.FixBuildContext) (diag.Fix, error) {
			return diag.Fix{}, errors.New("boom")
		}),
	}
	bag.Add(diag.NewError(diag.ExpNotMutable, source.Span{File: id, Start: 0, End: 3}, "a").WithFixSuggestion(failing))
	bag.Add(diag.NewError(diag.ExpNotMutable, source.Span{File: id, Start: 10, End: 13}, "b"))

	out, err := BuildDiagnosticsOutput(bag, fs, JSONOpts{IncludeFixes: true, Max: 1})
	if err != nil {
		t.Fatal(err)
	}
	if out.Count != 1 || !out.Truncated || out.Errors != 2 {
		t.Fatalf("output = %+v", out)
	}
	f := out.Diagnostics[0].Fixes[0]
	if f.Title != "broken" || !strings.Contains(f.BuildError, "boom") || len(f.Edits) != 0 {
		t.Fatalf("fix = %+v", f)
	}
}

func TestSarif(t *testing.T) {
	fs, bag := structBag(t)
	var buf bytes.Buffer
	err := Sarif(&buf, bag, fs, SarifRunMeta{ToolName: "prefmacro", ToolVersion: "1.2.3", PathMode: PathModeBasename})
	if err != nil {
		t.Fatal(err)
	}
	var log sarifLog
	if err := json.Unmarshal(buf.Bytes(), &log); err != nil {
		t.Fatalf("invalid SARIF: %v", err)
	}
	if log.Version != "2.1.0" || len(log.Runs) != 1 {
		t.Fatalf("log = %+v", log)
	}
	run := log.Runs[0]
	if run.Tool.Driver.Name != "prefmacro" || run.Tool.Driver.Version != "1.2.3" {
		t.Fatalf("driver = %+v", run.Tool.Driver)
	}
	if len(run.Tool.Driver.Rules) != len(diag.KnownCodes())-1 {
		t.Fatalf("rules = %d", len(run.Tool.Driver.Rules))
	}
	if run.Invocations[0].ExecutionSuccessful {
		t.Fatal("run with errors must not be successful")
	}
	r := run.Results[0]
	if r.RuleID != "EXP3001" || r.Level != "error" {
		t.Fatalf("result = %+v", r)
	}
	if rule := run.Tool.Driver.Rules[r.RuleIndex]; rule.ID != "EXP3001" {
		t.Fatalf("ruleIndex points to %s", rule.ID)
	}
	region := r.Locations[0].PhysicalLocation.Region
	if region.StartLine != 2 || region.StartColumn != 1 || region.CharOffset != 13 || region.CharLength != 6 {
		t.Fatalf("region = %+v", region)
	}
	if len(r.RelatedLocations) != 1 || r.RelatedLocations[0].Message.Text != "annotation is here" {
		t.Fatalf("related = %+v", r.RelatedLocations)
	}
	rep := r.Fixes[0].ArtifactChanges[0].Replacements[0]
	if rep.InsertedContent == nil || rep.InsertedContent.Text != "class" || rep.DeletedRegion.CharOffset != 13 {
		t.Fatalf("replacement = %+v", rep)
	}
}

func TestSarifEmptyBag(t *testing.T) {
	var buf bytes.Buffer
	if err := Sarif(&buf, diag.NewBag(1), nil, SarifRunMeta{ToolName: "prefmacro"}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), `"results": []`) {
		t.Fatalf("expected empty results array:\n%s", buf.String())
	}
}

func TestPreviewMultiLine(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("M.swift", []byte("a\nbc\nd\n"))
	pv, err := buildFixEditPreview(fs, diag.TextEdit{Span: source.Span{File: id, Start: 3, End: 6}, NewText: "X"})
	if err != nil {
		t.Fatal(err)
	}
	if pv.startLine != 2 || strings.Join(pv.before, "|") != "bc|d" || strings.Join(pv.after, "|") != "bX" {
		t.Fatalf("preview = %+v", pv)
	}
	if _, err := buildFixEditPreview(fs, diag.TextEdit{Span: source.Span{File: id, Start: 5, End: 99}}); err == nil {
		t.Fatal("expected out of range error")
	}
}

func TestParsePathMode(t *testing.T) {
	tests := []struct {
		in   string
		want PathMode
		err  bool
	}{
		{"", PathModeAuto, false},
		{"relative", PathModeRelative, false},
		{"abs", PathModeAbsolute, false},
		{"basename", PathModeBasename, false},
		{"nope", PathModeAuto, true},
	}
	for _, tt := range tests {
		got, err := ParsePathMode(tt.in)
		if (err != nil) != tt.err || got != tt.want {
			t.Errorf("ParsePathMode(%q) = %v, %v", tt.in, got, err)
		}
	}
}

func TestTreePretty(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("Prefs.swift", []byte("@Preferences\nclass Prefs {\n    var volume: Int = 5\n    func reset() {}\n}\n"))
	res := parser.ParseFile(fs.Get(id), parser.Options{})
	if res.Errors != 0 {
		t.Fatalf("parse errors: %d", res.Errors)
	}
	var buf bytes.Buffer
	if err := FormatTreePretty(&buf, BuildTree(res.File, fs, "Prefs.swift")); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{
		"File: Prefs.swift\n",
		"└─ TypeDecl: class Prefs (span: 1:1-5:2)\n",
		"   ├─ Attribute: @Preferences\n",
		"   ├─ VarDecl: var",
		"   │  └─ Binding: volume {init=5, type=Int}",
		"   └─ FuncDecl: func reset() {body=0 tokens}",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
}

func TestTreeJSON(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("T.swift", []byte("var x = 1\n"))
	res := parser.ParseFile(fs.Get(id), parser.Options{})
	var buf bytes.Buffer
	if err := FormatTreeJSON(&buf, BuildTree(res.File, fs, "T.swift")); err != nil {
		t.Fatal(err)
	}
	var root TreeNode
	if err := json.Unmarshal(buf.Bytes(), &root); err != nil {
		t.Fatal(err)
	}
	if len(root.Children) != 1 || root.Children[0].Type != "VarDecl" || root.Children[0].Children[0].Fields["init"] != "1" {
		t.Fatalf("tree = %+v", root)
	}
}

func TestTokens(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("T.swift", []byte("var x\n"))
	toks := lexer.New(fs.Get(id), lexer.Options{}).All()

	var pretty bytes.Buffer
	if err := FormatTokensPretty(&pretty, toks, fs); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(pretty.String(), `KwVar           "var" at 1:1-1:4`) {
		t.Fatalf("pretty tokens:\n%s", pretty.String())
	}
	if !strings.Contains(pretty.String(), "(leading: Space)") {
		t.Fatalf("missing trivia:\n%s", pretty.String())
	}

	var js bytes.Buffer
	if err := FormatTokensJSON(&js, toks); err != nil {
		t.Fatal(err)
	}
	var out []TokenOutput
	if err := json.Unmarshal(js.Bytes(), &out); err != nil {
		t.Fatal(err)
	}
	if out[0].Kind != "KwVar" || out[len(out)-1].Kind != "EOF" {
		t.Fatalf("tokens = %+v", out)
	}
}

func TestJSONPerFileCounts(t *testing.T) {
	fs := source.NewFileSet()
	a := fs.AddVirtual("A.swift", []byte("let a = 1\n"))
	b := fs.AddVirtual("B.swift", []byte("let b = 2\n"))
	bag := diag.NewBag(10)
	bag.Add(diag.NewError(diag.ExpNotMutable, source.Span{File: b, Start: 0, End: 3}, "b"))
	bag.Add(diag.NewError(diag.ExpNotMutable, source.Span{File: a, Start: 0, End: 3}, "a"))
	bag.Add(diag.NewWarning(diag.ExpMissingTypeAnnotation, source.Span{File: a, Start: 4, End: 5}, "w"))

	out, err := BuildDiagnosticsOutput(bag, fs, JSONOpts{PathMode: PathModeBasename})
	if err != nil {
		t.Fatal(err)
	}
	want := []FileCountJSON{
		{File: "A.swift", Errors: 1, Warnings: 1},
		{File: "B.swift", Errors: 1},
	}
	if len(out.Files) != len(want) {
		t.Fatalf("files = %+v", out.Files)
	}
	for i := range want {
		if out.Files[i] != want[i] {
			t.Errorf("files[%d] = %+v, want %+v", i, out.Files[i], want[i])
		}
	}
	if out.Diagnostics[0].Rule != diag.ExpNotMutable.Title() {
		t.Errorf("rule = %q", out.Diagnostics[0].Rule)
	}
}
