package fix

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"prefmacro/internal/diag"
	"prefmacro/internal/source"
)

func loadTemp(t *testing.T, content string) (*source.FileSet, *source.File) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "Prefs.swift")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	fs := source.NewFileSet()
	id, err := fs.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	return fs, fs.Get(id)
}

func span(f *source.File, start, end uint32) source.Span {
	return source.Span{File: f.ID, Start: start, End: end}
}

func withFix(code diag.Code, sp source.Span, f diag.Fix) diag.Diagnostic {
	return diag.NewError(code, sp, "msg").WithFixSuggestion(f)
}

func TestGatherCandidatesSkipsDuplicateFixIDs(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("Prefs.swift", []byte("let x = 1"))
	sp := source.Span{File: id, Start: 0, End: 3}

	d := diag.NewError(diag.ExpNotMutable, sp, "immutable").
		WithFixSuggestion(ReplaceSpan("make mutable", sp, "var", "let", WithID("dup"))).
		WithFixSuggestion(ReplaceSpan("make mutable again", sp, "var", "let", WithID("dup")))

	cands, skips := gatherCandidates(diag.FixBuildContext{FileSet: fs}, []diag.Diagnostic{d})
	if len(cands) != 1 || len(skips) != 1 {
		t.Fatalf("candidates=%d skips=%d", len(cands), len(skips))
	}
	if skips[0].ID != "dup" || skips[0].Reason != "duplicate fix id" {
		t.Fatalf("skip = %+v", skips[0])
	}
}

func TestApplyAllWritesSafeFixes(t *testing.T) {
	src := "@Stored let x = 1\n@Stored var y: Int\n"
	fs, f := loadTemp(t, src)
	diags := []diag.Diagnostic{
		withFix(diag.ExpNotMutable, span(f, 8, 11), ReplaceSpan("Change 'let' to 'var'", span(f, 8, 11), "var", "let")),
		withFix(diag.ExpRequiresInitializer, span(f, 30, 36),
			ReplaceSpan("Add initial value", span(f, 30, 36), "y: Int = <#initializer#>", "y: Int",
				WithApplicability(diag.FixApplicabilitySafeWithHeuristics))),
	}
	res, err := Apply(fs, diags, ApplyOptions{Mode: ApplyModeAll})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Applied) != 1 || len(res.Skipped) != 1 {
		t.Fatalf("applied=%+v skipped=%+v", res.Applied, res.Skipped)
	}
	got, err := os.ReadFile(f.Path)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "@Stored var x = 1\n@Stored var y: Int\n" {
		t.Fatalf("file = %q", got)
	}
}

func TestApplyOnceFallsBackToFirstFix(t *testing.T) {
	fs, f := loadTemp(t, "@Stored var y: Int\n")
	d := withFix(diag.ExpRequiresInitializer, span(f, 12, 18),
		ReplaceSpan("Add initial value", span(f, 12, 18), "y: Int = <#initializer#>", "y: Int",
			WithApplicability(diag.FixApplicabilityManualReview)))
	res, err := Apply(fs, []diag.Diagnostic{d}, ApplyOptions{Mode: ApplyModeOnce, DryRun: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.FileChanges) != 1 || string(res.FileChanges[0].Content) != "@Stored var y: Int = <#initializer#>\n" {
		t.Fatalf("changes = %+v", res.FileChanges)
	}
	if disk, _ := os.ReadFile(f.Path); string(disk) != "@Stored var y: Int\n" {
		t.Fatal("dry run touched the file")
	}
}

func TestApplyByID(t *testing.T) {
	fs, f := loadTemp(t, "let a = 1\nlet b = 2\n")
	diags := []diag.Diagnostic{
		withFix(diag.ExpNotMutable, span(f, 0, 3), ReplaceSpan("a", span(f, 0, 3), "var", "let", WithID("first"))),
		withFix(diag.ExpNotMutable, span(f, 10, 13), ReplaceSpan("b", span(f, 10, 13), "var", "let", WithID("second"))),
	}
	res, err := Apply(fs, diags, ApplyOptions{Mode: ApplyModeID, TargetID: "second", DryRun: true})
	if err != nil {
		t.Fatal(err)
	}
	if string(res.FileChanges[0].Content) != "let a = 1\nvar b = 2\n" {
		t.Fatalf("content = %q", res.FileChanges[0].Content)
	}
	if _, err := Apply(fs, diags, ApplyOptions{Mode: ApplyModeID, TargetID: "missing"}); !errors.Is(err, ErrNoFixes) {
		t.Fatalf("err = %v", err)
	}
}

func TestApplyGuardsAndConflicts(t *testing.T) {
	fs, f := loadTemp(t, "let a = 1\n")
	diags := []diag.Diagnostic{
		withFix(diag.ExpNotMutable, span(f, 0, 3), ReplaceSpan("stale", span(f, 0, 3), "var", "var")),
		withFix(diag.ExpNotMutable, span(f, 0, 5), ReplaceSpan("wide", span(f, 0, 5), "var a", "let a")),
		withFix(diag.ExpNotMutable, span(f, 4, 5), ReplaceSpan("overlap", span(f, 4, 5), "b", "a")),
	}
	res, err := Apply(fs, diags, ApplyOptions{Mode: ApplyModeAll, DryRun: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Applied) != 1 || res.Applied[0].Title != "wide" {
		t.Fatalf("applied = %+v", res.Applied)
	}
	reasons := map[string]string{}
	for _, s := range res.Skipped {
		reasons[s.Title] = s.Reason
	}
	if reasons["stale"] != "existing text does not match expected content" {
		t.Fatalf("stale: %q", reasons["stale"])
	}
	if reasons["overlap"] == "" {
		t.Fatal("overlapping fix was not skipped")
	}
}

func TestApplyAllKeepsFixesWithoutIDsAtSamePosition(t *testing.T) {
	fs, f := loadTemp(t, "let a = 1\n")
	diags := []diag.Diagnostic{
		withFix(diag.ExpNotMutable, span(f, 0, 3), ReplaceSpan("keyword", span(f, 0, 3), "var", "let")),
		withFix(diag.ExpNotMutable, span(f, 0, 3), InsertText("suffix", span(f, 9, 9), " // x", "")),
	}
	res, err := Apply(fs, diags, ApplyOptions{Mode: ApplyModeAll, DryRun: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Applied) != 2 {
		t.Fatalf("applied=%+v skipped=%+v", res.Applied, res.Skipped)
	}
	if res.Applied[0].ID == res.Applied[1].ID {
		t.Fatalf("generated ids collide: %q", res.Applied[0].ID)
	}
	if string(res.FileChanges[0].Content) != "var a = 1 // x\n" {
		t.Fatalf("content = %q", res.FileChanges[0].Content)
	}
}

func TestLazyFixMergesMetadata(t *testing.T) {
	fs, f := loadTemp(t, "let a = 1\n")
	lazy := Lazy("Change 'let' to 'var'", func() (diag.Fix, error) {
		return ReplaceSpan("", span(f, 0, 3), "var", "let"), nil
	}, WithID("EXP3003@Prefs.swift:0"), WithApplicability(diag.FixApplicabilityManualReview), Preferred())
	got, err := lazy.Resolve(diag.FixBuildContext{FileSet: fs})
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != "EXP3003@Prefs.swift:0" || got.Title != "Change 'let' to 'var'" || !got.IsPreferred {
		t.Fatalf("fix = %+v", got)
	}
	if got.Applicability != diag.FixApplicabilityManualReview {
		t.Fatalf("applicability = %v", got.Applicability)
	}
}

func TestSplicePreservesInsertionOrder(t *testing.T) {
	content := []byte("ab")
	edits := []diag.TextEdit{
		{Span: source.Span{File: 1, Start: 1, End: 1}, NewText: "1"},
		{Span: source.Span{File: 1, Start: 1, End: 1}, NewText: "2"},
		{Span: source.Span{File: 1, Start: 0, End: 1}, NewText: "A"},
	}
	if got := string(splice(content, edits)); got != "A12b" {
		t.Fatalf("splice = %q", got)
	}
}

func TestSpansConflict(t *testing.T) {
	e := func(s, e uint32) diag.TextEdit { return diag.TextEdit{Span: source.Span{File: 1, Start: s, End: e}} }
	tests := []struct {
		a, b diag.TextEdit
		want bool
	}{
		{e(0, 0), e(0, 0), false},
		{e(2, 2), e(0, 5), true},
		{e(0, 0), e(0, 5), false},
		{e(0, 3), e(3, 5), false},
		{e(0, 4), e(3, 5), true},
	}
	for i, tt := range tests {
		if got := spansConflict(tt.a, tt.b); got != tt.want {
			t.Errorf("case %d: got %v want %v", i, got, tt.want)
		}
	}
}
