package diagfmt

import (
	"encoding/json"
	"io"
	"slices"
	"sort"

	"prefmacro/internal/diag"
	"prefmacro/internal/source"
)

// LocationJSON is a span in JSON output. Line and column are filled only
// when positions are requested and the file is known.
type LocationJSON struct {
	File      string `json:"file"`
	StartByte uint32 `json:"start_byte"`
	EndByte   uint32 `json:"end_byte"`
	StartLine uint32 `json:"start_line,omitempty"`
	StartCol  uint32 `json:"start_col,omitempty"`
	EndLine   uint32 `json:"end_line,omitempty"`
	EndCol    uint32 `json:"end_col,omitempty"`
}

type NoteJSON struct {
	Message  string       `json:"message"`
	Location LocationJSON `json:"location"`
}

// FixEditJSON: одна правка; before/after только с превью.
type FixEditJSON struct {
	Location    LocationJSON `json:"location"`
	NewText     string       `json:"new_text"`
	OldText     string       `json:"old_text,omitempty"`
	BeforeLines []string     `json:"before_lines,omitempty"`
	AfterLines  []string     `json:"after_lines,omitempty"`
}

// FixJSON describes one suggestion. A fix that fails to build keeps its
// declared metadata and reports BuildError instead of edits.
type FixJSON struct {
	ID            string        `json:"id,omitempty"`
	Title         string        `json:"title"`
	Kind          string        `json:"kind"`
	Applicability string        `json:"applicability"`
	IsPreferred   bool          `json:"is_preferred,omitempty"`
	BuildError    string        `json:"build_error,omitempty"`
	Edits         []FixEditJSON `json:"edits,omitempty"`
}

type DiagnosticJSON struct {
	Severity string       `json:"severity"`
	Code     string       `json:"code"`
	Rule     string       `json:"rule"`
	Message  string       `json:"message"`
	Location LocationJSON `json:"location"`
	Notes    []NoteJSON   `json:"notes,omitempty"`
	Fixes    []FixJSON    `json:"fixes,omitempty"`
}

// FileCountJSON aggregates the emitted diagnostics of one file.
type FileCountJSON struct {
	File     string `json:"file"`
	Errors   int    `json:"errors"`
	Warnings int    `json:"warnings"`
}

// DiagnosticsOutput is the document written by JSON. Errors and Warnings
// count the whole bag, Count only what was emitted.
type DiagnosticsOutput struct {
	Diagnostics []DiagnosticJSON `json:"diagnostics"`
	Files       []FileCountJSON  `json:"files,omitempty"`
	Count       int              `json:"count"`
	Errors      int              `json:"errors"`
	Warnings    int              `json:"warnings"`
	Truncated   bool             `json:"truncated,omitempty"`
}

// jsonBuilder converts diagnostics of one FileSet under fixed options.
type jsonBuilder struct {
	fs   *source.FileSet
	opts JSONOpts
	ctx  diag.FixBuildContext
}

func (b jsonBuilder) location(span source.Span) LocationJSON {
	loc := LocationJSON{
		File:      displayPath(b.fs, span.File, b.opts.PathMode),
		StartByte: span.Start,
		EndByte:   span.End,
	}
	if b.opts.IncludePositions && resolvable(b.fs, span) {
		start, end := b.fs.Resolve(span)
		loc.StartLine, loc.StartCol = start.Line, start.Col
		loc.EndLine, loc.EndCol = end.Line, end.Col
	}
	return loc
}

func (b jsonBuilder) diagnostic(d diag.Diagnostic) DiagnosticJSON {
	out := DiagnosticJSON{
		Severity: d.Severity.String(),
		Code:     d.Code.ID(),
		Rule:     d.Code.Title(),
		Message:  d.Message,
		Location: b.location(d.Primary),
	}
	if b.opts.IncludeNotes {
		for _, n := range d.Notes {
			out.Notes = append(out.Notes, NoteJSON{Message: n.Msg, Location: b.location(n.Span)})
		}
	}
	if b.opts.IncludeFixes {
		for _, f := range sortedFixes(d.Fixes) {
			out.Fixes = append(out.Fixes, b.fix(f))
		}
	}
	return out
}

func (b jsonBuilder) fix(f diag.Fix) FixJSON {
	resolved, err := f.Resolve(b.ctx)
	if err != nil {
		return FixJSON{
			ID:            f.ID,
			Title:         f.Title,
			Kind:          f.Kind.String(),
			Applicability: f.Applicability.String(),
			IsPreferred:   f.IsPreferred,
			BuildError:    err.Error(),
		}
	}
	out := FixJSON{
		ID:            resolved.ID,
		Title:         resolved.Title,
		Kind:          resolved.Kind.String(),
		Applicability: resolved.Applicability.String(),
		IsPreferred:   resolved.IsPreferred,
		Edits:         make([]FixEditJSON, 0, len(resolved.Edits)),
	}
	for _, edit := range resolved.Edits {
		out.Edits = append(out.Edits, b.edit(edit))
	}
	return out
}

func (b jsonBuilder) edit(edit diag.TextEdit) FixEditJSON {
	out := FixEditJSON{
		Location: b.location(edit.Span),
		NewText:  edit.NewText,
		OldText:  edit.OldText,
	}
	if !b.opts.IncludePreviews {
		return out
	}
	if preview, err := buildFixEditPreview(b.fs, edit); err == nil {
		out.BeforeLines = slices.Clone(preview.before)
		out.AfterLines = slices.Clone(preview.after)
	}
	return out
}

// BuildDiagnosticsOutput converts bag without encoding it. opts.Max limits
// the emitted diagnostics, the counters still cover the whole bag.
func BuildDiagnosticsOutput(bag *diag.Bag, fs *source.FileSet, opts JSONOpts) (DiagnosticsOutput, error) {
	if bag == nil {
		return DiagnosticsOutput{Diagnostics: []DiagnosticJSON{}}, nil
	}
	b := jsonBuilder{fs: fs, opts: opts, ctx: diag.FixBuildContext{FileSet: fs}}

	items := bag.Items()
	if opts.Max > 0 && opts.Max < len(items) {
		items = items[:opts.Max]
	}
	out := DiagnosticsOutput{
		Diagnostics: make([]DiagnosticJSON, 0, len(items)),
		Errors:      bag.Count(diag.SevError),
		Warnings:    bag.Count(diag.SevWarning),
		Truncated:   len(items) < bag.Len(),
	}

	perFile := make(map[string]*FileCountJSON)
	for _, d := range items {
		dj := b.diagnostic(d)
		out.Diagnostics = append(out.Diagnostics, dj)

		fc, ok := perFile[dj.Location.File]
		if !ok {
			fc = &FileCountJSON{File: dj.Location.File}
			perFile[dj.Location.File] = fc
		}
		switch {
		case d.Severity >= diag.SevError:
			fc.Errors++
		case d.Severity == diag.SevWarning:
			fc.Warnings++
		}
	}
	for _, fc := range perFile {
		out.Files = append(out.Files, *fc)
	}
	sort.Slice(out.Files, func(i, j int) bool { return out.Files[i].File < out.Files[j].File })
	out.Count = len(out.Diagnostics)
	return out, nil
}

// JSON writes the diagnostics of bag as one indented document.
func JSON(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts JSONOpts) error {
	output, err := BuildDiagnosticsOutput(bag, fs, opts)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(output)
}

// sortedFixes orders preferred and safer fixes first.
func sortedFixes(in []diag.Fix) []diag.Fix {
	fixes := slices.Clone(in)
	sort.SliceStable(fixes, func(i, j int) bool {
		fi, fj := fixes[i], fixes[j]
		if fi.IsPreferred != fj.IsPreferred {
			return fi.IsPreferred
		}
		if fi.Applicability != fj.Applicability {
			return fi.Applicability < fj.Applicability
		}
		if fi.Title != fj.Title {
			return fi.Title < fj.Title
		}
		return fi.ID < fj.ID
	})
	return fixes
}
