package fix

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"sort"

	"prefmacro/internal/diag"
	"prefmacro/internal/source"
)

// ErrNoFixes is returned when nothing was applied.
var ErrNoFixes = errors.New("no applicable fixes found")

// ApplyMode selects which fixes run.
type ApplyMode uint8

const (
	ApplyModeOnce ApplyMode = iota // first always-safe fix, else the first fix
	ApplyModeAll                   // every always-safe fix
	ApplyModeID                    // the fix with TargetID
)

type ApplyOptions struct {
	Mode     ApplyMode
	TargetID string
	// DryRun computes Contents without touching the disk.
	DryRun bool
}

type AppliedFix struct {
	ID            string
	Title         string
	Code          diag.Code
	Message       string
	Applicability diag.FixApplicability
	PrimaryPath   string
	EditCount     int
}

type SkippedFix struct {
	ID     string
	Title  string
	Reason string
}

type FileChange struct {
	Path      string
	FileID    source.FileID
	EditCount int
	Content   []byte
}

type ApplyResult struct {
	Applied     []AppliedFix
	Skipped     []SkippedFix
	FileChanges []FileChange
}

type candidate struct {
	diag  diag.Diagnostic
	fix   diag.Fix
	order int
}

// Apply resolves the fixes of diagnostics, selects some per opts and
// applies them to the files of fs. All edits refer to the loaded content;
// a fix overlapping an already selected one is skipped.
func Apply(fs *source.FileSet, diagnostics []diag.Diagnostic, opts ApplyOptions) (*ApplyResult, error) {
	result := &ApplyResult{}
	if fs == nil {
		return result, errors.New("fix: FileSet is nil")
	}
	cands, skips := gatherCandidates(diag.FixBuildContext{FileSet: fs}, diagnostics)
	result.Skipped = append(result.Skipped, skips...)
	if len(cands) == 0 {
		return result, ErrNoFixes
	}
	sortCandidates(cands)

	selected, skips := selectCandidates(cands, opts)
	result.Skipped = append(result.Skipped, skips...)
	if len(selected) == 0 {
		return result, ErrNoFixes
	}

	applied, skips, changes := applyCandidates(fs, selected)
	result.Applied = applied
	result.Skipped = append(result.Skipped, skips...)
	result.FileChanges = changes
	if len(applied) == 0 {
		return result, ErrNoFixes
	}
	if opts.DryRun {
		return result, nil
	}
	return result, writeChanges(fs, changes)
}

// gatherCandidates resolves lazy fixes. Fixes that fail to build, have no
// edits or repeat an ID are skipped with a reason.
func gatherCandidates(ctx diag.FixBuildContext, diagnostics []diag.Diagnostic) ([]candidate, []SkippedFix) {
	var (
		cands []candidate
		skips []SkippedFix
		seen  = make(map[string]bool)
	)
	for di, d := range diagnostics {
		for idx, f := range d.Fixes {
			resolved, err := f.Resolve(ctx)
			if err != nil {
				skips = append(skips, SkippedFix{ID: f.ID, Title: f.Title, Reason: fmt.Sprintf("failed to build fix: %v", err)})
				continue
			}
			if len(resolved.Edits) == 0 {
				skips = append(skips, SkippedFix{ID: resolved.ID, Title: resolved.Title, Reason: "fix has no edits"})
				continue
			}
			if resolved.ID == "" {
				// di различает диагностики с одинаковым primary span
				resolved.ID = fmt.Sprintf("%s-%d-%d-%d.%d", d.Code.ID(), d.Primary.File, d.Primary.Start, di, idx)
			}
			if seen[resolved.ID] {
				skips = append(skips, SkippedFix{ID: resolved.ID, Title: resolved.Title, Reason: "duplicate fix id"})
				continue
			}
			seen[resolved.ID] = true
			cands = append(cands, candidate{diag: d, fix: resolved, order: len(cands)})
		}
	}
	return cands, skips
}

// sortCandidates orders by file, position, then insertion order; preferred
// fixes first among equals.
func sortCandidates(cands []candidate) {
	sort.SliceStable(cands, func(i, j int) bool {
		a, b := cands[i], cands[j]
		if a.diag.Primary.File != b.diag.Primary.File {
			return a.diag.Primary.File < b.diag.Primary.File
		}
		if a.diag.Primary.Start != b.diag.Primary.Start {
			return a.diag.Primary.Start < b.diag.Primary.Start
		}
		if a.fix.IsPreferred != b.fix.IsPreferred {
			return a.fix.IsPreferred
		}
		return a.order < b.order
	})
}

func selectCandidates(cands []candidate, opts ApplyOptions) ([]candidate, []SkippedFix) {
	switch opts.Mode {
	case ApplyModeID:
		i := slices.IndexFunc(cands, func(c candidate) bool { return c.fix.ID == opts.TargetID })
		if i < 0 {
			return nil, []SkippedFix{{ID: opts.TargetID, Reason: "fix id not found"}}
		}
		return cands[i : i+1], nil
	case ApplyModeAll:
		var selected []candidate
		var skipped []SkippedFix
		for _, c := range cands {
			if c.fix.Applicability == diag.FixApplicabilityAlwaysSafe {
				selected = append(selected, c)
				continue
			}
			skipped = append(skipped, SkippedFix{
				ID:     c.fix.ID,
				Title:  c.fix.Title,
				Reason: "applicability is " + c.fix.Applicability.String(),
			})
		}
		return selected, skipped
	case ApplyModeOnce:
		var skipped []SkippedFix
		fallback := -1
		for i, c := range cands {
			if c.fix.RequiresAll {
				skipped = append(skipped, SkippedFix{ID: c.fix.ID, Title: c.fix.Title, Reason: "fix requires all fixes to be applied"})
				continue
			}
			if c.fix.Applicability == diag.FixApplicabilityAlwaysSafe {
				return []candidate{c}, skipped
			}
			if fallback < 0 {
				fallback = i
			}
		}
		if fallback >= 0 {
			return []candidate{cands[fallback]}, skipped
		}
		return nil, skipped
	}
	return nil, nil
}

// applyCandidates stages every fix against the original content of its
// files and then splices all accepted edits back to front.
func applyCandidates(fs *source.FileSet, selected []candidate) ([]AppliedFix, []SkippedFix, []FileChange) {
	var (
		applied []AppliedFix
		skipped []SkippedFix
		accept  = make(map[source.FileID][]diag.TextEdit)
	)
	for _, c := range selected {
		if reason := check(fs, c.fix.Edits, accept); reason != "" {
			skipped = append(skipped, SkippedFix{ID: c.fix.ID, Title: c.fix.Title, Reason: reason})
			continue
		}
		for _, e := range c.fix.Edits {
			accept[e.Span.File] = append(accept[e.Span.File], e)
		}
		applied = append(applied, AppliedFix{
			ID:            c.fix.ID,
			Title:         c.fix.Title,
			Code:          c.diag.Code,
			Message:       c.diag.Message,
			Applicability: c.fix.Applicability,
			PrimaryPath:   formatFilePath(fs, c.diag.Primary.File),
			EditCount:     len(c.fix.Edits),
		})
	}

	changes := make([]FileChange, 0, len(accept))
	for id, edits := range accept {
		file := fs.Get(id)
		changes = append(changes, FileChange{
			Path:      file.FormatPath("relative", fs.BaseDir()),
			FileID:    id,
			EditCount: len(edits),
			Content:   splice(file.Content, edits),
		})
	}
	sort.Slice(changes, func(i, j int) bool { return changes[i].Path < changes[j].Path })
	return applied, skipped, changes
}

// check returns why edits cannot be applied on top of accepted, or "".
func check(fs *source.FileSet, edits []diag.TextEdit, accepted map[source.FileID][]diag.TextEdit) string {
	for i, e := range edits {
		file := fs.Get(e.Span.File)
		if file == nil {
			return "edit targets an unknown file"
		}
		if e.Span.End < e.Span.Start || int(e.Span.End) > len(file.Content) {
			return "edit span out of range"
		}
		if e.OldText != "" && string(file.Content[e.Span.Start:e.Span.End]) != e.OldText {
			return "existing text does not match expected content"
		}
		for _, prev := range accepted[e.Span.File] {
			if spansConflict(prev, e) {
				return "conflicts with previously applied edits in " + file.FormatPath("auto", fs.BaseDir())
			}
		}
		for _, other := range edits[:i] {
			if other.Span.File == e.Span.File && spansConflict(other, e) {
				return "fix has overlapping edits"
			}
		}
	}
	return ""
}

// spansConflict treats spans as half-open. Two insertions never conflict;
// an insertion conflicts with a span strictly containing its position.
func spansConflict(a, b diag.TextEdit) bool {
	aStart, aEnd := a.Span.Start, a.Span.End
	bStart, bEnd := b.Span.Start, b.Span.End
	switch {
	case aStart == aEnd && bStart == bEnd:
		return false
	case aStart == aEnd:
		return bStart < aStart && aStart < bEnd
	case bStart == bEnd:
		return aStart < bStart && bStart < aEnd
	}
	return aStart < bEnd && bStart < aEnd
}

// splice applies non-overlapping edits from the end of content backwards so
// offsets stay valid. Insertions at the same offset keep their order.
func splice(content []byte, edits []diag.TextEdit) []byte {
	ordered := slices.Clone(edits)
	slices.Reverse(ordered)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Span.Start > ordered[j].Span.Start })
	out := slices.Clone(content)
	for _, e := range ordered {
		out = slices.Concat(out[:e.Span.Start], []byte(e.NewText), out[e.Span.End:])
	}
	return out
}

func writeChanges(fs *source.FileSet, changes []FileChange) error {
	for _, ch := range changes {
		file := fs.Get(ch.FileID)
		if file.Flags&source.FileVirtual != 0 {
			continue
		}
		mode := os.FileMode(0o644)
		if info, err := os.Stat(file.Path); err == nil {
			mode = info.Mode()
		}
		if err := os.WriteFile(file.Path, ch.Content, mode); err != nil {
			return fmt.Errorf("write %s: %w", file.Path, err)
		}
	}
	return nil
}

func formatFilePath(fs *source.FileSet, id source.FileID) string {
	if file := fs.Get(id); file != nil {
		return file.FormatPath("auto", fs.BaseDir())
	}
	return ""
}
