package diagfmt

import (
	"errors"
	"fmt"
	"strings"

	"fortio.org/safecast"

	"prefmacro/internal/diag"
	"prefmacro/internal/source"
)

var errNoFileSet = errors.New("nil FileSet")

// fixEditPreview holds the whole lines touched by an edit before and after it is applied.
type fixEditPreview struct {
	startLine uint32
	before    []string
	after     []string
}

func buildFixEditPreview(fs *source.FileSet, edit diag.TextEdit) (fixEditPreview, error) {
	if fs == nil {
		return fixEditPreview{}, errNoFileSet
	}
	file := fs.Get(edit.Span.File)
	if file == nil {
		return fixEditPreview{}, fmt.Errorf("file %d not found in FileSet", edit.Span.File)
	}
	size, err := safecast.Conv[uint32](len(file.Content))
	if err != nil {
		return fixEditPreview{}, fmt.Errorf("file content overflow: %w", err)
	}
	if edit.Span.Start > edit.Span.End || edit.Span.End > size {
		return fixEditPreview{}, fmt.Errorf("edit span %s out of range", edit.Span)
	}

	startPos, endPos := fs.Resolve(edit.Span)
	blockStart := lineStart(file, startPos.Line, size)
	blockEnd := max(lineEnd(file, max(endPos.Line, startPos.Line), size), blockStart)

	original := file.Content[blockStart:blockEnd]
	relStart := edit.Span.Start - blockStart
	relEnd := edit.Span.End - blockStart

	var after strings.Builder
	after.Grow(len(original) + len(edit.NewText))
	after.Write(original[:relStart])
	after.WriteString(edit.NewText)
	after.Write(original[relEnd:])

	return fixEditPreview{
		startLine: startPos.Line,
		before:    splitPreviewLines(string(original)),
		after:     splitPreviewLines(after.String()),
	}, nil
}

func splitPreviewLines(text string) []string {
	text = strings.TrimSuffix(text, "\n")
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}

// lineStart is the offset of the first byte of a 1-based line.
func lineStart(f *source.File, line, size uint32) uint32 {
	if line <= 1 {
		return 0
	}
	if idx := int(line) - 2; idx < len(f.LineIdx) {
		return f.LineIdx[idx] + 1
	}
	return size
}

// lineEnd is the offset just past the newline ending a 1-based line.
func lineEnd(f *source.File, line, size uint32) uint32 {
	if line == 0 {
		return 0
	}
	if idx := int(line) - 1; idx < len(f.LineIdx) {
		return f.LineIdx[idx] + 1
	}
	return size
}
