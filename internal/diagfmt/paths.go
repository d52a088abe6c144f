package diagfmt

import "prefmacro/internal/source"

func displayPath(fs *source.FileSet, id source.FileID, mode PathMode) string {
	if fs == nil {
		return "<unknown>"
	}
	f := fs.Get(id)
	if f == nil {
		return "<unknown>"
	}
	switch mode {
	case PathModeRelative:
		return f.FormatPath("relative", fs.BaseDir())
	default:
		return f.FormatPath(mode.String(), "")
	}
}

// resolvable reports whether span points into a file known to fs.
func resolvable(fs *source.FileSet, span source.Span) bool {
	return fs != nil && span.IsValid() && fs.Get(span.File) != nil
}
