package diagfmt

import "fmt"

// PathMode specifies how file paths are displayed.
type PathMode uint8

const (
	// PathModeAuto keeps short or relative paths and shortens long absolute ones.
	PathModeAuto PathMode = iota
	// PathModeAbsolute always uses absolute paths.
	PathModeAbsolute
	PathModeRelative
	PathModeBasename
)

func (m PathMode) String() string {
	switch m {
	case PathModeAbsolute:
		return "absolute"
	case PathModeRelative:
		return "relative"
	case PathModeBasename:
		return "basename"
	default:
		return "auto"
	}
}

// ParsePathMode accepts auto|absolute|relative|basename.
func ParsePathMode(s string) (PathMode, error) {
	switch s {
	case "", "auto":
		return PathModeAuto, nil
	case "absolute", "abs":
		return PathModeAbsolute, nil
	case "relative", "rel":
		return PathModeRelative, nil
	case "basename", "base":
		return PathModeBasename, nil
	}
	return PathModeAuto, fmt.Errorf("unknown path mode %q", s)
}

// PrettyOpts configures pretty-printing of diagnostics.
type PrettyOpts struct {
	Color       bool
	Context     int8 // строк контекста вокруг primary span
	PathMode    PathMode
	ShowNotes   bool
	ShowFixes   bool
	ShowPreview bool
}

// JSONOpts configures JSON output of diagnostics.
type JSONOpts struct {
	IncludePositions bool // добавить line/col
	PathMode         PathMode
	Max              int // обрезка вывода, не Bag
	IncludeNotes     bool
	IncludeFixes     bool
	IncludePreviews  bool
}

// SarifRunMeta provides metadata for SARIF output.
type SarifRunMeta struct {
	ToolName       string
	ToolVersion    string
	InformationURI string
	InvocationArgs []string
	PathMode       PathMode
}
