package diagfmt

import (
	"io"

	"prefmacro/internal/diag"
	"prefmacro/internal/source"
)

// Short writes one `severity CODE path:line:col message` line per diagnostic,
// sorted by location.
func Short(w io.Writer, bag *diag.Bag, fs *source.FileSet, mode PathMode, withNotes bool) error {
	if bag == nil {
		return nil
	}
	out := diag.FormatShortDiagnostics(bag.Items(), fs, withNotes, mode.String())
	if out == "" {
		return nil
	}
	_, err := io.WriteString(w, out+"\n")
	return err
}
