package driver

import (
	"bytes"
	"fmt"
	"strings"

	"fortio.org/safecast"

	"prefmacro/internal/config"
	"prefmacro/internal/diag"
	"prefmacro/internal/source"
)

// configDiagnostics reports keys of the configuration file that nothing
// reads. The file is added to fs so the warnings point at the key.
func configDiagnostics(fs *source.FileSet, cfg config.Config, limit int) *diag.Bag {
	bag := diag.NewBag(limit)
	if cfg.Path == "" || len(cfg.Unknown) == 0 {
		return bag
	}
	id, err := fs.Load(cfg.Path)
	if err != nil {
		bag.Add(diag.NewError(diag.IOLoadFileError, source.Span{}, fmt.Sprintf("failed to load %s: %v", cfg.Path, err)))
		return bag
	}
	file := fs.Get(id)
	for _, key := range cfg.Unknown {
		bag.Add(diag.NewWarning(diag.ProjConfigUnknown, keySpan(file, key),
			fmt.Sprintf("unknown configuration key %q is ignored", key)))
	}
	return bag
}

// keySpan finds `name =` for the last segment of a dotted key; the file
// start is used when the key cannot be located.
func keySpan(file *source.File, key string) source.Span {
	name := key
	if i := strings.LastIndexByte(key, '.'); i >= 0 {
		name = key[i+1:]
	}
	for off := 0; off < len(file.Content); {
		i := bytes.Index(file.Content[off:], []byte(name))
		if i < 0 {
			break
		}
		start := off + i
		end := start + len(name)
		rest := bytes.TrimLeft(file.Content[end:], " \t")
		lineStart := bytes.LastIndexByte(file.Content[:start], '\n') + 1
		prefix := bytes.TrimSpace(file.Content[lineStart:start])
		if len(prefix) == 0 && len(rest) > 0 && rest[0] == '=' {
			s, err1 := safecast.Conv[uint32](start)
			e, err2 := safecast.Conv[uint32](end)
			if err1 == nil && err2 == nil {
				return source.Span{File: file.ID, Start: s, End: e}
			}
		}
		off = end
	}
	return source.Span{File: file.ID}
}
