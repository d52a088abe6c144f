package driver

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/vmihailenco/msgpack/v5"

	"prefmacro/internal/config"
	"prefmacro/internal/diag"
	"prefmacro/internal/source"
)

// increment when DiskPayload changes shape
const diskCacheSchemaVersion uint16 = 1

// DiskCache хранит результат раскрытия файла по ключу H(content || config).
// Fixes are stored resolved, so a hit serves diag and fix as well.
type DiskCache struct {
	mu  sync.RWMutex
	dir string
}

// DiskPayload is the on-disk form of a FileResult. Spans are stored as
// offsets and rebound to the current FileID on load.
type DiskPayload struct {
	Schema      uint16
	Output      []byte
	Changed     bool
	Diagnostics []cachedDiagnostic
}

type cachedDiagnostic struct {
	Severity uint8
	Code     uint16
	Message  string
	Start    uint32
	End      uint32
	Notes    []cachedNote
	Fixes    []cachedFix
}

type cachedNote struct {
	Start, End uint32
	Msg        string
}

type cachedFix struct {
	Title         string
	Kind          uint8
	Applicability uint8
	Preferred     bool
	RequiresAll   bool
	Edits         []cachedEdit
}

type cachedEdit struct {
	Start, End       uint32
	NewText, OldText string
}

// OpenDiskCache opens $XDG_CACHE_HOME/<app> (or ~/.cache/<app>).
func OpenDiskCache(app string) (*DiskCache, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		base = filepath.Join(home, ".cache")
	}
	return NewDiskCache(filepath.Join(base, app))
}

// NewDiskCache uses dir as the cache root.
func NewDiskCache(dir string) (*DiskCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &DiskCache{dir: dir}, nil
}

func (c *DiskCache) Dir() string { return c.dir }

func (c *DiskCache) pathFor(key config.Digest) string {
	hexKey := fmt.Sprintf("%x", key[:])
	return filepath.Join(c.dir, "files", hexKey[:2], hexKey+".mp")
}

// Put writes payload atomically.
func (c *DiskCache) Put(key config.Digest, payload *DiskPayload) (err error) {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = os.Remove(f.Name())
		}
	}()
	if err = msgpack.NewEncoder(f).Encode(payload); err != nil {
		_ = f.Close()
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), p)
}

// Get reads the payload for key. A missing entry or an entry of another
// schema is a miss, not an error.
func (c *DiskCache) Get(key config.Digest, out *DiskPayload) (bool, error) {
	if c == nil {
		return false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	f, err := os.Open(c.pathFor(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	defer f.Close()
	if err := msgpack.NewDecoder(f).Decode(out); err != nil {
		return false, fmt.Errorf("decode %s: %w", filepath.Base(f.Name()), err)
	}
	return out.Schema == diskCacheSchemaVersion, nil
}

// DropAll removes every entry.
func (c *DiskCache) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return os.RemoveAll(filepath.Join(c.dir, "files"))
}

// Load fills res from the cache. Diagnostics are rebound to file.
func (c *DiskCache) Load(key config.Digest, file *source.File, res *FileResult) (bool, error) {
	var payload DiskPayload
	ok, err := c.Get(key, &payload)
	if err != nil || !ok {
		return false, err
	}
	res.Output = payload.Output
	if !payload.Changed {
		res.Output = file.Content
	}
	res.Changed = payload.Changed
	res.Cached = true
	for _, cd := range payload.Diagnostics {
		res.Bag.Add(cd.restore(file))
	}
	return true, nil
}

// Store saves res. Lazy fixes are resolved first; a fix that fails to
// resolve makes the result uncacheable.
func (c *DiskCache) Store(key config.Digest, fs *source.FileSet, res *FileResult) error {
	payload := DiskPayload{
		Schema:  diskCacheSchemaVersion,
		Changed: res.Changed,
	}
	if res.Changed {
		payload.Output = res.Output
	}
	ctx := diag.FixBuildContext{FileSet: fs}
	for _, d := range res.Bag.Items() {
		if d.Code == diag.IOCacheError {
			continue
		}
		fixes, err := diag.MaterializeFixes(ctx, d.Fixes)
		if err != nil {
			return err
		}
		d.Fixes = fixes
		payload.Diagnostics = append(payload.Diagnostics, capture(d))
	}
	return c.Put(key, &payload)
}

func capture(d diag.Diagnostic) cachedDiagnostic {
	cd := cachedDiagnostic{
		Severity: uint8(d.Severity),
		Code:     uint16(d.Code),
		Message:  d.Message,
		Start:    d.Primary.Start,
		End:      d.Primary.End,
	}
	for _, n := range d.Notes {
		cd.Notes = append(cd.Notes, cachedNote{Start: n.Span.Start, End: n.Span.End, Msg: n.Msg})
	}
	for _, f := range d.Fixes {
		cf := cachedFix{
			Title:         f.Title,
			Kind:          uint8(f.Kind),
			Applicability: uint8(f.Applicability),
			Preferred:     f.IsPreferred,
			RequiresAll:   f.RequiresAll,
		}
		for _, e := range f.Edits {
			cf.Edits = append(cf.Edits, cachedEdit{Start: e.Span.Start, End: e.Span.End, NewText: e.NewText, OldText: e.OldText})
		}
		cd.Fixes = append(cd.Fixes, cf)
	}
	return cd
}

func (cd cachedDiagnostic) restore(file *source.File) diag.Diagnostic {
	at := func(start, end uint32) source.Span {
		return source.Span{File: file.ID, Start: start, End: end}
	}
	d := diag.New(diag.Severity(cd.Severity), diag.Code(cd.Code), at(cd.Start, cd.End), cd.Message)
	for _, n := range cd.Notes {
		d = d.WithNote(at(n.Start, n.End), n.Msg)
	}
	for _, cf := range cd.Fixes {
		f := diag.Fix{
			Title:         cf.Title,
			Kind:          diag.FixKind(cf.Kind),
			Applicability: diag.FixApplicability(cf.Applicability),
			IsPreferred:   cf.Preferred,
			RequiresAll:   cf.RequiresAll,
		}
		for _, e := range cf.Edits {
			f.Edits = append(f.Edits, diag.TextEdit{Span: at(e.Start, e.End), NewText: e.NewText, OldText: e.OldText})
		}
		if len(f.Edits) > 0 {
			f.ID = fixID(d.Code, file.Path, f.Edits[0].Span)
		}
		d = d.WithFixSuggestion(f)
	}
	return d
}
