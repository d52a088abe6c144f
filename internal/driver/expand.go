package driver

import (
	"context"
	"errors"
	"fmt"

	"fortio.org/safecast"

	"prefmacro/internal/ast"
	"prefmacro/internal/config"
	"prefmacro/internal/diag"
	"prefmacro/internal/expand"
	"prefmacro/internal/observ"
	"prefmacro/internal/parser"
	"prefmacro/internal/source"
	"prefmacro/internal/trace"
)

// Options drive Expand and ExpandFile.
type Options struct {
	Config *config.Config // nil means built-in defaults
	// MaxDiagnostics overrides Config.MaxDiagnostics when positive.
	MaxDiagnostics   int
	Jobs             int
	IgnoreWarnings   bool
	WarningsAsErrors bool
	Cache            *DiskCache
	Timer            *observ.Timer
	Observer         Observer
}

// FileResult is the outcome for one input file.
type FileResult struct {
	Path   string
	FileID source.FileID
	Bag    *diag.Bag
	// Output is the materialized source. It equals the input when nothing
	// was expanded or the input had syntax errors.
	Output  []byte
	Changed bool
	Cached  bool
}

func (o Options) config() config.Config {
	if o.Config != nil {
		return *o.Config
	}
	return config.Default()
}

func (o Options) mark(name string) observ.Mark {
	return o.Timer.Begin(name)
}

func (o Options) notify(ev Event) {
	if o.Observer != nil {
		o.Observer(ev)
	}
}

func (o Options) maxDiagnostics() int {
	if o.MaxDiagnostics > 0 {
		return o.MaxDiagnostics
	}
	if n := o.config().MaxDiagnostics; n > 0 {
		return n
	}
	return config.DefaultMaxDiagnostics
}

// ExpandFile runs the whole pipeline on a file already loaded into fs.
func ExpandFile(ctx context.Context, fs *source.FileSet, id source.FileID, opts Options) FileResult {
	file := fs.Get(id)
	res := FileResult{FileID: id, Bag: diag.NewBag(opts.maxDiagnostics())}
	if file == nil {
		return res
	}
	res.Path = file.FormatPath("relative", fs.BaseDir())
	res.Output = file.Content

	span, ctx := trace.Start(ctx, trace.ScopeFile, "file:"+res.Path)
	defer func() { span.End(fmt.Sprintf("changed=%t diags=%d", res.Changed, res.Bag.Len())) }()

	cfg := opts.config()
	var key config.Digest
	if opts.Cache != nil {
		key = config.Combine(file.Hash, cfg.Hash(), res.Path)
		hit, err := opts.Cache.Load(key, file, &res)
		switch {
		case err != nil:
			res.Bag.Add(diag.NewWarning(diag.IOCacheError, source.Span{File: id}, fmt.Sprintf("expansion cache: %v", err)))
		case hit:
			trace.Point(ctx, trace.ScopeFile, "cache", "hit")
			res.finish(opts)
			return res
		}
	}

	expandInto(ctx, file, cfg, opts, &res)

	if opts.Cache != nil {
		if err := opts.Cache.Store(key, fs, &res); err != nil {
			res.Bag.Add(diag.NewWarning(diag.IOCacheError, source.Span{File: id}, fmt.Sprintf("expansion cache: %v", err)))
		}
	}
	res.finish(opts)
	return res
}

func expandInto(ctx context.Context, file *source.File, cfg config.Config, opts Options, res *FileResult) {
	maxErrors, err := safecast.Conv[uint](opts.maxDiagnostics())
	if err != nil {
		maxErrors = 0
	}

	opts.notify(Event{Path: res.Path, Stage: StageParse})
	span, _ := trace.Start(ctx, trace.ScopePass, "parse")
	mark := opts.mark("parse")
	// при восстановлении парсер повторяет ошибки; пропускаем только первую на позиции
	parsed := parser.ParseFile(file, parser.Options{
		Reporter:  diag.NewRecoveryReporter(diag.BagReporter{Bag: res.Bag}),
		MaxErrors: maxErrors,
	})
	mark.End("")
	span.End("")
	syntaxErrors := parsed.Errors > 0 || res.Bag.HasErrors()
	opts.notify(Event{Path: res.Path, Stage: StageExpand})

	span, pctx := trace.Start(ctx, trace.ScopePass, "expand")
	h := newHost(pctx, cfg.Expand, res.Path, opts.Timer)
	decls := h.file(parsed.File.Decls)
	span.WithExtra("diagnostics", fmt.Sprint(len(h.out))).End("")
	for _, d := range h.out {
		res.Bag.Add(d)
	}

	if syntaxErrors {
		trace.Point(ctx, trace.ScopePass, "materialize", "skipped: syntax errors")
		return
	}
	opts.notify(Event{Path: res.Path, Stage: StageMaterialize})
	span, _ = trace.Start(ctx, trace.ScopePass, "materialize")
	mark = opts.mark("materialize")
	out, err := materialize(&ast.File{Decls: decls, EOF: parsed.File.EOF}, file)
	mark.End("")
	span.End("")
	if err != nil {
		res.Bag.Add(lower(expand.MaterializeFailed(parsed.File, err), parsed.File, res.Path))
		return
	}
	res.Output = out
	res.Changed = string(out) != string(file.Content)
}

// ErrMaterialize wraps parse errors found in expanded output.
var ErrMaterialize = errors.New("expanded source does not parse")

// materialize prints the expanded tree and checks that the result parses
// cleanly.
func materialize(f *ast.File, orig *source.File) ([]byte, error) {
	text := ast.Print(f)
	if text == string(orig.Content) {
		return orig.Content, nil
	}
	check := &source.File{ID: source.NoFileID, Path: orig.Path, Content: []byte(text)}
	bag := diag.NewBag(4)
	parser.ParseFile(check, parser.Options{Reporter: diag.BagReporter{Bag: bag}})
	if bag.HasErrors() {
		return nil, fmt.Errorf("%w: %s", ErrMaterialize, bag.Items()[0].Message)
	}
	return check.Content, nil
}

// applyPolicy promotes or drops warnings and orders the bag.
func applyPolicy(bag *diag.Bag, opts Options) {
	if opts.WarningsAsErrors || opts.config().WarningsAsErrors {
		bag.Transform(func(d diag.Diagnostic) diag.Diagnostic {
			if d.Severity == diag.SevWarning {
				d.Severity = diag.SevError
			}
			return d
		})
	}
	if opts.IgnoreWarnings {
		bag.Filter(func(d diag.Diagnostic) bool { return d.Severity != diag.SevWarning })
	}
	bag.Dedup()
	bag.Sort()
}

func (r *FileResult) finish(opts Options) {
	applyPolicy(r.Bag, opts)
	opts.notify(Event{Path: r.Path, Stage: StageDone, Changed: r.Changed, Errors: r.Bag.Count(diag.SevError), Cached: r.Cached})
}

// ExpandSource expands in-memory content, e.g. stdin or test input.
func ExpandSource(ctx context.Context, name string, content []byte, opts Options) (*source.FileSet, FileResult) {
	fs := source.NewFileSet()
	id := fs.AddVirtual(name, content)
	return fs, ExpandFile(ctx, fs, id, opts)
}
