package driver

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"

	"prefmacro/internal/diag"
	"prefmacro/internal/source"
)

// SourceExt is the extension of files picked up from directories.
const SourceExt = ".swift"

// Result aggregates a run over one or more paths.
type Result struct {
	FileSet *source.FileSet
	// Project holds configuration diagnostics that belong to no source file.
	Project *diag.Bag
	Files   []FileResult
}

// Diagnostics returns configuration diagnostics followed by all file
// diagnostics in file order.
func (r *Result) Diagnostics() []diag.Diagnostic {
	var out []diag.Diagnostic
	if r.Project != nil {
		out = append(out, r.Project.Items()...)
	}
	for _, f := range r.Files {
		out = append(out, f.Bag.Items()...)
	}
	return out
}

// HasErrors reports whether any file has an error diagnostic.
func (r *Result) HasErrors() bool {
	if r.Project != nil && r.Project.HasErrors() {
		return true
	}
	for _, f := range r.Files {
		if f.Bag.HasErrors() {
			return true
		}
	}
	return false
}

// Changed returns the files whose expansion differs from their content.
func (r *Result) Changed() []FileResult {
	var out []FileResult
	for _, f := range r.Files {
		if f.Changed {
			out = append(out, f)
		}
	}
	return out
}

// CollectFiles expands directories into their *.swift files (hidden and
// build directories skipped) and keeps plain files as given. The result is
// sorted and free of duplicates.
func CollectFiles(paths []string) ([]string, error) {
	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, filepath.Clean(p))
			continue
		}
		err = filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path != p && skipDir(d.Name()) {
					return filepath.SkipDir
				}
				return nil
			}
			if strings.HasSuffix(path, SourceExt) {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	slices.Sort(files)
	return slices.Compact(files), nil
}

func skipDir(name string) bool {
	return strings.HasPrefix(name, ".") || name == "build" || name == "DerivedData"
}

// baseDirOf: a single directory argument is the base for relative paths,
// otherwise the working directory.
func baseDirOf(paths []string) string {
	if len(paths) == 1 {
		if info, err := os.Stat(paths[0]); err == nil && info.IsDir() {
			return paths[0]
		}
	}
	if wd, err := os.Getwd(); err == nil {
		return wd
	}
	return ""
}

// Expand loads every file under paths and expands them concurrently, at
// most opts.Jobs at a time. Files are independent: each gets its own bag,
// results are stored by index. Load failures become IO diagnostics of
// their file; only cancellation aborts the run.
func Expand(ctx context.Context, paths []string, opts Options) (*Result, error) {
	files, err := CollectFiles(paths)
	if err != nil {
		return nil, err
	}
	fileSet := source.NewFileSetWithBase(baseDirOf(paths))
	res := &Result{
		FileSet: fileSet,
		Project: configDiagnostics(fileSet, opts.config(), opts.maxDiagnostics()),
		Files:   make([]FileResult, len(files)),
	}
	applyPolicy(res.Project, opts)
	if len(files) == 0 {
		return res, nil
	}

	mark := opts.mark("load")
	ids := make([]source.FileID, len(files))
	for i, path := range files {
		id, loadErr := fileSet.Load(path)
		if loadErr != nil {
			bag := diag.NewBag(opts.maxDiagnostics())
			bag.Add(diag.NewError(diag.IOLoadFileError, source.Span{}, fmt.Sprintf("failed to load %s: %v", path, loadErr)))
			res.Files[i] = FileResult{Path: path, Bag: bag}
			continue
		}
		ids[i] = id
		opts.notify(Event{Path: fileSet.Get(id).FormatPath("relative", fileSet.BaseDir()), Stage: StageQueued})
	}
	mark.End(fmt.Sprintf("%d files", len(files)))

	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(files)))
	for i, id := range ids {
		if id == source.NoFileID {
			continue
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res.Files[i] = ExpandFile(gctx, fileSet, id, opts)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return res, err
	}
	return res, nil
}

// WriteChanged writes the output of every changed file back to disk,
// keeping the file mode.
func WriteChanged(res *Result) ([]string, error) {
	var written []string
	for _, f := range res.Changed() {
		file := res.FileSet.Get(f.FileID)
		if file == nil || file.Flags&source.FileVirtual != 0 {
			continue
		}
		mode := os.FileMode(0o644)
		if info, err := os.Stat(file.Path); err == nil {
			mode = info.Mode()
		}
		if err := os.WriteFile(file.Path, f.Output, mode); err != nil {
			return written, fmt.Errorf("write %s: %w", file.Path, err)
		}
		written = append(written, f.Path)
	}
	return written, nil
}
