package domain

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"strings"

	"gooze.dev/pkg/rescan/internal/adapter"
	m "gooze.dev/pkg/rescan/internal/model"
)

// Finder runs one-shot, untracked searches.
type Finder struct {
	fs   adapter.SourceFSAdapter
	opts WalkOptions
	// IgnoreFailures turns per-entry failures into diagnostics. When false the
	// first skipped entry aborts the search.
	IgnoreFailures bool
}

// NewFinder creates a Finder that ignores per-entry failures.
func NewFinder(fs adapter.SourceFSAdapter, opts WalkOptions) *Finder {
	return &Finder{fs: fs, opts: opts, IgnoreFailures: true}
}

// Walk yields the paths of matched files below roots. Errors follow the
// Walker contract.
func (f *Finder) Walk(ctx context.Context, roots []m.Path, matcher PathMatcher) iter.Seq2[m.Path, error] {
	return func(yield func(m.Path, error) bool) {
		for entry, err := range NewWalker(f.fs, matcher, f.opts).Walk(ctx, roots...) {
			if !yield(entry.Path, err) {
				return
			}
		}
	}
}

// Search collects every matched path. Unreadable roots are reported as a
// joined error alongside the paths found under the other roots.
func (f *Finder) Search(ctx context.Context, roots []m.Path, matcher PathMatcher) ([]m.Path, m.Diagnostics, error) {
	var (
		paths  []m.Path
		diags  m.Diagnostics
		fatals []error
	)

	for path, err := range f.Walk(ctx, roots, matcher) {
		if err == nil {
			paths = append(paths, path)
			continue
		}

		var (
			traversal *m.TraversalError
			fatal     *m.FatalScanError
		)

		switch {
		case errors.As(err, &traversal):
			if !f.IgnoreFailures {
				return paths, diags, err
			}

			diags = append(diags, traversal)
		case errors.As(err, &fatal):
			fatals = append(fatals, fatal)
		default:
			return paths, diags, err
		}
	}

	return paths, diags, errors.Join(fatals...)
}

// FindNamed finds files whose base name is in names. Names that were never
// seen are reported with a *model.MissingNamesError, in request order.
func (f *Finder) FindNamed(ctx context.Context, root m.Path, names ...string) ([]m.Path, m.Diagnostics, error) {
	paths, diags, err := f.Search(ctx, []m.Path{root}, Names(names...))
	if err != nil {
		return paths, diags, err
	}

	seen := make(map[string]bool, len(paths))
	for _, p := range paths {
		seen[p.Base()] = true
	}

	var missing []string

	for _, name := range names {
		if !seen[name] {
			missing = append(missing, name)
		}
	}

	if len(missing) > 0 {
		return paths, diags, &m.MissingNamesError{Names: missing}
	}

	return paths, diags, nil
}

// FindByExtension calls fn for every file below root with one of exts. An
// error from fn stops the search and is returned.
func (f *Finder) FindByExtension(ctx context.Context, root m.Path, exts []string, fn func(m.Path) error) (m.Diagnostics, error) {
	var diags m.Diagnostics

	for path, err := range f.Walk(ctx, []m.Path{root}, Extensions(exts...)) {
		if err != nil {
			var traversal *m.TraversalError
			if f.IgnoreFailures && errors.As(err, &traversal) {
				diags = append(diags, traversal)
				continue
			}

			return diags, err
		}

		if err := fn(path); err != nil {
			return diags, fmt.Errorf("process %s: %w", path, err)
		}
	}

	return diags, nil
}

// LoadedFile is one result of FindAndLoad.
type LoadedFile struct {
	// Source is the file that was found.
	Source m.Path
	// Path is the file that was read, after the transform.
	Path m.Path
	Data []byte
}

// FindAndLoad finds files named in names, maps each through transform (nil
// keeps the path) and loads the resulting file. Load failures are fatal unless
// IgnoreFailures is set, in which case they become diagnostics. Missing names
// are still reported after every found file was loaded.
func (f *Finder) FindAndLoad(ctx context.Context, root m.Path, names []string, transform func(m.Path) m.Path) ([]LoadedFile, m.Diagnostics, error) {
	paths, diags, findErr := f.FindNamed(ctx, root, names...)

	var missing *m.MissingNamesError
	if findErr != nil && !errors.As(findErr, &missing) {
		return nil, diags, findErr
	}

	loader := NewLoader(f.fs)
	loaded := make([]LoadedFile, 0, len(paths))

	for _, source := range paths {
		target := source
		if transform != nil {
			target = transform(source)
		}

		data, err := loader.LoadBytes(target)
		if err != nil {
			if !f.IgnoreFailures {
				return nil, diags, err
			}

			diags = append(diags, &m.TraversalError{Path: target, Err: err})

			continue
		}

		loaded = append(loaded, LoadedFile{Source: source, Path: target, Data: data})
	}

	if missing != nil {
		return loaded, diags, missing
	}

	return loaded, diags, nil
}

// Loader reads matched files.
type Loader struct {
	fs adapter.SourceFSAdapter
}

// NewLoader creates a Loader.
func NewLoader(fs adapter.SourceFSAdapter) *Loader {
	return &Loader{fs: fs}
}

// LoadBytes returns the whole file or an *model.IOError, never partial data.
func (l *Loader) LoadBytes(path m.Path) ([]byte, error) {
	data, err := l.fs.ReadBytes(path)
	if err != nil {
		return nil, err
	}

	return data, nil
}

// LoadText returns the file decoded from encoding ("" = UTF-8).
func (l *Loader) LoadText(path m.Path, encoding string) (string, error) {
	text, err := l.fs.ReadText(path, strings.TrimSpace(encoding))
	if err != nil {
		return "", err
	}

	return text, nil
}
