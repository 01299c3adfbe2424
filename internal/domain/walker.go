package domain

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"path"
	"path/filepath"
	"slices"

	"gooze.dev/pkg/rescan/internal/adapter"
	m "gooze.dev/pkg/rescan/internal/model"
)

// WalkOptions configures directory traversal.
type WalkOptions struct {
	// ExcludeDirs lists base-name patterns of directories that are never entered.
	ExcludeDirs []string
	// MaxDepth limits recursion (0 = unlimited, 1 = root entries only).
	MaxDepth int
	// FollowSymlinks makes the walker descend into linked directories and
	// report linked files. Each link target is visited at most once per walk.
	FollowSymlinks bool
}

// DefaultWalkOptions follows symlinks and skips VCS metadata directories.
func DefaultWalkOptions() WalkOptions {
	return WalkOptions{
		ExcludeDirs:    []string{".git", ".hg", ".svn"},
		FollowSymlinks: true,
	}
}

// WalkEntry is a matched file.
type WalkEntry struct {
	Root m.Path
	Path m.Path
	// Rel is the slash-separated path relative to Root.
	Rel  string
	Info m.Metadata
}

// Walker enumerates matched files below one or more roots.
type Walker struct {
	fs      adapter.SourceFSAdapter
	matcher PathMatcher
	opts    WalkOptions
}

// NewWalker creates a Walker. A nil matcher accepts every file.
func NewWalker(fs adapter.SourceFSAdapter, matcher PathMatcher, opts WalkOptions) *Walker {
	if matcher == nil {
		matcher = MatchAll()
	}

	return &Walker{fs: fs, matcher: matcher, opts: opts}
}

// Walk lazily yields matched files of every root, in order. Sibling entries
// are visited in lexical order so an unchanged tree always produces the same
// sequence.
//
// Symlinks are followed only after every root was walked by plain descent, so
// a real file or directory is always reported under its own path. A link whose
// target was already visited is skipped silently.
//
// A non-nil error is yielded alongside a zero entry. *model.TraversalError is
// a skipped entry and the walk goes on. *model.FatalScanError ends the
// affected root only. A context error ends the whole walk.
func (w *Walker) Walk(ctx context.Context, roots ...m.Path) iter.Seq2[WalkEntry, error] {
	return func(yield func(WalkEntry, error) bool) {
		state := &walkState{visited: make(map[m.Path]bool), yield: yield}

		for _, root := range roots {
			if err := ctx.Err(); err != nil {
				yield(WalkEntry{}, err)
				return
			}

			if !w.walkRoot(ctx, state, root) {
				return
			}
		}

		for len(state.links) > 0 {
			link := state.links[0]
			state.links = state.links[1:]

			if err := ctx.Err(); err != nil {
				yield(WalkEntry{}, err)
				return
			}

			if !w.followLink(ctx, state, link) {
				return
			}
		}
	}
}

// WalkResult is the collected output of a walk over a single root.
type WalkResult struct {
	Entries     []WalkEntry
	Diagnostics m.Diagnostics
}

// Collect drives Walk to completion for one root. It fails with a
// *model.FatalScanError or a context error; traversal errors are collected.
func (w *Walker) Collect(ctx context.Context, root m.Path) (WalkResult, error) {
	var result WalkResult

	for entry, err := range w.Walk(ctx, root) {
		if err == nil {
			result.Entries = append(result.Entries, entry)
			continue
		}

		var traversal *m.TraversalError
		if errors.As(err, &traversal) {
			result.Diagnostics = append(result.Diagnostics, traversal)
			continue
		}

		return result, err
	}

	return result, nil
}

type dirFrame struct {
	root  m.Path
	path  m.Path
	rel   string
	real  m.Path
	depth int
}

type pendingLink struct {
	dir  dirFrame
	name string
}

// walkState is shared by every root of one walk. visited holds the real paths
// of entered directories and reported files.
type walkState struct {
	visited map[m.Path]bool
	links   []pendingLink
	yield   func(WalkEntry, error) bool
}

// walkRoot returns false when the consumer stopped or the context ended.
func (w *Walker) walkRoot(ctx context.Context, state *walkState, root m.Path) bool {
	fatal := func(err error) bool {
		return state.yield(WalkEntry{}, &m.FatalScanError{Root: root, Err: err})
	}

	info, err := w.fs.Stat(root)
	if err != nil {
		return fatal(err)
	}

	realRoot, err := w.fs.RealPath(root)
	if err != nil {
		return fatal(err)
	}

	switch info.Kind {
	case m.KindFile:
		if state.visited[realRoot] {
			return true
		}

		state.visited[realRoot] = true

		return w.emitFile(root, root, root.Base(), info, state.yield)
	case m.KindDir:
	default:
		return fatal(fmt.Errorf("%s is neither a file nor a directory", root))
	}

	if state.visited[realRoot] {
		return true
	}

	state.visited[realRoot] = true

	entries, err := w.fs.ListDirectory(root)
	if err != nil {
		return fatal(err)
	}

	return w.descend(ctx, state, dirFrame{root: root, path: root, real: realRoot}, entries)
}

// descend walks start, whose entries were already listed, and everything
// below it. Symlinks are queued on state instead of being followed.
func (w *Walker) descend(ctx context.Context, state *walkState, start dirFrame, entries []m.DirEntry) bool {
	stack := []dirFrame{start}
	listed := true

	for len(stack) > 0 {
		dir := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if listed {
			listed = false
		} else {
			var err error

			entries, err = w.fs.ListDirectory(dir.path)
			if err != nil {
				if !state.yield(WalkEntry{}, &m.TraversalError{Path: dir.path, Err: err}) {
					return false
				}

				continue
			}
		}

		var subdirs []dirFrame

		for _, entry := range entries {
			if err := ctx.Err(); err != nil {
				state.yield(WalkEntry{}, err)
				return false
			}

			next, ok := w.visitEntry(state, dir, entry)
			if !ok {
				return false
			}

			if next != nil {
				subdirs = append(subdirs, *next)
			}
		}

		// Push in reverse so subdirectories are popped in lexical order.
		for _, sub := range slices.Backward(subdirs) {
			stack = append(stack, sub)
		}
	}

	return true
}

// enterDir returns the frame for a subdirectory, or nil when it is excluded,
// too deep or already visited.
func (w *Walker) enterDir(state *walkState, dir dirFrame, name string, realPath m.Path) *dirFrame {
	if w.excluded(name) || state.visited[realPath] {
		return nil
	}

	if w.opts.MaxDepth > 0 && dir.depth+1 >= w.opts.MaxDepth {
		return nil
	}

	state.visited[realPath] = true

	return &dirFrame{
		root:  dir.root,
		path:  dir.path.Join(name),
		rel:   path.Join(dir.rel, name),
		real:  realPath,
		depth: dir.depth + 1,
	}
}

// visitEntry processes one listed entry. It returns a frame when the entry is
// a directory to descend into, and false when the consumer stopped.
func (w *Walker) visitEntry(state *walkState, dir dirFrame, entry m.DirEntry) (*dirFrame, bool) {
	childReal := dir.real.Join(entry.Name)

	switch entry.Kind {
	case m.KindSymlink:
		if w.opts.FollowSymlinks {
			state.links = append(state.links, pendingLink{dir: dir, name: entry.Name})
		}

		return nil, true
	case m.KindDir:
		return w.enterDir(state, dir, entry.Name, childReal), true
	case m.KindFile:
		if state.visited[childReal] {
			return nil, true
		}

		return nil, w.emitVisited(state, dir, entry.Name, childReal, entry.Info)
	default:
		return nil, true
	}
}

// followLink resolves a queued symlink. Linked directories are walked like
// roots; their own links are queued behind the current ones.
func (w *Walker) followLink(ctx context.Context, state *walkState, link pendingLink) bool {
	childPath := link.dir.path.Join(link.name)

	skip := func(err error) bool {
		return state.yield(WalkEntry{}, &m.TraversalError{Path: childPath, Err: err})
	}

	target, err := w.fs.RealPath(childPath)
	if err != nil {
		return skip(err)
	}

	if state.visited[target] {
		return true
	}

	info, err := w.fs.Stat(childPath)
	if err != nil {
		return skip(err)
	}

	switch info.Kind {
	case m.KindDir:
		frame := w.enterDir(state, link.dir, link.name, target)
		if frame == nil {
			return true
		}

		entries, err := w.fs.ListDirectory(frame.path)
		if err != nil {
			return skip(err)
		}

		return w.descend(ctx, state, *frame, entries)
	case m.KindFile:
		return w.emitVisited(state, link.dir, link.name, target, &info)
	default:
		return true
	}
}

// emitVisited reports a matched file and marks its real path as visited.
// Metadata missing from the listing is read only when the matcher needs it or
// the file matched.
func (w *Walker) emitVisited(state *walkState, dir dirFrame, name string, realPath m.Path, info *m.Metadata) bool {
	p := dir.path.Join(name)
	rel := path.Join(dir.rel, name)

	readInfo := func() error {
		if info != nil {
			return nil
		}

		md, err := w.fs.ReadMetadata(p)
		if err != nil {
			return err
		}

		info = &md

		return nil
	}

	skip := func(err error) bool {
		return state.yield(WalkEntry{}, &m.TraversalError{Path: p, Err: err})
	}

	cand := Candidate{Path: p, Rel: rel}

	if needsMetadata(w.matcher) {
		if err := readInfo(); err != nil {
			return skip(err)
		}

		cand.Info = info
	}

	if !w.matcher.Match(cand) {
		return true
	}

	if err := readInfo(); err != nil {
		return skip(err)
	}

	// The entry was replaced by something else after the listing.
	if info.Kind != m.KindFile {
		return true
	}

	state.visited[realPath] = true

	return state.yield(WalkEntry{Root: dir.root, Path: p, Rel: rel, Info: *info}, nil)
}

func (w *Walker) emitFile(root, p m.Path, rel string, info m.Metadata, yield func(WalkEntry, error) bool) bool {
	cand := Candidate{Path: p, Rel: rel}
	if needsMetadata(w.matcher) {
		cand.Info = &info
	}

	if !w.matcher.Match(cand) {
		return true
	}

	return yield(WalkEntry{Root: root, Path: p, Rel: rel, Info: info}, nil)
}

func (w *Walker) excluded(name string) bool {
	for _, pattern := range w.opts.ExcludeDirs {
		if ok, _ := filepath.Match(pattern, name); ok {
			return true
		}
	}

	return false
}
