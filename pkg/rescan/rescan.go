// Package rescan tracks the files below a set of root directories and reports
// which were added, modified or removed between scans.
//
//	tracker, err := rescan.NewTracker([]rescan.Path{"./src"}, rescan.Extensions("go"))
//	changes, diags, err := tracker.Rescan(ctx)
package rescan

import (
	"context"
	"iter"

	"github.com/spf13/afero"

	"gooze.dev/pkg/rescan/internal/adapter"
	"gooze.dev/pkg/rescan/internal/domain"
	m "gooze.dev/pkg/rescan/internal/model"
)

type (
	Path              = m.Path
	Metadata          = m.Metadata
	Fingerprint       = m.Fingerprint
	HashAlgorithm     = m.HashAlgorithm
	Snapshot          = m.Snapshot
	SnapshotHeader    = m.SnapshotHeader
	ChangeKind        = m.ChangeKind
	Change            = m.Change
	ChangeSet         = m.ChangeSet
	Diagnostics       = m.Diagnostics
	IOError           = m.IOError
	TraversalError    = m.TraversalError
	FatalScanError    = m.FatalScanError
	MissingNamesError = m.MissingNamesError

	Candidate     = domain.Candidate
	PathMatcher   = domain.PathMatcher
	MatcherFunc   = domain.MatcherFunc
	WalkOptions   = domain.WalkOptions
	Tracker       = domain.Tracker
	TrackerOption = domain.TrackerOption
	LoadedFile    = domain.LoadedFile
)

const (
	HashNone   = m.HashNone
	HashXXH3   = m.HashXXH3
	HashSHA256 = m.HashSHA256

	Added     = m.Added
	Modified  = m.Modified
	Removed   = m.Removed
	Unchanged = m.Unchanged
)

var (
	MatchAll   = domain.MatchAll
	Extensions = domain.Extensions
	Names      = domain.Names
	Glob       = domain.Glob
	Regexp     = domain.Regexp
	Not        = domain.Not
	AllOf      = domain.AllOf
	AnyOf      = domain.AnyOf
	MinSize    = domain.MinSize

	WithHash            = domain.WithHash
	WithParallel        = domain.WithParallel
	WithExcludeDirs     = domain.WithExcludeDirs
	WithMaxDepth        = domain.WithMaxDepth
	WithFollowSymlinks  = domain.WithFollowSymlinks
	WithInitialSnapshot = domain.WithInitialSnapshot
	WithLogger          = domain.WithLogger
	WithClock           = domain.WithClock

	NewSnapshot        = m.NewSnapshot
	Diff               = domain.Diff
	DefaultWalkOptions = domain.DefaultWalkOptions
	ParseHashAlgorithm = m.ParseHashAlgorithm
	IsNotFound         = m.IsNotFound
	IsPermissionDenied = m.IsPermissionDenied
)

// NewTracker creates a tracker for roots on the local filesystem unless
// WithFs says otherwise.
func NewTracker(roots []Path, matcher PathMatcher, opts ...TrackerOption) (*Tracker, error) {
	return domain.NewTracker(roots, matcher, opts...)
}

// WithFs scans an afero filesystem instead of the local one.
func WithFs(afs afero.Fs) TrackerOption {
	return domain.WithFS(adapter.NewSourceFSAdapter(afs))
}

// Options configures the one-shot helpers. The zero value walks the local
// filesystem with DefaultWalkOptions and ignores per-entry failures.
type Options struct {
	Fs   afero.Fs
	Walk *WalkOptions
	// StrictFailures makes the first skipped entry abort the search.
	StrictFailures bool
}

func (o Options) finder() *domain.Finder {
	walk := domain.DefaultWalkOptions()
	if o.Walk != nil {
		walk = *o.Walk
	}

	f := domain.NewFinder(o.fs(), walk)
	f.IgnoreFailures = !o.StrictFailures

	return f
}

func (o Options) fs() adapter.SourceFSAdapter {
	if o.Fs == nil {
		return adapter.NewLocalSourceFSAdapter()
	}

	return adapter.NewSourceFSAdapter(o.Fs)
}

// Walk lazily yields matched files below roots. A *TraversalError marks a
// skipped entry, a *FatalScanError an unreadable root.
func Walk(ctx context.Context, roots []Path, matcher PathMatcher, opts Options) iter.Seq2[Path, error] {
	return opts.finder().Walk(ctx, roots, matcher)
}

// Search collects every matched file below roots.
func Search(ctx context.Context, roots []Path, matcher PathMatcher, opts Options) ([]Path, Diagnostics, error) {
	return opts.finder().Search(ctx, roots, matcher)
}

// FindNamed finds files by base name and reports names never seen with a
// *MissingNamesError.
func FindNamed(ctx context.Context, root Path, names []string, opts Options) ([]Path, Diagnostics, error) {
	return opts.finder().FindNamed(ctx, root, names...)
}

// FindByExtension calls fn for every file below root with one of exts.
func FindByExtension(ctx context.Context, root Path, exts []string, fn func(Path) error, opts Options) (Diagnostics, error) {
	return opts.finder().FindByExtension(ctx, root, exts, fn)
}

// FindAndLoad finds files by base name, maps each through transform and loads
// the result.
func FindAndLoad(ctx context.Context, root Path, names []string, transform func(Path) Path, opts Options) ([]LoadedFile, Diagnostics, error) {
	return opts.finder().FindAndLoad(ctx, root, names, transform)
}

// LoadBytes reads a whole file.
func LoadBytes(path Path, opts Options) ([]byte, error) {
	return domain.NewLoader(opts.fs()).LoadBytes(path)
}

// LoadText reads a file and decodes it from encoding ("" = UTF-8).
func LoadText(path Path, encoding string, opts Options) (string, error) {
	return domain.NewLoader(opts.fs()).LoadText(path, encoding)
}

// SaveSnapshot writes snapshot to path. The format follows the extension:
// .yaml, .yml, .toml, .json or .gob.
func SaveSnapshot(afs afero.Fs, path Path, snapshot *Snapshot) error {
	return store(afs).SaveSnapshot(path, snapshot)
}

// LoadSnapshot reads a snapshot written by SaveSnapshot. A missing file
// yields (nil, nil).
func LoadSnapshot(afs afero.Fs, path Path) (*Snapshot, error) {
	return store(afs).LoadSnapshot(path)
}

func store(afs afero.Fs) adapter.SnapshotStore {
	if afs == nil {
		return adapter.NewSnapshotStore()
	}

	return adapter.NewSnapshotStoreFs(afs)
}
