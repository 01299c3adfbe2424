package domain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"gooze.dev/pkg/rescan/internal/adapter"
	m "gooze.dev/pkg/rescan/internal/model"
)

// TrackerOption is a functional option for NewTracker.
type TrackerOption func(*trackerConfig)

type trackerConfig struct {
	fs       adapter.SourceFSAdapter
	hash     m.HashAlgorithm
	walk     WalkOptions
	parallel int
	initial  *m.Snapshot
	logger   *slog.Logger
	now      func() time.Time
}

// WithFS sets the filesystem the tracker scans.
func WithFS(fs adapter.SourceFSAdapter) TrackerOption {
	return func(c *trackerConfig) {
		c.fs = fs
	}
}

// WithHash enables content hashing with alg.
func WithHash(alg m.HashAlgorithm) TrackerOption {
	return func(c *trackerConfig) {
		c.hash = alg
	}
}

// WithParallel walks up to n roots concurrently.
func WithParallel(n int) TrackerOption {
	return func(c *trackerConfig) {
		c.parallel = n
	}
}

// WithExcludeDirs replaces the directory exclusion patterns.
func WithExcludeDirs(patterns ...string) TrackerOption {
	return func(c *trackerConfig) {
		c.walk.ExcludeDirs = slices.Clone(patterns)
	}
}

// WithMaxDepth limits recursion depth.
func WithMaxDepth(depth int) TrackerOption {
	return func(c *trackerConfig) {
		c.walk.MaxDepth = depth
	}
}

// WithFollowSymlinks toggles symlink traversal.
func WithFollowSymlinks(follow bool) TrackerOption {
	return func(c *trackerConfig) {
		c.walk.FollowSymlinks = follow
	}
}

// WithInitialSnapshot seeds the tracker with a previously saved snapshot so
// the first rescan reports changes relative to it.
func WithInitialSnapshot(snapshot *m.Snapshot) TrackerOption {
	return func(c *trackerConfig) {
		c.initial = snapshot
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) TrackerOption {
	return func(c *trackerConfig) {
		c.logger = logger
	}
}

// WithClock overrides the capture timestamp source.
func WithClock(now func() time.Time) TrackerOption {
	return func(c *trackerConfig) {
		c.now = now
	}
}

// Tracker owns the current snapshot of a set of roots and reports what changed
// on every rescan.
//
// Rescans are serialized. Readers calling Current during a rescan keep seeing
// the previous snapshot until the new one is swapped in. A failed or cancelled
// rescan leaves the stored snapshot untouched.
type Tracker struct {
	roots   []m.Path
	builder *SnapshotBuilder
	logger  *slog.Logger

	mu      sync.Mutex
	current atomic.Pointer[m.Snapshot]
}

// NewTracker creates a tracker for roots. No filesystem access happens until
// the first Rescan.
func NewTracker(roots []m.Path, matcher PathMatcher, opts ...TrackerOption) (*Tracker, error) {
	if len(roots) == 0 {
		return nil, errors.New("tracker needs at least one root")
	}

	cfg := trackerConfig{
		walk:     DefaultWalkOptions(),
		parallel: 1,
		logger:   slog.Default(),
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.fs == nil {
		cfg.fs = adapter.NewLocalSourceFSAdapter()
	}

	builder := NewSnapshotBuilder(
		NewWalker(cfg.fs, matcher, cfg.walk),
		NewFingerprinter(cfg.fs, cfg.hash),
		BuildOptions{Parallel: cfg.parallel, AllOrNothing: true},
	)
	builder.now = cfg.now
	builder.logger = cfg.logger

	t := &Tracker{
		roots:   slices.Clone(roots),
		builder: builder,
		logger:  cfg.logger,
	}

	if cfg.initial != nil {
		t.current.Store(cfg.initial)
	}

	return t, nil
}

// Roots returns the tracked roots.
func (t *Tracker) Roots() []m.Path {
	return slices.Clone(t.roots)
}

// Current returns the last good snapshot, or nil before the first successful
// rescan. The snapshot is immutable and safe to share.
func (t *Tracker) Current() *m.Snapshot {
	return t.current.Load()
}

// Initialized reports whether a snapshot is held.
func (t *Tracker) Initialized() bool {
	return t.current.Load() != nil
}

// Rescan walks every root, diffs the result against the current snapshot and
// replaces it. Per-entry failures are returned as diagnostics. A file whose
// content cannot be read for hashing is left out of the new snapshot and
// reported as a diagnostic, so a previously tracked file in that state shows
// up as removed. An unreadable root or a cancelled context fails the rescan
// and keeps the current snapshot.
func (t *Tracker) Rescan(ctx context.Context) (m.ChangeSet, m.Diagnostics, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	started := time.Now()
	previous := t.current.Load()

	result, err := t.builder.Build(ctx, t.roots)
	if err != nil {
		t.logger.Warn("rescan failed, keeping previous snapshot", "previous", previous.ID(), "error", err)
		return m.ChangeSet{}, result.Diagnostics, fmt.Errorf("rescan: %w", err)
	}

	changes := Diff(previous, result.Snapshot)
	t.current.Store(result.Snapshot)

	for _, diag := range result.Diagnostics {
		t.logger.Warn("entry skipped", "path", diag.Path, "error", diag.Err)
	}

	t.logger.Debug("rescan complete",
		"snapshot", result.Snapshot.ID(),
		"added", len(changes.Added),
		"modified", len(changes.Modified),
		"removed", len(changes.Removed),
		"unchanged", len(changes.Unchanged),
		"elapsed", time.Since(started),
	)

	return changes, result.Diagnostics, nil
}
