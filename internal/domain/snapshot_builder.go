package domain

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	m "gooze.dev/pkg/rescan/internal/model"
)

// BuildOptions configures snapshot construction.
type BuildOptions struct {
	// Parallel bounds how many roots are walked at once (<= 1 = sequential).
	Parallel int
	// AllOrNothing discards the whole snapshot when any root fails.
	AllOrNothing bool
}

// BuildResult is the output of a snapshot build.
type BuildResult struct {
	// Snapshot is nil only when the build was cancelled or AllOrNothing
	// discarded a partial result.
	Snapshot    *m.Snapshot
	Diagnostics m.Diagnostics
}

// SnapshotBuilder drives walkers to completion and fingerprints every match.
type SnapshotBuilder struct {
	walker        *Walker
	fingerprinter *Fingerprinter
	opts          BuildOptions
	now           func() time.Time
	logger        *slog.Logger
}

// NewSnapshotBuilder creates a SnapshotBuilder.
func NewSnapshotBuilder(walker *Walker, fingerprinter *Fingerprinter, opts BuildOptions) *SnapshotBuilder {
	return &SnapshotBuilder{
		walker:        walker,
		fingerprinter: fingerprinter,
		opts:          opts,
		now:           time.Now,
		logger:        slog.Default(),
	}
}

type fileState struct {
	path m.Path
	fp   m.Fingerprint
}

type rootScan struct {
	files       []fileState
	diagnostics m.Diagnostics
	fatal       error
}

// Build scans every root and returns the merged snapshot. Roots are walked
// concurrently but merged in the order given, so the result does not depend on
// which worker finishes first. When the same path is reached from two roots
// the first root wins.
//
// A root that cannot be read yields a *model.FatalScanError. The other roots
// are still merged into the returned snapshot unless AllOrNothing is set.
// Cancellation returns the context error and no snapshot.
func (b *SnapshotBuilder) Build(ctx context.Context, roots []m.Path) (BuildResult, error) {
	capturedAt := b.now()
	scans := make([]rootScan, len(roots))

	var group errgroup.Group
	if b.opts.Parallel > 1 {
		group.SetLimit(b.opts.Parallel)
	} else {
		group.SetLimit(1)
	}

	for i, root := range roots {
		group.Go(func() error {
			scan, err := b.scanRoot(ctx, root)
			if err != nil {
				return err
			}

			scans[i] = scan

			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return BuildResult{}, err
	}

	var (
		result BuildResult
		fatals []error
	)

	files := make(map[m.Path]m.Fingerprint)

	for i, scan := range scans {
		result.Diagnostics = append(result.Diagnostics, scan.diagnostics...)

		if scan.fatal != nil {
			b.logger.Warn("root scan failed", "root", roots[i], "error", scan.fatal)
			fatals = append(fatals, scan.fatal)

			continue
		}

		for _, f := range scan.files {
			if _, dup := files[f.path]; dup {
				continue
			}

			files[f.path] = f.fp
		}
	}

	fatal := errors.Join(fatals...)
	if fatal != nil && b.opts.AllOrNothing {
		return BuildResult{Diagnostics: result.Diagnostics}, fatal
	}

	result.Snapshot = m.NewSnapshot(m.SnapshotHeader{CapturedAt: capturedAt, Roots: roots}, files)

	b.logger.Debug("snapshot built",
		"id", result.Snapshot.ID(),
		"roots", len(roots),
		"files", result.Snapshot.Len(),
		"hash", b.fingerprinter.Algorithm(),
		"diagnostics", len(result.Diagnostics),
	)

	return result, fatal
}

// scanRoot returns an error only when the context ended. A content read that
// fails while hashing drops the file and is recorded as a diagnostic.
func (b *SnapshotBuilder) scanRoot(ctx context.Context, root m.Path) (rootScan, error) {
	walked, err := b.walker.Collect(ctx, root)

	scan := rootScan{diagnostics: walked.Diagnostics}

	if err != nil {
		var fatal *m.FatalScanError
		if !errors.As(err, &fatal) {
			return rootScan{}, err
		}

		scan.fatal = fatal

		return scan, nil
	}

	for _, entry := range walked.Entries {
		if err := ctx.Err(); err != nil {
			return rootScan{}, err
		}

		fp, err := b.fingerprinter.Fingerprint(entry)
		if err != nil {
			scan.diagnostics = append(scan.diagnostics, &m.TraversalError{Path: entry.Path, Err: err})
			continue
		}

		scan.files = append(scan.files, fileState{path: entry.Path, fp: fp})
	}

	return scan, nil
}
