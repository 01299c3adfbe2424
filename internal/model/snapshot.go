package model

import (
	"iter"
	"maps"
	"slices"
	"time"

	"github.com/google/uuid"
)

// SnapshotHeader carries the descriptive fields of a Snapshot.
type SnapshotHeader struct {
	ID         string
	CapturedAt time.Time
	Roots      []Path
}

// Snapshot is the tracked state of a tree at one instant. It is never mutated
// after construction; a rescan produces a new Snapshot.
type Snapshot struct {
	header SnapshotHeader
	files  map[Path]Fingerprint
}

// NewSnapshot copies files into a new Snapshot. An empty header ID is replaced
// by a random one.
func NewSnapshot(header SnapshotHeader, files map[Path]Fingerprint) *Snapshot {
	if header.ID == "" {
		header.ID = uuid.NewString()
	}

	header.Roots = slices.Clone(header.Roots)

	return &Snapshot{
		header: header,
		files:  maps.Clone(files),
	}
}

// ID returns the unique identifier of the snapshot.
func (s *Snapshot) ID() string {
	if s == nil {
		return ""
	}

	return s.header.ID
}

// CapturedAt returns the time the scan producing this snapshot started.
func (s *Snapshot) CapturedAt() time.Time {
	if s == nil {
		return time.Time{}
	}

	return s.header.CapturedAt
}

// Roots returns a copy of the roots the snapshot was built from.
func (s *Snapshot) Roots() []Path {
	if s == nil {
		return nil
	}

	return slices.Clone(s.header.Roots)
}

// Header returns a copy of the snapshot header.
func (s *Snapshot) Header() SnapshotHeader {
	if s == nil {
		return SnapshotHeader{}
	}

	h := s.header
	h.Roots = slices.Clone(h.Roots)

	return h
}

// Len returns the number of tracked files. A nil snapshot is empty.
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}

	return len(s.files)
}

// Get returns the fingerprint recorded for path.
func (s *Snapshot) Get(path Path) (Fingerprint, bool) {
	if s == nil {
		return Fingerprint{}, false
	}

	fp, ok := s.files[path]

	return fp, ok
}

// Has reports whether path is tracked.
func (s *Snapshot) Has(path Path) bool {
	_, ok := s.Get(path)
	return ok
}

// Paths returns the tracked paths in lexical order.
func (s *Snapshot) Paths() []Path {
	if s == nil {
		return nil
	}

	return slices.Sorted(maps.Keys(s.files))
}

// All iterates over path/fingerprint pairs in lexical path order.
func (s *Snapshot) All() iter.Seq2[Path, Fingerprint] {
	return func(yield func(Path, Fingerprint) bool) {
		for _, p := range s.Paths() {
			if !yield(p, s.files[p]) {
				return
			}
		}
	}
}
