package model

// ChangeKind classifies a path in a ChangeSet.
type ChangeKind int

const (
	// Added paths exist only in the new snapshot.
	Added ChangeKind = iota
	// Modified paths exist in both snapshots with different fingerprints.
	Modified
	// Removed paths exist only in the old snapshot.
	Removed
	// Unchanged paths exist in both snapshots with equal fingerprints.
	Unchanged
)

func (k ChangeKind) String() string {
	switch k {
	case Added:
		return "added"
	case Modified:
		return "modified"
	case Removed:
		return "removed"
	case Unchanged:
		return "unchanged"
	default:
		return "unknown"
	}
}

// Change is one classified path.
type Change struct {
	Path Path
	Kind ChangeKind
}

// ChangeSet partitions the union of two snapshots' paths. Every slice is
// sorted and the four slices are disjoint.
type ChangeSet struct {
	Added     []Path
	Modified  []Path
	Removed   []Path
	Unchanged []Path
}

// HasChanges reports whether anything was added, modified or removed.
func (c ChangeSet) HasChanges() bool {
	return len(c.Added)+len(c.Modified)+len(c.Removed) > 0
}

// Len returns the number of classified paths, unchanged included.
func (c ChangeSet) Len() int {
	return len(c.Added) + len(c.Modified) + len(c.Removed) + len(c.Unchanged)
}

// Changes lists added, modified and removed paths in that order.
func (c ChangeSet) Changes() []Change {
	out := make([]Change, 0, len(c.Added)+len(c.Modified)+len(c.Removed))

	for _, p := range c.Added {
		out = append(out, Change{Path: p, Kind: Added})
	}

	for _, p := range c.Modified {
		out = append(out, Change{Path: p, Kind: Modified})
	}

	for _, p := range c.Removed {
		out = append(out, Change{Path: p, Kind: Removed})
	}

	return out
}

// KindOf returns the classification of path, if the set contains it.
func (c ChangeSet) KindOf(path Path) (ChangeKind, bool) {
	groups := [...][]Path{Added: c.Added, Modified: c.Modified, Removed: c.Removed, Unchanged: c.Unchanged}
	for kind, group := range groups {
		for _, p := range group {
			if p == path {
				return ChangeKind(kind), true
			}
		}
	}

	return 0, false
}
