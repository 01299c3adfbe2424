package domain

import (
	m "gooze.dev/pkg/rescan/internal/model"
)

// Diff classifies every path of previous and current. A nil previous snapshot
// is treated as empty, so a first scan reports every file as Added. Snapshots
// iterate in lexical order, which keeps every group of the result sorted.
//
// A file that was deleted and recreated with an identical fingerprint between
// the two snapshots is reported as Unchanged.
func Diff(previous, current *m.Snapshot) m.ChangeSet {
	var changes m.ChangeSet

	for path, fp := range current.All() {
		prev, ok := previous.Get(path)

		switch {
		case !ok:
			changes.Added = append(changes.Added, path)
		case !prev.Equal(fp):
			changes.Modified = append(changes.Modified, path)
		default:
			changes.Unchanged = append(changes.Unchanged, path)
		}
	}

	for path := range previous.All() {
		if !current.Has(path) {
			changes.Removed = append(changes.Removed, path)
		}
	}

	return changes
}
