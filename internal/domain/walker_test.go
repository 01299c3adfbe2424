package domain

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gooze.dev/pkg/rescan/internal/adapter"
	m "gooze.dev/pkg/rescan/internal/model"
)

func sampleTree(t *testing.T) *faultyFs {
	t.Helper()

	return newFaultyFs(memTree(t, map[string]string{
		"/r/b.txt":         "b",
		"/r/c.log":         "c",
		"/r/a/z.txt":       "z",
		"/r/a/y/x.txt":     "x",
		"/r/.git/HEAD":     "ref",
		"/r/vendor/v.txt":  "v",
		"/other/o.txt":     "o",
		"/other/sub/p.txt": "p",
	}))
}

func TestWalker_LexicalOrder(t *testing.T) {
	w := NewWalker(memAdapter(sampleTree(t)), nil, DefaultWalkOptions())

	paths, errs := collectPaths(t, w, "/r")
	require.Empty(t, errs)

	assert.Equal(t, []string{
		"/r/b.txt",
		"/r/c.log",
		"/r/a/z.txt",
		"/r/a/y/x.txt",
		"/r/vendor/v.txt",
	}, paths)

	again, _ := collectPaths(t, w, "/r")
	assert.Equal(t, paths, again, "walking an unchanged tree is deterministic")
}

func TestWalker_EntryFields(t *testing.T) {
	w := NewWalker(memAdapter(sampleTree(t)), Names("x.txt"), DefaultWalkOptions())

	var entries []WalkEntry
	for entry, err := range w.Walk(t.Context(), "/r") {
		require.NoError(t, err)
		entries = append(entries, entry)
	}

	require.Len(t, entries, 1)
	assert.Equal(t, m.Path("/r"), entries[0].Root)
	assert.Equal(t, m.Path("/r/a/y/x.txt"), entries[0].Path)
	assert.Equal(t, "a/y/x.txt", entries[0].Rel)
	assert.Equal(t, int64(1), entries[0].Info.Size)
	assert.Equal(t, m.KindFile, entries[0].Info.Kind)
}

func TestWalker_Options(t *testing.T) {
	tests := []struct {
		name    string
		matcher PathMatcher
		opts    WalkOptions
		want    []string
	}{
		{
			name:    "extension filter",
			matcher: Extensions("log"),
			opts:    DefaultWalkOptions(),
			want:    []string{"/r/c.log"},
		},
		{
			name: "exclude dirs by pattern",
			opts: WalkOptions{ExcludeDirs: []string{".*", "vend*"}},
			want: []string{"/r/b.txt", "/r/c.log", "/r/a/z.txt", "/r/a/y/x.txt"},
		},
		{
			name: "no exclusions enters vcs dirs",
			opts: WalkOptions{},
			want: []string{"/r/b.txt", "/r/c.log", "/r/.git/HEAD", "/r/a/z.txt", "/r/a/y/x.txt", "/r/vendor/v.txt"},
		},
		{
			name: "depth one lists root entries only",
			opts: WalkOptions{MaxDepth: 1},
			want: []string{"/r/b.txt", "/r/c.log"},
		},
		{
			name: "depth two",
			opts: WalkOptions{MaxDepth: 2, ExcludeDirs: []string{".git"}},
			want: []string{"/r/b.txt", "/r/c.log", "/r/a/z.txt", "/r/vendor/v.txt"},
		},
		{
			name:    "metadata matcher",
			matcher: AllOf(MinSize(1), mustGlob(t, "a/**")),
			opts:    DefaultWalkOptions(),
			want:    []string{"/r/a/z.txt", "/r/a/y/x.txt"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := NewWalker(memAdapter(sampleTree(t)), tt.matcher, tt.opts)

			paths, errs := collectPaths(t, w, "/r")
			require.Empty(t, errs)
			assert.Equal(t, tt.want, paths)
		})
	}
}

func mustGlob(t *testing.T, pattern string) PathMatcher {
	t.Helper()

	matcher, err := Glob(pattern)
	require.NoError(t, err)

	return matcher
}

func TestWalker_MultipleRoots(t *testing.T) {
	w := NewWalker(memAdapter(sampleTree(t)), Extensions("txt"), DefaultWalkOptions())

	paths, errs := collectPaths(t, w, "/other", "/missing", "/r/a")
	require.Len(t, errs, 1)

	var fatal *m.FatalScanError
	require.ErrorAs(t, errs[0], &fatal)
	assert.Equal(t, m.Path("/missing"), fatal.Root)
	assert.True(t, m.IsNotFound(errs[0]))

	assert.Equal(t, []string{"/other/o.txt", "/other/sub/p.txt", "/r/a/z.txt", "/r/a/y/x.txt"}, paths)
}

func TestWalker_FileRoot(t *testing.T) {
	w := NewWalker(memAdapter(sampleTree(t)), nil, DefaultWalkOptions())

	var entries []WalkEntry
	for entry, err := range w.Walk(t.Context(), "/r/b.txt") {
		require.NoError(t, err)
		entries = append(entries, entry)
	}

	require.Len(t, entries, 1)
	assert.Equal(t, m.Path("/r/b.txt"), entries[0].Path)
	assert.Equal(t, "b.txt", entries[0].Rel)
}

func TestWalker_PermissionDenied(t *testing.T) {
	t.Run("unreadable subdirectory is a diagnostic", func(t *testing.T) {
		afs := sampleTree(t)
		afs.deny("/r/a", fs.ErrPermission)

		result, err := NewWalker(memAdapter(afs), nil, DefaultWalkOptions()).Collect(t.Context(), "/r")
		require.NoError(t, err)

		require.Len(t, result.Diagnostics, 1)
		assert.Equal(t, m.Path("/r/a"), result.Diagnostics[0].Path)
		assert.True(t, m.IsPermissionDenied(result.Diagnostics[0]))

		var paths []string
		for _, e := range result.Entries {
			paths = append(paths, string(e.Path))
		}

		assert.Equal(t, []string{"/r/b.txt", "/r/c.log", "/r/vendor/v.txt"}, paths)
	})

	t.Run("unreadable root is fatal", func(t *testing.T) {
		afs := sampleTree(t)
		afs.deny("/r", fs.ErrPermission)

		_, err := NewWalker(memAdapter(afs), nil, DefaultWalkOptions()).Collect(t.Context(), "/r")

		var fatal *m.FatalScanError
		require.ErrorAs(t, err, &fatal)
		assert.True(t, m.IsPermissionDenied(err))
	})
}

func TestWalker_Cancellation(t *testing.T) {
	w := NewWalker(memAdapter(sampleTree(t)), nil, DefaultWalkOptions())

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	var errs []error
	for _, err := range w.Walk(ctx, "/r", "/other") {
		errs = append(errs, err)
	}

	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], context.Canceled)
}

func TestWalker_CancelMidWalk(t *testing.T) {
	w := NewWalker(memAdapter(sampleTree(t)), nil, DefaultWalkOptions())

	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()

	var (
		seen    int
		lastErr error
	)

	for _, err := range w.Walk(ctx, "/r") {
		if err != nil {
			lastErr = err
			continue
		}

		seen++
		cancel()
	}

	assert.Equal(t, 1, seen)
	assert.ErrorIs(t, lastErr, context.Canceled)
}

func TestWalker_StopEarly(t *testing.T) {
	w := NewWalker(memAdapter(sampleTree(t)), nil, DefaultWalkOptions())

	var seen []m.Path
	for entry := range w.Walk(t.Context(), "/r") {
		seen = append(seen, entry.Path)
		if len(seen) == 2 {
			break
		}
	}

	assert.Equal(t, []m.Path{"/r/b.txt", "/r/c.log"}, seen)
}

func TestWalker_Symlinks(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "dir", "file.txt"), "data")
	writeFile(t, filepath.Join(root, "plain.txt"), "plain")

	// dir/loop points back at its parent.
	require.NoError(t, os.Symlink(root, filepath.Join(root, "dir", "loop")))
	require.NoError(t, os.Symlink(filepath.Join(root, "elsewhere"), filepath.Join(root, "dangling")))

	outside := t.TempDir()
	writeFile(t, filepath.Join(outside, "ext.txt"), "external")
	require.NoError(t, os.Symlink(outside, filepath.Join(root, "linked")))

	fsys := adapter.NewLocalSourceFSAdapter()

	t.Run("follows links once and terminates on cycles", func(t *testing.T) {
		result, err := NewWalker(fsys, nil, DefaultWalkOptions()).Collect(t.Context(), m.Path(root))
		require.NoError(t, err)

		var rels []string
		for _, e := range result.Entries {
			rels = append(rels, e.Rel)
		}

		assert.Equal(t, []string{"plain.txt", "dir/file.txt", "linked/ext.txt"}, rels)

		require.Len(t, result.Diagnostics, 1)
		assert.Equal(t, m.Path(filepath.Join(root, "dangling")), result.Diagnostics[0].Path)
		assert.True(t, m.IsNotFound(result.Diagnostics[0]))
	})

	t.Run("ignores links when not following", func(t *testing.T) {
		result, err := NewWalker(fsys, nil, WalkOptions{}).Collect(t.Context(), m.Path(root))
		require.NoError(t, err)
		assert.Empty(t, result.Diagnostics)

		var rels []string
		for _, e := range result.Entries {
			rels = append(rels, e.Rel)
		}

		assert.Equal(t, []string{"plain.txt", "dir/file.txt"}, rels)
	})

	t.Run("linked root", func(t *testing.T) {
		alias := filepath.Join(t.TempDir(), "alias")
		require.NoError(t, os.Symlink(outside, alias))

		result, err := NewWalker(fsys, nil, DefaultWalkOptions()).Collect(t.Context(), m.Path(alias))
		require.NoError(t, err)
		require.Len(t, result.Entries, 1)
		assert.Equal(t, m.Path(filepath.Join(alias, "ext.txt")), result.Entries[0].Path)
	})
}

func TestWalker_RootNotDirectory(t *testing.T) {
	if _, err := os.Stat("/dev/null"); err != nil {
		t.Skip("no /dev/null")
	}

	_, err := NewWalker(adapter.NewLocalSourceFSAdapter(), nil, DefaultWalkOptions()).Collect(t.Context(), "/dev/null")

	var fatal *m.FatalScanError
	require.True(t, errors.As(err, &fatal))
}

func TestWalker_LinksSortedBeforeTargets(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "sub", "real.txt"), "real")
	writeFile(t, filepath.Join(root, "sub", "deep", "more.txt"), "more")

	require.NoError(t, os.Symlink(filepath.Join(root, "sub", "real.txt"), filepath.Join(root, "a.lnk")))
	require.NoError(t, os.Symlink(filepath.Join(root, "sub"), filepath.Join(root, "b_dir")))
	require.NoError(t, os.Symlink(filepath.Join(root, "sub", "deep"), filepath.Join(root, "c_deep")))

	result, err := NewWalker(adapter.NewLocalSourceFSAdapter(), nil, DefaultWalkOptions()).Collect(t.Context(), m.Path(root))
	require.NoError(t, err)
	assert.Empty(t, result.Diagnostics)

	var rels []string
	for _, e := range result.Entries {
		rels = append(rels, e.Rel)
	}

	assert.Equal(t, []string{"sub/real.txt", "sub/deep/more.txt"}, rels)
}

func TestWalker_EntryVanishedMidWalk(t *testing.T) {
	tests := []struct {
		name    string
		matcher PathMatcher
	}{
		{"path matcher", nil},
		{"metadata matcher", MinSize(0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			afs := sampleTree(t)
			afs.vanish("/r/a/z.txt")

			result, err := NewWalker(memAdapter(afs), tt.matcher, DefaultWalkOptions()).Collect(t.Context(), "/r")
			require.NoError(t, err)

			require.Len(t, result.Diagnostics, 1)
			assert.Equal(t, m.Path("/r/a/z.txt"), result.Diagnostics[0].Path)
			assert.True(t, m.IsNotFound(result.Diagnostics[0]))

			var paths []string
			for _, e := range result.Entries {
				paths = append(paths, string(e.Path))
			}

			assert.Equal(t, []string{"/r/b.txt", "/r/c.log", "/r/a/y/x.txt", "/r/vendor/v.txt"}, paths)
		})
	}

	t.Run("excluded entries are never looked up", func(t *testing.T) {
		afs := sampleTree(t)
		afs.vanish("/r/a/z.txt")

		paths, errs := collectPaths(t, NewWalker(memAdapter(afs), Extensions("log"), DefaultWalkOptions()), "/r")
		assert.Empty(t, errs)
		assert.Equal(t, []string{"/r/c.log"}, paths)
	})
}
