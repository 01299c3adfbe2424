package controller

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gooze.dev/pkg/rescan/internal/domain"
	m "gooze.dev/pkg/rescan/internal/model"
)

func newBufferedUI() (*SimpleUI, *bytes.Buffer) {
	var buf bytes.Buffer

	cmd := &cobra.Command{}
	cmd.SetOut(&buf)

	return NewSimpleUI(cmd), &buf
}

func testSnapshot() *m.Snapshot {
	modTime := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	return m.NewSnapshot(m.SnapshotHeader{Roots: []m.Path{"/w"}}, map[m.Path]m.Fingerprint{
		"/w/new.go":  {Size: 42, ModTime: modTime},
		"/w/edit.go": {Size: 7, ModTime: modTime},
		"/w/same.go": {Size: 1, ModTime: modTime},
	})
}

func TestSimpleUI_DisplayChanges(t *testing.T) {
	tests := []struct {
		name         string
		changes      m.ChangeSet
		wantContains []string
		wantMissing  []string
	}{
		{
			name:         "no changes",
			changes:      m.ChangeSet{Unchanged: []m.Path{"/w/edit.go", "/w/new.go", "/w/same.go"}},
			wantContains: []string{"No changes (3 files tracked)"},
			wantMissing:  []string{"PATH"},
		},
		{
			name: "mixed changes",
			changes: m.ChangeSet{
				Added:     []m.Path{"/w/new.go"},
				Modified:  []m.Path{"/w/edit.go"},
				Removed:   []m.Path{"/w/gone.go"},
				Unchanged: []m.Path{"/w/same.go"},
			},
			wantContains: []string{
				"CHANGE", "PATH", "SIZE",
				"added", "/w/new.go", "42",
				"modified", "/w/edit.go",
				"removed", "/w/gone.go",
				"1 added, 1 modified, 1 removed, 1 unchanged",
			},
			wantMissing: []string{"/w/same.go", "No changes"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ui, buf := newBufferedUI()

			require.NoError(t, ui.DisplayChanges(t.Context(), tt.changes, testSnapshot()))

			got := buf.String()
			for _, want := range tt.wantContains {
				assert.Contains(t, got, want)
			}

			for _, missing := range tt.wantMissing {
				assert.NotContains(t, got, missing)
			}
		})
	}
}

func TestSimpleUI_DisplayChanges_RemovedHasNoSize(t *testing.T) {
	ui, buf := newBufferedUI()

	require.NoError(t, ui.DisplayChanges(t.Context(), m.ChangeSet{Removed: []m.Path{"/w/gone.go"}}, testSnapshot()))

	for _, line := range strings.Split(buf.String(), "\n") {
		if strings.Contains(line, "/w/gone.go") {
			assert.Contains(t, line, "-")
			return
		}
	}

	t.Fatalf("removed path missing from output: %s", buf.String())
}

func TestSimpleUI_DisplayDiagnosticsAndPaths(t *testing.T) {
	ui, buf := newBufferedUI()

	diags := m.Diagnostics{
		{Path: "/w/locked", Err: m.NewIOError("open", "/w/locked", fs.ErrPermission)},
	}

	require.NoError(t, ui.DisplayDiagnostics(t.Context(), diags))
	require.NoError(t, ui.DisplayPaths(t.Context(), []m.Path{"/w/a.go", "/w/b.go"}))
	require.NoError(t, ui.DisplayText(t.Context(), "verbatim"))

	got := buf.String()
	assert.Contains(t, got, "skipped /w/locked")
	assert.Contains(t, got, "permission denied")
	assert.Contains(t, got, "/w/a.go\n/w/b.go\n")
	assert.True(t, strings.HasSuffix(got, "verbatim"))
}

func TestSimpleUI_CancelledContext(t *testing.T) {
	ui, buf := newBufferedUI()

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	require.ErrorIs(t, ui.DisplayChanges(ctx, m.ChangeSet{}, nil), context.Canceled)
	require.ErrorIs(t, ui.DisplayDiagnostics(ctx, nil), context.Canceled)
	require.ErrorIs(t, ui.DisplayPaths(ctx, nil), context.Canceled)
	require.ErrorIs(t, ui.DisplayText(ctx, "x"), context.Canceled)
	require.ErrorIs(t, ui.Start(ctx), context.Canceled)
	assert.Empty(t, buf.String())
}

func TestSimpleUI_ScanFinished(t *testing.T) {
	at := time.Date(2025, 6, 1, 14, 30, 15, 0, time.Local)

	t.Run("changes and diagnostics", func(t *testing.T) {
		ui, buf := newBufferedUI()
		assert.Nil(t, ui.Done())

		ui.ScanStarted()
		ui.ScanFinished(domain.PollEvent{
			At: at,
			Changes: m.ChangeSet{
				Added:   []m.Path{"/w/a.go"},
				Removed: []m.Path{"/w/b.go"},
			},
			Diagnostics: m.Diagnostics{{Path: "/w/x", Err: errors.New("boom")}},
		})
		ui.Close()

		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		require.Len(t, lines, 3)
		assert.Equal(t, "14:30:15 added    /w/a.go", lines[0])
		assert.Equal(t, "14:30:15 removed  /w/b.go", lines[1])
		assert.Contains(t, lines[2], "/w/x: boom")
	})

	t.Run("error", func(t *testing.T) {
		ui, buf := newBufferedUI()

		ui.ScanFinished(domain.PollEvent{At: at, Err: errors.New("root vanished")})

		assert.Equal(t, "14:30:15 error root vanished\n", buf.String())
	})

	t.Run("quiet scan prints nothing", func(t *testing.T) {
		ui, buf := newBufferedUI()

		ui.ScanFinished(domain.PollEvent{At: at, Changes: m.ChangeSet{Unchanged: []m.Path{"/w/a.go"}}})

		assert.Empty(t, buf.String())
	})
}
