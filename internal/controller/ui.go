// Package controller renders scan results on the terminal.
package controller

import (
	"context"
	"io"
	"os"

	"golang.org/x/term"

	"gooze.dev/pkg/rescan/internal/domain"
	m "gooze.dev/pkg/rescan/internal/model"
)

// UI defines the interface for displaying scan output.
// Implementations can use different output methods (simple text, TUI, etc).
type UI interface {
	DisplayChanges(ctx context.Context, changes m.ChangeSet, snapshot *m.Snapshot) error
	DisplayDiagnostics(ctx context.Context, diagnostics m.Diagnostics) error
	DisplayPaths(ctx context.Context, paths []m.Path) error
	DisplayText(ctx context.Context, text string) error
}

// WatchUI reports a polling session. Done is closed when the user asks to
// stop; it may be nil when the UI has no way to do that.
type WatchUI interface {
	domain.PollHandler
	Start(ctx context.Context) error
	Done() <-chan struct{}
	Close()
}

// IsTTY reports whether w is an interactive terminal.
func IsTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}

	return term.IsTerminal(int(f.Fd()))
}
