package controller

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"gooze.dev/pkg/rescan/internal/domain"
	m "gooze.dev/pkg/rescan/internal/model"
)

// SimpleUI implements UI and WatchUI by printing to the cobra command output.
type SimpleUI struct {
	cmd    *cobra.Command
	styles changeStyles
}

type changeStyles struct {
	added    lipgloss.Style
	modified lipgloss.Style
	removed  lipgloss.Style
	warning  lipgloss.Style
	faint    lipgloss.Style
}

func newChangeStyles(w io.Writer) changeStyles {
	r := lipgloss.NewRenderer(w)

	return changeStyles{
		added:    r.NewStyle().Foreground(lipgloss.Color("2")),
		modified: r.NewStyle().Foreground(lipgloss.Color("3")),
		removed:  r.NewStyle().Foreground(lipgloss.Color("1")),
		warning:  r.NewStyle().Foreground(lipgloss.Color("5")).Bold(true),
		faint:    r.NewStyle().Faint(true),
	}
}

func (s changeStyles) forKind(kind m.ChangeKind) lipgloss.Style {
	switch kind {
	case m.Added:
		return s.added
	case m.Modified:
		return s.modified
	case m.Removed:
		return s.removed
	default:
		return s.faint
	}
}

// NewSimpleUI creates a new SimpleUI.
func NewSimpleUI(cmd *cobra.Command) *SimpleUI {
	return &SimpleUI{cmd: cmd, styles: newChangeStyles(cmd.OutOrStdout())}
}

// DisplayChanges prints a table of added, modified and removed files.
func (s *SimpleUI) DisplayChanges(ctx context.Context, changes m.ChangeSet, snapshot *m.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if !changes.HasChanges() {
		s.printf("%s\n", s.styles.faint.Render(fmt.Sprintf("No changes (%d files tracked)", snapshot.Len())))
		return nil
	}

	s.printf("\n%s", renderChangeTable(changes, snapshot))
	s.printf("%s\n", s.summary(changes))

	return nil
}

func (s *SimpleUI) summary(changes m.ChangeSet) string {
	parts := []string{
		s.styles.added.Render(fmt.Sprintf("%d added", len(changes.Added))),
		s.styles.modified.Render(fmt.Sprintf("%d modified", len(changes.Modified))),
		s.styles.removed.Render(fmt.Sprintf("%d removed", len(changes.Removed))),
		s.styles.faint.Render(fmt.Sprintf("%d unchanged", len(changes.Unchanged))),
	}

	return strings.Join(parts, ", ")
}

func renderChangeTable(changes m.ChangeSet, snapshot *m.Snapshot) string {
	var tableBuffer bytes.Buffer

	table := tablewriter.NewWriter(&tableBuffer)
	table.SetHeader([]string{"Change", "Path", "Size", "Modified"})
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetAutoWrapText(false)
	table.SetColumnAlignment([]int{
		tablewriter.ALIGN_LEFT,
		tablewriter.ALIGN_LEFT,
		tablewriter.ALIGN_RIGHT,
		tablewriter.ALIGN_LEFT,
	})

	for _, change := range changes.Changes() {
		size, modified := "-", "-"

		if fp, ok := snapshot.Get(change.Path); ok {
			size = fmt.Sprintf("%d", fp.Size)
			modified = fp.ModTime.Local().Format(time.DateTime)
		}

		table.Append([]string{change.Kind.String(), string(change.Path), size, modified})
	}

	table.Render()

	return tableBuffer.String()
}

// DisplayDiagnostics prints skipped entries.
func (s *SimpleUI) DisplayDiagnostics(ctx context.Context, diagnostics m.Diagnostics) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	for _, diag := range diagnostics {
		s.printf("%s %s: %v\n", s.styles.warning.Render("skipped"), diag.Path, diag.Err)
	}

	return nil
}

// DisplayPaths prints one path per line.
func (s *SimpleUI) DisplayPaths(ctx context.Context, paths []m.Path) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	for _, p := range paths {
		s.printf("%s\n", p)
	}

	return nil
}

// DisplayText prints text verbatim.
func (s *SimpleUI) DisplayText(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.printf("%s", text)

	return nil
}

// Start implements WatchUI.
func (s *SimpleUI) Start(ctx context.Context) error {
	return ctx.Err()
}

// Done implements WatchUI. SimpleUI is stopped by cancelling the context.
func (s *SimpleUI) Done() <-chan struct{} {
	return nil
}

// Close implements WatchUI.
func (s *SimpleUI) Close() {}

// ScanStarted implements domain.PollHandler.
func (s *SimpleUI) ScanStarted() {}

// ScanFinished prints one line per change, prefixed with the scan time.
func (s *SimpleUI) ScanFinished(event domain.PollEvent) {
	stamp := event.At.Format(time.TimeOnly)

	if event.Err != nil {
		s.printf("%s %s %v\n", stamp, s.styles.warning.Render("error"), event.Err)
		return
	}

	for _, change := range event.Changes.Changes() {
		s.printf("%s %s %s\n", stamp, s.styles.forKind(change.Kind).Render(fmt.Sprintf("%-8s", change.Kind)), change.Path)
	}

	for _, diag := range event.Diagnostics {
		s.printf("%s %s %s: %v\n", stamp, s.styles.warning.Render("skipped "), diag.Path, diag.Err)
	}
}

func (s *SimpleUI) printf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(s.cmd.OutOrStdout(), format, args...)
}
