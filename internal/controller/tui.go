package controller

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"gooze.dev/pkg/rescan/internal/domain"
	m "gooze.dev/pkg/rescan/internal/model"
)

const maxWatchLines = 500

// WatchTUI implements WatchUI using Bubble Tea for interactive display.
type WatchTUI struct {
	output   io.Writer
	roots    []m.Path
	interval time.Duration

	program *tea.Program
	done    chan struct{}
	err     error
}

// NewWatchTUI creates a new WatchTUI.
func NewWatchTUI(output io.Writer, roots []m.Path, interval time.Duration) *WatchTUI {
	return &WatchTUI{
		output:   output,
		roots:    roots,
		interval: interval,
		done:     make(chan struct{}),
	}
}

// Start runs the Bubble Tea program in the background.
func (t *WatchTUI) Start(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	model := newWatchModel(t.roots, t.interval, newChangeStyles(t.output))
	t.program = tea.NewProgram(model, tea.WithOutput(t.output), tea.WithContext(ctx), tea.WithAltScreen())

	go func() {
		defer close(t.done)

		_, t.err = t.program.Run()
	}()

	return nil
}

// Done is closed when the user quits the program.
func (t *WatchTUI) Done() <-chan struct{} {
	return t.done
}

// Err returns the error the program exited with, once Done is closed.
func (t *WatchTUI) Err() error {
	return t.err
}

// Close stops the program and waits for the terminal to be restored.
func (t *WatchTUI) Close() {
	if t.program == nil {
		return
	}

	t.program.Quit()
	<-t.done
}

// ScanStarted implements domain.PollHandler.
func (t *WatchTUI) ScanStarted() {
	if t.program != nil {
		t.program.Send(scanStartedMsg{})
	}
}

// ScanFinished implements domain.PollHandler.
func (t *WatchTUI) ScanFinished(event domain.PollEvent) {
	if t.program != nil {
		t.program.Send(scanFinishedMsg(event))
	}
}

type scanStartedMsg struct{}

type scanFinishedMsg domain.PollEvent

type watchLine struct {
	at   time.Time
	kind string
	text string
}

// watchModel is the Bubble Tea model for the watch screen.
type watchModel struct {
	spinner  spinner.Model
	styles   changeStyles
	title    lipgloss.Style
	roots    []m.Path
	interval time.Duration

	scanning bool
	scans    int
	tracked  int
	lines    []watchLine
	height   int
	quitting bool
}

func newWatchModel(roots []m.Path, interval time.Duration, styles changeStyles) watchModel {
	return watchModel{
		spinner:  spinner.New(spinner.WithSpinner(spinner.Dot)),
		styles:   styles,
		title:    lipgloss.NewStyle().Bold(true),
		roots:    roots,
		interval: interval,
	}
}

func (wm watchModel) Init() tea.Cmd {
	return nil
}

func (wm watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		wm.height = msg.Height
		return wm, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			wm.quitting = true
			return wm, tea.Quit
		}

		return wm, nil

	case scanStartedMsg:
		wm.scanning = true
		return wm, wm.spinner.Tick

	case scanFinishedMsg:
		wm.scanning = false
		wm.scans++
		wm.tracked = msg.Tracked
		wm.record(domain.PollEvent(msg))

		return wm, nil

	case spinner.TickMsg:
		if !wm.scanning {
			return wm, nil
		}

		var cmd tea.Cmd
		wm.spinner, cmd = wm.spinner.Update(msg)

		return wm, cmd
	}

	return wm, nil
}

func (wm *watchModel) record(event domain.PollEvent) {
	if event.Err != nil {
		wm.lines = append(wm.lines, watchLine{at: event.At, kind: "error", text: event.Err.Error()})
	}

	for _, change := range event.Changes.Changes() {
		wm.lines = append(wm.lines, watchLine{at: event.At, kind: change.Kind.String(), text: string(change.Path)})
	}

	for _, diag := range event.Diagnostics {
		wm.lines = append(wm.lines, watchLine{at: event.At, kind: "skipped", text: fmt.Sprintf("%s: %v", diag.Path, diag.Err)})
	}

	if len(wm.lines) > maxWatchLines {
		wm.lines = wm.lines[len(wm.lines)-maxWatchLines:]
	}
}

func (wm watchModel) View() string {
	if wm.quitting {
		return ""
	}

	var b strings.Builder

	b.WriteString(wm.title.Render(fmt.Sprintf("Watching %d root(s) every %s", len(wm.roots), wm.interval)))
	b.WriteString("\n")

	status := wm.styles.faint.Render("idle")
	if wm.scanning {
		status = wm.spinner.View() + " scanning"
	}

	fmt.Fprintf(&b, "%s  %d files tracked, %d scans\n\n", status, wm.tracked, wm.scans)

	for _, line := range wm.visibleLines() {
		fmt.Fprintf(&b, "%s %s %s\n",
			wm.styles.faint.Render(line.at.Format(time.TimeOnly)),
			wm.styleFor(line.kind).Render(fmt.Sprintf("%-9s", line.kind)),
			line.text,
		)
	}

	b.WriteString("\n")
	b.WriteString(wm.styles.faint.Render("q: quit"))
	b.WriteString("\n")

	return b.String()
}

// visibleLines returns the tail of the log that fits on screen.
func (wm watchModel) visibleLines() []watchLine {
	room := wm.height - 6
	if wm.height == 0 || room > len(wm.lines) {
		return wm.lines
	}

	if room < 1 {
		return nil
	}

	return wm.lines[len(wm.lines)-room:]
}

func (wm watchModel) styleFor(kind string) lipgloss.Style {
	switch kind {
	case m.Added.String():
		return wm.styles.added
	case m.Modified.String():
		return wm.styles.modified
	case m.Removed.String():
		return wm.styles.removed
	default:
		return wm.styles.warning
	}
}
