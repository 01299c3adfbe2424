package domain

import (
	"context"
	"time"

	m "gooze.dev/pkg/rescan/internal/model"
)

// PollEvent is the outcome of one rescan run by Poll.
type PollEvent struct {
	At          time.Time
	Changes     m.ChangeSet
	Diagnostics m.Diagnostics
	Tracked     int
	Err         error
}

// PollHandler receives poll notifications. ScanStarted is called before every
// rescan and ScanFinished after it.
type PollHandler interface {
	ScanStarted()
	ScanFinished(event PollEvent)
}

// Poll rescans immediately and then every interval until ctx ends. Failed
// rescans are reported to the handler and polling continues. It returns nil
// once ctx is done.
func Poll(ctx context.Context, tracker *Tracker, interval time.Duration, handler PollHandler) error {
	if interval <= 0 {
		interval = time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		handler.ScanStarted()

		changes, diags, err := tracker.Rescan(ctx)
		if ctx.Err() != nil {
			return nil
		}

		handler.ScanFinished(PollEvent{
			At:          time.Now(),
			Changes:     changes,
			Diagnostics: diags,
			Tracked:     tracker.Current().Len(),
			Err:         err,
		})

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
