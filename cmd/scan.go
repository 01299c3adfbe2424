package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"gooze.dev/pkg/rescan/internal/controller"
	"gooze.dev/pkg/rescan/internal/domain"
	m "gooze.dev/pkg/rescan/internal/model"
)

// scanCmd represents the scan command.
var scanCmd = newScanCmd()

func newScanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scan [roots...]",
		Short: "Report changes since the last scan",
		Long:  scanLongDescription,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(cmd.Context(), controller.NewSimpleUI(cmd), parsePaths(args))
		},
	}
}

func init() {
	rootCmd.AddCommand(scanCmd)
}

func runScan(ctx context.Context, ui controller.UI, roots []m.Path) error {
	tracker, err := newTracker(roots)
	if err != nil {
		return err
	}

	changes, diags, err := tracker.Rescan(ctx)
	if err != nil {
		return err
	}

	if err := ui.DisplayDiagnostics(ctx, diags); err != nil {
		return err
	}

	if err := ui.DisplayChanges(ctx, changes, tracker.Current()); err != nil {
		return err
	}

	return saveState(tracker.Current())
}

// newTracker builds a tracker from the current configuration, seeded with the
// saved state when there is one.
func newTracker(roots []m.Path) (*domain.Tracker, error) {
	matcher, err := buildMatcher()
	if err != nil {
		return nil, err
	}

	opts, err := trackerOptions()
	if err != nil {
		return nil, err
	}

	previous, err := loadState()
	if err != nil {
		return nil, err
	}

	if previous != nil {
		opts = append(opts, domain.WithInitialSnapshot(previous))
	}

	return domain.NewTracker(roots, matcher, opts...)
}

func loadState() (*m.Snapshot, error) {
	if viper.GetBool(noStateConfigKey) {
		return nil, nil
	}

	path := m.Path(viper.GetString(stateFileConfigKey))

	snapshot, err := snapshotStore.LoadSnapshot(path)
	if err != nil {
		return nil, fmt.Errorf("load state %s: %w", path, err)
	}

	if snapshot != nil {
		slog.Debug("loaded state", "path", path, "snapshot", snapshot.ID(), "files", snapshot.Len())
	}

	return snapshot, nil
}

func saveState(snapshot *m.Snapshot) error {
	if snapshot == nil || viper.GetBool(noStateConfigKey) {
		return nil
	}

	path := m.Path(viper.GetString(stateFileConfigKey))

	if err := snapshotStore.SaveSnapshot(path, snapshot); err != nil {
		return fmt.Errorf("save state %s: %w", path, err)
	}

	return nil
}
