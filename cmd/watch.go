package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"gooze.dev/pkg/rescan/internal/controller"
	"gooze.dev/pkg/rescan/internal/domain"
	m "gooze.dev/pkg/rescan/internal/model"
)

var intervalFlag string

// watchCmd represents the watch command.
var watchCmd = newWatchCmd()

func newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch [roots...]",
		Short: "Poll roots and print changes as they happen",
		Long:  watchLongDescription,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			roots := parsePaths(args)
			interval := watchInterval()

			var ui controller.WatchUI = controller.NewSimpleUI(cmd)
			if cmd.OutOrStdout() == os.Stdout && controller.IsTTY(os.Stdout) {
				ui = controller.NewWatchTUI(os.Stdout, roots, interval)
			}

			return runWatch(ctx, ui, roots, interval)
		},
	}

	cmd.Flags().StringVarP(&intervalFlag, intervalFlagName, "n", viper.GetString(intervalConfigKey), "time between rescans (e.g. 500ms, 2s)")
	bindFlagToConfig(cmd.Flags().Lookup(intervalFlagName), intervalConfigKey)

	return cmd
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

// runWatch polls until ctx ends or the UI asks to stop, then saves the last
// good snapshot.
func runWatch(ctx context.Context, ui controller.WatchUI, roots []m.Path, interval time.Duration) error {
	tracker, err := newTracker(roots)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := ui.Start(ctx); err != nil {
		return err
	}
	defer ui.Close()

	if done := ui.Done(); done != nil {
		go func() {
			select {
			case <-done:
				cancel()
			case <-ctx.Done():
			}
		}()
	}

	if err := domain.Poll(ctx, tracker, interval, ui); err != nil {
		return err
	}

	return saveState(tracker.Current())
}
