package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"gooze.dev/pkg/rescan/internal/controller"
	"gooze.dev/pkg/rescan/internal/domain"
	m "gooze.dev/pkg/rescan/internal/model"
)

// listCmd represents the list command.
var listCmd = newListCmd()

func newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list [roots...]",
		Short: "List tracked files",
		Long:  listLongDescription,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd.Context(), controller.NewSimpleUI(cmd), parsePaths(args))
		},
	}

	return cmd
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func runList(ctx context.Context, ui controller.UI, roots []m.Path) error {
	matcher, err := buildMatcher()
	if err != nil {
		return err
	}

	finder := domain.NewFinder(fsAdapter, walkOptions())

	paths, diags, err := finder.Search(ctx, roots, matcher)
	if displayErr := ui.DisplayPaths(ctx, paths); displayErr != nil {
		return displayErr
	}

	if displayErr := ui.DisplayDiagnostics(ctx, diags); displayErr != nil {
		return displayErr
	}

	return err
}
