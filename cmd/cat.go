package cmd

import (
	"github.com/spf13/cobra"

	"gooze.dev/pkg/rescan/internal/controller"
	"gooze.dev/pkg/rescan/internal/domain"
	m "gooze.dev/pkg/rescan/internal/model"
)

var encodingFlag string

// catCmd represents the cat command.
var catCmd = newCatCmd()

func newCatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cat <path>",
		Short: "Print a file decoded from the given encoding",
		Long: `Print a file as UTF-8. The source encoding is any WHATWG label such as
utf-8, latin1, utf-16le or shift_jis.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := domain.NewLoader(fsAdapter).LoadText(m.Path(args[0]), encodingFlag)
			if err != nil {
				return err
			}

			return controller.NewSimpleUI(cmd).DisplayText(cmd.Context(), text)
		},
	}

	cmd.Flags().StringVar(&encodingFlag, encodingFlagName, "utf-8", "source text encoding")

	return cmd
}

func init() {
	rootCmd.AddCommand(catCmd)
}
