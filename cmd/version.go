package cmd

import (
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/spf13/cobra"

	"gooze.dev/pkg/rescan/internal/adapter"
	m "gooze.dev/pkg/rescan/internal/model"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show the version information",
		Long: `Displays the build version, the Go version used to build rescan and the
hash algorithms and snapshot formats this build understands.`,
		Run: func(cmd *cobra.Command, _ []string) {
			version, goVersion := "unknown", runtime.Version()
			if info, ok := debug.ReadBuildInfo(); ok {
				if info.Main.Version != "" {
					version = info.Main.Version
				}

				goVersion = info.GoVersion
			}

			cmd.Println("rescan version\t", version)
			cmd.Println("go version\t", goVersion)
			cmd.Println("config version\t", currentConfigVersion)
			cmd.Println("hash algorithms\t", strings.Join(hashAlgorithms(), ", "))
			cmd.Println("snapshot formats\t", formatList())
		},
	}
}

// hashAlgorithms lists the accepted --hash values.
func hashAlgorithms() []string {
	return []string{"none", string(m.HashXXH3), string(m.HashSHA256)}
}

func formatList() string {
	formats := adapter.SnapshotFormats()
	names := make([]string, 0, len(formats))

	for _, f := range formats {
		names = append(names, string(f))
	}

	return strings.Join(names, ", ")
}

// versionCmd represents the version command.
var versionCmd = newVersionCmd()

func init() {
	rootCmd.AddCommand(versionCmd)
}
