// Package cmd provides the root command and CLI setup for rescan.
package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"gooze.dev/pkg/rescan/internal/adapter"
	"gooze.dev/pkg/rescan/internal/domain"
	m "gooze.dev/pkg/rescan/internal/model"
)

var fsAdapter adapter.SourceFSAdapter
var snapshotStore adapter.SnapshotStore

var (
	includePatterns []string
	extensions      []string
	excludePatterns []string
	excludeDirs     []string
	hashFlag        string
	parallelFlag    int
	maxDepthFlag    int
	followFlag      bool
	stateFileFlag   string
	noStateFlag     bool
	logFileFlag     string
	verboseFlag     bool
)

func init() {
	configureRootFlags(rootCmd)

	fsAdapter = adapter.NewLocalSourceFSAdapter()
	snapshotStore = adapter.NewSnapshotStore()
}

const pathPatternsHelp = `Roots default to the current directory. Files can be filtered with:
  --include '**/*.go'   shell globs ('**' spans directories)
  --ext go,md           extensions
  --exclude '_test\.go$' regular expressions on the path relative to its root`

const rootLongDescription = `Rescan tracks the files below one or more root directories and reports
which of them were added, modified or removed since the previous scan.

` + pathPatternsHelp

const scanLongDescription = `Scan the given roots, compare them with the saved state and print the
changes. The new state is saved unless --no-state is given.

` + pathPatternsHelp

const listLongDescription = `List the files below the given roots that pass the filters.

` + pathPatternsHelp

const watchLongDescription = `Rescan the given roots every --interval and print changes as they happen.
An interactive view is used when stdout is a terminal.

` + pathPatternsHelp

// rootCmd represents the base command when called without any subcommands.
var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rescan",
		Short: "File change tracking tool",
		Long:  rootLongDescription,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			configureLogger(viper.GetString(logFilenameKey), viper.GetBool(logVerboseKey))
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
		SilenceUsage: true,
	}
}

func configureRootFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()

	flags.StringSliceVarP(&includePatterns, includeFlagName, "i", viper.GetStringSlice(includeConfigKey), "only track files matching glob (can be repeated)")
	bindFlagToConfig(flags.Lookup(includeFlagName), includeConfigKey)

	flags.StringSliceVarP(&extensions, extFlagName, "e", viper.GetStringSlice(extConfigKey), "only track files with extension (can be repeated)")
	bindFlagToConfig(flags.Lookup(extFlagName), extConfigKey)

	flags.StringArrayVarP(&excludePatterns, excludeFlagName, "x", viper.GetStringSlice(excludeConfigKey), "exclude files matching regex (can be repeated)")
	bindFlagToConfig(flags.Lookup(excludeFlagName), excludeConfigKey)

	flags.StringSliceVar(&excludeDirs, excludeDirFlagName, viper.GetStringSlice(excludeDirConfigKey), "skip directories whose name matches glob")
	bindFlagToConfig(flags.Lookup(excludeDirFlagName), excludeDirConfigKey)

	flags.StringVar(&hashFlag, hashFlagName, viper.GetString(hashConfigKey), "content hash: none, xxh3 or sha256")
	bindFlagToConfig(flags.Lookup(hashFlagName), hashConfigKey)

	flags.IntVarP(&parallelFlag, parallelFlagName, "p", viper.GetInt(parallelConfigKey), "number of roots scanned concurrently")
	bindFlagToConfig(flags.Lookup(parallelFlagName), parallelConfigKey)

	flags.IntVar(&maxDepthFlag, maxDepthFlagName, viper.GetInt(maxDepthConfigKey), "maximum directory depth (0 = unlimited)")
	bindFlagToConfig(flags.Lookup(maxDepthFlagName), maxDepthConfigKey)

	flags.BoolVar(&followFlag, followSymlinksFlagName, viper.GetBool(followSymlinksConfigKey), "follow symbolic links")
	bindFlagToConfig(flags.Lookup(followSymlinksFlagName), followSymlinksConfigKey)

	flags.StringVar(&stateFileFlag, stateFlagName, viper.GetString(stateFileConfigKey), "state file (.yaml, .toml, .json or .gob)")
	bindFlagToConfig(flags.Lookup(stateFlagName), stateFileConfigKey)

	flags.BoolVar(&noStateFlag, noStateFlagName, viper.GetBool(noStateConfigKey), "do not read or write the state file")
	bindFlagToConfig(flags.Lookup(noStateFlagName), noStateConfigKey)

	flags.StringVar(&logFileFlag, logFileFlagName, viper.GetString(logFilenameKey), "log file path")
	bindFlagToConfig(flags.Lookup(logFileFlagName), logFilenameKey)

	flags.BoolVarP(&verboseFlag, verboseFlagName, "v", viper.GetBool(logVerboseKey), "enable debug logging")
	bindFlagToConfig(flags.Lookup(verboseFlagName), logVerboseKey)
}

// bindFlagToConfig wires a Cobra flag to a Viper key so config/env values feed the flag.
func bindFlagToConfig(flag *pflag.Flag, key string) {
	if flag == nil {
		cobra.CheckErr(fmt.Errorf("flag for config key %q not found", key))
		return
	}

	cobra.CheckErr(viper.BindPFlag(key, flag))
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func parsePaths(args []string) []m.Path {
	if len(args) == 0 {
		return []m.Path{"."}
	}

	paths := make([]m.Path, 0, len(args))
	for _, arg := range args {
		paths = append(paths, m.Path(arg))
	}

	return paths
}

// buildMatcher combines the include, extension and exclude filters. The state
// and log files are never tracked.
func buildMatcher() (domain.PathMatcher, error) {
	var matchers []domain.PathMatcher

	if includes := viper.GetStringSlice(includeConfigKey); len(includes) > 0 {
		glob, err := domain.Glob(includes...)
		if err != nil {
			return nil, err
		}

		matchers = append(matchers, glob)
	}

	if exts := viper.GetStringSlice(extConfigKey); len(exts) > 0 {
		matchers = append(matchers, domain.Extensions(exts...))
	}

	if excludes := viper.GetStringSlice(excludeConfigKey); len(excludes) > 0 {
		re, err := domain.Regexp(excludes...)
		if err != nil {
			return nil, err
		}

		matchers = append(matchers, domain.Not(re))
	}

	logFile := viper.GetString(logFilenameKey)

	matchers = append(matchers, domain.Not(domain.AnyOf(
		sameFile(viper.GetString(stateFileConfigKey), logFile),
		logBackups(logFile),
	)))

	return domain.AllOf(matchers...), nil
}

// sameFile matches candidates that resolve to one of paths.
func sameFile(paths ...string) domain.PathMatcher {
	set := make(map[string]bool, len(paths))

	for _, p := range paths {
		if p == "" {
			continue
		}

		if abs, err := filepath.Abs(p); err == nil {
			set[abs] = true
		}
	}

	return domain.MatcherFunc(func(c domain.Candidate) bool {
		abs, err := filepath.Abs(string(c.Path))
		return err == nil && set[abs]
	})
}

// logBackupTimeFormat is the timestamp lumberjack puts in rotated file names.
const logBackupTimeFormat = "2006-01-02T15-04-05.000"

// logBackups matches the rotated copies lumberjack keeps next to logFile,
// named <name>-<timestamp><ext> and optionally gzipped.
func logBackups(logFile string) domain.PathMatcher {
	if logFile == "" {
		return domain.MatcherFunc(func(domain.Candidate) bool { return false })
	}

	abs, err := filepath.Abs(logFile)
	if err != nil {
		return domain.MatcherFunc(func(domain.Candidate) bool { return false })
	}

	dir := filepath.Dir(abs)
	ext := filepath.Ext(abs)
	prefix := strings.TrimSuffix(filepath.Base(abs), ext) + "-"

	return domain.MatcherFunc(func(c domain.Candidate) bool {
		candidate, err := filepath.Abs(string(c.Path))
		if err != nil || filepath.Dir(candidate) != dir {
			return false
		}

		name := strings.TrimSuffix(filepath.Base(candidate), ".gz")
		if !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, ext) {
			return false
		}

		stamp := strings.TrimSuffix(strings.TrimPrefix(name, prefix), ext)
		_, err = time.Parse(logBackupTimeFormat, stamp)

		return err == nil
	})
}

func walkOptions() domain.WalkOptions {
	return domain.WalkOptions{
		ExcludeDirs:    viper.GetStringSlice(excludeDirConfigKey),
		MaxDepth:       viper.GetInt(maxDepthConfigKey),
		FollowSymlinks: viper.GetBool(followSymlinksConfigKey),
	}
}

func trackerOptions() ([]domain.TrackerOption, error) {
	alg, err := m.ParseHashAlgorithm(viper.GetString(hashConfigKey))
	if err != nil {
		return nil, err
	}

	walk := walkOptions()

	return []domain.TrackerOption{
		domain.WithFS(fsAdapter),
		domain.WithHash(alg),
		domain.WithParallel(viper.GetInt(parallelConfigKey)),
		domain.WithExcludeDirs(walk.ExcludeDirs...),
		domain.WithMaxDepth(walk.MaxDepth),
		domain.WithFollowSymlinks(walk.FollowSymlinks),
	}, nil
}
