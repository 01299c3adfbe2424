package cmd

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gooze.dev/pkg/rescan/internal/domain"
	m "gooze.dev/pkg/rescan/internal/model"
)

func TestParsePaths(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want []m.Path
	}{
		{"empty defaults to cwd", []string{}, []m.Path{"."}},
		{"single", []string{"./src"}, []m.Path{m.Path("./src")}},
		{
			"multiple",
			[]string{"./cmd", "./pkg", "./internal"},
			[]m.Path{m.Path("./cmd"), m.Path("./pkg"), m.Path("./internal")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parsePaths(tt.args)
			require.Len(t, got, len(tt.want))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewRootCmd(t *testing.T) {
	cmd := newRootCmd()
	assert.Equal(t, "rescan", cmd.Use)
	assert.NotEmpty(t, cmd.Short)
	assert.NotEmpty(t, cmd.Long)
	assert.Equal(t, rootLongDescription, cmd.Long)
}

func TestRootCmd_HelpOutput(t *testing.T) {
	cmd := newRootCmd()
	configureRootFlags(cmd)
	output := &bytes.Buffer{}
	cmd.SetOut(output)
	cmd.SetErr(&bytes.Buffer{})

	cmd.SetArgs([]string{"--log-file", filepath.Join(t.TempDir(), "rescan.log")})
	err := cmd.Execute()

	require.NoError(t, err)
	assert.Contains(t, output.String(), "Usage:")
	assert.Contains(t, output.String(), "--exclude-dir")
	assert.Contains(t, output.String(), "shell globs")
}

func TestInit(t *testing.T) {
	assert.NotNil(t, fsAdapter)
	assert.NotNil(t, snapshotStore)

	names := make([]string, 0, len(rootCmd.Commands()))
	for _, c := range rootCmd.Commands() {
		names = append(names, c.Name())
	}

	assert.Subset(t, names, []string{"scan", "list", "watch", "cat", "init", "version"})
}

func TestBuildMatcher(t *testing.T) {
	cmd := newRootCmd()
	configureRootFlags(cmd)
	require.NoError(t, cmd.ParseFlags([]string{
		"--include", "**/*.go",
		"--exclude", `_test\.go$`,
		"--state", "state.yaml",
	}))

	matcher, err := buildMatcher()
	require.NoError(t, err)

	tests := []struct {
		rel  string
		want bool
	}{
		{"main.go", true},
		{"pkg/util/util.go", true},
		{"pkg/util/util_test.go", false},
		{"README.md", false},
		{"state.yaml", false},
	}

	for _, tt := range tests {
		t.Run(tt.rel, func(t *testing.T) {
			c := domain.Candidate{Path: m.Path(tt.rel), Rel: tt.rel}
			assert.Equal(t, tt.want, matcher.Match(c))
		})
	}
}

func TestLogBackups(t *testing.T) {
	matcher := logBackups(".rescan.log")

	tests := []struct {
		rel  string
		want bool
	}{
		{".rescan-2026-10-19T08-30-00.000.log", true},
		{".rescan-2026-10-19T08-30-00.000.log.gz", true},
		{".rescan.log", false},
		{".rescan-notes.log", false},
		{".rescan-2026-10-19T08-30-00.000.txt", false},
		{"logs/.rescan-2026-10-19T08-30-00.000.log.gz", false},
		{"app-2026-10-19T08-30-00.000.log", false},
	}

	for _, tt := range tests {
		t.Run(tt.rel, func(t *testing.T) {
			c := domain.Candidate{Path: m.Path(tt.rel), Rel: tt.rel}
			assert.Equal(t, tt.want, matcher.Match(c))
		})
	}

	t.Run("no log file", func(t *testing.T) {
		rel := "-2026-10-19T08-30-00.000"
		assert.False(t, logBackups("").Match(domain.Candidate{Path: m.Path(rel), Rel: rel}))
	})
}

func TestBuildMatcher_SkipsOwnFiles(t *testing.T) {
	cmd := newRootCmd()
	configureRootFlags(cmd)
	require.NoError(t, cmd.ParseFlags([]string{
		"--state", "state.yaml",
		"--" + logFileFlagName, "scan.log",
	}))

	matcher, err := buildMatcher()
	require.NoError(t, err)

	for rel, want := range map[string]bool{
		"main.go":                             true,
		"state.yaml":                          false,
		"scan.log":                            false,
		"scan-2026-10-19T08-30-00.000.log.gz": false,
		"scan-2026-10-19T08-30-00.000.log":    false,
	} {
		c := domain.Candidate{Path: m.Path(rel), Rel: rel}
		assert.Equal(t, want, matcher.Match(c), rel)
	}
}

func TestBuildMatcher_InvalidRegex(t *testing.T) {
	cmd := newRootCmd()
	configureRootFlags(cmd)
	require.NoError(t, cmd.ParseFlags([]string{"--exclude", "("}))

	_, err := buildMatcher()
	require.Error(t, err)
}

func TestTrackerOptions_InvalidHash(t *testing.T) {
	cmd := newRootCmd()
	configureRootFlags(cmd)
	require.NoError(t, cmd.ParseFlags([]string{"--hash", "md5"}))

	_, err := trackerOptions()
	require.Error(t, err)
}

func TestExecute(t *testing.T) {
	originalRootCmd := rootCmd

	mockCmd := &cobra.Command{
		Use: "test",
		RunE: func(cmd *cobra.Command, args []string) error {
			return nil
		},
	}
	mockCmd.SetOut(&bytes.Buffer{})
	mockCmd.SetErr(&bytes.Buffer{})

	rootCmd = mockCmd

	Execute()

	rootCmd = originalRootCmd
}

func TestExecute_WithError(t *testing.T) {
	originalRootCmd := rootCmd
	defer func() {
		rootCmd = originalRootCmd
	}()

	mockCmd := &cobra.Command{
		Use: "test",
		RunE: func(cmd *cobra.Command, args []string) error {
			return fmt.Errorf("command failed")
		},
	}
	mockCmd.SetOut(&bytes.Buffer{})
	mockCmd.SetErr(&bytes.Buffer{})

	rootCmd = mockCmd

	err := rootCmd.Execute()
	require.Error(t, err)
}

func TestExecute_ProcessLevel_Failure(t *testing.T) {
	if os.Getenv("TEST_EXECUTE_SUBPROCESS_FAIL") == "1" {
		originalRootCmd := rootCmd
		mockCmd := &cobra.Command{
			Use: "test",
			RunE: func(cmd *cobra.Command, args []string) error {
				fmt.Fprintln(os.Stderr, "error occurred")
				return fmt.Errorf("command failed")
			},
		}
		mockCmd.SetOut(os.Stdout)
		mockCmd.SetErr(os.Stderr)
		rootCmd = mockCmd
		defer func() { rootCmd = originalRootCmd }()

		Execute() // exits with status 1
		return
	}

	cmd := exec.Command(os.Args[0], "-test.run=TestExecute_ProcessLevel_Failure")
	cmd.Env = append(os.Environ(), "TEST_EXECUTE_SUBPROCESS_FAIL=1")
	output, err := cmd.CombinedOutput()

	require.Error(t, err)

	if exitErr, ok := err.(*exec.ExitError); ok {
		assert.Equal(t, 1, exitErr.ExitCode())
	} else {
		assert.Fail(t, "expected exec.ExitError", "got %T", err)
	}

	assert.Contains(t, string(output), "error occurred")
}
