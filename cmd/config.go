package cmd

import (
	"errors"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	configVersionKey     = "version"
	currentConfigVersion = 1

	configBaseName   = "rescan"
	configFileName   = configBaseName + ".yaml"
	configFolderPath = "."

	includeFlagName        = "include"
	extFlagName            = "ext"
	excludeFlagName        = "exclude"
	excludeDirFlagName     = "exclude-dir"
	hashFlagName           = "hash"
	parallelFlagName       = "parallel"
	maxDepthFlagName       = "max-depth"
	followSymlinksFlagName = "follow-symlinks"
	stateFlagName          = "state"
	noStateFlagName        = "no-state"
	intervalFlagName       = "interval"
	encodingFlagName       = "encoding"
	logFileFlagName        = "log-file"
	verboseFlagName        = "verbose"

	includeConfigKey        = "paths.include"
	extConfigKey            = "paths.ext"
	excludeConfigKey        = "paths.exclude"
	excludeDirConfigKey     = "paths.exclude_dirs"
	hashConfigKey           = "scan.hash"
	parallelConfigKey       = "scan.parallel"
	maxDepthConfigKey       = "scan.max_depth"
	followSymlinksConfigKey = "scan.follow_symlinks"
	stateFileConfigKey      = "state.file"
	noStateConfigKey        = "state.disabled"
	intervalConfigKey       = "watch.interval"

	defaultHash           = "none"
	defaultParallel       = 1
	defaultMaxDepth       = 0
	defaultFollowSymlinks = true
	defaultStateFile      = ".rescan-state.yaml"
	defaultNoState        = false
	defaultInterval       = 2 * time.Second

	envPrefix = "RESCAN"

	logFilenameKey   = "log.filename"
	logLevelKey      = "log.level"
	logVerboseKey    = "log.verbose"
	logMaxSizeKey    = "log.max_size"
	logMaxBackupsKey = "log.max_backups"
	logMaxAgeKey     = "log.max_age"
	logCompressKey   = "log.compress"

	defaultLogFilename   = ".rescan.log"
	defaultLogLevel      = "info"
	defaultLogVerbose    = false
	defaultLogMaxSize    = 10
	defaultLogMaxBackups = 3
	defaultLogMaxAge     = 28
	defaultLogCompress   = true
)

var defaultExcludeDirs = []string{".git", ".hg", ".svn"}

var globalLogger *slog.Logger

func init() {
	viper.SetConfigName(configBaseName)
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configFolderPath)
	viper.SetConfigFile(filepath.Join(configFolderPath, configFileName))
	viper.AutomaticEnv()
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))

	viper.SetDefault(configVersionKey, currentConfigVersion)
	viper.SetDefault(includeConfigKey, []string{})
	viper.SetDefault(extConfigKey, []string{})
	viper.SetDefault(excludeConfigKey, []string{})
	viper.SetDefault(excludeDirConfigKey, defaultExcludeDirs)
	viper.SetDefault(hashConfigKey, defaultHash)
	viper.SetDefault(parallelConfigKey, defaultParallel)
	viper.SetDefault(maxDepthConfigKey, defaultMaxDepth)
	viper.SetDefault(followSymlinksConfigKey, defaultFollowSymlinks)
	viper.SetDefault(stateFileConfigKey, defaultStateFile)
	viper.SetDefault(noStateConfigKey, defaultNoState)
	viper.SetDefault(intervalConfigKey, defaultInterval.String())

	viper.SetDefault(logFilenameKey, defaultLogFilename)
	viper.SetDefault(logLevelKey, defaultLogLevel)
	viper.SetDefault(logVerboseKey, defaultLogVerbose)
	viper.SetDefault(logMaxSizeKey, defaultLogMaxSize)
	viper.SetDefault(logMaxBackupsKey, defaultLogMaxBackups)
	viper.SetDefault(logMaxAgeKey, defaultLogMaxAge)
	viper.SetDefault(logCompressKey, defaultLogCompress)

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return
		}

		return
	}
}

func parseSlogLevel(value string, defaultLevel slog.Level) slog.Level {
	level := strings.ToLower(strings.TrimSpace(value))
	if level == "" {
		return defaultLevel
	}

	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}

	// Allow numeric slog levels as well (e.g. -4 for debug).
	if n, err := strconv.Atoi(level); err == nil {
		return slog.Level(n)
	}

	return defaultLevel
}

// configureLogger configures the global slog logger.
//
// By default it logs at the configured level; if verbose is true it logs at Debug.
func configureLogger(logPath string, verbose bool) {
	if strings.TrimSpace(logPath) == "" {
		logPath = viper.GetString(logFilenameKey)
	}

	if strings.TrimSpace(logPath) == "" {
		logPath = defaultLogFilename
	}

	var logLevel slog.Level
	if verbose {
		logLevel = slog.LevelDebug
	} else {
		logLevel = parseSlogLevel(viper.GetString(logLevelKey), slog.LevelInfo)
	}

	logWriter := &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    viper.GetInt(logMaxSizeKey),
		MaxBackups: viper.GetInt(logMaxBackupsKey),
		MaxAge:     viper.GetInt(logMaxAgeKey),
		Compress:   viper.GetBool(logCompressKey),
	}

	handler := slog.NewTextHandler(logWriter, &slog.HandlerOptions{
		AddSource: true,
		Level:     logLevel,
	})

	globalLogger = slog.New(handler)
	slog.SetDefault(globalLogger)
}

// watchInterval reads the poll interval, accepting durations ("5s") or a
// plain number of seconds.
func watchInterval() time.Duration {
	raw := strings.TrimSpace(viper.GetString(intervalConfigKey))
	if raw == "" {
		return defaultInterval
	}

	if d, err := time.ParseDuration(raw); err == nil && d > 0 {
		return d
	}

	if n, err := strconv.Atoi(raw); err == nil && n > 0 {
		return time.Duration(n) * time.Second
	}

	return defaultInterval
}
