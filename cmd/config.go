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

	"github.com/jakechild/sleuth/internal/domain"
)

const (
	configVersionKey     = "version"
	currentConfigVersion = 1

	configBaseName   = "sleuth"
	configFileName   = configBaseName + ".yaml"
	configFolderPath = "."

	coverageDirKey   = "coverage.dir"
	reportsOutputKey = "reports.output"

	reportFormatKey = "report.format"
	reportPathKey   = "report.path"
	reportTopKey    = "report.top"
	reportMetricKey = "report.metric"

	runDriverKey      = "run.driver"
	runTestTimeoutKey = "run.test_timeout"
	runParallelKey    = "run.parallel"

	attributesKey = "discovery.attributes"
	excludeKey    = "paths.exclude"

	reportFormatFlagName = "report-format"
	reportPathFlagName   = "report-path"
	topFlagName          = "top"
	excludeFlagName      = "exclude"

	defaultCoverageDir = "Coverage"
	defaultReportsDir  = ".sleuth-reports"
	defaultTestTimeout = 30 * time.Second
	defaultRunParallel = 4

	envPrefix = "SLEUTH"

	logFilenameKey   = "log.filename"
	logLevelKey      = "log.level"
	logMaxSizeKey    = "log.max_size"
	logMaxBackupsKey = "log.max_backups"
	logMaxAgeKey     = "log.max_age"
	logCompressKey   = "log.compress"

	defaultLogFilename   = ".sleuth.log"
	defaultLogLevel      = int(slog.LevelInfo)
	defaultLogMaxSize    = 10
	defaultLogMaxBackups = 3
	defaultLogMaxAge     = 28
	defaultLogCompress   = true
)

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
	viper.SetDefault(coverageDirKey, defaultCoverageDir)
	viper.SetDefault(reportsOutputKey, defaultReportsDir)
	viper.SetDefault(reportFormatKey, string(domain.FormatCSV))
	viper.SetDefault(reportPathKey, "")
	viper.SetDefault(reportTopKey, 0)
	viper.SetDefault(reportMetricKey, domain.DefaultPrimaryMetric)
	viper.SetDefault(runDriverKey, "dotnet")
	viper.SetDefault(runTestTimeoutKey, int64(defaultTestTimeout.Seconds()))
	viper.SetDefault(runParallelKey, defaultRunParallel)
	viper.SetDefault(attributesKey, domain.DefaultTestAttributes)
	viper.SetDefault(excludeKey, []string{})

	// Logging defaults (used by config/env and as fallbacks for flags).
	viper.SetDefault(logFilenameKey, defaultLogFilename)
	viper.SetDefault(logLevelKey, defaultLogLevel)
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
// By default it logs at Info; if verbose is true it logs at Debug.
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
