package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	logLevelDebugStringConstant           = "debug"
	logLevelInfoStringConstant            = "info"
	logLevelWarnStringConstant            = "warn"
	logLevelErrorStringConstant           = "error"
	logFormatStructuredStringConstant     = "structured"
	logFormatConsoleStringConstant        = "console"
	jsonZapEncodingStringConstant         = "json"
	consoleZapEncodingStringConstant      = "console"
	unsupportedLogLevelTemplateConstant   = "unsupported log level: %s"
	unsupportedLogFormatTemplateConstant  = "unsupported log format: %s"
	logDirectoryCreationTemplateConstant  = "unable to create log directory %s: %w"
	standardErrorOutputPathConstant       = "stderr"
	logFileNameTemplateConstant           = "batchgitops_%s.log"
	logFileTimestampLayoutConstant        = "20060102_150405"
	logDirectoryPermissionsConstant       = 0o755
)

// LogLevel enumerates supported logging granularities.
type LogLevel string

// Exported log level constants for reuse across packages.
const (
	LogLevelDebug LogLevel = LogLevel(logLevelDebugStringConstant)
	LogLevelInfo  LogLevel = LogLevel(logLevelInfoStringConstant)
	LogLevelWarn  LogLevel = LogLevel(logLevelWarnStringConstant)
	LogLevelError LogLevel = LogLevel(logLevelErrorStringConstant)
)

// LogFormat enumerates supported logger output encodings.
type LogFormat string

// Exported log format constants for reuse across packages.
const (
	LogFormatStructured LogFormat = LogFormat(logFormatStructuredStringConstant)
	LogFormatConsole    LogFormat = LogFormat(logFormatConsoleStringConstant)
)

// LoggerFactory builds zap.Logger instances with consistent configuration.
type LoggerFactory struct{}

var logLevelMapping = map[LogLevel]zapcore.Level{
	LogLevelDebug: zapcore.DebugLevel,
	LogLevelInfo:  zapcore.InfoLevel,
	LogLevelWarn:  zapcore.WarnLevel,
	LogLevelError: zapcore.ErrorLevel,
}

var logFormatEncodingMapping = map[LogFormat]string{
	LogFormatStructured: jsonZapEncodingStringConstant,
	LogFormatConsole:    consoleZapEncodingStringConstant,
}

// NewLoggerFactory constructs a new logger factory.
func NewLoggerFactory() *LoggerFactory {
	return &LoggerFactory{}
}

// CreateLogger produces a zap.Logger honoring the requested log level and format.
func (factory *LoggerFactory) CreateLogger(requestedLogLevel LogLevel, requestedLogFormat LogFormat) (*zap.Logger, error) {
	logger, _, creationError := factory.CreateLoggerWithLogDirectory(requestedLogLevel, requestedLogFormat, "")
	return logger, creationError
}

// CreateLoggerWithLogDirectory produces a zap.Logger that additionally writes to a
// timestamped file inside logDirectory when the directory is non-empty. The second
// return value reports the log file path, or an empty string when file output is off.
func (factory *LoggerFactory) CreateLoggerWithLogDirectory(requestedLogLevel LogLevel, requestedLogFormat LogFormat, logDirectory string) (*zap.Logger, string, error) {
	zapLogLevel, levelExists := logLevelMapping[requestedLogLevel]
	if !levelExists {
		return nil, "", fmt.Errorf(unsupportedLogLevelTemplateConstant, requestedLogLevel)
	}

	encoding, formatExists := logFormatEncodingMapping[requestedLogFormat]
	if !formatExists {
		return nil, "", fmt.Errorf(unsupportedLogFormatTemplateConstant, requestedLogFormat)
	}

	configuration := zap.NewProductionConfig()
	configuration.Level = zap.NewAtomicLevelAt(zapLogLevel)
	configuration.Encoding = encoding
	configuration.OutputPaths = []string{standardErrorOutputPathConstant}

	logFilePath := ""
	if len(logDirectory) > 0 {
		directoryCreationError := os.MkdirAll(logDirectory, logDirectoryPermissionsConstant)
		if directoryCreationError != nil {
			return nil, "", fmt.Errorf(logDirectoryCreationTemplateConstant, logDirectory, directoryCreationError)
		}

		logFileName := fmt.Sprintf(logFileNameTemplateConstant, time.Now().Format(logFileTimestampLayoutConstant))
		logFilePath = filepath.Join(logDirectory, logFileName)
		configuration.OutputPaths = append(configuration.OutputPaths, logFilePath)
	}

	logger, buildError := configuration.Build()
	if buildError != nil {
		return nil, "", buildError
	}

	return logger, logFilePath, nil
}
