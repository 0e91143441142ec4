package utils_test

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/allenclove/BatchGitOps/internal/utils"
)

const (
	testLoggerFactoryCaseSupportedFormatConstant   = "supported_log_level_%s_format_%s"
	testLoggerFactoryCaseUnsupportedLevelConstant  = "unsupported_log_level"
	testLoggerFactoryCaseUnsupportedFormatConstant = "unsupported_log_format"
	testLoggerFactorySubtestTemplateConstant       = "%d_%s"
	testInvalidLogLevelConstant                    = "invalid"
	testInvalidLogFormatConstant                   = "invalid"
	testLogFileMessageConstant                     = "logger_factory_file_output_message"
	testLogDirectoryNameConstant                   = "logs"
)

func TestLoggerFactoryCreateLogger(testInstance *testing.T) {
	testCases := []struct {
		name               string
		requestedLogLevel  utils.LogLevel
		requestedLogFormat utils.LogFormat
		expectError        bool
	}{
		{
			name:               fmt.Sprintf(testLoggerFactoryCaseSupportedFormatConstant, utils.LogLevelDebug, utils.LogFormatStructured),
			requestedLogLevel:  utils.LogLevelDebug,
			requestedLogFormat: utils.LogFormatStructured,
		},
		{
			name:               fmt.Sprintf(testLoggerFactoryCaseSupportedFormatConstant, utils.LogLevelInfo, utils.LogFormatConsole),
			requestedLogLevel:  utils.LogLevelInfo,
			requestedLogFormat: utils.LogFormatConsole,
		},
		{
			name:               fmt.Sprintf(testLoggerFactoryCaseSupportedFormatConstant, utils.LogLevelWarn, utils.LogFormatStructured),
			requestedLogLevel:  utils.LogLevelWarn,
			requestedLogFormat: utils.LogFormatStructured,
		},
		{
			name:               testLoggerFactoryCaseUnsupportedLevelConstant,
			requestedLogLevel:  utils.LogLevel(testInvalidLogLevelConstant),
			requestedLogFormat: utils.LogFormatStructured,
			expectError:        true,
		},
		{
			name:               testLoggerFactoryCaseUnsupportedFormatConstant,
			requestedLogLevel:  utils.LogLevelInfo,
			requestedLogFormat: utils.LogFormat(testInvalidLogFormatConstant),
			expectError:        true,
		},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf(testLoggerFactorySubtestTemplateConstant, testCaseIndex, testCase.name), func(testInstance *testing.T) {
			loggerFactory := utils.NewLoggerFactory()

			logger, creationError := loggerFactory.CreateLogger(testCase.requestedLogLevel, testCase.requestedLogFormat)

			if testCase.expectError {
				require.Error(testInstance, creationError)
				require.Nil(testInstance, logger)
				return
			}

			require.NoError(testInstance, creationError)
			require.NotNil(testInstance, logger)
		})
	}
}

func TestLoggerFactoryCreateLoggerWithLogDirectory(testInstance *testing.T) {
	loggerFactory := utils.NewLoggerFactory()
	logDirectory := filepath.Join(testInstance.TempDir(), testLogDirectoryNameConstant)

	logger, logFilePath, creationError := loggerFactory.CreateLoggerWithLogDirectory(utils.LogLevelInfo, utils.LogFormatStructured, logDirectory)
	require.NoError(testInstance, creationError)
	require.NotNil(testInstance, logger)
	require.Equal(testInstance, logDirectory, filepath.Dir(logFilePath))

	logger.Info(testLogFileMessageConstant)
	_ = logger.Sync()

	logFileContents, readError := os.ReadFile(logFilePath)
	require.NoError(testInstance, readError)
	require.Contains(testInstance, string(logFileContents), testLogFileMessageConstant)
}

func TestLoggerFactoryCreateLoggerWithoutLogDirectory(testInstance *testing.T) {
	loggerFactory := utils.NewLoggerFactory()

	logger, logFilePath, creationError := loggerFactory.CreateLoggerWithLogDirectory(utils.LogLevelInfo, utils.LogFormatConsole, "")
	require.NoError(testInstance, creationError)
	require.NotNil(testInstance, logger)
	require.Empty(testInstance, logFilePath)
}
