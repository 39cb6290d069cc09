package common

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/arbor/models"
)

const (
	defaultTimeFormat = "15:04:05"
	logFileName       = "menuscout.log"
)

// SetupLogger builds the arbor logger from the logging configuration.
// Console output is always attached unless only "file" is requested.
func SetupLogger(config *Config) arbor.ILogger {
	logging := config.Logging

	timeFormat := logging.TimeFormat
	if timeFormat == "" {
		timeFormat = defaultTimeFormat
	}

	toFile, toConsole := false, false
	for _, output := range logging.Output {
		switch output {
		case "file":
			toFile = true
		case "stdout", "console":
			toConsole = true
		}
	}

	logger := arbor.NewLogger()

	if toFile {
		if err := os.MkdirAll(logging.Dir, 0755); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: cannot create log directory %s: %v\n", logging.Dir, err)
			toConsole = true
		} else {
			logger = logger.WithFileWriter(models.WriterConfiguration{
				Type:       models.LogWriterTypeFile,
				FileName:   filepath.Join(logging.Dir, logFileName),
				TimeFormat: timeFormat,
				MaxSize:    10 * 1024 * 1024,
				MaxBackups: 3,
				OutputType: models.OutputFormatLogfmt,
			})
		}
	}

	if toConsole || !toFile {
		logger = logger.WithConsoleWriter(models.WriterConfiguration{
			Type:       models.LogWriterTypeConsole,
			TimeFormat: timeFormat,
			OutputType: models.OutputFormatLogfmt,
		})
	}

	return logger.WithLevelFromString(logging.Level)
}
