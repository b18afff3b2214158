package logging

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/arbor/models"

	"camwatch/internal/platform/config"
)

const timeFormat = "15:04:05"

// New builds the process logger. Console output is skipped when the host owns
// the terminal (the TUI), in which case only the file writer is attached.
func New(cfg config.LoggingConfig, console bool) arbor.ILogger {
	logger := arbor.NewLogger()

	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
			fmt.Fprintf(os.Stderr, "warning: create log directory: %v\n", err)
		} else {
			logger = logger.WithFileWriter(models.WriterConfiguration{
				Type:       models.LogWriterTypeFile,
				FileName:   cfg.File,
				TimeFormat: timeFormat,
				MaxSize:    10 * 1024 * 1024,
				MaxBackups: 3,
				TextOutput: true,
			})
		}
	}

	if console {
		logger = logger.WithConsoleWriter(models.WriterConfiguration{
			Type:             models.LogWriterTypeConsole,
			TimeFormat:       timeFormat,
			TextOutput:       true,
			DisableTimestamp: false,
		})
	}

	level := cfg.Level
	if level == "" {
		level = "info"
	}
	return logger.WithLevelFromString(level)
}

// Nop is used by tests and by adapters constructed without a logger.
func Nop() arbor.ILogger {
	return arbor.NewNoOpLogger()
}

// OrNop returns logger, or a no-op logger when it is nil.
func OrNop(logger arbor.ILogger) arbor.ILogger {
	if logger == nil {
		return Nop()
	}
	return logger
}
