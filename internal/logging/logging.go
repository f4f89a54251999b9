// Package logging builds the application logger: JSON lines on stdout plus a
// size-rotated activity file under the layout's log directory.
package logging

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"informeclaro/internal/config"
)

// ActivityFile is the name of the rotating log file inside the log directory.
const ActivityFile = "app_activity.log"

// New returns a logger writing to stdout and to logDir/app_activity.log.
// The returned closer flushes and closes the rotating file.
func New(cfg config.LogConfig, logDir string) (*logrus.Logger, io.Closer) {
	rotator := &lumberjack.Logger{
		Filename:   filepath.Join(logDir, ActivityFile),
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
	}
	return NewWithWriter(io.MultiWriter(os.Stdout, rotator), cfg.Level), rotator
}

// NewWithWriter returns a JSON logger writing to w, gated at level.
func NewWithWriter(w io.Writer, level string) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(w)
	logger.SetLevel(ParseLevel(level))
	logger.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: time.RFC3339Nano,
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime: "ts",
		},
	})
	return logger
}

// ParseLevel maps a level name to a logrus level, defaulting to info.
func ParseLevel(s string) logrus.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return logrus.DebugLevel
	case "warn", "warning":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

// Discard returns a logger that drops everything; handy in tests.
func Discard() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}
