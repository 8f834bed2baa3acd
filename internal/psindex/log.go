package psindex

import (
	"io"
	"log/slog"
	"os"
	"sync"
)

var (
	logger    *slog.Logger
	logOut    io.Writer = os.Stderr
	loggerMu  sync.RWMutex
	debugMode bool
)

func init() {
	logger = newLogger(logOut, slog.LevelInfo)
}

func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func SetDebugMode(enabled bool) {
	loggerMu.Lock()
	defer loggerMu.Unlock()
	debugMode = enabled

	level := slog.LevelInfo
	if enabled {
		level = slog.LevelDebug
	}
	logger = newLogger(logOut, level)
}

// SetLogOutput redirects log records, keeping the current level.
func SetLogOutput(w io.Writer) {
	loggerMu.Lock()
	defer loggerMu.Unlock()
	logOut = w

	level := slog.LevelInfo
	if debugMode {
		level = slog.LevelDebug
	}
	logger = newLogger(logOut, level)
}

func IsDebugMode() bool {
	loggerMu.RLock()
	defer loggerMu.RUnlock()
	return debugMode
}

func current() *slog.Logger {
	loggerMu.RLock()
	l := logger
	loggerMu.RUnlock()
	return l
}

func LogDebug(msg string, args ...any) {
	current().Debug(msg, args...)
}

func LogInfo(msg string, args ...any) {
	current().Info(msg, args...)
}

func LogWarn(msg string, args ...any) {
	current().Warn(msg, args...)
}

func LogError(msg string, args ...any) {
	current().Error(msg, args...)
}
