package telemetry

import (
	"log/slog"
	"os"
)

// InitSlog installs the default text logger. debug mode lowers the
// level so per-request logging shows up.
func InitSlog(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})))
}
