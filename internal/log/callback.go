package log

import (
	"context"
	"log/slog"

	"github.com/nao1215/pngcipher/internal/model"
)

// Level maps a core severity onto the matching slog level.
func Level(s model.Severity) slog.Level {
	switch s {
	case model.SeverityWarning:
		return slog.LevelWarn
	case model.SeverityError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Callback adapts a logger into the LogFunc accepted by the codec and the
// pixel pipeline. A nil logger falls back to slog.Default().
func Callback(logger *slog.Logger) model.LogFunc {
	if logger == nil {
		logger = slog.Default()
	}
	return func(severity model.Severity, message string) {
		logger.Log(context.Background(), Level(severity), message)
	}
}
