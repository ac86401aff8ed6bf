package obs

import (
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
)

// NewLogger builds the process logger. Interactive dev runs get colorized
// text at debug level, which surfaces the token-resolution and image-stream
// traces; everything else gets info-level JSON tagged with the service name
// so log shippers can parse and route it.
func NewLogger(env string) *slog.Logger {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return slog.New(tint.NewHandler(os.Stdout, &tint.Options{
			Level:      slog.LevelDebug,
			TimeFormat: time.Kitchen,
		}))
	default:
		handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level:     slog.LevelInfo,
			AddSource: true,
		})
		return slog.New(handler).With("service", "tradehub")
	}
}
