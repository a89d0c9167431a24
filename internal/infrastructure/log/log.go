package log

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Config installs the process-wide JSON logger. Records use "severity" and
// "message" keys so they are parsed as structured entries by the log sink.
func Config(ctx context.Context, level string) {
	slog.SetDefault(slog.New(NewHandler(os.Stdout, level)))
}

func NewHandler(w io.Writer, level string) slog.Handler {
	return slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: parseLevel(level),
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == "level" {
				lowerCaseLevel := strings.ToLower(a.Value.String())

				return slog.Attr{
					Key:   "severity",
					Value: slog.StringValue(lowerCaseLevel),
				}
			}

			if a.Key == "msg" {
				return slog.Attr{
					Key:   "message",
					Value: a.Value,
				}
			}

			return a
		},
	})
}

func parseLevel(level string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return slog.LevelInfo
	}

	return l
}
