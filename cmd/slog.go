package main

import (
	"fmt"
	"log/slog"
	"os"
	"runtime/debug"
	"strings"
	"time"

	"github.com/lmittmann/tint"
)

// Logging is set up before main runs so config loading is already logged
// with the right handler. LOG_LEVEL=debug switches to coloured output with
// short source paths; anything else logs JSON to stderr.
func init() {
	level := slog.LevelInfo
	if raw := os.Getenv("LOG_LEVEL"); raw != "" {
		if err := level.UnmarshalText([]byte(raw)); err != nil {
			panic(fmt.Sprintf("invalid log level: %s", raw))
		}
	}

	if level > slog.LevelDebug {
		slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		return
	}

	prefix := modulePrefix()
	handler := tint.NewHandler(os.Stdout, &tint.Options{
		Level:      slog.LevelDebug,
		TimeFormat: time.TimeOnly,
		AddSource:  true,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if source, ok := a.Value.Any().(*slog.Source); ok && a.Key == slog.SourceKey {
				source.File = trimSource(source.File, prefix)
			}
			if err, ok := a.Value.Any().(error); ok {
				colored := tint.Err(err)
				colored.Key = a.Key
				return colored
			}
			return a
		},
	})
	slog.SetDefault(slog.New(handler))
	slog.Debug("debug logging enabled")
}

// modulePrefix returns "/<last module path element>/", e.g. "/course-admin/".
func modulePrefix() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Path != "" {
		parts := strings.Split(info.Main.Path, "/")
		return "/" + parts[len(parts)-1] + "/"
	}
	return "/course-admin/"
}

func trimSource(file, prefix string) string {
	if i := strings.LastIndex(file, prefix); i != -1 {
		return file[i+len(prefix):]
	}
	return file
}
