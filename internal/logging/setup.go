// Package logging builds the slog handlers used by the coffeemaker binary.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/atlanticdynamic/coffeemaker/internal/logging/writers"
	"github.com/charmbracelet/log"
)

// Formats accepted by NewHandler.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// level is a parsed log level. Trace is debug with caller information.
type level struct {
	slog   slog.Level
	charm  log.Level
	trace  bool
	stamps bool
}

func parseLevel(logLevel string) level {
	switch strings.ToLower(logLevel) {
	case "trace":
		return level{slog: slog.LevelDebug, charm: log.DebugLevel, trace: true, stamps: true}
	case "debug":
		return level{slog: slog.LevelDebug, charm: log.DebugLevel, stamps: true}
	case "warn", "warning":
		return level{slog: slog.LevelWarn, charm: log.WarnLevel}
	case "error":
		return level{slog: slog.LevelError, charm: log.ErrorLevel}
	default:
		return level{slog: slog.LevelInfo, charm: log.InfoLevel}
	}
}

// SetupHandlerText configures a text slog handler with the provided writer and log level
func SetupHandlerText(logLevel string, writer io.Writer) slog.Handler {
	if writer == nil {
		writer = os.Stderr
	}
	lvl := parseLevel(logLevel)
	return log.NewWithOptions(writer, log.Options{
		ReportTimestamp: lvl.stamps,
		ReportCaller:    lvl.trace,
		Level:           lvl.charm,
	})
}

// SetupHandlerJSON configures a JSON slog handler with the provided writer and log level
func SetupHandlerJSON(logLevel string, writer io.Writer) slog.Handler {
	if writer == nil {
		writer = os.Stdout
	}
	lvl := parseLevel(logLevel)
	return slog.NewJSONHandler(writer, &slog.HandlerOptions{
		Level:     lvl.slog,
		AddSource: lvl.trace,
	})
}

// NewHandler builds a handler for format ("text" or "json") writing to
// output, as understood by writers.CreateWriter.
func NewHandler(format, logLevel, output string) (slog.Handler, error) {
	var w io.Writer = os.Stderr
	if output != "" {
		var err error
		if w, err = writers.CreateWriter(output); err != nil {
			return nil, err
		}
	}

	switch strings.ToLower(format) {
	case "", FormatText:
		return SetupHandlerText(logLevel, w), nil
	case FormatJSON:
		return SetupHandlerJSON(logLevel, w), nil
	default:
		return nil, fmt.Errorf("unknown log format: %s", format)
	}
}

// SetupLogger configures the default logger based on provided log level
func SetupLogger(logLevel string) {
	handler := SetupHandlerText(logLevel, nil)
	slog.SetDefault(slog.New(handler))
}
