// Package hplog builds the module-wide logger.
//
// The reference TNC this engine grew from gated diagnostics through a
// hand-rolled text_color_set/dw_printf pair keyed on a global verbosity
// level. We replace that indirection with a real structured logger but
// keep the same posture: one log sink, constructed once, passed down
// through constructors rather than reached for as a package global.
package hplog

import (
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
)

// New builds a logger writing to w at the given level ("debug", "info",
// "warn", "error"; unrecognised values fall back to "info").
func New(w io.Writer, level string) *log.Logger {
	if w == nil {
		w = os.Stderr
	}

	logger := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		ReportCaller:    false,
	})
	logger.SetLevel(parseLevel(level))

	return logger
}

func parseLevel(level string) log.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return log.DebugLevel
	case "warn", "warning":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}
