// Copyright (c) 2026 ToeiRei
// sshlure - SSH credential-capture honeypot
// This source code is licensed under the MIT license found in the LICENSE file.

package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	clog "github.com/charmbracelet/log"
)

// L is the package-level logger. Components derive scoped loggers from it
// with With.
var L = clog.NewWithOptions(os.Stderr, clog.Options{ReportTimestamp: true})

// Configure sets the level and output format of L. Supported formats are
// "text" (default), "json" and "logfmt".
func Configure(level, format string) error {
	lvl := clog.InfoLevel
	if strings.TrimSpace(level) != "" {
		parsed, err := clog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
		if err != nil {
			return fmt.Errorf("invalid log level %q: %w", level, err)
		}
		lvl = parsed
	}

	var f clog.Formatter
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "text":
		f = clog.TextFormatter
	case "json":
		f = clog.JSONFormatter
	case "logfmt":
		f = clog.LogfmtFormatter
	default:
		return fmt.Errorf("invalid log format %q", format)
	}

	L.SetLevel(lvl)
	L.SetFormatter(f)
	return nil
}

// SetOutput redirects L, mostly for tests.
func SetOutput(w io.Writer) {
	L.SetOutput(w)
}

// With returns a child of L carrying the given key/value pairs.
func With(keyvals ...interface{}) *clog.Logger {
	return L.With(keyvals...)
}

// Debugf logs a debug-level formatted message.
func Debugf(format string, v ...interface{}) {
	L.Debug(fmt.Sprintf(format, v...))
}

// Infof logs an info-level formatted message.
func Infof(format string, v ...interface{}) {
	L.Info(fmt.Sprintf(format, v...))
}

// Warnf logs a warning-level formatted message.
func Warnf(format string, v ...interface{}) {
	L.Warn(fmt.Sprintf(format, v...))
}

// Errorf logs an error-level formatted message.
func Errorf(format string, v ...interface{}) {
	L.Error(fmt.Sprintf(format, v...))
}
