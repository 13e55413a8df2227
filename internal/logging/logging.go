// Package logging configures the logrus logger shared by the CLI and servers.
package logging

import (
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"
)

// ParseLevel maps a --log-level value to a logrus level.
func ParseLevel(level string) (logrus.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return logrus.DebugLevel, nil
	case "", "info":
		return logrus.InfoLevel, nil
	case "warn", "warning":
		return logrus.WarnLevel, nil
	case "error":
		return logrus.ErrorLevel, nil
	default:
		return logrus.InfoLevel, fmt.Errorf("invalid log level: %v", level)
	}
}

// Formatter returns the formatter for a --log-format value.
func Formatter(format string) (logrus.Formatter, error) {
	switch strings.ToLower(format) {
	case "", "text":
		return &logrus.TextFormatter{DisableTimestamp: true}, nil
	case "json":
		return &logrus.JSONFormatter{}, nil
	case "json-pretty":
		return &logrus.JSONFormatter{PrettyPrint: true}, nil
	default:
		return nil, fmt.Errorf("invalid log format: %v", format)
	}
}

// New builds a logger writing to out.
func New(out io.Writer, level, format string) (*logrus.Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	f, err := Formatter(format)
	if err != nil {
		return nil, err
	}
	l := logrus.New()
	l.SetOutput(out)
	l.SetLevel(lvl)
	l.SetFormatter(f)
	return l, nil
}
