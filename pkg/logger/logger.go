package logger

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

type LogLevel int

const (
	ERROR LogLevel = iota
	WARN
	INFO
	DEBUG
)

var (
	currentLevel = getLogLevel()
	base         = newBase(os.Stderr)
)

const (
	API        = "API"
	APP        = "APP"
	AUTH       = "AUTH"
	BRIDGE     = "BRIDGE"
	CHAT       = "CHAT"
	CONFIG     = "CONFIG"
	HANDLER    = "HANDLER"
	MIDDLEWARE = "MIDDLEWARE"
	PREFS      = "PREFS"
	REDIS      = "REDIS"
	REVIEWS    = "REVIEWS"
	SERVICE    = "SERVICE"
)

func getLogLevel() LogLevel {
	level := strings.ToUpper(os.Getenv("LOG_LEVEL"))
	switch level {
	case "DEBUG":
		return DEBUG
	case "INFO":
		return INFO
	case "WARN":
		return WARN
	case "ERROR":
		return ERROR
	default:
		return INFO
	}
}

// newBase writes "<time> [LEVEL] [NS] message"; the level and namespace come from formatMessage
func newBase(w io.Writer) zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{
		Out:          w,
		NoColor:      true,
		TimeFormat:   "15:04:05",
		PartsExclude: []string{zerolog.LevelFieldName},
	}).With().Timestamp().Logger()
}

// SetOutput redirects the namespaced logger and returns a function restoring the previous writer.
func SetOutput(w io.Writer) func() {
	previous := base
	base = newBase(w)
	return func() {
		base = previous
	}
}

// SetLevel overrides the level read from LOG_LEVEL and returns a function restoring it
func SetLevel(level LogLevel) func() {
	previous := currentLevel
	currentLevel = level
	return func() {
		currentLevel = previous
	}
}

// Zerolog returns the logger backing the namespaced helpers, for callers that want structured fields.
func Zerolog() zerolog.Logger {
	return base
}

func formatMessage(level, namespace, format string, v ...interface{}) string {
	msg := fmt.Sprintf(format, v...)
	return fmt.Sprintf("[%s] [%s] %s", level, namespace, msg)
}

func Debug(namespace, format string, v ...interface{}) {
	if currentLevel >= DEBUG {
		base.Debug().Msg(formatMessage("DEBUG", namespace, format, v...))
	}
}

func Info(namespace, format string, v ...interface{}) {
	if currentLevel >= INFO {
		base.Info().Msg(formatMessage("INFO", namespace, format, v...))
	}
}

func Warn(namespace, format string, v ...interface{}) {
	if currentLevel >= WARN {
		base.Warn().Msg(formatMessage("WARN", namespace, format, v...))
	}
}

func Error(namespace, format string, v ...interface{}) {
	if currentLevel >= ERROR {
		base.Error().Msg(formatMessage("ERROR", namespace, format, v...))
	}
}

// Fatal logs without exiting; callers decide how to terminate.
func Fatal(namespace, format string, v ...interface{}) {
	base.WithLevel(zerolog.FatalLevel).Msg(formatMessage("FATAL", namespace, format, v...))
}
