// Package logger provides centralized logging functionality for ccode.
// It configures structured logging with support for different output destinations and log levels.
package logger

import (
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

// Logger is the global logger instance used throughout ccode.
var Logger *log.Logger

// output is shared by the global logger and every component logger.
var output io.Writer = os.Stderr

func init() {
	Logger = log.New(output)
	Logger.SetTimeFormat("")
	Logger.SetLevel(log.InfoLevel)
}

// Configure sets up the logger based on CLI flags and environment variables.
// CLI flags take precedence over CCODE_LOG_LEVEL.
func Configure(logLevel string, logFile string) error {
	level := logLevel
	if level == "" {
		level = strings.ToLower(os.Getenv("CCODE_LOG_LEVEL"))
	}
	if level == "" {
		level = "info"
	}

	var w io.Writer = os.Stderr
	if logFile != "" {
		file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
		if err != nil {
			return err
		}
		w = file
	}

	SetOutput(w)
	Logger.SetLevel(ParseLevel(level))
	return nil
}

// SetOutput redirects the global logger and all component loggers created afterwards.
func SetOutput(w io.Writer) {
	level := Logger.GetLevel()
	output = w
	Logger = log.New(output)
	Logger.SetTimeFormat("")
	Logger.SetLevel(level)
}

// ParseLevel converts a level name to a log level, defaulting to info.
func ParseLevel(level string) log.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return log.DebugLevel
	case "info":
		return log.InfoLevel
	case "warn", "warning":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	case "fatal":
		return log.FatalLevel
	default:
		return log.InfoLevel
	}
}

// Debug logs a debug message with optional key-value pairs.
func Debug(msg interface{}, keyvals ...interface{}) {
	Logger.Debug(msg, keyvals...)
}

// Info logs an info message with optional key-value pairs.
func Info(msg interface{}, keyvals ...interface{}) {
	Logger.Info(msg, keyvals...)
}

// CommandExecution logs command execution details for debugging.
func CommandExecution(command string, args map[string]string) {
	Debug("Executing command", "command", command, "args", args)
}

// NewStyledLogger creates a logger with custom styles and prefix for component-specific logging
// (e.g. "ProfileStore", "ProxyConfig", "Backup").
func NewStyledLogger(prefix string) *log.Logger {
	styles := log.DefaultStyles()

	styles.Levels[log.InfoLevel] = badge("INFO", "33")   // Blue
	styles.Levels[log.ErrorLevel] = badge("ERROR", "196") // Red
	styles.Levels[log.DebugLevel] = badge("DEBUG", "240") // Gray
	styles.Levels[log.WarnLevel] = badge("WARN", "214")   // Orange
	styles.Levels[log.FatalLevel] = badge("FATAL", "88")  // Dark red

	styles.Keys["path"] = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	styles.Keys["name"] = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))
	styles.Keys["backup"] = lipgloss.NewStyle().Foreground(lipgloss.Color("99"))
	styles.Keys["route"] = lipgloss.NewStyle().Foreground(lipgloss.Color("51"))
	styles.Keys["error"] = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))

	styles.Values["backup"] = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99"))
	styles.Values["error"] = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))

	componentLogger := log.NewWithOptions(output, log.Options{
		Prefix: prefix + " ",
	})
	componentLogger.SetStyles(styles)
	componentLogger.SetLevel(Logger.GetLevel())

	return componentLogger
}

func badge(label, background string) lipgloss.Style {
	return lipgloss.NewStyle().
		SetString(label).
		Padding(0, 1, 0, 1).
		Background(lipgloss.Color(background)).
		Foreground(lipgloss.Color("15"))
}
