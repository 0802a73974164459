// jsonlog.go - structured JSON logging for production environments.
//
// The plain log.Printf key=value lines stay for human consumption; this
// logger emits machine-parseable events when FR_LOG_FORMAT=json.
package server

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"
)

type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

var logLevelRank = map[LogLevel]int{
	LogLevelDebug: 0,
	LogLevelInfo:  1,
	LogLevelWarn:  2,
	LogLevelError: 3,
}

// Logger writes structured log entries, JSON-encoded when enabled.
type Logger struct {
	output     io.Writer
	minLevel   LogLevel
	enableJSON bool
}

// LogEntry is one structured log line.
type LogEntry struct {
	Level     LogLevel       `json:"level"`
	Time      string         `json:"time"`
	Message   string         `json:"msg"`
	Fields    map[string]any `json:"fields,omitempty"`
	Error     string         `json:"error,omitempty"`
	RequestID string         `json:"request_id,omitempty"`
}

// DefaultLogger is the process-wide logger instance.
var DefaultLogger *Logger

func init() {
	DefaultLogger = &Logger{
		output:     os.Stdout,
		minLevel:   logLevelFromEnv(),
		enableJSON: os.Getenv("FR_LOG_FORMAT") == "json" || os.Getenv("FR_ENV") == "production",
	}
}

func logLevelFromEnv() LogLevel {
	switch os.Getenv("FR_LOG_LEVEL") {
	case "debug":
		return LogLevelDebug
	case "warn":
		return LogLevelWarn
	case "error":
		return LogLevelError
	default:
		return LogLevelInfo
	}
}

func (l *Logger) log(level LogLevel, msg string, fields map[string]any, err error) {
	if logLevelRank[level] < logLevelRank[l.minLevel] {
		return
	}

	entry := LogEntry{
		Level:   level,
		Time:    time.Now().UTC().Format(time.RFC3339),
		Message: msg,
		Fields:  fields,
	}
	if err != nil {
		entry.Error = err.Error()
	}
	if rid, ok := fields["request_id"].(string); ok {
		entry.RequestID = rid
		// The caller's map is not ours to mutate.
		trimmed := make(map[string]any, len(fields)-1)
		for k, v := range fields {
			if k != "request_id" {
				trimmed[k] = v
			}
		}
		entry.Fields = trimmed
		if len(trimmed) == 0 {
			entry.Fields = nil
		}
	}

	if l.enableJSON {
		b, merr := json.Marshal(entry)
		if merr != nil {
			fmt.Fprintf(l.output, `{"level":"error","msg":"log marshal failed"}`+"\n")
			return
		}
		fmt.Fprintln(l.output, string(b))
		return
	}

	line := fmt.Sprintf("%s level=%s msg=%q", entry.Time, entry.Level, entry.Message)
	for k, v := range entry.Fields {
		line += fmt.Sprintf(" %s=%v", k, v)
	}
	if entry.Error != "" {
		line += fmt.Sprintf(" err=%q", entry.Error)
	}
	fmt.Fprintln(l.output, line)
}

func (l *Logger) Debug(msg string, fields map[string]any) { l.log(LogLevelDebug, msg, fields, nil) }
func (l *Logger) Info(msg string, fields map[string]any)  { l.log(LogLevelInfo, msg, fields, nil) }
func (l *Logger) Warn(msg string, fields map[string]any)  { l.log(LogLevelWarn, msg, fields, nil) }
func (l *Logger) Error(msg string, fields map[string]any, err error) {
	l.log(LogLevelError, msg, fields, err)
}
