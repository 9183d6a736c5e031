package httpclient

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"
)

// Logger provides structured logging for outbound API calls.
type Logger interface {
	// LogCall logs a completed API call with timing info
	LogCall(ctx context.Context, call CallLog)

	// LogError logs an API call failure
	LogError(ctx context.Context, errLog ErrorLog)

	// LogInfo logs a pipeline-level progress message
	LogInfo(ctx context.Context, message string)

	// LogWarning logs a recovered, non-fatal condition
	LogWarning(ctx context.Context, message string)
}

// CallLog contains information about a completed call.
type CallLog struct {
	Service    string
	Operation  string
	Timestamp  time.Time
	Duration   time.Duration
	StatusCode int
}

// ErrorLog contains information about a failed call.
type ErrorLog struct {
	Service    string
	Operation  string
	Timestamp  time.Time
	Duration   time.Duration
	Err        error
	StatusCode int
	Retryable  bool
}

// LogLevel defines the logging verbosity level.
type LogLevel int

const (
	LogLevelDebug LogLevel = iota
	LogLevelInfo
	LogLevelError
)

// LogFormat defines the output format for logs.
type LogFormat int

const (
	LogFormatHuman LogFormat = iota
	LogFormatJSON
)

// DefaultLogger writes logs in structured format to the standard logger.
type DefaultLogger struct {
	level  LogLevel
	format LogFormat
}

// NewDefaultLogger creates a logger with the specified config.
func NewDefaultLogger(level LogLevel, format LogFormat) *DefaultLogger {
	return &DefaultLogger{level: level, format: format}
}

// LogCall logs a completed API call.
func (l *DefaultLogger) LogCall(ctx context.Context, call CallLog) {
	if l.level > LogLevelDebug {
		return
	}

	if l.format == LogFormatJSON {
		log.Printf(`{"level":"debug","type":"call","service":"%s","operation":"%s","timestamp":"%s","duration_ms":%d,"status_code":%d}`,
			call.Service, call.Operation, call.Timestamp.Format(time.RFC3339),
			call.Duration.Milliseconds(), call.StatusCode)
	} else {
		log.Printf("[DEBUG] %s: %s completed (duration=%.1fs, status=%d)",
			call.Service, call.Operation, call.Duration.Seconds(), call.StatusCode)
	}
}

// LogError logs a failed API call.
func (l *DefaultLogger) LogError(ctx context.Context, errLog ErrorLog) {
	if l.level > LogLevelError {
		return
	}

	retryableStr := "non-retryable"
	if errLog.Retryable {
		retryableStr = "retryable"
	}

	if l.format == LogFormatJSON {
		log.Printf(`{"level":"error","type":"error","service":"%s","operation":"%s","timestamp":"%s","duration_ms":%d,"error":"%s","status_code":%d,"retryable":%t}`,
			errLog.Service, errLog.Operation, errLog.Timestamp.Format(time.RFC3339),
			errLog.Duration.Milliseconds(), errLog.Err, errLog.StatusCode, errLog.Retryable)
	} else {
		log.Printf("[ERROR] %s: %s failed (status=%d, %s): %v",
			errLog.Service, errLog.Operation, errLog.StatusCode, retryableStr, errLog.Err)
	}
}

// LogInfo logs a progress message.
func (l *DefaultLogger) LogInfo(ctx context.Context, message string) {
	if l.level > LogLevelInfo {
		return
	}

	if l.format == LogFormatJSON {
		log.Printf(`{"level":"info","type":"progress","message":%q}`, message)
	} else {
		log.Printf("[INFO] %s", message)
	}
}

// LogWarning logs a recovered condition.
func (l *DefaultLogger) LogWarning(ctx context.Context, message string) {
	if l.level > LogLevelError {
		return
	}

	if l.format == LogFormatJSON {
		log.Printf(`{"level":"warning","type":"recovered","message":%q}`, message)
	} else {
		log.Printf("[WARN] %s", message)
	}
}

// RedactToken shows only the last 4 characters of a credential with explicit
// redaction markers. Used anywhere a token could reach a log line.
func RedactToken(token string) string {
	if len(token) <= 4 {
		return "[REDACTED]"
	}
	return fmt.Sprintf("[REDACTED-%s]", token[len(token)-4:])
}

// SanitizeMessage replaces occurrences of the credential in an error message
// with its redacted form. Transport errors can embed the full request URL,
// which may carry the credential.
func SanitizeMessage(message, token string) string {
	if token == "" {
		return message
	}
	return strings.ReplaceAll(message, token, RedactToken(token))
}

// NopLogger discards everything. Used when logging is disabled.
type NopLogger struct{}

func (NopLogger) LogCall(ctx context.Context, call CallLog)      {}
func (NopLogger) LogError(ctx context.Context, errLog ErrorLog)  {}
func (NopLogger) LogInfo(ctx context.Context, message string)    {}
func (NopLogger) LogWarning(ctx context.Context, message string) {}
