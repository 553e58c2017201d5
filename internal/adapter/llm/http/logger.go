package http

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"regexp"
	"sort"
	"strings"
	"time"

	"golang.org/x/term"
)

// Logger provides structured logging for API calls and run progress.
type Logger interface {
	// LogRequest logs an outgoing API request (API key redacted).
	LogRequest(ctx context.Context, req RequestLog)

	// LogResponse logs an API response with timing info.
	LogResponse(ctx context.Context, resp ResponseLog)

	// LogDebug, LogInfo and LogWarning log run progress with structured fields.
	LogDebug(ctx context.Context, message string, fields map[string]interface{})
	LogInfo(ctx context.Context, message string, fields map[string]interface{})
	LogWarning(ctx context.Context, message string, fields map[string]interface{})
}

// RequestLog contains request information for logging.
type RequestLog struct {
	Provider  string
	Method    string
	Target    string // model name or API path, never a full URL with secrets
	Timestamp time.Time
	BodyChars int
	APIKey    string // redacted to last 4 chars before output
}

// ResponseLog contains response information for logging.
type ResponseLog struct {
	Provider   string
	Target     string
	Timestamp  time.Time
	Duration   time.Duration
	StatusCode int
	TokensIn   int
	TokensOut  int
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

// AutoFormat picks the human format when stderr is a terminal and JSON
// otherwise, so CI log collectors get machine-parseable output.
func AutoFormat() LogFormat {
	if term.IsTerminal(int(os.Stderr.Fd())) {
		return LogFormatHuman
	}
	return LogFormatJSON
}

// DefaultLogger writes structured logs via the standard logger.
type DefaultLogger struct {
	level  LogLevel
	format LogFormat
}

// NewDefaultLogger creates a logger with the specified config.
func NewDefaultLogger(level LogLevel, format LogFormat) *DefaultLogger {
	return &DefaultLogger{level: level, format: format}
}

// LogRequest logs an API request at debug level.
func (l *DefaultLogger) LogRequest(ctx context.Context, req RequestLog) {
	if l.level > LogLevelDebug {
		return
	}

	redacted := RedactAPIKey(req.APIKey)
	if l.format == LogFormatJSON {
		l.emitJSON("debug", "request sent", map[string]interface{}{
			"provider":   req.Provider,
			"method":     req.Method,
			"target":     req.Target,
			"body_chars": req.BodyChars,
			"api_key":    redacted,
		})
		return
	}
	log.Printf("[DEBUG] %s %s %s: request sent (%d chars, key=%s)",
		req.Provider, req.Method, req.Target, req.BodyChars, redacted)
}

// LogResponse logs an API response at info level.
func (l *DefaultLogger) LogResponse(ctx context.Context, resp ResponseLog) {
	if l.level > LogLevelInfo {
		return
	}

	if l.format == LogFormatJSON {
		l.emitJSON("info", "response received", map[string]interface{}{
			"provider":    resp.Provider,
			"target":      resp.Target,
			"status":      resp.StatusCode,
			"duration_ms": resp.Duration.Milliseconds(),
			"tokens_in":   resp.TokensIn,
			"tokens_out":  resp.TokensOut,
		})
		return
	}
	log.Printf("[INFO] %s %s: HTTP %d in %s (tokens in=%d out=%d)",
		resp.Provider, resp.Target, resp.StatusCode, resp.Duration.Round(time.Millisecond),
		resp.TokensIn, resp.TokensOut)
}

// LogDebug logs a debug message with structured fields.
func (l *DefaultLogger) LogDebug(ctx context.Context, message string, fields map[string]interface{}) {
	if l.level > LogLevelDebug {
		return
	}
	l.emit("debug", "[DEBUG] ", message, fields)
}

// LogInfo logs an informational message with structured fields.
func (l *DefaultLogger) LogInfo(ctx context.Context, message string, fields map[string]interface{}) {
	if l.level > LogLevelInfo {
		return
	}
	l.emit("info", "[INFO] ", message, fields)
}

// LogWarning logs a warning message with structured fields.
func (l *DefaultLogger) LogWarning(ctx context.Context, message string, fields map[string]interface{}) {
	l.emit("warning", "[WARN] ", message, fields)
}

func (l *DefaultLogger) emit(level, prefix, message string, fields map[string]interface{}) {
	if l.format == LogFormatJSON {
		l.emitJSON(level, message, fields)
		return
	}
	log.Printf("%s%s%s", prefix, message, formatFields(fields))
}

func (l *DefaultLogger) emitJSON(level, message string, fields map[string]interface{}) {
	entry := map[string]interface{}{
		"level":   level,
		"message": message,
	}
	for k, v := range fields {
		entry[k] = v
	}
	data, err := json.Marshal(entry)
	if err != nil {
		log.Printf("[%s] %s%s", strings.ToUpper(level), message, formatFields(fields))
		return
	}
	log.Print(string(data))
}

func formatFields(fields map[string]interface{}) string {
	if len(fields) == 0 {
		return ""
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		b.WriteString(" ")
		b.WriteString(k)
		b.WriteString("=")
		b.WriteString(strings.TrimSpace(strings.ReplaceAll(
			strings.TrimSpace(jsonValue(fields[k])), "\n", " ")))
	}
	return b.String()
}

func jsonValue(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	data, err := json.Marshal(v)
	if err != nil {
		return "?"
	}
	return string(data)
}

// RedactAPIKey reduces a secret to its last 4 characters for log output.
func RedactAPIKey(key string) string {
	if key == "" {
		return ""
	}
	if len(key) <= 4 {
		return "****"
	}
	return "..." + key[len(key)-4:]
}

var urlSecretRE = regexp.MustCompile(`(key|token|api_key|access_token)=[^&\s]+`)

// RedactURLSecrets removes credential query parameters from text destined
// for logs or error output.
func RedactURLSecrets(text string) string {
	return urlSecretRE.ReplaceAllString(text, "$1=REDACTED")
}
