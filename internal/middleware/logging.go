package middleware

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"volume-index/internal/logging"
)

// RequestIDHeader carries the per-request ID in both directions
const RequestIDHeader = "X-Request-ID"

// ServiceName is written into the W3C #Software directive
const ServiceName = "VolumeIndex/1.0"

// statusRecorder remembers the status and body size sent to the client
type statusRecorder struct {
	http.ResponseWriter
	status      int
	size        int64
	wroteHeader bool
}

func newStatusRecorder(w http.ResponseWriter) *statusRecorder {
	return &statusRecorder{ResponseWriter: w, status: http.StatusOK}
}

func (rec *statusRecorder) WriteHeader(code int) {
	if rec.wroteHeader {
		return
	}
	rec.status, rec.wroteHeader = code, true
	rec.ResponseWriter.WriteHeader(code)
}

func (rec *statusRecorder) Write(b []byte) (int, error) {
	rec.wroteHeader = true
	n, err := rec.ResponseWriter.Write(b)
	rec.size += int64(n)
	return n, err
}

// Flush lets streaming handlers work behind the logger
func (rec *statusRecorder) Flush() {
	if f, ok := rec.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// LoggingConfig holds configuration for the logging middleware
type LoggingConfig struct {
	SkipPaths       []string
	LogHealthChecks bool
}

// DefaultLoggingConfig returns the default configuration
func DefaultLoggingConfig() LoggingConfig {
	return LoggingConfig{
		SkipPaths:       []string{},
		LogHealthChecks: true,
	}
}

// W3CLogger writes access log lines in W3C Extended Log Format
type W3CLogger struct {
	config      LoggingConfig
	serviceName string
	headerOnce  bool
}

// NewW3CLogger creates a new W3C format logger
func NewW3CLogger(config LoggingConfig, serviceName string) *W3CLogger {
	return &W3CLogger{
		config:      config,
		serviceName: serviceName,
	}
}

// probePaths are left out of the access log unless LogHealthChecks is set
var probePaths = map[string]bool{
	"/health":  true,
	"/healthz": true,
	"/livez":   true,
	"/readyz":  true,
}

// sanitizeLogField turns CR and LF into spaces and drops other control
// characters except tab, so a field cannot forge a log line.
func sanitizeLogField(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\n' || r == '\r':
			return ' '
		case r == '\t':
			return r
		case r < 0x20:
			return -1
		}
		return r
	}, s)
}

// Logger returns HTTP logging middleware using W3C Extended Log Format.
// Every request gets an X-Request-ID; a client supplied ID is kept.
func Logger(config LoggingConfig) func(http.Handler) http.Handler {
	logger := NewW3CLogger(config, ServiceName)
	logger.writeHeader()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := requestIDFor(r)
			w.Header().Set(RequestIDHeader, requestID)

			if shouldSkip(r.URL.Path, config) {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			rec := newStatusRecorder(w)
			next.ServeHTTP(rec, r)
			logger.logRequest(r, rec, requestID, time.Since(start))
		})
	}
}

// requestIDFor returns the inbound request ID or a fresh UUID
func requestIDFor(r *http.Request) string {
	if id := sanitizeLogField(strings.TrimSpace(r.Header.Get(RequestIDHeader))); id != "" && len(id) <= 128 {
		return id
	}
	return uuid.NewString()
}

// writeHeader emits the W3C directives once per logger
func (l *W3CLogger) writeHeader() {
	if l.headerOnce {
		return
	}
	l.headerOnce = true
	logging.Printf("#Software: %s", l.serviceName)
	logging.Printf("#Fields: date time c-ip cs-method cs-uri-stem cs-uri-query sc-status sc-bytes time-taken sc(Content-Encoding) cs(User-Agent) cs(X-Request-ID)")
}

// logRequest writes one access log line
func (l *W3CLogger) logRequest(r *http.Request, rec *statusRecorder, requestID string, duration time.Duration) {
	logging.Printf("%s", l.formatLine(time.Now().UTC(), r, rec, requestID, duration))
}

// formatLine renders the fields announced by the #Fields directive
func (l *W3CLogger) formatLine(now time.Time, r *http.Request, rec *statusRecorder, requestID string, duration time.Duration) string {
	fields := []string{
		now.Format("2006-01-02"),
		now.Format("15:04:05"),
		w3cValue(getClientIP(r)),
		w3cValue(r.Method),
		w3cValue(r.URL.Path),
		w3cValue(r.URL.RawQuery),
		strconv.Itoa(rec.status),
		strconv.FormatInt(rec.size, 10),
		strconv.FormatInt(duration.Milliseconds(), 10),
		w3cValue(rec.Header().Get("Content-Encoding")),
		w3cValue(r.Header.Get("User-Agent")),
		w3cValue(requestID),
	}
	return strings.Join(fields, " ")
}

// w3cValue sanitizes and quotes one field; empty values become "-"
func w3cValue(s string) string {
	s = sanitizeLogField(s)
	if s == "" {
		return "-"
	}
	return escapeW3CField(s)
}

func shouldSkip(path string, config LoggingConfig) bool {
	for _, prefix := range config.SkipPaths {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return !config.LogHealthChecks && probePaths[path]
}

// getClientIP prefers the first X-Forwarded-For hop, then X-Real-IP, then
// the connection's remote host.
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// escapeW3CField quotes a value containing spaces, tabs or quotes.
// Embedded quotes are doubled.
func escapeW3CField(s string) string {
	if !strings.ContainsAny(s, " \t\"") {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
