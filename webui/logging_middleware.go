// Package webui provides the dashboard and audit API for the freight
// delivery audit backend. This file contains the request logging middleware
// molecule.
package webui

import (
	"net/http"
	"time"

	"freightaudit/logging"

	"go.uber.org/zap"
)

// RequestLogEntry describes one completed HTTP request.
type RequestLogEntry struct {
	// Timestamp when the request started
	Timestamp time.Time

	// Method is the HTTP method (GET, POST, ...)
	Method string

	// Path is the URL path
	Path string

	// StatusCode is the response status code
	StatusCode int

	// Duration is how long the request took
	Duration time.Duration

	// RemoteAddr is the client's address
	RemoteAddr string

	// BytesWritten is the response size in bytes
	BytesWritten int64
}

// RequestLogger receives completed request entries.
type RequestLogger interface {
	LogRequest(entry RequestLogEntry)
}

// ZapRequestLogger logs requests through the structured logger.
type ZapRequestLogger struct {
	logger *logging.Logger
}

// NewZapRequestLogger wraps a logging.Logger as a RequestLogger.
func NewZapRequestLogger(logger *logging.Logger) *ZapRequestLogger {
	return &ZapRequestLogger{logger: logger.Named("http")}
}

// LogRequest logs one request at Info, or Warn for 4xx/5xx responses.
func (z *ZapRequestLogger) LogRequest(entry RequestLogEntry) {
	fields := []zap.Field{
		zap.String("method", entry.Method),
		zap.String("path", entry.Path),
		zap.Int("status", entry.StatusCode),
		zap.Duration("duration", entry.Duration.Round(time.Millisecond)),
		zap.String("remote", entry.RemoteAddr),
		zap.Int64("bytes", entry.BytesWritten),
	}
	if entry.StatusCode >= 400 {
		z.logger.Warn("request", fields...)
		return
	}
	z.logger.Info("request", fields...)
}

// NoopRequestLogger discards all entries. Used in tests.
type NoopRequestLogger struct{}

// LogRequest does nothing.
func (NoopRequestLogger) LogRequest(RequestLogEntry) {}

// LoggingMiddleware logs every HTTP request with method, path, status code
// and duration. Safe for concurrent requests.
type LoggingMiddleware struct {
	logger    RequestLogger
	skipPaths map[string]bool
}

// NewLoggingMiddleware creates a LoggingMiddleware. Paths in skipPaths are
// not logged (health probes poll frequently and would drown the log).
func NewLoggingMiddleware(logger RequestLogger, skipPaths ...string) *LoggingMiddleware {
	if logger == nil {
		logger = NoopRequestLogger{}
	}
	skip := make(map[string]bool, len(skipPaths))
	for _, path := range skipPaths {
		skip[path] = true
	}
	return &LoggingMiddleware{logger: logger, skipPaths: skip}
}

// Handler wraps next with request logging.
func (m *LoggingMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.skipPaths[r.URL.Path] {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		wrapped := &responseWriterWrapper{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next.ServeHTTP(wrapped, r)

		m.logger.LogRequest(RequestLogEntry{
			Timestamp:    start,
			Method:       r.Method,
			Path:         r.URL.Path,
			StatusCode:   wrapped.statusCode,
			Duration:     time.Since(start),
			RemoteAddr:   clientIP(r),
			BytesWritten: wrapped.bytesWritten,
		})
	})
}

// responseWriterWrapper captures the status code and bytes written.
type responseWriterWrapper struct {
	http.ResponseWriter
	statusCode   int
	bytesWritten int64
	wroteHeader  bool
}

func (w *responseWriterWrapper) WriteHeader(statusCode int) {
	if !w.wroteHeader {
		w.statusCode = statusCode
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *responseWriterWrapper) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	n, err := w.ResponseWriter.Write(b)
	w.bytesWritten += int64(n)
	return n, err
}

// Flush implements http.Flusher when the underlying writer supports it.
func (w *responseWriterWrapper) Flush() {
	if flusher, ok := w.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

// clientIP extracts the client IP, honoring X-Forwarded-For and X-Real-IP
// for proxied deployments.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		for i := 0; i < len(xff); i++ {
			if xff[i] == ',' {
				return xff[:i]
			}
		}
		return xff
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	return r.RemoteAddr
}
