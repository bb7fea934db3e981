package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

func requestLogger(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sr := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sr, r)

		logger.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"query", r.URL.RawQuery,
			"remote_addr", r.RemoteAddr,
			"status", sr.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

// slogPrinter adapts slog to the Println logger gorilla's recovery handler
// expects.
type slogPrinter struct {
	logger *slog.Logger
}

func (p slogPrinter) Println(v ...any) {
	p.logger.Error("handler panic", "panic", v)
}

func recoverer(logger *slog.Logger) func(http.Handler) http.Handler {
	return handlers.RecoveryHandler(
		handlers.RecoveryLogger(slogPrinter{logger: logger}),
		handlers.PrintRecoveryStack(false),
	)
}
