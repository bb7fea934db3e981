// Package httpapi serves the collector endpoints: the upload target, a
// timeapi.io stand-in, and read-only views of what was stored.
package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/handlers"

	"cloudpico-node/internal/collector/repository"
)

type Pinger interface {
	PingContext(ctx context.Context) error
}

type Handler struct {
	repo   repository.ReadingRepository
	db     Pinger
	now    func() time.Time
	logger *slog.Logger
}

func NewHandler(repo repository.ReadingRepository, db Pinger, logger *slog.Logger) *Handler {
	return &Handler{repo: repo, db: db, now: time.Now, logger: logger}
}

// Routes returns the full middleware-wrapped handler tree.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /dbinsert.php", h.handleInsert)
	mux.HandleFunc("GET /api/Time/current/zone", h.handleCurrentTime)
	mux.HandleFunc("GET /readings", h.handleReadings)
	mux.HandleFunc("GET /nodes", h.handleNodes)
	mux.HandleFunc("GET /healthz", h.handleHealthz)

	var root http.Handler = mux
	root = requestLogger(h.logger, root)
	root = handlers.ProxyHeaders(root)
	return recoverer(h.logger)(root)
}

func NewServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

func (h *Handler) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if err := h.db.PingContext(r.Context()); err != nil {
		h.logger.Error("failed to check database connectivity", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to check database connectivity")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
