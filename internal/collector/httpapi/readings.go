package httpapi

import (
	"net/http"
	"strconv"
)

const (
	defaultReadingsLimit = 20
	maxReadingsLimit     = 500
)

func (h *Handler) handleReadings(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit := defaultReadingsLimit
	if s := q.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 || n > maxReadingsLimit {
			writeError(w, http.StatusBadRequest, "limit must be between 1 and 500")
			return
		}
		limit = n
	}

	out, err := h.repo.LatestReadings(r.Context(), q.Get("node"), limit)
	if err != nil {
		h.logger.Error("list readings failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load readings")
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) handleNodes(w http.ResponseWriter, r *http.Request) {
	nodes, err := h.repo.Nodes(r.Context())
	if err != nil {
		h.logger.Error("list nodes failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load nodes")
		return
	}
	writeJSON(w, http.StatusOK, nodes)
}
