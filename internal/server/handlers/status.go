// internal/server/handlers/status.go

package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"sentiscan/internal/domain/mention"
	"sentiscan/internal/service/listening"
)

// ProgressReader exposes the live state of a collection run
type ProgressReader interface {
	Snapshot() listening.ProgressSnapshot
	Records(limit int) []mention.Record
}

// defaultRecordLimit caps /records when no limit is given
const defaultRecordLimit = 50

// StatusHandler handles run status HTTP requests
type StatusHandler struct {
	progress ProgressReader
	logger   *slog.Logger
}

// NewStatusHandler creates a new status handler
func NewStatusHandler(progress ProgressReader, logger *slog.Logger) *StatusHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &StatusHandler{
		progress: progress,
		logger:   logger,
	}
}

// GetProgress returns counters for the current run
func (h *StatusHandler) GetProgress(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, h.progress.Snapshot())
}

// GetRecords returns the most recently collected records
func (h *StatusHandler) GetRecords(w http.ResponseWriter, r *http.Request) {
	limit := defaultRecordLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		n, err := strconv.Atoi(limitStr)
		if err != nil || n < 1 {
			h.respondWithError(w, http.StatusBadRequest, "Invalid limit", err)
			return
		}
		limit = n
	}

	respondWithJSON(w, http.StatusOK, h.progress.Records(limit))
}

// Helper for JSON responses
func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("Failed to marshal response"))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

// Helper for error responses
func (h *StatusHandler) respondWithError(w http.ResponseWriter, code int, message string, err error) {
	response := map[string]string{"error": message}

	if err != nil && code >= 500 {
		h.logger.Error("HTTP error", "code", code, "message", message, "error", err)
	}

	jsonResponse, _ := json.Marshal(response)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(jsonResponse)
}
