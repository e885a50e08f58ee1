package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/C-Plusone/fund-app/internal/batch"
	"github.com/C-Plusone/fund-app/internal/merge"
)

// envelope is the response wrapper every JSON endpoint uses.
type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

const indexHTML = `<h1>Fund Data API</h1>
<p>Available endpoints:</p>
<ul>
    <li><code>GET /api/fund/{code}</code> - single fund</li>
    <li><code>GET /api/funds?codes=000216,320007</code> - batch lookup</li>
    <li><code>GET /api/health</code> - health check</li>
</ul>
`

// handleFund serves one merged fund record.
func (s *Server) handleFund(w http.ResponseWriter, r *http.Request) {
	code := strings.TrimSpace(r.PathValue("code"))
	if code == "" {
		writeError(w, http.StatusBadRequest, "fund code is required")
		return
	}

	record, err := s.records.GetOrFetch(r.Context(), code)
	if err != nil {
		// Only happens when the client went away mid-lookup.
		writeError(w, http.StatusInternalServerError, "lookup interrupted")
		return
	}

	writeData(w, record)
}

// handleFunds serves a batch of merged records keyed by fund code.
func (s *Server) handleFunds(w http.ResponseWriter, r *http.Request) {
	codes := splitCodes(r.URL.Query().Get("codes"))

	outcomes, err := s.batches.GetMany(r.Context(), codes)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, batch.ErrNoCodes) || errors.Is(err, batch.ErrTooManyCodes) {
			status = http.StatusBadRequest
		}
		writeError(w, status, err.Error())
		return
	}

	records := make(map[string]merge.Record, len(outcomes))
	for code, outcome := range outcomes {
		if outcome.Err != nil {
			// Only happens when the client went away mid-batch.
			continue
		}
		records[code] = outcome.Record
	}

	writeData(w, records)
}

// handleHealth reports liveness and the current cache size.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"time":       time.Now().Format(time.RFC3339),
		"cache_size": s.records.Len(),
	})
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, indexHTML)
}

// splitCodes parses the comma-separated codes parameter, dropping blanks.
func splitCodes(raw string) []string {
	parts := strings.Split(raw, ",")
	codes := make([]string, 0, len(parts))
	for _, part := range parts {
		if code := strings.TrimSpace(part); code != "" {
			codes = append(codes, code)
		}
	}
	return codes
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to write response", "error", err)
	}
}

func writeData(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: data})
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, envelope{Success: false, Error: message})
}
