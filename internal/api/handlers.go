package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"laptoprag/internal/domain"
	"laptoprag/internal/service"
)

const maxBodyBytes = 1 << 20

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) chat(w http.ResponseWriter, r *http.Request) {
	var req service.ChatRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		s.fail(w, r, "chat", fmt.Errorf("%w: %w", domain.ErrRequestParse, err), "Internal Server Error")
		return
	}

	resp, err := s.svc.Chat(r.Context(), req)
	if err != nil {
		s.fail(w, r, "chat", err, "Internal Server Error")
		return
	}
	s.metrics.Sessions.Set(float64(s.svc.Sessions()))
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) seed(w http.ResponseWriter, r *http.Request) {
	report, err := s.svc.Seed(r.Context())
	s.metrics.SeededListings.Add(float64(report.Listings))
	if err != nil {
		s.fail(w, r, "seed", err, "Failed to store laptops.")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "All laptops stored successfully."})
}

// fail logs the cause and answers with a fixed body that does not reveal it.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, op string, err error, message string) {
	kind := domain.Kind(err)
	s.metrics.Failures.WithLabelValues(kind).Inc()
	s.logger.Error("request failed",
		"op", op,
		"kind", kind,
		"request_id", middleware.GetReqID(r.Context()),
		"error", err,
	)
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": message})
}

// writeJSON encodes into a buffer first; a value that cannot be encoded is
// answered with the generic 500.
func writeJSON(w http.ResponseWriter, status int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
		status = http.StatusInternalServerError
		buf.Reset()
		buf.WriteString(`{"error":"Internal Server Error"}` + "\n")
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}
