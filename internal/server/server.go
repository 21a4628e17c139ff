// Package server exposes the recommendation engine over HTTP.
package server

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/mkarlsen/assessrec/internal/recommend"
	"github.com/mkarlsen/assessrec/internal/search"
)

// Server serves the recommendation API. All fields are immutable after New:
// concurrent requests share the loaded index and model without locking.
type Server struct {
	pipeline *recommend.Pipeline
	engine   *search.Engine
}

// New creates a Server around an already-loaded pipeline and engine.
func New(pipeline *recommend.Pipeline, engine *search.Engine) *Server {
	return &Server{pipeline: pipeline, engine: engine}
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /recommend", s.handleRecommend)
	mux.HandleFunc("POST /api/recommend", s.handleRecommend)
	return mux
}

// ListenAndServe blocks serving the API on addr.
func (s *Server) ListenAndServe(addr string) error {
	log.Printf("listening on %s", addr)
	return http.ListenAndServe(addr, s.Handler())
}

type healthResponse struct {
	Status string `json:"status"`
	search.Readiness
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ready := s.engine.Ready()
	status := "ok"
	code := http.StatusOK
	if !ready.Ready {
		status = "unavailable"
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, healthResponse{Status: status, Readiness: ready})
}

type recommendRequest struct {
	Query string `json:"query"`
	K     int    `json:"k,omitempty"`
}

func (s *Server) handleRecommend(w http.ResponseWriter, r *http.Request) {
	var req recommendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	k := req.K
	if k == 0 {
		k = s.pipeline.TopK()
	}

	res, err := s.pipeline.Recommend(r.Context(), req.Query, k)
	if err != nil {
		switch {
		case errors.Is(err, recommend.ErrInvalidQuery), errors.Is(err, recommend.ErrInvalidK):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			log.Printf("recommend failed: %v", err)
			writeError(w, http.StatusInternalServerError, "recommendation failed")
		}
		return
	}
	if res.Recommendations == nil {
		res.Recommendations = []recommend.Recommendation{}
	}
	writeJSON(w, http.StatusOK, res)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
