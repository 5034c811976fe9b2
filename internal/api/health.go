package api

import (
	"context"
	"net/http"
	"time"
)

const readinessTimeout = 2 * time.Second

// Readiness states.
const (
	statusOK          = "ok"
	statusDegraded    = "degraded"
	statusUnavailable = "unavailable"
)

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: statusOK})
}

// handleReady fails when the store is unreachable. A failing cache only
// degrades the service, since reads fall through to the store.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	resp := healthResponse{Status: statusOK, Checks: map[string]string{}}
	code := http.StatusOK

	if err := s.store.Ping(ctx); err != nil {
		resp.Checks["store"] = err.Error()
		resp.Status = statusUnavailable
		code = http.StatusServiceUnavailable
	} else {
		resp.Checks["store"] = statusOK
	}

	if s.cache != nil {
		if err := s.cache.Ping(ctx); err != nil {
			resp.Checks["cache"] = err.Error()
			if resp.Status == statusOK {
				resp.Status = statusDegraded
			}
		} else {
			resp.Checks["cache"] = statusOK
		}
	}

	writeJSON(w, code, resp)
}
