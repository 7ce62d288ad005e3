package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/aristath/tankintel/internal/config"
)

const writeTimeout = 5 * time.Second

// trainingRunTimeout bounds one detached training run.
const trainingRunTimeout = 30 * time.Minute

// trainRequest is the body for POST /api/training/run.
type trainRequest struct {
	Country string `json:"country"`
	Kind    string `json:"kind"` // empty means every kind
}

// handleTrainingRun starts a training run in the background and returns
// immediately; progress is observable on the events stream and the ledger.
func (s *Server) handleTrainingRun(w http.ResponseWriter, r *http.Request) {
	var req trainRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	if req.Country == "" {
		s.writeError(w, http.StatusBadRequest, errors.New("country is required"))
		return
	}
	if _, err := s.inference.Country(req.Country); err != nil {
		s.writeError(w, http.StatusNotFound, err)
		return
	}
	if req.Kind != "" && !validKind(req.Kind) {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("unknown training kind %q", req.Kind))
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), trainingRunTimeout)
		defer cancel()
		var err error
		if req.Kind == "" {
			_, err = s.trainer.TrainAll(ctx, req.Country)
		} else {
			_, err = s.trainer.Train(ctx, req.Country, req.Kind)
		}
		if err != nil {
			s.log.Error().Err(err).Str("country", req.Country).Str("kind", req.Kind).Msg("Training run failed")
		}
	}()

	s.writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"success": true,
		"status":  "started",
		"country": req.Country,
		"kind":    req.Kind,
	})
}

// handleTrainingRuns returns recent runs from the ledger.
func (s *Server) handleTrainingRuns(w http.ResponseWriter, r *http.Request) {
	if s.ledger == nil {
		s.writeError(w, http.StatusServiceUnavailable, errors.New("training ledger not configured"))
		return
	}
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	runs, err := s.ledger.RecentRuns(r.Context(), limit)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"runs":    runs,
	})
}

func validKind(kind string) bool {
	for _, k := range config.Kinds() {
		if k == kind {
			return true
		}
	}
	return false
}
