package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/aristath/tankintel/internal/config"
	"github.com/aristath/tankintel/internal/inference"
	"github.com/aristath/tankintel/internal/schema"
)

// predictRequest is the shared body for prediction endpoints.
type predictRequest struct {
	Country             string        `json:"country"`
	InputData           schema.Record `json:"input_data"`
	BusinessDescription string        `json:"business_description"`
}

func (s *Server) decodePredictRequest(w http.ResponseWriter, r *http.Request) (*predictRequest, bool) {
	var req predictRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return nil, false
	}
	if req.Country == "" {
		s.writeError(w, http.StatusBadRequest, errors.New("country is required"))
		return nil, false
	}
	if req.InputData == nil {
		req.InputData = schema.Record{}
	}
	return &req, true
}

// predictionStatus maps prediction errors onto HTTP status codes.
func predictionStatus(err error) int {
	switch {
	case errors.Is(err, config.ErrCountryNotConfigured):
		return http.StatusNotFound
	case inference.IsNotTrained(err):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) handleCountries(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"countries": s.inference.Countries(),
	})
}

// currencyForCountry returns the display currency for a country.
func currencyForCountry(country string) map[string]string {
	switch strings.ToLower(country) {
	case "india":
		return map[string]string{"symbol": "₹", "unit": "Lakhs"}
	case "australia":
		return map[string]string{"symbol": "$", "unit": "AUD"}
	default:
		return map[string]string{"symbol": "$", "unit": "USD"}
	}
}

func (s *Server) handleCountryConfig(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "country")
	doc, err := s.inference.Country(name)
	if err != nil {
		s.writeError(w, predictionStatus(err), err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"country":  doc.Name,
		"sharks":   doc.InvestorNames(),
		"currency": currencyForCountry(doc.Name),
	})
}

func (s *Server) handlePredictDeal(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodePredictRequest(w, r)
	if !ok {
		return
	}
	pred, err := s.inference.PredictDeal(r.Context(), req.Country, req.InputData)
	if err != nil {
		s.writeError(w, predictionStatus(err), err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":          true,
		"probability":      pred.Probability,
		"prediction":       pred.Prediction,
		"prediction_label": pred.Label,
	})
}

func (s *Server) handlePredictValuation(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodePredictRequest(w, r)
	if !ok {
		return
	}
	pred, err := s.inference.PredictValuation(r.Context(), req.Country, req.InputData)
	if err != nil {
		s.writeError(w, predictionStatus(err), err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":          true,
		"valuation":        pred.Valuation,
		"confidence_range": pred.ConfidenceRange,
	})
}

// handlePredictInvestors gates investor predictions behind the deal
// verdict: weak pitches get the no-deal message instead of probabilities.
func (s *Server) handlePredictInvestors(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodePredictRequest(w, r)
	if !ok {
		return
	}

	deal, err := s.inference.PredictDeal(r.Context(), req.Country, req.InputData)
	if err != nil {
		s.writeError(w, predictionStatus(err), err)
		return
	}
	if deal.Prediction == 0 || deal.Probability < inference.NoDealGate {
		s.writeJSON(w, http.StatusOK, map[string]interface{}{
			"success":          true,
			"no_deal":          true,
			"deal_probability": deal.Probability,
			"message":          inference.NoDealMessage,
		})
		return
	}

	pred, err := s.inference.PredictInvestors(r.Context(), req.Country, req.InputData)
	if err != nil {
		s.writeError(w, predictionStatus(err), err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":       true,
		"no_deal":       false,
		"probabilities": pred.Probabilities,
		"ranked":        pred.Ranked,
		"insights":      pred.Insights,
	})
}

func (s *Server) handleFindSimilar(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodePredictRequest(w, r)
	if !ok {
		return
	}
	description := req.BusinessDescription
	if description == "" {
		description, _ = req.InputData[schema.ColBusinessDescription].(string)
	}
	if strings.TrimSpace(description) == "" {
		s.writeError(w, http.StatusBadRequest, errors.New("business description is required"))
		return
	}

	companies, err := s.inference.FindSimilar(r.Context(), req.Country, description, 5)
	if err != nil {
		s.writeError(w, predictionStatus(err), err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"companies": companies,
	})
}

func (s *Server) handlePredictAll(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodePredictRequest(w, r)
	if !ok {
		return
	}
	if _, err := s.inference.Country(req.Country); err != nil {
		s.writeError(w, predictionStatus(err), err)
		return
	}

	combined := s.inference.PredictAll(r.Context(), req.Country, req.InputData)
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":           true,
		"deal":              combined.Deal,
		"valuation":         combined.Valuation,
		"sharks":            combined.Investors,
		"similar_companies": combined.Similar,
	})
}
