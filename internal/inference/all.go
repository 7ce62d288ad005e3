package inference

import (
	"context"
	"strings"

	"github.com/aristath/tankintel/internal/schema"
	"github.com/aristath/tankintel/internal/similarity"
)

// DealSection is the deal part of a combined prediction.
type DealSection struct {
	Available   bool    `json:"available"`
	Probability float64 `json:"probability,omitempty"`
	Prediction  int     `json:"prediction,omitempty"`
	Label       string  `json:"prediction_label,omitempty"`
	Error       string  `json:"error,omitempty"`
}

// ValuationSection is the valuation part of a combined prediction.
type ValuationSection struct {
	Available       bool             `json:"available"`
	Valuation       float64          `json:"valuation,omitempty"`
	ConfidenceRange *ConfidenceRange `json:"confidence_range,omitempty"`
	Error           string           `json:"error,omitempty"`
}

// InvestorsSection is the per-investor part of a combined prediction.
// When the deal gate fires, NoDeal is set and Message explains why the
// probabilities are withheld.
type InvestorsSection struct {
	Available     bool               `json:"available"`
	NoDeal        bool               `json:"no_deal"`
	Message       string             `json:"message,omitempty"`
	Probabilities map[string]float64 `json:"probabilities,omitempty"`
	Ranked        []RankedInvestor   `json:"ranked,omitempty"`
	Insights      []string           `json:"insights,omitempty"`
	Error         string             `json:"error,omitempty"`
}

// SimilarSection is the similar-companies part of a combined prediction.
type SimilarSection struct {
	Available bool               `json:"available"`
	Companies []similarity.Match `json:"companies,omitempty"`
	Message   string             `json:"message,omitempty"`
	Error     string             `json:"error,omitempty"`
}

// Combined is the full prediction for one pitch. Each section degrades
// independently: an untrained or failing model marks only its own section
// unavailable.
type Combined struct {
	Deal      DealSection      `json:"deal"`
	Valuation ValuationSection `json:"valuation"`
	Investors InvestorsSection `json:"sharks"`
	Similar   SimilarSection   `json:"similar_companies"`
}

// PredictAll runs every prediction family for one pitch with per-section
// failure isolation.
func (s *Service) PredictAll(ctx context.Context, country string, input schema.Record) *Combined {
	out := &Combined{}

	deal, err := s.PredictDeal(ctx, country, input)
	switch {
	case err == nil:
		out.Deal = DealSection{
			Available:   true,
			Probability: deal.Probability,
			Prediction:  deal.Prediction,
			Label:       deal.Label,
		}
	case IsNotTrained(err):
		// Section stays unavailable with no error detail.
	default:
		out.Deal.Error = err.Error()
	}

	valuation, err := s.PredictValuation(ctx, country, input)
	switch {
	case err == nil:
		out.Valuation = ValuationSection{
			Available:       true,
			Valuation:       valuation.Valuation,
			ConfidenceRange: &valuation.ConfidenceRange,
		}
	case IsNotTrained(err):
	default:
		out.Valuation.Error = err.Error()
	}

	investors, err := s.PredictInvestors(ctx, country, input)
	switch {
	case err == nil:
		// Gate investor output on the deal verdict. An unavailable deal
		// section does not suppress investors.
		dealPred, dealProb := 1, 1.0
		if out.Deal.Available {
			dealPred, dealProb = out.Deal.Prediction, out.Deal.Probability
		}
		if dealPred == 0 || dealProb < NoDealGate {
			out.Investors = InvestorsSection{Available: true, NoDeal: true, Message: NoDealMessage}
		} else {
			out.Investors = InvestorsSection{
				Available:     true,
				Probabilities: investors.Probabilities,
				Ranked:        investors.Ranked,
				Insights:      investors.Insights,
			}
		}
	case IsNotTrained(err):
	default:
		out.Investors.Error = err.Error()
	}

	description, _ := input[schema.ColBusinessDescription].(string)
	if strings.TrimSpace(description) == "" {
		out.Similar = SimilarSection{Message: "No description provided"}
	} else {
		companies, err := s.FindSimilar(ctx, country, description, 5)
		switch {
		case err == nil:
			out.Similar = SimilarSection{Available: true, Companies: companies}
		case IsNotTrained(err):
		default:
			out.Similar.Error = err.Error()
		}
	}

	return out
}
