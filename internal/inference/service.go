// Package inference is the prediction facade: it loads persisted model
// artifacts, replays the frozen feature pipeline on a single canonical
// record and returns typed predictions. Artifacts are read fresh on every
// call so retraining takes effect without a restart.
package inference

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/rs/zerolog"

	"github.com/aristath/tankintel/internal/artifacts"
	"github.com/aristath/tankintel/internal/config"
	"github.com/aristath/tankintel/internal/pipeline"
	"github.com/aristath/tankintel/internal/schema"
	"github.com/aristath/tankintel/internal/similarity"
)

// DealThreshold is the conservative decision boundary for predicting a
// deal: only pitches at or above it are labeled DEAL.
const DealThreshold = 0.65

// NoDealGate is the probability floor below which investor predictions are
// suppressed entirely.
const NoDealGate = 0.3

// NoDealMessage is returned when the deal gate suppresses investor
// predictions.
const NoDealMessage = "No deal predicted - no sharks would invest"

// DealPrediction is the deal classifier output for one pitch.
type DealPrediction struct {
	Probability float64 `json:"probability"`
	Prediction  int     `json:"prediction"`
	Label       string  `json:"prediction_label"`
}

// ConfidenceRange is the valuation confidence band.
type ConfidenceRange struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

// ValuationPrediction is the valuation regressor output for one pitch.
type ValuationPrediction struct {
	Valuation       float64         `json:"valuation"`
	ConfidenceRange ConfidenceRange `json:"confidence_range"`
}

// RankedInvestor is one investor with their investment probability.
type RankedInvestor struct {
	Name        string  `json:"name"`
	Probability float64 `json:"probability"`
}

// InvestorsPrediction is the per-investor output for one pitch.
type InvestorsPrediction struct {
	Probabilities map[string]float64 `json:"probabilities"`
	Ranked        []RankedInvestor   `json:"ranked"`
	Insights      []string           `json:"insights"`
}

// Service is the inference facade over the artifact store.
type Service struct {
	countries *config.Registry
	store     *artifacts.Store
	log       zerolog.Logger
}

// NewService creates the facade.
func NewService(countries *config.Registry, store *artifacts.Store, log zerolog.Logger) *Service {
	return &Service{
		countries: countries,
		store:     store,
		log:       log.With().Str("service", "inference").Logger(),
	}
}

// Countries returns the configured country names, preferred-first.
func (s *Service) Countries() []string {
	return s.countries.Countries()
}

// Country resolves one country document.
func (s *Service) Country(name string) (*config.Country, error) {
	return s.countries.Get(name)
}

// featureVector replays the frozen pipeline on one record and returns the
// single feature row the model expects.
func featureVector(input schema.Record, encoder *pipeline.Encoder, scaler *pipeline.Scaler, featureNames []string) ([]float64, error) {
	frame, err := pipeline.Transform(input.Frame(), encoder, scaler, featureNames)
	if err != nil {
		return nil, err
	}
	x, err := frame.Matrix(featureNames)
	if err != nil {
		return nil, err
	}
	return x[0], nil
}

func (s *Service) loadBundle(country, kind string, out any) error {
	doc, err := s.countries.Get(country)
	if err != nil {
		return err
	}
	path, err := doc.ArtifactPath(kind)
	if err != nil {
		return err
	}
	return s.store.Load(path, out)
}

// PredictDeal scores one pitch with the country's deal classifier.
func (s *Service) PredictDeal(ctx context.Context, country string, input schema.Record) (*DealPrediction, error) {
	var bundle artifacts.DealBundle
	if err := s.loadBundle(country, config.KindDeal, &bundle); err != nil {
		return nil, err
	}

	row, err := featureVector(input, bundle.Encoder, bundle.Scaler, bundle.FeatureNames)
	if err != nil {
		return nil, err
	}
	clf, err := bundle.Model.Classifier()
	if err != nil {
		return nil, err
	}
	prob, err := clf.PredictProba(row)
	if err != nil {
		return nil, err
	}

	pred, label := classifyDeal(prob)
	return &DealPrediction{Probability: prob, Prediction: pred, Label: label}, nil
}

// classifyDeal applies the decision boundary to a deal probability.
// Exactly DealThreshold counts as a deal.
func classifyDeal(prob float64) (int, string) {
	if prob >= DealThreshold {
		return 1, "DEAL"
	}
	return 0, "NO DEAL"
}

// PredictValuation estimates one pitch's valuation with a fixed-ratio
// confidence band. The model predicts in log1p space and is restored with
// expm1 before the band is applied.
func (s *Service) PredictValuation(ctx context.Context, country string, input schema.Record) (*ValuationPrediction, error) {
	var bundle artifacts.ValuationBundle
	if err := s.loadBundle(country, config.KindValuation, &bundle); err != nil {
		return nil, err
	}

	row, err := featureVector(input, bundle.Encoder, bundle.Scaler, bundle.FeatureNames)
	if err != nil {
		return nil, err
	}
	reg, err := bundle.Model.Regressor()
	if err != nil {
		return nil, err
	}
	predLog, err := reg.Predict(row)
	if err != nil {
		return nil, err
	}

	valuation := math.Expm1(predLog)
	return &ValuationPrediction{
		Valuation:       valuation,
		ConfidenceRange: ConfidenceRange{Lower: valuation * 0.7, Upper: valuation * 1.3},
	}, nil
}

// PredictInvestors scores one pitch against every trained investor model.
// A failing investor model scores 0.0 instead of failing the whole call.
// Ranking is descending by probability with roster order breaking ties.
func (s *Service) PredictInvestors(ctx context.Context, country string, input schema.Record) (*InvestorsPrediction, error) {
	var bundle artifacts.InvestorsBundle
	if err := s.loadBundle(country, config.KindInvestors, &bundle); err != nil {
		return nil, err
	}

	row, err := featureVector(input, bundle.Encoder, bundle.Scaler, bundle.FeatureNames)
	if err != nil {
		return nil, err
	}

	probs := make(map[string]float64, len(bundle.Investors))
	ranked := make([]RankedInvestor, 0, len(bundle.Investors))
	for _, inv := range bundle.Investors {
		prob := 0.0
		clf, err := inv.Model.Classifier()
		if err == nil {
			if p, perr := clf.PredictProba(row); perr == nil {
				prob = p
			} else {
				s.log.Warn().Err(perr).Str("country", country).Str("investor", inv.Name).Msg("Investor prediction failed, scoring 0")
			}
		} else {
			s.log.Warn().Err(err).Str("country", country).Str("investor", inv.Name).Msg("Investor model unusable, scoring 0")
		}
		probs[inv.Name] = prob
		ranked = append(ranked, RankedInvestor{Name: inv.Name, Probability: prob})
	}
	sort.SliceStable(ranked, func(a, b int) bool { return ranked[a].Probability > ranked[b].Probability })

	return &InvestorsPrediction{
		Probabilities: probs,
		Ranked:        ranked,
		Insights:      buildInsights(bundle),
	}, nil
}

// FindSimilar queries the country's similarity index.
func (s *Service) FindSimilar(ctx context.Context, country, description string, topN int) ([]similarity.Match, error) {
	var bundle artifacts.SimilarityBundle
	if err := s.loadBundle(country, config.KindSimilarity, &bundle); err != nil {
		return nil, err
	}
	if bundle.Index == nil {
		return nil, fmt.Errorf("similarity artifact for %s holds no index", country)
	}
	return bundle.Index.Find(description, topN), nil
}

// IsNotTrained reports whether an error means the model artifact does not
// exist yet.
func IsNotTrained(err error) bool {
	return errors.Is(err, artifacts.ErrArtifactNotFound)
}
