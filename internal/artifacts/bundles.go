// Package artifacts defines the persisted model bundles and the
// msgpack-backed store that reads and writes them atomically.
package artifacts

import (
	"github.com/aristath/tankintel/internal/models"
	"github.com/aristath/tankintel/internal/pipeline"
	"github.com/aristath/tankintel/internal/similarity"
)

// DealBundle is the persisted deal classifier with the preprocessing state
// it was fit alongside.
type DealBundle struct {
	Model        *models.Envelope  `msgpack:"model"`
	Encoder      *pipeline.Encoder `msgpack:"encoder"`
	Scaler       *pipeline.Scaler  `msgpack:"scaler"`
	FeatureNames []string          `msgpack:"feature_names"`
	Country      string            `msgpack:"country"`
}

// ValuationBundle is the persisted valuation regressor. The model predicts
// in log1p space; callers restore with expm1.
type ValuationBundle struct {
	Model        *models.Envelope  `msgpack:"model"`
	Encoder      *pipeline.Encoder `msgpack:"encoder"`
	Scaler       *pipeline.Scaler  `msgpack:"scaler"`
	FeatureNames []string          `msgpack:"feature_names"`
	Country      string            `msgpack:"country"`
}

// FeatureImportance is one named importance score, ordered descending in
// the insight lists.
type FeatureImportance struct {
	Feature    string  `msgpack:"feature"`
	Importance float64 `msgpack:"importance"`
}

// InvestorInsight is the per-investor training summary used to phrase
// investor profiles at prediction time.
type InvestorInsight struct {
	TopFeatures    []FeatureImportance `msgpack:"top_features"`
	InvestmentRate float64             `msgpack:"investment_rate"`
}

// InvestorModel pairs one investor with their fitted classifier. Order
// follows the configured roster.
type InvestorModel struct {
	Name  string           `msgpack:"name"`
	Model *models.Envelope `msgpack:"model"`
}

// InvestorsBundle is the persisted per-investor model set. Investors whose
// history had a single class are absent.
type InvestorsBundle struct {
	Investors    []InvestorModel            `msgpack:"investors"`
	Insights     map[string]InvestorInsight `msgpack:"insights"`
	Encoder      *pipeline.Encoder          `msgpack:"encoder"`
	Scaler       *pipeline.Scaler           `msgpack:"scaler"`
	FeatureNames []string                   `msgpack:"feature_names"`
	Country      string                     `msgpack:"country"`
}

// SimilarityBundle is the persisted company similarity index.
type SimilarityBundle struct {
	Index *similarity.Index `msgpack:"index"`
}
