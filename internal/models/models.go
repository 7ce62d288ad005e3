// Package models implements the pluggable statistical model capabilities
// behind the four prediction families, plus their evaluation metrics and
// the serializable envelope the artifact store persists them in.
package models

import "fmt"

// Classifier scores a single feature vector with the probability of the
// positive class.
type Classifier interface {
	PredictProba(x []float64) (float64, error)
}

// Regressor predicts a continuous value for a single feature vector.
type Regressor interface {
	Predict(x []float64) (float64, error)
}

// Model kinds carried by the envelope.
const (
	KindLogistic = "logistic"
	KindLinear   = "linear"
	KindForest   = "forest"
	KindBoosting = "boosting"
)

// Envelope is the serializable tagged union the artifact store persists.
// Exactly one of the model fields is populated, per Kind.
type Envelope struct {
	Kind     string              `msgpack:"kind"`
	Logistic *LogisticRegression `msgpack:"logistic,omitempty"`
	Linear   *LinearRegression   `msgpack:"linear,omitempty"`
	Forest   *RandomForest       `msgpack:"forest,omitempty"`
	Boosting *GradientBoosting   `msgpack:"boosting,omitempty"`
}

// Wrap builds an envelope around a fitted model.
func Wrap(model any) (*Envelope, error) {
	switch m := model.(type) {
	case *LogisticRegression:
		return &Envelope{Kind: KindLogistic, Logistic: m}, nil
	case *LinearRegression:
		return &Envelope{Kind: KindLinear, Linear: m}, nil
	case *RandomForest:
		return &Envelope{Kind: KindForest, Forest: m}, nil
	case *GradientBoosting:
		return &Envelope{Kind: KindBoosting, Boosting: m}, nil
	}
	return nil, fmt.Errorf("unsupported model type %T", model)
}

// Classifier unwraps the envelope as a probability classifier.
func (e *Envelope) Classifier() (Classifier, error) {
	switch e.Kind {
	case KindLogistic:
		if e.Logistic != nil {
			return e.Logistic, nil
		}
	case KindForest:
		if e.Forest != nil {
			return e.Forest, nil
		}
	case KindBoosting:
		if e.Boosting != nil {
			return e.Boosting, nil
		}
	}
	return nil, fmt.Errorf("envelope kind %q does not hold a classifier", e.Kind)
}

// Regressor unwraps the envelope as a continuous-value regressor.
func (e *Envelope) Regressor() (Regressor, error) {
	switch e.Kind {
	case KindLinear:
		if e.Linear != nil {
			return e.Linear, nil
		}
	case KindForest:
		if e.Forest != nil {
			return e.Forest, nil
		}
	case KindBoosting:
		if e.Boosting != nil {
			return e.Boosting, nil
		}
	}
	return nil, fmt.Errorf("envelope kind %q does not hold a regressor", e.Kind)
}

// FeatureImportances returns normalized per-feature importance scores, or
// nil when the wrapped model family does not expose them.
func (e *Envelope) FeatureImportances() []float64 {
	switch e.Kind {
	case KindForest:
		if e.Forest != nil {
			return e.Forest.FeatureImportances()
		}
	case KindBoosting:
		if e.Boosting != nil {
			return e.Boosting.FeatureImportances()
		}
	}
	return nil
}
