package training

import (
	"context"
	"fmt"
	"math"

	"github.com/aristath/tankintel/internal/artifacts"
	"github.com/aristath/tankintel/internal/config"
	"github.com/aristath/tankintel/internal/models"
	"github.com/aristath/tankintel/internal/pipeline"
)

// Candidate model names, shared by the deal and valuation trainers.
const (
	candidateLogistic = "Logistic Regression"
	candidateLinear   = "Linear Regression"
	candidateForest   = "Random Forest"
	candidateBoosting = "Gradient Boosting"
)

// TrainDeal fits the deal classifier for one country. Three model families
// compete on a held-out split; the best ROC-AUC wins, falling back to
// accuracy when no candidate produced a usable AUC.
func (t *Trainer) TrainDeal(ctx context.Context, country string) (*Report, error) {
	doc, frame, err := t.loadCanonical(country)
	if err != nil {
		return nil, err
	}
	t.publish(doc.Name, config.KindDeal, StageLoading, fmt.Sprintf("%d rows", frame.Rows()))

	fit, err := pipeline.Fit(frame)
	if err != nil {
		return nil, err
	}
	x, err := fit.X.Matrix(fit.FeatureNames)
	if err != nil {
		return nil, err
	}
	y := fit.Y
	if len(y) == 0 {
		return nil, fmt.Errorf("no deal target could be derived for %s", doc.Name)
	}

	trainIdx, testIdx, err := models.TrainTestSplit(len(y), 0.2, t.seed, y)
	if err != nil {
		return nil, err
	}
	xTrain, yTrain := takeMatrix(x, trainIdx), takeVector(y, trainIdx)
	xTest, yTest := takeMatrix(x, testIdx), takeVector(y, testIdx)

	type candidate struct {
		name  string
		model any
	}
	var candidates []candidate

	t.publish(doc.Name, config.KindDeal, StageTraining, "fitting candidates")

	if lr, err := models.FitLogisticRegression(xTrain, yTrain, models.LogisticConfig{}); err != nil {
		t.log.Warn().Err(err).Str("country", doc.Name).Msg("Logistic regression fit failed, skipping candidate")
	} else {
		candidates = append(candidates, candidate{candidateLogistic, lr})
	}
	if rf, err := models.FitRandomForest(xTrain, yTrain, models.ForestConfig{Seed: t.seed}); err != nil {
		t.log.Warn().Err(err).Str("country", doc.Name).Msg("Random forest fit failed, skipping candidate")
	} else {
		candidates = append(candidates, candidate{candidateForest, rf})
	}
	if gb, err := models.FitGradientBoosting(xTrain, yTrain, models.BoostingConfig{Seed: t.seed}); err != nil {
		t.log.Warn().Err(err).Str("country", doc.Name).Msg("Gradient boosting fit failed, skipping candidate")
	} else {
		candidates = append(candidates, candidate{candidateBoosting, gb})
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("all deal candidates failed to fit for %s", doc.Name)
	}

	var metrics []CandidateMetrics
	envelopes := make(map[string]*models.Envelope, len(candidates))
	for _, c := range candidates {
		env, err := models.Wrap(c.model)
		if err != nil {
			return nil, err
		}
		envelopes[c.name] = env

		clf, err := env.Classifier()
		if err != nil {
			return nil, err
		}
		scores := make([]float64, len(xTest))
		preds := make([]float64, len(xTest))
		for i, row := range xTest {
			p, err := clf.PredictProba(row)
			if err != nil {
				return nil, fmt.Errorf("%s evaluation: %w", c.name, err)
			}
			scores[i] = p
			if p >= 0.5 {
				preds[i] = 1
			}
		}

		auc, err := models.ROCAUC(yTest, scores)
		if err != nil {
			// Single-class test splits happen on tiny countries; 0.5 keeps
			// the candidate comparable.
			auc = 0.5
			t.log.Warn().Str("country", doc.Name).Str("model", c.name).Msg("ROC-AUC undefined, using 0.5")
		}
		m := CandidateMetrics{
			Name:      c.name,
			Accuracy:  models.Accuracy(yTest, preds),
			Precision: models.Precision(yTest, preds),
			Recall:    models.Recall(yTest, preds),
			ROCAUC:    auc,
		}
		metrics = append(metrics, m)
		t.log.Info().Str("country", doc.Name).Str("model", c.name).
			Float64("accuracy", m.Accuracy).Float64("roc_auc", m.ROCAUC).
			Msg("Deal candidate evaluated")
	}

	best, metric, score := selectClassifier(metrics)
	t.publish(doc.Name, config.KindDeal, StageSelected, fmt.Sprintf("%s %s=%.4f", best, metric, score))

	bundle := &artifacts.DealBundle{
		Model:        envelopes[best],
		Encoder:      fit.Encoder,
		Scaler:       fit.Scaler,
		FeatureNames: fit.FeatureNames,
		Country:      doc.Name,
	}
	if err := t.saveArtifact(doc, config.KindDeal, bundle); err != nil {
		return nil, err
	}

	return &Report{
		Country:    doc.Name,
		Kind:       config.KindDeal,
		Best:       best,
		Metric:     metric,
		Score:      score,
		Rows:       frame.Rows(),
		Features:   len(fit.FeatureNames),
		Candidates: metrics,
	}, nil
}

// selectClassifier picks the candidate with the highest valid ROC-AUC, or
// the highest accuracy when no candidate has a usable AUC.
func selectClassifier(metrics []CandidateMetrics) (best, metric string, score float64) {
	score = math.Inf(-1)
	for _, m := range metrics {
		if !math.IsNaN(m.ROCAUC) && m.ROCAUC > 0 && m.ROCAUC > score {
			best, metric, score = m.Name, "roc_auc", m.ROCAUC
		}
	}
	if best != "" {
		return best, metric, score
	}
	for _, m := range metrics {
		if m.Accuracy > score {
			best, metric, score = m.Name, "accuracy", m.Accuracy
		}
	}
	return best, metric, score
}

func takeMatrix(x [][]float64, idx []int) [][]float64 {
	out := make([][]float64, len(idx))
	for i, r := range idx {
		out[i] = x[r]
	}
	return out
}

func takeVector(y []float64, idx []int) []float64 {
	out := make([]float64, len(idx))
	for i, r := range idx {
		out[i] = y[r]
	}
	return out
}
