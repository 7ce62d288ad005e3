package training

import (
	"context"
	"fmt"
	"math"

	"github.com/aristath/tankintel/internal/artifacts"
	"github.com/aristath/tankintel/internal/config"
	"github.com/aristath/tankintel/internal/models"
	"github.com/aristath/tankintel/internal/pipeline"
	"github.com/aristath/tankintel/internal/schema"
)

// TrainValuation fits the valuation regressor for one country. Only
// concluded deals with a positive valuation are trained on; models fit the
// log1p-transformed target and compete on RMSE after restoring predictions
// with expm1.
func (t *Trainer) TrainValuation(ctx context.Context, country string) (*Report, error) {
	doc, frame, err := t.loadCanonical(country)
	if err != nil {
		return nil, err
	}
	t.publish(doc.Name, config.KindValuation, StageLoading, fmt.Sprintf("%d rows", frame.Rows()))

	// Derive targets on the raw canonical rows, then keep only deals with a
	// defined positive valuation.
	targeted := frame.Copy()
	pipeline.CreateTargets(targeted)
	deal := targeted.Numeric(schema.ColDeal)
	valuation := targeted.Numeric(schema.ColValuation)

	var keep []int
	for i := range deal {
		if deal[i] == 1 && !math.IsNaN(valuation[i]) && valuation[i] > 0 {
			keep = append(keep, i)
		}
	}
	if len(keep) == 0 {
		return nil, fmt.Errorf("no valid valuation data found for %s", doc.Name)
	}

	y := make([]float64, len(keep))
	yLog := make([]float64, len(keep))
	for i, r := range keep {
		y[i] = valuation[r]
		yLog[i] = math.Log1p(valuation[r])
	}

	fit, err := pipeline.Fit(targeted.TakeRows(keep))
	if err != nil {
		return nil, err
	}
	x, err := fit.X.Matrix(fit.FeatureNames)
	if err != nil {
		return nil, err
	}

	trainIdx, testIdx, err := models.TrainTestSplit(len(keep), 0.2, t.seed, nil)
	if err != nil {
		return nil, err
	}
	xTrain := takeMatrix(x, trainIdx)
	yTrainLog := takeVector(yLog, trainIdx)
	xTest := takeMatrix(x, testIdx)
	yTest := takeVector(y, testIdx)

	type candidate struct {
		name  string
		model any
	}
	var candidates []candidate

	t.publish(doc.Name, config.KindValuation, StageTraining, "fitting candidates")

	if lr, err := models.FitLinearRegression(xTrain, yTrainLog); err != nil {
		t.log.Warn().Err(err).Str("country", doc.Name).Msg("Linear regression fit failed, skipping candidate")
	} else {
		candidates = append(candidates, candidate{candidateLinear, lr})
	}
	if rf, err := models.FitRandomForest(xTrain, yTrainLog, models.ForestConfig{Regression: true, Seed: t.seed}); err != nil {
		t.log.Warn().Err(err).Str("country", doc.Name).Msg("Random forest fit failed, skipping candidate")
	} else {
		candidates = append(candidates, candidate{candidateForest, rf})
	}
	if gb, err := models.FitGradientBoosting(xTrain, yTrainLog, models.BoostingConfig{Regression: true, Seed: t.seed}); err != nil {
		t.log.Warn().Err(err).Str("country", doc.Name).Msg("Gradient boosting fit failed, skipping candidate")
	} else {
		candidates = append(candidates, candidate{candidateBoosting, gb})
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("all valuation candidates failed to fit for %s", doc.Name)
	}

	var metrics []CandidateMetrics
	envelopes := make(map[string]*models.Envelope, len(candidates))
	best, bestRMSE := "", math.Inf(1)
	for _, c := range candidates {
		env, err := models.Wrap(c.model)
		if err != nil {
			return nil, err
		}
		envelopes[c.name] = env

		reg, err := env.Regressor()
		if err != nil {
			return nil, err
		}
		preds := make([]float64, len(xTest))
		for i, row := range xTest {
			pLog, err := reg.Predict(row)
			if err != nil {
				return nil, fmt.Errorf("%s evaluation: %w", c.name, err)
			}
			preds[i] = math.Expm1(pLog)
		}

		m := CandidateMetrics{
			Name: c.name,
			RMSE: models.RMSE(yTest, preds),
			MAE:  models.MAE(yTest, preds),
			R2:   models.R2(yTest, preds),
		}
		metrics = append(metrics, m)
		if m.RMSE < bestRMSE {
			best, bestRMSE = c.name, m.RMSE
		}
		t.log.Info().Str("country", doc.Name).Str("model", c.name).
			Float64("rmse", m.RMSE).Float64("r2", m.R2).
			Msg("Valuation candidate evaluated")
	}
	if best == "" {
		return nil, fmt.Errorf("no valuation candidate produced a finite RMSE for %s", doc.Name)
	}
	t.publish(doc.Name, config.KindValuation, StageSelected, fmt.Sprintf("%s rmse=%.2f", best, bestRMSE))

	bundle := &artifacts.ValuationBundle{
		Model:        envelopes[best],
		Encoder:      fit.Encoder,
		Scaler:       fit.Scaler,
		FeatureNames: fit.FeatureNames,
		Country:      doc.Name,
	}
	if err := t.saveArtifact(doc, config.KindValuation, bundle); err != nil {
		return nil, err
	}

	return &Report{
		Country:    doc.Name,
		Kind:       config.KindValuation,
		Best:       best,
		Metric:     "rmse",
		Score:      bestRMSE,
		Rows:       len(keep),
		Features:   len(fit.FeatureNames),
		Candidates: metrics,
	}, nil
}
