package training

import (
	"context"
	"fmt"
	"sort"

	"github.com/aristath/tankintel/internal/artifacts"
	"github.com/aristath/tankintel/internal/config"
	"github.com/aristath/tankintel/internal/models"
	"github.com/aristath/tankintel/internal/pipeline"
	"github.com/aristath/tankintel/internal/schema"
)

// TrainInvestors fits one preference classifier per configured investor,
// trained only on the episodes where that investor was present. Investors
// whose history holds a single class are skipped and simply absent from the
// artifact.
func (t *Trainer) TrainInvestors(ctx context.Context, country string) (*Report, error) {
	doc, frame, err := t.loadCanonical(country)
	if err != nil {
		return nil, err
	}
	t.publish(doc.Name, config.KindInvestors, StageLoading, fmt.Sprintf("%d rows", frame.Rows()))

	// Per-investor targets: invested means a positive investment amount.
	invested := make(map[string][]float64, len(doc.Investors))
	for _, inv := range doc.Investors {
		target := make([]float64, frame.Rows())
		if amounts := frame.Numeric(schema.InvestorAmountColumn(inv.Name)); amounts != nil {
			for i, v := range amounts {
				if v > 0 {
					target[i] = 1
				}
			}
		}
		invested[inv.Name] = target
	}

	fit, err := pipeline.Fit(frame)
	if err != nil {
		return nil, err
	}
	x, err := fit.X.Matrix(fit.FeatureNames)
	if err != nil {
		return nil, err
	}

	t.publish(doc.Name, config.KindInvestors, StageTraining, "fitting per-investor models")

	var investorModels []artifacts.InvestorModel
	insights := make(map[string]artifacts.InvestorInsight)
	var metrics []CandidateMetrics

	for _, inv := range doc.Investors {
		present := frame.Numeric(schema.InvestorPresentColumn(inv.Name))
		if present == nil {
			continue
		}
		var rows []int
		for i, v := range present {
			if v == 1 {
				rows = append(rows, i)
			}
		}
		if len(rows) == 0 {
			t.log.Debug().Str("country", doc.Name).Str("investor", inv.Name).Msg("Investor never present, skipping")
			continue
		}

		y := make([]float64, len(rows))
		var positives int
		for i, r := range rows {
			y[i] = invested[inv.Name][r]
			if y[i] == 1 {
				positives++
			}
		}
		if positives == 0 || positives == len(rows) {
			t.log.Debug().Str("country", doc.Name).Str("investor", inv.Name).Msg("Single-class investment history, skipping")
			continue
		}

		rf, err := models.FitRandomForest(takeMatrix(x, rows), y, models.ForestConfig{Seed: t.seed})
		if err != nil {
			t.log.Warn().Err(err).Str("country", doc.Name).Str("investor", inv.Name).Msg("Investor model fit failed, skipping")
			continue
		}
		env, err := models.Wrap(rf)
		if err != nil {
			return nil, err
		}
		investorModels = append(investorModels, artifacts.InvestorModel{Name: inv.Name, Model: env})

		rate := float64(positives) / float64(len(rows))
		insights[inv.Name] = artifacts.InvestorInsight{
			TopFeatures:    topImportances(fit.FeatureNames, env.FeatureImportances(), 5),
			InvestmentRate: rate,
		}

		m := evaluateInvestor(env, takeMatrix(x, rows), y)
		m.Name = inv.Name
		metrics = append(metrics, m)
		t.log.Info().Str("country", doc.Name).Str("investor", inv.Name).
			Int("episodes", len(rows)).Float64("investment_rate", rate).
			Float64("accuracy", m.Accuracy).Msg("Investor model trained")
	}
	if len(investorModels) == 0 {
		return nil, fmt.Errorf("no investor had a trainable investment history for %s", doc.Name)
	}
	t.publish(doc.Name, config.KindInvestors, StageSelected, fmt.Sprintf("%d investor models", len(investorModels)))

	bundle := &artifacts.InvestorsBundle{
		Investors:    investorModels,
		Insights:     insights,
		Encoder:      fit.Encoder,
		Scaler:       fit.Scaler,
		FeatureNames: fit.FeatureNames,
		Country:      doc.Name,
	}
	if err := t.saveArtifact(doc, config.KindInvestors, bundle); err != nil {
		return nil, err
	}

	return &Report{
		Country:    doc.Name,
		Kind:       config.KindInvestors,
		Best:       candidateForest,
		Metric:     "models",
		Score:      float64(len(investorModels)),
		Rows:       frame.Rows(),
		Features:   len(fit.FeatureNames),
		Candidates: metrics,
	}, nil
}

// evaluateInvestor scores a fitted investor model on its own training
// episodes, matching how investor fit quality is reported.
func evaluateInvestor(env *models.Envelope, x [][]float64, y []float64) CandidateMetrics {
	clf, err := env.Classifier()
	if err != nil {
		return CandidateMetrics{}
	}
	scores := make([]float64, len(x))
	preds := make([]float64, len(x))
	for i, row := range x {
		p, err := clf.PredictProba(row)
		if err != nil {
			return CandidateMetrics{}
		}
		scores[i] = p
		if p >= 0.5 {
			preds[i] = 1
		}
	}
	auc, err := models.ROCAUC(y, scores)
	if err != nil {
		auc = 0.5
	}
	return CandidateMetrics{
		Accuracy:  models.Accuracy(y, preds),
		Precision: models.Precision(y, preds),
		ROCAUC:    auc,
	}
}

// topImportances pairs feature names with importances and returns the top n
// by descending importance.
func topImportances(names []string, importances []float64, n int) []artifacts.FeatureImportance {
	if len(importances) != len(names) {
		return nil
	}
	paired := make([]artifacts.FeatureImportance, len(names))
	for i := range names {
		paired[i] = artifacts.FeatureImportance{Feature: names[i], Importance: importances[i]}
	}
	sort.SliceStable(paired, func(a, b int) bool { return paired[a].Importance > paired[b].Importance })
	if n > len(paired) {
		n = len(paired)
	}
	return paired[:n]
}
