// Package training fits the per-country model artifacts: the deal
// classifier, the valuation regressor, the per-investor preference models
// and the company similarity index. Each trainer loads the raw country
// dataset, converts it to canonical rows, runs the feature pipeline in fit
// mode and persists the winning model together with the frozen
// preprocessing state.
package training

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/tankintel/internal/adapters"
	"github.com/aristath/tankintel/internal/artifacts"
	"github.com/aristath/tankintel/internal/config"
	"github.com/aristath/tankintel/internal/schema"
)

// CandidateMetrics is the held-out evaluation of one model family.
type CandidateMetrics struct {
	Name      string  `json:"name"`
	Accuracy  float64 `json:"accuracy,omitempty"`
	Precision float64 `json:"precision,omitempty"`
	Recall    float64 `json:"recall,omitempty"`
	ROCAUC    float64 `json:"roc_auc,omitempty"`
	RMSE      float64 `json:"rmse,omitempty"`
	MAE       float64 `json:"mae,omitempty"`
	R2        float64 `json:"r2,omitempty"`
}

// Report summarizes one completed training run.
type Report struct {
	Country    string             `json:"country"`
	Kind       string             `json:"kind"`
	Best       string             `json:"best"`
	Metric     string             `json:"metric"`
	Score      float64            `json:"score"`
	Rows       int                `json:"rows"`
	Features   int                `json:"features"`
	Candidates []CandidateMetrics `json:"candidates,omitempty"`
	Duration   time.Duration      `json:"duration"`
}

// RunRecord is the ledger row written for every run, successful or not.
type RunRecord struct {
	Country   string
	Kind      string
	BestModel string
	Metric    string
	Score     float64
	Rows      int
	StartedAt time.Time
	Duration  time.Duration
	Error     string
}

// Recorder persists run records. Implementations must tolerate concurrent
// calls.
type Recorder interface {
	RecordRun(ctx context.Context, rec RunRecord) error
}

// Trainer fits and persists model artifacts for configured countries.
type Trainer struct {
	countries *config.Registry
	adapters  *adapters.Registry
	store     *artifacts.Store
	dataDir   string
	seed      int64
	log       zerolog.Logger
	events    Publisher
	recorder  Recorder
}

// Option configures optional trainer collaborators.
type Option func(*Trainer)

// WithPublisher attaches a progress event publisher.
func WithPublisher(p Publisher) Option {
	return func(t *Trainer) { t.events = p }
}

// WithRecorder attaches a run ledger.
func WithRecorder(r Recorder) Option {
	return func(t *Trainer) { t.recorder = r }
}

// WithSeed overrides the default random seed.
func WithSeed(seed int64) Option {
	return func(t *Trainer) { t.seed = seed }
}

// NewTrainer creates a trainer.
func NewTrainer(countries *config.Registry, adapterReg *adapters.Registry, store *artifacts.Store, dataDir string, log zerolog.Logger, opts ...Option) *Trainer {
	t := &Trainer{
		countries: countries,
		adapters:  adapterReg,
		store:     store,
		dataDir:   dataDir,
		seed:      42,
		log:       log.With().Str("service", "training").Logger(),
		events:    NopPublisher{},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Train runs one training kind for one country and records the outcome.
func (t *Trainer) Train(ctx context.Context, country, kind string) (*Report, error) {
	started := time.Now()
	t.publish(country, kind, StageStarted, "training run started")

	var report *Report
	var err error
	switch kind {
	case config.KindDeal:
		report, err = t.TrainDeal(ctx, country)
	case config.KindValuation:
		report, err = t.TrainValuation(ctx, country)
	case config.KindInvestors:
		report, err = t.TrainInvestors(ctx, country)
	case config.KindSimilarity:
		report, err = t.TrainSimilarity(ctx, country)
	default:
		err = fmt.Errorf("unknown training kind %q", kind)
	}

	rec := RunRecord{
		Country:   country,
		Kind:      kind,
		StartedAt: started,
		Duration:  time.Since(started),
	}
	if err != nil {
		rec.Error = err.Error()
		t.publish(country, kind, StageFailed, err.Error())
	} else {
		rec.BestModel = report.Best
		rec.Metric = report.Metric
		rec.Score = report.Score
		rec.Rows = report.Rows
		report.Duration = rec.Duration
		t.publish(country, kind, StageCompleted, fmt.Sprintf("best=%s %s=%.4f", report.Best, report.Metric, report.Score))
	}
	if t.recorder != nil {
		if recErr := t.recorder.RecordRun(ctx, rec); recErr != nil {
			t.log.Error().Err(recErr).Str("country", country).Str("kind", kind).Msg("Failed to record training run")
		}
	}
	return report, err
}

// TrainAll runs every training kind for one country. The first failure
// aborts the remaining kinds.
func (t *Trainer) TrainAll(ctx context.Context, country string) ([]*Report, error) {
	var reports []*Report
	for _, kind := range config.Kinds() {
		report, err := t.Train(ctx, country, kind)
		if err != nil {
			return reports, fmt.Errorf("train %s/%s: %w", country, kind, err)
		}
		reports = append(reports, report)
	}
	return reports, nil
}

// TrainAllCountries runs every training kind for every configured country.
// Failures are logged and do not stop the remaining countries.
func (t *Trainer) TrainAllCountries(ctx context.Context) []*Report {
	var reports []*Report
	for _, name := range t.countries.Countries() {
		got, err := t.TrainAll(ctx, name)
		reports = append(reports, got...)
		if err != nil {
			t.log.Error().Err(err).Str("country", name).Msg("Training failed")
		}
	}
	return reports
}

// loadCanonical loads one country's raw dataset and converts it to the
// canonical row shape.
func (t *Trainer) loadCanonical(country string) (*config.Country, *schema.Frame, error) {
	doc, err := t.countries.Get(country)
	if err != nil {
		return nil, nil, err
	}
	adapter := t.adapters.Get(doc)

	path := doc.DatasetPath
	if !filepath.IsAbs(path) {
		path = filepath.Join(t.dataDir, path)
	}
	raw, err := adapter.Load(path)
	if err != nil {
		return nil, nil, fmt.Errorf("load dataset for %s: %w", doc.Name, err)
	}

	frame, err := adapter.ToCanonical(raw)
	if err != nil {
		return nil, nil, fmt.Errorf("canonicalize dataset for %s: %w", doc.Name, err)
	}
	t.log.Debug().Str("country", doc.Name).Int("rows", frame.Rows()).Msg("Dataset loaded")
	return doc, frame, nil
}

func (t *Trainer) publish(country, kind, stage, msg string) {
	t.events.Publish(Event{
		Time:    time.Now(),
		Country: country,
		Kind:    kind,
		Stage:   stage,
		Message: msg,
	})
}

// saveArtifact resolves the artifact path for a kind and writes the bundle.
func (t *Trainer) saveArtifact(doc *config.Country, kind string, bundle any) error {
	path, err := doc.ArtifactPath(kind)
	if err != nil {
		return err
	}
	if err := t.store.Save(path, bundle); err != nil {
		return fmt.Errorf("save %s artifact for %s: %w", kind, doc.Name, err)
	}
	t.publish(doc.Name, kind, StageSaved, path)
	return nil
}
