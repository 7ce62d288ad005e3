package training

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/aristath/tankintel/internal/artifacts"
	"github.com/aristath/tankintel/internal/config"
	"github.com/aristath/tankintel/internal/schema"
	"github.com/aristath/tankintel/internal/similarity"
)

// similarityNumericColumns is the numeric profile stored alongside each
// company's description vector.
var similarityNumericColumns = []string{
	schema.ColAskAmount,
	schema.ColAskEquity,
	schema.ColValuationRequested,
	schema.ColMonthlySales,
}

// TrainSimilarity builds the company similarity index for one country: a
// TF-IDF vectorizer fit on business descriptions plus per-company vectors.
// A corpus of empty descriptions gets a degenerate single-term index so the
// artifact still exists and queries return no matches.
func (t *Trainer) TrainSimilarity(ctx context.Context, country string) (*Report, error) {
	doc, frame, err := t.loadCanonical(country)
	if err != nil {
		return nil, err
	}
	t.publish(doc.Name, config.KindSimilarity, StageLoading, fmt.Sprintf("%d rows", frame.Rows()))

	n := frame.Rows()
	descriptions := make([]string, n)
	if vals := frame.Categorical(schema.ColBusinessDescription); vals != nil {
		copy(descriptions, vals)
	}

	t.publish(doc.Name, config.KindSimilarity, StageTraining, "fitting vectorizer")
	vectorizer, err := similarity.FitVectorizer(descriptions, similarity.DefaultVectorizerConfig())
	if err != nil {
		t.log.Warn().Str("country", doc.Name).Msg("Empty description corpus, building placeholder vectorizer")
		placeholder := make([]string, n)
		for i := range placeholder {
			placeholder[i] = "dummy"
		}
		vectorizer, err = similarity.FitVectorizer(placeholder, similarity.VectorizerConfig{MaxFeatures: 10, MinDF: 1})
		if err != nil {
			return nil, fmt.Errorf("placeholder vectorizer fit: %w", err)
		}
	}

	// Scaled numeric profile per company, missing values treated as zero.
	var numericCols []string
	for _, col := range similarityNumericColumns {
		if frame.Numeric(col) != nil {
			numericCols = append(numericCols, col)
		}
	}
	means := make([]float64, len(numericCols))
	stds := make([]float64, len(numericCols))
	scaled := make([][]float64, n)
	for i := range scaled {
		scaled[i] = make([]float64, len(numericCols))
	}
	for j, col := range numericCols {
		vals := make([]float64, n)
		for i, v := range frame.Numeric(col) {
			if !math.IsNaN(v) {
				vals[i] = v
			}
		}
		means[j] = stat.Mean(vals, nil)
		stds[j] = stat.PopStdDev(vals, nil)
		scale := stds[j]
		if scale == 0 {
			scale = 1
		}
		for i := range vals {
			scaled[i][j] = (vals[i] - means[j]) / scale
		}
	}

	names := frame.Categorical(schema.ColStartupName)
	industries := frame.Categorical(schema.ColIndustry)
	askAmounts := frame.Numeric(schema.ColAskAmount)
	askEquities := frame.Numeric(schema.ColAskEquity)

	companies := make([]similarity.CompanyRecord, n)
	for i := 0; i < n; i++ {
		rec := similarity.CompanyRecord{
			Name:        fmt.Sprintf("Company %d", i+1),
			Industry:    "Unknown",
			Description: descriptions[i],
			TextVec:     vectorizer.Transform(descriptions[i]),
			NumericVec:  scaled[i],
		}
		if names != nil && names[i] != "" {
			rec.Name = names[i]
		}
		if industries != nil && industries[i] != "" {
			rec.Industry = industries[i]
		}
		if askAmounts != nil && !math.IsNaN(askAmounts[i]) {
			rec.AskAmount = askAmounts[i]
		}
		if askEquities != nil && !math.IsNaN(askEquities[i]) {
			rec.AskEquity = askEquities[i]
		}
		companies[i] = rec
	}

	bundle := &artifacts.SimilarityBundle{
		Index: &similarity.Index{
			Vectorizer:     vectorizer,
			NumericColumns: numericCols,
			NumericMeans:   means,
			NumericStds:    stds,
			Companies:      companies,
			Country:        doc.Name,
		},
	}
	t.publish(doc.Name, config.KindSimilarity, StageSelected, fmt.Sprintf("vocabulary=%d companies=%d", len(vectorizer.Vocabulary), n))
	if err := t.saveArtifact(doc, config.KindSimilarity, bundle); err != nil {
		return nil, err
	}

	return &Report{
		Country:  doc.Name,
		Kind:     config.KindSimilarity,
		Best:     "TF-IDF",
		Metric:   "vocabulary",
		Score:    float64(len(vectorizer.Vocabulary)),
		Rows:     n,
		Features: len(vectorizer.Vocabulary),
	}, nil
}
