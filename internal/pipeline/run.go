package pipeline

import (
	"fmt"

	"github.com/aristath/tankintel/internal/schema"
)

// FitResult is the output of a fit-mode pipeline run: the feature matrix,
// the deal target, and the frozen preprocessing state a model artifact
// needs to reproduce this exact feature space at inference time.
type FitResult struct {
	X            *schema.Frame
	Y            []float64 // derived 'deal' target, aligned with X rows
	Encoder      *Encoder
	Scaler       *Scaler
	FeatureNames []string
}

// Fit runs the composed pipeline in fit mode: missing values, target
// derivation, feature selection, categorical encoding and numeric scaling,
// fitting fresh encoder and scaler state.
func Fit(f *schema.Frame) (*FitResult, error) {
	df := f.Copy()
	HandleMissingValues(df)
	CreateTargets(df)

	sel := SelectFeatures(df, true)

	var y []float64
	if deal := sel.Numeric(schema.ColDeal); deal != nil {
		y = make([]float64, len(deal))
		copy(y, deal)
	}
	dropOutcomes(sel)

	encoder := &Encoder{}
	encoder.Fit(sel)
	dropOutcomes(sel) // guard reasserted after categorical expansion

	scaler := &Scaler{}
	scaler.Fit(sel)

	featureNames := sel.Columns()
	if err := assertNoOutcomes(featureNames); err != nil {
		return nil, err
	}

	return &FitResult{
		X:            sel,
		Y:            y,
		Encoder:      encoder,
		Scaler:       scaler,
		FeatureNames: featureNames,
	}, nil
}

// Transform runs the composed pipeline in transform-only mode against the
// frozen encoder, scaler and feature names captured at fit time. The
// returned frame's column set and order are byte-for-byte identical to
// featureNames: absent columns are zero-filled and extra columns dropped,
// guaranteeing model input shape stability for arbitrary records.
func Transform(f *schema.Frame, encoder *Encoder, scaler *Scaler, featureNames []string) (*schema.Frame, error) {
	if encoder == nil || scaler == nil {
		return nil, fmt.Errorf("transform-only mode requires fitted encoder and scaler state")
	}
	if err := assertNoOutcomes(featureNames); err != nil {
		return nil, err
	}

	df := f.Copy()
	HandleMissingValues(df)

	sel := SelectFeatures(df, false)
	dropOutcomes(sel)

	encoder.Transform(sel)
	dropOutcomes(sel)

	aligned := reindex(sel, featureNames)
	scaler.Transform(aligned)
	return aligned, nil
}

// reindex builds a frame whose columns exactly match featureNames in order,
// zero-filling columns the input lacks and dropping everything else.
func reindex(f *schema.Frame, featureNames []string) *schema.Frame {
	out := schema.NewFrame(f.Rows())
	for _, name := range featureNames {
		if vals := f.Numeric(name); vals != nil {
			copied := make([]float64, len(vals))
			copy(copied, vals)
			out.SetNumeric(name, copied)
			continue
		}
		out.FillNumeric(name, 0)
	}
	return out
}

// assertNoOutcomes is the structural leakage guard: no feature-name set may
// ever contain an outcome variable.
func assertNoOutcomes(featureNames []string) error {
	for _, name := range featureNames {
		if schema.IsOutcomeVariable(name) {
			return fmt.Errorf("outcome variable %q leaked into feature names", name)
		}
	}
	return nil
}
