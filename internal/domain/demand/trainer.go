package demand

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"
)

// ---------------------------------------------------------------------------
// Ridge Regression Trainer
// ---------------------------------------------------------------------------

// TrainingRow pairs one historical metrics snapshot with the observed unit
// velocity for that listing.
type TrainingRow struct {
	Metrics     MetricsSnapshot
	UnitsPerDay float64
}

// TrainingDataSource supplies the historical observations a training run fits
// over.
type TrainingDataSource interface {
	ListTrainingRows(ctx context.Context) ([]TrainingRow, error)
}

// Trainer fits demand calibration models over the full historical dataset.
// Fitting is a batch, CPU-bound operation expected to run offline; it never
// mutates a published model, it produces a new one.
type Trainer struct {
	holdoutResidue int
}

// TrainerOption configures a Trainer.
type TrainerOption func(*Trainer)

// WithHoldoutResidue selects which hash residue forms the holdout partition.
func WithHoldoutResidue(residue int) TrainerOption {
	return func(t *Trainer) {
		t.holdoutResidue = residue
	}
}

// NewTrainer creates a Trainer.
func NewTrainer(opts ...TrainerOption) *Trainer {
	t := &Trainer{holdoutResidue: DefaultHoldoutResidue}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Fit estimates standardized ridge coefficients via regularized normal
// equations: (XᵀX + λI)⁻¹Xᵀy, with the penalty applied to every diagonal
// entry except the intercept. Targets are log-transformed as ln(units + ε)
// to tolerate zero-inflated unit counts; the predictor undoes the transform.
//
// Listings hash into the holdout partition deterministically by marketplace
// code, so repeated runs over the same data reproduce the same partition,
// coefficients, and holdout error. Rows without a sales rank are skipped.
func (t *Trainer) Fit(rows []TrainingRow, lambda float64) (*Model, error) {
	if lambda < 0 {
		return nil, ErrInvalidLambda
	}

	var train, holdout []TrainingRow
	for _, row := range rows {
		if row.Metrics.SalesRank == nil {
			continue
		}
		if IsHoldout(row.Metrics.MarketplaceCode, t.holdoutResidue) {
			holdout = append(holdout, row)
		} else {
			train = append(train, row)
		}
	}
	if len(train) == 0 {
		return nil, ErrNoTrainingData
	}

	features, targets := t.buildTrainingSet(train)

	means, stds := standardizationParams(features)
	design := make([][]float64, len(features))
	for i, f := range features {
		row := make([]float64, FeatureCount+1)
		row[0] = 1 // intercept column
		for j, v := range f {
			row[j+1] = (v - means[j]) / stds[j]
		}
		design[i] = row
	}

	x, err := NewMatrixFromRows(design)
	if err != nil {
		return nil, err
	}
	y, err := NewVector(targets)
	if err != nil {
		return nil, err
	}

	xtx, err := x.TransposeMul().AddRidge(lambda)
	if err != nil {
		return nil, err
	}
	xty, err := x.TransposeMulVec(y)
	if err != nil {
		return nil, err
	}
	coefficients, err := SolveLinear(xtx, xty)
	if err != nil {
		return nil, err
	}

	model := &Model{
		ID:           uuid.New(),
		Intercept:    coefficients.AtVec(0),
		Lambda:       lambda,
		TrainingRows: len(train),
		HoldoutRows:  len(holdout),
		CreatedAt:    time.Now(),
	}
	for j := 0; j < FeatureCount; j++ {
		model.Coefficients[j] = coefficients.AtVec(j + 1)
		model.FeatureMeans[j] = means[j]
		model.FeatureStds[j] = stds[j]
	}
	model.HoldoutRMSE = holdoutRMSE(model, holdout)

	return model, nil
}

// buildTrainingSet extracts raw (unstandardized) feature rows and log-scale
// targets. Missing prices are imputed with the mean log price of the rows
// that do carry one, computed over this training partition, so the column
// mean the model stores doubles as the inference-time imputation value.
func (t *Trainer) buildTrainingSet(train []TrainingRow) ([][FeatureCount]float64, []float64) {
	features := make([][FeatureCount]float64, len(train))
	targets := make([]float64, len(train))
	imputed := make([]bool, len(train))

	var priceSum float64
	var priceN int
	for i, row := range train {
		vec, debug, _ := ExtractFeatures(row.Metrics, 0)
		features[i] = vec.Values()
		targets[i] = math.Log(math.Max(row.UnitsPerDay, 0) + Epsilon)
		imputed[i] = debug.PriceImputed
		if !debug.PriceImputed {
			priceSum += vec.LnPrice
			priceN++
		}
	}

	var meanLnPrice float64
	if priceN > 0 {
		meanLnPrice = priceSum / float64(priceN)
	}
	for i := range features {
		if imputed[i] {
			features[i][FeatureLnPrice] = meanLnPrice
		}
	}
	return features, targets
}

// standardizationParams computes per-column means and standard deviations. A
// column with fewer than two samples or zero variance gets a standard
// deviation of exactly 1 so standardization never divides by zero.
func standardizationParams(features [][FeatureCount]float64) (means, stds [FeatureCount]float64) {
	n := float64(len(features))
	for _, f := range features {
		for j, v := range f {
			means[j] += v
		}
	}
	for j := range means {
		means[j] /= n
	}

	for j := range stds {
		stds[j] = 1
	}
	if len(features) < 2 {
		return means, stds
	}
	for j := 0; j < FeatureCount; j++ {
		var ss float64
		for _, f := range features {
			d := f[j] - means[j]
			ss += d * d
		}
		if ss > 0 {
			stds[j] = math.Sqrt(ss / (n - 1))
		}
	}
	return means, stds
}

// holdoutRMSE scores the fitted model on the holdout partition, on the log
// scale. Returns 0 when no holdout row is scorable.
func holdoutRMSE(model *Model, holdout []TrainingRow) float64 {
	var ss float64
	var n int
	for _, row := range holdout {
		estimate, err := Predict(row.Metrics, model)
		if err != nil {
			continue
		}
		residual := estimate.LogScale - math.Log(math.Max(row.UnitsPerDay, 0)+Epsilon)
		ss += residual * residual
		n++
	}
	if n == 0 {
		return 0
	}
	return math.Sqrt(ss / float64(n))
}
