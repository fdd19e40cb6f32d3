package demand

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ---------------------------------------------------------------------------
// Demand Errors
// ---------------------------------------------------------------------------

var (
	ErrNoModel        = errors.New("demand: no calibration model available")
	ErrModelNotFound  = errors.New("demand: model version not found")
	ErrMissingFeature = errors.New("demand: sales rank is required")
	ErrNoTrainingData = errors.New("demand: no training rows after holdout split")
	ErrInvalidLambda  = errors.New("demand: ridge lambda must be non-negative")
)

// ---------------------------------------------------------------------------
// Feature space
// ---------------------------------------------------------------------------

// Feature indices into coefficient/mean/std slices. The order is part of the
// persisted model format.
const (
	FeatureLnRank = iota
	FeatureLnOffer
	FeatureLnPrice
	FeatureCount
)

// ---------------------------------------------------------------------------
// Model artifact
// ---------------------------------------------------------------------------

// Model is a fitted demand calibration artifact: the standardization
// parameters and ridge coefficients needed to score a feature vector, plus
// training metadata. A model is immutable once fitted; retraining produces a
// new version, never an in-place mutation.
type Model struct {
	// ID is the unique identifier of this artifact
	ID uuid.UUID
	// Version is a monotonically increasing publish number, assigned on save
	Version int
	// Intercept is the unshrunk bias term
	Intercept float64
	// Coefficients holds one standardized coefficient per feature
	Coefficients [FeatureCount]float64
	// FeatureMeans / FeatureStds are the training-set standardization
	// parameters; inference must scale with exactly these values
	FeatureMeans [FeatureCount]float64
	FeatureStds  [FeatureCount]float64
	// Lambda is the ridge penalty the model was fitted with
	Lambda float64
	// TrainingRows / HoldoutRows are the partition sizes
	TrainingRows int
	HoldoutRows  int
	// HoldoutRMSE is the log-scale root mean squared error on the holdout set.
	// Zero when the holdout partition was empty.
	HoldoutRMSE float64
	// CreatedAt is when the model was fitted
	CreatedAt time.Time
}

// MeanLnPrice returns the training-set mean of the log price feature, used to
// impute missing prices at inference time.
func (m *Model) MeanLnPrice() float64 {
	return m.FeatureMeans[FeatureLnPrice]
}

// ---------------------------------------------------------------------------
// Model Repository Interface
// ---------------------------------------------------------------------------

// ModelRepository persists and retrieves model artifacts. Save assigns the
// next version number; existing versions are never overwritten.
type ModelRepository interface {
	// Save persists a newly fitted model, assigning its version
	Save(ctx context.Context, model *Model) error

	// LoadLatest returns the most recently published model, or ErrNoModel
	LoadLatest(ctx context.Context) (*Model, error)

	// LoadVersion returns a specific version, or ErrModelNotFound
	LoadVersion(ctx context.Context, version int) (*Model, error)
}
