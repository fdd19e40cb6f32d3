package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/opsconsole/backend/internal/domain/demand"
)

// DemandModelModel is the persistence model for a fitted demand calibration
// artifact. Coefficients and standardization parameters are stored as JSONB
// arrays in feature-index order.
type DemandModelModel struct {
	ID               uuid.UUID `gorm:"type:uuid;primary_key"`
	Version          int       `gorm:"not null;uniqueIndex:idx_demand_models_version"`
	Intercept        float64   `gorm:"not null"`
	CoefficientsJSON string    `gorm:"type:jsonb;column:coefficients;not null"`
	FeatureMeansJSON string    `gorm:"type:jsonb;column:feature_means;not null"`
	FeatureStdsJSON  string    `gorm:"type:jsonb;column:feature_stds;not null"`
	Lambda           float64   `gorm:"not null"`
	TrainingRows     int       `gorm:"not null"`
	HoldoutRows      int       `gorm:"not null"`
	HoldoutRMSE      float64   `gorm:"column:holdout_rmse;not null"`
	CreatedAt        time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (DemandModelModel) TableName() string {
	return "demand_models"
}

// ToDomain converts the persistence model to a domain Model artifact.
func (m *DemandModelModel) ToDomain() (*demand.Model, error) {
	model := &demand.Model{
		ID:           m.ID,
		Version:      m.Version,
		Intercept:    m.Intercept,
		Lambda:       m.Lambda,
		TrainingRows: m.TrainingRows,
		HoldoutRows:  m.HoldoutRows,
		HoldoutRMSE:  m.HoldoutRMSE,
		CreatedAt:    m.CreatedAt,
	}

	if err := unmarshalFeatureArray(m.CoefficientsJSON, &model.Coefficients); err != nil {
		return nil, fmt.Errorf("demand model %d: coefficients: %w", m.Version, err)
	}
	if err := unmarshalFeatureArray(m.FeatureMeansJSON, &model.FeatureMeans); err != nil {
		return nil, fmt.Errorf("demand model %d: feature means: %w", m.Version, err)
	}
	if err := unmarshalFeatureArray(m.FeatureStdsJSON, &model.FeatureStds); err != nil {
		return nil, fmt.Errorf("demand model %d: feature stds: %w", m.Version, err)
	}

	return model, nil
}

// FromDomain populates the persistence model from a domain Model artifact.
func (m *DemandModelModel) FromDomain(model *demand.Model) {
	m.ID = model.ID
	m.Version = model.Version
	m.Intercept = model.Intercept
	m.CoefficientsJSON = marshalFeatureArray(model.Coefficients)
	m.FeatureMeansJSON = marshalFeatureArray(model.FeatureMeans)
	m.FeatureStdsJSON = marshalFeatureArray(model.FeatureStds)
	m.Lambda = model.Lambda
	m.TrainingRows = model.TrainingRows
	m.HoldoutRows = model.HoldoutRows
	m.HoldoutRMSE = model.HoldoutRMSE
	m.CreatedAt = model.CreatedAt
}

// DemandModelModelFromDomain creates a new persistence model from a domain Model artifact.
func DemandModelModelFromDomain(model *demand.Model) *DemandModelModel {
	m := &DemandModelModel{}
	m.FromDomain(model)
	return m
}

func marshalFeatureArray(values [demand.FeatureCount]float64) string {
	// Marshaling a fixed float array cannot fail
	data, _ := json.Marshal(values[:])
	return string(data)
}

func unmarshalFeatureArray(raw string, dst *[demand.FeatureCount]float64) error {
	var values []float64
	if err := json.Unmarshal([]byte(raw), &values); err != nil {
		return err
	}
	if len(values) != demand.FeatureCount {
		return fmt.Errorf("expected %d features, got %d", demand.FeatureCount, len(values))
	}
	copy(dst[:], values)
	return nil
}
