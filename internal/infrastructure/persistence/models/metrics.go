package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/opsconsole/backend/internal/domain/demand"
)

// MetricsObservationModel is one historical marketplace metrics snapshot with
// its observed unit velocity, the raw material of a training run.
type MetricsObservationModel struct {
	ID              uuid.UUID `gorm:"type:uuid;primary_key"`
	MarketplaceCode string    `gorm:"type:varchar(100);not null;index"`
	SalesRank       *int64
	OfferCount      *int64
	PriceMinorUnits *int64
	UnitsPerDay     float64   `gorm:"not null"`
	CapturedAt      time.Time `gorm:"not null;index"`
	CreatedAt       time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (MetricsObservationModel) TableName() string {
	return "listing_metrics_history"
}

// ToTrainingRow converts the persistence model to a domain TrainingRow.
func (m *MetricsObservationModel) ToTrainingRow() demand.TrainingRow {
	return demand.TrainingRow{
		Metrics: demand.MetricsSnapshot{
			MarketplaceCode: m.MarketplaceCode,
			SalesRank:       m.SalesRank,
			OfferCount:      m.OfferCount,
			PriceMinorUnits: m.PriceMinorUnits,
			CapturedAt:      m.CapturedAt,
		},
		UnitsPerDay: m.UnitsPerDay,
	}
}

// MetricsObservationModelFromRow creates a new persistence model from a domain TrainingRow.
func MetricsObservationModelFromRow(row demand.TrainingRow) *MetricsObservationModel {
	return &MetricsObservationModel{
		ID:              uuid.New(),
		MarketplaceCode: row.Metrics.MarketplaceCode,
		SalesRank:       row.Metrics.SalesRank,
		OfferCount:      row.Metrics.OfferCount,
		PriceMinorUnits: row.Metrics.PriceMinorUnits,
		UnitsPerDay:     row.UnitsPerDay,
		CapturedAt:      row.Metrics.CapturedAt,
		CreatedAt:       time.Now(),
	}
}
