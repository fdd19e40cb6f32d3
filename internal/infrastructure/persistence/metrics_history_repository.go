package persistence

import (
	"context"

	"gorm.io/gorm"

	"github.com/opsconsole/backend/internal/domain/demand"
	"github.com/opsconsole/backend/internal/infrastructure/persistence/models"
)

// GormMetricsHistoryRepository reads and records historical marketplace
// metrics observations. Training runs stream the whole table.
type GormMetricsHistoryRepository struct {
	db *gorm.DB
}

// NewGormMetricsHistoryRepository creates a new GormMetricsHistoryRepository
func NewGormMetricsHistoryRepository(db *gorm.DB) *GormMetricsHistoryRepository {
	return &GormMetricsHistoryRepository{db: db}
}

// ListTrainingRows returns every recorded observation, oldest first.
func (r *GormMetricsHistoryRepository) ListTrainingRows(ctx context.Context) ([]demand.TrainingRow, error) {
	var observationModels []models.MetricsObservationModel
	if err := r.db.WithContext(ctx).
		Order("captured_at ASC").
		Find(&observationModels).Error; err != nil {
		return nil, err
	}

	rows := make([]demand.TrainingRow, len(observationModels))
	for i, model := range observationModels {
		rows[i] = model.ToTrainingRow()
	}
	return rows, nil
}

// RecordObservation appends one observation to the history.
func (r *GormMetricsHistoryRepository) RecordObservation(ctx context.Context, row demand.TrainingRow) error {
	return r.db.WithContext(ctx).Create(models.MetricsObservationModelFromRow(row)).Error
}

// RecordObservationBatch appends multiple observations to the history.
func (r *GormMetricsHistoryRepository) RecordObservationBatch(ctx context.Context, rows []demand.TrainingRow) error {
	if len(rows) == 0 {
		return nil
	}

	observationModels := make([]*models.MetricsObservationModel, len(rows))
	for i, row := range rows {
		observationModels[i] = models.MetricsObservationModelFromRow(row)
	}
	return r.db.WithContext(ctx).Create(observationModels).Error
}

// Ensure GormMetricsHistoryRepository implements TrainingDataSource
var _ demand.TrainingDataSource = (*GormMetricsHistoryRepository)(nil)
