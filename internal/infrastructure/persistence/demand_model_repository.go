package persistence

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/opsconsole/backend/internal/domain/demand"
	"github.com/opsconsole/backend/internal/infrastructure/persistence/models"
)

// GormDemandModelRepository implements demand.ModelRepository using GORM
type GormDemandModelRepository struct {
	db *gorm.DB
}

// NewGormDemandModelRepository creates a new GormDemandModelRepository
func NewGormDemandModelRepository(db *gorm.DB) *GormDemandModelRepository {
	return &GormDemandModelRepository{db: db}
}

// Save persists a newly fitted model as the next version. The version number
// is assigned inside the transaction; the unique index on version turns a
// racing publish into a constraint violation instead of a silent overwrite.
func (r *GormDemandModelRepository) Save(ctx context.Context, model *demand.Model) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var maxVersion int
		if err := tx.Model(&models.DemandModelModel{}).
			Select("COALESCE(MAX(version), 0)").
			Scan(&maxVersion).Error; err != nil {
			return err
		}
		model.Version = maxVersion + 1

		return tx.Create(models.DemandModelModelFromDomain(model)).Error
	})
}

// LoadLatest returns the most recently published model, or ErrNoModel
func (r *GormDemandModelRepository) LoadLatest(ctx context.Context) (*demand.Model, error) {
	var model models.DemandModelModel
	if err := r.db.WithContext(ctx).
		Order("version DESC").
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, demand.ErrNoModel
		}
		return nil, err
	}
	return model.ToDomain()
}

// LoadVersion returns a specific published version, or ErrModelNotFound
func (r *GormDemandModelRepository) LoadVersion(ctx context.Context, version int) (*demand.Model, error) {
	var model models.DemandModelModel
	if err := r.db.WithContext(ctx).
		First(&model, "version = ?", version).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, demand.ErrModelNotFound
		}
		return nil, err
	}
	return model.ToDomain()
}

// Ensure GormDemandModelRepository implements ModelRepository
var _ demand.ModelRepository = (*GormDemandModelRepository)(nil)
