package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/opsconsole/backend/internal/domain/listing"
	"github.com/opsconsole/backend/internal/infrastructure/persistence/models"
)

// GormMemoryEntryRepository implements listing.MemoryEntryRepository using GORM
type GormMemoryEntryRepository struct {
	db *gorm.DB
}

// NewGormMemoryEntryRepository creates a new GormMemoryEntryRepository
func NewGormMemoryEntryRepository(db *gorm.DB) *GormMemoryEntryRepository {
	return &GormMemoryEntryRepository{db: db}
}

// ---------------------------------------------------------------------------
// MemoryEntryReader implementation
// ---------------------------------------------------------------------------

// FindByID finds an entry by its ID
func (r *GormMemoryEntryRepository) FindByID(ctx context.Context, id uuid.UUID) (*listing.MemoryEntry, error) {
	var model models.MemoryEntryModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, listing.ErrEntryNotFound
		}
		return nil, err
	}
	return model.ToDomain()
}

// FindActiveByIdentifier returns all active entries matching the identifier.
// Legacy rows carry NULL in the active column and count as active.
func (r *GormMemoryEntryRepository) FindActiveByIdentifier(ctx context.Context, method listing.MatchMethod, value string) ([]listing.MemoryEntry, error) {
	column, err := identifierColumn(method)
	if err != nil {
		return nil, err
	}

	var entryModels []models.MemoryEntryModel
	if err := r.db.WithContext(ctx).
		Where(column+" = ? AND match_method = ? AND (active IS NULL OR active = ?)", value, method.String(), true).
		Order("created_at ASC").
		Find(&entryModels).Error; err != nil {
		return nil, err
	}

	entries := make([]listing.MemoryEntry, 0, len(entryModels))
	for _, model := range entryModels {
		entry, err := model.ToDomain()
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}
	return entries, nil
}

// ---------------------------------------------------------------------------
// MemoryEntryWriter implementation
// ---------------------------------------------------------------------------

// Save creates or updates an entry
func (r *GormMemoryEntryRepository) Save(ctx context.Context, entry *listing.MemoryEntry) error {
	if err := entry.Validate(); err != nil {
		return err
	}
	model := models.MemoryEntryModelFromDomain(entry)
	return r.db.WithContext(ctx).Save(model).Error
}

// AtomicSupersede deactivates the old entry and creates its replacement in one
// transaction. The deactivation is a conditional update on the active flag, so
// only one of two concurrent supersessions of the same entry can win; the
// loser observes ErrEntryAlreadySuperseded.
func (r *GormMemoryEntryRepository) AtomicSupersede(ctx context.Context, oldID uuid.UUID, newEntry *listing.MemoryEntry) error {
	if err := newEntry.Validate(); err != nil {
		return err
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.MemoryEntryModel{}).
			Where("id = ? AND (active IS NULL OR active = ?)", oldID, true).
			Updates(map[string]any{
				"active":     false,
				"updated_at": time.Now(),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			var count int64
			if err := tx.Model(&models.MemoryEntryModel{}).
				Where("id = ?", oldID).
				Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return listing.ErrEntryNotFound
			}
			return listing.ErrEntryAlreadySuperseded
		}

		return tx.Create(models.MemoryEntryModelFromDomain(newEntry)).Error
	})
}

// identifierColumn maps a match method to its identifier column.
func identifierColumn(method listing.MatchMethod) (string, error) {
	switch method {
	case listing.MatchMethodMarketplaceCode:
		return "marketplace_code", nil
	case listing.MatchMethodSellerCode:
		return "seller_code", nil
	case listing.MatchMethodTitleFingerprint:
		return "title_fingerprint", nil
	default:
		return "", listing.ErrInvalidMatchMethod
	}
}

// Ensure GormMemoryEntryRepository implements MemoryEntryRepository
var _ listing.MemoryEntryRepository = (*GormMemoryEntryRepository)(nil)
