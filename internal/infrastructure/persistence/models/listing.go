package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/opsconsole/backend/internal/domain/listing"
)

// MemoryEntryModel is the persistence model for the listing MemoryEntry domain entity.
type MemoryEntryModel struct {
	ID               uuid.UUID  `gorm:"type:uuid;primary_key"`
	MarketplaceCode  string     `gorm:"type:varchar(100);index:idx_memory_entries_marketplace_code"`
	SellerCode       string     `gorm:"type:varchar(100);index:idx_memory_entries_seller_code"`
	TitleFingerprint string     `gorm:"type:varchar(500);index:idx_memory_entries_title_fingerprint"`
	TargetBOMID      *uuid.UUID `gorm:"type:uuid;column:target_bom_id;index"`
	MatchMethod      string     `gorm:"type:varchar(20);not null;index"`
	Active           *bool      `gorm:"index"`
	SupersedesID     *uuid.UUID `gorm:"type:uuid"`
	CreatedAt        time.Time  `gorm:"not null"`
	UpdatedAt        time.Time  `gorm:"not null"`
}

// TableName returns the table name for GORM
func (MemoryEntryModel) TableName() string {
	return "listing_memory_entries"
}

// ToDomain converts the persistence model to a domain MemoryEntry entity.
func (m *MemoryEntryModel) ToDomain() (*listing.MemoryEntry, error) {
	method, err := listing.ParseMatchMethod(m.MatchMethod)
	if err != nil {
		return nil, err
	}

	return &listing.MemoryEntry{
		ID:               m.ID,
		MarketplaceCode:  m.MarketplaceCode,
		SellerCode:       m.SellerCode,
		TitleFingerprint: m.TitleFingerprint,
		TargetBOMID:      m.TargetBOMID,
		Method:           method,
		Active:           m.Active,
		SupersedesID:     m.SupersedesID,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}, nil
}

// FromDomain populates the persistence model from a domain MemoryEntry entity.
func (m *MemoryEntryModel) FromDomain(e *listing.MemoryEntry) {
	m.ID = e.ID
	m.MarketplaceCode = e.MarketplaceCode
	m.SellerCode = e.SellerCode
	m.TitleFingerprint = e.TitleFingerprint
	m.TargetBOMID = e.TargetBOMID
	m.MatchMethod = e.Method.String()
	m.Active = e.Active
	m.SupersedesID = e.SupersedesID
	m.CreatedAt = e.CreatedAt
	m.UpdatedAt = e.UpdatedAt
}

// MemoryEntryModelFromDomain creates a new persistence model from a domain MemoryEntry entity.
func MemoryEntryModelFromDomain(e *listing.MemoryEntry) *MemoryEntryModel {
	m := &MemoryEntryModel{}
	m.FromDomain(e)
	return m
}
