package listing

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ---------------------------------------------------------------------------
// Listing Errors
// ---------------------------------------------------------------------------

var (
	// Identifier errors
	ErrNoUsableIdentifier = errors.New("listing: no usable identifier supplied")
	ErrInvalidMatchMethod = errors.New("listing: invalid match method")

	// Memory entry errors
	ErrEntryNotFound          = errors.New("listing: memory entry not found")
	ErrEntryAlreadySuperseded = errors.New("listing: memory entry already superseded")
	ErrEntryMissingIdentifier = errors.New("listing: memory entry has no identifier for its match method")
	ErrEntryInvalidTarget     = errors.New("listing: invalid target product definition ID")
)

// ---------------------------------------------------------------------------
// MatchMethod
// ---------------------------------------------------------------------------

// MatchMethod identifies which listing identifier an entry matches on.
// The ordinal values define resolution priority: a lower value outranks a
// higher one, so a marketplace-code match always beats a seller-code match,
// which beats a title-fingerprint match.
type MatchMethod int

const (
	// MatchMethodMarketplaceCode matches on the marketplace's product code (ASIN).
	MatchMethodMarketplaceCode MatchMethod = iota
	// MatchMethodSellerCode matches on the seller-assigned SKU.
	MatchMethodSellerCode
	// MatchMethodTitleFingerprint matches on the normalized title fingerprint.
	MatchMethodTitleFingerprint
)

// IsValid returns true if the match method is one of the known methods.
func (m MatchMethod) IsValid() bool {
	switch m {
	case MatchMethodMarketplaceCode, MatchMethodSellerCode, MatchMethodTitleFingerprint:
		return true
	}
	return false
}

// Outranks returns true if m has strictly higher resolution priority than other.
func (m MatchMethod) Outranks(other MatchMethod) bool {
	return m < other
}

// String returns the persisted representation of the match method.
func (m MatchMethod) String() string {
	switch m {
	case MatchMethodMarketplaceCode:
		return "MARKETPLACE_CODE"
	case MatchMethodSellerCode:
		return "SELLER_CODE"
	case MatchMethodTitleFingerprint:
		return "TITLE_FINGERPRINT"
	default:
		return "UNKNOWN"
	}
}

// ParseMatchMethod converts a persisted representation back to a MatchMethod.
func ParseMatchMethod(s string) (MatchMethod, error) {
	switch s {
	case "MARKETPLACE_CODE":
		return MatchMethodMarketplaceCode, nil
	case "SELLER_CODE":
		return MatchMethodSellerCode, nil
	case "TITLE_FINGERPRINT":
		return MatchMethodTitleFingerprint, nil
	default:
		return 0, ErrInvalidMatchMethod
	}
}

// ---------------------------------------------------------------------------
// MemoryEntry Entity
// ---------------------------------------------------------------------------

// MemoryEntry is a versioned claim that an identifier maps to a product
// definition (BOM). Entries are never deleted: supersession deactivates the
// old entry and creates a new active one carrying a back-reference.
//
// Active is a tri-state flag: legacy rows predate the flag and carry nil,
// which is treated as active. An entry never transitions back to active once
// deactivated.
type MemoryEntry struct {
	// ID is the unique identifier of this entry
	ID uuid.UUID
	// MarketplaceCode is the normalized marketplace product code, if any
	MarketplaceCode string
	// SellerCode is the normalized seller SKU, if any
	SellerCode string
	// TitleFingerprint is the normalized title fingerprint, if any
	TitleFingerprint string
	// TargetBOMID is the product definition this entry resolves to. Nil means
	// the mapping was recorded without a confirmed target.
	TargetBOMID *uuid.UUID
	// Method records which identifier kind this entry matches on
	Method MatchMethod
	// Active is nil for legacy rows (treated as active), otherwise explicit
	Active *bool
	// SupersedesID points at the entry this one replaced, for audit continuity
	SupersedesID *uuid.UUID
	// CreatedAt is when this entry was created
	CreatedAt time.Time
	// UpdatedAt is when this entry was last updated
	UpdatedAt time.Time
}

// NewMemoryEntry creates a new active entry. identifier must already be
// normalized for the given method.
func NewMemoryEntry(method MatchMethod, identifier string, targetBOMID *uuid.UUID) (*MemoryEntry, error) {
	if !method.IsValid() {
		return nil, ErrInvalidMatchMethod
	}
	if identifier == "" {
		return nil, ErrEntryMissingIdentifier
	}
	if targetBOMID != nil && *targetBOMID == uuid.Nil {
		return nil, ErrEntryInvalidTarget
	}

	now := time.Now()
	active := true
	e := &MemoryEntry{
		ID:          uuid.New(),
		TargetBOMID: targetBOMID,
		Method:      method,
		Active:      &active,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	e.setIdentifier(method, identifier)
	return e, nil
}

// IsActive reports whether the entry participates in resolution. Legacy rows
// without an explicit flag fail open to active.
func (e *MemoryEntry) IsActive() bool {
	return e.Active == nil || *e.Active
}

// IdentifierValue returns the identifier the entry matches on, per its method.
func (e *MemoryEntry) IdentifierValue() string {
	switch e.Method {
	case MatchMethodMarketplaceCode:
		return e.MarketplaceCode
	case MatchMethodSellerCode:
		return e.SellerCode
	case MatchMethodTitleFingerprint:
		return e.TitleFingerprint
	default:
		return ""
	}
}

// Validate checks the entry invariants: a known method whose corresponding
// identifier field is populated, and a superseded entry is never active.
func (e *MemoryEntry) Validate() error {
	if !e.Method.IsValid() {
		return ErrInvalidMatchMethod
	}
	if e.IdentifierValue() == "" {
		return ErrEntryMissingIdentifier
	}
	if e.TargetBOMID != nil && *e.TargetBOMID == uuid.Nil {
		return ErrEntryInvalidTarget
	}
	return nil
}

// Deactivate marks the entry inactive. This transition is terminal.
func (e *MemoryEntry) Deactivate() {
	inactive := false
	e.Active = &inactive
	e.UpdatedAt = time.Now()
}

// NewSupersedingEntry builds the replacement entry for a supersession: active,
// carrying the old entry's identifier fields, the new target and method, and a
// back-reference to the old entry.
func (e *MemoryEntry) NewSupersedingEntry(targetBOMID uuid.UUID, method MatchMethod) (*MemoryEntry, error) {
	if targetBOMID == uuid.Nil {
		return nil, ErrEntryInvalidTarget
	}
	if !method.IsValid() {
		return nil, ErrInvalidMatchMethod
	}

	now := time.Now()
	active := true
	target := targetBOMID
	succ := &MemoryEntry{
		ID:               uuid.New(),
		MarketplaceCode:  e.MarketplaceCode,
		SellerCode:       e.SellerCode,
		TitleFingerprint: e.TitleFingerprint,
		TargetBOMID:      &target,
		Method:           method,
		Active:           &active,
		SupersedesID:     &e.ID,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := succ.Validate(); err != nil {
		return nil, err
	}
	return succ, nil
}

func (e *MemoryEntry) setIdentifier(method MatchMethod, value string) {
	switch method {
	case MatchMethodMarketplaceCode:
		e.MarketplaceCode = value
	case MatchMethodSellerCode:
		e.SellerCode = value
	case MatchMethodTitleFingerprint:
		e.TitleFingerprint = value
	}
}

// ---------------------------------------------------------------------------
// MemoryEntry Repository Interfaces
// ---------------------------------------------------------------------------

// MemoryEntryReader defines the read side of the listing memory store.
type MemoryEntryReader interface {
	// FindByID finds an entry by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*MemoryEntry, error)

	// FindActiveByIdentifier returns all active entries whose identifier of
	// the given kind equals value. Rows without an explicit active flag are
	// treated as active; rows explicitly marked inactive are excluded.
	FindActiveByIdentifier(ctx context.Context, method MatchMethod, value string) ([]MemoryEntry, error)
}

// MemoryEntryWriter defines the write side of the listing memory store.
type MemoryEntryWriter interface {
	// Save creates or updates an entry
	Save(ctx context.Context, entry *MemoryEntry) error

	// AtomicSupersede deactivates the old entry and creates the new one in a
	// single transaction. The deactivation is conditional on the old entry
	// still being active, so two concurrent supersessions of the same entry
	// cannot both succeed. Returns ErrEntryAlreadySuperseded when the old
	// entry was already inactive, ErrEntryNotFound when it does not exist.
	AtomicSupersede(ctx context.Context, oldID uuid.UUID, newEntry *MemoryEntry) error
}

// MemoryEntryRepository is the full listing memory store contract.
type MemoryEntryRepository interface {
	MemoryEntryReader
	MemoryEntryWriter
}
