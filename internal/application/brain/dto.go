package brain

import (
	"errors"

	"github.com/google/uuid"

	"github.com/opsconsole/backend/internal/domain/demand"
	"github.com/opsconsole/backend/internal/domain/listing"
	"github.com/opsconsole/backend/internal/domain/shared"
)

// ---------------------------------------------------------------------------
// Request / Response DTOs
// ---------------------------------------------------------------------------

// ResolveListingRequest carries the raw, un-normalized identifiers of one
// incoming order line. Any subset may be empty; at least one must survive
// normalization.
type ResolveListingRequest struct {
	MarketplaceCode string `json:"marketplace_code"`
	SellerCode      string `json:"seller_code"`
	RawTitle        string `json:"raw_title"`
}

// SupersedeRequest carries a human-confirmed replacement mapping.
type SupersedeRequest struct {
	OldEntryID     uuid.UUID           `json:"old_entry_id"`
	NewTargetBOMID uuid.UUID           `json:"new_target_bom_id"`
	NewMethod      listing.MatchMethod `json:"new_method"`
}

// SupersedeResponse returns both sides of the supersession for audit display.
type SupersedeResponse struct {
	Deactivated *listing.MemoryEntry `json:"deactivated"`
	Created     *listing.MemoryEntry `json:"created"`
}

// PredictDemandRequest scores one metrics snapshot. ModelVersion selects a
// specific published artifact; nil means the latest.
type PredictDemandRequest struct {
	Metrics      demand.MetricsSnapshot `json:"metrics"`
	ModelVersion *int                   `json:"model_version,omitempty"`
}

// ---------------------------------------------------------------------------
// Error code mapping
// ---------------------------------------------------------------------------

// AsDomainError maps brain errors onto boundary DomainError codes for the
// transport layer. Conflict and NoMatch never appear here: they are result
// variants on ResolutionResult, not errors.
func AsDomainError(err error) *shared.DomainError {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, listing.ErrNoUsableIdentifier):
		return shared.NewDomainError("INVALID_INPUT", err.Error())
	case errors.Is(err, listing.ErrEntryNotFound), errors.Is(err, demand.ErrModelNotFound):
		return shared.NewDomainError("NOT_FOUND", err.Error())
	case errors.Is(err, listing.ErrEntryAlreadySuperseded):
		return shared.NewDomainError("CONCURRENCY_CONFLICT", err.Error())
	case errors.Is(err, demand.ErrNoModel):
		return shared.NewDomainError("NO_MODEL", err.Error())
	case errors.Is(err, demand.ErrMissingFeature):
		return shared.NewDomainError("MISSING_FEATURE", err.Error())
	case errors.Is(err, demand.ErrSingularMatrix):
		return shared.NewDomainError("SINGULAR_MATRIX", err.Error())
	default:
		return shared.NewDomainError("INTERNAL", err.Error())
	}
}
