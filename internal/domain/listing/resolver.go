package listing

import (
	"context"
	"sort"

	"github.com/google/uuid"
)

// ---------------------------------------------------------------------------
// Identifiers
// ---------------------------------------------------------------------------

// Identifiers carries the normalized identifier set for one incoming order
// line. Empty fields mean the identifier was not supplied. At least one must
// be present for resolution.
type Identifiers struct {
	MarketplaceCode  string
	SellerCode       string
	TitleFingerprint string
}

// IsEmpty returns true when no identifier is usable.
func (i Identifiers) IsEmpty() bool {
	return i.MarketplaceCode == "" && i.SellerCode == "" && i.TitleFingerprint == ""
}

// valueFor returns the identifier value for the given method.
func (i Identifiers) valueFor(method MatchMethod) string {
	switch method {
	case MatchMethodMarketplaceCode:
		return i.MarketplaceCode
	case MatchMethodSellerCode:
		return i.SellerCode
	case MatchMethodTitleFingerprint:
		return i.TitleFingerprint
	default:
		return ""
	}
}

// ---------------------------------------------------------------------------
// ResolutionResult
// ---------------------------------------------------------------------------

// ResolutionOutcome classifies the result of one resolution attempt.
type ResolutionOutcome string

const (
	// OutcomeResolved means exactly one target product definition was selected.
	OutcomeResolved ResolutionOutcome = "RESOLVED"
	// OutcomeConflict means competing candidates point at different targets
	// (or the store invariant of one active entry per identifier+method was
	// violated); the order line must go to human review.
	OutcomeConflict ResolutionOutcome = "CONFLICT"
	// OutcomeNoMatch means no active entry with a confirmed target matched.
	OutcomeNoMatch ResolutionOutcome = "NO_MATCH"
)

// ResolutionCandidate is a transient projection of a matching memory entry,
// used only within a single resolution call and attached to conflict results
// for human review. Not persisted.
type ResolutionCandidate struct {
	EntryID     uuid.UUID
	Method      MatchMethod
	Identifier  string
	TargetBOMID *uuid.UUID
}

// ResolutionResult is the outcome of one resolution attempt. Conflict and
// NoMatch are result variants, not errors: callers branch on Outcome as
// normal control flow.
type ResolutionResult struct {
	Outcome ResolutionOutcome
	// TargetBOMID and Method are set only when Outcome is OutcomeResolved.
	TargetBOMID uuid.UUID
	Method      MatchMethod
	// Candidates holds every matching entry, for review-queue display.
	Candidates []ResolutionCandidate
}

// ---------------------------------------------------------------------------
// Resolver
// ---------------------------------------------------------------------------

// Resolver maps a listing's volatile identifiers onto a stable product
// definition through the listing memory store. Resolve is a pure function of
// its inputs plus the store snapshot and holds no mutable state, so a single
// Resolver may be shared across goroutines.
type Resolver struct {
	entries MemoryEntryRepository
}

// NewResolver creates a Resolver backed by the given store.
func NewResolver(entries MemoryEntryRepository) *Resolver {
	return &Resolver{entries: entries}
}

// resolutionMethods is the fixed priority order for candidate ranking.
var resolutionMethods = []MatchMethod{
	MatchMethodMarketplaceCode,
	MatchMethodSellerCode,
	MatchMethodTitleFingerprint,
}

// Resolve queries the store for active entries matching any supplied
// identifier, ranks them by method priority, and returns a decision.
//
// Safety over convenience: if candidates reference more than one distinct
// target the result is a conflict even when a higher-priority method is among
// them, and two active entries for the same identifier+method (a store
// invariant violation) also fail closed as a conflict. Entries without a
// confirmed target never win resolution and are ignored for conflict
// detection. Resolve never mutates the store.
func (r *Resolver) Resolve(ctx context.Context, ids Identifiers) (*ResolutionResult, error) {
	if ids.IsEmpty() {
		return nil, ErrNoUsableIdentifier
	}

	var candidates []ResolutionCandidate
	invariantViolated := false
	for _, method := range resolutionMethods {
		value := ids.valueFor(method)
		if value == "" {
			continue
		}
		matches, err := r.entries.FindActiveByIdentifier(ctx, method, value)
		if err != nil {
			return nil, err
		}
		if len(matches) > 1 {
			// The store guarantees at most one active entry per
			// identifier+method; fail closed rather than guess.
			invariantViolated = true
		}
		for i := range matches {
			e := &matches[i]
			candidates = append(candidates, ResolutionCandidate{
				EntryID:     e.ID,
				Method:      e.Method,
				Identifier:  e.IdentifierValue(),
				TargetBOMID: e.TargetBOMID,
			})
		}
	}

	if len(candidates) == 0 {
		return &ResolutionResult{Outcome: OutcomeNoMatch}, nil
	}

	sort.SliceStable(candidates, func(a, b int) bool {
		return candidates[a].Method.Outranks(candidates[b].Method)
	})

	if invariantViolated {
		return &ResolutionResult{Outcome: OutcomeConflict, Candidates: candidates}, nil
	}

	// Conflict detection over distinct confirmed targets.
	targets := make(map[uuid.UUID]struct{})
	for _, c := range candidates {
		if c.TargetBOMID != nil {
			targets[*c.TargetBOMID] = struct{}{}
		}
	}
	switch {
	case len(targets) > 1:
		return &ResolutionResult{Outcome: OutcomeConflict, Candidates: candidates}, nil
	case len(targets) == 0:
		// Matches exist but none carries a confirmed target.
		return &ResolutionResult{Outcome: OutcomeNoMatch, Candidates: candidates}, nil
	}

	for _, c := range candidates {
		if c.TargetBOMID == nil {
			continue
		}
		return &ResolutionResult{
			Outcome:     OutcomeResolved,
			TargetBOMID: *c.TargetBOMID,
			Method:      c.Method,
			Candidates:  candidates,
		}, nil
	}

	// Unreachable: targets is non-empty, so some candidate has a target.
	return &ResolutionResult{Outcome: OutcomeNoMatch, Candidates: candidates}, nil
}

// Supersede deactivates oldID and creates a new active entry carrying the old
// entry's identifiers, the new target and method, and a supersedes
// back-reference. The two writes happen in a single store transaction, so a
// partial supersession (old deactivated without a replacement, or the
// reverse) cannot be observed.
func (r *Resolver) Supersede(ctx context.Context, oldID uuid.UUID, newTargetBOMID uuid.UUID, newMethod MatchMethod) (deactivated *MemoryEntry, created *MemoryEntry, err error) {
	old, err := r.entries.FindByID(ctx, oldID)
	if err != nil {
		return nil, nil, err
	}
	if !old.IsActive() {
		return nil, nil, ErrEntryAlreadySuperseded
	}

	succ, err := old.NewSupersedingEntry(newTargetBOMID, newMethod)
	if err != nil {
		return nil, nil, err
	}

	if err := r.entries.AtomicSupersede(ctx, old.ID, succ); err != nil {
		return nil, nil, err
	}

	old.Deactivate()
	return old, succ, nil
}
