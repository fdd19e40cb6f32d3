package listing

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryStore is an in-memory MemoryEntryRepository for resolver tests.
type memoryStore struct {
	entries map[uuid.UUID]*MemoryEntry
}

func newMemoryStore(entries ...*MemoryEntry) *memoryStore {
	s := &memoryStore{entries: make(map[uuid.UUID]*MemoryEntry)}
	for _, e := range entries {
		s.entries[e.ID] = e
	}
	return s
}

func (s *memoryStore) FindByID(_ context.Context, id uuid.UUID) (*MemoryEntry, error) {
	e, ok := s.entries[id]
	if !ok {
		return nil, ErrEntryNotFound
	}
	clone := *e
	return &clone, nil
}

func (s *memoryStore) FindActiveByIdentifier(_ context.Context, method MatchMethod, value string) ([]MemoryEntry, error) {
	var out []MemoryEntry
	for _, e := range s.entries {
		if e.Method == method && e.IdentifierValue() == value && e.IsActive() {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (s *memoryStore) Save(_ context.Context, entry *MemoryEntry) error {
	clone := *entry
	s.entries[entry.ID] = &clone
	return nil
}

func (s *memoryStore) AtomicSupersede(_ context.Context, oldID uuid.UUID, newEntry *MemoryEntry) error {
	old, ok := s.entries[oldID]
	if !ok {
		return ErrEntryNotFound
	}
	if !old.IsActive() {
		return ErrEntryAlreadySuperseded
	}
	old.Deactivate()
	clone := *newEntry
	s.entries[newEntry.ID] = &clone
	return nil
}

func mustEntry(t *testing.T, method MatchMethod, identifier string, target *uuid.UUID) *MemoryEntry {
	t.Helper()
	entry, err := NewMemoryEntry(method, identifier, target)
	require.NoError(t, err)
	return entry
}

func TestResolver_Resolve(t *testing.T) {
	ctx := context.Background()
	bomA := uuid.New()
	bomB := uuid.New()

	t.Run("rejects empty identifier set", func(t *testing.T) {
		r := NewResolver(newMemoryStore())
		_, err := r.Resolve(ctx, Identifiers{})
		assert.ErrorIs(t, err, ErrNoUsableIdentifier)
	})

	t.Run("single active entry resolves regardless of method", func(t *testing.T) {
		cases := []struct {
			method     MatchMethod
			identifier string
			ids        Identifiers
		}{
			{MatchMethodMarketplaceCode, "B00ABC123", Identifiers{MarketplaceCode: "B00ABC123"}},
			{MatchMethodSellerCode, "SKU-1", Identifiers{SellerCode: "SKU-1"}},
			{MatchMethodTitleFingerprint, "makita dhp481 kit", Identifiers{TitleFingerprint: "makita dhp481 kit"}},
		}
		for _, tc := range cases {
			t.Run(tc.method.String(), func(t *testing.T) {
				r := NewResolver(newMemoryStore(mustEntry(t, tc.method, tc.identifier, &bomA)))
				result, err := r.Resolve(ctx, tc.ids)
				require.NoError(t, err)
				assert.Equal(t, OutcomeResolved, result.Outcome)
				assert.Equal(t, bomA, result.TargetBOMID)
				assert.Equal(t, tc.method, result.Method)
			})
		}
	})

	t.Run("agreeing methods resolve via highest priority", func(t *testing.T) {
		r := NewResolver(newMemoryStore(
			mustEntry(t, MatchMethodMarketplaceCode, "B00ABC123", &bomA),
			mustEntry(t, MatchMethodSellerCode, "SKU-1", &bomA),
		))
		result, err := r.Resolve(ctx, Identifiers{MarketplaceCode: "B00ABC123", SellerCode: "SKU-1"})
		require.NoError(t, err)
		assert.Equal(t, OutcomeResolved, result.Outcome)
		assert.Equal(t, bomA, result.TargetBOMID)
		assert.Equal(t, MatchMethodMarketplaceCode, result.Method)
		assert.Len(t, result.Candidates, 2)
	})

	t.Run("disagreeing targets conflict despite priority", func(t *testing.T) {
		r := NewResolver(newMemoryStore(
			mustEntry(t, MatchMethodMarketplaceCode, "B00ABC123", &bomA),
			mustEntry(t, MatchMethodTitleFingerprint, "makita dhp481 kit", &bomB),
		))
		result, err := r.Resolve(ctx, Identifiers{
			MarketplaceCode:  "B00ABC123",
			TitleFingerprint: "makita dhp481 kit",
		})
		require.NoError(t, err)
		assert.Equal(t, OutcomeConflict, result.Outcome)
		assert.Len(t, result.Candidates, 2)
		// Candidates are ranked by method priority for review display.
		assert.Equal(t, MatchMethodMarketplaceCode, result.Candidates[0].Method)
	})

	t.Run("no candidates is a no-match", func(t *testing.T) {
		r := NewResolver(newMemoryStore())
		result, err := r.Resolve(ctx, Identifiers{SellerCode: "SKU-UNKNOWN"})
		require.NoError(t, err)
		assert.Equal(t, OutcomeNoMatch, result.Outcome)
		assert.Empty(t, result.Candidates)
	})

	t.Run("candidates without targets are a no-match", func(t *testing.T) {
		r := NewResolver(newMemoryStore(
			mustEntry(t, MatchMethodSellerCode, "SKU-1", nil),
		))
		result, err := r.Resolve(ctx, Identifiers{SellerCode: "SKU-1"})
		require.NoError(t, err)
		assert.Equal(t, OutcomeNoMatch, result.Outcome)
		assert.Len(t, result.Candidates, 1)
	})

	t.Run("nil-target candidate does not create conflict", func(t *testing.T) {
		r := NewResolver(newMemoryStore(
			mustEntry(t, MatchMethodMarketplaceCode, "B00ABC123", &bomA),
			mustEntry(t, MatchMethodSellerCode, "SKU-1", nil),
		))
		result, err := r.Resolve(ctx, Identifiers{MarketplaceCode: "B00ABC123", SellerCode: "SKU-1"})
		require.NoError(t, err)
		assert.Equal(t, OutcomeResolved, result.Outcome)
		assert.Equal(t, bomA, result.TargetBOMID)
	})

	t.Run("duplicate actives for same identifier and method fail closed", func(t *testing.T) {
		// Store invariant violation: two active entries, same identifier and
		// method, even pointing at the same target.
		r := NewResolver(newMemoryStore(
			mustEntry(t, MatchMethodSellerCode, "SKU-1", &bomA),
			mustEntry(t, MatchMethodSellerCode, "SKU-1", &bomA),
		))
		result, err := r.Resolve(ctx, Identifiers{SellerCode: "SKU-1"})
		require.NoError(t, err)
		assert.Equal(t, OutcomeConflict, result.Outcome)
		assert.Len(t, result.Candidates, 2)
	})

	t.Run("inactive entries are excluded", func(t *testing.T) {
		old := mustEntry(t, MatchMethodMarketplaceCode, "B00ABC123", &bomA)
		old.Deactivate()
		r := NewResolver(newMemoryStore(old,
			mustEntry(t, MatchMethodMarketplaceCode, "B00ABC123", &bomB),
		))
		result, err := r.Resolve(ctx, Identifiers{MarketplaceCode: "B00ABC123"})
		require.NoError(t, err)
		assert.Equal(t, OutcomeResolved, result.Outcome)
		assert.Equal(t, bomB, result.TargetBOMID)
	})

	t.Run("deterministic for fixed store state", func(t *testing.T) {
		r := NewResolver(newMemoryStore(
			mustEntry(t, MatchMethodMarketplaceCode, "B00ABC123", &bomA),
			mustEntry(t, MatchMethodSellerCode, "SKU-1", &bomB),
		))
		ids := Identifiers{MarketplaceCode: "B00ABC123", SellerCode: "SKU-1"}
		first, err := r.Resolve(ctx, ids)
		require.NoError(t, err)
		for range 10 {
			again, err := r.Resolve(ctx, ids)
			require.NoError(t, err)
			assert.Equal(t, first.Outcome, again.Outcome)
		}
	})
}

func TestResolver_Supersede(t *testing.T) {
	ctx := context.Background()
	bomA := uuid.New()
	bomB := uuid.New()

	t.Run("deactivates old and creates linked replacement", func(t *testing.T) {
		old := mustEntry(t, MatchMethodMarketplaceCode, "B00ABC123", &bomA)
		store := newMemoryStore(old)
		r := NewResolver(store)

		deactivated, created, err := r.Supersede(ctx, old.ID, bomB, MatchMethodMarketplaceCode)
		require.NoError(t, err)
		assert.False(t, deactivated.IsActive())
		assert.True(t, created.IsActive())
		require.NotNil(t, created.SupersedesID)
		assert.Equal(t, old.ID, *created.SupersedesID)

		// Exactly one active entry remains for the identifier.
		active, err := store.FindActiveByIdentifier(ctx, MatchMethodMarketplaceCode, "B00ABC123")
		require.NoError(t, err)
		require.Len(t, active, 1)
		assert.Equal(t, created.ID, active[0].ID)
		require.NotNil(t, active[0].TargetBOMID)
		assert.Equal(t, bomB, *active[0].TargetBOMID)
	})

	t.Run("resolution follows the replacement", func(t *testing.T) {
		old := mustEntry(t, MatchMethodSellerCode, "SKU-1", &bomA)
		store := newMemoryStore(old)
		r := NewResolver(store)

		_, _, err := r.Supersede(ctx, old.ID, bomB, MatchMethodSellerCode)
		require.NoError(t, err)

		result, err := r.Resolve(ctx, Identifiers{SellerCode: "SKU-1"})
		require.NoError(t, err)
		assert.Equal(t, OutcomeResolved, result.Outcome)
		assert.Equal(t, bomB, result.TargetBOMID)
	})

	t.Run("superseding an inactive entry fails", func(t *testing.T) {
		old := mustEntry(t, MatchMethodSellerCode, "SKU-1", &bomA)
		old.Deactivate()
		r := NewResolver(newMemoryStore(old))

		_, _, err := r.Supersede(ctx, old.ID, bomB, MatchMethodSellerCode)
		assert.ErrorIs(t, err, ErrEntryAlreadySuperseded)
	})

	t.Run("unknown entry", func(t *testing.T) {
		r := NewResolver(newMemoryStore())
		_, _, err := r.Supersede(ctx, uuid.New(), bomB, MatchMethodSellerCode)
		assert.ErrorIs(t, err, ErrEntryNotFound)
	})
}
