package demand

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func int64Ptr(v int64) *int64 { return &v }

func TestExtractFeatures(t *testing.T) {
	t.Run("full snapshot", func(t *testing.T) {
		snap := MetricsSnapshot{
			MarketplaceCode: "B00ABC123",
			SalesRank:       int64Ptr(5000),
			OfferCount:      int64Ptr(3),
			PriceMinorUnits: int64Ptr(2499),
		}

		features, debug, err := ExtractFeatures(snap, 0)
		require.NoError(t, err)
		assert.InDelta(t, math.Log(5100), features.LnRank, 1e-12)
		assert.InDelta(t, math.Log(4), features.LnOffer, 1e-12)
		assert.InDelta(t, math.Log(25.99), features.LnPrice, 1e-9)
		assert.False(t, debug.PriceImputed)
		assert.Equal(t, features.LnRank, debug.LnRank)
		assert.Equal(t, features.LnPrice, debug.LnPrice)
	})

	t.Run("missing sales rank fails with debug snapshot", func(t *testing.T) {
		snap := MetricsSnapshot{
			MarketplaceCode: "B00ABC123",
			OfferCount:      int64Ptr(3),
		}

		_, debug, err := ExtractFeatures(snap, 0)
		assert.ErrorIs(t, err, ErrMissingFeature)
		assert.Nil(t, debug.SalesRank)
		require.NotNil(t, debug.OfferCount)
		assert.Equal(t, int64(3), *debug.OfferCount)
	})

	t.Run("missing offers default to zero", func(t *testing.T) {
		snap := MetricsSnapshot{SalesRank: int64Ptr(1)}
		features, _, err := ExtractFeatures(snap, 0)
		require.NoError(t, err)
		assert.Equal(t, 0.0, features.LnOffer) // ln(0 + 1)
	})

	t.Run("missing price imputes the training mean", func(t *testing.T) {
		snap := MetricsSnapshot{SalesRank: int64Ptr(5000), OfferCount: int64Ptr(2)}
		features, debug, err := ExtractFeatures(snap, 3.25)
		require.NoError(t, err)
		assert.Equal(t, 3.25, features.LnPrice)
		assert.True(t, debug.PriceImputed)
	})

	t.Run("zero price is not treated as missing", func(t *testing.T) {
		snap := MetricsSnapshot{SalesRank: int64Ptr(5000), PriceMinorUnits: int64Ptr(0)}
		features, debug, err := ExtractFeatures(snap, 3.25)
		require.NoError(t, err)
		assert.Equal(t, 0.0, features.LnPrice) // ln(0/100 + 1)
		assert.False(t, debug.PriceImputed)
	})
}

func TestFeatureVector_Values(t *testing.T) {
	f := FeatureVector{LnRank: 1, LnOffer: 2, LnPrice: 3}
	values := f.Values()
	assert.Equal(t, 1.0, values[FeatureLnRank])
	assert.Equal(t, 2.0, values[FeatureLnOffer])
	assert.Equal(t, 3.0, values[FeatureLnPrice])
}
