package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/opsconsole/backend/internal/domain/demand"
)

// MetricsObservationModelSQLite is a SQLite-compatible version of MetricsObservationModel for testing
type MetricsObservationModelSQLite struct {
	ID              string `gorm:"primaryKey"`
	MarketplaceCode string `gorm:"index;not null"`
	SalesRank       *int64
	OfferCount      *int64
	PriceMinorUnits *int64
	UnitsPerDay     float64
	CapturedAt      time.Time `gorm:"index"`
	CreatedAt       time.Time
}

func (MetricsObservationModelSQLite) TableName() string {
	return "listing_metrics_history"
}

func setupMetricsHistoryTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	// Auto-migrate the SQLite-compatible model
	err = db.AutoMigrate(&MetricsObservationModelSQLite{})
	require.NoError(t, err)

	return db
}

func observationRow(code string, rank int64, capturedAt time.Time) demand.TrainingRow {
	offers := int64(4)
	price := int64(2499)
	return demand.TrainingRow{
		Metrics: demand.MetricsSnapshot{
			MarketplaceCode: code,
			SalesRank:       &rank,
			OfferCount:      &offers,
			PriceMinorUnits: &price,
			CapturedAt:      capturedAt,
		},
		UnitsPerDay: 1.5,
	}
}

func TestMetricsHistoryRepository_RecordAndList(t *testing.T) {
	db := setupMetricsHistoryTestDB(t)
	repo := NewGormMetricsHistoryRepository(db)
	ctx := context.Background()

	t.Run("round-trips observations oldest first", func(t *testing.T) {
		base := time.Now().Truncate(time.Second)
		newer := observationRow("B00NEWER01", 1200, base)
		older := observationRow("B00OLDER01", 5400, base.Add(-24*time.Hour))

		require.NoError(t, repo.RecordObservation(ctx, newer))
		require.NoError(t, repo.RecordObservation(ctx, older))

		rows, err := repo.ListTrainingRows(ctx)
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, "B00OLDER01", rows[0].Metrics.MarketplaceCode)
		assert.Equal(t, "B00NEWER01", rows[1].Metrics.MarketplaceCode)
		require.NotNil(t, rows[0].Metrics.SalesRank)
		assert.Equal(t, int64(5400), *rows[0].Metrics.SalesRank)
		assert.Equal(t, 1.5, rows[0].UnitsPerDay)
	})

	t.Run("preserves missing signals as nil", func(t *testing.T) {
		row := demand.TrainingRow{
			Metrics: demand.MetricsSnapshot{
				MarketplaceCode: "B00SPARSE1",
				CapturedAt:      time.Now(),
			},
			UnitsPerDay: 0,
		}
		require.NoError(t, repo.RecordObservation(ctx, row))

		rows, err := repo.ListTrainingRows(ctx)
		require.NoError(t, err)
		var found *demand.TrainingRow
		for i := range rows {
			if rows[i].Metrics.MarketplaceCode == "B00SPARSE1" {
				found = &rows[i]
			}
		}
		require.NotNil(t, found)
		assert.Nil(t, found.Metrics.SalesRank)
		assert.Nil(t, found.Metrics.OfferCount)
		assert.Nil(t, found.Metrics.PriceMinorUnits)
	})

	t.Run("batch insert", func(t *testing.T) {
		db := setupMetricsHistoryTestDB(t)
		repo := NewGormMetricsHistoryRepository(db)

		batch := []demand.TrainingRow{
			observationRow("B00BATCH01", 100, time.Now()),
			observationRow("B00BATCH02", 200, time.Now()),
			observationRow("B00BATCH03", 300, time.Now()),
		}
		require.NoError(t, repo.RecordObservationBatch(ctx, batch))
		require.NoError(t, repo.RecordObservationBatch(ctx, nil))

		rows, err := repo.ListTrainingRows(ctx)
		require.NoError(t, err)
		assert.Len(t, rows, 3)
	})
}
