package seed

import (
	"context"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"tourist-untrap-backend/internal/model"
	"tourist-untrap-backend/internal/store"
)

func newSQLiteStore(t *testing.T) store.Store {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	testDB, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := testDB.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, testDB.AutoMigrate(&model.Attraction{}, &model.CrowdData{}, &model.VisitHistory{}))
	return store.NewGormStore(testDB)
}

func TestLevel_Ranges(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 200; i++ {
		early := Level(rng, 9)
		assert.GreaterOrEqual(t, early, 0.2)
		assert.LessOrEqual(t, early, 0.5)

		midday := Level(rng, 13)
		assert.GreaterOrEqual(t, midday, 0.6)
		assert.LessOrEqual(t, midday, 0.9)

		afternoon := Level(rng, 17)
		assert.GreaterOrEqual(t, afternoon, 0.4)
		assert.LessOrEqual(t, afternoon, 0.8)
	}
}

func TestRun(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()
	now := time.Date(2025, 7, 15, 21, 0, 0, 0, time.UTC)

	res, err := Run(ctx, s, rand.New(rand.NewSource(42)), now)
	require.NoError(t, err)
	assert.False(t, res.Skipped)
	assert.Equal(t, 3, res.Attractions)
	assert.Equal(t, 3*7*6, res.Observations)

	attractions, total, err := s.ListAttractions(ctx, store.AttractionFilter{Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)

	rows, err := s.ListObservations(ctx, store.ObservationFilter{AttractionID: attractions[0].ID})
	require.NoError(t, err)
	require.Len(t, rows, 42)
	for _, r := range rows {
		assert.Equal(t, "prediction", r.DataSource)
		assert.Contains(t, []int{9, 11, 13, 15, 17, 19}, r.HourOfDay)
		require.NotNil(t, r.Confidence)
		assert.InDelta(t, 0.8, *r.Confidence, 1e-9)
	}

	again, err := Run(ctx, s, rand.New(rand.NewSource(42)), now)
	require.NoError(t, err)
	assert.True(t, again.Skipped)
}

func TestRun_Deterministic(t *testing.T) {
	now := time.Date(2025, 7, 15, 21, 0, 0, 0, time.UTC)
	levels := func() []float64 {
		s := newSQLiteStore(t)
		_, err := Run(context.Background(), s, rand.New(rand.NewSource(7)), now)
		require.NoError(t, err)
		attractions, _, err := s.ListAttractions(context.Background(), store.AttractionFilter{Category: "museum", Limit: 1})
		require.NoError(t, err)
		rows, err := s.ListObservations(context.Background(), store.ObservationFilter{AttractionID: attractions[0].ID})
		require.NoError(t, err)
		out := make([]float64, len(rows))
		for i, r := range rows {
			out[i] = r.CrowdLevel
		}
		return out
	}
	assert.Equal(t, levels(), levels())
}
