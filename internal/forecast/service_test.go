package forecast

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tourist-untrap-backend/internal/crowd"
	"tourist-untrap-backend/internal/model"
	"tourist-untrap-backend/internal/store"
)

// mockStore implements the parts of store.Store the forecast service uses.
type mockStore struct {
	store.Store

	mu                      sync.Mutex
	attractions             map[uuid.UUID]bool
	rows                    map[uuid.UUID][]model.CrowdData
	observationsBetweenArgs [][2]time.Time
	listErr                 error
}

func newMockStore() *mockStore {
	return &mockStore{
		attractions: map[uuid.UUID]bool{},
		rows:        map[uuid.UUID][]model.CrowdData{},
	}
}

func (m *mockStore) add(t *testing.T, id uuid.UUID, level float64, at time.Time) {
	t.Helper()
	row, err := model.NewCrowdData(id, level, nil, at, crowd.SourceAPI, nil)
	require.NoError(t, err)
	m.attractions[id] = true
	m.rows[id] = append(m.rows[id], row)
}

func (m *mockStore) GetAttraction(ctx context.Context, id uuid.UUID) (*model.Attraction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.attractions[id] {
		return nil, store.ErrNotFound
	}
	return &model.Attraction{ID: id, Name: "attraction " + id.String()}, nil
}

func (m *mockStore) ObservationsBetween(ctx context.Context, id uuid.UUID, from, to time.Time) ([]model.CrowdData, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.observationsBetweenArgs = append(m.observationsBetweenArgs, [2]time.Time{from, to})
	var out []model.CrowdData
	for _, r := range m.rows[id] {
		if !r.ObservedAt.Before(from) && !r.ObservedAt.After(to) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *mockStore) ListObservations(ctx context.Context, f store.ObservationFilter) ([]model.CrowdData, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []model.CrowdData
	for _, r := range m.rows[f.AttractionID] {
		if f.Start != nil && r.ObservedAt.Before(*f.Start) {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

var target = time.Date(2025, 7, 15, 12, 0, 0, 0, time.UTC)

func TestService_Predict(t *testing.T) {
	ms := newMockStore()
	id := uuid.New()
	ms.add(t, id, 0.8, target.AddDate(0, 0, -1))
	ms.add(t, id, 0.9, target.AddDate(0, 0, -2))
	ms.add(t, id, 0.0, target.AddDate(0, 0, -40))

	svc := NewService(ms, crowd.NewEstimator(crowd.DefaultParams()), 1)
	p, err := svc.Predict(context.Background(), id, target)
	require.NoError(t, err)

	assert.Equal(t, crowd.LabelHigh, p.Label)
	assert.Equal(t, id.String(), p.AttractionID)
	assert.Equal(t, 0.8, p.Confidence)
	require.Len(t, ms.observationsBetweenArgs, 1)
	assert.Equal(t, target.AddDate(0, 0, -30), ms.observationsBetweenArgs[0][0])
	assert.Equal(t, target, ms.observationsBetweenArgs[0][1])
}

func TestService_Stats(t *testing.T) {
	ms := newMockStore()
	id := uuid.New()
	ms.add(t, id, 0.2, target.Add(-2*time.Hour))
	ms.add(t, id, 0.6, target.Add(-3*time.Hour))
	ms.add(t, id, 1.0, target.AddDate(0, 0, -10))

	svc := NewService(ms, crowd.NewEstimator(crowd.DefaultParams()), 1)
	svc.now = func() time.Time { return target }

	stats, err := svc.Stats(context.Background(), id, 7)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalReports)
	assert.InDelta(t, 0.4, stats.AverageCrowdLevel, 1e-9)

	stats, err = svc.Stats(context.Background(), id, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalReports)

	ms.listErr = errors.New("db down")
	_, err = svc.Stats(context.Background(), id, 7)
	assert.Error(t, err)
}

func TestService_PredictBatch(t *testing.T) {
	ms := newMockStore()
	low, high, unknown := uuid.New(), uuid.New(), uuid.New()
	ms.add(t, low, 0.1, target.AddDate(0, 0, -1))
	ms.add(t, high, 0.9, target.AddDate(0, 0, -1))

	testCases := []struct {
		name  string
		start bool
	}{
		{name: "Inline without workers", start: false},
		{name: "Worker pool", start: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			svc := NewService(ms, crowd.NewEstimator(crowd.DefaultParams()), 2)
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			if tc.start {
				svc.Start(ctx)
			}

			predictions, err := svc.PredictBatch(ctx, []uuid.UUID{high, unknown, low, high}, target)
			require.NoError(t, err)
			require.Len(t, predictions, 3)
			assert.Equal(t, high.String(), predictions[0].AttractionID)
			assert.Equal(t, "attraction "+high.String(), predictions[0].AttractionName)
			assert.Equal(t, crowd.LabelHigh, predictions[0].Label)
			assert.Equal(t, low.String(), predictions[1].AttractionID)
			assert.Equal(t, crowd.LabelLow, predictions[1].Label)
			assert.Equal(t, high.String(), predictions[2].AttractionID)
		})
	}
}

func TestService_PredictBatch_Empty(t *testing.T) {
	svc := NewService(newMockStore(), crowd.NewEstimator(crowd.DefaultParams()), 1)
	predictions, err := svc.PredictBatch(context.Background(), nil, target)
	require.NoError(t, err)
	assert.NotNil(t, predictions)
	assert.Empty(t, predictions)
}

func TestService_PredictBatch_AfterPoolShutdown(t *testing.T) {
	ms := newMockStore()
	ids := make([]uuid.UUID, 5)
	for i := range ids {
		ids[i] = uuid.New()
		ms.add(t, ids[i], 0.9, target.AddDate(0, 0, -1))
	}

	svc := NewService(ms, crowd.NewEstimator(crowd.DefaultParams()), 2)
	poolCtx, stop := context.WithCancel(context.Background())
	svc.Start(poolCtx)
	stop()
	<-svc.pool.Closed()

	reqCtx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	done := make(chan struct{})
	var (
		predictions []crowd.Prediction
		err         error
	)
	go func() {
		defer close(done)
		predictions, err = svc.PredictBatch(reqCtx, ids, target)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("PredictBatch blocked after the worker pool shut down")
	}
	require.NoError(t, err)
	require.Len(t, predictions, len(ids))
	for i, p := range predictions {
		assert.Equal(t, ids[i].String(), p.AttractionID)
		assert.Equal(t, crowd.LabelHigh, p.Label)
	}
}

func TestService_PredictBatch_RequestCancelled(t *testing.T) {
	ms := newMockStore()
	id := uuid.New()
	ms.add(t, id, 0.5, target.AddDate(0, 0, -1))

	svc := NewService(ms, crowd.NewEstimator(crowd.DefaultParams()), 1)
	poolCtx, stop := context.WithCancel(context.Background())
	defer stop()
	svc.Start(poolCtx)

	reqCtx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan error, 1)
	go func() {
		_, err := svc.PredictBatch(reqCtx, []uuid.UUID{id, id, id}, target)
		done <- err
	}()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("PredictBatch blocked after its request context was cancelled")
	}
}
