package feed

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tourist-untrap-backend/config"
	"tourist-untrap-backend/internal/model"
	"tourist-untrap-backend/internal/store"
)

// mockStore is a mock implementation of the store.Store interface.
type mockStore struct {
	store.Store
	CreateObservationsFunc func(ctx context.Context, rows []model.CrowdData) error
}

func (m *mockStore) CreateObservations(ctx context.Context, rows []model.CrowdData) error {
	return m.CreateObservationsFunc(ctx, rows)
}

func intPtr(v int) *int { return &v }

func newFeedServer(t *testing.T, pages map[int][]ApiItem, total int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "secret", r.Header.Get("X-Api-Key"))

		var payload struct {
			Page     int    `json:"page"`
			PageSize int    `json:"pageSize"`
			City     string `json:"city"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "paris", payload.City)

		var resp ApiResponse
		resp.Data.Total = total
		resp.Data.Items = pages[payload.Page]
		json.NewEncoder(w).Encode(resp)
	}))
}

func testConfig(url string) *config.FeedConfig {
	return &config.FeedConfig{
		Enabled:  true,
		URL:      url,
		Headers:  map[string]string{"X-Api-Key": "secret"},
		Payload:  map[string]any{"city": "paris"},
		PageSize: 2,
		Timezone: "Europe/Paris",
		Source:   "sensor",
		Interval: time.Minute,
	}
}

func TestService_IngestOnce(t *testing.T) {
	louvre := uuid.New()
	pages := map[int][]ApiItem{
		1: {
			{AttractionID: louvre.String(), CrowdLevel: 0.4, WaitTime: intPtr(15), ObservedAt: "2025-07-14 10:00:00"},
			{AttractionID: louvre.String(), CrowdLevel: 0.6, ObservedAt: "2025-07-14 11:00:00"},
		},
		2: {
			{AttractionID: "not-a-uuid", CrowdLevel: 0.5, ObservedAt: "2025-07-14 12:00:00"},
			{AttractionID: louvre.String(), CrowdLevel: 1.7, ObservedAt: "2025-07-14 12:00:00"},
		},
		3: {
			{AttractionID: louvre.String(), CrowdLevel: 0.9, ObservedAt: "14/07/2025 13:00"},
		},
	}
	server := newFeedServer(t, pages, 5)
	defer server.Close()

	var stored []model.CrowdData
	ms := &mockStore{
		CreateObservationsFunc: func(ctx context.Context, rows []model.CrowdData) error {
			stored = rows
			return nil
		},
	}

	service := NewService(testConfig(server.URL), ms)
	n := service.IngestOnce(context.Background())

	assert.Equal(t, 2, n)
	require.Len(t, stored, 2)

	paris, err := time.LoadLocation("Europe/Paris")
	require.NoError(t, err)
	first := stored[0]
	assert.Equal(t, louvre, first.AttractionID)
	assert.Equal(t, "sensor", first.DataSource)
	assert.Equal(t, 10, first.HourOfDay)
	assert.Equal(t, 1, first.DayOfWeek)
	assert.True(t, first.ObservedAt.Equal(time.Date(2025, 7, 14, 10, 0, 0, 0, paris)))
	assert.Equal(t, intPtr(15), first.WaitTime)
}

func TestService_IngestOnce_FetchErrorAborts(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	ms := &mockStore{
		CreateObservationsFunc: func(ctx context.Context, rows []model.CrowdData) error {
			t.Fatal("store must not be called when nothing was fetched")
			return nil
		},
	}

	service := NewService(testConfig(server.URL), ms)
	assert.Equal(t, 0, service.IngestOnce(context.Background()))
}

func TestService_IngestOnce_StoreError(t *testing.T) {
	server := newFeedServer(t, map[int][]ApiItem{
		1: {{AttractionID: uuid.NewString(), CrowdLevel: 0.2, ObservedAt: "2025-07-14 10:00:00"}},
	}, 1)
	defer server.Close()

	ms := &mockStore{
		CreateObservationsFunc: func(ctx context.Context, rows []model.CrowdData) error {
			return errors.New("disk full")
		},
	}

	service := NewService(testConfig(server.URL), ms)
	assert.Equal(t, 0, service.IngestOnce(context.Background()))
}

func TestService_FetchPage_NonZeroCode(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"code":42,"message":"quota exceeded"}`))
	}))
	defer server.Close()

	service := NewService(testConfig(server.URL), &mockStore{})
	_, err := service.fetchPage(context.Background(), 1)
	assert.ErrorContains(t, err, "non-zero application code: 42")
}

func TestService_ParseTimestamp(t *testing.T) {
	service := NewService(&config.FeedConfig{Timezone: "Asia/Tokyo"}, &mockStore{})

	ts, err := service.parseTimestamp("2025-07-14 09:30:00")
	require.NoError(t, err)
	assert.Equal(t, "2025-07-14T00:30:00Z", ts.UTC().Format(time.RFC3339))

	_, err = service.parseTimestamp("")
	assert.Error(t, err)

	bad := NewService(&config.FeedConfig{Timezone: "Mars/Olympus"}, &mockStore{})
	_, err = bad.parseTimestamp("2025-07-14 09:30:00")
	assert.Error(t, err)
}

func TestService_RunDisabled(t *testing.T) {
	service := NewService(&config.FeedConfig{Enabled: false}, &mockStore{})
	done := make(chan struct{})
	go func() {
		service.Run(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run should return immediately when the feed is disabled")
	}
}
