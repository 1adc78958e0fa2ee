package feed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"tourist-untrap-backend/config"
	"tourist-untrap-backend/internal/crowd"
	"tourist-untrap-backend/internal/logging"
	"tourist-untrap-backend/internal/metrics"
	"tourist-untrap-backend/internal/model"
	"tourist-untrap-backend/internal/store"
)

const timestampLayout = "2006-01-02 15:04:05"

// Service polls the upstream crowd feed and stores what it reports.
type Service struct {
	cfg    *config.FeedConfig
	store  store.Store
	client *http.Client
	log    zerolog.Logger
}

// NewService creates and initializes a new feed service.
func NewService(cfg *config.FeedConfig, s store.Store) *Service {
	log := logging.With("feed")

	var transport http.RoundTripper = &http.Transport{}
	if cfg.HTTPProxy != "" {
		proxyURL, err := url.Parse(cfg.HTTPProxy)
		if err != nil {
			log.Warn().Err(err).Str("proxy", cfg.HTTPProxy).Msg("invalid proxy URL, feed will not use a proxy")
		} else {
			transport = &http.Transport{Proxy: http.ProxyURL(proxyURL)}
		}
	}

	return &Service{
		cfg:   cfg,
		store: s,
		client: &http.Client{
			Transport: transport,
			Timeout:   30 * time.Second,
		},
		log: log,
	}
}

// Run polls the feed until ctx is cancelled.
func (s *Service) Run(ctx context.Context) {
	if !s.cfg.Enabled {
		s.log.Info().Msg("feed is disabled, not starting")
		return
	}
	s.log.Info().Dur("interval", s.cfg.Interval).Str("url", s.cfg.URL).Msg("starting feed service")

	s.IngestOnce(ctx)

	timer := time.NewTimer(s.cfg.Interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info().Msg("feed service shutting down")
			return
		case <-timer.C:
			s.IngestOnce(ctx)
			timer.Reset(s.cfg.Interval)
		}
	}
}

// IngestOnce fetches every page of the feed and stores the valid items.
// It returns the number of stored observations.
func (s *Service) IngestOnce(ctx context.Context) int {
	s.log.Debug().Msg("executing feed cycle")

	var allItems []ApiItem
	total := 1
	pageSize := s.cfg.PageSize
	var fetchErr error
	for page := 1; (page-1)*pageSize < total; page++ {
		resp, err := s.fetchPage(ctx, page)
		if err != nil {
			s.log.Error().Err(err).Int("page", page).Msg("error fetching page")
			fetchErr = err
			break
		}
		if resp.Data.Total == 0 || len(resp.Data.Items) == 0 {
			break
		}
		total = resp.Data.Total
		allItems = append(allItems, resp.Data.Items...)
		s.log.Debug().Int("page", page).Int("total", total).Int("fetched", len(allItems)).Msg("fetched page")
	}

	if fetchErr != nil && len(allItems) == 0 {
		metrics.FeedCycleErrors.Inc()
		s.log.Warn().Msg("feed cycle aborted due to fetch error with no items retrieved")
		return 0
	}

	rows := make([]model.CrowdData, 0, len(allItems))
	for _, item := range allItems {
		row, err := s.toCrowdData(item)
		if err != nil {
			s.log.Warn().Err(err).Str("attraction_id", item.AttractionID).Msg("skipping invalid feed item")
			continue
		}
		rows = append(rows, row)
	}

	if len(rows) == 0 {
		s.log.Info().Msg("feed cycle finished: no items to store")
		return 0
	}

	if err := s.store.CreateObservations(ctx, rows); err != nil {
		metrics.FeedCycleErrors.Inc()
		s.log.Error().Err(err).Int("rows", len(rows)).Msg("error storing feed observations")
		return 0
	}

	metrics.FeedObservationsIngested.Add(float64(len(rows)))
	s.log.Info().Int("rows", len(rows)).Msg("feed cycle finished")
	return len(rows)
}

// toCrowdData validates an item and converts it into a storable row.
func (s *Service) toCrowdData(item ApiItem) (model.CrowdData, error) {
	attractionID, err := uuid.Parse(item.AttractionID)
	if err != nil {
		return model.CrowdData{}, fmt.Errorf("invalid attraction id %q: %w", item.AttractionID, err)
	}
	observedAt, err := s.parseTimestamp(item.ObservedAt)
	if err != nil {
		return model.CrowdData{}, err
	}
	return model.NewCrowdData(attractionID, item.CrowdLevel, item.WaitTime, observedAt, crowd.DataSource(s.cfg.Source), item.Confidence)
}

// parseTimestamp converts the feed's timestamp string into a time.Time, respecting the configured timezone.
func (s *Service) parseTimestamp(ts string) (time.Time, error) {
	if ts == "" {
		return time.Time{}, fmt.Errorf("missing observedAt")
	}

	loc, err := time.LoadLocation(s.cfg.Timezone)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to load timezone %q: %w", s.cfg.Timezone, err)
	}

	parsed, err := time.ParseInLocation(timestampLayout, ts, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse timestamp %q: %w", ts, err)
	}
	return parsed, nil
}

// fetchPage fetches a single page of observations from the upstream API.
func (s *Service) fetchPage(ctx context.Context, page int) (*ApiResponse, error) {
	payload := make(map[string]any, len(s.cfg.Payload)+2)
	for k, v := range s.cfg.Payload {
		payload[k] = v
	}
	payload["page"] = page
	payload["pageSize"] = s.cfg.PageSize

	jsonBody, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.URL, bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for key, value := range s.cfg.Headers {
		req.Header.Set(key, value)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("received non-200 status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var apiResp ApiResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal api response: %w", err)
	}

	if apiResp.Code != 0 {
		return nil, fmt.Errorf("API returned non-zero application code: %d", apiResp.Code)
	}

	return &apiResp, nil
}
