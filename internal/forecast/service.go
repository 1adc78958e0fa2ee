package forecast

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"tourist-untrap-backend/internal/crowd"
	"tourist-untrap-backend/internal/metrics"
	"tourist-untrap-backend/internal/model"
	"tourist-untrap-backend/internal/store"
)

// Service answers prediction and statistics questions from stored observations.
type Service struct {
	store     store.Store
	estimator *crowd.Estimator
	pool      *WorkerPool
	now       func() time.Time
}

// NewService creates a forecast service whose batch pool has poolSize workers.
// Call Start before serving batch requests to run them concurrently.
func NewService(s store.Store, estimator *crowd.Estimator, poolSize int) *Service {
	svc := &Service{
		store:     s,
		estimator: estimator,
		now:       time.Now,
	}
	svc.pool = NewWorkerPool(poolSize, svc.predictKnown)
	return svc
}

// Start launches the batch worker pool.
func (s *Service) Start(ctx context.Context) {
	s.pool.Start(ctx)
}

// Estimator returns the estimator the service was configured with.
func (s *Service) Estimator() *crowd.Estimator {
	return s.estimator
}

// Now returns the service clock.
func (s *Service) Now() time.Time {
	return s.now()
}

// Predict returns the crowd prediction of an attraction for target.
func (s *Service) Predict(ctx context.Context, attractionID uuid.UUID, target time.Time) (crowd.Prediction, error) {
	from := target.Add(-s.estimator.Params().PredictionWindow)
	rows, err := s.store.ObservationsBetween(ctx, attractionID, from, target)
	if err != nil {
		return crowd.Prediction{}, err
	}

	p := s.estimator.Predict(attractionID.String(), model.Observations(rows), target)
	metrics.PredictionsTotal.WithLabelValues(string(p.Label)).Inc()
	return p, nil
}

// Stats summarizes the observations of the last days days. A non-positive
// days uses the configured default window.
func (s *Service) Stats(ctx context.Context, attractionID uuid.UUID, days int) (crowd.Stats, error) {
	if days <= 0 {
		days = s.estimator.Params().StatsWindowDays
	}
	now := s.now()
	from := now.AddDate(0, 0, -days)
	rows, err := s.store.ListObservations(ctx, store.ObservationFilter{AttractionID: attractionID, Start: &from})
	if err != nil {
		return crowd.Stats{}, err
	}

	metrics.StatsRequestsTotal.Inc()
	return s.estimator.ComputeStats(model.Observations(rows), days, now), nil
}

// PredictBatch predicts every attraction in ids for target. Attractions that
// do not exist are skipped; the remaining results keep the order of ids.
// Jobs the pool can no longer take, because it is shutting down, are
// evaluated on the calling goroutine.
func (s *Service) PredictBatch(ctx context.Context, ids []uuid.UUID, target time.Time) ([]crowd.Prediction, error) {
	type result struct {
		prediction crowd.Prediction
		found      bool
		err        error
	}
	results := make([]result, len(ids))

	if s.pool.Started() {
		var wg sync.WaitGroup
		var dispatchErr error
		for i, id := range ids {
			wg.Add(1)
			job := Job{
				Ctx:          ctx,
				AttractionID: id,
				Target:       target,
				Done: func(p crowd.Prediction, found bool, err error) {
					results[i] = result{p, found, err}
					wg.Done()
				},
			}
			if err := s.pool.Dispatch(job); err != nil {
				wg.Done()
				if errors.Is(err, ErrPoolClosed) {
					results[i] = result{err: err}
					continue
				}
				dispatchErr = err
				break
			}
		}
		// Only jobs a worker accepted are waited for.
		wg.Wait()
		if dispatchErr != nil {
			return nil, dispatchErr
		}
	} else {
		for i := range results {
			results[i] = result{err: ErrPoolClosed}
		}
	}

	for i, id := range ids {
		if errors.Is(results[i].err, ErrPoolClosed) {
			p, found, err := s.predictKnown(ctx, id, target)
			results[i] = result{p, found, err}
		}
	}

	predictions := make([]crowd.Prediction, 0, len(ids))
	for i, r := range results {
		if r.err != nil {
			return nil, fmt.Errorf("prediction for attraction %s failed: %w", ids[i], r.err)
		}
		if r.found {
			predictions = append(predictions, r.prediction)
		}
	}
	return predictions, nil
}

// predictKnown predicts an attraction after checking that it exists.
func (s *Service) predictKnown(ctx context.Context, attractionID uuid.UUID, target time.Time) (crowd.Prediction, bool, error) {
	a, err := s.store.GetAttraction(ctx, attractionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return crowd.Prediction{}, false, nil
		}
		return crowd.Prediction{}, false, err
	}
	p, err := s.Predict(ctx, attractionID, target)
	if err != nil {
		return crowd.Prediction{}, false, err
	}
	p.AttractionName = a.Name
	return p, true, nil
}
