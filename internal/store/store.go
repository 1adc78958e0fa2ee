package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"tourist-untrap-backend/internal/model"
)

// Store defines the interface for all database operations.
type Store interface {
	ListAttractions(ctx context.Context, f AttractionFilter) ([]model.Attraction, int64, error)
	GetAttraction(ctx context.Context, id uuid.UUID) (*model.Attraction, error)
	CreateAttraction(ctx context.Context, a *model.Attraction) error
	CountAttractions(ctx context.Context) (int64, error)
	ListCategories(ctx context.Context) ([]string, error)

	ListObservations(ctx context.Context, f ObservationFilter) ([]model.CrowdData, error)
	ObservationsBetween(ctx context.Context, attractionID uuid.UUID, from, to time.Time) ([]model.CrowdData, error)
	CreateObservation(ctx context.Context, c *model.CrowdData) error
	CreateObservations(ctx context.Context, rows []model.CrowdData) error

	ListVisits(ctx context.Context, userID uuid.UUID, limit, offset int) ([]model.VisitHistory, int64, error)
	VisitsSince(ctx context.Context, userID uuid.UUID, since time.Time) ([]model.VisitHistory, error)
	CreateVisit(ctx context.Context, v *model.VisitHistory) error

	DB() *gorm.DB
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) DB() *gorm.DB {
	return s.db
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// --- Attractions ---

func (s *gormStore) ListAttractions(ctx context.Context, f AttractionFilter) ([]model.Attraction, int64, error) {
	q := s.db.WithContext(ctx).Model(&model.Attraction{}).Where("is_active = ?", true)

	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if f.Search != "" {
		pattern := "%" + strings.ToLower(f.Search) + "%"
		q = q.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", pattern, pattern)
	}
	if f.Near != nil {
		delta := f.RadiusKm / kmPerDegree
		q = q.Where("latitude BETWEEN ? AND ?", f.Near.Lat-delta, f.Near.Lat+delta).
			Where("longitude BETWEEN ? AND ?", f.Near.Lng-delta, f.Near.Lng+delta)
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count attractions: %w", err)
	}

	page := q.Order("name ASC").Offset(f.Offset)
	if f.Limit > 0 {
		page = page.Limit(f.Limit)
	}
	var attractions []model.Attraction
	if err := page.Find(&attractions).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list attractions: %w", err)
	}
	return attractions, total, nil
}

func (s *gormStore) GetAttraction(ctx context.Context, id uuid.UUID) (*model.Attraction, error) {
	var a model.Attraction
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&a).Error; err != nil {
		return nil, notFound(err)
	}
	return &a, nil
}

func (s *gormStore) CreateAttraction(ctx context.Context, a *model.Attraction) error {
	if err := s.db.WithContext(ctx).Create(a).Error; err != nil {
		return fmt.Errorf("failed to create attraction %q: %w", a.Name, err)
	}
	return nil
}

func (s *gormStore) CountAttractions(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&model.Attraction{}).Count(&n).Error
	return n, err
}

func (s *gormStore) ListCategories(ctx context.Context) ([]string, error) {
	var categories []string
	err := s.db.WithContext(ctx).
		Model(&model.Attraction{}).
		Where("is_active = ?", true).
		Distinct().
		Order("category ASC").
		Pluck("category", &categories).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

// --- Crowd observations ---

// ListObservations returns observations newest first.
func (s *gormStore) ListObservations(ctx context.Context, f ObservationFilter) ([]model.CrowdData, error) {
	q := s.db.WithContext(ctx).Where("attraction_id = ?", f.AttractionID)
	if f.Start != nil {
		q = q.Where("observed_at >= ?", f.Start.UTC())
	}
	if f.End != nil {
		q = q.Where("observed_at <= ?", f.End.UTC())
	}
	if f.DataSource != "" {
		q = q.Where("data_source = ?", f.DataSource)
	}
	if f.IncludeAttraction {
		q = q.Preload("Attraction")
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}

	var rows []model.CrowdData
	if err := q.Order("observed_at DESC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list crowd data for attraction %s: %w", f.AttractionID, err)
	}
	return rows, nil
}

// ObservationsBetween returns all observations of an attraction with
// from <= observed_at <= to.
func (s *gormStore) ObservationsBetween(ctx context.Context, attractionID uuid.UUID, from, to time.Time) ([]model.CrowdData, error) {
	var rows []model.CrowdData
	err := s.db.WithContext(ctx).
		Where("attraction_id = ? AND observed_at >= ? AND observed_at <= ?", attractionID, from.UTC(), to.UTC()).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch crowd data for attraction %s: %w", attractionID, err)
	}
	return rows, nil
}

func (s *gormStore) CreateObservation(ctx context.Context, c *model.CrowdData) error {
	c.ObservedAt = c.ObservedAt.UTC()
	if err := s.db.WithContext(ctx).Create(c).Error; err != nil {
		return fmt.Errorf("failed to create crowd data for attraction %s: %w", c.AttractionID, err)
	}
	return nil
}

// CreateObservations inserts rows in batches inside one transaction.
func (s *gormStore) CreateObservations(ctx context.Context, rows []model.CrowdData) error {
	if len(rows) == 0 {
		return nil
	}
	for i := range rows {
		rows[i].ObservedAt = rows[i].ObservedAt.UTC()
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.CreateInBatches(rows, 200).Error; err != nil {
			return fmt.Errorf("batch insert of %d crowd data rows failed: %w", len(rows), err)
		}
		return nil
	})
}

// --- Visits ---

func (s *gormStore) ListVisits(ctx context.Context, userID uuid.UUID, limit, offset int) ([]model.VisitHistory, int64, error) {
	q := s.db.WithContext(ctx).Model(&model.VisitHistory{}).Where("user_id = ?", userID).Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count visits: %w", err)
	}

	page := q.Preload("Attraction").Order("visit_date DESC").Offset(offset)
	if limit > 0 {
		page = page.Limit(limit)
	}
	var visits []model.VisitHistory
	err := page.Find(&visits).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list visits: %w", err)
	}
	return visits, total, nil
}

func (s *gormStore) VisitsSince(ctx context.Context, userID uuid.UUID, since time.Time) ([]model.VisitHistory, error) {
	var visits []model.VisitHistory
	err := s.db.WithContext(ctx).
		Preload("Attraction").
		Where("user_id = ? AND visit_date >= ?", userID, since.UTC()).
		Find(&visits).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch visits for user %s: %w", userID, err)
	}
	return visits, nil
}

func (s *gormStore) CreateVisit(ctx context.Context, v *model.VisitHistory) error {
	v.VisitDate = v.VisitDate.UTC()
	if err := s.db.WithContext(ctx).Create(v).Error; err != nil {
		return fmt.Errorf("failed to create visit: %w", err)
	}
	return nil
}
