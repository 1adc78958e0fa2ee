package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"tourist-untrap-backend/internal/crowd"
)

// CrowdData is one stored crowd observation. Rows are immutable once written.
type CrowdData struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	AttractionID     uuid.UUID `gorm:"type:uuid;not null;index:idx_crowd_data_attraction_observed,priority:1" json:"attractionId" validate:"required"`
	CrowdLevel       float64   `gorm:"type:decimal(3,2);not null" json:"crowdLevel" validate:"gte=0,lte=1"`
	WaitTime         *int      `json:"waitTime" validate:"omitempty,gte=0"`
	ObservedAt       time.Time `gorm:"not null;index:idx_crowd_data_attraction_observed,priority:2" json:"timestamp"`
	DayOfWeek        int       `gorm:"not null;index:idx_crowd_data_day_hour,priority:1" json:"dayOfWeek" validate:"gte=0,lte=6"`
	HourOfDay        int       `gorm:"not null;index:idx_crowd_data_day_hour,priority:2" json:"hourOfDay" validate:"gte=0,lte=23"`
	IsHoliday        bool      `gorm:"not null;default:false" json:"isHoliday"`
	WeatherCondition *string   `gorm:"size:64" json:"weatherCondition,omitempty"`
	Temperature      *float64  `gorm:"type:decimal(4,1)" json:"temperature,omitempty"`
	DataSource       string    `gorm:"size:16;not null;default:user_report;index" json:"dataSource" validate:"required,oneof=user_report api prediction sensor"`
	Confidence       *float64  `gorm:"type:decimal(3,2)" json:"confidence,omitempty" validate:"omitempty,gte=0,lte=1"`
	Notes            string    `gorm:"type:text" json:"notes,omitempty" validate:"max=500"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`

	// Associations
	Attraction *Attraction `gorm:"constraint:OnDelete:CASCADE" json:"attraction,omitempty"`
}

// TableName keeps the original table name instead of GORM's pluralization.
func (CrowdData) TableName() string {
	return "crowd_data"
}

// BeforeCreate assigns a UUID when the caller did not.
func (c *CrowdData) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// NewCrowdData builds a validated observation row. Day of week and hour of day
// are derived from observedAt in its own location.
func NewCrowdData(attractionID uuid.UUID, level float64, waitTime *int, observedAt time.Time, source crowd.DataSource, confidence *float64) (CrowdData, error) {
	c := CrowdData{
		AttractionID: attractionID,
		CrowdLevel:   level,
		WaitTime:     waitTime,
		ObservedAt:   observedAt,
		DayOfWeek:    int(observedAt.Weekday()),
		HourOfDay:    observedAt.Hour(),
		DataSource:   string(source),
		Confidence:   confidence,
	}
	if err := c.Validate(); err != nil {
		return CrowdData{}, err
	}
	return c, nil
}

// Validate checks the stored ranges of an observation.
func (c *CrowdData) Validate() error {
	return validate().Struct(c)
}

// Observation converts the row into the estimator's input type.
func (c CrowdData) Observation() crowd.Observation {
	return crowd.Observation{
		AttractionID: c.AttractionID.String(),
		CrowdLevel:   c.CrowdLevel,
		WaitTime:     c.WaitTime,
		Timestamp:    c.ObservedAt,
		DayOfWeek:    c.DayOfWeek,
		HourOfDay:    c.HourOfDay,
		DataSource:   crowd.DataSource(c.DataSource),
		Confidence:   c.Confidence,
	}
}

// Observations converts a slice of rows.
func Observations(rows []CrowdData) []crowd.Observation {
	out := make([]crowd.Observation, len(rows))
	for i, r := range rows {
		out[i] = r.Observation()
	}
	return out
}
