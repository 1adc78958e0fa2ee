package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"tourist-untrap-backend/internal/parse"
)

// Categories an attraction can be filed under.
var Categories = []string{"museum", "park", "landmark", "restaurant", "shopping", "entertainment", "other"}

// Attraction represents a place travelers can visit.
type Attraction struct {
	ID              uuid.UUID                 `gorm:"type:uuid;primaryKey" json:"id"`
	Name            string                    `gorm:"size:200;not null" json:"name" validate:"required,max=200"`
	Description     string                    `gorm:"type:text" json:"description"`
	Category        string                    `gorm:"size:32;not null;index" json:"category" validate:"required,oneof=museum park landmark restaurant shopping entertainment other"`
	Address         string                    `gorm:"not null" json:"address" validate:"required"`
	Latitude        float64                   `gorm:"type:decimal(10,8);not null;index:idx_attractions_location" json:"latitude" validate:"latitude"`
	Longitude       float64                   `gorm:"type:decimal(11,8);not null;index:idx_attractions_location" json:"longitude" validate:"longitude"`
	OpeningHours    map[string]parse.DayHours `gorm:"serializer:json;type:jsonb" json:"openingHours,omitempty"`
	Timezone        string                    `gorm:"size:64" json:"timezone,omitempty" validate:"omitempty,timezone"`
	AverageWaitTime *int                      `json:"averageWaitTime,omitempty" validate:"omitempty,gte=0"`
	Capacity        *int                      `json:"capacity,omitempty" validate:"omitempty,gte=0"`
	PriceRange      *string                   `gorm:"size:16" json:"priceRange,omitempty" validate:"omitempty,oneof=free low medium high"`
	Rating          *float64                  `gorm:"type:decimal(3,2)" json:"rating,omitempty" validate:"omitempty,gte=0,lte=5"`
	GooglePlaceID   *string                   `gorm:"uniqueIndex" json:"googlePlaceId,omitempty"`
	IsActive        bool                      `gorm:"not null;default:true" json:"isActive"`
	CreatedAt       time.Time                 `json:"createdAt"`
	UpdatedAt       time.Time                 `json:"updatedAt"`
}

// BeforeCreate assigns a UUID when the caller did not.
func (a *Attraction) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// Validate checks field ranges and the opening hours format.
func (a *Attraction) Validate() error {
	if err := validate().Struct(a); err != nil {
		return err
	}
	if _, err := parse.ParseOpeningHours(a.OpeningHours); err != nil {
		return err
	}
	return nil
}

// Schedule returns the parsed opening hours. Invalid hours yield an empty schedule.
func (a *Attraction) Schedule() parse.Schedule {
	s, err := parse.ParseOpeningHours(a.OpeningHours)
	if err != nil {
		return parse.Schedule{}
	}
	return s
}

// IsOpenAt reports whether the attraction is open at t, read on the
// attraction's own wall clock. Without a timezone t's location is used.
func (a *Attraction) IsOpenAt(t time.Time) bool {
	if a.Timezone != "" {
		if loc, err := time.LoadLocation(a.Timezone); err == nil {
			t = t.In(loc)
		}
	}
	return a.Schedule().IsOpen(t)
}
