package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"tourist-untrap-backend/internal/crowd"
)

// VisitHistory records a user's visit and the crowd level predicted for it.
type VisitHistory struct {
	ID                  uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID              uuid.UUID `gorm:"type:uuid;not null;index:idx_visit_history_user_date,priority:1" json:"userId"`
	AttractionID        uuid.UUID `gorm:"type:uuid;not null;index:idx_visit_history_attraction_date,priority:1" json:"attractionId"`
	VisitDate           time.Time `gorm:"not null;index:idx_visit_history_user_date,priority:2;index:idx_visit_history_attraction_date,priority:2" json:"visitDate"`
	ActualCrowdLevel    *float64  `gorm:"type:decimal(3,2)" json:"actualCrowdLevel,omitempty" validate:"omitempty,gte=0,lte=1"`
	ActualWaitTime      *int      `json:"actualWaitTime,omitempty" validate:"omitempty,gte=0"`
	PredictedCrowdLevel *float64  `gorm:"type:decimal(3,2)" json:"predictedCrowdLevel,omitempty" validate:"omitempty,gte=0,lte=1"`
	PredictedWaitTime   *int      `json:"predictedWaitTime,omitempty" validate:"omitempty,gte=0"`
	Rating              *int      `json:"rating,omitempty" validate:"omitempty,gte=1,lte=5"`
	Notes               string    `gorm:"type:text" json:"notes,omitempty" validate:"max=1000"`
	VisitDuration       *int      `json:"visitDuration,omitempty" validate:"omitempty,gte=1"`
	WasPlanned          bool      `gorm:"not null;default:false;index" json:"wasPlanned"`
	Satisfaction        *string   `gorm:"size:32" json:"satisfaction,omitempty" validate:"omitempty,oneof=very_satisfied satisfied neutral dissatisfied very_dissatisfied"`
	WouldRecommend      *bool     `json:"wouldRecommend,omitempty"`
	CreatedAt           time.Time `json:"createdAt"`
	UpdatedAt           time.Time `json:"updatedAt"`

	// Associations
	Attraction *Attraction `gorm:"constraint:OnDelete:CASCADE" json:"attraction,omitempty"`
}

// TableName keeps the original table name instead of GORM's pluralization.
func (VisitHistory) TableName() string {
	return "visit_history"
}

// BeforeCreate assigns a UUID when the caller did not.
func (v *VisitHistory) BeforeCreate(tx *gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}

// Validate checks the stored ranges of a visit.
func (v *VisitHistory) Validate() error {
	return validate().Struct(v)
}

// Outcome returns the predicted/actual pair used for accuracy summaries.
func (v VisitHistory) Outcome() crowd.VisitOutcome {
	return crowd.VisitOutcome{Predicted: v.PredictedCrowdLevel, Actual: v.ActualCrowdLevel}
}
