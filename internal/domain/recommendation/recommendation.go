package recommendation

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dpp-pk/constructor-backend/internal/domain/user"
)

const (
	StatusActive    = "active"
	StatusResponded = "responded"
	StatusArchived  = "archived"
)

const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// Recommendation is advice from an expert or admin to a program author.
type Recommendation struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	ProgramID   *uuid.UUID `gorm:"type:uuid;index;column:program_id" json:"program_id,omitempty"`
	AuthorID    uuid.UUID  `gorm:"type:uuid;not null;index;column:author_id" json:"author_id"`
	Author      *user.User `gorm:"constraint:OnDelete:CASCADE;foreignKey:AuthorID;references:ID" json:"author,omitempty"`
	RecipientID *uuid.UUID `gorm:"type:uuid;index;column:recipient_id" json:"recipient_id,omitempty"`
	Title       string     `gorm:"not null;column:title" json:"title"`
	Content     string     `gorm:"not null;column:content" json:"content"`
	Priority    string     `gorm:"not null;default:'medium';column:priority" json:"priority"`
	Status      string     `gorm:"not null;index;column:status" json:"status"`

	Response       string     `gorm:"column:response" json:"response,omitempty"`
	RespondedAt    *time.Time `gorm:"column:responded_at" json:"responded_at,omitempty"`
	Feedback       string     `gorm:"column:feedback" json:"feedback,omitempty"`
	FeedbackRating int        `gorm:"not null;default:0;column:feedback_rating" json:"feedback_rating,omitempty"`

	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Recommendation) TableName() string { return "recommendation" }

func (r *Recommendation) BeforeCreate(*gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if r.Status == "" {
		r.Status = StatusActive
	}
	if r.Priority == "" {
		r.Priority = PriorityMedium
	}
	return nil
}
