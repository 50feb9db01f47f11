package candidate

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	StatusPending  = "pending"
	StatusInvited  = "invited"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// Candidate is a registration request or an admin invitation awaiting approval.
type Candidate struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Email         string     `gorm:"index;not null;column:email" json:"email"`
	FirstName     string     `gorm:"column:first_name" json:"first_name"`
	LastName      string     `gorm:"column:last_name" json:"last_name"`
	MiddleName    string     `gorm:"column:middle_name" json:"middle_name,omitempty"`
	Organization  string     `gorm:"column:organization" json:"organization,omitempty"`
	Position      string     `gorm:"column:position" json:"position,omitempty"`
	Phone         string     `gorm:"column:phone" json:"phone,omitempty"`
	Role          string     `gorm:"not null;column:role" json:"role"`
	Status        string     `gorm:"not null;index;column:status" json:"status"`
	Comment       string     `gorm:"column:comment" json:"comment,omitempty"`
	RejectReason  string     `gorm:"column:reject_reason" json:"reject_reason,omitempty"`
	InvitedByID   *uuid.UUID `gorm:"type:uuid;column:invited_by_id" json:"invited_by_id,omitempty"`
	UserID        *uuid.UUID `gorm:"type:uuid;column:user_id" json:"user_id,omitempty"`
	PasswordHash  string     `gorm:"column:password_hash" json:"-"`
	DecidedAt     *time.Time `gorm:"column:decided_at" json:"decided_at,omitempty"`

	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Candidate) TableName() string { return "candidate" }

func (c *Candidate) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.Status == "" {
		c.Status = StatusPending
	}
	return nil
}
