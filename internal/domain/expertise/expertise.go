package expertise

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/dpp-pk/constructor-backend/internal/domain/program"
	"github.com/dpp-pk/constructor-backend/internal/domain/user"
)

const (
	StatusPending    = "pending"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusApproved   = "approved"
	StatusRejected   = "rejected"
)

// Expertise is one (program, expert) review assignment.
type Expertise struct {
	ID        uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	ProgramID uuid.UUID        `gorm:"type:uuid;not null;index;column:program_id" json:"program_id"`
	Program   *program.Program `gorm:"constraint:OnDelete:CASCADE;foreignKey:ProgramID;references:ID" json:"program,omitempty"`
	ExpertID  uuid.UUID        `gorm:"type:uuid;not null;index;column:expert_id" json:"expert_id"`
	Expert    *user.User       `gorm:"constraint:OnDelete:RESTRICT;foreignKey:ExpertID;references:ID" json:"expert,omitempty"`
	Status    string           `gorm:"not null;index;column:status" json:"status"`

	// Criteria holds the submitted answers keyed by criterion key.
	Criteria                 datatypes.JSON `gorm:"column:criteria" json:"criteria"`
	AdditionalRecommendation string         `gorm:"column:additional_recommendation" json:"additional_recommendation,omitempty"`
	Conclusion               string         `gorm:"column:conclusion" json:"conclusion,omitempty"`
	Feedback                 string         `gorm:"column:feedback" json:"feedback,omitempty"`

	RevisionRound       int        `gorm:"not null;default:0;column:revision_round" json:"revision_round"`
	RevisionComments    string     `gorm:"column:revision_comments" json:"revision_comments,omitempty"`
	RevisionRequestedAt *time.Time `gorm:"column:revision_requested_at" json:"revision_requested_at,omitempty"`
	ResubmittedAt       *time.Time `gorm:"column:resubmitted_at" json:"resubmitted_at,omitempty"`
	SubmittedAt         *time.Time `gorm:"column:submitted_at" json:"submitted_at,omitempty"`
	CompletedAt         *time.Time `gorm:"column:completed_at" json:"completed_at,omitempty"`

	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Expertise) TableName() string { return "expertise" }

func (e *Expertise) BeforeCreate(*gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.Status == "" {
		e.Status = StatusPending
	}
	return nil
}

// Final reports whether the review reached a verdict.
func (e *Expertise) Final() bool {
	return e.Status == StatusApproved || e.Status == StatusRejected
}
