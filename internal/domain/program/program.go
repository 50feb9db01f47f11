package program

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/dpp-pk/constructor-backend/internal/domain/user"
)

const (
	StatusDraft         = "draft"
	StatusOnExpertise   = "on_expertise"
	StatusNeedsRevision = "needs_revision"
	StatusApproved      = "approved"
	StatusRejected      = "rejected"
	StatusArchived      = "archived"
)

func IsValidStatus(s string) bool {
	switch s {
	case StatusDraft, StatusOnExpertise, StatusNeedsRevision, StatusApproved, StatusRejected, StatusArchived:
		return true
	}
	return false
}

// Editable reports whether authors may still change the document.
func Editable(status string) bool {
	return status == StatusDraft || status == StatusNeedsRevision
}

type Program struct {
	ID       uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Title    string         `gorm:"not null;column:title" json:"title"`
	Status   string         `gorm:"not null;index;column:status" json:"status"`
	AuthorID uuid.UUID      `gorm:"type:uuid;not null;index;column:author_id" json:"author_id"`
	Author   *user.User     `gorm:"constraint:OnDelete:RESTRICT;foreignKey:AuthorID;references:ID" json:"author,omitempty"`
	Document datatypes.JSON `gorm:"column:document" json:"document"`
	Version  int            `gorm:"not null;default:1;column:version" json:"version"`

	// Status the program had before it was archived; unarchive restores it.
	ArchivedFromStatus string     `gorm:"column:archived_from_status" json:"-"`
	ArchiveKey         string     `gorm:"column:archive_key" json:"archive_key,omitempty"`
	SubmittedAt        *time.Time `gorm:"column:submitted_at" json:"submitted_at,omitempty"`
	ApprovedAt         *time.Time `gorm:"column:approved_at" json:"approved_at,omitempty"`

	CoAuthors []ProgramCoAuthor `gorm:"foreignKey:ProgramID" json:"co_authors,omitempty"`

	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Program) TableName() string { return "program" }

func (p *Program) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.Status == "" {
		p.Status = StatusDraft
	}
	if p.Version == 0 {
		p.Version = 1
	}
	return nil
}

type ProgramCoAuthor struct {
	ProgramID uuid.UUID  `gorm:"type:uuid;primaryKey;column:program_id" json:"program_id"`
	UserID    uuid.UUID  `gorm:"type:uuid;primaryKey;column:user_id" json:"user_id"`
	User      *user.User `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
	CreatedAt time.Time  `gorm:"not null" json:"created_at"`
}

func (ProgramCoAuthor) TableName() string { return "program_co_author" }

// ProgramVersion is an immutable snapshot taken on every save.
type ProgramVersion struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	ProgramID uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_program_version;column:program_id" json:"program_id"`
	Version   int            `gorm:"not null;uniqueIndex:idx_program_version;column:version" json:"version"`
	Status    string         `gorm:"not null;column:status" json:"status"`
	SavedByID uuid.UUID      `gorm:"type:uuid;not null;column:saved_by_id" json:"saved_by_id"`
	Document  datatypes.JSON `gorm:"column:document" json:"document"`
	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
}

func (ProgramVersion) TableName() string { return "program_version" }

func (v *ProgramVersion) BeforeCreate(*gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}
