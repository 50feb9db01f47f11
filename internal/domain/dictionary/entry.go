package dictionary

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Entry types. The type decides which list of the constructor the entry populates.
const (
	TypeInstitution     = "institution"
	TypeProgramType     = "program_type"
	TypeCategory        = "category"
	TypeStandardType    = "standard_type"
	TypeEquipment       = "equipment"
	TypeSoftware        = "software"
	TypeAttestationForm = "attestation_form"
)

var Types = []string{
	TypeInstitution,
	TypeProgramType,
	TypeCategory,
	TypeStandardType,
	TypeEquipment,
	TypeSoftware,
	TypeAttestationForm,
}

func IsValidType(t string) bool {
	for _, v := range Types {
		if v == t {
			return true
		}
	}
	return false
}

type Entry struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Type        string    `gorm:"not null;uniqueIndex:idx_dictionary_type_value;column:type" json:"type" yaml:"type"`
	Value       string    `gorm:"not null;uniqueIndex:idx_dictionary_type_value;column:value" json:"value" yaml:"value"`
	Code        string    `gorm:"column:code" json:"code,omitempty" yaml:"code,omitempty"`
	Description string    `gorm:"column:description" json:"description,omitempty" yaml:"description,omitempty"`
	SortOrder   int       `gorm:"not null;default:0;column:sort_order" json:"sort_order" yaml:"sort_order,omitempty"`
	IsActive    bool      `gorm:"not null;column:is_active" json:"is_active" yaml:"is_active"`

	CreatedAt time.Time `gorm:"not null" json:"created_at" yaml:"-"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at" yaml:"-"`
}

func (Entry) TableName() string { return "dictionary_entry" }

func (e *Entry) BeforeCreate(*gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
