package user

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RoleAdmin  = "admin"
	RoleAuthor = "author"
	RoleExpert = "expert"
)

const (
	StatusActive   = "active"
	StatusBlocked  = "blocked"
	StatusArchived = "archived"
)

func IsValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleAuthor, RoleExpert:
		return true
	}
	return false
}

type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Email        string    `gorm:"uniqueIndex;not null;column:email" json:"email"`
	Password     string    `gorm:"not null;column:password" json:"-"`
	FirstName    string    `gorm:"not null;column:first_name" json:"first_name"`
	LastName     string    `gorm:"not null;column:last_name" json:"last_name"`
	MiddleName   string    `gorm:"column:middle_name" json:"middle_name,omitempty"`
	Organization string    `gorm:"column:organization" json:"organization,omitempty"`
	Position     string    `gorm:"column:position" json:"position,omitempty"`
	Phone        string    `gorm:"column:phone" json:"phone,omitempty"`
	Role         string    `gorm:"not null;index;column:role" json:"role"`
	Status       string    `gorm:"not null;index;column:status" json:"status"`

	// Set for accounts created with a temporary password.
	MustChangePassword bool       `gorm:"not null;default:false;column:must_change_password" json:"must_change_password"`
	LastLoginAt        *time.Time `gorm:"column:last_login_at" json:"last_login_at,omitempty"`

	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (User) TableName() string { return "user" }

func (u *User) BeforeCreate(*gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.Status == "" {
		u.Status = StatusActive
	}
	return nil
}

// FullName renders "Фамилия Имя Отчество", skipping empty parts.
func (u *User) FullName() string {
	if u == nil {
		return ""
	}
	parts := make([]string, 0, 3)
	for _, p := range []string{u.LastName, u.FirstName, u.MiddleName} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}
