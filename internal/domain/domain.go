package domain

import (
	"github.com/dpp-pk/constructor-backend/internal/domain/auth"
	"github.com/dpp-pk/constructor-backend/internal/domain/candidate"
	"github.com/dpp-pk/constructor-backend/internal/domain/dictionary"
	"github.com/dpp-pk/constructor-backend/internal/domain/expertise"
	"github.com/dpp-pk/constructor-backend/internal/domain/program"
	"github.com/dpp-pk/constructor-backend/internal/domain/recommendation"
	"github.com/dpp-pk/constructor-backend/internal/domain/user"
)

const (
	RoleAdmin  = user.RoleAdmin
	RoleAuthor = user.RoleAuthor
	RoleExpert = user.RoleExpert

	UserStatusActive   = user.StatusActive
	UserStatusBlocked  = user.StatusBlocked
	UserStatusArchived = user.StatusArchived

	CandidateStatusPending  = candidate.StatusPending
	CandidateStatusInvited  = candidate.StatusInvited
	CandidateStatusApproved = candidate.StatusApproved
	CandidateStatusRejected = candidate.StatusRejected

	ProgramStatusDraft         = program.StatusDraft
	ProgramStatusOnExpertise   = program.StatusOnExpertise
	ProgramStatusNeedsRevision = program.StatusNeedsRevision
	ProgramStatusApproved      = program.StatusApproved
	ProgramStatusRejected      = program.StatusRejected
	ProgramStatusArchived      = program.StatusArchived

	ExpertiseStatusPending    = expertise.StatusPending
	ExpertiseStatusInProgress = expertise.StatusInProgress
	ExpertiseStatusCompleted  = expertise.StatusCompleted
	ExpertiseStatusApproved   = expertise.StatusApproved
	ExpertiseStatusRejected   = expertise.StatusRejected

	RecommendationStatusActive    = recommendation.StatusActive
	RecommendationStatusResponded = recommendation.StatusResponded
	RecommendationStatusArchived  = recommendation.StatusArchived
)

type User = user.User
type UserToken = auth.UserToken
type Candidate = candidate.Candidate
type DictionaryEntry = dictionary.Entry
type Program = program.Program
type ProgramCoAuthor = program.ProgramCoAuthor
type ProgramVersion = program.ProgramVersion
type Expertise = expertise.Expertise
type Recommendation = recommendation.Recommendation

// Models lists every persisted entity in migration order.
func Models() []any {
	return []any{
		&User{},
		&UserToken{},
		&Candidate{},
		&DictionaryEntry{},
		&Program{},
		&ProgramCoAuthor{},
		&ProgramVersion{},
		&Expertise{},
		&Recommendation{},
	}
}

func IsValidRole(role string) bool { return user.IsValidRole(role) }

func IsValidDictionaryType(t string) bool { return dictionary.IsValidType(t) }

func ProgramEditable(status string) bool { return program.Editable(status) }

func IsValidProgramStatus(status string) bool { return program.IsValidStatus(status) }

// DictionaryTypes lists the dictionary entry types in display order.
func DictionaryTypes() []string { return append([]string(nil), dictionary.Types...) }
