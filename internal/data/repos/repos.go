package repos

import (
	"gorm.io/gorm"

	"github.com/dpp-pk/constructor-backend/internal/data/repos/auth"
	"github.com/dpp-pk/constructor-backend/internal/data/repos/candidate"
	"github.com/dpp-pk/constructor-backend/internal/data/repos/dictionary"
	"github.com/dpp-pk/constructor-backend/internal/data/repos/expertise"
	"github.com/dpp-pk/constructor-backend/internal/data/repos/program"
	"github.com/dpp-pk/constructor-backend/internal/data/repos/recommendation"
	"github.com/dpp-pk/constructor-backend/internal/data/repos/user"
	"github.com/dpp-pk/constructor-backend/internal/platform/logger"
)

type UserRepo = user.UserRepo
type UserTokenRepo = auth.UserTokenRepo
type CandidateRepo = candidate.CandidateRepo
type DictionaryEntryRepo = dictionary.EntryRepo
type ProgramRepo = program.ProgramRepo
type ExpertiseRepo = expertise.ExpertiseRepo
type RecommendationRepo = recommendation.RecommendationRepo

type UserListFilter = user.ListFilter
type CandidateListFilter = candidate.ListFilter
type ProgramListFilter = program.ListFilter
type ExpertiseListFilter = expertise.ListFilter
type RecommendationListFilter = recommendation.ListFilter

func NewUserRepo(db *gorm.DB, log *logger.Logger) UserRepo { return user.NewUserRepo(db, log) }
func NewUserTokenRepo(db *gorm.DB, log *logger.Logger) UserTokenRepo {
	return auth.NewUserTokenRepo(db, log)
}
func NewCandidateRepo(db *gorm.DB, log *logger.Logger) CandidateRepo {
	return candidate.NewCandidateRepo(db, log)
}
func NewDictionaryEntryRepo(db *gorm.DB, log *logger.Logger) DictionaryEntryRepo {
	return dictionary.NewEntryRepo(db, log)
}
func NewProgramRepo(db *gorm.DB, log *logger.Logger) ProgramRepo {
	return program.NewProgramRepo(db, log)
}
func NewExpertiseRepo(db *gorm.DB, log *logger.Logger) ExpertiseRepo {
	return expertise.NewExpertiseRepo(db, log)
}
func NewRecommendationRepo(db *gorm.DB, log *logger.Logger) RecommendationRepo {
	return recommendation.NewRecommendationRepo(db, log)
}
