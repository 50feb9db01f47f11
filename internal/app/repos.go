package app

import (
	"gorm.io/gorm"

	"github.com/dpp-pk/constructor-backend/internal/data/repos"
	"github.com/dpp-pk/constructor-backend/internal/platform/logger"
)

type Repos struct {
	User           repos.UserRepo
	UserToken      repos.UserTokenRepo
	Candidate      repos.CandidateRepo
	Dictionary     repos.DictionaryEntryRepo
	Program        repos.ProgramRepo
	Expertise      repos.ExpertiseRepo
	Recommendation repos.RecommendationRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		User:           repos.NewUserRepo(db, log),
		UserToken:      repos.NewUserTokenRepo(db, log),
		Candidate:      repos.NewCandidateRepo(db, log),
		Dictionary:     repos.NewDictionaryEntryRepo(db, log),
		Program:        repos.NewProgramRepo(db, log),
		Expertise:      repos.NewExpertiseRepo(db, log),
		Recommendation: repos.NewRecommendationRepo(db, log),
	}
}
