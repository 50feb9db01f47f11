package app

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/dpp-pk/constructor-backend/internal/platform/logger"
	"github.com/dpp-pk/constructor-backend/internal/services"
)

type Services struct {
	Auth           services.AuthService
	User           services.UserService
	Candidate      services.CandidateService
	Dictionary     services.DictionaryService
	Program        services.ProgramService
	Document       services.DocumentService
	Expertise      services.ExpertiseService
	Recommendation services.RecommendationService
	Wizard         services.WizardService
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, repos Repos, clients Clients) (Services, error) {
	log.Info("Wiring services...")
	var out Services

	out.Auth = services.NewAuthService(db, log, repos.User, repos.UserToken, repos.Candidate, cfg.JWTSecretKey, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	out.User = services.NewUserService(db, log, repos.User, repos.UserToken, clients.Mailer)
	out.Candidate = services.NewCandidateService(db, log, repos.Candidate, repos.User, clients.Mailer)
	out.Dictionary = services.NewDictionaryService(db, log, repos.Dictionary)
	out.Program = services.NewProgramService(db, log, repos.Program, repos.Expertise, repos.User)

	docs, err := services.NewDocumentService(log, out.Program, clients.Cache, clients.Objects, cfg.RenderCacheTTL)
	if err != nil {
		return out, fmt.Errorf("init document service: %w", err)
	}
	out.Document = docs
	out.Expertise = services.NewExpertiseService(db, log, repos.Expertise, repos.Program, repos.User, docs)
	out.Recommendation = services.NewRecommendationService(db, log, repos.Recommendation, repos.Program)
	out.Wizard = services.NewWizardService(log, clients.Cache, out.Program, docs, cfg.WizardTTL)
	return out, nil
}
