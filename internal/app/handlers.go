package app

import (
	"context"

	httpH "github.com/dpp-pk/constructor-backend/internal/http/handlers"
	httpMW "github.com/dpp-pk/constructor-backend/internal/http/middleware"
	"github.com/dpp-pk/constructor-backend/internal/platform/logger"
)

type Middleware struct {
	Auth *httpMW.AuthMiddleware
}

type Handlers struct {
	Health         *httpH.HealthHandler
	Auth           *httpH.AuthHandler
	User           *httpH.UserHandler
	Candidate      *httpH.CandidateHandler
	Program        *httpH.ProgramHandler
	Wizard         *httpH.WizardHandler
	Expertise      *httpH.ExpertiseHandler
	Dictionary     *httpH.DictionaryHandler
	Recommendation *httpH.RecommendationHandler
}

func wireHandlers(log *logger.Logger, cfg Config, services Services, clients Clients) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:         httpH.NewHealthHandler(databasePinger(clients)),
		Auth:           httpH.NewAuthHandler(services.Auth, cfg.SecureCookies),
		User:           httpH.NewUserHandler(services.User),
		Candidate:      httpH.NewCandidateHandler(services.Candidate),
		Program:        httpH.NewProgramHandler(services.Program, services.Document),
		Wizard:         httpH.NewWizardHandler(services.Wizard),
		Expertise:      httpH.NewExpertiseHandler(services.Expertise),
		Dictionary:     httpH.NewDictionaryHandler(services.Dictionary),
		Recommendation: httpH.NewRecommendationHandler(services.Recommendation),
	}
}

func wireMiddleware(log *logger.Logger, services Services) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{
		Auth: httpMW.NewAuthMiddleware(log, services.Auth),
	}
}

func databasePinger(clients Clients) httpH.Pinger {
	db := clients.DB
	if db == nil {
		return nil
	}
	return func(ctx context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	}
}
