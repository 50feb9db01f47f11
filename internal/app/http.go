package app

import (
	"github.com/gin-gonic/gin"

	"github.com/dpp-pk/constructor-backend/internal/http"
	"github.com/dpp-pk/constructor-backend/internal/platform/logger"
)

const serviceName = "dpp-constructor"

func wireRouter(log *logger.Logger, cfg Config, handlers Handlers, middleware Middleware) *gin.Engine {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	return http.NewRouter(http.RouterConfig{
		Log:            log,
		ServiceName:    serviceName,
		AllowedOrigins: cfg.AllowedOrigins,

		AuthHandler:    handlers.Auth,
		AuthMiddleware: middleware.Auth,

		UserHandler:           handlers.User,
		CandidateHandler:      handlers.Candidate,
		ProgramHandler:        handlers.Program,
		WizardHandler:         handlers.Wizard,
		ExpertiseHandler:      handlers.Expertise,
		DictionaryHandler:     handlers.Dictionary,
		RecommendationHandler: handlers.Recommendation,

		HealthHandler: handlers.Health,
	})
}
