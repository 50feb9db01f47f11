package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	types "github.com/dpp-pk/constructor-backend/internal/domain"
	httpH "github.com/dpp-pk/constructor-backend/internal/http/handlers"
	httpMW "github.com/dpp-pk/constructor-backend/internal/http/middleware"
	"github.com/dpp-pk/constructor-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	ServiceName    string
	AllowedOrigins []string

	AuthHandler    *httpH.AuthHandler
	AuthMiddleware *httpMW.AuthMiddleware

	UserHandler           *httpH.UserHandler
	CandidateHandler      *httpH.CandidateHandler
	ProgramHandler        *httpH.ProgramHandler
	WizardHandler         *httpH.WizardHandler
	ExpertiseHandler      *httpH.ExpertiseHandler
	DictionaryHandler     *httpH.DictionaryHandler
	RecommendationHandler *httpH.RecommendationHandler

	HealthHandler *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(httpMW.Recover(cfg.Log))
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.CORS(cfg.AllowedOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}

	api := r.Group("/api")

	// Auth (public)
	if cfg.AuthHandler != nil {
		api.POST("/auth/login", cfg.AuthHandler.Login)
		api.POST("/auth/register", cfg.AuthHandler.Register)
		api.POST("/auth/refresh", cfg.AuthHandler.Refresh)
		api.POST("/auth/logout", cfg.AuthHandler.Logout)
	}

	protected := api.Group("/")
	if cfg.AuthMiddleware != nil {
		protected.Use(cfg.AuthMiddleware.RequireAuth())
	}

	admin := protected.Group("/", httpMW.RequireRole(types.RoleAdmin))
	staff := protected.Group("/", httpMW.RequireRole(types.RoleAdmin, types.RoleExpert))
	authors := protected.Group("/", httpMW.RequireRole(types.RoleAdmin, types.RoleAuthor))
	experts := protected.Group("/", httpMW.RequireRole(types.RoleExpert))

	// Auth (protected)
	if cfg.AuthHandler != nil {
		protected.GET("/auth/me", cfg.AuthHandler.Me)
		protected.POST("/auth/change-password", cfg.AuthHandler.ChangePassword)
	}

	// Users
	if cfg.UserHandler != nil {
		admin.GET("/admin/users", cfg.UserHandler.List)
		admin.GET("/admin/users/:id", cfg.UserHandler.Get)
		admin.POST("/admin/users", cfg.UserHandler.Create)
		admin.PUT("/admin/users/:id", cfg.UserHandler.Update)
		admin.PATCH("/admin/users/:id/status", cfg.UserHandler.SetStatus)
		admin.POST("/admin/users/:id/archive", cfg.UserHandler.Archive)
		admin.POST("/admin/users/:id/unarchive", cfg.UserHandler.Unarchive)
		admin.DELETE("/admin/users/:id", cfg.UserHandler.Delete)
		admin.POST("/admin/users/:id/invitation", cfg.UserHandler.SendInvitation)
		staff.GET("/users/role/:role", cfg.UserHandler.ByRole)
	}

	// Candidates
	if cfg.CandidateHandler != nil {
		admin.GET("/candidates", cfg.CandidateHandler.List)
		admin.POST("/candidates/invite", cfg.CandidateHandler.Invite)
		admin.POST("/candidates/invite/bulk", cfg.CandidateHandler.InviteBulk)
		admin.POST("/candidates/:id/approve", cfg.CandidateHandler.Approve)
		admin.POST("/candidates/:id/reject", cfg.CandidateHandler.Reject)
		admin.DELETE("/candidates/:id", cfg.CandidateHandler.Delete)
	}

	// Programs and their documents
	if cfg.ProgramHandler != nil {
		protected.GET("/programs", cfg.ProgramHandler.List)
		staff.GET("/programs/statistics", cfg.ProgramHandler.Statistics)
		authors.GET("/programs/co-authors", cfg.ProgramHandler.CoAuthors)
		protected.GET("/programs/:id", cfg.ProgramHandler.Get)
		authors.POST("/programs", cfg.ProgramHandler.Create)
		authors.PUT("/programs/:id", cfg.ProgramHandler.Update)
		authors.POST("/programs/:id/submit", cfg.ProgramHandler.Submit)
		authors.POST("/programs/:id/resubmit", cfg.ProgramHandler.Resubmit)
		authors.POST("/programs/:id/archive", cfg.ProgramHandler.Archive)
		authors.POST("/programs/:id/unarchive", cfg.ProgramHandler.Unarchive)
		protected.GET("/programs/:id/versions", cfg.ProgramHandler.Versions)
		protected.GET("/programs/:id/can-edit", cfg.ProgramHandler.CanEdit)
		protected.GET("/programs/:id/document.pdf", cfg.ProgramHandler.PDF)
		protected.GET("/programs/:id/document/pages", cfg.ProgramHandler.Pages)
		protected.GET("/programs/:id/document/pages/:n/preview.png", cfg.ProgramHandler.PagePreview)
		protected.POST("/documents/render", cfg.ProgramHandler.Render)
	}

	// Wizard
	if cfg.WizardHandler != nil {
		authors.POST("/wizard", cfg.WizardHandler.Start)
		authors.GET("/wizard/:id", cfg.WizardHandler.Get)
		authors.PATCH("/wizard/:id", cfg.WizardHandler.Patch)
		authors.POST("/wizard/:id/next", cfg.WizardHandler.Next)
		authors.POST("/wizard/:id/back", cfg.WizardHandler.Back)
		authors.GET("/wizard/:id/preview.pdf", cfg.WizardHandler.Preview)
		authors.POST("/wizard/:id/finish", cfg.WizardHandler.Finish)
	}

	// Expertise
	if cfg.ExpertiseHandler != nil {
		admin.GET("/expertises", cfg.ExpertiseHandler.List)
		experts.GET("/expertises/mine", cfg.ExpertiseHandler.Mine)
		staff.GET("/expertises/statistics", cfg.ExpertiseHandler.Statistics)
		protected.GET("/expertises/criteria", cfg.ExpertiseHandler.Criteria)
		staff.GET("/expertises/:id", cfg.ExpertiseHandler.Get)
		admin.POST("/expertises", cfg.ExpertiseHandler.Create)
		experts.PUT("/expertises/:id", cfg.ExpertiseHandler.Update)
		experts.POST("/expertises/:id/submit", cfg.ExpertiseHandler.Submit)
		admin.POST("/programs/:id/assign-expert", cfg.ExpertiseHandler.AssignToProgram)
		admin.POST("/expertises/:id/replace-expert", cfg.ExpertiseHandler.ReplaceExpert)
		staff.POST("/expertises/:id/send-for-revision", cfg.ExpertiseHandler.SendForRevision)
	}

	// Dictionaries
	if cfg.DictionaryHandler != nil {
		protected.GET("/dictionaries", cfg.DictionaryHandler.List)
		protected.GET("/dictionaries/type/:type", cfg.DictionaryHandler.ByType)
		protected.GET("/dictionaries/search", cfg.DictionaryHandler.Search)
		admin.POST("/dictionaries", cfg.DictionaryHandler.Create)
		admin.PUT("/dictionaries/:id", cfg.DictionaryHandler.Update)
		admin.DELETE("/dictionaries/:id", cfg.DictionaryHandler.Delete)
		admin.GET("/admin/dictionaries/export", cfg.DictionaryHandler.Export)
		admin.POST("/admin/dictionaries/import", cfg.DictionaryHandler.Import)
	}

	// Recommendations
	if cfg.RecommendationHandler != nil {
		admin.GET("/recommendations", cfg.RecommendationHandler.List)
		protected.GET("/recommendations/mine", cfg.RecommendationHandler.Mine)
		protected.GET("/recommendations/program/:id", cfg.RecommendationHandler.ByProgram)
		staff.POST("/recommendations", cfg.RecommendationHandler.Create)
		staff.PUT("/recommendations/:id", cfg.RecommendationHandler.Update)
		protected.POST("/recommendations/:id/respond", cfg.RecommendationHandler.Respond)
		protected.POST("/recommendations/:id/feedback", cfg.RecommendationHandler.Feedback)
		protected.POST("/recommendations/:id/archive", cfg.RecommendationHandler.Archive)
		staff.DELETE("/recommendations/:id", cfg.RecommendationHandler.Delete)
	}

	return r
}
