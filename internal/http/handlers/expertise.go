package handlers

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/dpp-pk/constructor-backend/internal/http/response"
	"github.com/dpp-pk/constructor-backend/internal/services"
	types "github.com/dpp-pk/constructor-backend/internal/domain"
)

type ExpertiseHandler struct {
	expertiseService services.ExpertiseService
}

func NewExpertiseHandler(expertiseService services.ExpertiseService) *ExpertiseHandler {
	return &ExpertiseHandler{expertiseService: expertiseService}
}

func (eh *ExpertiseHandler) listInput(c *gin.Context) (services.ExpertiseListInput, error) {
	page := pageQuery(c)
	in := services.ExpertiseListInput{Statuses: csvQuery(c, "status"), Page: page.Page, Limit: page.Limit}
	id, err := optionalUUIDQuery(c, "program_id")
	in.ProgramID = id
	return in, err
}

func (eh *ExpertiseHandler) list(c *gin.Context, fn func(context.Context, services.ExpertiseListInput) ([]*types.Expertise, int64, error)) {
	in, err := eh.listInput(c)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	items, total, err := fn(c.Request.Context(), in)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondPage(c, items, total, in.Page, in.Limit)
}

func (eh *ExpertiseHandler) List(c *gin.Context) { eh.list(c, eh.expertiseService.List) }
func (eh *ExpertiseHandler) Mine(c *gin.Context) { eh.list(c, eh.expertiseService.Mine) }
func (eh *ExpertiseHandler) Get(c *gin.Context)  { withID(c, eh.expertiseService.Get) }

func (eh *ExpertiseHandler) Create(c *gin.Context) {
	var req services.AssignInput
	if err := bindJSON(c, &req); err != nil {
		response.RespondErr(c, err)
		return
	}
	exp, err := eh.expertiseService.Assign(c.Request.Context(), req)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondCreated(c, exp)
}

// AssignToProgram handles POST /programs/:id/assign-expert.
func (eh *ExpertiseHandler) AssignToProgram(c *gin.Context) {
	programID, err := pathID(c, "id")
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	var req struct {
		ExpertID uuid.UUID `json:"expert_id"`
	}
	if err := bindJSON(c, &req); err != nil {
		response.RespondErr(c, err)
		return
	}
	exp, err := eh.expertiseService.Assign(c.Request.Context(), services.AssignInput{ProgramID: programID, ExpertID: req.ExpertID})
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondCreated(c, exp)
}

func (eh *ExpertiseHandler) form(c *gin.Context, fn func(context.Context, uuid.UUID, services.ExpertiseInput) (*types.Expertise, error)) {
	var req services.ExpertiseInput
	if err := bindJSON(c, &req); err != nil {
		response.RespondErr(c, err)
		return
	}
	withID(c, func(ctx context.Context, id uuid.UUID) (*types.Expertise, error) {
		return fn(ctx, id, req)
	})
}

func (eh *ExpertiseHandler) Update(c *gin.Context) { eh.form(c, eh.expertiseService.Update) }
func (eh *ExpertiseHandler) Submit(c *gin.Context) { eh.form(c, eh.expertiseService.Submit) }

func (eh *ExpertiseHandler) ReplaceExpert(c *gin.Context) {
	var req struct {
		ExpertID uuid.UUID `json:"expert_id"`
	}
	if err := bindJSON(c, &req); err != nil {
		response.RespondErr(c, err)
		return
	}
	withID(c, func(ctx context.Context, id uuid.UUID) (*types.Expertise, error) {
		return eh.expertiseService.ReplaceExpert(ctx, id, req.ExpertID)
	})
}

func (eh *ExpertiseHandler) SendForRevision(c *gin.Context) {
	var req struct {
		Comments string `json:"comments"`
	}
	if err := bindJSON(c, &req); err != nil {
		response.RespondErr(c, err)
		return
	}
	withID(c, func(ctx context.Context, id uuid.UUID) (*types.Expertise, error) {
		return eh.expertiseService.SendForRevision(ctx, id, req.Comments)
	})
}

func (eh *ExpertiseHandler) Statistics(c *gin.Context) {
	stats, err := eh.expertiseService.Statistics(c.Request.Context())
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, stats)
}

func (eh *ExpertiseHandler) Criteria(c *gin.Context) {
	response.RespondOK(c, eh.expertiseService.Criteria())
}
