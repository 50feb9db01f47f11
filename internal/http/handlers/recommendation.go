package handlers

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	types "github.com/dpp-pk/constructor-backend/internal/domain"
	"github.com/dpp-pk/constructor-backend/internal/http/response"
	"github.com/dpp-pk/constructor-backend/internal/services"
)

type RecommendationHandler struct {
	recommendationService services.RecommendationService
}

func NewRecommendationHandler(recommendationService services.RecommendationService) *RecommendationHandler {
	return &RecommendationHandler{recommendationService: recommendationService}
}

func (rh *RecommendationHandler) list(c *gin.Context, fn func(context.Context, services.RecommendationListInput) ([]*types.Recommendation, int64, error)) {
	page := pageQuery(c)
	in := services.RecommendationListInput{
		Statuses: csvQuery(c, "status"),
		Sent:     c.Query("sent") == "true",
		Page:     page.Page,
		Limit:    page.Limit,
	}
	items, total, err := fn(c.Request.Context(), in)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondPage(c, items, total, page.Page, page.Limit)
}

func (rh *RecommendationHandler) List(c *gin.Context) { rh.list(c, rh.recommendationService.List) }
func (rh *RecommendationHandler) Mine(c *gin.Context) { rh.list(c, rh.recommendationService.Mine) }

func (rh *RecommendationHandler) ByProgram(c *gin.Context) {
	withID(c, rh.recommendationService.ByProgram)
}

func (rh *RecommendationHandler) Create(c *gin.Context) {
	var req services.RecommendationInput
	if err := bindJSON(c, &req); err != nil {
		response.RespondErr(c, err)
		return
	}
	rec, err := rh.recommendationService.Create(c.Request.Context(), req)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondCreated(c, rec)
}

func (rh *RecommendationHandler) Update(c *gin.Context) {
	var req services.RecommendationInput
	if err := bindJSON(c, &req); err != nil {
		response.RespondErr(c, err)
		return
	}
	withID(c, func(ctx context.Context, id uuid.UUID) (*types.Recommendation, error) {
		return rh.recommendationService.Update(ctx, id, req)
	})
}

func (rh *RecommendationHandler) Respond(c *gin.Context) {
	var req struct {
		Response string `json:"response"`
	}
	if err := bindJSON(c, &req); err != nil {
		response.RespondErr(c, err)
		return
	}
	withID(c, func(ctx context.Context, id uuid.UUID) (*types.Recommendation, error) {
		return rh.recommendationService.Respond(ctx, id, req.Response)
	})
}

func (rh *RecommendationHandler) Feedback(c *gin.Context) {
	var req services.FeedbackInput
	if err := bindJSON(c, &req); err != nil {
		response.RespondErr(c, err)
		return
	}
	withID(c, func(ctx context.Context, id uuid.UUID) (*types.Recommendation, error) {
		return rh.recommendationService.Feedback(ctx, id, req)
	})
}

func (rh *RecommendationHandler) Archive(c *gin.Context) { withID(c, rh.recommendationService.Archive) }

func (rh *RecommendationHandler) Delete(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	if err := rh.recommendationService.Delete(c.Request.Context(), id); err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondNoContent(c)
}
