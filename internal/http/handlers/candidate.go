package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/dpp-pk/constructor-backend/internal/data/repos"
	"github.com/dpp-pk/constructor-backend/internal/http/response"
	"github.com/dpp-pk/constructor-backend/internal/services"
)

type CandidateHandler struct {
	candidateService services.CandidateService
}

func NewCandidateHandler(candidateService services.CandidateService) *CandidateHandler {
	return &CandidateHandler{candidateService: candidateService}
}

func (ch *CandidateHandler) List(c *gin.Context) {
	page := pageQuery(c)
	filter := repos.CandidateListFilter{Status: c.Query("status"), Search: c.Query("search"), Page: page}
	list, total, err := ch.candidateService.List(c.Request.Context(), filter)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondPage(c, list, total, page.Page, page.Limit)
}

func (ch *CandidateHandler) Invite(c *gin.Context) {
	var req services.InviteInput
	if err := bindJSON(c, &req); err != nil {
		response.RespondErr(c, err)
		return
	}
	cand, err := ch.candidateService.Invite(c.Request.Context(), req)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondCreated(c, cand)
}

func (ch *CandidateHandler) InviteBulk(c *gin.Context) {
	var req struct {
		Candidates []services.InviteInput `json:"candidates"`
	}
	if err := bindJSON(c, &req); err != nil {
		response.RespondErr(c, err)
		return
	}
	res, err := ch.candidateService.InviteBulk(c.Request.Context(), req.Candidates)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, res)
}

func (ch *CandidateHandler) Approve(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	created, err := ch.candidateService.Approve(c.Request.Context(), id)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, created)
}

func (ch *CandidateHandler) Reject(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	var req struct {
		Reason string `json:"reason"`
	}
	if c.Request.ContentLength != 0 {
		if err := bindJSON(c, &req); err != nil {
			response.RespondErr(c, err)
			return
		}
	}
	cand, err := ch.candidateService.Reject(c.Request.Context(), id, req.Reason)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, cand)
}

func (ch *CandidateHandler) Delete(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	if err := ch.candidateService.Delete(c.Request.Context(), id); err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondNoContent(c)
}
