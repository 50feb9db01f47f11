package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/dpp-pk/constructor-backend/internal/http/response"
	"github.com/dpp-pk/constructor-backend/internal/platform/apierr"
	"github.com/dpp-pk/constructor-backend/internal/services"
)

type ProgramHandler struct {
	programService  services.ProgramService
	documentService services.DocumentService
}

func NewProgramHandler(programService services.ProgramService, documentService services.DocumentService) *ProgramHandler {
	return &ProgramHandler{programService: programService, documentService: documentService}
}

func (ph *ProgramHandler) List(c *gin.Context) {
	page := pageQuery(c)
	list, total, err := ph.programService.List(c.Request.Context(), services.ProgramListInput{
		Scope:    c.DefaultQuery("scope", services.ScopeMine),
		Statuses: csvQuery(c, "status"),
		Search:   c.Query("search"),
		Page:     page.Page,
		Limit:    page.Limit,
	})
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondPage(c, list, total, page.Page, page.Limit)
}

func (ph *ProgramHandler) Get(c *gin.Context)       { withID(c, ph.programService.Get) }
func (ph *ProgramHandler) Submit(c *gin.Context)    { withID(c, ph.programService.Submit) }
func (ph *ProgramHandler) Resubmit(c *gin.Context)  { withID(c, ph.programService.Resubmit) }
func (ph *ProgramHandler) Archive(c *gin.Context)   { withID(c, ph.programService.Archive) }
func (ph *ProgramHandler) Unarchive(c *gin.Context) { withID(c, ph.programService.Unarchive) }
func (ph *ProgramHandler) Versions(c *gin.Context)  { withID(c, ph.programService.Versions) }
func (ph *ProgramHandler) Pages(c *gin.Context)     { withID(c, ph.documentService.Pages) }

func (ph *ProgramHandler) CanEdit(c *gin.Context) {
	withID(c, func(ctx context.Context, id uuid.UUID) (gin.H, error) {
		ok, err := ph.programService.CanEdit(ctx, id)
		return gin.H{"can_edit": ok}, err
	})
}

func (ph *ProgramHandler) Statistics(c *gin.Context) {
	stats, err := ph.programService.Statistics(c.Request.Context())
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, stats)
}

func (ph *ProgramHandler) CoAuthors(c *gin.Context) {
	users, err := ph.programService.CoAuthorCandidates(c.Request.Context())
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, users)
}

// documentBody accepts either {"document": {...}} or the bare document.
func documentBody(c *gin.Context) (json.RawMessage, error) {
	var raw json.RawMessage
	if err := bindJSON(c, &raw); err != nil {
		return nil, err
	}
	var wrapped map[string]json.RawMessage
	if err := json.Unmarshal(raw, &wrapped); err == nil && len(wrapped) == 1 && len(wrapped["document"]) > 0 {
		return wrapped["document"], nil
	}
	return raw, nil
}

func (ph *ProgramHandler) Create(c *gin.Context) {
	raw, err := documentBody(c)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	doc, err := services.DecodeDocument(raw)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	p, err := ph.programService.Create(c.Request.Context(), doc)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondCreated(c, p)
}

func (ph *ProgramHandler) Update(c *gin.Context) {
	raw, err := documentBody(c)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	withID(c, func(ctx context.Context, id uuid.UUID) (any, error) {
		doc, err := services.DecodeDocument(raw)
		if err != nil {
			return nil, err
		}
		return ph.programService.Update(ctx, id, doc)
	})
}

func (ph *ProgramHandler) PDF(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	data, err := ph.documentService.PDF(c.Request.Context(), id)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	sendBytes(c, "application/pdf", fmt.Sprintf("program-%s.pdf", id), data)
}

func (ph *ProgramHandler) PagePreview(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	n, err := strconv.Atoi(c.Param("n"))
	if err != nil || n < 1 {
		response.RespondErr(c, apierr.Invalid("invalid_page", "page number must be a positive integer"))
		return
	}
	data, err := ph.documentService.PreviewPNG(c.Request.Context(), id, n)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	sendBytes(c, "image/png", "", data)
}

// Render builds a PDF of a document that has not been saved.
func (ph *ProgramHandler) Render(c *gin.Context) {
	raw, err := documentBody(c)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	doc, err := services.DecodeDocument(raw)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	data, err := ph.documentService.Render(c.Request.Context(), doc)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	sendBytes(c, "application/pdf", "preview.pdf", data)
}
