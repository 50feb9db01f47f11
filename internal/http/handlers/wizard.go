package handlers

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/dpp-pk/constructor-backend/internal/http/response"
	"github.com/dpp-pk/constructor-backend/internal/services"
	"github.com/dpp-pk/constructor-backend/internal/wizard"
)

type WizardHandler struct {
	wizardService services.WizardService
}

func NewWizardHandler(wizardService services.WizardService) *WizardHandler {
	return &WizardHandler{wizardService: wizardService}
}

func (wh *WizardHandler) Start(c *gin.Context) {
	var req struct {
		ProgramID *uuid.UUID `json:"program_id"`
	}
	if c.Request.ContentLength != 0 {
		if err := bindJSON(c, &req); err != nil {
			response.RespondErr(c, err)
			return
		}
	}
	sess, err := wh.wizardService.Start(c.Request.Context(), req.ProgramID)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondCreated(c, sess)
}

func (wh *WizardHandler) Get(c *gin.Context)  { withID(c, wh.wizardService.Get) }
func (wh *WizardHandler) Next(c *gin.Context) { withID(c, wh.wizardService.Next) }
func (wh *WizardHandler) Back(c *gin.Context) { withID(c, wh.wizardService.Back) }

func (wh *WizardHandler) Patch(c *gin.Context) {
	var patch wizard.Patch
	if err := bindJSON(c, &patch); err != nil {
		response.RespondErr(c, err)
		return
	}
	withID(c, func(ctx context.Context, id uuid.UUID) (*services.WizardSession, error) {
		return wh.wizardService.Update(ctx, id, patch)
	})
}

func (wh *WizardHandler) Preview(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	data, err := wh.wizardService.Preview(c.Request.Context(), id)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	sendBytes(c, "application/pdf", "preview.pdf", data)
}

func (wh *WizardHandler) Finish(c *gin.Context) {
	withID(c, func(ctx context.Context, id uuid.UUID) (gin.H, error) {
		sess, prog, err := wh.wizardService.Finish(ctx, id)
		if err != nil {
			return nil, err
		}
		return gin.H{"session": sess, "program": prog}, nil
	})
}
