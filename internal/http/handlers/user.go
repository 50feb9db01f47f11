package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/dpp-pk/constructor-backend/internal/data/repos"
	types "github.com/dpp-pk/constructor-backend/internal/domain"
	"github.com/dpp-pk/constructor-backend/internal/http/response"
	"github.com/dpp-pk/constructor-backend/internal/services"
)

type UserHandler struct {
	userService services.UserService
}

func NewUserHandler(userService services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

func (uh *UserHandler) List(c *gin.Context) {
	page := pageQuery(c)
	filter := repos.UserListFilter{
		Role:   c.Query("role"),
		Status: c.Query("status"),
		Search: c.Query("search"),
		Sort:   c.Query("sort"),
		Order:  c.Query("order"),
		Page:   page,
	}
	users, total, err := uh.userService.List(c.Request.Context(), filter)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondPage(c, users, total, page.Page, page.Limit)
}

func (uh *UserHandler) Get(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	user, err := uh.userService.Get(c.Request.Context(), id)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, user)
}

func (uh *UserHandler) Create(c *gin.Context) {
	var req services.CreateUserInput
	if err := bindJSON(c, &req); err != nil {
		response.RespondErr(c, err)
		return
	}
	created, err := uh.userService.Create(c.Request.Context(), req)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondCreated(c, created)
}

func (uh *UserHandler) Update(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	var req services.UpdateUserInput
	if err := bindJSON(c, &req); err != nil {
		response.RespondErr(c, err)
		return
	}
	user, err := uh.userService.Update(c.Request.Context(), id, req)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, user)
}

func (uh *UserHandler) SetStatus(c *gin.Context) {
	var req struct {
		Status string `json:"status"`
	}
	if err := bindJSON(c, &req); err != nil {
		response.RespondErr(c, err)
		return
	}
	uh.setStatus(c, req.Status)
}

func (uh *UserHandler) Archive(c *gin.Context)   { uh.setStatus(c, types.UserStatusArchived) }
func (uh *UserHandler) Unarchive(c *gin.Context) { uh.setStatus(c, types.UserStatusActive) }

func (uh *UserHandler) setStatus(c *gin.Context, status string) {
	id, err := pathID(c, "id")
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	user, err := uh.userService.SetStatus(c.Request.Context(), id, status)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, user)
}

func (uh *UserHandler) Delete(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	if err := uh.userService.Delete(c.Request.Context(), id); err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondNoContent(c)
}

func (uh *UserHandler) SendInvitation(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	if err := uh.userService.SendInvitation(c.Request.Context(), id); err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

// ByRole lists active users of one role, e.g. experts for assignment.
func (uh *UserHandler) ByRole(c *gin.Context) {
	users, err := uh.userService.ListByRole(c.Request.Context(), c.Param("role"))
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, users)
}
