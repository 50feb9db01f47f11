package handlers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	types "github.com/dpp-pk/constructor-backend/internal/domain"
	"github.com/dpp-pk/constructor-backend/internal/http/response"
	"github.com/dpp-pk/constructor-backend/internal/platform/apierr"
	"github.com/dpp-pk/constructor-backend/internal/services"
)

const maxImportBytes = 8 << 20

type DictionaryHandler struct {
	dictionaryService services.DictionaryService
}

func NewDictionaryHandler(dictionaryService services.DictionaryService) *DictionaryHandler {
	return &DictionaryHandler{dictionaryService: dictionaryService}
}

func (dh *DictionaryHandler) List(c *gin.Context) {
	groups, err := dh.dictionaryService.List(c.Request.Context())
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, groups)
}

func (dh *DictionaryHandler) ByType(c *gin.Context) {
	entries, err := dh.dictionaryService.ListByType(c.Request.Context(), c.Param("type"))
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, entries)
}

func (dh *DictionaryHandler) Search(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	entries, err := dh.dictionaryService.Search(c.Request.Context(), c.Query("q"), limit)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, entries)
}

func (dh *DictionaryHandler) Create(c *gin.Context) {
	var req services.DictionaryInput
	if err := bindJSON(c, &req); err != nil {
		response.RespondErr(c, err)
		return
	}
	entry, err := dh.dictionaryService.Create(c.Request.Context(), req)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondCreated(c, entry)
}

func (dh *DictionaryHandler) Update(c *gin.Context) {
	var req services.DictionaryInput
	if err := bindJSON(c, &req); err != nil {
		response.RespondErr(c, err)
		return
	}
	withID(c, func(ctx context.Context, id uuid.UUID) (*types.DictionaryEntry, error) {
		return dh.dictionaryService.Update(ctx, id, req)
	})
}

func (dh *DictionaryHandler) Delete(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	if err := dh.dictionaryService.Delete(c.Request.Context(), id); err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondNoContent(c)
}

func (dh *DictionaryHandler) Export(c *gin.Context) {
	format, err := services.ParseExportFormat(c.Query("format"))
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	data, err := dh.dictionaryService.Export(c.Request.Context(), format)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	contentType := "application/json"
	if format == services.FormatYAML {
		contentType = "application/yaml"
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "dictionaries."+string(format)))
	c.Data(http.StatusOK, contentType, data)
}

func (dh *DictionaryHandler) Import(c *gin.Context) {
	format, err := services.ParseExportFormat(c.Query("format"))
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	data, err := io.ReadAll(io.LimitReader(c.Request.Body, maxImportBytes+1))
	if err != nil {
		response.RespondErr(c, apierr.Invalid("invalid_request", "could not read body"))
		return
	}
	if len(data) > maxImportBytes {
		response.RespondErr(c, apierr.Invalid("too_large", "import body is too large"))
		return
	}
	n, err := dh.dictionaryService.Import(c.Request.Context(), format, data)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"imported": n})
}
