package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/dpp-pk/constructor-backend/internal/data/repos/listing"
	"github.com/dpp-pk/constructor-backend/internal/http/response"
	"github.com/dpp-pk/constructor-backend/internal/platform/apierr"
)

func pathID(c *gin.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, apierr.Invalid("invalid_id", "invalid "+name)
	}
	return id, nil
}

func pageQuery(c *gin.Context) listing.Page {
	p := listing.Page{}
	p.Page, _ = strconv.Atoi(c.Query("page"))
	p.Limit, _ = strconv.Atoi(c.Query("limit"))
	return p.Normalize()
}

// csvQuery splits "a,b" and repeated parameters into one list.
func csvQuery(c *gin.Context, name string) []string {
	var out []string
	for _, v := range c.QueryArray(name) {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func bindJSON(c *gin.Context, dst any) error {
	if err := c.ShouldBindJSON(dst); err != nil {
		return apierr.Invalid("invalid_request", err.Error())
	}
	return nil
}

// withID runs fn for the :id path parameter and writes its result as JSON.
func withID[T any](c *gin.Context, fn func(ctx context.Context, id uuid.UUID) (T, error)) {
	id, err := pathID(c, "id")
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	out, err := fn(c.Request.Context(), id)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, out)
}

func sendBytes(c *gin.Context, contentType, filename string, data []byte) {
	if filename != "" {
		c.Header("Content-Disposition", fmt.Sprintf("inline; filename=%q", filename))
	}
	c.Header("Cache-Control", "private, max-age=60")
	c.Data(http.StatusOK, contentType, data)
}

func errInvalidQuery(name string) error {
	return apierr.Invalid("invalid_query", "invalid query parameter "+name)
}

func optionalUUIDQuery(c *gin.Context, name string) (*uuid.UUID, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, errInvalidQuery(name)
	}
	return &id, nil
}
