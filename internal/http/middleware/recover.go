package middleware

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dpp-pk/constructor-backend/internal/http/response"
	"github.com/dpp-pk/constructor-backend/internal/platform/ctxutil"
	"github.com/dpp-pk/constructor-backend/internal/platform/logger"
)

// Recover turns a handler panic into a 500 envelope.
func Recover(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Error("Handler panic",
					"path", c.Request.URL.Path,
					"request_id", ctxutil.RequestID(c.Request.Context()),
					"panic", fmt.Sprint(rec),
				)
				response.RespondError(c, http.StatusInternalServerError, "internal", fmt.Errorf("internal server error"))
			}
		}()
		c.Next()
	}
}
