package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dpp-pk/constructor-backend/internal/platform/apierr"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error  APIError            `json:"error"`
	Fields []apierr.FieldError `json:"fields,omitempty"`
	// Step names the wizard step holding the first invalid field.
	Step string `json:"step,omitempty"`
}

// Page wraps one page of a list result.
type Page[T any] struct {
	Items []T   `json:"items"`
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
}

// stepError is implemented by wizard step validation errors.
type stepError interface {
	error
	StepName() string
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.AbortWithStatusJSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

// RespondErr maps a service error onto the envelope. Internal failures are logged, not echoed.
func RespondErr(c *gin.Context, err error) {
	status, code := apierr.StatusOf(err)
	env := ErrorEnvelope{Error: APIError{Message: err.Error(), Code: code}}
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
		env.Error.Message = "internal server error"
	}
	var ve *apierr.ValidationError
	if errors.As(err, &ve) {
		env.Fields = ve.Fields
	}
	var se stepError
	if errors.As(err, &se) {
		env.Step = se.StepName()
	}
	c.AbortWithStatusJSON(status, env)
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

func RespondCreated(c *gin.Context, payload any) {
	c.JSON(http.StatusCreated, payload)
}

func RespondNoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

func RespondPage[T any](c *gin.Context, items []T, total int64, page, limit int) {
	if items == nil {
		items = []T{}
	}
	c.JSON(http.StatusOK, Page[T]{Items: items, Total: total, Page: page, Limit: limit})
}
