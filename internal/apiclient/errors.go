package apiclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/dpp-pk/constructor-backend/internal/http/response"
	"github.com/dpp-pk/constructor-backend/internal/platform/apierr"
)

// ErrSessionExpired means the stored credentials were rejected and could not be refreshed.
var ErrSessionExpired = errors.New("apiclient: session expired, login again")

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status  int
	Code    string
	Message string
	Fields  []apierr.FieldError
	Step    string
}

func (e *APIError) Error() string {
	if e == nil {
		return "apiclient: <nil error>"
	}
	msg := strings.TrimSpace(e.Message)
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	if e.Code != "" {
		return fmt.Sprintf("api %d %s: %s", e.Status, e.Code, msg)
	}
	return fmt.Sprintf("api %d: %s", e.Status, msg)
}

// IsStatus reports whether err is an *APIError with the given HTTP status.
func IsStatus(err error, status int) bool {
	var ae *APIError
	return errors.As(err, &ae) && ae.Status == status
}

func decodeError(status int, raw []byte) *APIError {
	out := &APIError{Status: status}
	var env response.ErrorEnvelope
	if err := json.Unmarshal(raw, &env); err == nil && env.Error.Message != "" {
		out.Code = env.Error.Code
		out.Message = env.Error.Message
		out.Fields = env.Fields
		out.Step = env.Step
		return out
	}
	msg := strings.TrimSpace(string(raw))
	if len(msg) > 500 {
		msg = msg[:500] + "..."
	}
	out.Message = msg
	return out
}
