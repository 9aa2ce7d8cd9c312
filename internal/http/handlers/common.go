package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"marketadmin/internal/http/middleware"
	"marketadmin/internal/services"
)

const maxBody = 1 << 20

// RespondError sends the standard error payload with request_id included.
func RespondError(c *gin.Context, status int, message string) {
	respondError(c, status, "", message, "")
}

// readBody returns the raw JSON body, rejecting empty or malformed input.
func readBody(c *gin.Context) (json.RawMessage, bool) {
	if c.Request.Body == nil {
		RespondError(c, http.StatusBadRequest, "empty body")
		return nil, false
	}
	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBody))
	if err != nil || len(raw) == 0 {
		RespondError(c, http.StatusBadRequest, "empty body")
		return nil, false
	}
	if !json.Valid(raw) {
		RespondError(c, http.StatusBadRequest, "invalid payload")
		return nil, false
	}
	return raw, true
}

// BindJSONOrError ensures body is present and parsable.
func BindJSONOrError[T any](c *gin.Context, dst *T) bool {
	raw, ok := readBody(c)
	if !ok {
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid payload")
		return false
	}
	return true
}

// request builds the service caller from the context. Auth guarantees
// the session on every screen route.
func request(c *gin.Context) services.Request {
	sess, _ := middleware.GetSession(c)
	return services.Request{ID: middleware.GetRequestID(c), Session: sess}
}
