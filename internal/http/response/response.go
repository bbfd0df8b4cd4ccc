package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/neurobridge-frameworks/internal/platform/apierr"
	"github.com/yungbote/neurobridge-frameworks/internal/platform/ctxutil"
)

type APIError struct {
	Message   string `json:"message"`
	Code      string `json:"code,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
		_ = c.Error(err)
	}
	body := APIError{Message: msg, Code: code, RequestID: ctxutil.RequestID(c.Request.Context())}
	c.JSON(status, ErrorEnvelope{Error: body})
}

// RespondAPIError writes an *apierr.Error, or a 500 for anything else.
func RespondAPIError(c *gin.Context, err error) {
	ae := apierr.FromImport(err)
	if ae == nil {
		RespondError(c, http.StatusInternalServerError, "internal_error", err)
		return
	}
	RespondError(c, ae.Status, ae.Code, ae.Err)
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

func RespondCreated(c *gin.Context, payload any) {
	c.JSON(http.StatusCreated, payload)
}
