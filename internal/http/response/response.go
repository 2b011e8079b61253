package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/civicpulse-backend/internal/platform/apierr"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

// RespondAPIError writes err using its *apierr.Error status and code.
// Anything else, and any 5xx, is reported without its internal detail.
func RespondAPIError(c *gin.Context, err error) {
	ae, ok := apierr.As(err)
	if !ok || ae.Status == 0 {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, ErrorEnvelope{
			Error: APIError{Message: "internal server error", Code: "internal_error"},
		})
		return
	}
	if ae.Status >= http.StatusInternalServerError {
		_ = c.Error(err)
		code := ae.Code
		if code == "" {
			code = "internal_error"
		}
		c.JSON(ae.Status, ErrorEnvelope{
			Error: APIError{Message: http.StatusText(ae.Status), Code: code},
		})
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
