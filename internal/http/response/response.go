package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/skillsdna-backend/internal/platform/apierr"
	"github.com/yungbote/skillsdna-backend/internal/platform/ctxutil"
	"github.com/yungbote/skillsdna-backend/internal/platform/logger"
)

const internalMessage = "internal server error"

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.AbortWithStatusJSON(status, APIError{Message: msg, Code: code})
}

// RespondAPIError writes an *apierr.Error as-is. Anything else becomes a generic 500
// and the real error is only logged.
func RespondAPIError(c *gin.Context, log *logger.Logger, err error) {
	if ae, ok := apierr.As(err); ok && ae.Status > 0 && ae.Status < http.StatusInternalServerError {
		RespondError(c, ae.Status, ae.Code, ae)
		return
	}
	if log != nil {
		fields := []interface{}{"method", c.Request.Method, "path", c.FullPath(), "error", err}
		if td := ctxutil.GetTraceData(c.Request.Context()); td != nil {
			fields = append(fields, "trace_id", td.TraceID, "request_id", td.RequestID)
		}
		log.Error("request failed", fields...)
	}
	code := "internal_error"
	if ae, ok := apierr.As(err); ok && ae.Code != "" {
		code = ae.Code
	}
	c.AbortWithStatusJSON(http.StatusInternalServerError, APIError{Message: internalMessage, Code: code})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

func RespondCreated(c *gin.Context, payload any) {
	c.JSON(http.StatusCreated, payload)
}
