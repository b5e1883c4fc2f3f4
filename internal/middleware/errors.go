package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/guttosm/tradebridge/internal/domain/dto"
)

// ErrorHandler renders errors recorded with c.Error when the handler chain
// finished without writing a response.
func ErrorHandler(c *gin.Context) {
	c.Next()

	if len(c.Errors) == 0 || c.Writer.Written() {
		return
	}

	last := c.Errors.Last()
	status := c.Writer.Status()
	if status < http.StatusBadRequest {
		status = http.StatusInternalServerError
	}
	c.JSON(status, dto.NewErrorResponse(http.StatusText(status), last.Err).WithRequestID(GetRequestID(c)))
}

// AbortWithError records err on the context and aborts with a JSON
// ErrorResponse carrying message.
func AbortWithError(c *gin.Context, status int, message string, err error) {
	if err != nil {
		_ = c.Error(err)
	}
	c.AbortWithStatusJSON(status, dto.NewErrorResponse(message, err).WithRequestID(GetRequestID(c)))
}
