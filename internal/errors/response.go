package errors

import (
	stderrors "errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/sujalbistaa/yatube/internal/logger"
)

// ErrorResponse is the JSON body of every error reply.
type ErrorResponse struct {
	Code    ErrorCode         `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

var errorStatusMap = map[ErrorCode]int{
	ErrInternal: http.StatusInternalServerError,
	ErrDatabase: http.StatusInternalServerError,
	ErrCache:    http.StatusInternalServerError,
	ErrStorage:  http.StatusInternalServerError,

	ErrUnauthorized:       http.StatusUnauthorized,
	ErrForbidden:          http.StatusForbidden,
	ErrInvalidToken:       http.StatusUnauthorized,
	ErrInvalidCredentials: http.StatusUnauthorized,

	ErrBadRequest: http.StatusBadRequest,
	ErrValidation: http.StatusBadRequest,
	ErrNotFound:   http.StatusNotFound,
	ErrConflict:   http.StatusConflict,
	ErrSelfFollow: http.StatusBadRequest,

	ErrTooManyRequests: http.StatusTooManyRequests,
}

// StatusOf maps err to an HTTP status.
func StatusOf(err error) int {
	status, ok := errorStatusMap[CodeOf(err)]
	if !ok {
		return http.StatusInternalServerError
	}
	return status
}

// HandleError writes err as a JSON reply. Internal details are logged, not
// sent.
func HandleError(c *gin.Context, err error) {
	status := StatusOf(err)

	var appErr *AppError
	if !stderrors.As(err, &appErr) {
		appErr = Wrap(ErrInternal, "internal server error", err)
	}

	resp := ErrorResponse{
		Code:    appErr.Code,
		Message: appErr.Message,
		Fields:  appErr.Fields,
	}
	if status >= http.StatusInternalServerError {
		logger.Log.Error("request failed",
			zap.String("path", c.Request.URL.Path),
			zap.Error(err))
		resp.Message = http.StatusText(status)
	}

	_ = c.Error(err)
	c.AbortWithStatusJSON(status, resp)
}
