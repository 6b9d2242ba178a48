package response

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/vplayer-account/pkg/apperror"
)

type APIResponse[T any] struct {
	Status    int         `json:"status"`
	Timestamp time.Time   `json:"timestamp"`
	RequestID string      `json:"request_id"`
	Success   bool        `json:"success"`
	Message   string      `json:"message"`
	Data      T           `json:"data,omitempty"`
	Meta      interface{} `json:"meta,omitempty"`
	Error     interface{} `json:"error,omitempty"`
}

// Success writes a success envelope and returns it.
func Success[T any](ctx *gin.Context, status int, data T, message string, meta interface{}) APIResponse[T] {
	if status == 0 {
		status = http.StatusOK
	}
	resp := APIResponse[T]{
		Status:    status,
		Timestamp: time.Now(),
		RequestID: ctx.GetString("request_id"),
		Success:   true,
		Message:   message,
		Data:      data,
		Meta:      meta,
	}
	ctx.JSON(status, resp)
	return resp
}

// Error writes an error envelope and aborts the handler chain.
func Error[T any](ctx *gin.Context, status int, message string, err interface{}) APIResponse[T] {
	if status == 0 {
		status = http.StatusBadRequest
	}
	resp := APIResponse[T]{
		Status:    status,
		Timestamp: time.Now(),
		RequestID: ctx.GetString("request_id"),
		Success:   false,
		Message:   message,
		Error:     err,
	}
	ctx.AbortWithStatusJSON(status, resp)
	return resp
}

// Fail translates a service error into its HTTP response. Causes of internal
// errors are logged, never returned to the client.
func Fail(ctx *gin.Context, logger *logrus.Logger, err error) {
	ae, ok := apperror.As(err)
	if !ok {
		ae = apperror.Internal("internal server error", err)
	}
	if ae.Kind == apperror.KindInternal && logger != nil {
		logger.WithError(err).
			WithField("request_id", ctx.GetString("request_id")).
			WithField("path", ctx.FullPath()).
			Error(ae.Message)
	}
	Error[any](ctx, ae.Kind.HTTPStatus(), ae.Message, ae.Details)
}
