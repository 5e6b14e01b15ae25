package router

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/msgboard/msgboard/engine/infra/server/appstate"
	"github.com/msgboard/msgboard/pkg/logger"
)

// HeaderRequestID carries the per-request correlation id.
const HeaderRequestID = "X-Request-ID"

// Response is the JSON envelope returned by every API endpoint.
type Response struct {
	Status  int        `json:"status"`
	Message string     `json:"message"`
	Data    any        `json:"data,omitempty"`
	Error   *ErrorInfo `json:"error,omitempty"`
}

func RespondOK(c *gin.Context, message string, data any) {
	c.JSON(http.StatusOK, Response{Status: http.StatusOK, Message: message, Data: data})
}

func RespondCreated(c *gin.Context, message string, data any) {
	c.JSON(http.StatusCreated, Response{Status: http.StatusCreated, Message: message, Data: data})
}

// RespondWithError writes err as an error envelope and aborts the chain.
func RespondWithError(c *gin.Context, status int, err error) {
	var info *ErrorInfo
	var reqErr *RequestError
	var srvErr *Error
	switch {
	case errors.As(err, &reqErr):
		info = reqErr.GetErrorInfo()
	case errors.As(err, &srvErr):
		info = &ErrorInfo{Code: srvErr.Code, Message: srvErr.Message, Details: srvErr.Details}
		if info.Details == "" && srvErr.Err != nil {
			info.Details = srvErr.Err.Error()
		}
	case err != nil:
		info = &ErrorInfo{Code: codeForStatus(status), Message: err.Error()}
	default:
		info = &ErrorInfo{Code: codeForStatus(status), Message: http.StatusText(status)}
	}
	logFailure(c, status, info)
	c.AbortWithStatusJSON(status, Response{Status: status, Message: info.Message, Error: info})
}

// RespondWithServerError maps code to its HTTP status and responds.
func RespondWithServerError(c *gin.Context, code, message string, err error) {
	RespondWithError(c, getStatusCode(code), WrapServerError(code, message, err))
}

// GetAppState returns the request's application state, responding with a
// server error when it is missing.
func GetAppState(c *gin.Context) *appstate.State {
	state, err := appstate.GetState(c.Request.Context())
	if err != nil {
		RespondWithServerError(c, ErrInternalCode, ErrMsgAppStateNotInitialized, err)
		return nil
	}
	return state
}

func logFailure(c *gin.Context, status int, info *ErrorInfo) {
	log := logger.FromContext(c.Request.Context())
	route := c.FullPath()
	if route == "" {
		route = c.Request.URL.Path
	}
	fields := []any{"status", status, "code", info.Code, "route", route}
	if info.Details != "" {
		fields = append(fields, "details", info.Details)
	}
	if requestID := c.Writer.Header().Get(HeaderRequestID); requestID != "" {
		fields = append(fields, "request_id", requestID)
	}
	if status >= http.StatusInternalServerError {
		log.Error("request failed", fields...)
		return
	}
	log.Warn("request failed", fields...)
}
