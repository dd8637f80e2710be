package common

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// correlationIDKey matches the key the correlation middleware stores under.
const correlationIDKey = "correlation_id"

// Response is the JSON envelope returned by the local callback server
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorInfo  `json:"error,omitempty"`
}

// ErrorInfo describes a failed request
type ErrorInfo struct {
	Code          int    `json:"code"`
	Message       string `json:"message"`
	Retryable     bool   `json:"retryable,omitempty"`
	CorrelationID string `json:"correlation_id,omitempty"`
}

// SuccessResponse writes a 200 envelope
func SuccessResponse(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{Success: true, Data: data})
}

// ErrorResponse writes an error envelope with the given status
func ErrorResponse(c *gin.Context, statusCode int, message string) {
	ErrorResponseWithID(c, statusCode, message, c.GetString(correlationIDKey))
}

// ErrorResponseWithID is ErrorResponse with an explicit correlation id.
func ErrorResponseWithID(c *gin.Context, statusCode int, message, correlationID string) {
	c.JSON(statusCode, Response{
		Success: false,
		Error:   &ErrorInfo{Code: statusCode, Message: message, CorrelationID: correlationID},
	})
}

// AppErrorResponse writes err using its AppError code when available. Other
// errors are reported as a generic 500 so internals never reach the browser.
func AppErrorResponse(c *gin.Context, err error) {
	appErr, ok := AsAppError(err)
	if !ok {
		appErr = NewInternalError(UserMessage(err), err)
	}
	c.JSON(appErr.Code, Response{
		Success: false,
		Error: &ErrorInfo{
			Code:          appErr.Code,
			Message:       appErr.Message,
			Retryable:     appErr.Retryable(),
			CorrelationID: c.GetString(correlationIDKey),
		},
	})
}
