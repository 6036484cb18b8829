// Package httpx holds the JSON error envelope and small gin helpers shared by
// the storefront handlers.
package httpx

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	CodeInvalidInput = "INVALID_INPUT"
	CodeNotFound     = "NOT_FOUND"
	CodeConflict     = "CONFLICT"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeInternal     = "INTERNAL"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// Status is an HTTP status plus the error code reported to the client.
type Status struct {
	HTTP int
	Code string
}

var (
	StatusInvalid      = Status{http.StatusBadRequest, CodeInvalidInput}
	StatusUnauthorized = Status{http.StatusUnauthorized, CodeUnauthorized}
	StatusNotFound     = Status{http.StatusNotFound, CodeNotFound}
	StatusConflict     = Status{http.StatusConflict, CodeConflict}
	StatusInternal     = Status{http.StatusInternalServerError, CodeInternal}
)

func Abort(c *gin.Context, st Status, message, details string) {
	c.AbortWithStatusJSON(st.HTTP, ErrorResponse{
		Error:   st.Code,
		Message: message,
		Details: details,
	})
}

// Fail writes err using mapErr to pick the status. Internal errors are
// logged and their text is not sent to the client.
func Fail(c *gin.Context, log *slog.Logger, err error, mapErr func(error) Status) {
	st := mapErr(err)
	if st.HTTP >= http.StatusInternalServerError {
		log.Error("request failed",
			slog.String("method", c.Request.Method),
			slog.String("path", c.FullPath()),
			slog.Any("err", err),
		)
		Abort(c, st, "internal error", "")
		return
	}
	Abort(c, st, err.Error(), "")
}

// BindJSON decodes the request body into v, writing a 400 on failure.
func BindJSON(c *gin.Context, v any) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		details := err.Error()
		if errors.Is(err, io.EOF) {
			details = "empty body"
		}
		Abort(c, StatusInvalid, "invalid request body", details)
		return false
	}
	return true
}
