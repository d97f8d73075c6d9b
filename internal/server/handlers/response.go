package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"referral_wallet/internal/apperr"
)

func init() {
	// amounts go over the wire as JSON numbers
	decimal.MarshalJSONWithoutQuotes = true
}

var ErrBadRequest = apperr.New(apperr.KindInvalidArgument, "VALIDATION_FAILED", "Invalid request body")

func respond(c *gin.Context, status int, data any) {
	c.JSON(status, gin.H{
		"success": true,
		"data":    data,
	})
}

// StatusFor maps an error kind to its HTTP status.
func StatusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindInvalidArgument:
		return http.StatusBadRequest
	case apperr.KindUnauthorized:
		return http.StatusUnauthorized
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// RespondError writes the error envelope. Internal errors are logged and
// reported with a generic message.
func RespondError(c *gin.Context, logger zerolog.Logger, err error) {
	status := http.StatusInternalServerError
	code := string(apperr.KindInternal)
	message := "Something went wrong"

	if e, ok := apperr.As(err); ok && e.Kind != apperr.KindInternal {
		status = StatusFor(e.Kind)
		code = e.Code
		message = e.Message
	}

	ev := logger.Warn()
	if status >= http.StatusInternalServerError {
		ev = logger.Error()
	}
	ev.Err(err).
		Int("status", status).
		Str("method", c.Request.Method).
		Str("path", c.FullPath()).
		Msg("request failed")

	c.AbortWithStatusJSON(status, gin.H{
		"success": false,
		"status":  status,
		"code":    code,
		"message": message,
	})
}
