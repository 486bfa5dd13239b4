package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/hireside/marketplace-api/pkg/errors"
)

type Response struct {
	Status  string      `json:"status"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
	Field   string      `json:"field,omitempty"`
}

func NewSuccessResponse(data interface{}) Response {
	return Response{Status: "success", Data: data}
}

func NewErrorResponse(message string) Response {
	return Response{Status: "error", Message: message}
}

// RespondError maps an application error to an HTTP response. Unknown
// errors become opaque 500s; the handler logs the cause separately.
func RespondError(c *gin.Context, err error) {
	var appErr *apperrors.Error
	if !apperrors.AsError(err, &appErr) {
		c.JSON(http.StatusInternalServerError, NewErrorResponse("internal server error"))
		return
	}

	resp := Response{Status: "error", Message: appErr.Message, Field: appErr.Field}
	c.JSON(statusFor(appErr.Kind), resp)
}

func statusFor(kind apperrors.Kind) int {
	switch kind {
	case apperrors.KindValidation:
		return http.StatusBadRequest
	case apperrors.KindNotFound:
		return http.StatusNotFound
	case apperrors.KindNotOwner:
		return http.StatusForbidden
	case apperrors.KindDuplicateOffer, apperrors.KindConflict:
		return http.StatusConflict
	case apperrors.KindIllegalTransition, apperrors.KindTerminalState,
		apperrors.KindTooEarly, apperrors.KindNotEditable:
		return http.StatusUnprocessableEntity
	case apperrors.KindInvalidPayload:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
