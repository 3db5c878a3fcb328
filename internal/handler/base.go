package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	apperrors "github.com/MazadiaS/ai-crm-messaging-system/pkg/errors"
)

// WriteError maps a service error to its HTTP status and writes the standard
// error envelope.
func WriteError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		status = appErr.StatusCode()
	}
	c.JSON(status, NewErrorResponse(err.Error()))
}

// ParseIDParam parses the :id path parameter, writing a 400 on failure.
func ParseIDParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse("invalid ID"))
		return uuid.Nil, false
	}
	return id, true
}
