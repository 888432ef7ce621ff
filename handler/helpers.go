package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Zephony/zephony-go/controller"
	"github.com/Zephony/zephony-go/models"
)

// Respond writes e as JSON with its own HTTP status
func Respond(c *gin.Context, e *models.Envelope) {
	c.JSON(e.HTTPStatus, e)
}

func respondError(c *gin.Context, status int, field, description string) {
	Respond(c, models.Responsify([]models.FieldError{{Field: field, Description: description}}, http.StatusText(status), status))
}

// handleControllerError maps repository and validation errors onto error
// envelopes. Returns true if a response was written.
func handleControllerError(c *gin.Context, err error) bool {
	if err == nil {
		return false
	}

	var invalid *models.InvalidRequestDataError
	switch {
	case errors.As(err, &invalid):
		if invalid.Duplicate != nil {
			zap.L().Debug("request collides with existing row", zap.Any("duplicate", invalid.Duplicate))
		}
		Respond(c, models.Responsify(invalid.Errors, "Invalid request data", http.StatusBadRequest))
	case errors.Is(err, controller.ErrNotFound):
		respondError(c, http.StatusNotFound, "data", "Resource not found")
	case errors.Is(err, controller.ErrInvalidKey):
		respondError(c, http.StatusBadRequest, "data.id", err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		respondError(c, http.StatusGatewayTimeout, "data", "Request timed out")
	default:
		zap.L().Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		respondError(c, http.StatusInternalServerError, "data", "Something went wrong")
	}
	return true
}

// resourceKey reads the :id path param as a numeric id, or as a token
// when it is not a number
func resourceKey(c *gin.Context) any {
	raw := c.Param("id")
	if id, err := strconv.ParseUint(raw, 10, 64); err == nil {
		return uint(id)
	}
	return raw
}

func detailLevel(c *gin.Context, fallback models.DetailLevel) models.DetailLevel {
	raw := c.Query("level")
	if raw == "" {
		return fallback
	}
	return models.ParseDetailLevel(strings.ToUpper(raw))
}
