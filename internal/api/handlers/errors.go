package handlers

import (
	"errors"
	"net/http"

	"example.com/fieldwork/services/workorders/internal/repositories"
	"example.com/fieldwork/services/workorders/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// respondError maps domain errors onto HTTP status codes and a uniform
// {"message": ...} body. Validation failures on the status field also
// carry the allowed vocabulary.
func respondError(c *gin.Context, err error) {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		body := gin.H{"message": verr.Message}
		if len(verr.Allowed) > 0 {
			body["allowed"] = verr.Allowed
		}
		c.JSON(http.StatusBadRequest, body)

	case errors.Is(err, services.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid email or password."})

	case errors.Is(err, services.ErrWorkOrderNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": "Work order not found"})

	case errors.Is(err, repositories.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": "Not found"})

	case errors.Is(err, services.ErrDuplicateNumber):
		c.JSON(http.StatusConflict, gin.H{"message": "Work order number already exists"})

	case errors.Is(err, services.ErrInvalidReference):
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid store or dispatcher reference"})

	case errors.Is(err, services.ErrMissingIdentity):
		c.JSON(http.StatusBadRequest, gin.H{"message": "Session missing user identity"})

	default:
		log.Error().Err(err).Str("path", c.FullPath()).Msg("Request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Database error"})
	}
}
