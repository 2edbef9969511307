package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"

	"tes/crm/internal/calendar"
	"tes/crm/internal/services"
)

// respondServiceError translates service-layer errors into HTTP responses.
// Anything unrecognized becomes a 500 with a generic message; the real
// error is attached to the gin context for the error log.
func respondServiceError(c *gin.Context, err error, notFoundMsg string) {
	var validationErr *services.ValidationError
	var transitionErr *services.TransitionError
	var duplicateErr *services.DuplicateInquiryError
	var conflictErr *services.ConflictError

	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		c.JSON(http.StatusNotFound, gin.H{"error": notFoundMsg})
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": validationErr.Error()})
	case errors.As(err, &transitionErr):
		c.JSON(http.StatusConflict, gin.H{
			"error": transitionErr.Error(),
			"from":  transitionErr.From,
			"to":    transitionErr.To,
		})
	case errors.As(err, &duplicateErr):
		c.JSON(http.StatusConflict, gin.H{
			"error":    duplicateErr.Error(),
			"existing": duplicateErr.Existing,
		})
	case errors.As(err, &conflictErr):
		c.JSON(http.StatusConflict, gin.H{
			"error":     conflictErr.Message,
			"conflicts": conflictErr.Conflicts,
		})
	case errors.Is(err, services.ErrReassignLocked):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, calendar.ErrEndNotAfterStart),
		errors.Is(err, calendar.ErrDurationTooShort),
		errors.Is(err, calendar.ErrDurationTooLong):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
