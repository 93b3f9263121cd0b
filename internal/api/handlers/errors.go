package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/finlens/macrobeta-go/internal/middleware"
	"github.com/finlens/macrobeta-go/internal/utils"
)

// statusForError maps the domain error taxonomy to HTTP status codes.
// Anything outside the taxonomy is an internal failure.
func statusForError(err error) int {
	var (
		validationErr   *utils.ValidationError
		kpiErr          *utils.UnknownKpiError
		seriesErr       *utils.UnknownSeriesError
		noDataErr       *utils.NoDataError
		insufficientErr *utils.InsufficientDataError
		degenerateErr   *utils.DegenerateInputError
	)

	switch {
	case errors.As(err, &validationErr), errors.As(err, &kpiErr), errors.As(err, &seriesErr):
		return http.StatusBadRequest
	case errors.As(err, &noDataErr):
		return http.StatusNotFound
	case errors.As(err, &insufficientErr), errors.As(err, &degenerateErr):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes the JSON error body for err. Domain errors carry
// their message to the client; internal failures get a generic body so
// infrastructure detail stays in the logs.
func respondError(c *gin.Context, err error) {
	status := statusForError(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		message = "Internal server error"
		middleware.RecordError(c, err, "internal error")
	}
	c.JSON(status, gin.H{"error": message})
}
