package handlers

import (
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/finlens/macrobeta-go/internal/models"
	"github.com/finlens/macrobeta-go/internal/services"
)

type UploadHandler struct {
	uploads *services.UploadService
	levers  services.LeverSource
	logger  *logrus.Logger
}

func NewUploadHandler(uploads *services.UploadService, levers services.LeverSource, logger *logrus.Logger) *UploadHandler {
	return &UploadHandler{
		uploads: uploads,
		levers:  levers,
		logger:  logger,
	}
}

// Upload handles POST /api/v1/upload, returning the shape of the uploaded
// CSV without interpreting it.
func (h *UploadHandler) Upload(c *gin.Context) {
	file, ok := h.openUpload(c)
	if !ok {
		return
	}
	defer func() {
		_ = file.Close()
	}()

	summary, err := h.uploads.Summarize(file)
	if err != nil {
		h.logger.WithError(err).Warn("CSV summary failed")
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

// Preview handles POST /api/v1/upload/preview, returning the first rows
// with a derived Profit column.
func (h *UploadHandler) Preview(c *gin.Context) {
	file, ok := h.openUpload(c)
	if !ok {
		return
	}
	defer func() {
		_ = file.Close()
	}()

	records, err := h.uploads.Preview(file)
	if err != nil {
		h.logger.WithError(err).Warn("CSV preview failed")
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, records)
}

// Analyze handles POST /api/v1/upload/analyze. Levers come either from
// the auto fetcher (use_auto=true) or from required form fields.
func (h *UploadHandler) Analyze(c *gin.Context) {
	useAuto, err := strconv.ParseBool(c.DefaultQuery("use_auto", "false"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "use_auto must be a boolean"})
		return
	}

	var levers models.Levers
	if useAuto {
		levers = h.levers.Auto(c.Request.Context())
	} else {
		levers, err = leversFromForm(c)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	file, ok := h.openUpload(c)
	if !ok {
		return
	}
	defer func() {
		_ = file.Close()
	}()

	analysis, err := h.uploads.Analyze(file, levers)
	if err != nil {
		h.logger.WithError(err).Warn("CSV analysis failed")
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, analysis)
}

// openUpload fetches the multipart file field, writing the 400 response
// itself when the field is missing or unreadable.
func (h *UploadHandler) openUpload(c *gin.Context) (multipart.File, bool) {
	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file field is required"})
		return nil, false
	}

	file, err := header.Open()
	if err != nil {
		h.logger.WithError(err).Warn("Failed to open uploaded file")
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to open uploaded file"})
		return nil, false
	}

	return file, true
}

func leversFromForm(c *gin.Context) (models.Levers, error) {
	var levers models.Levers

	fields := []struct {
		name string
		dst  *float64
	}{
		{"interest_rate", &levers.InterestRate},
		{"fx_rate", &levers.FxRate},
		{"inflation", &levers.Inflation},
		{"wage_growth", &levers.WageGrowth},
	}

	for _, field := range fields {
		raw, ok := c.GetPostForm(field.name)
		if !ok || raw == "" {
			return levers, fmt.Errorf("all lever parameters are required when use_auto=false")
		}
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return levers, fmt.Errorf("%s must be a number", field.name)
		}
		*field.dst = value
	}

	return levers, nil
}
