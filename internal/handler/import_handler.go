package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stemsi/dataprocessor/internal/response"
	"github.com/stemsi/dataprocessor/internal/service"
	"github.com/stemsi/dataprocessor/internal/validator"
)

// ImportHandler handles CSV uploads into the database.
type ImportHandler struct {
	importService *service.ImportService
	files         *service.FileService
}

// NewImportHandler creates a new ImportHandler.
func NewImportHandler(importService *service.ImportService, files *service.FileService) *ImportHandler {
	return &ImportHandler{importService: importService, files: files}
}

type uploadQuery struct {
	Async bool `form:"async"`
}

// UploadCSV godoc
// POST /api/upload-csv[?async=true]
// Imports a converted CSV. With async=true the file is queued and 202 is returned.
func (h *ImportHandler) UploadCSV(c *gin.Context) {
	var q uploadQuery
	if fields := validator.BindQuery(c, &q); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	upload, file, ok := formUpload(c, h.files.MaxUploadBytes())
	if !ok {
		return
	}
	defer file.Close()

	ctx := c.Request.Context()
	if q.Async {
		accepted, err := h.importService.Enqueue(ctx, upload)
		if err != nil {
			h.fail(c, err)
			return
		}
		c.Header("Location", accepted.StatusLink)
		response.JSON(c, http.StatusAccepted, accepted)
		return
	}

	result, err := h.importService.Import(ctx, upload)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// GetJob godoc
// GET /api/imports/:jobId
// Returns the state of a queued import.
func (h *ImportHandler) GetJob(c *gin.Context) {
	id := c.Param("jobId")
	if _, err := uuid.Parse(id); err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrImportJobMissing)
		return
	}

	job, err := h.importService.GetJob(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrImportJobNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrImportJobMissing)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.JSON(c, http.StatusOK, job)
}

func (h *ImportHandler) fail(c *gin.Context, err error) {
	if failUpload(c, err) {
		return
	}
	switch {
	case errors.Is(err, service.ErrEmptyCSV):
		response.Fail(c, http.StatusBadRequest, response.ErrEmptyCSV)
	case errors.Is(err, service.ErrMalformedCSV):
		response.FailWithFields(c, http.StatusBadRequest, response.ErrInvalidPayload,
			map[string]string{"file": err.Error()})
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}
