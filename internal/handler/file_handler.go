package handler

import (
	"errors"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/dataprocessor/internal/model"
	"github.com/stemsi/dataprocessor/internal/response"
	"github.com/stemsi/dataprocessor/internal/service"
	"github.com/stemsi/dataprocessor/internal/validator"
)

// FileHandler handles workbook generation, conversion and file downloads.
type FileHandler struct {
	generator *service.GeneratorService
	converter *service.ConverterService
	files     *service.FileService
}

// NewFileHandler creates a new FileHandler.
func NewFileHandler(
	generator *service.GeneratorService,
	converter *service.ConverterService,
	files *service.FileService,
) *FileHandler {
	return &FileHandler{
		generator: generator,
		converter: converter,
		files:     files,
	}
}

type generateQuery struct {
	Count int `form:"count" binding:"required,min=1"`
}

// Generate godoc
// POST /api/generate?count=N
// Writes a workbook of N random students and returns its download link.
func (h *FileHandler) Generate(c *gin.Context) {
	var q generateQuery
	if fields := validator.BindQuery(c, &q); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrInvalidCount, fields)
		return
	}

	result, err := h.generator.Generate(c.Request.Context(), q.Count)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCount) {
			response.FailWithFields(c, http.StatusBadRequest, response.ErrInvalidCount,
				map[string]string{"count": err.Error()})
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.JSON(c, http.StatusOK, result)
}

// Convert godoc
// POST /api/convert
// Converts an uploaded XLSX workbook to CSV and returns its download link.
func (h *FileHandler) Convert(c *gin.Context) {
	upload, file, ok := formUpload(c, h.files.MaxUploadBytes())
	if !ok {
		return
	}
	defer file.Close()

	result, err := h.converter.Convert(c.Request.Context(), upload)
	if err != nil {
		if failUpload(c, err) {
			return
		}
		if errors.Is(err, service.ErrInvalidWorkbook) {
			response.Fail(c, http.StatusBadRequest, response.ErrInvalidWorkbook)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.JSON(c, http.StatusOK, result)
}

// Download godoc
// GET /api/download/:fileName
// Streams a generated or converted file as an attachment.
func (h *FileHandler) Download(c *gin.Context) {
	name := c.Param("fileName")

	f, info, err := h.files.Open(name)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidFileName):
			response.Fail(c, http.StatusBadRequest, response.ErrInvalidFileName)
		case errors.Is(err, service.ErrFileNotFound):
			response.Fail(c, http.StatusNotFound, response.ErrFileNotFound)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}
	defer f.Close()

	response.AttachmentFrom(c, name, model.ContentTypeFor(filepath.Ext(name)), info.Size(), f)
}
