package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/dataprocessor/internal/model"
	"github.com/stemsi/dataprocessor/internal/response"
	"github.com/stemsi/dataprocessor/internal/service"
	"github.com/stemsi/dataprocessor/internal/validator"
)

// ReportHandler handles the student report and its exports.
type ReportHandler struct {
	reportService *service.ReportService
	exportService *service.ExportService
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(reportService *service.ReportService, exportService *service.ExportService) *ReportHandler {
	return &ReportHandler{
		reportService: reportService,
		exportService: exportService,
	}
}

// ListStudents godoc
// GET /api/students?page=&size=&studentId=&clazz=&search=
// Returns one page of the report in the page envelope.
func (h *ReportHandler) ListStudents(c *gin.Context) {
	var q model.StudentQuery
	if fields := validator.BindQuery(c, &q); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	page, err := h.reportService.List(c.Request.Context(), q)
	if err != nil {
		if fields := pageErrorFields(err); fields != nil {
			response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.JSON(c, http.StatusOK, page)
}

// ExportStudents godoc
// GET /api/students/export?format=csv|xlsx|pdf&page=&size=&all=
// Sends the requested report rows as a file attachment.
func (h *ReportHandler) ExportStudents(c *gin.Context) {
	var q model.ExportQuery
	if fields := validator.BindQuery(c, &q); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	file, err := h.exportService.Export(c.Request.Context(), q)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUnsupportedFormat):
			response.Fail(c, http.StatusBadRequest, response.ErrInvalidFormat)
		case pageErrorFields(err) != nil:
			response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, pageErrorFields(err))
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Attachment(c, file.Name, file.ContentType, file.Body)
}

// pageErrorFields maps pagination errors to the offending query field.
func pageErrorFields(err error) map[string]string {
	switch {
	case errors.Is(err, service.ErrPageSizeTooLarge):
		return map[string]string{"size": err.Error()}
	case errors.Is(err, service.ErrPageOutOfRange):
		return map[string]string{"page": err.Error()}
	}
	return nil
}
