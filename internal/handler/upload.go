package handler

import (
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/dataprocessor/internal/response"
	"github.com/stemsi/dataprocessor/internal/service"
)

// multipartOverhead is allowed on top of the upload limit for form framing.
const multipartOverhead = 1 << 20

// formUpload reads the "file" field of a multipart request. On failure it
// writes the error response and returns ok=false. The caller must close file.
func formUpload(c *gin.Context, maxBytes int64) (upload service.Upload, file multipart.File, ok bool) {
	if maxBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes+multipartOverhead)
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.Fail(c, http.StatusRequestEntityTooLarge, response.ErrFileTooLarge)
			return service.Upload{}, nil, false
		}
		response.Fail(c, http.StatusBadRequest, response.ErrFileRequired)
		return service.Upload{}, nil, false
	}

	return service.Upload{
		Name:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        file,
	}, file, true
}

// failUpload maps upload validation errors. It reports whether err was handled.
func failUpload(c *gin.Context, err error) bool {
	switch {
	case errors.Is(err, service.ErrUnsupportedFileType):
		response.Fail(c, http.StatusBadRequest, response.ErrUnsupportedFile)
	case errors.Is(err, service.ErrFileTooLarge):
		response.Fail(c, http.StatusRequestEntityTooLarge, response.ErrFileTooLarge)
	default:
		return false
	}
	return true
}
