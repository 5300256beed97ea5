package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/stemsi/exstem-progress/internal/loader"
	"github.com/stemsi/exstem-progress/internal/response"
	"github.com/stemsi/exstem-progress/internal/service"
	"github.com/stemsi/exstem-progress/internal/source"
)

// failFromError maps service and pipeline errors onto the response envelope.
func failFromError(c *gin.Context, log zerolog.Logger, err error) {
	var ferr *loader.FormatError
	switch {
	case errors.As(err, &ferr):
		response.FailWithFields(c, http.StatusUnprocessableEntity, response.ErrMalformedSource, map[string]string{
			"source": ferr.Source,
			"line":   strconv.Itoa(ferr.Line),
			"detail": ferr.Error(),
		})
	case errors.Is(err, source.ErrSourceUnavailable):
		response.FailWithFields(c, http.StatusUnprocessableEntity, response.ErrSourceUnavailable, map[string]string{
			"detail": err.Error(),
		})
	case errors.Is(err, service.ErrDataDirOutsideRoot):
		response.FailWithFields(c, http.StatusBadRequest, response.ErrDataDirForbidden, map[string]string{
			"data_dir": err.Error(),
		})
	case errors.Is(err, service.ErrNoReport):
		response.Fail(c, http.StatusNotFound, response.ErrNoReport)
	case errors.Is(err, service.ErrStudentNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrStudentNotFound)
	case errors.Is(err, service.ErrSummaryUnavailable):
		response.Fail(c, http.StatusServiceUnavailable, response.ErrSummaryUnavailable)
	default:
		log.Error().Err(err).Str("path", c.FullPath()).Msg("Request failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}
