// Package controller holds the HTTP helpers shared by the admin, user and
// public controller packages.
package controller

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/lshigami/Sifaka/internal/apperrors"
	"github.com/lshigami/Sifaka/internal/dto"
	"github.com/rs/zerolog/log"
)

// RespondError maps the business-error taxonomy to HTTP statuses in one
// place. Anything outside the taxonomy is a 500.
func RespondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, apperrors.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, apperrors.ErrInvalidState):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, apperrors.ErrResourceExhausted):
		status = http.StatusTooManyRequests
	case errors.Is(err, apperrors.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, apperrors.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, apperrors.ErrInvalidInput):
		status = http.StatusBadRequest
	}

	if status == http.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.FullPath()).Msg("Unhandled service error")
		c.JSON(status, dto.ErrorResponse{Error: "internal server error"})
		return
	}
	c.JSON(status, dto.ErrorResponse{Error: err.Error()})
}

// ParseUintParam reads a numeric path parameter, answering 400 itself on a
// malformed value.
func ParseUintParam(c *gin.Context, name string) (uint, bool) {
	value, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid " + name + " format"})
		return 0, false
	}
	return uint(value), true
}

// ParseUintQuery reads a required numeric query parameter.
func ParseUintQuery(c *gin.Context, name string) (uint, bool) {
	value, err := strconv.ParseUint(c.Query(name), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid or missing " + name + " query parameter"})
		return 0, false
	}
	return uint(value), true
}
