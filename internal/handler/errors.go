package handler

import (
	"errors"
	"net/http"

	"marketplace/internal/service"
	"marketplace/pkg/response"

	"github.com/gin-gonic/gin"
)

// writeError maps service sentinel errors onto HTTP statuses. Anything
// unrecognized is a dependency failure and surfaces as 500.
func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, service.ErrVendorNotFound),
		errors.Is(err, service.ErrProductNotFound),
		errors.Is(err, service.ErrCategoryNotFound),
		errors.Is(err, service.ErrOrderNotFound),
		errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, service.ErrReportNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrInvalidDate),
		errors.Is(err, service.ErrInvalidDateRange),
		errors.Is(err, service.ErrInvalidEventType),
		errors.Is(err, service.ErrInvalidRating),
		errors.Is(err, service.ErrInvalidStatus):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, service.ErrInvalidCredential):
		status = http.StatusUnauthorized
	case errors.Is(err, service.ErrEmailTaken),
		errors.Is(err, service.ErrUsernameTaken),
		errors.Is(err, service.ErrStoreNameTaken),
		errors.Is(err, service.ErrVendorExists):
		status = http.StatusConflict
	case errors.Is(err, service.ErrInsufficientStock):
		status = http.StatusUnprocessableEntity
	}

	c.JSON(status, response.Error(status, err.Error()))
}
