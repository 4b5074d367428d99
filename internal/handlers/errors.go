package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/anonto42/regional-voices/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// httpError maps a service error onto the HTTP status it stands for
func httpError(err error) error {
	var (
		notFound   *services.NotFoundError
		authErr    *services.AuthError
		invalid    *services.InvalidRequestError
		validation *services.ValidationError
	)
	switch {
	case errors.As(err, &notFound):
		return echo.NewHTTPError(http.StatusNotFound, notFound.Error())
	case errors.As(err, &authErr):
		return echo.NewHTTPError(http.StatusForbidden, authErr.Message)
	case errors.As(err, &invalid):
		return echo.NewHTTPError(http.StatusBadRequest, invalid.Message)
	case errors.As(err, &validation):
		return echo.NewHTTPError(http.StatusBadRequest, validation.Error())
	}
	return echo.NewHTTPError(http.StatusInternalServerError, "Internal server error").SetInternal(err)
}

// validationFields returns the field messages of a ValidationError
func validationFields(err error) (map[string]string, bool) {
	var validation *services.ValidationError
	if errors.As(err, &validation) {
		return validation.Fields, true
	}
	return nil, false
}

// paramID parses a positive integer path parameter. Anything else is a 404 like an unmatched route.
func paramID(c echo.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, echo.NewHTTPError(http.StatusNotFound, "Not found")
	}
	return uint(id), nil
}

// noErrors is the empty field-error map handed to form templates
func noErrors() map[string]string {
	return map[string]string{}
}
