package services

import (
	"errors"
	"sort"
	"strings"

	"gorm.io/gorm"
)

// ValidationError reports malformed or missing form fields. Fields maps the
// form field name to the message shown next to it; "__all__" is form-wide.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func newValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}

// AuthError reports bad credentials or access the caller is not allowed
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string { return e.Message }

// NotFoundError reports a referenced entity that does not exist
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string { return e.Resource + " not found" }

// InvalidRequestError reports a request that cannot be served as sent
type InvalidRequestError struct {
	Message string
}

func (e *InvalidRequestError) Error() string { return e.Message }

// ErrInvalidCredentials is the message for failed logins
const ErrInvalidCredentials = "Please enter a correct username and password. Note that both fields may be case-sensitive."

// notFound translates gorm's missing-row error into a NotFoundError and leaves others alone
func notFound(err error, resource string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &NotFoundError{Resource: resource}
	}
	return err
}
