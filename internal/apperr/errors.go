// Package apperr defines the domain error taxonomy shared by the service
// and boundary layers. The core never references transport status codes;
// the API layer classifies these errors into responses.
package apperr

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ValidationError reports client-supplied data that violates a rule,
// carrying a field -> message map for the boundary to return verbatim.
type ValidationError struct {
	Fields map[string]string
}

// NewValidation builds a ValidationError for a single field.
func NewValidation(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}

func (e *ValidationError) Error() string {
	fields := make([]string, 0, len(e.Fields))
	for field, msg := range e.Fields {
		fields = append(fields, field+": "+msg)
	}
	sort.Strings(fields)
	return "validation failed: " + strings.Join(fields, "; ")
}

// NotFoundError reports that an id-addressed resource has no active record.
// A soft-deleted task is indistinguishable from one that never existed.
type NotFoundError struct {
	Resource string
	ID       int64
}

// NewNotFound builds a NotFoundError for the named resource and id.
func NewNotFound(resource string, id int64) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d was not found", e.Resource, e.ID)
}

// AsValidation unwraps err as a ValidationError, if it is one.
func AsValidation(err error) (*ValidationError, bool) {
	var verr *ValidationError
	ok := errors.As(err, &verr)
	return verr, ok
}

// AsNotFound unwraps err as a NotFoundError, if it is one.
func AsNotFound(err error) (*NotFoundError, bool) {
	var nerr *NotFoundError
	ok := errors.As(err, &nerr)
	return nerr, ok
}
