package models

import (
	"fmt"
	"strings"
)

// FieldError describes one invalid field of a request payload
type FieldError struct {
	Field       string `json:"field"`
	Description string `json:"description"`
}

// InvalidRequestDataError is returned when client data fails validation or
// refers to rows that do not exist. Duplicate optionally holds the existing
// row a rejected create collided with, and Row the CSV row index.
type InvalidRequestDataError struct {
	Errors    []FieldError
	Duplicate any
	Row       int
}

func NewInvalidRequestData(field, description string) *InvalidRequestDataError {
	return &InvalidRequestDataError{Errors: []FieldError{{Field: field, Description: description}}}
}

func (e *InvalidRequestDataError) Error() string {
	parts := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		parts = append(parts, fmt.Sprintf("%s: %s", fe.Field, fe.Description))
	}
	return "invalid request data: " + strings.Join(parts, "; ")
}
