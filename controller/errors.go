package controller

import "errors"

// Errors returned by the repository helpers. Check them with errors.Is.
var (
	ErrNotFound          = errors.New("record not found")
	ErrInvalidKey        = errors.New("lookup key must be an integer id or a string token")
	ErrNotSoftDeletable  = errors.New("model does not support soft delete")
	ErrColumnOutOfRange  = errors.New("row has no such column")
	ErrUnknownPermission = errors.New("unknown permission token")
	ErrUnsupportedFile   = errors.New("unsupported import file type")
)
