package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	ErrNotFound        = errors.New("resource not found")
	ErrUploadNotFound  = fmt.Errorf("%w: upload", ErrNotFound)
	ErrMappingNotFound = fmt.Errorf("%w: column mapping", ErrNotFound)
	ErrTariffNotFound  = fmt.Errorf("%w: tariff", ErrNotFound)
	ErrInvalidMapping  = errors.New("invalid column mapping")
	ErrUploadNotReady  = errors.New("upload is not ready")
)

// NewNotFoundError wraps ErrNotFound with the resource and id that was missing.
func NewNotFoundError(resource string, id string) error {
	return fmt.Errorf("%w: %s %s", ErrNotFound, resource, id)
}
