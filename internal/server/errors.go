package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jonathan/link-planner/internal/types"
)

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// ErrBusy indicates another run is still in progress.
type ErrBusy struct{}

func (e *ErrBusy) Error() string {
	return "a run is already in progress"
}

// ErrRunNotFound indicates no stored report has the requested id.
type ErrRunNotFound struct {
	RunID string
}

func (e *ErrRunNotFound) Error() string {
	return fmt.Sprintf("run not found: %s", e.RunID)
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var (
		validation *ErrValidation
		busy       *ErrBusy
		notFound   *ErrRunNotFound
	)
	switch {
	case errors.As(err, &validation), errors.Is(err, types.ErrConfig):
		return http.StatusBadRequest
	case errors.As(err, &busy):
		return http.StatusConflict
	case errors.As(err, &notFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
