package apierr

import (
	"errors"
	"fmt"
	"net/http"

	pkgerrors "github.com/yungbote/neurobridge-frameworks/internal/pkg/errors"
)

type Error struct {
	Status int
	Code   string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

// FromImport maps importer failures onto HTTP status codes.
func FromImport(err error) *Error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	var pe *pkgerrors.PersistenceError
	switch {
	case errors.Is(err, pkgerrors.ErrMalformedInput):
		return New(http.StatusBadRequest, "invalid_import_file", err)
	case errors.Is(err, pkgerrors.ErrImportInProgress):
		return New(http.StatusConflict, "import_in_progress", err)
	case errors.Is(err, pkgerrors.ErrNotFound):
		return New(http.StatusNotFound, "not_found", err)
	case errors.Is(err, pkgerrors.ErrInvalidArgument):
		return New(http.StatusBadRequest, "invalid_argument", err)
	case errors.As(err, &pe) && pe.Kind == pkgerrors.PersistenceConflict:
		return New(http.StatusConflict, "import_conflict", err)
	case errors.As(err, &pe) && pe.Kind == pkgerrors.PersistenceRetryable:
		return New(http.StatusServiceUnavailable, "import_retryable", err)
	case errors.Is(err, pkgerrors.ErrPersistence):
		return New(http.StatusInternalServerError, "import_persistence_failed", err)
	}
	return New(http.StatusInternalServerError, "internal_error", err)
}
