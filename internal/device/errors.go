package device

import (
	"errors"
	"sort"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	goerrors "github.com/goliatone/go-errors"
)

// ErrDeviceNotFound is returned by Store and Service lookups when no device
// has the requested id. Callers branch on it with errors.Is.
var ErrDeviceNotFound = goerrors.New("device not found", goerrors.CategoryNotFound)

// IsNotFound reports whether err is a device not found outcome.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrDeviceNotFound)
}

// IsValidation reports whether err is an input validation failure.
func IsValidation(err error) bool {
	var e *goerrors.Error
	return errors.As(err, &e) && e.Category == goerrors.CategoryValidation
}

// validationError converts ozzo validation output into a go-errors
// validation error with one FieldError per failing field.
func validationError(err error) error {
	if err == nil {
		return nil
	}

	var fields validation.Errors
	if !errors.As(err, &fields) {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "device validation failed")
	}

	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	fieldErrors := make([]goerrors.FieldError, 0, len(names))
	for _, name := range names {
		fieldErrors = append(fieldErrors, goerrors.FieldError{
			Field:   name,
			Message: fields[name].Error(),
		})
	}

	return goerrors.NewValidation("invalid device input", fieldErrors...)
}
