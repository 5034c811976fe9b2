// Package observability wraps device.Service with logging, tracing and
// metrics decorators, and exposes the Prometheus registry used by the HTTP
// layer and the fail-open cache.
package observability

import (
	"context"
	"errors"

	"github.com/goliatone/go-device-cache/internal/device"
)

// Operation names as they appear in logs, span names and metric labels.
const (
	OpRegisterDevice = "register_device"
	OpGetDevice      = "get_device_by_id"
	OpListDevices    = "list_devices"
	OpUpdateDevice   = "update_device"
	OpDeleteDevice   = "delete_device"
)

// Outcome labels.
const (
	OutcomeOK       = "ok"
	OutcomeNotFound = "not_found"
	OutcomeInvalid  = "invalid"
	OutcomeCanceled = "canceled"
	OutcomeError    = "error"
)

// Outcome classifies the result of a device operation.
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case device.IsNotFound(err):
		return OutcomeNotFound
	case device.IsValidation(err):
		return OutcomeInvalid
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return OutcomeCanceled
	default:
		return OutcomeError
	}
}
