package client

import (
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/vaultblob/internal/common"
)

// ErrUnavailable marks a 503. It is an internal server error as well.
var ErrUnavailable = fmt.Errorf("server unavailable: %w", common.ErrorInternal)

// RestError is a non-2xx response of a storage or file data service.
type RestError struct {
	StatusCode   int
	Method       string
	URL          string
	ErrorID      string
	Precondition string
	Message      string
}

func (e *RestError) Error() string {
	msg := fmt.Sprintf("rest error %d", e.StatusCode)
	if e.Method != "" {
		msg += fmt.Sprintf(" (%s %s)", e.Method, e.URL)
	}
	if e.ErrorID != "" {
		msg += " error id " + e.ErrorID
	}
	if e.Precondition != "" {
		msg += " precondition " + e.Precondition
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

// Unwrap maps the status code onto the shared sentinel errors.
func (e *RestError) Unwrap() error {
	switch {
	case e.StatusCode == http.StatusUnauthorized, e.StatusCode == http.StatusForbidden:
		return common.ErrAccessDenied
	case e.StatusCode == http.StatusNotFound:
		return common.ErrorNotFound
	case e.StatusCode == http.StatusPreconditionFailed:
		return common.ErrPrecondition
	case e.StatusCode == http.StatusBadRequest:
		return common.ErrorBadRequest
	case e.StatusCode == http.StatusServiceUnavailable:
		return ErrUnavailable
	case e.StatusCode >= 500:
		return common.ErrorInternal
	}
	return nil
}

// HandleRestError builds the error for a failed request that was executed
// outside RestClient, e.g. by the native file bridge.
func HandleRestError(statusCode int, message, errorID, precondition string) error {
	return &RestError{
		StatusCode:   statusCode,
		ErrorID:      errorID,
		Precondition: precondition,
		Message:      message,
	}
}
