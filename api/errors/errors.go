package errors

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/pkg/errors"

	cardstack_errors "github.com/customeros/cardstack/errors"
	cserr "github.com/customeros/cardstack/internal/errors"
	"github.com/customeros/cardstack/services/ai"
)

type MultiErrors struct {
	Errors map[string][]ErrorInfo `json:"errors"`
}

type ErrorInfo struct {
	Message  string `json:"message"`
	RawError error  `json:"-"`
}

func NewMultiErrors() *MultiErrors {
	return &MultiErrors{
		Errors: make(map[string][]ErrorInfo),
	}
}

func (e *MultiErrors) Add(key, message string, err error) {
	e.Errors[key] = append(e.Errors[key], ErrorInfo{
		Message:  message,
		RawError: err,
	})
}

func (e *MultiErrors) HasErrors() bool {
	return len(e.Errors) > 0
}

func (e *MultiErrors) Error() string {
	var parts []string
	for field, errors := range e.Errors {
		for _, err := range errors {
			parts = append(parts, fmt.Sprintf("%s: %s", field, err.Message))
		}
	}
	return strings.Join(parts, " | ")
}

var statusBySentinel = []struct {
	err    error
	status int
}{
	{cserr.ErrTenantMissing, http.StatusBadRequest},
	{cardstack_errors.ErrTenantNotSet, http.StatusBadRequest},
	{cserr.ErrEmptySelection, http.StatusBadRequest},
	{cserr.ErrQuotaExceeded, http.StatusForbidden},
	{cserr.ErrContactNotFound, http.StatusNotFound},
	{cserr.ErrProfileNotFound, http.StatusNotFound},
	{cserr.ErrHistoryNotFound, http.StatusNotFound},
	{cserr.ErrUnreadableFile, http.StatusUnprocessableEntity},
	{cserr.ErrUnrecognizedSchema, http.StatusUnprocessableEntity},
	{cserr.ErrContactEmailMissing, http.StatusUnprocessableEntity},
	{cserr.ErrGatewayUnconfigured, http.StatusServiceUnavailable},
	{cserr.ErrConnectionTimeout, http.StatusServiceUnavailable},
	{cserr.ErrGenerationFailed, http.StatusBadGateway},
	{cserr.ErrTransportFailed, http.StatusBadGateway},
}

// StatusFor maps a service error to the HTTP status returned to the caller.
func StatusFor(err error) int {
	var apiErr *ai.APIError
	if errors.As(err, &apiErr) && apiErr.RateLimited() {
		return http.StatusTooManyRequests
	}
	for _, candidate := range statusBySentinel {
		if errors.Is(err, candidate.err) {
			return candidate.status
		}
	}
	return http.StatusInternalServerError
}
