package errors

import (
	"net/http"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	cardstack_errors "github.com/customeros/cardstack/errors"
	cserr "github.com/customeros/cardstack/internal/errors"
	"github.com/customeros/cardstack/services/ai"
)

func TestStatusFor(t *testing.T) {
	cases := map[string]struct {
		err    error
		status int
	}{
		"tenant":        {cardstack_errors.ErrTenantNotSet, http.StatusBadRequest},
		"quota":         {errors.Wrapf(cserr.ErrQuotaExceeded, "limit %d", 100), http.StatusForbidden},
		"not found":     {cserr.ErrContactNotFound, http.StatusNotFound},
		"unreadable":    {errors.Wrap(cserr.ErrUnreadableFile, "detected EUC-JP"), http.StatusUnprocessableEntity},
		"unconfigured":  {cserr.ErrGatewayUnconfigured, http.StatusServiceUnavailable},
		"generation":    {&ai.GenerationError{Engine: "azure", Err: errors.New("boom")}, http.StatusBadGateway},
		"rate limited":  {&ai.GenerationError{Engine: "gemini", Err: &ai.APIError{StatusCode: http.StatusTooManyRequests}}, http.StatusTooManyRequests},
		"transport":     {errors.Wrap(cserr.ErrTransportFailed, "535 auth"), http.StatusBadGateway},
		"unknown error": {errors.New("disk full"), http.StatusInternalServerError},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.status, StatusFor(tc.err))
		})
	}
}

func TestMultiErrors(t *testing.T) {
	errs := NewMultiErrors()
	assert.False(t, errs.HasErrors())

	errs.Add("file", "please attach a file", errors.New("missing"))
	assert.True(t, errs.HasErrors())
	assert.Equal(t, "file: please attach a file", errs.Error())
}
