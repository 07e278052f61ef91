package errors

import "github.com/pkg/errors"

var (
	// common errors
	ErrTenantMissing     = errors.New("tenant is missing")
	ErrConnectionTimeout = errors.New("connection timeout")

	// import errors
	ErrUnreadableFile     = errors.New("unsupported file encoding, please re-export the file as UTF-8 or Shift_JIS CSV")
	ErrUnrecognizedSchema = errors.New("unrecognized import columns")
	ErrRowSkipped         = errors.New("row skipped: email is missing")

	// completion gateway errors
	ErrGatewayUnconfigured = errors.New("completion gateway is not configured")
	ErrGenerationFailed    = errors.New("content generation failed")

	// outreach errors
	ErrQuotaExceeded   = errors.New("monthly sending limit reached")
	ErrTransportFailed = errors.New("email delivery failed")
	ErrEmptySelection  = errors.New("no contacts selected")

	// contact / profile errors
	ErrContactNotFound     = errors.New("contact not found")
	ErrContactEmailMissing = errors.New("contact email is missing")
	ErrProfileNotFound     = errors.New("tenant profile not found")
	ErrHistoryNotFound     = errors.New("history entry not found")
)
