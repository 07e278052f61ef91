package quota

import (
	"context"
	"time"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	"github.com/customeros/cardstack/dto"
	"github.com/customeros/cardstack/interfaces"
	cserr "github.com/customeros/cardstack/internal/errors"
	"github.com/customeros/cardstack/internal/logger"
	"github.com/customeros/cardstack/internal/metrics"
	"github.com/customeros/cardstack/internal/models"
	"github.com/customeros/cardstack/internal/tracing"
)

type quotaService struct {
	log      logger.Logger
	history  interfaces.HistoryRepository
	location *time.Location
	now      func() time.Time
}

// NewQuotaService counts usage from the history store. Months start in the given location.
func NewQuotaService(log logger.Logger, history interfaces.HistoryRepository, location *time.Location) interfaces.QuotaService {
	return newQuotaService(log, history, location)
}

func newQuotaService(log logger.Logger, history interfaces.HistoryRepository, location *time.Location) *quotaService {
	if location == nil {
		location = time.UTC
	}
	return &quotaService{
		log:      log,
		history:  history,
		location: location,
		now:      time.Now,
	}
}

// LoadLocation resolves the configured zone name, falling back to UTC.
func LoadLocation(name string, log logger.Logger) *time.Location {
	if name == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		log.Warnf("unknown timezone %q, quota months start in UTC: %v", name, err)
		return time.UTC
	}
	return loc
}

// MonthStart is the first instant of now's calendar month in loc.
func MonthStart(now time.Time, loc *time.Location) time.Time {
	local := now.In(loc)
	return time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, loc)
}

func (s *quotaService) MonthlyUsage(ctx context.Context, tenant string) (int64, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "QuotaService.MonthlyUsage")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagTenant(span, tenant)

	if tenant == "" {
		return 0, cserr.ErrTenantMissing
	}

	since := MonthStart(s.now(), s.location)
	count, err := s.history.CountSince(ctx, tenant, since.UTC())
	if err != nil {
		tracing.TraceErr(span, err)
		return 0, errors.Wrap(err, "count monthly history")
	}
	span.LogKV("since", since, "count", count)
	return count, nil
}

// Admit reports whether requested more messages fit under the tenant ceiling.
func (s *quotaService) Admit(ctx context.Context, profile *models.TenantProfile, requested int) (bool, error) {
	if profile == nil {
		return false, cserr.ErrProfileNotFound
	}
	if requested < 1 {
		requested = 1
	}

	usage, err := s.MonthlyUsage(ctx, profile.Tenant)
	if err != nil {
		return false, err
	}
	return usage+int64(requested)-1 < int64(profile.Ceiling()), nil
}

func (s *quotaService) Check(ctx context.Context, profile *models.TenantProfile, requested int) error {
	admitted, err := s.Admit(ctx, profile, requested)
	if err != nil {
		return err
	}
	if !admitted {
		metrics.IncQuotaRejection()
		return errors.Wrapf(cserr.ErrQuotaExceeded, "limit %d", profile.Ceiling())
	}
	return nil
}

func (s *quotaService) Summary(ctx context.Context, profile *models.TenantProfile) (*dto.QuotaSummary, error) {
	if profile == nil {
		return nil, cserr.ErrProfileNotFound
	}
	usage, err := s.MonthlyUsage(ctx, profile.Tenant)
	if err != nil {
		return nil, err
	}

	remaining := int64(profile.Ceiling()) - usage
	if remaining < 0 {
		remaining = 0
	}
	return &dto.QuotaSummary{
		Sent:      usage,
		Limit:     profile.Ceiling(),
		Remaining: remaining,
	}, nil
}
