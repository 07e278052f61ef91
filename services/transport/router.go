package transport

import (
	"context"

	"github.com/opentracing/opentracing-go"

	"github.com/customeros/cardstack/dto"
	"github.com/customeros/cardstack/interfaces"
	"github.com/customeros/cardstack/internal/metrics"
	"github.com/customeros/cardstack/internal/models"
	"github.com/customeros/cardstack/internal/tracing"
)

// Router delivers through the tenant's relay when it is fully configured, else through the hosted API.
type Router struct {
	relay  interfaces.Transport
	hosted interfaces.Transport
}

func NewRouter(relay, hosted interfaces.Transport) *Router {
	return &Router{relay: relay, hosted: hosted}
}

func (r *Router) Select(profile *models.TenantProfile) interfaces.Transport {
	if profile.RelayConfigured() {
		return r.relay
	}
	return r.hosted
}

// Send propagates the selected adapter's error unmodified.
func (r *Router) Send(ctx context.Context, profile *models.TenantProfile, message dto.OutboundMessage) (*dto.SendReceipt, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "TransportRouter.Send")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)

	useRelay := profile.RelayConfigured()
	span.LogKV("relay", useRelay)

	receipt, err := r.Select(profile).Send(ctx, profile, message)
	channel := channelName(useRelay)
	metrics.IncEmailSent(channel, err == nil)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	return receipt, nil
}

func channelName(relay bool) string {
	if relay {
		return "relay-smtp"
	}
	return "hosted-api"
}
