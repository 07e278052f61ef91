package interfaces

import (
	"context"

	"github.com/customeros/cardstack/dto"
	"github.com/customeros/cardstack/internal/models"
)

type Transport interface {
	Send(ctx context.Context, profile *models.TenantProfile, message dto.OutboundMessage) (*dto.SendReceipt, error)
}

type MailMetricsProvider interface {
	Metrics(ctx context.Context) (*dto.HostedMailMetrics, error)
}
