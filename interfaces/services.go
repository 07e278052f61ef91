package interfaces

import (
	"context"

	"github.com/customeros/cardstack/dto"
	"github.com/customeros/cardstack/internal/models"
)

type ImportService interface {
	Import(ctx context.Context, tenant, fileName string, data []byte) (*dto.ImportResult, error)
}

type QuotaService interface {
	MonthlyUsage(ctx context.Context, tenant string) (int64, error)
	Admit(ctx context.Context, profile *models.TenantProfile, requested int) (bool, error)
	Check(ctx context.Context, profile *models.TenantProfile, requested int) error
	Summary(ctx context.Context, profile *models.TenantProfile) (*dto.QuotaSummary, error)
}

type WebInfoService interface {
	Summarize(ctx context.Context, url string) string
}

type OutreachService interface {
	DispatchBatch(ctx context.Context, tenant string, contactIDs []string) (*dto.DispatchResult, error)
	Send(ctx context.Context, tenant string, request dto.SendRequest) (*dto.SendReceipt, error)
	GenerateInitialEmail(ctx context.Context, tenant, contactID string) (*dto.GeneratedMessage, error)
	RewriteEmail(ctx context.Context, tenant string, request dto.RewriteRequest) (*dto.GeneratedMessage, error)
}

type ContactService interface {
	Get(ctx context.Context, tenant, id string) (*models.Contact, error)
	List(ctx context.Context, tenant string, limit, offset int) ([]models.Contact, int64, error)
	UploadCard(ctx context.Context, tenant, fileName string, image []byte) (*models.Contact, error)
	Update(ctx context.Context, tenant, id string, request dto.ContactUpdateRequest) (*models.Contact, error)
	Delete(ctx context.Context, tenant, id string) error
	DeleteMany(ctx context.Context, tenant string, ids []string) (int64, error)
}
